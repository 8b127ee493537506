// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"

	"github.com/joho/godotenv"
)

// ErrReadEnvFile is returned when an env file cannot be read or parsed.
var ErrReadEnvFile = errors.New("failed to read env file")

// LoadEnvFile parses a dotenv file into the variables it sets.
func LoadEnvFile(path string) (map[string]string, error) {
	f, err := FsFactory().Open(path)
	if err != nil {
		return nil, errors.Join(ErrReadEnvFile, err)
	}

	defer f.Close() //nolint:errcheck

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.Join(ErrReadEnvFile, err)
	}

	return vars, nil
}
