// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
)

const (
	goosWindows      = "windows"
	winSystem32      = "System32"
	cmdExe           = "cmd.exe"
	binSh            = "/bin/sh"
	winSystemRootEnv = "SystemRoot"
)

// Shell is the interpreter a command string is run with.
type Shell struct {
	Path string   // Absolute path of the interpreter
	Args []string // Arguments placed before the command, e.g. "-c"
}

// argv returns the arguments to run command with.
func (s Shell) argv(command string) []string {
	return append(append([]string{}, s.Args...), command)
}

// DefaultShell returns $SHELL, or /bin/sh, or cmd.exe on Windows.
func DefaultShell(ctx context.Context) Shell {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return Shell{
			Path: fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe),
			Args: []string{"/C"},
		}
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		ctxlog.Debug(ctx, "using SHELL environment variable", "shell", shell)
		return Shell{Path: shell, Args: []string{"-c"}}
	}

	return Shell{Path: binSh, Args: []string{"-c"}}
}

// LookupShell resolves a shell given by name or path, e.g. "bash" or "/bin/zsh".
func LookupShell(name string) (Shell, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Shell{}, ErrNoShell
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return Shell{}, fmt.Errorf("%w: %w", ErrNoShell, err)
	}

	args := []string{"-c"}
	if strings.EqualFold(filepath.Base(path), cmdExe) {
		args = []string{"/C"}
	}

	return Shell{Path: path, Args: args}, nil
}
