// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix

package backend

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func signalGroup(ps *os.Process, sig syscall.Signal) error {
	return ps.Signal(sig)
}

func killGroup(ps *os.Process) error {
	return ps.Kill()
}
