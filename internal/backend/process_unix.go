// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package backend

import (
	"errors"
	"os"
	"syscall"
)

// sysProcAttr starts the job in its own process group so that signals reach
// everything the shell started.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(ps *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-ps.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}

	return err
}

func killGroup(ps *os.Process) error {
	return signalGroup(ps, syscall.SIGKILL)
}
