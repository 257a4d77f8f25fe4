// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package supervisor

import (
	"fmt"
	"os"
	"runtime"
	"syscall"

	"github.com/gwatch/gwatch/internal/tracee"
)

// ptraceRun runs all closures sent on fc on a single, dedicated OS thread
// and sends their errors back on ec. Every ptrace(2) call for a given
// tracee must originate from the thread that is its tracer (here, the
// thread that launched it; see launch), so all of the supervisor's
// kernel calls are funneled through this one goroutine.
func ptraceRun(fc chan func() error, ec chan error) {
	if cap(fc) != 0 || cap(ec) != 0 {
		panic("ptraceRun was given buffered channels")
	}
	runtime.LockOSThread()
	for f := range fc {
		ec <- f()
	}
}

type ptraceThread struct {
	fc chan func() error
	ec chan error
}

func newPtraceThread() *ptraceThread {
	t := &ptraceThread{fc: make(chan func() error), ec: make(chan error)}
	go ptraceRun(t.fc, t.ec)
	return t
}

// launch runs tracee.Launch on the ptrace thread itself. Launching the
// child from anywhere else would make the tracer the goroutine's
// currently-occupied (and unlocked) OS thread, while every later ptrace(2)
// call for this pid runs on the dedicated thread started by
// newPtraceThread: two different threads, which the kernel treats as two
// different tracers. Routing the fork/exec through fc like every other
// request keeps one thread as the tracer for the pid's entire lifetime.
func (t *ptraceThread) launch(path string, args []string) (*os.Process, error) {
	var proc *os.Process
	t.fc <- func() error {
		var err error
		proc, err = tracee.Launch(path, args)
		return err
	}
	return proc, <-t.ec
}

func (t *ptraceThread) cont(pid, signal int) error {
	t.fc <- func() error { return syscall.PtraceCont(pid, signal) }
	return <-t.ec
}

func (t *ptraceThread) singleStep(pid int) error {
	t.fc <- func() error { return syscall.PtraceSingleStep(pid) }
	return <-t.ec
}

func (t *ptraceThread) setOptions(pid, options int) error {
	t.fc <- func() error { return syscall.PtraceSetOptions(pid, options) }
	return <-t.ec
}

// do runs f on the ptrace thread. It is used for the raw PTRACE_POKEUSER
// and process_vm_readv calls in internal/watch, which must share the same
// thread affinity as every other ptrace(2) request for this tracee.
func (t *ptraceThread) do(f func() error) error {
	t.fc <- f
	return <-t.ec
}

// wait blocks for the next status change of pid (or, if pid is -1, any
// child). This is the supervisor's only suspension point.
func (t *ptraceThread) wait(pid int) (int, syscall.WaitStatus, error) {
	var wpid int
	var status syscall.WaitStatus
	t.fc <- func() error {
		var err error
		wpid, err = syscall.Wait4(pid, &status, 0, nil)
		return err
	}
	if err := <-t.ec; err != nil {
		return 0, 0, fmt.Errorf("wait4: %w", err)
	}
	return wpid, status, nil
}
