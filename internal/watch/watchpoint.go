// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch programs the x86-64 debug registers to arm a single
// hardware data watchpoint, and performs the cross-process memory reads
// the supervisor needs to observe the watched value.
package watch

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gwatch/gwatch/internal/gwerr"
	"github.com/gwatch/gwatch/internal/session"
)

// debugRegOffset is offsetof(struct user, u_debugreg) in glibc's
// <sys/user.h> on linux/amd64. The standard library's syscall package
// exposes PTRACE_PEEKUSER/POKEUSER nowhere, so arming DR0/DR7 has to go
// through the raw PTRACE_POKEUSER request directly via unix.Syscall6,
// the same way ptrace requests syscall.PtraceCont and friends don't
// cover get issued elsewhere.
const debugRegOffset = 848

// dr7 field layout, data-watchpoint-only (slot 0, DR1-DR3 left zero):
//   bit 0:      local enable, slot 0
//   bits 16-17: RW field, slot 0 (0b11 = break on data read or write)
//   bits 18-19: LEN field, slot 0 (0b11 = 4 bytes, 0b10 = 8 bytes)
const (
	dr7LocalEnable0 = 1 << 0
	dr7RWDataRW0    = 0b11 << 16
	dr7Len4_0       = 0b11 << 18
	dr7Len8_0       = 0b10 << 18
)

// Install programs DR0 with addr and DR7 with the enable/RW/length fields
// for a width-byte data watchpoint at slot 0. On return the tracee, next
// time it's resumed, will trap on any read or write access of the given
// width at addr.
func Install(pid int, addr uint64, width session.Width) error {
	dr7, err := dr7For(width)
	if err != nil {
		return err
	}
	if err := pokeUser(pid, debugRegOffset, addr); err != nil {
		return gwerr.Wrap(gwerr.PtraceFailure, "poking DR0", err)
	}
	if err := pokeUser(pid, debugRegOffset+7*8, dr7); err != nil {
		return gwerr.Wrap(gwerr.PtraceFailure, "poking DR7", err)
	}
	return nil
}

// dr7For computes the DR7 control value for a single slot-0 data
// watchpoint of the given width, per the bit layout documented above.
func dr7For(width session.Width) (uint64, error) {
	dr7 := uint64(dr7LocalEnable0 | dr7RWDataRW0)
	switch width {
	case session.Width4:
		return dr7 | dr7Len4_0, nil
	case session.Width8:
		return dr7 | dr7Len8_0, nil
	default:
		return 0, gwerr.New(gwerr.PtraceFailure, fmt.Sprintf("unsupported watchpoint width %d", width))
	}
}

// pokeUser issues PTRACE_POKEUSER(pid, offset, data) directly, since
// golang.org/x/sys/unix (like the stdlib syscall package) stops at
// PtracePeekData/PtracePokeData over the tracee's text/data space and
// never wraps the user-area request.
func pokeUser(pid int, offset uintptr, data uint64) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_POKEUSR, uintptr(pid), offset, uintptr(data), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// ReadValue performs a single cross-process read of width bytes at addr in
// pid's address space and decodes it as a session.Value. A short read is
// fatal to the session and reported as CrossProcessReadFailure.
func ReadValue(pid int, addr uint64, width session.Width) (session.Value, error) {
	buf := make([]byte, width)
	n, err := processVMReadv(pid, uintptr(addr), buf)
	if err != nil {
		return session.Value{}, gwerr.Wrap(gwerr.CrossProcessReadFailure, "process_vm_readv", err)
	}
	if n != len(buf) {
		return session.Value{}, gwerr.New(gwerr.CrossProcessReadFailure,
			fmt.Sprintf("short read: got %d bytes, want %d", n, len(buf)))
	}
	val, err := session.DecodeValue(width, buf)
	if err != nil {
		return session.Value{}, gwerr.Wrap(gwerr.CrossProcessReadFailure, "decoding value", err)
	}
	return val, nil
}

// processVMReadv performs a single vectored read from the target process's
// address space into data, grounded on the same unix.ProcessVMReadv call
// DataDog's ptracer package uses to read a tracee's memory in one syscall
// rather than word-at-a-time PTRACE_PEEKDATA.
func processVMReadv(pid int, addr uintptr, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	localIov := []unix.Iovec{{Base: &data[0], Len: uint64(len(data))}}
	remoteIov := []unix.RemoteIovec{{Base: addr, Len: len(data)}}
	return unix.ProcessVMReadv(pid, localIov, remoteIov, 0)
}
