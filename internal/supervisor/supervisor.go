// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package supervisor implements component E of the gwatch design: the
// ptrace stop/continue state machine that turns hardware watchpoint traps
// into session.Access events.
package supervisor

import (
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gwatch/gwatch/internal/elfsym"
	"github.com/gwatch/gwatch/internal/gwerr"
	"github.com/gwatch/gwatch/internal/session"
	"github.com/gwatch/gwatch/internal/tracee"
	"github.com/gwatch/gwatch/internal/watch"
)

// Config is the fully-parsed configuration the supervisor consumes; it
// never looks at os.Args or the environment itself.
type Config struct {
	BinaryPath string
	Symbol     string
	Args       []string // forwarded verbatim after "--"
}

// Run launches the tracee described by cfg, arms a watchpoint on Symbol at
// the first exec-stop, and feeds every subsequent access to sink until the
// tracee exits. It returns the tracee's mirrored exit status on a clean
// run, or 1 on any supervisor error.
func Run(cfg Config, sink session.Sink, log *logrus.Logger) (int, error) {
	sym, err := elfsym.Resolve(cfg.BinaryPath, cfg.Symbol)
	if err != nil {
		log.WithFields(logrus.Fields{"binary": cfg.BinaryPath, "symbol": cfg.Symbol}).
			Error(err)
		return 1, err
	}

	t := newPtraceThread()
	defer close(t.fc)

	proc, err := t.launch(cfg.BinaryPath, cfg.Args)
	if err != nil {
		log.WithField("binary", cfg.BinaryPath).Error(err)
		return 1, err
	}
	pid := proc.Pid
	log.WithFields(logrus.Fields{"pid": pid, "symbol": cfg.Symbol}).Debug("tracee launched")

	sess := &session.Session{SymbolLabel: cfg.Symbol}

	for {
		wpid, status, err := t.wait(-1)
		if err != nil {
			log.WithField("pid", pid).Error(err)
			return 1, gwerr.Wrap(gwerr.PtraceFailure, "wait", err)
		}
		if wpid != pid {
			continue
		}

		switch {
		case status.Exited():
			code := status.ExitStatus()
			if code != 0 {
				log.WithFields(logrus.Fields{"pid": pid, "code": code}).
					Warn("tracee exited non-zero")
			} else {
				log.WithField("pid", pid).Debug("tracee exited")
			}
			return code, nil

		case status.Stopped() && status.StopSignal() == syscall.SIGTRAP:
			if !sess.Initialized {
				// PTRACE_TRACEME gives no ptrace-stop to set options on
				// before this first trap, so the exec-stop itself is
				// identified the only way available here: it is
				// whatever SIGTRAP arrives before the session is armed.
				// Setting PTRACE_O_TRACEEXEC now makes any further exec
				// by the tracee unambiguous, rather than silently
				// misread as a watchpoint hit.
				if err := armSession(t, pid, cfg.BinaryPath, sym, sess, log); err != nil {
					return 1, err
				}
				if err := t.setOptions(pid, unix.PTRACE_O_TRACEEXEC); err != nil {
					err = gwerr.Wrap(gwerr.PtraceFailure, "setting PTRACE_O_TRACEEXEC", err)
					log.WithField("pid", pid).Error(err)
					return 1, err
				}
			} else if status.TrapCause() == unix.PTRACE_EVENT_EXEC {
				err := gwerr.New(gwerr.UnexpectedStop, "tracee re-exec'd after the watchpoint was armed")
				log.WithField("pid", pid).Error(err)
				return 1, err
			} else {
				if err := handleWatchpointHit(t, pid, sess, sink, log); err != nil {
					return 1, err
				}
			}
			if err := t.cont(pid, 0); err != nil {
				err = gwerr.Wrap(gwerr.PtraceFailure, "continuing tracee", err)
				log.WithField("pid", pid).Error(err)
				return 1, err
			}

		default:
			sig := status.StopSignal()
			err := gwerr.New(gwerr.UnexpectedStop, sig.String())
			log.WithFields(logrus.Fields{"pid": pid, "signal": sig}).Error(err)
			return 1, err
		}
	}
}

// armSession resolves the runtime address of the watched symbol, installs
// the watchpoint, and seeds the session's last-observed value. This is the
// exec-stop transition of the state machine.
func armSession(t *ptraceThread, pid int, binaryPath string, sym elfsym.Symbol, sess *session.Session, log *logrus.Logger) error {
	var loadBase uint64
	if sym.EType == elfsym.ETDyn {
		var err error
		if err = t.do(func() error {
			var innerErr error
			loadBase, innerErr = tracee.LoadBase(pid, binaryPath)
			return innerErr
		}); err != nil {
			log.WithField("pid", pid).Error(err)
			return err
		}
	}
	addr := sym.Offset + loadBase

	width := session.Width(sym.Size)
	if err := t.do(func() error { return watch.Install(pid, addr, width) }); err != nil {
		err = gwerr.Wrap(gwerr.PtraceFailure, "installing watchpoint", err)
		log.WithFields(logrus.Fields{"pid": pid, "addr": addr}).Error(err)
		return err
	}

	var seed session.Value
	if err := t.do(func() error {
		var innerErr error
		seed, innerErr = watch.ReadValue(pid, addr, width)
		return innerErr
	}); err != nil {
		log.WithFields(logrus.Fields{"pid": pid, "addr": addr}).Error(err)
		return err
	}

	sess.Arm(addr, seed)
	log.WithFields(logrus.Fields{"pid": pid, "addr": addr, "width": int(width)}).
		Debug("watchpoint armed")
	return nil
}

// handleWatchpointHit executes the single-step-then-reread protocol:
// debug-register traps fire before the triggering instruction retires, so
// classification requires stepping past it first.
func handleWatchpointHit(t *ptraceThread, pid int, sess *session.Session, sink session.Sink, log *logrus.Logger) error {
	if err := t.singleStep(pid); err != nil {
		err = gwerr.Wrap(gwerr.PtraceFailure, "single-stepping", err)
		log.WithField("pid", pid).Error(err)
		return err
	}
	wpid, status, err := t.wait(pid)
	if err != nil {
		err = gwerr.Wrap(gwerr.PtraceFailure, "waiting after single-step", err)
		log.WithField("pid", pid).Error(err)
		return err
	}
	if wpid != pid || !status.Stopped() || status.StopSignal() != syscall.SIGTRAP {
		err := gwerr.New(gwerr.UnexpectedStop, "unexpected status after single-step")
		log.WithField("pid", pid).Error(err)
		return err
	}

	var newVal session.Value
	if err := t.do(func() error {
		var innerErr error
		newVal, innerErr = watch.ReadValue(pid, sess.RuntimeAddress, sess.Width)
		return innerErr
	}); err != nil {
		log.WithField("pid", pid).Error(err)
		return err
	}

	sink.Emit(sess.Classify(newVal))
	return nil
}
