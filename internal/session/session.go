// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

// Session is the supervisor's per-tracee state from the exec-stop until
// tracee exit.
type Session struct {
	TraceePID      int
	RuntimeAddress uint64
	Width          Width
	LastValue      Value
	Initialized    bool
	SymbolLabel    string
}

// Arm transitions a freshly-created Session into its initialized state: the
// watchpoint has been installed at addr and seed holds the value observed
// immediately afterward.
func (s *Session) Arm(addr uint64, seed Value) {
	s.RuntimeAddress = addr
	s.Width = seed.Width()
	s.LastValue = seed
	s.Initialized = true
}

// Classify compares newVal against the session's last observed value and
// returns the Access event it represents. It also updates LastValue to
// newVal.
func (s *Session) Classify(newVal Value) Access {
	var ev Access
	if newVal.Equal(s.LastValue) {
		ev = Read{Label: s.SymbolLabel, Value: newVal}
	} else {
		ev = Write{Label: s.SymbolLabel, Before: s.LastValue, After: newVal}
	}
	s.LastValue = newVal
	return ev
}
