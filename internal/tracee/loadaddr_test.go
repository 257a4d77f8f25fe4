// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracee

import (
	"os"
	"testing"

	"github.com/gwatch/gwatch/internal/gwerr"
)

// TestLoadBaseFindsSelf exercises LoadBase against the running test
// binary's own /proc/self/maps, a self-introspection shortcut that avoids
// spawning a throwaway tracee just to exercise the maps parser.
func TestLoadBaseFindsSelf(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable unavailable: %v", err)
	}

	base, err := LoadBase(os.Getpid(), exe)
	if err != nil {
		t.Fatalf("LoadBase: %v", err)
	}
	if base == 0 {
		t.Errorf("LoadBase returned 0")
	}
}

func TestLoadBaseNotFound(t *testing.T) {
	_, err := LoadBase(os.Getpid(), "/definitely/not/a/mapped/binary-zzz")
	gerr, ok := err.(*gwerr.Error)
	if !ok {
		t.Fatalf("want *gwerr.Error, got %T (%v)", err, err)
	}
	if gerr.Kind != gwerr.LoadAddressNotFound {
		t.Errorf("want LoadAddressNotFound, got %v", gerr.Kind)
	}
}
