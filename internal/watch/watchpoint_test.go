// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watch

import (
	"testing"

	"github.com/gwatch/gwatch/internal/session"
)

func TestDR7ForWidth4(t *testing.T) {
	dr7, err := dr7For(session.Width4)
	if err != nil {
		t.Fatal(err)
	}
	const want = 1 | (0b11 << 16) | (0b11 << 18)
	if dr7 != want {
		t.Errorf("dr7For(4) = %#x, want %#x", dr7, uint64(want))
	}
}

func TestDR7ForWidth8(t *testing.T) {
	dr7, err := dr7For(session.Width8)
	if err != nil {
		t.Fatal(err)
	}
	const want = 1 | (0b11 << 16) | (0b10 << 18)
	if dr7 != want {
		t.Errorf("dr7For(8) = %#x, want %#x", dr7, uint64(want))
	}
}

func TestDR7ForUnsupportedWidth(t *testing.T) {
	if _, err := dr7For(session.Width(5)); err == nil {
		t.Error("want error for width 5, got nil")
	}
}
