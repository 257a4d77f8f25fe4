// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package format

import (
	"bytes"
	"testing"

	"github.com/gwatch/gwatch/internal/session"
)

func TestEmitMatchesExactLineFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Emit(session.Write{Label: "xd4", Before: session.NewValue4(0), After: session.NewValue4(7)})
	w.Emit(session.Read{Label: "xd4", Value: session.NewValue4(7)})

	want := "<xd4>   write   0 -> 7\n<xd4>   read    7\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestEmitScenarioXd8(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Emit(session.Write{Label: "xd8", Before: session.NewValue8(0), After: session.NewValue8(11)})
	w.Emit(session.Write{Label: "xd8", Before: session.NewValue8(11), After: session.NewValue8(12)})
	w.Emit(session.Read{Label: "xd8", Value: session.NewValue8(12)})

	want := "<xd8>   write   0 -> 11\n<xd8>   write   11 -> 12\n<xd8>   read    12\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}
