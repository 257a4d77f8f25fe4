// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import "testing"

func TestClassifyWriteThenRead(t *testing.T) {
	sess := &Session{SymbolLabel: "xd4"}
	sess.Arm(0x1000, NewValue4(0))

	ev := sess.Classify(NewValue4(7))
	w, ok := ev.(Write)
	if !ok {
		t.Fatalf("want Write, got %T", ev)
	}
	if w.Before.String() != "0" || w.After.String() != "7" {
		t.Errorf("got before=%v after=%v", w.Before, w.After)
	}

	ev = sess.Classify(NewValue4(7))
	r, ok := ev.(Read)
	if !ok {
		t.Fatalf("want Read, got %T", ev)
	}
	if r.Value.String() != "7" {
		t.Errorf("got value=%v", r.Value)
	}
}

func TestClassifyConsecutiveEventsChain(t *testing.T) {
	sess := &Session{SymbolLabel: "xd8"}
	sess.Arm(0x2000, NewValue8(0))

	first := sess.Classify(NewValue8(11)).(Write)
	second := sess.Classify(NewValue8(12)).(Write)
	third := sess.Classify(NewValue8(12)).(Read)

	if !first.After.Equal(second.Before) {
		t.Errorf("event chain broke: %v != %v", first.After, second.Before)
	}
	if !second.After.Equal(third.Value) {
		t.Errorf("event chain broke: %v != %v", second.After, third.Value)
	}
}

func TestDecodeValueWidths(t *testing.T) {
	v4, err := DecodeValue(Width4, []byte{0xff, 0xff, 0xff, 0xff})
	if err != nil {
		t.Fatal(err)
	}
	if v4.String() != "-1" {
		t.Errorf("want -1, got %s", v4)
	}

	v8, err := DecodeValue(Width8, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	if err != nil {
		t.Fatal(err)
	}
	if v8.String() != "-1" {
		t.Errorf("want -1, got %s", v8)
	}

	if _, err := DecodeValue(Width4, []byte{1, 2, 3}); err == nil {
		t.Error("want error for short buffer")
	}
}

func TestValueEqualPanicsOnWidthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want panic comparing mismatched widths")
		}
	}()
	NewValue4(1).Equal(NewValue8(1))
}
