// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session holds the per-tracee state the supervisor threads
// through the lifetime of a watched symbol: the width-tagged value last
// observed, and the read/write events derived from it.
package session

import (
	"encoding/binary"
	"fmt"
)

// Width is the size, in bytes, of the watched symbol. Only 4 and 8 are
// valid widths for a hardware data watchpoint of this kind.
type Width int

const (
	Width4 Width = 4
	Width8 Width = 8
)

// Value is a width-tagged signed integer. It exists so that comparisons and
// formatting always use the session's fixed signed width instead of storing
// raw bytes and reinterpreting them at each comparison.
type Value struct {
	width Width
	v4    int32
	v8    int64
}

// NewValue4 builds a 4-byte-wide Value.
func NewValue4(v int32) Value { return Value{width: Width4, v4: v} }

// NewValue8 builds an 8-byte-wide Value.
func NewValue8(v int64) Value { return Value{width: Width8, v8: v} }

// DecodeValue interprets buf, which must be exactly int(w) bytes long, as a
// little-endian signed integer of width w.
func DecodeValue(w Width, buf []byte) (Value, error) {
	switch w {
	case Width4:
		if len(buf) != 4 {
			return Value{}, fmt.Errorf("decode width 4: got %d bytes", len(buf))
		}
		return NewValue4(int32(binary.LittleEndian.Uint32(buf))), nil
	case Width8:
		if len(buf) != 8 {
			return Value{}, fmt.Errorf("decode width 8: got %d bytes", len(buf))
		}
		return NewValue8(int64(binary.LittleEndian.Uint64(buf))), nil
	default:
		return Value{}, fmt.Errorf("unsupported width %d", w)
	}
}

// Width reports the value's tagged width.
func (v Value) Width() Width { return v.width }

// Equal reports whether v and o hold the same signed value. Both must share
// the same width; Equal panics if they don't, since the session never
// mixes widths within a single run.
func (v Value) Equal(o Value) bool {
	if v.width != o.width {
		panic("session: comparing values of different widths")
	}
	switch v.width {
	case Width4:
		return v.v4 == o.v4
	default:
		return v.v8 == o.v8
	}
}

// String renders v in decimal using its signed width.
func (v Value) String() string {
	switch v.width {
	case Width4:
		return fmt.Sprintf("%d", v.v4)
	default:
		return fmt.Sprintf("%d", v.v8)
	}
}
