// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package format renders session.Access events to the fixed, column-aligned
// line format gwatch writes to stdout.
package format

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gwatch/gwatch/internal/session"
)

// Writer is a session.Sink that writes one line per event to w, in the
// format:
//
//	<SYMBOL>   read    VALUE
//	<SYMBOL>   write   BEFORE -> AFTER
//
// Three ASCII spaces separate columns; read/write stay lowercase.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w for buffered event output. Emit flushes the buffer after
// every event, so each line has reached w by the time Emit returns.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// opColumnWidth is the padded width of the read/write column: "read" and
// "write" both end up followed by enough spaces that the value column
// lines up, e.g. "read    7" and "write   0 -> 7" both start their value
// at the same offset.
const opColumnWidth = 8

// Emit implements session.Sink.
func (f *Writer) Emit(ev session.Access) {
	switch e := ev.(type) {
	case session.Read:
		fmt.Fprintf(f.w, "<%s>   %-*s%s\n", e.Label, opColumnWidth, "read", e.Value)
	case session.Write:
		fmt.Fprintf(f.w, "<%s>   %-*s%s -> %s\n", e.Label, opColumnWidth, "write", e.Before, e.After)
	}
	f.w.Flush()
}
