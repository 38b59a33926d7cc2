package io

import (
	"bufio"
	"io"
)

// Tape provides sequential character I/O over byte streams.
// It wraps an io.Reader for input and io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	reader *bufio.Reader
	source io.Reader

	Read    int // Characters read.
	Written int // Characters written.
}

var _ Channel = (*Tape)(nil)

// Rewind clears the counters. Input already buffered from an unchanged
// Input is kept, so queued characters survive a machine reset.
func (tc *Tape) Rewind() {
	tc.Read = 0
	tc.Written = 0
}

// ReadChar reads the next byte from the input stream.
func (tc *Tape) ReadChar() (value byte, err error) {
	if tc.Input == nil {
		err = ErrChannelNoInput
		return
	}

	if tc.reader == nil || tc.source != tc.Input {
		tc.reader = bufio.NewReader(tc.Input)
		tc.source = tc.Input
	}

	value, err = tc.reader.ReadByte()
	if err != nil {
		return
	}

	tc.Read++
	return
}

// WriteChar writes a byte to the output stream.
func (tc *Tape) WriteChar(value byte) (err error) {
	if tc.Output == nil {
		err = ErrChannelNoOutput
		return
	}

	_, err = tc.Output.Write([]byte{value})
	if err != nil {
		return
	}

	tc.Written++
	return
}
