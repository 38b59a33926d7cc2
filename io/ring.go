package io

import (
	"io"
)

// RING_DEFAULT_CAPACITY is the default capacity in bytes for a new ring.
const RING_DEFAULT_CAPACITY = 4096

// Ring is a fixed capacity circular byte buffer. Bytes written are read
// back in order, so a Ring serves both as a loopback Channel and as the
// io.Reader queue behind a Tape.
type Ring struct {
	Capacity int

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []byte
}

var (
	_ Channel   = (*Ring)(nil)
	_ io.Reader = (*Ring)(nil)
	_ io.Writer = (*Ring)(nil)
)

// Rewind empties the ring.
func (ring *Ring) Rewind() {
	if ring.Capacity == 0 {
		ring.Capacity = RING_DEFAULT_CAPACITY
	}
	ring.ReadIndex = 0
	ring.WriteIndex = 0
	ring.Size = 0
	ring.Data = make([]byte, ring.Capacity)
}

// Len returns the number of bytes waiting to be read.
func (ring *Ring) Len() int {
	return ring.Size
}

// ReadChar removes the oldest byte from the ring.
func (ring *Ring) ReadChar() (value byte, err error) {
	if ring.Size == 0 {
		err = io.EOF
		return
	}

	value = ring.Data[ring.ReadIndex]
	ring.ReadIndex++
	if ring.ReadIndex == ring.Capacity {
		ring.ReadIndex = 0
	}
	ring.Size--

	return
}

// WriteChar appends a byte to the ring.
// Returns ErrChannelFull if the ring is at capacity.
func (ring *Ring) WriteChar(value byte) (err error) {
	if ring.Data == nil {
		ring.Rewind()
	}

	if ring.Size == ring.Capacity {
		err = ErrChannelFull
		return
	}

	ring.Data[ring.WriteIndex] = value
	ring.WriteIndex++
	if ring.WriteIndex == ring.Capacity {
		ring.WriteIndex = 0
	}
	ring.Size++

	return
}

// Read drains up to len(p) bytes. An empty ring reads as io.EOF.
func (ring *Ring) Read(p []byte) (n int, err error) {
	if len(p) > 0 && ring.Size == 0 {
		err = io.EOF
		return
	}

	for n < len(p) && ring.Size > 0 {
		p[n], _ = ring.ReadChar()
		n++
	}

	return
}

// Write appends all of p, or none of it if the ring lacks the room.
func (ring *Ring) Write(p []byte) (n int, err error) {
	if ring.Data == nil {
		ring.Rewind()
	}

	if len(p) > ring.Capacity-ring.Size {
		err = ErrChannelFull
		return
	}

	for _, value := range p {
		_ = ring.WriteChar(value)
		n++
	}

	return
}
