// Package io provides the character streams the HM32 machine uses for its
// I/O instructions.
package io

// Channel defines the interface for the character I/O attached to the CPU.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// ReadChar blocks until a character is available.
	ReadChar() (value byte, err error)
	// WriteChar writes a single character.
	WriteChar(value byte) error
}
