package cpu

import (
	"errors"
	"fmt"
)

// Status is the outcome of executing an instruction.
type Status int

const (
	STATUS_OK                  = Status(0) // ok
	STATUS_HALT                = Status(1) // halt
	STATUS_INVALID_INSTRUCTION = Status(2) // invalid instruction
	STATUS_NOT_IMPLEMENTED     = Status(3) // not implemented
	STATUS_OUT_OF_RANGE        = Status(4) // out of range
	STATUS_IO_ERROR            = Status(5) // i/o error
)

var statusNames = [...]string{
	"ok",
	"halt",
	"invalid instruction",
	"not implemented",
	"out of range",
	"i/o error",
}

func (st Status) String() string {
	if st < 0 || int(st) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(st))
	}
	return statusNames[st]
}

// Fault returns true if the status stops normal execution abnormally.
func (st Status) Fault() bool {
	return st != STATUS_OK && st != STATUS_HALT
}

// StatusOf maps an execution error to its status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return STATUS_OK
	case errors.Is(err, ErrHalt):
		return STATUS_HALT
	case errors.Is(err, ErrNotImplemented):
		return STATUS_NOT_IMPLEMENTED
	case errors.Is(err, ErrOutOfRange):
		return STATUS_OUT_OF_RANGE
	case errors.Is(err, ErrChannelInvalid), errors.Is(err, ErrChannelIo):
		return STATUS_IO_ERROR
	default:
		return STATUS_INVALID_INSTRUCTION
	}
}
