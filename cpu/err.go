package cpu

import (
	"errors"

	"github.com/ezrec/hm32/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalt               = errors.New(f("halt"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrNotImplemented     = errors.New(f("instruction not implemented"))
	ErrOutOfRange         = errors.New(f("out of range"))
	ErrChannelInvalid     = errors.New(f("channel invalid"))
	ErrChannelIo          = errors.New(f("channel i/o"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrValueRange         = errors.New(f("value out of range"))
	ErrCodeOverlap        = errors.New(f("code overlaps earlier code"))
)

// ErrOpcode reports the instruction word that faulted.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%08x %v", uint32(eo), Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrRegister reports a register index outside of the register file.
type ErrRegister int

func (er ErrRegister) Error() string {
	return f("register %d out of range", int(er))
}

func (er ErrRegister) Unwrap() error {
	return ErrOutOfRange
}

// ErrAddress reports a word address outside of memory.
type ErrAddress int64

func (ea ErrAddress) Error() string {
	return f("address 0x%x out of range", int64(ea))
}

func (ea ErrAddress) Unwrap() error {
	return ErrOutOfRange
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
