// Package image saves and restores HM32 machine state.
//
// An image file is a struc packed header, followed by a snappy stream
// holding the memory words:
//
//	[4]byte  magic "HM32"
//	uint32   format version
//	uint32   memory size, in words
//	uint8    overflow flag
//	[16]int32 registers
//	-- snappy stream --
//	uint32   memory size, in words
//	[]int32  memory
package image

import (
	"encoding/binary"
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/ezrec/hm32/cpu"
	"github.com/ezrec/hm32/translate"
)

var f = translate.From

const (
	IMAGE_MAGIC   = "HM32"
	IMAGE_VERSION = 1
)

var (
	ErrMagic   = errors.New(f("invalid image magic"))
	ErrVersion = errors.New(f("unsupported image version"))
	ErrSize    = errors.New(f("image size does not match machine"))
)

var order = binary.BigEndian

// Header is the fixed portion of an image file.
type Header struct {
	Magic    string  `struc:"[4]byte"`
	Version  uint32  `struc:"uint32"`
	Size     uint32  `struc:"uint32"`
	Overflow uint8   `struc:"uint8"`
	Register []int32 `struc:"[16]int32"`
}

// body is the compressed portion of an image file.
type body struct {
	Size   uint32 `struc:"uint32,sizeof=Memory"`
	Memory []int32
}

// bodySize is the leading word count of the compressed body.
type bodySize struct {
	Size uint32 `struc:"uint32"`
}

// Save writes the machine state to w.
func Save(w io.Writer, machine *cpu.Cpu) (err error) {
	header := &Header{
		Magic:    IMAGE_MAGIC,
		Version:  IMAGE_VERSION,
		Size:     uint32(machine.Size()),
		Register: append([]int32(nil), machine.Register[:]...),
	}
	if machine.Overflow {
		header.Overflow = 1
	}

	err = struc.PackWithOrder(w, header, order)
	if err != nil {
		return errors.Wrap(err, f("failed to pack header"))
	}

	zw := snappy.NewBufferedWriter(w)
	err = struc.PackWithOrder(zw, &body{Memory: machine.Memory}, order)
	if err != nil {
		zw.Close()
		return errors.Wrap(err, f("failed to pack memory"))
	}

	err = zw.Close()
	if err != nil {
		return errors.Wrap(err, f("failed to flush memory"))
	}

	return
}

// ReadHeader reads and validates an image header.
func ReadHeader(r io.Reader) (header *Header, err error) {
	header = &Header{}
	err = struc.UnpackWithOrder(r, header, order)
	if err != nil {
		return nil, errors.Wrap(err, f("failed to unpack header"))
	}
	if header.Magic != IMAGE_MAGIC {
		return nil, ErrMagic
	}
	if header.Version != IMAGE_VERSION {
		return nil, errors.Wrap(ErrVersion, f("version %d", header.Version))
	}
	if len(header.Register) != cpu.REGISTER_COUNT {
		return nil, errors.Wrap(ErrSize, f("register count"))
	}

	return
}

// Load reads the machine state from r. The image must have been saved
// from a machine with the same memory size. On error the machine is not
// modified.
func Load(r io.Reader, machine *cpu.Cpu) (err error) {
	header, err := ReadHeader(r)
	if err != nil {
		return
	}
	if int(header.Size) != machine.Size() {
		return errors.Wrap(ErrSize, f("image has %d words", header.Size))
	}

	zr := snappy.NewReader(r)

	// The word count is checked before any memory is allocated for it.
	prefix := &bodySize{}
	err = struc.UnpackWithOrder(zr, prefix, order)
	if err != nil {
		return errors.Wrap(err, f("failed to unpack memory size"))
	}
	if int(prefix.Size) != machine.Size() {
		return errors.Wrap(ErrSize, f("memory has %d words", prefix.Size))
	}

	memory := make([]int32, machine.Size())
	err = binary.Read(zr, order, memory)
	if err != nil {
		return errors.Wrap(err, f("failed to unpack memory"))
	}

	copy(machine.Register[:], header.Register)
	copy(machine.Memory, memory)
	machine.Overflow = header.Overflow != 0

	return
}
