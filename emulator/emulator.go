// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/hm32/cpu"
	"github.com/ezrec/hm32/internal"
	"github.com/ezrec/hm32/io"
)

// Emulator state. CPU + program listing + character I/O.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Tape io.Tape // Character I/O channel.

	Continue bool // If set, Run reports faults and continues past them.
	Limit    int  // If non-zero, the maximum number of steps Run will take.

	Faults []error // Faults reported and continued past by Run.
}

// NewEmulator creates a new emulator, with a memory of size words.
// A size of zero selects cpu.MEMORY_SIZE.
func NewEmulator(size uint) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(size),
		Program: &cpu.Program{},
	}

	emu.Cpu.Channel = &emu.Tape

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(map[string]string{
		"STACK_TOP": fmt.Sprintf("%#x", emu.Cpu.Size()),
	}),
		emu.Cpu.Defines(),
	)
}

// Reset the emulator state: clear the machine, load the program, start
// execution at address 0 with an empty stack at the top of memory.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false
	emu.Cpu.Reset()
	emu.Faults = nil

	err = emu.Program.Load(emu.Cpu)
	if err != nil {
		return
	}

	emu.Cpu.Register[cpu.REG_SP] = int32(emu.Cpu.Size())
	emu.Cpu.Verbose = emu.Verbose

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return int(emu.Cpu.Pc())
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.Fetch()
	return code
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Ip())
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Tick performs a single step of the emulator.
func (emu *Emulator) Tick() (status cpu.Status, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	ip := emu.Cpu.Pc()

	status, err = emu.Cpu.Step()
	if err != nil {
		err = &ErrRuntime{LineNo: lineno, Ip: ip, Err: err}
	}

	return
}

// Run ticks the emulator until it halts, faults, or reaches the step limit.
//
// When Continue is set, faults are logged, collected in Faults, and
// execution resumes at the following word.
func (emu *Emulator) Run() (status cpu.Status, err error) {
	for steps := 0; emu.Limit == 0 || steps < emu.Limit; steps++ {
		status, err = emu.Tick()
		if status == cpu.STATUS_OK {
			continue
		}
		if status == cpu.STATUS_HALT || !emu.Continue {
			return
		}
		if _, ferr := emu.Cpu.Fetch(); ferr != nil {
			// The program counter itself is invalid.
			return
		}

		log.Printf("emulator: %v", err)
		emu.Faults = append(emu.Faults, err)
		emu.Cpu.Register[cpu.REG_PC]++
	}

	status = cpu.STATUS_OK
	err = &ErrRuntime{LineNo: emu.LineNo(), Ip: emu.Cpu.Pc(), Err: ErrStepLimit}
	return
}

// Faulted returns true if any fault matching target was continued past.
func (emu *Emulator) Faulted(target error) bool {
	for _, err := range emu.Faults {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
