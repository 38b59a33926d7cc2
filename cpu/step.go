package cpu

import (
	"errors"
	"log"
)

// Fetch returns the instruction at the program counter.
func (cpu *Cpu) Fetch() (code Code, err error) {
	pc := cpu.Register[REG_PC]
	err = cpu.checkAddress(int64(pc))
	if err != nil {
		return
	}

	code = Code(cpu.Memory[pc])
	return
}

// Step fetches, decodes and executes exactly one instruction.
//
// On STATUS_OK the program counter has moved to the next instruction. Any
// other status leaves the machine unmodified; err carries the detail of a
// fault, and is nil for STATUS_HALT.
func (cpu *Cpu) Step() (status Status, err error) {
	code, err := cpu.Fetch()
	if err != nil {
		status = StatusOf(err)
		return
	}

	if cpu.Verbose {
		log.Printf("%05x: %v", cpu.Register[REG_PC], code)
	}

	flow, err := cpu.Execute(code)
	status = StatusOf(err)
	if errors.Is(err, ErrHalt) {
		err = nil
	}
	if status != STATUS_OK {
		if cpu.Verbose && err != nil {
			log.Printf("%05x: %v", cpu.Register[REG_PC], err)
		}
		return
	}

	cpu.Register[REG_PC] = flow.Next(cpu.Register[REG_PC])
	cpu.Ticks++

	return
}

// Run steps the CPU until it halts or faults.
func (cpu *Cpu) Run() (status Status, err error) {
	for {
		status, err = cpu.Step()
		if status != STATUS_OK {
			return
		}
	}
}
