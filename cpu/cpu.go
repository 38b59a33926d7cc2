package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/hm32/io"
)

// Channel is the character I/O interface.
type Channel io.Channel

// Cpu is the simulation context for the HM32 machine: the register file,
// the memory, and the character channel used by the I/O instructions.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [REGISTER_COUNT]int32 // Register bank. r15 is PC, r14 is SP.
	Memory   []int32               // Word addressed memory.
	Overflow bool                  // Signed overflow of the last add or subtract.

	Ticks int // Instructions executed.

	Channel Channel // Character I/O channel.
}

// NewCpu creates a new CPU with a specifically sized memory, in words.
// A size of zero selects MEMORY_SIZE.
func NewCpu(size uint) (cpu *Cpu) {
	if size == 0 {
		size = MEMORY_SIZE
	}
	if size > ADDRESS_LIMIT {
		size = ADDRESS_LIMIT
	}

	cpu = &Cpu{
		Memory: make([]int32, size),
	}

	return
}

// Reset the CPU state.
// - Clears the registers and memory.
// - Zeros the statistics counters.
// - Rewinds the I/O channel.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory)
	cpu.Overflow = false
	cpu.Ticks = 0

	if cpu.Channel != nil {
		cpu.Channel.Rewind()
	}
}

// Size returns the memory size, in words.
func (cpu *Cpu) Size() int {
	return len(cpu.Memory)
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() int32 {
	return cpu.Register[REG_PC]
}

// Sp returns the stack pointer.
func (cpu *Cpu) Sp() int32 {
	return cpu.Register[REG_SP]
}

// checkRegister verifies a register index.
func checkRegister(index int) (err error) {
	if index < 0 || index >= REGISTER_COUNT {
		err = ErrRegister(index)
	}
	return
}

// checkAddress verifies a word address.
func (cpu *Cpu) checkAddress(address int64) (err error) {
	if address < 0 || address >= int64(len(cpu.Memory)) {
		err = ErrAddress(address)
	}
	return
}

// GetRegister returns the value of a register.
func (cpu *Cpu) GetRegister(index int) (value int32, err error) {
	err = checkRegister(index)
	if err != nil {
		return
	}

	value = cpu.Register[index]
	return
}

// SetRegister sets the value of a register.
func (cpu *Cpu) SetRegister(index int, value int32) (err error) {
	err = checkRegister(index)
	if err != nil {
		return
	}

	cpu.Register[index] = value
	return
}

// ReadMemory returns the word at a memory address.
func (cpu *Cpu) ReadMemory(address int) (value int32, err error) {
	err = cpu.checkAddress(int64(address))
	if err != nil {
		return
	}

	value = cpu.Memory[address]
	return
}

// WriteMemory sets the word at a memory address.
func (cpu *Cpu) WriteMemory(address int, value int32) (err error) {
	err = cpu.checkAddress(int64(address))
	if err != nil {
		return
	}

	cpu.Memory[address] = value
	return
}

// RegisterLine returns the diagnostic line for a register.
func (cpu *Cpu) RegisterLine(index int) string {
	return f("Register %X = %08X", index, uint32(cpu.Register[index]))
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder
	for n := range REGISTER_COUNT {
		name := fmt.Sprintf("r%d", n)
		switch n {
		case REG_SP:
			name = "sp"
		case REG_PC:
			name = "pc"
		}
		val := uint32(cpu.Register[n])
		fmt.Fprintf(&sb, "% 5s: %04X_%04X\n", name, val>>16, val&0xffff)
	}
	ov := "false"
	if cpu.Overflow {
		ov = "true"
	}
	fmt.Fprintf(&sb, "% 5s: %v\n", "ov", ov)

	return sb.String()
}

// Defines for the cpu, usable as assembler predefines.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%#x", len(cpu.Memory)),
		"SP":          "r14",
		"PC":          "r15",
	})
}
