package cpu

// The stack lives in memory and grows down: SP addresses the most recently
// pushed word.

// stackPush returns the slot and new SP for a push, without modifying state.
func (cpu *Cpu) stackPush() (sp int32, err error) {
	sp = cpu.Register[REG_SP] - 1
	err = cpu.checkAddress(int64(sp))
	return
}

// Push a word onto the stack.
func (cpu *Cpu) Push(value int32) (err error) {
	sp, err := cpu.stackPush()
	if err != nil {
		return
	}

	cpu.Memory[sp] = value
	cpu.Register[REG_SP] = sp
	return
}

// Peek returns the word at the top of the stack.
func (cpu *Cpu) Peek() (value int32, err error) {
	sp := cpu.Register[REG_SP]
	err = cpu.checkAddress(int64(sp))
	if err != nil {
		return
	}

	value = cpu.Memory[sp]
	return
}

// Pop a word off of the stack.
func (cpu *Cpu) Pop() (value int32, err error) {
	value, err = cpu.Peek()
	if err != nil {
		return
	}

	cpu.Register[REG_SP]++
	return
}
