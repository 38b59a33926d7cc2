package cpu

import (
	"errors"
)

// addOverflow returns the wrapped sum and whether it overflowed.
func addOverflow(a, b int32) (sum int32, overflow bool) {
	sum = a + b
	overflow = (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0)
	return
}

// subOverflow returns the wrapped difference and whether it overflowed.
func subOverflow(a, b int32) (diff int32, overflow bool) {
	diff = a - b
	overflow = (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0)
	return
}

// Execute executes a single instruction, and returns how the program
// counter must move. On error no machine state has been modified.
func (cpu *Cpu) Execute(code Code) (flow Flow, err error) {
	if code == CODE_HALT {
		err = ErrHalt
		return
	}

	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	switch code.Family() {
	case FAMILY_MEM:
		flow, err = cpu.execMem(code.MemDecode())
	case FAMILY_IMM:
		flow, err = cpu.execImm(code.ImmDecode())
	case FAMILY_SHIFT:
		flow, err = cpu.execShift(code.ShiftDecode())
	case FAMILY_REG:
		flow, err = cpu.execReg(code.RegDecode())
	case FAMILY_SINGLE:
		flow, err = cpu.execSingle(code.SingleDecode())
	case FAMILY_IO:
		flow, err = cpu.execIo(code.IoDecode())
	case FAMILY_MISC:
		flow, err = cpu.execMisc(code.MiscDecode())
	default:
		// Only the low digit is set.
		err = ErrInstructionInvalid
	}

	return
}

// execMem executes a memory-reference instruction.
func (cpu *Cpu) execMem(mr MemRef) (flow Flow, err error) {
	address := int64(mr.Base)
	if mr.Index != 0 {
		address += int64(cpu.Register[mr.Index])
	}

	switch mr.Op {
	case MEM_OP_LOAD, MEM_OP_STORE, MEM_OP_ADD, MEM_OP_SUB, MEM_OP_JUMP, MEM_OP_CALL:
	default:
		err = ErrInstructionInvalid
		return
	}

	err = cpu.checkAddress(address)
	if err != nil {
		return
	}

	addr := int32(address)

	switch mr.Op {
	case MEM_OP_LOAD:
		cpu.Register[mr.Dest] = cpu.Memory[addr]
	case MEM_OP_STORE:
		cpu.Memory[addr] = cpu.Register[mr.Dest]
	case MEM_OP_ADD:
		cpu.Register[mr.Dest], cpu.Overflow = addOverflow(cpu.Register[mr.Dest], cpu.Memory[addr])
	case MEM_OP_SUB:
		cpu.Register[mr.Dest], cpu.Overflow = subOverflow(cpu.Register[mr.Dest], cpu.Memory[addr])
	case MEM_OP_JUMP:
		flow = FlowJump(addr)
	case MEM_OP_CALL:
		// Push the address of the call; return resumes after it.
		err = cpu.Push(cpu.Register[REG_PC])
		if err != nil {
			return
		}
		flow = FlowJump(addr)
	}

	return
}

// execImm executes an immediate instruction.
func (cpu *Cpu) execImm(imm Immediate) (flow Flow, err error) {
	value := int32(imm.Value)
	reg := &cpu.Register[imm.Dest]

	switch imm.Op {
	case IMM_OP_LOAD:
		*reg = value
	case IMM_OP_LOAD_SIGNED:
		*reg = imm.Signed()
	case IMM_OP_ADD:
		*reg, cpu.Overflow = addOverflow(*reg, value)
	case IMM_OP_SUB:
		*reg, cpu.Overflow = subOverflow(*reg, value)
	case IMM_OP_OR:
		// Advances normally, like every other data operation.
		*reg |= value
	case IMM_OP_AND:
		*reg &= value
	case IMM_OP_XOR:
		*reg ^= value
	default:
		err = ErrInstructionInvalid
	}

	return
}

// execShift executes a shift instruction.
func (cpu *Cpu) execShift(sh Shift) (flow Flow, err error) {
	switch sh.Op {
	case SHIFT_OP_SHL, SHIFT_OP_SHR, SHIFT_OP_SAL, SHIFT_OP_SAR, SHIFT_OP_ROL, SHIFT_OP_ROR:
		cpu.Register[sh.Dest] = doShift(sh.Op, cpu.Register[sh.Dest], sh.Count)
	default:
		err = ErrInstructionInvalid
	}

	return
}

// execReg executes a register-register instruction.
func (cpu *Cpu) execReg(rr RegReg) (flow Flow, err error) {
	src := cpu.Register[rr.Src]
	dst := &cpu.Register[rr.Dest]

	var skip bool

	switch rr.Op {
	case REG_OP_COPY:
		*dst = src
	case REG_OP_ADD:
		*dst, cpu.Overflow = addOverflow(*dst, src)
	case REG_OP_SUB:
		*dst, cpu.Overflow = subOverflow(*dst, src)
	case REG_OP_OR:
		*dst |= src
	case REG_OP_AND:
		*dst &= src
	case REG_OP_XOR:
		*dst ^= src
	case REG_OP_SKIP_GT:
		skip = src > *dst
	case REG_OP_SKIP_GE:
		skip = src >= *dst
	case REG_OP_SKIP_EQ:
		skip = src == *dst
	case REG_OP_SKIP_LE:
		skip = src <= *dst
	case REG_OP_SKIP_LT:
		skip = src < *dst
	case REG_OP_SKIP_OV:
		skip = cpu.Overflow
	case REG_OP_SKIP_NOV:
		skip = !cpu.Overflow
	default:
		err = ErrInstructionInvalid
		return
	}

	if skip {
		flow = FLOW_SKIP
	}

	return
}

// execSingle executes a single-register instruction. The family is
// reserved; no operations are defined.
func (cpu *Cpu) execSingle(single Single) (flow Flow, err error) {
	// Like every fault, the PC stays on the faulting word.
	err = ErrNotImplemented
	return
}

// execIo executes an I/O instruction.
func (cpu *Cpu) execIo(op Io) (flow Flow, err error) {
	switch op.Op {
	case IO_OP_PUTC, IO_OP_GETC, IO_OP_PUTR:
	default:
		err = ErrInstructionInvalid
		return
	}

	if cpu.Channel == nil {
		err = ErrChannelInvalid
		return
	}

	reg := &cpu.Register[op.Reg]

	switch op.Op {
	case IO_OP_PUTC:
		err = cpu.Channel.WriteChar(byte(*reg))
	case IO_OP_GETC:
		var value byte
		value, err = cpu.Channel.ReadChar()
		if err == nil {
			*reg = (*reg &^ 0xff) | int32(value)
		}
	case IO_OP_PUTR:
		line := cpu.RegisterLine(op.Reg) + "\n"
		for n := 0; n < len(line) && err == nil; n++ {
			err = cpu.Channel.WriteChar(line[n])
		}
	}

	if err != nil {
		err = errors.Join(ErrChannelIo, err)
	}

	return
}

// execMisc executes a miscellaneous control instruction.
func (cpu *Cpu) execMisc(misc Misc) (flow Flow, err error) {
	switch misc.Op {
	case MISC_OP_NOP:
	case MISC_OP_RETURN:
		var pc int32
		pc, err = cpu.Pop()
		if err != nil {
			return
		}
		flow = FlowJump(pc + 1)
	default:
		err = ErrInstructionInvalid
	}

	return
}
