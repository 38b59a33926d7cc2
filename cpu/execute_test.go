package cpu

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/hm32/io"
)

// newTestCpu creates a small CPU with a program at address 0x10.
func newTestCpu(program ...Code) (cpu *Cpu) {
	cpu = NewCpu(0x100)
	cpu.Register[REG_PC] = 0x10
	cpu.Register[REG_SP] = 0x100
	for n, code := range program {
		cpu.Memory[0x10+n] = int32(code)
	}
	return
}

func TestExecute_MemRef(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeCodeMem(MEM_OP_LOAD, 1, 0, 0x80),  // r1 = [0x80]
		MakeCodeMem(MEM_OP_LOAD, 2, 3, 0x80),  // r2 = [0x80 + r3]
		MakeCodeMem(MEM_OP_ADD, 1, 0, 0x81),   // r1 += [0x81]
		MakeCodeMem(MEM_OP_SUB, 2, 0, 0x83),   // r2 -= [0x83]
		MakeCodeMem(MEM_OP_STORE, 1, 3, 0x90), // [0x90 + r3] = r1
		MakeCodeMem(MEM_OP_JUMP, 0, 3, 0x40),  // jmp 0x40 + r3
	)
	cpu.Register[3] = 2
	cpu.Memory[0x80] = 100
	cpu.Memory[0x81] = 23
	cpu.Memory[0x82] = 1000
	cpu.Memory[0x83] = 2000

	for range 6 {
		status, err := cpu.Step()
		assert.NoError(err)
		assert.Equal(STATUS_OK, status)
	}

	assert.Equal(int32(123), cpu.Register[1])
	assert.Equal(int32(-1000), cpu.Register[2])
	assert.Equal(int32(123), cpu.Memory[0x92])
	assert.Equal(int32(0x42), cpu.Pc())
	assert.Equal(6, cpu.Ticks)
}

func TestExecute_CallReturn(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeCodeMem(MEM_OP_CALL, 0, 0, 0x40),
		CODE_HALT,
	)
	cpu.Memory[0x40] = int32(MakeCodeMisc(MISC_OP_RETURN))
	old_pc := cpu.Pc()
	old_sp := cpu.Sp()

	status, err := cpu.Step()
	assert.NoError(err)
	assert.Equal(STATUS_OK, status)
	assert.Equal(old_pc, cpu.Memory[old_sp-1])
	assert.Equal(int32(0x40), cpu.Pc())
	assert.Equal(old_sp-1, cpu.Sp())

	status, err = cpu.Step()
	assert.NoError(err)
	assert.Equal(STATUS_OK, status)
	assert.Equal(old_pc+1, cpu.Pc())
	assert.Equal(old_sp, cpu.Sp())

	status, err = cpu.Step()
	assert.NoError(err)
	assert.Equal(STATUS_HALT, status)
}

func TestExecute_NestedCall(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeCodeMem(MEM_OP_CALL, 0, 0, 0x40), // 0x10
		CODE_HALT,                            // 0x11
	)
	cpu.Memory[0x40] = int32(MakeCodeImm(IMM_OP_ADD, 1, 1))
	cpu.Memory[0x41] = int32(MakeCodeMem(MEM_OP_CALL, 0, 0, 0x50))
	cpu.Memory[0x42] = int32(MakeCodeMisc(MISC_OP_RETURN))
	cpu.Memory[0x50] = int32(MakeCodeImm(IMM_OP_ADD, 1, 0x10))
	cpu.Memory[0x51] = int32(MakeCodeMisc(MISC_OP_RETURN))

	status, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATUS_HALT, status)
	assert.Equal(int32(0x11), cpu.Register[1])
	assert.Equal(int32(0x11), cpu.Pc())
	assert.Equal(int32(0x100), cpu.Sp())
	assert.Equal(int32(0x41), cpu.Memory[0xfe])
	assert.Equal(int32(0x10), cpu.Memory[0xff])
}

func TestExecute_Immediate(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		op     CodeImmOp
		before int32
		value  uint32
		after  int32
	}){
		{"ldi", IMM_OP_LOAD, -1, 0xfffff, 0xfffff},
		{"ldsi_neg", IMM_OP_LOAD_SIGNED, 0, 0x80000, -0x80000},
		{"ldsi_pos", IMM_OP_LOAD_SIGNED, -1, 0x7ffff, 0x7ffff},
		{"addi", IMM_OP_ADD, 10, 5, 15},
		{"addi_wrap", IMM_OP_ADD, 0x7fffffff, 1, -0x80000000},
		{"subi", IMM_OP_SUB, 10, 15, -5},
		{"ori", IMM_OP_OR, 0x100, 0x011, 0x111},
		{"andi", IMM_OP_AND, -1, 0x0f0f0, 0x0f0f0},
		{"xori", IMM_OP_XOR, 0x0ff, 0xf0f, 0xff0},
	}

	for _, entry := range table {
		cpu := newTestCpu(MakeCodeImm(entry.op, 7, entry.value))
		cpu.Register[7] = entry.before

		status, err := cpu.Step()
		assert.NoError(err, entry.name)
		assert.Equal(STATUS_OK, status, entry.name)
		assert.Equal(entry.after, cpu.Register[7], entry.name)
		assert.Equal(int32(0x11), cpu.Pc(), entry.name)
	}
}

func TestExecute_Overflow(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		code     Code
		a, b     int32
		result   int32
		overflow bool
	}){
		{"addr", MakeCodeReg(REG_OP_ADD, 1, 2), 1, 2, 3, false},
		{"addr_ov", MakeCodeReg(REG_OP_ADD, 1, 2), 0x7fffffff, 1, -0x80000000, true},
		{"addr_neg_ov", MakeCodeReg(REG_OP_ADD, 1, 2), -0x80000000, -1, 0x7fffffff, true},
		{"subr", MakeCodeReg(REG_OP_SUB, 1, 2), -5, 5, -10, false},
		{"subr_ov", MakeCodeReg(REG_OP_SUB, 1, 2), -0x80000000, 1, 0x7fffffff, true},
		{"subr_pos_ov", MakeCodeReg(REG_OP_SUB, 1, 2), 0x7fffffff, -1, -0x80000000, true},
		{"add_mem_ov", MakeCodeMem(MEM_OP_ADD, 1, 0, 0x80), 0x40000000, 0x40000000, -0x80000000, true},
		{"sub_mem", MakeCodeMem(MEM_OP_SUB, 1, 0, 0x80), 0, 0x40000000, -0x40000000, false},
	}

	for _, entry := range table {
		cpu := newTestCpu(entry.code)
		cpu.Overflow = !entry.overflow
		cpu.Register[1] = entry.a
		cpu.Register[2] = entry.b
		cpu.Memory[0x80] = entry.b

		status, err := cpu.Step()
		assert.NoError(err, entry.name)
		assert.Equal(STATUS_OK, status, entry.name)
		assert.Equal(entry.result, cpu.Register[1], entry.name)
		assert.Equal(entry.overflow, cpu.Overflow, entry.name)
	}
}

func TestExecute_RegReg(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		op       CodeRegOp
		dst, src int32
		result   int32
	}){
		{"mov", REG_OP_COPY, 1, 2, 2},
		{"or", REG_OP_OR, 0x0f, 0xf0, 0xff},
		{"and", REG_OP_AND, 0x3c, 0x0f, 0x0c},
		{"xor", REG_OP_XOR, 0x3c, 0x0f, 0x33},
	}

	for _, entry := range table {
		cpu := newTestCpu(MakeCodeReg(entry.op, 4, 5))
		cpu.Register[4] = entry.dst
		cpu.Register[5] = entry.src

		status, err := cpu.Step()
		assert.NoError(err, entry.name)
		assert.Equal(STATUS_OK, status, entry.name)
		assert.Equal(entry.result, cpu.Register[4], entry.name)
		assert.Equal(entry.src, cpu.Register[5], entry.name)
	}
}

func TestExecute_Skip(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op       CodeRegOp
		src, dst int32
		skip     bool
	}){
		{REG_OP_SKIP_GT, 2, 1, true},
		{REG_OP_SKIP_GT, 1, 1, false},
		{REG_OP_SKIP_GT, -1, 1, false},
		{REG_OP_SKIP_GE, 1, 1, true},
		{REG_OP_SKIP_GE, -2, -1, false},
		{REG_OP_SKIP_EQ, 7, 7, true},
		{REG_OP_SKIP_EQ, 7, -7, false},
		{REG_OP_SKIP_LE, -1, 1, true},
		{REG_OP_SKIP_LE, 1, 1, true},
		{REG_OP_SKIP_LE, 2, 1, false},
		{REG_OP_SKIP_LT, -0x80000000, 0x7fffffff, true},
		{REG_OP_SKIP_LT, 1, 1, false},
	}

	for _, entry := range table {
		cpu := newTestCpu(MakeCodeReg(entry.op, 1, 2))
		cpu.Register[1] = entry.dst
		cpu.Register[2] = entry.src

		status, err := cpu.Step()
		assert.NoError(err)
		assert.Equal(STATUS_OK, status)

		expected := int32(0x11)
		if entry.skip {
			expected = 0x12
		}
		assert.Equal(expected, cpu.Pc(), "%v %d %d", entry.op, entry.src, entry.dst)
	}
}

func TestExecute_SkipOverflow(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeCodeImm(IMM_OP_LOAD, 1, 0x7ffff), // 0x10
		MakeCodeShift(SHIFT_OP_SHL, 1, 12),   // 0x11: r1 = 0x7ffff000
		MakeCodeImm(IMM_OP_ADD, 1, 0x1000),   // 0x12: overflow
		MakeCodeReg(REG_OP_SKIP_OV, 0, 0),    // 0x13: taken
		CODE_HALT,                            // 0x14
		MakeCodeReg(REG_OP_SKIP_NOV, 0, 0),   // 0x15: not taken
		MakeCodeImm(IMM_OP_ADD, 1, 1),        // 0x16: overflow cleared
		MakeCodeReg(REG_OP_SKIP_NOV, 0, 0),   // 0x17: taken
		CODE_HALT,                            // 0x18
		MakeCodeReg(REG_OP_SKIP_OV, 0, 0),    // 0x19: not taken
		CODE_HALT,                            // 0x1a
	)

	status, err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATUS_HALT, status)
	assert.Equal(int32(0x1a), cpu.Pc())
	assert.Equal(int32(-0x7fffffff), cpu.Register[1])
	assert.False(cpu.Overflow)
}

func TestExecute_Single(t *testing.T) {
	assert := assert.New(t)

	for op := range 16 {
		if op == 0 {
			continue
		}
		cpu := newTestCpu(MakeCodeSingle(CodeSingleOp(op)))

		status, err := cpu.Step()
		assert.Equal(STATUS_NOT_IMPLEMENTED, status)
		assert.ErrorIs(err, ErrNotImplemented)
		assert.Equal(int32(0x10), cpu.Pc())
	}
}

func TestExecute_Io(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	tape := &io.Tape{Input: strings.NewReader("Z"), Output: output}

	cpu := newTestCpu(
		MakeCodeIo(IO_OP_GETC, 3),
		MakeCodeIo(IO_OP_PUTC, 3),
		MakeCodeIo(IO_OP_PUTR, 3),
		MakeCodeIo(IO_OP_GETC, 3),
	)
	cpu.Channel = tape
	cpu.Register[3] = 0x12345600

	for range 3 {
		status, err := cpu.Step()
		assert.NoError(err)
		assert.Equal(STATUS_OK, status)
	}

	assert.Equal(int32(0x1234565a), cpu.Register[3])
	assert.Equal("ZRegister 3 = 1234565A\n", output.String())

	// End of input
	status, err := cpu.Step()
	assert.Equal(STATUS_IO_ERROR, status)
	assert.ErrorIs(err, ErrChannelIo)
	assert.Equal(int32(0x13), cpu.Pc())
	assert.Equal(int32(0x1234565a), cpu.Register[3])
}

func TestExecute_Io_NoChannel(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(MakeCodeIo(IO_OP_PUTC, 0))

	status, err := cpu.Step()
	assert.Equal(STATUS_IO_ERROR, status)
	assert.ErrorIs(err, ErrChannelInvalid)
	assert.Equal(int32(0x10), cpu.Pc())
}

func TestExecute_Misc(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(MakeCodeMisc(MISC_OP_NOP))
	before := cpu.Register

	status, err := cpu.Step()
	assert.NoError(err)
	assert.Equal(STATUS_OK, status)

	before[REG_PC]++
	assert.Equal(before, cpu.Register)
}

func TestExecute_Invalid(t *testing.T) {
	assert := assert.New(t)

	table := []Code{
		MakeCodeMem(0x7, 1, 0, 0x10),
		MakeCodeMem(0xf, 1, 0, 0x10),
		MakeCodeImm(0x8, 1, 0x10),
		MakeCodeShift(0x7, 1, 3),
		MakeCodeShift(0xf, 1, 3),
		MakeCodeReg(0xe, 1, 2),
		MakeCodeReg(0xf, 1, 2),
		MakeCodeIo(0x4, 1),
		MakeCodeMisc(0x3),
		Code(0x0000_0001),
	}

	for _, code := range table {
		cpu := newTestCpu(code)
		cpu.Register[1] = 0x55
		before := cpu.Register
		memory := append([]int32(nil), cpu.Memory...)

		status, err := cpu.Step()
		assert.Equal(STATUS_INVALID_INSTRUCTION, status, code.String())
		assert.ErrorIs(err, ErrInstructionInvalid, code.String())
		assert.ErrorIs(err, ErrOpcode(code), code.String())
		assert.Equal(before, cpu.Register, code.String())
		assert.Equal(memory, cpu.Memory, code.String())
		assert.Equal(0, cpu.Ticks)
	}
}

func TestExecute_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		code  Code
		setup func(cpu *Cpu)
	}){
		{"ld", MakeCodeMem(MEM_OP_LOAD, 1, 0, 0x100), nil},
		{"st_index", MakeCodeMem(MEM_OP_STORE, 1, 2, 0x10), func(cpu *Cpu) { cpu.Register[2] = -0x11 }},
		{"jmp", MakeCodeMem(MEM_OP_JUMP, 0, 0, 0xfffff), nil},
		{"call_sp", MakeCodeMem(MEM_OP_CALL, 0, 0, 0x20), func(cpu *Cpu) { cpu.Register[REG_SP] = 0 }},
		{"ret_sp", MakeCodeMisc(MISC_OP_RETURN), func(cpu *Cpu) { cpu.Register[REG_SP] = 0x100 }},
	}

	for _, entry := range table {
		cpu := newTestCpu(entry.code)
		if entry.setup != nil {
			entry.setup(cpu)
		}
		before := cpu.Register

		status, err := cpu.Step()
		assert.Equal(STATUS_OUT_OF_RANGE, status, entry.name)
		assert.ErrorIs(err, ErrOutOfRange, entry.name)
		assert.Equal(before, cpu.Register, entry.name)
	}
}
