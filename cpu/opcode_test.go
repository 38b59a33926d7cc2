package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Family(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code   Code
		family CodeFamily
	}){
		{0x0000_0000, FAMILY_NONE},
		{0x0000_000f, FAMILY_NONE},
		{0x0000_0010, FAMILY_MISC},
		{0x0000_01ff, FAMILY_IO},
		{0x0000_1000, FAMILY_SINGLE},
		{0x0001_ffff, FAMILY_REG},
		{0x0010_0000, FAMILY_SHIFT},
		{0x0f00_0000, FAMILY_IMM},
		{0x1000_0000, FAMILY_MEM},
		{0xffff_ffff, FAMILY_MEM},
	}

	for _, entry := range table {
		assert.Equal(entry.family, entry.code.Family(), "%08x", uint32(entry.code))
	}
}

func TestCode_MemDecode(t *testing.T) {
	assert := assert.New(t)

	code := Code(0x6a3f_1234)
	assert.Equal(MemRef{Op: MEM_OP_CALL, Index: 0xa, Dest: 3, Base: 0xf1234}, code.MemDecode())
	assert.Equal(code, MakeCodeMem(MEM_OP_CALL, 3, 0xa, 0xf1234))
}

func TestCode_ImmDecode(t *testing.T) {
	assert := assert.New(t)

	code := MakeCodeImm(IMM_OP_LOAD_SIGNED, 5, 0x80001)
	assert.Equal(Code(0x0258_0001), code)

	imm := code.ImmDecode()
	assert.Equal(Immediate{Op: IMM_OP_LOAD_SIGNED, Dest: 5, Value: 0x80001}, imm)
	assert.Equal(int32(-0x7ffff), imm.Signed())
	assert.Equal(uint32(0x80001|0xfff00000), uint32(imm.Signed()))

	imm = MakeCodeImm(IMM_OP_LOAD_SIGNED, 5, 0x7ffff).ImmDecode()
	assert.Equal(int32(0x7ffff), imm.Signed())
}

func TestCode_ShiftDecode(t *testing.T) {
	assert := assert.New(t)

	code := MakeCodeShift(SHIFT_OP_ROR, 0xe, 31)
	assert.Equal(Code(0x006e_001f), code)
	assert.Equal(Shift{Op: SHIFT_OP_ROR, Dest: 0xe, Count: 31}, code.ShiftDecode())
}

func TestCode_RegDecode(t *testing.T) {
	assert := assert.New(t)

	code := MakeCodeReg(REG_OP_SKIP_EQ, 2, 7)
	assert.Equal(Code(0x0009_2700), code)
	assert.Equal(RegReg{Op: REG_OP_SKIP_EQ, Dest: 2, Src: 7}, code.RegDecode())
}

func TestCode_IoDecode(t *testing.T) {
	assert := assert.New(t)

	code := MakeCodeIo(IO_OP_GETC, 9)
	assert.Equal(Code(0x0000_0290), code)
	assert.Equal(Io{Op: IO_OP_GETC, Reg: 9}, code.IoDecode())
}

func TestCode_MiscDecode(t *testing.T) {
	assert := assert.New(t)

	code := MakeCodeMisc(MISC_OP_RETURN)
	assert.Equal(Code(0x0000_0020), code)
	assert.Equal(Misc{Op: MISC_OP_RETURN}, code.MiscDecode())

	assert.Equal(Single{Op: 4}, MakeCodeSingle(4).SingleDecode())
}

func TestCode_String(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		text string
	}){
		{CODE_HALT, "halt"},
		{MakeCodeMem(MEM_OP_LOAD, 1, 0, 0x100), "ld r1 0x00100"},
		{MakeCodeMem(MEM_OP_STORE, 1, 2, 0x100), "st r1 0x00100 r2"},
		{MakeCodeMem(MEM_OP_JUMP, 0, 0, 0x20), "jmp 0x00020"},
		{MakeCodeImm(IMM_OP_XOR, 4, 0xff), "xori r4 0x000ff"},
		{MakeCodeShift(SHIFT_OP_SAR, 3, 4), "sar r3 4"},
		{MakeCodeReg(REG_OP_COPY, 1, 2), "mov r1 r2"},
		{MakeCodeSingle(1), "single ?1"},
		{MakeCodeIo(IO_OP_PUTC, 0), "putc r0"},
		{MakeCodeMisc(MISC_OP_NOP), "nop"},
		{MakeCodeMisc(0xf), "?f"},
		{Code(0x0000_0007), ".word 0x00000007"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.code.String())
	}
}
