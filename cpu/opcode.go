package cpu

import (
	"fmt"
)

// CodeFamily is the instruction family, selected by the highest non-zero
// hex digit of the instruction word.
type CodeFamily int

const (
	FAMILY_NONE   = CodeFamily(0) // none
	FAMILY_MISC   = CodeFamily(1) // misc
	FAMILY_IO     = CodeFamily(2) // io
	FAMILY_SINGLE = CodeFamily(3) // single
	FAMILY_REG    = CodeFamily(4) // reg
	FAMILY_SHIFT  = CodeFamily(5) // shift
	FAMILY_IMM    = CodeFamily(6) // imm
	FAMILY_MEM    = CodeFamily(7) // mem
)

var familyNames = [...]string{"none", "misc", "io", "single", "reg", "shift", "imm", "mem"}

func (cf CodeFamily) String() string {
	if cf < 0 || int(cf) >= len(familyNames) {
		return fmt.Sprintf("CodeFamily(%d)", int(cf))
	}
	return familyNames[cf]
}

// CodeMemOp is a memory-reference (X7) operation.
type CodeMemOp int

const (
	MEM_OP_LOAD  = CodeMemOp(1) // ld
	MEM_OP_STORE = CodeMemOp(2) // st
	MEM_OP_ADD   = CodeMemOp(3) // add
	MEM_OP_SUB   = CodeMemOp(4) // sub
	MEM_OP_JUMP  = CodeMemOp(5) // jmp
	MEM_OP_CALL  = CodeMemOp(6) // call
)

// CodeImmOp is an immediate (X6) operation.
type CodeImmOp int

const (
	IMM_OP_LOAD        = CodeImmOp(1) // ldi
	IMM_OP_LOAD_SIGNED = CodeImmOp(2) // ldsi
	IMM_OP_ADD         = CodeImmOp(3) // addi
	IMM_OP_SUB         = CodeImmOp(4) // subi
	IMM_OP_OR          = CodeImmOp(5) // ori
	IMM_OP_AND         = CodeImmOp(6) // andi
	IMM_OP_XOR         = CodeImmOp(7) // xori
)

// CodeShiftOp is a shift (X5) operation.
type CodeShiftOp int

const (
	SHIFT_OP_SHL = CodeShiftOp(1) // shl
	SHIFT_OP_SHR = CodeShiftOp(2) // shr
	SHIFT_OP_SAL = CodeShiftOp(3) // sal
	SHIFT_OP_SAR = CodeShiftOp(4) // sar
	SHIFT_OP_ROL = CodeShiftOp(5) // rol
	SHIFT_OP_ROR = CodeShiftOp(6) // ror
)

// CodeRegOp is a register-register (X4) operation.
type CodeRegOp int

const (
	REG_OP_COPY     = CodeRegOp(0x1) // mov
	REG_OP_ADD      = CodeRegOp(0x2) // addr
	REG_OP_SUB      = CodeRegOp(0x3) // subr
	REG_OP_OR       = CodeRegOp(0x4) // orr
	REG_OP_AND      = CodeRegOp(0x5) // andr
	REG_OP_XOR      = CodeRegOp(0x6) // xorr
	REG_OP_SKIP_GT  = CodeRegOp(0x7) // skgt
	REG_OP_SKIP_GE  = CodeRegOp(0x8) // skge
	REG_OP_SKIP_EQ  = CodeRegOp(0x9) // skeq
	REG_OP_SKIP_LE  = CodeRegOp(0xa) // skle
	REG_OP_SKIP_LT  = CodeRegOp(0xb) // sklt
	REG_OP_SKIP_OV  = CodeRegOp(0xc) // skov
	REG_OP_SKIP_NOV = CodeRegOp(0xd) // sknov
)

// CodeSingleOp is a single-register (X3) operation. None are defined.
type CodeSingleOp int

// CodeIoOp is an I/O (X2) operation.
type CodeIoOp int

const (
	IO_OP_PUTC = CodeIoOp(1) // putc
	IO_OP_GETC = CodeIoOp(2) // getc
	IO_OP_PUTR = CodeIoOp(3) // putr
)

// CodeMiscOp is a miscellaneous control (X1) operation.
type CodeMiscOp int

const (
	MISC_OP_NOP    = CodeMiscOp(1) // nop
	MISC_OP_RETURN = CodeMiscOp(2) // ret
)

var memOpNames = map[CodeMemOp]string{
	MEM_OP_LOAD:  "ld",
	MEM_OP_STORE: "st",
	MEM_OP_ADD:   "add",
	MEM_OP_SUB:   "sub",
	MEM_OP_JUMP:  "jmp",
	MEM_OP_CALL:  "call",
}

var immOpNames = map[CodeImmOp]string{
	IMM_OP_LOAD:        "ldi",
	IMM_OP_LOAD_SIGNED: "ldsi",
	IMM_OP_ADD:         "addi",
	IMM_OP_SUB:         "subi",
	IMM_OP_OR:          "ori",
	IMM_OP_AND:         "andi",
	IMM_OP_XOR:         "xori",
}

var shiftOpNames = map[CodeShiftOp]string{
	SHIFT_OP_SHL: "shl",
	SHIFT_OP_SHR: "shr",
	SHIFT_OP_SAL: "sal",
	SHIFT_OP_SAR: "sar",
	SHIFT_OP_ROL: "rol",
	SHIFT_OP_ROR: "ror",
}

var regOpNames = map[CodeRegOp]string{
	REG_OP_COPY:     "mov",
	REG_OP_ADD:      "addr",
	REG_OP_SUB:      "subr",
	REG_OP_OR:       "orr",
	REG_OP_AND:      "andr",
	REG_OP_XOR:      "xorr",
	REG_OP_SKIP_GT:  "skgt",
	REG_OP_SKIP_GE:  "skge",
	REG_OP_SKIP_EQ:  "skeq",
	REG_OP_SKIP_LE:  "skle",
	REG_OP_SKIP_LT:  "sklt",
	REG_OP_SKIP_OV:  "skov",
	REG_OP_SKIP_NOV: "sknov",
}

var ioOpNames = map[CodeIoOp]string{
	IO_OP_PUTC: "putc",
	IO_OP_GETC: "getc",
	IO_OP_PUTR: "putr",
}

var miscOpNames = map[CodeMiscOp]string{
	MISC_OP_NOP:    "nop",
	MISC_OP_RETURN: "ret",
}

func opName[T ~int](names map[T]string, op T) string {
	name, ok := names[op]
	if !ok {
		return fmt.Sprintf("?%x", int(op))
	}
	return name
}

func (op CodeMemOp) String() string    { return opName(memOpNames, op) }
func (op CodeImmOp) String() string    { return opName(immOpNames, op) }
func (op CodeShiftOp) String() string  { return opName(shiftOpNames, op) }
func (op CodeRegOp) String() string    { return opName(regOpNames, op) }
func (op CodeSingleOp) String() string { return fmt.Sprintf("?%x", int(op)) }
func (op CodeIoOp) String() string     { return opName(ioOpNames, op) }
func (op CodeMiscOp) String() string   { return opName(miscOpNames, op) }

// Instruction field masks.
const (
	ADDRESS_MASK   = 0x000f_ffff // X7 base address.
	IMMEDIATE_MASK = 0x000f_ffff // X6 immediate.
	IMMEDIATE_SIGN = 0x0008_0000 // X6 immediate sign bit.
	IMMEDIATE_EXT  = 0xfff0_0000 // X6 sign extension.
	SHIFT_MASK     = 0x0000_001f // X5 shift count.
)

// Code is a single 32-bit instruction word.
type Code uint32

// CODE_HALT is the all-zero halt instruction.
const CODE_HALT = Code(0)

// MemRef is a decoded memory-reference (X7) instruction.
type MemRef struct {
	Op    CodeMemOp
	Index int    // Index register, or 0 for none.
	Dest  int    // Destination register.
	Base  uint32 // Base address.
}

// Immediate is a decoded immediate (X6) instruction.
type Immediate struct {
	Op    CodeImmOp
	Dest  int
	Value uint32 // 20-bit immediate, zero extended.
}

// Signed returns the immediate value, sign extended from bit 19.
func (imm Immediate) Signed() int32 {
	if (imm.Value & IMMEDIATE_SIGN) != 0 {
		return int32(imm.Value | IMMEDIATE_EXT)
	}
	return int32(imm.Value)
}

// Shift is a decoded shift (X5) instruction.
type Shift struct {
	Op    CodeShiftOp
	Dest  int
	Count int // 0 to 31 single bit shifts.
}

// RegReg is a decoded register-register (X4) instruction.
type RegReg struct {
	Op   CodeRegOp
	Dest int
	Src  int
}

// Single is a decoded single-register (X3) instruction.
type Single struct {
	Op CodeSingleOp
}

// Io is a decoded I/O (X2) instruction.
type Io struct {
	Op  CodeIoOp
	Reg int
}

// Misc is a decoded miscellaneous control (X1) instruction.
type Misc struct {
	Op CodeMiscOp
}

// nibble returns hex digit n (0 is least significant) of the word.
func (code Code) nibble(n int) int {
	return int((uint32(code) >> (4 * n)) & 0xf)
}

// Family returns the family of the instruction, selected by the most
// significant non-zero digit from X7 down to X1.
func (code Code) Family() CodeFamily {
	for n := 7; n >= 1; n-- {
		if code.nibble(n) != 0 {
			return CodeFamily(n)
		}
	}
	return FAMILY_NONE
}

// MemDecode decodes an X7 instruction.
func (code Code) MemDecode() MemRef {
	return MemRef{
		Op:    CodeMemOp(code.nibble(7)),
		Index: code.nibble(6),
		Dest:  code.nibble(5),
		Base:  uint32(code) & ADDRESS_MASK,
	}
}

// ImmDecode decodes an X6 instruction.
func (code Code) ImmDecode() Immediate {
	return Immediate{
		Op:    CodeImmOp(code.nibble(6)),
		Dest:  code.nibble(5),
		Value: uint32(code) & IMMEDIATE_MASK,
	}
}

// ShiftDecode decodes an X5 instruction.
func (code Code) ShiftDecode() Shift {
	return Shift{
		Op:    CodeShiftOp(code.nibble(5)),
		Dest:  code.nibble(4),
		Count: int(uint32(code) & SHIFT_MASK),
	}
}

// RegDecode decodes an X4 instruction.
func (code Code) RegDecode() RegReg {
	return RegReg{
		Op:   CodeRegOp(code.nibble(4)),
		Dest: code.nibble(3),
		Src:  code.nibble(2),
	}
}

// SingleDecode decodes an X3 instruction.
func (code Code) SingleDecode() Single {
	return Single{Op: CodeSingleOp(code.nibble(3))}
}

// IoDecode decodes an X2 instruction.
func (code Code) IoDecode() Io {
	return Io{
		Op:  CodeIoOp(code.nibble(2)),
		Reg: code.nibble(1),
	}
}

// MiscDecode decodes an X1 instruction.
func (code Code) MiscDecode() Misc {
	return Misc{Op: CodeMiscOp(code.nibble(1))}
}

// MakeCodeMem creates a memory-reference instruction.
func MakeCodeMem(op CodeMemOp, dest, index int, base uint32) Code {
	return Code((uint32(op)&0xf)<<28 | (uint32(index)&0xf)<<24 | (uint32(dest)&0xf)<<20 | (base & ADDRESS_MASK))
}

// MakeCodeImm creates an immediate instruction.
func MakeCodeImm(op CodeImmOp, dest int, value uint32) Code {
	return Code((uint32(op)&0xf)<<24 | (uint32(dest)&0xf)<<20 | (value & IMMEDIATE_MASK))
}

// MakeCodeShift creates a shift instruction.
func MakeCodeShift(op CodeShiftOp, dest int, count int) Code {
	return Code((uint32(op)&0xf)<<20 | (uint32(dest)&0xf)<<16 | (uint32(count) & SHIFT_MASK))
}

// MakeCodeReg creates a register-register instruction.
func MakeCodeReg(op CodeRegOp, dest, src int) Code {
	return Code((uint32(op)&0xf)<<16 | (uint32(dest)&0xf)<<12 | (uint32(src)&0xf)<<8)
}

// MakeCodeSingle creates a single-register instruction.
func MakeCodeSingle(op CodeSingleOp) Code {
	return Code((uint32(op) & 0xf) << 12)
}

// MakeCodeIo creates an I/O instruction.
func MakeCodeIo(op CodeIoOp, reg int) Code {
	return Code((uint32(op)&0xf)<<8 | (uint32(reg)&0xf)<<4)
}

// MakeCodeMisc creates a miscellaneous control instruction.
func MakeCodeMisc(op CodeMiscOp) Code {
	return Code((uint32(op) & 0xf) << 4)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	if code == CODE_HALT {
		return "halt"
	}

	switch code.Family() {
	case FAMILY_MEM:
		mr := code.MemDecode()
		switch mr.Op {
		case MEM_OP_JUMP, MEM_OP_CALL:
			out = fmt.Sprintf("%v 0x%05x", mr.Op, mr.Base)
		default:
			out = fmt.Sprintf("%v r%d 0x%05x", mr.Op, mr.Dest, mr.Base)
		}
		if mr.Index != 0 {
			out += fmt.Sprintf(" r%d", mr.Index)
		}
	case FAMILY_IMM:
		imm := code.ImmDecode()
		out = fmt.Sprintf("%v r%d 0x%05x", imm.Op, imm.Dest, imm.Value)
	case FAMILY_SHIFT:
		sh := code.ShiftDecode()
		out = fmt.Sprintf("%v r%d %d", sh.Op, sh.Dest, sh.Count)
	case FAMILY_REG:
		rr := code.RegDecode()
		out = fmt.Sprintf("%v r%d r%d", rr.Op, rr.Dest, rr.Src)
	case FAMILY_SINGLE:
		out = fmt.Sprintf("single %v", code.SingleDecode().Op)
	case FAMILY_IO:
		io := code.IoDecode()
		out = fmt.Sprintf("%v r%d", io.Op, io.Reg)
	case FAMILY_MISC:
		out = code.MiscDecode().Op.String()
	default:
		out = fmt.Sprintf(".word 0x%08x", uint32(code))
	}

	return
}
