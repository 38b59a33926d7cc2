// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%#x", MEMORY_SIZE),
}

// argument kinds for a mnemonic
const (
	argReg   = 'r' // Register.
	argAddr  = 'a' // 20-bit unsigned address.
	argImm   = 'i' // 20-bit immediate, signed or unsigned.
	argCount = 'n' // 5-bit shift count.
	argIndex = 'x' // Optional index register.
)

// mnemonic describes how to encode one assembler opcode.
type mnemonic struct {
	family CodeFamily
	op     int
	args   string
}

var mnemonics = map[string]mnemonic{
	"halt": {FAMILY_NONE, 0, ""},

	"ld":   {FAMILY_MEM, int(MEM_OP_LOAD), "rax"},
	"st":   {FAMILY_MEM, int(MEM_OP_STORE), "rax"},
	"add":  {FAMILY_MEM, int(MEM_OP_ADD), "rax"},
	"sub":  {FAMILY_MEM, int(MEM_OP_SUB), "rax"},
	"jmp":  {FAMILY_MEM, int(MEM_OP_JUMP), "ax"},
	"call": {FAMILY_MEM, int(MEM_OP_CALL), "ax"},

	"ldi":  {FAMILY_IMM, int(IMM_OP_LOAD), "ri"},
	"ldsi": {FAMILY_IMM, int(IMM_OP_LOAD_SIGNED), "ri"},
	"addi": {FAMILY_IMM, int(IMM_OP_ADD), "ri"},
	"subi": {FAMILY_IMM, int(IMM_OP_SUB), "ri"},
	"ori":  {FAMILY_IMM, int(IMM_OP_OR), "ri"},
	"andi": {FAMILY_IMM, int(IMM_OP_AND), "ri"},
	"xori": {FAMILY_IMM, int(IMM_OP_XOR), "ri"},

	"shl": {FAMILY_SHIFT, int(SHIFT_OP_SHL), "rn"},
	"shr": {FAMILY_SHIFT, int(SHIFT_OP_SHR), "rn"},
	"sal": {FAMILY_SHIFT, int(SHIFT_OP_SAL), "rn"},
	"sar": {FAMILY_SHIFT, int(SHIFT_OP_SAR), "rn"},
	"rol": {FAMILY_SHIFT, int(SHIFT_OP_ROL), "rn"},
	"ror": {FAMILY_SHIFT, int(SHIFT_OP_ROR), "rn"},

	"mov":   {FAMILY_REG, int(REG_OP_COPY), "rr"},
	"addr":  {FAMILY_REG, int(REG_OP_ADD), "rr"},
	"subr":  {FAMILY_REG, int(REG_OP_SUB), "rr"},
	"orr":   {FAMILY_REG, int(REG_OP_OR), "rr"},
	"andr":  {FAMILY_REG, int(REG_OP_AND), "rr"},
	"xorr":  {FAMILY_REG, int(REG_OP_XOR), "rr"},
	"skgt":  {FAMILY_REG, int(REG_OP_SKIP_GT), "rr"},
	"skge":  {FAMILY_REG, int(REG_OP_SKIP_GE), "rr"},
	"skeq":  {FAMILY_REG, int(REG_OP_SKIP_EQ), "rr"},
	"skle":  {FAMILY_REG, int(REG_OP_SKIP_LE), "rr"},
	"sklt":  {FAMILY_REG, int(REG_OP_SKIP_LT), "rr"},
	"skov":  {FAMILY_REG, int(REG_OP_SKIP_OV), ""},
	"sknov": {FAMILY_REG, int(REG_OP_SKIP_NOV), ""},

	"putc": {FAMILY_IO, int(IO_OP_PUTC), "r"},
	"getc": {FAMILY_IO, int(IO_OP_GETC), "r"},
	"putr": {FAMILY_IO, int(IO_OP_PUTR), "r"},

	"nop": {FAMILY_MISC, int(MISC_OP_NOP), ""},
	"ret": {FAMILY_MISC, int(MISC_OP_RETURN), ""},
}

// regMap is a map of register names to register indexes.
var regMap = map[string]int{
	"sp": REG_SP,
	"pc": REG_PC,
}

func init() {
	for n := range REGISTER_COUNT {
		regMap[fmt.Sprintf("r%d", n)] = n
	}
}

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Assembler is a two pass assembler for the HM32 system.
//
// The first pass collects label addresses, so that any operand may refer
// to a label defined later in the source. Equates and .org may only refer
// to labels defined before them.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.

	ip    int          // Current assembly address.
	final bool         // Set on the final pass.
	seen  map[string]bool
	used  map[int]int // Address to line number of code.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// reset prepares the assembler for a pass.
func (asm *Assembler) reset(final bool) {
	asm.final = final
	asm.ip = 0
	asm.Opcode = nil
	asm.seen = map[string]bool{}
	asm.used = map[int]int{}
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)
	if !final || asm.Label == nil {
		asm.Label = map[string]int{}
	}
}

// Parse assembles the input into a program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var lines []string
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	asm.Label = nil
	for _, final := range []bool{false, true} {
		asm.reset(final)
		for n, line := range lines {
			lineno := n + 1
			err = asm.parseLine(line, lineno)
			if err != nil {
				if !final {
					// Resolved, or reported, on the final pass.
					err = nil
					continue
				}
				err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}
	}

	prog = &Program{Opcodes: asm.Opcode}

	if asm.Verbose {
		for _, op := range prog.Opcodes {
			log.Printf("asm: %05x: %v %v", op.Ip, op.Words, op.Codes)
		}
	}

	return
}

// valueOf returns the value of a simple word: a number, an equate, or a
// label.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	if equ, ok := asm.Equate[word]; ok && equ != word {
		value, err = asm.valueOf(equ)
	} else if label, ok := asm.Label[word]; ok {
		value = int64(label)
	} else if len(word) > 0 && (word[0] == '-' || (word[0] >= '0' && word[0] <= '9')) {
		var v64 int64
		v64, err = strconv.ParseInt(word, 0, 64)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
		value = v64
	} else {
		err = ErrLabelMissing(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// regOf returns the register index of a word: a register name or an
// equate of a register name.
func (asm *Assembler) regOf(word string) (reg int, err error) {
	for range 8 {
		if r, ok := regMap[strings.ToLower(word)]; ok {
			reg = r
			return
		}
		equ, ok := asm.Equate[word]
		if !ok || equ == word {
			break
		}
		word = equ
	}

	err = ErrRegisterInvalid
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		var v int64
		v, err = asm.valueOf(key)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, addr := range asm.Label {
		if _, ok := pred[key]; !ok {
			pred[key] = starlark.MakeInt(addr)
		}
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// expand replaces character literals and $() expressions with numbers.
func (asm *Assembler) expand(line string) (out string, err error) {
	// Do 'x' evaluations
	out = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Strip comments
	if n := strings.IndexByte(out, ';'); n >= 0 {
		out = out[:n]
	}

	// Do $() evaluations
	out = reParen.ReplaceAllStringFunc(out, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})

	return
}

// defineLabel records a label at the current address.
func (asm *Assembler) defineLabel(label string) (err error) {
	if asm.seen[label] {
		err = ErrLabelDuplicate
		return
	}
	if _, ok := regMap[strings.ToLower(label)]; ok {
		err = ErrLabelDuplicate
		return
	}
	asm.seen[label] = true
	asm.Label[label] = asm.ip

	if asm.Verbose && asm.final {
		log.Printf("asm: %v = %#x", label, asm.ip)
	}
	return
}

// emit appends an opcode at the current address.
func (asm *Assembler) emit(lineno int, words []string, codes ...Code) (err error) {
	for n := range codes {
		ip := asm.ip + n
		if ip < 0 || ip >= ADDRESS_LIMIT {
			err = ErrValueRange
			return
		}
		if _, ok := asm.used[ip]; ok {
			err = ErrCodeOverlap
			return
		}
		asm.used[ip] = lineno
	}

	asm.Opcode = append(asm.Opcode, Opcode{
		LineNo: lineno,
		Ip:     asm.ip,
		Words:  words,
		Codes:  codes,
	})
	asm.ip += len(codes)

	return
}

// parseLine parses a single line.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line, err = asm.expand(line)
	if err != nil {
		if asm.final {
			return
		}
		// Sized, but not yet resolved.
		err = nil
	}

	words := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	// label: [label: ...]
	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		err = asm.defineLabel(strings.TrimSuffix(words[0], ":"))
		if err != nil {
			return
		}
		words = words[1:]
	}

	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".equ":
		// .equ NAME VALUE
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			_, sys := sysEquate[words[1]]
			_, pre := asm.predefine[words[1]]
			if !sys && !pre {
				err = ErrEquateDuplicate
				return
			}
		}
		asm.Equate[words[1]] = words[2]
		return
	case ".org":
		// .org ADDRESS
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < 0 || value >= ADDRESS_LIMIT {
			err = ErrValueRange
			return
		}
		asm.ip = int(value)
		return
	case ".word":
		// .word VALUE [VALUE ...]
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		codes := make([]Code, len(words)-1)
		for n, word := range words[1:] {
			var value int64
			value, err = asm.valueOf(word)
			if err != nil && !asm.final {
				// Sized, but not yet resolved.
				err = nil
			}
			if err != nil {
				return
			}
			if value < -0x8000_0000 || value > 0xffff_ffff {
				err = ErrValueRange
				return
			}
			codes[n] = Code(uint32(value))
		}
		err = asm.emit(lineno, slices.Clone(words), codes...)
		return
	}

	code, err := asm.encode(words)
	if err != nil && !asm.final && !errors.Is(err, ErrOpcodeInvalid) {
		// Sized, but not yet resolved.
		err = nil
	}
	if err != nil {
		return
	}

	err = asm.emit(lineno, slices.Clone(words), code)
	return
}

// encode encodes an instruction mnemonic and its arguments.
func (asm *Assembler) encode(words []string) (code Code, err error) {
	mn, ok := mnemonics[strings.ToLower(words[0])]
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	args := words[1:]
	var regs []int
	var value int64

	for _, kind := range mn.args {
		if len(args) == 0 {
			if kind == argIndex {
				regs = append(regs, 0)
				continue
			}
			err = ErrOpcodeValueMissing
			return
		}
		arg := args[0]
		args = args[1:]

		switch kind {
		case argReg, argIndex:
			var reg int
			reg, err = asm.regOf(arg)
			if err != nil {
				return
			}
			regs = append(regs, reg)
		case argAddr:
			value, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			if value < 0 || value > ADDRESS_MASK {
				err = ErrValueRange
				return
			}
		case argImm:
			value, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			if value < -int64(IMMEDIATE_SIGN) || value > IMMEDIATE_MASK {
				err = ErrValueRange
				return
			}
			value &= IMMEDIATE_MASK
		case argCount:
			value, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			if value < 0 || value > SHIFT_MASK {
				err = ErrValueRange
				return
			}
		}
	}

	if len(args) != 0 {
		err = ErrOpcodeExtraArgs
		return
	}

	reg := func(n int) int {
		if n < len(regs) {
			return regs[n]
		}
		return 0
	}

	switch mn.family {
	case FAMILY_NONE:
		code = CODE_HALT
	case FAMILY_MEM:
		op := CodeMemOp(mn.op)
		if op == MEM_OP_JUMP || op == MEM_OP_CALL {
			code = MakeCodeMem(op, 0, reg(0), uint32(value))
		} else {
			code = MakeCodeMem(op, reg(0), reg(1), uint32(value))
		}
	case FAMILY_IMM:
		code = MakeCodeImm(CodeImmOp(mn.op), reg(0), uint32(value))
	case FAMILY_SHIFT:
		code = MakeCodeShift(CodeShiftOp(mn.op), reg(0), int(value))
	case FAMILY_REG:
		code = MakeCodeReg(CodeRegOp(mn.op), reg(0), reg(1))
	case FAMILY_IO:
		code = MakeCodeIo(CodeIoOp(mn.op), reg(0))
	case FAMILY_MISC:
		code = MakeCodeMisc(CodeMiscOp(mn.op))
	}

	return
}
