// Package console implements the HM32 debug console: a line oriented
// command interpreter to examine and deposit registers and memory, and to
// step or run the machine.
package console

import (
	"errors"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ezrec/hm32/cpu"
	"github.com/ezrec/hm32/emulator"
	"github.com/ezrec/hm32/image"
	hmio "github.com/ezrec/hm32/io"
	"github.com/ezrec/hm32/translate"
)

var f = translate.From

var (
	ErrCommandUnknown = errors.New(f("command not found"))
	ErrArgument       = errors.New(f("bad argument"))
	ErrInputQueue     = errors.New(f("no input queue"))
)

// command is a console command handler.
type command struct {
	args string // Argument summary.
	help string // Help text.
	exec func(con *Console, args []string) error
}

var commands map[string]command

// commandOrder is the order commands are listed by help.
var commandOrder = []string{"help", "xr", "xra", "dr", "xm", "xi", "dm", "s", "r", "in", "reset", "save", "load", "q"}

func init() {
	commands = map[string]command{
		"help":  {"", "prints this list", (*Console).cmdHelp},
		"xr":    {"R", "examine register R", (*Console).cmdExamineRegister},
		"xra":   {"", "examine all registers", (*Console).cmdExamineAll},
		"dr":    {"R V", "deposit V in register R", (*Console).cmdDepositRegister},
		"xm":    {"A [N]", "examine N words of memory at A", (*Console).cmdExamineMemory},
		"xi":    {"A [N]", "examine N instructions at A", (*Console).cmdExamineCode},
		"dm":    {"A V...", "deposit consecutive words at A", (*Console).cmdDepositMemory},
		"s":     {"[N]", "step N instructions", (*Console).cmdStep},
		"r":     {"", "run until halt or fault", (*Console).cmdRun},
		"in":    {"TEXT", "queue a line of TEXT for getc", (*Console).cmdInput},
		"reset": {"", "reset the machine and reload the program", (*Console).cmdReset},
		"save":  {"FILE", "save the machine image to FILE", (*Console).cmdSave},
		"load":  {"FILE", "load the machine image from FILE", (*Console).cmdLoad},
		"q":     {"", "quit", nil},
	}
}

// Console is the debug console state.
type Console struct {
	Verbose bool               // If set, logs each command.
	Emu     *emulator.Emulator // Machine under debug.
	Output  io.Writer          // Command output.
	Input   *hmio.Ring         // If set, queued machine input.
}

// NewConsole creates a console attached to an emulator.
func NewConsole(emu *emulator.Emulator, output io.Writer) *Console {
	return &Console{
		Emu:    emu,
		Output: output,
	}
}

func (con *Console) printf(format string, args ...any) {
	translate.Fprint(con.Output, format, args...)
}

// Exec executes a single command line. quit is set by the quit command.
func (con *Console) Exec(line string) (quit bool, err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	if con.Verbose {
		log.Printf("console: %v", words)
	}

	name := strings.ToLower(words[0])
	if name == "q" || name == "quit" {
		quit = true
		return
	}

	cmd, ok := commands[name]
	if !ok {
		err = ErrCommandUnknown
		return
	}

	err = cmd.exec(con, words[1:])
	return
}

// Serve reads lines from next and executes them until quit, or until next
// returns an error. Command errors are printed, and do not stop the
// console. io.EOF from next is not an error.
func (con *Console) Serve(next func() (string, error)) (err error) {
	for {
		var line string
		line, err = next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			break
		}

		var quit bool
		quit, err = con.Exec(line)
		if err != nil {
			con.printf("CONS> %v\n", err)
			err = nil
		}
		if quit {
			break
		}
	}

	con.printf("Good day\n")
	return
}

// parseHex parses a hex word.
func parseHex(word string) (value int32, err error) {
	word = strings.TrimPrefix(strings.ToLower(word), "0x")
	v64, perr := strconv.ParseUint(word, 16, 32)
	if perr != nil {
		err = errors.Join(ErrArgument, perr)
		return
	}
	value = int32(uint32(v64))
	return
}

// parseArgs parses between lo and hi hex arguments. A negative hi is
// unbounded.
func parseArgs(args []string, lo, hi int) (values []int32, err error) {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		err = ErrArgument
		return
	}
	for _, arg := range args {
		var value int32
		value, err = parseHex(arg)
		if err != nil {
			return
		}
		values = append(values, value)
	}
	return
}

func (con *Console) cmdHelp(args []string) (err error) {
	con.printf("CONS> List of all commands\n")
	for _, name := range commandOrder {
		cmd := commands[name]
		con.printf("%-5s %-6s - %s\n", name, cmd.args, cmd.help)
	}
	con.printf("All numbers are in hex.\n")
	return
}

func (con *Console) printRegister(index int) {
	con.printf("CONS> %s\n", con.Emu.Cpu.RegisterLine(index))
}

func (con *Console) cmdExamineRegister(args []string) (err error) {
	values, err := parseArgs(args, 1, 1)
	if err != nil {
		return
	}
	_, err = con.Emu.Cpu.GetRegister(int(values[0]))
	if err != nil {
		return
	}
	con.printRegister(int(values[0]))
	return
}

func (con *Console) cmdExamineAll(args []string) (err error) {
	if len(args) != 0 {
		err = ErrArgument
		return
	}
	for n := range cpu.REGISTER_COUNT {
		con.printRegister(n)
	}
	return
}

func (con *Console) cmdDepositRegister(args []string) (err error) {
	values, err := parseArgs(args, 2, 2)
	if err != nil {
		return
	}
	err = con.Emu.Cpu.SetRegister(int(values[0]), values[1])
	return
}

// memoryRange parses an address and an optional word count.
func memoryRange(args []string) (address, count int, err error) {
	values, err := parseArgs(args, 1, 2)
	if err != nil {
		return
	}
	address = int(uint32(values[0]))
	count = 1
	if len(values) > 1 {
		count = int(uint32(values[1]))
	}
	return
}

func (con *Console) cmdExamineMemory(args []string) (err error) {
	address, count, err := memoryRange(args)
	if err != nil {
		return
	}
	for n := range count {
		var value int32
		value, err = con.Emu.Cpu.ReadMemory(address + n)
		if err != nil {
			return
		}
		con.printf("CONS> %08X  %08X\n", address+n, uint32(value))
	}
	return
}

func (con *Console) cmdExamineCode(args []string) (err error) {
	address, count, err := memoryRange(args)
	if err != nil {
		return
	}
	for n := range count {
		var value int32
		value, err = con.Emu.Cpu.ReadMemory(address + n)
		if err != nil {
			return
		}
		con.printf("CONS> %08X  %08X  %v\n", address+n, uint32(value), cpu.Code(value))
	}
	return
}

func (con *Console) cmdDepositMemory(args []string) (err error) {
	values, err := parseArgs(args, 2, -1)
	if err != nil {
		return
	}
	address := int(uint32(values[0]))
	// Check the whole range before writing any of it.
	_, err = con.Emu.Cpu.ReadMemory(address + len(values) - 2)
	if err != nil {
		return
	}
	for n, value := range values[1:] {
		err = con.Emu.Cpu.WriteMemory(address+n, value)
		if err != nil {
			return
		}
	}
	return
}

func (con *Console) cmdStep(args []string) (err error) {
	values, err := parseArgs(args, 0, 1)
	if err != nil {
		return
	}
	count := 1
	if len(values) > 0 {
		count = int(uint32(values[0]))
	}
	for range count {
		pc := con.Emu.Cpu.Pc()
		code := con.Emu.Code()
		con.printf("CONS> Step instruction at %08X is %08X %v\n", uint32(pc), uint32(code), code)
		var status cpu.Status
		status, err = con.Emu.Tick()
		if err != nil {
			return
		}
		if status != cpu.STATUS_OK {
			con.printf("CONS> %v\n", status)
			return
		}
	}
	return
}

func (con *Console) cmdRun(args []string) (err error) {
	if len(args) != 0 {
		err = ErrArgument
		return
	}
	status, err := con.Emu.Run()
	if err != nil {
		return
	}
	con.printf("CONS> %v at %08X\n", status, uint32(con.Emu.Cpu.Pc()))
	return
}

func (con *Console) cmdInput(args []string) (err error) {
	if con.Input == nil {
		err = ErrInputQueue
		return
	}
	_, err = con.Input.Write([]byte(strings.Join(args, " ") + "\n"))
	return
}

func (con *Console) cmdReset(args []string) (err error) {
	if len(args) != 0 {
		err = ErrArgument
		return
	}
	err = con.Emu.Reset()
	return
}

func (con *Console) cmdSave(args []string) (err error) {
	if len(args) != 1 {
		err = ErrArgument
		return
	}
	out, err := os.Create(args[0])
	if err != nil {
		return
	}
	err = image.Save(out, con.Emu.Cpu)
	cerr := out.Close()
	if err == nil {
		err = cerr
	}
	return
}

func (con *Console) cmdLoad(args []string) (err error) {
	if len(args) != 1 {
		err = ErrArgument
		return
	}
	in, err := os.Open(args[0])
	if err != nil {
		return
	}
	defer in.Close()
	err = image.Load(in, con.Emu.Cpu)
	return
}
