// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"

	"github.com/chzyer/readline"

	"github.com/ezrec/hm32/console"
	"github.com/ezrec/hm32/cpu"
	"github.com/ezrec/hm32/emulator"
	"github.com/ezrec/hm32/image"
	"github.com/ezrec/hm32/io"
)

func main() {
	var compile string
	var load string
	var save string
	var input string
	var output string
	var limit int
	var keep bool
	var interactive bool
	var size uint
	var verbose bool

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&load, "l", "", "Image file to load")
	flag.StringVar(&save, "s", "", "Image file to save on exit")
	flag.StringVar(&input, "i", "-", "Character input")
	flag.StringVar(&output, "o", "-", "Character output")
	flag.IntVar(&limit, "n", 0, "Maximum instructions to run (0 is unlimited)")
	flag.BoolVar(&keep, "k", false, "Report faults and keep running")
	flag.BoolVar(&interactive, "console", false, "Start the debug console")
	flag.UintVar(&size, "m", cpu.MEMORY_SIZE, "Memory size, in words")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator(size)
	emu.Verbose = verbose
	emu.Continue = keep
	emu.Limit = limit

	// Assemble a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	if len(load) != 0 {
		inf, err := os.Open(load)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
		err = image.Load(inf, emu.Cpu)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
	}

	// The console owns stdin; machine input is queued with its 'in' command.
	var queue *io.Ring
	if input == "-" && interactive {
		queue = &io.Ring{}
		queue.Rewind()
		emu.Tape.Input = queue
	} else if input == "-" {
		emu.Tape.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Tape.Input = inf
	}

	if output == "-" {
		emu.Tape.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Tape.Output = ouf
	}

	if interactive {
		rl, err := readline.NewEx(&readline.Config{
			Prompt: "CONS?> ",
		})
		if err != nil {
			log.Fatalf("console: %v", err)
		}
		defer rl.Close()

		con := console.NewConsole(emu, rl.Stdout())
		con.Verbose = verbose
		con.Input = queue
		err = con.Serve(rl.Readline)
		if err != nil && err != readline.ErrInterrupt {
			log.Print(err)
		}
	} else {
		status, err := emu.Run()
		if err != nil {
			log.Print(err)
		}
		if verbose {
			log.Printf("%v after %d instructions", status, emu.Ticks())
		}
	}

	if len(save) != 0 {
		ouf, err := os.Create(save)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		err = image.Save(ouf, emu.Cpu)
		if cerr := ouf.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
	}
}
