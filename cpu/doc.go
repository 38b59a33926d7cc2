// Package cpu implements the execution engine and assembler for the HM32
// hypothetical 32-bit register machine.
//
// The machine has sixteen signed 32-bit registers (r15 is the program
// counter, r14 the stack pointer) and a flat memory of signed 32-bit words
// shared by code and data. Instructions are single 32-bit words. The
// highest non-zero hex digit of the word (X7 down to X1) selects one of
// seven instruction families; an all-zero word halts the machine.
//
// The assembler provides a line-oriented assembly language for the HM32
// instruction set, supporting labels, equates, and compile-time expression
// evaluation.
package cpu
