package cpu

const (
	REGISTER_COUNT = 16      // Number of general purpose registers.
	REG_SP         = 14      // Stack pointer register.
	REG_PC         = 15      // Program counter register.
	MEMORY_SIZE    = 0x10000 // Default memory size, in words.
	ADDRESS_LIMIT  = 1 << 20 // Largest memory size addressable by an instruction.
)
