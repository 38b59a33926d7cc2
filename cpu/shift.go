package cpu

const signBit = uint32(1) << 31

// signExtend copies the sign bit of before into the vacated high bit of a
// single-bit right shift.
func signExtend(before, after uint32) uint32 {
	return after | (before & signBit)
}

// wrapHighToLow moves the bit shifted out of the top of a single-bit left
// shift into bit 0.
func wrapHighToLow(before, after uint32) uint32 {
	return after | (before >> 31)
}

// wrapLowToHigh moves the bit shifted out of the bottom of a single-bit
// right shift into bit 31.
func wrapLowToHigh(before, after uint32) uint32 {
	return after | (before << 31)
}

// shiftOnce performs a single-bit shift.
func shiftOnce(op CodeShiftOp, value uint32) uint32 {
	switch op {
	case SHIFT_OP_SHL, SHIFT_OP_SAL:
		// An arithmetic left shift is the same as a logical left shift.
		return value << 1
	case SHIFT_OP_SHR:
		return value >> 1
	case SHIFT_OP_SAR:
		return signExtend(value, value>>1)
	case SHIFT_OP_ROL:
		return wrapHighToLow(value, value<<1)
	case SHIFT_OP_ROR:
		return wrapLowToHigh(value, value>>1)
	}
	return value
}

// doShift performs count single-bit shifts of value.
func doShift(op CodeShiftOp, value int32, count int) int32 {
	output := uint32(value)
	for range count & SHIFT_MASK {
		output = shiftOnce(op, output)
	}
	return int32(output)
}
