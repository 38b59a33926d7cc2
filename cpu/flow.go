package cpu

// Flow is how an executed instruction moves the program counter: either to
// an explicit target, or forward past the instruction and Skip more words.
type Flow struct {
	Jump   bool  // If set, Target is the next PC.
	Target int32 // Explicit next PC.
	Skip   int32 // Words skipped after the next instruction.
}

// FLOW_NEXT advances to the following instruction.
var FLOW_NEXT = Flow{}

// FLOW_SKIP advances past the following instruction.
var FLOW_SKIP = Flow{Skip: 1}

// FlowJump transfers control to target.
func FlowJump(target int32) Flow {
	return Flow{Jump: true, Target: target}
}

// Next returns the next PC, given the current PC.
func (fl Flow) Next(pc int32) int32 {
	if fl.Jump {
		return fl.Target
	}
	return pc + 1 + fl.Skip
}
