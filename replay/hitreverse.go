package replay

// reverseHitDetection reorders a hit-detection stream so that the feature
// drawn last — visually topmost — is tested first, while the instructions
// inside each feature keep their original, semantically ordered sequence.
//
// The whole stream is reversed, which inverts feature order but also
// scrambles each [BeginGeometry … EndGeometry] block (and swaps the two
// markers). A second pass re-reverses every block in place, restoring
// intra-feature order, and rewrites each BeginGeometry's jump target to
// one past its paired EndGeometry's new position.
//
// Applied twice, the transformation restores the original stream.
func reverseHitDetection(instructions []Instruction) {
	reverseRange(instructions, 0, len(instructions)-1)

	end := -1
	for i := range instructions {
		switch instructions[i].Op {
		case OpEndGeometry:
			end = i
		case OpBeginGeometry:
			instructions[i].JumpTarget = i + 1
			reverseRange(instructions, end, i)
			end = -1
		}
	}
}

// reverseRange reverses instructions[begin:end] in place (both inclusive).
func reverseRange(instructions []Instruction, begin, end int) {
	for begin >= 0 && begin < end {
		instructions[begin], instructions[end] = instructions[end], instructions[begin]
		begin++
		end--
	}
}
