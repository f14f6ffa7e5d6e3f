package replay

import (
	"testing"
)

func singleFeatureStream(f *testFeature) []Instruction {
	return []Instruction{
		{Op: OpBeginGeometry, Feature: f, JumpTarget: 3},
		{Op: OpMoveLineTo, Start: 0, End: 4},
		{Op: OpEndGeometry, Feature: f},
	}
}

func twoFeatureStream(a, b *testFeature) []Instruction {
	return []Instruction{
		{Op: OpBeginGeometry, Feature: a, JumpTarget: 4},
		{Op: OpBeginPath},
		{Op: OpMoveLineTo, Start: 0, End: 4},
		{Op: OpEndGeometry, Feature: a},
		{Op: OpBeginGeometry, Feature: b, JumpTarget: 8},
		{Op: OpBeginPath},
		{Op: OpMoveLineTo, Start: 4, End: 8},
		{Op: OpEndGeometry, Feature: b},
	}
}

func sameStream(a, b []Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Op != b[i].Op || a[i].Feature != b[i].Feature ||
			a[i].JumpTarget != b[i].JumpTarget ||
			a[i].Start != b[i].Start || a[i].End != b[i].End {
			return false
		}
	}
	return true
}

func TestReverseSingleFeature(t *testing.T) {
	f := feature("a", lineGeometry(0, 0, 1, 1))
	stream := singleFeatureStream(f)
	orig := append([]Instruction(nil), stream...)

	reverseHitDetection(stream)

	// One feature has nothing to invert against; intra-feature order and
	// the jump target must come back intact.
	if !sameStream(stream, orig) {
		t.Errorf("single-feature stream changed:\n got %+v\nwant %+v", stream, orig)
	}
}

func TestReverseTwoFeatures(t *testing.T) {
	a := feature("a", lineGeometry(0, 0, 1, 1))
	b := feature("b", lineGeometry(2, 2, 3, 3))
	stream := twoFeatureStream(a, b)

	reverseHitDetection(stream)

	// Feature order inverts; instructions within each block keep their
	// original sequence.
	wantFeatures := []*testFeature{b, a}
	var gotFeatures []*testFeature
	for i := range stream {
		if stream[i].Op == OpBeginGeometry {
			gotFeatures = append(gotFeatures, stream[i].Feature.(*testFeature))
		}
	}
	if len(gotFeatures) != 2 || gotFeatures[0] != wantFeatures[0] || gotFeatures[1] != wantFeatures[1] {
		t.Fatalf("expected feature order [b a], got %v", gotFeatures)
	}

	wantOps := []Op{
		OpBeginGeometry, OpBeginPath, OpMoveLineTo, OpEndGeometry,
		OpBeginGeometry, OpBeginPath, OpMoveLineTo, OpEndGeometry,
	}
	for i, op := range wantOps {
		if stream[i].Op != op {
			t.Errorf("instruction %d: expected %v, got %v", i, op, stream[i].Op)
		}
	}

	// Jump targets point one past each block's EndGeometry.
	if stream[0].JumpTarget != 4 {
		t.Errorf("first jump target: expected 4, got %d", stream[0].JumpTarget)
	}
	if stream[4].JumpTarget != 8 {
		t.Errorf("second jump target: expected 8, got %d", stream[4].JumpTarget)
	}
	if stream[2].Start != 4 || stream[2].End != 8 {
		t.Errorf("first block should carry b's range, got [%d,%d)", stream[2].Start, stream[2].End)
	}
}

func TestReverseIsSelfInverse(t *testing.T) {
	a := feature("a", lineGeometry(0, 0, 1, 1))
	b := feature("b", lineGeometry(2, 2, 3, 3))

	streams := [][]Instruction{
		singleFeatureStream(a),
		twoFeatureStream(a, b),
	}
	for _, stream := range streams {
		orig := append([]Instruction(nil), stream...)
		reverseHitDetection(stream)
		reverseHitDetection(stream)
		if !sameStream(stream, orig) {
			t.Errorf("double reversal changed stream:\n got %+v\nwant %+v", stream, orig)
		}
	}
}

func TestReverseEmptyStream(t *testing.T) {
	var stream []Instruction
	reverseHitDetection(stream)
	if len(stream) != 0 {
		t.Errorf("expected empty stream to stay empty")
	}
}
