package rindex

import (
	"testing"

	"github.com/gogpu/mapscene/replay"
)

func box(minX, minY, maxX, maxY float64) replay.Box {
	return replay.Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func TestInsertAndCollides(t *testing.T) {
	x := New()
	if x.Collides(box(0, 0, 10, 10)) {
		t.Error("empty index reported a collision")
	}

	x.Insert(box(0, 0, 10, 10))
	if !x.Collides(box(5, 5, 15, 15)) {
		t.Error("expected overlap to collide")
	}
	if x.Collides(box(20, 20, 30, 30)) {
		t.Error("disjoint box reported a collision")
	}
	// Shared edges count as collisions.
	if !x.Collides(box(10, 0, 20, 10)) {
		t.Error("expected touching boxes to collide")
	}
}

func TestLenAndReset(t *testing.T) {
	x := New()
	x.Insert(box(0, 0, 1, 1))
	x.Insert(box(5, 5, 6, 6))
	if x.Len() != 2 {
		t.Errorf("expected 2 boxes, got %d", x.Len())
	}

	x.Reset()
	if x.Len() != 0 {
		t.Errorf("expected empty index after reset, got %d", x.Len())
	}
	if x.Collides(box(0, 0, 10, 10)) {
		t.Error("reset index reported a collision")
	}
}

func TestManyBoxes(t *testing.T) {
	x := New()
	for i := 0; i < 100; i++ {
		f := float64(i * 20)
		x.Insert(box(f, 0, f+10, 10))
	}
	if !x.Collides(box(505, 5, 506, 6)) {
		t.Error("expected collision in populated region")
	}
	if x.Collides(box(11, 20, 19, 30)) {
		t.Error("expected no collision above the row")
	}
}
