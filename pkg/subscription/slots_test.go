package subscription

import "testing"

func TestSlotListAddRemove(t *testing.T) {
	l := newSlotList()

	a := l.Add("a")
	b := l.Add("b")
	c := l.Add("c")

	if a == b || b == c || a == c {
		t.Fatalf("slot ids must be distinct: %d %d %d", a, b, c)
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}

	l.Remove(b)
	if l.Len() != 2 {
		t.Errorf("Len() after remove = %d, want 2", l.Len())
	}

	// Freed index is reused before the array grows.
	d := l.Add("d")
	if d != b {
		t.Errorf("Add() after remove = %d, want reused slot %d", d, b)
	}
	if l.Len() != 3 {
		t.Errorf("Len() after reuse = %d, want 3", l.Len())
	}
}

func TestSlotListStableIDs(t *testing.T) {
	l := newSlotList()

	a := l.Add("a")
	b := l.Add("b")
	l.Remove(a)

	// Removing one slot must not renumber the others.
	snap := l.Snapshot()
	if snap[b] != "b" {
		t.Errorf("slot %d = %v, want %q", b, snap[b], "b")
	}
}

func TestSlotListSnapshotContainsTombstones(t *testing.T) {
	l := newSlotList()

	a := l.Add("a")
	b := l.Add("b")
	l.Remove(a)

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(snapshot) = %d, want 2", len(snap))
	}
	if snap[a] != nil {
		t.Errorf("freed slot should be nil in snapshot, got %v", snap[a])
	}
	if snap[b] != "b" {
		t.Errorf("snapshot[%d] = %v, want %q", b, snap[b], "b")
	}

	// The snapshot is a copy: later mutation must not affect it.
	l.Remove(b)
	if snap[b] != "b" {
		t.Error("snapshot mutated by later Remove")
	}
}

func TestSlotListRemoveOutOfRange(t *testing.T) {
	l := newSlotList()
	l.Add("a")

	l.Remove(-1)
	l.Remove(5)
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}

	// Double remove is a no-op and must not corrupt the free list.
	l.Remove(0)
	l.Remove(0)
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	x := l.Add("x")
	y := l.Add("y")
	if x == y {
		t.Errorf("corrupted free list produced duplicate slot id %d", x)
	}
}

func TestSlotListDispose(t *testing.T) {
	l := newSlotList()
	id := l.Add("a")

	l.Dispose()
	if l.Len() != 0 {
		t.Errorf("Len() after dispose = %d, want 0", l.Len())
	}
	if got := l.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() after dispose has %d entries, want 0", len(got))
	}

	// Late removes after dispose must not panic.
	l.Remove(id)
}
