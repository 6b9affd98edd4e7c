package subscription

// slotList stores opaque handler values in reusable slots with stable
// integer ids. It has no locking of its own: all structural mutation happens
// under the owning registry's mutex. Snapshot copies may be iterated after
// the mutex is released; freed positions appear as nil entries.
type slotList struct {
	slots []any
	free  []int
}

func newSlotList() *slotList {
	return &slotList{}
}

// Add stores a value and returns its slot id. Freed slot indices are reused
// before the backing array grows.
func (l *slotList) Add(v any) int {
	if n := len(l.free); n > 0 {
		id := l.free[n-1]
		l.free = l.free[:n-1]
		l.slots[id] = v
		return id
	}
	l.slots = append(l.slots, v)
	return len(l.slots) - 1
}

// Remove frees the slot with the given id. Other slot ids are unaffected.
// Removing an id that is already free or out of range is a no-op.
func (l *slotList) Remove(id int) {
	if id < 0 || id >= len(l.slots) || l.slots[id] == nil {
		return
	}
	l.slots[id] = nil
	l.free = append(l.free, id)
}

// Snapshot returns a point-in-time copy of all slots, including nil entries
// at freed positions. Callers iterating after the registry mutex is released
// must skip nil entries: a concurrent Remove may have freed a slot between
// capture and iteration.
func (l *slotList) Snapshot() []any {
	out := make([]any, len(l.slots))
	copy(out, l.slots)
	return out
}

// Len returns the number of occupied slots.
func (l *slotList) Len() int {
	return len(l.slots) - len(l.free)
}

// Dispose releases all slots. The list is unusable afterwards except that
// Remove remains a safe no-op, so late Handle disposals do not panic.
func (l *slotList) Dispose() {
	l.slots = nil
	l.free = nil
}
