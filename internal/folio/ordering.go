package folio

import (
	"fmt"
	"sort"
)

// Slot is one item's position within a contiguous 1..N ordering.
type Slot struct {
	ID    string
	Order int
}

// Reorder is a single order change produced by the planner.
type Reorder struct {
	ID   string
	From int
	To   int
}

// NextOrder returns the order value for an item appended to slots.
func NextOrder(slots []Slot) int {
	max := 0
	for _, s := range slots {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + 1
}

// PlanMove computes the changes that move id from oldIndex to newIndex.
// Items strictly between the two positions shift by one towards the vacated
// slot. oldIndex must match the item's current order, so a client acting on
// a stale view is rejected instead of corrupting the sequence.
// Moving an item onto its own index yields no changes.
func PlanMove(slots []Slot, id string, oldIndex, newIndex int) ([]Reorder, error) {
	current, ok := orderOf(slots, id)
	if !ok {
		return nil, notFound("", "image", id)
	}
	if oldIndex != current {
		return nil, invalid("", "image", id, "stale position: image is at %d, not %d", current, oldIndex)
	}
	if newIndex < 1 || newIndex > len(slots) {
		return nil, invalid("", "image", id, "position %d out of range 1..%d", newIndex, len(slots))
	}
	if oldIndex == newIndex {
		return nil, nil
	}

	// Moving forward pulls the items in between back by one; moving backward
	// pushes them forward.
	lo, hi, delta := oldIndex, newIndex, -1
	if newIndex < oldIndex {
		lo, hi, delta = newIndex, oldIndex, 1
	}

	var changes []Reorder
	for _, s := range slots {
		if s.ID == id || s.Order < lo || s.Order > hi {
			continue
		}
		changes = append(changes, Reorder{ID: s.ID, From: s.Order, To: s.Order + delta})
	}
	changes = append(changes, Reorder{ID: id, From: oldIndex, To: newIndex})

	sort.Slice(changes, func(i, j int) bool { return changes[i].From < changes[j].From })
	return changes, nil
}

// PlanRemoval moves id to the end of the order so the remaining items are
// compacted into 1..N-1. The caller deletes id afterwards.
func PlanRemoval(slots []Slot, id string) ([]Reorder, error) {
	current, ok := orderOf(slots, id)
	if !ok {
		return nil, notFound("", "image", id)
	}
	return PlanMove(slots, id, current, len(slots))
}

// ApplyReorders returns a copy of slots with changes applied.
func ApplyReorders(slots []Slot, changes []Reorder) []Slot {
	to := make(map[string]int, len(changes))
	for _, c := range changes {
		to[c.ID] = c.To
	}
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = s
		if o, ok := to[s.ID]; ok {
			out[i].Order = o
		}
	}
	return out
}

// CheckContiguous verifies that the order values are exactly {1..N}.
func CheckContiguous(slots []Slot) error {
	seen := make([]bool, len(slots)+1)
	for _, s := range slots {
		if s.Order < 1 || s.Order > len(slots) {
			return fmt.Errorf("order %d of %s outside 1..%d", s.Order, s.ID, len(slots))
		}
		if seen[s.Order] {
			return fmt.Errorf("duplicate order %d", s.Order)
		}
		seen[s.Order] = true
	}
	return nil
}

// ImageSlots projects images onto their ordering slots.
func ImageSlots(images []*Image) []Slot {
	slots := make([]Slot, len(images))
	for i, img := range images {
		slots[i] = Slot{ID: img.ID, Order: img.Order}
	}
	return slots
}

func orderOf(slots []Slot, id string) (int, bool) {
	for _, s := range slots {
		if s.ID == id {
			return s.Order, true
		}
	}
	return 0, false
}
