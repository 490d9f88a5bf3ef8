package domain

// Shift directions accepted by Reorder.
const (
	ShiftUp   = -1 // toward index 0
	ShiftDown = 1  // toward the end
)

// Reorder returns a new slice holding the same items with the item at index
// moved now sitting at target. Every other item keeps its relative order.
//
// The result is rebuilt positionally: moving down emits the item found at
// target before the moved one, moving up emits the moved one first. Indices
// out of range, index == target or a shift pointing away from target yield
// an unchanged copy.
func Reorder[E any](items []E, index, target, shift int) []E {
	out := make([]E, 0, len(items))
	if index < 0 || index >= len(items) || target < 0 || target >= len(items) || index == target {
		return append(out, items...)
	}
	if (shift > 0) != (target > index) || shift == 0 {
		return append(out, items...)
	}
	moved := items[index]
	for i, item := range items {
		if i != index && shift > 0 {
			out = append(out, item)
		}
		if i == target {
			out = append(out, moved)
		}
		if i != index && shift < 0 {
			out = append(out, item)
		}
	}
	return out
}
