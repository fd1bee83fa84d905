package collection

// Snapshot is an immutable view of a collection at one version. Items is a
// private copy; callers may reorder it freely.
type Snapshot[T Item[T]] struct {
	Items   []T    `json:"items"`
	Count   int    `json:"count"`
	Version uint64 `json:"version"`
}

// Contains reports whether the snapshot holds an item with key id.
func (s Snapshot[T]) Contains(id string) bool {
	for _, it := range s.Items {
		if it.Key() == id {
			return true
		}
	}
	return false
}

func newSnapshot[T Item[T]](items []T, version uint64) Snapshot[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return Snapshot[T]{Items: cp, Count: len(cp), Version: version}
}
