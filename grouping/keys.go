package grouping

import "slices"

// Keys is the ordered grouping key list. The zero value is empty and ready to
// use. Methods return a new list and never modify the receiver's backing
// array, so a Keys value stored in a snapshot stays valid.
type Keys []string

// Add appends field unless it is already present.
func (k Keys) Add(field string) Keys {
	if k.Contains(field) {
		return k
	}
	out := make(Keys, len(k), len(k)+1)
	copy(out, k)
	return append(out, field)
}

// Remove drops field, keeping the order of the remaining keys.
func (k Keys) Remove(field string) Keys {
	if !k.Contains(field) {
		return k
	}
	out := make(Keys, 0, len(k)-1)
	for _, f := range k {
		if f != field {
			out = append(out, f)
		}
	}
	return out
}

// Reorder moves the key at index from to index to. Out-of-range indices
// leave the list unchanged.
func (k Keys) Reorder(from, to int) Keys {
	if from < 0 || from >= len(k) || to < 0 || to >= len(k) || from == to {
		return k
	}
	out := slices.Clone(k)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}

// Contains reports whether field is a grouping key.
func (k Keys) Contains(field string) bool {
	return slices.Contains(k, field)
}
