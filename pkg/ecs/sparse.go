package ecs

import "github.com/argus-labs/roseshard/pkg/assert"

// sparseSet maps entity indices to archetype rows.
type sparseSet []int

const sparseCapacity = 128
const sparseTombstone = -1

func newSparseSet() sparseSet {
	s := make(sparseSet, sparseCapacity)
	for i := range sparseCapacity {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the value for a key and whether it exists.
func (s *sparseSet) get(key uint32) (int, bool) {
	if int(key) >= len(*s) {
		return 0, false
	}

	value := (*s)[key]
	if value == sparseTombstone {
		return 0, false
	}

	return value, true
}

// set stores a value for a key, growing the backing slice if needed.
func (s *sparseSet) set(key uint32, value int) {
	assert.That(value >= 0, "value must be a non-negative row index")

	if int(key) >= len(*s) {
		oldLen := len(*s)
		newLen := max(oldLen*2, int(key)+1)

		grown := make(sparseSet, newLen)
		copy(grown, *s)
		for i := oldLen; i < newLen; i++ {
			grown[i] = sparseTombstone
		}
		*s = grown
	}

	(*s)[key] = value
}

// remove sets a key's value to tombstone. Returns true if the key existed.
func (s *sparseSet) remove(key uint32) bool {
	if int(key) >= len(*s) || (*s)[key] == sparseTombstone {
		return false
	}

	(*s)[key] = sparseTombstone
	return true
}
