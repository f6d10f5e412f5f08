package archtable

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Type is a table's immutable, sorted, deduplicated vector of ids. Type
// equality (same ids, same order) is what identifies a table - there is at
// most one live table per type.
type Type struct {
	ids  []Id
	hash uint64
}

// NewType builds a Type from ids, sorting and deduplicating them and
// computing its content hash once up front.
func NewType(ids ...Id) Type {
	sorted := append([]Id(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	deduped := sorted[:0]
	var last Id
	hasLast := false
	for _, id := range sorted {
		if hasLast && id == last {
			continue
		}
		deduped = append(deduped, id)
		last = id
		hasLast = true
	}

	return Type{ids: deduped, hash: hashIds(deduped)}
}

func hashIds(ids []Id) uint64 {
	if len(ids) == 0 {
		return 0
	}
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return xxhash.Sum64(buf)
}

// Ids returns the type's sorted id vector. Callers must not mutate it.
func (t Type) Ids() []Id { return t.ids }

// Count returns the number of ids in the type.
func (t Type) Count() int32 { return int32(len(t.ids)) }

// Hash returns the type's content hash, used for dictionary lookup of the
// world's type -> table map.
func (t Type) Hash() uint64 { return t.hash }

// Equal reports whether two types contain the same ids in the same order.
func (t Type) Equal(other Type) bool {
	if t.hash != other.hash || len(t.ids) != len(other.ids) {
		return false
	}
	for i, id := range t.ids {
		if other.ids[i] != id {
			return false
		}
	}
	return true
}

// IndexOf returns the type-slot of id, or -1 if absent. Ids are sorted, so
// this is a binary search.
func (t Type) IndexOf(id Id) int32 {
	ids := t.ids
	lo, hi := 0, len(ids)
	for lo < hi {
		mid := (lo + hi) / 2
		if ids[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(ids) && ids[lo] == id {
		return int32(lo)
	}
	return -1
}
