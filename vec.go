package archtable

import "unsafe"

// vec[T] is a length/capacity-tracked slice used for the entities and record
// pointer arrays. Growth goes through Go's built-in append, but callers that
// need to keep sibling arrays (columns, bitsets) in lockstep read back Cap()
// afterwards and force those siblings to the same capacity - tables never let
// columns grow on their own amortized schedule, see byteVec.SetCap.
type vec[T any] struct {
	data []T
}

func (v *vec[T]) Len() int32 { return int32(len(v.data)) }
func (v *vec[T]) Cap() int32 { return int32(cap(v.data)) }

func (v *vec[T]) Append(item T) *T {
	v.data = append(v.data, item)
	return &v.data[len(v.data)-1]
}

// Grow reserves capacity for exactly cp elements, then appends n zero-valued
// elements, returning a slice over the newly added range.
func (v *vec[T]) Grow(n, cp int32) []T {
	v.reserveExact(cp)
	start := len(v.data)
	var zero T
	for i := int32(0); i < n; i++ {
		v.data = append(v.data, zero)
	}
	return v.data[start:]
}

func (v *vec[T]) reserveExact(cp int32) {
	if int32(cap(v.data)) >= cp {
		return
	}
	grown := make([]T, len(v.data), cp)
	copy(grown, v.data)
	v.data = grown
}

func (v *vec[T]) Get(i int32) *T { return &v.data[i] }
func (v *vec[T]) Last() *T       { return &v.data[len(v.data)-1] }

func (v *vec[T]) RemoveLast() {
	v.data = v.data[:len(v.data)-1]
}

// SwapRemove moves the last element into slot i, then drops the last slot,
// returning the element that used to be last (now at i, unless i was last).
func (v *vec[T]) SwapRemove(i int32) T {
	last := int32(len(v.data)) - 1
	moved := v.data[last]
	v.data[i] = moved
	v.data = v.data[:last]
	return moved
}

func (v *vec[T]) Swap(i, j int32) {
	v.data[i], v.data[j] = v.data[j], v.data[i]
}

// Reclaim trims capacity down to length. Returns whether the vector held any
// payload before the trim.
func (v *vec[T]) Reclaim() bool {
	hadPayload := v.data != nil
	if len(v.data) != cap(v.data) {
		trimmed := make([]T, len(v.data))
		copy(trimmed, v.data)
		v.data = trimmed
	}
	return hadPayload
}

func (v *vec[T]) Reset() {
	v.data = v.data[:0]
}

// byteVec is a type-erased, size-parameterised growable array used by
// Column to store component payloads whose Go type is unknown at compile
// time. Capacity is always forced to an exact value by SetCap rather than
// grown amortised, so it can be kept in lockstep with a table's entities
// vector (table invariant #1).
type byteVec struct {
	data     []byte
	elemSize int32
	count    int32
}

func newByteVec(elemSize int32) byteVec {
	return byteVec{elemSize: elemSize}
}

func (v *byteVec) Count() int32 { return v.count }

func (v *byteVec) Cap() int32 {
	if v.elemSize == 0 {
		return 0
	}
	return int32(len(v.data)) / v.elemSize
}

// SetCap resizes the backing array to hold exactly n elements, preserving
// existing contents.
func (v *byteVec) SetCap(n int32) {
	newLen := n * v.elemSize
	if int32(len(v.data)) == newLen {
		return
	}
	grown := make([]byte, newLen)
	copy(grown, v.data)
	v.data = grown
}

func (v *byteVec) At(row int32) unsafe.Pointer {
	return unsafe.Pointer(&v.data[row*v.elemSize])
}

func (v *byteVec) Bytes(row int32) []byte {
	off := row * v.elemSize
	return v.data[off : off+v.elemSize]
}

// BytesRange returns the contiguous byte range covering count elements
// starting at row, for bulk moves spanning more than one element.
func (v *byteVec) BytesRange(row, count int32) []byte {
	off := row * v.elemSize
	return v.data[off : off+count*v.elemSize]
}

// Grow bumps count by n elements without touching capacity; callers must
// have already called SetCap for the final capacity.
func (v *byteVec) Grow(n int32) unsafe.Pointer {
	start := v.count
	v.count += n
	if v.elemSize == 0 || n == 0 {
		return nil
	}
	return v.At(start)
}

func (v *byteVec) RemoveLast() {
	v.count--
}

// SwapRemove copies the last element's bytes over row, then drops the last
// element.
func (v *byteVec) SwapRemove(row int32) {
	last := v.count - 1
	if row != last {
		copy(v.Bytes(row), v.Bytes(last))
	}
	v.count--
}

func (v *byteVec) Swap(i, j int32) {
	if i == j {
		return
	}
	tmp := make([]byte, v.elemSize)
	copy(tmp, v.Bytes(i))
	copy(v.Bytes(i), v.Bytes(j))
	copy(v.Bytes(j), tmp)
}

// Reclaim trims capacity to the current element count.
func (v *byteVec) Reclaim() bool {
	hadPayload := v.data != nil
	v.SetCap(v.count)
	return hadPayload
}

func (v *byteVec) Fini() {
	v.data = nil
	v.count = 0
}
