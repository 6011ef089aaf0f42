// Package flex implements the dynamic typed buffer: growable,
// type-tagged contiguous storage with bounds-checked element access and
// amortized append/pop.
//
// Storage is an arrow memory.Buffer owned exclusively by the Array.
// Every reallocating call invalidates raw views previously obtained
// through Bytes; callers must re-acquire views after any mutation.
package flex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/quarry-ml/numcore/internal/dtype"
	"github.com/quarry-ml/numcore/internal/logger"
	"github.com/quarry-ml/numcore/internal/metrics"
)

var (
	// ErrInvalid marks a rejected argument (bad type id, nil data,
	// zero capacity on resize, undersized element slices).
	ErrInvalid = errors.New("invalid argument")
	// ErrOutOfBounds marks an index at or beyond the logical length,
	// including pop on an empty array.
	ErrOutOfBounds = errors.New("index out of bounds")
	// ErrAllocFailed marks a reallocation that could not be satisfied.
	ErrAllocFailed = errors.New("allocation failed")
)

// Array is a growable buffer of fixed-size elements described by a
// registry type. The zero value is not usable; construct with New.
// An Array is exclusively owned by one logical owner at a time and
// performs no internal locking.
type Array struct {
	buf      *memory.Buffer
	mem      memory.Allocator
	log      *logger.Logger
	typ      *dtype.DataType
	length   uint32 // elements in use
	capacity uint32 // elements allocated
}

// Option configures an Array at construction time.
type Option func(*Array)

// WithAllocator sets the arrow allocator backing the array's storage.
func WithAllocator(mem memory.Allocator) Option {
	return func(a *Array) { a.mem = mem }
}

// WithLogger sets the logger used for warnings (capacity coercion,
// shrink truncation). Defaults to a nop logger.
func WithLogger(log *logger.Logger) Option {
	return func(a *Array) { a.log = log }
}

// New creates an array with the given initial capacity and element
// type. A capacity of 0 is coerced to 1 with a logged warning. Storage
// is zero-filled.
func New(capacity uint32, id dtype.ID, opts ...Option) (*Array, error) {
	a := &Array{}
	for _, opt := range opts {
		opt(a)
	}
	if a.mem == nil {
		a.mem = memory.DefaultAllocator
	}
	if a.log == nil {
		a.log = logger.Nop()
	}

	if capacity == 0 {
		capacity = 1
		a.log.Warn("flex: initial capacity coerced to 1")
	}

	typ := dtype.Get(id)
	if typ == nil {
		return nil, fmt.Errorf("flex: create: %w: type id %d", ErrInvalid, id)
	}

	nbytes, err := byteSize(capacity, typ.Size)
	if err != nil {
		return nil, fmt.Errorf("flex: create: %w", err)
	}

	a.buf = memory.NewResizableBuffer(a.mem)
	a.buf.Resize(nbytes)
	memory.Set(a.buf.Bytes(), 0)

	a.typ = typ
	a.length = 0
	a.capacity = capacity

	metrics.RecordBufferAlloc(int64(nbytes))
	a.log.Debug("flex: created", "capacity", capacity, "type", typ.Name)
	return a, nil
}

// NewFull creates an array whose length already equals its capacity,
// with every element zero. Used for flat storage that is addressed by
// index immediately after creation.
func NewFull(count uint32, id dtype.ID, opts ...Option) (*Array, error) {
	a, err := New(count, id, opts...)
	if err != nil {
		return nil, err
	}
	a.length = a.capacity
	return a, nil
}

// Release frees the owned storage. It is safe to call on a nil or
// already-released array; the storage is released exactly once.
func (a *Array) Release() {
	if a == nil || a.buf == nil {
		return
	}
	metrics.RecordBufferRelease(int64(a.capacity * a.typ.Size))
	a.buf.Release()
	a.buf = nil
	a.length = 0
	a.capacity = 0
}

// Type returns the array's registry descriptor.
func (a *Array) Type() *dtype.DataType { return a.typ }

// Len returns the number of elements in use.
func (a *Array) Len() uint32 { return a.length }

// Cap returns the number of elements allocated.
func (a *Array) Cap() uint32 { return a.capacity }

// Bytes returns the raw storage for the elements in use. The view is
// invalidated by any reallocating call (Resize, Append, Pop, SetBulk,
// ShrinkToFit).
func (a *Array) Bytes() []byte {
	if a == nil || a.buf == nil {
		return nil
	}
	return a.buf.Bytes()[:a.length*a.typ.Size]
}

// Resize reallocates storage to hold capacity elements. Newly added
// tail bytes are zero-filled. Shrinking below the current length
// truncates it and returns truncated=true: shrink wins, and callers
// that cannot afford data loss must check Len first. On failure the
// array's prior state is left completely unmodified.
func (a *Array) Resize(capacity uint32) (truncated bool, err error) {
	if a == nil || a.buf == nil || capacity == 0 {
		return false, fmt.Errorf("flex: resize: %w: capacity %d", ErrInvalid, capacity)
	}
	if capacity == a.capacity {
		return false, nil
	}

	nbytes, err := byteSize(capacity, a.typ.Size)
	if err != nil {
		return false, fmt.Errorf("flex: resize: %w", err)
	}

	oldBytes := int64(a.capacity * a.typ.Size)
	grow := capacity > a.capacity

	if grow {
		a.buf.Resize(nbytes)
		memory.Set(a.buf.Bytes()[oldBytes:], 0)
	} else if capacity < a.capacity {
		// Arrow buffers never give memory back on Resize, so a true
		// shrink swaps in a fresh buffer of the exact size.
		next := memory.NewResizableBuffer(a.mem)
		next.Resize(nbytes)
		copy(next.Bytes(), a.buf.Bytes()[:nbytes])
		a.buf.Release()
		a.buf = next
	}

	a.capacity = capacity
	if a.length > capacity {
		a.log.Warn("flex: resize truncated length",
			"from", a.length, "to", capacity)
		a.length = capacity
		truncated = true
		metrics.RecordTruncation()
	}

	metrics.RecordBufferResize(grow, int64(nbytes)-oldBytes)
	return truncated, nil
}

// Get copies the element at index into dst. dst must hold at least one
// storage unit; exactly Type().Size bytes are written.
func (a *Array) Get(index uint32, dst []byte) error {
	if a == nil || a.buf == nil || len(dst) < int(a.typ.Size) {
		return fmt.Errorf("flex: get: %w", ErrInvalid)
	}
	if index >= a.length {
		metrics.RecordOutOfBounds("flex")
		return fmt.Errorf("flex: get: %w: index %d, length %d", ErrOutOfBounds, index, a.length)
	}
	off := index * a.typ.Size
	copy(dst[:a.typ.Size], a.buf.Bytes()[off:off+a.typ.Size])
	return nil
}

// Set copies one storage unit from src into the element at index.
func (a *Array) Set(index uint32, src []byte) error {
	if a == nil || a.buf == nil || len(src) < int(a.typ.Size) {
		return fmt.Errorf("flex: set: %w", ErrInvalid)
	}
	if index >= a.length {
		metrics.RecordOutOfBounds("flex")
		return fmt.Errorf("flex: set: %w: index %d, length %d", ErrOutOfBounds, index, a.length)
	}
	off := index * a.typ.Size
	copy(a.buf.Bytes()[off:off+a.typ.Size], src[:a.typ.Size])
	return nil
}

// Append writes one element past the current length, doubling capacity
// first when the array is full.
func (a *Array) Append(src []byte) error {
	if a == nil || a.buf == nil || len(src) < int(a.typ.Size) {
		return fmt.Errorf("flex: append: %w", ErrInvalid)
	}
	if a.length == a.capacity {
		if _, err := a.Resize(a.capacity * 2); err != nil {
			return fmt.Errorf("flex: append: %w", err)
		}
	}
	off := a.length * a.typ.Size
	copy(a.buf.Bytes()[off:off+a.typ.Size], src[:a.typ.Size])
	a.length++
	return nil
}

// Pop removes the last element into dst. When the remaining length
// drops below a quarter of capacity the storage is halved.
func (a *Array) Pop(dst []byte) error {
	if a == nil || a.buf == nil || len(dst) < int(a.typ.Size) {
		return fmt.Errorf("flex: pop: %w", ErrInvalid)
	}
	if a.length == 0 {
		metrics.RecordOutOfBounds("flex")
		return fmt.Errorf("flex: pop: %w: empty array", ErrOutOfBounds)
	}

	last := a.length - 1
	off := last * a.typ.Size
	copy(dst[:a.typ.Size], a.buf.Bytes()[off:off+a.typ.Size])
	a.length = last

	if a.length < a.capacity/4 {
		// Shrink failure is not observable by the caller; the popped
		// value is already out and the array stays valid either way.
		a.Resize(a.capacity / 2)
	}
	return nil
}

// SetBulk replaces all contents with count elements read from data,
// growing capacity when count exceeds it. Length is set to count
// unconditionally, which can shrink the logical length without
// shrinking capacity.
func (a *Array) SetBulk(data []byte, count uint32) error {
	if a == nil || a.buf == nil || data == nil || count == 0 {
		return fmt.Errorf("flex: set bulk: %w", ErrInvalid)
	}
	nbytes, err := byteSize(count, a.typ.Size)
	if err != nil {
		return fmt.Errorf("flex: set bulk: %w", err)
	}
	if len(data) < nbytes {
		return fmt.Errorf("flex: set bulk: %w: need %d bytes, have %d", ErrInvalid, nbytes, len(data))
	}
	if count > a.capacity {
		if _, err := a.Resize(count); err != nil {
			return fmt.Errorf("flex: set bulk: %w", err)
		}
	}
	copy(a.buf.Bytes()[:nbytes], data[:nbytes])
	a.length = count
	return nil
}

// Clear zeroes the storage and resets length without reallocating.
func (a *Array) Clear() error {
	if a == nil || a.buf == nil {
		return fmt.Errorf("flex: clear: %w", ErrInvalid)
	}
	memory.Set(a.buf.Bytes(), 0)
	a.length = 0
	return nil
}

// ShrinkToFit reallocates storage down to the current length (at least
// one element).
func (a *Array) ShrinkToFit() error {
	if a == nil || a.buf == nil {
		return fmt.Errorf("flex: shrink to fit: %w", ErrInvalid)
	}
	target := a.length
	if target == 0 {
		target = 1
	}
	if target < a.capacity {
		if _, err := a.Resize(target); err != nil {
			return fmt.Errorf("flex: shrink to fit: %w", err)
		}
	}
	return nil
}

// Typed convenience accessors for 4-byte element types. Elements are
// stored little-endian, matching every multi-byte move in this module.

// AppendUint32 appends v to a uint32-typed array.
func (a *Array) AppendUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return a.Append(b[:])
}

// Uint32At reads the element at index from a uint32-typed array.
func (a *Array) Uint32At(index uint32) (uint32, error) {
	var b [4]byte
	if err := a.Get(index, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// SetUint32 overwrites the element at index in a uint32-typed array.
func (a *Array) SetUint32(index uint32, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return a.Set(index, b[:])
}

// AppendFloat32 appends v to a float32-typed array.
func (a *Array) AppendFloat32(v float32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return a.Append(b[:])
}

// Float32At reads the element at index from a float32-typed array.
func (a *Array) Float32At(index uint32) (float32, error) {
	var b [4]byte
	if err := a.Get(index, b[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b[:])), nil
}

// SetFloat32 overwrites the element at index in a float32-typed array.
func (a *Array) SetFloat32(index uint32, v float32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return a.Set(index, b[:])
}

// byteSize converts an element count to a byte count, rejecting
// overflow before any allocation is attempted.
func byteSize(count uint32, size uint32) (int, error) {
	n := uint64(count) * uint64(size)
	if n > uint64(math.MaxInt32) {
		return 0, fmt.Errorf("%w: %d elements of %d bytes", ErrAllocFailed, count, size)
	}
	return int(n), nil
}
