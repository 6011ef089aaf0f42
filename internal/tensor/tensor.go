// Package tensor provides an N-dimensional view over a flat typed
// buffer. Layout is row-major: the last axis is fastest-varying, so a
// full inner-axis scan is one contiguous run of storage.
//
// A Tensor never interprets element bytes. For compressed types the
// unit moved by Get/Set is the codec's encoded representation; callers
// encode and decode at the boundary.
package tensor

import (
	"errors"
	"fmt"

	"github.com/quarry-ml/numcore/internal/dtype"
	"github.com/quarry-ml/numcore/internal/flex"
	"github.com/quarry-ml/numcore/internal/metrics"
)

var (
	// ErrInvalid marks a rejected argument (nil shape, zero extent,
	// bad type id).
	ErrInvalid = errors.New("invalid argument")
	// ErrRankMismatch marks an index buffer whose length differs from
	// the tensor's rank, or a zero rank at creation.
	ErrRankMismatch = errors.New("rank mismatch")
	// ErrOutOfBounds marks a coordinate at or beyond its axis extent,
	// or a flat index at or beyond the element count.
	ErrOutOfBounds = errors.New("index out of bounds")
)

// Tensor combines a shape buffer of uint32 extents with a flat data
// buffer of product(extents) elements. It exclusively owns both
// buffers; Release frees them together.
type Tensor struct {
	shape *flex.Array // uint32 extents, length == rank
	data  *flex.Array // flat element storage, length == count
	typ   *dtype.DataType
	rank  uint32
	count uint32
}

// New creates a tensor of the given element type from a shape buffer
// of rank uint32 extents, each > 0. On success the tensor takes
// ownership of shape and the caller must not release it independently;
// on failure ownership stays with the caller.
func New(shape *flex.Array, rank uint32, id dtype.ID, opts ...flex.Option) (*Tensor, error) {
	if shape == nil || shape.Len() == 0 {
		return nil, fmt.Errorf("tensor: create: %w: empty shape", ErrInvalid)
	}
	if rank == 0 || shape.Len() != rank {
		return nil, fmt.Errorf("tensor: create: %w: rank %d, shape length %d",
			ErrRankMismatch, rank, shape.Len())
	}
	typ := dtype.Get(id)
	if typ == nil {
		return nil, fmt.Errorf("tensor: create: %w: type id %d", ErrInvalid, id)
	}

	count := uint64(1)
	for i := uint32(0); i < rank; i++ {
		dim, err := shape.Uint32At(i)
		if err != nil {
			return nil, fmt.Errorf("tensor: create: %w", err)
		}
		if dim == 0 {
			return nil, fmt.Errorf("tensor: create: %w: extent 0 at axis %d", ErrInvalid, i)
		}
		count *= uint64(dim)
		if count > uint64(^uint32(0)) {
			return nil, fmt.Errorf("tensor: create: %w: element count overflows", ErrInvalid)
		}
	}

	data, err := flex.NewFull(uint32(count), id, opts...)
	if err != nil {
		return nil, fmt.Errorf("tensor: create: %w", err)
	}

	return &Tensor{
		shape: shape,
		data:  data,
		typ:   typ,
		rank:  rank,
		count: uint32(count),
	}, nil
}

// NewIndices builds a uint32 buffer holding the given coordinates,
// sized for use with IndexOf, CoordsOf, Get and Set.
func NewIndices(coords []uint32, opts ...flex.Option) (*flex.Array, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("tensor: indices: %w: no coordinates", ErrInvalid)
	}
	a, err := flex.New(uint32(len(coords)), dtype.Uint32, opts...)
	if err != nil {
		return nil, fmt.Errorf("tensor: indices: %w", err)
	}
	for _, c := range coords {
		if err := a.AppendUint32(c); err != nil {
			a.Release()
			return nil, fmt.Errorf("tensor: indices: %w", err)
		}
	}
	return a, nil
}

// Release frees the shape and data buffers. Safe on nil and safe to
// call more than once.
func (t *Tensor) Release() {
	if t == nil {
		return
	}
	t.shape.Release()
	t.data.Release()
}

// Rank returns the number of axes.
func (t *Tensor) Rank() uint32 { return t.rank }

// Count returns the total number of stored elements.
func (t *Tensor) Count() uint32 { return t.count }

// Type returns the tensor's registry descriptor.
func (t *Tensor) Type() *dtype.DataType { return t.typ }

// Dim returns the extent of the given axis.
func (t *Tensor) Dim(axis uint32) (uint32, error) {
	if axis >= t.rank {
		return 0, fmt.Errorf("tensor: dim: %w: axis %d, rank %d", ErrOutOfBounds, axis, t.rank)
	}
	return t.shape.Uint32At(axis)
}

// IndexOf converts a coordinate buffer to a linear offset by
// right-to-left stride accumulation. The coordinate buffer length must
// equal the rank and each coordinate must be below its axis extent.
func (t *Tensor) IndexOf(indices *flex.Array) (uint32, error) {
	if indices == nil || indices.Len() != t.rank {
		return 0, fmt.Errorf("tensor: index of: %w: rank %d", ErrRankMismatch, t.rank)
	}

	offset := uint32(0)
	stride := uint32(1)
	for i := int(t.rank) - 1; i >= 0; i-- {
		idx, err := indices.Uint32At(uint32(i))
		if err != nil {
			return 0, fmt.Errorf("tensor: index of: %w", err)
		}
		dim, err := t.shape.Uint32At(uint32(i))
		if err != nil {
			return 0, fmt.Errorf("tensor: index of: %w", err)
		}
		if idx >= dim {
			metrics.RecordOutOfBounds("tensor")
			return 0, fmt.Errorf("tensor: index of: %w: axis %d index %d, extent %d",
				ErrOutOfBounds, i, idx, dim)
		}
		offset += idx * stride
		stride *= dim
	}
	return offset, nil
}

// CoordsOf fills indices with the coordinates of a linear offset via a
// divmod cascade from the last axis to the first. The index buffer
// length must equal the rank.
func (t *Tensor) CoordsOf(flatIndex uint32, indices *flex.Array) error {
	if indices == nil || indices.Len() != t.rank {
		return fmt.Errorf("tensor: coords of: %w: rank %d", ErrRankMismatch, t.rank)
	}
	if flatIndex >= t.count {
		metrics.RecordOutOfBounds("tensor")
		return fmt.Errorf("tensor: coords of: %w: flat index %d, count %d",
			ErrOutOfBounds, flatIndex, t.count)
	}

	rem := flatIndex
	for i := int(t.rank) - 1; i >= 0; i-- {
		dim, err := t.shape.Uint32At(uint32(i))
		if err != nil {
			return fmt.Errorf("tensor: coords of: %w", err)
		}
		if err := indices.SetUint32(uint32(i), rem%dim); err != nil {
			return fmt.Errorf("tensor: coords of: %w", err)
		}
		rem /= dim
	}
	return nil
}

// Get copies one storage unit at the given coordinates into dst.
func (t *Tensor) Get(indices *flex.Array, dst []byte) error {
	offset, err := t.IndexOf(indices)
	if err != nil {
		return err
	}
	return t.data.Get(offset, dst)
}

// Set copies one storage unit from src to the given coordinates.
func (t *Tensor) Set(indices *flex.Array, src []byte) error {
	offset, err := t.IndexOf(indices)
	if err != nil {
		return err
	}
	return t.data.Set(offset, src)
}

// GetFloat32 reads the float32 element at the given coordinates.
// Valid only for float32 tensors.
func (t *Tensor) GetFloat32(indices *flex.Array) (float32, error) {
	if t.typ.ID != dtype.Float32 {
		return 0, fmt.Errorf("tensor: get float32: %w: type %s", ErrInvalid, t.typ.Name)
	}
	offset, err := t.IndexOf(indices)
	if err != nil {
		return 0, err
	}
	return t.data.Float32At(offset)
}

// SetFloat32 writes the float32 element at the given coordinates.
// Valid only for float32 tensors.
func (t *Tensor) SetFloat32(indices *flex.Array, v float32) error {
	if t.typ.ID != dtype.Float32 {
		return fmt.Errorf("tensor: set float32: %w: type %s", ErrInvalid, t.typ.Name)
	}
	offset, err := t.IndexOf(indices)
	if err != nil {
		return err
	}
	return t.data.SetFloat32(offset, v)
}

// RowBytes returns the raw storage of one innermost-axis row. Rows are
// numbered in row-major order; a rank-1 tensor has a single row. The
// view is invalidated by any reallocating call on the tensor's data.
func (t *Tensor) RowBytes(row uint32) ([]byte, error) {
	inner, err := t.shape.Uint32At(t.rank - 1)
	if err != nil {
		return nil, fmt.Errorf("tensor: row bytes: %w", err)
	}
	rows := t.count / inner
	if row >= rows {
		metrics.RecordOutOfBounds("tensor")
		return nil, fmt.Errorf("tensor: row bytes: %w: row %d, rows %d", ErrOutOfBounds, row, rows)
	}
	size := t.typ.Size
	start := row * inner * size
	return t.data.Bytes()[start : start+inner*size], nil
}

// Data returns the flat data buffer. The tensor retains ownership.
func (t *Tensor) Data() *flex.Array { return t.data }

// Shape returns the shape buffer. The tensor retains ownership.
func (t *Tensor) Shape() *flex.Array { return t.shape }
