// Package dtype is the process-wide registry of numeric storage types.
//
// The registry is a fixed table initialized at process start and never
// mutated afterwards. Lookups never allocate; invalid ids come back as
// nil/zero/"unknown" sentinels so callers on the allocation path do not
// need error branches.
package dtype

// ID identifies a supported numeric representation.
type ID uint32

const (
	// Float32 is IEEE-754 single precision, 4 bytes per element.
	Float32 ID = iota
	// Float16 is IEEE-754 half precision, 2 bytes per element.
	Float16
	// QInt8 is adaptive 8-bit quantization: an fp16-encoded step
	// followed by an unsigned magnitude byte, 3 bytes per element.
	QInt8
	// QInt4 is adaptive packed 4-bit quantization: an fp16-encoded step
	// followed by one byte holding two signed nibbles. One stored unit
	// covers a pair of logical values, 3 bytes per unit.
	QInt4
	// Uint32 holds raw 32-bit extents and indices, 4 bytes per element.
	Uint32

	typeCount
)

// DataType describes one registry entry.
type DataType struct {
	ID   ID
	Name string
	Size uint32 // storage size in bytes per element
}

var types = [typeCount]DataType{
	Float32: {ID: Float32, Name: "float32", Size: 4},
	Float16: {ID: Float16, Name: "float16", Size: 2},
	QInt8:   {ID: QInt8, Name: "qint8", Size: 3},
	QInt4:   {ID: QInt4, Name: "qint4", Size: 3},
	Uint32:  {ID: Uint32, Name: "uint32", Size: 4},
}

// Get returns the descriptor for id, or nil if id is out of range.
func Get(id ID) *DataType {
	if id >= typeCount {
		return nil
	}
	return &types[id]
}

// SizeOf returns the storage size in bytes for id, or 0 if id is invalid.
func SizeOf(id ID) uint32 {
	t := Get(id)
	if t == nil {
		return 0
	}
	return t.Size
}

// NameOf returns the display name for id, or "unknown" if id is invalid.
func NameOf(id ID) string {
	t := Get(id)
	if t == nil {
		return "unknown"
	}
	return t.Name
}
