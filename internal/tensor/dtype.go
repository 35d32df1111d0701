// Package tensor provides the dense tensor container used by every operator
// of the engine.
package tensor

// Scalar is a constraint for supported tensor element types.
// Operators compute on float32; float64 is used for reference values.
type Scalar interface {
	~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T Scalar]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float64:
		return Float64
	default:
		return Float32
	}
}
