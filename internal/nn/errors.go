package nn

import "github.com/pkg/errors"

// Domain errors returned by layers. They are fatal to the current forward
// pass; callers wrap them with layer context and test with errors.Is.
var (
	// ErrIndexOutOfRange is returned when a lookup id falls outside a table.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrHeadCount is returned when the head count is not positive or does
	// not divide the hidden size.
	ErrHeadCount = errors.New("head count must divide hidden size")

	// ErrShape is returned when an input or parameter shape does not fit
	// the layer.
	ErrShape = errors.New("shape mismatch")
)
