package tensor

import "github.com/pkg/errors"

// Construction errors. Callers match them with errors.Is.
var (
	ErrEmptyShape       = errors.New("tensor shape cannot be empty")
	ErrInvalidDimension = errors.New("tensor shape dimension must be positive")
	ErrSizeMismatch     = errors.New("element count does not match shape")
)
