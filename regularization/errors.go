package regularization

import "errors"

var (
	// ErrConfiguration marks an invalid construction input: a malformed
	// active set, a bad cell-weight vector, or a term with no way to size
	// its parameter space.
	ErrConfiguration = errors.New("invalid regularization configuration")

	// ErrDimensionality marks a request for a y or z axis term on a mesh
	// whose dimension does not support it.
	ErrDimensionality = errors.New("mesh dimension does not support requested axis")
)
