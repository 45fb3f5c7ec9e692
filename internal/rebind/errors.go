package rebind

import (
	"errors"
	"fmt"
)

// ErrOutputConflict is returned when the requested output would replace a
// node the reconstruction reads from.
var ErrOutputConflict = errors.New("output overlaps the input")

// OutputConflictError names the output and the input-side node it collides
// with.
type OutputConflictError struct {
	Output string
	Node   string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("%s: output %q would replace %q", ErrOutputConflict, e.Output, e.Node)
}

func (e *OutputConflictError) Unwrap() error { return ErrOutputConflict }
