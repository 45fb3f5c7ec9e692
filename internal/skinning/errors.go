package skinning

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	ErrMissingJoint           = errors.New("missing joint")
	ErrDegenerateInfluence    = errors.New("degenerate influence blend")
	ErrInfluenceCountMismatch = errors.New("influence count mismatch")
	ErrInfluenceOrderMismatch = errors.New("influence order mismatch")
	ErrVertexCountMismatch    = errors.New("vertex count mismatch")
	ErrSingularTransform      = errors.New("singular joint transform")
	ErrPoseMismatch           = errors.New("bind and deformed poses cover different joints")
	ErrNegativeWeight         = errors.New("negative skin weight")
	ErrInfluenceIndex         = errors.New("influence index out of range")
	ErrNoInfluences           = errors.New("skin binding has no influences")
	ErrDuplicateInfluence     = errors.New("duplicate influence joint")
)

// MissingJointError reports a joint id that does not resolve in the scene or
// is absent from a pose snapshot.
type MissingJointError struct {
	Joint string
	Err   error // underlying host error, may be nil
}

func (e *MissingJointError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing joint %q: %v", e.Joint, e.Err)
	}
	return fmt.Sprintf("missing joint %q", e.Joint)
}

func (e *MissingJointError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMissingJoint, e.Err}
	}
	return []error{ErrMissingJoint}
}

// DegenerateInfluenceError reports a vertex whose blended skinning matrix
// cannot be inverted.
type DegenerateInfluenceError struct {
	Vertex int
	Reason string
}

func (e *DegenerateInfluenceError) Error() string {
	return fmt.Sprintf("vertex %d: %s: %s", e.Vertex, ErrDegenerateInfluence, e.Reason)
}

func (e *DegenerateInfluenceError) Unwrap() error { return ErrDegenerateInfluence }

// InfluenceCountMismatchError reports two bindings with influence lists of
// different lengths.
type InfluenceCountMismatchError struct {
	Source int
	Target int
}

func (e *InfluenceCountMismatchError) Error() string {
	return fmt.Sprintf("%s: source has %d influences, target has %d", ErrInfluenceCountMismatch, e.Source, e.Target)
}

func (e *InfluenceCountMismatchError) Unwrap() error { return ErrInfluenceCountMismatch }

// ReconstructionError aggregates every per-vertex failure of one
// reconstruction. Failed is sorted ascending.
type ReconstructionError struct {
	Failed []int
	Err    error
}

func (e *ReconstructionError) Error() string {
	const shown = 8
	idx := make([]string, 0, shown)
	for i, v := range e.Failed {
		if i == shown {
			idx = append(idx, "...")
			break
		}
		idx = append(idx, fmt.Sprint(v))
	}
	msg := fmt.Sprintf("reconstruction failed for %d vertices [%s]", len(e.Failed), strings.Join(idx, " "))
	if errs := multierr.Errors(e.Err); len(errs) > 0 {
		msg += ": " + errs[0].Error()
	}
	return msg
}

func (e *ReconstructionError) Unwrap() []error { return multierr.Errors(e.Err) }

// FailedVertices returns the failed vertex indices carried by err, if any.
func FailedVertices(err error) []int {
	var re *ReconstructionError
	if errors.As(err, &re) {
		return re.Failed
	}
	return nil
}
