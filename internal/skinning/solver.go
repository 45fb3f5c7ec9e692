package skinning

import (
	"fmt"

	"github.com/Faultbox/rebind/pkg/math"
)

// Solver maps deformed-space vertices back to bind space for one binding and
// one pair of pose snapshots.
type Solver struct {
	influences []string
	// deform[i] is D·B⁻¹ for influence i; only valid where used[i].
	deform         []math.Mat4
	used           []bool
	conditionLimit float64
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithConditionLimit rejects blend matrices whose 1-norm condition number
// exceeds limit. Zero keeps gonum's tolerance.
func WithConditionLimit(limit float64) SolverOption {
	return func(s *Solver) { s.conditionLimit = limit }
}

// NewSolver precomputes the deformation matrix of every influence that carries
// a non-zero weight on at least one vertex. Unused influences are never
// inverted, so a singular transform on an unweighted joint is harmless.
func NewSolver(binding *SkinBinding, bind, deformed *PoseSnapshot, opts ...SolverOption) (*Solver, error) {
	if !bind.SameJoints(deformed) {
		return nil, ErrPoseMismatch
	}

	s := &Solver{
		influences: binding.Influences(),
		deform:     make([]math.Mat4, binding.InfluenceCount()),
		used:       make([]bool, binding.InfluenceCount()),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, row := range binding.rows {
		for _, inf := range row {
			if inf.Weight > 0 {
				s.used[inf.Index] = true
			}
		}
	}

	for i, joint := range s.influences {
		if !s.used[i] {
			continue
		}
		b, ok := bind.Transform(joint)
		if !ok {
			return nil, &MissingJointError{Joint: joint}
		}
		d, ok := deformed.Transform(joint)
		if !ok {
			return nil, &MissingJointError{Joint: joint}
		}
		bInv, err := b.Inverse()
		if err != nil {
			return nil, fmt.Errorf("%w: joint %q at time %g: %v", ErrSingularTransform, joint, bind.Time(), err)
		}
		s.deform[i] = d.Mul(bInv)
	}
	return s, nil
}

// InfluenceCount returns the number of influences the solver was built for.
func (s *Solver) InfluenceCount() int { return len(s.influences) }

// Deformation returns D·B⁻¹ for influence i and whether it was computed.
func (s *Solver) Deformation(i int) (math.Mat4, bool) {
	if i < 0 || i >= len(s.deform) || !s.used[i] {
		return math.Mat4{}, false
	}
	return s.deform[i], true
}

// Blend returns M = Σ wᵢ·Sᵢ over the positive weights of w, and how many
// influences contributed. Zero weights are skipped. A positive weight on an
// influence the solver did not precompute fails with ErrInfluenceIndex.
func (s *Solver) Blend(w InfluenceWeights) (math.Mat4, int, error) {
	var m math.Mat4
	n := 0
	for _, inf := range w {
		if inf.Weight <= 0 {
			continue
		}
		d, ok := s.Deformation(inf.Index)
		if !ok {
			return math.Mat4{}, 0, fmt.Errorf("%w: influence %d has weight %g but no deformation", ErrInfluenceIndex, inf.Index, inf.Weight)
		}
		m = m.Add(d.ScaleBy(inf.Weight))
		n++
	}
	return m, n, nil
}

// Deform applies forward linear blend skinning to a bind-space point.
func (s *Solver) Deform(p math.Vec3, w InfluenceWeights) (math.Vec3, error) {
	m, _, err := s.Blend(w)
	if err != nil {
		return math.Vec3{}, err
	}
	return m.TransformPoint(p), nil
}

// Solve returns the bind-space position of vertex index v. A vertex without
// positive weights, or whose blend cannot be inverted, fails with a
// *DegenerateInfluenceError; no substitute matrix is ever used. Blend errors
// are returned with the vertex index.
func (s *Solver) Solve(v int, deformed math.Vec3, w InfluenceWeights) (math.Vec3, error) {
	m, n, err := s.Blend(w)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("vertex %d: %w", v, err)
	}
	if n == 0 {
		return math.Vec3{}, &DegenerateInfluenceError{Vertex: v, Reason: "no positive weights"}
	}

	inv, err := m.InverseWithLimit(s.conditionLimit)
	if err != nil {
		return math.Vec3{}, &DegenerateInfluenceError{Vertex: v, Reason: err.Error()}
	}
	return inv.TransformPoint(deformed), nil
}
