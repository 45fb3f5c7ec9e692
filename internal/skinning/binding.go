package skinning

import (
	"fmt"
	gomath "math"
)

// Influence is one (influence index, weight) pair of a vertex.
type Influence struct {
	Index  int
	Weight float64
}

// InfluenceWeights is the ordered influence list of one vertex. Indices refer
// to the owning binding's influence joint list.
type InfluenceWeights []Influence

// Sum returns the literal sum of the weights.
func (w InfluenceWeights) Sum() float64 {
	var s float64
	for _, inf := range w {
		s += inf.Weight
	}
	return s
}

// Scaled returns a copy with every weight multiplied by c.
func (w InfluenceWeights) Scaled(c float64) InfluenceWeights {
	out := make(InfluenceWeights, len(w))
	for i, inf := range w {
		out[i] = Influence{Index: inf.Index, Weight: inf.Weight * c}
	}
	return out
}

// SkinBinding pairs an ordered influence joint list with one weight row per
// vertex. It is not modified after construction.
type SkinBinding struct {
	influences []string
	rows       []InfluenceWeights
}

// NewSkinBinding validates and copies rows into a binding.
func NewSkinBinding(influences []string, rows []InfluenceWeights) (*SkinBinding, error) {
	if len(influences) == 0 {
		return nil, ErrNoInfluences
	}
	seen := make(map[string]struct{}, len(influences))
	for _, joint := range influences {
		if _, dup := seen[joint]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateInfluence, joint)
		}
		seen[joint] = struct{}{}
	}

	b := &SkinBinding{
		influences: append([]string(nil), influences...),
		rows:       make([]InfluenceWeights, len(rows)),
	}
	for v, row := range rows {
		for _, inf := range row {
			if inf.Index < 0 || inf.Index >= len(influences) {
				return nil, fmt.Errorf("vertex %d: %w: %d", v, ErrInfluenceIndex, inf.Index)
			}
			if inf.Weight < 0 || gomath.IsNaN(inf.Weight) || gomath.IsInf(inf.Weight, 0) {
				return nil, fmt.Errorf("vertex %d influence %d: %w: %v", v, inf.Index, ErrNegativeWeight, inf.Weight)
			}
		}
		b.rows[v] = append(InfluenceWeights(nil), row...)
	}
	return b, nil
}

// BindingFromDense builds a binding from a flat vertex-major weight table of
// len(influences) entries per vertex, the layout hosts report weights in.
func BindingFromDense(influences []string, weights []float64) (*SkinBinding, error) {
	n := len(influences)
	if n == 0 {
		return nil, ErrNoInfluences
	}
	if len(weights)%n != 0 {
		return nil, fmt.Errorf("%w: %d weights is not a multiple of %d influences", ErrVertexCountMismatch, len(weights), n)
	}

	rows := make([]InfluenceWeights, len(weights)/n)
	for v := range rows {
		row := make(InfluenceWeights, n)
		for j := 0; j < n; j++ {
			row[j] = Influence{Index: j, Weight: weights[v*n+j]}
		}
		rows[v] = row
	}
	return NewSkinBinding(influences, rows)
}

// Influences returns the ordered influence joint list.
func (b *SkinBinding) Influences() []string {
	return append([]string(nil), b.influences...)
}

// InfluenceCount returns the number of influence joints.
func (b *SkinBinding) InfluenceCount() int { return len(b.influences) }

// VertexCount returns the number of weight rows.
func (b *SkinBinding) VertexCount() int { return len(b.rows) }

// Row returns a copy of the weights of vertex v.
func (b *SkinBinding) Row(v int) InfluenceWeights {
	return append(InfluenceWeights(nil), b.rows[v]...)
}

// InfluenceIndices returns 0..InfluenceCount-1, the column order of Dense.
func (b *SkinBinding) InfluenceIndices() []int {
	idx := make([]int, len(b.influences))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Dense flattens the binding into a vertex-major table. Influences absent
// from a row are zero; repeated indices in a row accumulate.
func (b *SkinBinding) Dense() []float64 {
	n := len(b.influences)
	out := make([]float64, len(b.rows)*n)
	for v, row := range b.rows {
		for _, inf := range row {
			out[v*n+inf.Index] += inf.Weight
		}
	}
	return out
}

// SameInfluences reports whether other lists the same joints in the same order.
func (b *SkinBinding) SameInfluences(other []string) bool {
	if len(other) != len(b.influences) {
		return false
	}
	for i := range other {
		if other[i] != b.influences[i] {
			return false
		}
	}
	return true
}

// Unnormalized returns the vertices whose weight sum differs from 1 by more
// than tol.
func (b *SkinBinding) Unnormalized(tol float64) []int {
	var out []int
	for v, row := range b.rows {
		if gomath.Abs(row.Sum()-1) > tol {
			out = append(out, v)
		}
	}
	return out
}
