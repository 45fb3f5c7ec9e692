package skinning

import "fmt"

// WeightTarget is a freshly bound skin association that receives weights.
type WeightTarget interface {
	Influences() []string
	VertexCount() int
	// SetWeights overwrites the columns listed in influenceIndices with a
	// vertex-major table of len(influenceIndices) values per vertex.
	SetWeights(weights []float64, influenceIndices []int) error
}

// Transfer copies the weights of source onto target by influence index.
// Both sides must list the same joints in the same order and cover the same
// number of vertices; values are copied unchanged.
func Transfer(source *SkinBinding, target WeightTarget) error {
	targetInfluences := target.Influences()
	if len(targetInfluences) != source.InfluenceCount() {
		return &InfluenceCountMismatchError{Source: source.InfluenceCount(), Target: len(targetInfluences)}
	}
	for i, joint := range targetInfluences {
		if joint != source.influences[i] {
			return fmt.Errorf("%w: index %d is %q on the source and %q on the target",
				ErrInfluenceOrderMismatch, i, source.influences[i], joint)
		}
	}
	if n := target.VertexCount(); n != source.VertexCount() {
		return fmt.Errorf("%w: source has %d vertices, target has %d", ErrVertexCountMismatch, source.VertexCount(), n)
	}

	if err := target.SetWeights(source.Dense(), source.InfluenceIndices()); err != nil {
		return fmt.Errorf("setting weights: %w", err)
	}
	return nil
}
