package skinning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	influences []string
	vertices   int
	setErr     error

	weights []float64
	indices []int
}

func (f *fakeTarget) Influences() []string { return f.influences }
func (f *fakeTarget) VertexCount() int     { return f.vertices }

func (f *fakeTarget) SetWeights(weights []float64, influenceIndices []int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.weights = weights
	f.indices = influenceIndices
	return nil
}

func TestTransferCopiesWeightsUnchanged(t *testing.T) {
	// Rows deliberately do not sum to one.
	weights := []float64{
		0.1, 0.2, 0.3,
		1.0 / 3.0, 0, 0.7,
		0, 0, 0,
	}
	src := mustBinding(t, []string{"a", "b", "c"}, weights)
	dst := &fakeTarget{influences: []string{"a", "b", "c"}, vertices: 3}

	require.NoError(t, Transfer(src, dst))
	assert.Equal(t, weights, dst.weights)
	assert.Equal(t, []int{0, 1, 2}, dst.indices)
}

func TestTransferMismatches(t *testing.T) {
	src := mustBinding(t, []string{"a", "b"}, []float64{1, 0, 0, 1})

	tests := []struct {
		name   string
		target *fakeTarget
		want   error
	}{
		{"influence count", &fakeTarget{influences: []string{"a"}, vertices: 2}, ErrInfluenceCountMismatch},
		{"influence order", &fakeTarget{influences: []string{"b", "a"}, vertices: 2}, ErrInfluenceOrderMismatch},
		{"vertex count", &fakeTarget{influences: []string{"a", "b"}, vertices: 3}, ErrVertexCountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transfer(src, tt.target)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, tt.target.weights, "nothing written on mismatch")
		})
	}
}

func TestTransferCountMismatchDetails(t *testing.T) {
	src := mustBinding(t, []string{"a", "b"}, []float64{1, 0})
	err := Transfer(src, &fakeTarget{influences: []string{"a", "b", "c"}, vertices: 1})

	var ce *InfluenceCountMismatchError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Source)
	assert.Equal(t, 3, ce.Target)
}

func TestTransferHostFailure(t *testing.T) {
	boom := errors.New("locked attribute")
	src := mustBinding(t, []string{"a"}, []float64{1})
	err := Transfer(src, &fakeTarget{influences: []string{"a"}, vertices: 1, setErr: boom})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "setting weights")
}
