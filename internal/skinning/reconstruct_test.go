package skinning

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rebind/pkg/math"
)

func TestReconstructTranslatedJoint(t *testing.T) {
	// Two joints, four vertices fully weighted to A; A moves by (0,0,5).
	joints := []string{"A", "B"}
	b := mustBinding(t, joints, []float64{
		1, 0,
		1, 0,
		1, 0,
		1, 0,
	})
	s := mustSolver(t, b,
		map[string]math.Mat4{"A": math.Identity(), "B": math.Translate(0, 1, 0)},
		map[string]math.Mat4{"A": math.Translate(0, 0, 5), "B": math.Translate(0, 1, 0)})

	source := []math.Vec3{
		{X: 1, Y: 1, Z: 6},
		{X: -1, Y: 1, Z: 6},
		{X: -1, Y: -1, Z: 4},
		{X: 1, Y: -1, Z: 4},
	}

	got, err := Reconstruct(context.Background(), s, b, source, Options{})
	require.NoError(t, err)
	require.Len(t, got, len(source))

	for i, p := range source {
		want := p.Sub(math.Vec3{Z: 5})
		assert.True(t, got[i].ApproxEqual(want, tol), "vertex %d: got %v, want %v", i, got[i], want)
	}
}

func TestReconstructParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	joints := []string{"a", "b", "c", "d"}

	const vertices = 257
	weights := make([]float64, 0, vertices*len(joints))
	source := make([]math.Vec3, vertices)
	for v := 0; v < vertices; v++ {
		row := []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}
		weights = append(weights, row...)
		source[v] = math.Vec3{X: rng.Float64() * 4, Y: rng.Float64() * 4, Z: rng.Float64() * 4}
	}
	b := mustBinding(t, joints, weights)
	s := mustSolver(t, b, randomPose(rng, joints), randomPose(rng, joints))

	serial, err := Reconstruct(context.Background(), s, b, source, Options{Workers: 1, BatchSize: vertices})
	require.NoError(t, err)
	parallel, err := Reconstruct(context.Background(), s, b, source, Options{Workers: 8, BatchSize: 3})
	require.NoError(t, err)

	assert.Len(t, parallel, vertices)
	assert.Equal(t, serial, parallel, "scheduling must not change results or their order")
}

func TestReconstructIsAtomic(t *testing.T) {
	b := mustBinding(t, []string{"a"}, []float64{
		1,
		0,
		1,
		0,
	})
	pose := map[string]math.Mat4{"a": math.Translate(1, 2, 3)}
	s := mustSolver(t, b, pose, pose)

	source := make([]math.Vec3, 4)
	got, err := Reconstruct(context.Background(), s, b, source, Options{Workers: 2, BatchSize: 1})
	require.Error(t, err)
	assert.Nil(t, got, "no partial output on failure")

	assert.ErrorIs(t, err, ErrDegenerateInfluence)
	assert.Equal(t, []int{1, 3}, FailedVertices(err))

	var de *DegenerateInfluenceError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, []int{1, 3}, de.Vertex)
	assert.Contains(t, err.Error(), "2 vertices [1 3]")
}

func TestReconstructVertexCountMismatch(t *testing.T) {
	b := mustBinding(t, []string{"a"}, []float64{1, 1})
	pose := map[string]math.Mat4{"a": math.Identity()}
	s := mustSolver(t, b, pose, pose)

	_, err := Reconstruct(context.Background(), s, b, make([]math.Vec3, 3), Options{})
	assert.ErrorIs(t, err, ErrVertexCountMismatch)
}

func TestReconstructSolverForOtherBinding(t *testing.T) {
	one := mustBinding(t, []string{"a"}, []float64{1})
	two := mustBinding(t, []string{"a", "b"}, []float64{1, 0})
	pose := map[string]math.Mat4{"a": math.Identity(), "b": math.Identity()}
	s := mustSolver(t, two, pose, pose)

	_, err := Reconstruct(context.Background(), s, one, make([]math.Vec3, 1), Options{})
	assert.ErrorIs(t, err, ErrInfluenceCountMismatch)
}

func TestReconstructSolverForOtherWeights(t *testing.T) {
	// Same influences, different weights: "b" was never precomputed.
	built := mustBinding(t, []string{"a", "b"}, []float64{1, 0})
	other := mustBinding(t, []string{"a", "b"}, []float64{0.5, 0.5})
	s := mustSolver(t, built,
		map[string]math.Mat4{"a": math.Identity(), "b": math.Identity()},
		map[string]math.Mat4{"a": math.Identity(), "b": math.Translate(0, 0, 10)})

	got, err := Reconstruct(context.Background(), s, other, []math.Vec3{{Z: 5}}, Options{})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrInfluenceIndex)
	assert.Equal(t, []int{0}, FailedVertices(err))
}

func TestReconstructCanceled(t *testing.T) {
	b := mustBinding(t, []string{"a"}, []float64{1, 1, 1})
	pose := map[string]math.Mat4{"a": math.Identity()}
	s := mustSolver(t, b, pose, pose)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := Reconstruct(ctx, s, b, make([]math.Vec3, 3), Options{BatchSize: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestReconstructEmptyMesh(t *testing.T) {
	b := mustBinding(t, []string{"a"}, nil)
	pose := map[string]math.Mat4{"a": math.Identity()}
	s := mustSolver(t, b, pose, pose)

	got, err := Reconstruct(context.Background(), s, b, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
