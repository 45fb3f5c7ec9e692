package rebind

import (
	"github.com/Faultbox/rebind/internal/skinning"
	"github.com/Faultbox/rebind/pkg/math"
)

// Host is the scene a reconstruction reads from and writes to. Node, shape
// and skin cluster handles are node names.
type Host interface {
	skinning.PoseSource

	// ResolveShape maps a transform or shape name to the mesh shape.
	ResolveShape(name string) (string, error)
	WorldPoints(shape string) ([]math.Vec3, error)
	SetWorldPoints(shape string, points []math.Vec3) error

	// FindSkinCluster reports the cluster deforming shape; ok is false for an
	// unskinned mesh.
	FindSkinCluster(shape string) (cluster string, ok bool, err error)
	Influences(cluster string) ([]string, error)
	Weights(cluster string) (weights []float64, influenceIndices []int, err error)
	SetWeights(cluster string, weights []float64, influenceIndices []int) error
	CreateSkinCluster(joints []string, shape string, bindMethod, skinMethod int) (string, error)

	Exists(name string) bool
	Delete(name string) error
	// Duplicate copies the mesh behind name to newName and returns the new
	// shape.
	Duplicate(name, newName string) (string, error)
}

// clusterTarget adapts a freshly created host skin cluster to
// skinning.WeightTarget.
type clusterTarget struct {
	host       Host
	name       string
	influences []string
	vertices   int
}

func newClusterTarget(host Host, name string, vertices int) (*clusterTarget, error) {
	influences, err := host.Influences(name)
	if err != nil {
		return nil, err
	}
	return &clusterTarget{host: host, name: name, influences: influences, vertices: vertices}, nil
}

func (c *clusterTarget) Influences() []string { return c.influences }
func (c *clusterTarget) VertexCount() int     { return c.vertices }

func (c *clusterTarget) SetWeights(weights []float64, influenceIndices []int) error {
	return c.host.SetWeights(c.name, weights, influenceIndices)
}
