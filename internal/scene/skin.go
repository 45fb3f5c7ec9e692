package scene

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/rebind/pkg/math"
)

// SkinCluster binds one mesh shape to an ordered list of influence joints.
type SkinCluster struct {
	Name       string
	Shape      string
	Influences []string
	BindMethod int
	SkinMethod int
	// Weights holds one row per point, one column per influence.
	Weights [][]float64
	// BindPose holds each influence's world matrix at bind time.
	BindPose map[string]math.Mat4
}

func (c *SkinCluster) doc() SkinDoc {
	sd := SkinDoc{
		Name:       c.Name,
		Shape:      c.Shape,
		Influences: append([]string(nil), c.Influences...),
		BindMethod: c.BindMethod,
		SkinMethod: c.SkinMethod,
		Weights:    make([]Row, len(c.Weights)),
	}
	for i, row := range c.Weights {
		sd.Weights[i] = append(Row(nil), row...)
	}
	for _, joint := range c.Influences {
		if m, ok := c.BindPose[joint]; ok {
			sd.BindPose = append(sd.BindPose, BindMatrix{Joint: joint, Matrix: m.RowMajor()})
		}
	}
	return sd
}

func (s *Scene) addSkinDoc(sd SkinDoc) error {
	c := &SkinCluster{
		Name:       sd.Name,
		Shape:      sd.Shape,
		Influences: append([]string(nil), sd.Influences...),
		BindMethod: sd.BindMethod,
		SkinMethod: sd.SkinMethod,
		Weights:    make([][]float64, len(sd.Weights)),
		BindPose:   make(map[string]math.Mat4, len(sd.BindPose)),
	}
	for i, row := range sd.Weights {
		c.Weights[i] = append([]float64(nil), row...)
	}
	for _, bm := range sd.BindPose {
		if len(bm.Matrix) != 16 {
			return fmt.Errorf("bind matrix of %q: want 16 numbers, got %d", bm.Joint, len(bm.Matrix))
		}
		c.BindPose[bm.Joint] = math.Mat4FromRowMajor(bm.Matrix)
	}
	return s.addSkin(c)
}

func (s *Scene) addSkin(c *SkinCluster) error {
	if c.Name == "" {
		return fmt.Errorf("%w: skin cluster without a name", ErrNotFound)
	}
	if s.exists(c.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, c.Name)
	}
	m, ok := s.shapes[c.Shape]
	if !ok {
		return fmt.Errorf("%w: shape %q", ErrNotFound, c.Shape)
	}
	if len(s.clustersOn(c.Shape)) > 0 {
		return fmt.Errorf("%w: %q", ErrAlreadyBound, c.Shape)
	}
	if err := s.checkInfluences(c.Influences); err != nil {
		return err
	}
	if len(c.Weights) != len(m.Points) {
		return fmt.Errorf("%w: %d rows for %d points", ErrWeightTable, len(c.Weights), len(m.Points))
	}
	for v, row := range c.Weights {
		if len(row) != len(c.Influences) {
			return fmt.Errorf("%w: row %d has %d weights for %d influences", ErrWeightTable, v, len(row), len(c.Influences))
		}
	}

	s.skins[c.Name] = c
	s.skinOrder = append(s.skinOrder, c.Name)
	return nil
}

func (s *Scene) checkInfluences(joints []string) error {
	if len(joints) == 0 {
		return fmt.Errorf("%w: no influences", ErrWeightTable)
	}
	seen := make(map[string]bool, len(joints))
	for _, j := range joints {
		if _, ok := s.joints[j]; !ok {
			return fmt.Errorf("%w: joint %q", ErrNotFound, j)
		}
		if seen[j] {
			return fmt.Errorf("%w: influence %q listed twice", ErrDuplicateNode, j)
		}
		seen[j] = true
	}
	return nil
}

func (s *Scene) clustersOn(shape string) []string {
	var names []string
	for _, name := range s.skinOrder {
		if s.skins[name].Shape == shape {
			names = append(names, name)
		}
	}
	return names
}

func (s *Scene) deleteSkin(name string) {
	delete(s.skins, name)
	s.skinOrder = without(s.skinOrder, name)
}

func (s *Scene) skin(name string) (*SkinCluster, error) {
	c, ok := s.skins[name]
	if !ok {
		if s.exists(name) {
			return nil, fmt.Errorf("%w: %q", ErrNotSkinCluster, name)
		}
		return nil, fmt.Errorf("%w: skin cluster %q", ErrNotFound, name)
	}
	return c, nil
}

// FindSkinCluster returns the skin cluster deforming the mesh behind shape.
// ok is false when the mesh is not skinned.
func (s *Scene) FindSkinCluster(shape string) (name string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, err := s.lookup(shape)
	if err != nil {
		return "", false, err
	}
	names := s.clustersOn(s.meshOf(ref).Shape)
	if len(names) == 0 {
		return "", false, nil
	}
	return names[0], true, nil
}

// SkinClusters returns every skin cluster name in insertion order.
func (s *Scene) SkinClusters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.skinOrder...)
}

// Cluster returns a copy of a skin cluster.
func (s *Scene) Cluster(name string) (*SkinCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.skin(name)
	if err != nil {
		return nil, err
	}
	out := *c
	out.Influences = append([]string(nil), c.Influences...)
	out.Weights = make([][]float64, len(c.Weights))
	for i, row := range c.Weights {
		out.Weights[i] = append([]float64(nil), row...)
	}
	out.BindPose = make(map[string]math.Mat4, len(c.BindPose))
	for j, m := range c.BindPose {
		out.BindPose[j] = m
	}
	return &out, nil
}

// Influences returns a cluster's ordered influence joints.
func (s *Scene) Influences(cluster string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.skin(cluster)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Influences...), nil
}

// Weights returns a cluster's weights as a flat vertex-major table and the
// influence indices of its columns.
func (s *Scene) Weights(cluster string) ([]float64, []int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.skin(cluster)
	if err != nil {
		return nil, nil, err
	}
	n := len(c.Influences)
	weights := make([]float64, 0, len(c.Weights)*n)
	for _, row := range c.Weights {
		weights = append(weights, row...)
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return weights, indices, nil
}

// SetWeights overwrites the columns listed in influenceIndices with a
// vertex-major table of len(influenceIndices) values per vertex.
func (s *Scene) SetWeights(cluster string, weights []float64, influenceIndices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.skin(cluster)
	if err != nil {
		return err
	}
	for _, idx := range influenceIndices {
		if idx < 0 || idx >= len(c.Influences) {
			return fmt.Errorf("%w: influence index %d out of %d", ErrWeightTable, idx, len(c.Influences))
		}
	}
	k := len(influenceIndices)
	if len(weights) != len(c.Weights)*k {
		return fmt.Errorf("%w: %d values for %d vertices and %d influences", ErrWeightTable, len(weights), len(c.Weights), k)
	}
	for v, row := range c.Weights {
		for i, idx := range influenceIndices {
			row[idx] = weights[v*k+i]
		}
	}
	return nil
}

// CreateSkinCluster binds the mesh behind shape to joints at the current
// time. Each point starts fully weighted to its closest joint; callers that
// own real weights overwrite them with SetWeights. It returns the new
// cluster's name.
func (s *Scene) CreateSkinCluster(joints []string, shape string, bindMethod, skinMethod int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.lookup(shape)
	if err != nil {
		return "", err
	}
	m := s.meshOf(ref)
	if err := s.checkInfluences(joints); err != nil {
		return "", err
	}

	c := &SkinCluster{
		Name:       s.uniqueName("skinCluster"),
		Shape:      m.Shape,
		Influences: append([]string(nil), joints...),
		BindMethod: bindMethod,
		SkinMethod: skinMethod,
		Weights:    make([][]float64, len(m.Points)),
		BindPose:   make(map[string]math.Mat4, len(joints)),
	}
	origins := make([]math.Vec3, len(joints))
	for i, j := range joints {
		w := s.world(j, s.time)
		c.BindPose[j] = w
		origins[i] = w.Translation()
	}
	for v, p := range m.Points {
		row := make([]float64, len(joints))
		row[closest(origins, p)] = 1
		c.Weights[v] = row
	}

	if err := s.addSkin(c); err != nil {
		return "", err
	}
	return c.Name, nil
}

func (s *Scene) uniqueName(prefix string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if !s.exists(name) {
			return name
		}
	}
}

func closest(origins []math.Vec3, p math.Vec3) int {
	best, bestDist := 0, gomath.Inf(1)
	for i, o := range origins {
		if d := o.Distance(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
