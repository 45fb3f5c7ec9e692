// Package scene is a small file-backed host scene: a keyframed joint
// hierarchy, a timeline cursor, meshes with world-space points and skin
// clusters binding meshes to joints.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/rebind/pkg/math"
)

// Mesh is a transform node with a single shape holding world-space points.
type Mesh struct {
	Name   string
	Shape  string
	Points []math.Vec3
}

// Scene holds every node and the current timeline position. It is safe for
// concurrent use.
type Scene struct {
	mu   sync.RWMutex
	time float64

	joints     map[string]*Joint
	jointOrder []string

	meshes    map[string]*Mesh // by transform name
	shapes    map[string]*Mesh // by shape name
	meshOrder []string

	skins     map[string]*SkinCluster
	skinOrder []string
}

// New returns an empty scene at time zero.
func New() *Scene {
	return &Scene{
		joints: make(map[string]*Joint),
		meshes: make(map[string]*Mesh),
		shapes: make(map[string]*Mesh),
		skins:  make(map[string]*SkinCluster),
	}
}

// Load reads a scene document from path.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	return s, nil
}

// Read decodes a scene document. Unknown fields are rejected.
func Read(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return FromDocument(&doc)
}

// Save writes the scene document to path.
func (s *Scene) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Write encodes the scene document to w.
func (s *Scene) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Document()); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return enc.Close()
}

// FromDocument builds a scene and validates names, the joint hierarchy and
// every skin cluster's weight table.
func FromDocument(doc *Document) (*Scene, error) {
	s := New()
	s.time = doc.Time

	for _, jd := range doc.Joints {
		j := Joint{Name: jd.Name, Parent: jd.Parent}
		for _, kd := range jd.Keys {
			j.Keys = append(j.Keys, kd.key())
		}
		if err := s.addJoint(j); err != nil {
			return nil, err
		}
	}
	if err := s.checkHierarchy(); err != nil {
		return nil, err
	}

	for _, md := range doc.Meshes {
		pts := make([]math.Vec3, len(md.Points))
		for i, p := range md.Points {
			pts[i] = math.Vec3FromArray(p)
		}
		if _, err := s.addMesh(md.Name, md.Shape, pts); err != nil {
			return nil, err
		}
	}

	for _, sd := range doc.Skins {
		if err := s.addSkinDoc(sd); err != nil {
			return nil, fmt.Errorf("skin cluster %q: %w", sd.Name, err)
		}
	}
	return s, nil
}

// Document snapshots the scene into its on-disk form.
func (s *Scene) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &Document{Time: s.time}
	for _, name := range s.jointOrder {
		j := s.joints[name]
		jd := JointDoc{Name: j.Name, Parent: j.Parent}
		for _, k := range j.Keys {
			jd.Keys = append(jd.Keys, keyDoc(k))
		}
		doc.Joints = append(doc.Joints, jd)
	}
	for _, name := range s.meshOrder {
		m := s.meshes[name]
		md := MeshDoc{Name: m.Name, Shape: m.Shape, Points: make([]Vector, len(m.Points))}
		for i, p := range m.Points {
			md.Points[i] = p.Array()
		}
		doc.Meshes = append(doc.Meshes, md)
	}
	for _, name := range s.skinOrder {
		doc.Skins = append(doc.Skins, s.skins[name].doc())
	}
	return doc
}

func (kd KeyDoc) key() Key {
	k := RestKey(kd.Time)
	if kd.Translate != nil {
		k.Translate = math.Vec3FromArray(*kd.Translate)
	}
	if kd.Rotate != nil {
		q := *kd.Rotate
		k.Rotate = math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}
	}
	if kd.Scale != nil {
		k.Scale = math.Vec3FromArray(*kd.Scale)
	}
	return k
}

func keyDoc(k Key) KeyDoc {
	t := Vector(k.Translate.Array())
	r := Quaternion{k.Rotate.X, k.Rotate.Y, k.Rotate.Z, k.Rotate.W}
	sc := Vector(k.Scale.Array())
	return KeyDoc{Time: k.Time, Translate: &t, Rotate: &r, Scale: &sc}
}

// AddJoint adds a joint. Its parent, if any, must already exist.
func (s *Scene) AddJoint(j Joint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.Parent != "" {
		if _, ok := s.joints[j.Parent]; !ok {
			return &HierarchyError{Joint: j.Name, Err: ErrNotFound}
		}
	}
	return s.addJoint(j)
}

func (s *Scene) addJoint(j Joint) error {
	if j.Name == "" {
		return fmt.Errorf("%w: joint without a name", ErrNotFound)
	}
	if s.exists(j.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, j.Name)
	}
	j.Keys = append([]Key(nil), j.Keys...)
	j.sortKeys()
	s.joints[j.Name] = &j
	s.jointOrder = append(s.jointOrder, j.Name)
	return nil
}

// AddMesh adds a mesh transform and its shape. An empty shape name becomes
// name + "Shape". It returns the shape name.
func (s *Scene) AddMesh(name, shape string, points []math.Vec3) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMesh(name, shape, points)
}

func (s *Scene) addMesh(name, shape string, points []math.Vec3) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: mesh without a name", ErrNotFound)
	}
	if shape == "" {
		shape = name + "Shape"
	}
	for _, n := range []string{name, shape} {
		if s.exists(n) {
			return "", fmt.Errorf("%w: %q", ErrDuplicateNode, n)
		}
	}
	if name == shape {
		return "", fmt.Errorf("%w: mesh %q and its shape share a name", ErrDuplicateNode, name)
	}
	m := &Mesh{Name: name, Shape: shape, Points: append([]math.Vec3(nil), points...)}
	s.meshes[name] = m
	s.shapes[shape] = m
	s.meshOrder = append(s.meshOrder, name)
	return shape, nil
}

func (s *Scene) exists(name string) bool {
	if _, ok := s.joints[name]; ok {
		return true
	}
	if _, ok := s.meshes[name]; ok {
		return true
	}
	if _, ok := s.shapes[name]; ok {
		return true
	}
	_, ok := s.skins[name]
	return ok
}

// Exists reports whether any node is called name.
func (s *Scene) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists(name)
}

// Delete removes a mesh (by transform or shape name) together with its skin
// clusters, or a single skin cluster. Joints cannot be deleted.
func (s *Scene) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.skins[name]; ok {
		s.deleteSkin(name)
		return nil
	}
	ref, err := s.lookup(name)
	if err != nil {
		return err
	}
	m := s.meshOf(ref)
	for _, sk := range s.clustersOn(m.Shape) {
		s.deleteSkin(sk)
	}
	delete(s.meshes, m.Name)
	delete(s.shapes, m.Shape)
	s.meshOrder = without(s.meshOrder, m.Name)
	return nil
}

// Duplicate copies the mesh behind name to a new transform called newName
// with shape newName + "Shape". Skin clusters are not copied. It returns the
// new shape name.
func (s *Scene) Duplicate(name, newName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	return s.addMesh(newName, "", s.meshOf(ref).Points)
}

// Meshes returns every mesh transform name in insertion order.
func (s *Scene) Meshes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.meshOrder...)
}

// Joints returns every joint name in insertion order.
func (s *Scene) Joints() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.jointOrder...)
}

// SetTime moves the timeline cursor.
func (s *Scene) SetTime(t float64) {
	s.mu.Lock()
	s.time = t
	s.mu.Unlock()
}

// Time returns the timeline cursor.
func (s *Scene) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// JointWorldTransform evaluates a joint's world matrix at the cursor.
func (s *Scene) JointWorldTransform(joint string) (math.Mat4, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.joints[joint]; !ok {
		return math.Mat4{}, fmt.Errorf("%w: joint %q", ErrNotFound, joint)
	}
	return s.world(joint, s.time), nil
}

// WorldPoints returns a copy of the points of the mesh behind shape.
func (s *Scene) WorldPoints(shape string) ([]math.Vec3, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, err := s.lookup(shape)
	if err != nil {
		return nil, err
	}
	return append([]math.Vec3(nil), s.meshOf(ref).Points...), nil
}

// SetWorldPoints replaces every point of the mesh behind shape.
func (s *Scene) SetWorldPoints(shape string, points []math.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.lookup(shape)
	if err != nil {
		return err
	}
	m := s.meshOf(ref)
	if len(points) != len(m.Points) {
		return fmt.Errorf("%w: %q has %d points, got %d", ErrPointCount, m.Shape, len(m.Points), len(points))
	}
	copy(m.Points, points)
	return nil
}

func without(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
