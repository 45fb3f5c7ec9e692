package scene

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("node not found")
	ErrNotMesh        = errors.New("node is not a mesh")
	ErrDuplicateNode  = errors.New("duplicate node name")
	ErrJointCycle     = errors.New("joint hierarchy has a cycle")
	ErrPointCount     = errors.New("point count mismatch")
	ErrWeightTable    = errors.New("malformed weight table")
	ErrAlreadyBound   = errors.New("shape already has a skin cluster")
	ErrNotSkinCluster = errors.New("node is not a skin cluster")
)

// NodeRef is a reference to one side of a mesh: its transform node or its
// shape node. Lookup produces one; ResolveShape collapses it to the shape.
type NodeRef interface {
	nodeName() string
}

// TransformRef names the transform node that parents a mesh shape.
type TransformRef string

// ShapeRef names a mesh shape node.
type ShapeRef string

func (r TransformRef) nodeName() string { return string(r) }
func (r ShapeRef) nodeName() string     { return string(r) }

// Lookup classifies name as a mesh transform or a mesh shape.
func (s *Scene) Lookup(name string) (NodeRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(name)
}

func (s *Scene) lookup(name string) (NodeRef, error) {
	if _, ok := s.meshes[name]; ok {
		return TransformRef(name), nil
	}
	if _, ok := s.shapes[name]; ok {
		return ShapeRef(name), nil
	}
	if s.exists(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotMesh, name)
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// meshOf returns the mesh a reference points at.
func (s *Scene) meshOf(ref NodeRef) *Mesh {
	switch r := ref.(type) {
	case TransformRef:
		return s.meshes[string(r)]
	case ShapeRef:
		return s.shapes[string(r)]
	}
	return nil
}

// ResolveShape returns the shape node behind a transform or shape name.
func (s *Scene) ResolveShape(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	return s.meshOf(ref).Shape, nil
}
