package scene

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a scene.
type Document struct {
	Time   float64    `yaml:"time"`
	Joints []JointDoc `yaml:"joints"`
	Meshes []MeshDoc  `yaml:"meshes"`
	Skins  []SkinDoc  `yaml:"skins,omitempty"`
}

// JointDoc describes one joint and its local transform keys.
type JointDoc struct {
	Name   string   `yaml:"name"`
	Parent string   `yaml:"parent,omitempty"`
	Keys   []KeyDoc `yaml:"keys,omitempty"`
}

// KeyDoc is a local TRS keyframe. Missing components default to zero
// translation, identity rotation and unit scale.
type KeyDoc struct {
	Time      float64     `yaml:"time"`
	Translate *Vector     `yaml:"translate,omitempty"`
	Rotate    *Quaternion `yaml:"rotate,omitempty"`
	Scale     *Vector     `yaml:"scale,omitempty"`
}

// MeshDoc holds a mesh transform, its shape and world-space points.
type MeshDoc struct {
	Name   string   `yaml:"name"`
	Shape  string   `yaml:"shape,omitempty"`
	Points []Vector `yaml:"points"`
}

// SkinDoc holds one skin cluster. Weights are dense, one row per point and
// one column per influence.
type SkinDoc struct {
	Name       string       `yaml:"name"`
	Shape      string       `yaml:"shape"`
	Influences []string     `yaml:"influences"`
	BindMethod int          `yaml:"bind_method"`
	SkinMethod int          `yaml:"skin_method"`
	Weights    []Row        `yaml:"weights"`
	BindPose   []BindMatrix `yaml:"bind_pose,omitempty"`
}

// BindMatrix is a joint's world matrix at bind time, row-major.
type BindMatrix struct {
	Joint  string `yaml:"joint"`
	Matrix Row    `yaml:"matrix"`
}

// Vector is an x, y, z triple written in flow style.
type Vector [3]float64

// Quaternion is an x, y, z, w rotation written in flow style.
type Quaternion [4]float64

// Row is a list of numbers written in flow style.
type Row []float64

func (v Vector) MarshalYAML() (interface{}, error)     { return flowFloats(v[:]), nil }
func (q Quaternion) MarshalYAML() (interface{}, error) { return flowFloats(q[:]), nil }
func (r Row) MarshalYAML() (interface{}, error)        { return flowFloats(r), nil }

func (v *Vector) UnmarshalYAML(n *yaml.Node) error {
	vals, err := decodeFloats(n, len(v))
	if err != nil {
		return err
	}
	copy(v[:], vals)
	return nil
}

func (q *Quaternion) UnmarshalYAML(n *yaml.Node) error {
	vals, err := decodeFloats(n, len(q))
	if err != nil {
		return err
	}
	copy(q[:], vals)
	return nil
}

func (r *Row) UnmarshalYAML(n *yaml.Node) error {
	vals, err := decodeFloats(n, -1)
	if err != nil {
		return err
	}
	*r = vals
	return nil
}

func flowFloats(vals []float64) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range vals {
		// Empty tag so the encoder resolves the plain scalar as a number.
		n.Content = append(n.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(f, 'g', -1, 64),
		})
	}
	return n
}

// decodeFloats reads a sequence of numbers; want < 0 accepts any length.
func decodeFloats(n *yaml.Node, want int) ([]float64, error) {
	var vals []float64
	if err := n.Decode(&vals); err != nil {
		return nil, err
	}
	if want >= 0 && len(vals) != want {
		return nil, fmt.Errorf("line %d: want %d numbers, got %d", n.Line, want, len(vals))
	}
	return vals, nil
}
