package scene

import (
	"sort"

	"github.com/Faultbox/rebind/pkg/math"
)

// Key is a local TRS sample at one timeline position.
type Key struct {
	Time      float64
	Translate math.Vec3
	Rotate    math.Quat
	Scale     math.Vec3
}

// Joint is a skeleton node animated by local TRS keys. An empty Parent marks
// a root.
type Joint struct {
	Name   string
	Parent string
	Keys   []Key // sorted by Time
}

// RestKey returns a key with no translation, no rotation and unit scale.
func RestKey(t float64) Key {
	return Key{Time: t, Rotate: math.QuatIdentity(), Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
}

func (k Key) normalized() Key {
	k.Rotate = k.Rotate.Normalize()
	return k
}

func (j *Joint) sortKeys() {
	sort.SliceStable(j.Keys, func(a, b int) bool { return j.Keys[a].Time < j.Keys[b].Time })
}

// Sample interpolates the keys at t. Translation and scale are lerped,
// rotation is slerped; t outside the key range clamps to the nearest key.
func (j *Joint) Sample(t float64) Key {
	if len(j.Keys) == 0 {
		return RestKey(t)
	}
	if len(j.Keys) == 1 {
		return j.Keys[0].normalized()
	}

	var prev, next int
	for i := range j.Keys {
		if j.Keys[i].Time > t {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return j.Keys[prev].normalized()
	}

	k0, k1 := j.Keys[prev], j.Keys[next]
	u := 0.0
	if k1.Time != k0.Time {
		u = (t - k0.Time) / (k1.Time - k0.Time)
	}
	return Key{
		Time:      t,
		Translate: k0.Translate.Lerp(k1.Translate, u),
		Rotate:    k0.Rotate.Normalize().Slerp(k1.Rotate.Normalize(), u),
		Scale:     k0.Scale.Lerp(k1.Scale, u),
	}
}

// Local returns the joint's parent-relative matrix at t.
func (j *Joint) Local(t float64) math.Mat4 {
	k := j.Sample(t)
	return math.TRS(k.Translate, k.Rotate, k.Scale)
}

// world returns parent world · local at t. The hierarchy is acyclic once a
// scene is built.
func (s *Scene) world(name string, t float64) math.Mat4 {
	j := s.joints[name]
	m := j.Local(t)
	for p := j.Parent; p != ""; p = s.joints[p].Parent {
		m = s.joints[p].Local(t).Mul(m)
	}
	return m
}

// checkHierarchy reports a missing parent or a cycle.
func (s *Scene) checkHierarchy() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.joints))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return &HierarchyError{Joint: name, Err: ErrJointCycle}
		case done:
			return nil
		}
		state[name] = visiting
		if p := s.joints[name].Parent; p != "" {
			if _, ok := s.joints[p]; !ok {
				return &HierarchyError{Joint: name, Err: ErrNotFound}
			}
			if err := visit(p); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range s.jointOrder {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// HierarchyError reports the joint at which the parent chain breaks.
type HierarchyError struct {
	Joint string
	Err   error
}

func (e *HierarchyError) Error() string {
	return "joint " + e.Joint + ": " + e.Err.Error()
}

func (e *HierarchyError) Unwrap() error { return e.Err }
