package skinning

import (
	"context"
	"sort"

	"github.com/Faultbox/rebind/pkg/math"
)

// PoseSource is the boundary to the live skeleton. SetTime moves the shared
// timeline cursor; JointWorldTransform reads a joint's world matrix at the
// current cursor.
type PoseSource interface {
	SetTime(t float64)
	JointWorldTransform(joint string) (math.Mat4, error)
}

// PoseSnapshot is an immutable copy of world-space joint transforms taken at
// one timeline position.
type PoseSnapshot struct {
	time       float64
	joints     []string
	transforms map[string]math.Mat4
}

// NewPoseSnapshot copies transforms into a snapshot.
func NewPoseSnapshot(t float64, transforms map[string]math.Mat4) *PoseSnapshot {
	p := &PoseSnapshot{
		time:       t,
		joints:     make([]string, 0, len(transforms)),
		transforms: make(map[string]math.Mat4, len(transforms)),
	}
	for joint, m := range transforms {
		p.joints = append(p.joints, joint)
		p.transforms[joint] = m
	}
	sort.Strings(p.joints)
	return p
}

// CapturePose moves the cursor to t once and copies the world matrix of every
// joint. The returned snapshot is detached from src.
func CapturePose(ctx context.Context, src PoseSource, joints []string, t float64) (*PoseSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src.SetTime(t)

	transforms := make(map[string]math.Mat4, len(joints))
	for _, joint := range joints {
		m, err := src.JointWorldTransform(joint)
		if err != nil {
			return nil, &MissingJointError{Joint: joint, Err: err}
		}
		transforms[joint] = m
	}
	return NewPoseSnapshot(t, transforms), nil
}

// Time returns the timeline position the snapshot was taken at.
func (p *PoseSnapshot) Time() float64 { return p.time }

// Len returns the number of joints.
func (p *PoseSnapshot) Len() int { return len(p.joints) }

// Joints returns the joint ids in sorted order.
func (p *PoseSnapshot) Joints() []string {
	return append([]string(nil), p.joints...)
}

// Transform returns the world matrix of joint.
func (p *PoseSnapshot) Transform(joint string) (math.Mat4, bool) {
	m, ok := p.transforms[joint]
	return m, ok
}

// SameJoints reports whether both snapshots cover the identical joint set.
func (p *PoseSnapshot) SameJoints(other *PoseSnapshot) bool {
	if len(p.joints) != len(other.joints) {
		return false
	}
	for i := range p.joints {
		if p.joints[i] != other.joints[i] {
			return false
		}
	}
	return true
}
