// Package skinning reconstructs bind-space mesh points from points authored
// under a deformed skeleton pose by inverting linear blend skinning.
//
// All transforms use the column-vector convention of pkg/math: the per-joint
// deformation carrying a bind-space point into deformed space is
//
//	S = D · B⁻¹
//
// where B and D are the joint's world matrices at the bind and deformed
// times. A vertex with weights w blends M = Σ wᵢ·Sᵢ and its bind position is
// M⁻¹ applied to the deformed position. Weights are used exactly as given;
// they are never renormalized.
package skinning
