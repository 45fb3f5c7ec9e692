package math

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	if result != m {
		t.Errorf("M * I should equal M: got %v, want %v", result, m)
	}
}

func TestMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(10, 0, 0).Mul(Scale(2, 2, 2))
	got := m.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{12, 0, 0}
	if !got.ApproxEqual(want, eps) {
		t.Errorf("T*S applied to (1,0,0): got %v, want %v", got, want)
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
	if got := m.Translation(); got != (Vec3{5, 10, 15}) {
		t.Errorf("Translation() = %v", got)
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"rotate y 90", RotateY(math.Pi / 2), Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"rotate z 90", RotateZ(math.Pi / 2), Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"rotate x 90", RotateX(math.Pi / 2), Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"homogeneous divide", Identity().ScaleBy(2), Vec3{1, 2, 3}, Vec3{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.p)
			if !got.ApproxEqual(tt.want, 1e-12) {
				t.Errorf("TransformPoint: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddAndScaleBy(t *testing.T) {
	a := Translate(1, 2, 3)
	b := Translate(3, 2, 1)
	sum := a.ScaleBy(0.25).Add(b.ScaleBy(0.75))

	want := Translate(2.5, 2, 1.5)
	if !sum.ApproxEqual(want, eps) {
		t.Errorf("weighted sum: got %v, want %v", sum, want)
	}
	// Receivers are values: the inputs must be untouched.
	if a != Translate(1, 2, 3) {
		t.Error("ScaleBy mutated its receiver")
	}
}

func TestRowMajorRoundTrip(t *testing.T) {
	m := TRS(Vec3{1, 2, 3}, QuatFromAxisAngle(Vec3{0, 1, 0}, 0.3), Vec3{1, 2, 3})
	rm := m.RowMajor()
	if rm[3] != 1 || rm[7] != 2 || rm[11] != 3 {
		t.Errorf("translation should land in the last column: %v", rm)
	}
	if back := Mat4FromRowMajor(rm); back != m {
		t.Errorf("row-major round trip changed the matrix")
	}
}

func TestInverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", Identity()},
		{"translate", Translate(3, -4, 5)},
		{"scale", Scale(2, 0.5, 4)},
		{"trs", TRS(Vec3{1, 2, 3}, QuatFromAxisAngle(Vec3{1, 0, 0}.Normalize(), 0.7), Vec3{1.5, 1.5, 1.5})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := tt.m.Inverse()
			if err != nil {
				t.Fatalf("Inverse: %v", err)
			}
			if got := tt.m.Mul(inv); !got.ApproxEqual(Identity(), 1e-9) {
				t.Errorf("M * M^-1 = %v, want identity", got)
			}
		})
	}
}

func TestInverseSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"zero", Mat4{}},
		{"flat scale", Scale(1, 0, 1)},
		{"nan", Mat4{0: math.NaN(), 5: 1, 10: 1, 15: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.m.Inverse()
			if !errors.Is(err, ErrSingular) {
				t.Errorf("expected ErrSingular, got %v", err)
			}
		})
	}
}

func TestInverseWithLimit(t *testing.T) {
	m := Scale(1, 1, 1e-7)

	if _, err := m.Inverse(); err != nil {
		t.Fatalf("well within gonum's tolerance, got %v", err)
	}
	if _, err := m.InverseWithLimit(1e3); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular above the limit, got %v", err)
	}
}
