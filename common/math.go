package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DecomposeMatrix splits a column-major 4x4 transform matrix into its
// translation, rotation and scale components. The matrix is assumed to be an
// affine TRS transform (no shear, no projection); shear introduced by the
// source data is absorbed into the rotation.
//
// A negative determinant (mirrored transform) is represented by negating the
// X scale component.
//
// Parameters:
//   - m: the matrix to decompose
//
// Returns:
//   - mgl32.Vec3: translation
//   - mgl32.Quat: rotation (normalized)
//   - mgl32.Vec3: scale
func DecomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := m.Col(3).Vec3()

	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()

	scale := mgl32.Vec3{vecLen(x), vecLen(y), vecLen(z)}

	// Mirrored transforms fold the reflection into the X axis.
	if m.Det() < 0 {
		scale[0] = -scale[0]
	}

	// Strip the scale from the basis vectors before extracting the rotation.
	if scale.X() != 0 {
		x = x.Mul(1 / scale.X())
	}
	if scale.Y() != 0 {
		y = y.Mul(1 / scale.Y())
	}
	if scale.Z() != 0 {
		z = z.Mul(1 / scale.Z())
	}

	rot := mgl32.Mat4FromCols(
		x.Vec4(0),
		y.Vec4(0),
		z.Vec4(0),
		mgl32.Vec4{0, 0, 0, 1},
	)

	return translation, mgl32.Mat4ToQuat(rot).Normalize(), scale
}

// TriangleNormal computes the unit normal of the plane spanned by the
// triangle (a, b, c) using the right-hand rule over counter-clockwise
// winding. Degenerate triangles yield the zero vector.
//
// Parameters:
//   - a, b, c: triangle corners
//
// Returns:
//   - mgl32.Vec3: the unit normal, or the zero vector for degenerate input
func TriangleNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	l := vecLen(n)
	if l == 0 {
		return mgl32.Vec3{}
	}
	return n.Mul(1 / l)
}

// vecLen is a float32 vector length that avoids the float64 round-trip of
// the stdlib math package.
func vecLen(v mgl32.Vec3) float32 {
	return math32.Sqrt(v.Dot(v))
}
