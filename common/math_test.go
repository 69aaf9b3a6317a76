package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-5

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], tol)
	}
}

func TestDecomposeMatrixRoundTrip(t *testing.T) {
	wantTranslation := mgl32.Vec3{1, 2, 3}
	wantRotation := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	wantScale := mgl32.Vec3{2, 2, 2}

	m := mgl32.Translate3D(1, 2, 3).
		Mul4(wantRotation.Mat4()).
		Mul4(mgl32.Scale3D(2, 2, 2))

	translation, rotation, scale := DecomposeMatrix(m)

	assertVec3InDelta(t, wantTranslation, translation)
	assertVec3InDelta(t, wantScale, scale)

	// q and -q encode the same rotation; compare via the dot product.
	dot := rotation.W*wantRotation.W + rotation.V.Dot(wantRotation.V)
	assert.InDelta(t, 1, dot*dot, tol)
}

func TestDecomposeMatrixIdentity(t *testing.T) {
	translation, rotation, scale := DecomposeMatrix(mgl32.Ident4())

	assert.Equal(t, mgl32.Vec3{}, translation)
	assertVec3InDelta(t, mgl32.Vec3{1, 1, 1}, scale)
	assert.InDelta(t, 1, rotation.W, tol)
	assertVec3InDelta(t, mgl32.Vec3{}, rotation.V)
}

func TestDecomposeMatrixMirrored(t *testing.T) {
	_, _, scale := DecomposeMatrix(mgl32.Scale3D(-2, 1, 1))

	assert.InDelta(t, -2, scale.X(), tol)
	assert.InDelta(t, 1, scale.Y(), tol)
	assert.InDelta(t, 1, scale.Z(), tol)
}

func TestTriangleNormal(t *testing.T) {
	n := TriangleNormal(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, 1, 0},
	)
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 1}, n)
}

func TestTriangleNormalDegenerate(t *testing.T) {
	p := mgl32.Vec3{1, 1, 1}
	assert.Equal(t, mgl32.Vec3{}, TriangleNormal(p, p, p))
}
