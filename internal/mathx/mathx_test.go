package mathx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_AddMulScale(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Vec3{X: 5, Y: 7, Z: 9}, a.Add(b))
	assert.Equal(t, Vec3{X: 4, Y: 10, Z: 18}, a.Mul(b))
	assert.Equal(t, Vec3{X: 2, Y: 4, Z: 6}, a.Scale(2))
}

func TestQuatIdentity_RotateIsNoop(t *testing.T) {
	v := Vec3{X: 1, Y: 2, Z: 3}
	got := QuatIdentity.Rotate(v)
	assert.InDelta(t, v.X, got.X, 1e-9)
	assert.InDelta(t, v.Y, got.Y, 1e-9)
	assert.InDelta(t, v.Z, got.Z, 1e-9)
}

func TestAxisAngle_NinetyDegreesAboutY(t *testing.T) {
	q := AxisAngle(Vec3{Y: 1}, math.Pi/2)
	got := q.Rotate(Vec3{X: 1})

	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
	assert.InDelta(t, -1, got.Z, 1e-9)
}

func TestQuat_MulAppliesRightOperandFirst(t *testing.T) {
	// Two 90deg rotations about Y compose to a 180deg rotation about Y.
	q90 := AxisAngle(Vec3{Y: 1}, math.Pi/2)
	q180 := q90.Mul(q90)

	got := q180.Rotate(Vec3{X: 1})
	assert.InDelta(t, -1, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
	assert.InDelta(t, 0, got.Z, 1e-9)

	// Order matters for different axes: qy.Mul(qx) turns +Y into +Z (qx
	// first), then +Z into +X (qy second). The reverse order would give +Z.
	qx := AxisAngle(Vec3{X: 1}, math.Pi/2)
	qy := AxisAngle(Vec3{Y: 1}, math.Pi/2)
	got = qy.Mul(qx).Rotate(Vec3{Y: 1})
	assert.InDelta(t, 1, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
	assert.InDelta(t, 0, got.Z, 1e-9)
}

func TestTRS_IdentityRotationScaleIsTranslationOnly(t *testing.T) {
	m := TRS(Vec3{X: 1, Y: 2, Z: 3}, QuatIdentity, Vec3One)

	assert.Equal(t, 1.0, m[0])
	assert.Equal(t, 1.0, m[5])
	assert.Equal(t, 1.0, m[10])
	assert.Equal(t, 1.0, m[15])
	assert.Equal(t, 1.0, m[12])
	assert.Equal(t, 2.0, m[13])
	assert.Equal(t, 3.0, m[14])
}

func TestTRS_ScaleAppliesToLinearBlockOnly(t *testing.T) {
	m := TRS(Vec3Zero, QuatIdentity, Vec3{X: 2, Y: 3, Z: 4})

	assert.Equal(t, 2.0, m[0])
	assert.Equal(t, 3.0, m[5])
	assert.Equal(t, 4.0, m[10])
	assert.Equal(t, 0.0, m[12])
}

func TestMat4_Linear_ExtractsUpperLeftBlock(t *testing.T) {
	m := TRS(Vec3{X: 9, Y: 9, Z: 9}, QuatIdentity, Vec3{X: 2, Y: 3, Z: 4})
	lin := m.Linear()

	assert.Equal(t, Mat3{2, 0, 0, 0, 3, 0, 0, 0, 4}, lin)
}

func identityMat4() Mat4 {
	return TRS(Vec3Zero, QuatIdentity, Vec3One)
}

func TestMat4_MulWithIdentityIsNoop(t *testing.T) {
	m := TRS(Vec3{X: 1, Y: 2, Z: 3}, AxisAngle(Vec3{Y: 1}, math.Pi/4), Vec3{X: 2, Y: 2, Z: 2})
	id := identityMat4()

	out := id.Mul(m)
	for i := range out {
		assert.InDelta(t, m[i], out[i], 1e-9, "multiplying by the identity must not change m")
	}
}

func TestMat4_MulComposesTranslations(t *testing.T) {
	a := TRS(Vec3{X: 10}, QuatIdentity, Vec3One)
	b := TRS(Vec3{Y: 5}, QuatIdentity, Vec3One)

	out := a.Mul(b)
	assert.InDelta(t, 10, out[12], 1e-9)
	assert.InDelta(t, 5, out[13], 1e-9)
	assert.InDelta(t, 0, out[14], 1e-9)
}
