package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()

	if math.Abs(float64(n.Length()-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", n.Length())
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	result0 := q1.Slerp(q2, 0)
	if math.Abs(float64(result0.W-q1.W)) > 0.001 {
		t.Errorf("Slerp at t=0 should equal q1")
	}

	result1 := q1.Slerp(q2, 1)
	if math.Abs(float64(result1.W-q2.W)) > 0.001 {
		t.Errorf("Slerp at t=1 should equal q2")
	}

	// For a 90 degree rotation, halfway is 45 degrees.
	result5 := q1.Slerp(q2, 0.5)
	expectedW := float32(math.Cos(float64(math.Pi / 8)))
	if math.Abs(float64(result5.W-expectedW)) > 0.01 {
		t.Errorf("Slerp at t=0.5: expected W ~%v, got %v", expectedW, result5.W)
	}
}

func TestQuatSlerpShortestPath(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	// -q2 is the same rotation; the halfway point must not swing the long way.
	a := q1.Slerp(q2, 0.5)
	b := q1.Slerp(q2.Neg(), 0.5)
	if d := a.Dot(b); math.Abs(float64(d)-1) > 0.0001 {
		t.Errorf("Slerp towards -q2 differs from q2: %v vs %v", a, b)
	}
}

func TestQuatToMat4(t *testing.T) {
	m := QuatIdentity().ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatFromEulerZYXOrder(t *testing.T) {
	// Rz * Ry * Rx: rotate (0,1,0) by X 90deg -> (0,0,1),
	// then by Z 90deg -> unchanged (0,0,1).
	q := QuatFromEulerZYX(math.Pi/2, 0, math.Pi/2)
	got := q.Rotate(Vec3{0, 1, 0})
	want := Vec3{0, 0, 1}
	if got.Sub(want).Length() > 1e-5 {
		t.Errorf("ZYX rotate (0,1,0) = %v, want %v", got, want)
	}

	// X first: (1,0,0) is unaffected by X, then Z 90deg -> (0,1,0).
	got = q.Rotate(Vec3{1, 0, 0})
	want = Vec3{0, 1, 0}
	if got.Sub(want).Length() > 1e-5 {
		t.Errorf("ZYX rotate (1,0,0) = %v, want %v", got, want)
	}
}

func TestQuatFromEulerZYXMatchesMatrices(t *testing.T) {
	x, y, z := float32(0.3), float32(-1.2), float32(0.8)
	q := QuatFromEulerZYX(x, y, z)

	rx := QuatFromAxisAngle(Vec3{1, 0, 0}, x).ToMat4()
	ry := QuatFromAxisAngle(Vec3{0, 1, 0}, y).ToMat4()
	rz := QuatFromAxisAngle(Vec3{0, 0, 1}, z).ToMat4()

	if !q.ToMat4().ApproxEqual(rz.Mul(ry).Mul(rx), 1e-5) {
		t.Errorf("QuatFromEulerZYX != Rz*Ry*Rx")
	}
}

func TestVec3Cross(t *testing.T) {
	got := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector Normalize() = %v, want zero", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	result := Vec3{0, 0, 0}.Lerp(Vec3{10, 20, 30}, 0.5)
	expected := Vec3{5, 10, 15}

	if result.Sub(expected).Length() > 0.001 {
		t.Errorf("Lerp: expected %v, got %v", expected, result)
	}
}
