package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPose(t *testing.T) {
	zero := NewZeroPose()
	test.That(t, zero.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, zero.Orientation().Quaternion(), test.ShouldResemble, quat.Number{Real: 1})

	pt := r3.Vector{X: 1, Y: -2, Z: 3}
	test.That(t, TransformPoint(zero, pt), test.ShouldResemble, pt)
}

func TestComposeAndInverse(t *testing.T) {
	yaw90 := NewPose(r3.Vector{X: 1, Y: 0, Z: 0}, &EulerAngles{Yaw: math.Pi / 2})

	// yaw by 90 degrees maps +x onto +y, then translate
	got := TransformPoint(yaw90, r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, got.X, test.ShouldAlmostEqual, 1)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0)

	composed := Compose(yaw90, PoseInverse(yaw90))
	test.That(t, PoseAlmostCoincident(composed, NewZeroPose()), test.ShouldBeTrue)

	// composition matches sequential application
	a := NewPose(r3.Vector{X: 0.5, Y: -0.25, Z: 2}, &EulerAngles{Roll: 0.2, Pitch: -0.1, Yaw: 1.2})
	b := NewPose(r3.Vector{X: -1, Y: 3, Z: 0.125}, &EulerAngles{Roll: -0.4, Yaw: 0.3})
	pt := r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}
	viaCompose := TransformPoint(Compose(a, b), pt)
	sequential := TransformPoint(a, TransformPoint(b, pt))
	test.That(t, R3VectorAlmostEqual(viaCompose, sequential, 1e-10), test.ShouldBeTrue)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	for _, ea := range []*EulerAngles{
		{Roll: 0, Pitch: 0, Yaw: 0},
		{Roll: 0.1, Pitch: -0.2, Yaw: 0.3},
		{Roll: -1.2, Pitch: 0.7, Yaw: -2.5},
		{Roll: math.Pi / 4, Pitch: 0, Yaw: math.Pi / 2},
	} {
		back := QuatToEulerAngles(ea.Quaternion())
		test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll, 1e-10)
		test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch, 1e-10)
		test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw, 1e-10)
	}
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	for _, ea := range []*EulerAngles{
		{Yaw: 0.5},
		{Roll: 2.9, Pitch: 0.1, Yaw: -3.0},
		{Roll: -0.3, Pitch: 1.2, Yaw: 0.4},
	} {
		q := ea.Quaternion()
		back := QuatToRotationMatrix(q).Quaternion()
		test.That(t, QuaternionAlmostEqual(q, back, 1e-10), test.ShouldBeTrue)
	}

	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	rm := QuatToRotationMatrix((&EulerAngles{Yaw: math.Pi / 2}).Quaternion())
	rotated := rm.Mul(r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1)
}

func TestOrientationBetween(t *testing.T) {
	o1 := &EulerAngles{Yaw: 0.25}
	o2 := &EulerAngles{Yaw: 0.75}
	diff := OrientationBetween(o1, o2)
	test.That(t, diff.EulerAngles().Yaw, test.ShouldAlmostEqual, 0.5, 1e-10)
}
