package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an
// object in 3D Euclidean space. The Tait-Bryan angle formalism is used, with
// rotations around the z axis (yaw), y axis (pitch), and x axis (roll), applied
// in that order.
type EulerAngles struct {
	Roll  float64 `json:"roll"`  // rotation about the x axis
	Pitch float64 `json:"pitch"` // rotation about the y axis
	Yaw   float64 `json:"yaw"`   // rotation about the z axis
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	sRoll := math.Sin(ea.Roll / 2)
	cRoll := math.Cos(ea.Roll / 2)
	sPitch := math.Sin(ea.Pitch / 2)
	cPitch := math.Cos(ea.Pitch / 2)
	sYaw := math.Sin(ea.Yaw / 2)
	cYaw := math.Cos(ea.Yaw / 2)

	return quat.Number{
		Real: cRoll*cPitch*cYaw + sRoll*sPitch*sYaw,
		Imag: sRoll*cPitch*cYaw - cRoll*sPitch*sYaw,
		Jmag: cRoll*sPitch*cYaw + sRoll*cPitch*sYaw,
		Kmag: cRoll*cPitch*sYaw - sRoll*sPitch*cYaw,
	}
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ea.Quaternion())
}

// QuatToEulerAngles converts a quaternion to the euler angle representation.
// The pitch angle is clamped to [-pi/2, pi/2] at the gimbal lock singularity.
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	q = Normalize(q)

	sinPitch := 2 * (q.Real*q.Jmag - q.Kmag*q.Imag)
	var pitch float64
	if math.Abs(sinPitch) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinPitch)
	} else {
		pitch = math.Asin(sinPitch)
	}

	return &EulerAngles{
		Roll:  math.Atan2(2*(q.Real*q.Imag+q.Jmag*q.Kmag), 1-2*(q.Imag*q.Imag+q.Jmag*q.Jmag)),
		Pitch: pitch,
		Yaw:   math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag)),
	}
}
