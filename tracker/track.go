package tracker

import (
	"math"
	"time"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

// updatePose refines every body's pose against one observed cloud. Failures
// are per body and per frame: a body whose fit does not converge or violates
// its dynamics bounds keeps its previous committed state and simply has no
// fresh data this frame.
func (t *Tracker) updatePose(stamp time.Time, cloud *pointcloud.PointCloud) {
	tree := pointcloud.NewKDTree(cloud)

	for _, rb := range t.rigidBodies {
		rb.lastTransformationValid = false

		dynConf := t.dynamicsConfiguration(rb)
		// measured from the last valid transform, not the previous frame, so
		// transient fit failures do not corrupt the velocity estimate and the
		// correspondence radius widens until the body is reacquired
		dt := stamp.Sub(rb.lastValidTransform).Seconds()

		predicted := spatialmath.Compose(
			spatialmath.NewPoseFromPoint(rb.velocity.Mul(dt)),
			rb.lastTransformation,
		)
		res := t.aligner.Align(t.markerConfiguration(rb), tree, predicted, pointcloud.AlignConfig{
			MaxIterations:             alignmentIterations,
			MaxCorrespondenceDistance: dynConf.MaxXVelocity * dt,
		})
		if !res.Converged {
			t.emit(Diagnostic{Body: rb.name, Kind: ViolationNoConvergence})
			continue
		}

		point := res.Pose.Point()
		angles := res.Pose.Orientation().EulerAngles()
		lastPoint := rb.lastTransformation.Point()
		lastAngles := rb.lastTransformation.Orientation().EulerAngles()

		violations := checkDynamics([]boundCheck{
			{ViolationXVelocity, (point.X - lastPoint.X) / dt, dynConf.MaxXVelocity},
			{ViolationYVelocity, (point.Y - lastPoint.Y) / dt, dynConf.MaxYVelocity},
			{ViolationZVelocity, (point.Z - lastPoint.Z) / dt, dynConf.MaxZVelocity},
			{ViolationRollRate, (angles.Roll - lastAngles.Roll) / dt, dynConf.MaxRollRate},
			{ViolationPitchRate, (angles.Pitch - lastAngles.Pitch) / dt, dynConf.MaxPitchRate},
			{ViolationYawRate, (angles.Yaw - lastAngles.Yaw) / dt, dynConf.MaxYawRate},
			{ViolationRoll, angles.Roll, dynConf.MaxRoll},
			{ViolationPitch, angles.Pitch, dynConf.MaxPitch},
			{ViolationFitness, res.Fitness, dynConf.MaxFitnessScore},
		})
		if len(violations) > 0 {
			for _, v := range violations {
				t.emit(Diagnostic{Body: rb.name, Kind: v.kind, Measured: v.measured, Bound: v.bound})
			}
			continue
		}

		rb.velocity = point.Sub(lastPoint).Mul(1 / dt)
		rb.lastTransformation = res.Pose
		rb.lastValidTransform = stamp
		rb.lastTransformationValid = true
		rb.hasOrientation = true
	}
}

type boundCheck struct {
	kind     ViolationKind
	measured float64
	bound    float64
}

// checkDynamics returns every violated bound. A measurement exactly at its
// bound passes; NaN (a zero-dt rate) never does.
func checkDynamics(checks []boundCheck) []boundCheck {
	var violated []boundCheck
	for _, c := range checks {
		if !(math.Abs(c.measured) <= c.bound) {
			violated = append(violated, c)
		}
	}
	return violated
}
