package tracker

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

// RigidBody is the mutable tracking state of one known object. Bodies are
// created once at startup and live for the life of the tracker; only the
// initializer and the frame tracker write their poses.
type RigidBody struct {
	name                     string
	markerConfigurationIdx   int
	dynamicsConfigurationIdx int

	lastTransformation      spatialmath.Pose
	initialTransformation   spatialmath.Pose
	velocity                r3.Vector
	lastValidTransform      time.Time
	lastTransformationValid bool
	hasOrientation          bool
}

// NewRigidBody returns a body at its nominal pose, not yet tracked.
func NewRigidBody(markerConfigurationIdx, dynamicsConfigurationIdx int, initial spatialmath.Pose, name string) *RigidBody {
	if initial == nil {
		initial = spatialmath.NewZeroPose()
	}
	return &RigidBody{
		name:                     name,
		markerConfigurationIdx:   markerConfigurationIdx,
		dynamicsConfigurationIdx: dynamicsConfigurationIdx,
		lastTransformation:       initial,
		initialTransformation:    initial,
	}
}

// Name returns the body's configured name.
func (rb *RigidBody) Name() string {
	return rb.name
}

// Transformation returns the body's current pose. It is provisional until
// LastTransformationValid reports true.
func (rb *RigidBody) Transformation() spatialmath.Pose {
	return rb.lastTransformation
}

// Center returns the translation component of the current pose.
func (rb *RigidBody) Center() r3.Vector {
	return rb.lastTransformation.Point()
}

// InitialTransformation returns the nominal pose loaded from configuration.
func (rb *RigidBody) InitialTransformation() spatialmath.Pose {
	return rb.initialTransformation
}

// InitialCenter returns the translation component of the nominal pose.
func (rb *RigidBody) InitialCenter() r3.Vector {
	return rb.initialTransformation.Point()
}

// Velocity returns the body's estimated linear velocity in m/s. It is zero
// until at least one valid frame-to-frame transition has been observed.
func (rb *RigidBody) Velocity() r3.Vector {
	return rb.velocity
}

// LastTransformationValid reports whether the most recent frame produced an
// accepted fit for this body.
func (rb *RigidBody) LastTransformationValid() bool {
	return rb.lastTransformationValid
}

// LastValidTime returns the timestamp of the most recent accepted fit.
func (rb *RigidBody) LastValidTime() time.Time {
	return rb.lastValidTransform
}

// OrientationAvailable reports whether the body's orientation has ever been
// recovered from a full pose fit.
func (rb *RigidBody) OrientationAvailable() bool {
	return rb.hasOrientation
}
