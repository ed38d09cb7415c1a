// Package tracker maintains the 3D poses of a known set of rigid bodies over
// time, given a stream of unlabeled marker observations. Tracking bootstraps
// from a single cloud by greedily assigning marker subsets to bodies near
// their nominal positions, then follows each body frame to frame with motion
// prediction, bounded alignment, and dynamics-based rejection of bad fits.
package tracker

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

// alignmentIterations caps every alignment run the tracker performs.
const alignmentIterations = 5

// An Aligner estimates the rigid transform mapping a marker layout onto an
// observed cloud. Implementations must be deterministic given identical
// inputs; pointcloud.ICP is the default backend.
type Aligner interface {
	Align(source []r3.Vector, target *pointcloud.KDTree, guess spatialmath.Pose, cfg pointcloud.AlignConfig) pointcloud.AlignResult
}

// Tracker owns the body collection and drives initialization and per-frame
// tracking. It is single threaded: one Update completes fully before the next
// is accepted.
type Tracker struct {
	markerConfigurations   []MarkerConfiguration
	dynamicsConfigurations []DynamicsConfiguration
	rigidBodies            []*RigidBody

	aligner      Aligner
	initialized  bool
	initAttempts int
	clock        clock.Clock
	logger       golog.Logger
	sink         DiagnosticSink
}

// New returns a tracker over the given bodies. Each body's marker and
// dynamics configuration indices must be in range.
func New(
	dynamics []DynamicsConfiguration,
	markers []MarkerConfiguration,
	bodies []*RigidBody,
	logger golog.Logger,
) (*Tracker, error) {
	for _, rb := range bodies {
		if rb.markerConfigurationIdx < 0 || rb.markerConfigurationIdx >= len(markers) {
			return nil, errors.Errorf("body %q: marker configuration %d out of range", rb.name, rb.markerConfigurationIdx)
		}
		if rb.dynamicsConfigurationIdx < 0 || rb.dynamicsConfigurationIdx >= len(dynamics) {
			return nil, errors.Errorf("body %q: dynamics configuration %d out of range", rb.name, rb.dynamicsConfigurationIdx)
		}
		if len(markers[rb.markerConfigurationIdx]) == 0 {
			return nil, errors.Errorf("body %q: empty marker configuration", rb.name)
		}
	}
	return &Tracker{
		markerConfigurations:   markers,
		dynamicsConfigurations: dynamics,
		rigidBodies:            bodies,
		aligner:                pointcloud.ICP{},
		clock:                  clock.New(),
		logger:                 logger,
	}, nil
}

// NewFromConfig builds a tracker from a parsed configuration.
func NewFromConfig(config *Config, logger golog.Logger) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	markers := make([]MarkerConfiguration, len(config.MarkerConfigurations))
	for i := range config.MarkerConfigurations {
		markers[i] = config.MarkerConfigurations[i].Parse()
	}
	bodies := make([]*RigidBody, len(config.RigidBodies))
	for i := range config.RigidBodies {
		bodies[i] = config.RigidBodies[i].Parse()
	}
	return New(config.DynamicsConfigurations, markers, bodies, logger)
}

// SetDiagnosticSink registers a callback receiving per-frame rejection
// reports. A nil sink silently drops them.
func (t *Tracker) SetDiagnosticSink(sink DiagnosticSink) {
	t.sink = sink
}

// SetAligner swaps the registration backend. Call before the first Update.
func (t *Tracker) SetAligner(aligner Aligner) {
	t.aligner = aligner
}

// Bodies returns the tracked bodies, by reference, for read access. No body
// is ever added or removed after construction.
func (t *Tracker) Bodies() []*RigidBody {
	return t.rigidBodies
}

// Initialized reports whether initialization has succeeded. Once true, it
// never reverts.
func (t *Tracker) Initialized() bool {
	return t.initialized
}

// InitializationAttempts returns how many initialization passes have run.
func (t *Tracker) InitializationAttempts() int {
	return t.initAttempts
}

// Update processes one observed cloud stamped with the current wall clock.
func (t *Tracker) Update(cloud *pointcloud.PointCloud) {
	t.UpdateAt(t.clock.Now(), cloud)
}

// UpdateAt processes one observed cloud for the given timestamp. Until
// initialization succeeds, each call re-attempts it; from the frame that
// initializes onward (that frame included), every cloud is tracked.
func (t *Tracker) UpdateAt(stamp time.Time, cloud *pointcloud.PointCloud) {
	if !t.initialized {
		t.initialized = t.initializePose(cloud)
		if !t.initialized {
			t.logger.Warn("initialization failed - check that nominal positions are correct, " +
				"all markers are visible, and marker configurations match the observed layouts")
			return
		}
	}
	t.updatePose(stamp, cloud)
}

func (t *Tracker) emit(d Diagnostic) {
	if t.sink != nil {
		t.sink(d)
	}
}

func (t *Tracker) markerConfiguration(rb *RigidBody) MarkerConfiguration {
	return t.markerConfigurations[rb.markerConfigurationIdx]
}

func (t *Tracker) dynamicsConfiguration(rb *RigidBody) *DynamicsConfiguration {
	return &t.dynamicsConfigurations[rb.dynamicsConfigurationIdx]
}
