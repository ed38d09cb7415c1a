package tracker

import (
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

// squareMarkers is a 4-point square of side 0.05m centered on the local origin.
var squareMarkers = MarkerConfiguration{
	{X: 0.025, Y: 0.025, Z: 0},
	{X: -0.025, Y: 0.025, Z: 0},
	{X: -0.025, Y: -0.025, Z: 0},
	{X: 0.025, Y: -0.025, Z: 0},
}

var testDynamics = DynamicsConfiguration{
	MaxXVelocity:    2,
	MaxYVelocity:    2,
	MaxZVelocity:    2,
	MaxRollRate:     10,
	MaxPitchRate:    10,
	MaxYawRate:      10,
	MaxRoll:         1.5,
	MaxPitch:        1.5,
	MaxFitnessScore: 1e-6,
}

func cloudWithBodies(centers ...r3.Vector) *pointcloud.PointCloud {
	cloud := pointcloud.New()
	for _, c := range centers {
		for _, m := range squareMarkers {
			cloud.Add(m.Add(c))
		}
	}
	return cloud
}

func newTwoBodyTracker(t *testing.T) (*Tracker, *[]Diagnostic) {
	t.Helper()
	bodies := []*RigidBody{
		NewRigidBody(0, 0, spatialmath.NewPoseFromPoint(r3.Vector{}), "alpha"),
		NewRigidBody(0, 0, spatialmath.NewPoseFromPoint(r3.Vector{X: 1}), "bravo"),
	}
	tr, err := New([]DynamicsConfiguration{testDynamics}, []MarkerConfiguration{squareMarkers}, bodies, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	var diags []Diagnostic
	tr.SetDiagnosticSink(func(d Diagnostic) { diags = append(diags, d) })
	return tr, &diags
}

func TestInitializeTwoBodies(t *testing.T) {
	tr, diags := newTwoBodyTracker(t)
	cloud := cloudWithBodies(r3.Vector{}, r3.Vector{X: 1})

	tr.UpdateAt(time.Unix(100, 0), cloud)
	test.That(t, tr.Initialized(), test.ShouldBeTrue)
	test.That(t, *diags, test.ShouldBeEmpty)

	for _, rb := range tr.Bodies() {
		test.That(t, rb.LastTransformationValid(), test.ShouldBeTrue)
		test.That(t, rb.OrientationAvailable(), test.ShouldBeTrue)
	}
	test.That(t, spatialmath.R3VectorAlmostEqual(tr.Bodies()[0].Center(), r3.Vector{}, 1e-6), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(tr.Bodies()[1].Center(), r3.Vector{X: 1}, 1e-6), test.ShouldBeTrue)
}

func TestInitializeClaimsAreDisjoint(t *testing.T) {
	tr, _ := newTwoBodyTracker(t)
	cloud := cloudWithBodies(r3.Vector{}, r3.Vector{X: 1})

	ok := tr.initializePose(cloud)
	test.That(t, ok, test.ShouldBeTrue)

	// each body's fitted template must land on its own observed markers
	tree := pointcloud.NewKDTree(cloud)
	claimed := map[int]string{}
	for _, rb := range tr.Bodies() {
		for _, m := range tr.markerConfiguration(rb) {
			nn, found := tree.Nearest(spatialmath.TransformPoint(rb.Transformation(), m))
			test.That(t, found, test.ShouldBeTrue)
			test.That(t, nn.Distance, test.ShouldBeLessThan, 0.005)
			owner, taken := claimed[nn.Index]
			test.That(t, taken, test.ShouldBeFalse)
			test.That(t, owner, test.ShouldEqual, "")
			claimed[nn.Index] = rb.Name()
		}
	}
	test.That(t, claimed, test.ShouldHaveLength, cloud.Size())
}

func TestInitializeMissingBody(t *testing.T) {
	tr, diags := newTwoBodyTracker(t)

	// only alpha's markers are visible
	tr.UpdateAt(time.Unix(100, 0), cloudWithBodies(r3.Vector{}))
	test.That(t, tr.Initialized(), test.ShouldBeFalse)
	test.That(t, tr.InitializationAttempts(), test.ShouldEqual, 1)

	// alpha got a best-effort pose anyway
	test.That(t, spatialmath.R3VectorAlmostEqual(tr.Bodies()[0].Center(), r3.Vector{}, 1e-6), test.ShouldBeTrue)
	test.That(t, tr.Bodies()[0].LastTransformationValid(), test.ShouldBeFalse)

	// bravo was rejected as ambiguous, not mis-fit onto alpha's markers
	test.That(t, len(*diags), test.ShouldBeGreaterThanOrEqualTo, 1)
	last := (*diags)[len(*diags)-1]
	test.That(t, last.Body, test.ShouldEqual, "bravo")
	test.That(t, last.Kind, test.ShouldEqual, ViolationAmbiguousPlacement)

	// once bravo appears, initialization succeeds and latches
	tr.UpdateAt(time.Unix(101, 0), cloudWithBodies(r3.Vector{}, r3.Vector{X: 1}))
	test.That(t, tr.Initialized(), test.ShouldBeTrue)
	test.That(t, tr.InitializationAttempts(), test.ShouldEqual, 2)
}

func TestInitializationLatches(t *testing.T) {
	tr, _ := newTwoBodyTracker(t)
	cloud := cloudWithBodies(r3.Vector{}, r3.Vector{X: 1})

	for i := 0; i < 4; i++ {
		tr.UpdateAt(time.Unix(int64(100+i), 0), cloud)
	}
	test.That(t, tr.Initialized(), test.ShouldBeTrue)
	test.That(t, tr.InitializationAttempts(), test.ShouldEqual, 1)
}
