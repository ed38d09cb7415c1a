package tracker

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

const (
	// initYawHypotheses is how many evenly spaced yaw guesses are tried when
	// bootstrapping a body's orientation from a single cloud.
	initYawHypotheses = 20
	// initMaxResidual is the pointwise acceptance tolerance: every template
	// point of an accepted fit must land within 5mm of an observed marker.
	initMaxResidual = 0.005
)

// initializePose attempts to bootstrap every body's pose from one unlabeled
// cloud. Bodies are processed in their fixed configured order; a fitted body
// claims its markers so no later body can reuse them. Returns true only when
// every body fit acceptably; bodies that did fit keep their best-effort poses
// either way, so a later frame's tracking is not blocked on them.
//
// Each attempt starts from a fresh working pool and re-fits all bodies from
// scratch; nothing is carried over from earlier attempts beyond the poses
// they wrote.
func (t *Tracker) initializePose(cloud *pointcloud.PointCloud) bool {
	t.initAttempts++

	pool := newMarkerPool(cloud)
	tree := pool.index()

	// The closest pair of nominal centers bounds how far an observed cluster
	// may sit from a body's nominal position before the placement is too
	// ambiguous to trust.
	maxDeviation := t.nominalClearance() / 3
	t.logger.Debugf("initialization attempt %d: limiting deviation from nominal positions to %.3fm",
		t.initAttempts, maxDeviation)

	allFitsGood := true
	for _, rb := range t.rigidBodies {
		if !t.initializeBody(rb, pool, &tree, maxDeviation) {
			allFitsGood = false
		}
	}
	return allFitsGood
}

// initializeBody fits one body against the unclaimed pool. On success the
// matched markers are claimed and the shared index is rebuilt over what
// remains.
func (t *Tracker) initializeBody(rb *RigidBody, pool *markerPool, tree **pointcloud.KDTree, maxDeviation float64) bool {
	markers := t.markerConfiguration(rb)
	if *tree == nil {
		t.emit(Diagnostic{Body: rb.name, Kind: ViolationAmbiguousPlacement, Measured: math.Inf(1), Bound: maxDeviation})
		return false
	}

	// gate on the neighborhood around the nominal position
	nominal := rb.Center()
	neighbors := (*tree).KNearest(nominal, len(markers))
	var centroid r3.Vector
	for _, nn := range neighbors {
		centroid = centroid.Add(nn.Point)
	}
	centroid = centroid.Mul(1 / float64(len(neighbors)))
	if deviation := centroid.Sub(nominal).Norm(); len(neighbors) < len(markers) || deviation > maxDeviation {
		t.emit(Diagnostic{Body: rb.name, Kind: ViolationAmbiguousPlacement, Measured: deviation, Bound: maxDeviation})
		return false
	}

	// search orientation: evenly spaced yaw hypotheses about the neighborhood
	// centroid, keeping the lowest-fitness alignment
	bestErr := math.Inf(1)
	var bestPose spatialmath.Pose
	for i := 0; i < initYawHypotheses; i++ {
		yaw := float64(i) * (2 * math.Pi / initYawHypotheses)
		guess := spatialmath.NewPose(centroid, &spatialmath.EulerAngles{Yaw: yaw})
		res := t.aligner.Align(markers, *tree, guess, pointcloud.AlignConfig{MaxIterations: alignmentIterations})
		if res.Converged && res.Fitness < bestErr {
			bestErr = res.Fitness
			bestPose = res.Pose
		}
	}
	if bestPose == nil {
		t.emit(Diagnostic{Body: rb.name, Kind: ViolationPoorFit, Measured: math.Inf(1), Bound: initMaxResidual})
		return false
	}

	// validate the best hypothesis pointwise and build the candidate claim
	claim := make([]int, 0, len(markers))
	fitGood := true
	for _, p := range markers {
		nn, ok := (*tree).Nearest(spatialmath.TransformPoint(bestPose, p))
		if !ok || nn.Distance > initMaxResidual {
			t.emit(Diagnostic{Body: rb.name, Kind: ViolationPoorFit, Measured: nn.Distance, Bound: initMaxResidual})
			fitGood = false
			continue
		}
		claim = append(claim, nn.Index)
	}
	if !fitGood {
		return false
	}

	// the body takes its markers; they become unavailable to later bodies
	if err := pool.claim(claim); err != nil {
		t.logger.Debugw("initialization claim rejected", "body", rb.name, "error", err)
		t.emit(Diagnostic{Body: rb.name, Kind: ViolationPoorFit, Measured: 0, Bound: initMaxResidual})
		return false
	}
	rb.lastTransformation = bestPose
	rb.hasOrientation = true
	*tree = pool.index()
	return true
}

// nominalClearance returns the distance between the closest two nominal body
// centers, or +Inf when fewer than two bodies are tracked.
func (t *Tracker) nominalClearance() float64 {
	closest := math.Inf(1)
	for i := 0; i < len(t.rigidBodies); i++ {
		pi := t.rigidBodies[i].Center()
		for j := i + 1; j < len(t.rigidBodies); j++ {
			if dist := pi.Sub(t.rigidBodies[j].Center()).Norm(); dist < closest {
				closest = dist
			}
		}
	}
	return closest
}
