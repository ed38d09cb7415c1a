package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/mocaptools/rigidbodytracker/spatialmath"
)

// DefaultAlignIterations bounds an alignment run when the caller does not
// supply its own iteration cap.
const DefaultAlignIterations = 30

// minCorrespondences is the smallest pair count that determines a rigid
// transform without ambiguity.
const minCorrespondences = 3

// AlignConfig bounds a single alignment run.
type AlignConfig struct {
	// MaxIterations caps the number of refinement iterations. Values <= 0
	// fall back to DefaultAlignIterations.
	MaxIterations int
	// MaxCorrespondenceDistance discards candidate point pairs farther apart
	// than this. Values <= 0 leave the pairing unrestricted.
	MaxCorrespondenceDistance float64
}

// AlignResult is the outcome of a registration run. Fitness is the mean
// squared distance between the transformed source points and their matched
// targets; lower is better, and it is +Inf when nothing corresponded.
type AlignResult struct {
	Pose      spatialmath.Pose
	Converged bool
	Fitness   float64
}

// ICP aligns a source point set onto a target set with the iterative closest
// point method: repeatedly pair each transformed source point with its nearest
// target and solve for the rigid transform minimizing the squared pairing
// error (Kabsch, via SVD). It is deterministic given identical inputs.
type ICP struct{}

// Align estimates the rigid transform mapping source onto the indexed target
// set, starting from the given guess. A nil guess starts from the identity.
func (ICP) Align(source []r3.Vector, target *KDTree, guess spatialmath.Pose, cfg AlignConfig) AlignResult {
	pose := guess
	if pose == nil {
		pose = spatialmath.NewZeroPose()
	}
	if target == nil || target.Size() == 0 || len(source) < minCorrespondences {
		return AlignResult{Pose: pose, Converged: false, Fitness: math.Inf(1)}
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultAlignIterations
	}

	src := make([]r3.Vector, 0, len(source))
	dst := make([]r3.Vector, 0, len(source))
	for iter := 0; iter < maxIter; iter++ {
		src = src[:0]
		dst = dst[:0]
		for _, p := range source {
			moved := spatialmath.TransformPoint(pose, p)
			nn, ok := target.Nearest(moved)
			if !ok {
				continue
			}
			if cfg.MaxCorrespondenceDistance > 0 && nn.Distance > cfg.MaxCorrespondenceDistance {
				continue
			}
			src = append(src, moved)
			dst = append(dst, nn.Point)
		}
		if len(src) < minCorrespondences {
			return AlignResult{Pose: pose, Converged: false, Fitness: math.Inf(1)}
		}

		delta := estimateRigidTransform(src, dst)
		pose = spatialmath.Compose(delta, pose)
		if transformNegligible(delta) {
			break
		}
	}

	return AlignResult{Pose: pose, Converged: true, Fitness: fitnessScore(source, target, pose, cfg.MaxCorrespondenceDistance)}
}

// fitnessScore is the mean squared nearest-neighbor distance of the
// transformed source points, restricted to pairs within maxDist when set.
func fitnessScore(source []r3.Vector, target *KDTree, pose spatialmath.Pose, maxDist float64) float64 {
	var sum float64
	var n int
	for _, p := range source {
		nn, ok := target.Nearest(spatialmath.TransformPoint(pose, p))
		if !ok {
			continue
		}
		if maxDist > 0 && nn.Distance > maxDist {
			continue
		}
		sum += nn.Distance * nn.Distance
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}

// estimateRigidTransform solves for the rotation and translation minimizing
// the squared error mapping each src point onto its paired dst point.
func estimateRigidTransform(src, dst []r3.Vector) spatialmath.Pose {
	n := float64(len(src))
	var muSrc, muDst r3.Vector
	for i := range src {
		muSrc = muSrc.Add(src[i])
		muDst = muDst.Add(dst[i])
	}
	muSrc = muSrc.Mul(1 / n)
	muDst = muDst.Mul(1 / n)

	// covariance of the centered pairs
	var cov mat.Dense
	cov.ReuseAs(3, 3)
	for i := range src {
		s := src[i].Sub(muSrc)
		d := dst[i].Sub(muDst)
		sv := []float64{s.X, s.Y, s.Z}
		dv := []float64{d.X, d.Y, d.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov.Set(r, c, cov.At(r, c)+dv[r]*sv[c])
			}
		}
	}

	var svd mat.SVD
	svd.Factorize(&cov, mat.SVDFull)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var rot mat.Dense
	rot.Mul(&u, v.T())
	if mat.Det(&rot) < 0 {
		// flip the least-significant axis to stay in SO(3)
		for r := 0; r < 3; r++ {
			u.Set(r, 2, -u.At(r, 2))
		}
		rot.Mul(&u, v.T())
	}

	rm, err := spatialmath.NewRotationMatrix(append(
		append(append([]float64{}, rot.RawRowView(0)...), rot.RawRowView(1)...),
		rot.RawRowView(2)...))
	if err != nil {
		// unreachable, the matrix is always 3x3
		return spatialmath.NewZeroPose()
	}
	translation := muDst.Sub(rm.Mul(muSrc))
	return spatialmath.NewPose(translation, rm)
}

func transformNegligible(p spatialmath.Pose) bool {
	const epsilon = 1e-10
	if p.Point().Norm() >= epsilon {
		return false
	}
	q := p.Orientation().Quaternion()
	return math.Abs(1-math.Abs(q.Real)) < epsilon
}
