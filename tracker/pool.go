package tracker

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
)

// markerPool is the initializer's working copy of an observed cloud. Points
// are never removed; a claimed mask records which markers have been taken by
// an already-fitted body. Claims are transactional: a candidate claim is
// validated in full before any point is marked, so a rejected fit leaves the
// pool untouched.
type markerPool struct {
	points    []r3.Vector
	claimed   []bool
	remaining int
}

func newMarkerPool(cloud *pointcloud.PointCloud) *markerPool {
	return &markerPool{
		points:    cloud.Points(),
		claimed:   make([]bool, cloud.Size()),
		remaining: cloud.Size(),
	}
}

// claim marks the given point indices as taken. It fails, changing nothing,
// if any index is out of range, already claimed, or repeated; repeated
// indices mean two template points matched the same observed marker, which is
// not an acceptable fit.
func (p *markerPool) claim(indices []int) error {
	inClaim := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.points) {
			return errors.Errorf("marker index %d out of range", idx)
		}
		if p.claimed[idx] {
			return errors.Errorf("marker %d already claimed", idx)
		}
		if inClaim[idx] {
			return errors.Errorf("marker %d claimed twice by one body", idx)
		}
		inClaim[idx] = true
	}
	for _, idx := range indices {
		p.claimed[idx] = true
	}
	p.remaining -= len(indices)
	return nil
}

// index builds a nearest-neighbor index over the unclaimed points, reporting
// matches by their index in the original cloud. Returns nil when the pool is
// exhausted.
func (p *markerPool) index() *pointcloud.KDTree {
	if p.remaining == 0 {
		return nil
	}
	live := make([]r3.Vector, 0, p.remaining)
	indices := make([]int, 0, p.remaining)
	for i, pt := range p.points {
		if !p.claimed[i] {
			live = append(live, pt)
			indices = append(indices, i)
		}
	}
	return pointcloud.NewKDTreeIndexed(live, indices)
}

// claimedCount returns how many points have been claimed so far.
func (p *markerPool) claimedCount() int {
	return len(p.points) - p.remaining
}
