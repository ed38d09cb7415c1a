package tracker

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
)

func TestMarkerPoolClaims(t *testing.T) {
	pool := newMarkerPool(pointcloud.NewFromPoints([]r3.Vector{
		{X: 0}, {X: 1}, {X: 2}, {X: 3},
	}))

	test.That(t, pool.claim([]int{1, 3}), test.ShouldBeNil)
	test.That(t, pool.claimedCount(), test.ShouldEqual, 2)

	// the rebuilt index only answers from unclaimed points, with original indices
	tree := pool.index()
	test.That(t, tree.Size(), test.ShouldEqual, 2)
	nn, ok := tree.Nearest(r3.Vector{X: 1.4})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nn.Index, test.ShouldEqual, 2)

	// a rejected claim changes nothing
	test.That(t, pool.claim([]int{0, 3}), test.ShouldNotBeNil)
	test.That(t, pool.claim([]int{0, 0}), test.ShouldNotBeNil)
	test.That(t, pool.claim([]int{0, 9}), test.ShouldNotBeNil)
	test.That(t, pool.claimedCount(), test.ShouldEqual, 2)

	test.That(t, pool.claim([]int{0, 2}), test.ShouldBeNil)
	test.That(t, pool.index(), test.ShouldBeNil)
}
