// Package pointcloud defines a point cloud containing unlabeled 3D marker
// observations, along with the spatial index and rigid registration services
// built over one.
package pointcloud

import (
	"github.com/golang/geo/r3"
)

// A PointCloud is a finite, ordered collection of 3D points observed at a
// single instant. Points carry no identity beyond their index; nothing relates
// them to the objects or markers that produced them.
type PointCloud struct {
	points []r3.Vector
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with the given capacity.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{points: make([]r3.Vector, 0, size)}
}

// NewFromPoints returns a PointCloud holding a copy of the given points.
func NewFromPoints(pts []r3.Vector) *PointCloud {
	cloud := NewWithPrealloc(len(pts))
	cloud.points = append(cloud.points, pts...)
	return cloud
}

// Size returns the number of points in the cloud.
func (cloud *PointCloud) Size() int {
	return len(cloud.points)
}

// At returns the point at the given index.
func (cloud *PointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

// Add appends a point to the cloud.
func (cloud *PointCloud) Add(p r3.Vector) {
	cloud.points = append(cloud.points, p)
}

// Points returns the backing slice of points. Callers must treat it as read-only.
func (cloud *PointCloud) Points() []r3.Vector {
	return cloud.points
}

// Iterate iterates over all points in the cloud and calls the given function
// for each point. If the supplied function returns false, iteration stops.
func (cloud *PointCloud) Iterate(fn func(i int, p r3.Vector) bool) {
	for i, p := range cloud.points {
		if !fn(i, p) {
			return
		}
	}
}

// Centroid returns the mean position of the points in the cloud, or the zero
// vector for an empty cloud.
func (cloud *PointCloud) Centroid() r3.Vector {
	if len(cloud.points) == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	for _, p := range cloud.points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(cloud.points)))
}
