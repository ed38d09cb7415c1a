package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree is a spatial index over a fixed set of points supporting 1-nearest
// and k-nearest queries. Each indexed point remembers the caller-supplied
// index it was built with, so an index built over a pruned subset of a cloud
// can still report positions in the original cloud. The tree is immutable;
// rebuild it whenever the underlying set changes.
type KDTree struct {
	tree *kdtree.Tree
	size int
}

// A Neighbor is a single result of a nearest-neighbor query.
type Neighbor struct {
	Index    int
	Point    r3.Vector
	Distance float64
}

// NewKDTree builds an index over all points of a cloud, using cloud indices.
func NewKDTree(cloud *PointCloud) *KDTree {
	pts := make(treePoints, 0, cloud.Size())
	cloud.Iterate(func(i int, p r3.Vector) bool {
		pts = append(pts, treePoint{pos: p, idx: i})
		return true
	})
	return newKDTree(pts)
}

// NewKDTreeIndexed builds an index over the given points, tagging each with
// the corresponding caller-supplied index.
func NewKDTreeIndexed(points []r3.Vector, indices []int) *KDTree {
	pts := make(treePoints, len(points))
	for i, p := range points {
		pts[i] = treePoint{pos: p, idx: indices[i]}
	}
	return newKDTree(pts)
}

func newKDTree(pts treePoints) *KDTree {
	if len(pts) == 0 {
		return &KDTree{}
	}
	return &KDTree{tree: kdtree.New(pts, false), size: len(pts)}
}

// Size returns the number of points in the index.
func (t *KDTree) Size() int {
	return t.size
}

// Nearest returns the closest indexed point to p. The boolean return is false
// when the index is empty.
func (t *KDTree) Nearest(p r3.Vector) (Neighbor, bool) {
	if t.size == 0 {
		return Neighbor{Index: -1, Distance: math.Inf(1)}, false
	}
	got, sqDist := t.tree.Nearest(treePoint{pos: p})
	tp := got.(treePoint)
	return Neighbor{Index: tp.idx, Point: tp.pos, Distance: math.Sqrt(sqDist)}, true
}

// KNearest returns up to k indexed points closest to p, ordered by increasing
// distance.
func (t *KDTree) KNearest(p r3.Vector, k int) []Neighbor {
	if t.size == 0 || k <= 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(k)
	t.tree.NearestSet(keep, treePoint{pos: p})

	neighbors := make([]Neighbor, 0, k)
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		tp := c.Comparable.(treePoint)
		neighbors = append(neighbors, Neighbor{Index: tp.idx, Point: tp.pos, Distance: math.Sqrt(c.Dist)})
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Distance < neighbors[j].Distance })
	return neighbors
}

// treePoint adapts a positioned, indexed point to gonum's kdtree.Comparable.
type treePoint struct {
	pos r3.Vector
	idx int
}

func (p treePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(treePoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	default:
		return p.pos.Z - q.pos.Z
	}
}

func (p treePoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, following the convention of
// gonum's kdtree point types.
func (p treePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(treePoint)
	return p.pos.Sub(q.pos).Norm2()
}

type treePoints []treePoint

func (p treePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p treePoints) Len() int                              { return len(p) }
func (p treePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p treePoints) Pivot(d kdtree.Dim) int {
	return treePlane{treePoints: p, Dim: d}.Pivot()
}

// treePlane sorts treePoints on a single dimension, as gonum's partitioning
// helpers require.
type treePlane struct {
	treePoints
	kdtree.Dim
}

func (p treePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.treePoints[i].pos.X < p.treePoints[j].pos.X
	case 1:
		return p.treePoints[i].pos.Y < p.treePoints[j].pos.Y
	default:
		return p.treePoints[i].pos.Z < p.treePoints[j].pos.Z
	}
}

func (p treePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p treePlane) Slice(start, end int) kdtree.SortSlicer {
	p.treePoints = p.treePoints[start:end]
	return p
}

func (p treePlane) Swap(i, j int) {
	p.treePoints[i], p.treePoints[j] = p.treePoints[j], p.treePoints[i]
}
