package raytrace

import (
	"sort"

	"github.com/Faultbox/meshorder/pkg/math"
)

// bvhLeafSize is the largest triangle count a leaf node holds.
const bvhLeafSize = 4

// aabb is an axis-aligned bounding box.
type aabb struct {
	min, max math.Vec3
}

func (b aabb) extend(o aabb) aabb {
	return aabb{min: b.min.Min(o.min), max: b.max.Max(o.max)}
}

// hit tests the slab intersection of a ray against the box. Zero direction
// components fall back to an origin-inside-slab test.
func (b aabb) hit(origin, dir math.Vec3) bool {
	tmin := float32(-1e30)
	tmax := float32(1e30)

	for axis := 0; axis < 3; axis++ {
		o := origin.Component(axis)
		d := dir.Component(axis)
		lo := b.min.Component(axis)
		hi := b.max.Component(axis)
		if d != 0 {
			t1 := (lo - o) / d
			t2 := (hi - o) / d
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if o < lo || o > hi {
			return false
		}
	}
	return tmax >= tmin && tmax >= 0
}

// bvhNode is one node of the hierarchy. Leaves have count > 0 and index
// into the reordered triangle reference list; inner nodes point at their
// children.
type bvhNode struct {
	box         aabb
	left, right int32
	first       int32
	count       int32
}

// bvh is a median-split bounding volume hierarchy over triangle centroids.
// Construction and traversal are deterministic for a fixed mesh.
type bvh struct {
	nodes []bvhNode
	refs  []uint32
}

// buildBVH constructs the hierarchy for the given triangles.
func buildBVH(pos []math.Vec3, tris [][3]uint32) *bvh {
	n := len(tris)
	boxes := make([]aabb, n)
	centroids := make([]math.Vec3, n)
	for i, tri := range tris {
		p0, p1, p2 := pos[tri[0]], pos[tri[1]], pos[tri[2]]
		boxes[i] = aabb{min: p0.Min(p1).Min(p2), max: p0.Max(p1).Max(p2)}
		centroids[i] = p0.Add(p1).Add(p2).Scale(1.0 / 3.0)
	}

	refs := make([]uint32, n)
	for i := range refs {
		refs[i] = uint32(i)
	}

	b := &bvh{refs: refs}
	if n > 0 {
		b.split(boxes, centroids, 0, n)
	}
	return b
}

// split builds the subtree over refs[lo:hi] and returns its node index.
func (b *bvh) split(boxes []aabb, centroids []math.Vec3, lo, hi int) int32 {
	box := boxes[b.refs[lo]]
	for i := lo + 1; i < hi; i++ {
		box = box.extend(boxes[b.refs[i]])
	}

	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{box: box})

	if hi-lo <= bvhLeafSize {
		b.nodes[idx].first = int32(lo)
		b.nodes[idx].count = int32(hi - lo)
		return idx
	}

	// Median split of the centroids along the widest axis of the node's
	// bounding box; ties on the centroid coordinate break by triangle index
	// so the build is reproducible.
	ext := box.max.Sub(box.min)
	axis := 0
	if ext.Y > ext.Component(axis) {
		axis = 1
	}
	if ext.Z > ext.Component(axis) {
		axis = 2
	}

	sub := b.refs[lo:hi]
	sort.Slice(sub, func(i, j int) bool {
		ci := centroids[sub[i]].Component(axis)
		cj := centroids[sub[j]].Component(axis)
		if ci != cj {
			return ci < cj
		}
		return sub[i] < sub[j]
	})

	mid := lo + (hi-lo)/2
	left := b.split(boxes, centroids, lo, mid)
	right := b.split(boxes, centroids, mid, hi)
	b.nodes[idx].left = left
	b.nodes[idx].right = right
	return idx
}

// traverse calls visit for every triangle whose leaf box the ray touches.
func (b *bvh) traverse(origin, dir math.Vec3, visit func(tri uint32)) {
	if len(b.nodes) == 0 {
		return
	}
	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &b.nodes[idx]
		if !node.box.hit(origin, dir) {
			continue
		}
		if node.count > 0 {
			for i := node.first; i < node.first+node.count; i++ {
				visit(b.refs[i])
			}
			continue
		}
		stack = append(stack, node.right, node.left)
	}
}
