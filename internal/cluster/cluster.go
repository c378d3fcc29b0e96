// Package cluster partitions mesh triangles into contiguous clusters of
// similar orientation, the unit the overdraw stages reason about.
package cluster

import (
	"container/heap"
	"errors"
	gomath "math"
	"sort"

	"github.com/Faultbox/meshorder/pkg/math"
	"github.com/Faultbox/meshorder/pkg/mesh"
)

// ErrNoTriangles reports an empty mesh.
var ErrNoTriangles = errors.New("cluster: mesh has no triangles")

// autoClusterSize is the triangle count one auto-mode cluster aims for.
const autoClusterSize = 2500

// Clustering is a cluster assignment over a reordered triangle array.
// Tris is grouped by cluster: triangle t belongs to cluster k iff
// Start[k] <= t < Start[k+1], and IDs[t] == k. Remap maps each new triangle
// position back to the caller's original triangle index.
type Clustering struct {
	Tris  [][3]uint32
	IDs   []uint32
	Start []uint32
	Remap []uint32
}

// NumClusters returns the cluster count.
func (c *Clustering) NumClusters() int { return len(c.Start) - 1 }

// Check verifies the internal consistency of the clustering against a
// triangle count: prefix table shape, monotonicity, and ID agreement.
func (c *Clustering) Check(numTris int) bool {
	if len(c.Tris) != numTris || len(c.IDs) != numTris || len(c.Remap) != numTris {
		return false
	}
	if len(c.Start) < 1 || c.Start[0] != 0 || int(c.Start[len(c.Start)-1]) != numTris {
		return false
	}
	for k := 0; k+1 < len(c.Start); k++ {
		if c.Start[k] > c.Start[k+1] {
			return false
		}
		for t := c.Start[k]; t < c.Start[k+1]; t++ {
			if c.IDs[t] != uint32(k) {
				return false
			}
		}
	}
	return true
}

// candidate is a boundary triangle waiting for admission to the growing
// cluster, keyed by its normal deviation at push time.
type candidate struct {
	tri uint32
	dev float32
}

// candHeap is a priority queue of boundary candidates. Ties on deviation
// break by triangle index, so growth order is deterministic.
type candHeap []candidate

func (h candHeap) Len() int { return len(h) }
func (h candHeap) Less(i, j int) bool {
	if h[i].dev != h[j].dev {
		return h[i].dev < h[j].dev
	}
	return h[i].tri < h[j].tri
}
func (h candHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candHeap) Push(x interface{}) {
	*h = append(*h, x.(candidate))
}

func (h *candHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// Grow partitions the mesh into clusters by region growing over the
// triangle dual graph, keyed by face orientation. target is a hint: the
// actual cluster count may be larger when the mesh has many connected
// components, and target 0 picks an automatic count from the mesh size.
// Degenerate triangles become singleton clusters appended after the grown
// ones.
func Grow(m *mesh.Mesh, target int) (*Clustering, error) {
	n := m.NumTriangles()
	if n == 0 {
		return nil, ErrNoTriangles
	}

	ae := m.BuildAE()
	normals := m.FaceNormals()

	if target <= 0 {
		target = (n + autoClusterSize - 1) / autoClusterSize
	}
	if target > n {
		target = n
	}
	maxSize := (n + target - 1) / target
	devLimit := float32(2.0 / gomath.Sqrt(float64(target)))

	assign := make([]int32, n)
	for i := range assign {
		assign[i] = -1
	}

	var next int32
	for seed := 0; seed < n; seed++ {
		if assign[seed] >= 0 || normals[seed].IsZero() {
			continue
		}

		k := next
		next++
		assign[seed] = k
		sum := normals[seed]
		size := 1

		h := &candHeap{}
		pushNeighbors(h, ae, normals, assign, uint32(seed), sum)

		for h.Len() > 0 && size < maxSize {
			c := heap.Pop(h).(candidate)
			if assign[c.tri] >= 0 {
				continue
			}
			// Re-evaluate against the mean as it stands now; the
			// pushed key may be stale.
			dev := 1 - normals[c.tri].Dot(sum.Normalize())
			if dev > devLimit {
				break
			}
			assign[c.tri] = k
			sum = sum.Add(normals[c.tri])
			size++
			pushNeighbors(h, ae, normals, assign, c.tri, sum)
		}
	}

	// Degenerate triangles contribute no orientation and no overdraw;
	// each becomes its own cluster, in index order.
	for t := 0; t < n; t++ {
		if assign[t] < 0 {
			assign[t] = next
			next++
		}
	}

	return assemble(m.T, assign, int(next)), nil
}

// pushNeighbors queues the unassigned dual-graph neighbors of tri, keyed by
// deviation from the current running mean normal.
func pushNeighbors(h *candHeap, ae [][]uint32, normals []math.Vec3, assign []int32, tri uint32, sum math.Vec3) {
	mean := sum.Normalize()
	for _, nb := range ae[tri] {
		if assign[nb] >= 0 || normals[nb].IsZero() {
			continue
		}
		heap.Push(h, candidate{tri: nb, dev: 1 - normals[nb].Dot(mean)})
	}
}

// assemble sorts triangles by (cluster, original index) and builds the
// contiguous Clustering record.
func assemble(tris [][3]uint32, assign []int32, numClusters int) *Clustering {
	n := len(tris)
	remap := make([]uint32, n)
	for i := range remap {
		remap[i] = uint32(i)
	}
	sort.SliceStable(remap, func(i, j int) bool {
		return assign[remap[i]] < assign[remap[j]]
	})

	c := &Clustering{
		Tris:  make([][3]uint32, n),
		IDs:   make([]uint32, n),
		Start: make([]uint32, numClusters+1),
		Remap: remap,
	}
	for newPos, old := range remap {
		c.Tris[newPos] = tris[old]
		c.IDs[newPos] = uint32(assign[old])
	}
	for t := 0; t < n; t++ {
		c.Start[c.IDs[t]+1]++
	}
	for k := 0; k < numClusters; k++ {
		c.Start[k+1] += c.Start[k]
	}
	return c
}
