// Package order turns a per-cluster overdraw table into a cluster draw
// order that minimizes weighted back-edges, and applies that order to the
// triangle array.
package order

import (
	"sort"

	"github.com/Faultbox/meshorder/internal/cluster"
	"github.com/Faultbox/meshorder/pkg/math"
)

// Edge is a directed overdraw relation: From lies in front of To, so
// drawing To before From costs Cost overdrawn fragments.
type Edge struct {
	From, To int
	Cost     int
}

// GraphFromTable extracts the weighted directed graph from an overdraw
// table: an edge i->j with weight O[i][j]-O[j][i] exists iff that weight is
// positive.
func GraphFromTable(table [][]int) []Edge {
	var edges []Edge
	for i := range table {
		for j := range table[i] {
			if table[i][j] > table[j][i] {
				edges = append(edges, Edge{From: i, To: j, Cost: table[i][j] - table[j][i]})
			}
		}
	}
	return edges
}

// Feedback computes a cluster ordering by the greedy feedback-arc-set
// heuristic: repeatedly place the cluster with the largest out-minus-in
// weight over the still-unplaced subgraph, breaking ties on the smallest
// cluster id.
func Feedback(numClusters int, edges []Edge) []int {
	placed := make([]bool, numClusters)
	pi := make([]int, 0, numClusters)

	for len(pi) < numClusters {
		best := -1
		bestScore := 0
		for k := 0; k < numClusters; k++ {
			if placed[k] {
				continue
			}
			score := 0
			for _, e := range edges {
				if placed[e.From] || placed[e.To] {
					continue
				}
				if e.From == k {
					score += e.Cost
				} else if e.To == k {
					score -= e.Cost
				}
			}
			if best < 0 || score > bestScore {
				best = k
				bestScore = score
			}
		}
		placed[best] = true
		pi = append(pi, best)
	}
	return pi
}

// Occluder computes the view-independent fast ordering: clusters sorted by
// decreasing dot(clusterCentroid - meshCentroid, clusterMeanNormal), so
// outward-facing hull clusters draw first. Ties break on cluster id.
func Occluder(v []math.Vec3, c *cluster.Clustering) []int {
	nc := c.NumClusters()

	var meshCentroid math.Vec3
	if len(v) > 0 {
		for _, p := range v {
			meshCentroid = meshCentroid.Add(p)
		}
		meshCentroid = meshCentroid.Scale(1 / float32(len(v)))
	}

	potential := make([]float32, nc)
	for k := 0; k < nc; k++ {
		var centroid, normal math.Vec3
		count := 0
		for t := c.Start[k]; t < c.Start[k+1]; t++ {
			tri := c.Tris[t]
			p0, p1, p2 := v[tri[0]], v[tri[1]], v[tri[2]]
			centroid = centroid.Add(p0).Add(p1).Add(p2)
			normal = normal.Add(p0.Sub(p1).Cross(p1.Sub(p2)))
			count += 3
		}
		if count > 0 {
			centroid = centroid.Scale(1 / float32(count))
		}
		potential[k] = centroid.Sub(meshCentroid).Dot(normal.Normalize())
	}

	pi := make([]int, nc)
	for k := range pi {
		pi[k] = k
	}
	sort.SliceStable(pi, func(i, j int) bool {
		return potential[pi[i]] > potential[pi[j]]
	})
	return pi
}

// Apply reorders the clustering's triangles by the cluster permutation pi
// (pi[i] is the cluster drawn i-th) and returns a new clustering with
// regenerated IDs, Start, and Remap. Triangles keep their relative order
// within a cluster.
func Apply(c *cluster.Clustering, pi []int) *cluster.Clustering {
	n := len(c.Tris)
	out := &cluster.Clustering{
		Tris:  make([][3]uint32, 0, n),
		IDs:   make([]uint32, 0, n),
		Start: make([]uint32, 0, len(c.Start)),
		Remap: make([]uint32, 0, n),
	}

	out.Start = append(out.Start, 0)
	for newK, oldK := range pi {
		for t := c.Start[oldK]; t < c.Start[oldK+1]; t++ {
			out.Tris = append(out.Tris, c.Tris[t])
			out.IDs = append(out.IDs, uint32(newK))
			out.Remap = append(out.Remap, c.Remap[t])
		}
		out.Start = append(out.Start, uint32(len(out.Tris)))
	}
	return out
}
