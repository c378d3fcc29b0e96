// Package raytrace measures overdraw by shooting orthographic ray grids at
// the mesh from a set of viewpoints and accumulating per-cluster occlusion
// counts.
package raytrace

import (
	gomath "math"

	"github.com/Faultbox/meshorder/pkg/math"
)

// icoPhi is the golden ratio, the icosahedron's construction constant.
var icoPhi = float32((1 + gomath.Sqrt(5)) / 2)

// icoVerts lists the 12 icosahedron vertices before normalization.
func icoVerts() []math.Vec3 {
	p := icoPhi
	return []math.Vec3{
		{X: -1, Y: p}, {X: 1, Y: p}, {X: -1, Y: -p}, {X: 1, Y: -p},
		{Y: -1, Z: p}, {Y: 1, Z: p}, {Y: -1, Z: -p}, {Y: 1, Z: -p},
		{X: p, Z: -1}, {X: p, Z: 1}, {X: -p, Z: -1}, {X: -p, Z: 1},
	}
}

// icoFaces lists the 20 icosahedron faces over icoVerts.
var icoFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// DefaultViewpoints returns the canonical viewpoint set used when the
// caller supplies none: the 12 vertices and 20 face centroids of the
// golden-ratio icosahedron, normalized onto the unit sphere. The set is a
// fixed constant of the library; overdraw numbers computed against it are
// reproducible across runs and releases.
func DefaultViewpoints() []math.Vec3 {
	verts := icoVerts()
	out := make([]math.Vec3, 0, len(verts)+len(icoFaces))
	for _, v := range verts {
		out = append(out, v.Normalize())
	}
	for _, f := range icoFaces {
		c := verts[f[0]].Add(verts[f[1]]).Add(verts[f[2]])
		out = append(out, c.Normalize())
	}
	return out
}

// basis builds the deterministic orthonormal camera frame for a viewpoint:
// w looks from p at the origin, and u is seeded from the unit axis of w's
// smallest-magnitude component (x wins ties over y, y over z).
func basis(p math.Vec3) (u, v, w math.Vec3) {
	w = p.Neg().Normalize()

	smallest := 0
	for i := 1; i < 3; i++ {
		if abs32(w.Component(i)) < abs32(w.Component(smallest)) {
			smallest = i
		}
	}
	var axis math.Vec3
	switch smallest {
	case 0:
		axis = math.Vec3{X: 1}
	case 1:
		axis = math.Vec3{Y: 1}
	default:
		axis = math.Vec3{Z: 1}
	}

	u = w.Cross(axis).Normalize()
	v = w.Cross(u)
	return u, v, w
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
