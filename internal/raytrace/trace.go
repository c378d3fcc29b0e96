package raytrace

import (
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshorder/pkg/math"
	"github.com/Faultbox/meshorder/pkg/mesh"
)

// DefaultImageSize is the ray grid resolution used when the caller passes 0.
const DefaultImageSize = 256

// ErrCancelled is returned when the caller's cancellation predicate trips
// during tracing.
var ErrCancelled = errors.New("raytrace: cancelled")

// parallelEps rejects rays numerically parallel to a triangle plane.
const parallelEps = 1e-9

// Tracer shoots orthographic ray grids at a normalized copy of the mesh.
// The input arrays are never modified.
type Tracer struct {
	pos      []math.Vec3
	tris     [][3]uint32
	clusters []uint32
	eps      float32
	bvh      *bvh
}

// hit is one ray-triangle intersection.
type hit struct {
	t   float32
	tri uint32
}

// NewTracer copies the mesh, recenters it on its bounding box center,
// scales the bounding sphere to radius 1, and builds the BVH. clusters may
// be nil when only scalar overdraw measurement is wanted.
func NewTracer(v []math.Vec3, tris [][3]uint32, clusters []uint32) *Tracer {
	pos := make([]math.Vec3, len(v))
	copy(pos, v)

	if len(pos) > 0 {
		bmin, bmax := pos[0], pos[0]
		for _, p := range pos[1:] {
			bmin = bmin.Min(p)
			bmax = bmax.Max(p)
		}
		center := bmin.Add(bmax).Scale(0.5)
		var radius float32
		for i := range pos {
			pos[i] = pos[i].Sub(center)
			if r := pos[i].Length(); r > radius {
				radius = r
			}
		}
		if radius > 0 {
			inv := 1 / radius
			for i := range pos {
				pos[i] = pos[i].Scale(inv)
			}
		}
	}

	t := &Tracer{
		pos:      pos,
		tris:     tris,
		clusters: clusters,
		bvh:      buildBVH(pos, tris),
	}
	// The self-intersection epsilon scales with the characteristic edge
	// length of the normalized mesh.
	t.eps = 1e-6 * mesh.New(pos, tris).Resolution()
	if t.eps < 0 {
		t.eps = 0
	}
	return t
}

// OverdrawTable renders every viewpoint and accumulates the per-cluster
// overdraw matrix: each ordered pair of distinct-cluster hits along a ray
// increments O[front][back]. Viewpoints render in parallel; their local
// tables are summed in viewpoint order, keeping the result bit-identical
// across runs.
func (t *Tracer) OverdrawTable(viewpoints []math.Vec3, res, numClusters int, frontCCW bool, cancel func() bool) ([][]int, error) {
	if res <= 0 {
		res = DefaultImageSize
	}

	locals := make([][][]int, len(viewpoints))
	var g errgroup.Group
	for i, p := range viewpoints {
		g.Go(func() error {
			local := newTable(numClusters)
			if err := t.renderTable(p, res, frontCCW, cancel, local); err != nil {
				return err
			}
			locals[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := newTable(numClusters)
	for _, local := range locals {
		for i := range table {
			for j := range table[i] {
				table[i][j] += local[i][j]
			}
		}
	}
	return table, nil
}

// Measure renders every viewpoint without cluster attribution and returns
// the scalar overdraw statistics: the per-viewpoint mean of hits per
// covered pixel, averaged over viewpoints, and the maximum per-pixel hit
// count seen anywhere.
func (t *Tracer) Measure(viewpoints []math.Vec3, res int, frontCCW bool, cancel func() bool) (avg, max float32, err error) {
	if res <= 0 {
		res = DefaultImageSize
	}

	type stats struct {
		hits    int
		covered int
		max     int
	}
	locals := make([]stats, len(viewpoints))

	var g errgroup.Group
	for i, p := range viewpoints {
		g.Go(func() error {
			s, err := t.renderCount(p, res, frontCCW, cancel)
			if err != nil {
				return err
			}
			locals[i] = stats{hits: s[0], covered: s[1], max: s[2]}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	var sum float64
	for _, s := range locals {
		if s.covered > 0 {
			sum += float64(s.hits) / float64(s.covered)
		}
		if float32(s.max) > max {
			max = float32(s.max)
		}
	}
	if len(viewpoints) > 0 {
		avg = float32(sum / float64(len(viewpoints)))
	}
	return avg, max, nil
}

// renderTable casts the viewpoint's ray grid and accumulates ordered
// cluster pairs into table.
func (t *Tracer) renderTable(p math.Vec3, res int, frontCCW bool, cancel func() bool, table [][]int) error {
	u, v, w := basis(p)
	origin := p.Scale(2)
	hits := make([]hit, 0, 16)

	for py := 0; py < res; py++ {
		if cancel != nil && cancel() {
			return ErrCancelled
		}
		sy := 2*(float32(py)+0.5)/float32(res) - 1
		for px := 0; px < res; px++ {
			sx := 2*(float32(px)+0.5)/float32(res) - 1
			o := origin.Add(u.Scale(sx)).Add(v.Scale(sy))
			hits = t.castRay(o, w, frontCCW, hits[:0])
			for a := 0; a < len(hits); a++ {
				ca := t.clusters[hits[a].tri]
				for b := a + 1; b < len(hits); b++ {
					cb := t.clusters[hits[b].tri]
					if ca != cb {
						table[ca][cb]++
					}
				}
			}
		}
	}
	return nil
}

// renderCount casts the viewpoint's ray grid and returns
// {total hits, covered pixels, max hits on one pixel}.
func (t *Tracer) renderCount(p math.Vec3, res int, frontCCW bool, cancel func() bool) ([3]int, error) {
	u, v, w := basis(p)
	origin := p.Scale(2)
	hits := make([]hit, 0, 16)
	var out [3]int

	for py := 0; py < res; py++ {
		if cancel != nil && cancel() {
			return out, ErrCancelled
		}
		sy := 2*(float32(py)+0.5)/float32(res) - 1
		for px := 0; px < res; px++ {
			sx := 2*(float32(px)+0.5)/float32(res) - 1
			o := origin.Add(u.Scale(sx)).Add(v.Scale(sy))
			hits = t.castRay(o, w, frontCCW, hits[:0])
			if len(hits) > 0 {
				out[0] += len(hits)
				out[1]++
				if len(hits) > out[2] {
					out[2] = len(hits)
				}
			}
		}
	}
	return out, nil
}

// castRay intersects the ray against every front-facing triangle the BVH
// reaches and returns the hits sorted along the ray. Ties on distance break
// by triangle index.
func (t *Tracer) castRay(origin, dir math.Vec3, frontCCW bool, hits []hit) []hit {
	t.bvh.traverse(origin, dir, func(tri uint32) {
		if ht, ok := t.intersect(origin, dir, tri, frontCCW); ok {
			hits = append(hits, hit{t: ht, tri: tri})
		}
	})
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].t != hits[j].t {
			return hits[i].t < hits[j].t
		}
		return hits[i].tri < hits[j].tri
	})
	// Adjacent triangles each report a hit where the ray crosses their
	// shared edge or vertex; keep the first so that point counts once.
	kept := hits[:0]
	for _, h := range hits {
		if n := len(kept); n > 0 && h.t-kept[n-1].t <= t.eps {
			prev, cur := t.tris[kept[n-1].tri], t.tris[h.tri]
			if prev[0] == cur[0] || prev[0] == cur[1] || prev[0] == cur[2] ||
				prev[1] == cur[0] || prev[1] == cur[1] || prev[1] == cur[2] ||
				prev[2] == cur[0] || prev[2] == cur[1] || prev[2] == cur[2] {
				continue
			}
		}
		kept = append(kept, h)
	}
	return kept
}

// intersect is the barycentric ray-triangle test with winding-dependent
// backface culling. Front faces wind counter-clockwise when frontCCW is
// set, clockwise otherwise.
func (t *Tracer) intersect(origin, dir math.Vec3, tri uint32, frontCCW bool) (float32, bool) {
	v0 := t.pos[t.tris[tri][0]]
	e1 := t.pos[t.tris[tri][1]].Sub(v0)
	e2 := t.pos[t.tris[tri][2]].Sub(v0)

	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if frontCCW {
		if det < parallelEps {
			return 0, false
		}
	} else {
		if det > -parallelEps {
			return 0, false
		}
	}
	inv := 1 / det

	tvec := origin.Sub(v0)
	bu := tvec.Dot(pvec) * inv
	if bu < 0 || bu > 1 {
		return 0, false
	}
	qvec := tvec.Cross(e1)
	bv := dir.Dot(qvec) * inv
	if bv < 0 || bu+bv > 1 {
		return 0, false
	}

	ht := e2.Dot(qvec) * inv
	if ht <= t.eps {
		return 0, false
	}
	return ht, true
}

func newTable(n int) [][]int {
	table := make([][]int, n)
	for i := range table {
		table[i] = make([]int, n)
	}
	return table
}
