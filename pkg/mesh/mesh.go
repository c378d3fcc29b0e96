// Package mesh provides the indexed triangle mesh record shared by every
// optimizer stage: vertex positions, triangles, and lazily built adjacency.
package mesh

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/meshorder/pkg/math"
)

// Mesh errors.
var (
	ErrShortBuffer = errors.New("vertex buffer shorter than stride * vertex count")
	ErrBadStride   = errors.New("vertex stride must be at least 3 floats")
	ErrBadIndexLen = errors.New("index count must be a multiple of 3")
	ErrIndexRange  = errors.New("index references a vertex outside the buffer")
)

// Mesh is an indexed triangle mesh. V and T are required; the adjacency and
// normal fields start nil and are filled in by the Build* methods on first
// use. A Mesh is owned by a single optimization call and is not safe for
// concurrent mutation.
type Mesh struct {
	V []math.Vec3
	T [][3]uint32

	// VT[v] lists the triangles incident to vertex v, in triangle order.
	VT [][]uint32
	// AE[t] lists the triangles sharing at least one edge with t.
	// Duplicates occur when two triangles share more than one incidence.
	AE [][]uint32
	// VV[v] lists the vertices adjacent to v via some edge, with duplicates.
	VV [][]uint32
	// N holds one unit normal per triangle; degenerate triangles get the
	// zero vector.
	N []math.Vec3

	res float32
}

// New wraps a position array and triangle array in a Mesh. The slices are
// referenced, not copied.
func New(v []math.Vec3, t [][3]uint32) *Mesh {
	return &Mesh{V: v, T: t, res: -1}
}

// FromBuffers builds a Mesh from a raw vertex buffer and flat index buffer.
// stride is the number of floats per vertex; only the first three floats of
// each vertex are read. The positions are copied so the caller's buffer is
// left untouched.
func FromBuffers(vb []float32, stride int, ib []uint32) (*Mesh, error) {
	if stride < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrBadStride, stride)
	}
	if len(ib)%3 != 0 {
		return nil, fmt.Errorf("%w: got %d indices", ErrBadIndexLen, len(ib))
	}
	if len(vb)%stride != 0 {
		return nil, fmt.Errorf("%w: %d floats at stride %d", ErrShortBuffer, len(vb), stride)
	}

	nv := len(vb) / stride
	v := make([]math.Vec3, nv)
	for i := 0; i < nv; i++ {
		base := i * stride
		v[i] = math.Vec3{X: vb[base], Y: vb[base+1], Z: vb[base+2]}
	}

	t := make([][3]uint32, len(ib)/3)
	for i := range t {
		t[i] = [3]uint32{ib[3*i], ib[3*i+1], ib[3*i+2]}
		for _, vi := range t[i] {
			if int(vi) >= nv {
				return nil, fmt.Errorf("%w: index %d, %d vertices", ErrIndexRange, vi, nv)
			}
		}
	}

	return &Mesh{V: v, T: t, res: -1}, nil
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.V) }

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int { return len(m.T) }

// BuildVT fills VT: for each triangle, the triangle index is appended to the
// adjacency of each of its three vertices. Deterministic in triangle order.
func (m *Mesh) BuildVT() [][]uint32 {
	if m.VT != nil {
		return m.VT
	}
	vt := make([][]uint32, len(m.V))
	for f, tri := range m.T {
		for i := 0; i < 3; i++ {
			vt[tri[i]] = append(vt[tri[i]], uint32(f))
		}
	}
	m.VT = vt
	return vt
}

// BuildAE fills AE: for each triangle and each of its three directed edges
// (a,b), every other triangle incident to a that also contains b is emitted.
// A triangle never lists itself; duplicates are permitted.
func (m *Mesh) BuildAE() [][]uint32 {
	if m.AE != nil {
		return m.AE
	}
	vt := m.BuildVT()
	ae := make([][]uint32, len(m.T))
	for f, tri := range m.T {
		for i := 0; i < 3; i++ {
			a := tri[i]
			b := tri[(i+1)%3]
			for _, af := range vt[a] {
				if af == uint32(f) {
					continue
				}
				other := m.T[af]
				for k := 0; k < 3; k++ {
					if other[k] == b {
						ae[f] = append(ae[f], af)
					}
				}
			}
		}
	}
	m.AE = ae
	return ae
}

// BuildVV fills VV: both endpoints of every triangle edge are pushed onto
// each other's neighbor list. Consumers needing set semantics must
// deduplicate.
func (m *Mesh) BuildVV() [][]uint32 {
	if m.VV != nil {
		return m.VV
	}
	vv := make([][]uint32, len(m.V))
	for _, tri := range m.T {
		vv[tri[0]] = append(vv[tri[0]], tri[1], tri[2])
		vv[tri[1]] = append(vv[tri[1]], tri[0], tri[2])
		vv[tri[2]] = append(vv[tri[2]], tri[1], tri[0])
	}
	m.VV = vv
	return vv
}

// FaceNormals returns one unit normal per triangle, computed as
// normalize((v0-v1) × (v1-v2)). Degenerate triangles yield the zero vector;
// downstream stages treat those as isolated.
func (m *Mesh) FaceNormals() []math.Vec3 {
	if m.N != nil {
		return m.N
	}
	n := make([]math.Vec3, len(m.T))
	for i, tri := range m.T {
		p0 := m.V[tri[0]]
		p1 := m.V[tri[1]]
		p2 := m.V[tri[2]]
		a := p0.Sub(p1)
		b := p1.Sub(p2)
		n[i] = a.Cross(b).Normalize()
	}
	m.N = n
	return n
}

// TriCenters returns the centroid of each triangle.
func (m *Mesh) TriCenters() []math.Vec3 {
	tc := make([]math.Vec3, len(m.T))
	for i, tri := range m.T {
		tc[i] = m.V[tri[0]].Add(m.V[tri[1]]).Add(m.V[tri[2]]).Scale(1.0 / 3.0)
	}
	return tc
}

// Bounds returns the axis-aligned bounding box of the vertex positions.
func (m *Mesh) Bounds() (bmin, bmax math.Vec3) {
	if len(m.V) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	bmin, bmax = m.V[0], m.V[0]
	for _, p := range m.V[1:] {
		bmin = bmin.Min(p)
		bmax = bmax.Max(p)
	}
	return bmin, bmax
}

// resolutionSamples caps the number of triangles sampled by Resolution.
const resolutionSamples = 333

// Resolution returns the characteristic edge length of the mesh: the square
// root of the median squared edge length over a random triangle sample. The
// sample is drawn with replacement by a call-scoped 32-bit LCG so repeated
// calls on equal meshes agree bit-for-bit. The value is cached; with no
// triangles the cached value (or -1 for "unknown") is returned.
func (m *Mesh) Resolution() float32 {
	nf := len(m.T)
	if nf < 1 || m.res > 0 {
		return m.res
	}

	nsamp := nf / 2
	if nsamp > resolutionSamples {
		nsamp = resolutionSamples
	}
	if nsamp < 1 {
		nsamp = 1
	}

	samples := make([]float32, 3*nsamp)
	var randq uint32
	for i := 0; i < nsamp; i++ {
		randq = 1664525*randq + 1013904223
		j := int(randq % uint32(nf))
		v0 := m.V[m.T[j][0]]
		v1 := m.V[m.T[j][1]]
		v2 := m.V[m.T[j][2]]
		samples[3*i+0] = v0.Sub(v1).LengthSq()
		samples[3*i+1] = v1.Sub(v2).LengthSq()
		samples[3*i+2] = v2.Sub(v0).LengthSq()
	}

	m.res = float32(gomath.Sqrt(float64(medianInPlace(samples))))
	return m.res
}

// medianInPlace selects the middle element by a quickselect over the slice.
// The slice is reordered.
func medianInPlace(s []float32) float32 {
	k := len(s) / 2
	lo, hi := 0, len(s)-1
	for lo < hi {
		pivot := s[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for s[i] < pivot {
				i++
			}
			for s[j] > pivot {
				j--
			}
			if i <= j {
				s[i], s[j] = s[j], s[i]
				i++
				j--
			}
		}
		if k <= j {
			hi = j
		} else if k >= i {
			lo = i
		} else {
			break
		}
	}
	return s[k]
}
