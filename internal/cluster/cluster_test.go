package cluster

import (
	"testing"

	"github.com/Faultbox/meshorder/pkg/math"
	"github.com/Faultbox/meshorder/pkg/mesh"
)

func tetrahedron() *mesh.Mesh {
	v := []math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	t := [][3]uint32{
		{0, 1, 2},
		{0, 1, 3},
		{0, 2, 3},
		{1, 2, 3},
	}
	return mesh.New(v, t)
}

func TestGrowTetrahedronSingleCluster(t *testing.T) {
	c, err := Grow(tetrahedron(), 0)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	if c.NumClusters() != 1 {
		t.Fatalf("NumClusters() = %d, want 1", c.NumClusters())
	}
	if !c.Check(4) {
		t.Errorf("clustering inconsistent: start=%v ids=%v", c.Start, c.IDs)
	}
}

func TestGrowDisjointComponents(t *testing.T) {
	v := []math.Vec3{
		{X: 0}, {X: 1}, {Y: 1},
		{X: 10}, {X: 11}, {X: 10, Y: 1},
	}
	m := mesh.New(v, [][3]uint32{{0, 1, 2}, {3, 4, 5}})

	c, err := Grow(m, 1)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	// Disconnected components force a split regardless of the hint.
	if c.NumClusters() != 2 {
		t.Fatalf("NumClusters() = %d, want 2", c.NumClusters())
	}
	// Tie-break keeps input order: triangle 0 seeds cluster 0.
	if c.IDs[0] != 0 || c.IDs[1] != 1 {
		t.Errorf("IDs = %v, want [0 1]", c.IDs)
	}
}

func TestGrowPrefixInvariants(t *testing.T) {
	c, err := Grow(grid(8, 8), 4)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	if c.Start[0] != 0 {
		t.Errorf("Start[0] = %d, want 0", c.Start[0])
	}
	if int(c.Start[c.NumClusters()]) != 128 {
		t.Errorf("Start[n_c] = %d, want 128", c.Start[c.NumClusters()])
	}
	for k := 0; k < c.NumClusters(); k++ {
		if c.Start[k] > c.Start[k+1] {
			t.Errorf("Start not non-decreasing at %d: %v", k, c.Start)
		}
	}
	if !c.Check(128) {
		t.Error("IDs disagree with Start ranges")
	}
}

func TestGrowIsPermutation(t *testing.T) {
	c, err := Grow(grid(4, 4), 3)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	seen := make([]bool, 32)
	for _, old := range c.Remap {
		if seen[old] {
			t.Fatalf("triangle %d mapped twice", old)
		}
		seen[old] = true
	}
}

func TestGrowDegenerateSingleton(t *testing.T) {
	v := []math.Vec3{
		{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1},
	}
	tris := [][3]uint32{
		{0, 1, 2},
		{1, 3, 2},
		{0, 0, 1}, // degenerate
	}
	c, err := Grow(mesh.New(v, tris), 0)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	if c.NumClusters() != 2 {
		t.Fatalf("NumClusters() = %d, want 2 (quad + degenerate singleton)", c.NumClusters())
	}
	// The degenerate triangle lands alone in the last cluster.
	last := c.NumClusters() - 1
	if c.Start[last+1]-c.Start[last] != 1 {
		t.Errorf("last cluster has %d triangles, want 1", c.Start[last+1]-c.Start[last])
	}
	if got := c.Tris[c.Start[last]]; got != [3]uint32{0, 0, 1} {
		t.Errorf("last cluster triangle = %v, want the degenerate one", got)
	}
}

func TestGrowDeterministic(t *testing.T) {
	a, err := Grow(grid(8, 8), 6)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	b, err := Grow(grid(8, 8), 6)
	if err != nil {
		t.Fatalf("Grow() error = %v", err)
	}
	if a.NumClusters() != b.NumClusters() {
		t.Fatalf("cluster counts differ: %d vs %d", a.NumClusters(), b.NumClusters())
	}
	for i := range a.Remap {
		if a.Remap[i] != b.Remap[i] {
			t.Fatalf("Remap differs at %d", i)
		}
	}
}

func TestGrowEmptyMesh(t *testing.T) {
	if _, err := Grow(mesh.New(nil, nil), 0); err == nil {
		t.Error("Grow() on empty mesh succeeded, want error")
	}
}

func TestFastClusterInvariants(t *testing.T) {
	m := grid(8, 8)
	c, err := Fast(m.T, m.NumVertices(), 24, 0)
	if err != nil {
		t.Fatalf("Fast() error = %v", err)
	}
	if !c.Check(len(m.T)) {
		t.Error("fast clustering inconsistent")
	}
	seen := make([]bool, len(m.T))
	for _, old := range c.Remap {
		if seen[old] {
			t.Fatalf("triangle %d mapped twice", old)
		}
		seen[old] = true
	}
}

func TestFastRejectsBadAlpha(t *testing.T) {
	m := grid(2, 2)
	if _, err := Fast(m.T, m.NumVertices(), 24, 0.5); err == nil {
		t.Error("alpha 0.5 accepted, want error")
	}
	if _, err := Fast(m.T, m.NumVertices(), 24, 1.5); err != nil {
		t.Errorf("alpha 1.5 rejected: %v", err)
	}
}

func TestFastAlphaGrowsClusters(t *testing.T) {
	m := bigGrid()
	small, err := Fast(m.T, m.NumVertices(), 14, 1)
	if err != nil {
		t.Fatalf("Fast(alpha=1) error = %v", err)
	}
	large, err := Fast(m.T, m.NumVertices(), 14, 4)
	if err != nil {
		t.Fatalf("Fast(alpha=4) error = %v", err)
	}
	if large.NumClusters() > small.NumClusters() {
		t.Errorf("alpha 4 gave %d clusters, alpha 1 gave %d; larger alpha should not add clusters",
			large.NumClusters(), small.NumClusters())
	}
}

// grid returns a w x h quad grid in the XY plane, triangulated row-major.
func grid(w, h int) *mesh.Mesh {
	stride := w + 1
	v := make([]math.Vec3, 0, stride*(h+1))
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			v = append(v, math.Vec3{X: float32(x), Y: float32(y)})
		}
	}
	tris := make([][3]uint32, 0, 2*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v0 := uint32(y*stride + x)
			v1 := v0 + 1
			v2 := v0 + uint32(stride)
			v3 := v2 + 1
			tris = append(tris, [3]uint32{v0, v1, v2}, [3]uint32{v1, v3, v2})
		}
	}
	return mesh.New(v, tris)
}

func bigGrid() *mesh.Mesh { return grid(32, 32) }
