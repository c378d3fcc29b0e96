package vcache

import (
	"testing"
)

// gridTris builds a w x h quad grid triangulated row-major, the classic
// worst case for an untouched index stream.
func gridTris(w, h int) ([][3]uint32, int) {
	tris := make([][3]uint32, 0, 2*w*h)
	stride := uint32(w + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v0 := uint32(y)*stride + uint32(x)
			v1 := v0 + 1
			v2 := v0 + stride
			v3 := v2 + 1
			tris = append(tris, [3]uint32{v0, v1, v2}, [3]uint32{v1, v3, v2})
		}
	}
	return tris, (w + 1) * (h + 1)
}

func TestACMRBounds(t *testing.T) {
	// A 3-entry cache cannot carry vertices across a grid row, so the
	// row-major stream misses at least once per triangle.
	tris, nv := gridTris(8, 8)
	acmr := ACMR(tris, nv, 3)
	if acmr < 1.0 || acmr > 3.0 {
		t.Errorf("ACMR() = %v, want within [1, 3]", acmr)
	}
}

func TestCacheFetchesColdStream(t *testing.T) {
	// Three disjoint triangles: every vertex is a miss.
	tris := [][3]uint32{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}}
	if got := CacheFetches(tris, 9, 16); got != 9 {
		t.Errorf("CacheFetches() = %d, want 9", got)
	}
}

func TestCacheFetchesWarmRepeat(t *testing.T) {
	// The same triangle twice only fetches its vertices once.
	tris := [][3]uint32{{0, 1, 2}, {0, 1, 2}}
	if got := CacheFetches(tris, 3, 16); got != 3 {
		t.Errorf("CacheFetches() = %d, want 3", got)
	}
}

func TestCacheFetchesEviction(t *testing.T) {
	// Cache of 3: touching three new vertices evicts the first triangle.
	tris := [][3]uint32{{0, 1, 2}, {3, 4, 5}, {0, 1, 2}}
	if got := CacheFetches(tris, 6, 3); got != 9 {
		t.Errorf("CacheFetches() = %d, want 9", got)
	}
}

func TestTipsifyImprovesGrid(t *testing.T) {
	// 33 vertices per grid row exceed the 24-entry cache, so the
	// row-major stream misses on every cross-row reuse.
	tris, nv := gridTris(32, 32)
	before := ACMR(tris, nv, DefaultCacheSize)

	order := tipsifyRange(tris, 0, len(tris), nv, DefaultCacheSize)
	if len(order) != len(tris) {
		t.Fatalf("tipsify emitted %d of %d triangles", len(order), len(tris))
	}
	reordered := make([][3]uint32, len(order))
	for i, ti := range order {
		reordered[i] = tris[ti]
	}
	after := ACMR(reordered, nv, DefaultCacheSize)

	if after > before {
		t.Errorf("ACMR after tipsify = %v, before = %v", after, before)
	}
	if after >= 1.2 {
		t.Errorf("ACMR after tipsify = %v, want < 1.2", after)
	}
}

func TestTipsifyIsPermutation(t *testing.T) {
	tris, nv := gridTris(8, 8)
	order := tipsifyRange(tris, 0, len(tris), nv, 8)
	seen := make([]bool, len(tris))
	for _, ti := range order {
		if seen[ti] {
			t.Fatalf("triangle %d emitted twice", ti)
		}
		seen[ti] = true
	}
	for i, s := range seen {
		if !s {
			t.Errorf("triangle %d never emitted", i)
		}
	}
}

func TestTipsifyDeterministic(t *testing.T) {
	tris, nv := gridTris(8, 8)
	a := tipsifyRange(tris, 0, len(tris), nv, 12)
	b := tipsifyRange(tris, 0, len(tris), nv, 12)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("orders differ at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestLStripsIsPermutation(t *testing.T) {
	tris, nv := gridTris(6, 6)
	order := lstripsRange(tris, 0, len(tris), nv, 4)
	seen := make([]bool, len(tris))
	for _, ti := range order {
		if seen[ti] {
			t.Fatalf("triangle %d emitted twice", ti)
		}
		seen[ti] = true
	}
	for i, s := range seen {
		if !s {
			t.Errorf("triangle %d never emitted", i)
		}
	}
}

func TestAutoResolution(t *testing.T) {
	if algo, _ := Auto.resolve(4); algo != LStrips {
		t.Errorf("Auto at cache 4 resolved to %v, want lstrips", algo)
	}
	if algo, _ := Auto.resolve(24); algo != Tipsy {
		t.Errorf("Auto at cache 24 resolved to %v, want tipsy", algo)
	}
	if algo, _ := D3D.resolve(24); algo != Tipsy {
		t.Errorf("D3D resolved to %v, want tipsy", algo)
	}
	if _, err := Strategy(42).resolve(24); err == nil {
		t.Error("Strategy(42) accepted, want error")
	}
}

func TestOrderClustersRespectsBoundaries(t *testing.T) {
	tris, nv := gridTris(8, 4)
	// Two clusters, split down the middle of the stream.
	half := uint32(len(tris) / 2)
	start := []uint32{0, half, uint32(len(tris))}

	out, remap, err := OrderClusters(tris, start, nv, DefaultCacheSize, Tipsy)
	if err != nil {
		t.Fatalf("OrderClusters() error = %v", err)
	}
	if len(out) != len(tris) || len(remap) != len(tris) {
		t.Fatalf("got %d triangles, %d remap entries, want %d", len(out), len(remap), len(tris))
	}
	for newPos, oldPos := range remap {
		inFirst := uint32(newPos) < half
		wasFirst := oldPos < half
		if inFirst != wasFirst {
			t.Errorf("triangle moved across cluster boundary: new %d old %d", newPos, oldPos)
		}
	}
}

func TestFirstUseOrderBijection(t *testing.T) {
	tris := [][3]uint32{{5, 2, 7}, {2, 0, 5}}
	remap := FirstUseOrder(tris, 9)

	seen := make([]bool, 9)
	for _, nw := range remap {
		if seen[nw] {
			t.Fatalf("new id %d assigned twice", nw)
		}
		seen[nw] = true
	}

	// First-use order: 5 -> 0, 2 -> 1, 7 -> 2, 0 -> 3.
	for old, want := range map[int]uint32{5: 0, 2: 1, 7: 2, 0: 3} {
		if remap[old] != want {
			t.Errorf("remap[%d] = %d, want %d", old, remap[old], want)
		}
	}
	// Unreferenced vertices keep their original relative order.
	if remap[1] >= remap[3] || remap[3] >= remap[4] {
		t.Errorf("unreferenced order broken: %v", remap)
	}
}

func TestRemapVertexBufferRoundTrip(t *testing.T) {
	vb := []float32{
		0, 0, 0, 1,
		1, 1, 1, 2,
		2, 2, 2, 3,
	}
	tris := [][3]uint32{{2, 0, 1}}
	remap := FirstUseOrder(tris, 3)

	out := RemapVertexBuffer(vb, 4, remap)
	back := RemapVertexBuffer(out, 4, InvertRemap(remap))
	for i := range vb {
		if back[i] != vb[i] {
			t.Fatalf("round trip differs at %d: %v vs %v", i, back[i], vb[i])
		}
	}

	// Vertex 2 is referenced first, so it should sit at the front.
	if out[0] != 2 {
		t.Errorf("out[0] = %v, want 2", out[0])
	}
}

func TestRewriteIndices(t *testing.T) {
	tris := [][3]uint32{{2, 0, 1}}
	remap := FirstUseOrder(tris, 3)
	out := RewriteIndices(tris, remap)
	if out[0] != [3]uint32{0, 1, 2} {
		t.Errorf("RewriteIndices() = %v, want {0 1 2}", out[0])
	}
}
