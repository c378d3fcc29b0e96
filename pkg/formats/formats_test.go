package formats

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadOBJBasic(t *testing.T) {
	src := `# simple quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3
f 1 3 4
`
	m, err := ReadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadOBJ() error = %v", err)
	}
	if m.NumVertices() != 4 {
		t.Errorf("NumVertices() = %d, want 4", m.NumVertices())
	}
	if m.NumTriangles() != 2 {
		t.Errorf("NumTriangles() = %d, want 2", m.NumTriangles())
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if m.Indices[i] != idx {
			t.Errorf("Indices[%d] = %d, want %d", i, m.Indices[i], idx)
		}
	}
}

func TestReadOBJFanTriangulation(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	m, err := ReadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadOBJ() error = %v", err)
	}
	if m.NumTriangles() != 2 {
		t.Fatalf("quad fan gave %d triangles, want 2", m.NumTriangles())
	}
}

func TestReadOBJSlashAndNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
f -3/1/1 -2/2/2 -1//3
`
	m, err := ReadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadOBJ() error = %v", err)
	}
	want := []uint32{0, 1, 2}
	for i, idx := range want {
		if m.Indices[i] != idx {
			t.Errorf("Indices[%d] = %d, want %d", i, m.Indices[i], idx)
		}
	}
}

func TestReadOBJRejectsBadInput(t *testing.T) {
	if _, err := ReadOBJ(strings.NewReader("v 0 0\n")); !errors.Is(err, ErrOBJBadVertex) {
		t.Errorf("short vertex: error = %v, want ErrOBJBadVertex", err)
	}
	if _, err := ReadOBJ(strings.NewReader("v 0 0 0\nf 1 2 9\n")); !errors.Is(err, ErrOBJIndexRange) && !errors.Is(err, ErrOBJBadFace) {
		t.Errorf("out-of-range face: error = %v, want index error", err)
	}
	if _, err := ReadOBJ(strings.NewReader("v 0 0 0\n")); !errors.Is(err, ErrOBJNoGeometry) {
		t.Errorf("no faces: error = %v, want ErrOBJNoGeometry", err)
	}
}

func TestOBJRoundTrip(t *testing.T) {
	in := &OBJMesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, in); err != nil {
		t.Fatalf("WriteOBJ() error = %v", err)
	}
	out, err := ReadOBJ(&buf)
	if err != nil {
		t.Fatalf("ReadOBJ() error = %v", err)
	}
	if out.NumVertices() != in.NumVertices() || out.NumTriangles() != in.NumTriangles() {
		t.Fatalf("round trip changed counts: %d/%d vs %d/%d",
			out.NumVertices(), out.NumTriangles(), in.NumVertices(), in.NumTriangles())
	}
	for i := range in.Positions {
		if out.Positions[i] != in.Positions[i] {
			t.Errorf("Positions[%d] = %v, want %v", i, out.Positions[i], in.Positions[i])
		}
	}
	for i := range in.Indices {
		if out.Indices[i] != in.Indices[i] {
			t.Errorf("Indices[%d] = %v, want %v", i, out.Indices[i], in.Indices[i])
		}
	}
}

func TestReadViewpoints(t *testing.T) {
	src := `3
1 0 0
0 1 0
0 0 -1
`
	vp, err := ReadViewpoints(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadViewpoints() error = %v", err)
	}
	if len(vp) != 3 {
		t.Fatalf("got %d viewpoints, want 3", len(vp))
	}
	if vp[2].Z != -1 {
		t.Errorf("vp[2].Z = %v, want -1", vp[2].Z)
	}
}

func TestReadViewpointsRejectsBadInput(t *testing.T) {
	if _, err := ReadViewpoints(strings.NewReader("")); !errors.Is(err, ErrViewpointCount) {
		t.Errorf("empty file: error = %v, want ErrViewpointCount", err)
	}
	if _, err := ReadViewpoints(strings.NewReader("2\n1 0 0\n")); !errors.Is(err, ErrViewpointRecord) {
		t.Errorf("truncated file: error = %v, want ErrViewpointRecord", err)
	}
	if _, err := ReadViewpoints(strings.NewReader("1\n3 0 0\n")); !errors.Is(err, ErrViewpointNotUnit) {
		t.Errorf("non-unit direction: error = %v, want ErrViewpointNotUnit", err)
	}
}
