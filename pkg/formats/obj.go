// Package formats provides the mesh and viewpoint file parsers used by the
// meshorder front end: Wavefront OBJ in and out, glTF in, and the plain
// text viewpoint list.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrOBJNoGeometry = errors.New("obj: file contains no triangles")
	ErrOBJBadVertex  = errors.New("obj: malformed vertex record")
	ErrOBJBadFace    = errors.New("obj: malformed face record")
	ErrOBJIndexRange = errors.New("obj: face references a missing vertex")
)

// OBJMesh is the geometry read from a Wavefront OBJ file: tightly packed
// positions (3 floats per vertex) and a flat triangle index buffer.
// Polygonal faces are fan-triangulated; texture and normal references are
// parsed but dropped.
type OBJMesh struct {
	Positions []float32
	Indices   []uint32
}

// NumVertices returns the vertex count.
func (m *OBJMesh) NumVertices() int { return len(m.Positions) / 3 }

// NumTriangles returns the triangle count.
func (m *OBJMesh) NumTriangles() int { return len(m.Indices) / 3 }

// ReadOBJ parses a Wavefront OBJ stream. Only v and f records contribute;
// 1-based and negative (relative) face indices are supported.
func ReadOBJ(r io.Reader) (*OBJMesh, error) {
	mesh := &OBJMesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d", ErrOBJBadVertex, lineNo)
			}
			for i := 1; i <= 3; i++ {
				f, err := strconv.ParseFloat(fields[i], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrOBJBadVertex, lineNo, err)
				}
				mesh.Positions = append(mesh.Positions, float32(f))
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d", ErrOBJBadFace, lineNo)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := parseFaceIndex(ref, mesh.NumVertices())
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrOBJBadFace, lineNo, err)
				}
				if int(idx) >= mesh.NumVertices() {
					return nil, fmt.Errorf("%w: line %d: vertex %d", ErrOBJIndexRange, lineNo, idx+1)
				}
				face = append(face, idx)
			}
			// Fan triangulation of polygons.
			for i := 2; i < len(face); i++ {
				mesh.Indices = append(mesh.Indices, face[0], face[i-1], face[i])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("obj: reading: %w", err)
	}
	if mesh.NumTriangles() == 0 {
		return nil, ErrOBJNoGeometry
	}
	return mesh, nil
}

// parseFaceIndex decodes one face vertex reference ("7", "7/1", "7//3",
// "-2") into a 0-based position index. numVerts anchors negative indices.
func parseFaceIndex(ref string, numVerts int) (uint32, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = numVerts + n
	} else {
		n--
	}
	if n < 0 {
		return 0, fmt.Errorf("index %s out of range", ref)
	}
	return uint32(n), nil
}

// WriteOBJ emits the mesh as a minimal OBJ file: one v record per vertex
// and one f record per triangle, in order.
func WriteOBJ(w io.Writer, m *OBJMesh) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < m.NumVertices(); i++ {
		_, err := fmt.Fprintf(bw, "v %g %g %g\n",
			m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2])
		if err != nil {
			return fmt.Errorf("obj: writing: %w", err)
		}
	}
	for i := 0; i < m.NumTriangles(); i++ {
		_, err := fmt.Fprintf(bw, "f %d %d %d\n",
			m.Indices[3*i]+1, m.Indices[3*i+1]+1, m.Indices[3*i+2]+1)
		if err != nil {
			return fmt.Errorf("obj: writing: %w", err)
		}
	}
	return bw.Flush()
}
