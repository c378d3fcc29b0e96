package formats

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// glTF format errors.
var (
	ErrGLTFNoMesh     = errors.New("gltf: document contains no mesh")
	ErrGLTFNoIndices  = errors.New("gltf: primitive has no index accessor")
	ErrGLTFNoPosition = errors.New("gltf: primitive has no POSITION attribute")
)

// ReadGLTF loads the first triangle primitive from a .gltf or .glb file and
// returns it in the same packed layout ReadOBJ produces. If that primitive
// has no POSITION attribute or no index accessor, ReadGLTF returns an error
// without looking at later primitives. Material,
// normal, and texture data are ignored; the optimizer only needs positions
// and connectivity.
func ReadGLTF(path string) (*OBJMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: opening %s: %w", path, err)
	}

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posAccessor, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				return nil, ErrGLTFNoPosition
			}
			if prim.Indices == nil {
				return nil, ErrGLTFNoIndices
			}

			positions, err := modeler.ReadPosition(doc, doc.Accessors[posAccessor], nil)
			if err != nil {
				return nil, fmt.Errorf("gltf: reading positions: %w", err)
			}
			indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("gltf: reading indices: %w", err)
			}

			mesh := &OBJMesh{
				Positions: make([]float32, 0, 3*len(positions)),
				Indices:   indices,
			}
			for _, p := range positions {
				mesh.Positions = append(mesh.Positions, p[0], p[1], p[2])
			}
			if mesh.NumTriangles() == 0 {
				return nil, ErrGLTFNoMesh
			}
			return mesh, nil
		}
	}
	return nil, ErrGLTFNoMesh
}
