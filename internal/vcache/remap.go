package vcache

// FirstUseOrder returns the vertex permutation (old id -> new id) induced by
// first reference in the index stream. Vertices never referenced keep their
// relative order and are appended after the referenced ones, so the result
// is a bijection on [0, numVerts).
func FirstUseOrder(tris [][3]uint32, numVerts int) []uint32 {
	const unused = ^uint32(0)
	remap := make([]uint32, numVerts)
	for i := range remap {
		remap[i] = unused
	}

	var next uint32
	for _, tri := range tris {
		for i := 0; i < 3; i++ {
			v := tri[i]
			if remap[v] == unused {
				remap[v] = next
				next++
			}
		}
	}
	for v := 0; v < numVerts; v++ {
		if remap[v] == unused {
			remap[v] = next
			next++
		}
	}
	return remap
}

// RewriteIndices applies a vertex remap to the triangle list, returning a
// new list.
func RewriteIndices(tris [][3]uint32, remap []uint32) [][3]uint32 {
	out := make([][3]uint32, len(tris))
	for i, tri := range tris {
		out[i] = [3]uint32{remap[tri[0]], remap[tri[1]], remap[tri[2]]}
	}
	return out
}

// RemapVertexBuffer reorders whole stride-sized vertex records of vb
// according to remap (old id -> new id) and returns the new buffer.
func RemapVertexBuffer(vb []float32, stride int, remap []uint32) []float32 {
	out := make([]float32, len(vb))
	for old, nw := range remap {
		copy(out[int(nw)*stride:(int(nw)+1)*stride], vb[old*stride:(old+1)*stride])
	}
	return out
}

// InvertRemap returns the inverse permutation (new id -> old id).
func InvertRemap(remap []uint32) []uint32 {
	inv := make([]uint32, len(remap))
	for old, nw := range remap {
		inv[nw] = uint32(old)
	}
	return inv
}
