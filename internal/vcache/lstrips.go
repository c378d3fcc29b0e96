package vcache

// lstripsRange reorders the triangles in positions [lo, hi) by greedy strip
// walking: keep extending from the last emitted triangle across a shared
// edge, and when the strip dies, restart at the unemitted triangle sharing
// the most vertices with the recently referenced set. Intended for small
// caches where Tipsy's scoring has no room to work. Returns the emitted
// order as absolute triangle positions.
func lstripsRange(tris [][3]uint32, lo, hi, numVerts, cacheSize int) []uint32 {
	count := hi - lo
	if count <= 0 {
		return nil
	}

	// Vertex -> triangles within the range, for edge-neighbor lookups.
	vertTris := make(map[uint32][]uint32, 3*count)
	for t := lo; t < hi; t++ {
		for i := 0; i < 3; i++ {
			v := tris[t][i]
			vertTris[v] = append(vertTris[v], uint32(t))
		}
	}

	emitted := make([]bool, count)
	order := make([]uint32, 0, count)

	// Ring buffer of the last cacheSize referenced vertices.
	recent := make([]uint32, 0, cacheSize)
	pushRecent := func(v uint32) {
		if len(recent) == cacheSize {
			copy(recent, recent[1:])
			recent = recent[:cacheSize-1]
		}
		recent = append(recent, v)
	}

	emit := func(t uint32) {
		emitted[t-uint32(lo)] = true
		order = append(order, t)
		for i := 0; i < 3; i++ {
			pushRecent(tris[t][i])
		}
	}

	last := uint32(lo)
	emit(last)

	for len(order) < count {
		next := edgeNeighbor(tris, vertTris, emitted, lo, last)
		if next < 0 {
			next = restartTriangle(tris, emitted, lo, hi, recent)
		}
		last = uint32(next)
		emit(last)
	}
	return order
}

// edgeNeighbor returns the lowest-index unemitted triangle sharing an edge
// (two vertices) with t, or -1.
func edgeNeighbor(tris [][3]uint32, vertTris map[uint32][]uint32, emitted []bool, lo int, t uint32) int {
	best := -1
	for i := 0; i < 3; i++ {
		for _, cand := range vertTris[tris[t][i]] {
			if cand == t || emitted[cand-uint32(lo)] {
				continue
			}
			if sharedVerts(tris[t], tris[cand]) < 2 {
				continue
			}
			if best < 0 || int(cand) < best {
				best = int(cand)
			}
		}
	}
	return best
}

// restartTriangle picks the unemitted triangle with the most vertices in the
// recent set; ties go to the lowest triangle index.
func restartTriangle(tris [][3]uint32, emitted []bool, lo, hi int, recent []uint32) int {
	inRecent := make(map[uint32]bool, len(recent))
	for _, v := range recent {
		inRecent[v] = true
	}

	best := -1
	bestScore := -1
	for t := lo; t < hi; t++ {
		if emitted[t-lo] {
			continue
		}
		score := 0
		for i := 0; i < 3; i++ {
			if inRecent[tris[t][i]] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	return best
}

func sharedVerts(a, b [3]uint32) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
				break
			}
		}
	}
	return n
}
