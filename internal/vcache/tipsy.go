package vcache

// tipsifyRange reorders the triangles in positions [lo, hi) for a simulated
// FIFO cache of the given size, following the Tipsy greedy: emit every live
// triangle of the current fanning vertex, then hop to the 1-ring vertex
// whose remaining triangles fit in the cache, preferring warm vertices with
// few live triangles left. Restarts pop the dead-end stack, then fall back
// to an index scan. Returns the emitted order as absolute triangle
// positions.
func tipsifyRange(tris [][3]uint32, lo, hi, numVerts, cacheSize int) []uint32 {
	count := hi - lo
	if count <= 0 {
		return nil
	}

	// Vertex -> triangles within the range.
	liveCount := make([]int32, numVerts)
	for t := lo; t < hi; t++ {
		for i := 0; i < 3; i++ {
			liveCount[tris[t][i]]++
		}
	}
	offsets := make([]int32, numVerts+1)
	for v := 0; v < numVerts; v++ {
		offsets[v+1] = offsets[v] + liveCount[v]
	}
	vertTris := make([]uint32, offsets[numVerts])
	cursor := make([]int32, numVerts)
	copy(cursor, offsets[:numVerts])
	for t := lo; t < hi; t++ {
		for i := 0; i < 3; i++ {
			v := tris[t][i]
			vertTris[cursor[v]] = uint32(t)
			cursor[v]++
		}
	}

	cacheTime := make([]int32, numVerts)
	emitted := make([]bool, count)
	order := make([]uint32, 0, count)
	deadEnd := make([]uint32, 0, count)
	var time int32 = int32(cacheSize) + 1
	scan := lo
	candidates := make([]uint32, 0, 16)

	fan := int32(tris[lo][0])
	for fan >= 0 {
		// Candidates for the next fanning vertex: the vertices of the
		// triangles emitted around the current one, in emission order.
		candidates = candidates[:0]

		for k := offsets[fan]; k < offsets[fan+1]; k++ {
			t := vertTris[k]
			if emitted[t-uint32(lo)] {
				continue
			}
			emitted[t-uint32(lo)] = true
			order = append(order, t)
			for i := 0; i < 3; i++ {
				v := tris[t][i]
				deadEnd = append(deadEnd, v)
				candidates = append(candidates, v)
				liveCount[v]--
				if time-cacheTime[v] > int32(cacheSize) {
					cacheTime[v] = time
					time++
				}
			}
		}

		fan = nextFan(candidates, cacheTime, liveCount, time, int32(cacheSize))
		if fan < 0 {
			fan = skipDeadEnd(&deadEnd, liveCount, tris, lo, hi, &scan, emitted)
		}
	}
	return order
}

// nextFan picks the 1-ring vertex with the highest priority: vertices whose
// remaining triangles still fit in the cache score by the time since their
// last fetch (the oldest such vertex wins), everything else scores zero. The first candidate wins ties, keeping the order
// deterministic.
func nextFan(candidates []uint32, cacheTime []int32, liveCount []int32, time, cacheSize int32) int32 {
	best := int32(-1)
	bestPriority := int32(-1)
	for _, v := range candidates {
		if liveCount[v] <= 0 {
			continue
		}
		var priority int32
		if time-cacheTime[v]+2*liveCount[v] <= cacheSize {
			priority = time - cacheTime[v]
		}
		if priority > bestPriority {
			bestPriority = priority
			best = int32(v)
		}
	}
	return best
}

// skipDeadEnd recovers a fanning vertex after the 1-ring went cold: pop the
// dead-end stack, then scan forward from the last seed for a triangle with
// live vertices.
func skipDeadEnd(deadEnd *[]uint32, liveCount []int32, tris [][3]uint32, lo, hi int, scan *int, emitted []bool) int32 {
	stack := *deadEnd
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if liveCount[v] > 0 {
			*deadEnd = stack
			return int32(v)
		}
	}
	*deadEnd = stack

	for ; *scan < hi; *scan++ {
		if !emitted[*scan-lo] {
			return int32(tris[*scan][0])
		}
	}
	return -1
}
