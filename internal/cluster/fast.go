package cluster

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/meshorder/internal/vcache"
)

// DefaultAlpha is the published cluster-size/overdraw trade-off constant
// used when the caller passes 0.
const DefaultAlpha = 0.75

// fastBaseClusterSize scales the fused pass's target cluster size; alpha
// multiplies it.
const fastBaseClusterSize = 500

// ErrBadAlpha reports an alpha outside the accepted range (0 for the
// default, or any value >= 1).
var ErrBadAlpha = errors.New("cluster: alpha must be 0 (default) or >= 1")

// Fast runs the fused vertex-cache-and-cluster pass: a single Tipsy sweep
// over the whole mesh, then linear cluster boundaries placed at cache-miss
// positions. Larger alpha yields larger (and so fewer) clusters, trading
// overdraw granularity for vertex-cache continuity. tris is consumed in
// caller order; the result is the fused reordering.
func Fast(tris [][3]uint32, numVerts, cacheSize int, alpha float32) (*Clustering, error) {
	n := len(tris)
	if n == 0 {
		return nil, ErrNoTriangles
	}
	if alpha == 0 {
		alpha = DefaultAlpha
	} else if alpha < 1 {
		return nil, ErrBadAlpha
	}

	order, err := vcache.OrderRange(tris, 0, n, numVerts, cacheSize, vcache.Tipsy)
	if err != nil {
		return nil, err
	}

	reordered := make([][3]uint32, n)
	remap := make([]uint32, n)
	for newPos, old := range order {
		reordered[newPos] = tris[old]
		remap[newPos] = old
	}

	// Target size grows with alpha; boundaries snap to cache flushes so a
	// cluster never splits a warm span.
	targetSize := int(gomath.Ceil(float64(alpha) * fastBaseClusterSize))
	if targetSize < 1 {
		targetSize = 1
	}

	ids := make([]uint32, n)
	start := []uint32{0}
	fetchTime := make([]int, numVerts)
	for i := range fetchTime {
		fetchTime[i] = -cacheSize - 1
	}
	fetches := 0
	size := 0
	var k uint32

	for t := 0; t < n; t++ {
		misses := 0
		for i := 0; i < 3; i++ {
			v := reordered[t][i]
			if fetches-fetchTime[v] > cacheSize {
				fetchTime[v] = fetches
				fetches++
				misses++
			}
		}
		if size >= targetSize && misses > 0 || size >= 2*targetSize {
			k++
			start = append(start, uint32(t))
			size = 0
		}
		ids[t] = k
		size++
	}
	start = append(start, uint32(n))

	return &Clustering{Tris: reordered, IDs: ids, Start: start, Remap: remap}, nil
}
