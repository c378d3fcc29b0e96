package vcache

import (
	"errors"
	"fmt"
)

// Strategy selects the per-cluster triangle ordering algorithm.
type Strategy int

const (
	// Auto picks LStrips for caches of 6 entries or fewer, Tipsy otherwise.
	Auto Strategy = iota
	// LStrips walks greedy list-like strips.
	LStrips
	// Tipsy is the SIGGRAPH 2007 cache-aware fanning greedy.
	Tipsy
	// D3D is accepted as an alias for Tipsy.
	D3D
)

// ErrUnknownStrategy reports a Strategy value outside the enum.
var ErrUnknownStrategy = errors.New("unknown vertex cache strategy")

// autoThreshold is the cache size at or below which Auto switches from
// Tipsy to LStrips.
const autoThreshold = 6

func (s Strategy) String() string {
	switch s {
	case Auto:
		return "auto"
	case LStrips:
		return "lstrips"
	case Tipsy:
		return "tipsy"
	case D3D:
		return "d3d"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// resolve maps Auto and the D3D alias onto a concrete algorithm.
func (s Strategy) resolve(cacheSize int) (Strategy, error) {
	switch s {
	case Auto:
		if cacheSize <= autoThreshold {
			return LStrips, nil
		}
		return Tipsy, nil
	case LStrips, Tipsy:
		return s, nil
	case D3D:
		return Tipsy, nil
	default:
		return s, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
}

// OrderRange reorders tris[lo:hi] for the cache and returns the order as
// absolute triangle positions.
func OrderRange(tris [][3]uint32, lo, hi, numVerts, cacheSize int, s Strategy) ([]uint32, error) {
	algo, err := s.resolve(cacheSize)
	if err != nil {
		return nil, err
	}
	if algo == LStrips {
		return lstripsRange(tris, lo, hi, numVerts, cacheSize), nil
	}
	return tipsifyRange(tris, lo, hi, numVerts, cacheSize), nil
}

// OrderClusters reorders the triangles within each cluster range for the
// cache, never moving a triangle across a cluster boundary. start must be
// the cluster prefix table (start[0] == 0, start[len-1] == len(tris)).
// Returns the reordered triangles and the applied permutation
// (new position -> old position).
func OrderClusters(tris [][3]uint32, start []uint32, numVerts, cacheSize int, s Strategy) ([][3]uint32, []uint32, error) {
	out := make([][3]uint32, 0, len(tris))
	remap := make([]uint32, 0, len(tris))

	for k := 0; k+1 < len(start); k++ {
		lo, hi := int(start[k]), int(start[k+1])
		order, err := OrderRange(tris, lo, hi, numVerts, cacheSize, s)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range order {
			out = append(out, tris[t])
			remap = append(remap, t)
		}
	}
	return out, remap, nil
}
