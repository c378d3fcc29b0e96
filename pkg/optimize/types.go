package optimize

import (
	"github.com/Faultbox/meshorder/internal/cluster"
	"github.com/Faultbox/meshorder/internal/vcache"
	"github.com/Faultbox/meshorder/pkg/math"
)

// Implementation limits on mesh size.
const (
	MaxVertices = 1<<31 - 1
	MaxFaces    = 1<<31 - 1
)

// MinCacheSize is the smallest simulated post-transform cache.
const MinCacheSize = 3

// DefaultCacheSize mirrors vcache.DefaultCacheSize at the public surface.
const DefaultCacheSize = vcache.DefaultCacheSize

// RaytraceClusterThreshold is the cluster count above which the Auto
// overdraw optimizer switches from ray tracing to the fast ordering.
const RaytraceClusterThreshold = 225

// Winding names the front-face vertex order of the input mesh.
type Winding int

const (
	// CCW front faces wind counter-clockwise.
	CCW Winding = iota
	// CW front faces wind clockwise.
	CW
)

func (w Winding) String() string {
	if w == CW {
		return "cw"
	}
	return "ccw"
}

// VCacheStrategy selects the per-cluster triangle ordering algorithm.
type VCacheStrategy int

const (
	// StrategyAuto picks LStrips for tiny caches, Tipsy otherwise.
	StrategyAuto VCacheStrategy = iota
	// StrategyLStrips walks greedy list-like strips.
	StrategyLStrips
	// StrategyTipsy is the cache-aware fanning greedy.
	StrategyTipsy
	// StrategyD3D is accepted as an alias for Tipsy.
	StrategyD3D
)

func (s VCacheStrategy) internal() vcache.Strategy {
	switch s {
	case StrategyLStrips:
		return vcache.LStrips
	case StrategyTipsy:
		return vcache.Tipsy
	case StrategyD3D:
		return vcache.D3D
	default:
		return vcache.Auto
	}
}

// OverdrawOptimizer selects how the cluster draw order is derived.
type OverdrawOptimizer int

const (
	// OverdrawAuto ray-traces up to RaytraceClusterThreshold clusters and
	// falls back to the fast ordering beyond it.
	OverdrawAuto OverdrawOptimizer = iota
	// OverdrawRaytrace always builds the overdraw graph by ray tracing.
	OverdrawRaytrace
	// OverdrawFast always uses the view-independent occluder sort.
	OverdrawFast
)

// Options parameterizes Optimize and FastOptimize. The zero value picks
// the documented defaults.
type Options struct {
	// CacheSize is the simulated post-transform cache size; 0 means
	// DefaultCacheSize. Values below MinCacheSize are rejected.
	CacheSize int
	// Winding is the front-face winding of the input.
	Winding Winding
	// Viewpoints are unit directions overdraw is measured from; nil or
	// empty selects the canonical built-in set.
	Viewpoints []math.Vec3
	// VCacheStrategy picks the per-cluster triangle orderer.
	VCacheStrategy VCacheStrategy
	// OverdrawOptimizer picks the cluster ordering path (Optimize only).
	OverdrawOptimizer OverdrawOptimizer
	// TargetClusters is the clustering hint; 0 means automatic. The
	// result may exceed it on disconnected meshes.
	TargetClusters int
	// Resolution is the overdraw image size per viewpoint; 0 means the
	// library default of 256.
	Resolution int
	// Alpha is the fused pass's cluster-size/overdraw trade-off
	// (FastOptimize only): 0 selects the published default of 0.75, and
	// any value >= 1 is accepted as given.
	Alpha float32
	// Cancel, when non-nil, is polled during ray tracing; returning true
	// aborts the call with ErrCancelled.
	Cancel func() bool
}

// Clustering is a cluster assignment over a triangle stream, as produced by
// ClusterMesh: triangle t belongs to cluster k iff Start[k] <= t <
// Start[k+1], and IDs[t] == k.
type Clustering struct {
	IDs   []uint32
	Start []uint32
}

// NumClusters returns the cluster count.
func (c *Clustering) NumClusters() int {
	if c == nil || len(c.Start) == 0 {
		return 0
	}
	return len(c.Start) - 1
}

// Result is the output of Optimize and FastOptimize.
type Result struct {
	// Indices is the reordered flat index buffer.
	Indices []uint32
	// NumClusters is the cluster count of the final ordering.
	NumClusters int
	// Clustering describes the final cluster layout over Indices.
	Clustering Clustering
	// FaceRemap maps each output triangle position to the input triangle
	// it came from.
	FaceRemap []uint32
}

func publicClustering(c *cluster.Clustering) Clustering {
	return Clustering{IDs: c.IDs, Start: c.Start}
}
