// Package optimize is the public surface of the triangle reordering
// pipeline: clustering, per-cluster vertex cache ordering, overdraw-driven
// cluster ordering, and vertex memory remapping.
package optimize

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshorder/internal/cluster"
	"github.com/Faultbox/meshorder/internal/logger"
	"github.com/Faultbox/meshorder/internal/order"
	"github.com/Faultbox/meshorder/internal/raytrace"
	"github.com/Faultbox/meshorder/internal/vcache"
	"github.com/Faultbox/meshorder/pkg/math"
	"github.com/Faultbox/meshorder/pkg/mesh"
)

// Optimize runs the full pipeline: cluster the mesh, reorder triangles
// within each cluster for the vertex cache, then reorder whole clusters to
// cut overdraw. The input buffers are not modified.
func Optimize(vb []float32, stride int, ib []uint32, opts Options) (*Result, error) {
	m, err := buildMesh(vb, stride, ib, &opts)
	if err != nil {
		return nil, err
	}

	c, err := cluster.Grow(m, opts.TargetClusters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	logger.Debug("clustered mesh",
		zap.Int("triangles", m.NumTriangles()),
		zap.Int("clusters", c.NumClusters()))

	if err := orderWithinClusters(c, m.NumVertices(), &opts); err != nil {
		return nil, err
	}

	c, err = orderClusters(m, c, &opts)
	if err != nil {
		return nil, err
	}

	return resultFrom(c), nil
}

// FastOptimize runs the fused vertex-cache-and-cluster pass followed by the
// view-independent overdraw sort. It trades some overdraw reduction for a
// large constant-factor speedup over Optimize.
func FastOptimize(vb []float32, stride int, ib []uint32, opts Options) (*Result, error) {
	m, err := buildMesh(vb, stride, ib, &opts)
	if err != nil {
		return nil, err
	}

	c, err := cluster.Fast(m.T, m.NumVertices(), opts.CacheSize, opts.Alpha)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	logger.Debug("fast-clustered mesh",
		zap.Int("triangles", m.NumTriangles()),
		zap.Int("clusters", c.NumClusters()))

	c = order.Apply(c, order.Occluder(m.V, c))
	return resultFrom(c), nil
}

// ClusterMesh exposes the clustering stage alone. targetClusters is a hint;
// disconnected meshes may produce more clusters.
func ClusterMesh(vb []float32, stride int, ib []uint32, targetClusters int) ([]uint32, *Clustering, error) {
	opts := Options{}
	m, err := buildMesh(vb, stride, ib, &opts)
	if err != nil {
		return nil, nil, err
	}
	if targetClusters < 0 {
		return nil, nil, fmt.Errorf("%w: negative cluster hint %d", ErrInvalidArgs, targetClusters)
	}

	c, err := cluster.Grow(m, targetClusters)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	pub := publicClustering(c)
	return flatten(c.Tris), &pub, nil
}

// VCacheClusters reorders triangles for the cache within each cluster of a
// previously computed clustering, never crossing cluster boundaries.
func VCacheClusters(ib []uint32, cacheSize int, c *Clustering, strategy VCacheStrategy) ([]uint32, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: cluster the mesh first", ErrNotInitialized)
	}
	tris, err := unflatten(ib)
	if err != nil {
		return nil, err
	}
	if err := validateCacheSize(cacheSize); err != nil {
		return nil, err
	}
	if !checkClustering(c, len(tris)) {
		return nil, fmt.Errorf("%w: clustering inconsistent with index buffer", ErrInternal)
	}

	numVerts := maxIndex(ib) + 1
	out, _, err := vcache.OrderClusters(tris, c.Start, numVerts, cacheSize, strategy.internal())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return flatten(out), nil
}

// OptimizeVCache reorders the whole index buffer for the cache as a single
// cluster.
func OptimizeVCache(ib []uint32, cacheSize int, strategy VCacheStrategy) ([]uint32, error) {
	tris, err := unflatten(ib)
	if err != nil {
		return nil, err
	}
	if err := validateCacheSize(cacheSize); err != nil {
		return nil, err
	}

	numVerts := maxIndex(ib) + 1
	orderIdx, err := vcache.OrderRange(tris, 0, len(tris), numVerts, cacheSize, strategy.internal())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	out := make([][3]uint32, len(orderIdx))
	for i, t := range orderIdx {
		out[i] = tris[t]
	}
	return flatten(out), nil
}

// OptimizeOverdraw reorders the clusters of an already-clustered index
// buffer to cut overdraw, either by ray tracing the overdraw graph or by
// the fast occluder sort. Returns the reordered indices and the updated
// clustering.
func OptimizeOverdraw(vb []float32, stride int, ib []uint32, viewpoints []math.Vec3, w Winding, c *Clustering, opt OverdrawOptimizer, opts Options) ([]uint32, *Clustering, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("%w: cluster the mesh first", ErrNotInitialized)
	}
	opts.Viewpoints = viewpoints
	opts.Winding = w
	m, err := buildMesh(vb, stride, ib, &opts)
	if err != nil {
		return nil, nil, err
	}
	if !checkClustering(c, m.NumTriangles()) {
		return nil, nil, fmt.Errorf("%w: clustering inconsistent with index buffer", ErrInternal)
	}

	ic := &cluster.Clustering{
		Tris:  m.T,
		IDs:   c.IDs,
		Start: c.Start,
		Remap: identity(m.NumTriangles()),
	}
	opts.OverdrawOptimizer = opt
	ic, err = orderClusters(m, ic, &opts)
	if err != nil {
		return nil, nil, err
	}
	pub := publicClustering(ic)
	return flatten(ic.Tris), &pub, nil
}

// OptimizeVertexMemory permutes vertex storage into first-use order of the
// index stream and rewrites the indices to match. It returns the remapped
// vertex buffer, the rewritten indices, and the old-to-new vertex map so
// callers can rewrite external per-vertex attributes.
func OptimizeVertexMemory(vb []float32, stride int, ib []uint32) ([]float32, []uint32, []uint32, error) {
	opts := Options{}
	m, err := buildMesh(vb, stride, ib, &opts)
	if err != nil {
		return nil, nil, nil, err
	}

	remap := vcache.FirstUseOrder(m.T, m.NumVertices())
	outVB := vcache.RemapVertexBuffer(vb, stride, remap)
	outIB := flatten(vcache.RewriteIndices(m.T, remap))
	return outVB, outIB, remap, nil
}

// buildMesh validates the shared entry-point arguments and constructs the
// working mesh.
func buildMesh(vb []float32, stride int, ib []uint32, opts *Options) (*mesh.Mesh, error) {
	if len(vb) == 0 || len(ib) == 0 {
		return nil, fmt.Errorf("%w: empty vertex or index buffer", ErrInvalidArgs)
	}
	if stride < 3 {
		return nil, fmt.Errorf("%w: stride %d floats, need at least 3", ErrInvalidArgs, stride)
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if err := validateCacheSize(opts.CacheSize); err != nil {
		return nil, err
	}
	if opts.Winding != CCW && opts.Winding != CW {
		return nil, fmt.Errorf("%w: winding %d", ErrInvalidArgs, opts.Winding)
	}
	for i, p := range opts.Viewpoints {
		if l := p.Length(); l < 1-1e-3 || l > 1+1e-3 {
			return nil, fmt.Errorf("%w: viewpoint %d is not a unit vector (length %v)", ErrInvalidArgs, i, l)
		}
	}

	m, err := mesh.FromBuffers(vb, stride, ib)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if m.NumVertices() > MaxVertices || m.NumTriangles() > MaxFaces {
		return nil, fmt.Errorf("%w: mesh exceeds implementation limits", ErrInvalidArgs)
	}
	return m, nil
}

// orderWithinClusters runs the vertex cache stage over every cluster range
// and composes the triangle remap.
func orderWithinClusters(c *cluster.Clustering, numVerts int, opts *Options) error {
	tris, vremap, err := vcache.OrderClusters(c.Tris, c.Start, numVerts, opts.CacheSize, opts.VCacheStrategy.internal())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	remap := make([]uint32, len(vremap))
	for i, r := range vremap {
		remap[i] = c.Remap[r]
	}
	c.Tris = tris
	c.Remap = remap
	return nil
}

// orderClusters derives the cluster draw order, ray tracing the overdraw
// graph unless the fast path is selected or the cluster count passes the
// raytrace threshold.
func orderClusters(m *mesh.Mesh, c *cluster.Clustering, opts *Options) (*cluster.Clustering, error) {
	nc := c.NumClusters()
	if nc <= 1 {
		return c, nil
	}

	useRaytrace := opts.OverdrawOptimizer == OverdrawRaytrace ||
		(opts.OverdrawOptimizer == OverdrawAuto && nc <= RaytraceClusterThreshold)
	if !useRaytrace {
		return order.Apply(c, order.Occluder(m.V, c)), nil
	}

	viewpoints := opts.Viewpoints
	if len(viewpoints) == 0 {
		viewpoints = raytrace.DefaultViewpoints()
	}

	tr := raytrace.NewTracer(m.V, c.Tris, c.IDs)
	table, err := tr.OverdrawTable(viewpoints, opts.Resolution, nc, opts.Winding == CCW, opts.Cancel)
	if err != nil {
		if errors.Is(err, raytrace.ErrCancelled) {
			return nil, fmt.Errorf("%w: overdraw stage", ErrCancelled)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	pi := order.Feedback(nc, order.GraphFromTable(table))
	return order.Apply(c, pi), nil
}

func resultFrom(c *cluster.Clustering) *Result {
	return &Result{
		Indices:     flatten(c.Tris),
		NumClusters: c.NumClusters(),
		Clustering:  publicClustering(c),
		FaceRemap:   c.Remap,
	}
}

func validateCacheSize(cacheSize int) error {
	if cacheSize < MinCacheSize {
		return fmt.Errorf("%w: cache size %d, need at least %d", ErrInvalidArgs, cacheSize, MinCacheSize)
	}
	return nil
}

func checkClustering(c *Clustering, numTris int) bool {
	ic := cluster.Clustering{
		Tris:  make([][3]uint32, numTris),
		IDs:   c.IDs,
		Start: c.Start,
		Remap: make([]uint32, numTris),
	}
	return ic.Check(numTris)
}

func flatten(tris [][3]uint32) []uint32 {
	out := make([]uint32, 0, 3*len(tris))
	for _, t := range tris {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

func unflatten(ib []uint32) ([][3]uint32, error) {
	if len(ib) == 0 || len(ib)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d", ErrInvalidArgs, len(ib))
	}
	tris := make([][3]uint32, len(ib)/3)
	for i := range tris {
		tris[i] = [3]uint32{ib[3*i], ib[3*i+1], ib[3*i+2]}
	}
	return tris, nil
}

func maxIndex(ib []uint32) int {
	var m uint32
	for _, i := range ib {
		if i > m {
			m = i
		}
	}
	return int(m)
}

func identity(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
