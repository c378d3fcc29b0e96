package optimize

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshorder/internal/raytrace"
	"github.com/Faultbox/meshorder/internal/vcache"
	"github.com/Faultbox/meshorder/pkg/math"
)

// MeasureCacheEfficiency simulates a FIFO post-transform cache over the
// index stream and returns the ACMR: vertex fetches per triangle.
func MeasureCacheEfficiency(ib []uint32, cacheSize int) (float32, error) {
	tris, err := unflatten(ib)
	if err != nil {
		return 0, err
	}
	if err := validateCacheSize(cacheSize); err != nil {
		return 0, err
	}
	return vcache.ACMR(tris, maxIndex(ib)+1, cacheSize), nil
}

// MeasureOverdraw ray-traces the mesh from the given viewpoints (nil picks
// the canonical set) and returns the average and maximum per-pixel
// overdraw. res is the image size per viewpoint; 0 picks the default of
// 256.
func MeasureOverdraw(vb []float32, stride int, ib []uint32, viewpoints []math.Vec3, w Winding, res int) (avg, max float32, err error) {
	opts := Options{Winding: w, Viewpoints: viewpoints}
	m, err := buildMesh(vb, stride, ib, &opts)
	if err != nil {
		return 0, 0, err
	}

	if len(viewpoints) == 0 {
		viewpoints = raytrace.DefaultViewpoints()
	}
	tr := raytrace.NewTracer(m.V, m.T, nil)
	avg, max, err = tr.Measure(viewpoints, res, w == CCW, nil)
	if err != nil {
		if errors.Is(err, raytrace.ErrCancelled) {
			return 0, 0, fmt.Errorf("%w: overdraw measurement", ErrCancelled)
		}
		return 0, 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return avg, max, nil
}
