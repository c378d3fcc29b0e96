package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshorder/pkg/math"
)

// Viewpoint file errors.
var (
	ErrViewpointCount   = errors.New("viewpoints: bad or missing count line")
	ErrViewpointRecord  = errors.New("viewpoints: malformed viewpoint line")
	ErrViewpointNotUnit = errors.New("viewpoints: direction is not a unit vector")
)

// unitTolerance is how far a viewpoint's length may stray from 1.
const unitTolerance = 1e-3

// ReadViewpoints parses a viewpoint file: a count line followed by one
// "x y z" unit direction per line. Overdraw is measured looking from each
// direction at the origin.
func ReadViewpoints(r io.Reader) ([]math.Vec3, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, ErrViewpointCount
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || count < 1 {
		return nil, fmt.Errorf("%w: %q", ErrViewpointCount, strings.TrimSpace(scanner.Text()))
	}

	out := make([]math.Vec3, 0, count)
	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: want %d viewpoints, got %d", ErrViewpointRecord, count, i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d", ErrViewpointRecord, i+2)
		}
		var p math.Vec3
		for c, field := range fields {
			f, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrViewpointRecord, i+2, err)
			}
			switch c {
			case 0:
				p.X = float32(f)
			case 1:
				p.Y = float32(f)
			default:
				p.Z = float32(f)
			}
		}
		if l := p.Length(); l < 1-unitTolerance || l > 1+unitTolerance {
			return nil, fmt.Errorf("%w: line %d has length %v", ErrViewpointNotUnit, i+2, l)
		}
		out = append(out, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("viewpoints: reading: %w", err)
	}
	return out, nil
}
