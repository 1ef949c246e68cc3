package calibration

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
)

var (
	// ErrDegenerate is returned when the transform of a band is undefined, e.g.
	// a zero sun elevation or a zero radiance on a valid pixel
	ErrDegenerate = errors.New("degenerate calibration arithmetic")

	// ErrNotCalibrated is returned for bands without a radiometric transform
	ErrNotCalibrated = errors.New("band type has no calibration")

	// ErrShapeMismatch is returned when rasters that must share a grid do not
	ErrShapeMismatch = errors.New("raster shape mismatch")
)

// TypeError is returned when a band of the wrong type is passed for calibration
type TypeError struct {
	Band string
	Type landsat.BandType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("band %s: type '%s' cannot be calibrated", e.Band, e.Type)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrNotCalibrated
}

// DegenerateError describes where the transform of a band is undefined
type DegenerateError struct {
	Band   string
	Reason string
	Pixels int // number of affected pixels, 0 when the whole band is affected
}

func (e *DegenerateError) Error() string {
	if e.Pixels > 0 {
		return fmt.Sprintf("band %s: %s on %d pixels", e.Band, e.Reason, e.Pixels)
	}
	return fmt.Sprintf("band %s: %s", e.Band, e.Reason)
}

func (e *DegenerateError) Is(target error) bool {
	return target == ErrDegenerate
}

// ShapeMismatchError names two rasters with different dimensions
type ShapeMismatchError struct {
	A, B            string
	AWidth, AHeight int
	BWidth, BHeight int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s is %dx%d but %s is %dx%d", e.A, e.AWidth, e.AHeight, e.B, e.BWidth, e.BHeight)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}
