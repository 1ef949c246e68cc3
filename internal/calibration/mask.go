package calibration

import (
	"fmt"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
)

// PixelQABits selects the QA_PIXEL flags that invalidate a pixel: fill,
// dilated cloud, cirrus, cloud and cloud shadow.
const PixelQABits = 0b11111

// Mask marks pixels that are invalid in every output band
type Mask struct {
	Width   int
	Height  int
	Invalid []bool // row-major, true where the pixel is invalid
}

// BuildMask combines the pixel QA and radiometric saturation QA bands into one
// mask. A pixel is invalid when any of the low five QA_PIXEL bits is set or
// when any band is flagged saturated. The inputs are not modified.
func BuildMask(pixelQA, radsatQA *landsat.BandRecord) (*Mask, error) {
	pg, rg := pixelQA.Grid(), radsatQA.Grid()
	if !pg.SameShape(rg) {
		return nil, &ShapeMismatchError{
			A: pixelQA.Name(), AWidth: pg.Width, AHeight: pg.Height,
			B: radsatQA.Name(), BWidth: rg.Width, BHeight: rg.Height,
		}
	}

	pixel, radsat := pixelQA.Data(), radsatQA.Data()
	m := &Mask{
		Width:   pg.Width,
		Height:  pg.Height,
		Invalid: make([]bool, len(pixel)),
	}
	for i := range pixel {
		m.Invalid[i] = pixelFlagged(pixel[i]) || radsat[i] != 0
	}

	return m, nil
}

func pixelFlagged(v float64) bool {
	return uint64(v)&PixelQABits != 0
}

// Count returns the number of invalid pixels
func (m *Mask) Count() int {
	var n int
	for _, invalid := range m.Invalid {
		if invalid {
			n++
		}
	}
	return n
}

// Apply overwrites every invalid position of data with nodata
func (m *Mask) Apply(data []float64, nodata float64) error {
	if len(data) != len(m.Invalid) {
		return fmt.Errorf("applying mask: %w: %d samples against %d mask pixels", ErrShapeMismatch, len(data), len(m.Invalid))
	}
	for i, invalid := range m.Invalid {
		if invalid {
			data[i] = nodata
		}
	}
	return nil
}
