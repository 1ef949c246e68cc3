package landsat

import (
	"fmt"

	"github.com/roman-kulish/landsat-toa/internal/raster"
)

// DefaultNoData is used for tiles that do not declare a nodata value; DN 0 is
// the Landsat Level-1 fill value.
const DefaultNoData = 0.0

// BandRecord is a band tile read from an archive together with the
// calibration coefficients of its band. It is built once and not modified
// afterwards; callers must not write into the slice returned by Data.
type BandRecord struct {
	descriptor   Descriptor
	raster       *raster.Raster
	coefficients Coefficients
	nodata       float64
}

// NewBandRecord builds a record from a raster and the coefficients parsed for
// the descriptor's band
func NewBandRecord(d Descriptor, r *raster.Raster, c Coefficients) (*BandRecord, error) {
	if r == nil {
		return nil, fmt.Errorf("band %s: nil raster", d.Name)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("band %s: %w", d.Name, err)
	}

	nodata := DefaultNoData
	if r.HasNoData {
		nodata = r.NoData
	}

	return &BandRecord{
		descriptor:   d,
		raster:       r,
		coefficients: c,
		nodata:       nodata,
	}, nil
}

func (b *BandRecord) Descriptor() Descriptor {
	return b.descriptor
}

func (b *BandRecord) Name() string {
	return b.descriptor.Name
}

func (b *BandRecord) Type() BandType {
	return b.descriptor.Type
}

// Data returns the raw digital numbers in row-major order
func (b *BandRecord) Data() []float64 {
	return b.raster.Data
}

// NoData returns the band's nodata sentinel
func (b *BandRecord) NoData() float64 {
	return b.nodata
}

func (b *BandRecord) Grid() raster.Grid {
	return b.raster.Grid
}

func (b *BandRecord) Coefficients() Coefficients {
	return b.coefficients
}
