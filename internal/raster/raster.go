// Package raster is the thin seam between the calibration pipeline and the
// raster library doing the actual encoding.
package raster

import "fmt"

// Grid is the pixel grid shared by all bands of a dataset
type Grid struct {
	Width        int
	Height       int
	GeoTransform [6]float64 // GDAL affine transform, pixel to projected coordinates
	Projection   string     // WKT spatial reference
}

// Size returns the number of pixels of the grid
func (g Grid) Size() int {
	return g.Width * g.Height
}

// SameShape reports whether both grids have the same pixel dimensions
func (g Grid) SameShape(o Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// Raster is a single band read into memory, samples in row-major order
type Raster struct {
	Grid
	Data      []float64
	NoData    float64
	HasNoData bool
}

// At returns the sample at column x and row y
func (r *Raster) At(x, y int) float64 {
	return r.Data[y*r.Width+x]
}

// Validate checks the sample buffer matches the grid
func (r *Raster) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", r.Width, r.Height)
	}
	if len(r.Data) != r.Size() {
		return fmt.Errorf("raster has %d samples, expected %d for %dx%d", len(r.Data), r.Size(), r.Width, r.Height)
	}
	return nil
}

// Reader opens single band rasters by path. Paths may be GDAL virtual file
// system paths such as /vsitar/.
type Reader interface {
	Read(path string) (*Raster, error)
}

// Creator creates multi-band Float64 datasets for writing
type Creator interface {
	Create(path string, grid Grid, bands int) (Dataset, error)
}

// Dataset is an open, writable multi-band dataset. Close flushes it to disk
// and must be called on every path.
type Dataset interface {
	WriteBand(n int, data []float64, description string, nodata float64) error
	Close() error
}
