// Package rastertest provides in-memory raster collaborators for tests
package rastertest

import (
	"fmt"
	"os"
	"sync"

	"github.com/roman-kulish/landsat-toa/internal/raster"
)

// Reader serves rasters from memory, keyed by path
type Reader struct {
	Rasters map[string]*raster.Raster
	Errors  map[string]error

	mu    sync.Mutex
	reads []string
}

// NewReader creates an empty reader
func NewReader() *Reader {
	return &Reader{
		Rasters: make(map[string]*raster.Raster),
		Errors:  make(map[string]error),
	}
}

func (r *Reader) Read(path string) (*raster.Raster, error) {
	r.mu.Lock()
	r.reads = append(r.reads, path)
	r.mu.Unlock()

	if err, ok := r.Errors[path]; ok {
		return nil, err
	}
	rs, ok := r.Rasters[path]
	if !ok {
		return nil, fmt.Errorf("no raster at '%s'", path)
	}
	return rs, nil
}

// Reads returns the paths read so far, in order
func (r *Reader) Reads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reads...)
}

// Band is one band written to a Dataset
type Band struct {
	Data        []float64
	Description string
	NoData      float64
}

// Dataset records everything written to it
type Dataset struct {
	Path   string
	Grid   raster.Grid
	Bands  []Band
	Closed bool

	failWriteAt int
}

func (d *Dataset) WriteBand(n int, data []float64, description string, nodata float64) error {
	if n < 1 || n > len(d.Bands) {
		return fmt.Errorf("band %d out of range [1, %d]", n, len(d.Bands))
	}
	if n == d.failWriteAt {
		return fmt.Errorf("injected write failure on band %d", n)
	}
	d.Bands[n-1] = Band{
		Data:        append([]float64(nil), data...),
		Description: description,
		NoData:      nodata,
	}
	return nil
}

func (d *Dataset) Close() error {
	d.Closed = true
	return nil
}

// Creator creates in-memory datasets. The destination file is created empty
// so callers can move it around like a real product.
type Creator struct {
	Datasets  []*Dataset
	CreateErr error // returned by Create when set
	FailWrite int   // 1-based band index whose write fails, 0 for none
}

func (c *Creator) Create(path string, grid raster.Grid, bands int) (raster.Dataset, error) {
	if c.CreateErr != nil {
		return nil, c.CreateErr
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err = f.Close(); err != nil {
		return nil, err
	}

	ds := &Dataset{Path: path, Grid: grid, Bands: make([]Band, bands), failWriteAt: c.FailWrite}
	c.Datasets = append(c.Datasets, ds)
	return ds, nil
}

// Last returns the most recently created dataset, or nil
func (c *Creator) Last() *Dataset {
	if len(c.Datasets) == 0 {
		return nil
	}
	return c.Datasets[len(c.Datasets)-1]
}

// Uniform returns a width x height raster filled with value
func Uniform(width, height int, value, nodata float64) *raster.Raster {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = value
	}
	return FromData(width, height, data, nodata)
}

// FromData wraps samples into a raster with a fixed UTM-like grid
func FromData(width, height int, data []float64, nodata float64) *raster.Raster {
	return &raster.Raster{
		Grid: raster.Grid{
			Width:        width,
			Height:       height,
			GeoTransform: [6]float64{399960, 30, 0, 4800000, 0, -30},
			Projection:   `PROJCS["WGS 84 / UTM zone 35N"]`,
		},
		Data:      data,
		NoData:    nodata,
		HasNoData: true,
	}
}
