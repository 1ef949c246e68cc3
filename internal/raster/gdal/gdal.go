// Package gdal reads and writes rasters through the GDAL library
package gdal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/roman-kulish/landsat-toa/internal/raster"
)

var registerOnce sync.Once

// Driver is a raster.Reader and raster.Creator backed by GDAL
type Driver struct {
	creationOptions []string
}

// WithCreationOptions sets GTiff creation options such as "COMPRESS=DEFLATE"
func WithCreationOptions(opts ...string) func(g *Driver) {
	return func(g *Driver) {
		g.creationOptions = append(g.creationOptions, opts...)
	}
}

// New registers the GDAL drivers, once per process, and returns a reader and
// creator backed by them
func New(options ...func(g *Driver)) *Driver {
	registerOnce.Do(godal.RegisterAll)

	g := Driver{}
	for _, option := range options {
		option(&g)
	}
	return &g
}

// Read opens the raster at path and loads its first band
func (g *Driver) Read(path string) (r *raster.Raster, err error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening '%s': %w", path, err)
	}
	defer func() {
		if cErr := ds.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing '%s': %w", path, cErr)
		}
	}()

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("'%s' has no bands", path)
	}

	st := ds.Structure()
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("reading geotransform of '%s': %w", path, err)
	}

	r = &raster.Raster{
		Grid: raster.Grid{
			Width:        st.SizeX,
			Height:       st.SizeY,
			GeoTransform: gt,
			Projection:   ds.Projection(),
		},
		Data: make([]float64, st.SizeX*st.SizeY),
	}
	if err = bands[0].Read(0, 0, r.Data, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("reading '%s': %w", path, err)
	}
	r.NoData, r.HasNoData = bands[0].NoData()

	return r, nil
}

// Create creates a GTiff dataset with Float64 bands on the given grid
func (g *Driver) Create(path string, grid raster.Grid, bands int) (raster.Dataset, error) {
	var opts []godal.DatasetCreateOption
	if len(g.creationOptions) > 0 {
		opts = append(opts, godal.CreationOption(g.creationOptions...))
	}

	ds, err := godal.Create(godal.GTiff, path, bands, godal.Float64, grid.Width, grid.Height, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating '%s': %w", path, err)
	}

	if grid.Projection != "" {
		if err = ds.SetProjection(grid.Projection); err != nil {
			return nil, errors.Join(fmt.Errorf("setting projection: %w", err), ds.Close())
		}
	}
	if err = ds.SetGeoTransform(grid.GeoTransform); err != nil {
		return nil, errors.Join(fmt.Errorf("setting geotransform: %w", err), ds.Close())
	}

	return &gdalDataset{ds: ds, grid: grid}, nil
}

type gdalDataset struct {
	ds   *godal.Dataset
	grid raster.Grid
}

// WriteBand writes the samples of the 1-based band n and tags it
func (d *gdalDataset) WriteBand(n int, data []float64, description string, nodata float64) error {
	bands := d.ds.Bands()
	if n < 1 || n > len(bands) {
		return fmt.Errorf("band %d out of range [1, %d]", n, len(bands))
	}
	if len(data) != d.grid.Size() {
		return fmt.Errorf("band %d has %d samples, expected %d", n, len(data), d.grid.Size())
	}

	band := bands[n-1]
	if err := band.Write(0, 0, data, d.grid.Width, d.grid.Height); err != nil {
		return fmt.Errorf("writing band %d: %w", n, err)
	}
	if err := band.SetDescription(description); err != nil {
		return fmt.Errorf("setting band %d description: %w", n, err)
	}
	if err := band.SetNoData(nodata); err != nil {
		return fmt.Errorf("setting band %d nodata: %w", n, err)
	}
	return nil
}

func (d *gdalDataset) Close() error {
	return d.ds.Close()
}

var (
	_ raster.Reader  = (*Driver)(nil)
	_ raster.Creator = (*Driver)(nil)
)
