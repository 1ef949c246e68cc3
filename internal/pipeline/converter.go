// Package pipeline drives the conversion of one Level-1 archive into a
// calibrated TOA product
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/landsat-toa/internal/calibration"
	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/product"
	"github.com/roman-kulish/landsat-toa/internal/raster"
)

const productExt = ".TIF"

// BandObserver is called with every calibrated, masked band before it is
// written. It must not keep or modify data.
type BandObserver func(scene *landsat.Scene, band landsat.Descriptor, grid raster.Grid, data []float64, nodata float64) error

// BandResult describes one band of a written product
type BandResult struct {
	Descriptor landsat.Descriptor
	NoData     float64
	Stats      calibration.Stats
}

// Result describes a converted archive
type Result struct {
	Archive      string
	SceneID      string
	Metadata     *landsat.Metadata
	Output       string
	OutputSize   int64
	Footprint    string // GeoJSON sidecar, empty when not written
	MaskedPixels int
	Bands        []BandResult
	Elapsed      time.Duration
}

// WithLogger sets the logger for the converter
func WithLogger(logger *slog.Logger) func(c *Converter) {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithBandObserver registers an observer for calibrated bands
func WithBandObserver(o BandObserver) func(c *Converter) {
	return func(c *Converter) {
		c.observers = append(c.observers, o)
	}
}

// WithFootprint enables writing a GeoJSON footprint next to every product
func WithFootprint(enabled bool) func(c *Converter) {
	return func(c *Converter) {
		c.footprint = enabled
	}
}

// Converter turns Level-1 archives into calibrated products in an output directory
type Converter struct {
	reader    raster.Reader
	creator   raster.Creator
	outputDir string
	footprint bool
	observers []BandObserver
	logger    *slog.Logger
}

// NewConverter creates a Converter with a discard logger
func NewConverter(reader raster.Reader, creator raster.Creator, outputDir string, options ...func(c *Converter)) *Converter {
	c := Converter{
		reader:    reader,
		creator:   creator,
		outputDir: outputDir,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// OutputPath returns the product path for an archive
func (c *Converter) OutputPath(archivePath string) string {
	return filepath.Join(c.outputDir, landsat.SceneID(archivePath)+productExt)
}

// Convert loads the archive, builds the validity mask from the QA bands,
// calibrates every product band, stamps the mask and writes the product. On
// error nothing is left at the output path.
func (c *Converter) Convert(ctx context.Context, archivePath string) (*Result, error) {
	start := time.Now()
	logger := c.logger.With(slog.String("archive", archivePath))

	scene, err := landsat.LoadArchive(archivePath, c.reader)
	if err != nil {
		return nil, fmt.Errorf("loading archive: %w", err)
	}
	logger.Debug("archive loaded", slog.String("scene", scene.ID), slog.Int("bands", len(scene.Bands)))
	for _, skipped := range scene.Metadata.Skipped {
		logger.Warn("ignoring scene attribute", slog.String("error", skipped.Error()))
	}

	pixelQA, err := scene.Band(landsat.BandQAPixel)
	if err != nil {
		return nil, err
	}
	radsatQA, err := scene.Band(landsat.BandQARadsat)
	if err != nil {
		return nil, err
	}

	mask, err := calibration.BuildMask(pixelQA, radsatQA)
	if err != nil {
		return nil, fmt.Errorf("building mask: %w", err)
	}

	result := &Result{
		Archive:      archivePath,
		SceneID:      scene.ID,
		Metadata:     scene.Metadata,
		Output:       c.OutputPath(archivePath),
		MaskedPixels: mask.Count(),
	}
	logger.Debug("validity mask built", slog.Int("maskedPixels", result.MaskedPixels))

	grid := pixelQA.Grid()
	bands := product.Select(scene.Ordered())

	// only the product bands are kept in memory past this point, each until
	// it has been written
	selected := make(map[string]bool, len(bands))
	for _, b := range bands {
		selected[b.Name()] = true
	}
	for name := range scene.Bands {
		if !selected[name] {
			scene.Release(name)
		}
	}

	w, err := product.Create(c.creator, result.Output, grid, len(bands))
	if err != nil {
		return nil, err
	}
	defer func() {
		if aErr := w.Abort(); aErr != nil {
			logger.Warn("releasing product", slog.String("error", aErr.Error()))
		}
	}()

	for i, b := range bands {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		br, err := c.processBand(scene, b, mask, grid, w)
		if err != nil {
			return nil, err
		}
		result.Bands = append(result.Bands, br)

		scene.Release(b.Name())
		bands[i] = nil

		logger.Debug("band written",
			slog.String("band", b.Name()),
			slog.Int("valid", br.Stats.Valid),
			slog.Float64("mean", br.Stats.Mean))
	}

	if err = w.Commit(); err != nil {
		return nil, err
	}

	if fi, err := os.Stat(result.Output); err == nil {
		result.OutputSize = fi.Size()
	}

	if c.footprint {
		if result.Footprint, err = c.writeFootprint(scene); err != nil {
			logger.Warn("skipping footprint", slog.String("error", err.Error()))
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

func (c *Converter) processBand(scene *landsat.Scene, b *landsat.BandRecord, mask *calibration.Mask, grid raster.Grid, w *product.Writer) (BandResult, error) {
	if !b.Grid().SameShape(grid) {
		return BandResult{}, &calibration.ShapeMismatchError{
			A: b.Name(), AWidth: b.Grid().Width, AHeight: b.Grid().Height,
			B: landsat.BandQAPixel, BWidth: grid.Width, BHeight: grid.Height,
		}
	}

	data, err := calibration.Calibrate(b)
	if err != nil {
		return BandResult{}, fmt.Errorf("calibrating: %w", err)
	}
	if err = mask.Apply(data, b.NoData()); err != nil {
		return BandResult{}, fmt.Errorf("band %s: %w", b.Name(), err)
	}

	for _, o := range c.observers {
		if err = o(scene, b.Descriptor(), grid, data, b.NoData()); err != nil {
			return BandResult{}, fmt.Errorf("observing band %s: %w", b.Name(), err)
		}
	}

	if err = w.WriteBand(b.Name(), data, b.NoData()); err != nil {
		return BandResult{}, err
	}

	return BandResult{
		Descriptor: b.Descriptor(),
		NoData:     b.NoData(),
		Stats:      calibration.Summarize(data, b.NoData()),
	}, nil
}

func (c *Converter) writeFootprint(scene *landsat.Scene) (string, error) {
	f, err := product.Footprint(scene.ID, scene.Metadata)
	if err != nil {
		return "", err
	}

	path := filepath.Join(c.outputDir, scene.ID+".geojson")
	if err = product.WriteFootprint(path, f); err != nil {
		return "", err
	}
	return path, nil
}
