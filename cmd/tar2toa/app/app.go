package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/landsat-toa/internal/calibration"
	"github.com/roman-kulish/landsat-toa/internal/catalog"
	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/pipeline"
	"github.com/roman-kulish/landsat-toa/internal/raster"
	"github.com/roman-kulish/landsat-toa/internal/raster/gdal"
)

// ErrBatchFailed is returned when at least one archive could not be converted
var ErrBatchFailed = errors.New("batch failed")

// renderer produces side products from the calibrated bands of a conversion
type renderer interface {
	Observe(scene *landsat.Scene, band landsat.Descriptor, grid raster.Grid, data []float64, nodata float64) error
	Save(outDir, sceneID string) ([]string, error)
	Reset()
}

type recorder interface {
	InsertConversion(ctx context.Context, c *catalog.Conversion, bands []catalog.BandStat) (string, error)
}

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	driver := gdal.New(gdal.WithCreationOptions(config.Output.CreationOptions...))
	return run(ctx, config, driver, driver, logger)
}

func run(ctx context.Context, config *Config, reader raster.Reader, creator raster.Creator, logger *slog.Logger) error {
	if err := os.MkdirAll(config.Output.Directory, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var renderers []renderer
	options := []func(*pipeline.Converter){
		pipeline.WithLogger(logger),
		pipeline.WithFootprint(config.Output.Footprint),
	}

	if config.Output.Quicklook.Band != "" {
		q, err := NewQuicklook(config.Output.Quicklook)
		if err != nil {
			return fmt.Errorf("creating quicklook: %w", err)
		}
		renderers = append(renderers, q)
		options = append(options, pipeline.WithBandObserver(q.Observe))
	}
	if config.Output.Histograms {
		h := NewHistograms()
		renderers = append(renderers, h)
		options = append(options, pipeline.WithBandObserver(h.Observe))
	}

	var rec recorder
	if config.Catalog.Path != "" {
		store := catalog.NewSqliteStore(config.Catalog.Path)
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing catalog", slog.String("error", err.Error()))
			}
		}()
		rec = store
	}

	converter := pipeline.NewConverter(reader, creator, config.Output.Directory, options...)

	logger.Info("starting conversion",
		slog.Int("archives", len(config.Archives)),
		slog.String("output", config.Output.Directory),
		slog.Bool("failFast", config.Settings.FailFast))

	var failed int
	for i, archive := range config.Archives {
		if err := ctx.Err(); err != nil {
			return err
		}

		alog := logger.With(slog.String("archive", archive), slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(config.Archives))))

		started := time.Now()
		result, err := converter.Convert(ctx, archive)
		if err == nil {
			saveRenderers(renderers, config.Output.Directory, result.SceneID, alog)
		}
		for _, r := range renderers {
			r.Reset()
		}
		finished := time.Now()

		if rec != nil {
			// the outcome is recorded even when the batch is being interrupted
			if rErr := record(context.WithoutCancel(ctx), rec, archive, result, err, started, finished); rErr != nil {
				alog.Warn("recording conversion", slog.String("error", rErr.Error()))
			}
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}

			failed++
			alog.Error("conversion failed", slog.String("error", err.Error()))
			if config.Settings.FailFast {
				return fmt.Errorf("converting '%s': %w", archive, err)
			}
			continue
		}

		alog.Info("product written",
			slog.String("scene", result.SceneID),
			slog.String("output", result.Output),
			slog.String("size", humanize.Bytes(uint64(result.OutputSize))),
			slog.Int("bands", len(result.Bands)),
			slog.String("maskedPixels", humanize.Comma(int64(result.MaskedPixels))),
			slog.Duration("elapsed", result.Elapsed.Round(time.Millisecond)))
	}

	logger.Info("conversion finished",
		slog.Int("succeeded", len(config.Archives)-failed),
		slog.Int("failed", failed))

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d archives failed", ErrBatchFailed, failed, len(config.Archives))
	}
	return nil
}

// saveRenderers writes the side products of a converted scene. A failed
// preview does not fail the conversion.
func saveRenderers(renderers []renderer, outDir, sceneID string, logger *slog.Logger) {
	for _, r := range renderers {
		paths, err := r.Save(outDir, sceneID)
		for _, p := range paths {
			logger.Debug("preview written", slog.String("path", p))
		}
		if err != nil {
			logger.Warn("saving preview", slog.String("error", err.Error()))
		}
	}
}

// record stores the outcome of one archive. result is nil when the
// conversion failed.
func record(ctx context.Context, rec recorder, archive string, result *pipeline.Result, convErr error, started, finished time.Time) error {
	c := &catalog.Conversion{
		Archive:    archive,
		SceneID:    landsat.SceneID(archive),
		Status:     catalog.StatusSucceeded,
		StartedAt:  started,
		FinishedAt: finished,
	}

	if convErr != nil || result == nil {
		c.Status = catalog.StatusFailed
		if convErr != nil {
			msg := convErr.Error()
			c.Error = &msg
		}
		_, err := rec.InsertConversion(ctx, c, nil)
		return err
	}

	c.SceneID = result.SceneID
	c.Output = &result.Output
	size := result.OutputSize
	c.OutputSize = &size
	masked := int64(result.MaskedPixels)
	c.MaskedPixels = &masked

	if m := result.Metadata; m != nil {
		if m.ProductID != "" {
			c.ProductID = &m.ProductID
		}
		if !m.DateAcquired.IsZero() {
			acquired := m.DateAcquired
			c.Acquired = &acquired
		}
		c.CloudCover = m.CloudCover
		c.SunElevation = m.SunElevation
	}

	stats := make([]catalog.BandStat, 0, len(result.Bands))
	for _, b := range result.Bands {
		stats = append(stats, bandStat(b.Descriptor.Index, b.Descriptor.Name, b.Stats))
	}

	_, err := rec.InsertConversion(ctx, c, stats)
	return err
}

func bandStat(index int, name string, s calibration.Stats) catalog.BandStat {
	bs := catalog.BandStat{
		Index:  index,
		Name:   name,
		Valid:  int64(s.Valid),
		NoData: int64(s.NoData),
	}
	if s.Valid > 0 && !math.IsNaN(s.Mean) {
		minV, maxV, mean := s.Min, s.Max, s.Mean
		bs.Min, bs.Max, bs.Mean = &minV, &maxV, &mean
	}
	return bs
}
