package app

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/landsat-toa/internal/calibration"
	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/raster"
)

const quicklookSuffix = "_quicklook.png"

// Quicklook renders a downsampled, color mapped preview of one product band.
// The preview is kept in memory until Save, so a failed conversion leaves no
// image behind.
type Quicklook struct {
	band      string
	theme     ColorTheme
	maxSize   int
	annotator *Annotator

	pending *image.RGBA
}

func NewQuicklook(config QuicklookConfig) (*Quicklook, error) {
	q := &Quicklook{
		band:    config.Band,
		theme:   config.Theme,
		maxSize: config.MaxSize,
	}

	if config.Annotate {
		var err error
		if q.annotator, err = NewAnnotator(); err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
	}
	return q, nil
}

// Observe renders the preview when band is the configured band
func (q *Quicklook) Observe(scene *landsat.Scene, band landsat.Descriptor, grid raster.Grid, data []float64, nodata float64) error {
	if band.Name != q.band {
		return nil
	}

	stats := calibration.Summarize(data, nodata)
	full := Bounds{}
	if stats.Valid > 0 {
		full = Bounds{Min: stats.Min, Max: stats.Max}
	}

	hist := NewValueHistogram(stats)
	hist.Update(data, nodata)
	bounds := hist.PercentileBounds(full)

	cm := NewColorMapper(q.theme, bounds)
	img := renderPreview(grid, data, nodata, q.maxSize, cm)

	if q.annotator != nil {
		caption := Caption{
			SceneID: scene.ID,
			Band:    band.String(),
			Bounds:  bounds,
			Valid:   stats.Valid,
			Total:   len(data),
		}
		if band.Type == landsat.Thermal {
			caption.Unit = "K"
		}
		if scene.Metadata != nil && !scene.Metadata.DateAcquired.IsZero() {
			caption.Acquired = scene.Metadata.DateAcquired.Format(time.DateOnly)
		}
		if err := q.annotator.Annotate(img, caption, cm); err != nil {
			return fmt.Errorf("annotating preview: %w", err)
		}
	}

	q.pending = img
	return nil
}

// Save writes the pending preview as <outDir>/<sceneID>_quicklook.png
func (q *Quicklook) Save(outDir, sceneID string) (paths []string, err error) {
	if q.pending == nil {
		return nil, nil
	}
	img := q.pending
	q.pending = nil

	path := filepath.Join(outDir, sceneID+quicklookSuffix)
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	if err = png.Encode(out, img); err != nil {
		return nil, fmt.Errorf("encoding '%s': %w", path, err)
	}
	return []string{path}, nil
}

// Reset drops the pending preview
func (q *Quicklook) Reset() {
	q.pending = nil
}

// renderPreview samples every step-th pixel so the longest side fits maxSize
func renderPreview(grid raster.Grid, data []float64, nodata float64, maxSize int, cm *ColorMapper) *image.RGBA {
	step := 1
	if longest := max(grid.Width, grid.Height); maxSize > 0 && longest > maxSize {
		step = (longest + maxSize - 1) / maxSize
	}

	w := (grid.Width + step - 1) / step
	h := (grid.Height + step - 1) / step
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := y * step * grid.Width
		for x := 0; x < w; x++ {
			v := data[row+x*step]
			if v == nodata {
				img.Set(x, y, noDataColor)
				continue
			}
			img.Set(x, y, cm.Color(v))
		}
	}
	return img
}
