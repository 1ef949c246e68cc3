package app

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/raster"
)

const (
	histogramBins   = 64
	histogramWidth  = 6 * vg.Inch
	histogramHeight = 4 * vg.Inch
)

type bandPlot struct {
	band string
	plot *plot.Plot
}

// Histograms plots the value distribution of every product band. Plots are
// kept until Save.
type Histograms struct {
	pending []bandPlot
}

func NewHistograms() *Histograms {
	return &Histograms{}
}

// Observe plots the valid samples of a band. Bands without valid samples are
// skipped.
func (h *Histograms) Observe(scene *landsat.Scene, band landsat.Descriptor, _ raster.Grid, data []float64, nodata float64) error {
	values := make(plotter.Values, 0, len(data))
	for _, v := range data {
		if v != nodata && !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s", scene.ID, band.Name)
	p.Y.Label.Text = "pixels"
	switch band.Type {
	case landsat.Thermal:
		p.X.Label.Text = "brightness temperature (K)"
	default:
		p.X.Label.Text = "TOA reflectance"
	}

	hist, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return fmt.Errorf("binning band %s: %w", band.Name, err)
	}
	p.Add(hist)

	h.pending = append(h.pending, bandPlot{band: band.Name, plot: p})
	return nil
}

// Save writes every pending plot as <outDir>/<sceneID>_<band>_hist.png
func (h *Histograms) Save(outDir, sceneID string) ([]string, error) {
	pending := h.pending
	h.pending = nil

	var paths []string
	for _, bp := range pending {
		path := filepath.Join(outDir, fmt.Sprintf("%s_%s_hist.png", sceneID, bp.band))
		if err := bp.plot.Save(histogramWidth, histogramHeight, path); err != nil {
			return paths, fmt.Errorf("saving histogram of %s: %w", bp.band, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Reset drops the pending plots
func (h *Histograms) Reset() {
	h.pending = nil
}
