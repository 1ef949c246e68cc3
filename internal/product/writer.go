// Package product writes calibrated scenes as multi-band rasters
package product

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/raster"
)

// ErrWrite is matched by every error of the writer
var ErrWrite = errors.New("writing product")

// WriteError wraps a failure to create, fill or flush a product
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing product '%s': %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

// Select returns, in band table order, the bands that go into a product:
// reflective and thermal bands. Panchromatic and QA bands are left out.
func Select(records []*landsat.BandRecord) []*landsat.BandRecord {
	var selected []*landsat.BandRecord
	for _, b := range records {
		switch b.Type() {
		case landsat.Reflective, landsat.Thermal:
			selected = append(selected, b)
		}
	}
	return selected
}

// Writer fills a product band by band. The dataset is created under a
// temporary name and only moved to its destination by Commit, so a failed
// conversion never leaves a file at the destination.
type Writer struct {
	path    string
	tmpPath string
	ds      raster.Dataset
	bands   int
	written int
	done    bool
}

// Create creates a product with the given number of bands on the grid
func Create(creator raster.Creator, path string, grid raster.Grid, bands int) (*Writer, error) {
	if bands <= 0 {
		return nil, &WriteError{Path: path, Err: fmt.Errorf("invalid band count %d", bands)}
	}

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".part")
	ds, err := creator.Create(tmpPath, grid, bands)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, &WriteError{Path: path, Err: err}
	}

	return &Writer{path: path, tmpPath: tmpPath, ds: ds, bands: bands}, nil
}

// Path returns the destination of the product
func (w *Writer) Path() string {
	return w.path
}

// WriteBand writes the next band, tagged with its name and nodata value
func (w *Writer) WriteBand(name string, data []float64, nodata float64) error {
	if w.done {
		return &WriteError{Path: w.path, Err: errors.New("product already closed")}
	}
	if w.written == w.bands {
		return &WriteError{Path: w.path, Err: fmt.Errorf("all %d bands already written", w.bands)}
	}

	n := w.written + 1
	if err := w.ds.WriteBand(n, data, name, nodata); err != nil {
		return &WriteError{Path: w.path, Err: fmt.Errorf("band %d (%s): %w", n, name, err)}
	}
	w.written = n
	return nil
}

// Commit flushes the dataset and moves it to its destination. Every band must
// have been written.
func (w *Writer) Commit() error {
	if w.done {
		return &WriteError{Path: w.path, Err: errors.New("product already closed")}
	}
	if w.written != w.bands {
		return &WriteError{Path: w.path, Err: fmt.Errorf("%d of %d bands written", w.written, w.bands)}
	}

	w.done = true
	if err := w.ds.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return &WriteError{Path: w.path, Err: fmt.Errorf("flushing: %w", err)}
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return &WriteError{Path: w.path, Err: err}
	}
	return nil
}

// Abort releases the dataset and removes the partial file. It is a no-op
// after Commit, so it can be deferred right after Create.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	closeErr := w.ds.Close()
	removeErr := os.Remove(w.tmpPath)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	if err := errors.Join(closeErr, removeErr); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	return nil
}
