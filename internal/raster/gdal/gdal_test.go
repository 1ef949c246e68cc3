package gdal_test

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/raster"
	"github.com/roman-kulish/landsat-toa/internal/raster/gdal"
)

func utmProjection(t *testing.T) string {
	t.Helper()

	sr, err := godal.NewSpatialRefFromEPSG(32635)
	require.NoError(t, err)
	defer sr.Close()

	wkt, err := sr.WKT()
	require.NoError(t, err)
	return wkt
}

// packTar stores file in a tar archive under member
func packTar(t *testing.T, file, member string) string {
	t.Helper()

	content, err := os.ReadFile(file)
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "scene.tar")
	f, err := os.Create(archive)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: member, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	return archive
}

func TestDriver_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a GDAL installation")
	}

	g := gdal.New(gdal.WithCreationOptions("COMPRESS=DEFLATE"))
	grid := raster.Grid{
		Width:        5,
		Height:       4,
		GeoTransform: [6]float64{399960, 30, 0, 4800000, 0, -30},
		Projection:   utmProjection(t),
	}

	first := make([]float64, grid.Size())
	second := make([]float64, grid.Size())
	for i := range first {
		first[i] = float64(i) / 10
		second[i] = 250 + float64(i)
	}
	first[0] = -9999

	path := filepath.Join(t.TempDir(), "product.tif")
	ds, err := g.Create(path, grid, 2)
	require.NoError(t, err)
	require.NoError(t, ds.WriteBand(1, first, "Red", -9999))
	require.NoError(t, ds.WriteBand(2, second, "TIRS1", 0))
	assert.Error(t, ds.WriteBand(3, second, "TIRS2", 0), "out of range band")
	assert.Error(t, ds.WriteBand(2, second[:3], "TIRS1", 0), "short buffer")
	require.NoError(t, ds.Close())

	r, err := g.Read(path)
	require.NoError(t, err)
	assert.Equal(t, grid.Width, r.Width)
	assert.Equal(t, grid.Height, r.Height)
	assert.Equal(t, grid.GeoTransform, r.GeoTransform)
	assert.NotEmpty(t, r.Projection)
	assert.True(t, r.HasNoData)
	assert.Equal(t, -9999.0, r.NoData)
	assert.Equal(t, first, r.Data)

	check, err := godal.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = check.Close()
	}()
	bands := check.Bands()
	require.Len(t, bands, 2)
	assert.Equal(t, "Red", bands[0].Description())
	assert.Equal(t, "TIRS1", bands[1].Description())

	// tiles are read straight out of the archive
	member := "LC08_TEST_B4.TIF"
	archive := packTar(t, path, member)
	fromTar, err := g.Read(landsat.VSIPath(archive, member))
	require.NoError(t, err)
	assert.Equal(t, first, fromTar.Data)
}

func TestDriver_ReadMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a GDAL installation")
	}

	_, err := gdal.New().Read(filepath.Join(t.TempDir(), "missing.tif"))
	assert.Error(t, err)
}
