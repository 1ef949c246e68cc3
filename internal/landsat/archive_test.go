package landsat

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/landsat-toa/internal/raster/rastertest"
)

const testSceneID = "LC08_L1TP_180031_20130730_20200912_02_T1"

var tileSuffixes = []string{
	"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9", "B10", "B11", "QA_PIXEL", "QA_RADSAT",
}

func tileName(suffix string) string {
	return fmt.Sprintf("%s_%s.TIF", testSceneID, suffix)
}

// writeArchive writes a tar with the given members, each holding a few bytes
// except the MTL which gets the sample document
func writeArchive(t *testing.T, name string, members []string) string {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), name)
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	defer f.Close()

	var w io.Writer = f
	if filepath.Ext(name) == ".gz" {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	tw := tar.NewWriter(w)
	defer tw.Close()

	for _, m := range members {
		content := []byte("tile")
		if m == testSceneID+"_MTL.txt" {
			content = []byte(sampleMTL)
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     m,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err = tw.Write(content)
		require.NoError(t, err)
	}

	return archivePath
}

func fullMembers() []string {
	// deliberately unsorted, with extra members that are not band tiles
	members := []string{
		testSceneID + "_MTL.txt",
		testSceneID + "_MTL.xml",
		testSceneID + "_ANG.txt",
		testSceneID + "_VAA.TIF",
		testSceneID + "_thumb_small.jpeg",
	}
	for i := len(tileSuffixes) - 1; i >= 0; i-- {
		members = append(members, tileName(tileSuffixes[i]))
	}
	return members
}

// readerFor serves a distinct uniform raster per tile so the binding can be checked
func readerFor(archivePath string) *rastertest.Reader {
	r := rastertest.NewReader()
	for i, suffix := range tileSuffixes {
		r.Rasters[VSIPath(archivePath, tileName(suffix))] = rastertest.Uniform(4, 3, float64(i+1), 0)
	}
	return r
}

func TestLoadArchive(t *testing.T) {
	archivePath := writeArchive(t, testSceneID+".tar", fullMembers())
	reader := readerFor(archivePath)

	scene, err := LoadArchive(archivePath, reader)
	require.NoError(t, err)

	assert.Equal(t, testSceneID, scene.ID)
	assert.Equal(t, "LC08_L1TP_180031_20130730_20200912_02_T1", scene.Metadata.ProductID)
	require.Len(t, scene.Bands, BandCount)

	// Kth tile in natural order is bound to the Kth band
	for i, d := range Bands {
		b, err := scene.Band(d.Name)
		require.NoError(t, err)
		assert.Equal(t, d, b.Descriptor())
		assert.Equal(t, float64(i+1), b.Data()[0], d.Name)
	}

	tirs1, _ := scene.Band("TIRS1")
	assert.NoError(t, tirs1.Coefficients().Require(Thermal.RequiredCoefficients()...))

	ordered := scene.Ordered()
	require.Len(t, ordered, BandCount)
	assert.Equal(t, "CoastalAerosol", ordered[0].Name())
	assert.Equal(t, BandQARadsat, ordered[BandCount-1].Name())

	assert.Len(t, reader.Reads(), BandCount)
}

func TestLoadArchive_Gzip(t *testing.T) {
	archivePath := writeArchive(t, testSceneID+".tar.gz", fullMembers())

	scene, err := LoadArchive(archivePath, readerFor(archivePath))
	require.NoError(t, err)
	assert.Equal(t, testSceneID, scene.ID)
	assert.Len(t, scene.Bands, BandCount)
}

func TestLoadArchive_CountMismatch(t *testing.T) {
	var members []string
	for _, m := range fullMembers() {
		if m != tileName("B7") {
			members = append(members, m)
		}
	}
	archivePath := writeArchive(t, testSceneID+".tar", members)
	reader := readerFor(archivePath)

	_, err := LoadArchive(archivePath, reader)
	require.ErrorIs(t, err, ErrCountMismatch)

	var cmErr *CountMismatchError
	require.ErrorAs(t, err, &cmErr)
	assert.Equal(t, 12, cmErr.Found)
	assert.Equal(t, BandCount, cmErr.Expected)
	assert.Empty(t, reader.Reads(), "no tile should be read from a malformed archive")
}

func TestLoadArchive_MissingMTL(t *testing.T) {
	var members []string
	for _, m := range fullMembers() {
		if m != testSceneID+"_MTL.txt" {
			members = append(members, m)
		}
	}
	archivePath := writeArchive(t, testSceneID+".tar", members)

	_, err := LoadArchive(archivePath, readerFor(archivePath))
	require.ErrorIs(t, err, ErrMissingMember)

	var mmErr *MissingMemberError
	require.ErrorAs(t, err, &mmErr)
	assert.Equal(t, testSceneID+"_MTL.txt", mmErr.Member)
}

func TestLoadArchive_ReadFailure(t *testing.T) {
	archivePath := writeArchive(t, testSceneID+".tar", fullMembers())
	reader := readerFor(archivePath)
	reader.Errors[VSIPath(archivePath, tileName("B5"))] = fmt.Errorf("corrupt tile")

	scene, err := LoadArchive(archivePath, reader)
	assert.Error(t, err)
	assert.Nil(t, scene)
}

func TestLoadArchive_NotFound(t *testing.T) {
	_, err := LoadArchive(filepath.Join(t.TempDir(), "missing.tar"), rastertest.NewReader())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSceneID(t *testing.T) {
	testCases := map[string]string{
		"LANDSAT8/" + testSceneID + ".tar":    testSceneID,
		"/data/" + testSceneID + ".tar.gz":    testSceneID,
		testSceneID + ".tgz":                  testSceneID,
		"LC08_L1TP_180032_20130730_02_T1.TAR": "LC08_L1TP_180032_20130730_02_T1",
		"scene":                               "scene",
	}
	for in, expected := range testCases {
		assert.Equal(t, expected, SceneID(in), in)
	}
}

func TestIsBandTile(t *testing.T) {
	testCases := []struct {
		member   string
		expected bool
	}{
		{tileName("B1"), true},
		{tileName("B11"), true},
		{tileName("QA_PIXEL"), true},
		{"scenes/" + tileName("QA_RADSAT"), true},
		{tileName("B123"), false},
		{tileName("VAA"), false},
		{testSceneID + "_MTL.txt", false},
		{testSceneID + "_B1.TIF.ovr", false},
		{testSceneID + "_thumb_large.jpeg", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, IsBandTile(tc.member), tc.member)
	}
}

func TestVSIPath(t *testing.T) {
	assert.Equal(t, "/vsitar/LANDSAT8/x.tar/x_B1.TIF", VSIPath("LANDSAT8/x.tar", "x_B1.TIF"))
}
