// Package landsattest builds synthetic Level-1 archives for tests
package landsattest

import (
	"archive/tar"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/raster"
	"github.com/roman-kulish/landsat-toa/internal/raster/rastertest"
)

const (
	// SceneID is the identifier of the default synthetic scene
	SceneID = "LC08_L1TP_180031_20130730_20200912_02_T1"

	// DN is the digital number every calibrated band tile is filled with
	DN = 10000

	ReflectanceMult = 2.0e-05
	ReflectanceAdd  = -0.1
	SunElevation    = 30.0 // degrees
	RadianceMult    = 3.3420e-04
	RadianceAdd     = 0.1
)

var (
	K1 = map[int]float64{10: 774.8853, 11: 480.8883}
	K2 = map[int]float64{10: 1321.0789, 11: 1201.1442}
)

// Scene is a synthetic archive: a metadata document and one raster per band
type Scene struct {
	ID     string
	Width  int
	Height int
	MTL    string
	Tiles  map[string]*raster.Raster // keyed by band name

	// Omit lists band names whose tile is left out of the archive
	Omit []string
}

// NewScene creates a scene with a complete metadata document, uniform band
// tiles at DN and clear QA tiles
func NewScene(id string, width, height int) *Scene {
	s := Scene{
		ID:     id,
		Width:  width,
		Height: height,
		MTL:    MTL(id),
		Tiles:  make(map[string]*raster.Raster),
	}
	for _, d := range landsat.Bands {
		value := float64(DN)
		if d.Type == landsat.Mask {
			value = 0
		}
		s.Tiles[d.Name] = rastertest.Uniform(width, height, value, landsat.DefaultNoData)
	}
	return &s
}

// Set changes one sample of a band tile
func (s *Scene) Set(band string, i int, value float64) {
	s.Tiles[band].Data[i] = value
}

// TileName returns the archive member name of a band tile
func (s *Scene) TileName(d landsat.Descriptor) string {
	switch d.Name {
	case landsat.BandQAPixel:
		return s.ID + "_QA_PIXEL.TIF"
	case landsat.BandQARadsat:
		return s.ID + "_QA_RADSAT.TIF"
	default:
		return fmt.Sprintf("%s_B%d.TIF", s.ID, d.Index)
	}
}

func (s *Scene) omitted(name string) bool {
	for _, o := range s.Omit {
		if o == name {
			return true
		}
	}
	return false
}

// WriteArchive writes the scene as <dir>/<ID>.tar and returns its path. Tile
// members only hold a placeholder, their samples are served by Reader.
func (s *Scene) WriteArchive(dir string) (path string, err error) {
	path = filepath.Join(dir, s.ID+".tar")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	tw := tar.NewWriter(f)
	members := map[string][]byte{
		s.ID + "_MTL.txt":  []byte(s.MTL),
		s.ID + "_ANG.txt":  []byte("angles"),
		s.ID + "_VAA.TIF":  []byte("tile"),
		s.ID + "_MTL.json": []byte("{}"),
	}
	for _, d := range landsat.Bands {
		if !s.omitted(d.Name) {
			members[s.TileName(d)] = []byte("tile")
		}
	}

	for name, content := range members {
		if err = tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			return "", err
		}
		if _, err = tw.Write(content); err != nil {
			return "", err
		}
	}

	if err = tw.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Reader serves the scene tiles for an archive written by WriteArchive
func (s *Scene) Reader(archivePath string) *rastertest.Reader {
	r := rastertest.NewReader()
	s.Register(r, archivePath)
	return r
}

// Register adds the scene tiles of archivePath to an existing reader
func (s *Scene) Register(r *rastertest.Reader, archivePath string) {
	for _, d := range landsat.Bands {
		r.Rasters[landsat.VSIPath(archivePath, s.TileName(d))] = s.Tiles[d.Name]
	}
}

// MTL renders a metadata document with every calibration coefficient of the
// Landsat-8 band table
func MTL(productID string) string {
	var b strings.Builder

	b.WriteString("GROUP = LANDSAT_METADATA_FILE\n")
	b.WriteString("  GROUP = PRODUCT_CONTENTS\n")
	fmt.Fprintf(&b, "    LANDSAT_PRODUCT_ID = \"%s\"\n", productID)
	b.WriteString("  END_GROUP = PRODUCT_CONTENTS\n")
	b.WriteString("  GROUP = IMAGE_ATTRIBUTES\n")
	b.WriteString("    SPACECRAFT_ID = \"LANDSAT_8\"\n")
	b.WriteString("    DATE_ACQUIRED = 2013-07-30\n")
	b.WriteString("    CLOUD_COVER = 1.27\n")
	b.WriteString("    SUN_AZIMUTH = 134.55\n")
	fmt.Fprintf(&b, "    SUN_ELEVATION = %g\n", SunElevation)
	b.WriteString("  END_GROUP = IMAGE_ATTRIBUTES\n")
	b.WriteString("  GROUP = PROJECTION_ATTRIBUTES\n")
	b.WriteString("    CORNER_UL_LAT_PRODUCT = 41.89\n")
	b.WriteString("    CORNER_UL_LON_PRODUCT = 27.12\n")
	b.WriteString("    CORNER_UR_LAT_PRODUCT = 41.91\n")
	b.WriteString("    CORNER_UR_LON_PRODUCT = 29.97\n")
	b.WriteString("    CORNER_LL_LAT_PRODUCT = 39.75\n")
	b.WriteString("    CORNER_LL_LON_PRODUCT = 27.16\n")
	b.WriteString("    CORNER_LR_LAT_PRODUCT = 39.77\n")
	b.WriteString("    CORNER_LR_LON_PRODUCT = 29.92\n")
	b.WriteString("  END_GROUP = PROJECTION_ATTRIBUTES\n")
	b.WriteString("  GROUP = LEVEL1_RADIOMETRIC_RESCALING\n")
	for _, d := range landsat.Bands {
		switch d.Type {
		case landsat.Reflective, landsat.Panchromatic:
			fmt.Fprintf(&b, "    REFLECTANCE_MULT_BAND_%d = %.4E\n", d.Index, ReflectanceMult)
			fmt.Fprintf(&b, "    REFLECTANCE_ADD_BAND_%d = %.6f\n", d.Index, ReflectanceAdd)
		case landsat.Thermal:
			fmt.Fprintf(&b, "    RADIANCE_MULT_BAND_%d = %.4E\n", d.Index, RadianceMult)
			fmt.Fprintf(&b, "    RADIANCE_ADD_BAND_%d = %.5f\n", d.Index, RadianceAdd)
		}
	}
	b.WriteString("  END_GROUP = LEVEL1_RADIOMETRIC_RESCALING\n")
	b.WriteString("  GROUP = LEVEL1_THERMAL_CONSTANTS\n")
	for _, idx := range []int{10, 11} {
		fmt.Fprintf(&b, "    K1_CONSTANT_BAND_%d = %.4f\n", idx, K1[idx])
		fmt.Fprintf(&b, "    K2_CONSTANT_BAND_%d = %.4f\n", idx, K2[idx])
	}
	b.WriteString("  END_GROUP = LEVEL1_THERMAL_CONSTANTS\n")
	b.WriteString("END_GROUP = LANDSAT_METADATA_FILE\n")
	b.WriteString("END\n")

	return b.String()
}
