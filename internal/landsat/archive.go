package landsat

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roman-kulish/landsat-toa/internal/raster"
)

const (
	mtlSuffix = "_MTL.txt"

	// maxMTLSize bounds the metadata document read into memory
	maxMTLSize = 4 << 20
)

var (
	bandTilePattern = regexp.MustCompile(`^\w*_(?:B\d{1,2}|QA\w*)\.TIF$`)

	archiveSuffixes = []string{".tar.gz", ".tgz", ".tar"}
)

// Scene is the content of one Level-1 archive: its metadata and every band
// tile bound to its band table entry
type Scene struct {
	ID       string
	Archive  string
	Metadata *Metadata
	Bands    map[string]*BandRecord
}

// Band returns the record of the named band
func (s *Scene) Band(name string) (*BandRecord, error) {
	b, ok := s.Bands[name]
	if !ok {
		return nil, fmt.Errorf("scene %s has no band %s", s.ID, name)
	}
	return b, nil
}

// Release drops the named band record so its samples can be reclaimed once
// they are no longer needed
func (s *Scene) Release(name string) {
	delete(s.Bands, name)
}

// Ordered returns the band records in band table order
func (s *Scene) Ordered() []*BandRecord {
	records := make([]*BandRecord, 0, len(s.Bands))
	for _, d := range Bands {
		if b, ok := s.Bands[d.Name]; ok {
			records = append(records, b)
		}
	}
	return records
}

// SceneID derives the scene identifier from the archive file name
func SceneID(archivePath string) string {
	base := filepath.Base(archivePath)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(strings.ToLower(base), suffix) {
			return base[:len(base)-len(suffix)]
		}
	}
	return base
}

// IsBandTile reports whether an archive member is a band or QA tile
func IsBandTile(member string) bool {
	return bandTilePattern.MatchString(path.Base(member))
}

// VSIPath returns the GDAL virtual path of a member inside an archive
func VSIPath(archivePath, member string) string {
	return "/vsitar/" + filepath.ToSlash(archivePath) + "/" + member
}

// LoadArchive reads the metadata document and all band tiles of a Level-1
// archive. The tiles are matched to the band table by natural sort order, so
// the archive must hold exactly BandCount of them. Any failure aborts the
// whole load.
func LoadArchive(archivePath string, reader raster.Reader) (*Scene, error) {
	sceneID := SceneID(archivePath)
	mtlName := sceneID + mtlSuffix

	members, mtlText, err := scanArchive(archivePath, mtlName)
	if err != nil {
		return nil, err
	}
	if mtlText == nil {
		return nil, &MissingMemberError{Archive: archivePath, Member: mtlName}
	}

	meta, err := ParseMTL(string(mtlText))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mtlName, err)
	}

	var tiles []string
	for _, m := range members {
		if IsBandTile(m) {
			tiles = append(tiles, m)
		}
	}
	if len(tiles) != BandCount {
		return nil, &CountMismatchError{Archive: archivePath, Found: len(tiles), Expected: BandCount}
	}
	SortNatural(tiles)

	scene := &Scene{
		ID:       sceneID,
		Archive:  archivePath,
		Metadata: meta,
		Bands:    make(map[string]*BandRecord, BandCount),
	}
	for i, tile := range tiles {
		d := Bands[i]

		r, err := reader.Read(VSIPath(archivePath, tile))
		if err != nil {
			return nil, fmt.Errorf("reading band %s from '%s': %w", d.Name, tile, err)
		}

		record, err := NewBandRecord(d, r, meta.Bands[d.Name].Coefficients)
		if err != nil {
			return nil, err
		}
		scene.Bands[d.Name] = record
	}

	return scene, nil
}

// scanArchive lists the regular file members of the archive and returns the
// content of the metadata document, nil if it is not there
func scanArchive(archivePath, mtlName string) (members []string, mtlText []byte, err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cErr)
		}
	}()

	var r io.Reader = f
	lower := strings.ToLower(archivePath)
	if strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".tgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		members = append(members, hdr.Name)
		if path.Base(hdr.Name) != mtlName {
			continue
		}
		if hdr.Size > maxMTLSize {
			return nil, nil, fmt.Errorf("metadata member '%s' is too large (%d bytes)", hdr.Name, hdr.Size)
		}
		if mtlText, err = io.ReadAll(tr); err != nil {
			return nil, nil, fmt.Errorf("reading metadata member '%s': %w", hdr.Name, err)
		}
	}

	return members, mtlText, nil
}
