package landsat

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const mtlSeparator = " = "

// LatLon is a geographic position in decimal degrees
type LatLon struct {
	Lat float64
	Lon float64
}

// Corners are the product corner coordinates reported by the metadata document
type Corners struct {
	UL, UR, LL, LR LatLon
}

// BandMetadata pairs a band descriptor with the coefficients parsed for it
type BandMetadata struct {
	Descriptor
	Coefficients Coefficients
}

// Metadata is the content of a scene's _MTL.txt document relevant to calibration
type Metadata struct {
	ProductID    string    // LANDSAT_PRODUCT_ID
	SpacecraftID string    // SPACECRAFT_ID
	DateAcquired time.Time // DATE_ACQUIRED, zero if absent or malformed
	CloudCover   *float64  // Scene cloud cover in percent
	SunAzimuth   *float64  // Sun azimuth in degrees
	SunElevation *float64  // Sun elevation in degrees
	Corners      *Corners  // Product corners, nil unless all eight values are present

	// Skipped lists the scene attributes left unset because their values
	// could not be parsed
	Skipped []error

	Bands map[string]BandMetadata // Keyed by band name, one entry per table band
}

// coefficientSource maps a coefficient to its metadata key and unit conversion
type coefficientSource struct {
	key     CoefficientKey
	mtlKey  func(idx int) string
	convert func(float64) float64
}

func perBand(prefix string) func(int) string {
	return func(idx int) string {
		return fmt.Sprintf("%s_BAND_%d", prefix, idx)
	}
}

func sceneWide(key string) func(int) string {
	return func(int) string {
		return key
	}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

var coefficientSources = map[BandType][]coefficientSource{
	Reflective: {
		{key: CoefReflectanceMult, mtlKey: perBand("REFLECTANCE_MULT")},
		{key: CoefReflectanceAdd, mtlKey: perBand("REFLECTANCE_ADD")},
		{key: CoefSunElevation, mtlKey: sceneWide("SUN_ELEVATION"), convert: degreesToRadians},
	},
	Thermal: {
		{key: CoefRadianceMult, mtlKey: perBand("RADIANCE_MULT")},
		{key: CoefRadianceAdd, mtlKey: perBand("RADIANCE_ADD")},
		{key: CoefK1, mtlKey: perBand("K1_CONSTANT")},
		{key: CoefK2, mtlKey: perBand("K2_CONSTANT")},
	},
}

func init() {
	coefficientSources[Panchromatic] = coefficientSources[Reflective]
}

// ParseMTL extracts the calibration coefficients of every table band, plus a
// few scene attributes, from the text of a metadata document. Coefficients
// missing from the document are left absent; it is up to the calibration to
// fail on them. A malformed coefficient fails the parse, a malformed scene
// attribute is left unset and reported in Metadata.Skipped.
func ParseMTL(text string) (*Metadata, error) {
	kv, err := scanKeyValues(text)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		ProductID:    kv["LANDSAT_PRODUCT_ID"],
		SpacecraftID: kv["SPACECRAFT_ID"],
		Bands:        make(map[string]BandMetadata, BandCount),
	}

	if v, ok := kv["DATE_ACQUIRED"]; ok {
		if meta.DateAcquired, err = time.Parse(time.DateOnly, v); err != nil {
			meta.DateAcquired = time.Time{}
			meta.Skipped = append(meta.Skipped, fmt.Errorf("parsing DATE_ACQUIRED: %w", err))
		}
	}

	optional := []struct {
		key string
		dst **float64
	}{
		{"CLOUD_COVER", &meta.CloudCover},
		{"SUN_AZIMUTH", &meta.SunAzimuth},
		{"SUN_ELEVATION", &meta.SunElevation},
	}
	for _, o := range optional {
		v, ok, err := lookupFloat(kv, o.key)
		if err != nil {
			meta.Skipped = append(meta.Skipped, err)
			continue
		}
		if ok {
			*o.dst = &v
		}
	}

	if meta.Corners, err = parseCorners(kv); err != nil {
		meta.Skipped = append(meta.Skipped, fmt.Errorf("corners: %w", err))
	}

	for _, d := range Bands {
		values := make(map[CoefficientKey]float64)
		for _, src := range coefficientSources[d.Type] {
			v, ok, err := lookupFloat(kv, src.mtlKey(d.Index))
			if err != nil {
				return nil, fmt.Errorf("band %s: %w", d.Name, err)
			}
			if !ok {
				continue
			}
			if src.convert != nil {
				v = src.convert(v)
			}
			values[src.key] = v
		}
		meta.Bands[d.Name] = BandMetadata{Descriptor: d, Coefficients: NewCoefficients(d.Name, values)}
	}

	return meta, nil
}

// scanKeyValues collects all "KEY = VALUE" lines of the document. Group
// markers are skipped and later keys override earlier ones.
func scanKeyValues(text string) (map[string]string, error) {
	kv := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), mtlSeparator)
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" || key == "GROUP" || key == "END_GROUP" {
			continue
		}
		kv[key] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning metadata: %w", err)
	}

	return kv, nil
}

func lookupFloat(kv map[string]string, key string) (float64, bool, error) {
	raw, ok := kv[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing %s value '%s': %w", key, raw, err)
	}
	return v, true, nil
}

func parseCorners(kv map[string]string) (*Corners, error) {
	var c Corners
	points := []struct {
		name string
		dst  *LatLon
	}{
		{"UL", &c.UL},
		{"UR", &c.UR},
		{"LL", &c.LL},
		{"LR", &c.LR},
	}

	for _, p := range points {
		lat, latOK, err := lookupFloat(kv, fmt.Sprintf("CORNER_%s_LAT_PRODUCT", p.name))
		if err != nil {
			return nil, err
		}
		lon, lonOK, err := lookupFloat(kv, fmt.Sprintf("CORNER_%s_LON_PRODUCT", p.name))
		if err != nil {
			return nil, err
		}
		if !latOK || !lonOK {
			return nil, nil
		}
		*p.dst = LatLon{Lat: lat, Lon: lon}
	}

	return &c, nil
}
