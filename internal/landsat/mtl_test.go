package landsat

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMTL = `GROUP = LANDSAT_METADATA_FILE
  GROUP = PRODUCT_CONTENTS
    LANDSAT_PRODUCT_ID = "LC08_L1TP_180031_20130730_20200912_02_T1"
  END_GROUP = PRODUCT_CONTENTS
  GROUP = IMAGE_ATTRIBUTES
    SPACECRAFT_ID = "LANDSAT_8"
    DATE_ACQUIRED = 2013-07-30
    CLOUD_COVER = 1.27
    SUN_AZIMUTH = 134.55
    SUN_ELEVATION = 45.0
  END_GROUP = IMAGE_ATTRIBUTES
  GROUP = PROJECTION_ATTRIBUTES
    CORNER_UL_LAT_PRODUCT = 41.89
    CORNER_UL_LON_PRODUCT = 27.12
    CORNER_UR_LAT_PRODUCT = 41.91
    CORNER_UR_LON_PRODUCT = 29.97
    CORNER_LL_LAT_PRODUCT = 39.75
    CORNER_LL_LON_PRODUCT = 27.16
    CORNER_LR_LAT_PRODUCT = 39.77
    CORNER_LR_LON_PRODUCT = 29.92
  END_GROUP = PROJECTION_ATTRIBUTES
  GROUP = LEVEL1_RADIOMETRIC_RESCALING
    RADIANCE_MULT_BAND_10 = 3.3420E-04
    RADIANCE_ADD_BAND_10 = 0.10000
    REFLECTANCE_MULT_BAND_1 = 2.0000E-05
    REFLECTANCE_ADD_BAND_1 = -0.100000
    REFLECTANCE_MULT_BAND_4 = 2.0E-05
    REFLECTANCE_ADD_BAND_4 = -0.100000
  END_GROUP = LEVEL1_RADIOMETRIC_RESCALING
  GROUP = LEVEL1_THERMAL_CONSTANTS
    K1_CONSTANT_BAND_10 = 774.8853
    K2_CONSTANT_BAND_10 = 1321.0789
  END_GROUP = LEVEL1_THERMAL_CONSTANTS
END_GROUP = LANDSAT_METADATA_FILE
END
`

func TestParseMTL_ReflectiveBand(t *testing.T) {
	meta, err := ParseMTL(sampleMTL)
	require.NoError(t, err)

	red := meta.Bands["Red"]
	assert.Equal(t, Reflective, red.Type)
	assert.Equal(t, 4, red.Index)

	se, err := red.Coefficients.Get(CoefSunElevation)
	require.NoError(t, err)
	assert.InDelta(t, 0.7854, se, 1e-4)

	mref, err := red.Coefficients.Get(CoefReflectanceMult)
	require.NoError(t, err)
	assert.Equal(t, 2.0e-05, mref)

	aref, err := red.Coefficients.Get(CoefReflectanceAdd)
	require.NoError(t, err)
	assert.Equal(t, -0.1, aref)
}

func TestParseMTL_BandIndexIsExact(t *testing.T) {
	meta, err := ParseMTL(sampleMTL)
	require.NoError(t, err)

	// REFLECTANCE_MULT_BAND_10 must never leak into band 1
	coastal := meta.Bands["CoastalAerosol"]
	assert.Equal(t, 3, coastal.Coefficients.Len())

	tirs1 := meta.Bands["TIRS1"]
	assert.Equal(t, Thermal, tirs1.Type)
	assert.NoError(t, tirs1.Coefficients.Require(Thermal.RequiredCoefficients()...))
	k1, _ := tirs1.Coefficients.Lookup(CoefK1)
	k2, _ := tirs1.Coefficients.Lookup(CoefK2)
	assert.Equal(t, 774.8853, k1)
	assert.Equal(t, 1321.0789, k2)
}

func TestParseMTL_MissingCoefficients(t *testing.T) {
	meta, err := ParseMTL(sampleMTL)
	require.NoError(t, err)

	// Band 2 only gets the scene-wide sun elevation
	blue := meta.Bands["Blue"]
	assert.Equal(t, Reflective, blue.Type)
	_, err = blue.Coefficients.Get(CoefReflectanceMult)
	assert.ErrorIs(t, err, ErrMissingCoefficient)

	var mcErr *MissingCoefficientError
	require.ErrorAs(t, err, &mcErr)
	assert.Equal(t, "Blue", mcErr.Band)
	assert.Equal(t, CoefReflectanceMult, mcErr.Key)

	tirs2 := meta.Bands["TIRS2"]
	assert.Equal(t, 0, tirs2.Coefficients.Len())
	assert.ErrorIs(t, tirs2.Coefficients.Require(Thermal.RequiredCoefficients()...), ErrMissingCoefficient)
}

func TestParseMTL_MaskBands(t *testing.T) {
	meta, err := ParseMTL(sampleMTL)
	require.NoError(t, err)

	require.Len(t, meta.Bands, BandCount)
	for _, name := range []string{BandQAPixel, BandQARadsat} {
		b := meta.Bands[name]
		assert.Equal(t, Mask, b.Type, name)
		assert.Equal(t, 0, b.Coefficients.Len(), name)
	}
	assert.Equal(t, Panchromatic, meta.Bands["Panchromatic"].Type)
}

func TestParseMTL_SceneAttributes(t *testing.T) {
	meta, err := ParseMTL(sampleMTL)
	require.NoError(t, err)

	assert.Equal(t, "LC08_L1TP_180031_20130730_20200912_02_T1", meta.ProductID)
	assert.Equal(t, "LANDSAT_8", meta.SpacecraftID)
	assert.Equal(t, time.Date(2013, 7, 30, 0, 0, 0, 0, time.UTC), meta.DateAcquired)
	require.NotNil(t, meta.CloudCover)
	assert.Equal(t, 1.27, *meta.CloudCover)
	require.NotNil(t, meta.SunElevation)
	assert.Equal(t, 45.0, *meta.SunElevation)
	require.NotNil(t, meta.Corners)
	assert.Equal(t, LatLon{Lat: 41.89, Lon: 27.12}, meta.Corners.UL)
	assert.Equal(t, LatLon{Lat: 39.77, Lon: 29.92}, meta.Corners.LR)
}

func TestParseMTL_Minimal(t *testing.T) {
	meta, err := ParseMTL("SUN_ELEVATION = 45.0\nREFLECTANCE_MULT_BAND_4 = 2.0E-05\n")
	require.NoError(t, err)

	red := meta.Bands["Red"]
	se, ok := red.Coefficients.Lookup(CoefSunElevation)
	assert.True(t, ok)
	assert.InDelta(t, math.Pi/4, se, 1e-12)
	mref, ok := red.Coefficients.Lookup(CoefReflectanceMult)
	assert.True(t, ok)
	assert.Equal(t, 2.0e-05, mref)

	assert.Nil(t, meta.Corners)
	assert.Nil(t, meta.CloudCover)
	assert.True(t, meta.DateAcquired.IsZero())
}

func TestParseMTL_MalformedValue(t *testing.T) {
	_, err := ParseMTL("SUN_ELEVATION = high\n")
	assert.Error(t, err)

	_, err = ParseMTL("K1_CONSTANT_BAND_11 = n/a\n")
	assert.Error(t, err)
}

func TestParseMTL_MalformedAttribute(t *testing.T) {
	testCases := map[string]struct {
		from, to string
		check    func(t *testing.T, meta *Metadata)
	}{
		"date": {
			"DATE_ACQUIRED = 2013-07-30", "DATE_ACQUIRED = 2013/07/30",
			func(t *testing.T, meta *Metadata) { assert.True(t, meta.DateAcquired.IsZero()) },
		},
		"cloud cover": {
			"CLOUD_COVER = 1.27", "CLOUD_COVER = unknown",
			func(t *testing.T, meta *Metadata) { assert.Nil(t, meta.CloudCover) },
		},
		"corner": {
			"CORNER_UL_LAT_PRODUCT = 41.89", "CORNER_UL_LAT_PRODUCT = n/a",
			func(t *testing.T, meta *Metadata) { assert.Nil(t, meta.Corners) },
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			text := strings.Replace(sampleMTL, tc.from, tc.to, 1)
			require.NotEqual(t, sampleMTL, text)

			meta, err := ParseMTL(text)
			require.NoError(t, err)
			require.Len(t, meta.Skipped, 1)
			tc.check(t, meta)

			// coefficients are unaffected
			_, err = meta.Bands["Red"].Coefficients.Get(CoefReflectanceMult)
			assert.NoError(t, err)
		})
	}
}

func TestParseMTL_LaterKeyWins(t *testing.T) {
	meta, err := ParseMTL("REFLECTANCE_ADD_BAND_3 = -0.2\nREFLECTANCE_ADD_BAND_3 = -0.1\n")
	require.NoError(t, err)

	v, ok := meta.Bands["Green"].Coefficients.Lookup(CoefReflectanceAdd)
	assert.True(t, ok)
	assert.Equal(t, -0.1, v)
}
