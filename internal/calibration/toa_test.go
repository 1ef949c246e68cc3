package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
	"github.com/roman-kulish/landsat-toa/internal/raster/rastertest"
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func record(t *testing.T, name string, data []float64, nodata float64, coefs map[landsat.CoefficientKey]float64) *landsat.BandRecord {
	t.Helper()

	d, ok := landsat.BandByName(name)
	require.True(t, ok, name)

	b, err := landsat.NewBandRecord(d, rastertest.FromData(len(data), 1, data, nodata), landsat.NewCoefficients(name, coefs))
	require.NoError(t, err)
	return b
}

func reflectiveCoefs(mref, aref, se float64) map[landsat.CoefficientKey]float64 {
	return map[landsat.CoefficientKey]float64{
		landsat.CoefReflectanceMult: mref,
		landsat.CoefReflectanceAdd:  aref,
		landsat.CoefSunElevation:    se,
	}
}

func thermalCoefs(mrad, arad, k1, k2 float64) map[landsat.CoefficientKey]float64 {
	return map[landsat.CoefficientKey]float64{
		landsat.CoefRadianceMult: mrad,
		landsat.CoefRadianceAdd:  arad,
		landsat.CoefK1:           k1,
		landsat.CoefK2:           k2,
	}
}

func TestCalibrate_Reflective(t *testing.T) {
	b := record(t, "Red", []float64{10000, 0}, 0, reflectiveCoefs(0.00002, -0.1, radians(45)))

	out, err := Calibrate(b)
	require.NoError(t, err)
	require.Len(t, out, 2)

	expected := (0.00002*10000 - 0.1) / math.Sin(radians(45))
	assert.InDelta(t, expected, out[0], 1e-12)
	assert.InDelta(t, 0.14142, out[0], 1e-5)
	assert.Equal(t, 0.0, out[1])
}

func TestCalibrate_Panchromatic(t *testing.T) {
	b := record(t, "Panchromatic", []float64{20000}, 0, reflectiveCoefs(0.00002, -0.1, radians(30)))

	out, err := Calibrate(b)
	require.NoError(t, err)
	assert.InDelta(t, (0.00002*20000-0.1)/0.5, out[0], 1e-12)
}

func TestCalibrate_Thermal(t *testing.T) {
	b := record(t, "TIRS1", []float64{20000, 0}, 0, thermalCoefs(0.0003, 0.1, 774.89, 1321.08))

	out, err := Calibrate(b)
	require.NoError(t, err)

	radiance := 0.0003*20000 + 0.1
	assert.InDelta(t, 6.1, radiance, 1e-12)
	expected := 1321.08 / math.Log(1+774.89/radiance)
	assert.InDelta(t, expected, out[0], 1e-9)
	assert.InDelta(t, 272.3, out[0], 0.1)
	assert.Equal(t, 0.0, out[1])
}

func TestCalibrate_NoDataWins(t *testing.T) {
	testCases := []struct {
		name   string
		band   string
		nodata float64
		coefs  map[landsat.CoefficientKey]float64
	}{
		{"reflective zero sentinel", "Blue", 0, reflectiveCoefs(0.00002, -0.1, radians(45))},
		{"reflective large coefficients", "NIR", 0, reflectiveCoefs(1e6, 1e6, radians(1))},
		{"reflective non-zero sentinel", "SWIR1", 65535, reflectiveCoefs(0.00002, -0.1, radians(60))},
		{"reflective negative sentinel", "Cirrus", -9999, reflectiveCoefs(3, 7, radians(80))},
		{"thermal zero sentinel", "TIRS2", 0, thermalCoefs(0.0003, 0.1, 480.89, 1201.14)},
		{"thermal zero radiance at nodata", "TIRS1", 0, thermalCoefs(0.0003, 0, 774.89, 1321.08)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := []float64{tc.nodata, 12000, tc.nodata}
			b := record(t, tc.band, data, tc.nodata, tc.coefs)

			out, err := Calibrate(b)
			require.NoError(t, err)
			assert.Equal(t, tc.nodata, out[0])
			assert.Equal(t, tc.nodata, out[2])
			assert.NotEqual(t, tc.nodata, out[1])
		})
	}
}

func TestCalibrate_DoesNotModifyInput(t *testing.T) {
	data := []float64{10000, 0, 5000}
	b := record(t, "Green", data, 0, reflectiveCoefs(0.00002, -0.1, radians(45)))

	_, err := Calibrate(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{10000, 0, 5000}, b.Data())
}

func TestCalibrate_MaskBandRejected(t *testing.T) {
	for _, name := range []string{landsat.BandQAPixel, landsat.BandQARadsat} {
		b := record(t, name, []float64{1}, 1, nil)

		_, err := Calibrate(b)
		assert.ErrorIs(t, err, ErrNotCalibrated, name)

		var tErr *TypeError
		assert.ErrorAs(t, err, &tErr)
	}
}

func TestCalibrate_MissingCoefficient(t *testing.T) {
	coefs := reflectiveCoefs(0.00002, -0.1, radians(45))
	delete(coefs, landsat.CoefReflectanceAdd)
	b := record(t, "Red", []float64{10000}, 0, coefs)

	_, err := Calibrate(b)
	require.ErrorIs(t, err, landsat.ErrMissingCoefficient)

	thermal := thermalCoefs(0.0003, 0.1, 774.89, 1321.08)
	delete(thermal, landsat.CoefK2)
	_, err = Calibrate(record(t, "TIRS1", []float64{20000}, 0, thermal))
	require.ErrorIs(t, err, landsat.ErrMissingCoefficient)
}

func TestCalibrate_Degenerate(t *testing.T) {
	_, err := Calibrate(record(t, "Red", []float64{10000}, 0, reflectiveCoefs(0.00002, -0.1, 0)))
	assert.ErrorIs(t, err, ErrDegenerate)

	// Mrad * 1000 + Arad == 0 on two valid pixels
	_, err = Calibrate(record(t, "TIRS1", []float64{1000, 0, 1000}, 0, thermalCoefs(0.5, -500, 774.89, 1321.08)))
	require.ErrorIs(t, err, ErrDegenerate)

	var dErr *DegenerateError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, 2, dErr.Pixels)
}
