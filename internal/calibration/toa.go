package calibration

import (
	"math"

	"github.com/roman-kulish/landsat-toa/internal/landsat"
)

// Calibrate converts the raw digital numbers of a band to Top-Of-Atmosphere
// values: unitless reflectance for reflective and panchromatic bands,
// brightness temperature in Kelvin for thermal bands. Pixels equal to the
// band's nodata sentinel keep the sentinel. The returned slice is newly
// allocated.
//
// A zero sun elevation sine, or a zero radiance on a pixel that is not
// nodata, makes the transform undefined and fails with a *DegenerateError.
func Calibrate(b *landsat.BandRecord) ([]float64, error) {
	if !b.Type().Calibrated() {
		return nil, &TypeError{Band: b.Name(), Type: b.Type()}
	}
	if err := b.Coefficients().Require(b.Type().RequiredCoefficients()...); err != nil {
		return nil, err
	}

	raw, nodata := b.Data(), b.NoData()
	out := make([]float64, len(raw))

	var err error
	switch b.Type() {
	case landsat.Reflective, landsat.Panchromatic:
		err = reflectance(b, raw, nodata, out)
	case landsat.Thermal:
		err = brightnessTemperature(b, raw, nodata, out)
	}
	if err != nil {
		return nil, err
	}

	for i, v := range raw {
		if v == nodata {
			out[i] = nodata
		}
	}
	return out, nil
}

// reflectance applies toa = (Mref * raw + Aref) / sin(SE)
func reflectance(b *landsat.BandRecord, raw []float64, nodata float64, out []float64) error {
	c := b.Coefficients()
	mref, _ := c.Lookup(landsat.CoefReflectanceMult)
	aref, _ := c.Lookup(landsat.CoefReflectanceAdd)
	se, _ := c.Lookup(landsat.CoefSunElevation)

	sinSE := math.Sin(se)
	if sinSE == 0 {
		return &DegenerateError{Band: b.Name(), Reason: "sine of sun elevation is zero"}
	}

	for i, dn := range raw {
		if dn == nodata {
			continue
		}
		out[i] = (mref*dn + aref) / sinSE
	}
	return nil
}

// brightnessTemperature applies toa = K2 / ln(1 + K1 / (Mrad * raw + Arad))
func brightnessTemperature(b *landsat.BandRecord, raw []float64, nodata float64, out []float64) error {
	c := b.Coefficients()
	mrad, _ := c.Lookup(landsat.CoefRadianceMult)
	arad, _ := c.Lookup(landsat.CoefRadianceAdd)
	k1, _ := c.Lookup(landsat.CoefK1)
	k2, _ := c.Lookup(landsat.CoefK2)

	var zero int
	for i, dn := range raw {
		if dn == nodata {
			continue
		}
		radiance := mrad*dn + arad
		if radiance == 0 {
			zero++
			continue
		}
		out[i] = k2 / math.Log(1+k1/radiance)
	}
	if zero > 0 {
		return &DegenerateError{Band: b.Name(), Reason: "radiance is zero", Pixels: zero}
	}
	return nil
}
