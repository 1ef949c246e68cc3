package landsat

import "maps"

// CoefficientKey names a single calibration coefficient
type CoefficientKey string

// Coefficients holds the calibration coefficients parsed for one band. Only
// keys found in the metadata document are present, so a lookup tells an
// absent coefficient apart from a zero one.
type Coefficients struct {
	band   string
	values map[CoefficientKey]float64
}

// NewCoefficients creates a coefficient set for the named band. The values map
// is copied.
func NewCoefficients(band string, values map[CoefficientKey]float64) Coefficients {
	c := Coefficients{band: band, values: make(map[CoefficientKey]float64, len(values))}
	maps.Copy(c.values, values)
	return c
}

// Lookup returns the coefficient and whether it was present
func (c Coefficients) Lookup(key CoefficientKey) (float64, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Get returns the coefficient or a *MissingCoefficientError if it is absent
func (c Coefficients) Get(key CoefficientKey) (float64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, &MissingCoefficientError{Band: c.band, Key: key}
	}
	return v, nil
}

// Require checks every key is present and returns the first missing one as error
func (c Coefficients) Require(keys ...CoefficientKey) error {
	for _, key := range keys {
		if _, err := c.Get(key); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of present coefficients
func (c Coefficients) Len() int {
	return len(c.values)
}
