package landsat

import "fmt"

const (
	Reflective   BandType = "REFLECTIVE"
	Panchromatic BandType = "PANCHROMATIC"
	Thermal      BandType = "THERMAL"
	Mask         BandType = "MASK"
)

const (
	CoefReflectanceMult CoefficientKey = "Mref"
	CoefReflectanceAdd  CoefficientKey = "Aref"
	CoefSunElevation    CoefficientKey = "SE" // radians
	CoefRadianceMult    CoefficientKey = "Mrad"
	CoefRadianceAdd     CoefficientKey = "Arad"
	CoefK1              CoefficientKey = "K1"
	CoefK2              CoefficientKey = "K2"
)

// BandCount is the number of band tiles a Landsat-8 Level-1 archive carries.
const BandCount = 13

// BandType is the radiometric kind of band, deciding which transform applies
type BandType string

func (t BandType) String() string {
	return string(t)
}

// RequiredCoefficients returns the calibration coefficients the band type
// needs. Mask bands need none.
func (t BandType) RequiredCoefficients() []CoefficientKey {
	switch t {
	case Reflective, Panchromatic:
		return []CoefficientKey{CoefReflectanceMult, CoefReflectanceAdd, CoefSunElevation}
	case Thermal:
		return []CoefficientKey{CoefRadianceMult, CoefRadianceAdd, CoefK1, CoefK2}
	default:
		return nil
	}
}

// Calibrated reports whether the band type carries a radiometric transform
func (t BandType) Calibrated() bool {
	return t == Reflective || t == Panchromatic || t == Thermal
}

// Descriptor identifies one band of the Landsat-8 OLI/TIRS product
type Descriptor struct {
	Index int      // 1-based position in acquisition order
	Name  string   // Band role, also used as the output band description
	Type  BandType // Radiometric kind
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (B%d, %s)", d.Name, d.Index, d.Type)
}

// Bands is the ordered Landsat-8 band table. The Kth band tile of an archive,
// in natural sort order, is bound to Bands[K-1].
var Bands = [BandCount]Descriptor{
	{Index: 1, Name: "CoastalAerosol", Type: Reflective},
	{Index: 2, Name: "Blue", Type: Reflective},
	{Index: 3, Name: "Green", Type: Reflective},
	{Index: 4, Name: "Red", Type: Reflective},
	{Index: 5, Name: "NIR", Type: Reflective},
	{Index: 6, Name: "SWIR1", Type: Reflective},
	{Index: 7, Name: "SWIR2", Type: Reflective},
	{Index: 8, Name: "Panchromatic", Type: Panchromatic},
	{Index: 9, Name: "Cirrus", Type: Reflective},
	{Index: 10, Name: "TIRS1", Type: Thermal},
	{Index: 11, Name: "TIRS2", Type: Thermal},
	{Index: 12, Name: "QAPIXEL", Type: Mask},
	{Index: 13, Name: "QARADSAT", Type: Mask},
}

// Well known band names used by the driver
const (
	BandQAPixel  = "QAPIXEL"
	BandQARadsat = "QARADSAT"
)

// BandByIndex returns the descriptor for a 1-based band index
func BandByIndex(idx int) (Descriptor, bool) {
	if idx < 1 || idx > BandCount {
		return Descriptor{}, false
	}
	return Bands[idx-1], true
}

// BandByName returns the descriptor with the given name
func BandByName(name string) (Descriptor, bool) {
	for _, d := range Bands {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
