package app

import (
	"image/color"
	"math"
)

// ColorTheme is a predefined color scheme for calibrated values:
// - ClassicTheme: blue to red
// - GrayscaleTheme: black to white, the natural choice for reflectance
// - JungleTheme: dark green to yellow, useful for NIR
// - ThermalTheme: heat map for the TIRS bands
// - MarineTheme: deep blue to white, for the coastal band
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorMapSize = 256 // Default number of colors in the map
)

var validColorThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	JungleTheme:    {},
	ThermalTheme:   {},
	MarineTheme:    {},
}

// noDataColor is used for masked and fill pixels
var noDataColor = color.RGBA{}

// ColorMapper maps calibrated values to colors of a theme over a value range
type ColorMapper struct {
	colorMap      []color.Color // Pre-computed colors
	theme         func(float64) color.Color
	themeName     ColorTheme
	size          int
	valuePerIndex float64
	bounds        Bounds
}

// NewColorMapper creates a mapper with the default color map size
func NewColorMapper(theme ColorTheme, bounds Bounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a mapper with size pre-computed colors
func NewColorMapperWithSize(theme ColorTheme, bounds Bounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		theme:     getColorTheme(theme),
		themeName: theme,
		size:      size,
	}
	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the value range covered by the color map
func (cm *ColorMapper) UpdateBounds(bounds Bounds) {
	cm.bounds = bounds
	cm.valuePerIndex = bounds.Span() / float64(cm.size-1)
}

// Color returns the color of value. Values outside the bounds are clamped.
func (cm *ColorMapper) Color(value float64) color.Color {
	if math.IsNaN(value) {
		return noDataColor
	}
	if cm.valuePerIndex <= 0 {
		return cm.colorMap[cm.size/2]
	}

	index := int((value - cm.bounds.Min) / cm.valuePerIndex)
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// ThemeName returns the color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// Size returns the color map size
func (cm *ColorMapper) Size() int {
	return cm.size
}

// HSV represents a color in HSV (Hue, Saturation, Value) color space
type HSV struct {
	H float64 // Hue angle in degrees [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value/Brightness [0-1]
}

// RGB converts HSV to RGB color space
func (hsv HSV) RGB() color.Color {
	if hsv.S <= 0.0 {
		v := uint8(hsv.V * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	h := math.Mod(hsv.H, 360) / 60
	i := int(h)
	f := h - float64(i)

	v := uint8(hsv.V * 255)
	p := uint8((hsv.V * (1 - hsv.S)) * 255)
	q := uint8((hsv.V * (1 - (hsv.S * f))) * 255)
	t := uint8((hsv.V * (1 - (hsv.S * (1 - f)))) * 255)

	switch i {
	case 0:
		return color.RGBA{R: v, G: t, B: p, A: 255}
	case 1:
		return color.RGBA{R: q, G: v, B: p, A: 255}
	case 2:
		return color.RGBA{R: p, G: v, B: t, A: 255}
	case 3:
		return color.RGBA{R: p, G: q, B: v, A: 255}
	case 4:
		return color.RGBA{R: t, G: p, B: v, A: 255}
	default: // case 5:
		return color.RGBA{R: v, G: p, B: q, A: 255}
	}
}

func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(v float64) color.Color {
			return HSV{
				H: 240 - (v * 240),
				S: 0.9 + (v * 0.1),
				V: math.Pow(v, 0.7),
			}.RGB()
		}

	case JungleTheme:
		return func(v float64) color.Color {
			return HSV{
				H: 120 - (v * 60),
				S: 1.0,
				V: 0.3 + (math.Pow(v, 0.6) * 0.7),
			}.RGB()
		}

	case ThermalTheme:
		return func(v float64) color.Color {
			if v < 0.33 {
				return color.RGBA{R: uint8((v * 3) * 255), A: 255}
			}
			if v < 0.66 {
				return color.RGBA{R: 255, G: uint8(((v - 0.33) * 3) * 255), A: 255}
			}
			return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (v-0.66)*3) * 255), A: 255}
		}

	case MarineTheme:
		return func(v float64) color.Color {
			return HSV{
				H: 240 - (v * 60),
				S: 1.0 - (v * 0.8),
				V: 0.3 + (math.Pow(v, 0.6) * 0.7),
			}.RGB()
		}

	default: // grayscale, gamma corrected
		return func(v float64) color.Color {
			g := uint8(math.Pow(v, 0.7) * 255)
			return color.RGBA{R: g, G: g, B: g, A: 255}
		}
	}
}
