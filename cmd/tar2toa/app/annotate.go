package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi     float64 = 72
	hinting string  = "full"
	size    float64 = 14
	spacing float64 = 1.2

	legendHeight = 12
	margin       = 6
)

// Caption is the text drawn over a preview
type Caption struct {
	SceneID  string
	Band     string
	Acquired string
	Unit     string
	Bounds   Bounds
	Valid    int
	Total    int
}

type Annotator struct {
	context *freetype.Context
}

func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)

	switch hinting {
	case "full":
		context.SetHinting(font.HintingFull)
	default:
		context.SetHinting(font.HintingNone)
	}

	return &Annotator{context: context}, nil
}

// Annotate draws the caption in the top left corner and a color legend along
// the bottom edge
func (a *Annotator) Annotate(img *image.RGBA, caption Caption, cm *ColorMapper) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, Caption, *ColorMapper) error
	}{
		{"drawing info", a.drawInfo},
		{"drawing legend", a.drawLegend},
	}
	for _, op := range ops {
		if err := op.fn(img, caption, cm); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawInfo(_ *image.RGBA, caption Caption, _ *ColorMapper) error {
	lines := []string{
		caption.SceneID,
		"Band: " + caption.Band,
	}
	if caption.Acquired != "" {
		lines = append(lines, "Acquired: "+caption.Acquired)
	}
	if caption.Total > 0 {
		pct := float64(caption.Valid) / float64(caption.Total) * 100
		lines = append(lines, fmt.Sprintf("Valid: %s of %s px (%0.1f%%)",
			humanize.Comma(int64(caption.Valid)), humanize.Comma(int64(caption.Total)), pct))
	}

	pt := freetype.Pt(margin, margin+int(size))
	for _, s := range lines {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += a.context.PointToFixed(size * spacing)
	}

	return nil
}

func (a *Annotator) drawLegend(img *image.RGBA, caption Caption, cm *ColorMapper) error {
	b := img.Bounds()
	top := b.Max.Y - margin - legendHeight
	width := b.Dx() - 2*margin
	if top < b.Min.Y+margin || width <= 0 {
		return nil
	}

	// translucent strip behind the legend and its labels
	backing := image.Rect(b.Min.X, top-int(size*spacing)-margin, b.Max.X, b.Max.Y)
	draw.Draw(img, backing, &image.Uniform{C: color.RGBA{A: 160}}, image.Point{}, draw.Over)

	for x := 0; x < width; x++ {
		v := caption.Bounds.Min + caption.Bounds.Span()*float64(x)/float64(width)
		c := cm.Color(v)
		for y := top; y < top+legendHeight; y++ {
			img.Set(b.Min.X+margin+x, y, c)
		}
	}

	labelY := top - margin/2
	if _, err := a.context.DrawString(formatValue(caption.Bounds.Min, caption.Unit), freetype.Pt(b.Min.X+margin, labelY)); err != nil {
		return err
	}

	maxLabel := formatValue(caption.Bounds.Max, caption.Unit)
	x := b.Max.X - margin - int(float64(len(maxLabel))*size*0.55)
	if _, err := a.context.DrawString(maxLabel, freetype.Pt(x, labelY)); err != nil {
		return err
	}
	return nil
}

func formatValue(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%0.3f", v)
	}
	return fmt.Sprintf("%0.1f %s", v, unit)
}
