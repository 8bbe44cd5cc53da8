// Package textlayer rasterizes the two label lines onto a transparent layer
// the size of a background image.
package textlayer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"qrbatch/internal/domain"
	"qrbatch/internal/domain/jsoncfg"
	"qrbatch/internal/layout"
)

// Renderer draws labels with faces from a FontLibrary. It is safe for
// concurrent use; every call owns its drawing context and faces.
type Renderer struct {
	fonts  *FontLibrary
	layout layout.Engine
}

// NewRenderer builds a renderer. A nil library falls back to the Go fonts.
func NewRenderer(fonts *FontLibrary, engine layout.Engine) (*Renderer, error) {
	if fonts == nil {
		lib, err := NewFontLibrary()
		if err != nil {
			return nil, err
		}
		fonts = lib
	}
	return &Renderer{fonts: fonts, layout: engine}, nil
}

type line struct {
	text    string
	size    float64
	color   color.Color
	bold    bool
	stroke  float64
	spacing float64
	anchor  layout.Anchor
}

// Render returns a bgWidth x bgHeight RGBA layer with the Chinese line
// centered at the Chinese anchor and the English line at the English anchor.
// Label text is drawn as literal glyphs.
func (r *Renderer) Render(bgWidth, bgHeight int, label domain.Label, style jsoncfg.TextConfig) (image.Image, error) {
	if bgWidth <= 0 {
		bgWidth = layout.DefaultBackgroundWidth
	}
	if bgHeight <= 0 {
		bgHeight = layout.DefaultBackgroundHeight
	}
	style.Normalize()
	anchors := r.layout.TextAnchors(bgWidth, style)

	dc := gg.NewContext(bgWidth, bgHeight)
	lines := []line{
		{
			text:    label.Chinese,
			size:    style.FontSize,
			color:   ParseColor(style.Color),
			bold:    jsoncfg.IsBoldWeight(style.FontWeight),
			stroke:  style.StrokeWidth,
			spacing: style.ChineseLetterSpacing,
			anchor:  anchors.Chinese,
		},
		{
			text:    label.English,
			size:    style.EnglishFontSize,
			color:   ParseColor(style.EnglishColor),
			bold:    jsoncfg.IsBoldWeight(style.EnglishFontWeight),
			stroke:  style.EnglishStrokeWidth,
			spacing: style.EnglishLetterSpacing,
			anchor:  anchors.English,
		},
	}
	for _, ln := range lines {
		if strings.TrimSpace(ln.text) == "" {
			continue
		}
		if err := r.drawLine(dc, style.FontFamily, ln); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}

func (r *Renderer) drawLine(dc *gg.Context, family string, ln line) error {
	face, synthetic, err := r.fonts.Face(family, ln.size, ln.bold)
	if err != nil {
		return fmt.Errorf("textlayer: %w", err)
	}
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetColor(ln.color)
	offsets := inkOffsets(ln.stroke, synthetic, ln.size)

	if ln.spacing == 0 {
		for _, o := range offsets {
			dc.DrawStringAnchored(ln.text, ln.anchor.X+o.X, ln.anchor.Y+o.Y, 0.5, 0.5)
		}
		return nil
	}

	runes := []rune(ln.text)
	widths := make([]float64, len(runes))
	total := ln.spacing * float64(len(runes)-1)
	for i, ch := range runes {
		w, _ := dc.MeasureString(string(ch))
		widths[i] = w
		total += w
	}
	x := ln.anchor.X - total/2
	for i, ch := range runes {
		s := string(ch)
		for _, o := range offsets {
			dc.DrawStringAnchored(s, x+o.X, ln.anchor.Y+o.Y, 0, 0.5)
		}
		x += widths[i] + ln.spacing
	}
	return nil
}

// inkOffsets returns the positions each glyph is stamped at. A stroke adds a
// ring of copies at the stroke radius; synthetic bold widens horizontally.
func inkOffsets(stroke float64, fauxBold bool, size float64) []gg.Point {
	offsets := []gg.Point{{X: 0, Y: 0}}
	if stroke > 0 {
		radius := stroke / 2
		if radius < 0.5 {
			radius = 0.5
		}
		steps := 8
		if radius > 2 {
			steps = 16
		}
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			offsets = append(offsets, gg.Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
		}
	}
	if fauxBold {
		shift := math.Max(0.5, size/40)
		offsets = append(offsets, gg.Point{X: shift / 2, Y: 0}, gg.Point{X: shift, Y: 0})
	}
	return offsets
}

// ParseColor accepts #rgb, #rgba, #rrggbb, #rrggbbaa and a handful of color
// names. Anything else yields black.
func ParseColor(v string) color.Color {
	v = strings.ToLower(strings.TrimSpace(v))
	if c, ok := namedColors[v]; ok {
		return c
	}
	hex := strings.TrimPrefix(v, "#")
	switch len(hex) {
	case 3, 4:
		var b strings.Builder
		for _, ch := range hex {
			b.WriteRune(ch)
			b.WriteRune(ch)
		}
		hex = b.String()
	case 6, 8:
	default:
		return color.NRGBA{A: 0xff}
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	if len(hex) == 6 {
		return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
}

var namedColors = map[string]color.Color{
	"black": color.NRGBA{A: 0xff},
	"white": color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":   color.NRGBA{R: 0xff, A: 0xff},
	"green": color.NRGBA{G: 0x80, A: 0xff},
	"blue":  color.NRGBA{B: 0xff, A: 0xff},
	"gray":  color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":  color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}
