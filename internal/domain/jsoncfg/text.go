package jsoncfg

import "strings"

// TextConfig is the per-batch style of the two label lines. Zero values mean
// "not provided" and are replaced by Normalize.
type TextConfig struct {
	FontFamily  string  `json:"fontFamily"`
	FontSize    float64 `json:"fontSize"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	FontWeight  string  `json:"fontWeight"`

	EnglishFontSize    float64 `json:"englishFontSize"`
	EnglishColor       string  `json:"englishColor"`
	EnglishStrokeWidth float64 `json:"englishStrokeWidth"`
	EnglishFontWeight  string  `json:"englishFontWeight"`

	ChineseTopOffset float64 `json:"chineseTopOffset"`
	EnglishTopOffset float64 `json:"englishTopOffset"`

	ChineseLetterSpacing float64 `json:"chineseLetterSpacing"`
	EnglishLetterSpacing float64 `json:"englishLetterSpacing"`
}

const (
	// DefaultFontFamily names the font configured through FONT_PATH.
	DefaultFontFamily = "CustomFont"
	// DefaultChineseFontSize is the pixel size of the Chinese line.
	DefaultChineseFontSize = 48
	// DefaultEnglishFontSize is the pixel size of the English line.
	DefaultEnglishFontSize = 36
	// DefaultColor is applied to both lines when no color is given.
	DefaultColor = "#000000"
	// DefaultFontWeight is applied to both lines when no weight is given.
	DefaultFontWeight = "bold"
	// DefaultChineseTopOffset is the y anchor of the Chinese line.
	DefaultChineseTopOffset = 150
	// DefaultEnglishTopOffset is the y anchor of the English line.
	DefaultEnglishTopOffset = 220
)

// Normalize fills every absent field with its default so the renderer never
// sees an undefined style value.
func (c *TextConfig) Normalize() {
	if c == nil {
		return
	}
	c.FontFamily = strings.TrimSpace(c.FontFamily)
	if c.FontFamily == "" {
		c.FontFamily = DefaultFontFamily
	}
	if c.FontSize <= 0 {
		c.FontSize = DefaultChineseFontSize
	}
	if c.EnglishFontSize <= 0 {
		c.EnglishFontSize = DefaultEnglishFontSize
	}
	c.Color = normalizeColor(c.Color)
	c.EnglishColor = normalizeColor(c.EnglishColor)
	c.FontWeight = normalizeWeight(c.FontWeight)
	c.EnglishFontWeight = normalizeWeight(c.EnglishFontWeight)
	if c.StrokeWidth < 0 {
		c.StrokeWidth = 0
	}
	if c.EnglishStrokeWidth < 0 {
		c.EnglishStrokeWidth = 0
	}
	if c.ChineseTopOffset == 0 {
		c.ChineseTopOffset = DefaultChineseTopOffset
	}
	if c.EnglishTopOffset == 0 {
		c.EnglishTopOffset = DefaultEnglishTopOffset
	}
}

// Normalized returns a normalized copy.
func (c TextConfig) Normalized() TextConfig {
	c.Normalize()
	return c
}

func normalizeColor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultColor
	}
	return v
}

func normalizeWeight(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return DefaultFontWeight
	}
	return v
}

// IsBoldWeight reports whether a CSS-style font weight selects a bold face.
func IsBoldWeight(weight string) bool {
	switch strings.ToLower(strings.TrimSpace(weight)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	default:
		return false
	}
}
