package jsoncfg

import "testing"

func TestTextConfigNormalizeDefaults(t *testing.T) {
	c := &TextConfig{}
	c.Normalize()

	if c.FontFamily != DefaultFontFamily {
		t.Fatalf("FontFamily = %q, want %q", c.FontFamily, DefaultFontFamily)
	}
	if c.FontSize != DefaultChineseFontSize {
		t.Fatalf("FontSize = %v, want %v", c.FontSize, DefaultChineseFontSize)
	}
	if c.EnglishFontSize != DefaultEnglishFontSize {
		t.Fatalf("EnglishFontSize = %v, want %v", c.EnglishFontSize, DefaultEnglishFontSize)
	}
	if c.Color != DefaultColor || c.EnglishColor != DefaultColor {
		t.Fatalf("colors = %q/%q, want %q", c.Color, c.EnglishColor, DefaultColor)
	}
	if c.FontWeight != DefaultFontWeight || c.EnglishFontWeight != DefaultFontWeight {
		t.Fatalf("weights = %q/%q, want %q", c.FontWeight, c.EnglishFontWeight, DefaultFontWeight)
	}
	if c.ChineseTopOffset != DefaultChineseTopOffset {
		t.Fatalf("ChineseTopOffset = %v, want %v", c.ChineseTopOffset, DefaultChineseTopOffset)
	}
	if c.EnglishTopOffset != DefaultEnglishTopOffset {
		t.Fatalf("EnglishTopOffset = %v, want %v", c.EnglishTopOffset, DefaultEnglishTopOffset)
	}
}

func TestTextConfigNormalizeKeepsExplicitValues(t *testing.T) {
	c := TextConfig{
		FontFamily:           " Noto Sans SC ",
		FontSize:             60,
		Color:                "#ff0000",
		FontWeight:           "Normal",
		EnglishLetterSpacing: 2,
		ChineseTopOffset:     300,
		StrokeWidth:          -1,
	}.Normalized()

	if c.FontFamily != "Noto Sans SC" {
		t.Fatalf("FontFamily = %q", c.FontFamily)
	}
	if c.FontSize != 60 || c.Color != "#ff0000" {
		t.Fatalf("explicit size/color overwritten: %v %q", c.FontSize, c.Color)
	}
	if c.FontWeight != "normal" {
		t.Fatalf("FontWeight = %q, want normal", c.FontWeight)
	}
	if c.EnglishLetterSpacing != 2 || c.ChineseTopOffset != 300 {
		t.Fatalf("spacing/offset overwritten: %v %v", c.EnglishLetterSpacing, c.ChineseTopOffset)
	}
	if c.StrokeWidth != 0 {
		t.Fatalf("negative stroke should clamp to 0, got %v", c.StrokeWidth)
	}
}

func TestIsBoldWeight(t *testing.T) {
	for _, w := range []string{"bold", "BOLD", "700", "bolder"} {
		if !IsBoldWeight(w) {
			t.Fatalf("IsBoldWeight(%q) = false", w)
		}
	}
	for _, w := range []string{"normal", "400", "", "lighter"} {
		if IsBoldWeight(w) {
			t.Fatalf("IsBoldWeight(%q) = true", w)
		}
	}
}
