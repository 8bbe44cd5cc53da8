package layout

import (
	"image"
	"testing"

	"qrbatch/internal/domain/jsoncfg"
)

func TestComputePlacement(t *testing.T) {
	tests := []struct {
		name               string
		bgW, bgH, ovW, ovH int
		want               image.Point
	}{
		{name: "reference", bgW: 800, bgH: 600, ovW: 400, ovH: 300, want: image.Pt(200, 118)},
		{name: "odd remainder floors", bgW: 801, bgH: 601, ovW: 400, ovH: 300, want: image.Pt(200, 118)},
		{name: "qr box on portrait template", bgW: 1080, bgH: 1920, ovW: 700, ovH: 700, want: image.Pt(190, 578)},
		{name: "overlay larger than background", bgW: 600, bgH: 600, ovW: 700, ovH: 700, want: image.Pt(-50, -82)},
		{name: "missing metadata uses defaults", want: image.Pt(200, 118)},
	}
	var e Engine
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.ComputePlacement(tc.bgW, tc.bgH, tc.ovW, tc.ovH); got != tc.want {
				t.Fatalf("ComputePlacement() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestComputePlacementCustomLift(t *testing.T) {
	e := Engine{Lift: 100}
	if got := e.ComputePlacement(800, 600, 400, 300); got != image.Pt(200, 50) {
		t.Fatalf("ComputePlacement() = %v", got)
	}
}

func TestComputePlacementExplicitZeroLift(t *testing.T) {
	if got := NewEngine(0).ComputePlacement(800, 600, 400, 300); got != image.Pt(200, 150) {
		t.Fatalf("NewEngine(0) placement = %v, want centered", got)
	}
	if got := NewEngine(32).ComputePlacement(800, 600, 400, 300); got != (Engine{}).ComputePlacement(800, 600, 400, 300) {
		t.Fatalf("NewEngine(32) placement = %v, want default lift", got)
	}
}

func TestTextAnchors(t *testing.T) {
	var e Engine
	a := e.TextAnchors(1000, jsoncfg.TextConfig{})
	if a.Chinese.X != 500 || a.English.X != 500 {
		t.Fatalf("x anchors = %v/%v, want 500", a.Chinese.X, a.English.X)
	}
	if a.Chinese.Y != 150 || a.English.Y != 220 {
		t.Fatalf("y anchors = %v/%v, want 150/220", a.Chinese.Y, a.English.Y)
	}

	a = e.TextAnchors(0, jsoncfg.TextConfig{ChineseTopOffset: 900, EnglishTopOffset: 980})
	if a.Chinese.X != 400 {
		t.Fatalf("default width anchor = %v, want 400", a.Chinese.X)
	}
	if a.Chinese.Y != 900 || a.English.Y != 980 {
		t.Fatalf("configured y anchors = %v/%v", a.Chinese.Y, a.English.Y)
	}
}
