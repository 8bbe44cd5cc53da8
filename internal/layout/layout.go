// Package layout computes where the QR overlay and the label lines sit on a
// background template.
package layout

import (
	"image"

	"qrbatch/internal/domain/jsoncfg"
)

// Fallback dimensions used when an image could not be probed.
const (
	DefaultBackgroundWidth  = 800
	DefaultBackgroundHeight = 600
	DefaultOverlayWidth     = 400
	DefaultOverlayHeight    = 300

	// DefaultLift moves the QR code up from the vertical center to leave
	// room for the label lines.
	DefaultLift = 32
)

// Engine computes placements. The zero value uses DefaultLift; build with
// NewEngine to make a Lift of 0 mean no lift.
type Engine struct {
	Lift int

	liftSet bool
}

// NewEngine returns an engine that lifts the overlay by exactly lift pixels.
func NewEngine(lift int) Engine {
	return Engine{Lift: lift, liftSet: true}
}

// Anchor is the center point of one text line.
type Anchor struct {
	X float64
	Y float64
}

// Anchors holds the text anchors of both label lines.
type Anchors struct {
	Chinese Anchor
	English Anchor
}

func (e Engine) lift() int {
	if e.Lift == 0 && !e.liftSet {
		return DefaultLift
	}
	return e.Lift
}

// ComputePlacement returns the top-left corner of the overlay: centered
// horizontally, centered vertically and then lifted.
func (e Engine) ComputePlacement(bgWidth, bgHeight, overlayWidth, overlayHeight int) image.Point {
	bgWidth = orDefault(bgWidth, DefaultBackgroundWidth)
	bgHeight = orDefault(bgHeight, DefaultBackgroundHeight)
	overlayWidth = orDefault(overlayWidth, DefaultOverlayWidth)
	overlayHeight = orDefault(overlayHeight, DefaultOverlayHeight)

	x := floorDiv(bgWidth-overlayWidth, 2)
	y := floorDiv(bgHeight-overlayHeight, 2) - e.lift()
	return image.Pt(x, y)
}

// TextAnchors returns the line anchors for a background of the given width.
func (e Engine) TextAnchors(bgWidth int, style jsoncfg.TextConfig) Anchors {
	cx := float64(orDefault(bgWidth, DefaultBackgroundWidth)) / 2
	chineseY := style.ChineseTopOffset
	if chineseY == 0 {
		chineseY = jsoncfg.DefaultChineseTopOffset
	}
	englishY := style.EnglishTopOffset
	if englishY == 0 {
		englishY = jsoncfg.DefaultEnglishTopOffset
	}
	return Anchors{
		Chinese: Anchor{X: cx, Y: chineseY},
		English: Anchor{X: cx, Y: englishY},
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// floorDiv rounds toward negative infinity so overlays larger than the
// background are placed like Math.floor would.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
