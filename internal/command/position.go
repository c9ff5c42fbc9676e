package command

import (
	"fmt"
	"strings"

	"media-transcoder/internal/encoding"
)

// NormalizePosition maps user input onto a known position. Case, dashes and
// underscores are ignored; anything unrecognized becomes BottomRight.
func NormalizePosition(p encoding.Position) encoding.Position {
	key := strings.ToLower(string(p))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)

	switch key {
	case "topleft":
		return encoding.TopLeft
	case "topright":
		return encoding.TopRight
	case "bottomleft":
		return encoding.BottomLeft
	case "center", "centre":
		return encoding.Center
	default:
		return encoding.BottomRight
	}
}

// Dims names the variables a filter uses for the frame and overlay sizes.
type Dims struct {
	MainW, MainH       string
	OverlayW, OverlayH string
}

var (
	overlayDims  = Dims{"main_w", "main_h", "overlay_w", "overlay_h"}
	drawtextDims = Dims{"w", "h", "text_w", "text_h"}
)

// Coordinates returns the x and y expressions that anchor an overlay of the
// given dimensions at pos, inset by margin pixels.
func Coordinates(pos encoding.Position, margin int, d Dims) (x, y string) {
	left := fmt.Sprintf("%d", margin)
	top := fmt.Sprintf("%d", margin)
	right := fmt.Sprintf("%s-%s-%d", d.MainW, d.OverlayW, margin)
	bottom := fmt.Sprintf("%s-%s-%d", d.MainH, d.OverlayH, margin)

	switch NormalizePosition(pos) {
	case encoding.TopLeft:
		return left, top
	case encoding.TopRight:
		return right, top
	case encoding.BottomLeft:
		return left, bottom
	case encoding.Center:
		return fmt.Sprintf("(%s-%s)/2", d.MainW, d.OverlayW), fmt.Sprintf("(%s-%s)/2", d.MainH, d.OverlayH)
	default:
		return right, bottom
	}
}
