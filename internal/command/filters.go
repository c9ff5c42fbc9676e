package command

import (
	"fmt"
	"strconv"
	"strings"

	"media-transcoder/internal/encoding"
)

// scaleFilter returns the scale expression, or "" when no resize is wanted.
// A single dimension lets the encoder compute the other, kept even.
func scaleFilter(width, height int) string {
	switch {
	case width > 0 && height > 0:
		return fmt.Sprintf("scale=%d:%d", width, height)
	case width > 0:
		return fmt.Sprintf("scale=%d:-2", width)
	case height > 0:
		return fmt.Sprintf("scale=-2:%d", height)
	default:
		return ""
	}
}

var textEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\\'`,
	`:`, `\\:`,
	`%`, `\\%`,
	`,`, `\,`,
	`;`, `\;`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeFilterValue escapes a string for use as a drawtext option value.
func escapeFilterValue(s string) string {
	return textEscaper.Replace(s)
}

func formatOpacity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func colorWithAlpha(color string, opacity float64) string {
	if strings.Contains(color, "@") {
		return color
	}
	return color + "@" + formatOpacity(opacity)
}

// drawtextFilter burns wm.Text into the frame using fontFile.
func drawtextFilter(wm *encoding.Watermark, fontFile string) string {
	x, y := Coordinates(wm.Position, wm.EffectiveMargin(), drawtextDims)

	parts := []string{
		"fontfile=" + escapeFilterValue(fontFile),
		"text=" + escapeFilterValue(wm.Text),
		fmt.Sprintf("fontsize=%d", wm.EffectiveFontSize()),
		"fontcolor=" + colorWithAlpha(wm.EffectiveFontColor(), wm.EffectiveOpacity()),
		"x=" + x,
		"y=" + y,
	}
	if wm.BoxColor != "" {
		parts = append(parts, "box=1", "boxcolor="+colorWithAlpha(wm.BoxColor, wm.EffectiveOpacity()), "boxborderw=5")
	}
	return "drawtext=" + strings.Join(parts, ":")
}

// textBoxSize estimates the rendered size of wm.Text in pixels.
func textBoxSize(wm *encoding.Watermark) (w, h int) {
	size := float64(wm.EffectiveFontSize())
	chars := len([]rune(wm.Text))
	if chars == 0 {
		chars = 1
	}
	return int(float64(chars) * size * 0.6), int(size * 1.2)
}

// drawboxFilter paints a solid rectangle where the text would have gone.
func drawboxFilter(wm *encoding.Watermark) string {
	w, h := textBoxSize(wm)
	x, y := Coordinates(wm.Position, wm.EffectiveMargin(), Dims{
		MainW: "iw", MainH: "ih",
		OverlayW: strconv.Itoa(w), OverlayH: strconv.Itoa(h),
	})

	color := wm.BoxColor
	if color == "" {
		color = wm.EffectiveFontColor()
	}
	return fmt.Sprintf("drawbox=x=%s:y=%s:w=%d:h=%d:color=%s:t=fill",
		x, y, w, h, colorWithAlpha(color, wm.EffectiveOpacity()))
}

// overlayGraph composes an image watermark (input 1) over the main video
// (input 0). The result is labelled [vout].
func overlayGraph(wm *encoding.Watermark, scale string) string {
	x, y := Coordinates(wm.Position, wm.EffectiveMargin(), overlayDims)
	mark := fmt.Sprintf("[1:v]format=rgba,colorchannelmixer=aa=%s[wm]", formatOpacity(wm.EffectiveOpacity()))
	overlay := fmt.Sprintf("overlay=%s:%s[vout]", x, y)

	if scale == "" {
		return mark + ";[0:v][wm]" + overlay
	}
	return "[0:v]" + scale + "[base];" + mark + ";[base][wm]" + overlay
}
