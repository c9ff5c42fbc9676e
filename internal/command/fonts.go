package command

import (
	"os"

	"media-transcoder/internal/logging"
)

// DefaultFontPaths is the fallback search list for text watermarks.
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/noto/NotoSans-Regular.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/Library/Fonts/Arial.ttf",
	"C:/Windows/Fonts/arial.ttf",
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// findFont returns the first usable font: the requested one, then the search
// list. An empty result means no font is available.
func (b *Builder) findFont(requested string) string {
	if requested != "" {
		if b.fileExists(requested) {
			return requested
		}
		logging.Warn("Requested font %s not found, searching fallbacks", requested)
	}

	for _, p := range b.fontPaths {
		if b.fileExists(p) {
			return p
		}
	}
	return ""
}
