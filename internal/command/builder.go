package command

import (
	"strconv"

	"media-transcoder/internal/encoding"
	"media-transcoder/internal/logging"
)

// Builder assembles encoder argument lists.
type Builder struct {
	fontPaths  []string
	fileExists func(string) bool
}

// NewBuilder returns a Builder that searches extraFonts before
// DefaultFontPaths when a text watermark names no usable font.
func NewBuilder(extraFonts []string) *Builder {
	paths := make([]string, 0, len(extraFonts)+len(DefaultFontPaths))
	for _, p := range extraFonts {
		if p != "" {
			paths = append(paths, p)
		}
	}
	paths = append(paths, DefaultFontPaths...)

	return &Builder{fontPaths: paths, fileExists: isRegularFile}
}

// Build validates cfg and returns the ffmpeg arguments that encode input
// into output.
func (b *Builder) Build(input, output string, cfg encoding.Config) ([]string, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	var args []string

	// Trim bounds were checked by Validate.
	var start, end float64
	if cfg.Trim != nil {
		if cfg.Trim.Start != "" {
			start, _ = encoding.ParseTimestamp(cfg.Trim.Start)
			args = append(args, "-ss", encoding.FormatSeconds(start))
		}
	}

	args = append(args, "-i", input)

	wm := cfg.Watermark
	imageMark := wm != nil && wm.Image != ""
	if imageMark {
		args = append(args, "-i", wm.Image)
	}

	if cfg.Trim != nil && cfg.Trim.End != "" {
		end, _ = encoding.ParseTimestamp(cfg.Trim.End)
		args = append(args, "-t", encoding.FormatSeconds(end-start))
	}

	args = appendIf(args, "-c:v", cfg.VideoCodec)
	args = appendIf(args, "-c:a", cfg.AudioCodec)
	args = appendIf(args, "-b:v", cfg.VideoBitrate)
	args = appendIf(args, "-b:a", cfg.AudioBitrate)

	scale := scaleFilter(cfg.Width, cfg.Height)
	switch {
	case imageMark:
		args = append(args,
			"-filter_complex", overlayGraph(wm, scale),
			"-map", "[vout]",
			"-map", "0:a?",
		)
	case wm != nil:
		chain := b.textFilter(wm)
		if scale != "" {
			chain = scale + "," + chain
		}
		args = append(args, "-vf", chain)
	case scale != "":
		args = append(args, "-vf", scale)
	}

	args = appendIf(args, "-r", cfg.FrameRate)
	args = appendIf(args, "-preset", cfg.Preset)
	args = appendIf(args, "-profile:v", cfg.Profile)
	args = appendIf(args, "-level", cfg.Level)
	args = appendIf(args, "-pix_fmt", cfg.PixelFormat)
	args = appendIf(args, "-movflags", cfg.ContainerFlags)
	if cfg.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(cfg.Threads))
	}

	args = append(args, "-stats")
	if cfg.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	return append(args, output), nil
}

// textFilter renders a text watermark, or a box when no font is available.
func (b *Builder) textFilter(wm *encoding.Watermark) string {
	font := b.findFont(wm.FontFile)
	if font == "" {
		logging.Warn("No usable font found for text watermark, drawing a solid box at %s instead", NormalizePosition(wm.Position))
		return drawboxFilter(wm)
	}
	return drawtextFilter(wm, font)
}

// FontAvailable reports whether a text watermark would be rendered as text.
func (b *Builder) FontAvailable(requested string) bool {
	return b.findFont(requested) != ""
}

func appendIf(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

// ThumbnailArgs returns the arguments that capture one frame of input at
// the given second into output, optionally scaled to width.
func ThumbnailArgs(input, output string, at float64, width int) []string {
	args := []string{
		"-ss", encoding.FormatSeconds(at),
		"-i", input,
		"-an",
		"-frames:v", "1",
	}
	if width > 0 {
		args = append(args, "-vf", scaleFilter(width, 0))
	}
	return append(args, "-y", output)
}
