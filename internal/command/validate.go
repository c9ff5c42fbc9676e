package command

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp for watermark images

	"media-transcoder/internal/encoding"
	"media-transcoder/internal/filesystem"
	"media-transcoder/internal/logging"
)

// ThumbnailFormats lists the accepted still image formats.
var ThumbnailFormats = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// Validate checks cfg for configuration errors.
func Validate(cfg encoding.Config) error {
	if cfg.Width < 0 || cfg.Height < 0 {
		return fmt.Errorf("%w: width and height must not be negative", ErrInvalidDimensions)
	}
	if cfg.Threads < 0 {
		return fmt.Errorf("%w: thread count must not be negative", ErrInvalidDimensions)
	}
	if err := validateWatermark(cfg.Watermark); err != nil {
		return err
	}
	if err := validateTrim(cfg.Trim); err != nil {
		return err
	}
	return ValidateThumbnails(cfg.Thumbnails)
}

func validateWatermark(wm *encoding.Watermark) error {
	if wm == nil {
		return nil
	}

	hasImage := wm.Image != ""
	hasText := strings.TrimSpace(wm.Text) != ""
	switch {
	case !hasImage && !hasText:
		return fmt.Errorf("%w: either image or text must be set", ErrInvalidWatermark)
	case hasImage && hasText:
		return fmt.Errorf("%w: image and text are mutually exclusive", ErrInvalidWatermark)
	}

	if op := wm.EffectiveOpacity(); op < 0 || op > 1 {
		return fmt.Errorf("%w: opacity %v outside 0-1", ErrInvalidWatermark, op)
	}
	if wm.FontSize < 0 {
		return fmt.Errorf("%w: font size must not be negative", ErrInvalidWatermark)
	}

	if !hasImage {
		return nil
	}

	info, err := filesystem.StatWithRetry(wm.Image, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrWatermarkNotFound, baseName(wm.Image))
		}
		return fmt.Errorf("%w: cannot access %s: %v", ErrWatermarkNotFound, baseName(wm.Image), pathless(err))
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a file", ErrWatermarkNotFound, baseName(wm.Image))
	}

	img, err := imaging.Open(wm.Image)
	if err != nil {
		return fmt.Errorf("%w: cannot decode %s: %v", ErrInvalidWatermark, baseName(wm.Image), pathless(err))
	}
	b := img.Bounds()
	logging.Debug("Watermark image %s is %dx%d", baseName(wm.Image), b.Dx(), b.Dy())

	return nil
}

func validateTrim(trim *encoding.TrimWindow) error {
	if trim == nil {
		return nil
	}

	var start, end float64
	var err error
	if trim.Start != "" {
		if start, err = encoding.ParseTimestamp(trim.Start); err != nil {
			return fmt.Errorf("%w: start: %v", ErrInvalidTrim, err)
		}
	}
	if trim.End != "" {
		if end, err = encoding.ParseTimestamp(trim.End); err != nil {
			return fmt.Errorf("%w: end: %v", ErrInvalidTrim, err)
		}
		if end <= start {
			return fmt.Errorf("%w: end must be after start", ErrInvalidTrim)
		}
	}
	return nil
}

// ValidateThumbnails checks a thumbnail spec. A nil spec is valid.
func ValidateThumbnails(spec *encoding.ThumbnailSpec) error {
	if spec == nil {
		return nil
	}
	if spec.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidThumbnails)
	}
	if spec.Width < 0 {
		return fmt.Errorf("%w: width must not be negative", ErrInvalidThumbnails)
	}
	if spec.Format != "" && !ThumbnailFormats[strings.ToLower(spec.Format)] {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidThumbnails, spec.Format)
	}
	for _, ts := range spec.Timestamps {
		if _, err := encoding.ParseTimestamp(ts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidThumbnails, err)
		}
	}
	if strings.ContainsAny(spec.FilenamePattern, `/\`) {
		return fmt.Errorf("%w: filename pattern must not contain path separators", ErrInvalidThumbnails)
	}
	return nil
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// pathless drops the path from filesystem errors so messages can reach
// API clients.
func pathless(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
