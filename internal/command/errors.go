package command

import "errors"

// Configuration errors. They are wrapped with detail and returned before any
// process is launched.
var (
	ErrInvalidWatermark  = errors.New("invalid watermark")
	ErrWatermarkNotFound = errors.New("watermark image not found")
	ErrInvalidTrim       = errors.New("invalid trim window")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrInvalidThumbnails = errors.New("invalid thumbnail options")
)

// IsConfigError reports whether err is one of the configuration errors.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidWatermark) ||
		errors.Is(err, ErrWatermarkNotFound) ||
		errors.Is(err, ErrInvalidTrim) ||
		errors.Is(err, ErrInvalidDimensions) ||
		errors.Is(err, ErrInvalidThumbnails)
}
