package encoding

// Config is the effective encoding configuration for one request. It is
// produced by presets.Resolve and must not be modified afterwards.
type Config struct {
	VideoCodec     string         `json:"videoCodec" yaml:"videoCodec"`
	AudioCodec     string         `json:"audioCodec" yaml:"audioCodec"`
	VideoBitrate   string         `json:"videoBitrate,omitempty" yaml:"videoBitrate"`
	AudioBitrate   string         `json:"audioBitrate,omitempty" yaml:"audioBitrate"`
	Width          int            `json:"width,omitempty" yaml:"width"`
	Height         int            `json:"height,omitempty" yaml:"height"`
	FrameRate      string         `json:"frameRate,omitempty" yaml:"frameRate"`
	Preset         string         `json:"preset,omitempty" yaml:"preset"`
	Profile        string         `json:"profile,omitempty" yaml:"profile"`
	Level          string         `json:"level,omitempty" yaml:"level"`
	PixelFormat    string         `json:"pixelFormat,omitempty" yaml:"pixelFormat"`
	ContainerFlags string         `json:"containerFlags,omitempty" yaml:"containerFlags"`
	Threads        int            `json:"threads,omitempty" yaml:"threads"`
	Overwrite      bool           `json:"overwrite" yaml:"overwrite"`
	Watermark      *Watermark     `json:"watermark,omitempty" yaml:"-"`
	Trim           *TrimWindow    `json:"trim,omitempty" yaml:"-"`
	Thumbnails     *ThumbnailSpec `json:"thumbnails,omitempty" yaml:"-"`
}

// Defaults returns the built-in baseline every resolution starts from.
func Defaults() Config {
	return Config{
		VideoCodec:     "libx264",
		AudioCodec:     "aac",
		AudioBitrate:   "128k",
		Preset:         "medium",
		PixelFormat:    "yuv420p",
		ContainerFlags: "+faststart",
		Overwrite:      true,
	}
}

// Position is where an overlay is anchored on the frame.
type Position string

const (
	TopLeft     Position = "topLeft"
	TopRight    Position = "topRight"
	BottomLeft  Position = "bottomLeft"
	BottomRight Position = "bottomRight"
	Center      Position = "center"
)

// Watermark describes an image or text overlay. Exactly one of Image and
// Text must be set.
type Watermark struct {
	Image     string   `json:"image,omitempty"`
	Text      string   `json:"text,omitempty"`
	Position  Position `json:"position,omitempty"`
	Opacity   *float64 `json:"opacity,omitempty"`
	Margin    *int     `json:"margin,omitempty"`
	FontSize  int      `json:"fontSize,omitempty"`
	FontColor string   `json:"fontColor,omitempty"`
	FontFile  string   `json:"fontFile,omitempty"`
	BoxColor  string   `json:"boxColor,omitempty"`
}

const (
	defaultOpacity   = 0.8
	defaultMargin    = 10
	defaultFontSize  = 24
	defaultFontColor = "white"
)

// EffectiveOpacity returns the opacity with the default applied.
func (w *Watermark) EffectiveOpacity() float64 {
	if w.Opacity == nil {
		return defaultOpacity
	}
	return *w.Opacity
}

// EffectiveMargin returns the margin in pixels with the default applied.
func (w *Watermark) EffectiveMargin() int {
	if w.Margin == nil || *w.Margin < 0 {
		return defaultMargin
	}
	return *w.Margin
}

// EffectiveFontSize returns the font size with the default applied.
func (w *Watermark) EffectiveFontSize() int {
	if w.FontSize <= 0 {
		return defaultFontSize
	}
	return w.FontSize
}

// EffectiveFontColor returns the font color with the default applied.
func (w *Watermark) EffectiveFontColor() string {
	if w.FontColor == "" {
		return defaultFontColor
	}
	return w.FontColor
}

// TrimWindow bounds the encoded output to a sub-range of the source.
// Values are seconds ("12.5") or clock time ("00:01:02.5").
type TrimWindow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// ThumbnailSpec requests still frames as a post-step of a transcode, or as
// the whole of a thumbnail job.
type ThumbnailSpec struct {
	Count           int      `json:"count,omitempty"`
	Format          string   `json:"format,omitempty"`
	FilenamePattern string   `json:"filenamePattern,omitempty"`
	Timestamps      []string `json:"timestamps,omitempty"`
	Width           int      `json:"width,omitempty"`
}
