package encoding

// Overrides carries caller-supplied fields. A nil pointer means "not
// supplied"; anything non-nil replaces the preset and default values.
type Overrides struct {
	VideoCodec     *string `json:"videoCodec,omitempty"`
	AudioCodec     *string `json:"audioCodec,omitempty"`
	VideoBitrate   *string `json:"videoBitrate,omitempty"`
	AudioBitrate   *string `json:"audioBitrate,omitempty"`
	Width          *int    `json:"width,omitempty"`
	Height         *int    `json:"height,omitempty"`
	FrameRate      *string `json:"frameRate,omitempty"`
	Preset         *string `json:"preset,omitempty"`
	Profile        *string `json:"profile,omitempty"`
	Level          *string `json:"level,omitempty"`
	PixelFormat    *string `json:"pixelFormat,omitempty"`
	ContainerFlags *string `json:"containerFlags,omitempty"`
	Threads        *int    `json:"threads,omitempty"`
	Overwrite      *bool   `json:"overwrite,omitempty"`

	Watermark  *Watermark     `json:"watermark,omitempty"`
	Trim       *TrimWindow    `json:"trim,omitempty"`
	Thumbnails *ThumbnailSpec `json:"thumbnails,omitempty"`
}

// Apply returns base with every supplied override written over it.
func (o Overrides) Apply(base Config) Config {
	setString(&base.VideoCodec, o.VideoCodec)
	setString(&base.AudioCodec, o.AudioCodec)
	setString(&base.VideoBitrate, o.VideoBitrate)
	setString(&base.AudioBitrate, o.AudioBitrate)
	setInt(&base.Width, o.Width)
	setInt(&base.Height, o.Height)
	setString(&base.FrameRate, o.FrameRate)
	setString(&base.Preset, o.Preset)
	setString(&base.Profile, o.Profile)
	setString(&base.Level, o.Level)
	setString(&base.PixelFormat, o.PixelFormat)
	setString(&base.ContainerFlags, o.ContainerFlags)
	setInt(&base.Threads, o.Threads)
	if o.Overwrite != nil {
		base.Overwrite = *o.Overwrite
	}

	if o.Watermark != nil {
		wm := *o.Watermark
		base.Watermark = &wm
	}
	if o.Trim != nil {
		trim := *o.Trim
		base.Trim = &trim
	}
	if o.Thumbnails != nil {
		thumbs := *o.Thumbnails
		thumbs.Timestamps = append([]string(nil), o.Thumbnails.Timestamps...)
		base.Thumbnails = &thumbs
	}
	return base
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
