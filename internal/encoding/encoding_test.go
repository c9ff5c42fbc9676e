package encoding

import (
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.VideoCodec != "libx264" {
		t.Errorf("VideoCodec = %q, want libx264", cfg.VideoCodec)
	}
	if cfg.AudioCodec != "aac" {
		t.Errorf("AudioCodec = %q, want aac", cfg.AudioCodec)
	}
	if !cfg.Overwrite {
		t.Error("expected Overwrite=true by default")
	}
	if cfg.Watermark != nil || cfg.Trim != nil || cfg.Thumbnails != nil {
		t.Error("optional specs must be unset by default")
	}
}

func TestOverridesApply(t *testing.T) {
	base := Defaults()
	base.Width = 1920
	base.Height = 1080
	base.Preset = "slow"

	no := false
	o := Overrides{
		Height:    intPtr(720),
		Preset:    strPtr("veryfast"),
		Overwrite: &no,
		Trim:      &TrimWindow{Start: "5"},
	}

	got := o.Apply(base)

	if got.Width != 1920 {
		t.Errorf("Width = %d, want 1920 (not overridden)", got.Width)
	}
	if got.Height != 720 {
		t.Errorf("Height = %d, want 720", got.Height)
	}
	if got.Preset != "veryfast" {
		t.Errorf("Preset = %q, want veryfast", got.Preset)
	}
	if got.Overwrite {
		t.Error("expected Overwrite=false")
	}
	if got.Trim == nil || got.Trim.Start != "5" {
		t.Errorf("Trim = %+v, want start 5", got.Trim)
	}
	if base.Trim != nil {
		t.Error("Apply must not mutate its argument")
	}
}

func TestOverridesApplyZeroValueStillWins(t *testing.T) {
	base := Defaults()
	base.Width = 1280

	got := Overrides{Width: intPtr(0), AudioBitrate: strPtr("")}.Apply(base)

	if got.Width != 0 {
		t.Errorf("Width = %d, want explicit 0", got.Width)
	}
	if got.AudioBitrate != "" {
		t.Errorf("AudioBitrate = %q, want explicit empty", got.AudioBitrate)
	}
}

func TestOverridesApplyCopiesThumbnailTimestamps(t *testing.T) {
	spec := &ThumbnailSpec{Timestamps: []string{"1", "2"}}
	got := Overrides{Thumbnails: spec}.Apply(Defaults())

	spec.Timestamps[0] = "99"
	if got.Thumbnails.Timestamps[0] != "1" {
		t.Error("resolved config must not alias caller slices")
	}
}

func TestWatermarkDefaults(t *testing.T) {
	wm := &Watermark{Text: "hello"}

	if wm.EffectiveOpacity() != 0.8 {
		t.Errorf("EffectiveOpacity() = %v, want 0.8", wm.EffectiveOpacity())
	}
	if wm.EffectiveMargin() != 10 {
		t.Errorf("EffectiveMargin() = %d, want 10", wm.EffectiveMargin())
	}
	if wm.EffectiveFontSize() != 24 {
		t.Errorf("EffectiveFontSize() = %d, want 24", wm.EffectiveFontSize())
	}
	if wm.EffectiveFontColor() != "white" {
		t.Errorf("EffectiveFontColor() = %q, want white", wm.EffectiveFontColor())
	}

	zero := 0.0
	m := 0
	wm = &Watermark{Text: "x", Opacity: &zero, Margin: &m}
	if wm.EffectiveOpacity() != 0 {
		t.Errorf("explicit zero opacity lost: %v", wm.EffectiveOpacity())
	}
	if wm.EffectiveMargin() != 0 {
		t.Errorf("explicit zero margin lost: %d", wm.EffectiveMargin())
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.5", 12.5, false},
		{"0", 0, false},
		{"01:30", 90, false},
		{"00:01:02.5", 62.5, false},
		{"1:00:00", 3600, false},
		{" 7 ", 7, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-3", 0, true},
		{"00:75:00", 0, true},
		{"1:2:3:4", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"+Inf", 0, true},
		{"00:NaN", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{12.5, "12.5"},
		{0.1234, "0.123"},
		{0, "0"},
		{33.3333333, "33.333"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
