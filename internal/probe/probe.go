package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
	"media-transcoder/internal/process"
)

// Result is a read-only snapshot of a media file's metadata.
type Result struct {
	Format Format       `json:"format"`
	Video  *VideoStream `json:"video,omitempty"`
	Audio  *AudioStream `json:"audio,omitempty"`
}

// Format describes the container.
type Format struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	BitRate  int64   `json:"bitRate"`
}

// VideoStream describes the first video stream.
type VideoStream struct {
	Codec       string  `json:"codec"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	PixelFormat string  `json:"pixelFormat,omitempty"`
	FrameRate   float64 `json:"frameRate,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
}

// AudioStream describes the first audio stream.
type AudioStream struct {
	Codec         string  `json:"codec"`
	SampleRate    int     `json:"sampleRate,omitempty"`
	Channels      int     `json:"channels,omitempty"`
	ChannelLayout string  `json:"channelLayout,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
}

// Error wraps a failed probe invocation.
type Error struct {
	Mode string // "json" or "duration"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("probe (%s) failed: %v", e.Mode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Prober runs ffprobe through a process.Spawner.
type Prober struct {
	binary  string
	spawner process.Spawner
}

// New returns a Prober. An empty binary means "ffprobe" from PATH.
func New(binary string, spawner process.Spawner) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if spawner == nil {
		spawner = process.Exec{}
	}
	return &Prober{binary: binary, spawner: spawner}
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType     string `json:"codec_type"`
		CodecName     string `json:"codec_name"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		PixFmt        string `json:"pix_fmt"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		Duration      string `json:"duration"`
		SampleRate    string `json:"sample_rate"`
		Channels      int    `json:"channels"`
		ChannelLayout string `json:"channel_layout"`
	} `json:"streams"`
}

// Probe returns the metadata of the file at path.
func (p *Prober) Probe(ctx context.Context, path string) (*Result, error) {
	out, err := process.Output(ctx, p.spawner, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("json").Inc()
		return nil, &Error{Mode: "json", Err: err}
	}

	res, err := parseJSON(out)
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("json").Inc()
		return nil, &Error{Mode: "json", Err: err}
	}
	return res, nil
}

func parseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}

	res := &Result{
		Format: Format{
			Name:     raw.Format.FormatName,
			Duration: parseFloat(raw.Format.Duration),
			Size:     parseInt(raw.Format.Size),
			BitRate:  parseInt(raw.Format.BitRate),
		},
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if res.Video != nil {
				continue
			}
			rate := parseRate(s.AvgFrameRate)
			if rate == 0 {
				rate = parseRate(s.RFrameRate)
			}
			res.Video = &VideoStream{
				Codec:       s.CodecName,
				Width:       s.Width,
				Height:      s.Height,
				PixelFormat: s.PixFmt,
				FrameRate:   rate,
				Duration:    parseFloat(s.Duration),
			}
		case "audio":
			if res.Audio != nil {
				continue
			}
			res.Audio = &AudioStream{
				Codec:         s.CodecName,
				SampleRate:    int(parseInt(s.SampleRate)),
				Channels:      s.Channels,
				ChannelLayout: s.ChannelLayout,
				Duration:      parseFloat(s.Duration),
			}
		}
	}

	if res.Format.Duration == 0 {
		switch {
		case res.Video != nil && res.Video.Duration > 0:
			res.Format.Duration = res.Video.Duration
		case res.Audio != nil && res.Audio.Duration > 0:
			res.Format.Duration = res.Audio.Duration
		}
	}

	return res, nil
}

// Duration returns the duration of the file in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	res, err := p.Probe(ctx, path)
	if err == nil && res.Format.Duration > 0 {
		return res.Format.Duration, nil
	}
	if err != nil {
		logging.Debug("JSON probe failed for %s, trying duration-only probe: %v", path, err)
	}
	return p.FormatDuration(ctx, path)
}

// FormatDuration asks ffprobe for format=duration alone, for callers that
// already hold a failed or durationless JSON probe.
func (p *Prober) FormatDuration(ctx context.Context, path string) (float64, error) {
	out, err := process.Output(ctx, p.spawner, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("duration").Inc()
		return 0, &Error{Mode: "duration", Err: err}
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("duration").Inc()
		return 0, &Error{Mode: "duration", Err: fmt.Errorf("invalid duration %q", strings.TrimSpace(string(out)))}
	}
	return d, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseRate converts ffprobe's "30000/1001" notation.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(s)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}
