package progress

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// Sample holds the fields found on one status line. Nil means absent.
type Sample struct {
	Time        *float64 `json:"time,omitempty"` // elapsed output seconds
	Frame       *int64   `json:"frame,omitempty"`
	FPS         *float64 `json:"fps,omitempty"`
	BitrateKbps *float64 `json:"bitrateKbps,omitempty"`
	SizeKB      *int64   `json:"sizeKB,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
}

// Empty reports whether no field was found.
func (s Sample) Empty() bool {
	return s.Time == nil && s.Frame == nil && s.FPS == nil &&
		s.BitrateKbps == nil && s.SizeKB == nil && s.Speed == nil
}

var (
	timeRe    = regexp.MustCompile(`time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	frameRe   = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe     = regexp.MustCompile(`fps=\s*(\d+(?:\.\d+)?)`)
	bitrateRe = regexp.MustCompile(`bitrate=\s*(\d+(?:\.\d+)?)\s*kbits/s`)
	sizeRe    = regexp.MustCompile(`size=\s*(\d+)\s*(?:kB|KiB)`)
	speedRe   = regexp.MustCompile(`speed=\s*(\d+(?:\.\d+)?)x`)
)

// Parse scans line for progress fields. ok is false when none are present.
func Parse(line string) (s Sample, ok bool) {
	if m := timeRe.FindStringSubmatch(line); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		mins, _ := strconv.ParseFloat(m[2], 64)
		sec, _ := strconv.ParseFloat(m[3], 64)
		v := h*3600 + mins*60 + sec
		s.Time = &v
	}
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			s.Frame = &v
		}
	}
	s.FPS = floatField(fpsRe, line)
	s.BitrateKbps = floatField(bitrateRe, line)
	if m := sizeRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			s.SizeKB = &v
		}
	}
	s.Speed = floatField(speedRe, line)

	return s, !s.Empty()
}

func floatField(re *regexp.Regexp, line string) *float64 {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// ScanLines is a bufio.SplitFunc that breaks on '\r', '\n' or "\r\n" and
// drops empty lines.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}
	if atEOF && start == len(data) {
		return len(data), nil, nil
	}

	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}
	if atEOF {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

// durationRe matches the encoder's input banner ("Duration: 00:01:02.50"),
// used as a fallback when the prober could not report a duration.
var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// inputRe matches the header ffmpeg prints before each input's banner.
var inputRe = regexp.MustCompile(`^\s*Input #(\d+),`)

// ParseInputIndex returns the input number of an "Input #N, ..." header.
func ParseInputIndex(line string) (int, bool) {
	m := inputRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDuration extracts the source duration from an input banner line.
func ParseDuration(line string) (float64, bool) {
	if !strings.Contains(line, "Duration:") {
		return 0, false
	}
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.ParseFloat(m[1], 64)
	mins, _ := strconv.ParseFloat(m[2], 64)
	sec, _ := strconv.ParseFloat(m[3], 64)
	return h*3600 + mins*60 + sec, true
}
