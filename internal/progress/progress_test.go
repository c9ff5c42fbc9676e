package progress

import (
	"bufio"
	"strings"
	"testing"
)

const statusLine = "frame=  120 fps= 29.97 q=28.0 size=    1024kB time=00:00:04.00 bitrate=2097.2kbits/s speed=1.02x"

func TestParseFullLine(t *testing.T) {
	s, ok := Parse(statusLine)
	if !ok {
		t.Fatal("Expected a sample")
	}

	if s.Time == nil || *s.Time != 4 {
		t.Errorf("Expected Time=4, got %v", s.Time)
	}
	if s.Frame == nil || *s.Frame != 120 {
		t.Errorf("Expected Frame=120, got %v", s.Frame)
	}
	if s.FPS == nil || *s.FPS != 29.97 {
		t.Errorf("Expected FPS=29.97, got %v", s.FPS)
	}
	if s.BitrateKbps == nil || *s.BitrateKbps != 2097.2 {
		t.Errorf("Expected bitrate 2097.2, got %v", s.BitrateKbps)
	}
	if s.SizeKB == nil || *s.SizeKB != 1024 {
		t.Errorf("Expected SizeKB=1024, got %v", s.SizeKB)
	}
	if s.Speed == nil || *s.Speed != 1.02 {
		t.Errorf("Expected Speed=1.02, got %v", s.Speed)
	}
}

func TestParsePartialLines(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantTime  bool
		wantFrame bool
	}{
		{"TimeOnly", "time=01:02:03.50", true, true, false},
		{"FrameOnly", "frame=5", true, false, true},
		{"NewerSizeUnit", "size=     256KiB time=00:00:01.00 bitrate=N/A", true, true, false},
		{"TimeNA", "time=N/A bitrate=N/A speed=N/A", false, false, false},
		{"Banner", "Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mp4':", false, false, false},
		{"Empty", "", false, false, false},
		{"Garbled", "fr@me=?? t1me=00:00", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Parse(tt.line)
			if ok != tt.wantOK {
				t.Errorf("Parse(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if (s.Time != nil) != tt.wantTime {
				t.Errorf("Parse(%q) Time present = %v, want %v", tt.line, s.Time != nil, tt.wantTime)
			}
			if (s.Frame != nil) != tt.wantFrame {
				t.Errorf("Parse(%q) Frame present = %v, want %v", tt.line, s.Frame != nil, tt.wantFrame)
			}
		})
	}

	s, _ := Parse("time=01:02:03.50")
	if *s.Time != 3723.5 {
		t.Errorf("Expected 3723.5 seconds, got %v", *s.Time)
	}
}

func TestScanLines(t *testing.T) {
	input := "line one\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\r\n\r\nlast"

	sc := bufio.NewScanner(strings.NewReader(input))
	sc.Split(ScanLines)

	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}

	want := []string{"line one", "frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "last"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseDuration(t *testing.T) {
	d, ok := ParseDuration("  Duration: 00:01:02.50, start: 0.000000, bitrate: 1205 kb/s")
	if !ok || d != 62.5 {
		t.Errorf("Expected 62.5, got %v (%v)", d, ok)
	}

	if _, ok := ParseDuration("  Duration: N/A, bitrate: N/A"); ok {
		t.Error("Expected no duration for N/A")
	}
}

func TestParseInputIndex(t *testing.T) {
	tests := []struct {
		line string
		want int
		ok   bool
	}{
		{"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mov':", 0, true},
		{"Input #1, png_pipe, from 'logo.png':", 1, true},
		{"  Duration: 00:00:10.00, start: 0.000000", 0, false},
		{"Output #0, mp4, to 'out.mp4':", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInputIndex(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseInputIndex(%q) = %d, %v, want %d, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func sampleAt(sec float64) Sample {
	return Sample{Time: &sec}
}

func TestTrackerKnownDuration(t *testing.T) {
	tr := NewTracker(10)

	tests := []struct {
		elapsed float64
		want    int
	}{
		{1, 10},
		{2.5, 25},
		{2.4, 25}, // regression in elapsed time never lowers progress
		{9.96, 99},
		{10, 99},
		{12, 99},
	}

	for _, tt := range tests {
		got, _ := tr.Observe(sampleAt(tt.elapsed))
		if got != tt.want {
			t.Errorf("Observe(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestTrackerKnownDurationIgnoresTimelessSamples(t *testing.T) {
	tr := NewTracker(100)
	tr.Observe(sampleAt(50))

	frame := int64(10)
	got, changed := tr.Observe(Sample{Frame: &frame})
	if got != 50 || changed {
		t.Errorf("Expected unchanged 50, got %d (changed=%v)", got, changed)
	}
}

func TestTrackerUnknownDuration(t *testing.T) {
	tr := NewTracker(0)

	for i := 1; i <= 150; i++ {
		got, _ := tr.Observe(sampleAt(float64(i)))
		want := i
		if want > MaxActive {
			want = MaxActive
		}
		if got != want {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestTrackerMonotonicNeverReaches100(t *testing.T) {
	durations := []float64{0, 0.5, 3, 60, 7200}

	for _, d := range durations {
		tr := NewTracker(d)
		prev := 0
		for elapsed := 0.0; elapsed < d*2+5; elapsed += 0.37 {
			got, _ := tr.Observe(sampleAt(elapsed))
			if got < prev {
				t.Fatalf("duration %v: progress decreased %d -> %d", d, prev, got)
			}
			if got >= 100 {
				t.Fatalf("duration %v: progress reached %d before exit", d, got)
			}
			prev = got
		}
	}
}

func TestTrackerSetDuration(t *testing.T) {
	tr := NewTracker(0)
	tr.Observe(sampleAt(1))
	tr.Observe(sampleAt(2))

	tr.SetDuration(10)
	if tr.Duration() != 10 {
		t.Errorf("Expected duration 10, got %v", tr.Duration())
	}

	got, _ := tr.Observe(sampleAt(5))
	if got != 50 {
		t.Errorf("Expected 50 after late duration, got %d", got)
	}

	tr.SetDuration(20)
	if tr.Duration() != 10 {
		t.Error("known duration must not be replaced")
	}
}
