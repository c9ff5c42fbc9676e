package command

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"media-transcoder/internal/encoding"
)

// testBuilder returns a builder whose font search list is exactly fonts.
func testBuilder(fonts ...string) *Builder {
	return &Builder{fontPaths: fonts, fileExists: isRegularFile}
}

func writeFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(path, []byte("not really a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeWatermark(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logo.png")
	img := imaging.New(64, 32, color.NRGBA{R: 255, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write watermark: %v", err)
	}
	return path
}

func filterArgs(args []string) (count int, value string) {
	for i, a := range args {
		if (a == "-vf" || a == "-filter_complex") && i+1 < len(args) {
			count++
			value = args[i+1]
		}
	}
	return count, value
}

func indexOf(args []string, v string) int {
	for i, a := range args {
		if a == v {
			return i
		}
	}
	return -1
}

func TestBuildFullOrder(t *testing.T) {
	cfg := encoding.Defaults()
	cfg.VideoBitrate = "8000k"
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.FrameRate = "30"
	cfg.Profile = "high"
	cfg.Level = "4.2"
	cfg.Threads = 4
	cfg.Trim = &encoding.TrimWindow{Start: "10", End: "00:00:25.5"}

	args, err := testBuilder().Build("in.mov", "out.mp4", cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{
		"-ss", "10",
		"-i", "in.mov",
		"-t", "15.5",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", "8000k",
		"-b:a", "128k",
		"-vf", "scale=1920:1080",
		"-r", "30",
		"-preset", "medium",
		"-profile:v", "high",
		"-level", "4.2",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-threads", "4",
		"-stats",
		"-y",
		"out.mp4",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Build() =\n%q\nwant\n%q", args, want)
	}
}

func TestBuildNoClobber(t *testing.T) {
	cfg := encoding.Defaults()
	cfg.Overwrite = false

	args, err := testBuilder().Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if indexOf(args, "-n") < 0 || indexOf(args, "-y") >= 0 {
		t.Errorf("Expected -n without -y, got %q", args)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("Expected output last, got %q", args[len(args)-1])
	}
}

func TestBuildScaling(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          string
	}{
		{"Both", 1280, 720, "scale=1280:720"},
		{"WidthOnly", 1280, 0, "scale=1280:-2"},
		{"HeightOnly", 0, 720, "scale=-2:720"},
		{"None", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := encoding.Defaults()
			cfg.Width = tt.width
			cfg.Height = tt.height

			args, err := testBuilder().Build("in.mp4", "out.mp4", cfg)
			if err != nil {
				t.Fatal(err)
			}
			n, v := filterArgs(args)
			if tt.want == "" {
				if n != 0 {
					t.Errorf("Expected no filter, got %q", args)
				}
				return
			}
			if n != 1 || v != tt.want {
				t.Errorf("Expected one filter %q, got %d %q", tt.want, n, v)
			}
		})
	}
}

func TestBuildFilterCountProperty(t *testing.T) {
	font := writeFont(t)
	mark := writeWatermark(t)

	watermarks := []*encoding.Watermark{
		nil,
		{Text: "hello"},
		{Image: mark, Position: encoding.TopLeft},
	}
	sizes := [][2]int{{0, 0}, {640, 0}, {0, 480}, {640, 480}}

	for _, b := range []*Builder{testBuilder(font), testBuilder("/nonexistent/font.ttf")} {
		for _, wm := range watermarks {
			for _, sz := range sizes {
				cfg := encoding.Defaults()
				cfg.Width, cfg.Height = sz[0], sz[1]
				cfg.Watermark = wm

				args, err := b.Build("in.mp4", "out.mp4", cfg)
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}

				n, v := filterArgs(args)
				wantFilter := wm != nil || sz[0] > 0 || sz[1] > 0
				if wantFilter && n != 1 {
					t.Errorf("wm=%v size=%v: expected exactly one filter arg, got %d", wm != nil, sz, n)
				}
				if !wantFilter && n != 0 {
					t.Errorf("size=%v: expected no filter arg, got %d", sz, n)
				}
				if wm == nil {
					for _, marker := range []string{"drawtext", "drawbox", "overlay"} {
						if strings.Contains(v, marker) {
							t.Errorf("watermark filter %q present without watermark: %q", marker, v)
						}
					}
				}
			}
		}
	}
}

func TestBuildImageWatermark(t *testing.T) {
	mark := writeWatermark(t)
	opacity := 0.5
	margin := 20

	cfg := encoding.Defaults()
	cfg.Width = 1280
	cfg.Watermark = &encoding.Watermark{Image: mark, Position: encoding.TopRight, Opacity: &opacity, Margin: &margin}

	args, err := testBuilder().Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	first := indexOf(args, "in.mp4")
	second := indexOf(args, mark)
	if first < 0 || second != first+2 || args[second-1] != "-i" {
		t.Fatalf("Expected watermark as second input, got %q", args)
	}

	_, graph := filterArgs(args)
	want := "[0:v]scale=1280:-2[base];[1:v]format=rgba,colorchannelmixer=aa=0.5[wm];[base][wm]overlay=main_w-overlay_w-20:20[vout]"
	if graph != want {
		t.Errorf("graph =\n%s\nwant\n%s", graph, want)
	}
	if indexOf(args, "-vf") >= 0 {
		t.Error("image overlay must use -filter_complex, not -vf")
	}

	m := indexOf(args, "-map")
	if m < 0 || args[m+1] != "[vout]" || args[m+2] != "-map" || args[m+3] != "0:a?" {
		t.Errorf("Expected explicit stream mapping, got %q", args)
	}
}

func TestBuildImageWatermarkWithoutScale(t *testing.T) {
	mark := writeWatermark(t)
	cfg := encoding.Defaults()
	cfg.Watermark = &encoding.Watermark{Image: mark}

	args, err := testBuilder().Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, graph := filterArgs(args)
	want := "[1:v]format=rgba,colorchannelmixer=aa=0.8[wm];[0:v][wm]overlay=main_w-overlay_w-10:main_h-overlay_h-10[vout]"
	if graph != want {
		t.Errorf("graph = %s, want %s", graph, want)
	}
}

func TestBuildTextWatermarkWithFont(t *testing.T) {
	font := writeFont(t)
	cfg := encoding.Defaults()
	cfg.Width = 640
	cfg.Watermark = &encoding.Watermark{Text: "Hello", Position: encoding.BottomLeft, FontSize: 30, BoxColor: "black"}

	args, err := testBuilder(font).Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatal(err)
	}

	n, chain := filterArgs(args)
	if n != 1 {
		t.Fatalf("Expected one filter, got %d", n)
	}
	if !strings.HasPrefix(chain, "scale=640:-2,drawtext=") {
		t.Errorf("Expected scale then drawtext, got %q", chain)
	}
	for _, want := range []string{"text=Hello", "fontsize=30", "fontcolor=white@0.8", "x=10", "y=h-text_h-10", "box=1", "boxcolor=black@0.8"} {
		if !strings.Contains(chain, want) {
			t.Errorf("drawtext missing %q: %s", want, chain)
		}
	}
	if strings.Contains(chain, "drawbox") {
		t.Error("font was available, box fallback must not be used")
	}
}

func TestBuildTextWatermarkRequestedFont(t *testing.T) {
	font := writeFont(t)
	cfg := encoding.Defaults()
	cfg.Watermark = &encoding.Watermark{Text: "x", FontFile: font}

	args, err := testBuilder("/nonexistent/font.ttf").Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, chain := filterArgs(args)
	if !strings.HasPrefix(chain, "drawtext=") {
		t.Errorf("Expected requested font to be used, got %q", chain)
	}
}

func TestBuildTextWatermarkFallsBackToBox(t *testing.T) {
	cfg := encoding.Defaults()
	cfg.Watermark = &encoding.Watermark{Text: "Hello", Position: encoding.TopRight, FontFile: "/nonexistent/requested.ttf"}

	args, err := testBuilder("/nonexistent/a.ttf", "/nonexistent/b.ttf").Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatalf("missing font must not fail the build: %v", err)
	}

	_, chain := filterArgs(args)
	// 5 chars * 24 * 0.6 = 72 wide, 24 * 1.2 = 28 high
	want := "drawbox=x=iw-72-10:y=10:w=72:h=28:color=white@0.8:t=fill"
	if chain != want {
		t.Errorf("chain = %q, want %q", chain, want)
	}
}

func TestFontAvailable(t *testing.T) {
	font := writeFont(t)
	if !testBuilder(font).FontAvailable("") {
		t.Error("Expected font from search list")
	}
	if testBuilder("/nonexistent").FontAvailable("") {
		t.Error("Expected no font")
	}
	if !testBuilder().FontAvailable(font) {
		t.Error("Expected requested font")
	}
}

func TestNewBuilderSearchOrder(t *testing.T) {
	b := NewBuilder([]string{"", "/opt/fonts/custom.ttf"})
	if b.fontPaths[0] != "/opt/fonts/custom.ttf" {
		t.Errorf("Expected extra fonts first, got %q", b.fontPaths[0])
	}
	if len(b.fontPaths) != len(DefaultFontPaths)+1 {
		t.Errorf("Expected defaults appended, got %d paths", len(b.fontPaths))
	}
}

func TestBuildConfigErrors(t *testing.T) {
	font := writeFont(t)
	mark := writeWatermark(t)
	tooOpaque := 1.5

	tests := []struct {
		name string
		cfg  func(*encoding.Config)
		want error
	}{
		{"WatermarkEmpty", func(c *encoding.Config) { c.Watermark = &encoding.Watermark{} }, ErrInvalidWatermark},
		{"WatermarkBoth", func(c *encoding.Config) { c.Watermark = &encoding.Watermark{Image: mark, Text: "x"} }, ErrInvalidWatermark},
		{"WatermarkMissing", func(c *encoding.Config) {
			c.Watermark = &encoding.Watermark{Image: filepath.Join(t.TempDir(), "nope.png")}
		}, ErrWatermarkNotFound},
		{"WatermarkDirectory", func(c *encoding.Config) { c.Watermark = &encoding.Watermark{Image: t.TempDir()} }, ErrWatermarkNotFound},
		{"WatermarkNotImage", func(c *encoding.Config) { c.Watermark = &encoding.Watermark{Image: font} }, ErrInvalidWatermark},
		{"Opacity", func(c *encoding.Config) { c.Watermark = &encoding.Watermark{Text: "x", Opacity: &tooOpaque} }, ErrInvalidWatermark},
		{"TrimBadStart", func(c *encoding.Config) { c.Trim = &encoding.TrimWindow{Start: "abc"} }, ErrInvalidTrim},
		{"TrimEndBeforeStart", func(c *encoding.Config) { c.Trim = &encoding.TrimWindow{Start: "20", End: "10"} }, ErrInvalidTrim},
		{"TrimNaNStart", func(c *encoding.Config) { c.Trim = &encoding.TrimWindow{Start: "NaN", End: "Inf"} }, ErrInvalidTrim},
		{"TrimInfEnd", func(c *encoding.Config) { c.Trim = &encoding.TrimWindow{Start: "10", End: "+Inf"} }, ErrInvalidTrim},
		{"TrimNaNEndOnly", func(c *encoding.Config) { c.Trim = &encoding.TrimWindow{End: "nan"} }, ErrInvalidTrim},
		{"TrimEndEqualsStart", func(c *encoding.Config) { c.Trim = &encoding.TrimWindow{Start: "10", End: "00:00:10"} }, ErrInvalidTrim},
		{"NegativeWidth", func(c *encoding.Config) { c.Width = -1 }, ErrInvalidDimensions},
		{"ThumbFormat", func(c *encoding.Config) { c.Thumbnails = &encoding.ThumbnailSpec{Count: 1, Format: "gif"} }, ErrInvalidThumbnails},
		{"ThumbTimestamp", func(c *encoding.Config) { c.Thumbnails = &encoding.ThumbnailSpec{Timestamps: []string{"x"}} }, ErrInvalidThumbnails},
		{"ThumbPattern", func(c *encoding.Config) {
			c.Thumbnails = &encoding.ThumbnailSpec{Count: 1, FilenamePattern: "../x_%d"}
		}, ErrInvalidThumbnails},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := encoding.Defaults()
			tt.cfg(&cfg)

			args, err := testBuilder(font).Build("in.mp4", "out.mp4", cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if args != nil {
				t.Error("Expected no arguments on error")
			}
			if !IsConfigError(err) {
				t.Error("IsConfigError() = false")
			}
		})
	}
}

func TestConfigErrorHidesDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := encoding.Defaults()
	cfg.Watermark = &encoding.Watermark{Image: filepath.Join(dir, "secret.png")}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error")
	}
	if strings.Contains(err.Error(), dir) {
		t.Errorf("error leaks local path: %v", err)
	}
}

func TestConfigErrorHidesDirectoryOnStatFailure(t *testing.T) {
	dir := t.TempDir()
	notDir := filepath.Join(dir, "plain")
	if err := os.WriteFile(notDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := encoding.Defaults()
	cfg.Watermark = &encoding.Watermark{Image: filepath.Join(notDir, "logo.png")}

	err := Validate(cfg)
	if !errors.Is(err, ErrWatermarkNotFound) {
		t.Fatalf("Expected ErrWatermarkNotFound, got %v", err)
	}
	if strings.Contains(err.Error(), dir) {
		t.Errorf("error leaks local path: %v", err)
	}
	if !strings.Contains(err.Error(), "logo.png") {
		t.Errorf("Expected error to name logo.png, got %v", err)
	}
}

func TestTrimStartOnly(t *testing.T) {
	cfg := encoding.Defaults()
	cfg.Trim = &encoding.TrimWindow{Start: "00:01:00"}

	args, err := testBuilder().Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if args[0] != "-ss" || args[1] != "60" || args[2] != "-i" {
		t.Errorf("Expected seek before input, got %q", args[:3])
	}
	if indexOf(args, "-t") >= 0 {
		t.Error("Expected no duration bound without end")
	}
}

func TestTrimEndOnly(t *testing.T) {
	cfg := encoding.Defaults()
	cfg.Trim = &encoding.TrimWindow{End: "30"}

	args, err := testBuilder().Build("in.mp4", "out.mp4", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if indexOf(args, "-ss") >= 0 {
		t.Error("Expected no seek without start")
	}
	i := indexOf(args, "-t")
	if i < 0 || args[i+1] != "30" || i < indexOf(args, "in.mp4") {
		t.Errorf("Expected -t 30 after input, got %q", args)
	}
}

func TestThumbnailArgs(t *testing.T) {
	got := ThumbnailArgs("in.mp4", "thumb_001.jpg", 12.5, 320)
	want := []string{"-ss", "12.5", "-i", "in.mp4", "-an", "-frames:v", "1", "-vf", "scale=320:-2", "-y", "thumb_001.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ThumbnailArgs() = %q, want %q", got, want)
	}

	got = ThumbnailArgs("in.mp4", "t.png", 0, 0)
	if indexOf(got, "-vf") >= 0 {
		t.Errorf("Expected no scale without width, got %q", got)
	}
}
