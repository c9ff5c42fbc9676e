package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"media-transcoder/internal/command"
	"media-transcoder/internal/encoding"
	"media-transcoder/internal/filesystem"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
	"media-transcoder/internal/probe"
	"media-transcoder/internal/process"
	"media-transcoder/internal/workers"
)

const (
	// DefaultFormat is used when Options.Format is empty.
	DefaultFormat = "jpg"
	// DefaultPattern names captures thumb_001, thumb_002, ...
	DefaultPattern = "thumb_%03d"
)

// ErrNoThumbnails is returned when every capture failed.
var ErrNoThumbnails = errors.New("no thumbnails could be captured")

// Options controls one Generate call.
type Options struct {
	encoding.ThumbnailSpec

	// Duration of the source in seconds. Zero means probe it.
	Duration float64
	// OnCapture, when set, is called after each successful capture with the
	// number captured so far. Calls are serialized.
	OnCapture func(done, total int)
}

// Generator captures frames by running ffmpeg once per timestamp.
type Generator struct {
	ffmpeg  string
	spawner process.Spawner
	prober  *probe.Prober
	workers int
}

// NewGenerator returns a Generator. A nil prober disables duration lookup,
// so interval mode without Options.Duration captures a single frame at 0.
// workerCount <= 0 sizes the pool automatically.
func NewGenerator(ffmpeg string, spawner process.Spawner, prober *probe.Prober, workerCount int) *Generator {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if spawner == nil {
		spawner = process.Exec{}
	}
	return &Generator{ffmpeg: ffmpeg, spawner: spawner, prober: prober, workers: workerCount}
}

// Generate writes thumbnails for input into outDir and returns their paths.
func (g *Generator) Generate(ctx context.Context, input, outDir string, opts Options) ([]string, error) {
	if err := command.ValidateThumbnails(&opts.ThumbnailSpec); err != nil {
		return nil, err
	}

	duration := opts.Duration
	if duration <= 0 && len(opts.Timestamps) == 0 && g.prober != nil {
		d, err := g.prober.Duration(ctx, input)
		if err != nil {
			logging.Warn("Could not determine duration for thumbnails: %v", err)
		}
		duration = d
	}

	times, err := Timestamps(opts.ThumbnailSpec, duration)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = DefaultFormat
	}

	// ffmpeg scales webp itself; jpg and png are resized afterwards.
	ffmpegWidth := 0
	if format == "webp" {
		ffmpegWidth = opts.Width
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results  = make([]string, len(times))
		mu       sync.Mutex
		done     int
		startErr error
	)

	size := workers.ForIO(g.workers)
	logging.Debug("Capturing %d thumbnails with %d workers", len(times), size)

	workers.Each(ctx, len(times), size, func(ctx context.Context, i int) {
		out := filepath.Join(outDir, Filename(opts.FilenamePattern, i+1, format))
		args := command.ThumbnailArgs(input, out, times[i], ffmpegWidth)

		if _, err := process.Output(ctx, g.spawner, g.ffmpeg, args...); err != nil {
			var se *process.StartError
			if errors.As(err, &se) {
				mu.Lock()
				if startErr == nil {
					startErr = err
				}
				mu.Unlock()
				cancel()
				return
			}
			metrics.ThumbnailCapturesTotal.WithLabelValues("failed").Inc()
			logging.Warn("Thumbnail capture at %ss failed: %v", encoding.FormatSeconds(times[i]), err)
			return
		}

		if filesystem.FileSize(out) <= 0 {
			metrics.ThumbnailCapturesTotal.WithLabelValues("failed").Inc()
			logging.Warn("Thumbnail capture at %ss produced no file", encoding.FormatSeconds(times[i]))
			return
		}

		if opts.Width > 0 && ffmpegWidth == 0 {
			if err := resize(out, opts.Width); err != nil {
				logging.Warn("Failed to resize %s: %v", filepath.Base(out), err)
			}
		}

		metrics.ThumbnailCapturesTotal.WithLabelValues("success").Inc()

		mu.Lock()
		results[i] = out
		done++
		if opts.OnCapture != nil {
			opts.OnCapture(done, len(times))
		}
		mu.Unlock()
	})

	if startErr != nil {
		return nil, startErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(results))
	for _, p := range results {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoThumbnails
	}
	return paths, nil
}

// Timestamps returns the capture points in seconds. Explicit timestamps win
// over Count. In interval mode an unknown duration yields a single capture
// at 0.
func Timestamps(spec encoding.ThumbnailSpec, duration float64) ([]float64, error) {
	if len(spec.Timestamps) > 0 {
		times := make([]float64, 0, len(spec.Timestamps))
		for _, ts := range spec.Timestamps {
			t, err := encoding.ParseTimestamp(ts)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", command.ErrInvalidThumbnails, err)
			}
			times = append(times, t)
		}
		return times, nil
	}

	if duration <= 0 {
		if spec.Count > 1 {
			logging.Warn("Source duration unknown, taking 1 thumbnail at 0s instead of %d", spec.Count)
		}
		return []float64{0}, nil
	}

	n := spec.Count
	if n <= 0 {
		n = 1
	}
	step := duration / float64(n+1)
	times := make([]float64, n)
	for i := range times {
		times[i] = step * float64(i+1)
	}
	return times, nil
}

var printfVerb = regexp.MustCompile(`%(0\d+)?d`)

// Filename expands pattern for the 1-based index and appends the format
// extension. Supported placeholders are %d, %0Nd and {index}; a pattern
// without one gets "_<index>" appended.
func Filename(pattern string, index int, format string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}

	var name string
	switch {
	case printfVerb.MatchString(pattern):
		replaced := false
		name = printfVerb.ReplaceAllStringFunc(pattern, func(verb string) string {
			if replaced {
				return verb
			}
			replaced = true
			return fmt.Sprintf(verb, index)
		})
	case strings.Contains(pattern, "{index}"):
		name = strings.ReplaceAll(pattern, "{index}", strconv.Itoa(index))
	default:
		name = pattern + "_" + strconv.Itoa(index)
	}

	return name + "." + format
}

func resize(path string, width int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	if img.Bounds().Dx() <= width {
		return nil
	}
	return imaging.Save(imaging.Resize(img, width, 0, imaging.Lanczos), path)
}
