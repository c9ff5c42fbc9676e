package transcoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-transcoder/internal/encoding"
	"media-transcoder/internal/filesystem"
	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/metrics"
	"media-transcoder/internal/probe"
	"media-transcoder/internal/progress"
	"media-transcoder/internal/storage"
	"media-transcoder/internal/thumbnail"
)

// OutputMissingDetail is recorded when the encoder exits cleanly but left no
// output file.
const OutputMissingDetail = "output not created"

// webContainers maps video codecs to the container their output uses.
var webContainers = map[string]string{
	"libvpx":     ".webm",
	"libvpx-vp9": ".webm",
	"libaom-av1": ".webm",
	"vp8":        ".webm",
	"vp9":        ".webm",
}

func outputExtension(cfg encoding.Config) string {
	if ext, ok := webContainers[strings.ToLower(cfg.VideoCodec)]; ok {
		return ext
	}
	return ".mp4"
}

// superviseTranscode owns job id from launch to a terminal state.
func (t *Transcoder) superviseTranscode(ctx context.Context, id, input string, cfg encoding.Config) {
	log := logging.Job(id)

	localInput, err := t.storage.FetchToLocal(ctx, input)
	if err != nil {
		t.fail(ctx, id, inputDetail(ctx, err, input))
		return
	}
	defer func() {
		if err := t.storage.Release(localInput); err != nil {
			log.Warn("Failed to release input: %v", err)
		}
	}()

	// Progress is measured against the trimmed output; thumbnails are
	// spaced over the whole source.
	meta, sourceDuration := t.probeSource(ctx, localInput)
	duration := trimmedDuration(sourceDuration, cfg.Trim)

	if err := os.MkdirAll(t.cfg.OutputDir, 0o755); err != nil {
		t.fail(ctx, id, "failed to prepare output directory")
		log.Error("Cannot create output directory: %v", err)
		return
	}
	output := filepath.Join(t.cfg.OutputDir, id+outputExtension(cfg))
	redactions := []string{localInput, input, output, t.cfg.OutputDir, filepath.Dir(localInput)}

	args, err := t.builder.Build(localInput, output, cfg)
	if err != nil {
		t.fail(ctx, id, redact(err.Error(), redactions...))
		return
	}
	log.Debug("ffmpeg %s", strings.Join(args, " "))

	if ctx.Err() != nil {
		t.fail(ctx, id, CancelledDetail)
		return
	}

	started := time.Now()
	proc, err := t.spawner.Start(ctx, t.cfg.FFmpegPath, args)
	if err != nil {
		metrics.EncoderLaunchFailures.Inc()
		t.fail(ctx, id, redact("failed to launch encoder: "+err.Error(), redactions...))
		return
	}

	inputSize := filesystem.FileSize(localInput)
	_, err = t.update(ctx, id, func(j *jobs.Job) error {
		if err := j.Start(started); err != nil {
			return err
		}
		j.OutputPath = output
		j.Metadata = meta
		j.InputSize = inputSize
		j.Bitrate = cfg.VideoBitrate
		return nil
	})
	if err != nil {
		// Deleted before it could start.
		_ = proc.Kill()
		_, _ = io.Copy(io.Discard, proc.Stdout())
		_, _ = io.Copy(io.Discard, proc.Stderr())
		_ = proc.Wait()
		return
	}

	stdoutDone := make(chan struct{})
	go func() {
		defer close(stdoutDone)
		_, _ = io.Copy(io.Discard, proc.Stdout())
	}()

	stderrTail := t.followProgress(ctx, id, proc.Stderr(), duration, cfg.Trim == nil)
	<-stdoutDone
	waitErr := proc.Wait()
	elapsed := time.Since(started).Seconds()

	switch {
	case ctx.Err() != nil:
		metrics.EncoderRunDuration.WithLabelValues("cancelled").Observe(elapsed)
		t.fail(ctx, id, CancelledDetail)
		return
	case waitErr != nil:
		metrics.EncoderRunDuration.WithLabelValues("exit_error").Observe(elapsed)
		t.fail(ctx, id, redact(exitDetail(waitErr, stderrTail), redactions...))
		return
	}
	metrics.EncoderRunDuration.WithLabelValues("success").Observe(elapsed)

	info, err := filesystem.StatWithRetry(output, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.fail(ctx, id, OutputMissingDetail)
		} else {
			t.fail(ctx, id, redact("failed to stat output: "+err.Error(), redactions...))
		}
		return
	}
	outputSize := info.Size()

	var thumbs []string
	var warnings []string
	if spec := cfg.Thumbnails; spec != nil && (spec.Count > 0 || len(spec.Timestamps) > 0) {
		paths, err := t.thumbs.Generate(ctx, localInput, t.artifactDir(id), thumbnail.Options{
			ThumbnailSpec: *spec,
			Duration:      sourceDuration,
		})
		if err != nil {
			if ctx.Err() != nil {
				t.fail(ctx, id, CancelledDetail)
				return
			}
			log.Warn("Thumbnail generation failed: %v", err)
			warnings = append(warnings, redact("thumbnail generation failed: "+err.Error(), redactions...))
		}
		thumbs = paths
	}

	t.relocate(ctx, id, output, outputSize, inputSize, thumbs, warnings, redactions)
}

// relocate stores the output and thumbnails and finishes the job. With a
// remote store the job passes through uploading.
func (t *Transcoder) relocate(ctx context.Context, id, output string, outputSize, inputSize int64, thumbs, warnings, redactions []string) {
	log := logging.Job(id)

	if t.storage.Remote() {
		if _, err := t.update(ctx, id, (*jobs.Job).StartUpload); err != nil {
			return
		}
	}

	start := time.Now()
	ref, err := t.storage.PutFromLocal(ctx, output, filepath.Base(output))
	if err != nil {
		t.observeUpload("failed", start)
		if ctx.Err() != nil {
			t.fail(ctx, id, CancelledDetail)
			return
		}
		t.fail(ctx, id, redact("failed to store output: "+err.Error(), redactions...))
		return
	}
	t.observeUpload("success", start)

	thumbRefs := make([]string, 0, len(thumbs))
	for _, p := range thumbs {
		r, err := t.storage.PutFromLocal(ctx, p, id+"/"+filepath.Base(p))
		if err != nil {
			log.Warn("Failed to store thumbnail %s: %v", filepath.Base(p), err)
			warnings = append(warnings, "failed to store thumbnail "+filepath.Base(p))
			continue
		}
		thumbRefs = append(thumbRefs, r)
	}

	_, err = t.update(ctx, id, func(j *jobs.Job) error {
		if err := j.Finish(ref, inputSize, outputSize); err != nil {
			return err
		}
		if len(thumbRefs) > 0 {
			j.Thumbnails = thumbRefs
		}
		for _, w := range warnings {
			j.AddWarning(w)
		}
		return nil
	})
	if err != nil && !errors.Is(err, jobs.ErrNotFound) {
		log.Error("Failed to record completion: %v", err)
	}
}

func (t *Transcoder) observeUpload(status string, start time.Time) {
	if t.storage.Remote() {
		metrics.UploadDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

// followProgress reads encoder stderr until EOF, applying progress samples
// to the job in order. It returns the non-progress tail for error reports.
// When bannerDuration is set, an unknown duration is taken from the banner
// of input #0.
func (t *Transcoder) followProgress(ctx context.Context, id string, r io.Reader, duration float64, bannerDuration bool) string {
	log := logging.Job(id)
	tracker := progress.NewTracker(duration)
	var lines tail
	input := -1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(progress.ScanLines)

	for scanner.Scan() {
		line := scanner.Text()

		sample, ok := progress.Parse(line)
		if !ok {
			if n, found := progress.ParseInputIndex(line); found {
				input = n
			} else if d, found := progress.ParseDuration(line); found && bannerDuration && input == 0 {
				tracker.SetDuration(d)
			}
			lines.add(line)
			continue
		}

		if sample.Speed != nil {
			metrics.EncoderSpeed.Set(*sample.Speed)
		}

		p, changed := tracker.Observe(sample)
		if !changed {
			continue
		}
		_, err := t.store.Update(ctx, id, func(j *jobs.Job) error {
			return j.SetProgress(p)
		})
		if err != nil && !errors.Is(err, jobs.ErrNotFound) {
			log.Debug("Progress update skipped: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("Stopped reading encoder output: %v", err)
		_, _ = io.Copy(io.Discard, r)
	}

	return lines.String()
}

// probeSource returns the source metadata and duration. Failures are not
// fatal; an unknown duration is 0.
func (t *Transcoder) probeSource(ctx context.Context, path string) (*probe.Result, float64) {
	meta, err := t.prober.Probe(ctx, path)
	if err != nil {
		logging.Warn("Probe failed for %s: %v", filepath.Base(path), err)
	}
	if meta != nil && meta.Format.Duration > 0 {
		return meta, meta.Format.Duration
	}

	d, err := t.prober.FormatDuration(ctx, path)
	if err != nil {
		logging.Debug("Duration unknown for %s: %v", filepath.Base(path), err)
		return meta, 0
	}
	return meta, d
}

// trimmedDuration is the expected output length once trim is applied.
func trimmedDuration(duration float64, trim *encoding.TrimWindow) float64 {
	if trim == nil {
		return duration
	}
	start, _ := encoding.ParseTimestamp(trim.Start)
	if trim.End != "" {
		if end, err := encoding.ParseTimestamp(trim.End); err == nil && end > start {
			if duration > 0 && end > duration {
				end = duration
			}
			return end - start
		}
	}
	if duration > start {
		return duration - start
	}
	return duration
}

func inputDetail(ctx context.Context, err error, input string) string {
	switch {
	case ctx.Err() != nil:
		return CancelledDetail
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Sprintf("input not found: %s", filepath.Base(input))
	case errors.Is(err, storage.ErrOutsideRoot):
		return "input outside allowed root"
	default:
		return redact("failed to fetch input: "+err.Error(), input)
	}
}
