package transcoder

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"media-transcoder/internal/encoding"
	"media-transcoder/internal/filesystem"
	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
	"media-transcoder/internal/process"
	"media-transcoder/internal/thumbnail"
)

// superviseThumbnails owns a thumbnail job. Progress is the share of
// captures completed; the first thumbnail becomes the output reference.
func (t *Transcoder) superviseThumbnails(ctx context.Context, id, input string, spec encoding.ThumbnailSpec) {
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

	meta, duration := t.probeSource(ctx, localInput)
	dir := t.artifactDir(id)
	redactions := []string{localInput, input, dir, t.cfg.OutputDir, filepath.Dir(localInput)}
	inputSize := filesystem.FileSize(localInput)

	_, err = t.update(ctx, id, func(j *jobs.Job) error {
		if err := j.Start(time.Now()); err != nil {
			return err
		}
		j.OutputPath = dir
		j.Metadata = meta
		j.InputSize = inputSize
		return nil
	})
	if err != nil {
		return
	}

	paths, err := t.thumbs.Generate(ctx, localInput, dir, thumbnail.Options{
		ThumbnailSpec: spec,
		Duration:      duration,
		OnCapture: func(done, total int) {
			_, err := t.store.Update(ctx, id, func(j *jobs.Job) error {
				return j.SetProgress(done * 100 / total)
			})
			if err != nil && !errors.Is(err, jobs.ErrNotFound) {
				log.Debug("Progress update skipped: %v", err)
			}
		},
	})
	if err != nil {
		var se *process.StartError
		switch {
		case ctx.Err() != nil:
			t.fail(ctx, id, CancelledDetail)
		case errors.As(err, &se):
			t.fail(ctx, id, redact("failed to launch encoder: "+err.Error(), redactions...))
		default:
			t.fail(ctx, id, redact(err.Error(), redactions...))
		}
		return
	}

	if t.storage.Remote() {
		if _, err := t.update(ctx, id, (*jobs.Job).StartUpload); err != nil {
			return
		}
	}

	start := time.Now()
	refs := make([]string, 0, len(paths))
	var total int64
	for _, p := range paths {
		size := filesystem.FileSize(p)
		ref, err := t.storage.PutFromLocal(ctx, p, id+"/"+filepath.Base(p))
		if err != nil {
			t.observeUpload("failed", start)
			if ctx.Err() != nil {
				t.fail(ctx, id, CancelledDetail)
			} else {
				t.fail(ctx, id, redact("failed to store thumbnail: "+err.Error(), redactions...))
			}
			return
		}
		total += size
		refs = append(refs, ref)
	}
	t.observeUpload("success", start)

	_, err = t.update(ctx, id, func(j *jobs.Job) error {
		if err := j.Finish(refs[0], inputSize, total); err != nil {
			return err
		}
		j.Thumbnails = refs
		return nil
	})
	if err != nil && !errors.Is(err, jobs.ErrNotFound) {
		log.Error("Failed to record completion: %v", err)
	}
}
