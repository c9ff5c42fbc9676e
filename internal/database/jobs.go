package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"media-transcoder/internal/jobs"
	"media-transcoder/internal/probe"
)

const upsertJobQuery = `
INSERT INTO jobs (
	id, input, type, status, progress, output_reference, output_path, detail,
	input_size, output_size, compression_ratio, bitrate, preset,
	warnings, thumbnails, metadata, created_at, started_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	input = excluded.input,
	type = excluded.type,
	status = excluded.status,
	progress = excluded.progress,
	output_reference = excluded.output_reference,
	output_path = excluded.output_path,
	detail = excluded.detail,
	input_size = excluded.input_size,
	output_size = excluded.output_size,
	compression_ratio = excluded.compression_ratio,
	bitrate = excluded.bitrate,
	preset = excluded.preset,
	warnings = excluded.warnings,
	thumbnails = excluded.thumbnails,
	metadata = excluded.metadata,
	started_at = excluded.started_at,
	updated_at = excluded.updated_at
`

const selectJobsQuery = `
SELECT id, input, type, status, progress, output_reference, output_path, detail,
	input_size, output_size, compression_ratio, bitrate, preset,
	warnings, thumbnails, metadata, created_at, started_at, updated_at
FROM jobs
ORDER BY created_at
`

// SaveJob inserts or replaces the record for job.ID.
func (d *Database) SaveJob(ctx context.Context, job *jobs.Job) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_job", start, err) }()

	var warnings, thumbnails []byte
	if warnings, err = json.Marshal(nonNil(job.Warnings)); err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}
	if thumbnails, err = json.Marshal(nonNil(job.Thumbnails)); err != nil {
		return fmt.Errorf("failed to encode thumbnails: %w", err)
	}

	var metadata sql.NullString
	if job.Metadata != nil {
		var raw []byte
		if raw, err = json.Marshal(job.Metadata); err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	var startedAt sql.NullInt64
	if job.StartedAt != nil {
		startedAt = sql.NullInt64{Int64: job.StartedAt.UnixNano(), Valid: true}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, upsertJobQuery,
		job.ID,
		job.Input,
		string(job.Type),
		string(job.Status),
		job.Progress,
		nullString(job.OutputReference),
		job.OutputPath,
		nullString(job.Detail),
		job.InputSize,
		job.OutputSize,
		job.CompressionRatio,
		job.Bitrate,
		job.Preset,
		string(warnings),
		string(thumbnails),
		metadata,
		job.CreatedAt.UnixNano(),
		startedAt,
		job.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// DeleteJob removes the record for id. A missing record is not an error.
func (d *Database) DeleteJob(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_job", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = d.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// LoadJobs returns every stored record, oldest first.
func (d *Database) LoadJobs(ctx context.Context) ([]*jobs.Job, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_jobs", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, selectJobsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*jobs.Job
	for rows.Next() {
		var job *jobs.Job
		if job, err = scanJob(rows); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return out, nil
}

func scanJob(rows *sql.Rows) (*jobs.Job, error) {
	var (
		job                  jobs.Job
		typ, status          string
		outputRef, detail    sql.NullString
		warnings, thumbnails string
		metadata             sql.NullString
		createdAt, updatedAt int64
		startedAt            sql.NullInt64
	)

	err := rows.Scan(
		&job.ID, &job.Input, &typ, &status, &job.Progress, &outputRef, &job.OutputPath, &detail,
		&job.InputSize, &job.OutputSize, &job.CompressionRatio, &job.Bitrate, &job.Preset,
		&warnings, &thumbnails, &metadata, &createdAt, &startedAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Type = jobs.Type(typ)
	job.Status = jobs.Status(status)
	job.CreatedAt = time.Unix(0, createdAt)
	job.UpdatedAt = time.Unix(0, updatedAt)
	if startedAt.Valid {
		t := time.Unix(0, startedAt.Int64)
		job.StartedAt = &t
	}
	if outputRef.Valid {
		job.OutputReference = &outputRef.String
	}
	if detail.Valid {
		job.Detail = &detail.String
	}

	if err := json.Unmarshal([]byte(warnings), &job.Warnings); err != nil {
		return nil, fmt.Errorf("failed to decode warnings of job %s: %w", job.ID, err)
	}
	if err := json.Unmarshal([]byte(thumbnails), &job.Thumbnails); err != nil {
		return nil, fmt.Errorf("failed to decode thumbnails of job %s: %w", job.ID, err)
	}
	if len(job.Warnings) == 0 {
		job.Warnings = nil
	}
	if len(job.Thumbnails) == 0 {
		job.Thumbnails = nil
	}
	if metadata.Valid {
		job.Metadata = &probe.Result{}
		if err := json.Unmarshal([]byte(metadata.String), job.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of job %s: %w", job.ID, err)
		}
	}

	return &job, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
