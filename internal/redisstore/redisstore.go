package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"media-transcoder/internal/jobs"
	"media-transcoder/internal/logging"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "transcoder:"

const pingTimeout = 5 * time.Second

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements jobs.Persister on top of Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err), client.Close())
	}

	logging.Info("Connected to Redis server at %s (db %d)", opts.Addr, opts.DB)
	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Name implements jobs.Persister.
func (s *Store) Name() string {
	return "redis"
}

func (s *Store) jobKey(id string) string {
	return s.prefix + "job:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "jobs"
}

// record carries the fields the public JSON form hides.
type record struct {
	jobs.Job
	OutputPath string `json:"outputPath,omitempty"`
}

func encode(job *jobs.Job) ([]byte, error) {
	return json.Marshal(record{Job: *job, OutputPath: job.OutputPath})
}

func decode(data []byte) (*jobs.Job, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	job := r.Job
	job.OutputPath = r.OutputPath
	return &job, nil
}

// SaveJob writes the record and indexes its id atomically.
func (s *Store) SaveJob(ctx context.Context, job *jobs.Job) error {
	data, err := encode(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.jobKey(job.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), job.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// DeleteJob removes the record and its index entry.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.jobKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// LoadJobs returns every indexed record, oldest first. Index entries whose
// record has vanished are dropped.
func (s *Store) LoadJobs(ctx context.Context) ([]*jobs.Job, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list job ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.jobKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}

	out := make([]*jobs.Job, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		job, err := decode([]byte(str))
		if err != nil {
			logging.Warn("Skipping undecodable job record %s: %v", ids[i], err)
			continue
		}
		out = append(out, job)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			logging.Warn("Failed to prune %d stale job ids: %v", len(stale), err)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
