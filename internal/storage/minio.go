package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"media-transcoder/internal/logging"
	"media-transcoder/internal/mediatypes"
)

// MinioScheme prefixes references to objects in a bucket.
const MinioScheme = "minio://"

// MinioConfig holds connection settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// ScratchDir receives downloaded inputs.
	ScratchDir string
}

// Minio relocates outputs to a bucket and downloads minio:// inputs.
// Plain input paths are delegated to the embedded Local store.
type Minio struct {
	client  *minio.Client
	bucket  string
	scratch string
	local   *Local
}

// NewMinio connects to the endpoint and makes sure the bucket exists.
func NewMinio(ctx context.Context, cfg MinioConfig, local *Local) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	m := &Minio{client: client, bucket: cfg.Bucket, scratch: cfg.ScratchDir, local: local}
	if err := m.ensureBucket(ctx); err != nil {
		return nil, err
	}

	if m.scratch != "" {
		if err := os.MkdirAll(m.scratch, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
	}

	logging.Info("Connected to MinIO at %s, bucket %s", cfg.Endpoint, cfg.Bucket)
	return m, nil
}

func (m *Minio) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	logging.Info("Created bucket: %s", m.bucket)
	return nil
}

// parseRef splits "minio://bucket/key".
func parseRef(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, MinioScheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func formatRef(bucket, key string) string {
	return MinioScheme + bucket + "/" + key
}

// FetchToLocal downloads minio:// references into the scratch directory.
func (m *Minio) FetchToLocal(ctx context.Context, ref string) (string, error) {
	bucket, key, ok := parseRef(ref)
	if !ok {
		if strings.HasPrefix(ref, MinioScheme) {
			return "", fmt.Errorf("malformed object reference %q", ref)
		}
		return m.local.FetchToLocal(ctx, ref)
	}

	dst := filepath.Join(m.scratch, uuid.NewString()+"-"+path.Base(key))
	if err := m.client.FGetObject(ctx, bucket, key, dst, minio.GetObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("failed to download %s: %w", ref, err)
	}
	return dst, nil
}

// Release removes downloaded inputs. Paths outside the scratch directory are
// left alone.
func (m *Minio) Release(localPath string) error {
	if m.scratch == "" {
		return nil
	}
	if _, err := within(m.scratch, localPath); err != nil {
		return nil
	}
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PutFromLocal uploads localPath as key and removes the local copy.
func (m *Minio) PutFromLocal(ctx context.Context, localPath, key string) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(key), "/")

	_, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: mediatypes.ContentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if err := os.Remove(localPath); err != nil {
		logging.Warn("Uploaded %s but failed to remove local copy: %v", key, err)
	}
	return formatRef(m.bucket, key), nil
}

// Delete removes the object behind a minio:// reference. Other references
// are treated as local outputs.
func (m *Minio) Delete(ctx context.Context, ref string) error {
	bucket, key, ok := parseRef(ref)
	if !ok {
		return m.local.Delete(ctx, ref)
	}
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	return nil
}

// Remote implements Store.
func (m *Minio) Remote() bool {
	return true
}
