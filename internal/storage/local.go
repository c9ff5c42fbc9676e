package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"media-transcoder/internal/filesystem"
)

// Local serves inputs from InputRoot and keeps outputs under OutputRoot.
// Output references are paths relative to OutputRoot.
type Local struct {
	InputRoot  string
	OutputRoot string
}

// NewLocal returns a Local store.
func NewLocal(inputRoot, outputRoot string) *Local {
	return &Local{InputRoot: inputRoot, OutputRoot: outputRoot}
}

// FetchToLocal resolves ref against InputRoot and checks it is a file.
func (l *Local) FetchToLocal(_ context.Context, ref string) (string, error) {
	path, err := within(l.InputRoot, ref)
	if err != nil {
		return "", err
	}

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("failed to stat input %s: %w", ref, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("input %s is not a regular file", ref)
	}
	return path, nil
}

// Release is a no-op: local inputs are never copied.
func (l *Local) Release(string) error {
	return nil
}

// PutFromLocal moves localPath to key under OutputRoot unless it is already
// there.
func (l *Local) PutFromLocal(_ context.Context, localPath, key string) (string, error) {
	dst, err := within(l.OutputRoot, key)
	if err != nil {
		return "", err
	}

	if filepath.Clean(localPath) != dst {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := moveFile(localPath, dst); err != nil {
			return "", err
		}
	}

	rel, err := filepath.Rel(filepath.Clean(l.OutputRoot), dst)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ResolveOutput returns the local path of an output reference.
func (l *Local) ResolveOutput(ref string) (string, error) {
	return within(l.OutputRoot, ref)
}

// Delete removes the output behind ref.
func (l *Local) Delete(_ context.Context, ref string) error {
	path, err := within(l.OutputRoot, ref)
	if err != nil {
		return err
	}
	return filesystem.RemoveWithRetry(path, filesystem.DefaultRetryConfig())
}

// Remote implements Store.
func (l *Local) Remote() bool {
	return false
}

// moveFile renames src to dst, copying across filesystems when needed.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(src), err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		return errors.Join(fmt.Errorf("failed to copy %s: %w", filepath.Base(src), err), out.Close())
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
