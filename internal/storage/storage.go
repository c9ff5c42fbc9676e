package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for references that escape their root.
var ErrOutsideRoot = errors.New("reference outside storage root")

// ErrNotFound is returned when a referenced object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the byte-addressable collaborator of the job engine.
type Store interface {
	// FetchToLocal makes ref available on local disk and returns its path.
	FetchToLocal(ctx context.Context, ref string) (string, error)
	// Release frees a path returned by FetchToLocal.
	Release(localPath string) error
	// PutFromLocal stores the file at localPath under key and returns the
	// reference callers should use from now on.
	PutFromLocal(ctx context.Context, localPath, key string) (string, error)
	// Delete removes the object behind ref. Missing objects are not an error.
	Delete(ctx context.Context, ref string) error
	// Remote reports whether PutFromLocal relocates bytes off this node.
	Remote() bool
}

// within joins rel onto root and rejects results that leave root.
func within(root, rel string) (string, error) {
	root = filepath.Clean(root)
	var p string
	if filepath.IsAbs(rel) {
		p = filepath.Clean(rel)
	} else {
		p = filepath.Join(root, rel)
	}

	r, err := filepath.Rel(root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}
