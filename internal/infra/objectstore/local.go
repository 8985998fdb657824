package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
)

const metaSuffix = ".meta.json"

// LocalStore keeps blobs under a directory, each with a sidecar JSON file
// holding its content type and size.
type LocalStore struct {
	root string
}

func NewLocal(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: create %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &domain.ErrValidation{Field: "key", Message: "invalid document key"}
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	_, span := tracer.Start(ctx, "Local.Put")
	defer span.End()

	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("objectstore: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return err
	}

	meta, err := json.Marshal(port.BlobInfo{ContentType: contentType, Size: written})
	if err != nil {
		return err
	}
	return os.WriteFile(p+metaSuffix, meta, 0o644)
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, *port.BlobInfo, error) {
	_, span := tracer.Start(ctx, "Local.Get")
	defer span.End()

	p, err := s.path(key)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, &domain.ErrNotFound{Resource: "document", ID: key}
	}
	if err != nil {
		return nil, nil, err
	}

	info := &port.BlobInfo{ContentType: "application/octet-stream"}
	if raw, err := os.ReadFile(p + metaSuffix); err == nil {
		_ = json.Unmarshal(raw, info)
	} else if st, err := f.Stat(); err == nil {
		info.Size = st.Size()
	}
	return f, info, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	_, span := tracer.Start(ctx, "Local.Delete")
	defer span.End()

	p, err := s.path(key)
	if err != nil {
		return err
	}
	for _, name := range []string{p, p + metaSuffix} {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
