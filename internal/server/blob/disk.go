package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/recipehub/internal/filex"
)

// DiskPrefix is the URL path prefix under which disk blobs are served and
// the prefix of every reference DiskStore returns.
const DiskPrefix = "uploads"

// DiskStore keeps files in a local directory. References look like
// "uploads/<uuid>.<ext>".
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DiskStore{dir: abs}, nil
}

// Dir is the absolute directory the store writes into.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Put(ctx context.Context, originalName, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := randomName(originalName)
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close blob: %w", err)
	}

	return path.Join(DiskPrefix, name), nil
}

func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	name := strings.TrimPrefix(ref, DiskPrefix+"/")
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid blob reference %q", ref)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
