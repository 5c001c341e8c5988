// Package blob stores uploaded recipe cover images. A Store hands back an
// opaque reference that is persisted on the recipe and later passed to
// Delete.
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists uploaded files.
type Store interface {
	// Put writes r and returns a reference to the stored object.
	// originalName only contributes its extension.
	Put(ctx context.Context, originalName, contentType string, r io.Reader) (string, error)
	// Delete removes the object behind ref. Unknown refs are not an error.
	Delete(ctx context.Context, ref string) error
}

// randomName returns a fresh file name keeping the extension of original.
func randomName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return uuid.NewString() + ext
}

// storageKey returns a date-partitioned object key for name.
func storageKey(now time.Time, name string) string {
	return fmt.Sprintf("recipes/%d/%d/%d/%s", now.Year(), now.Month(), now.Day(), name)
}
