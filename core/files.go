package core

import (
	"context"
	"io"
)

// StoredFile describes a file kept by a FileStore.
type StoredFile struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// FileStore keeps uploaded files (payment receipts, garment pictures) and serves them by URL.
type FileStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (StoredFile, error)
	Delete(ctx context.Context, key string) error
}
