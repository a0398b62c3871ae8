// Package filesvc stores the uploaded pictures (payment receipts, garments) on disk or in Azure Blob storage.
package filesvc

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
)

const (
	BackendLocal  = "local"
	BackendAzblob = "azblob"
)

// NewFileStore builds the store selected by conf.Storage.Backend; pictures are normalized before being saved.
func NewFileStore(conf *core.Config) (core.FileStore, error) {
	var (
		store core.FileStore
		err   error
	)
	switch conf.Storage.Backend {
	case BackendLocal, "":
		store, err = NewLocalStore(conf.Storage.LocalDir, conf.Storage.PublicBaseURL)
	case BackendAzblob:
		store, err = NewAzblobStore(conf.Storage.AzureConnString, conf.Storage.AzureContainer)
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewImageStore(store, conf.Storage.MaxImageDimension), nil
}

// objectKey returns a unique "<folder>/<uuid>-<name>" key for the uploaded file.
func objectKey(folder, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "." || name == "_" || name == "" {
		name = "file"
	}
	key := uuid.New().String() + "-" + name
	if folder = strings.Trim(folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	return key
}
