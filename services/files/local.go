package filesvc

import (
	"context"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
)

type localStore struct {
	dir     string
	baseURL string
}

var _ core.FileStore = (*localStore)(nil)

// NewLocalStore keeps the files under dir; they are served from baseURL.
func NewLocalStore(dir, baseURL string) (core.FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &localStore{dir: dir, baseURL: baseURL}, nil
}

func (s *localStore) Save(_ context.Context, folder, filename string, r io.Reader) (core.StoredFile, error) {
	key := objectKey(folder, filename)
	fp := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return core.StoredFile{}, errors.Wrap(err, "creating folder")
	}

	f, err := os.Create(fp)
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "creating file")
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(fp)
		return core.StoredFile{}, errors.Wrap(err, "writing file")
	}
	return core.StoredFile{
		Key:         key,
		URL:         s.baseURL + "/" + key,
		ContentType: mime.TypeByExtension(path.Ext(key)),
		Size:        size,
	}, nil
}

func (s *localStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting file")
	}
	return nil
}
