package filesvc

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
)

type azblobStore struct {
	client    *azblob.Client
	container string
}

var _ core.FileStore = (*azblobStore)(nil)

func NewAzblobStore(connString, container string) (core.FileStore, error) {
	if connString == "" {
		return nil, errors.New("storage.azureConnString is required by the azblob backend")
	}
	client, err := azblob.NewClientFromConnectionString(connString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating azblob client")
	}
	return &azblobStore{client: client, container: container}, nil
}

func (s *azblobStore) Save(ctx context.Context, folder, filename string, r io.Reader) (core.StoredFile, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "reading upload")
	}

	key := objectKey(folder, filename)
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = http.DetectContentType(content)
	}
	_, err = s.client.UploadBuffer(ctx, s.container, key, content, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "uploading blob")
	}
	return core.StoredFile{
		Key:         key,
		URL:         strings.TrimRight(s.client.URL(), "/") + "/" + s.container + "/" + key,
		ContentType: ct,
		Size:        int64(len(content)),
	}, nil
}

func (s *azblobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return errors.Wrap(err, "deleting blob")
	}
	return nil
}
