package filesvc

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
)

// imageStore shrinks oversized JPEG and PNG pictures, applying their EXIF orientation, before saving them.
type imageStore struct {
	core.FileStore
	maxDimension int
}

func NewImageStore(store core.FileStore, maxDimension int) core.FileStore {
	return &imageStore{FileStore: store, maxDimension: maxDimension}
}

func (s *imageStore) Save(ctx context.Context, folder, filename string, r io.Reader) (core.StoredFile, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "reading upload")
	}
	if normalized, ok := s.normalize(content, filename); ok {
		content = normalized
	}
	return s.FileStore.Save(ctx, folder, filename, bytes.NewReader(content))
}

// normalize returns false when the content is left untouched (not a picture, or already small enough).
func (s *imageStore) normalize(content []byte, filename string) ([]byte, bool) {
	format, err := imageFormat(content, filename)
	if err != nil || s.maxDimension <= 0 {
		return nil, false
	}

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false
	}
	if b := img.Bounds(); b.Dx() > s.maxDimension || b.Dy() > s.maxDimension {
		img = imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)
	} else if format == imaging.PNG {
		return nil, false
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, format); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func encode(w io.Writer, img image.Image, format imaging.Format) error {
	if format == imaging.JPEG {
		return imaging.Encode(w, img, format, imaging.JPEGQuality(85))
	}
	return imaging.Encode(w, img, format)
}

func imageFormat(content []byte, filename string) (imaging.Format, error) {
	switch http.DetectContentType(content) {
	case "image/jpeg":
		return imaging.JPEG, nil
	case "image/png":
		return imaging.PNG, nil
	}
	return imaging.FormatFromFilename(strings.ToLower(path.Base(filename)))
}
