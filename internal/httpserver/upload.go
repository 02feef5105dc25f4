package httpserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/service"
)

// ImagesPrefix is the public url prefix uploaded files are served under.
const ImagesPrefix = "/Images/"

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

type Uploader struct {
	Dir string
}

// Save stores files under Dir with collision-free names and returns their public urls.
func (u *Uploader) Save(files []*multipart.FileHeader, prefix string, max int) ([]string, error) {
	if len(files) > max {
		return nil, fmt.Errorf("at most %d images allowed: %w", max, service.ErrValidation)
	}
	for _, fh := range files {
		if !imageExts[strings.ToLower(filepath.Ext(fh.Filename))] {
			return nil, fmt.Errorf("%q is not an image: %w", fh.Filename, service.ErrValidation)
		}
	}
	if len(files) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		name := prefix + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
		if err := u.store(fh, filepath.Join(u.Dir, name)); err != nil {
			return nil, err
		}
		urls = append(urls, ImagesPrefix+name)
	}
	return urls, nil
}

func (u *Uploader) store(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return dst.Close()
}
