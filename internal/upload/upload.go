package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ErrUnsupportedType is returned for files that are not images.
var ErrUnsupportedType = errors.New("only image files are allowed (jpg, jpeg, png, gif, webp)")

// ErrTooLarge is returned when a file exceeds the configured limit.
var ErrTooLarge = errors.New("image file is too large")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DiskStore saves images to a local folder served under PublicPrefix.
type DiskStore struct {
	Dir          string
	PublicPrefix string
	MaxBytes     int64
}

// NewDiskStore creates the folder if needed.
func NewDiskStore(dir, publicPrefix string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{Dir: dir, PublicPrefix: strings.TrimRight(publicPrefix, "/"), MaxBytes: maxBytes}, nil
}

// Store copies the uploaded file into Dir and returns its public reference.
func (d *DiskStore) Store(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	if d.MaxBytes > 0 && file.Size > d.MaxBytes {
		return "", ErrTooLarge
	}

	// Safe unique filename: slug of the original name + uuid + extension.
	base := slug.Make(strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename)))
	name := uuid.New().String() + ext
	if base != "" {
		name = base + "-" + name
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(d.Dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	_, err = dst.ReadFrom(src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}

	return d.PublicPrefix + "/" + name, nil
}

// Remove deletes an image previously returned by Store. References outside
// PublicPrefix are ignored. A missing file is not an error.
func (d *DiskStore) Remove(ref string) error {
	name, ok := strings.CutPrefix(ref, d.PublicPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(d.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
