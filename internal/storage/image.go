package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload
const MaxImageSize = 5 << 20

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// ValidateImage checks the upload's extension and size and returns the
// normalized extension
func ValidateImage(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("invalid file type %q: only jpg, jpeg, png and gif are allowed", ext)
	}
	if size > MaxImageSize {
		return "", fmt.Errorf("file too large: maximum size is 5MB")
	}
	return ext, nil
}

// ImageName builds the storage path for an image attached to a record, e.g.
// discussions/12/6f1c....png
func ImageName(kind string, id int64, ext string) string {
	return fmt.Sprintf("%s/%d/%s%s", kind, id, uuid.NewString(), ext)
}
