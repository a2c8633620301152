package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicconnect/civic-services/internal/storage"
)

// maxFormSize bounds a multipart body: one image plus the text fields
const maxFormSize = storage.MaxImageSize + 1<<20

var errFormTooLarge = errors.New("request body too large")

type upload struct {
	ext  string
	data []byte
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errFormTooLarge
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return err
		}
		return r.ParseForm()
	}
	return nil
}

// readImage returns the optional "image" file of a parsed multipart form.
// A missing file yields nil.
func readImage(r *http.Request) (*upload, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	defer file.Close()

	ext, err := storage.ValidateImage(header.Filename, header.Size)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &upload{ext: ext, data: data}, nil
}

// storeImage saves img under kind/id and returns its storage path
func (h *Handler) storeImage(ctx context.Context, kind string, id int64, img *upload) (string, error) {
	name := storage.ImageName(kind, id, img.ext)
	if err := h.media.Store(ctx, name, img.data); err != nil {
		return "", err
	}
	return name, nil
}

// optionalFloat parses a form coordinate. Blank or malformed values are nil.
func optionalFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// mediaURL is the public path of a stored file
func mediaURL(name string) string {
	if name == "" {
		return ""
	}
	return "/media/" + name
}
