package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		logrus.Errorf("Health check failed: %v", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	respond.JSON(w, code, respond.Fields{
		"status":    status,
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// publicMedia lists the storage prefixes anyone may read. Everything else,
// such as import snapshots, is visible to staff only.
var publicMedia = []string{"discussions/", "complaints/"}

func mediaVisible(name string, r *http.Request) bool {
	for _, prefix := range publicMedia {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	user, ok := auth.UserFromContext(r.Context())
	return ok && user.IsStaff
}

func (h *Handler) serveMedia(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["path"]
	if !mediaVisible(name, r) {
		respond.Error(w, http.StatusNotFound, "File not found")
		return
	}
	data, err := h.media.Retrieve(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "File not found")
			return
		}
		logrus.Errorf("Failed to read media %s: %v", name, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

// triggerImport reloads every dataset in the background and returns at once
func (h *Handler) triggerImport(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.importTimeout)
		defer cancel()
		if _, err := h.importer.RunAll(ctx, ingest.TriggerManual); err != nil {
			logrus.Errorf("Manual import trigger failed: %v", err)
		}
	}()

	respond.JSON(w, http.StatusAccepted, respond.Fields{
		"success": true,
		"message": "Import triggered successfully",
	})
}
