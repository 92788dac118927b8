package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/ndanilin/linkpage-server/internal/logger"
)

// MediaStorage is the object store surface the media handler depends on.
type MediaStorage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Media serves uploaded objects from storage. It backs the /media/ URLs
// produced when no public storage endpoint is configured.
type Media struct {
	storage MediaStorage
	logger  *logger.Logger
}

func NewMedia(storage MediaStorage, logger *logger.Logger) *Media {
	return &Media{storage: storage, logger: logger}
}

// Serve streams the object under the request key. Uploaded objects never
// change, so clients may cache them indefinitely.
func (h *Media) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	ok, err := h.storage.Exists(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to stat media object",
			"key", key,
			"error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	obj, err := h.storage.Download(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to download media object",
			"key", key,
			"error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer obj.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, obj); err != nil {
		h.logger.Debug("media stream interrupted",
			"key", key,
			"error", err.Error())
	}
}
