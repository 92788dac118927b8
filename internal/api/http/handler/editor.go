package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ndanilin/linkpage-server/internal/api/http/httpctx"
	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/service"
)

// maxUploadBytes caps avatar/background uploads before compression.
const maxUploadBytes = 10 << 20

// EditorService is the editing surface consumed by the handler.
type EditorService interface {
	Load(ctx context.Context, principal model.Principal) (service.State, error)
	UpdateProfile(ctx context.Context, principal model.Principal, update service.ProfileUpdate) (service.State, error)
	UpdateSocial(ctx context.Context, principal model.Principal, id string, update service.SocialUpdate) (service.State, error)
	AddLink(ctx context.Context, principal model.Principal, input service.LinkInput) (service.State, error)
	UpdateLink(ctx context.Context, principal model.Principal, id string, update service.LinkUpdate) (service.State, error)
	DeleteLink(ctx context.Context, principal model.Principal, id string) (service.State, error)
	ReorderLinks(ctx context.Context, principal model.Principal, ids []string) (service.State, error)
	Save(ctx context.Context, principal model.Principal) (service.State, error)
	Discard(ctx context.Context, principal model.Principal, confirm bool) (service.State, error)
	CompleteOnboarding(ctx context.Context, principal model.Principal, update service.ProfileUpdate) (service.State, error)
	Export(ctx context.Context, principal model.Principal) ([]byte, error)
	Import(ctx context.Context, principal model.Principal, blob []byte) (service.State, error)
	UploadImage(ctx context.Context, principal model.Principal, data []byte, contentType, target string) (service.State, error)
	ResolveLinkThumbnail(ctx context.Context, principal model.Principal, linkID string) error
}

// Editor exposes the draft editing operations. Every route requires an
// authenticated principal, enforced by middleware.
type Editor struct {
	service EditorService
	logger  *logger.Logger
}

// NewEditor creates a new Editor handler.
func NewEditor(service EditorService, logger *logger.Logger) *Editor {
	return &Editor{service: service, logger: logger}
}

func (h *Editor) principal(r *http.Request) (model.Principal, bool) {
	return httpctx.PrincipalFrom(r.Context())
}

// Load returns the current draft state, loading the session if needed.
func (h *Editor) Load(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	state, err := h.service.Load(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// UpdateProfile merges a partial profile update into the draft.
func (h *Editor) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var update service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.UpdateProfile(r.Context(), principal, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// UpdateSocial merges a partial update into one social entry.
func (h *Editor) UpdateSocial(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var update service.SocialUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.UpdateSocial(r.Context(), principal, r.PathValue("id"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// AddLink adds a new link to the top of the draft.
func (h *Editor) AddLink(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var input service.LinkInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.AddLink(r.Context(), principal, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// UpdateLink merges a partial update into one link.
func (h *Editor) UpdateLink(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var update service.LinkUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.UpdateLink(r.Context(), principal, r.PathValue("id"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteLink removes one link from the draft.
func (h *Editor) DeleteLink(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	state, err := h.service.DeleteLink(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type reorderRequest struct {
	Order []string `json:"order"`
}

// ReorderLinks replaces the draft link order.
func (h *Editor) ReorderLinks(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.ReorderLinks(r.Context(), principal, req.Order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Save persists the draft and promotes it to published.
func (h *Editor) Save(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	state, err := h.service.Save(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type discardRequest struct {
	Confirm bool `json:"confirm"`
}

// Discard rolls the draft back to published; requires an explicit confirm.
func (h *Editor) Discard(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var req discardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.Discard(r.Context(), principal, req.Confirm)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// CompleteOnboarding merges the final onboarding answers and saves.
func (h *Editor) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var update service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.CompleteOnboarding(r.Context(), principal, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Export streams the published record as a downloadable backup.
func (h *Editor) Export(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	blob, err := h.service.Export(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="linkpage-backup.json"`)
	_, _ = w.Write(blob)
}

// Import overwrites the record from an uploaded backup.
func (h *Editor) Import(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	blob, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, model.NewValidationError("", "invalid request body"))
		return
	}

	state, err := h.service.Import(r.Context(), principal, blob)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// UploadImage accepts a multipart image upload for the avatar or the theme
// background.
func (h *Editor) UploadImage(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, model.NewValidationError("image", "invalid upload"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, model.NewValidationError("image", "image file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, model.NewValidationError("image", "invalid upload"))
		return
	}

	state, err := h.service.UploadImage(r.Context(), principal, data, header.Header.Get("Content-Type"), r.FormValue("target"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ResolveThumbnail kicks off a background thumbnail fetch for a draft link.
func (h *Editor) ResolveThumbnail(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	if err := h.service.ResolveLinkThumbnail(r.Context(), principal, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
