package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ndanilin/linkpage-server/internal/api/http/httpctx"
	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/service"
	"github.com/ndanilin/linkpage-server/internal/web"
)

// ResolverService resolves public usernames and counts engagement.
type ResolverService interface {
	Resolve(ctx context.Context, requested string, viewer *model.Principal) service.Resolution
	RecordClick(ctx context.Context, username, linkID string)
}

// Public serves the rendered profile pages and the click beacon.
type Public struct {
	resolver ResolverService
	renderer *web.Renderer
	logger   *logger.Logger
}

// NewPublic creates a new Public handler.
func NewPublic(resolver ResolverService, renderer *web.Renderer, logger *logger.Logger) *Public {
	return &Public{resolver: resolver, renderer: renderer, logger: logger}
}

// Root resolves the fallback identities for the bare domain.
func (h *Public) Root(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "")
}

// Profile resolves and renders one username's page.
func (h *Public) Profile(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.PathValue("username"))
}

func (h *Public) serve(w http.ResponseWriter, r *http.Request, requested string) {
	var viewer *model.Principal
	if principal, ok := httpctx.PrincipalFrom(r.Context()); ok {
		viewer = &principal
	}

	resolution := h.resolver.Resolve(r.Context(), requested, viewer)

	switch resolution.State {
	case service.StateFound:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.renderer.RenderProfile(w, resolution.Record); err != nil {
			h.logger.Error("failed to render profile",
				"username", resolution.Username,
				"error", err.Error())
		}
	case service.StateRedirectToEditor:
		http.Redirect(w, r, "/api/editor", http.StatusSeeOther)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		if err := h.renderer.RenderClaim(w, resolution.Username); err != nil {
			h.logger.Error("failed to render claim page",
				"username", resolution.Username,
				"error", err.Error())
		}
	}
}

// Click is the beacon fired when a visitor follows a link. It acknowledges
// immediately; the counters are bumped in the background so navigation is
// never held up.
func (h *Public) Click(w http.ResponseWriter, r *http.Request) {
	username := model.NormalizeUsername(r.PathValue("username"))
	linkID := r.PathValue("id")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.resolver.RecordClick(ctx, username, linkID)
	}()

	w.WriteHeader(http.StatusAccepted)
}
