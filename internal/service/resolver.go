package service

import (
	"context"
	"errors"

	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/model"
)

// ResolutionState is the terminal state of a public page resolution.
type ResolutionState string

const (
	// StateFound means a record was resolved and a view was counted.
	StateFound ResolutionState = "found"
	// StateNotFound means no record exists; the page renders a
	// claim-profile call to action. No view is counted.
	StateNotFound ResolutionState = "not_found"
	// StateRedirectToEditor means the authenticated owner requested their
	// own missing page and should be sent to the editor instead.
	StateRedirectToEditor ResolutionState = "redirect_to_editor"
)

// Resolution is the outcome of resolving a requested username.
type Resolution struct {
	State    ResolutionState
	Username string
	Record   model.ProfileRecord
}

// Resolver maps a requested public username to a render-ready record or a
// not-found state, counting views as it goes. It reads the profile store
// directly; drafts are invisible here until saved.
type Resolver struct {
	profiles  model.ProfileStore
	fallbacks []string
	logger    *logger.Logger
}

// NewResolver creates a Resolver. fallbacks are tried in order for the
// root path; they stand in for a future landing page.
func NewResolver(profiles model.ProfileStore, fallbacks []string, logger *logger.Logger) *Resolver {
	return &Resolver{profiles: profiles, fallbacks: fallbacks, logger: logger}
}

// Resolve looks up the requested username, or walks the fallback identities
// when none is given. A found record gets its view counter bumped exactly
// once per resolution. When nothing is found, the authenticated owner of the
// requested name is redirected to the editor; everyone else gets the
// claim-profile state, with no view counted.
func (r *Resolver) Resolve(ctx context.Context, requested string, viewer *model.Principal) Resolution {
	candidates := []string{model.NormalizeUsername(requested)}
	if requested == "" {
		candidates = r.fallbacks
	}

	for _, candidate := range candidates {
		username := model.NormalizeUsername(candidate)
		if username == "" {
			continue
		}

		record, err := r.profiles.Get(ctx, username)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				r.logger.Error("failed to resolve profile",
					"username", username,
					"error", err.Error())
			}
			continue
		}

		if err := r.profiles.IncrementView(ctx, username); err != nil {
			r.logger.Error("failed to count view",
				"username", username,
				"error", err.Error())
		}

		return Resolution{State: StateFound, Username: username, Record: record}
	}

	if viewer != nil && (requested == "" || model.NormalizeUsername(requested) == viewer.Username) {
		return Resolution{State: StateRedirectToEditor, Username: viewer.Username}
	}

	return Resolution{State: StateNotFound, Username: model.NormalizeUsername(requested)}
}

// RecordClick bumps the click counters for a link on the viewed profile.
// Callers fire it from a background goroutine so navigation is never
// delayed; failures are logged and swallowed.
func (r *Resolver) RecordClick(ctx context.Context, username, linkID string) {
	if err := r.profiles.IncrementClick(ctx, username, linkID); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			r.logger.Error("failed to count click",
				"username", username,
				"link_id", linkID,
				"error", err.Error())
		}
	}
}
