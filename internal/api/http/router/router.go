package router

import (
	"net/http"

	"github.com/ndanilin/linkpage-server/internal/api/http/handler"
	"github.com/ndanilin/linkpage-server/internal/api/http/middleware"
)

// Handlers groups the route handlers wired into the mux.
type Handlers struct {
	Auth   *handler.Auth
	Editor *handler.Editor
	Public *handler.Public
	Media  *handler.Media
}

// Middleware groups the cross-cutting request wrappers.
type Middleware struct {
	Authenticate *middleware.Authenticate
	Logging      *middleware.Logging
}

// New builds the HTTP mux. Editor routes require authentication; public
// pages take an optional principal so owners of unclaimed names can be
// redirected to the editor.
func New(h Handlers, m Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/signup", h.Auth.SignUp)
	mux.HandleFunc("POST /api/auth/signin", h.Auth.SignIn)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	editor := http.NewServeMux()
	editor.HandleFunc("GET /api/editor", h.Editor.Load)
	editor.HandleFunc("PATCH /api/editor/profile", h.Editor.UpdateProfile)
	editor.HandleFunc("PATCH /api/editor/socials/{id}", h.Editor.UpdateSocial)
	editor.HandleFunc("POST /api/editor/links", h.Editor.AddLink)
	editor.HandleFunc("PATCH /api/editor/links/{id}", h.Editor.UpdateLink)
	editor.HandleFunc("DELETE /api/editor/links/{id}", h.Editor.DeleteLink)
	editor.HandleFunc("PUT /api/editor/links/order", h.Editor.ReorderLinks)
	editor.HandleFunc("POST /api/editor/links/{id}/thumbnail", h.Editor.ResolveThumbnail)
	editor.HandleFunc("POST /api/editor/save", h.Editor.Save)
	editor.HandleFunc("POST /api/editor/discard", h.Editor.Discard)
	editor.HandleFunc("POST /api/editor/onboarding", h.Editor.CompleteOnboarding)
	editor.HandleFunc("GET /api/editor/export", h.Editor.Export)
	editor.HandleFunc("POST /api/editor/import", h.Editor.Import)
	editor.HandleFunc("POST /api/editor/avatar", h.Editor.UploadImage)
	mux.Handle("/api/editor", m.Authenticate.Require(editor))
	mux.Handle("/api/editor/", m.Authenticate.Require(editor))

	mux.HandleFunc("POST /api/p/{username}/links/{id}/click", h.Public.Click)

	mux.HandleFunc("GET /media/{key...}", h.Media.Serve)

	mux.Handle("GET /{$}", m.Authenticate.Optional(http.HandlerFunc(h.Public.Root)))
	mux.Handle("GET /{username}", m.Authenticate.Optional(http.HandlerFunc(h.Public.Profile)))

	return m.Logging.Handle(mux)
}
