package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndanilin/linkpage-server/internal/api/http/handler"
	"github.com/ndanilin/linkpage-server/internal/api/http/middleware"
	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/service"
	"github.com/ndanilin/linkpage-server/internal/testutil"
	"github.com/ndanilin/linkpage-server/internal/web"
)

type stubTokens struct {
	principal model.Principal
	err       error
}

func (s stubTokens) GetPrincipal(context.Context, string) (model.Principal, error) {
	return s.principal, s.err
}

type stubResolver struct {
	lastRequested string
	clicks        []string
	resolution    service.Resolution
}

func (s *stubResolver) Resolve(_ context.Context, requested string, _ *model.Principal) service.Resolution {
	s.lastRequested = requested
	return s.resolution
}

func (s *stubResolver) RecordClick(_ context.Context, username, linkID string) {
	s.clicks = append(s.clicks, username+"/"+linkID)
}

type stubStorage struct{}

func (stubStorage) Download(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("image-bytes")), nil
}

func (stubStorage) Exists(context.Context, string) (bool, error) { return true, nil }

func newTestRouter(t *testing.T, resolver *stubResolver, tokens middleware.TokenService) http.Handler {
	t.Helper()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	logger := testutil.MakeNoopLogger()

	return New(
		Handlers{
			Auth:   handler.NewAuth(nil, logger),
			Editor: handler.NewEditor(nil, logger),
			Public: handler.NewPublic(resolver, renderer, logger),
			Media:  handler.NewMedia(stubStorage{}, logger),
		},
		Middleware{
			Authenticate: middleware.NewAuthenticate(tokens, logger),
			Logging:      middleware.NewLogging(logger),
		},
	)
}

func notFoundResolution(username string) service.Resolution {
	return service.Resolution{State: service.StateNotFound, Username: username}
}

func TestRouter_EditorRequiresAuth(t *testing.T) {
	mux := newTestRouter(t, &stubResolver{}, stubTokens{err: http.ErrNoCookie})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/editor"},
		{http.MethodPatch, "/api/editor/profile"},
		{http.MethodPost, "/api/editor/links"},
		{http.MethodPost, "/api/editor/save"},
		{http.MethodGet, "/api/editor/export"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestRouter_PublicProfile(t *testing.T) {
	resolver := &stubResolver{resolution: notFoundResolution("ghost")}
	mux := newTestRouter(t, resolver, stubTokens{err: http.ErrNoCookie})

	req := httptest.NewRequest(http.MethodGet, "/ghost", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ghost", resolver.lastRequested)
}

func TestRouter_Root(t *testing.T) {
	resolver := &stubResolver{resolution: notFoundResolution("")}
	mux := newTestRouter(t, resolver, stubTokens{err: http.ErrNoCookie})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, resolver.lastRequested)
}

func TestRouter_ClickBeacon(t *testing.T) {
	resolver := &stubResolver{}
	mux := newTestRouter(t, resolver, stubTokens{err: http.ErrNoCookie})

	req := httptest.NewRequest(http.MethodPost, "/api/p/alice/links/l1/click", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_MediaKeyWildcard(t *testing.T) {
	resolver := &stubResolver{resolution: notFoundResolution("")}
	mux := newTestRouter(t, resolver, stubTokens{err: http.ErrNoCookie})

	req := httptest.NewRequest(http.MethodGet, "/media/alice/some-object", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image-bytes", rec.Body.String())
}

func TestRouter_MethodMismatch(t *testing.T) {
	resolver := &stubResolver{resolution: notFoundResolution("")}
	mux := newTestRouter(t, resolver, stubTokens{err: http.ErrNoCookie})

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/signup", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
