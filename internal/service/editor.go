package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ndanilin/linkpage-server/internal/logger"
	"github.com/ndanilin/linkpage-server/internal/media"
	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/theme"
)

// MediaStore stores uploaded media and derives public URLs for stored keys.
type MediaStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ThumbnailResolver extracts a direct image URL for a pasted link.
type ThumbnailResolver interface {
	Resolve(ctx context.Context, link string) (string, error)
}

// Editor holds per-user editing sessions: a published copy (last durably
// saved record) and a draft the mutations apply to. Draft and published
// never share mutable structure; an explicit Save promotes the draft,
// Discard rolls it back. One session per username, the server-side analog
// of the original single browser tab.
type Editor struct {
	profiles model.ProfileStore
	media    MediaStore
	thumbs   ThumbnailResolver
	logger   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*editSession
}

type editSession struct {
	published model.ProfileRecord
	draft     model.ProfileRecord
	dirty     bool
	// version tags the current draft lifetime; async enhancement results
	// started under an older version are dropped instead of applied.
	version uint64
}

func NewEditor(profiles model.ProfileStore, media MediaStore, thumbs ThumbnailResolver, logger *logger.Logger) *Editor {
	return &Editor{
		profiles: profiles,
		media:    media,
		thumbs:   thumbs,
		logger:   logger,
		sessions: map[string]*editSession{},
	}
}

// State is the editor view returned from every operation.
type State struct {
	Record            model.ProfileRecord `json:"record"`
	HasUnsavedChanges bool                `json:"hasUnsavedChanges"`
}

func (e *Editor) state(s *editSession) State {
	return State{Record: s.draft.Clone(), HasUnsavedChanges: s.dirty}
}

// Load fetches the principal's record and resets the editing session. A
// missing record is synthesized from defaults with the username pre-filled;
// storage failures are logged and degrade to defaults rather than erroring.
func (e *Editor) Load(ctx context.Context, principal model.Principal) (State, error) {
	record, err := e.profiles.Get(ctx, principal.Username)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			e.logger.Error("failed to load profile, falling back to defaults",
				"username", principal.Username,
				"error", err.Error())
		}
		record = model.DefaultRecord(principal.Username)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &editSession{
		published: record.Clone(),
		draft:     record.Clone(),
	}
	if prev, ok := e.sessions[principal.Username]; ok {
		s.version = prev.version + 1
	}
	e.sessions[principal.Username] = s

	return e.state(s), nil
}

// ensureSession returns the live session for the principal, loading one if
// the editor has not been opened yet.
func (e *Editor) ensureSession(ctx context.Context, principal model.Principal) (*editSession, error) {
	e.mu.Lock()
	if s, ok := e.sessions[principal.Username]; ok {
		e.mu.Unlock()
		return s, nil
	}
	e.mu.Unlock()

	if _, err := e.Load(ctx, principal); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[principal.Username], nil
}

// ProfileUpdate is a partial profile mutation; nil fields are left alone.
// The theme is replaced as a whole when present. Username is not updatable,
// it is forced back to the session identity on save.
type ProfileUpdate struct {
	DisplayName         *string              `json:"displayName"`
	Bio                 *string              `json:"bio"`
	AvatarURL           *string              `json:"avatarUrl"`
	ImageSettings       *model.ImageSettings `json:"imageSettings"`
	Theme               *model.Theme         `json:"theme"`
	OnboardingCompleted *bool                `json:"onboardingCompleted"`
}

func applyProfileUpdate(p *model.Profile, update ProfileUpdate) {
	if update.DisplayName != nil {
		p.DisplayName = *update.DisplayName
	}
	if update.Bio != nil {
		p.Bio = *update.Bio
	}
	if update.AvatarURL != nil {
		p.AvatarURL = *update.AvatarURL
	}
	if update.ImageSettings != nil {
		p.ImageSettings = *update.ImageSettings
	}
	if update.Theme != nil {
		p.Theme = *update.Theme
	}
	if update.OnboardingCompleted != nil {
		p.OnboardingCompleted = *update.OnboardingCompleted
	}
}

// UpdateProfile merges a partial update into the draft profile.
func (e *Editor) UpdateProfile(ctx context.Context, principal model.Principal, update ProfileUpdate) (State, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	applyProfileUpdate(&s.draft.Profile, update)
	s.dirty = true

	return e.state(s), nil
}

// SocialUpdate is a partial social entry mutation.
type SocialUpdate struct {
	URL    *string `json:"url"`
	Active *bool   `json:"active"`
}

// UpdateSocial merges a partial update into the social entry with the given
// ID. An unknown ID is a no-op, not an error.
func (e *Editor) UpdateSocial(ctx context.Context, principal model.Principal, id string, update SocialUpdate) (State, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range s.draft.Profile.Socials {
		if s.draft.Profile.Socials[i].ID != id {
			continue
		}
		if update.URL != nil {
			s.draft.Profile.Socials[i].URL = *update.URL
		}
		if update.Active != nil {
			s.draft.Profile.Socials[i].Active = *update.Active
		}
		break
	}
	s.dirty = true

	return e.state(s), nil
}

// LinkInput is a new link submitted from the editor.
type LinkInput struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Icon          string `json:"icon"`
	CustomIconURL string `json:"customIconUrl"`
}

// AddLink assigns a fresh ID, defaults the link active and prepends it to
// the draft.
func (e *Editor) AddLink(ctx context.Context, principal model.Principal, input LinkInput) (State, error) {
	if input.Title == "" {
		return State{}, model.NewValidationError("title", "title is required")
	}
	if input.URL == "" {
		return State{}, model.NewValidationError("url", "url is required")
	}
	if !theme.ValidIcon(input.Icon) {
		return State{}, model.NewValidationError("icon", "unknown icon")
	}

	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	link := model.Link{
		ID:            uuid.NewString(),
		Title:         input.Title,
		URL:           input.URL,
		Icon:          input.Icon,
		CustomIconURL: input.CustomIconURL,
		Active:        true,
	}
	if link.CustomIconURL != "" {
		link.Icon = ""
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.draft.Links = append([]model.Link{link}, s.draft.Links...)
	s.dirty = true

	return e.state(s), nil
}

// LinkUpdate is a partial link mutation; nil fields are left alone.
type LinkUpdate struct {
	Title         *string `json:"title"`
	URL           *string `json:"url"`
	Icon          *string `json:"icon"`
	CustomIconURL *string `json:"customIconUrl"`
	Active        *bool   `json:"active"`
}

// UpdateLink merges a partial update into the link with the given ID. An
// unknown ID is a no-op, not an error. Setting a builtin icon clears the
// custom icon URL and vice versa.
func (e *Editor) UpdateLink(ctx context.Context, principal model.Principal, id string, update LinkUpdate) (State, error) {
	if update.Icon != nil && !theme.ValidIcon(*update.Icon) {
		return State{}, model.NewValidationError("icon", "unknown icon")
	}

	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range s.draft.Links {
		link := &s.draft.Links[i]
		if link.ID != id {
			continue
		}
		if update.Title != nil {
			link.Title = *update.Title
		}
		if update.URL != nil {
			link.URL = *update.URL
		}
		if update.Icon != nil {
			link.Icon = *update.Icon
			if *update.Icon != "" {
				link.CustomIconURL = ""
			}
		}
		if update.CustomIconURL != nil {
			link.CustomIconURL = *update.CustomIconURL
			if *update.CustomIconURL != "" {
				link.Icon = ""
			}
		}
		if update.Active != nil {
			link.Active = *update.Active
		}
		break
	}
	s.dirty = true

	return e.state(s), nil
}

// DeleteLink removes the link with the given ID; unknown IDs are a no-op.
func (e *Editor) DeleteLink(ctx context.Context, principal model.Principal, id string) (State, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	links := s.draft.Links[:0]
	for _, link := range s.draft.Links {
		if link.ID != id {
			links = append(links, link)
		}
	}
	s.draft.Links = links
	s.dirty = true

	return e.state(s), nil
}

// ReorderLinks replaces the draft link order with the given ID sequence,
// which must be a permutation of the current link set.
func (e *Editor) ReorderLinks(ctx context.Context, principal model.Principal, ids []string) (State, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) != len(s.draft.Links) {
		return State{}, model.NewValidationError("order", "order must contain every link id exactly once")
	}

	byID := make(map[string]model.Link, len(s.draft.Links))
	for _, link := range s.draft.Links {
		byID[link.ID] = link
	}

	reordered := make([]model.Link, 0, len(ids))
	for _, id := range ids {
		link, ok := byID[id]
		if !ok {
			return State{}, model.NewValidationError("order", "order must contain every link id exactly once")
		}
		delete(byID, id)
		reordered = append(reordered, link)
	}

	s.draft.Links = reordered
	s.dirty = true

	return e.state(s), nil
}

// Save persists the draft and promotes it to published. The draft username
// is forced back to the authenticated identity first. A failed write leaves
// the dirty flag set so the caller is not told the data is safe.
func (e *Editor) Save(ctx context.Context, principal model.Principal) (State, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.draft.Profile.Username = principal.Username

	if err := e.profiles.Save(ctx, principal.Username, s.draft); err != nil {
		e.logger.Error("failed to save profile",
			"username", principal.Username,
			"error", err.Error())
		return e.state(s), fmt.Errorf("failed to save profile: %w", err)
	}

	s.published = s.draft.Clone()
	s.dirty = false
	s.version++

	return e.state(s), nil
}

// Discard rolls the draft back to the published record. The confirmation
// flag is part of the contract; an unconfirmed discard is rejected.
func (e *Editor) Discard(ctx context.Context, principal model.Principal, confirm bool) (State, error) {
	if !confirm {
		return State{}, model.NewValidationError("confirm", "discard requires confirmation")
	}

	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.draft = s.published.Clone()
	s.dirty = false
	s.version++

	return e.state(s), nil
}

// CompleteOnboarding merges the final onboarding answers and saves
// immediately.
func (e *Editor) CompleteOnboarding(ctx context.Context, principal model.Principal, update ProfileUpdate) (State, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	applyProfileUpdate(&s.draft.Profile, update)
	s.draft.Profile.OnboardingCompleted = true
	s.dirty = true
	e.mu.Unlock()

	return e.Save(ctx, principal)
}

// Export serializes the published record as a backup blob.
func (e *Editor) Export(ctx context.Context, principal model.Principal) ([]byte, error) {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	blob, err := json.MarshalIndent(s.published, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return blob, nil
}

// Import parses a backup blob, normalizes it to the current schema and
// overwrites the user's record. Malformed input is a validation error, not
// a crash.
func (e *Editor) Import(ctx context.Context, principal model.Principal, blob []byte) (State, error) {
	var record model.ProfileRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return State{}, model.NewValidationError("backup", "file is not a valid backup")
	}

	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	s.draft = model.Normalize(record, principal.Username)
	s.dirty = true
	s.version++
	e.mu.Unlock()

	return e.Save(ctx, principal)
}

// UploadImage compresses and stores an uploaded image, pointing the draft
// avatar (or theme background, for target "background") at the stored
// object. Compression failures fall back to storing the original bytes.
func (e *Editor) UploadImage(ctx context.Context, principal model.Principal, data []byte, contentType, target string) (State, error) {
	compressed, outType, err := media.Compress(data)
	if err != nil {
		e.logger.Warn("image compression failed, storing original",
			"username", principal.Username,
			"error", err.Error())
		compressed, outType = data, contentType
	}

	key := fmt.Sprintf("%s/%s", principal.Username, uuid.NewString())
	if err := e.media.Upload(ctx, key, bytes.NewReader(compressed), outType); err != nil {
		return State{}, fmt.Errorf("failed to store image: %w", err)
	}
	url := e.media.PublicURL(key)

	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return State{}, err
	}

	e.mu.Lock()
	var replaced string
	if target == "background" {
		replaced = s.draft.Profile.Theme.BackgroundImage
		if replaced == s.published.Profile.Theme.BackgroundImage {
			replaced = ""
		}
		s.draft.Profile.Theme.BackgroundImage = url
		s.draft.Profile.Theme.BackgroundStyle = "image"
		s.draft.Profile.Theme.BgSource = "upload"
	} else {
		replaced = s.draft.Profile.AvatarURL
		if replaced == s.published.Profile.AvatarURL {
			replaced = ""
		}
		s.draft.Profile.AvatarURL = url
	}
	s.dirty = true
	state := e.state(s)
	e.mu.Unlock()

	// Drop the object the draft just stopped referencing. Objects the
	// published record still serves are kept until that reference goes away.
	if oldKey, ok := e.storedKey(replaced); ok {
		if err := e.media.Delete(ctx, oldKey); err != nil {
			e.logger.Warn("failed to delete replaced image object",
				"key", oldKey,
				"error", err.Error())
		}
	}

	return state, nil
}

// storedKey maps a media URL back to the object key it was uploaded under.
// URLs pointing anywhere but our store report false.
func (e *Editor) storedKey(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	prefix := e.media.PublicURL("")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

const thumbnailTimeout = 15 * time.Second

// ResolveLinkThumbnail starts a background fetch of a thumbnail for the
// given draft link. The result is applied only if the draft generation is
// still the one active at launch; failures degrade silently to the pasted
// URL. The call returns as soon as the fetch is started.
func (e *Editor) ResolveLinkThumbnail(ctx context.Context, principal model.Principal, linkID string) error {
	s, err := e.ensureSession(ctx, principal)
	if err != nil {
		return err
	}

	e.mu.Lock()
	var linkURL string
	for _, link := range s.draft.Links {
		if link.ID == linkID {
			linkURL = link.URL
			break
		}
	}
	startVersion := s.version
	e.mu.Unlock()

	if linkURL == "" {
		return model.ErrNotFound
	}

	go func() {
		fetchCtx, cancel := context.WithTimeout(context.Background(), thumbnailTimeout)
		defer cancel()

		thumb, err := e.thumbs.Resolve(fetchCtx, linkURL)
		if err != nil || thumb == "" {
			if err != nil {
				e.logger.Debug("thumbnail extraction failed",
					"url", linkURL,
					"error", err.Error())
			}
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		session, ok := e.sessions[principal.Username]
		if !ok || session.version != startVersion {
			// The draft this fetch was started for is gone; drop the result.
			return
		}
		for i := range session.draft.Links {
			if session.draft.Links[i].ID == linkID {
				session.draft.Links[i].CustomIconURL = thumb
				session.draft.Links[i].Icon = ""
				session.dirty = true
				break
			}
		}
	}()

	return nil
}
