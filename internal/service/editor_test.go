package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/testutil"
)

// MockProfileStore mocks the ProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Get(ctx context.Context, username string) (model.ProfileRecord, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.ProfileRecord), args.Error(1)
}

func (m *MockProfileStore) Save(ctx context.Context, username string, record model.ProfileRecord) error {
	args := m.Called(ctx, username, record)
	return args.Error(0)
}

func (m *MockProfileStore) IncrementView(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockProfileStore) IncrementClick(ctx context.Context, username string, linkID string) error {
	args := m.Called(ctx, username, linkID)
	return args.Error(0)
}

// MockMediaStore mocks the MediaStore interface
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	args := m.Called(ctx, key, reader, contentType)
	return args.Error(0)
}

func (m *MockMediaStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// PublicURL is deterministic so tests can derive URLs from uploaded keys.
func (m *MockMediaStore) PublicURL(key string) string {
	return "https://media.example.com/" + key
}

// MockThumbnailResolver mocks the ThumbnailResolver interface
type MockThumbnailResolver struct {
	mock.Mock
}

func (m *MockThumbnailResolver) Resolve(ctx context.Context, link string) (string, error) {
	args := m.Called(ctx, link)
	return args.String(0), args.Error(1)
}

func newTestEditor(profiles *MockProfileStore, media *MockMediaStore, thumbs *MockThumbnailResolver) *Editor {
	return NewEditor(profiles, media, thumbs, testutil.MakeNoopLogger())
}

var alice = model.Principal{UserID: uuid.New(), Username: "alice"}

func storedRecord() model.ProfileRecord {
	record := model.DefaultRecord("alice")
	record.Profile.DisplayName = "Alice"
	record.Links = []model.Link{
		{ID: "l1", Title: "Blog", URL: "https://example.com", Active: true},
		{ID: "l2", Title: "Shop", URL: "https://example.com/shop", Active: true},
	}
	return record
}

func TestEditor_Load(t *testing.T) {
	t.Run("existing record", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		state, err := editor.Load(context.Background(), alice)
		require.NoError(t, err)

		assert.Equal(t, "Alice", state.Record.Profile.DisplayName)
		assert.False(t, state.HasUnsavedChanges)
		profiles.AssertExpectations(t)
	})

	t.Run("missing record synthesizes defaults", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(model.ProfileRecord{}, model.ErrNotFound)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		state, err := editor.Load(context.Background(), alice)
		require.NoError(t, err)

		assert.Equal(t, "alice", state.Record.Profile.Username)
		assert.Empty(t, state.Record.Links)
		assert.False(t, state.HasUnsavedChanges)
	})

	t.Run("storage failure degrades to defaults", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(model.ProfileRecord{}, errors.New("connection refused"))
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		state, err := editor.Load(context.Background(), alice)
		require.NoError(t, err)
		assert.Equal(t, "alice", state.Record.Profile.Username)
	})

	t.Run("reload resets pending edits", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		name := "Changed"
		_, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{DisplayName: &name})
		require.NoError(t, err)

		state, err := editor.Load(context.Background(), alice)
		require.NoError(t, err)
		assert.Equal(t, "Alice", state.Record.Profile.DisplayName)
		assert.False(t, state.HasUnsavedChanges)
	})
}

func TestEditor_UpdateProfile(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	bio := "Hello there"
	state, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{Bio: &bio})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", state.Record.Profile.Bio)
	assert.Equal(t, "Alice", state.Record.Profile.DisplayName, "untouched fields keep their values")
	assert.True(t, state.HasUnsavedChanges)
}

func TestEditor_UpdateSocial(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	url := "https://github.com/alice"
	active := true
	state, err := editor.UpdateSocial(context.Background(), alice, "github", SocialUpdate{URL: &url, Active: &active})
	require.NoError(t, err)

	var found model.Social
	for _, s := range state.Record.Profile.Socials {
		if s.ID == "github" {
			found = s
		}
	}
	assert.Equal(t, url, found.URL)
	assert.True(t, found.Active)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		state, err := editor.UpdateSocial(context.Background(), alice, "myspace", SocialUpdate{URL: &url})
		require.NoError(t, err)
		assert.Len(t, state.Record.Profile.Socials, 7)
	})
}

func TestEditor_AddLink(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	t.Run("prepends active link with fresh id", func(t *testing.T) {
		state, err := editor.AddLink(context.Background(), alice, LinkInput{Title: "New", URL: "https://new.example.com"})
		require.NoError(t, err)

		require.Len(t, state.Record.Links, 3)
		added := state.Record.Links[0]
		assert.Equal(t, "New", added.Title)
		assert.True(t, added.Active)
		assert.NotEmpty(t, added.ID)
		assert.NotEqual(t, "l1", added.ID)
		assert.NotEqual(t, "l2", added.ID)
	})

	t.Run("title required", func(t *testing.T) {
		_, err := editor.AddLink(context.Background(), alice, LinkInput{URL: "https://x.example.com"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "title", validationErr.Field)
	})

	t.Run("url required", func(t *testing.T) {
		_, err := editor.AddLink(context.Background(), alice, LinkInput{Title: "X"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "url", validationErr.Field)
	})

	t.Run("unknown icon rejected", func(t *testing.T) {
		_, err := editor.AddLink(context.Background(), alice, LinkInput{Title: "X", URL: "https://x.example.com", Icon: "nonsense"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "icon", validationErr.Field)
	})

	t.Run("custom icon wins over builtin", func(t *testing.T) {
		state, err := editor.AddLink(context.Background(), alice, LinkInput{
			Title: "X", URL: "https://x.example.com", Icon: "github", CustomIconURL: "https://cdn.example.com/icon.png",
		})
		require.NoError(t, err)
		assert.Empty(t, state.Record.Links[0].Icon)
		assert.Equal(t, "https://cdn.example.com/icon.png", state.Record.Links[0].CustomIconURL)
	})
}

func TestEditor_UpdateLink(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	t.Run("partial update", func(t *testing.T) {
		title := "Renamed"
		state, err := editor.UpdateLink(context.Background(), alice, "l1", LinkUpdate{Title: &title})
		require.NoError(t, err)

		assert.Equal(t, "Renamed", state.Record.Links[0].Title)
		assert.Equal(t, "https://example.com", state.Record.Links[0].URL)
	})

	t.Run("builtin icon clears custom", func(t *testing.T) {
		custom := "https://cdn.example.com/x.png"
		_, err := editor.UpdateLink(context.Background(), alice, "l1", LinkUpdate{CustomIconURL: &custom})
		require.NoError(t, err)

		icon := "github"
		state, err := editor.UpdateLink(context.Background(), alice, "l1", LinkUpdate{Icon: &icon})
		require.NoError(t, err)

		assert.Equal(t, "github", state.Record.Links[0].Icon)
		assert.Empty(t, state.Record.Links[0].CustomIconURL)
	})

	t.Run("custom icon clears builtin", func(t *testing.T) {
		custom := "https://cdn.example.com/y.png"
		state, err := editor.UpdateLink(context.Background(), alice, "l1", LinkUpdate{CustomIconURL: &custom})
		require.NoError(t, err)

		assert.Empty(t, state.Record.Links[0].Icon)
		assert.Equal(t, custom, state.Record.Links[0].CustomIconURL)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		title := "Ghost"
		state, err := editor.UpdateLink(context.Background(), alice, "missing", LinkUpdate{Title: &title})
		require.NoError(t, err)
		for _, link := range state.Record.Links {
			assert.NotEqual(t, "Ghost", link.Title)
		}
	})
}

func TestEditor_DeleteLink(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	state, err := editor.DeleteLink(context.Background(), alice, "l1")
	require.NoError(t, err)

	require.Len(t, state.Record.Links, 1)
	assert.Equal(t, "l2", state.Record.Links[0].ID)
}

func TestEditor_ReorderLinks(t *testing.T) {
	newEditorWithLinks := func() *Editor {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		return newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})
	}

	t.Run("valid permutation", func(t *testing.T) {
		editor := newEditorWithLinks()
		state, err := editor.ReorderLinks(context.Background(), alice, []string{"l2", "l1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"l2", "l1"}, state.Record.LinkIDs())
	})

	t.Run("missing id rejected", func(t *testing.T) {
		editor := newEditorWithLinks()
		_, err := editor.ReorderLinks(context.Background(), alice, []string{"l2"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("unknown id rejected", func(t *testing.T) {
		editor := newEditorWithLinks()
		_, err := editor.ReorderLinks(context.Background(), alice, []string{"l2", "ghost"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		editor := newEditorWithLinks()
		_, err := editor.ReorderLinks(context.Background(), alice, []string{"l2", "l2"})
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejected reorder leaves draft untouched", func(t *testing.T) {
		editor := newEditorWithLinks()
		_, err := editor.ReorderLinks(context.Background(), alice, []string{"l2", "ghost"})
		require.Error(t, err)

		state, err := editor.Load(context.Background(), alice)
		require.NoError(t, err)
		assert.Equal(t, []string{"l1", "l2"}, state.Record.LinkIDs())
	})
}

func TestEditor_Save(t *testing.T) {
	t.Run("promotes draft to published", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		profiles.On("Save", mock.Anything, "alice", mock.MatchedBy(func(r model.ProfileRecord) bool {
			return r.Profile.Bio == "Updated" && r.Profile.Username == "alice"
		})).Return(nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		bio := "Updated"
		_, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{Bio: &bio})
		require.NoError(t, err)

		state, err := editor.Save(context.Background(), alice)
		require.NoError(t, err)
		assert.False(t, state.HasUnsavedChanges)
		profiles.AssertExpectations(t)

		blob, err := editor.Export(context.Background(), alice)
		require.NoError(t, err)
		assert.Contains(t, string(blob), "Updated")
	})

	t.Run("failed write keeps dirty flag", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		profiles.On("Save", mock.Anything, "alice", mock.Anything).Return(errors.New("disk full"))
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		bio := "Updated"
		_, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{Bio: &bio})
		require.NoError(t, err)

		state, err := editor.Save(context.Background(), alice)
		require.Error(t, err)
		assert.True(t, state.HasUnsavedChanges)
	})

	t.Run("username cannot be edited away", func(t *testing.T) {
		profiles := &MockProfileStore{}
		record := storedRecord()
		record.Profile.Username = "mallory"
		profiles.On("Get", mock.Anything, "alice").Return(record, nil)
		profiles.On("Save", mock.Anything, "alice", mock.MatchedBy(func(r model.ProfileRecord) bool {
			return r.Profile.Username == "alice"
		})).Return(nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		_, err := editor.Save(context.Background(), alice)
		require.NoError(t, err)
		profiles.AssertExpectations(t)
	})
}

func TestEditor_Discard(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	bio := "Unsaved"
	_, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{Bio: &bio})
	require.NoError(t, err)

	t.Run("requires confirmation", func(t *testing.T) {
		_, err := editor.Discard(context.Background(), alice, false)
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "confirm", validationErr.Field)
	})

	t.Run("rolls back to published", func(t *testing.T) {
		state, err := editor.Discard(context.Background(), alice, true)
		require.NoError(t, err)

		assert.Empty(t, state.Record.Profile.Bio)
		assert.False(t, state.HasUnsavedChanges)
	})
}

func TestEditor_CompleteOnboarding(t *testing.T) {
	profiles := &MockProfileStore{}
	profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
	profiles.On("Save", mock.Anything, "alice", mock.MatchedBy(func(r model.ProfileRecord) bool {
		return r.Profile.OnboardingCompleted && r.Profile.DisplayName == "Alice Q"
	})).Return(nil)
	editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

	name := "Alice Q"
	state, err := editor.CompleteOnboarding(context.Background(), alice, ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)

	assert.True(t, state.Record.Profile.OnboardingCompleted)
	assert.False(t, state.HasUnsavedChanges)
	profiles.AssertExpectations(t)
}

func TestEditor_Import(t *testing.T) {
	t.Run("invalid blob rejected", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		_, err := editor.Import(context.Background(), alice, []byte("not json"))
		var validationErr *model.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("imported record normalized and saved", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		profiles.On("Save", mock.Anything, "alice", mock.MatchedBy(func(r model.ProfileRecord) bool {
			return r.Profile.Username == "alice" && r.Profile.DisplayName == "Imported"
		})).Return(nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		blob := []byte(`{"profile":{"username":"other","displayName":"Imported"}}`)
		state, err := editor.Import(context.Background(), alice, blob)
		require.NoError(t, err)

		assert.Equal(t, "alice", state.Record.Profile.Username)
		assert.Equal(t, "jakarta", state.Record.Profile.Theme.Font)
		profiles.AssertExpectations(t)
	})
}

func TestEditor_UploadImage(t *testing.T) {
	// Not a decodable image; compression falls back to storing the original.
	data := []byte("raw-bytes")

	t.Run("avatar target", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)

		var key string
		media := &MockMediaStore{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/png").
			Run(func(args mock.Arguments) { key = args.String(1) }).
			Return(nil)
		editor := newTestEditor(profiles, media, &MockThumbnailResolver{})

		state, err := editor.UploadImage(context.Background(), alice, data, "image/png", "")
		require.NoError(t, err)

		assert.Equal(t, "https://media.example.com/"+key, state.Record.Profile.AvatarURL)
		assert.True(t, state.HasUnsavedChanges)
	})

	t.Run("background target", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)

		var key string
		media := &MockMediaStore{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/png").
			Run(func(args mock.Arguments) { key = args.String(1) }).
			Return(nil)
		editor := newTestEditor(profiles, media, &MockThumbnailResolver{})

		state, err := editor.UploadImage(context.Background(), alice, data, "image/png", "background")
		require.NoError(t, err)

		assert.Equal(t, "https://media.example.com/"+key, state.Record.Profile.Theme.BackgroundImage)
		assert.Equal(t, "image", state.Record.Profile.Theme.BackgroundStyle)
	})

	t.Run("replacing an unsaved upload deletes the old object", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)

		var keys []string
		media := &MockMediaStore{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { keys = append(keys, args.String(1)) }).
			Return(nil)
		editor := newTestEditor(profiles, media, &MockThumbnailResolver{})

		_, err := editor.UploadImage(context.Background(), alice, data, "image/png", "")
		require.NoError(t, err)

		media.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
			return len(keys) > 0 && key == keys[0]
		})).Return(nil).Once()

		_, err = editor.UploadImage(context.Background(), alice, data, "image/png", "")
		require.NoError(t, err)
		media.AssertExpectations(t)
	})

	t.Run("image still referenced by the published record survives", func(t *testing.T) {
		record := storedRecord()
		record.Profile.AvatarURL = "https://media.example.com/alice/current"
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(record, nil)
		media := &MockMediaStore{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		editor := newTestEditor(profiles, media, &MockThumbnailResolver{})

		_, err := editor.UploadImage(context.Background(), alice, data, "image/png", "")
		require.NoError(t, err)

		media.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("foreign avatar url is left alone", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		media := &MockMediaStore{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		editor := newTestEditor(profiles, media, &MockThumbnailResolver{})

		generated := "https://ui-avatars.com/api/?name=Alice"
		_, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{AvatarURL: &generated})
		require.NoError(t, err)

		_, err = editor.UploadImage(context.Background(), alice, data, "image/png", "")
		require.NoError(t, err)

		media.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		profiles := &MockProfileStore{}
		media := &MockMediaStore{}
		media.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))
		editor := newTestEditor(profiles, media, &MockThumbnailResolver{})

		_, err := editor.UploadImage(context.Background(), alice, data, "image/png", "")
		require.Error(t, err)
	})
}

func TestEditor_ResolveLinkThumbnail(t *testing.T) {
	t.Run("applies result to live draft", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		thumbs := &MockThumbnailResolver{}
		thumbs.On("Resolve", mock.Anything, "https://example.com").Return("https://cdn.example.com/thumb.jpg", nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, thumbs)

		require.NoError(t, editor.ResolveLinkThumbnail(context.Background(), alice, "l1"))

		require.Eventually(t, func() bool {
			state, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{})
			if err != nil {
				return false
			}
			for _, link := range state.Record.Links {
				if link.ID == "l1" {
					return link.CustomIconURL == "https://cdn.example.com/thumb.jpg" && link.Icon == ""
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("unknown link id", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, &MockThumbnailResolver{})

		err := editor.ResolveLinkThumbnail(context.Background(), alice, "ghost")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("stale result dropped after discard", func(t *testing.T) {
		profiles := &MockProfileStore{}
		profiles.On("Get", mock.Anything, "alice").Return(storedRecord(), nil)

		resolved := make(chan struct{})
		thumbs := &MockThumbnailResolver{}
		thumbs.On("Resolve", mock.Anything, "https://example.com").
			Run(func(args mock.Arguments) { <-resolved }).
			Return("https://cdn.example.com/late.jpg", nil)
		editor := newTestEditor(profiles, &MockMediaStore{}, thumbs)

		require.NoError(t, editor.ResolveLinkThumbnail(context.Background(), alice, "l1"))

		// Invalidate the draft generation before the fetch completes.
		_, err := editor.Discard(context.Background(), alice, true)
		require.NoError(t, err)
		close(resolved)

		assert.Never(t, func() bool {
			state, err := editor.UpdateProfile(context.Background(), alice, ProfileUpdate{})
			if err != nil {
				return false
			}
			for _, link := range state.Record.Links {
				if link.CustomIconURL == "https://cdn.example.com/late.jpg" {
					return true
				}
			}
			return false
		}, 200*time.Millisecond, 20*time.Millisecond)
	})
}
