package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.Equal(t, "bob_1", NormalizeUsername("BOB_1"))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid lowercase", username: "alice"},
		{name: "digits dash underscore", username: "a-b_c42"},
		{name: "empty", username: "", wantErr: true},
		{name: "uppercase rejected", username: "Alice", wantErr: true},
		{name: "space rejected", username: "a b", wantErr: true},
		{name: "dot rejected", username: "a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "username", validationErr.Field)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDefaultRecord(t *testing.T) {
	record := DefaultRecord("Alice")

	assert.Equal(t, "alice", record.Profile.Username)
	assert.Equal(t, "alice", record.Profile.DisplayName)
	assert.False(t, record.Profile.OnboardingCompleted)
	assert.Equal(t, "jakarta", record.Profile.Theme.Font)
	assert.Equal(t, "aurora", record.Profile.Theme.Preset)
	assert.Len(t, record.Profile.Socials, 7)
	assert.Empty(t, record.Links)
	assert.NotNil(t, record.Stats.LinkClicks)
}

func TestStarterRecord(t *testing.T) {
	t.Run("without portfolio", func(t *testing.T) {
		record := StarterRecord("alice", "Alice A", "", sequentialIDs())

		assert.Equal(t, "Alice A", record.Profile.DisplayName)
		assert.True(t, record.Profile.OnboardingCompleted)
		assert.NotEmpty(t, record.Profile.AvatarURL)
		require.Len(t, record.Links, 3)
		assert.Equal(t, "My Blog", record.Links[0].Title)
		for _, link := range record.Links {
			assert.True(t, link.Active)
			assert.NotEmpty(t, link.ID)
		}
	})

	t.Run("portfolio prepended", func(t *testing.T) {
		record := StarterRecord("alice", "", "https://alice.dev", sequentialIDs())

		require.Len(t, record.Links, 4)
		assert.Equal(t, "Portfolio", record.Links[0].Title)
		assert.Equal(t, "https://alice.dev", record.Links[0].URL)
	})

	t.Run("display name defaults to username", func(t *testing.T) {
		record := StarterRecord("alice", "", "", sequentialIDs())
		assert.Equal(t, "alice", record.Profile.DisplayName)
	})

	t.Run("link ids are unique", func(t *testing.T) {
		record := StarterRecord("alice", "", "https://alice.dev", sequentialIDs())
		seen := map[string]bool{}
		for _, link := range record.Links {
			assert.False(t, seen[link.ID])
			seen[link.ID] = true
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("empty record gets defaults", func(t *testing.T) {
		record := Normalize(ProfileRecord{}, "alice")

		assert.Equal(t, "alice", record.Profile.Username)
		assert.Equal(t, "alice", record.Profile.DisplayName)
		assert.Equal(t, "jakarta", record.Profile.Theme.Font)
		assert.Len(t, record.Profile.Socials, 7)
		assert.NotNil(t, record.Links)
		assert.NotNil(t, record.Stats.LinkClicks)
	})

	t.Run("username forced to storage key", func(t *testing.T) {
		record := Normalize(ProfileRecord{
			Profile: Profile{Username: "mallory", DisplayName: "Mallory"},
		}, "alice")

		assert.Equal(t, "alice", record.Profile.Username)
		assert.Equal(t, "Mallory", record.Profile.DisplayName)
	})

	t.Run("missing font backfilled", func(t *testing.T) {
		record := Normalize(ProfileRecord{
			Profile: Profile{
				Username: "alice",
				Theme:    Theme{Mode: "dark", AccentColor: "#000"},
			},
		}, "alice")

		assert.Equal(t, "jakarta", record.Profile.Theme.Font)
		assert.Equal(t, "dark", record.Profile.Theme.Mode)
	})

	t.Run("existing data preserved", func(t *testing.T) {
		in := ProfileRecord{
			Profile: Profile{
				Username:    "alice",
				DisplayName: "Alice",
				Socials:     []Social{{ID: "github", Platform: "github", URL: "https://github.com/alice", Active: true}},
			},
			Links: []Link{{ID: "l1", Title: "Blog", URL: "https://example.com", Active: true}},
			Stats: Stats{Views: 7, LinkClicks: map[string]int64{"l1": 2}},
		}

		record := Normalize(in, "alice")

		assert.Equal(t, in.Links, record.Links)
		assert.Equal(t, in.Profile.Socials, record.Profile.Socials)
		assert.Equal(t, int64(7), record.Stats.Views)
	})
}

func TestProfileRecord_Clone(t *testing.T) {
	original := StarterRecord("alice", "", "", sequentialIDs())
	original.Stats.LinkClicks["id-1"] = 3

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Links[0].Title = "changed"
	clone.Profile.Socials[0].URL = "changed"
	clone.Stats.LinkClicks["id-1"] = 99

	assert.Equal(t, "My Blog", original.Links[0].Title)
	assert.Empty(t, original.Profile.Socials[0].URL)
	assert.Equal(t, int64(3), original.Stats.LinkClicks["id-1"])
}

func TestProfileRecord_LinkIDs(t *testing.T) {
	record := ProfileRecord{Links: []Link{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	assert.Equal(t, []string{"a", "b", "c"}, record.LinkIDs())
}
