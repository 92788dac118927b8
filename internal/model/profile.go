package model

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ProfileStore defines persistence operations for profile records.
// Records are keyed by normalized username; Save is a full overwrite with
// last-write-wins semantics. Counter bumps are independent of record writes.
type ProfileStore interface {
	Get(ctx context.Context, username string) (ProfileRecord, error)
	Save(ctx context.Context, username string, record ProfileRecord) error
	IncrementView(ctx context.Context, username string) error
	IncrementClick(ctx context.Context, username string, linkID string) error
}

// ProfileRecord is the full persisted state for one username.
type ProfileRecord struct {
	Profile Profile `json:"profile"`
	Links   []Link  `json:"links"`
	Stats   Stats   `json:"stats"`
}

// Profile holds the page owner's identity and presentation settings.
type Profile struct {
	Username            string        `json:"username"`
	DisplayName         string        `json:"displayName"`
	Bio                 string        `json:"bio"`
	AvatarURL           string        `json:"avatarUrl"`
	ImageSettings       ImageSettings `json:"imageSettings"`
	Theme               Theme         `json:"theme"`
	Socials             []Social      `json:"socials"`
	OnboardingCompleted bool          `json:"onboardingCompleted"`
}

// ImageSettings positions the avatar image within its frame.
type ImageSettings struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Theme selects the public page's visual treatment.
type Theme struct {
	Mode            string `json:"mode"`
	AccentColor     string `json:"accentColor"`
	Preset          string `json:"preset"`
	BackgroundStyle string `json:"backgroundStyle"`
	BackgroundColor string `json:"backgroundColor"`
	BackgroundImage string `json:"backgroundImage"`
	BgSource        string `json:"bgSource"`
	Font            string `json:"font"`
	ButtonStyle     string `json:"buttonStyle"`
}

// Social is a single social platform entry. Entries are seeded from the
// platform registry and toggled active when a URL is set.
type Social struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
}

// Link is one entry on the public page. Slice order is display order.
// Icon and CustomIconURL are not mutually exclusive in the data model;
// the editor clears one when the other is set.
type Link struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Icon          string `json:"icon,omitempty"`
	CustomIconURL string `json:"customIconUrl,omitempty"`
	Active        bool   `json:"active"`
}

// Stats holds the page counters. LinkClicks is keyed by link ID.
type Stats struct {
	Views      int64            `json:"views"`
	Clicks     int64            `json:"clicks"`
	LinkClicks map[string]int64 `json:"linkClicks"`
}

var usernameRe = regexp.MustCompile(`^[a-z0-9-_]+$`)

// NormalizeUsername lowercases a username for use as a storage key.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks that a normalized username is non-empty and
// restricted to [a-z0-9-_].
func ValidateUsername(username string) error {
	if username == "" {
		return NewValidationError("username", "username is required")
	}
	if !usernameRe.MatchString(username) {
		return NewValidationError("username", "only lowercase letters, digits, '-' and '_' are allowed")
	}
	return nil
}

// DefaultSocials returns the seeded social entries, all inactive.
func DefaultSocials() []Social {
	platforms := []string{"instagram", "twitter", "linkedin", "github", "youtube", "spotify", "website"}
	socials := make([]Social, 0, len(platforms))
	for _, p := range platforms {
		socials = append(socials, Social{ID: p, Platform: p})
	}
	return socials
}

// DefaultTheme returns the initial theme configuration.
func DefaultTheme() Theme {
	return Theme{
		Mode:            "light",
		AccentColor:     "#FF3366",
		Preset:          "aurora",
		BackgroundStyle: "color",
		BackgroundColor: "#ffffff",
		Font:            "jakarta",
		ButtonStyle:     "rounded-xl",
		BgSource:        "upload",
	}
}

// DefaultRecord synthesizes a record for a username with no stored state.
// Username and display name are pre-filled; links are empty.
func DefaultRecord(username string) ProfileRecord {
	username = NormalizeUsername(username)
	return ProfileRecord{
		Profile: Profile{
			Username:      username,
			DisplayName:   username,
			Bio:           "Welcome to my link in bio!",
			ImageSettings: ImageSettings{Scale: 1, X: 50, Y: 50},
			Theme:         DefaultTheme(),
			Socials:       DefaultSocials(),
		},
		Links: []Link{},
		Stats: Stats{LinkClicks: map[string]int64{}},
	}
}

// StarterRecord builds the profile persisted immediately on signup: a
// completed onboarding state, a generated avatar and a few friendly starter
// links. A portfolio link is prepended when a URL is provided.
func StarterRecord(username, displayName, portfolioURL string, newID func() string) ProfileRecord {
	record := DefaultRecord(username)
	if displayName != "" {
		record.Profile.DisplayName = displayName
	}
	record.Profile.OnboardingCompleted = true
	record.Profile.AvatarURL = AvatarURLFor(record.Profile.DisplayName)

	links := make([]Link, 0, 4)
	if portfolioURL != "" {
		links = append(links, Link{ID: newID(), Title: "Portfolio", URL: portfolioURL, Active: true})
	}
	links = append(links,
		Link{ID: newID(), Title: "My Blog", URL: "https://example.com", Active: true},
		Link{ID: newID(), Title: "My Work", URL: "https://example.com/work", Active: true},
		Link{ID: newID(), Title: "Contact", URL: "mailto:me@example.com", Active: true},
	)
	record.Links = links

	return record
}

// AvatarURLFor builds the generated placeholder avatar for a display name.
func AvatarURLFor(displayName string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=efefef&color=111", url.QueryEscape(displayName))
}

// Normalize heals a record loaded from storage or imported from a backup.
// Missing sections are back-filled from defaults so a load never fails; the
// username is forced to the storage key. All known legacy shapes funnel
// through here.
func Normalize(record ProfileRecord, username string) ProfileRecord {
	username = NormalizeUsername(username)
	defaults := DefaultRecord(username)

	if record.Profile.Username == "" && record.Profile.DisplayName == "" && record.Profile.Socials == nil {
		record.Profile = defaults.Profile
	}
	record.Profile.Username = username
	if record.Profile.DisplayName == "" {
		record.Profile.DisplayName = username
	}
	if record.Profile.Theme == (Theme{}) {
		record.Profile.Theme = defaults.Profile.Theme
	}
	if record.Profile.Theme.Font == "" {
		record.Profile.Theme.Font = defaults.Profile.Theme.Font
	}
	if record.Profile.ImageSettings == (ImageSettings{}) {
		record.Profile.ImageSettings = defaults.Profile.ImageSettings
	}
	if record.Profile.Socials == nil {
		record.Profile.Socials = defaults.Profile.Socials
	}
	if record.Links == nil {
		record.Links = []Link{}
	}
	if record.Stats.LinkClicks == nil {
		record.Stats.LinkClicks = map[string]int64{}
	}
	return record
}

// Clone returns a deep copy sharing no mutable structure with the receiver.
// Draft and published copies of a record must never alias each other.
func (r ProfileRecord) Clone() ProfileRecord {
	out := r
	out.Profile.Socials = append([]Social(nil), r.Profile.Socials...)
	out.Links = append([]Link(nil), r.Links...)
	out.Stats.LinkClicks = make(map[string]int64, len(r.Stats.LinkClicks))
	for id, n := range r.Stats.LinkClicks {
		out.Stats.LinkClicks[id] = n
	}
	return out
}

// LinkIDs returns the record's link IDs in display order.
func (r ProfileRecord) LinkIDs() []string {
	ids := make([]string, 0, len(r.Links))
	for _, l := range r.Links {
		ids = append(ids, l.ID)
	}
	return ids
}
