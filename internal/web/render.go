package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/ndanilin/linkpage-server/internal/model"
	"github.com/ndanilin/linkpage-server/internal/theme"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Renderer renders the public profile page and the claim page.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: templates}, nil
}

// linkView is one renderable link row.
type linkView struct {
	Title         string
	URL           string
	Icon          string
	CustomIconURL string
	EmbedURL      string
}

// socialView is one active social entry.
type socialView struct {
	Platform string
	URL      string
	Color    template.CSS
}

// profileView is the template data for the public page.
type profileView struct {
	Username        string
	DisplayName     string
	Bio             string
	AvatarURL       string
	AvatarTransform template.CSS
	FontStack       template.CSS
	AccentColor     string
	ButtonRadius    template.CSS
	BackgroundCSS   template.CSS
	DarkMode        bool
	Links           []linkView
	Socials         []socialView
}

// RenderProfile writes the public page for a record. Inactive links and
// socials are filtered out; video links render as embeds.
func (r *Renderer) RenderProfile(w io.Writer, record model.ProfileRecord) error {
	profile := record.Profile

	view := profileView{
		Username:        profile.Username,
		DisplayName:     profile.DisplayName,
		Bio:             profile.Bio,
		AvatarURL:       profile.AvatarURL,
		AvatarTransform: avatarTransform(profile.ImageSettings),
		FontStack:       template.CSS("font-family: " + theme.FontStack(profile.Theme.Font)),
		AccentColor:     profile.Theme.AccentColor,
		ButtonRadius:    template.CSS("border-radius: " + theme.ButtonRadius(profile.Theme.ButtonStyle)),
		BackgroundCSS:   backgroundCSS(profile.Theme),
		DarkMode:        profile.Theme.Mode == "dark",
	}

	for _, link := range record.Links {
		if !link.Active {
			continue
		}
		lv := linkView{
			Title:         link.Title,
			URL:           link.URL,
			Icon:          link.Icon,
			CustomIconURL: link.CustomIconURL,
		}
		if theme.IsVideoURL(link.URL) {
			lv.EmbedURL = EmbedURL(link.URL)
		}
		view.Links = append(view.Links, lv)
	}

	for _, social := range profile.Socials {
		if !social.Active || social.URL == "" {
			continue
		}
		view.Socials = append(view.Socials, socialView{
			Platform: social.Platform,
			URL:      social.URL,
			Color:    template.CSS(theme.BrandColor(social.Platform)),
		})
	}

	return r.templates.ExecuteTemplate(w, "profile.html.tmpl", view)
}

// claimView is the template data for the claim page.
type claimView struct {
	Username string
}

// RenderClaim writes the page shown when a username has no profile yet.
func (r *Renderer) RenderClaim(w io.Writer, username string) error {
	return r.templates.ExecuteTemplate(w, "claim.html.tmpl", claimView{Username: username})
}

func avatarTransform(settings model.ImageSettings) template.CSS {
	return template.CSS(fmt.Sprintf("object-position: %.0f%% %.0f%%; transform: scale(%.2f)",
		settings.X, settings.Y, settings.Scale))
}

func backgroundCSS(t model.Theme) template.CSS {
	if t.BackgroundStyle == "image" && t.BackgroundImage != "" {
		// Quotes and parens would break out of the url() literal.
		safe := strings.NewReplacer(`'`, "", `"`, "", "(", "", ")", "").Replace(t.BackgroundImage)
		return template.CSS(fmt.Sprintf("background-image: url('%s'); background-size: cover; background-position: center", safe))
	}
	color := t.BackgroundColor
	if color == "" {
		if preset, ok := theme.PresetByID(t.Preset); ok {
			color = preset.BackgroundColor
		}
	}
	if color == "" {
		color = "#ffffff"
	}
	return template.CSS("background-color: " + color)
}

// EmbedURL converts a YouTube watch or share URL into an embeddable one.
// Unrecognized shapes come back unchanged.
func EmbedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := strings.TrimPrefix(u.Host, "www.")
	switch host {
	case "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		if id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	case "youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
		if strings.HasPrefix(u.Path, "/embed/") {
			return raw
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return "https://www.youtube.com/embed/" + strings.TrimPrefix(u.Path, "/shorts/")
		}
	}
	return raw
}
