package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	fetchTimeout  = 10 * time.Second
	maxBodyBytes  = 2 << 20
	pinterestAPI  = "https://www.pinterest.com/oembed.json?url=%s"
	thumbUpscaler = "/originals/"
)

var pinterestThumbRe = regexp.MustCompile(`/150x150/|/236x/`)

// ThumbnailResolver extracts a direct image URL for a pasted link.
type ThumbnailResolver struct {
	client *http.Client
}

// NewThumbnailResolver creates a resolver with a bounded HTTP client.
func NewThumbnailResolver() *ThumbnailResolver {
	return &ThumbnailResolver{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Resolve returns a thumbnail URL for the given link, or empty when none
// could be extracted. Pinterest pins go through the oEmbed endpoint; any
// other page falls back to its og:image meta tag.
func (r *ThumbnailResolver) Resolve(ctx context.Context, link string) (string, error) {
	if strings.Contains(link, "pinterest.com/pin/") || strings.Contains(link, "pin.it/") {
		return r.resolvePinterest(ctx, link)
	}
	return r.resolveOpenGraph(ctx, link)
}

func (r *ThumbnailResolver) resolvePinterest(ctx context.Context, link string) (string, error) {
	endpoint := fmt.Sprintf(pinterestAPI, url.QueryEscape(link))
	body, err := r.fetch(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var oembed struct {
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(body, &oembed); err != nil {
		return "", fmt.Errorf("failed to decode oembed response: %w", err)
	}
	if oembed.ThumbnailURL == "" {
		return "", nil
	}

	// Swap the small thumbnail path segment for the full-size original.
	return pinterestThumbRe.ReplaceAllString(oembed.ThumbnailURL, thumbUpscaler), nil
}

func (r *ThumbnailResolver) resolveOpenGraph(ctx context.Context, link string) (string, error) {
	body, err := r.fetch(ctx, link)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	return findOGImage(doc), nil
}

func (r *ThumbnailResolver) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func findOGImage(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var property, content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "property", "name":
				property = attr.Val
			case "content":
				content = attr.Val
			}
		}
		if property == "og:image" && content != "" {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findOGImage(c); found != "" {
			return found
		}
	}
	return ""
}
