package theme

// Builtin link icon IDs selectable in the editor. A link's icon field holds
// one of these or is empty; a custom icon URL overrides it.
var iconIDs = []string{
	"globe", "link", "layout", "star", "heart",
	"zap", "coffee", "mail", "phone", "mapPin",
	"github", "twitter", "instagram", "linkedin",
	"youtube", "facebook", "twitch",
	"music", "video", "image", "file", "shop",
	"work", "code", "terminal", "cpu",
	"snapchat", "discord", "reddit", "tiktok",
	"pinterest", "spotify", "whatsapp", "telegram",
}

var iconSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(iconIDs))
	for _, id := range iconIDs {
		m[id] = struct{}{}
	}
	return m
}()

// IconIDs returns the builtin icon IDs in picker order.
func IconIDs() []string {
	out := make([]string, len(iconIDs))
	copy(out, iconIDs)
	return out
}

// ValidIcon reports whether id names a builtin icon. The empty string is
// valid and means no icon.
func ValidIcon(id string) bool {
	if id == "" {
		return true
	}
	_, ok := iconSet[id]
	return ok
}

// BrandColor returns the brand accent for a social platform, used for icon
// tinting on the public page. Unknown platforms get the empty string and
// inherit the theme accent.
func BrandColor(platform string) string {
	return brandColors[platform]
}

var brandColors = map[string]string{
	"instagram": "linear-gradient(45deg, #f09433 0%, #e6683c 25%, #dc2743 50%, #cc2366 75%, #bc1888 100%)",
	"twitter":   "#1DA1F2",
	"github":    "#333",
	"linkedin":  "#0077b5",
	"youtube":   "#FF0000",
	"facebook":  "#1877F2",
	"twitch":    "#9146FF",
	"spotify":   "#1DB954",
	"snapchat":  "#FFFC00",
	"discord":   "#5865F2",
	"reddit":    "#FF4500",
	"tiktok":    "#000000",
	"pinterest": "#BD081C",
	"whatsapp":  "#25D366",
	"telegram":  "#0088cc",
	"mail":      "#EA4335",
}
