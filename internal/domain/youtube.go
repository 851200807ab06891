package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// youtubeIDPattern matches the 11-character ids YouTube assigns to videos.
var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// WatchURL returns the canonical watch page for a YouTube id.
func WatchURL(youtubeID string) string {
	return "https://www.youtube.com/watch?v=" + youtubeID
}

// ThumbnailURL returns the medium-quality thumbnail for a YouTube id.
func ThumbnailURL(youtubeID string) string {
	return "https://img.youtube.com/vi/" + youtubeID + "/mqdefault.jpg"
}

// ParseYouTubeID extracts a video id from a bare id or a YouTube URL.
// Supported forms: watch?v=, youtu.be/, /embed/, /shorts/ and /live/.
func ParseYouTubeID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if youtubeIDPattern.MatchString(raw) {
		return raw, true
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var candidate string
	switch host {
	case "youtu.be":
		candidate = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			candidate = u.Query().Get("v")
			break
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				candidate, _, _ = strings.Cut(rest, "/")
				break
			}
		}
	default:
		return "", false
	}

	if !youtubeIDPattern.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}
