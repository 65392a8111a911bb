package playback

import (
	"regexp"
	"strings"
)

var versionedPathPattern = regexp.MustCompile(`^(https://res\.cloudinary\.com/[^/]+/(?:video|image)/upload/)(?:[^/]+/)*?(v\d+/.+)$`)

// CanonicalAssetURL strips provider transformation segments from a delivery
// URL, keeping host, version and path. Delivery URLs may carry streaming or
// transcoding directives between /upload/ and the version segment; those
// directives occasionally make a stream undecodable, so the canonical form is
// the retry target for live measurement. Non-Cloudinary URLs pass through
// unchanged.
func CanonicalAssetURL(rawURL string) string {
	if rawURL == "" || !strings.Contains(rawURL, "cloudinary.com") {
		return rawURL
	}

	if match := versionedPathPattern.FindStringSubmatch(rawURL); match != nil {
		return match[1] + match[2]
	}

	parts := strings.SplitN(rawURL, "/upload/", 2)
	if len(parts) != 2 {
		return rawURL
	}
	segments := strings.Split(parts[1], "/")
	for i, segment := range segments {
		if isVersionSegment(segment) {
			return parts[0] + "/upload/" + strings.Join(segments[i:], "/")
		}
	}
	return rawURL
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
