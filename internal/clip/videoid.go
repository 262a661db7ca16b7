package clip

import "regexp"

// videoIDPattern matches the v= query parameter wherever it appears in the
// URL. Deliberately permissive: the UI hands us whatever the tab reports,
// including URLs the net/url parser would reject.
var videoIDPattern = regexp.MustCompile(`[?&]v=([^&]+)`)

// VideoIDFromURL extracts the video identifier from a watch URL. The second
// return value is false when the URL carries no v= parameter; callers treat
// that as a precondition failure, not an error.
func VideoIDFromURL(url string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
