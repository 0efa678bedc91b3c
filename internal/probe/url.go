package probe

import "strings"

var urlHints = []string{".com", ".org", ".net", ".io", ".app", ".dev"}

// IsBrowser reports whether appName looks like a web browser, by
// case-insensitive substring match against browsers.
func IsBrowser(appName string, browsers []string) bool {
	name := strings.ToLower(appName)
	for _, b := range browsers {
		if b != "" && strings.Contains(name, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

// ExtractURL guesses the page URL of a browser window from its title.
// It returns "" for non-browsers and when nothing in the title looks like
// a URL.
func ExtractURL(appName, title string, browsers []string) string {
	if !IsBrowser(appName, browsers) {
		return ""
	}

	if strings.HasPrefix(title, "http://") || strings.HasPrefix(title, "https://") {
		if i := strings.IndexByte(title, ' '); i >= 0 {
			return title[:i]
		}
		return title
	}

	i := strings.Index(title, " - ")
	if i < 0 {
		return ""
	}
	candidate := strings.TrimSpace(title[:i])
	if strings.HasPrefix(candidate, "http") || strings.Contains(candidate, "www.") {
		return candidate
	}
	for _, hint := range urlHints {
		if strings.Contains(candidate, hint) {
			return candidate
		}
	}
	return ""
}
