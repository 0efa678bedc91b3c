package query

import "strings"

var prepositions = []string{"in", "on", "using", "with", "at"}

// AppMatcher finds an application name mentioned in a query.
type AppMatcher struct {
	// Apps are lower-case names; earlier entries win ties.
	Apps []string
}

// NewAppMatcher lower-cases apps and drops blanks.
func NewAppMatcher(apps []string) *AppMatcher {
	m := &AppMatcher{Apps: make([]string, 0, len(apps))}
	for _, a := range apps {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			m.Apps = append(m.Apps, a)
		}
	}
	return m
}

// Extract returns the first known app that follows a preposition in query,
// as in "on vscode today" or "using figma?". It returns "" when none does.
func (m *AppMatcher) Extract(query string) string {
	if m == nil {
		return ""
	}
	q := " " + strings.ToLower(query)
	for _, app := range m.Apps {
		for _, prep := range prepositions {
			stem := " " + prep + " " + app
			for _, end := range []string{" ", ".", "?"} {
				if strings.Contains(q, stem+end) {
					return app
				}
			}
		}
	}
	return ""
}
