package config

// DefaultKnownApps returns the application names recognized in questions
// such as "what did I do in slack". Order matters: when several apps match,
// the first one in this list wins.
func DefaultKnownApps() []string {
	return []string{
		"ghostty",
		"vscode",
		"visual studio code",
		"chrome",
		"firefox",
		"safari",
		"terminal",
		"slack",
		"discord",
		"notion",
		"figma",
	}
}

// DefaultBrowsers returns the app-name fragments that identify a web browser.
// Matching is a case-insensitive substring test against the app name.
func DefaultBrowsers() []string {
	return []string{
		"chrome",
		"firefox",
		"safari",
		"edge",
		"opera",
		"brave",
	}
}

// DefaultAppAliases maps raw process names to the names shown in recall answers.
func DefaultAppAliases() map[string]string {
	return map[string]string{
		"ghostty": "Terminal",
		"firefox": "Firefox",
	}
}
