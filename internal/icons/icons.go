// Package icons maps the icon names stored on projects to a fixed set of
// glyphs the front end knows how to draw.
package icons

import "strings"

type Icon struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	// SVG path data on a 24x24 viewBox.
	Path string `json:"path"`
}

var Default = Icon{
	Name:  "folder",
	Label: "Project",
	Path:  "M3 6a2 2 0 0 1 2-2h4l2 2h8a2 2 0 0 1 2 2v10a2 2 0 0 1-2 2H5a2 2 0 0 1-2-2z",
}

var registry = map[string]Icon{}

func init() {
	for _, icon := range []Icon{
		Default,
		{Name: "code", Label: "Code", Path: "M8 6l-6 6 6 6M16 6l6 6-6 6"},
		{Name: "terminal", Label: "Terminal", Path: "M4 17l6-5-6-5M12 19h8"},
		{Name: "github", Label: "GitHub", Path: "M9 19c-5 1.5-5-2.5-7-3m14 6v-3.9a3.4 3.4 0 0 0-.9-2.6c3.1-.4 6.4-1.5 6.4-7A5.4 5.4 0 0 0 20 4.8 5 5 0 0 0 19.9 1S18.7.7 16 2.5a13.4 13.4 0 0 0-7 0C6.3.7 5.1 1 5.1 1A5 5 0 0 0 5 4.8a5.4 5.4 0 0 0-1.5 3.7c0 5.4 3.3 6.6 6.4 7A3.4 3.4 0 0 0 9 18.1V22"},
		{Name: "globe", Label: "Website", Path: "M12 2a10 10 0 1 0 0 20 10 10 0 0 0 0-20zM2 12h20M12 2a15 15 0 0 1 0 20M12 2a15 15 0 0 0 0 20"},
		{Name: "database", Label: "Database", Path: "M4 6c0-1.7 3.6-3 8-3s8 1.3 8 3-3.6 3-8 3-8-1.3-8-3zM4 6v12c0 1.7 3.6 3 8 3s8-1.3 8-3V6M4 12c0 1.7 3.6 3 8 3s8-1.3 8-3"},
		{Name: "server", Label: "Server", Path: "M3 4h18v6H3zM3 14h18v6H3zM7 7h.01M7 17h.01"},
		{Name: "book", Label: "Writing", Path: "M4 19.5A2.5 2.5 0 0 1 6.5 17H20V3H6.5A2.5 2.5 0 0 0 4 5.5zM20 17v5H6.5A2.5 2.5 0 0 1 4 19.5"},
		{Name: "pen", Label: "Editor", Path: "M12 20h9M16.5 3.5a2.1 2.1 0 0 1 3 3L7 19l-4 1 1-4z"},
		{Name: "rocket", Label: "Launch", Path: "M4.5 16.5c-1.5 1.3-2 5-2 5s3.7-.5 5-2c.7-.8.7-2.1-.1-2.9a2.2 2.2 0 0 0-2.9-.1zM12 15l-3-3a22 22 0 0 1 2-4A12.9 12.9 0 0 1 22 2c0 2.7-.8 7.5-6 11a22.4 22.4 0 0 1-4 2z"},
		{Name: "cpu", Label: "Hardware", Path: "M4 4h16v16H4zM9 9h6v6H9zM9 1v3M15 1v3M9 20v3M15 20v3M20 9h3M20 14h3M1 9h3M1 14h3"},
		{Name: "chart", Label: "Analytics", Path: "M3 3v18h18M7 15l4-4 3 3 5-6"},
		{Name: "music", Label: "Music", Path: "M9 18V5l12-2v13M9 18a3 3 0 1 1-6 0 3 3 0 0 1 6 0zM21 16a3 3 0 1 1-6 0 3 3 0 0 1 6 0z"},
		{Name: "camera", Label: "Photography", Path: "M23 19a2 2 0 0 1-2 2H3a2 2 0 0 1-2-2V8a2 2 0 0 1 2-2h4l2-3h6l2 3h4a2 2 0 0 1 2 2zM12 17a4 4 0 1 0 0-8 4 4 0 0 0 0 8z"},
		{Name: "game", Label: "Game", Path: "M6 11h4M8 9v4M15 12h.01M18 10h.01M17.3 5H6.7a4 4 0 0 0-4 3.6L2 15a3 3 0 0 0 5.2 2L9 15h6l1.8 2a3 3 0 0 0 5.2-2l-.7-6.4A4 4 0 0 0 17.3 5z"},
		{Name: "lock", Label: "Security", Path: "M5 11h14v10H5zM8 11V7a4 4 0 0 1 8 0v4"},
		{Name: "mail", Label: "Mail", Path: "M4 4h16v16H4zM4 6l8 7 8-7"},
	} {
		registry[icon.Name] = icon
	}
	alias("folder-open", "folder")
	alias("git", "github")
	alias("web", "globe")
	alias("link", "globe")
	alias("db", "database")
	alias("blog", "book")
}

func alias(name, target string) {
	registry[name] = registry[target]
}

// Resolve looks up an icon by name, case-insensitively. Unknown and empty
// names resolve to Default.
func Resolve(name string) Icon {
	key := strings.ToLower(strings.TrimSpace(name))
	if icon, ok := registry[key]; ok {
		return icon
	}
	return Default
}

// Known reports whether name resolves to something other than the default.
func Known(name string) bool {
	_, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
