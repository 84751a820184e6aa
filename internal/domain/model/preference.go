package model

import "time"

// Theme values accepted by the GUI.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preference holds one flat string flag ("theme", "last_preset") persisted
// across sessions.
type Preference struct {
	Name      string
	Value     string
	UpdatedAt time.Time
}

// ValidTheme reports whether v is an accepted theme flag value.
func ValidTheme(v string) bool {
	return v == ThemeLight || v == ThemeDark
}
