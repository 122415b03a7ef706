package settings

import (
	"encoding/json"
	"time"

	"pdf-compressor-go/internal/preset"
)

// MaxRecentFiles bounds the recent input files list.
const MaxRecentFiles = 10

// Themes accepted by SetTheme.
const (
	ThemeSystem = "System"
	ThemeDark   = "Dark"
	ThemeLight  = "Light"
)

// UserPreferences is the single database row holding all preferences as JSON text.
type UserPreferences struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PreferencesJSON string    `gorm:"type:text" json:"preferences_json"`
	RecentFilesJSON string    `gorm:"type:text" json:"recent_files_json"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Preferences is the structured preferences data.
type Preferences struct {
	Theme           string `json:"theme"`
	DefaultLevel    string `json:"default_level"`
	OutputDirectory string `json:"output_directory"`
}

// DefaultPreferences returns default preference values.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        ThemeSystem,
		DefaultLevel: preset.DefaultLevel,
	}
}

// GetPreferences parses the stored preferences, falling back to defaults
// for an empty or unreadable record.
func (up *UserPreferences) GetPreferences() Preferences {
	if up.PreferencesJSON == "" {
		return DefaultPreferences()
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal([]byte(up.PreferencesJSON), &prefs); err != nil {
		return DefaultPreferences()
	}
	return prefs
}

// SetPreferences stores the preferences data.
func (up *UserPreferences) SetPreferences(prefs Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	up.PreferencesJSON = string(data)
	return nil
}

// GetRecentFiles parses the stored recent files, most recent first.
func (up *UserPreferences) GetRecentFiles() []string {
	if up.RecentFilesJSON == "" {
		return []string{}
	}

	var files []string
	if err := json.Unmarshal([]byte(up.RecentFilesJSON), &files); err != nil || files == nil {
		return []string{}
	}
	return files
}

// SetRecentFiles stores the recent files list.
func (up *UserPreferences) SetRecentFiles(files []string) error {
	if files == nil {
		files = []string{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return err
	}
	up.RecentFilesJSON = string(data)
	return nil
}

// pushRecent moves each path to the front in selection order, so the last
// selected path ends up first, and trims the list to MaxRecentFiles.
func pushRecent(recent []string, paths []string) []string {
	out := append([]string(nil), recent...)
	for _, p := range paths {
		for i, existing := range out {
			if existing == p {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
		out = append([]string{p}, out...)
	}
	if len(out) > MaxRecentFiles {
		out = out[:MaxRecentFiles]
	}
	return out
}
