package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pdf-compressor-go/internal/preset"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrInvalidTheme is returned by SetTheme for an unsupported theme name.
var ErrInvalidTheme = errors.New("invalid theme")

const preferencesID = 1

// Store persists user preferences and recent files in SQLite.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
	mutex  sync.Mutex
}

// Open opens (creating if needed) the preferences database at dbPath.
func Open(dbPath string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	if err := db.AutoMigrate(&UserPreferences{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.WithField("operation", "settings").Debugf("Opened preferences database %s", dbPath)
	return &Store{db: db, logger: log}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the current preferences.
func (s *Store) Get() (Preferences, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row, err := s.getOrCreate()
	if err != nil {
		return Preferences{}, err
	}
	return row.GetPreferences(), nil
}

// SetTheme stores the theme choice.
func (s *Store) SetTheme(theme string) error {
	if !ValidTheme(theme) {
		return fmt.Errorf("%w: %q (valid: %s, %s, %s)", ErrInvalidTheme, theme, ThemeSystem, ThemeDark, ThemeLight)
	}
	return s.update(func(p *Preferences) { p.Theme = theme })
}

// SetDefaultLevel stores the preselected compression level.
func (s *Store) SetDefaultLevel(name string) error {
	level, err := preset.Lookup(name)
	if err != nil {
		return err
	}
	return s.update(func(p *Preferences) { p.DefaultLevel = level.Label })
}

// SetOutputDirectory stores the last used output directory.
func (s *Store) SetOutputDirectory(dir string) error {
	return s.update(func(p *Preferences) { p.OutputDirectory = dir })
}

// RecentFiles returns the recent input files, most recent first.
func (s *Store) RecentFiles() ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row, err := s.getOrCreate()
	if err != nil {
		return nil, err
	}
	return row.GetRecentFiles(), nil
}

// AddRecentFiles records a selection in the recent files list.
func (s *Store) AddRecentFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	row, err := s.getOrCreate()
	if err != nil {
		return err
	}
	if err := row.SetRecentFiles(pushRecent(row.GetRecentFiles(), paths)); err != nil {
		return err
	}
	return s.db.Save(row).Error
}

// ClearRecentFiles empties the recent files list.
func (s *Store) ClearRecentFiles() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row, err := s.getOrCreate()
	if err != nil {
		return err
	}
	if err := row.SetRecentFiles(nil); err != nil {
		return err
	}
	return s.db.Save(row).Error
}

// ValidTheme reports whether theme is one of the supported themes.
func ValidTheme(theme string) bool {
	switch theme {
	case ThemeSystem, ThemeDark, ThemeLight:
		return true
	}
	return false
}

func (s *Store) update(apply func(*Preferences)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row, err := s.getOrCreate()
	if err != nil {
		return err
	}
	prefs := row.GetPreferences()
	apply(&prefs)
	if err := row.SetPreferences(prefs); err != nil {
		return err
	}
	return s.db.Save(row).Error
}

// getOrCreate loads the preferences row, creating it with defaults on first use.
func (s *Store) getOrCreate() (*UserPreferences, error) {
	var row UserPreferences

	result := s.db.First(&row, preferencesID)
	if result.Error == nil {
		return &row, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	row = UserPreferences{ID: preferencesID}
	if err := row.SetPreferences(DefaultPreferences()); err != nil {
		return nil, err
	}
	if err := row.SetRecentFiles(nil); err != nil {
		return nil, err
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	s.logger.WithField("operation", "settings").Debug("Created default preferences")
	return &row, nil
}
