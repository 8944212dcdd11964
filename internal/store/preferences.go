package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/pavelanni/quizforge/internal/model"
)

const (
	keyTheme      = "theme"
	keyFont       = "font"
	keyColorCombo = "colorCombo"
	keyAnimations = "animations"
	keyCardStyle  = "cardStyle"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// setValue upserts a key-value pair in the preferences table.
func setValue(exec execer, key, value string) error {
	_, err := exec.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// SetValue stores a single raw preference value.
func (s *Store) SetValue(key, value string) error {
	return setValue(s.db, key, value)
}

// GetValue returns the raw value for a preference key.
// Returns empty string and false if the key is missing.
func (s *Store) GetValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// LoadPreferences reads the stored preferences. Missing keys and values that
// are no longer allowed fall back to the defaults.
func (s *Store) LoadPreferences() (model.Preferences, error) {
	p := model.DefaultPreferences()

	choices := []struct {
		key     string
		dst     *string
		allowed []string
	}{
		{keyTheme, &p.Theme, model.Themes},
		{keyFont, &p.Font, model.Fonts},
		{keyColorCombo, &p.ColorCombo, model.ColorCombos},
		{keyCardStyle, &p.CardStyle, model.CardStyles},
	}
	for _, c := range choices {
		v, ok, err := s.GetValue(c.key)
		if err != nil {
			return p, fmt.Errorf("load %s: %w", c.key, err)
		}
		if !ok {
			continue
		}
		if !slices.Contains(c.allowed, v) {
			slog.Warn("ignoring stored preference", "key", c.key, "value", v)
			continue
		}
		*c.dst = v
	}

	v, ok, err := s.GetValue(keyAnimations)
	if err != nil {
		return p, fmt.Errorf("load %s: %w", keyAnimations, err)
	}
	if ok {
		if b, err := strconv.ParseBool(v); err == nil {
			p.Animations = b
		} else {
			slog.Warn("ignoring stored preference", "key", keyAnimations, "value", v)
		}
	}
	return p, nil
}

// SavePreferences validates p and stores every key in one transaction.
func (s *Store) SavePreferences(p model.Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pairs := []struct{ k, v string }{
		{keyTheme, p.Theme},
		{keyFont, p.Font},
		{keyColorCombo, p.ColorCombo},
		{keyAnimations, strconv.FormatBool(p.Animations)},
		{keyCardStyle, p.CardStyle},
	}
	for _, pair := range pairs {
		if err := setValue(tx, pair.k, pair.v); err != nil {
			return fmt.Errorf("save %s: %w", pair.k, err)
		}
	}
	return tx.Commit()
}
