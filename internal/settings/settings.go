// Package settings stores user preferences beside the attendance data.
package settings

import (
	"context"
	"fmt"
	"strconv"

	"attendtrack/internal/store"
)

// ThemeKey holds "true" when dark mode is on.
const ThemeKey = "darkMode"

// Preferences reads and writes preference keys in the shared store.
type Preferences struct {
	kv store.KV
}

// New creates Preferences over kv.
func New(kv store.KV) *Preferences {
	return &Preferences{kv: kv}
}

// DarkMode returns the saved theme, or fallback when nothing was saved or the
// stored value is unreadable.
func (p *Preferences) DarkMode(ctx context.Context, fallback bool) (bool, error) {
	v, ok, err := p.kv.Get(ctx, ThemeKey)
	if err != nil {
		return fallback, fmt.Errorf("read theme: %w", err)
	}
	if !ok {
		return fallback, nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, nil
	}
	return on, nil
}

// SetDarkMode persists the theme.
func (p *Preferences) SetDarkMode(ctx context.Context, on bool) error {
	if err := p.kv.Set(ctx, ThemeKey, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// Toggle flips the saved theme and returns the new value.
func (p *Preferences) Toggle(ctx context.Context, fallback bool) (bool, error) {
	cur, err := p.DarkMode(ctx, fallback)
	if err != nil {
		return cur, err
	}
	if err := p.SetDarkMode(ctx, !cur); err != nil {
		return cur, err
	}
	return !cur, nil
}
