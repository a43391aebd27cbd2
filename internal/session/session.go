// Package session keeps the mutable mode selection a user works on between
// requests. Each operation regenerates or copies state so that the
// roommodes engine only ever sees finished, immutable inputs.
package session

import (
	"errors"
	"time"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// Session is one user's room setup and mode selection.
type Session struct {
	ID           string               `json:"id"`
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency float64              `json:"max_frequency"`
	Filter       roommodes.ModeType   `json:"filter"`
	Selected     []string             `json:"selected"`
	SliceHeight  float64              `json:"slice_height"`
	Threshold    float64              `json:"threshold"`
	Modes        []roommodes.Mode     `json:"modes"`
	CreatedAt    time.Time            `json:"created_at"`
	LastUsed     time.Time            `json:"last_used"`
}

// VisibleModes returns the modes that pass the session's type filter.
func (s *Session) VisibleModes() []roommodes.Mode {
	return roommodes.FilterByType(s.Modes, s.Filter)
}

// ActiveModes returns the selected modes that exist in the current mode
// list. Selected ids that the current dimensions no longer produce stay in
// the selection but are not active.
func (s *Session) ActiveModes() []roommodes.Mode {
	return roommodes.ResolveModes(s.Modes, s.Selected)
}

// IsSelected reports whether id is in the selection.
func (s *Session) IsSelected(id string) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

func (s *Session) hasMode(id string) bool {
	for _, m := range s.Modes {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) clone() *Session {
	c := *s
	c.Selected = append([]string(nil), s.Selected...)
	c.Modes = append([]roommodes.Mode(nil), s.Modes...)
	return &c
}

// Params seeds a new session. Zero values take the manager defaults; a nil
// Selected pre-selects the lowest modes.
type Params struct {
	Dims         roommodes.Dimensions
	MaxFrequency float64
	Selected     []string
	SliceHeight  *float64
	Threshold    *float64
}

// Defaults are applied to Params fields left unset.
type Defaults struct {
	Dims           roommodes.Dimensions
	MaxFrequency   float64
	SliceHeight    float64
	Threshold      float64
	SelectionCount int
}

// DefaultDefaults returns the 7.4 x 2.9 x 5.2 m listening room at 300 Hz
// with the six lowest modes selected.
func DefaultDefaults() Defaults {
	return Defaults{
		Dims:           roommodes.Dimensions{Length: 7.4, Height: 2.9, Width: 5.2},
		MaxFrequency:   300,
		SliceHeight:    1.2,
		Threshold:      roommodes.HotFractionThreshold,
		SelectionCount: 6,
	}
}
