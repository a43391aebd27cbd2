package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/roommodes/internal/monitoring"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/timeutil"
)

// FieldSource synthesizes a pressure field for a set of mode indices. The
// engine satisfies it directly; the API layer substitutes a memoizing
// cache.
type FieldSource interface {
	SynthesizeIndices(ctx context.Context, dims roommodes.Dimensions, indices []roommodes.Indices) (*roommodes.PressureField, error)
}

// Options configures a Manager. Zero values fall back to DefaultDefaults,
// the engine itself as field source, and the real clock. A zero TTL keeps
// sessions until they are deleted.
type Options struct {
	Defaults Defaults
	TTL      time.Duration
	Clock    timeutil.Clock
	Fields   FieldSource
}

// Manager owns every live session.
type Manager struct {
	engine   *roommodes.Engine
	fields   FieldSource
	clock    timeutil.Clock
	ttl      time.Duration
	defaults Defaults

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager generating modes with engine.
func NewManager(engine *roommodes.Engine, opts Options) *Manager {
	m := &Manager{
		engine:   engine,
		fields:   opts.Fields,
		clock:    opts.Clock,
		ttl:      opts.TTL,
		defaults: opts.Defaults,
		sessions: make(map[string]*Session),
	}
	if m.fields == nil {
		m.fields = engine
	}
	if m.clock == nil {
		m.clock = timeutil.RealClock{}
	}
	if m.defaults == (Defaults{}) {
		m.defaults = DefaultDefaults()
	}
	return m
}

// Defaults returns the values applied to unset Params fields.
func (m *Manager) Defaults() Defaults {
	return m.defaults
}

// Create generates the mode list for p and stores a new session.
func (m *Manager) Create(ctx context.Context, p Params) (*Session, error) {
	if p.Dims == (roommodes.Dimensions{}) {
		p.Dims = m.defaults.Dims
	}
	if p.MaxFrequency == 0 {
		p.MaxFrequency = m.defaults.MaxFrequency
	}
	modes, err := m.engine.GenerateModesContext(ctx, p.Dims, p.MaxFrequency)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	s := &Session{
		ID:           uuid.NewString(),
		Dims:         p.Dims,
		MaxFrequency: p.MaxFrequency,
		Filter:       roommodes.AllTypes,
		SliceHeight:  m.defaults.SliceHeight,
		Threshold:    m.defaults.Threshold,
		Modes:        modes,
		CreatedAt:    now,
		LastUsed:     now,
	}
	if p.Selected != nil {
		s.Selected = dedupe(p.Selected)
	} else {
		s.Selected = roommodes.DefaultSelection(modes, m.defaults.SelectionCount)
	}
	if p.SliceHeight != nil {
		if err := setSliceHeight(s, *p.SliceHeight); err != nil {
			return nil, err
		}
	} else {
		s.SliceHeight = math.Min(s.SliceHeight, s.Dims.Height)
	}
	if p.Threshold != nil {
		if err := setThreshold(s, *p.Threshold); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	monitoring.Logf("session %s created: %d modes, %d selected", s.ID, len(modes), len(s.Selected))
	return s.clone(), nil
}

// Get returns a copy of the session.
func (m *Manager) Get(id string) (*Session, error) {
	return m.update(id, func(*Session) error { return nil })
}

// Toggle adds modeID to the selection or removes it if already selected.
func (m *Manager) Toggle(id, modeID string) (*Session, error) {
	return m.update(id, func(s *Session) error {
		if !s.hasMode(modeID) && !s.IsSelected(modeID) {
			return fmt.Errorf("%w: unknown mode %q", roommodes.ErrInvalidArgument, modeID)
		}
		if s.IsSelected(modeID) {
			kept := s.Selected[:0]
			for _, sel := range s.Selected {
				if sel != modeID {
					kept = append(kept, sel)
				}
			}
			s.Selected = kept
			return nil
		}
		s.Selected = append(s.Selected, modeID)
		return nil
	})
}

// Isolate makes modeID the only selected mode.
func (m *Manager) Isolate(id, modeID string) (*Session, error) {
	return m.update(id, func(s *Session) error {
		if !s.hasMode(modeID) {
			return fmt.Errorf("%w: unknown mode %q", roommodes.ErrInvalidArgument, modeID)
		}
		s.Selected = []string{modeID}
		return nil
	})
}

// SetFilter changes which mode types VisibleModes lists. The selection is
// not affected.
func (m *Manager) SetFilter(id, filter string) (*Session, error) {
	t, err := roommodes.ParseModeType(filter)
	if err != nil {
		return nil, err
	}
	return m.update(id, func(s *Session) error {
		s.Filter = t
		return nil
	})
}

// SetSliceHeight stores h clamped to [0, room height].
func (m *Manager) SetSliceHeight(id string, h float64) (*Session, error) {
	return m.update(id, func(s *Session) error { return setSliceHeight(s, h) })
}

// SetThreshold stores t clamped to [0, 1].
func (m *Manager) SetThreshold(id string, t float64) (*Session, error) {
	return m.update(id, func(s *Session) error { return setThreshold(s, t) })
}

// SetDimensions regenerates the mode list for new room dimensions and
// lowers the slice height if it would sit above the new ceiling.
func (m *Manager) SetDimensions(ctx context.Context, id string, dims roommodes.Dimensions) (*Session, error) {
	return m.regenerate(ctx, id, func(_ roommodes.Dimensions, fmax float64) (roommodes.Dimensions, float64) {
		return dims, fmax
	})
}

// SetMaxFrequency regenerates the mode list up to fmax.
func (m *Manager) SetMaxFrequency(ctx context.Context, id string, fmax float64) (*Session, error) {
	return m.regenerate(ctx, id, func(dims roommodes.Dimensions, _ float64) (roommodes.Dimensions, float64) {
		return dims, fmax
	})
}

// errRoomChanged aborts a regenerate commit whose room was replaced while
// its modes were being generated.
var errRoomChanged = errors.New("session room changed during regeneration")

// regenerate applies change to the session's room and stores the modes of
// the result. Modes are generated outside the lock, so the commit only
// lands if the room is still the one they were generated from; otherwise
// the change is replayed on the newer room.
func (m *Manager) regenerate(ctx context.Context, id string, change func(roommodes.Dimensions, float64) (roommodes.Dimensions, float64)) (*Session, error) {
	for {
		cur, err := m.Get(id)
		if err != nil {
			return nil, err
		}
		dims, fmax := change(cur.Dims, cur.MaxFrequency)
		modes, err := m.engine.GenerateModesContext(ctx, dims, fmax)
		if err != nil {
			return nil, err
		}
		s, err := m.update(id, func(s *Session) error {
			if s.Dims != cur.Dims || s.MaxFrequency != cur.MaxFrequency {
				return errRoomChanged
			}
			s.Dims = dims
			s.MaxFrequency = fmax
			s.Modes = modes
			s.SliceHeight = math.Min(s.SliceHeight, dims.Height)
			return nil
		})
		if errors.Is(err, errRoomChanged) {
			continue
		}
		return s, err
	}
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ActiveField synthesizes the field of the session's active modes. ok is
// false when no mode is active, in which case no field exists to slice.
func (m *Manager) ActiveField(ctx context.Context, id string) (field *roommodes.PressureField, s *Session, ok bool, err error) {
	s, err = m.Get(id)
	if err != nil {
		return nil, nil, false, err
	}
	active := s.ActiveModes()
	if len(active) == 0 {
		return nil, s, false, nil
	}
	field, err = m.fields.SynthesizeIndices(ctx, s.Dims, roommodes.IndicesOf(active))
	if err != nil {
		return nil, s, false, err
	}
	return field, s, true, nil
}

// Sweep drops sessions idle for at least the TTL and returns how many it
// removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed) >= m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if n := m.Sweep(); n > 0 {
				monitoring.Logf("session sweep removed %d idle sessions", n)
			}
		}
	}
}

func (m *Manager) update(id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if timeutil.Expired(m.clock, s.LastUsed, m.ttl) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	// Mutate a copy so a failed update leaves the session untouched.
	next := s.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.LastUsed = m.clock.Now()
	m.sessions[id] = next
	return next.clone(), nil
}

func setSliceHeight(s *Session, h float64) error {
	if math.IsNaN(h) {
		return fmt.Errorf("%w: slice height is NaN", roommodes.ErrInvalidArgument)
	}
	s.SliceHeight = math.Max(0, math.Min(h, s.Dims.Height))
	return nil
}

func setThreshold(s *Session, t float64) error {
	if math.IsNaN(t) {
		return fmt.Errorf("%w: threshold is NaN", roommodes.ErrInvalidArgument)
	}
	s.Threshold = math.Max(0, math.Min(t, 1))
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
