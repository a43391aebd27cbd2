package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// RoomPreset is a named room setup: dimensions, frequency ceiling, viewing
// parameters and the selected mode ids.
type RoomPreset struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency float64              `json:"max_frequency"`
	SliceHeight  float64              `json:"slice_height"`
	Threshold    float64              `json:"threshold"`
	SelectedIDs  []string             `json:"selected_ids"`
	Notes        *string              `json:"notes,omitempty"`
	CreatedAt    int64                `json:"created_at"` // unix nanoseconds
	UpdatedAt    int64                `json:"updated_at"`
}

// Validate checks the preset before it is written.
func (p *RoomPreset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: preset name is required", roommodes.ErrInvalidArgument)
	}
	if err := p.Dims.Validate(); err != nil {
		return err
	}
	if math.IsNaN(p.MaxFrequency) || math.IsInf(p.MaxFrequency, 0) || p.MaxFrequency <= 0 {
		return fmt.Errorf("%w: max_frequency must be positive, got %v", roommodes.ErrInvalidArgument, p.MaxFrequency)
	}
	if math.IsNaN(p.SliceHeight) || p.SliceHeight < 0 || p.SliceHeight > p.Dims.Height {
		return fmt.Errorf("%w: slice_height must be within [0, %v], got %v", roommodes.ErrInvalidArgument, p.Dims.Height, p.SliceHeight)
	}
	if math.IsNaN(p.Threshold) || p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be within [0, 1], got %v", roommodes.ErrInvalidArgument, p.Threshold)
	}
	for _, id := range p.SelectedIDs {
		if _, err := roommodes.ParseModeID(id); err != nil {
			return err
		}
	}
	return nil
}

const presetColumns = `preset_id, name, length_m, height_m, width_m, max_frequency,
	slice_height, threshold, selected_json, notes, created_at, updated_at`

// CreatePreset inserts p, assigning an ID and timestamps.
func (db *DB) CreatePreset(p *RoomPreset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.SelectedIDs == nil {
		p.SelectedIDs = []string{}
	}
	selected, err := json.Marshal(p.SelectedIDs)
	if err != nil {
		return fmt.Errorf("marshal selected ids: %w", err)
	}
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UnixNano()
	p.UpdatedAt = p.CreatedAt

	err = retryOnBusy(func() error {
		_, err := db.Exec(`INSERT INTO room_presets (`+presetColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Dims.Length, p.Dims.Height, p.Dims.Width, p.MaxFrequency,
			p.SliceHeight, p.Threshold, string(selected), p.Notes, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
	}
	if err != nil {
		return fmt.Errorf("insert preset: %w", err)
	}
	return nil
}

// GetPreset returns the preset with the given id.
func (db *DB) GetPreset(id string) (*RoomPreset, error) {
	row := db.QueryRow(`SELECT `+presetColumns+` FROM room_presets WHERE preset_id = ?`, id)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preset %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ListPresets returns every preset ordered by name.
func (db *DB) ListPresets() ([]*RoomPreset, error) {
	rows, err := db.Query(`SELECT ` + presetColumns + ` FROM room_presets ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("query presets: %w", err)
	}
	defer rows.Close()

	presets := []*RoomPreset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// UpdatePreset overwrites the stored preset with p.ID.
func (db *DB) UpdatePreset(p *RoomPreset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.SelectedIDs == nil {
		p.SelectedIDs = []string{}
	}
	selected, err := json.Marshal(p.SelectedIDs)
	if err != nil {
		return fmt.Errorf("marshal selected ids: %w", err)
	}
	p.UpdatedAt = time.Now().UnixNano()

	var affected int64
	err = retryOnBusy(func() error {
		res, err := db.Exec(`UPDATE room_presets SET
				name = ?, length_m = ?, height_m = ?, width_m = ?, max_frequency = ?,
				slice_height = ?, threshold = ?, selected_json = ?, notes = ?, updated_at = ?
			WHERE preset_id = ?`,
			p.Name, p.Dims.Length, p.Dims.Height, p.Dims.Width, p.MaxFrequency,
			p.SliceHeight, p.Threshold, string(selected), p.Notes, p.UpdatedAt, p.ID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
	}
	if err != nil {
		return fmt.Errorf("update preset: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("preset %s: %w", p.ID, ErrNotFound)
	}
	return db.QueryRow(`SELECT created_at FROM room_presets WHERE preset_id = ?`, p.ID).Scan(&p.CreatedAt)
}

// DeletePreset removes a preset. Snapshots that referenced it keep their
// data with the reference cleared.
func (db *DB) DeletePreset(id string) error {
	return retryOnBusy(func() error {
		res, err := db.Exec(`DELETE FROM room_presets WHERE preset_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete preset: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("preset %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreset(row rowScanner) (*RoomPreset, error) {
	var p RoomPreset
	var selected string
	var notes sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &p.Dims.Length, &p.Dims.Height, &p.Dims.Width, &p.MaxFrequency,
		&p.SliceHeight, &p.Threshold, &selected, &notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan preset: %w", err)
	}
	if err := json.Unmarshal([]byte(selected), &p.SelectedIDs); err != nil {
		return nil, fmt.Errorf("decode selected ids of preset %s: %w", p.ID, err)
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return &p, nil
}
