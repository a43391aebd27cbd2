package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// DefaultSnapshotLimit bounds ListModeSnapshots when no limit is given.
const DefaultSnapshotLimit = 50

// ModeSnapshot is a recorded mode table together with the inputs that
// produced it, kept for comparing rooms or engine settings later.
type ModeSnapshot struct {
	ID           string               `json:"id"`
	Label        string               `json:"label"`
	PresetID     *string              `json:"preset_id,omitempty"`
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency float64              `json:"max_frequency"`
	SpeedOfSound float64              `json:"speed_of_sound"`
	ModeCount    int                  `json:"mode_count"`
	Modes        []roommodes.Mode     `json:"modes,omitempty"`
	CreatedAt    int64                `json:"created_at"` // unix nanoseconds
}

// RecordModeSnapshot stores s, assigning an ID and timestamp. ModeCount is
// taken from len(s.Modes).
func (db *DB) RecordModeSnapshot(s *ModeSnapshot) error {
	if err := s.Dims.Validate(); err != nil {
		return err
	}
	if s.Modes == nil {
		s.Modes = []roommodes.Mode{}
	}
	modesJSON, err := json.Marshal(s.Modes)
	if err != nil {
		return fmt.Errorf("marshal modes: %w", err)
	}
	s.ID = uuid.New().String()
	s.ModeCount = len(s.Modes)
	s.CreatedAt = time.Now().UnixNano()

	return retryOnBusy(func() error {
		_, err := db.Exec(`
			INSERT INTO mode_snapshots (
				snapshot_id, label, preset_id, length_m, height_m, width_m,
				max_frequency, speed_of_sound, mode_count, modes_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Label, s.PresetID, s.Dims.Length, s.Dims.Height, s.Dims.Width,
			s.MaxFrequency, s.SpeedOfSound, s.ModeCount, string(modesJSON), s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
}

// GetModeSnapshot returns a snapshot including its full mode table.
func (db *DB) GetModeSnapshot(id string) (*ModeSnapshot, error) {
	var s ModeSnapshot
	var presetID sql.NullString
	var modesJSON string
	err := db.QueryRow(`
		SELECT snapshot_id, label, preset_id, length_m, height_m, width_m,
		       max_frequency, speed_of_sound, mode_count, modes_json, created_at
		FROM mode_snapshots
		WHERE snapshot_id = ?`, id).Scan(
		&s.ID, &s.Label, &presetID, &s.Dims.Length, &s.Dims.Height, &s.Dims.Width,
		&s.MaxFrequency, &s.SpeedOfSound, &s.ModeCount, &modesJSON, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	if presetID.Valid {
		s.PresetID = &presetID.String
	}
	if err := json.Unmarshal([]byte(modesJSON), &s.Modes); err != nil {
		return nil, fmt.Errorf("decode modes of snapshot %s: %w", id, err)
	}
	return &s, nil
}

// ListModeSnapshots returns the newest snapshots first, without their mode
// tables. A non-positive limit uses DefaultSnapshotLimit.
func (db *DB) ListModeSnapshots(limit int) ([]*ModeSnapshot, error) {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	rows, err := db.Query(`
		SELECT snapshot_id, label, preset_id, length_m, height_m, width_m,
		       max_frequency, speed_of_sound, mode_count, created_at
		FROM mode_snapshots
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []*ModeSnapshot{}
	for rows.Next() {
		var s ModeSnapshot
		var presetID sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Label, &presetID, &s.Dims.Length, &s.Dims.Height, &s.Dims.Width,
			&s.MaxFrequency, &s.SpeedOfSound, &s.ModeCount, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if presetID.Valid {
			s.PresetID = &presetID.String
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}
