// ABOUTME: Pilot and competition types and store methods
// ABOUTME: Competitions order by distance descending, the racing leaderboard order

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Pilot genders, mirroring the two-letter codes stored in the schema.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Pilot is a registered drone pilot. Names are unique.
type Pilot struct {
	ID         string
	Name       string
	Gender     string
	RacesCount int
	Timestamps
}

// Competition records a distance achievement by a pilot flying a drone.
type Competition struct {
	ID                      string
	PilotID                 string
	DroneID                 string
	DistanceInFeet          int
	DistanceAchievementDate time.Time
	Timestamps
}

// CompetitionFilter narrows competition listings.
type CompetitionFilter struct {
	PilotID     string
	DroneID     string
	MinDistance int
	MaxDistance int
}

// PilotStore defines the interface for pilot and competition persistence.
type PilotStore interface {
	CreatePilot(ctx context.Context, pilot *Pilot) error
	GetPilot(ctx context.Context, id string) (*Pilot, error)
	GetPilotByName(ctx context.Context, name string) (*Pilot, error)
	ListPilots(ctx context.Context, name string) ([]*Pilot, error)
	UpdatePilot(ctx context.Context, pilot *Pilot) error
	DeletePilot(ctx context.Context, id string) error

	CreateCompetition(ctx context.Context, competition *Competition) error
	GetCompetition(ctx context.Context, id string) (*Competition, error)
	ListCompetitions(ctx context.Context, filter CompetitionFilter) ([]*Competition, error)
	UpdateCompetition(ctx context.Context, competition *Competition) error
	DeleteCompetition(ctx context.Context, id string) error
}

// Ensure SQLiteStore implements PilotStore.
var _ PilotStore = (*SQLiteStore)(nil)

// CreatePilot inserts a new pilot.
func (s *SQLiteStore) CreatePilot(ctx context.Context, pilot *Pilot) error {
	pilot.touch(time.Now().UTC())
	if pilot.Gender == "" {
		pilot.Gender = GenderMale
	}

	query := `
		INSERT INTO pilots (id, name, gender, races_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		pilot.ID,
		pilot.Name,
		pilot.Gender,
		pilot.RacesCount,
		pilot.CreatedAt.Format(time.RFC3339),
		pilot.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err, "pilots.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting pilot: %w", err)
	}

	return nil
}

// GetPilot retrieves a pilot by ID.
func (s *SQLiteStore) GetPilot(ctx context.Context, id string) (*Pilot, error) {
	return s.getPilot(ctx, "id", id)
}

// GetPilotByName retrieves a pilot by its unique name.
func (s *SQLiteStore) GetPilotByName(ctx context.Context, name string) (*Pilot, error) {
	return s.getPilot(ctx, "name", name)
}

func (s *SQLiteStore) getPilot(ctx context.Context, column, value string) (*Pilot, error) {
	query := `SELECT id, name, gender, races_count, created_at, updated_at FROM pilots WHERE ` + column + ` = ?`

	var pilot Pilot
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&pilot.ID,
		&pilot.Name,
		&pilot.Gender,
		&pilot.RacesCount,
		&createdAtStr,
		&updatedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying pilot: %w", err)
	}

	if err := parseTimestamps(&pilot.Timestamps, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &pilot, nil
}

// ListPilots lists pilots ordered by name, optionally filtered by exact name.
func (s *SQLiteStore) ListPilots(ctx context.Context, name string) ([]*Pilot, error) {
	query := `SELECT id, name, gender, races_count, created_at, updated_at FROM pilots`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pilots: %w", err)
	}
	defer rows.Close()

	var pilots []*Pilot
	for rows.Next() {
		var pilot Pilot
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(&pilot.ID, &pilot.Name, &pilot.Gender, &pilot.RacesCount, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning pilot: %w", err)
		}
		if err := parseTimestamps(&pilot.Timestamps, createdAtStr, updatedAtStr); err != nil {
			return nil, err
		}

		pilots = append(pilots, &pilot)
	}

	return pilots, rows.Err()
}

// UpdatePilot writes mutable pilot fields.
func (s *SQLiteStore) UpdatePilot(ctx context.Context, pilot *Pilot) error {
	pilot.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE pilots
		SET name = ?, gender = ?, races_count = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		pilot.Name,
		pilot.Gender,
		pilot.RacesCount,
		pilot.UpdatedAt.Format(time.RFC3339),
		pilot.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err, "pilots.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("updating pilot: %w", err)
	}

	return requireRowAffected(result)
}

// DeletePilot removes a pilot and, via cascade, their competitions.
func (s *SQLiteStore) DeletePilot(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pilots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pilot: %w", err)
	}

	return requireRowAffected(result)
}

const competitionColumns = `id, pilot_id, drone_id, distance_in_feet, distance_achievement_date, created_at, updated_at`

// CreateCompetition inserts a new competition record.
func (s *SQLiteStore) CreateCompetition(ctx context.Context, competition *Competition) error {
	competition.touch(time.Now().UTC())

	query := `
		INSERT INTO competitions (` + competitionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		competition.ID,
		competition.PilotID,
		competition.DroneID,
		competition.DistanceInFeet,
		competition.DistanceAchievementDate.UTC().Format(time.RFC3339),
		competition.CreatedAt.Format(time.RFC3339),
		competition.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting competition: %w", err)
	}

	return nil
}

// GetCompetition retrieves a competition by ID.
func (s *SQLiteStore) GetCompetition(ctx context.Context, id string) (*Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = ?`

	competition, err := scanCompetition(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying competition: %w", err)
	}

	return competition, nil
}

// ListCompetitions lists competitions by distance descending, optionally filtered.
func (s *SQLiteStore) ListCompetitions(ctx context.Context, filter CompetitionFilter) ([]*Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions`
	var conds []string
	var args []any
	if filter.PilotID != "" {
		conds = append(conds, "pilot_id = ?")
		args = append(args, filter.PilotID)
	}
	if filter.DroneID != "" {
		conds = append(conds, "drone_id = ?")
		args = append(args, filter.DroneID)
	}
	if filter.MinDistance > 0 {
		conds = append(conds, "distance_in_feet >= ?")
		args = append(args, filter.MinDistance)
	}
	if filter.MaxDistance > 0 {
		conds = append(conds, "distance_in_feet <= ?")
		args = append(args, filter.MaxDistance)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += ` ORDER BY distance_in_feet DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing competitions: %w", err)
	}
	defer rows.Close()

	var competitions []*Competition
	for rows.Next() {
		competition, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning competition: %w", err)
		}
		competitions = append(competitions, competition)
	}

	return competitions, rows.Err()
}

// UpdateCompetition writes mutable competition fields.
func (s *SQLiteStore) UpdateCompetition(ctx context.Context, competition *Competition) error {
	competition.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE competitions
		SET pilot_id = ?, drone_id = ?, distance_in_feet = ?, distance_achievement_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		competition.PilotID,
		competition.DroneID,
		competition.DistanceInFeet,
		competition.DistanceAchievementDate.UTC().Format(time.RFC3339),
		competition.UpdatedAt.Format(time.RFC3339),
		competition.ID,
	)
	if err != nil {
		return fmt.Errorf("updating competition: %w", err)
	}

	return requireRowAffected(result)
}

// DeleteCompetition removes a competition record.
func (s *SQLiteStore) DeleteCompetition(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM competitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting competition: %w", err)
	}

	return requireRowAffected(result)
}

func scanCompetition(row rowScanner) (*Competition, error) {
	var competition Competition
	var achievementDateStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&competition.ID,
		&competition.PilotID,
		&competition.DroneID,
		&competition.DistanceInFeet,
		&achievementDateStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	competition.DistanceAchievementDate, err = time.Parse(time.RFC3339, achievementDateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing distance_achievement_date: %w", err)
	}
	if err := parseTimestamps(&competition.Timestamps, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &competition, nil
}
