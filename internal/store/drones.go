// ABOUTME: Drone and drone category types and store methods
// ABOUTME: Drone writes are logged directly by the store (save/delete hooks)

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DroneCategory groups drones by kind. Names are unique.
type DroneCategory struct {
	ID   string
	Name string
	Timestamps
}

// Drone is a registered drone. OwnerID references the creating user and
// is immutable after creation.
type Drone struct {
	ID                string
	Name              string
	CategoryID        string
	HasCompeted       bool
	OwnerID           string
	ManufacturingDate time.Time
	Timestamps
}

// DroneFilter narrows drone listings.
type DroneFilter struct {
	Name       string
	CategoryID string
}

// DroneStore defines the interface for drone registry persistence.
type DroneStore interface {
	CreateCategory(ctx context.Context, category *DroneCategory) error
	GetCategory(ctx context.Context, id string) (*DroneCategory, error)
	GetCategoryByName(ctx context.Context, name string) (*DroneCategory, error)
	ListCategories(ctx context.Context, name string) ([]*DroneCategory, error)
	UpdateCategory(ctx context.Context, category *DroneCategory) error
	DeleteCategory(ctx context.Context, id string) error

	CreateDrone(ctx context.Context, drone *Drone) error
	GetDrone(ctx context.Context, id string) (*Drone, error)
	GetDroneByName(ctx context.Context, name string) (*Drone, error)
	ListDrones(ctx context.Context, filter DroneFilter) ([]*Drone, error)
	UpdateDrone(ctx context.Context, drone *Drone) error
	DeleteDrone(ctx context.Context, id string) error
}

// Ensure SQLiteStore implements DroneStore.
var _ DroneStore = (*SQLiteStore)(nil)

// CreateCategory inserts a new drone category.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *DroneCategory) error {
	category.touch(time.Now().UTC())

	query := `
		INSERT INTO drone_categories (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.CreatedAt.Format(time.RFC3339),
		category.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err, "drone_categories.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting drone category: %w", err)
	}

	return nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (*DroneCategory, error) {
	return s.getCategory(ctx, "id", id)
}

// GetCategoryByName retrieves a category by its unique name.
func (s *SQLiteStore) GetCategoryByName(ctx context.Context, name string) (*DroneCategory, error) {
	return s.getCategory(ctx, "name", name)
}

func (s *SQLiteStore) getCategory(ctx context.Context, column, value string) (*DroneCategory, error) {
	query := `SELECT id, name, created_at, updated_at FROM drone_categories WHERE ` + column + ` = ?`

	var category DroneCategory
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&category.ID,
		&category.Name,
		&createdAtStr,
		&updatedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying drone category: %w", err)
	}

	if err := parseTimestamps(&category.Timestamps, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &category, nil
}

// ListCategories lists categories ordered by name, optionally filtered
// by exact name.
func (s *SQLiteStore) ListCategories(ctx context.Context, name string) ([]*DroneCategory, error) {
	query := `SELECT id, name, created_at, updated_at FROM drone_categories`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing drone categories: %w", err)
	}
	defer rows.Close()

	var categories []*DroneCategory
	for rows.Next() {
		var category DroneCategory
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(&category.ID, &category.Name, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning drone category: %w", err)
		}
		if err := parseTimestamps(&category.Timestamps, createdAtStr, updatedAtStr); err != nil {
			return nil, err
		}

		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// UpdateCategory renames a category.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, category *DroneCategory) error {
	category.UpdatedAt = time.Now().UTC()

	query := `UPDATE drone_categories SET name = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		category.Name,
		category.UpdatedAt.Format(time.RFC3339),
		category.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err, "drone_categories.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("updating drone category: %w", err)
	}

	return requireRowAffected(result)
}

// DeleteCategory removes a category and, via cascade, its drones.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM drone_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting drone category: %w", err)
	}

	return requireRowAffected(result)
}

const droneColumns = `id, name, category_id, has_competed, owner_id, manufacturing_date, created_at, updated_at`

// CreateDrone inserts a new drone and logs the save.
func (s *SQLiteStore) CreateDrone(ctx context.Context, drone *Drone) error {
	drone.touch(time.Now().UTC())

	query := `
		INSERT INTO drones (` + droneColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		drone.ID,
		drone.Name,
		drone.CategoryID,
		drone.HasCompeted,
		drone.OwnerID,
		drone.ManufacturingDate.UTC().Format(time.RFC3339),
		drone.CreatedAt.Format(time.RFC3339),
		drone.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err, "drones.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting drone: %w", err)
	}

	s.logger.Info("drone saved", "id", drone.ID, "name", drone.Name)
	return nil
}

// GetDrone retrieves a drone by ID.
func (s *SQLiteStore) GetDrone(ctx context.Context, id string) (*Drone, error) {
	query := `SELECT ` + droneColumns + ` FROM drones WHERE id = ?`

	drone, err := scanDrone(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying drone: %w", err)
	}

	return drone, nil
}

// GetDroneByName retrieves a drone by its unique name.
func (s *SQLiteStore) GetDroneByName(ctx context.Context, name string) (*Drone, error) {
	query := `SELECT ` + droneColumns + ` FROM drones WHERE name = ?`

	drone, err := scanDrone(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying drone: %w", err)
	}

	return drone, nil
}

// ListDrones lists drones ordered by name, optionally filtered.
func (s *SQLiteStore) ListDrones(ctx context.Context, filter DroneFilter) ([]*Drone, error) {
	query := `SELECT ` + droneColumns + ` FROM drones`
	var conds []string
	var args []any
	if filter.Name != "" {
		conds = append(conds, "name = ?")
		args = append(args, filter.Name)
	}
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing drones: %w", err)
	}
	defer rows.Close()

	var drones []*Drone
	for rows.Next() {
		drone, err := scanDrone(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning drone: %w", err)
		}
		drones = append(drones, drone)
	}

	return drones, rows.Err()
}

// UpdateDrone writes mutable drone fields. OwnerID is deliberately not
// part of the UPDATE: ownership never changes after creation.
func (s *SQLiteStore) UpdateDrone(ctx context.Context, drone *Drone) error {
	drone.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE drones
		SET name = ?, category_id = ?, has_competed = ?, manufacturing_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		drone.Name,
		drone.CategoryID,
		drone.HasCompeted,
		drone.ManufacturingDate.UTC().Format(time.RFC3339),
		drone.UpdatedAt.Format(time.RFC3339),
		drone.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err, "drones.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("updating drone: %w", err)
	}

	if err := requireRowAffected(result); err != nil {
		return err
	}

	s.logger.Info("drone saved", "id", drone.ID, "name", drone.Name)
	return nil
}

// DeleteDrone removes a drone and logs the delete.
func (s *SQLiteStore) DeleteDrone(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM drones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting drone: %w", err)
	}

	if err := requireRowAffected(result); err != nil {
		return err
	}

	s.logger.Info("drone deleted", "id", id)
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrone(row rowScanner) (*Drone, error) {
	var drone Drone
	var manufacturingDateStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&drone.ID,
		&drone.Name,
		&drone.CategoryID,
		&drone.HasCompeted,
		&drone.OwnerID,
		&manufacturingDateStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	drone.ManufacturingDate, err = time.Parse(time.RFC3339, manufacturingDateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing manufacturing_date: %w", err)
	}
	if err := parseTimestamps(&drone.Timestamps, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &drone, nil
}

func parseTimestamps(ts *Timestamps, createdAtStr, updatedAtStr string) error {
	var err error
	ts.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	ts.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	return nil
}

func requireRowAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
