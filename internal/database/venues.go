package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

func (db *DB) CreateVenue(ctx context.Context, v *models.Venue) error {
	query := `INSERT INTO venues (name, address, city, latitude, longitude, category, is_active, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		v.Name, v.Address, v.City, v.Latitude, v.Longitude, v.Category, v.IsActive, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("create venue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create venue last insert id: %w", err)
	}
	v.ID = id
	return nil
}

// SyncVenues inserts seed venues that are not present yet, keyed by
// name and city. Existing rows are left untouched.
func (db *DB) SyncVenues(ctx context.Context, venues []models.Venue) error {
	for i := range venues {
		v := venues[i]

		var count int
		err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM venues WHERE name = ? AND city = ?`, v.Name, v.City).Scan(&count)
		if err != nil {
			return fmt.Errorf("sync venues: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := db.CreateVenue(ctx, &v); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) GetActiveVenues(ctx context.Context) ([]*models.Venue, error) {
	query := `SELECT id, name, COALESCE(address, ''), COALESCE(city, ''), latitude, longitude,
                     COALESCE(category, ''), is_active, created_at
              FROM venues WHERE is_active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		var v models.Venue
		err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.Latitude, &v.Longitude,
			&v.Category, &v.IsActive, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, &v)
	}
	return venues, rows.Err()
}

func (db *DB) DeactivateVenue(ctx context.Context, id int64) error {
	query := `UPDATE venues SET is_active = 0 WHERE id = ?`
	_, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate venue: %w", err)
	}
	return nil
}
