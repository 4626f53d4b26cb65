package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

func (db *DB) CreateListing(ctx context.Context, l *models.Listing) error {
	query := `INSERT INTO listings (submitter_id, business_name, description, category,
                contact_phone, website, city, quality_score, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		l.SubmitterID, l.BusinessName, l.Description, l.Category,
		l.ContactPhone, l.Website, l.City, l.QualityScore, models.ListingSubmitted,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create listing last insert id: %w", err)
	}
	l.ID = id
	l.Status = models.ListingSubmitted
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

// ReviewListing records the moderation decision. Only a submitted listing
// can be reviewed; a second review attempt returns ErrInvalidTransition.
func (db *DB) ReviewListing(ctx context.Context, id int64, approved bool, reviewerID int64, reason string) error {
	status := models.ListingApproved
	if !approved {
		status = models.ListingRejected
	}

	query := `UPDATE listings
              SET status = ?, reject_reason = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
              WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query,
		status, reason, reviewerID, time.Now().Unix(), time.Now(),
		id, models.ListingSubmitted,
	)
	if err != nil {
		return fmt.Errorf("review listing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("review rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetListing(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (db *DB) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	query := selectListing + ` WHERE id = ?`
	l, err := scanListing(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (db *DB) GetListingsByStatus(ctx context.Context, status string) ([]*models.Listing, error) {
	query := selectListing + ` WHERE status = ? ORDER BY created_at`
	rows, err := db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("get listings by status: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (db *DB) GetListingsBySubmitter(ctx context.Context, submitterID int64) ([]*models.Listing, error) {
	query := selectListing + ` WHERE submitter_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, submitterID)
	if err != nil {
		return nil, fmt.Errorf("get listings by submitter: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

const selectListing = `SELECT id, submitter_id, business_name, COALESCE(description, ''),
       COALESCE(category, ''), COALESCE(contact_phone, ''), COALESCE(website, ''), COALESCE(city, ''),
       quality_score, status, COALESCE(reject_reason, ''), reviewed_by, reviewed_at, created_at, updated_at
FROM listings`

func scanListing(row rowScanner) (*models.Listing, error) {
	var (
		l          models.Listing
		reviewedAt int64
	)
	err := row.Scan(
		&l.ID, &l.SubmitterID, &l.BusinessName, &l.Description,
		&l.Category, &l.ContactPhone, &l.Website, &l.City,
		&l.QualityScore, &l.Status, &l.RejectReason, &l.ReviewedBy, &reviewedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reviewedAt > 0 {
		t := time.Unix(reviewedAt, 0).UTC()
		l.ReviewedAt = &t
	}
	return &l, nil
}
