package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/shopspring/decimal"
)

func (db *DB) CreatePerformer(ctx context.Context, p *models.Performer) error {
	workdays, err := json.Marshal(p.Workdays)
	if err != nil {
		return fmt.Errorf("encode workdays: %w", err)
	}

	query := `INSERT INTO performers (user_id, stage_name, bio, rate_30, rate_60, rate_90,
                workdays, hour_from, hour_to, is_active, display_img, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		p.UserID, p.StageName, p.Bio,
		p.Rate30.String(), p.Rate60.String(), p.Rate90.String(),
		string(workdays), p.HourFrom, p.HourTo, p.IsActive, p.DisplayImg,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("create performer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create performer last insert id: %w", err)
	}
	p.ID = id
	return nil
}

func (db *DB) UpdatePerformer(ctx context.Context, p *models.Performer) error {
	workdays, err := json.Marshal(p.Workdays)
	if err != nil {
		return fmt.Errorf("encode workdays: %w", err)
	}

	query := `UPDATE performers SET bio = ?, rate_30 = ?, rate_60 = ?, rate_90 = ?,
                workdays = ?, hour_from = ?, hour_to = ?, is_active = ?, display_img = ?, updated_at = ?
              WHERE id = ?`
	_, err = db.ExecContext(ctx, query,
		p.Bio, p.Rate30.String(), p.Rate60.String(), p.Rate90.String(),
		string(workdays), p.HourFrom, p.HourTo, p.IsActive, p.DisplayImg, time.Now(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update performer: %w", err)
	}
	return nil
}

// SyncPerformers upserts seed performers from config, keyed by stage
// name. Existing rows keep their id so slots and bookings stay attached.
func (db *DB) SyncPerformers(ctx context.Context, performers []models.Performer) error {
	for i := range performers {
		p := performers[i]

		var existingID int64
		err := db.QueryRowContext(ctx, `SELECT id FROM performers WHERE stage_name = ?`, p.StageName).Scan(&existingID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := db.CreatePerformer(ctx, &p); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("sync performers: %w", err)
		default:
			p.ID = existingID
			if err := db.UpdatePerformer(ctx, &p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (db *DB) GetPerformer(ctx context.Context, id int64) (*models.Performer, error) {
	query := selectPerformer + ` WHERE id = ?`
	p, err := scanPerformer(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get performer: %w", err)
	}
	return p, nil
}

func (db *DB) GetPerformerByUserID(ctx context.Context, userID int64) (*models.Performer, error) {
	query := selectPerformer + ` WHERE user_id = ?`
	p, err := scanPerformer(db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get performer by user: %w", err)
	}
	return p, nil
}

func (db *DB) GetActivePerformers(ctx context.Context) ([]*models.Performer, error) {
	query := selectPerformer + ` WHERE is_active = 1 ORDER BY stage_name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active performers: %w", err)
	}
	defer rows.Close()

	var performers []*models.Performer
	for rows.Next() {
		p, err := scanPerformer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan performer: %w", err)
		}
		performers = append(performers, p)
	}
	return performers, rows.Err()
}

const selectPerformer = `SELECT id, user_id, stage_name, COALESCE(bio, ''), rate_30, rate_60, rate_90,
       workdays, hour_from, hour_to, is_active, COALESCE(display_img, ''), created_at, updated_at
FROM performers`

func scanPerformer(row rowScanner) (*models.Performer, error) {
	var (
		p        models.Performer
		rate30   string
		rate60   string
		rate90   string
		workdays string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.StageName, &p.Bio, &rate30, &rate60, &rate90,
		&workdays, &p.HourFrom, &p.HourTo, &p.IsActive, &p.DisplayImg,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Rate30, err = decimal.NewFromString(rate30); err != nil {
		return nil, fmt.Errorf("parse rate_30 %q: %w", rate30, err)
	}
	if p.Rate60, err = decimal.NewFromString(rate60); err != nil {
		return nil, fmt.Errorf("parse rate_60 %q: %w", rate60, err)
	}
	if p.Rate90, err = decimal.NewFromString(rate90); err != nil {
		return nil, fmt.Errorf("parse rate_90 %q: %w", rate90, err)
	}
	if err := json.Unmarshal([]byte(workdays), &p.Workdays); err != nil {
		return nil, fmt.Errorf("decode workdays %q: %w", workdays, err)
	}
	return &p, nil
}
