package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

func (db *DB) CreateStream(ctx context.Context, s *models.Stream) error {
	query := `INSERT INTO streams (performer_id, title, room_name, room_url, status, prime_only, started_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		s.PerformerID, s.Title, s.RoomName, s.RoomURL, models.StreamLive, s.PrimeOnly, s.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create stream last insert id: %w", err)
	}
	s.ID = id
	s.Status = models.StreamLive
	return nil
}

// EndStream marks a live stream ended; ending twice is a no-op that
// reports ErrInvalidTransition so callers can tell.
func (db *DB) EndStream(ctx context.Context, id int64, endedAt time.Time) error {
	query := `UPDATE streams SET status = ?, ended_at = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, models.StreamEnded, endedAt.Unix(), id, models.StreamLive)
	if err != nil {
		return fmt.Errorf("end stream: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("end stream rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetStream(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (db *DB) GetStream(ctx context.Context, id int64) (*models.Stream, error) {
	query := selectStream + ` WHERE id = ?`
	s, err := scanStream(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return s, nil
}

func (db *DB) GetLiveStreamByPerformer(ctx context.Context, performerID int64) (*models.Stream, error) {
	query := selectStream + ` WHERE performer_id = ? AND status = ?`
	s, err := scanStream(db.QueryRowContext(ctx, query, performerID, models.StreamLive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get live stream by performer: %w", err)
	}
	return s, nil
}

func (db *DB) GetLiveStreams(ctx context.Context) ([]*models.Stream, error) {
	query := selectStream + ` WHERE status = ? ORDER BY started_at DESC`
	rows, err := db.QueryContext(ctx, query, models.StreamLive)
	if err != nil {
		return nil, fmt.Errorf("get live streams: %w", err)
	}
	defer rows.Close()

	var streams []*models.Stream
	for rows.Next() {
		s, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		streams = append(streams, s)
	}
	return streams, rows.Err()
}

const selectStream = `SELECT id, performer_id, title, room_name, room_url, status, prime_only, started_at, ended_at
FROM streams`

func scanStream(row rowScanner) (*models.Stream, error) {
	var (
		s         models.Stream
		startedAt int64
		endedAt   int64
	)
	err := row.Scan(&s.ID, &s.PerformerID, &s.Title, &s.RoomName, &s.RoomURL,
		&s.Status, &s.PrimeOnly, &startedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	s.StartedAt = time.Unix(startedAt, 0).UTC()
	if endedAt > 0 {
		t := time.Unix(endedAt, 0).UTC()
		s.EndedAt = &t
	}
	return &s, nil
}
