package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (telegram_id, username, display_name, tier, age_confirmed,
                is_admin, is_blacklisted, language_code, last_activity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(telegram_id) DO UPDATE SET
                username = excluded.username,
                display_name = excluded.display_name,
                is_admin = excluded.is_admin,
                is_blacklisted = excluded.is_blacklisted,
                language_code = excluded.language_code,
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`
	now := time.Now()
	if user.Tier == "" {
		user.Tier = models.TierFree
	}
	_, err := db.ExecContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.DisplayName,
		user.Tier,
		user.AgeConfirmed,
		user.IsAdmin,
		user.IsBlacklisted,
		user.LanguageCode,
		now,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT id, telegram_id, COALESCE(username, ''), display_name, tier, age_confirmed,
                     is_admin, is_blacklisted, COALESCE(language_code, ''), last_activity,
                     created_at, updated_at
              FROM users WHERE telegram_id = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.DisplayName, &user.Tier,
		&user.AgeConfirmed, &user.IsAdmin, &user.IsBlacklisted, &user.LanguageCode,
		&user.LastActivity, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (db *DB) SetUserAgeConfirmed(ctx context.Context, telegramID int64) error {
	query := `UPDATE users SET age_confirmed = 1, updated_at = ? WHERE telegram_id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), telegramID)
	if err != nil {
		return fmt.Errorf("set age confirmed: %w", err)
	}
	return nil
}

func (db *DB) SetUserTier(ctx context.Context, telegramID int64, tier string) error {
	query := `UPDATE users SET tier = ?, updated_at = ? WHERE telegram_id = ?`
	_, err := db.ExecContext(ctx, query, tier, time.Now(), telegramID)
	if err != nil {
		return fmt.Errorf("set user tier: %w", err)
	}
	return nil
}

func (db *DB) UpdateUserDisplayName(ctx context.Context, telegramID int64, name string) error {
	query := `UPDATE users SET display_name = ?, updated_at = ? WHERE telegram_id = ?`
	_, err := db.ExecContext(ctx, query, name, time.Now(), telegramID)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	now := time.Now()
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE telegram_id = ?`
	_, err := db.ExecContext(ctx, query, now, now, telegramID)
	if err != nil {
		return fmt.Errorf("update user activity: %w", err)
	}
	return nil
}

func (db *DB) GetActiveUsers(ctx context.Context, days int) ([]*models.User, error) {
	query := `SELECT id, telegram_id, COALESCE(username, ''), display_name, tier, age_confirmed,
                     is_admin, is_blacklisted, COALESCE(language_code, ''), last_activity,
                     created_at, updated_at
              FROM users WHERE last_activity >= ? ORDER BY last_activity DESC`
	cutoff := time.Now().AddDate(0, 0, -days)
	return db.queryUsers(ctx, query, cutoff)
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, telegram_id, COALESCE(username, ''), display_name, tier, age_confirmed,
                     is_admin, is_blacklisted, COALESCE(language_code, ''), last_activity,
                     created_at, updated_at
              FROM users ORDER BY created_at DESC`
	return db.queryUsers(ctx, query)
}

func (db *DB) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.TelegramID, &user.Username, &user.DisplayName, &user.Tier,
			&user.AgeConfirmed, &user.IsAdmin, &user.IsBlacklisted, &user.LanguageCode,
			&user.LastActivity, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
