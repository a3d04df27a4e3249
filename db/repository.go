package db

import (
	"context"
	"fmt"
	"time"

	"donde-comemos-bot/activity"
)

// User is a Telegram user who talked to the bot
type User struct {
	ID         int64
	TelegramID int64
	FirstName  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recommendation is a place the bot sent to a chat
type Recommendation struct {
	TelegramID int64
	FirstName  string
	ChatID     int64
	Category   string
	Zone       string
	Keyword    string
	PlaceID    string
	Name       string
	Rating     float64
	PriceLevel int
	Latitude   float64
	Longitude  float64
}

// Stats summarises bot usage.
type Stats struct {
	TotalUsers           int64
	TotalRecommendations int64
	CommandsSince        map[string]int64
}

// UpsertUser creates or updates a user by Telegram ID
func (db *DB) UpsertUser(ctx context.Context, telegramID int64, firstName string) (*User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (telegram_id, first_name, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, telegram_id, first_name, created_at, updated_at
	`, db.TableName("users"))

	var u User
	err := db.Pool.QueryRow(ctx, query, telegramID, firstName).Scan(
		&u.ID, &u.TelegramID, &u.FirstName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &u, nil
}

// RecordActivity stores one received command
func (db *DB) RecordActivity(ctx context.Context, userID int64, command string, chatID int64, at time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, command, chat_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, db.TableName("activity"))

	if _, err := db.Pool.Exec(ctx, query, userID, command, chatID, at); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// RecordRecommendation stores a place sent to a chat
func (db *DB) RecordRecommendation(ctx context.Context, r Recommendation) error {
	user, err := db.UpsertUser(ctx, r.TelegramID, r.FirstName)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, chat_id, category, zone, keyword, place_id, name, rating, price_level, latitude, longitude)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, $11)
	`, db.TableName("recommendations"))

	_, err = db.Pool.Exec(ctx, query,
		user.ID, r.ChatID, r.Category, r.Zone, r.Keyword, r.PlaceID, r.Name,
		r.Rating, r.PriceLevel, r.Latitude, r.Longitude,
	)
	if err != nil {
		return fmt.Errorf("failed to record recommendation: %w", err)
	}
	return nil
}

// Stats counts users, recommendations and the commands received since the given time
func (db *DB) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	s := &Stats{CommandsSince: make(map[string]int64)}

	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+db.TableName("users")).Scan(&s.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to get total users: %w", err)
	}
	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+db.TableName("recommendations")).Scan(&s.TotalRecommendations); err != nil {
		return nil, fmt.Errorf("failed to get total recommendations: %w", err)
	}

	rows, err := db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT command, COUNT(*)
		FROM %s
		WHERE created_at >= $1
		GROUP BY command
	`, db.TableName("activity")), since)
	if err != nil {
		return nil, fmt.Errorf("failed to get command stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var command string
		var count int64
		if err := rows.Scan(&command, &count); err != nil {
			return nil, fmt.Errorf("failed to scan command stats: %w", err)
		}
		s.CommandsSince[command] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read command stats: %w", err)
	}
	return s, nil
}

// ActivityRecorder mirrors activity entries into the activity table.
type ActivityRecorder struct {
	DB *DB
}

func (r ActivityRecorder) Record(ctx context.Context, e activity.Entry) error {
	user, err := r.DB.UpsertUser(ctx, e.UserID, e.UserName)
	if err != nil {
		return err
	}
	return r.DB.RecordActivity(ctx, user.ID, e.Command, e.ChatID, e.Time)
}

var _ activity.Recorder = ActivityRecorder{}
