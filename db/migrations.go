package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
)

// Migration is one forward-only schema change
type Migration struct {
	Version     int
	Description string
	Up          string
}

// migrations lists every schema change in order. %[1]s is the quoted schema name.
func migrations(schema string) []Migration {
	q := pgx.Identifier{schema}.Sanitize()
	return []Migration{
		{
			Version:     1,
			Description: "Create schema and migrations table",
			Up: fmt.Sprintf(`
				CREATE SCHEMA IF NOT EXISTS %[1]s;

				CREATE TABLE IF NOT EXISTS %[1]s.schema_migrations (
					version INTEGER PRIMARY KEY,
					description TEXT NOT NULL,
					applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);
			`, q),
		},
		{
			Version:     2,
			Description: "Create users table",
			Up: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %[1]s.users (
					id BIGSERIAL PRIMARY KEY,
					telegram_id BIGINT UNIQUE NOT NULL,
					first_name VARCHAR(255),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);
			`, q),
		},
		{
			Version:     3,
			Description: "Create activity table",
			Up: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %[1]s.activity (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT REFERENCES %[1]s.users(id) ON DELETE SET NULL,
					command VARCHAR(64) NOT NULL,
					chat_id BIGINT NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_activity_command ON %[1]s.activity(command);
				CREATE INDEX IF NOT EXISTS idx_activity_created_at ON %[1]s.activity(created_at);
			`, q),
		},
		{
			Version:     4,
			Description: "Create recommendations table",
			Up: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %[1]s.recommendations (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT REFERENCES %[1]s.users(id) ON DELETE SET NULL,
					chat_id BIGINT NOT NULL,
					category VARCHAR(20) NOT NULL,
					zone TEXT,
					keyword TEXT,
					place_id VARCHAR(255) NOT NULL,
					name VARCHAR(500) NOT NULL,
					rating DOUBLE PRECISION,
					price_level INTEGER,
					latitude DOUBLE PRECISION NOT NULL,
					longitude DOUBLE PRECISION NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_recommendations_user_id ON %[1]s.recommendations(user_id);
			`, q),
		},
	}
}

// RunMigrations applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction together with its version row.
func (db *DB) RunMigrations(ctx context.Context) error {
	all := migrations(db.Config.Schema)

	if _, err := db.Pool.Exec(ctx, all[0].Up); err != nil {
		return fmt.Errorf("failed to create schema and migrations table: %w", err)
	}

	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	log.Printf("Current database schema version: %d", current)

	for _, m := range all {
		if m.Version <= current {
			continue
		}

		log.Printf("Running migration %d: %s", m.Version, m.Description)

		err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO "+db.TableName("schema_migrations")+" (version, description) VALUES ($1, $2)",
				m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Description, err)
		}
	}

	log.Printf("All migrations completed. Schema version: %d", all[len(all)-1].Version)
	return nil
}

// SchemaVersion returns the highest applied migration, 0 when none has been recorded.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := db.Pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM "+db.TableName("schema_migrations"))
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
