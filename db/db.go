package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database configuration from environment variables.
// The database is optional: when it is not configured the bot only writes the activity file.
type Config struct {
	URL              string
	Host             string
	Port             int
	User             string
	Password         string
	DBName           string
	Schema           string
	SSLMode          string
	AllowInsecureSSL bool
}

// DB wraps the pgx connection pool
type DB struct {
	Pool   *pgxpool.Pool
	Config *Config
}

var schemaName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadConfig reads DATABASE_URL or the DB_* variables.
func LoadConfig() (*Config, error) {
	port := 5432
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT value: %w", err)
		}
		port = p
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "prefer"
	}

	schema := os.Getenv("DB_SCHEMA")
	if schema == "" {
		schema = "public"
	}
	if !schemaName.MatchString(schema) {
		return nil, fmt.Errorf("invalid DB_SCHEMA value %q", schema)
	}

	insecure := os.Getenv("DB_ALLOW_INSECURE_SSL")

	return &Config{
		URL:              os.Getenv("DATABASE_URL"),
		Host:             os.Getenv("DB_HOST"),
		Port:             port,
		User:             os.Getenv("DB_USER"),
		Password:         os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		Schema:           schema,
		SSLMode:          sslMode,
		AllowInsecureSSL: insecure == "true" || insecure == "1",
	}, nil
}

// IsConfigured returns true if a URL or enough DB_* variables are set
func (c *Config) IsConfigured() bool {
	return c.URL != "" || (c.Host != "" && c.DBName != "" && c.User != "")
}

// ConnectionString returns DATABASE_URL when set, otherwise a keyword/value DSN.
func (c *Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Connect opens the pool, pins the search path to the configured schema and pings.
func Connect(ctx context.Context, config *Config) (*DB, error) {
	if !config.IsConfigured() {
		return nil, fmt.Errorf("database configuration is incomplete")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Commands are short; a handful of connections is plenty.
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	if config.AllowInsecureSSL && poolConfig.ConnConfig.TLSConfig != nil {
		poolConfig.ConnConfig.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{config.Schema}.Sanitize())
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Connected to database (schema: %s)", config.Schema)

	return &DB{Pool: pool, Config: config}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("Database connection pool closed")
	}
}

// TableName returns a quoted, schema-qualified table name
func (db *DB) TableName(table string) string {
	return pgx.Identifier{db.Config.Schema, table}.Sanitize()
}
