package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RateLimitConfig indicates how many commands a user may issue within a given interval.
// A zero value disables limiting.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Enabled reports whether the limit should be enforced.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && r.Interval > 0
}

// BoundingBox is the area random search origins are drawn from.
type BoundingBox struct {
	LatLow, LatHigh float64
	LngLow, LngHigh float64
}

// Config aggregates process-wide configuration values.
type Config struct {
	BotToken  string
	MapsToken string

	ActivityLogPath string
	Region          string
	Language        string
	Bounds          BoundingBox
	SearchRadius    uint
	SearchAttempts  int
	SearchBackoff   time.Duration
	PickPolicy      string
	MapsRateLimit   int

	RateLimit      RateLimitConfig
	RequestTimeout time.Duration
	HTTPAddr       string
}

// Buenos Aires city limits.
var defaultBounds = BoundingBox{
	LatLow:  -34.65,
	LatHigh: -34.55,
	LngLow:  -58.5,
	LngHigh: -58.364,
}

// Load reads the optional .env file, then environment variables, and applies defaults.
// Both secrets are required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := &Config{
		BotToken:        firstEnv("BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
		MapsToken:       firstEnv("MAPS_TOKEN", "GOOGLE_MAPS_API_KEY"),
		ActivityLogPath: getEnv("ACTIVITY_LOG", "activity.log"),
		Region:          getEnv("REGION", "ar"),
		Language:        getEnv("LANGUAGE", "es"),
		PickPolicy:      getEnv("PICK_POLICY", "random"),
		SearchBackoff:   parseDuration(getEnv("SEARCH_BACKOFF", "500ms"), 500*time.Millisecond),
		RequestTimeout:  parseDuration(getEnv("REQUEST_TIMEOUT", "30s"), 30*time.Second),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
	}

	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required (set it in .env or the environment)")
	}
	if cfg.MapsToken == "" {
		return nil, errors.New("MAPS_TOKEN is required (set it in .env or the environment)")
	}

	var err error
	if cfg.Bounds, err = parseBounds(getEnv("BOUNDS", "")); err != nil {
		return nil, fmt.Errorf("invalid BOUNDS value: %w", err)
	}
	radius, err := parsePositiveInt(getEnv("SEARCH_RADIUS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_RADIUS value: %w", err)
	}
	cfg.SearchRadius = uint(radius)
	if cfg.SearchAttempts, err = parsePositiveInt(getEnv("SEARCH_ATTEMPTS", "3")); err != nil {
		return nil, fmt.Errorf("invalid SEARCH_ATTEMPTS value: %w", err)
	}
	if cfg.MapsRateLimit, err = parsePositiveInt(getEnv("MAPS_RATE_LIMIT", "10")); err != nil {
		return nil, fmt.Errorf("invalid MAPS_RATE_LIMIT value: %w", err)
	}
	if cfg.RateLimit, err = parseRateLimit(getEnv("RATE_LIMIT", "10/min")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT value: %w", err)
	}

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	if v := strings.ToLower(strings.TrimSpace(value)); v == "off" || v == "none" {
		return RateLimitConfig{}, nil
	}

	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

// parseBounds reads "latLow,latHigh,lngLow,lngHigh". Each pair is normalised so low <= high.
func parseBounds(value string) (BoundingBox, error) {
	if strings.TrimSpace(value) == "" {
		return defaultBounds, nil
	}

	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("expected 4 comma separated numbers, got %q", value)
	}

	var nums [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		nums[i] = f
	}

	b := BoundingBox{
		LatLow:  min(nums[0], nums[1]),
		LatHigh: max(nums[0], nums[1]),
		LngLow:  min(nums[2], nums[3]),
		LngHigh: max(nums[2], nums[3]),
	}
	if b.LatLow < -90 || b.LatHigh > 90 || b.LngLow < -180 || b.LngHigh > 180 {
		return BoundingBox{}, fmt.Errorf("coordinates out of range: %q", value)
	}
	return b, nil
}

func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
