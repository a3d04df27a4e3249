package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"donde-comemos-bot/config"
)

// maxTrackedUsers bounds the limiter map; it is reset when exceeded.
const maxTrackedUsers = 10000

// userLimiter applies a token bucket per Telegram user. A nil *userLimiter allows everything.
type userLimiter struct {
	mu    sync.Mutex
	every rate.Limit
	burst int
	users map[int64]*rate.Limiter
}

func newUserLimiter(cfg config.RateLimitConfig) *userLimiter {
	if !cfg.Enabled() {
		return nil
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}

	return &userLimiter{
		every: rate.Every(perRequest),
		burst: cfg.Requests,
		users: make(map[int64]*rate.Limiter),
	}
}

func (l *userLimiter) Allow(userID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.users[userID]
	if !ok {
		if len(l.users) >= maxTrackedUsers {
			l.users = make(map[int64]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.every, l.burst)
		l.users[userID] = lim
	}
	return lim.Allow()
}
