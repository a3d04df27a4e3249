// Package activity keeps the append-only record of commands received by the bot.
package activity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05.000000"

// Entry is one received command.
type Entry struct {
	Time     time.Time
	Command  string
	UserName string
	UserID   int64
	ChatID   int64
}

// String renders the entry as a log line without the trailing newline.
func (e Entry) String() string {
	return fmt.Sprintf("%s - %s - %s - %d - %d", e.Time.Format(timeLayout), e.Command, e.UserName, e.UserID, e.ChatID)
}

// Recorder stores activity entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// FileLog appends one line per entry to a text file. The file is opened and
// closed on every write; a mutex serializes concurrent writers.
type FileLog struct {
	mu   sync.Mutex
	path string
}

func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the file the log appends to.
func (l *FileLog) Path() string {
	return l.path
}

func (l *FileLog) Record(_ context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	line := e.String() + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open activity log %q: %w", l.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("write activity log %q: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close activity log %q: %w", l.path, err)
	}
	return nil
}

// Multi records every entry in each recorder, in order, and joins their errors.
// A failing recorder does not stop the ones after it.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
