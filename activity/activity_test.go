package activity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEntryString(t *testing.T) {
	e := Entry{
		Time:     time.Date(2026, 1, 2, 3, 4, 5, 678901000, time.UTC),
		Command:  "/restaurant",
		UserName: "Ana",
		UserID:   42,
		ChatID:   -100,
	}
	want := "2026-01-02 03:04:05.678901 - /restaurant - Ana - 42 - -100"
	if got := e.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestFileLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := NewFileLog(path)

	if err := l.Record(context.Background(), Entry{Command: "/start", UserName: "Ana", UserID: 1, ChatID: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Record(context.Background(), Entry{Command: "/bar", UserName: "Beto", UserID: 2, ChatID: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.HasSuffix(lines[0], " - /start - Ana - 1 - 10") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " - /bar - Beto - 2 - 20") {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}

func TestFileLogConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	l := NewFileLog(path)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Record(context.Background(), Entry{Command: "/bar", UserName: fmt.Sprintf("u%d", i), UserID: int64(i)}); err != nil {
				t.Errorf("record %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != writers {
		t.Fatalf("expected %d lines, got %d", writers, len(lines))
	}
	for _, line := range lines {
		if strings.Count(line, " - ") != 4 {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}

func TestFileLogOpenError(t *testing.T) {
	l := NewFileLog(filepath.Join(t.TempDir(), "missing", "activity.log"))
	if err := l.Record(context.Background(), Entry{Command: "/start"}); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

type recorderFunc func(ctx context.Context, e Entry) error

func (f recorderFunc) Record(ctx context.Context, e Entry) error { return f(ctx, e) }

func TestMultiRecordsEverywhere(t *testing.T) {
	boom := errors.New("db down")
	var got []Entry
	m := Multi{
		recorderFunc(func(_ context.Context, e Entry) error { return boom }),
		nil,
		recorderFunc(func(_ context.Context, e Entry) error { got = append(got, e); return nil }),
	}

	err := m.Record(context.Background(), Entry{Command: "/help"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(got) != 1 || got[0].Command != "/help" {
		t.Fatalf("second recorder not called: %+v", got)
	}
	if got[0].Time.IsZero() {
		t.Fatalf("expected timestamp to be filled in")
	}
}
