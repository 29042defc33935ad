// Package audit keeps an append-only JSON-lines journal of skill mutations
// (delete, archive, restore, promote, rename).
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one journal line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Operation string    `json:"op"`
	ID        string    `json:"id"`
	SkillKey  string    `json:"skill_key"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Logger appends entries to the journal file.
type Logger struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New returns a logger writing to path. An empty path disables it.
func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Enabled reports whether entries are written anywhere.
func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

// Log appends entry, stamping it when no timestamp is set.
func (l *Logger) Log(entry Entry) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Read returns every entry, oldest first. Malformed lines are skipped.
func (l *Logger) Read() ([]Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// Recent returns up to limit entries at or after since, newest first. A zero
// since or limit disables that bound.
func (l *Logger) Recent(since time.Time, limit int) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		entry := all[i]
		if !since.IsZero() && entry.Timestamp.Before(since) {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
