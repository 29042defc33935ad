package syncer

import (
	"fmt"
	"strings"
)

// ConflictError reports keys with two or more independent real copies.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Key, strings.Join(c.Paths, ", ")))
	}
	return fmt.Sprintf("skill conflict: %d key(s) have multiple independent copies: %s",
		len(e.Conflicts), strings.Join(parts, "; "))
}

// MigrationError reports a failed move of canonical content. Filesystem state
// may be mid-change when it is returned.
type MigrationError struct {
	Key  string
	From string
	To   string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration failed for %s (%s -> %s): %v", e.Key, e.From, e.To, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
