// Package statelock serializes writers of the sync state across processes.
package statelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked indicates another process holds the state lock.
var ErrLocked = errors.New("state is locked by another skillsync process")

// Lock is a held advisory lock next to the state file.
type Lock struct {
	file *os.File
}

// Path returns the lock file used for statePath.
func Path(statePath string) string {
	return statePath + ".lock"
}

// Acquire takes the exclusive lock for statePath without blocking.
func Acquire(statePath string) (*Lock, error) {
	lockPath := Path(statePath)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open state lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(file); err != nil {
		file.Close()
		if isWouldBlockError(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to acquire state lock: %w", err)
	}
	return &Lock{file: file}, nil
}

// Release drops the lock. It is safe on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
