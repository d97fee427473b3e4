package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// LockFileName is the cache lock created inside the cache directory.
	LockFileName = ".lock"

	// StaleLockThreshold is the age after which a lock is assumed abandoned.
	StaleLockThreshold = 10 * time.Minute
)

// ErrLockExists is returned when another process holds the cache lock.
var ErrLockExists = errors.New("cache lock exists: another gearbox operation may be in progress")

// Lock is an exclusive lock on a cache directory.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the exclusive lock for dir, creating dir if needed.
// A lock older than StaleLockThreshold is broken once.
func AcquireLock(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, LockFileName)
	lock, err := createLock(lockPath)
	if !errors.Is(err, os.ErrExist) {
		return lock, err
	}

	age, statErr := lockAge(lockPath)
	if statErr == nil && age <= StaleLockThreshold {
		return nil, fmt.Errorf("%w (held for %s)", ErrLockExists, age.Round(time.Second))
	}
	if rmErr := os.Remove(lockPath); rmErr != nil && !os.IsNotExist(rmErr) {
		return nil, fmt.Errorf("break stale lock: %w", rmErr)
	}
	lock, err = createLock(lockPath)
	if errors.Is(err, os.ErrExist) {
		return nil, ErrLockExists
	}
	return lock, err
}

// createLock creates path exclusively and records the owning process in it.
// An existing lock surfaces as an error matching os.ErrExist.
func createLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, os.ErrExist
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	owner := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err = file.WriteString(owner); err == nil {
		err = file.Sync()
	}
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

func lockAge(path string) (time.Duration, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return time.Since(info.ModTime()), nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release releases the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
