package infra

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLockHeld is returned by TryLock when another consumer owns the lock.
var ErrLockHeld = errors.New("consumer lock held")

// ConsumerLock is an advisory file lock that keeps a second process from consuming the same
// queue.
type ConsumerLock struct {
	lockFile *flock.Flock
	lockPath string
}

var unsafeLockChars = regexp.MustCompile(`[^\w\-.]`)

// NewConsumerLock prepares a lock for queue under dir (the system temp dir when empty).
func NewConsumerLock(dir, queue string) (*ConsumerLock, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ping-relay")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create lock directory")
	}

	name := strings.Trim(unsafeLockChars.ReplaceAllString(queue, "-"), ".-")
	if name == "" {
		name = "default"
	}
	lockPath := filepath.Join(dir, name+".lock")

	return &ConsumerLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
	}, nil
}

// TryLock acquires the lock or fails immediately if another consumer holds it.
func (l *ConsumerLock) TryLock() error {
	locked, err := l.lockFile.TryLock()
	if err != nil {
		return errors.Wrap(err, "failed to try lock")
	}
	if !locked {
		return errors.Wrapf(ErrLockHeld, "another consumer already holds %s", l.lockPath)
	}
	return nil
}

// Unlock releases the lock and removes the lock file.
func (l *ConsumerLock) Unlock() error {
	if err := l.lockFile.Unlock(); err != nil {
		return errors.Wrap(err, "failed to unlock")
	}
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove lock file")
	}
	return nil
}

// Path returns the lock file location.
func (l *ConsumerLock) Path() string {
	return l.lockPath
}
