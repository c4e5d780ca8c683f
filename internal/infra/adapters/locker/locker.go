// locker serializes concurrent edits of the same feed with an advisory
// file lock (github.com/gofrs/flock) on a sibling file named
// <feed>.lock. Implements the ports.ForLocking interface.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
)

const (
	LockFileSuffix = ".lock"
	DefaultTimeout = 10 * time.Second
	retryDelay     = 100 * time.Millisecond
)

type forLocking struct {
	timeout time.Duration
}

// New returns a locker that waits at most timeout for a lock held by
// someone else. A timeout <= 0 means DefaultTimeout.
func New(timeout time.Duration) ports.ForLocking {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &forLocking{timeout: timeout}
}

// LockPath returns the path of the lock file guarding feedPath.
func LockPath(feedPath string) string {
	return feedPath + LockFileSuffix
}

func (f *forLocking) Lock(ctx context.Context, feedPath string) (ports.UnlockFunc, error) {
	l := logger.FromContext(ctx)
	lockPath := LockPath(feedPath)
	fl := flock.New(lockPath)

	lctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	ok, err := fl.TryLockContext(lctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s held for more than %s", model.ErrFeedLocked, lockPath, f.timeout)
		}
		return nil, fmt.Errorf("unable to lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrFeedLocked, lockPath)
	}
	l.Debug("Locked feed", "lock", lockPath)

	// The lock file itself is left in place, removing it would let a
	// waiting process lock an unlinked inode.
	return func() error {
		if err := fl.Unlock(); err != nil {
			return fmt.Errorf("unable to unlock %s: %w", lockPath, err)
		}
		l.Debug("Unlocked feed", "lock", lockPath)
		return nil
	}, nil
}
