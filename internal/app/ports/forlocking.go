package ports

import "context"

// UnlockFunc releases a lock acquired through ForLocking.
type UnlockFunc func() error

type ForLocking interface {
	// Lock blocks until the feed at feedPath is exclusively locked.
	// If someone else holds the lock past the adapter's timeout,
	// model.ErrFeedLocked is returned (wrapped).
	Lock(ctx context.Context, feedPath string) (UnlockFunc, error)
}
