package ports

import (
	"context"

	"github.com/sa6mwa/addepisode/internal/app/model"
)

// ForReading reads an existing feed for display, it never modifies it.
type ForReading interface {
	ReadFeed(ctx context.Context, feedPath string) (*model.FeedSummary, error)
}
