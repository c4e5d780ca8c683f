package ports

import (
	"context"

	"github.com/sa6mwa/addepisode/internal/app/model"
)

// FeedDocument is a parsed podcast feed held in memory.
type FeedDocument interface {
	// ItemCount returns the number of item elements in the channel.
	ItemCount() int
	// Append adds item as the last element of the channel.
	Append(item *model.Item) error
	// Original returns the bytes the document was parsed from.
	Original() []byte
	// Bytes serializes the document, including the XML declaration.
	Bytes() ([]byte, error)
}

type ForEditing interface {
	// Exists returns model.ErrFeedMissing (wrapped) if there is no
	// regular file at feedPath.
	Exists(ctx context.Context, feedPath string) error
	// Open parses the feed at feedPath. Returns model.ErrFeedMissing
	// or model.ErrMalformedFeed (wrapped) on failure.
	Open(ctx context.Context, feedPath string) (FeedDocument, error)
	// Save replaces feedPath with data. Either the whole file is
	// replaced or it is left as it was. Returns model.ErrWriteFailure
	// (wrapped) on failure.
	Save(ctx context.Context, feedPath string, data []byte) error
}
