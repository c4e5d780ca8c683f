package model

import "errors"

// Errors returned by the appender and its adapters. Adapters wrap these
// with the underlying cause, test with errors.Is.
var (
	ErrMalformedFeed          error = errors.New("malformed feed")
	ErrFeedMissing            error = errors.New("feed file does not exist")
	ErrAudioFileMissing       error = errors.New("audio file does not exist")
	ErrUnsupportedAudioFormat error = errors.New("unsupported audio format")
	ErrWriteFailure           error = errors.New("unable to write feed")
	ErrFeedLocked             error = errors.New("feed is locked by another process")
	ErrPublishFailure         error = errors.New("unable to publish")
	ErrInvalidExplicit        error = errors.New(`explicit must be "true" or "false"`)
	ErrMissingFeedPath        error = errors.New("missing feed path")
	ErrNilPointer             error = errors.New("received nil pointer")
)
