package ports

import (
	"context"

	"github.com/sa6mwa/addepisode/internal/app/model"
)

// ForProbing reads size and duration of an audio file. Implementations
// return model.ErrAudioFileMissing if the file does not exist and
// model.ErrUnsupportedAudioFormat if the duration can not be decoded
// (both wrapped).
type ForProbing interface {
	Probe(ctx context.Context, audioPath string) (*model.AudioInfo, error)
}
