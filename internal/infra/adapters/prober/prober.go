// prober is the default file-based audio prober, resolving byte length
// and duration of mp3 files (github.com/sa6mwa/mp3duration) and
// mp4/m4a/m4b files (github.com/alfg/mp4). Implements the
// ports.ForProbing interface.
package prober

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alfg/mp4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sa6mwa/addepisode/internal/app/humanreadable"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
	"github.com/sa6mwa/mp3duration"
)

// ContentTypeMP3 is the enclosure type of every mp3 episode.
const ContentTypeMP3 = "audio/mpeg"

// Content types decoded with the mp4 decoder, anything else is treated
// as mp3.
var mp4ContentTypes = []string{"audio/mp4", "audio/x-m4a", "audio/x-m4b", "video/mp4", "audio/x-mp4a-latm"}

type decodeFunc func(filename string) (time.Duration, error)

type forProbing struct {
	mp3 decodeFunc
	mp4 decodeFunc
}

// Returns a new prober adapter implementing the ForProbing port
// interface.
func New() ports.ForProbing {
	return &forProbing{
		mp3: Mp3Duration,
		mp4: Mp4Duration,
	}
}

func (p *forProbing) Probe(ctx context.Context, audioPath string) (*model.AudioInfo, error) {
	l := logger.FromContext(ctx)
	fi, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrAudioFileMissing, audioPath)
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", model.ErrUnsupportedAudioFormat, audioPath)
	}
	contentType, err := GetFileContentType(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to detect content-type of %s: %w", model.ErrUnsupportedAudioFormat, audioPath, err)
	}
	l.Debug("Probing audio", "file", audioPath, "contentType", contentType, "size", fi.Size())

	decode, enclosureType := p.mp3, ContentTypeMP3
	if isMp4(contentType) {
		decode, enclosureType = p.mp4, contentType
	}
	duration, err := decode(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrUnsupportedAudioFormat, audioPath, err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %s has no playable audio", model.ErrUnsupportedAudioFormat, audioPath)
	}
	info := &model.AudioInfo{
		FileName:    filepath.Base(audioPath),
		Length:      fi.Size(),
		Duration:    duration,
		ContentType: enclosureType,
	}
	l.Info(fmt.Sprintf("%s is %s long and %d bytes", info.FileName, model.ItunesDuration{Duration: duration}, info.Length), "file", audioPath, "duration", duration, "size", info.Length, "humanSize", humanreadable.IEC(info.Length))
	return info, nil
}

func isMp4(contentType string) bool {
	for _, t := range mp4ContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// GetFileContentType sniffs the content type of filename.
func GetFileContentType(filename string) (contentType string, err error) {
	mimetype.SetLimit(1024 * 1024)
	mimeType, err := mimetype.DetectFile(filename)
	if err != nil {
		return "", err
	}
	// Drop parameters such as charset.
	for _, t := range mp4ContentTypes {
		if mimeType.Is(t) {
			return t, nil
		}
	}
	return mimeType.String(), nil
}

// Mp3Duration returns the playing time of an mp3 file.
func Mp3Duration(filename string) (time.Duration, error) {
	di, err := mp3duration.ReadFile(filename)
	if err != nil {
		return 0, err
	}
	return di.TimeDuration, nil
}

// Mp4Duration returns the duration of an mp4 (or m4a/m4b) file from
// its movie header box.
func Mp4Duration(filename string) (time.Duration, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	m, err := mp4.OpenFromReader(f, info.Size())
	if err != nil {
		return 0, err
	}
	if m != nil && m.Moov != nil && m.Moov.Mvhd != nil {
		return time.Duration(m.Moov.Mvhd.Duration) * time.Millisecond, nil
	}
	return 0, fmt.Errorf("%s does not contain a Moov Mvhd box (maybe not an mp4?)", filename)
}
