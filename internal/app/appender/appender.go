// appender adds one episode to an existing podcast feed. It is the
// application service tying the editing, probing, locking, asking,
// rendering and uploading ports together.
package appender

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/app/textdiff"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
)

// FeedContentType is the content-type of the feed when published.
const FeedContentType = "text/xml"

// Service appends episodes. Config, Editor and Prober are required,
// the other ports are optional.
type Service struct {
	Config *model.Config
	Editor ports.ForEditing
	Prober ports.ForProbing
	// Locker guards the read-modify-write of the feed. No locking if
	// nil.
	Locker ports.ForLocking
	// Asker confirms the write. The write is not confirmed if nil.
	Asker ports.ForAsking
	// Renderer lists chapters and renders markdown descriptions when
	// Config.Markdown is set. The description is used as is if nil.
	Renderer ports.ForRendering
	// Uploader publishes the audio and feed when Request.Publish is set.
	Uploader ports.ForUploading
	// Now returns the publication time of new items, time.Now if nil.
	Now func() time.Time
}

type Request struct {
	FeedPath string
	Episode  *model.Episode
	// DryRun computes the new feed and its diff without writing it.
	DryRun bool
	// Publish uploads the audio file and the feed to the configured
	// bucket after the feed has been written.
	Publish bool
}

type Result struct {
	Item        *model.Item
	ItemsBefore int
	ItemsAfter  int
	// Diff is the unified diff between the feed on disk and the new
	// feed.
	Diff string
	// Written is false on dry-run or if the write was declined.
	Written   bool
	Published bool
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) validate(r *Request) error {
	if s.Config == nil || s.Editor == nil || s.Prober == nil || r == nil || r.Episode == nil {
		return model.ErrNilPointer
	}
	if strings.TrimSpace(r.FeedPath) == "" {
		return model.ErrMissingFeedPath
	}
	return nil
}

// Append builds an item for r.Episode and appends it to the feed at
// r.FeedPath. The feed is left untouched unless every step up to and
// including the write succeeds.
func (s *Service) Append(ctx context.Context, r *Request) (*Result, error) {
	l := logger.FromContext(ctx)
	if err := s.validate(r); err != nil {
		return nil, err
	}
	pubDate := s.now()

	// The lock file is created next to the feed, so check the feed
	// first.
	if err := s.Editor.Exists(ctx, r.FeedPath); err != nil {
		return nil, err
	}
	if s.Locker != nil && !r.DryRun {
		unlock, err := s.Locker.Lock(ctx, r.FeedPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(); err != nil {
				l.Warn("Unable to release lock", "feed", r.FeedPath, "error", err)
			}
		}()
	}

	doc, err := s.Editor.Open(ctx, r.FeedPath)
	if err != nil {
		return nil, err
	}
	audio, err := s.Prober.Probe(ctx, r.Episode.AudioPath)
	if err != nil {
		return nil, err
	}

	item := model.NewItem(s.Config, r.Episode, audio, pubDate)
	if err := s.render(item, r.Episode); err != nil {
		return nil, err
	}

	result := &Result{
		Item:        item,
		ItemsBefore: doc.ItemCount(),
	}
	if err := doc.Append(item); err != nil {
		return nil, fmt.Errorf("unable to append item: %w", err)
	}
	result.ItemsAfter = doc.ItemCount()
	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to serialize feed: %w", model.ErrWriteFailure, err)
	}
	result.Diff = textdiff.Unified(r.FeedPath, r.FeedPath, string(doc.Original()), string(data))

	l.Info("New episode", "title", item.Title, "season", item.Season, "episode", item.Episode, "duration", item.Duration.String(), "url", item.Enclosure.URL, "pubDate", item.PubDate.String())

	if r.DryRun {
		l.Info("Dry-run, not writing feed", "feed", r.FeedPath, "items", result.ItemsAfter)
		return result, nil
	}
	if s.Asker != nil && !s.Asker.Ask(ctx, "Append %q to %s?", item.Title, r.FeedPath) {
		l.Info("Not writing feed", "feed", r.FeedPath)
		return result, nil
	}
	if err := s.Editor.Save(ctx, r.FeedPath, data); err != nil {
		return result, err
	}
	result.Written = true
	l.Info("Appended episode", "feed", r.FeedPath, "itemsBefore", result.ItemsBefore, "itemsAfter", result.ItemsAfter)

	if r.Publish {
		if err := s.publish(ctx, r, audio); err != nil {
			return result, fmt.Errorf("%w: %w", model.ErrPublishFailure, err)
		}
		result.Published = true
	}
	return result, nil
}

// render adds the chapter list to summary and description and renders
// the description as HTML if markdown is enabled.
func (s *Service) render(item *model.Item, episode *model.Episode) error {
	if s.Renderer == nil {
		return nil
	}
	chapters, err := s.Renderer.SpotifyChapters(episode.Chapters)
	if err != nil {
		return err
	}
	chapters = strings.TrimRight(chapters, "\n")
	item.Summary = joinParagraphs(episode.Description, chapters)
	item.Description = item.Summary
	if s.Config.Markdown {
		// Two trailing spaces keep each chapter on its own line.
		md := joinParagraphs(episode.Description, strings.ReplaceAll(chapters, "\n", "  \n"))
		item.Description = s.Renderer.MarkdownToHTML(md)
		item.DescriptionIsHTML = true
	}
	return nil
}

func joinParagraphs(a, b string) string {
	switch {
	case b == "":
		return a
	case strings.TrimSpace(a) == "":
		return b
	}
	return strings.TrimRight(a, "\n") + "\n\n" + b
}

// publish uploads the audio file and then the feed, showing the
// difference to the currently published feed first.
func (s *Service) publish(ctx context.Context, r *Request, audio *model.AudioInfo) error {
	l := logger.FromContext(ctx)
	if s.Uploader == nil {
		return errors.New("no uploader")
	}
	if !s.Config.Aws.Configured() {
		return errors.New("no output bucket configured")
	}
	bucket := s.Config.Aws.Buckets.Output
	if err := s.Uploader.Upload(ctx, &ports.ForUploadingRequest{
		Store:        bucket,
		To:           audio.FileName,
		From:         r.Episode.AudioPath,
		ContentType:  audio.ContentType,
		StorageClass: s.Config.Aws.Buckets.GetStorageClass(),
	}); err != nil {
		return err
	}
	feedKey := s.Config.Aws.Buckets.FeedKey
	if strings.TrimSpace(feedKey) == "" {
		feedKey = filepath.Base(r.FeedPath)
	}
	if err := s.Uploader.Diff(ctx, bucket, feedKey, r.FeedPath); err != nil {
		l.Warn("Unable to diff published feed", "bucket", bucket, "key", feedKey, "error", err)
	}
	return s.Uploader.Upload(ctx, &ports.ForUploadingRequest{
		Store:        bucket,
		To:           feedKey,
		From:         r.FeedPath,
		ContentType:  FeedContentType,
		StorageClass: "STANDARD",
	})
}
