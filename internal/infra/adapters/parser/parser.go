// parser reads existing feeds with github.com/mmcdole/gofeed for
// display and renders markdown episode descriptions into HTML. Implements
// the ports.ForReading and ports.ForRendering interfaces.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/mmcdole/gofeed"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
)

// forParsing implements the ports.ForReading and ports.ForRendering
// ports (interfaces).
type forParsing struct {
	newParser func() *gofeed.Parser
}

// Parser is both a feed reader and a markdown renderer.
type Parser interface {
	ports.ForReading
	ports.ForRendering
}

func New() Parser {
	return &forParsing{
		newParser: gofeed.NewParser,
	}
}

func (p *forParsing) ReadFeed(ctx context.Context, feedPath string) (*model.FeedSummary, error) {
	l := logger.FromContext(ctx)
	f, err := os.Open(feedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrFeedMissing, feedPath)
		}
		return nil, err
	}
	defer f.Close()

	feed, err := p.newParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrMalformedFeed, feedPath, err)
	}

	summary := &model.FeedSummary{
		Title: feed.Title,
		Link:  feed.Link,
		Items: make([]model.FeedItem, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		fi := model.FeedItem{
			Title:   item.Title,
			PubDate: item.PublishedParsed,
			GUID:    item.GUID,
		}
		if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
			fi.Enclosure.URL = item.Enclosures[0].URL
			fi.Enclosure.Type = item.Enclosures[0].Type
			if n, err := strconv.ParseInt(item.Enclosures[0].Length, 10, 64); err == nil {
				fi.Enclosure.Length = n
			}
		}
		if it := item.ITunesExt; it != nil {
			fi.Season = it.Season
			fi.Episode = it.Episode
			fi.Explicit = it.Explicit
			d, err := model.ParseItunesDuration(it.Duration)
			if err != nil {
				l.Debug("Ignoring unparsable duration", "title", item.Title, "error", err)
			}
			fi.Duration = d
		}
		summary.Items = append(summary.Items, fi)
	}
	l.Debug("Read feed", "feed", feedPath, "title", summary.Title, "items", len(summary.Items))
	return summary, nil
}
