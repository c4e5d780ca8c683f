package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/sa6mwa/id3v24"
)

// SpotifyChapters returns the chapter list Spotify picks up from an
// episode description, one "(MM:SS) Title" line per chapter. The format
// is (HH:MM:SS) if any chapter starts at or after one hour. Returns an
// empty string if there are no chapters. See
// https://support.spotify.com/us/creators/article/creating-and-managing-chapters/
func SpotifyChapters(chapters []id3v24.Chapter) (string, error) {
	if len(chapters) == 0 {
		return "", nil
	}
	oneHour, err := time.Parse("15:04:05", "01:00:00")
	if err != nil {
		return "", err
	}
	type spotifyChapter struct {
		title string
		start time.Time
	}
	var schaps []spotifyChapter
	var longTimeFormat bool
	for _, c := range chapters {
		s, err := id3v24.StringTimeToTime(c.Start)
		if err != nil {
			return "", fmt.Errorf("invalid start %q of chapter %q: %w", c.Start, c.Title, err)
		}
		schaps = append(schaps, spotifyChapter{
			title: c.Title,
			start: s,
		})
		if !s.Before(oneHour) {
			longTimeFormat = true
		}
	}
	layout := "04:05"
	if longTimeFormat {
		layout = "15:04:05"
	}
	var sb strings.Builder
	for _, c := range schaps {
		fmt.Fprintf(&sb, "(%s) %s\n", c.start.Format(layout), strings.TrimSpace(c.title))
	}
	return sb.String(), nil
}

func (p *forParsing) SpotifyChapters(chapters []id3v24.Chapter) (string, error) {
	return SpotifyChapters(chapters)
}
