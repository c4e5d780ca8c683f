package model

import (
	"path/filepath"
	"time"

	"github.com/sa6mwa/id3v24"
)

// Episode is the input record for one new episode as given on the
// command line.
type Episode struct {
	Name        string
	Subtitle    string
	Description string
	// Season and Number are written verbatim, they are not required to
	// be numeric.
	Season    string
	Number    string
	Explicit  ItunesExplicit
	AudioPath string
	// Chapters are listed after the description, optional.
	Chapters []id3v24.Chapter
}

// AudioInfo is what the prober knows about the audio file of an
// episode.
type AudioInfo struct {
	FileName    string
	Length      int64
	Duration    time.Duration
	ContentType string
}

// Enclosure of an item.
type Enclosure struct {
	URL    string
	Length int64
	Type   string
}

// Item is the new feed item, one field per element in the order they
// are written.
type Item struct {
	Title       string
	Author      string
	Subtitle    string
	Summary     string
	Description string
	// DescriptionIsHTML makes the editor write Description as CDATA.
	DescriptionIsHTML bool
	Image             string
	Enclosure         Enclosure
	Duration          ItunesDuration
	Season            string
	Episode           string
	EpisodeType       string
	GUID              string
	PubDate           ItunesTime
	Explicit          ItunesExplicit
}

const EpisodeTypeFull = "full"

// NewItem combines episode, the probed audio info and the configuration
// into the Item to append. pubDate is normally time.Now().
func NewItem(cfg *Config, episode *Episode, audio *AudioInfo, pubDate time.Time) *Item {
	enclosureURL := cfg.EnclosureURL(audio.FileName)
	return &Item{
		Title:       episode.Name,
		Author:      cfg.Author,
		Subtitle:    episode.Subtitle,
		Summary:     episode.Description,
		Description: episode.Description,
		Image:       cfg.Logo,
		Enclosure: Enclosure{
			URL:    enclosureURL,
			Length: audio.Length,
			Type:   audio.ContentType,
		},
		Duration:    ItunesDuration{Duration: audio.Duration},
		Season:      episode.Season,
		Episode:     episode.Number,
		EpisodeType: EpisodeTypeFull,
		GUID:        enclosureURL,
		PubDate:     ItunesTime{Time: pubDate},
		Explicit:    episode.Explicit,
	}
}

// AudioFileName returns the final path segment of the episode's audio
// file.
func (e *Episode) AudioFileName() string {
	return filepath.Base(e.AudioPath)
}
