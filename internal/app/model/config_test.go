package model

import (
	"testing"
	"time"
)

func TestEnclosureURL(t *testing.T) {
	tables := []struct {
		base string
		file string
		want string
	}{
		{"http://SERVER_IP/mp3s/", "ep1.mp3", "http://SERVER_IP/mp3s/ep1.mp3"},
		{"https://cdn.example.com/pod", "ep1.mp3", "https://cdn.example.com/pod/ep1.mp3"},
		{"https://cdn.example.com/pod/", "episode 2.mp3", "https://cdn.example.com/pod/episode%202.mp3"},
	}
	for _, table := range tables {
		c := &Config{ServerBase: table.base}
		if got := c.EnclosureURL(table.file); got != table.want {
			t.Errorf("EnclosureURL(%q) with base %q was incorrect, got: %s, want: %s", table.file, table.base, got, table.want)
		}
	}
}

func TestSetDefaultsAndPlaceholders(t *testing.T) {
	c := &Config{Author: "Jane Doe"}
	c.SetDefaults()
	if c.ServerBase != DefaultServerBase || c.Logo != DefaultLogo {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.Author != "Jane Doe" {
		t.Errorf("author was overwritten: %q", c.Author)
	}
	got := c.Placeholders()
	if len(got) != 2 || got[0] != "serverBase" || got[1] != "logo" {
		t.Errorf("Placeholders() was incorrect, got: %v", got)
	}
	if len(DefaultConfig().Placeholders()) != 3 {
		t.Errorf("expected all fields of DefaultConfig to be placeholders")
	}
}

func TestNewItem(t *testing.T) {
	cfg := &Config{ServerBase: "https://pod.example.com/mp3s/", Author: "Jane", Logo: "https://pod.example.com/logo.jpg"}
	explicit, err := ParseExplicit("true")
	if err != nil {
		t.Fatal(err)
	}
	episode := &Episode{
		Name:        "Pilot",
		Subtitle:    "The first one",
		Description: "Where it all started",
		Season:      "1",
		Number:      "1",
		Explicit:    explicit,
		AudioPath:   "/tmp/audio/pilot.mp3",
	}
	audio := &AudioInfo{FileName: episode.AudioFileName(), Length: 1234, Duration: 3725 * time.Second, ContentType: "audio/mpeg"}
	item := NewItem(cfg, episode, audio, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	if item.GUID != item.Enclosure.URL {
		t.Errorf("guid %q and enclosure url %q differ", item.GUID, item.Enclosure.URL)
	}
	if want := "https://pod.example.com/mp3s/pilot.mp3"; item.Enclosure.URL != want {
		t.Errorf("expected: %q\ngot: %q", want, item.Enclosure.URL)
	}
	if item.Duration.String() != "01:02:05" {
		t.Errorf("duration was incorrect, got: %s", item.Duration)
	}
	if item.EpisodeType != "full" {
		t.Errorf("episode type was incorrect, got: %s", item.EpisodeType)
	}
	if item.Explicit.String() != "true" {
		t.Errorf("explicit was incorrect, got: %s", item.Explicit)
	}
	if item.Summary != episode.Description || item.Description != episode.Description {
		t.Errorf("summary and description should both carry the description")
	}
	if item.PubDate.String() != "Tue, 02 Jan 2024 03:04:05 GMT" {
		t.Errorf("pubDate was incorrect, got: %s", item.PubDate)
	}
}
