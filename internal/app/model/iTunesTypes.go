package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sa6mwa/mp3duration"
)

// RFC822 layout used for pubDate, RFC1123 with a numeric zone (Itunes
// "RFC2822" date format).
const RFC822 = "Mon, 02 Jan 2006 15:04:05 -0700"

type ItunesTime struct {
	time.Time
}

// String returns the time in UTC formatted as RFC822 where a zero offset
// is written as GMT instead of +0000, as most podcast feeds do.
func (t ItunesTime) String() string {
	s := t.UTC().Format(RFC822)
	if strings.HasSuffix(s, "+0000") {
		s = strings.TrimSuffix(s, "+0000") + "GMT"
	}
	return s
}

// Explicit flag of an item. Only the literal values "true" and "false"
// are accepted and they are written back unchanged.
type ItunesExplicit struct {
	S string
}

func ParseExplicit(s string) (ItunesExplicit, error) {
	switch s {
	case "true", "false":
		return ItunesExplicit{S: s}, nil
	}
	return ItunesExplicit{}, fmt.Errorf("%w, got %q", ErrInvalidExplicit, s)
}

func (e ItunesExplicit) String() string {
	return e.S
}

// The Apple RSS has a specific duration format.
type ItunesDuration struct {
	time.Duration
}

// Return duration as string in Itunes Duration HH:MM:SS format. Partial
// seconds are truncated, hours are not wrapped at 24 and negative
// durations are written as 00:00:00.
func (d ItunesDuration) String() string {
	if d.Duration < 0 {
		return mp3duration.FormatDuration(0)
	}
	return mp3duration.FormatDuration(d.Duration.Truncate(time.Second))
}

// ParseItunesDuration parses the forms found in the wild in
// itunes:duration, HH:MM:SS, MM:SS or plain seconds.
func ParseItunesDuration(s string) (ItunesDuration, error) {
	durationString := strings.TrimSpace(s)
	if durationString == "" {
		return ItunesDuration{}, nil
	}
	values := strings.Split(durationString, ":")
	if len(values) > 3 {
		return ItunesDuration{}, fmt.Errorf("duration must be in the format HH:MM:SS, MM:SS or seconds, not %s", durationString)
	}
	var total time.Duration
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ItunesDuration{}, fmt.Errorf("invalid duration %q: %w", durationString, err)
		}
		if n < 0 {
			return ItunesDuration{}, fmt.Errorf("invalid duration %q: negative value", durationString)
		}
		total = total*60 + time.Duration(n)
	}
	return ItunesDuration{Duration: total * time.Second}, nil
}
