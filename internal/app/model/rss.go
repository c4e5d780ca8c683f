package model

import "time"

// FeedItem is the read side of an existing item, as listed by the list
// command.
type FeedItem struct {
	Title     string
	Season    string
	Episode   string
	Duration  ItunesDuration
	Explicit  string
	PubDate   *time.Time
	GUID      string
	Enclosure Enclosure
}

// FeedSummary is the channel with its items in document order.
type FeedSummary struct {
	Title string
	Link  string
	Items []FeedItem
}
