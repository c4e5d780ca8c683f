package ports

import "github.com/sa6mwa/id3v24"

// ForRendering renders episode descriptions.
type ForRendering interface {
	// MarkdownToHTML turns a description written in markdown into HTML.
	MarkdownToHTML(md string) string
	// SpotifyChapters returns chapters as "(MM:SS) Title" lines, or an
	// empty string if there are none.
	SpotifyChapters(chapters []id3v24.Chapter) (string, error)
}
