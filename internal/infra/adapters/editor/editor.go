// editor is the default file-based feed editor. It parses the podcast
// RSS feed into a github.com/beevik/etree document, appends new items to
// the channel and writes the document back atomically. Implements the
// ports.ForEditing interface.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/sa6mwa/addepisode/internal/app/humanreadable"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
)

// ItunesNamespace is the namespace of the podcast elements (itunes:*).
const ItunesNamespace = "http://www.itunes.com/dtds/podcast-1.0.dtd"

const (
	defaultItunesPrefix = "itunes"
	defaultIndentUnit   = "  "
	xmlDeclaration      = `version="1.0" encoding="UTF-8"`
)

// Some feeds in the wild bind the https variant, podcast apps accept
// both.
var itunesNamespaces = []string{ItunesNamespace, "https://www.itunes.com/dtds/podcast-1.0.dtd"}

type forEditing struct{}

// Returns a new editor adapter implementing the ForEditing port
// interface.
func New() ports.ForEditing {
	return &forEditing{}
}

func (e *forEditing) Exists(ctx context.Context, feedPath string) error {
	fi, err := os.Stat(feedPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", model.ErrFeedMissing, feedPath)
	case err != nil:
		return fmt.Errorf("unable to stat %s: %w", feedPath, err)
	case fi.IsDir():
		return fmt.Errorf("%w: %s is a directory", model.ErrFeedMissing, feedPath)
	}
	return nil
}

func (e *forEditing) Open(ctx context.Context, feedPath string) (ports.FeedDocument, error) {
	l := logger.FromContext(ctx)
	data, err := os.ReadFile(feedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrFeedMissing, feedPath)
		}
		return nil, fmt.Errorf("unable to read %s: %w", feedPath, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", feedPath, err)
	}
	l.Debug("Parsed feed", "feed", feedPath, "items", doc.ItemCount(), "size", len(data), "humanSize", humanreadable.IEC(int64(len(data))))
	return doc, nil
}

// Save writes data to a temporary file next to feedPath and renames it
// over feedPath, keeping the permissions of the existing file.
func (e *forEditing) Save(ctx context.Context, feedPath string, data []byte) error {
	l := logger.FromContext(ctx)
	perm := os.FileMode(0o644)
	if fi, err := os.Stat(feedPath); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := writeFileAtomic(feedPath, data, perm); err != nil {
		return fmt.Errorf("%w %s: %w", model.ErrWriteFailure, feedPath, err)
	}
	l.Debug("Wrote feed", "feed", feedPath, "size", len(data), "humanSize", humanreadable.IEC(int64(len(data))))
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Document is a parsed feed. Implements ports.FeedDocument.
type Document struct {
	doc      *etree.Document
	channel  *etree.Element
	original []byte
}

// Parse parses data as a podcast RSS feed. The root must be rss with
// exactly one channel element, otherwise model.ErrMalformedFeed is
// returned (wrapped).
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedFeed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", model.ErrMalformedFeed)
	}
	if root.Space != "" || root.Tag != "rss" {
		return nil, fmt.Errorf("%w: root element is %s, not rss", model.ErrMalformedFeed, root.FullTag())
	}
	channels := root.SelectElements("channel")
	switch len(channels) {
	case 0:
		return nil, fmt.Errorf("%w: no channel element", model.ErrMalformedFeed)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d channel elements, expected one", model.ErrMalformedFeed, len(channels))
	}
	return &Document{
		doc:      doc,
		channel:  channels[0],
		original: data,
	}, nil
}

func (d *Document) ItemCount() int {
	return len(d.channel.SelectElements("item"))
}

func (d *Document) Original() []byte {
	return d.original
}

// Bytes serializes the document. An XML declaration is added if the
// document did not have one.
func (d *Document) Bytes() ([]byte, error) {
	if !d.hasDeclaration() {
		d.doc.InsertChildAt(0, etree.NewProcInst("xml", xmlDeclaration))
		d.doc.InsertChildAt(1, etree.NewText("\n"))
	}
	return d.doc.WriteToBytes()
}

func (d *Document) hasDeclaration() bool {
	for _, t := range d.doc.Child {
		if p, ok := t.(*etree.ProcInst); ok && p.Target == "xml" {
			return true
		}
	}
	return false
}

// Append adds item as the last element of the channel. If the channel
// is indented, the item is indented the same way as its siblings.
func (d *Document) Append(item *model.Item) error {
	if item == nil {
		return model.ErrNilPointer
	}
	prefix := d.itunesPrefix()
	lead, unit := d.indentation()

	e := etree.NewElement("item")
	add := func(tag string) *etree.Element {
		if lead != "" {
			e.CreateText(lead + unit)
		}
		return e.CreateElement(tag)
	}
	itunes := func(name string) string {
		return prefix + ":" + name
	}

	add("title").SetText(item.Title)
	add(itunes("title")).SetText(item.Title)
	add(itunes("author")).SetText(item.Author)
	add(itunes("subtitle")).SetText(item.Subtitle)
	add(itunes("summary")).SetText(item.Summary)
	description := add("description")
	if item.DescriptionIsHTML {
		description.SetCData(item.Description)
	} else {
		description.SetText(item.Description)
	}
	add(itunes("image")).CreateAttr("href", item.Image)
	enclosure := add("enclosure")
	enclosure.CreateAttr("url", item.Enclosure.URL)
	enclosure.CreateAttr("length", strconv.FormatInt(item.Enclosure.Length, 10))
	enclosure.CreateAttr("type", item.Enclosure.Type)
	add(itunes("duration")).SetText(item.Duration.String())
	add(itunes("season")).SetText(item.Season)
	add(itunes("episode")).SetText(item.Episode)
	add(itunes("episodeType")).SetText(item.EpisodeType)
	guid := add("guid")
	guid.CreateAttr("isPermaLink", "false")
	guid.SetText(item.GUID)
	add("pubDate").SetText(item.PubDate.String())
	add(itunes("explicit")).SetText(item.Explicit.String())
	if lead != "" {
		e.CreateText(lead)
	}

	// Insert after the last non-whitespace token so trailing
	// indentation before </channel> stays where it is.
	at := len(d.channel.Child)
	for i := len(d.channel.Child) - 1; i >= 0; i-- {
		if c, ok := d.channel.Child[i].(*etree.CharData); ok && c.IsWhitespace() {
			at = i
			continue
		}
		break
	}
	if lead != "" {
		d.channel.InsertChildAt(at, etree.NewText(lead))
		at++
	}
	d.channel.InsertChildAt(at, e)
	return nil
}

// itunesPrefix returns the prefix bound to the iTunes namespace on the
// root element, declaring xmlns:itunes if there is none.
func (d *Document) itunesPrefix() string {
	root := d.doc.Root()
	taken := make(map[string]bool)
	for _, a := range root.Attr {
		if a.Space != "xmlns" {
			continue
		}
		for _, ns := range itunesNamespaces {
			if a.Value == ns {
				return a.Key
			}
		}
		taken[a.Key] = true
	}
	prefix := defaultItunesPrefix
	for i := 1; taken[prefix]; i++ {
		prefix = defaultItunesPrefix + strconv.Itoa(i)
	}
	root.CreateAttr("xmlns:"+prefix, ItunesNamespace)
	return prefix
}

// indentation returns the whitespace preceding the last element of the
// channel and the indentation unit (difference to the channel's own
// indentation). Both are empty if the channel is not indented.
func (d *Document) indentation() (lead, unit string) {
	lead = leadingWhitespace(d.channel, lastElement(d.channel))
	if lead == "" || !strings.Contains(lead, "\n") {
		return "", ""
	}
	unit = defaultIndentUnit
	if channelLead := leadingWhitespace(d.channel.Parent(), d.channel); channelLead != "" && strings.HasPrefix(lead, channelLead) && len(lead) > len(channelLead) {
		unit = strings.TrimPrefix(lead, channelLead)
	}
	return lead, unit
}

func lastElement(parent *etree.Element) *etree.Element {
	for i := len(parent.Child) - 1; i >= 0; i-- {
		if e, ok := parent.Child[i].(*etree.Element); ok {
			return e
		}
	}
	return nil
}

// leadingWhitespace returns the whitespace text token right before
// child in parent, or "" if there is none.
func leadingWhitespace(parent, child *etree.Element) string {
	if parent == nil || child == nil {
		return ""
	}
	i := child.Index()
	if i <= 0 || i > len(parent.Child) {
		return ""
	}
	if c, ok := parent.Child[i-1].(*etree.CharData); ok && c.IsWhitespace() {
		return c.Data
	}
	return ""
}
