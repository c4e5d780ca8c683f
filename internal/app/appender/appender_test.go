package appender_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sa6mwa/addepisode/internal/app/appender"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/editor"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/locker"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/parser"
	"github.com/sa6mwa/id3v24"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" version="2.0">
  <channel>
    <title>Test Podcast</title>
    <item>
      <title>Episode 1</title>
      <guid isPermaLink="false">http://example.com/mp3s/ep1.mp3</guid>
    </item>
    <item>
      <title>Episode 2</title>
      <guid isPermaLink="false">http://example.com/mp3s/ep2.mp3</guid>
    </item>
  </channel>
</rss>
`

type fakeProber struct {
	info *model.AudioInfo
	err  error
}

func (f *fakeProber) Probe(ctx context.Context, audioPath string) (*model.AudioInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info := *f.info
	info.FileName = filepath.Base(audioPath)
	return &info, nil
}

type fakeAsker bool

func (f fakeAsker) Ask(ctx context.Context, format string, a ...any) bool {
	return bool(f)
}

type fakeUploader struct {
	uploads []ports.ForUploadingRequest
	diffs   []string
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, r *ports.ForUploadingRequest) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, *r)
	return nil
}

func (f *fakeUploader) Diff(ctx context.Context, bucket, key, fileToDiff string) error {
	f.diffs = append(f.diffs, bucket+"/"+key)
	return nil
}

var fixedNow = time.Date(2024, 3, 9, 18, 30, 0, 0, time.FixedZone("CET", 3600))

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.Discard())
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.ServerBase = "http://example.com/mp3s"
	cfg.Author = "Tester"
	cfg.Logo = "http://example.com/logo.jpg"
	return cfg
}

func testService(cfg *model.Config) *appender.Service {
	return &appender.Service{
		Config: cfg,
		Editor: editor.New(),
		Prober: &fakeProber{info: &model.AudioInfo{
			Length:      4711,
			Duration:    61*time.Minute + 5*time.Second + 900*time.Millisecond,
			ContentType: "audio/mpeg",
		}},
		Locker: locker.New(time.Second),
		Now:    func() time.Time { return fixedNow },
	}
}

func testRequest(t *testing.T) *appender.Request {
	t.Helper()
	dir := t.TempDir()
	feedPath := filepath.Join(dir, "feed.xml")
	if err := os.WriteFile(feedPath, []byte(testFeed), 0o644); err != nil {
		t.Fatal(err)
	}
	return &appender.Request{
		FeedPath: feedPath,
		Episode: &model.Episode{
			Name:        "Episode 3",
			Subtitle:    "Third",
			Description: "A *new* episode",
			Season:      "1",
			Number:      "3",
			Explicit:    model.ItunesExplicit{S: "true"},
			AudioPath:   filepath.Join(dir, "ep3.mp3"),
		},
	}
}

func readFeed(t *testing.T, feedPath string) string {
	t.Helper()
	b, err := os.ReadFile(feedPath)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestAppend(t *testing.T) {
	ctx := testContext()
	s := testService(testConfig())
	r := testRequest(t)

	result, err := s.Append(ctx, r)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Written {
		t.Error("expected feed to be written")
	}
	if result.ItemsBefore != 2 || result.ItemsAfter != 3 {
		t.Errorf("expected 2 items before and 3 after, got %d and %d", result.ItemsBefore, result.ItemsAfter)
	}

	feed := readFeed(t, r.FeedPath)
	first := strings.Index(feed, "<title>Episode 1</title>")
	second := strings.Index(feed, "<title>Episode 2</title>")
	third := strings.Index(feed, "<title>Episode 3</title>")
	if first < 0 || second < first || third < second {
		t.Errorf("expected items in order 1, 2, 3:\n%s", feed)
	}
	for _, want := range []string{
		"<pubDate>Sat, 09 Mar 2024 17:30:00 GMT</pubDate>",
		"<itunes:duration>01:01:05</itunes:duration>",
		"<itunes:explicit>true</itunes:explicit>",
		`<enclosure url="http://example.com/mp3s/ep3.mp3" length="4711" type="audio/mpeg"/>`,
		`<guid isPermaLink="false">http://example.com/mp3s/ep3.mp3</guid>`,
		"<description>A *new* episode</description>",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("expected feed to contain %s:\n%s", want, feed)
		}
	}
	if result.Item.GUID != result.Item.Enclosure.URL {
		t.Errorf("expected guid %q to equal enclosure url %q", result.Item.GUID, result.Item.Enclosure.URL)
	}
	if !strings.Contains(result.Diff, "+      <title>Episode 3</title>") {
		t.Errorf("expected diff to add the new title:\n%s", result.Diff)
	}
}

func TestAppendLeavesFeedUntouchedOnError(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"missing audio", fmt.Errorf("%w: /nowhere/ep3.mp3", model.ErrAudioFileMissing)},
		{"unsupported audio", fmt.Errorf("%w: text/plain", model.ErrUnsupportedAudioFormat)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := testService(testConfig())
			s.Prober = &fakeProber{err: tc.err}
			r := testRequest(t)
			_, err := s.Append(testContext(), r)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if got := readFeed(t, r.FeedPath); got != testFeed {
				t.Errorf("feed was modified:\n%s", got)
			}
		})
	}
}

func TestAppendMalformedFeed(t *testing.T) {
	s := testService(testConfig())
	r := testRequest(t)
	if err := os.WriteFile(r.FeedPath, []byte("<rss><title>no channel</title></rss>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(testContext(), r); !errors.Is(err, model.ErrMalformedFeed) {
		t.Errorf("expected %v, got %v", model.ErrMalformedFeed, err)
	}
	r.FeedPath = filepath.Join(t.TempDir(), "missing.xml")
	if _, err := s.Append(testContext(), r); !errors.Is(err, model.ErrFeedMissing) {
		t.Errorf("expected %v, got %v", model.ErrFeedMissing, err)
	}
}

func TestAppendMissingFeedTakesNoLock(t *testing.T) {
	dir := t.TempDir()
	for _, feedPath := range []string{
		filepath.Join(dir, "missing.xml"),
		filepath.Join(dir, "no", "such", "dir", "feed.xml"),
		dir,
	} {
		s := testService(testConfig())
		r := testRequest(t)
		r.FeedPath = feedPath
		if _, err := s.Append(testContext(), r); !errors.Is(err, model.ErrFeedMissing) {
			t.Errorf("%s: expected %v, got %v", feedPath, model.ErrFeedMissing, err)
		}
		if _, err := os.Stat(locker.LockPath(feedPath)); err == nil {
			t.Errorf("%s: lock file left behind for a missing feed", feedPath)
		}
	}
}

func TestAppendDryRun(t *testing.T) {
	s := testService(testConfig())
	r := testRequest(t)
	r.DryRun = true
	result, err := s.Append(testContext(), r)
	if err != nil {
		t.Fatal(err)
	}
	if result.Written {
		t.Error("dry-run must not write")
	}
	if got := readFeed(t, r.FeedPath); got != testFeed {
		t.Errorf("dry-run modified the feed:\n%s", got)
	}
	if !strings.Contains(result.Diff, "Episode 3") {
		t.Errorf("expected diff to mention the new episode:\n%s", result.Diff)
	}
	if _, err := os.Stat(locker.LockPath(r.FeedPath)); err == nil {
		t.Error("dry-run must not take the lock")
	}
}

func TestAppendDeclined(t *testing.T) {
	s := testService(testConfig())
	s.Asker = fakeAsker(false)
	r := testRequest(t)
	result, err := s.Append(testContext(), r)
	if err != nil {
		t.Fatal(err)
	}
	if result.Written {
		t.Error("declined append must not write")
	}
	if got := readFeed(t, r.FeedPath); got != testFeed {
		t.Errorf("declined append modified the feed:\n%s", got)
	}

	s.Asker = fakeAsker(true)
	if result, err = s.Append(testContext(), r); err != nil || !result.Written {
		t.Errorf("expected confirmed append to write, got %v", err)
	}
}

func TestAppendLocked(t *testing.T) {
	s := testService(testConfig())
	s.Locker = locker.New(50 * time.Millisecond)
	r := testRequest(t)
	unlock, err := locker.New(time.Second).Lock(testContext(), r.FeedPath)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()
	if _, err := s.Append(testContext(), r); !errors.Is(err, model.ErrFeedLocked) {
		t.Errorf("expected %v, got %v", model.ErrFeedLocked, err)
	}
	if got := readFeed(t, r.FeedPath); got != testFeed {
		t.Errorf("feed was modified while locked:\n%s", got)
	}
}

func TestAppendMarkdown(t *testing.T) {
	cfg := testConfig()
	cfg.Markdown = true
	s := testService(cfg)
	s.Renderer = parser.New()
	r := testRequest(t)
	result, err := s.Append(testContext(), r)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Item.DescriptionIsHTML {
		t.Error("expected an HTML description")
	}
	feed := readFeed(t, r.FeedPath)
	if !strings.Contains(feed, "<description><![CDATA[<p>A <em>new</em> episode</p>]]></description>") {
		t.Errorf("expected CDATA description:\n%s", feed)
	}
	if !strings.Contains(feed, "<itunes:summary>A *new* episode</itunes:summary>") {
		t.Errorf("expected summary to keep the plain text:\n%s", feed)
	}
}

func TestAppendChapters(t *testing.T) {
	s := testService(testConfig())
	s.Renderer = parser.New()
	r := testRequest(t)
	r.Episode.Chapters = []id3v24.Chapter{
		{Title: "Intro", Start: "00:01:30.000"},
		{Title: "Outro", Start: "00:02:00.000"},
	}
	if _, err := s.Append(testContext(), r); err != nil {
		t.Fatal(err)
	}
	feed := readFeed(t, r.FeedPath)
	for _, want := range []string{
		"<itunes:summary>A *new* episode\n\n(01:30) Intro\n(02:00) Outro</itunes:summary>",
		"<description>A *new* episode\n\n(01:30) Intro\n(02:00) Outro</description>",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("expected feed to contain %q:\n%s", want, feed)
		}
	}

	r = testRequest(t)
	r.Episode.Chapters = []id3v24.Chapter{{Title: "Broken", Start: "soon"}}
	if _, err := s.Append(testContext(), r); err == nil {
		t.Error("expected an error for an invalid chapter")
	}
	if got := readFeed(t, r.FeedPath); got != testFeed {
		t.Errorf("feed was modified:\n%s", got)
	}
}

func TestAppendPublish(t *testing.T) {
	cfg := testConfig()
	cfg.Aws.Buckets.Output = "podcast-bucket"
	cfg.Aws.Buckets.OutputStorageClass = "ONEZONE_IA"
	s := testService(cfg)
	u := &fakeUploader{}
	s.Uploader = u
	r := testRequest(t)
	r.Publish = true

	result, err := s.Append(testContext(), r)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Published {
		t.Error("expected result to be published")
	}
	if len(u.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(u.uploads))
	}
	audio, feed := u.uploads[0], u.uploads[1]
	if audio.To != "ep3.mp3" || audio.StorageClass != "ONEZONE_IA" || audio.ContentType != "audio/mpeg" {
		t.Errorf("unexpected audio upload %+v", audio)
	}
	if feed.To != "feed.xml" || feed.From != r.FeedPath || feed.ContentType != appender.FeedContentType {
		t.Errorf("unexpected feed upload %+v", feed)
	}
	if len(u.diffs) != 1 || u.diffs[0] != "podcast-bucket/feed.xml" {
		t.Errorf("expected a diff against the published feed, got %v", u.diffs)
	}
}

func TestAppendPublishFailure(t *testing.T) {
	s := testService(testConfig())
	s.Uploader = &fakeUploader{}
	r := testRequest(t)
	r.Publish = true
	result, err := s.Append(testContext(), r)
	if !errors.Is(err, model.ErrPublishFailure) {
		t.Fatalf("expected %v without a bucket, got %v", model.ErrPublishFailure, err)
	}
	if result == nil || !result.Written {
		t.Error("expected the local feed to be written before publishing")
	}

	cfg := testConfig()
	cfg.Aws.Buckets.Output = "podcast-bucket"
	s = testService(cfg)
	s.Uploader = &fakeUploader{err: errors.New("access denied")}
	r = testRequest(t)
	r.Publish = true
	if _, err := s.Append(testContext(), r); !errors.Is(err, model.ErrPublishFailure) {
		t.Errorf("expected %v, got %v", model.ErrPublishFailure, err)
	}
}

func TestAppendValidation(t *testing.T) {
	s := testService(testConfig())
	if _, err := s.Append(testContext(), nil); !errors.Is(err, model.ErrNilPointer) {
		t.Errorf("expected %v, got %v", model.ErrNilPointer, err)
	}
	r := testRequest(t)
	r.FeedPath = " "
	if _, err := s.Append(testContext(), r); !errors.Is(err, model.ErrMissingFeedPath) {
		t.Errorf("expected %v, got %v", model.ErrMissingFeedPath, err)
	}
}
