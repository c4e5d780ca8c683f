// uploader is the default AWS v1 publishing adapter. It uploads the
// episode audio and the updated feed to an S3 bucket and diffs the
// local feed against the published one before it is replaced.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sa6mwa/addepisode/internal/app/humanreadable"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/app/textdiff"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/downloader"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
)

var (
	ErrNilPointerRequest error = errors.New("received nil pointer as request")
	ErrFilenameMissing   error = errors.New("empty or missing filename given")
	ErrBucketMissing     error = errors.New("empty or missing bucket given")
	ErrSizeMismatch      error = errors.New("size of uploaded object differs from local file")
)

type forUploading struct {
	session    *session.Session
	out        io.Writer
	downloader ports.ForDownloading
}

// New returns an S3 uploader using the profile and region in cfg. Diff
// output is written to out, os.Stdout if nil.
func New(cfg *model.AwsConfig, out io.Writer) (ports.ForUploading, error) {
	s, err := downloader.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}
	return &forUploading{
		session:    s,
		out:        out,
		downloader: downloader.NewWithSession(s),
	}, nil
}

func getContentType(filename string) (contentType string, err error) {
	mimetype.SetLimit(1024 * 1024)
	mimeType, err := mimetype.DetectFile(filename)
	if err != nil {
		return "", err
	}
	return mimeType.String(), nil
}

// prepare validates r and fills in the defaults of the optional fields.
func prepare(r *ports.ForUploadingRequest) error {
	if r == nil {
		return ErrNilPointerRequest
	}
	if strings.TrimSpace(r.Store) == "" {
		return ErrBucketMissing
	}
	if strings.TrimSpace(r.From) == "" {
		return ErrFilenameMissing
	}
	if strings.TrimSpace(r.ContentType) == "" {
		var err error
		r.ContentType, err = getContentType(r.From)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(r.To) == "" {
		r.To = filepath.Base(r.From)
	}
	if r.StorageClass == "" {
		r.StorageClass = "STANDARD"
	}
	return nil
}

// Upload file in r.From as key r.To to S3 bucket r.Store. If
// ContentType is empty in r, function will attempt to detect the
// content-type of the file in the r.From field.
func (u *forUploading) Upload(ctx context.Context, r *ports.ForUploadingRequest) error {
	l := logger.FromContext(ctx)
	if err := prepare(r); err != nil {
		return err
	}
	s3path := "s3://" + path.Join(r.Store, r.To)
	fi, err := os.Stat(r.From)
	if err != nil {
		return err
	}
	l.Info("Uploading to S3", "file", r.From, "to", s3path, "contentType", r.ContentType, "storageClass", r.StorageClass, "size", fi.Size(), "humanSize", humanreadable.IEC(fi.Size()))
	f, err := os.Open(r.From)
	if err != nil {
		return err
	}
	defer f.Close()
	uploader := s3manager.NewUploader(u.session)
	result, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(r.Store),
		Key:          aws.String(r.To),
		ContentType:  aws.String(r.ContentType),
		Body:         f,
		StorageClass: aws.String(r.StorageClass),
	})
	if err != nil {
		return fmt.Errorf("upload to %s failed: %w", s3path, err)
	}
	size, err := u.downloader.GetSize(ctx, r.Store, r.To)
	if err != nil {
		return fmt.Errorf("unable to verify %s: %w", s3path, err)
	}
	if size != fi.Size() {
		return fmt.Errorf("%w: %s is %d bytes, %s is %d bytes", ErrSizeMismatch, s3path, size, r.From, fi.Size())
	}
	l.Info("Upload succeeded", "location", result.Location, "size", size)
	return nil
}

// Diff fileToDiff by downloading from the bucket and compare content
// with the content in fileToDiff. Writes the unified diff to the
// adapter's output.
func (u *forUploading) Diff(ctx context.Context, bucket, key, fileToDiff string) error {
	l := logger.FromContext(ctx)
	s3path := "s3://" + path.Join(bucket, key)

	fileContent, err := os.ReadFile(fileToDiff)
	if err != nil {
		return err
	}
	remote, err := u.downloader.Download(ctx, bucket, key)
	if err != nil {
		if u.downloader.IsNotFound(err) {
			l.Info("Skipping diff", "file", fileToDiff, "path", s3path, "error", err)
			return nil
		}
		return err
	}

	diff := textdiff.Unified(s3path, fileToDiff, string(remote), string(fileContent))
	if diff == "" {
		l.Info("No difference", "to", fileToDiff, "from", s3path)
		return nil
	}
	l.Info("Diff follows", "to", fileToDiff, "from", s3path)
	_, err = fmt.Fprintln(u.out, diff)
	return err
}
