// downloader is the default AWS v1 download handler, used by the
// uploader to fetch the published feed and check uploaded objects.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sa6mwa/addepisode/internal/app/humanreadable"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
)

type forDownloading struct {
	session *session.Session
	s3      *s3.S3
}

// New returns a downloader with its own session using the profile and
// region in cfg.
func New(cfg *model.AwsConfig) (ports.ForDownloading, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithSession(s), nil
}

// NewWithSession returns a downloader sharing session s.
func NewWithSession(s *session.Session) ports.ForDownloading {
	return &forDownloading{
		session: s,
		s3:      s3.New(s),
	}
}

// NewSession returns an AWS session for the profile and region in cfg.
// Shared configuration (~/.aws/config) is enabled.
func NewSession(cfg *model.AwsConfig) (*session.Session, error) {
	if cfg == nil {
		return nil, model.ErrNilPointer
	}
	options := session.Options{
		Profile:           cfg.Profile,
		SharedConfigState: session.SharedConfigEnable,
	}
	if cfg.Region != "" {
		options.Config.Region = aws.String(cfg.Region)
	}
	s, err := session.NewSessionWithOptions(options)
	if err != nil {
		return nil, fmt.Errorf("unable to create AWS session: %w", err)
	}
	return s, nil
}

func (d *forDownloading) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	l := logger.FromContext(ctx)
	downloader := s3manager.NewDownloaderWithClient(d.s3)
	buf := aws.NewWriteAtBuffer([]byte{})
	n, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	l.Debug("Downloaded", "location", "s3://"+path.Join(bucket, key), "size", n, "humanSize", humanreadable.IEC(n))
	return buf.Bytes(), nil
}

func (d *forDownloading) GetSize(ctx context.Context, bucket, key string) (int64, error) {
	l := logger.FromContext(ctx)
	s3path := "s3://" + path.Join(bucket, key)
	result, err := d.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, err
	}
	size := aws.Int64Value(result.ContentLength)
	l.Debug("Got size", "size", size, "humanSize", humanreadable.IEC(size), "location", s3path)
	return size, nil
}

func (d *forDownloading) IsNotFound(err error) bool {
	return IsNotFound(err)
}

// IsNotFound reports whether err is S3 saying the object (or bucket
// key) does not exist.
func IsNotFound(err error) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}
	switch awsErr.Code() {
	case "NotFound", s3.ErrCodeNoSuchKey:
		return true
	}
	return false
}
