// Package s3source adapts an S3 object into a zipcore.Source, so that
// zipcore.LocateEOCD and zipcore.OpenReader can run against a ZIP file
// that never gets downloaded in full: each ReadAt becomes a ranged
// GetObject call.
package s3source

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/time/rate"
)

// NewClientFromEnv builds an *s3.Client from the ambient AWS
// configuration (environment variables, shared config/credentials
// files, or an attached role), the same resolution order every other
// AWS SDK v2 client uses.
func NewClientFromEnv(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3source: loading AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// GetObjectAPI is the subset of *s3.Client this package depends on,
// narrow enough to fake in tests without standing up a real client.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source adapts one S3 object into an io.ReaderAt (zipcore.Source). Its
// ReadAt issues a ranged GetObject per call; callers doing many small
// reads (as the central-directory iterator does) should front it with
// their own buffering if request volume becomes a concern, or use
// Limiter to cap request rate against S3 throttling.
type Source struct {
	api    GetObjectAPI
	bucket string
	key    string
	ctx    context.Context

	// Limiter, if non-nil, is waited on before every GetObject call.
	Limiter *rate.Limiter
}

// New returns a Source for the given bucket/key, using ctx for every
// GetObject call it issues.
func New(ctx context.Context, api GetObjectAPI, bucket, key string) *Source {
	return &Source{api: api, bucket: bucket, key: key, ctx: ctx}
}

// ReadAt implements io.ReaderAt via a byte-range GetObject request.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.Limiter != nil {
		if err := s.Limiter.Wait(s.ctx); err != nil {
			return 0, err
		}
	}

	rangeHeader := fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)
	out, err := s.api.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

// Size reports the object's total length by issuing a one-byte ranged
// GetObject (bytes=0-0) and parsing the total from the response's
// Content-Range header, since this package's GetObjectAPI does not
// include HeadObject.
func (s *Source) Size() (int64, error) {
	out, err := s.api.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String("bytes=0-0"),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()
	if out.ContentRange == nil {
		return 0, fmt.Errorf("s3source: response missing Content-Range for %s/%s", s.bucket, s.key)
	}

	var size int64
	if _, err := fmt.Sscanf(*out.ContentRange, "bytes 0-0/%d", &size); err != nil {
		return 0, fmt.Errorf("s3source: parsing Content-Range %q: %w", *out.ContentRange, err)
	}
	return size, nil
}
