// Package objectstore fetches ingestion source files from S3-hosted
// object storage: the file URI's host is the bucket, its path is the
// key, and region/credentials come from process configuration and
// the environment.
package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"graphingest/internal/sourcemodel"
)

// fetchTimeout matches the Rust original's 290s bucket request
// timeout — generous enough for large files, short of most load
// balancer/gateway idle timeouts.
const fetchTimeout = 290 * time.Second

// FetchError wraps any failure while retrieving or decoding a file;
// the ingestion orchestrator fails the whole request on this error.
type FetchError struct {
	URI string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetching %s: %v", e.URI, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves and decodes one ingestion source file.
type Fetcher interface {
	Fetch(ctx context.Context, rawURI string) (*sourcemodel.File, error)
}

// S3Fetcher is the production Fetcher, backed by aws-sdk-go-v2.
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher builds a Fetcher using the default AWS credential
// chain (environment, shared config, instance/task role) scoped to
// region.
func NewS3Fetcher(ctx context.Context, region string) (*S3Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &S3Fetcher{client: s3.NewFromConfig(cfg)}, nil
}

// Fetch parses rawURI as a URL (host = bucket, path = key), downloads
// the object, and decodes it as a sourcemodel.File.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURI string) (*sourcemodel.File, error) {
	parsed, err := url.Parse(rawURI)
	if err != nil {
		return nil, &FetchError{URI: rawURI, Err: err}
	}
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &FetchError{URI: rawURI, Err: err}
	}
	defer out.Body.Close()

	var file sourcemodel.File
	if err := json.NewDecoder(out.Body).Decode(&file); err != nil {
		return nil, &FetchError{URI: rawURI, Err: err}
	}
	return &file, nil
}
