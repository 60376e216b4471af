// Package resource loads the static lookup tables (aliases, authority
// weights) from a local file, an S3 object or the copies embedded in the binary.
package resource

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

//go:embed data/*.yaml
var embedded embed.FS

// Embedded table names.
const (
	AliasTable  = "aliases.yaml"
	WeightTable = "weights.yaml"
)

// Source yields the raw bytes of one table.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// FileSource reads a table from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	return f, nil
}

func (s FileSource) Name() string { return "file:" + s.Path }

// EmbeddedSource reads one of the tables compiled into the binary.
type EmbeddedSource struct {
	File string
}

func (s EmbeddedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := embedded.Open("data/" + s.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded %s: %w", s.File, err)
	}
	return f, nil
}

func (s EmbeddedSource) Name() string { return "embedded:" + s.File }

// BytesSource serves a fixed payload. Tests use it to swap tables.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

func (s BytesSource) Name() string { return "bytes:" + s.Label }

// ObjectGetter is the part of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a table from an S3 object.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// NewS3Source builds an S3Source using the default AWS credential chain.
func NewS3Source(ctx context.Context, region, bucket, key string) (*S3Source, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Source{
		Client: s3.NewFromConfig(awsCfg),
		Bucket: bucket,
		Key:    key,
	}, nil
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return out.Body, nil
}

func (s *S3Source) Name() string { return "s3://" + s.Bucket + "/" + s.Key }

// FromLocation picks a Source for loc. An empty location selects the
// embedded table named fallback; "s3://bucket/key" selects S3; anything
// else is treated as a file path.
func FromLocation(ctx context.Context, loc, region, fallback string) (Source, error) {
	switch {
	case loc == "":
		return EmbeddedSource{File: fallback}, nil
	case strings.HasPrefix(loc, "s3://"):
		u, err := url.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("invalid s3 location %q: %w", loc, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 location %q: bucket and key are required", loc)
		}
		return NewS3Source(ctx, region, u.Host, key)
	default:
		return FileSource{Path: loc}, nil
	}
}

// LoadTimeout bounds a single table load.
const LoadTimeout = 30 * time.Second

// LoadContext returns a context for loading a table that is shared by the
// whole process: it keeps ctx's values but not its cancellation, so a
// cancelled request cannot leave the table empty.
func LoadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
}

// ReadAll opens src and returns its full contents.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}
	return data, nil
}
