package resource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestEmbeddedTables(t *testing.T) {
	for _, name := range []string{AliasTable, WeightTable} {
		data, err := ReadAll(context.Background(), EmbeddedSource{File: name})
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: [b]\n"), 0o644))

	data, err := ReadAll(context.Background(), FileSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "a: [b]\n", string(data))

	_, err = ReadAll(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestS3Source(t *testing.T) {
	getter := &fakeGetter{body: "baseline: 5\n"}
	src := &S3Source{Client: getter, Bucket: "tables", Key: "prod/weights.yaml"}

	data, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "baseline: 5\n", string(data))
	assert.Equal(t, "tables", getter.bucket)
	assert.Equal(t, "prod/weights.yaml", getter.key)
	assert.Equal(t, "s3://tables/prod/weights.yaml", src.Name())

	getter.err = errors.New("access denied")
	_, err = ReadAll(context.Background(), src)
	assert.ErrorContains(t, err, "access denied")
}

func TestFromLocation(t *testing.T) {
	ctx := context.Background()

	src, err := FromLocation(ctx, "", "us-east-1", AliasTable)
	require.NoError(t, err)
	assert.Equal(t, EmbeddedSource{File: AliasTable}, src)

	src, err = FromLocation(ctx, "/etc/statutes/aliases.yaml", "us-east-1", AliasTable)
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "/etc/statutes/aliases.yaml"}, src)

	_, err = FromLocation(ctx, "s3://bucket-only", "us-east-1", AliasTable)
	assert.Error(t, err)
}

func TestLoadContext(t *testing.T) {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))
	cancel()

	ctx, done := LoadContext(parent)
	defer done()
	assert.NoError(t, ctx.Err())
	assert.Equal(t, "v", ctx.Value(key{}))
	_, ok := ctx.Deadline()
	assert.True(t, ok)
}
