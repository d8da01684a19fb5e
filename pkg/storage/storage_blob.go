package storage

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// gs:// buckets
	_ "gocloud.dev/blob/gcsblob"
)

// Blob stores keys in a gocloud bucket below an optional prefix
type Blob struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlob opens bucketURL, e.g. "gs://bucket-name"
func NewBlob(ctx context.Context, bucketURL, prefix string) (*Blob, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %q", bucketURL)
	}
	return NewBlobFromBucket(bucket, prefix), nil
}

// NewBlobFromBucket wraps an open bucket, tests pass a memblob bucket
func NewBlobFromBucket(bucket *blob.Bucket, prefix string) *Blob {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Blob{
		bucket: bucket,
		prefix: prefix,
	}
}

func (b *Blob) key(key string) string {
	return b.prefix + key
}

func (b *Blob) Write(ctx context.Context, key string, data []byte) error {
	return b.bucket.WriteAll(ctx, b.key(key), data, nil)
}

func (b *Blob) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, b.key(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, os.ErrNotExist
	}
	return data, err
}

func (b *Blob) Exists(ctx context.Context, key string) (bool, error) {
	return b.bucket.Exists(ctx, b.key(key))
}

func (b *Blob) List(ctx context.Context, prefix string) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix:    b.key(prefix),
		Delimiter: "/",
	})
	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir || !strings.HasPrefix(obj.Key, b.prefix) {
			continue
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, b.prefix))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (b *Blob) Delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, b.key(key))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (b *Blob) Close() error {
	return b.bucket.Close()
}
