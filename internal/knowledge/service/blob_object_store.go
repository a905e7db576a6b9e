package service

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/allisson/kbsync/internal/errors"
)

// BlobObjectStore implements ObjectStore on a gocloud.dev blob bucket, so
// the same code serves local disk, S3 and GCS depending on the bucket URL.
type BlobObjectStore struct {
	bucket *blob.Bucket
}

func (b *BlobObjectStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to list object keys")
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

func (b *BlobObjectStore) Delete(ctx context.Context, key string) error {
	if err := b.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return errors.Wrap(err, "failed to delete object")
	}

	return nil
}

func (b *BlobObjectStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := b.ListKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if err := b.Delete(ctx, key); err != nil {
			return deleted, err
		}
		deleted++
	}

	return deleted, nil
}

// NewBlobObjectStore returns a new BlobObjectStore.
func NewBlobObjectStore(bucket *blob.Bucket) *BlobObjectStore {
	return &BlobObjectStore{bucket: bucket}
}
