package attachment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Bucket URL schemes accepted by OpenBlobSource.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobSource reads one object from any gocloud bucket (file://, mem://, s3://).
type BlobSource struct {
	bucket *blob.Bucket
	owned  bool
	key    string
	name   string
}

// OpenBlobSource opens the bucket at url and reads key from it.
func OpenBlobSource(ctx context.Context, url, key, name string) (*BlobSource, error) {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(key) == "" {
		return nil, errors.New("attachment: bucket url and key are required")
	}
	bk, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	s := NewBlobSource(bk, key, name)
	s.owned = true
	return s, nil
}

// NewBlobSource wraps an already opened bucket. The caller keeps ownership of bk.
func NewBlobSource(bk *blob.Bucket, key, name string) *BlobSource {
	return &BlobSource{bucket: bk, key: key, name: displayName(name, key)}
}

// Fetch reads the configured object.
func (s *BlobSource) Fetch(ctx context.Context) (File, error) {
	r, err := s.bucket.NewReader(ctx, s.key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("blob open failed for %s: %w", s.key, err)
	}
	defer func() { _ = r.Close() }()

	// Size is known up front; skip the download for oversized objects.
	if r.Size() > maxObjectBytes {
		return File{}, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, s.key, r.Size())
	}
	data, err := readObject(r, maxObjectBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) || errors.Is(err, ErrEmpty) {
			return File{}, err
		}
		return File{}, fmt.Errorf("blob read failed for %s: %w", s.key, err)
	}
	return File{Name: s.name, ContentType: contentTypeFor(s.name), Data: data}, nil
}

// Close releases the bucket when it was opened by OpenBlobSource.
func (s *BlobSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.bucket.Close()
}
