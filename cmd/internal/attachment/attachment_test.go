package attachment

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"gocloud.dev/blob/memblob"
)

func TestBlobSource_Fetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bk := memblob.OpenBucket(nil)
	defer func() { _ = bk.Close() }()

	if err := bk.WriteAll(ctx, "files/resume.pdf", []byte("%PDF-1.7 body"), nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	src := NewBlobSource(bk, "files/resume.pdf", "")
	f, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.Name != "resume.pdf" {
		t.Fatalf("name=%q want resume.pdf", f.Name)
	}
	if f.ContentType != "application/pdf" {
		t.Fatalf("content type=%q", f.ContentType)
	}
	if string(f.Data) != "%PDF-1.7 body" {
		t.Fatalf("data mismatch: %q", f.Data)
	}
}

func TestBlobSource_Missing(t *testing.T) {
	t.Parallel()

	bk := memblob.OpenBucket(nil)
	defer func() { _ = bk.Close() }()

	_, err := NewBlobSource(bk, "resume.pdf", "Jo Resume.pdf").Fetch(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenBlobSource_Mem(t *testing.T) {
	t.Parallel()

	src, err := OpenBlobSource(context.Background(), "mem://", "resume.pdf", "")
	if err != nil {
		t.Fatalf("OpenBlobSource: %v", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := src.Fetch(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty bucket, got %v", err)
	}
}

type fakeS3 struct {
	body        string
	contentType string
	err         error
	lastKey     string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	out := &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}
	if f.contentType != "" {
		out.ContentType = aws.String(f.contentType)
	}
	return out, nil
}

func TestS3Source_Fetch(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{body: "%PDF-1.4", contentType: "binary/octet-stream"}
	src := newS3Source(fake, S3Config{Bucket: "b", Key: "docs/cv.pdf", Name: "Resume.pdf"})

	f, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fake.lastKey != "docs/cv.pdf" {
		t.Fatalf("requested key=%q", fake.lastKey)
	}
	if f.Name != "Resume.pdf" || f.ContentType != "application/pdf" {
		t.Fatalf("unexpected file meta: %+v", f)
	}
}

func TestS3Source_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fake *fakeS3
		want error
	}{
		{name: "no such key", fake: &fakeS3{err: &types.NoSuchKey{}}, want: ErrNotFound},
		{name: "empty object", fake: &fakeS3{body: ""}, want: ErrEmpty},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			src := newS3Source(tc.fake, S3Config{Bucket: "b", Key: "resume.pdf"})
			if _, err := src.Fetch(context.Background()); !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want=%v", err, tc.want)
			}
		})
	}

	boom := errors.New("network down")
	src := newS3Source(&fakeS3{err: boom}, S3Config{Bucket: "b", Key: "resume.pdf"})
	if _, err := src.Fetch(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestS3Source_RejectsOversizedObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		size int
		want error
	}{
		{name: "at limit", size: maxObjectBytes},
		{name: "one byte over", size: maxObjectBytes + 1, want: ErrTooLarge},
		{name: "well over", size: maxObjectBytes + 1000, want: ErrTooLarge},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			src := newS3Source(&fakeS3{body: strings.Repeat("x", tc.size)}, S3Config{Bucket: "b", Key: "resume.pdf"})
			f, err := src.Fetch(context.Background())
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("err=%v want=%v", err, tc.want)
				}
				if f.Data != nil {
					t.Fatalf("expected no partial data, got %d bytes", len(f.Data))
				}
				return
			}
			if err != nil || len(f.Data) != tc.size {
				t.Fatalf("expected full object of %d bytes, got %d (err=%v)", tc.size, len(f.Data), err)
			}
		})
	}
}

func TestBlobSource_RejectsOversizedObject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bk := memblob.OpenBucket(nil)
	defer func() { _ = bk.Close() }()

	if err := bk.WriteAll(ctx, "big.pdf", make([]byte, maxObjectBytes+1), nil); err != nil {
		t.Fatalf("WriteAll big: %v", err)
	}
	if err := bk.WriteAll(ctx, "empty.pdf", nil, nil); err != nil {
		t.Fatalf("WriteAll empty: %v", err)
	}

	if _, err := NewBlobSource(bk, "big.pdf", "").Fetch(ctx); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := NewBlobSource(bk, "empty.pdf", "").Fetch(ctx); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestReadObject_Limit(t *testing.T) {
	t.Parallel()

	if b, err := readObject(strings.NewReader("abcd"), 4); err != nil || string(b) != "abcd" {
		t.Fatalf("exact limit: %q %v", b, err)
	}
	if _, err := readObject(strings.NewReader("abcde"), 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := readObject(strings.NewReader(""), 4); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
