package s3access

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/gzip"
)

// fakeObjectAPI scripts GetObject responses and records requests.
type fakeObjectAPI struct {
	stubAPI
	objects  map[string][]byte // "bucket/key" -> body
	encoding map[string]string // "bucket/key" -> Content-Encoding
	inputs   []*s3.GetObjectInput
}

func (f *fakeObjectAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	key := *in.Bucket + "/" + *in.Key
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if enc, ok := f.encoding[key]; ok {
		out.ContentEncoding = aws.String(enc)
	}
	return out, nil
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	return buf.Bytes()
}

func newObjectClient(t *testing.T, f *fakeObjectAPI) *Client {
	t.Helper()
	c, err := New(f)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestGet_WholeObject(t *testing.T) {
	f := &fakeObjectAPI{objects: map[string][]byte{"bucket/file.csv": []byte("a,b,c\n")}}
	c := newObjectClient(t, f)

	got, err := c.Get(context.Background(), NewPath("bucket", "file.csv"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != "a,b,c\n" {
		t.Errorf("body = %q", got)
	}
	if f.inputs[0].Range != nil {
		t.Error("whole-object get should not send a Range header")
	}
}

func TestGet_Range(t *testing.T) {
	f := &fakeObjectAPI{objects: map[string][]byte{"bucket/file": []byte("0123456789")}}
	c := newObjectClient(t, f)

	_, err := c.Get(context.Background(), NewPath("bucket", "file"), WithRange(100, 50))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got := aws.ToString(f.inputs[0].Range); got != "bytes=100-149" {
		t.Errorf("Range header = %q, want bytes=100-149", got)
	}
}

func TestGet_InvalidRange(t *testing.T) {
	f := &fakeObjectAPI{objects: map[string][]byte{}}
	c := newObjectClient(t, f)

	if _, err := c.Get(context.Background(), NewPath("b", "k"), WithRange(-1, 10)); err == nil {
		t.Error("expected error for negative offset")
	}
	if _, err := c.Get(context.Background(), NewPath("b", "k"), WithRange(0, 0)); err == nil {
		t.Error("expected error for zero length")
	}
	if len(f.inputs) != 0 {
		t.Error("invalid range must fail before any request is issued")
	}
}

func TestGet_GzipBySuffix(t *testing.T) {
	plain := []byte("line one\nline two\n")
	f := &fakeObjectAPI{objects: map[string][]byte{"bucket/log.gz": gzipped(t, plain)}}
	c := newObjectClient(t, f)

	got, err := c.Get(context.Background(), NewPath("bucket", "log.gz"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("body = %q, want decompressed %q", got, plain)
	}
}

func TestGet_GzipByContentEncoding(t *testing.T) {
	plain := []byte("payload")
	f := &fakeObjectAPI{
		objects:  map[string][]byte{"bucket/blob": gzipped(t, plain)},
		encoding: map[string]string{"bucket/blob": "gzip"},
	}
	c := newObjectClient(t, f)

	got, err := c.Get(context.Background(), NewPath("bucket", "blob"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("body = %q, want decompressed %q", got, plain)
	}
}

func TestGet_WithoutDecompression(t *testing.T) {
	compressed := gzipped(t, []byte("payload"))
	f := &fakeObjectAPI{objects: map[string][]byte{"bucket/log.gz": compressed}}
	c := newObjectClient(t, f)

	got, err := c.Get(context.Background(), NewPath("bucket", "log.gz"), WithoutDecompression())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !bytes.Equal(got, compressed) {
		t.Error("WithoutDecompression must return stored bytes verbatim")
	}
}

func TestGet_RangeSkipsDecompression(t *testing.T) {
	compressed := gzipped(t, []byte("payload"))
	f := &fakeObjectAPI{objects: map[string][]byte{"bucket/log.gz": compressed}}
	c := newObjectClient(t, f)

	// A partial gzip stream cannot be decoded; the raw range comes back.
	got, err := c.Get(context.Background(), NewPath("bucket", "log.gz"),
		WithRange(0, int64(len(compressed))))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !bytes.Equal(got, compressed) {
		t.Error("range read must not attempt decompression")
	}
}

func TestGet_NotFound(t *testing.T) {
	f := &fakeObjectAPI{objects: map[string][]byte{}}
	c := newObjectClient(t, f)

	_, err := c.Get(context.Background(), NewPath("bucket", "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Op != "get" {
		t.Errorf("expected get RequestError, got %v", err)
	}
}
