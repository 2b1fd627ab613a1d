package s3access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeListAPI serves a fixed key list in pages through ListObjectsV2.
type fakeListAPI struct {
	stubAPI
	keys     []string
	pageSize int
	err      error
	calls    int
}

func (f *fakeListAPI) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	start := 0
	if in.ContinuationToken != nil {
		if _, err := fmt.Sscanf(*in.ContinuationToken, "tok-%d", &start); err != nil {
			return nil, fmt.Errorf("bad continuation token %q", *in.ContinuationToken)
		}
	}

	size := f.pageSize
	if size <= 0 {
		size = 1000
	}
	end := start + size
	if end > len(f.keys) {
		end = len(f.keys)
	}

	out := &s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(end < len(f.keys)),
		KeyCount:    aws.Int32(int32(end - start)),
	}
	for _, k := range f.keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(f.keys) {
		out.NextContinuationToken = aws.String(fmt.Sprintf("tok-%d", end))
	}
	return out, nil
}

func newListClient(t *testing.T, f *fakeListAPI) *Client {
	t.Helper()
	c, err := New(f)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestList_AllKeys(t *testing.T) {
	f := &fakeListAPI{keys: []string{
		"events/part-00.parquet",
		"events/part-01.parquet",
		"events/part-02.parquet",
	}}
	c := newListClient(t, f)

	paths, err := c.List(context.Background(), NewPath("bucket", "events/"))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d paths, want 3", len(paths))
	}
	if paths[0].Bucket() != "bucket" || paths[0].Key() != "events/part-00.parquet" {
		t.Errorf("paths[0] = %v", paths[0])
	}
}

func TestList_Paginates(t *testing.T) {
	var keys []string
	for i := 0; i < 7; i++ {
		keys = append(keys, fmt.Sprintf("data/part-%02d", i))
	}
	f := &fakeListAPI{keys: keys, pageSize: 3}
	c := newListClient(t, f)

	paths, err := c.List(context.Background(), NewPath("bucket", "data/"))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(paths) != 7 {
		t.Fatalf("got %d paths, want 7", len(paths))
	}
	if f.calls != 3 {
		t.Errorf("issued %d list requests, want 3 pages", f.calls)
	}
}

func TestList_SuffixFilter(t *testing.T) {
	f := &fakeListAPI{keys: []string{
		"data/part-00.parquet",
		"data/_SUCCESS",
		"data/part-01.parquet",
	}}
	c := newListClient(t, f)

	paths, err := c.List(context.Background(), NewPath("bucket", "data/"), WithSuffix(".parquet"))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	for _, p := range paths {
		if p.Key() == "data/_SUCCESS" {
			t.Error("suffix filter leaked a non-matching key")
		}
	}
}

func TestList_Limit(t *testing.T) {
	var keys []string
	for i := 0; i < 10; i++ {
		keys = append(keys, fmt.Sprintf("data/part-%02d", i))
	}
	f := &fakeListAPI{keys: keys, pageSize: 4}
	c := newListClient(t, f)

	paths, err := c.List(context.Background(), NewPath("bucket", "data/"), WithLimit(5))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(paths) != 5 {
		t.Errorf("got %d paths, want 5", len(paths))
	}
}

func TestList_Error(t *testing.T) {
	f := &fakeListAPI{err: errors.New("access denied")}
	c := newListClient(t, f)

	_, err := c.List(context.Background(), NewPath("bucket", "data/"))
	if err == nil {
		t.Fatal("expected error")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Op != "list" {
		t.Errorf("expected list RequestError, got %v", err)
	}
}

func TestIterate_Contract(t *testing.T) {
	f := &fakeListAPI{keys: []string{"a", "b"}}
	c := newListClient(t, f)

	it := c.Iterate(context.Background(), NewPath("bucket", ""))
	if !it.Next() {
		t.Fatal("Next() = false on first element")
	}
	if it.Path().Key() != "a" {
		t.Errorf("Path() = %v, want key a", it.Path())
	}

	// Close mid-iteration: Next must return false afterwards, repeatedly.
	if err := it.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if it.Next() {
		t.Error("Next() = true after Close()")
	}
	if err := it.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
	if it.Err() != nil {
		t.Errorf("Err() = %v after clean close", it.Err())
	}
}

func TestIterate_Exhaustion(t *testing.T) {
	f := &fakeListAPI{keys: []string{"only"}}
	c := newListClient(t, f)

	it := c.Iterate(context.Background(), NewPath("bucket", ""))
	defer func() { _ = it.Close() }()

	count := 0
	for it.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("iterated %d paths, want 1", count)
	}
	if it.Next() {
		t.Error("Next() = true after exhaustion")
	}
	if it.Err() != nil {
		t.Errorf("Err() = %v after clean exhaustion", it.Err())
	}
}
