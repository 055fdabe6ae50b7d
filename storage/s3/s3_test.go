package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/opflow/storage"
)

// fakeS3 is an in-memory bucket. pageSize forces pagination.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	puts     []*awss3.PutObjectInput
	pageSize int
}

func newFake() *fakeS3 { return &fakeS3{objects: make(map[string][]byte), pageSize: 2} }

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix, delim := aws.ToString(in.Prefix), aws.ToString(in.Delimiter)

	var keys []string
	for k := range f.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if delim != "" && strings.Contains(strings.TrimPrefix(k, prefix), delim) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start = sort.SearchStrings(keys, tok)
	}
	end := min(start+f.pageSize, len(keys))

	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	now := time.Now()
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: &now,
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestPutGet(t *testing.T) {
	fake := newFake()
	s := newWithClient(fake, Config{Bucket: "state", StorageClass: "STANDARD_IA", ServerSideEncryption: "AES256"})
	ctx := context.Background()

	if err := s.Put(ctx, "snapshots/daily/1.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "snapshots/daily/1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("Get = %q", got)
	}

	in := fake.puts[0]
	if aws.ToString(in.Bucket) != "state" {
		t.Errorf("bucket = %q", aws.ToString(in.Bucket))
	}
	if in.StorageClass != types.StorageClassStandardIa {
		t.Errorf("storage class = %q", in.StorageClass)
	}
	if in.ServerSideEncryption != types.ServerSideEncryptionAes256 {
		t.Errorf("sse = %q", in.ServerSideEncryption)
	}
	if aws.ToInt64(in.ContentLength) != 7 {
		t.Errorf("content length = %d", aws.ToInt64(in.ContentLength))
	}
}

func TestGetMissing(t *testing.T) {
	s := newWithClient(newFake(), Config{Bucket: "state"})
	_, err := s.Get(context.Background(), "nope.json")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestMaxObjectSize(t *testing.T) {
	fake := newFake()
	s := newWithClient(fake, Config{Bucket: "state"})
	s.maxSize = 4
	if err := s.Put(context.Background(), "big", []byte("12345")); err == nil {
		t.Fatal("expected size error")
	}
	if len(fake.puts) != 0 {
		t.Error("oversized object was uploaded")
	}
}

func TestListPagesSingleLevel(t *testing.T) {
	fake := newFake()
	s := newWithClient(fake, Config{Bucket: "state"})
	ctx := context.Background()
	for _, k := range []string{"p/c/3.json", "p/c/1.json", "p/c/2.json", "p/c/nested/4.json", "p/other/5.json"} {
		if err := s.Put(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	infos, err := s.List(ctx, "p/c/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var keys []string
	for _, info := range infos {
		keys = append(keys, info.Key)
		if info.Size != 1 || info.ModTime.IsZero() {
			t.Errorf("unexpected info %+v", info)
		}
	}
	want := "p/c/1.json p/c/2.json p/c/3.json"
	if strings.Join(keys, " ") != want {
		t.Errorf("List = %v, want %s", keys, want)
	}
}

func TestListEmpty(t *testing.T) {
	s := newWithClient(newFake(), Config{Bucket: "state"})
	infos, err := s.List(context.Background(), "none/")
	if err != nil {
		t.Fatal(err)
	}
	if infos == nil || len(infos) != 0 {
		t.Errorf("expected empty non-nil list, got %v", infos)
	}
}
