package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
	"github.com/JaimeStill/speakeval/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startedFilesystem(t *testing.T) (storage.System, string) {
	t.Helper()
	dir := t.TempDir()
	sys, err := storage.New(&storage.Config{BasePath: dir}, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sys.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return sys, dir
}

func TestConfig_Finalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &storage.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.Backend != storage.BackendFilesystem {
			t.Errorf("Backend = %q", cfg.Backend)
		}
		if cfg.MaxUploadSizeBytes() != 25_000_000 {
			t.Errorf("MaxUploadSizeBytes() = %d", cfg.MaxUploadSizeBytes())
		}
	})

	t.Run("env selects s3", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_BACKEND", "s3")
		t.Setenv("TEST_STORAGE_BUCKET", "answers")

		cfg := &storage.Config{}
		err := cfg.Finalize(&storage.Env{Backend: "TEST_STORAGE_BACKEND", S3Bucket: "TEST_STORAGE_BUCKET"})
		if err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.Backend != storage.BackendS3 || cfg.S3.Bucket != "answers" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"unknown backend", storage.Config{Backend: "ftp"}},
		{"s3 without bucket", storage.Config{Backend: storage.BackendS3}},
		{"bad size", storage.Config{MaxUploadSize: "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("Finalize() should fail")
			}
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := &storage.Config{BasePath: ".data/audio", MaxUploadSize: "25MB"}
	cfg.Merge(&storage.Config{Backend: storage.BackendS3, MaxUploadSize: "50MB", S3: storage.S3Config{Bucket: "b"}})

	if cfg.Backend != storage.BackendS3 || cfg.MaxUploadSize != "50MB" || cfg.S3.Bucket != "b" || cfg.BasePath != ".data/audio" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestNew_EmptyBasePath(t *testing.T) {
	if _, err := storage.New(&storage.Config{}, testLogger()); err == nil {
		t.Error("New() should fail without base path")
	}
}

func TestFilesystem_StartCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "audio")
	sys, err := storage.New(&storage.Config{BasePath: target}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("Stat() error = %v", err)
	}
}

func TestFilesystem_RoundTrip(t *testing.T) {
	sys, dir := startedFilesystem(t)
	ctx := context.Background()
	key := "attempts/a1/q1.webm"

	if err := sys.Store(ctx, key, []byte("first")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := sys.Store(ctx, key, []byte("second")); err != nil {
		t.Fatalf("Store() overwrite error = %v", err)
	}

	got, err := sys.Retrieve(ctx, key)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Retrieve() = %q, want second", got)
	}

	if ok, err := sys.Validate(ctx, key); err != nil || !ok {
		t.Errorf("Validate() = %v, %v", ok, err)
	}

	if err := sys.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := sys.Retrieve(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Retrieve() after delete error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "attempts")); !os.IsNotExist(err) {
		t.Error("Delete() should remove empty parent directories")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("Delete() removed the base directory")
	}
}

func TestFilesystem_DeletePreservesSiblings(t *testing.T) {
	sys, dir := startedFilesystem(t)
	ctx := context.Background()

	sys.Store(ctx, "a/one.webm", []byte("1"))
	sys.Store(ctx, "a/two.webm", []byte("2"))

	if err := sys.Delete(ctx, "a/one.webm"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a", "two.webm")); err != nil {
		t.Errorf("sibling removed: %v", err)
	}
	if err := sys.Delete(ctx, "missing.webm"); err != nil {
		t.Errorf("Delete() missing key error = %v", err)
	}
}

func TestFilesystem_InvalidKeys(t *testing.T) {
	sys, _ := startedFilesystem(t)
	ctx := context.Background()

	for _, key := range []string{"", "/abs", "../escape", "a/../../escape", "."} {
		t.Run(key, func(t *testing.T) {
			if err := sys.Store(ctx, key, []byte("x")); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Store() error = %v", err)
			}
			if _, err := sys.Validate(ctx, key); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Validate() error = %v", err)
			}
			if err := sys.Delete(ctx, key); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Delete() error = %v", err)
			}
		})
	}
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3_RoundTrip(t *testing.T) {
	objects := newFakeObjects()
	sys := storage.NewS3WithClient(objects, "answers", "audio/", testLogger())
	ctx := context.Background()

	if err := sys.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sys.Store(ctx, "a1/q1.webm", []byte("audio")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if _, ok := objects.objects["audio/a1/q1.webm"]; !ok {
		t.Errorf("object keys = %v, want prefixed key", objects.objects)
	}

	got, err := sys.Retrieve(ctx, "a1/q1.webm")
	if err != nil || string(got) != "audio" {
		t.Errorf("Retrieve() = %q, %v", got, err)
	}

	if ok, _ := sys.Validate(ctx, "a1/q1.webm"); !ok {
		t.Error("Validate() = false for stored key")
	}
	if err := sys.Delete(ctx, "a1/q1.webm"); err != nil {
		t.Fatal(err)
	}
	if ok, err := sys.Validate(ctx, "a1/q1.webm"); ok || err != nil {
		t.Errorf("Validate() after delete = %v, %v", ok, err)
	}
	if _, err := sys.Retrieve(ctx, "a1/q1.webm"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Retrieve() error = %v, want ErrNotFound", err)
	}
	if err := sys.Store(ctx, "../x", nil); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("Store() error = %v, want ErrInvalidKey", err)
	}
}

func TestNew_S3(t *testing.T) {
	cfg := &storage.Config{
		Backend: storage.BackendS3,
		S3:      storage.S3Config{Bucket: "answers", Region: "us-east-1", Endpoint: "http://localhost:9000", UsePathStyle: true},
	}
	sys, err := storage.New(cfg, testLogger())
	if err != nil || sys == nil {
		t.Fatalf("New() = %v, %v", sys, err)
	}
}
