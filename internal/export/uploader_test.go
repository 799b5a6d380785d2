package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type notFoundError struct{}

func (notFoundError) Error() string                 { return "NotFound: no such object" }
func (notFoundError) ErrorCode() string             { return "NotFound" }
func (notFoundError) ErrorMessage() string          { return "no such object" }
func (notFoundError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type stubStore struct {
	existing map[string]bool
	puts     map[string]string
	headErr  error
	putErr   error
}

func newStubStore() *stubStore {
	return &stubStore{
		existing: make(map[string]bool),
		puts:     make(map[string]string),
	}
}

func (s *stubStore) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if s.headErr != nil {
		return nil, s.headErr
	}
	if s.existing[*params.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, notFoundError{}
}

func (s *stubStore) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	s.puts[*params.Key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploaderUpload(t *testing.T) {
	store := newStubStore()
	uploader := NewUploader(store, "meeting-archive", "sessions", discardLogger())

	location, err := uploader.Upload(context.Background(), "run-1", "[00:00-00:01] Alice: hello\n")
	if err != nil {
		t.Fatalf("Upload() returned error: %v", err)
	}
	if want := "s3://meeting-archive/sessions/transcript_run-1.txt"; location != want {
		t.Fatalf("unexpected location: got %q, want %q", location, want)
	}
	if got := store.puts["sessions/transcript_run-1.txt"]; !strings.Contains(got, "Alice") {
		t.Fatalf("unexpected object body: %q", got)
	}
}

func TestUploaderSkipsExistingObject(t *testing.T) {
	store := newStubStore()
	store.existing["sessions/transcript_run-1.txt"] = true
	uploader := NewUploader(store, "meeting-archive", "sessions", discardLogger())

	location, err := uploader.Upload(context.Background(), "run-1", "body")
	if err != nil {
		t.Fatalf("Upload() returned error: %v", err)
	}
	if location == "" {
		t.Fatalf("expected location for existing object")
	}
	if len(store.puts) != 0 {
		t.Fatalf("expected no PutObject calls, got %v", store.puts)
	}
}

func TestUploaderGeneratesRunID(t *testing.T) {
	store := newStubStore()
	uploader := NewUploader(store, "meeting-archive", "", discardLogger())

	location, err := uploader.Upload(context.Background(), "  ", "body")
	if err != nil {
		t.Fatalf("Upload() returned error: %v", err)
	}
	if !strings.HasPrefix(location, "s3://meeting-archive/transcript_") {
		t.Fatalf("unexpected location: %q", location)
	}
	if len(store.puts) != 1 {
		t.Fatalf("expected one upload, got %d", len(store.puts))
	}
}

func TestUploaderPropagatesHeadErrors(t *testing.T) {
	store := newStubStore()
	store.headErr = errors.New("access denied")
	uploader := NewUploader(store, "meeting-archive", "", discardLogger())

	if _, err := uploader.Upload(context.Background(), "run-1", "body"); err == nil {
		t.Fatalf("expected error")
	}
}
