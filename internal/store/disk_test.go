package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearclear/hearclear/internal/models"
)

func newTestStore(t *testing.T) (*DiskStore, string, string) {
	t.Helper()
	dir := t.TempDir()
	transcripts := filepath.Join(dir, "transcripts")
	uploads := filepath.Join(dir, "uploads")
	s, err := NewDiskStore(transcripts, uploads)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return s, transcripts, uploads
}

func sampleTranscript(id string) *models.Transcript {
	return &models.Transcript{
		FileID: id,
		Segments: []models.Segment{
			{ID: 0, Start: "0:00:00", End: "0:00:05", Text: "hello"},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleTranscript("abc"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "abc" {
		t.Errorf("id: got %q", id)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != "hello" {
		t.Errorf("round trip: got %+v", got)
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt should be stamped on save")
	}
}

func TestSaveAssignsID(t *testing.T) {
	s, _, _ := newTestStore(t)
	id, err := s.Save(context.Background(), sampleTranscript(""))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}
	if _, err := s.Get(context.Background(), id); err != nil {
		t.Errorf("Get(%q): %v", id, err)
	}
}

func TestGetNotFound(t *testing.T) {
	s, _, _ := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Save(ctx, sampleTranscript("b"))
	_, _ = s.Save(ctx, sampleTranscript("a"))

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("list: got %v", ids)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("count: got %d", n)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestIndexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{"file_id":"old","segments":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewDiskStore(dir, "")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ids, _ := s.List(context.Background())
	if len(ids) != 1 || ids[0] != "old" {
		t.Errorf("expected pre-existing transcript indexed, got %v", ids)
	}
}

func TestAudioPath(t *testing.T) {
	s, _, uploads := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AudioPath(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	exact := filepath.Join(uploads, "abc.wav")
	if err := os.WriteFile(exact, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := s.AudioPath(ctx, "abc")
	if err != nil {
		t.Fatalf("AudioPath: %v", err)
	}
	if got != exact {
		t.Errorf("path: got %q, want %q", got, exact)
	}
}

func TestAudioPathSubstringMatch(t *testing.T) {
	s, _, uploads := newTestStore(t)
	decorated := filepath.Join(uploads, "meeting_enhanced_abc123.wav")
	if err := os.WriteFile(decorated, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := s.AudioPath(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("AudioPath: %v", err)
	}
	if got != decorated {
		t.Errorf("path: got %q, want %q", got, decorated)
	}
}
