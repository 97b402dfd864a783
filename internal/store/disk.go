package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hearclear/hearclear/internal/models"
)

// DiskStore keeps one JSON document per transcript ID under a transcripts
// directory, with source audio files in a separate directory matched by ID.
// An in-memory ID index avoids rescanning the directory per request; the
// watcher keeps it in sync with out-of-band changes.
type DiskStore struct {
	transcriptsDir string
	audioDir       string

	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDiskStore creates both directories if missing and indexes any
// transcripts already on disk.
func NewDiskStore(transcriptsDir, audioDir string) (*DiskStore, error) {
	if err := os.MkdirAll(transcriptsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcripts dir: %w", err)
	}
	if audioDir != "" {
		if err := os.MkdirAll(audioDir, 0o755); err != nil {
			return nil, fmt.Errorf("create audio dir: %w", err)
		}
	}
	s := &DiskStore{
		transcriptsDir: transcriptsDir,
		audioDir:       audioDir,
		ids:            make(map[string]struct{}),
	}
	entries, err := os.ReadDir(transcriptsDir)
	if err != nil {
		return nil, fmt.Errorf("scan transcripts dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s.ids[strings.TrimSuffix(e.Name(), ".json")] = struct{}{}
	}
	return s, nil
}

func (s *DiskStore) path(id string) string {
	return filepath.Join(s.transcriptsDir, id+".json")
}

// Save writes the transcript as pretty-printed JSON, assigning a uuid
// when the transcript has no file ID yet.
func (s *DiskStore) Save(_ context.Context, t *models.Transcript) (string, error) {
	if t.FileID == "" {
		t.FileID = uuid.NewString()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(s.path(t.FileID), data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	s.Track(t.FileID)
	return t.FileID, nil
}

func (s *DiskStore) Get(_ context.Context, id string) (*models.Transcript, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var t models.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", id, err)
	}
	if t.FileID == "" {
		t.FileID = id
	}
	return &t, nil
}

func (s *DiskStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete transcript: %w", err)
	}
	s.Forget(id)
	return nil
}

func (s *DiskStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *DiskStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids), nil
}

// AudioPath prefers "<id>.wav" and falls back to the first file whose name
// contains the ID, matching how recordings are stored with decorated names.
func (s *DiskStore) AudioPath(_ context.Context, id string) (string, error) {
	if s.audioDir == "" {
		return "", fmt.Errorf("%w: no audio directory configured", ErrNotFound)
	}
	exact := filepath.Join(s.audioDir, id+".wav")
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}
	entries, err := os.ReadDir(s.audioDir)
	if err != nil {
		return "", fmt.Errorf("scan audio dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), id) {
			return filepath.Join(s.audioDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: no audio for %s", ErrNotFound, id)
}

func (s *DiskStore) Close() error {
	return nil
}

// Track records id in the index. Called on Save and by the watcher when a
// transcript appears out-of-band.
func (s *DiskStore) Track(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Forget drops id from the index.
func (s *DiskStore) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}
