package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/hearclear/hearclear/internal/audio"
	"github.com/hearclear/hearclear/internal/config"
	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/internal/retrieval"
	"github.com/hearclear/hearclear/internal/store"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *store.DiskStore, string) {
	t.Helper()
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	st, err := store.NewDiskStore(filepath.Join(dir, "transcripts"), uploads)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	logger := zap.NewNop()
	resolver := retrieval.NewResolver(nil, logger)
	extractor := audio.NewExtractor(0.5, logger)
	pipeline := retrieval.NewPipeline(resolver, extractor, logger)
	srv := NewServer(pipeline, st, &config.ServerConfig{Host: "localhost", Port: 8080}, logger)
	return srv, st, uploads
}

func seedTranscript(t *testing.T, st *store.DiskStore) string {
	t.Helper()
	tr := &models.Transcript{
		FileID: "rec-1",
		Segments: []models.Segment{
			{ID: 0, Start: "0:00:00", End: "0:00:05", Text: "The weather today is sunny"},
			{ID: 1, Start: "0:00:05", End: "0:00:10", Text: "Remember to take your medication at noon"},
		},
	}
	if _, err := st.Save(context.Background(), tr); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}
	return tr.FileID
}

// writeWavFixture encodes a mono ramp of the given duration to uploads/<id>.wav.
func writeWavFixture(t *testing.T, uploads, id string, durationSec float64) {
	t.Helper()
	rate := 8000
	pcm := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, int(durationSec*float64(rate))),
		SourceBitDepth: 16,
	}
	buf, err := audio.NewBuffer(pcm, 16)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	clip, err := audio.NewExtractor(0, zap.NewNop()).Extract(buf, 0, durationSec)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(uploads, id+".wav"), clip.Bytes, 0o644); err != nil {
		t.Fatal(err)
	}
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&rdr).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &rdr)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv, st, _ := newTestServer(t)
	seedTranscript(t, st)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out struct {
		Status      string `json:"status"`
		Transcripts int    `json:"transcripts"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "ok" || out.Transcripts != 1 {
		t.Errorf("health: got %+v", out)
	}
}

func TestTranscriptLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tr := &models.Transcript{Segments: []models.Segment{
		{ID: 0, Start: "0:00:00", End: "0:00:05", Text: "hello there"},
	}}
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts", tr)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		FileID string `json:"file_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.FileID == "" {
		t.Fatal("expected assigned file_id")
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/transcripts/"+created.FileID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get status: got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/transcripts", nil)
	var list struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 {
		t.Errorf("count: got %d", list.Count)
	}

	w = doJSON(t, srv, http.MethodDelete, "/api/v1/transcripts/"+created.FileID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status: got %d", w.Code)
	}
	w = doJSON(t, srv, http.MethodGet, "/api/v1/transcripts/"+created.FileID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", w.Code)
	}
}

func TestHandleQuery(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedTranscript(t, st)

	semantic := false
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts/"+id+"/query",
		&models.Question{Text: "when should I take medication", Semantic: &semantic})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var result models.AnswerResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Segment == nil || result.Segment.ID != 1 {
		t.Errorf("segment: got %+v", result.Segment)
	}
	if result.StartSeconds == nil || *result.StartSeconds != 5.0 {
		t.Errorf("start_seconds: got %v", result.StartSeconds)
	}
}

func TestHandleQueryEmptyQuestion(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedTranscript(t, st)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts/"+id+"/query",
		&models.Question{Text: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleQueryUnknownTranscript(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts/nope/query",
		&models.Question{Text: "anything"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleQueryAudio(t *testing.T) {
	srv, st, uploads := newTestServer(t)
	id := seedTranscript(t, st)
	writeWavFixture(t, uploads, id, 10)

	semantic := false
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts/"+id+"/query-audio",
		&models.Question{Text: "when should I take medication", Semantic: &semantic})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Fatalf("content type: got %q", ct)
	}
	start, err := strconv.ParseFloat(w.Header().Get("X-Hearclear-Start-Seconds"), 64)
	if err != nil || start != 4.5 {
		t.Errorf("start header: got %q", w.Header().Get("X-Hearclear-Start-Seconds"))
	}
	end, err := strconv.ParseFloat(w.Header().Get("X-Hearclear-End-Seconds"), 64)
	if err != nil || end != 10 {
		t.Errorf("end header: got %q", w.Header().Get("X-Hearclear-End-Seconds"))
	}
	if m := w.Header().Get("X-Hearclear-Match-Method"); m != string(models.MethodKeywordFallback) {
		t.Errorf("match method header: got %q", m)
	}
	if _, err := audio.DecodeBytes(w.Body.Bytes()); err != nil {
		t.Errorf("response body should be a playable clip: %v", err)
	}
}

func TestHandleQueryAudioMissingRecording(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedTranscript(t, st)

	semantic := false
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts/"+id+"/query-audio",
		&models.Question{Text: "when should I take medication", Semantic: &semantic})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: got %q", ct)
	}
	var resp struct {
		Answer     *models.AnswerResult `json:"answer"`
		AudioError string               `json:"audio_error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer == nil || resp.Answer.Segment == nil {
		t.Error("text answer should survive a missing recording")
	}
	if resp.AudioError == "" {
		t.Error("audio_error should explain the missing clip")
	}
}

func TestHandleQueryAudioNoMatch(t *testing.T) {
	srv, st, uploads := newTestServer(t)
	id := seedTranscript(t, st)
	writeWavFixture(t, uploads, id, 10)

	semantic := false
	w := doJSON(t, srv, http.MethodPost, "/api/v1/transcripts/"+id+"/query-audio",
		&models.Question{Text: "is it?", Semantic: &semantic})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("no match should return JSON, got %q", ct)
	}
	var resp struct {
		Answer *models.AnswerResult `json:"answer"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer == nil || resp.Answer.Text != models.NoAnswerText {
		t.Errorf("answer: got %+v", resp.Answer)
	}
}
