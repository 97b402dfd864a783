package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hearclear/hearclear/internal/audio"
	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/internal/store"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("health: count transcripts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"transcripts": n,
	})
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list transcripts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"transcripts": ids,
		"count":       len(ids),
	})
}

func (s *Server) handleSaveTranscript(w http.ResponseWriter, r *http.Request) {
	var t models.Transcript
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.store.Save(r.Context(), &t)
	if err != nil {
		s.logger.Error("save transcript failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("transcript stored", zap.String("id", id), zap.Int("segments", len(t.Segments)))
	s.respondJSON(w, http.StatusCreated, map[string]string{"file_id": id, "status": "stored"})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "transcript not found")
			return
		}
		s.logger.Error("get transcript failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete transcript request", zap.String("id", id))
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "transcript not found")
			return
		}
		s.logger.Error("delete transcript failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "transcript not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("id", id), zap.String("question", q.Text))
	result, err := s.pipeline.AnswerText(r.Context(), t, &q)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuestion) {
			s.respondError(w, http.StatusBadRequest, "question must not be empty")
			return
		}
		s.logger.Error("query failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleQueryAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "transcript not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf *audio.Buffer
	var audioErr error
	path, audioErr := s.store.AudioPath(r.Context(), id)
	if audioErr == nil {
		buf, audioErr = audio.DecodeFile(path)
	}
	if audioErr != nil {
		s.logger.Warn("source audio unavailable", zap.String("id", id), zap.Error(audioErr))
	}

	result, clip, err := s.pipeline.AnswerWithAudio(r.Context(), t, &q, buf)
	if err != nil && result == nil {
		if errors.Is(err, models.ErrEmptyQuestion) {
			s.respondError(w, http.StatusBadRequest, "question must not be empty")
			return
		}
		s.logger.Error("query failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		audioErr = err
	}

	if clip != nil {
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("X-Hearclear-Start-Seconds", fmt.Sprintf("%g", clip.StartSeconds))
		w.Header().Set("X-Hearclear-End-Seconds", fmt.Sprintf("%g", clip.EndSeconds))
		w.Header().Set("X-Hearclear-Confidence", fmt.Sprintf("%g", result.Confidence))
		if method, ok := result.Metadata["match_method"].(string); ok {
			w.Header().Set("X-Hearclear-Match-Method", method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(clip.Bytes)
		return
	}

	// No clip to return; fall back to the text answer and say why.
	resp := map[string]interface{}{"answer": result}
	if audioErr != nil {
		resp["audio_error"] = audioErr.Error()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
