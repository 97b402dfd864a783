// Package retrieval resolves transcript questions into answers and, when
// asked, the matching audio clip. It composes the semantic adapter and the
// keyword fallback behind a strict two-tier policy: semantic first when
// preferred and available, keyword otherwise. Scores are never blended.
package retrieval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hearclear/hearclear/internal/keyword"
	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/internal/semantic"
	"github.com/hearclear/hearclear/internal/timestamp"
	"go.uber.org/zap"
)

// Resolver answers questions against a transcript. It always returns a
// fully-populated AnswerResult; "no answer found" is a valid result, not
// an error. The only error case is invalid caller input.
type Resolver struct {
	semantic semantic.Matcher
	logger   *zap.Logger
}

// NewResolver creates a resolver. matcher may be nil when the semantic
// backend is disabled; every query then uses the keyword fallback.
func NewResolver(matcher semantic.Matcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{semantic: matcher, logger: logger}
}

// Resolve validates the question, drops segments with unparseable
// timestamps, runs the two-tier matching policy, and assembles the result.
func (r *Resolver) Resolve(ctx context.Context, t *models.Transcript, q *models.Question) (*models.AnswerResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	segments := r.usableSegments(t)
	preferSemantic := q.SemanticOrDefault()
	available := r.semantic != nil

	var match *models.MatchResult
	semanticRan := false
	if preferSemantic && available && len(segments) > 0 {
		semanticRan = true
		m, err := r.semantic.Match(ctx, segments, q.Text)
		switch {
		case err != nil:
			r.logger.Warn("semantic match failed, falling back to keyword",
				zap.String("file_id", t.FileID), zap.Error(err))
		case m.Matched():
			match = m
		default:
			r.logger.Warn("semantic match returned no segment, falling back to keyword",
				zap.String("file_id", t.FileID))
		}
	}
	if match == nil {
		match = keyword.Match(segments, q.Text)
	}
	return r.buildResult(t, q, match, preferSemantic, available, semanticRan), nil
}

// usableSegments drops segments whose timestamps do not parse; they are
// excluded from candidate matching rather than failing the whole query.
func (r *Resolver) usableSegments(t *models.Transcript) []models.Segment {
	out := make([]models.Segment, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if _, err := timestamp.Parse(seg.Start); err != nil {
			r.logger.Warn("segment excluded: unparseable start",
				zap.Int("segment_id", seg.ID), zap.String("start", seg.Start))
			continue
		}
		if _, err := timestamp.Parse(seg.End); err != nil {
			r.logger.Warn("segment excluded: unparseable end",
				zap.Int("segment_id", seg.ID), zap.String("end", seg.End))
			continue
		}
		out = append(out, seg)
	}
	return out
}

func (r *Resolver) buildResult(t *models.Transcript, q *models.Question, match *models.MatchResult, preferSemantic, available, semanticRan bool) *models.AnswerResult {
	metadata := map[string]interface{}{
		"match_method": string(match.Method),
		"reasoning":    match.Reasoning,
	}
	for k, v := range match.Metadata {
		metadata[k] = v
	}
	if semanticRan {
		metadata["request"] = map[string]interface{}{
			"request_id":         uuid.NewString(),
			"file_id":            t.FileID,
			"question":           q.Text,
			"semantic_requested": preferSemantic,
			"semantic_available": available,
			"timestamp":          time.Now().UTC().Format(time.RFC3339),
		}
	}

	if !match.Matched() {
		return &models.AnswerResult{
			Confidence: 0,
			Text:       models.NoAnswerText,
			Metadata:   metadata,
		}
	}
	// Timestamps parsed successfully in usableSegments.
	start, _ := timestamp.Parse(match.Segment.Start)
	end, _ := timestamp.Parse(match.Segment.End)
	return &models.AnswerResult{
		Segment:      match.Segment,
		Confidence:   match.Confidence,
		StartSeconds: &start,
		EndSeconds:   &end,
		Text:         match.Segment.Text,
		Metadata:     metadata,
	}
}
