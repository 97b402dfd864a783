package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/pkg/utils"
	"go.uber.org/zap"
)

// Matcher selects the transcript segment that best answers a question.
type Matcher interface {
	Match(ctx context.Context, segments []models.Segment, question string) (*models.MatchResult, error)
}

// Generator produces free-form text for a prompt. *Client implements it;
// tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// defaultConfidence applies when the backend omits a confidence value.
const defaultConfidence = 0.7

const systemPrompt = `You are an AI assistant helping to find the most relevant segment from a transcript that answers a user's question. Analyze each segment carefully and choose the ONE most relevant segment that best answers the question. Provide your reasoning and explain why this segment is the best match.`

// Adapter wraps a Generator and parses its free-form response into a
// MatchResult. Segments are presented 1-indexed on the wire and converted
// back to 0-based indices, with bounds validated before any array access.
type Adapter struct {
	gen    Generator
	logger *zap.Logger
}

// NewAdapter creates an adapter over gen. A nil logger is replaced with a no-op.
func NewAdapter(gen Generator, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{gen: gen, logger: logger}
}

// Match performs one round trip against the backend. Any transport error,
// unparseable response, or invalid segment index is returned as an error;
// the adapter never retries.
func (a *Adapter) Match(ctx context.Context, segments []models.Segment, question string) (*models.MatchResult, error) {
	raw, err := a.gen.Generate(ctx, buildPrompt(segments, question), systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("semantic backend unavailable: %w", err)
	}
	payload, err := extractPayload(raw)
	if err != nil {
		a.logger.Warn("semantic response not parseable",
			zap.Error(err),
			zap.String("response", utils.Truncate(raw, 200)))
		return nil, err
	}
	idx, err := segmentIndex(payload.BestSegmentID, len(segments))
	if err != nil {
		a.logger.Warn("semantic response rejected", zap.Error(err))
		return nil, err
	}
	confidence := defaultConfidence
	if payload.Confidence != nil {
		confidence = utils.Clamp01(*payload.Confidence)
	}
	return &models.MatchResult{
		Segment:    &segments[idx],
		Confidence: confidence,
		Reasoning:  payload.Reasoning,
		Method:     models.MethodSemantic,
		Metadata: map[string]interface{}{
			"question_analysis": payload.QuestionAnalysis,
			"original_response": raw,
		},
	}, nil
}

// buildPrompt lists all segments 1-indexed with their clock timestamps and
// asks for a single embedded JSON object.
func buildPrompt(segments []models.Segment, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nTranscript segments:\n\n", question)
	for i, seg := range segments {
		fmt.Fprintf(&b, "Segment %d [Time: %s - %s]: %s\n\n", i+1, seg.Start, seg.End, seg.Text)
	}
	b.WriteString(`Based on the transcript segments above, identify the segment that best answers the question.
Return your answer in the following structured JSON format without any additional commentary:

{
    "best_segment_id": <segment number>,
    "confidence": <float between 0 and 1>,
    "reasoning": "<explain why this segment answers the question>",
    "question_analysis": "<brief analysis of the key information being sought>"
}

Only return the JSON object, nothing else.
`)
	return b.String()
}

// matchPayload is the structured block expected somewhere inside the
// backend's free-form response.
type matchPayload struct {
	BestSegmentID    json.RawMessage `json:"best_segment_id"`
	Confidence       *float64        `json:"confidence"`
	Reasoning        string          `json:"reasoning"`
	QuestionAnalysis string          `json:"question_analysis"`
}

var errNoJSON = errors.New("no JSON object in response")

// extractPayload parses the substring between the first '{' and the last
// '}' of the raw response, which may be surrounded by markdown or prose.
func extractPayload(raw string) (*matchPayload, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errNoJSON
	}
	var p matchPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("parse embedded JSON: %w", err)
	}
	return &p, nil
}

// segmentIndex converts best_segment_id (a number, or a digit-only string)
// from the 1-indexed wire protocol to a 0-based index, validating the
// [1, count] range before it is used as an array offset.
func segmentIndex(idRaw json.RawMessage, count int) (int, error) {
	if len(idRaw) == 0 {
		return 0, errors.New("best_segment_id missing")
	}
	s := strings.Trim(strings.TrimSpace(string(idRaw)), `"`)
	if !isDigits(s) {
		return 0, fmt.Errorf("best_segment_id %q is not a number", s)
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("best_segment_id %q: %w", s, err)
	}
	if id < 1 || id > count {
		return 0, fmt.Errorf("best_segment_id %d out of range [1, %d]", id, count)
	}
	return id - 1, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
