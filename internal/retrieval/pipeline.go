package retrieval

import (
	"context"

	"github.com/hearclear/hearclear/internal/audio"
	"github.com/hearclear/hearclear/internal/models"
	"go.uber.org/zap"
)

// Pipeline composes the resolver and the audio extractor into the two
// user-facing operations. It is stateless between calls; independent
// queries run fully in parallel.
type Pipeline struct {
	resolver  *Resolver
	extractor *audio.Extractor
	logger    *zap.Logger
}

// NewPipeline creates a pipeline over an already-constructed resolver and
// extractor.
func NewPipeline(resolver *Resolver, extractor *audio.Extractor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{resolver: resolver, extractor: extractor, logger: logger}
}

// AnswerText resolves the question into a text answer.
func (p *Pipeline) AnswerText(ctx context.Context, t *models.Transcript, q *models.Question) (*models.AnswerResult, error) {
	return p.resolver.Resolve(ctx, t, q)
}

// AnswerWithAudio resolves the question and, when a segment matched,
// slices the answer clip from buf. Extraction failure degrades to a
// text-only answer: the AnswerResult is returned alongside the extraction
// error, never discarded because of it.
func (p *Pipeline) AnswerWithAudio(ctx context.Context, t *models.Transcript, q *models.Question, buf *audio.Buffer) (*models.AnswerResult, *models.AudioClip, error) {
	result, err := p.resolver.Resolve(ctx, t, q)
	if err != nil {
		return nil, nil, err
	}
	if result.Segment == nil || result.StartSeconds == nil || result.EndSeconds == nil || buf == nil {
		return result, nil, nil
	}
	clip, err := p.extractor.Extract(buf, *result.StartSeconds, *result.EndSeconds)
	if err != nil {
		p.logger.Warn("audio extraction failed, returning text answer only",
			zap.String("file_id", t.FileID), zap.Error(err))
		return result, nil, err
	}
	return result, clip, nil
}
