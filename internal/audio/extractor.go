package audio

import (
	"errors"
	"fmt"

	"github.com/hearclear/hearclear/internal/models"
	"go.uber.org/zap"
)

// DefaultPadding is the symmetric padding budget, in seconds, applied
// around extracted segments so speech is not clipped at the boundary.
const DefaultPadding = 0.5

var (
	// ErrInvalidRange is returned for a negative start or an end not
	// after the start.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrEmptySegment is returned when the clamped bounds collapse to a
	// zero-length slice.
	ErrEmptySegment = errors.New("extracted segment is empty")
)

// Extractor slices answer clips out of decoded audio. It holds no locks
// and no cross-request state; every call re-slices from the full buffer.
type Extractor struct {
	padding float64
	logger  *zap.Logger
}

// NewExtractor creates an extractor with the given padding budget in
// seconds. A negative padding uses DefaultPadding; zero disables padding.
func NewExtractor(padding float64, logger *zap.Logger) *Extractor {
	if padding < 0 {
		padding = DefaultPadding
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{padding: padding, logger: logger}
}

// Extract returns the clip for [startSec, endSec). The end is clamped to
// the buffer duration; padding is applied on each side only where the
// result stays inside the buffer, so a segment at either edge gets
// one-sided or no padding rather than an error.
func (e *Extractor) Extract(buf *Buffer, startSec, endSec float64) (*models.AudioClip, error) {
	if startSec < 0 || endSec <= startSec {
		return nil, fmt.Errorf("%w: [%.3f, %.3f)", ErrInvalidRange, startSec, endSec)
	}
	total := buf.Duration()
	if endSec > total {
		e.logger.Warn("segment end beyond audio, clamping",
			zap.Float64("end_seconds", endSec),
			zap.Float64("duration_seconds", total))
		endSec = total
	}
	if startSec-e.padding >= 0 {
		startSec -= e.padding
	}
	if endSec+e.padding <= total {
		endSec += e.padding
	}
	pcm := buf.slice(startSec, endSec)
	if len(pcm.Data) == 0 {
		return nil, fmt.Errorf("%w: [%.3f, %.3f)", ErrEmptySegment, startSec, endSec)
	}
	data, err := buf.encode(pcm)
	if err != nil {
		return nil, err
	}
	return &models.AudioClip{
		Bytes:        data,
		Format:       "wav",
		StartSeconds: startSec,
		EndSeconds:   endSec,
	}, nil
}
