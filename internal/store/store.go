// Package store persists transcripts and locates their source audio.
// The engine itself never writes through this package during a query;
// it only reads.
package store

import (
	"context"
	"errors"

	"github.com/hearclear/hearclear/internal/models"
)

// ErrNotFound is returned when no transcript (or source audio) exists for
// the requested ID.
var ErrNotFound = errors.New("transcript not found")

// Store defines transcript persistence operations.
type Store interface {
	// Save stores the transcript, assigning a fresh file ID when it has
	// none, and returns the ID.
	Save(ctx context.Context, t *models.Transcript) (string, error)
	Get(ctx context.Context, id string) (*models.Transcript, error)
	Delete(ctx context.Context, id string) error
	// List returns the known transcript IDs in sorted order.
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	// AudioPath returns the path of the source audio recording for id.
	AudioPath(ctx context.Context, id string) (string, error)
	Close() error
}
