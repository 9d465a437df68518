// Package session keeps per-actor conversation state and the transitions
// between its modes.
package session

import (
	"context"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

// Store maps actor ids to their session. Get returns a fresh idle session
// for unknown actors.
type Store interface {
	Get(ctx context.Context, actorID int64) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, actorID int64) error
}

// Locker serializes event processing for one actor. The returned unlock
// must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, actorID int64) (unlock func(), err error)
}
