package store

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*model.Session)}
}

func (s *MemoryStore) Get(_ context.Context, actorID int64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[actorID]; ok {
		return sess.Clone(), nil
	}
	return model.NewSession(actorID), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := sess.Clone()
	c.UpdatedAt = time.Now()
	s.sessions[sess.ActorID] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, actorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, actorID)
	return nil
}
