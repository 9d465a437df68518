package lock

import (
	"context"
	"sync"
)

// KeyedMutex is an in-process per-actor lock. Waiting honours ctx.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[int64]*slot)}
}

func (k *KeyedMutex) Lock(ctx context.Context, actorID int64) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[actorID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[actorID] = s
	}
	s.refs++
	k.mu.Unlock()

	// a free slot is taken even when ctx is already done
	select {
	case s.ch <- struct{}{}:
	default:
		select {
		case s.ch <- struct{}{}:
		case <-ctx.Done():
			k.release(actorID, s)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.release(actorID, s)
		})
	}, nil
}

func (k *KeyedMutex) release(actorID int64, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, actorID)
	}
}
