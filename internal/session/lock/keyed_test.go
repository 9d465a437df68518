package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutex_SerializesSameActor(t *testing.T) {
	k := NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), 1)
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
	if len(k.slots) != 0 {
		t.Fatalf("slots leaked: %d", len(k.slots))
	}
}

func TestKeyedMutex_DifferentActorsDoNotBlock(t *testing.T) {
	k := NewKeyedMutex()
	unlock, _ := k.Lock(context.Background(), 1)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	other, err := k.Lock(ctx, 2)
	if err != nil {
		t.Fatalf("lock for another actor blocked: %v", err)
	}
	other()
}

func TestKeyedMutex_WaitHonoursContext(t *testing.T) {
	k := NewKeyedMutex()
	unlock, _ := k.Lock(context.Background(), 1)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, 1); err == nil {
		t.Fatal("expected context error while the actor is locked")
	}
}

func TestKeyedMutex_FreeSlotWithDoneContext(t *testing.T) {
	k := NewKeyedMutex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 50; i++ {
		unlock, err := k.Lock(ctx, 1)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		unlock()
	}
}
