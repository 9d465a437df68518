package listener

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/intake"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/segmentio/kafka-go"
)

type chanReader struct {
	msgs chan kafka.Message
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

type published struct {
	key   string
	reply intake.Reply
}

type recordingPublisher struct {
	mu   sync.Mutex
	out  []published
	done chan struct{}
	want int
}

func (p *recordingPublisher) Publish(_ context.Context, key string, value []byte) error {
	var r intake.Reply
	if err := json.Unmarshal(value, &r); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, published{key: key, reply: r})
	if len(p.out) == p.want {
		close(p.done)
	}
	return nil
}

// echoController replies with the event text and counts concurrent calls
// per actor.
type echoController struct {
	mu      sync.Mutex
	active  map[int64]int
	overlap bool
}

func (c *echoController) Handle(_ context.Context, ev *intake.Event) *intake.Reply {
	c.mu.Lock()
	c.active[ev.ActorID]++
	if c.active[ev.ActorID] > 1 {
		c.overlap = true
	}
	c.mu.Unlock()

	time.Sleep(time.Millisecond)

	c.mu.Lock()
	c.active[ev.ActorID]--
	c.mu.Unlock()
	return &intake.Reply{EventID: ev.ID, ActorID: ev.ActorID, Kind: intake.ReplyInfo, Text: ev.Text}
}

func event(t *testing.T, actor int64, text string) kafka.Message {
	t.Helper()
	data, err := json.Marshal(intake.Event{Kind: intake.EventText, ActorID: actor, Text: text})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Value: data}
}

func TestIntakeListener_OrdersPerActor(t *testing.T) {
	const perActor = 10
	actors := []int64{1, 2, 3, 4, 5}

	reader := &chanReader{msgs: make(chan kafka.Message, 100)}
	reader.msgs <- kafka.Message{Value: []byte("{not json")}
	for i := 0; i < perActor; i++ {
		for _, a := range actors {
			reader.msgs <- event(t, a, strconv.Itoa(i))
		}
	}

	pub := &recordingPublisher{done: make(chan struct{}), want: perActor * len(actors)}
	ctrl := &echoController{active: make(map[int64]int)}
	l := NewIntakeListener(reader, pub, ctrl, 3, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(stopped)
	}()

	select {
	case <-pub.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for replies")
	}
	cancel()
	<-stopped

	if ctrl.overlap {
		t.Fatal("events of one actor ran concurrently")
	}

	next := make(map[string]int)
	for _, p := range pub.out {
		if p.reply.EventID == "" {
			t.Fatal("event id not assigned")
		}
		if p.key != strconv.FormatInt(p.reply.ActorID, 10) {
			t.Fatalf("key %s for actor %d", p.key, p.reply.ActorID)
		}
		if want := strconv.Itoa(next[p.key]); p.reply.Text != want {
			t.Fatalf("actor %s got %s, want %s", p.key, p.reply.Text, want)
		}
		next[p.key]++
	}
}

type failingReader struct{ calls int }

func (r *failingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.calls++
	<-ctx.Done()
	return kafka.Message{}, errors.New("closed")
}

func TestIntakeListener_StopsOnCancel(t *testing.T) {
	l := NewIntakeListener(&failingReader{}, &recordingPublisher{done: make(chan struct{})}, &echoController{active: map[int64]int{}}, 0, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

// queueReader hands out its messages and then reports that it is idle.
type queueReader struct {
	msgs chan kafka.Message
	idle chan struct{}
	once sync.Once
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	default:
	}
	r.once.Do(func() { close(r.idle) })
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

// gatedController holds the first event until release is closed and
// fails any event that runs with a done context.
type gatedController struct {
	release chan struct{}
	once    sync.Once
}

func (c *gatedController) Handle(ctx context.Context, ev *intake.Event) *intake.Reply {
	c.once.Do(func() { <-c.release })
	if ctx.Err() != nil {
		return &intake.Reply{EventID: ev.ID, ActorID: ev.ActorID, Kind: intake.ReplyError, Text: ctx.Err().Error()}
	}
	return &intake.Reply{EventID: ev.ID, ActorID: ev.ActorID, Kind: intake.ReplyInfo, Text: ev.Text}
}

func TestIntakeListener_DrainsQueuedEvents(t *testing.T) {
	const queued = 5
	reader := &queueReader{msgs: make(chan kafka.Message, queued), idle: make(chan struct{})}
	for i := 0; i < queued; i++ {
		reader.msgs <- event(t, 9, strconv.Itoa(i))
	}

	pub := &recordingPublisher{done: make(chan struct{}), want: queued}
	ctrl := &gatedController{release: make(chan struct{})}
	l := NewIntakeListener(reader, pub, ctrl, 1, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(stopped)
	}()

	select {
	case <-reader.idle:
	case <-time.After(5 * time.Second):
		t.Fatal("events were not queued")
	}
	cancel()
	close(ctrl.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	if len(pub.out) != queued {
		t.Fatalf("published %d replies, want %d", len(pub.out), queued)
	}
	for i, p := range pub.out {
		if p.reply.Kind != intake.ReplyInfo || p.reply.Text != strconv.Itoa(i) {
			t.Fatalf("reply %d = %+v", i, p.reply)
		}
	}
}

func TestIntakeListener_DrainIsBounded(t *testing.T) {
	reader := &queueReader{msgs: make(chan kafka.Message, 2), idle: make(chan struct{})}
	reader.msgs <- event(t, 9, "0")
	reader.msgs <- event(t, 9, "1")

	pub := &recordingPublisher{done: make(chan struct{}), want: 2}
	ctrl := &gatedController{release: make(chan struct{})}
	l := NewIntakeListener(reader, pub, ctrl, 1, logger.NewNop())
	l.drain = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(stopped)
	}()

	<-reader.idle
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(ctrl.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
	for _, p := range pub.out {
		if p.reply.Kind != intake.ReplyError {
			t.Fatalf("event handled after the drain timeout: %+v", p.reply)
		}
	}
}

func TestShardOf(t *testing.T) {
	for _, id := range []int64{0, 1, 7, -3, 1 << 40} {
		s := shardOf(id, 4)
		if s < 0 || s >= 4 || s != shardOf(id, 4) {
			t.Fatalf("shardOf(%d) = %d", id, s)
		}
	}
}
