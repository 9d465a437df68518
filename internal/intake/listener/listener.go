package listener

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/intake"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the consuming side of the event topic.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Publisher writes replies keyed by actor id.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// drainTimeout bounds how long queued events may run after shutdown began.
const drainTimeout = 30 * time.Second

// IntakeListener feeds inbound events to the controller. Events of one
// actor always land on the same worker and run in arrival order; different
// actors run in parallel.
type IntakeListener struct {
	consumer  MessageReader
	publisher Publisher
	ctrl      intake.Controller
	workers   int
	drain     time.Duration
	logger    logger.ZapLogger
}

func NewIntakeListener(consumer MessageReader, publisher Publisher, ctrl intake.Controller, workers int, logger logger.ZapLogger) *IntakeListener {
	if workers < 1 {
		workers = 1
	}
	return &IntakeListener{
		consumer:  consumer,
		publisher: publisher,
		ctrl:      ctrl,
		workers:   workers,
		drain:     drainTimeout,
		logger:    logger,
	}
}

// Start blocks until ctx is done. Events already queued are still handled
// before it returns, for at most the drain timeout.
func (l *IntakeListener) Start(ctx context.Context) {
	l.logger.Info("Starting Intake Kafka Listener", zap.Int("workers", l.workers))

	// workers outlive ctx so that the drain can finish
	work, stopWork := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWork()

	shards := make([]chan *intake.Event, l.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan *intake.Event, 64)
		wg.Add(1)
		go func(events <-chan *intake.Event) {
			defer wg.Done()
			for ev := range events {
				l.process(work, ev)
			}
		}(shards[i])
	}
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		timer := time.AfterFunc(l.drain, func() {
			l.logger.Warn("Drain timeout reached, abandoning queued events", zap.Duration("timeout", l.drain))
			stopWork()
		})
		wg.Wait()
		timer.Stop()
		l.logger.Info("Stopped Intake Kafka Listener")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			ev, ok := l.decode(msg.Value)
			if !ok {
				continue
			}
			select {
			case shards[shardOf(ev.ActorID, l.workers)] <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (l *IntakeListener) decode(value []byte) (*intake.Event, bool) {
	var ev intake.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return nil, false
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return &ev, true
}

func (l *IntakeListener) process(ctx context.Context, ev *intake.Event) {
	l.logger.Debug("Processing event",
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.Int64("actor_id", ev.ActorID),
	)

	reply := l.ctrl.Handle(ctx, ev)

	data, err := json.Marshal(reply)
	if err != nil {
		l.logger.Error("Failed to marshal reply", zap.String("event_id", ev.ID), zap.Error(err))
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := l.publisher.Publish(pubCtx, strconv.FormatInt(ev.ActorID, 10), data); err != nil {
		l.logger.Error("Failed to publish reply",
			zap.String("event_id", ev.ID),
			zap.Int64("actor_id", ev.ActorID),
			zap.Error(err),
		)
	}
}

func shardOf(actorID int64, n int) int {
	return int(uint64(actorID) % uint64(n))
}
