package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/domain"
	"github.com/aescanero/introductions/pkg/ports"
)

var _ ports.EventBus = (*StreamsEventBus)(nil)

const (
	fieldType  = "type"
	fieldEvent = "event"

	readCount  = 10
	readBlock  = time.Second
	retryDelay = time.Second
	closeWait  = 5 * time.Second
)

// StreamsEventBus implements EventBus on Redis Streams. Every topic is one
// capped stream; subscribers share a consumer group.
type StreamsEventBus struct {
	client   redis.Cmdable
	group    string
	consumer string
	maxLen   int64
	logger   *zap.Logger

	mu      sync.Mutex
	streams map[string]struct{}
}

// NewStreamsEventBus creates a Redis Streams event bus. Streams are trimmed
// to roughly maxLen entries; zero disables trimming.
func NewStreamsEventBus(client redis.Cmdable, group, consumer string, maxLen int64, logger *zap.Logger) *StreamsEventBus {
	return &StreamsEventBus{
		client:   client,
		group:    group,
		consumer: consumer,
		maxLen:   maxLen,
		logger:   logger,
		streams:  make(map[string]struct{}),
	}
}

// Publish appends an event to the topic stream
func (b *StreamsEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	stream := streamKey(topic)
	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: b.maxLen,
		Approx: b.maxLen > 0,
		Values: []interface{}{fieldType, string(event.Type), fieldEvent, string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to append event to %s: %w", stream, err)
	}

	b.logger.Debug("event published",
		zap.String("stream", stream),
		zap.String("entry_id", id),
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)))

	return nil
}

// Subscribe joins the consumer group of the topic stream, starting at new
// entries, and consumes in the background until ctx is done
func (b *StreamsEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	stream := streamKey(topic)

	err := b.client.XGroupCreateMkStream(ctx, stream, b.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to join group %s on %s: %w", b.group, stream, err)
	}

	b.mu.Lock()
	b.streams[stream] = struct{}{}
	b.mu.Unlock()

	b.logger.Info("consuming event stream",
		zap.String("stream", stream),
		zap.String("group", b.group),
		zap.String("consumer", b.consumer))

	go b.consume(ctx, stream, handler)

	return nil
}

func (b *StreamsEventBus) consume(ctx context.Context, stream string, handler ports.EventHandler) {
	for ctx.Err() == nil {
		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()

		switch {
		case err == nil:
			for _, s := range res {
				for _, msg := range s.Messages {
					b.handle(ctx, stream, msg, handler)
				}
			}
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
		default:
			b.logger.Warn("stream read failed",
				zap.String("stream", stream),
				zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
		}
	}
}

// handle delivers one entry. Undecodable entries are acknowledged and
// dropped; entries whose handler fails stay pending.
func (b *StreamsEventBus) handle(ctx context.Context, stream string, msg redis.XMessage, handler ports.EventHandler) {
	event, err := decodeEntry(msg)
	if err != nil {
		b.logger.Error("dropping undecodable stream entry",
			zap.String("stream", stream),
			zap.String("entry_id", msg.ID),
			zap.Error(err))
		b.ack(ctx, stream, msg.ID)
		return
	}

	if err := handler(ctx, event); err != nil {
		b.logger.Error("event handler failed, entry left pending",
			zap.String("stream", stream),
			zap.String("entry_id", msg.ID),
			zap.String("event_id", event.ID),
			zap.Error(err))
		return
	}

	b.ack(ctx, stream, msg.ID)
}

func (b *StreamsEventBus) ack(ctx context.Context, stream, id string) {
	if err := b.client.XAck(ctx, stream, b.group, id).Err(); err != nil {
		b.logger.Error("failed to acknowledge stream entry",
			zap.String("stream", stream),
			zap.String("entry_id", id),
			zap.Error(err))
	}
}

// Close removes this consumer from every group it joined. The Redis client
// belongs to the caller and stays open.
func (b *StreamsEventBus) Close() error {
	b.mu.Lock()
	streams := make([]string, 0, len(b.streams))
	for s := range b.streams {
		streams = append(streams, s)
	}
	b.streams = make(map[string]struct{})
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeWait)
	defer cancel()

	var errs []error
	for _, s := range streams {
		if err := b.client.XGroupDelConsumer(ctx, s, b.group, b.consumer).Err(); err != nil {
			errs = append(errs, fmt.Errorf("failed to leave group on %s: %w", s, err))
		}
	}

	return errors.Join(errs...)
}

func decodeEntry(msg redis.XMessage) (domain.Event, error) {
	var event domain.Event

	raw, ok := msg.Values[fieldEvent].(string)
	if !ok {
		return event, fmt.Errorf("entry has no %q field", fieldEvent)
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("failed to decode event: %w", err)
	}

	return event, nil
}

// streamKey returns the Redis stream key for a topic
func streamKey(topic string) string {
	return fmt.Sprintf("introductions:events:%s", topic)
}
