package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/domain"
)

// fakeStreamClient records stream commands. Commands the bus does not use
// panic through the nil embedded interface.
type fakeStreamClient struct {
	redis.Cmdable

	mu        sync.Mutex
	added     []*redis.XAddArgs
	acked     []string
	groups    []string
	left      []string
	pending   []redis.XMessage
	addErr    error
	groupErr  error
	removeErr error
}

func (f *fakeStreamClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.addErr != nil {
		return redis.NewStringResult("", f.addErr)
	}
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", nil)
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.groupErr != nil {
		return redis.NewStatusResult("", f.groupErr)
	}
	f.groups = append(f.groups, stream+"|"+group+"|"+start)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStreamClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	msgs := f.pending
	f.pending = nil
	f.mu.Unlock()

	if len(msgs) == 0 {
		select {
		case <-ctx.Done():
			return redis.NewXStreamSliceCmdResult(nil, ctx.Err())
		case <-time.After(5 * time.Millisecond):
			return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
		}
	}
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: msgs}}, nil)
}

func (f *fakeStreamClient) XGroupDelConsumer(ctx context.Context, stream, group, consumer string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return redis.NewIntResult(0, f.removeErr)
	}
	f.left = append(f.left, stream+"|"+group+"|"+consumer)
	return redis.NewIntResult(0, nil)
}

func (f *fakeStreamClient) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.acked...)
}

func testEvent() domain.Event {
	return domain.Event{
		ID:         "evt-1",
		Type:       domain.EventTypeIntroductionCreated,
		Collection: domain.DefaultCollection,
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Data:       map[string]interface{}{"title": "Intro", "icon": "star.png"},
	}
}

func entry(t *testing.T, id string, event domain.Event) redis.XMessage {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{
		fieldType:  string(event.Type),
		fieldEvent: string(data),
	}}
}

func TestPublish(t *testing.T) {
	client := &fakeStreamClient{}
	bus := NewStreamsEventBus(client, "group", "consumer", 1000, zap.NewNop())

	require.NoError(t, bus.Publish(context.Background(), "introduction.events", testEvent()))
	require.Len(t, client.added, 1)

	args := client.added[0]
	assert.Equal(t, "introductions:events:introduction.events", args.Stream)
	assert.EqualValues(t, 1000, args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.([]interface{})
	require.Len(t, values, 4)
	assert.Equal(t, fieldType, values[0])
	assert.Equal(t, "introduction.created", values[1])
	assert.Equal(t, fieldEvent, values[2])

	var decoded domain.Event
	require.NoError(t, json.Unmarshal([]byte(values[3].(string)), &decoded))
	assert.Equal(t, "evt-1", decoded.ID)
	assert.Equal(t, "Intro", decoded.Data["title"])
}

func TestPublish_Untrimmed(t *testing.T) {
	client := &fakeStreamClient{}
	bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

	require.NoError(t, bus.Publish(context.Background(), "topic", testEvent()))
	assert.Zero(t, client.added[0].MaxLen)
	assert.False(t, client.added[0].Approx)
}

func TestPublish_Error(t *testing.T) {
	client := &fakeStreamClient{addErr: errors.New("connection refused")}
	bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

	err := bus.Publish(context.Background(), "introduction.events", testEvent())
	assert.ErrorContains(t, err, "connection refused")
}

func TestHandle_AckPolicy(t *testing.T) {
	ok := func(ctx context.Context, event domain.Event) error { return nil }
	failing := func(ctx context.Context, event domain.Event) error { return errors.New("boom") }

	tests := []struct {
		name      string
		msg       redis.XMessage
		handler   func(context.Context, domain.Event) error
		wantAcked bool
	}{
		{"handled", entry(t, "1-0", testEvent()), ok, true},
		{"handler failure stays pending", entry(t, "2-0", testEvent()), failing, false},
		{"missing field is dropped", redis.XMessage{ID: "3-0", Values: map[string]interface{}{fieldType: "x"}}, failing, true},
		{"broken payload is dropped", redis.XMessage{ID: "4-0", Values: map[string]interface{}{fieldEvent: "{broken"}}, failing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeStreamClient{}
			bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

			bus.handle(context.Background(), "stream", tt.msg, tt.handler)

			if tt.wantAcked {
				assert.Equal(t, []string{tt.msg.ID}, client.ackedIDs())
			} else {
				assert.Empty(t, client.ackedIDs())
			}
		})
	}
}

func TestSubscribe_DeliversAndAcks(t *testing.T) {
	client := &fakeStreamClient{}
	client.pending = []redis.XMessage{entry(t, "1-0", testEvent())}
	bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.Event, 1)
	require.NoError(t, bus.Subscribe(ctx, "introduction.events", func(ctx context.Context, event domain.Event) error {
		received <- event
		return nil
	}))

	select {
	case event := <-received:
		assert.Equal(t, "evt-1", event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	assert.Eventually(t, func() bool { return len(client.ackedIDs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"introductions:events:introduction.events|group|$"}, client.groups)
}

func TestSubscribe_ExistingGroup(t *testing.T) {
	client := &fakeStreamClient{groupErr: errors.New("BUSYGROUP Consumer Group name already exists")}
	bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NoError(t, bus.Subscribe(ctx, "topic", func(context.Context, domain.Event) error { return nil }))
}

func TestSubscribe_GroupError(t *testing.T) {
	client := &fakeStreamClient{groupErr: errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")}
	bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

	err := bus.Subscribe(context.Background(), "topic", func(context.Context, domain.Event) error { return nil })
	assert.ErrorContains(t, err, "WRONGTYPE")
}

func TestClose_LeavesJoinedGroups(t *testing.T) {
	client := &fakeStreamClient{}
	bus := NewStreamsEventBus(client, "group", "consumer-1", 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Subscribe(ctx, "topic", func(context.Context, domain.Event) error { return nil }))

	require.NoError(t, bus.Close())
	assert.Equal(t, []string{"introductions:events:topic|group|consumer-1"}, client.left)

	// A second Close has nothing left to leave
	require.NoError(t, bus.Close())
	assert.Len(t, client.left, 1)
}

func TestClose_ReportsErrors(t *testing.T) {
	client := &fakeStreamClient{removeErr: errors.New("connection refused")}
	bus := NewStreamsEventBus(client, "group", "consumer", 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Subscribe(ctx, "topic", func(context.Context, domain.Event) error { return nil }))

	assert.ErrorContains(t, bus.Close(), "connection refused")
}
