package introductions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/domain"
	"github.com/aescanero/introductions/pkg/ports"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Manager coordinates introduction writes and listings
type Manager struct {
	store    ports.StoreGateway
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	tracer   trace.Tracer
	logger   *zap.Logger

	collection string
	topic      string
}

// NewManager creates a new introductions manager
func NewManager(
	store ports.StoreGateway,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	tracer trace.Tracer,
	logger *zap.Logger,
	collection, topic string,
) *Manager {
	return &Manager{
		store:      store,
		eventBus:   eventBus,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
		collection: collection,
		topic:      topic,
	}
}

// Create stores one introduction and announces it on the event bus
func (m *Manager) Create(ctx context.Context, intro domain.Introduction) error {
	ctx, span := m.tracer.Start(ctx, "introductions.create",
		trace.WithAttributes(attribute.String("store.collection", m.collection)))
	defer span.End()

	start := time.Now()
	err := m.store.InsertOne(ctx, m.collection, intro)
	m.metrics.RecordStoreOperation("insert", m.collection, result(err), time.Since(start))
	if err != nil {
		m.logger.Error("failed to insert introduction",
			zap.String("op", "insert"),
			zap.String("collection", m.collection),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}

	m.publishCreated(ctx, intro)

	return nil
}

// List returns every stored document of the collection
func (m *Manager) List(ctx context.Context) ([]domain.Document, error) {
	ctx, span := m.tracer.Start(ctx, "introductions.list",
		trace.WithAttributes(attribute.String("store.collection", m.collection)))
	defer span.End()

	start := time.Now()
	docs, err := m.store.FindAll(ctx, m.collection)
	m.metrics.RecordStoreOperation("find", m.collection, result(err), time.Since(start))
	if err != nil {
		m.logger.Error("failed to list introductions",
			zap.String("op", "find"),
			zap.String("collection", m.collection),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("store.documents", len(docs)))

	return docs, nil
}

// publishCreated emits an introduction.created event. A failed publish is
// logged only; the write has already succeeded.
func (m *Manager) publishCreated(ctx context.Context, intro domain.Introduction) {
	event := domain.Event{
		ID:         uuid.New().String(),
		Type:       domain.EventTypeIntroductionCreated,
		Collection: m.collection,
		Timestamp:  time.Now().UTC(),
		Data: map[string]interface{}{
			"title": intro.Title,
			"icon":  intro.Icon,
		},
	}

	if err := m.eventBus.Publish(ctx, m.topic, event); err != nil {
		m.logger.Warn("failed to publish introduction event",
			zap.String("event_id", event.ID),
			zap.String("topic", m.topic),
			zap.Error(err))
		m.metrics.RecordEventPublished(m.topic, resultError)
		return
	}

	m.metrics.RecordEventPublished(m.topic, resultSuccess)
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
