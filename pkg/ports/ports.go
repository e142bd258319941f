// Package ports declares the interfaces the application layer depends on.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/introductions/pkg/domain"
)

// StoreGateway hides document store details behind insert and list.
// Implementations must be safe for concurrent use.
type StoreGateway interface {
	// InsertOne appends exactly one record to the named collection
	InsertOne(ctx context.Context, collection string, intro domain.Introduction) error

	// FindAll returns every document of the named collection in store order.
	// Documents that cannot be decoded are skipped.
	FindAll(ctx context.Context, collection string) ([]domain.Document, error)

	// Ping checks store connectivity
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// EventHandler handles a published event
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes introduction events to subscribers
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records gateway metrics
type MetricsCollector interface {
	RecordStoreOperation(op, collection, result string, duration time.Duration)
	RecordSkippedDocument(collection string)
	RecordEventPublished(topic, result string)
	SetStoreHealthy(healthy bool)
}

// DocumentSkipper is notified for every document a listing had to skip
type DocumentSkipper interface {
	RecordSkippedDocument(collection string)
}
