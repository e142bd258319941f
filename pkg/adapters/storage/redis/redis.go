package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/domain"
	"github.com/aescanero/introductions/pkg/ports"
)

var _ ports.StoreGateway = (*DocumentStorage)(nil)

// DocumentStorage implements StoreGateway using one Redis list per collection.
// Documents are stored as JSON in insertion order.
type DocumentStorage struct {
	client  redis.Cmdable
	logger  *zap.Logger
	timeout time.Duration
	skipper ports.DocumentSkipper
}

// NewDocumentStorage creates a new Redis document storage
func NewDocumentStorage(client redis.Cmdable, timeout time.Duration, logger *zap.Logger, skipper ports.DocumentSkipper) *DocumentStorage {
	return &DocumentStorage{
		client:  client,
		logger:  logger,
		timeout: timeout,
		skipper: skipper,
	}
}

// InsertOne appends an introduction to the collection list
func (s *DocumentStorage) InsertOne(ctx context.Context, collection string, intro domain.Introduction) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id := uuid.New().String()
	data, err := json.Marshal(domain.Document{
		"_id":   id,
		"title": intro.Title,
		"icon":  intro.Icon,
	})
	if err != nil {
		return domain.NewStoreError("insert", collection, domain.ErrWriteRejected, err)
	}

	if err := s.client.RPush(ctx, getCollectionKey(collection), data).Err(); err != nil {
		return domain.NewStoreError("insert", collection, classify(err, domain.ErrWriteRejected), err)
	}

	s.logger.Debug("document inserted",
		zap.String("collection", collection),
		zap.String("id", id))

	return nil
}

// FindAll returns every document of the collection list
func (s *DocumentStorage) FindAll(ctx context.Context, collection string) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values, err := s.client.LRange(ctx, getCollectionKey(collection), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, domain.NewStoreError("find", collection, classify(err, domain.ErrCursorFailure), err)
	}

	docs := make([]domain.Document, 0, len(values))
	for i, value := range values {
		var doc domain.Document
		if err := json.Unmarshal([]byte(value), &doc); err != nil {
			s.logger.Warn("skipping undecodable document",
				zap.String("collection", collection),
				zap.Int("position", i),
				zap.Error(err))
			if s.skipper != nil {
				s.skipper.RecordSkippedDocument(collection)
			}
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Ping verifies the Redis connection is alive
func (s *DocumentStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return domain.NewStoreError("ping", "", domain.ErrConnectionLost, err)
	}
	return nil
}

// Close is a no-op; the caller owns the Redis client
func (s *DocumentStorage) Close(ctx context.Context) error {
	return nil
}

// classify maps a client error onto the store error taxonomy.
// Server replies (e.g. WRONGTYPE) keep the operation's fallback kind.
func classify(err error, fallback error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.As(err, &netErr):
		return domain.ErrConnectionLost
	default:
		return fallback
	}
}

// getCollectionKey returns the Redis key holding a collection
func getCollectionKey(collection string) string {
	return fmt.Sprintf("introductions:collection:%s", collection)
}
