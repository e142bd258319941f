package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/aescanero/introductions/pkg/domain"
	"github.com/aescanero/introductions/pkg/ports"
)

var _ ports.StoreGateway = (*Gateway)(nil)

// Gateway implements StoreGateway on a MongoDB database.
// The client is created once and shared by all callers.
type Gateway struct {
	client  *mongod.Client
	db      *mongod.Database
	timeout time.Duration
	logger  *zap.Logger
	skipper ports.DocumentSkipper
}

// Connect dials MongoDB and verifies the server is reachable
func Connect(ctx context.Context, uri, database string, timeout time.Duration, logger *zap.Logger, skipper ports.DocumentSkipper) (*Gateway, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongod.Connect(opts)
	if err != nil {
		return nil, domain.NewStoreError("connect", "", domain.ErrConnectionLost, err)
	}

	g := NewGateway(client, database, timeout, logger, skipper)
	if err := g.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return g, nil
}

// NewGateway wraps an existing client
func NewGateway(client *mongod.Client, database string, timeout time.Duration, logger *zap.Logger, skipper ports.DocumentSkipper) *Gateway {
	return &Gateway{
		client:  client,
		db:      client.Database(database),
		timeout: timeout,
		logger:  logger,
		skipper: skipper,
	}
}

// InsertOne inserts a single introduction; MongoDB assigns its _id
func (g *Gateway) InsertOne(ctx context.Context, collection string, intro domain.Introduction) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.db.Collection(collection).InsertOne(ctx, intro)
	if err != nil {
		return domain.NewStoreError("insert", collection, classify(err, domain.ErrWriteRejected), err)
	}

	g.logger.Debug("document inserted",
		zap.String("collection", collection),
		zap.Any("id", res.InsertedID))

	return nil
}

// FindAll lists every document of a collection in natural order
func (g *Gateway) FindAll(ctx context.Context, collection string) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cur, err := g.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, domain.NewStoreError("find", collection, classify(err, domain.ErrCursorFailure), err)
	}
	defer func() { _ = cur.Close(context.Background()) }()

	return decodeAll(ctx, cur, collection, g.logger, g.skipper)
}

// Ping checks that the primary is reachable
func (g *Gateway) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.client.Ping(ctx, readpref.Primary()); err != nil {
		return domain.NewStoreError("ping", "", domain.ErrConnectionLost, err)
	}
	return nil
}

// Close disconnects the client
func (g *Gateway) Close(ctx context.Context) error {
	if err := g.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// cursor is the subset of *mongo.Cursor used while decoding
type cursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
}

// decodeAll drains the cursor. A document that fails to decode is logged
// and skipped; only a cursor error aborts the listing.
func decodeAll(ctx context.Context, cur cursor, collection string, logger *zap.Logger, skipper ports.DocumentSkipper) ([]domain.Document, error) {
	docs := make([]domain.Document, 0)

	for i := 0; cur.Next(ctx); i++ {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			logger.Warn("skipping undecodable document",
				zap.String("collection", collection),
				zap.Int("position", i),
				zap.Error(err))
			if skipper != nil {
				skipper.RecordSkippedDocument(collection)
			}
			continue
		}
		docs = append(docs, domain.Document(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, domain.NewStoreError("find", collection, classify(err, domain.ErrCursorFailure), err)
	}

	return docs, nil
}

// classify maps a driver error onto the store error taxonomy
func classify(err error, fallback error) error {
	switch {
	case errors.Is(err, mongod.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded),
		mongod.IsNetworkError(err),
		mongod.IsTimeout(err):
		return domain.ErrConnectionLost
	default:
		return fallback
	}
}
