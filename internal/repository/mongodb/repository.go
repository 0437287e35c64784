package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
)

const (
	coopsColl            = "coops"
	batchesColl          = "batches"
	harvestsColl         = "harvests"
	mortalitiesColl      = "mortalities"
	relocationsColl      = "relocations"
	marketPricesColl     = "market_prices"
	supplyItemsColl      = "supply_items"
	supplyUsagesColl     = "supply_usages"
	operationalCostsColl = "operational_costs"

	writeConflictCode         = 112
	transientTransactionLabel = "TransientTransactionError"
)

// MongoDBRepository implements repository.Store with multi-document
// transactions. It requires a replica set or sharded cluster.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientOptions := options.Client().ApplyURI(uri).SetRegistry(newRegistry())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Atomic runs fn inside a session transaction. The driver retries fn on
// transient write conflicts; anything left after that surfaces as a conflict.
func (r *MongoDBRepository) Atomic(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(context.Background())

	db := r.client.Database(r.dbName)
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, &txn{db: db})
	})
	return translate(err)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	db := r.client.Database(r.dbName)
	indexes := map[string][]mongo.IndexModel{
		batchesColl:          {{Keys: bson.D{{Key: "coop_id", Value: 1}, {Key: "entry_date", Value: 1}, {Key: "_id", Value: 1}}}},
		harvestsColl:         {{Keys: bson.D{{Key: "batch_id", Value: 1}}}},
		mortalitiesColl:      {{Keys: bson.D{{Key: "batch_id", Value: 1}}}},
		relocationsColl:      {{Keys: bson.D{{Key: "source_batch_id", Value: 1}}}},
		marketPricesColl:     {{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "start_date", Value: -1}}}},
		supplyUsagesColl:     {{Keys: bson.D{{Key: "batch_id", Value: 1}}}},
		operationalCostsColl: {{Keys: bson.D{{Key: "batch_id", Value: 1}}}},
	}
	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	r.logger.Debug("mongodb indexes ensured", zap.String("db", r.dbName))
	return nil
}

type txn struct {
	db *mongo.Database
}

var _ repository.Tx = (*txn)(nil)

func (t *txn) coll(name string) *mongo.Collection {
	return t.db.Collection(name)
}

// liveFilter scopes a filter to non-deleted documents.
func liveFilter(f bson.M) bson.M {
	f["is_deleted"] = false
	return f
}

func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NotFound(entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

func (t *txn) findOne(ctx context.Context, collName, entity, id string, out interface{}) error {
	err := t.coll(collName).FindOne(ctx, liveFilter(bson.M{"_id": id})).Decode(out)
	if err != nil {
		return notFoundOr(err, entity, id)
	}
	return nil
}

// lockOne bumps the version of a document so concurrent transactions
// touching it abort with a write conflict.
func (t *txn) lockOne(ctx context.Context, collName, entity, id string, out interface{}) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := t.coll(collName).
		FindOneAndUpdate(ctx, liveFilter(bson.M{"_id": id}), bson.M{"$inc": bson.M{"version": 1}}, opts).
		Decode(out)
	if err != nil {
		return notFoundOr(err, entity, id)
	}
	return nil
}

func (t *txn) insert(ctx context.Context, collName, entity string, doc interface{}) error {
	if _, err := t.coll(collName).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert %s: %w", entity, err)
	}
	return nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		return err
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.HasErrorLabel(transientTransactionLabel) || serverErr.HasErrorCode(writeConflictCode) {
			return models.Conflict("transaction", "", err)
		}
	}
	return err
}
