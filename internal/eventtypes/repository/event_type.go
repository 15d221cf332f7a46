package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventtypeerrors "slotwise/internal/eventtypes/errors"
	"slotwise/pkg/config"
	mongotx "slotwise/pkg/db/mongo"
	"slotwise/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "EventTypes"
)

type mongoEventTypeRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EventTypeRepository interface {
	Create(ctx context.Context, et *model.EventType) error
	FindByID(ctx context.Context, id string) (*model.EventType, error)
	FindBySlug(ctx context.Context, hostID, slug string) (*model.EventType, error)
	FindByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.EventType, error)
	Update(ctx context.Context, id string, et *model.EventType) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, hostID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoEventTypeRepository(cfg *config.Config, txManager mongotx.TransactionManager) EventTypeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventTypeRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  txManager,
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics.
func (r *mongoEventTypeRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoEventTypeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "host_id", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "is_active", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create event type indexes: %w", err)
	}
	return nil
}

func (r *mongoEventTypeRepository) Create(ctx context.Context, et *model.EventType) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	et.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, et)
	if err != nil {
		return fmt.Errorf("failed to create event type: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		et.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventTypeRepository) FindByID(ctx context.Context, id string) (*model.EventType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventtypeerrors.ErrInvalidID, id)
	}

	var et model.EventType
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&et)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", eventtypeerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find event type: %w", err)
	}

	return &et, nil
}

func (r *mongoEventTypeRepository) FindBySlug(ctx context.Context, hostID, slug string) (*model.EventType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var et model.EventType
	err := r.collection.FindOne(ctx, bson.M{"host_id": hostID, "slug": slug}).Decode(&et)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s/%s", eventtypeerrors.ErrNotFound, hostID, slug)
		}
		return nil, fmt.Errorf("failed to find event type by slug: %w", err)
	}

	return &et, nil
}

func (r *mongoEventTypeRepository) FindByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.EventType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"host_id": hostID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query event types: %w", err)
	}
	defer cursor.Close(ctx)

	var eventTypes []*model.EventType
	if err = cursor.All(ctx, &eventTypes); err != nil {
		return nil, fmt.Errorf("failed to decode event types: %w", err)
	}
	return eventTypes, nil
}

func (r *mongoEventTypeRepository) Update(ctx context.Context, id string, et *model.EventType) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", eventtypeerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":                  et.Name,
			"slug":                  et.Slug,
			"duration_minutes":      et.DurationMinutes,
			"color":                 et.Color,
			"description":           et.Description,
			"location_type":         et.LocationType,
			"location_details":      et.LocationDetails,
			"buffer_before_minutes": et.BufferBefore,
			"buffer_after_minutes":  et.BufferAfter,
			"min_notice_hours":      et.MinNoticeHours,
			"max_days_ahead":        et.MaxDaysAhead,
			"is_active":             et.IsActive,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update event type: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", eventtypeerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoEventTypeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", eventtypeerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete event type: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", eventtypeerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoEventTypeRepository) Count(ctx context.Context, hostID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"host_id": hostID})
	if err != nil {
		return 0, fmt.Errorf("failed to count event types: %w", err)
	}
	return count, nil
}

func (r *mongoEventTypeRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
