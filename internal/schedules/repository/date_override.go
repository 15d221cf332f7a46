package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	scheduleerrors "slotwise/internal/schedules/errors"
	"slotwise/pkg/config"
	"slotwise/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DateOverrideCollectionName = "DateOverrides"
)

type mongoDateOverrideRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type DateOverrideRepository interface {
	Upsert(ctx context.Context, ov *model.DateOverride) error
	FindByDate(ctx context.Context, scheduleID string, date string) (*model.DateOverride, error)
	FindInRange(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*model.DateOverride, error)
	DeleteByDate(ctx context.Context, scheduleID string, date string) error
	DeleteBySchedule(ctx context.Context, scheduleID string) error
	EnsureIndexes(ctx context.Context) error
}

func NewMongoDateOverrideRepository(cfg *config.Config) DateOverrideRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDateOverrideRepository{
		cfg:        cfg,
		collection: db.Collection(DateOverrideCollectionName),
	}
}

func (r *mongoDateOverrideRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "schedule_id", Value: 1}, {Key: "specific_date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create date override indexes: %w", err)
	}
	return nil
}

// Upsert replaces the interval list for one (schedule, date) pair. An empty
// list is a valid write and marks the whole date unavailable.
func (r *mongoDateOverrideRepository) Upsert(ctx context.Context, ov *model.DateOverride) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	intervals := ov.Intervals
	if intervals == nil {
		intervals = []model.TimeInterval{}
	}

	filter := bson.M{"schedule_id": ov.ScheduleID, "specific_date": ov.SpecificDate}
	update := bson.M{
		"$set": bson.M{
			"intervals": intervals,
		},
		"$setOnInsert": bson.M{
			"schedule_id":   ov.ScheduleID,
			"specific_date": ov.SpecificDate,
			"created_at":    time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert date override: %w", err)
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		ov.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDateOverrideRepository) FindByDate(ctx context.Context, scheduleID string, date string) (*model.DateOverride, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var ov model.DateOverride
	err := r.collection.FindOne(ctx, bson.M{"schedule_id": scheduleID, "specific_date": date}).Decode(&ov)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find date override: %w", err)
	}

	return &ov, nil
}

// FindInRange returns overrides for dates in [fromDate, toDate]. The wire
// format sorts lexicographically, so a plain string range query works.
func (r *mongoDateOverrideRepository) FindInRange(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*model.DateOverride, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"schedule_id":   scheduleID,
		"specific_date": bson.M{"$gte": fromDate, "$lte": toDate},
	}
	opts := options.Find().SetSort(bson.D{{Key: "specific_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query date overrides: %w", err)
	}
	defer cursor.Close(ctx)

	var overrides []*model.DateOverride
	if err = cursor.All(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("failed to decode date overrides: %w", err)
	}
	return overrides, nil
}

func (r *mongoDateOverrideRepository) DeleteByDate(ctx context.Context, scheduleID string, date string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"schedule_id": scheduleID, "specific_date": date})
	if err != nil {
		return fmt.Errorf("failed to delete date override: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s on %s", scheduleerrors.ErrOverrideNotFound, scheduleID, date)
	}
	return nil
}

func (r *mongoDateOverrideRepository) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"schedule_id": scheduleID}); err != nil {
		return fmt.Errorf("failed to delete date overrides: %w", err)
	}
	return nil
}
