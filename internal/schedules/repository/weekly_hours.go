package repository

import (
	"context"
	"fmt"

	"slotwise/pkg/config"
	"slotwise/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	WeeklyHoursCollectionName = "WeeklyHours"
)

type mongoWeeklyHoursRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type WeeklyHoursRepository interface {
	Upsert(ctx context.Context, wh *model.WeeklyHours) error
	FindBySchedule(ctx context.Context, scheduleID string) ([]*model.WeeklyHours, error)
	FindDay(ctx context.Context, scheduleID string, dayOfWeek int) (*model.WeeklyHours, error)
	DeleteBySchedule(ctx context.Context, scheduleID string) error
	EnsureIndexes(ctx context.Context) error
}

func NewMongoWeeklyHoursRepository(cfg *config.Config) WeeklyHoursRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWeeklyHoursRepository{
		cfg:        cfg,
		collection: db.Collection(WeeklyHoursCollectionName),
	}
}

func (r *mongoWeeklyHoursRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "schedule_id", Value: 1}, {Key: "day_of_week", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create weekly hours indexes: %w", err)
	}
	return nil
}

// Upsert writes the template for one (schedule, day) pair. The unique index
// on that pair makes repeated writes replace rather than accumulate.
func (r *mongoWeeklyHoursRepository) Upsert(ctx context.Context, wh *model.WeeklyHours) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"schedule_id": wh.ScheduleID, "day_of_week": wh.DayOfWeek}
	update := bson.M{
		"$set": bson.M{
			"is_enabled": wh.IsEnabled,
			"intervals":  wh.Intervals,
		},
		"$setOnInsert": bson.M{
			"schedule_id": wh.ScheduleID,
			"day_of_week": wh.DayOfWeek,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert weekly hours: %w", err)
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		wh.ID = oid.Hex()
	}
	return nil
}

func (r *mongoWeeklyHoursRepository) FindBySchedule(ctx context.Context, scheduleID string) ([]*model.WeeklyHours, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "day_of_week", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"schedule_id": scheduleID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly hours: %w", err)
	}
	defer cursor.Close(ctx)

	var hours []*model.WeeklyHours
	if err = cursor.All(ctx, &hours); err != nil {
		return nil, fmt.Errorf("failed to decode weekly hours: %w", err)
	}
	return hours, nil
}

func (r *mongoWeeklyHoursRepository) FindDay(ctx context.Context, scheduleID string, dayOfWeek int) (*model.WeeklyHours, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var wh model.WeeklyHours
	err := r.collection.FindOne(ctx, bson.M{"schedule_id": scheduleID, "day_of_week": dayOfWeek}).Decode(&wh)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find weekly hours: %w", err)
	}

	return &wh, nil
}

func (r *mongoWeeklyHoursRepository) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"schedule_id": scheduleID}); err != nil {
		return fmt.Errorf("failed to delete weekly hours: %w", err)
	}
	return nil
}
