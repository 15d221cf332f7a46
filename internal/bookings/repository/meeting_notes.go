package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingerrors "slotwise/internal/bookings/errors"
	"slotwise/pkg/config"
	"slotwise/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	NotesCollectionName = "MeetingNotes"
)

type MeetingNotesRepository interface {
	Upsert(ctx context.Context, notes *model.MeetingNotes) error
	FindByBooking(ctx context.Context, bookingID string) (*model.MeetingNotes, error)
	DeleteByBooking(ctx context.Context, bookingID string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoMeetingNotesRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMeetingNotesRepository(cfg *config.Config) MeetingNotesRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMeetingNotesRepository{
		cfg:        cfg,
		collection: db.Collection(NotesCollectionName),
	}
}

func (r *mongoMeetingNotesRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create meeting notes indexes: %w", err)
	}
	return nil
}

// Upsert keeps one notes document per booking, replacing the content on
// every write.
func (r *mongoMeetingNotesRepository) Upsert(ctx context.Context, notes *model.MeetingNotes) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	notes.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.M{"booking_id": notes.BookingID}
	update := bson.M{
		"$set": bson.M{
			"content":    notes.Content,
			"updated_at": notes.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"booking_id": notes.BookingID,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert meeting notes: %w", err)
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		notes.ID = oid.Hex()
	}
	return nil
}

func (r *mongoMeetingNotesRepository) FindByBooking(ctx context.Context, bookingID string) (*model.MeetingNotes, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var notes model.MeetingNotes
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&notes)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotesNotFound, bookingID)
		}
		return nil, fmt.Errorf("failed to find meeting notes: %w", err)
	}

	return &notes, nil
}

func (r *mongoMeetingNotesRepository) DeleteByBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to delete meeting notes: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotesNotFound, bookingID)
	}
	return nil
}
