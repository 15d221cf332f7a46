package service

import (
	"context"
	"errors"
	"sync"

	eventtypeerrors "slotwise/internal/eventtypes/errors"
	"slotwise/internal/eventtypes/repository"
	"slotwise/internal/eventtypes/validator"
	"slotwise/pkg/config"
	apperrors "slotwise/pkg/errors"
	"slotwise/pkg/model"
	"slotwise/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type EventTypeService interface {
	Create(ctx context.Context, et *model.EventType) error
	GetByID(ctx context.Context, id string) (*model.EventType, error)
	GetBySlug(ctx context.Context, hostID, slug string) (*model.EventType, error)
	GetAll(ctx context.Context, hostID string, limit int, offset int64) ([]*model.EventType, int64, error)
	Update(ctx context.Context, id string, updates *model.EventTypeUpdate) (*model.EventType, error)
	Delete(ctx context.Context, id string) error
}

// BookingRemover detaches a dying event type from its bookings. Satisfied
// by the bookings repository; a local interface keeps the domains from
// importing each other.
type BookingRemover interface {
	DeleteByEventType(ctx context.Context, eventTypeID string) (int64, error)
}

type eventTypeService struct {
	repo      repository.EventTypeRepository
	bookings  BookingRemover
	validator *validator.EventTypeValidator
	cfg       *config.Config
}

func NewEventTypeService(
	repo repository.EventTypeRepository,
	bookings BookingRemover,
	validator *validator.EventTypeValidator,
	cfg *config.Config,
) EventTypeService {
	return &eventTypeService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *eventTypeService) Create(ctx context.Context, et *model.EventType) error {
	s.sanitize(et)
	s.applyDefaults(et)

	if err := s.validator.Validate(et); err != nil {
		s.cfg.Log.Warn("Event type validation failed",
			"name", et.Name,
			"host_id", et.HostID,
			"error", err,
		)
		return apperrors.Validation("Event type validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindBySlug(sessCtx, et.HostID, et.Slug)
		if err != nil && !errors.Is(err, eventtypeerrors.ErrNotFound) {
			return apperrors.Internal("Failed to check for existing event types", err)
		}
		if existing != nil {
			return apperrors.Conflict("Event type with the same slug already exists for this host")
		}
		return s.repo.Create(sessCtx, et)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create event type",
			"name", et.Name,
			"host_id", et.HostID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Event type created successfully",
		"id", et.ID,
		"name", et.Name,
		"slug", et.Slug,
		"host_id", et.HostID,
	)
	return nil
}

func (s *eventTypeService) GetByID(ctx context.Context, id string) (*model.EventType, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event type ID cannot be empty")
	}

	et, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Event type", id)
		}
		if errors.Is(err, eventtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event type ID format")
		}
		s.cfg.Log.Error("Failed to get event type by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve event type", err)
	}

	return et, nil
}

func (s *eventTypeService) GetBySlug(ctx context.Context, hostID, slug string) (*model.EventType, error) {
	if hostID == "" || slug == "" {
		return nil, apperrors.InvalidInput("Host ID and slug are required")
	}

	et, err := s.repo.FindBySlug(ctx, hostID, sanitizer.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, eventtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Event type")
		}
		s.cfg.Log.Error("Failed to get event type by slug",
			"host_id", hostID,
			"slug", slug,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve event type", err)
	}

	return et, nil
}

func (s *eventTypeService) GetAll(ctx context.Context, hostID string, limit int, offset int64) ([]*model.EventType, int64, error) {
	if hostID == "" {
		return nil, 0, apperrors.InvalidInput("Host ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var eventTypes []*model.EventType
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, hostID)
		if err != nil {
			s.cfg.Log.Error("Failed to count event types", "host_id", hostID, "error", err)
			errCount = apperrors.Internal("Failed to count event types", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		eventTypes, err = s.repo.FindByHost(sharedCtx, hostID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get event types",
				"host_id", hostID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve event types", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return eventTypes, count, nil
}

func (s *eventTypeService) Update(ctx context.Context, id string, updates *model.EventTypeUpdate) (*model.EventType, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event type ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := s.mergeUpdates(existing, updates)
	s.sanitize(merged)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Event type validation failed",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Event type validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if merged.Slug != existing.Slug {
			other, err := s.repo.FindBySlug(sessCtx, merged.HostID, merged.Slug)
			if err != nil && !errors.Is(err, eventtypeerrors.ErrNotFound) {
				return apperrors.Internal("Failed to check for duplicate slugs", err)
			}
			if other != nil && other.ID != id {
				return apperrors.Conflict("Another event type with the same slug already exists for this host")
			}
		}
		if err := s.repo.Update(sessCtx, id, merged); err != nil {
			s.cfg.Log.Error("Failed to update event type", "id", id, "error", err)
			return apperrors.Internal("Failed to update event type", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Event type updated successfully", "id", id, "name", merged.Name)
	return merged, nil
}

func (s *eventTypeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Event type ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, eventtypeerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Event type", id)
			}
			if errors.Is(err, eventtypeerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid event type ID format")
			}
			s.cfg.Log.Error("Failed to delete event type", "id", id, "error", err)
			return apperrors.Internal("Failed to delete event type", err)
		}

		removed, err := s.bookings.DeleteByEventType(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to delete bookings for event type", err)
		}
		if removed > 0 {
			s.cfg.Log.Info("Cascade-deleted bookings for event type",
				"event_type_id", id,
				"bookings_removed", removed,
			)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Event type deleted successfully", "id", id)
	return nil
}

func (s *eventTypeService) sanitize(et *model.EventType) {
	et.Name = sanitizer.NormalizeName(et.Name)
	et.Description = sanitizer.TrimAndNormalize(et.Description)
	et.LocationDetails = sanitizer.TrimAndNormalize(et.LocationDetails)
	if et.Slug != "" {
		et.Slug = sanitizer.NormalizeSlug(et.Slug)
	}
}

func (s *eventTypeService) applyDefaults(et *model.EventType) {
	if et.HostID == "" {
		et.HostID = s.cfg.DefaultHostID
	}
	if et.Slug == "" {
		et.Slug = sanitizer.NormalizeSlug(et.Name)
	}
	if et.LocationType == "" {
		et.LocationType = model.LocationVideo
	}
	if et.MaxDaysAhead == 0 {
		et.MaxDaysAhead = 60
	}
	et.IsActive = true
}

func (s *eventTypeService) mergeUpdates(existing *model.EventType, updates *model.EventTypeUpdate) *model.EventType {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Slug != "" {
		merged.Slug = sanitizer.NormalizeSlug(updates.Slug)
	}
	if updates.DurationMinutes != nil {
		merged.DurationMinutes = *updates.DurationMinutes
	}
	if updates.Color != "" {
		merged.Color = updates.Color
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.LocationType != "" {
		merged.LocationType = updates.LocationType
	}
	if updates.LocationDetails != nil {
		merged.LocationDetails = *updates.LocationDetails
	}
	if updates.BufferBefore != nil {
		merged.BufferBefore = *updates.BufferBefore
	}
	if updates.BufferAfter != nil {
		merged.BufferAfter = *updates.BufferAfter
	}
	if updates.MinNoticeHours != nil {
		merged.MinNoticeHours = *updates.MinNoticeHours
	}
	if updates.MaxDaysAhead != nil {
		merged.MaxDaysAhead = *updates.MaxDaysAhead
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	merged.ID = existing.ID
	merged.HostID = existing.HostID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
