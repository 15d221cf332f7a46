package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingerrors "slotwise/internal/bookings/errors"
	"slotwise/internal/bookings/events"
	"slotwise/internal/bookings/repository"
	"slotwise/internal/bookings/validator"
	eventtypeerrors "slotwise/internal/eventtypes/errors"
	scheduleerrors "slotwise/internal/schedules/errors"
	"slotwise/internal/schedules/resolver"
	"slotwise/internal/slots"
	"slotwise/pkg/config"
	apperrors "slotwise/pkg/errors"
	"slotwise/pkg/model"
	"slotwise/pkg/sanitizer"
	"slotwise/pkg/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.Booking, error)
	UpsertNotes(ctx context.Context, bookingID, content string) (*model.MeetingNotes, error)
	GetNotes(ctx context.Context, bookingID string) (*model.MeetingNotes, error)
	DeleteNotes(ctx context.Context, bookingID string) error
	AvailableDates(ctx context.Context, eventTypeID string, year, month int) ([]string, error)
	AvailableSlots(ctx context.Context, eventTypeID, date string) ([]slots.Slot, error)
}

// EventTypeReader is the slice of the event-type repository the booking
// engine needs. A local interface keeps the domains from importing each
// other's packages.
type EventTypeReader interface {
	FindByID(ctx context.Context, id string) (*model.EventType, error)
}

// ScheduleReader resolves the host's default schedule.
type ScheduleReader interface {
	FindDefault(ctx context.Context, hostID string) (*model.Schedule, error)
}

// AvailabilityResolver merges weekly templates with date overrides.
// Satisfied by the schedules resolver.
type AvailabilityResolver interface {
	ResolveDay(ctx context.Context, scheduleID string, date string) (*resolver.DayAvailability, error)
	ResolveRange(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*resolver.DayAvailability, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	locks      repository.BookingLockRepository
	notes      repository.MeetingNotesRepository
	eventTypes EventTypeReader
	schedules  ScheduleReader
	resolver   AvailabilityResolver
	validator  *validator.BookingValidator
	publisher  events.EventPublisher
	cfg        *config.Config
	now        func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	locks repository.BookingLockRepository,
	notes repository.MeetingNotesRepository,
	eventTypes EventTypeReader,
	schedules ScheduleReader,
	availability AvailabilityResolver,
	bookingValidator *validator.BookingValidator,
	publisher events.EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		locks:      locks,
		notes:      notes,
		eventTypes: eventTypes,
		schedules:  schedules,
		resolver:   availability,
		validator:  bookingValidator,
		publisher:  publisher,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitizeRequest(req)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking request validation failed",
			"event_type_id", req.EventTypeID,
			"error", err,
		)
		return nil, apperrors.Validation("Booking request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	eventType, err := s.loadActiveEventType(ctx, req.EventTypeID)
	if err != nil {
		return nil, err
	}

	startUTC := req.StartTime.UTC()
	endUTC := startUTC.Add(time.Duration(eventType.DurationMinutes) * time.Minute)
	now := s.now().UTC()

	if err := s.checkNotice(startUTC, now, eventType); err != nil {
		return nil, err
	}
	if err := s.checkLookahead(startUTC, now, eventType); err != nil {
		return nil, err
	}

	schedule, loc, err := s.hostSchedule(ctx, eventType.HostID)
	if err != nil {
		return nil, err
	}
	if err := s.checkContainment(ctx, schedule, loc, startUTC, eventType.DurationMinutes); err != nil {
		return nil, err
	}

	lockID := fmt.Sprintf("booking_lock_%s_%s_%d", eventType.HostID, eventType.ID, startUTC.Unix())
	if err := s.locks.Create(ctx, &model.BookingLock{
		ID:        lockID,
		ExpiresAt: now.Add(s.cfg.BookingLockTTL),
	}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.cfg.Log.Warn("Booking slot contended", "lock_id", lockID)
			return nil, apperrors.Conflict("The requested time slot is being booked by another request")
		}
		s.cfg.Log.Error("Failed to acquire booking lock", "lock_id", lockID, "error", err)
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if err := s.locks.Delete(context.WithoutCancel(ctx), lockID); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
		}
	}()

	booking := &model.Booking{
		EventTypeID:     eventType.ID,
		HostID:          eventType.HostID,
		StartTime:       startUTC,
		EndTime:         endUTC,
		InviteeTimezone: req.Timezone,
		InviteeName:     req.InviteeName,
		InviteeEmail:    req.InviteeEmail,
		Guests:          req.Guests,
		Status:          model.StatusConfirmed,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		newStart := startUTC.Add(-time.Duration(eventType.BufferBefore) * time.Minute)
		newEnd := endUTC.Add(time.Duration(eventType.BufferAfter) * time.Minute)

		busy, err := s.busyWindows(sessCtx, eventType.HostID, newStart, newEnd, "")
		if err != nil {
			return err
		}
		for _, w := range busy {
			if timeslot.Overlaps(newStart, newEnd, w.start, w.end) {
				return apperrors.Conflict("The requested time slot is no longer available")
			}
		}
		return s.repo.Create(sessCtx, booking)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"event_type_id", eventType.ID,
			"start_time", startUTC,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"event_type_id", eventType.ID,
		"host_id", eventType.HostID,
		"start_time", startUTC,
	)
	s.publisher.BookingCreated(ctx, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var (
		wg       sync.WaitGroup
		bookings []*model.Booking
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		total, countErr = s.repo.Count(ctx, filter)
	}()
	go func() {
		defer wg.Done()
		bookings, findErr = s.repo.FindAll(ctx, filter, limit, offset)
	}()
	wg.Wait()

	if countErr != nil {
		s.cfg.Log.Error("Failed to count bookings", "error", countErr)
		return nil, 0, apperrors.Internal("Failed to count bookings", countErr)
	}
	if findErr != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", findErr)
		return nil, 0, apperrors.Internal("Failed to list bookings", findErr)
	}

	return bookings, total, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.Booking, error) {
	if req == nil {
		req = &model.CancelRequest{}
	}
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, apperrors.Validation("Cancel request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.StatusCancelled {
		// Idempotent outcome, but the caller learns the booking was
		// already gone; cancelled_at keeps its original value.
		return nil, apperrors.AlreadyCancelled(id)
	}

	cancelledBy := req.CancelledBy
	if cancelledBy == "" {
		cancelledBy = model.CancelledByInvitee
	}
	cancelledAt := s.now().UTC()

	if err := s.repo.Cancel(ctx, id, cancelledAt, req.Reason, cancelledBy); err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			// Lost a race with another cancel between the read and the
			// guarded update.
			return nil, apperrors.AlreadyCancelled(id)
		}
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.StatusCancelled
	booking.CancelledAt = &cancelledAt
	booking.CancelReason = req.Reason
	booking.CancelledBy = cancelledBy

	s.cfg.Log.Info("Booking cancelled",
		"id", id,
		"cancelled_by", cancelledBy,
	)
	s.publisher.BookingCancelled(ctx, booking)
	return booking, nil
}

func (s *bookingService) UpsertNotes(ctx context.Context, bookingID, content string) (*model.MeetingNotes, error) {
	if _, err := s.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}

	notes := &model.MeetingNotes{
		BookingID: bookingID,
		Content:   sanitizer.TrimAndNormalize(content),
	}
	if err := s.validator.ValidateNotes(notes); err != nil {
		return nil, apperrors.Validation("Meeting notes validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.notes.Upsert(ctx, notes); err != nil {
		s.cfg.Log.Error("Failed to save meeting notes", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to save meeting notes", err)
	}
	return notes, nil
}

func (s *bookingService) GetNotes(ctx context.Context, bookingID string) (*model.MeetingNotes, error) {
	notes, err := s.notes.FindByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotesNotFound) {
			return nil, apperrors.NotFound("Meeting notes")
		}
		s.cfg.Log.Error("Failed to get meeting notes", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve meeting notes", err)
	}
	return notes, nil
}

func (s *bookingService) DeleteNotes(ctx context.Context, bookingID string) error {
	if err := s.notes.DeleteByBooking(ctx, bookingID); err != nil {
		if errors.Is(err, bookingerrors.ErrNotesNotFound) {
			return apperrors.NotFound("Meeting notes")
		}
		s.cfg.Log.Error("Failed to delete meeting notes", "booking_id", bookingID, "error", err)
		return apperrors.Internal("Failed to delete meeting notes", err)
	}
	return nil
}

func (s *bookingService) sanitizeRequest(req *model.BookingRequest) {
	req.EventTypeID = sanitizer.TrimAndNormalize(req.EventTypeID)
	req.InviteeName = sanitizer.NormalizeName(req.InviteeName)
	req.InviteeEmail = sanitizer.NormalizeEmail(req.InviteeEmail)
	req.Timezone = sanitizer.NormalizeTimezone(req.Timezone)
	req.Guests = sanitizer.NormalizeGuests(req.Guests)
}

func (s *bookingService) loadActiveEventType(ctx context.Context, id string) (*model.EventType, error) {
	eventType, err := s.eventTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Event type", id)
		}
		if errors.Is(err, eventtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event type ID format")
		}
		s.cfg.Log.Error("Failed to load event type", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to load event type", err)
	}
	// Inactive event types are indistinguishable from missing ones to
	// callers.
	if !eventType.IsActive {
		return nil, apperrors.NotFoundWithID("Event type", id)
	}
	return eventType, nil
}

func (s *bookingService) checkNotice(startUTC, now time.Time, eventType *model.EventType) error {
	earliest := now.Add(time.Duration(eventType.MinNoticeHours) * time.Hour)
	if startUTC.Before(earliest) {
		return apperrors.OutOfWindow(fmt.Sprintf(
			"Bookings require at least %d hours notice", eventType.MinNoticeHours))
	}
	return nil
}

// checkLookahead is date-granular: a slot late on the last allowed date is
// accepted even if the instant itself is past now+maxDaysAhead.
func (s *bookingService) checkLookahead(startUTC, now time.Time, eventType *model.EventType) error {
	lastDate := now.AddDate(0, 0, eventType.MaxDaysAhead).Format(timeslot.DateLayout)
	if startUTC.Format(timeslot.DateLayout) > lastDate {
		return apperrors.OutOfWindow(fmt.Sprintf(
			"Bookings can be made at most %d days ahead", eventType.MaxDaysAhead))
	}
	return nil
}

func (s *bookingService) hostSchedule(ctx context.Context, hostID string) (*model.Schedule, *time.Location, error) {
	schedule, err := s.schedules.FindDefault(ctx, hostID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNoDefault) {
			return nil, nil, apperrors.NotFound("Default schedule")
		}
		s.cfg.Log.Error("Failed to load default schedule", "host_id", hostID, "error", err)
		return nil, nil, apperrors.Internal("Failed to load default schedule", err)
	}

	loc, err := timeslot.LoadLocation(schedule.Timezone)
	if err != nil {
		s.cfg.Log.Error("Schedule has invalid timezone",
			"schedule_id", schedule.ID,
			"timezone", schedule.Timezone,
		)
		return nil, nil, apperrors.Internal("Schedule timezone cannot be loaded", err)
	}
	return schedule, loc, nil
}

// checkContainment verifies the booking lies inside the host's available
// hours on its local date. The wall-clock window must fit a single
// interval; bookings never straddle intervals or midnight.
func (s *bookingService) checkContainment(ctx context.Context, schedule *model.Schedule, loc *time.Location, startUTC time.Time, durationMinutes int) error {
	startLocal := startUTC.In(loc)
	date := startLocal.Format(timeslot.DateLayout)

	day, err := s.resolver.ResolveDay(ctx, schedule.ID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve availability",
			"schedule_id", schedule.ID,
			"date", date,
			"error", err,
		)
		return apperrors.Internal("Failed to resolve availability", err)
	}
	if !day.Available() {
		return apperrors.OutOfWindow("The host is not available on the requested date")
	}

	startMin := startLocal.Hour()*60 + startLocal.Minute()
	endMin := startMin + durationMinutes
	for _, iv := range day.Intervals {
		ivStart, ivEnd, err := iv.Minutes()
		if err != nil {
			continue
		}
		if startMin >= ivStart && endMin <= ivEnd {
			return nil
		}
	}
	return apperrors.OutOfWindow("The requested time is outside the host's available hours")
}

type busyWindow struct {
	start time.Time
	end   time.Time
}

// busyWindows returns confirmed bookings near [from, to), each expanded by
// its own event type's buffers. The probe range is padded by the maximum
// buffer so bookings whose expanded window reaches into the range are not
// missed.
func (s *bookingService) busyWindows(ctx context.Context, hostID string, from, to time.Time, exceptID string) ([]busyWindow, error) {
	pad := time.Duration(config.MaxBufferMinutes) * time.Minute
	existing, err := s.repo.FindConfirmedInRange(ctx, hostID, from.Add(-pad), to.Add(pad))
	if err != nil {
		s.cfg.Log.Error("Failed to load confirmed bookings", "host_id", hostID, "error", err)
		return nil, apperrors.Internal("Failed to load confirmed bookings", err)
	}

	buffers := make(map[string][2]int)
	windows := make([]busyWindow, 0, len(existing))
	for _, b := range existing {
		if exceptID != "" && b.ID == exceptID {
			continue
		}
		buf, ok := buffers[b.EventTypeID]
		if !ok {
			buf = s.lookupBuffers(ctx, b.EventTypeID)
			buffers[b.EventTypeID] = buf
		}
		windows = append(windows, busyWindow{
			start: b.StartTime.Add(-time.Duration(buf[0]) * time.Minute),
			end:   b.EndTime.Add(time.Duration(buf[1]) * time.Minute),
		})
	}
	return windows, nil
}

// lookupBuffers tolerates deleted event types: their surviving bookings
// still block their own span, just without buffers.
func (s *bookingService) lookupBuffers(ctx context.Context, eventTypeID string) [2]int {
	eventType, err := s.eventTypes.FindByID(ctx, eventTypeID)
	if err != nil {
		if !errors.Is(err, eventtypeerrors.ErrNotFound) && !errors.Is(err, eventtypeerrors.ErrInvalidID) {
			s.cfg.Log.Warn("Failed to load event type for buffers",
				"event_type_id", eventTypeID,
				"error", err,
			)
		}
		return [2]int{0, 0}
	}
	return [2]int{eventType.BufferBefore, eventType.BufferAfter}
}
