package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingerrors "slotwise/internal/bookings/errors"
	"slotwise/internal/bookings/events"
	"slotwise/internal/bookings/repository"
	"slotwise/internal/bookings/validator"
	"slotwise/internal/schedules/resolver"
	"slotwise/pkg/config"
	mongotx "slotwise/pkg/db/mongo"
	apperrors "slotwise/pkg/errors"
	"slotwise/pkg/logger"
	"slotwise/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockBookingRepository struct {
	createFunc               func(ctx context.Context, b *model.Booking) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc              func(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, error)
	countFunc                func(ctx context.Context, filter repository.ListFilter) (int64, error)
	findConfirmedInRangeFunc func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error)
	cancelFunc               func(ctx context.Context, id string, cancelledAt time.Time, reason, cancelledBy string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = "new-booking"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter repository.ListFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindConfirmedInRange(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
	if m.findConfirmedInRangeFunc != nil {
		return m.findConfirmedInRangeFunc(ctx, hostID, from, to)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time, reason, cancelledBy string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, cancelledAt, reason, cancelledBy)
	}
	return nil
}

func (m *mockBookingRepository) DeleteByEventType(ctx context.Context, eventTypeID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// mockLockRepository mimics the advisory lock collection's unique _id
// behavior in memory.
type mockLockRepository struct {
	mu    sync.Mutex
	held  map[string]bool
	fails error
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{held: map[string]bool{}}
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	if m.fails != nil {
		return m.fails
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[lock.ID] {
		return duplicateKeyError()
	}
	m.held[lock.ID] = true
	return nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

func (m *mockLockRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

type mockNotesRepository struct {
	upsertFunc func(ctx context.Context, notes *model.MeetingNotes) error
	findFunc   func(ctx context.Context, bookingID string) (*model.MeetingNotes, error)
}

func (m *mockNotesRepository) Upsert(ctx context.Context, notes *model.MeetingNotes) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, notes)
	}
	return nil
}

func (m *mockNotesRepository) FindByBooking(ctx context.Context, bookingID string) (*model.MeetingNotes, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, bookingID)
	}
	return nil, bookingerrors.ErrNotesNotFound
}

func (m *mockNotesRepository) DeleteByBooking(ctx context.Context, bookingID string) error {
	return nil
}

func (m *mockNotesRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

type mockEventTypeReader struct {
	findByIDFunc func(ctx context.Context, id string) (*model.EventType, error)
}

func (m *mockEventTypeReader) FindByID(ctx context.Context, id string) (*model.EventType, error) {
	return m.findByIDFunc(ctx, id)
}

type mockScheduleReader struct {
	findDefaultFunc func(ctx context.Context, hostID string) (*model.Schedule, error)
}

func (m *mockScheduleReader) FindDefault(ctx context.Context, hostID string) (*model.Schedule, error) {
	if m.findDefaultFunc != nil {
		return m.findDefaultFunc(ctx, hostID)
	}
	return &model.Schedule{ID: "sched-1", HostID: hostID, Timezone: "Asia/Kolkata", IsDefault: true}, nil
}

type mockResolver struct {
	resolveDayFunc   func(ctx context.Context, scheduleID string, date string) (*resolver.DayAvailability, error)
	resolveRangeFunc func(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*resolver.DayAvailability, error)
}

func (m *mockResolver) ResolveDay(ctx context.Context, scheduleID string, date string) (*resolver.DayAvailability, error) {
	if m.resolveDayFunc != nil {
		return m.resolveDayFunc(ctx, scheduleID, date)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, err
	}
	return &resolver.DayAvailability{
		Date:      date,
		DayOfWeek: int(parsed.Weekday()),
		Intervals: []model.TimeInterval{{Start: "09:00", End: "17:00"}},
	}, nil
}

func (m *mockResolver) ResolveRange(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*resolver.DayAvailability, error) {
	if m.resolveRangeFunc != nil {
		return m.resolveRangeFunc(ctx, scheduleID, fromDate, toDate)
	}
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		DefaultHostID:    "default-host",
		DefaultTimezone:  "Asia/Kolkata",
		SlotStrideCapMin: 30,
		BookingLockTTL:   10 * time.Second,
	}
}

func testEventType() *model.EventType {
	return &model.EventType{
		ID:              "et-1",
		HostID:          "default-host",
		Name:            "Intro Call",
		Slug:            "intro-call",
		DurationMinutes: 30,
		LocationType:    model.LocationVideo,
		MinNoticeHours:  24,
		MaxDaysAhead:    60,
		IsActive:        true,
	}
}

// fixedNow is well before the booked slots, so the 24h notice never
// interferes unless a test wants it to.
var fixedNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestService(repo *mockBookingRepository, locks *mockLockRepository, et *model.EventType) *bookingService {
	cfg := testConfig()
	return &bookingService{
		repo:  repo,
		locks: locks,
		notes: &mockNotesRepository{},
		eventTypes: &mockEventTypeReader{
			findByIDFunc: func(ctx context.Context, id string) (*model.EventType, error) {
				return et, nil
			},
		},
		schedules: &mockScheduleReader{},
		resolver:  &mockResolver{},
		validator: validator.NewBookingValidator(cfg.Log),
		publisher: events.NoopPublisher{},
		cfg:       cfg,
		now:       func() time.Time { return fixedNow },
	}
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		EventTypeID: "et-1",
		// 10:00 IST on 2026-03-10.
		StartTime:    time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
		Timezone:     "Asia/Kolkata",
		InviteeName:  "Asha Rao",
		InviteeEmail: "asha@example.com",
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.IsCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateBooking_Success(t *testing.T) {
	var created *model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, b *model.Booking) error {
			b.ID = "new-booking"
			created = b
			return nil
		},
	}
	locks := newMockLockRepository()
	svc := newTestService(repo, locks, testEventType())

	booking, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created == nil {
		t.Fatal("repository Create was not called")
	}
	if booking.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
	if want := booking.StartTime.Add(30 * time.Minute); !booking.EndTime.Equal(want) {
		t.Errorf("end time = %v, want %v", booking.EndTime, want)
	}
	if !booking.StartTime.Equal(time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)) {
		t.Errorf("start time not normalized to UTC: %v", booking.StartTime)
	}
	if len(locks.held) != 0 {
		t.Error("advisory lock was not released")
	}
}

func TestCreateBooking_Conflict(t *testing.T) {
	et := testEventType()
	repo := &mockBookingRepository{
		findConfirmedInRangeFunc: func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
			// Confirmed 10:15..10:45 IST, overlapping the requested
			// 10:00..10:30.
			return []*model.Booking{{
				ID:          "existing",
				EventTypeID: et.ID,
				HostID:      hostID,
				StartTime:   time.Date(2026, 3, 10, 4, 45, 0, 0, time.UTC),
				EndTime:     time.Date(2026, 3, 10, 5, 15, 0, 0, time.UTC),
				Status:      model.StatusConfirmed,
			}}, nil
		},
		createFunc: func(ctx context.Context, b *model.Booking) error {
			t.Fatal("Create must not be reached on conflict")
			return nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), et)

	_, err := svc.Create(context.Background(), validRequest())
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreateBooking_AdjacentBookingAllowed(t *testing.T) {
	et := testEventType()
	repo := &mockBookingRepository{
		findConfirmedInRangeFunc: func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
			// Confirmed 10:30..11:00 IST, back to back with the requested
			// 10:00..10:30. Half-open windows do not collide.
			return []*model.Booking{{
				ID:          "existing",
				EventTypeID: et.ID,
				HostID:      hostID,
				StartTime:   time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC),
				EndTime:     time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC),
				Status:      model.StatusConfirmed,
			}}, nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), et)

	if _, err := svc.Create(context.Background(), validRequest()); err != nil {
		t.Fatalf("adjacent booking should be allowed: %v", err)
	}
}

func TestCreateBooking_BufferConflict(t *testing.T) {
	et := testEventType()
	et.BufferAfter = 15

	repo := &mockBookingRepository{
		findConfirmedInRangeFunc: func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
			// Existing booking ends exactly when the new one starts, but
			// its own 15-minute buffer-after spills into the new slot.
			return []*model.Booking{{
				ID:          "existing",
				EventTypeID: et.ID,
				HostID:      hostID,
				StartTime:   time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC),
				EndTime:     time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
				Status:      model.StatusConfirmed,
			}}, nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), et)

	_, err := svc.Create(context.Background(), validRequest())
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreateBooking_MinNotice(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	// 23 hours from the fixed clock; the event type demands 24.
	req := validRequest()
	req.StartTime = fixedNow.Add(23 * time.Hour)

	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeOutOfWindow)
}

func TestCreateBooking_BeyondLookahead(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	req := validRequest()
	req.StartTime = fixedNow.AddDate(0, 0, 61)

	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeOutOfWindow)
}

func TestCreateBooking_LookaheadIsDateGranular(t *testing.T) {
	// Late on the last allowed date: the instant is past now+60d but the
	// calendar date is not.
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	req := validRequest()
	req.StartTime = time.Date(2026, 4, 30, 6, 30, 0, 0, time.UTC) // fixedNow + 60 days, 12:00 IST

	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("slot on the last allowed date should be accepted: %v", err)
	}
}

func TestCreateBooking_OutsideAvailableHours(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	req := validRequest()
	// 18:00 IST, past the 09:00..17:00 template.
	req.StartTime = time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeOutOfWindow)
}

func TestCreateBooking_SpanningIntervalEndRejected(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	req := validRequest()
	// 16:45 IST: the meeting would run past 17:00.
	req.StartTime = time.Date(2026, 3, 10, 11, 15, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeOutOfWindow)
}

func TestCreateBooking_InactiveEventType(t *testing.T) {
	et := testEventType()
	et.IsActive = false
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), et)

	_, err := svc.Create(context.Background(), validRequest())
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestCreateBooking_SlotContention(t *testing.T) {
	et := testEventType()
	locks := newMockLockRepository()
	svc := newTestService(&mockBookingRepository{}, locks, et)

	// Another request already holds the slot's lock.
	req := validRequest()
	lockID := fmt.Sprintf("booking_lock_%s_%s_%d", et.HostID, et.ID, req.StartTime.Unix())
	if err := locks.Create(context.Background(), &model.BookingLock{ID: lockID}); err != nil {
		t.Fatalf("seeding lock: %v", err)
	}

	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreateBooking_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	req := validRequest()
	req.InviteeEmail = "not-an-email"

	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestCancel_Success(t *testing.T) {
	var gotReason, gotBy string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:     id,
				Status: model.StatusConfirmed,
			}, nil
		},
		cancelFunc: func(ctx context.Context, id string, cancelledAt time.Time, reason, cancelledBy string) error {
			gotReason, gotBy = reason, cancelledBy
			return nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), testEventType())

	booking, err := svc.Cancel(context.Background(), "b-1", &model.CancelRequest{Reason: "schedule change"})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if booking.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", booking.Status)
	}
	if gotReason != "schedule change" {
		t.Errorf("reason = %q", gotReason)
	}
	if gotBy != model.CancelledByInvitee {
		t.Errorf("cancelled_by = %q, want invitee default", gotBy)
	}
	if booking.CancelledAt == nil || !booking.CancelledAt.Equal(fixedNow) {
		t.Errorf("cancelled_at = %v, want %v", booking.CancelledAt, fixedNow)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	firstCancel := fixedNow.Add(-48 * time.Hour)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:          id,
				Status:      model.StatusCancelled,
				CancelledAt: &firstCancel,
			}, nil
		},
		cancelFunc: func(ctx context.Context, id string, cancelledAt time.Time, reason, cancelledBy string) error {
			t.Fatal("repository Cancel must not run for an already cancelled booking")
			return nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), testEventType())

	_, err := svc.Cancel(context.Background(), "b-1", nil)
	assertCode(t, err, apperrors.CodeAlreadyCancelled)
}

func TestCancel_RaceMapsToAlreadyCancelled(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: model.StatusConfirmed}, nil
		},
		cancelFunc: func(ctx context.Context, id string, cancelledAt time.Time, reason, cancelledBy string) error {
			// The guarded update matched nothing: someone else cancelled
			// between the read and the write.
			return bookingerrors.ErrNotFound
		},
	}
	svc := newTestService(repo, newMockLockRepository(), testEventType())

	_, err := svc.Cancel(context.Background(), "b-1", nil)
	assertCode(t, err, apperrors.CodeAlreadyCancelled)
}

func TestGetAll_ParallelCountAndFind(t *testing.T) {
	repo := &mockBookingRepository{
		countFunc: func(ctx context.Context, filter repository.ListFilter) (int64, error) {
			time.Sleep(5 * time.Millisecond)
			return 42, nil
		},
		findAllFunc: func(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, error) {
			time.Sleep(5 * time.Millisecond)
			return []*model.Booking{{ID: "b-1"}}, nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), testEventType())

	bookings, total, err := svc.GetAll(context.Background(), repository.ListFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if total != 42 {
		t.Errorf("total = %d, want 42", total)
	}
	if len(bookings) != 1 {
		t.Errorf("bookings = %d, want 1", len(bookings))
	}
}

func TestUpsertNotes_RequiresBooking(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())

	_, err := svc.UpsertNotes(context.Background(), "missing", "call summary")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestAvailableSlots_ExcludesBookedSlot(t *testing.T) {
	et := testEventType()
	repo := &mockBookingRepository{
		findConfirmedInRangeFunc: func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
			// 10:00..10:30 IST is taken.
			return []*model.Booking{{
				ID:          "existing",
				EventTypeID: et.ID,
				HostID:      hostID,
				StartTime:   time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
				EndTime:     time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC),
				Status:      model.StatusConfirmed,
			}}, nil
		},
	}
	svc := newTestService(repo, newMockLockRepository(), et)

	got, err := svc.AvailableSlots(context.Background(), "et-1", "2026-03-10")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	for _, s := range got {
		if s.StartLocal == "10:00" {
			t.Error("10:00 is booked and must not be offered")
		}
	}
	// Full template minus the one taken slot.
	if len(got) != 15 {
		t.Errorf("expected 15 slots, got %d", len(got))
	}
}

func TestAvailableSlots_AgreesWithCreateForBufferedEventType(t *testing.T) {
	et := testEventType()
	et.BufferBefore = 30
	existing := func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
		// Confirmed 10:00..10:30 IST.
		return []*model.Booking{{
			ID:          "existing",
			EventTypeID: et.ID,
			HostID:      hostID,
			StartTime:   time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
			EndTime:     time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC),
			Status:      model.StatusConfirmed,
		}}, nil
	}
	repo := &mockBookingRepository{findConfirmedInRangeFunc: existing}
	svc := newTestService(repo, newMockLockRepository(), et)

	got, err := svc.AvailableSlots(context.Background(), "et-1", "2026-03-10")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	starts := map[string]bool{}
	for _, s := range got {
		starts[s.StartLocal] = true
	}
	// The booking's own lead-in pushes its busy window back to 09:30, and
	// every candidate carries the same lead-in, so 09:30 through 10:30 are
	// all off the table while 09:00 and 11:00 stay bookable.
	for _, blocked := range []string{"09:30", "10:00", "10:30"} {
		if starts[blocked] {
			t.Errorf("%s is listed but could never be booked", blocked)
		}
	}
	if !starts["09:00"] || !starts["11:00"] {
		t.Error("slots clear of the buffered window should be offered")
	}

	// Every offered slot around the booking must actually be creatable.
	req := validRequest()
	req.StartTime = time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC) // 11:00 IST
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("offered 11:00 slot must be bookable: %v", err)
	}

	req = validRequest()
	req.StartTime = time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC) // 10:30 IST, not offered
	_, err = svc.Create(context.Background(), req)
	assertCode(t, err, apperrors.CodeConflict)
}

func TestAvailableSlots_PastLookaheadIsEmpty(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())

	got, err := svc.AvailableSlots(context.Background(), "et-1", "2026-06-01")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no slots past the lookahead horizon, got %d", len(got))
	}
}

func TestAvailableDates_FiltersUnavailableDays(t *testing.T) {
	et := testEventType()
	et.MaxDaysAhead = 3
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), et)

	var gotFrom, gotTo string
	svc.resolver = &mockResolver{
		resolveRangeFunc: func(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*resolver.DayAvailability, error) {
			gotFrom, gotTo = fromDate, toDate
			return []*resolver.DayAvailability{
				{Date: "2026-03-02", Intervals: []model.TimeInterval{{Start: "09:00", End: "17:00"}}},
				{Date: "2026-03-03"},
				{Date: "2026-03-04", Intervals: []model.TimeInterval{{Start: "10:00", End: "12:00"}}},
			}, nil
		},
	}

	dates, err := svc.AvailableDates(context.Background(), "et-1", 2026, 3)
	if err != nil {
		t.Fatalf("AvailableDates: %v", err)
	}

	// 2026-03-01T00:00Z is 05:30 IST, so the 24h notice pushes the window
	// to March 2 and the 3 day lookahead caps it at March 4.
	if gotFrom != "2026-03-02" || gotTo != "2026-03-04" {
		t.Errorf("resolved range %s..%s, want 2026-03-02..2026-03-04", gotFrom, gotTo)
	}

	want := []string{"2026-03-02", "2026-03-04"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestAvailableDates_MonthOutsideWindowIsEmpty(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	svc.resolver = &mockResolver{
		resolveRangeFunc: func(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*resolver.DayAvailability, error) {
			t.Fatal("resolver must not be consulted for a month outside the bookable window")
			return nil, nil
		},
	}

	dates, err := svc.AvailableDates(context.Background(), "et-1", 2026, 9)
	if err != nil {
		t.Fatalf("AvailableDates: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("expected no dates, got %v", dates)
	}
}

func TestAvailableDates_RejectsInvalidMonth(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())

	_, err := svc.AvailableDates(context.Background(), "et-1", 2026, 13)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestConcurrentCreate_OnlyOneWins(t *testing.T) {
	et := testEventType()
	locks := newMockLockRepository()

	// The store remembers what was created, so whichever request loses the
	// lock race still fails the conflict check even if it arrives after the
	// winner released the lock.
	var storeMu sync.Mutex
	var stored []*model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, b *model.Booking) error {
			storeMu.Lock()
			defer storeMu.Unlock()
			b.ID = fmt.Sprintf("booking-%d", len(stored)+1)
			copied := *b
			stored = append(stored, &copied)
			return nil
		},
		findConfirmedInRangeFunc: func(ctx context.Context, hostID string, from, to time.Time) ([]*model.Booking, error) {
			storeMu.Lock()
			defer storeMu.Unlock()
			out := make([]*model.Booking, len(stored))
			copy(out, stored)
			return out, nil
		},
	}
	svc := newTestService(repo, locks, et)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), validRequest())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner and one conflict, got %d/%d", successes, conflicts)
	}
	if len(stored) != 1 {
		t.Errorf("repository Create ran %d times, want 1", len(stored))
	}
}

func TestCreateBooking_NoDefaultSchedule(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, newMockLockRepository(), testEventType())
	svc.schedules = &mockScheduleReader{
		findDefaultFunc: func(ctx context.Context, hostID string) (*model.Schedule, error) {
			return nil, errScheduleMissing
		},
	}

	_, err := svc.Create(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error when no default schedule exists")
	}
}

var errScheduleMissing = errors.New("no default schedule for host")
