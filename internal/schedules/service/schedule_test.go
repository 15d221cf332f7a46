package service

import (
	"context"
	"testing"
	"time"

	scheduleerrors "slotwise/internal/schedules/errors"
	"slotwise/internal/schedules/validator"
	"slotwise/pkg/config"
	mongotx "slotwise/pkg/db/mongo"
	apperrors "slotwise/pkg/errors"
	"slotwise/pkg/logger"
	"slotwise/pkg/model"
)

type mockScheduleRepository struct {
	createFunc       func(ctx context.Context, sc *model.Schedule) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Schedule, error)
	findByHostFunc   func(ctx context.Context, hostID string) ([]*model.Schedule, error)
	findDefaultFunc  func(ctx context.Context, hostID string) (*model.Schedule, error)
	updateFunc       func(ctx context.Context, id string, sc *model.Schedule) error
	deleteFunc       func(ctx context.Context, id string) error
	clearDefaultFunc func(ctx context.Context, hostID string, exceptID string) error
}

func (m *mockScheduleRepository) Create(ctx context.Context, sc *model.Schedule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, sc)
	}
	sc.ID = "new-schedule"
	return nil
}

func (m *mockScheduleRepository) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, scheduleerrors.ErrNotFound
}

func (m *mockScheduleRepository) FindByHost(ctx context.Context, hostID string) ([]*model.Schedule, error) {
	if m.findByHostFunc != nil {
		return m.findByHostFunc(ctx, hostID)
	}
	return []*model.Schedule{}, nil
}

func (m *mockScheduleRepository) FindDefault(ctx context.Context, hostID string) (*model.Schedule, error) {
	if m.findDefaultFunc != nil {
		return m.findDefaultFunc(ctx, hostID)
	}
	return nil, scheduleerrors.ErrNoDefault
}

func (m *mockScheduleRepository) Update(ctx context.Context, id string, sc *model.Schedule) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, sc)
	}
	return nil
}

func (m *mockScheduleRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockScheduleRepository) ClearDefault(ctx context.Context, hostID string, exceptID string) error {
	if m.clearDefaultFunc != nil {
		return m.clearDefaultFunc(ctx, hostID, exceptID)
	}
	return nil
}

func (m *mockScheduleRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockWeeklyRepository struct {
	upserted []*model.WeeklyHours
}

func (m *mockWeeklyRepository) Upsert(ctx context.Context, wh *model.WeeklyHours) error {
	m.upserted = append(m.upserted, wh)
	return nil
}

func (m *mockWeeklyRepository) FindBySchedule(ctx context.Context, scheduleID string) ([]*model.WeeklyHours, error) {
	return nil, nil
}

func (m *mockWeeklyRepository) FindDay(ctx context.Context, scheduleID string, dayOfWeek int) (*model.WeeklyHours, error) {
	return nil, nil
}

func (m *mockWeeklyRepository) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	return nil
}

func (m *mockWeeklyRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

type mockOverrideRepository struct {
	upserted []*model.DateOverride
}

func (m *mockOverrideRepository) Upsert(ctx context.Context, ov *model.DateOverride) error {
	m.upserted = append(m.upserted, ov)
	return nil
}

func (m *mockOverrideRepository) FindByDate(ctx context.Context, scheduleID string, date string) (*model.DateOverride, error) {
	return nil, nil
}

func (m *mockOverrideRepository) FindInRange(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*model.DateOverride, error) {
	return nil, nil
}

func (m *mockOverrideRepository) DeleteByDate(ctx context.Context, scheduleID string, date string) error {
	return nil
}

func (m *mockOverrideRepository) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	return nil
}

func (m *mockOverrideRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:             log,
		DefaultHostID:   "default-host",
		DefaultTimezone: "Asia/Kolkata",
		DefaultDayStart: "09:00",
		DefaultDayEnd:   "17:00",
		ReadTimeout:     5 * time.Second,
	}
}

func newTestService(repo *mockScheduleRepository, weekly *mockWeeklyRepository, overrides *mockOverrideRepository) *scheduleService {
	cfg := testConfig()
	return &scheduleService{
		repo:      repo,
		weekly:    weekly,
		overrides: overrides,
		validator: validator.NewScheduleValidator(cfg.Log),
		cfg:       cfg,
	}
}

func TestCreateSchedule_FirstBecomesDefault(t *testing.T) {
	repo := &mockScheduleRepository{
		findByHostFunc: func(ctx context.Context, hostID string) ([]*model.Schedule, error) {
			return []*model.Schedule{}, nil
		},
	}
	weekly := &mockWeeklyRepository{}
	svc := newTestService(repo, weekly, &mockOverrideRepository{})

	sc := &model.Schedule{Name: "Working Hours"}
	if err := svc.Create(context.Background(), sc, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !sc.IsDefault {
		t.Error("the host's first schedule must become the default")
	}
	if sc.HostID != "default-host" {
		t.Errorf("host_id = %s, want default-host", sc.HostID)
	}
	if sc.Timezone != "Asia/Kolkata" {
		t.Errorf("timezone = %s, want configured default", sc.Timezone)
	}
	// Absent weekly hours fall back to the weekday template: 7 documents,
	// Monday through Friday enabled.
	if len(weekly.upserted) != 7 {
		t.Fatalf("expected 7 weekly hour documents, got %d", len(weekly.upserted))
	}
	enabled := 0
	for _, wh := range weekly.upserted {
		if wh.IsEnabled {
			enabled++
			if len(wh.Intervals) != 1 || wh.Intervals[0].Start != "09:00" || wh.Intervals[0].End != "17:00" {
				t.Errorf("day %d has intervals %+v", wh.DayOfWeek, wh.Intervals)
			}
		}
	}
	if enabled != 5 {
		t.Errorf("expected 5 enabled weekdays, got %d", enabled)
	}
}

func TestCreateSchedule_NewDefaultClearsPrevious(t *testing.T) {
	var clearedFor string
	repo := &mockScheduleRepository{
		findByHostFunc: func(ctx context.Context, hostID string) ([]*model.Schedule, error) {
			return []*model.Schedule{{ID: "old", IsDefault: true}}, nil
		},
		clearDefaultFunc: func(ctx context.Context, hostID string, exceptID string) error {
			clearedFor = exceptID
			return nil
		},
	}
	svc := newTestService(repo, &mockWeeklyRepository{}, &mockOverrideRepository{})

	sc := &model.Schedule{Name: "Evenings", IsDefault: true}
	if err := svc.Create(context.Background(), sc, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if clearedFor != sc.ID {
		t.Error("previous default was not cleared")
	}
}

func TestCreateSchedule_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockScheduleRepository{}, &mockWeeklyRepository{}, &mockOverrideRepository{})

	sc := &model.Schedule{Name: "Working Hours", Timezone: "Mars/Olympus"}
	err := svc.Create(context.Background(), sc, nil)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateSchedule_RejectsInvertedInterval(t *testing.T) {
	svc := newTestService(&mockScheduleRepository{}, &mockWeeklyRepository{}, &mockOverrideRepository{})

	sc := &model.Schedule{Name: "Working Hours"}
	days := []model.WeeklyHoursInput{
		{DayOfWeek: 1, IsEnabled: true, Intervals: []model.TimeInterval{{Start: "17:00", End: "09:00"}}},
	}
	err := svc.Create(context.Background(), sc, days)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for inverted interval, got %v", err)
	}
}

func TestUpdateSchedule_CannotUnsetDefault(t *testing.T) {
	repo := &mockScheduleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return &model.Schedule{ID: id, HostID: "default-host", Name: "Working Hours", Timezone: "Asia/Kolkata", IsDefault: true}, nil
		},
	}
	svc := newTestService(repo, &mockWeeklyRepository{}, &mockOverrideRepository{})

	off := false
	_, err := svc.Update(context.Background(), "sched-1", &model.ScheduleUpdate{IsDefault: &off})
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestUpdateSchedule_PromoteClearsPrevious(t *testing.T) {
	var cleared bool
	repo := &mockScheduleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return &model.Schedule{ID: id, HostID: "default-host", Name: "Evenings", Timezone: "Asia/Kolkata", IsDefault: false}, nil
		},
		clearDefaultFunc: func(ctx context.Context, hostID string, exceptID string) error {
			cleared = true
			return nil
		},
	}
	svc := newTestService(repo, &mockWeeklyRepository{}, &mockOverrideRepository{})

	on := true
	updated, err := svc.Update(context.Background(), "sched-2", &model.ScheduleUpdate{IsDefault: &on})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.IsDefault {
		t.Error("schedule was not promoted")
	}
	if !cleared {
		t.Error("previous default was not cleared")
	}
}

func TestDeleteSchedule_RefusesDefault(t *testing.T) {
	repo := &mockScheduleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return &model.Schedule{ID: id, HostID: "default-host", Name: "Working Hours", Timezone: "Asia/Kolkata", IsDefault: true}, nil
		},
	}
	svc := newTestService(repo, &mockWeeklyRepository{}, &mockOverrideRepository{})

	err := svc.Delete(context.Background(), "sched-1")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestEnsureDefaultSchedule_SeedsWhenMissing(t *testing.T) {
	var created *model.Schedule
	repo := &mockScheduleRepository{
		findDefaultFunc: func(ctx context.Context, hostID string) (*model.Schedule, error) {
			return nil, scheduleerrors.ErrNoDefault
		},
		createFunc: func(ctx context.Context, sc *model.Schedule) error {
			sc.ID = "seeded"
			created = sc
			return nil
		},
	}
	weekly := &mockWeeklyRepository{}
	svc := newTestService(repo, weekly, &mockOverrideRepository{})

	if err := svc.EnsureDefaultSchedule(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultSchedule: %v", err)
	}
	if created == nil {
		t.Fatal("expected a schedule to be seeded")
	}
	if !created.IsDefault || created.HostID != "default-host" || created.Timezone != "Asia/Kolkata" {
		t.Errorf("seeded schedule = %+v", created)
	}
	if len(weekly.upserted) != 7 {
		t.Errorf("expected the weekday template to be written, got %d documents", len(weekly.upserted))
	}
}

func TestEnsureDefaultSchedule_NoopsWhenPresent(t *testing.T) {
	repo := &mockScheduleRepository{
		findDefaultFunc: func(ctx context.Context, hostID string) (*model.Schedule, error) {
			return &model.Schedule{ID: "existing", IsDefault: true}, nil
		},
		createFunc: func(ctx context.Context, sc *model.Schedule) error {
			t.Fatal("no schedule should be created when a default exists")
			return nil
		},
	}
	svc := newTestService(repo, &mockWeeklyRepository{}, &mockOverrideRepository{})

	if err := svc.EnsureDefaultSchedule(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultSchedule: %v", err)
	}
}

func TestUpsertOverride_EmptyIntervalsAllowed(t *testing.T) {
	repo := &mockScheduleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return &model.Schedule{ID: id, HostID: "default-host", Name: "Working Hours", Timezone: "Asia/Kolkata"}, nil
		},
	}
	overrides := &mockOverrideRepository{}
	svc := newTestService(repo, &mockWeeklyRepository{}, overrides)

	ov := &model.DateOverride{
		ScheduleID:   "sched-1",
		SpecificDate: "2026-03-10",
		Intervals:    []model.TimeInterval{},
	}
	if err := svc.UpsertOverride(context.Background(), ov); err != nil {
		t.Fatalf("UpsertOverride: %v", err)
	}
	if len(overrides.upserted) != 1 {
		t.Fatal("override was not written")
	}
}
