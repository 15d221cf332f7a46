package service

import (
	"context"
	"errors"

	scheduleerrors "slotwise/internal/schedules/errors"
	"slotwise/internal/schedules/repository"
	"slotwise/internal/schedules/validator"
	"slotwise/pkg/config"
	apperrors "slotwise/pkg/errors"
	"slotwise/pkg/model"
	"slotwise/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type ScheduleService interface {
	Create(ctx context.Context, sc *model.Schedule, days []model.WeeklyHoursInput) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	GetAll(ctx context.Context, hostID string) ([]*model.Schedule, error)
	GetDefault(ctx context.Context, hostID string) (*model.Schedule, error)
	Update(ctx context.Context, id string, updates *model.ScheduleUpdate) (*model.Schedule, error)
	Delete(ctx context.Context, id string) error
	GetWeeklyHours(ctx context.Context, scheduleID string) ([]*model.WeeklyHours, error)
	SetWeeklyHours(ctx context.Context, scheduleID string, days []model.WeeklyHoursInput) error
	GetOverrides(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*model.DateOverride, error)
	UpsertOverride(ctx context.Context, ov *model.DateOverride) error
	DeleteOverride(ctx context.Context, scheduleID string, date string) error
	EnsureDefaultSchedule(ctx context.Context) error
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	weekly    repository.WeeklyHoursRepository
	overrides repository.DateOverrideRepository
	validator *validator.ScheduleValidator
	cfg       *config.Config
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	weekly repository.WeeklyHoursRepository,
	overrides repository.DateOverrideRepository,
	validator *validator.ScheduleValidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		weekly:    weekly,
		overrides: overrides,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *scheduleService) Create(ctx context.Context, sc *model.Schedule, days []model.WeeklyHoursInput) error {
	sc.Name = sanitizer.NormalizeName(sc.Name)
	sc.Timezone = sanitizer.NormalizeTimezone(sc.Timezone)
	if sc.HostID == "" {
		sc.HostID = s.cfg.DefaultHostID
	}
	if sc.Timezone == "" {
		sc.Timezone = s.cfg.DefaultTimezone
	}

	if err := s.validator.Validate(sc); err != nil {
		s.cfg.Log.Warn("Schedule validation failed",
			"name", sc.Name,
			"host_id", sc.HostID,
			"error", err,
		)
		return apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if len(days) == 0 {
		days = s.defaultWeekdayTemplate()
	}
	if err := s.validator.ValidateWeeklyHours(days); err != nil {
		return apperrors.Validation("Weekly hours validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByHost(sessCtx, sc.HostID)
		if err != nil {
			return apperrors.Internal("Failed to check existing schedules", err)
		}
		// First schedule of a host always becomes the default.
		if len(existing) == 0 {
			sc.IsDefault = true
		}

		if err := s.repo.Create(sessCtx, sc); err != nil {
			return apperrors.Internal("Failed to create schedule", err)
		}

		if sc.IsDefault {
			if err := s.repo.ClearDefault(sessCtx, sc.HostID, sc.ID); err != nil {
				return apperrors.Internal("Failed to clear previous default schedule", err)
			}
		}

		for _, day := range days {
			wh := &model.WeeklyHours{
				ScheduleID: sc.ID,
				DayOfWeek:  day.DayOfWeek,
				IsEnabled:  day.IsEnabled,
				Intervals:  day.Intervals,
			}
			if err := s.weekly.Upsert(sessCtx, wh); err != nil {
				return apperrors.Internal("Failed to write weekly hours", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create schedule",
			"name", sc.Name,
			"host_id", sc.HostID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Schedule created successfully",
		"id", sc.ID,
		"name", sc.Name,
		"host_id", sc.HostID,
		"is_default", sc.IsDefault,
	)
	return nil
}

func (s *scheduleService) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	sc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to get schedule by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	return sc, nil
}

func (s *scheduleService) GetAll(ctx context.Context, hostID string) ([]*model.Schedule, error) {
	if hostID == "" {
		return nil, apperrors.InvalidInput("Host ID cannot be empty")
	}

	schedules, err := s.repo.FindByHost(ctx, hostID)
	if err != nil {
		s.cfg.Log.Error("Failed to get schedules", "host_id", hostID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve schedules", err)
	}
	return schedules, nil
}

func (s *scheduleService) GetDefault(ctx context.Context, hostID string) (*model.Schedule, error) {
	if hostID == "" {
		return nil, apperrors.InvalidInput("Host ID cannot be empty")
	}

	sc, err := s.repo.FindDefault(ctx, hostID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNoDefault) {
			return nil, apperrors.NotFound("Default schedule")
		}
		s.cfg.Log.Error("Failed to get default schedule", "host_id", hostID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve default schedule", err)
	}

	return sc, nil
}

func (s *scheduleService) Update(ctx context.Context, id string, updates *model.ScheduleUpdate) (*model.Schedule, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if updates.Name != "" {
		merged.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Timezone != "" {
		merged.Timezone = sanitizer.NormalizeTimezone(updates.Timezone)
	}
	if updates.IsDefault != nil {
		if existing.IsDefault && !*updates.IsDefault {
			return nil, apperrors.InvalidInput("Cannot unset the default schedule directly; promote another schedule instead")
		}
		merged.IsDefault = *updates.IsDefault
	}

	if err := s.validator.Validate(&merged); err != nil {
		s.cfg.Log.Warn("Schedule validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	if len(updates.WeeklyHours) > 0 {
		if err := s.validator.ValidateWeeklyHours(updates.WeeklyHours); err != nil {
			return nil, apperrors.Validation("Weekly hours validation failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Update(sessCtx, id, &merged); err != nil {
			return apperrors.Internal("Failed to update schedule", err)
		}
		if merged.IsDefault && !existing.IsDefault {
			if err := s.repo.ClearDefault(sessCtx, merged.HostID, id); err != nil {
				return apperrors.Internal("Failed to clear previous default schedule", err)
			}
		}
		for _, day := range updates.WeeklyHours {
			wh := &model.WeeklyHours{
				ScheduleID: id,
				DayOfWeek:  day.DayOfWeek,
				IsEnabled:  day.IsEnabled,
				Intervals:  day.Intervals,
			}
			if err := s.weekly.Upsert(sessCtx, wh); err != nil {
				return apperrors.Internal("Failed to write weekly hours", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Schedule updated successfully", "id", id, "name", merged.Name)
	return &merged, nil
}

func (s *scheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return apperrors.InvalidInput("Cannot delete the default schedule; promote another schedule first")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to delete schedule", err)
		}
		if err := s.weekly.DeleteBySchedule(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to delete weekly hours", err)
		}
		if err := s.overrides.DeleteBySchedule(sessCtx, id); err != nil {
			return apperrors.Internal("Failed to delete date overrides", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Schedule deleted successfully", "id", id)
	return nil
}

func (s *scheduleService) GetWeeklyHours(ctx context.Context, scheduleID string) ([]*model.WeeklyHours, error) {
	if _, err := s.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}

	hours, err := s.weekly.FindBySchedule(ctx, scheduleID)
	if err != nil {
		s.cfg.Log.Error("Failed to get weekly hours", "schedule_id", scheduleID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve weekly hours", err)
	}
	return hours, nil
}

func (s *scheduleService) SetWeeklyHours(ctx context.Context, scheduleID string, days []model.WeeklyHoursInput) error {
	if _, err := s.GetByID(ctx, scheduleID); err != nil {
		return err
	}
	if len(days) == 0 {
		return apperrors.InvalidInput("Weekly hours payload cannot be empty")
	}

	if err := s.validator.ValidateWeeklyHours(days); err != nil {
		s.cfg.Log.Warn("Weekly hours validation failed",
			"schedule_id", scheduleID,
			"error", err,
		)
		return apperrors.Validation("Weekly hours validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, day := range days {
			wh := &model.WeeklyHours{
				ScheduleID: scheduleID,
				DayOfWeek:  day.DayOfWeek,
				IsEnabled:  day.IsEnabled,
				Intervals:  day.Intervals,
			}
			if err := s.weekly.Upsert(sessCtx, wh); err != nil {
				return apperrors.Internal("Failed to write weekly hours", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Weekly hours updated", "schedule_id", scheduleID, "days", len(days))
	return nil
}

func (s *scheduleService) GetOverrides(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*model.DateOverride, error) {
	if _, err := s.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}

	overrides, err := s.overrides.FindInRange(ctx, scheduleID, fromDate, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to get date overrides",
			"schedule_id", scheduleID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve date overrides", err)
	}
	return overrides, nil
}

func (s *scheduleService) UpsertOverride(ctx context.Context, ov *model.DateOverride) error {
	if _, err := s.GetByID(ctx, ov.ScheduleID); err != nil {
		return err
	}

	if err := s.validator.ValidateOverride(ov); err != nil {
		s.cfg.Log.Warn("Date override validation failed",
			"schedule_id", ov.ScheduleID,
			"date", ov.SpecificDate,
			"error", err,
		)
		return apperrors.Validation("Date override validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.overrides.Upsert(ctx, ov); err != nil {
		s.cfg.Log.Error("Failed to upsert date override",
			"schedule_id", ov.ScheduleID,
			"date", ov.SpecificDate,
			"error", err,
		)
		return apperrors.Internal("Failed to save date override", err)
	}

	s.cfg.Log.Info("Date override saved",
		"schedule_id", ov.ScheduleID,
		"date", ov.SpecificDate,
		"intervals", len(ov.Intervals),
	)
	return nil
}

func (s *scheduleService) DeleteOverride(ctx context.Context, scheduleID string, date string) error {
	if _, err := s.GetByID(ctx, scheduleID); err != nil {
		return err
	}

	if err := s.overrides.DeleteByDate(ctx, scheduleID, date); err != nil {
		if errors.Is(err, scheduleerrors.ErrOverrideNotFound) {
			return apperrors.NotFound("Date override")
		}
		s.cfg.Log.Error("Failed to delete date override",
			"schedule_id", scheduleID,
			"date", date,
			"error", err,
		)
		return apperrors.Internal("Failed to delete date override", err)
	}

	s.cfg.Log.Info("Date override deleted", "schedule_id", scheduleID, "date", date)
	return nil
}

// EnsureDefaultSchedule seeds the configured host with a weekday schedule
// on first startup so the engine is bookable out of the box.
func (s *scheduleService) EnsureDefaultSchedule(ctx context.Context) error {
	_, err := s.repo.FindDefault(ctx, s.cfg.DefaultHostID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, scheduleerrors.ErrNoDefault) {
		return apperrors.Internal("Failed to check for default schedule", err)
	}

	sc := &model.Schedule{
		HostID:    s.cfg.DefaultHostID,
		Name:      "Working Hours",
		Timezone:  s.cfg.DefaultTimezone,
		IsDefault: true,
	}
	if err := s.Create(ctx, sc, nil); err != nil {
		return err
	}

	s.cfg.Log.Info("Seeded default schedule",
		"id", sc.ID,
		"host_id", sc.HostID,
		"timezone", sc.Timezone,
	)
	return nil
}

// defaultWeekdayTemplate enables Monday through Friday with the configured
// day window and disables the weekend.
func (s *scheduleService) defaultWeekdayTemplate() []model.WeeklyHoursInput {
	window := []model.TimeInterval{{Start: s.cfg.DefaultDayStart, End: s.cfg.DefaultDayEnd}}

	days := make([]model.WeeklyHoursInput, 7)
	for dow := 0; dow < 7; dow++ {
		days[dow] = model.WeeklyHoursInput{DayOfWeek: dow}
		if dow >= 1 && dow <= 5 {
			days[dow].IsEnabled = true
			days[dow].Intervals = window
		}
	}
	return days
}
