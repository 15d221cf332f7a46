package validator

import (
	"errors"
	"fmt"
	"strings"

	"slotwise/pkg/logger"
	"slotwise/pkg/model"
	"slotwise/pkg/timeslot"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", validateClock); err != nil {
		log.Fatal("Failed to register 'hhmm' validator", "error", err)
	}

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := timeslot.MinuteOfDay(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

func (v *ScheduleValidator) Validate(sc *model.Schedule) error {
	return v.translate(v.validate.Struct(sc))
}

// ValidateWeeklyHours checks the write shape for the weekly template:
// struct tags plus the start<end invariant on every interval.
func (v *ScheduleValidator) ValidateWeeklyHours(days []model.WeeklyHoursInput) error {
	seen := make(map[int]bool, len(days))
	for _, day := range days {
		if err := v.translate(v.validate.Struct(day)); err != nil {
			return err
		}
		if seen[day.DayOfWeek] {
			return ValidationErrors{{
				Field:   "day_of_week",
				Message: fmt.Sprintf("day %d appears more than once", day.DayOfWeek),
			}}
		}
		seen[day.DayOfWeek] = true

		if err := model.ValidateIntervals(day.Intervals); err != nil {
			return ValidationErrors{{Field: "intervals", Message: err.Error()}}
		}
	}
	return nil
}

func (v *ScheduleValidator) ValidateOverride(ov *model.DateOverride) error {
	if err := v.translate(v.validate.Struct(ov)); err != nil {
		return err
	}
	if err := model.ValidateIntervals(ov.Intervals); err != nil {
		return ValidationErrors{{Field: "intervals", Message: err.Error()}}
	}
	return nil
}

func (v *ScheduleValidator) translate(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var validationErrors ValidationErrors
	for _, fieldErr := range validationErrs {
		message := fieldErr.Error()

		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldErr.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA timezone name", fieldErr.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", fieldErr.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", fieldErr.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return validationErrors
}
