package validator

import (
	"strings"
	"testing"
	"time"

	"slotwise/pkg/logger"
	"slotwise/pkg/model"
)

func testValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewBookingValidator(log)
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		EventTypeID:  "et-1",
		StartTime:    time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
		Timezone:     "Asia/Kolkata",
		InviteeName:  "Asha Rao",
		InviteeEmail: "asha@example.com",
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *model.BookingRequest)
		wantErr string
	}{
		{"valid", func(r *model.BookingRequest) {}, ""},
		{"missing event type", func(r *model.BookingRequest) { r.EventTypeID = "" }, "EventTypeID"},
		{"missing start time", func(r *model.BookingRequest) { r.StartTime = time.Time{} }, "StartTime"},
		{"bad timezone", func(r *model.BookingRequest) { r.Timezone = "Not/AZone" }, "Timezone"},
		{"short name", func(r *model.BookingRequest) { r.InviteeName = "A" }, "InviteeName"},
		{"bad email", func(r *model.BookingRequest) { r.InviteeEmail = "not-an-email" }, "InviteeEmail"},
		{"bad guest email", func(r *model.BookingRequest) { r.Guests = []string{"nope"} }, "Guests"},
		{"too many guests", func(r *model.BookingRequest) {
			r.Guests = make([]string, 11)
			for i := range r.Guests {
				r.Guests[i] = "g@example.com"
			}
		}, "Guests"},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateRequest(req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention field %s", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateCancel(t *testing.T) {
	v := testValidator()

	if err := v.ValidateCancel(&model.CancelRequest{}); err != nil {
		t.Errorf("empty cancel request should be valid: %v", err)
	}
	if err := v.ValidateCancel(&model.CancelRequest{CancelledBy: "host"}); err != nil {
		t.Errorf("host cancel should be valid: %v", err)
	}
	if err := v.ValidateCancel(&model.CancelRequest{CancelledBy: "robot"}); err == nil {
		t.Error("expected error for unknown cancelled_by value")
	}
	if err := v.ValidateCancel(&model.CancelRequest{Reason: strings.Repeat("x", 501)}); err == nil {
		t.Error("expected error for oversized reason")
	}
}

func TestValidateNotes(t *testing.T) {
	v := testValidator()

	notes := &model.MeetingNotes{BookingID: "b-1", Content: "Discussed rollout plan."}
	if err := v.ValidateNotes(notes); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	notes.Content = ""
	if err := v.ValidateNotes(notes); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	v := testValidator()

	req := validRequest()
	req.EventTypeID = ""
	req.InviteeEmail = "nope"

	err := v.ValidateRequest(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "2 error(s)") {
		t.Errorf("message should count both failures: %q", msg)
	}
}
