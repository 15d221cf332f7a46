package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"slotwise/internal/schedules/resolver"
	"slotwise/internal/schedules/service"
	apperrors "slotwise/pkg/errors"
	httputil "slotwise/pkg/http"
	"slotwise/pkg/logger"
	"slotwise/pkg/model"
	"slotwise/pkg/timeslot"
)

type ScheduleHandler struct {
	service       service.ScheduleService
	resolver      *resolver.Resolver
	defaultHostID string
	log           *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, resolver *resolver.Resolver, defaultHostID string, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service:       service,
		resolver:      resolver,
		defaultHostID: defaultHostID,
		log:           log,
	}
}

type createScheduleRequest struct {
	model.Schedule
	WeeklyHours []model.WeeklyHoursInput `json:"weekly_hours,omitempty"`
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if req.HostID == "" {
		req.HostID = httputil.HostID(r, h.defaultHostID)
	}

	if err := h.service.Create(r.Context(), &req.Schedule, req.WeeklyHours); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, req.Schedule)
}

func (h *ScheduleHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	schedules, err := h.service.GetAll(r.Context(), httputil.HostID(r, h.defaultHostID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, schedules)
}

func (h *ScheduleHandler) GetDefault(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sc, err := h.service.GetDefault(r.Context(), httputil.HostID(r, h.defaultHostID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, sc)
}

func (h *ScheduleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, sc)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ScheduleUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	sc, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, sc)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) GetWeeklyHours(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hours, err := h.service.GetWeeklyHours(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, hours)
}

func (h *ScheduleHandler) SetWeeklyHours(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var days []model.WeeklyHoursInput
	if err := json.NewDecoder(r.Body).Decode(&days); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.SetWeeklyHours(r.Context(), ps.ByName("id"), days); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) GetOverrides(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	fromDate := query.Get("from")
	toDate := query.Get("to")

	now := time.Now().UTC()
	if fromDate == "" {
		fromDate = now.Format(timeslot.DateLayout)
	}
	if toDate == "" {
		toDate = now.AddDate(1, 0, 0).Format(timeslot.DateLayout)
	}
	for _, date := range []string{fromDate, toDate} {
		if _, err := timeslot.ParseDate(date); err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("Dates must be in YYYY-MM-DD format"))
			return
		}
	}

	overrides, err := h.service.GetOverrides(r.Context(), ps.ByName("id"), fromDate, toDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, overrides)
}

type overrideRequest struct {
	Intervals []model.TimeInterval `json:"intervals"`
}

func (h *ScheduleHandler) UpsertOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	ov := &model.DateOverride{
		ScheduleID:   ps.ByName("id"),
		SpecificDate: ps.ByName("date"),
		Intervals:    req.Intervals,
	}

	if err := h.service.UpsertOverride(r.Context(), ov); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, ov)
}

func (h *ScheduleHandler) DeleteOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteOverride(r.Context(), ps.ByName("id"), ps.ByName("date")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// ResolveDay returns the effective availability of one calendar date,
// override included, without generating slots.
func (h *ScheduleHandler) ResolveDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		httputil.WriteError(w, apperrors.InvalidInput("'date' query parameter is required"))
		return
	}

	if _, err := h.service.GetByID(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	day, err := h.resolver.ResolveDay(r.Context(), ps.ByName("id"), date)
	if err != nil {
		if errors.Is(err, timeslot.ErrBadDate) {
			httputil.WriteError(w, apperrors.InvalidInput("'date' must be in YYYY-MM-DD format"))
			return
		}
		httputil.WriteError(w, apperrors.Internal("Failed to resolve availability", err))
		return
	}

	httputil.WriteSuccess(w, day)
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schedules", h.Create)
	router.GET("/api/v1/schedules", h.GetAll)
	router.GET("/api/v1/schedules/default", h.GetDefault)
	router.GET("/api/v1/schedules/id/:id", h.GetByID)
	router.PATCH("/api/v1/schedules/id/:id", h.Update)
	router.DELETE("/api/v1/schedules/id/:id", h.Delete)
	router.GET("/api/v1/schedules/id/:id/weekly-hours", h.GetWeeklyHours)
	router.PUT("/api/v1/schedules/id/:id/weekly-hours", h.SetWeeklyHours)
	router.GET("/api/v1/schedules/id/:id/overrides", h.GetOverrides)
	router.PUT("/api/v1/schedules/id/:id/overrides/:date", h.UpsertOverride)
	router.DELETE("/api/v1/schedules/id/:id/overrides/:date", h.DeleteOverride)
	router.GET("/api/v1/schedules/id/:id/availability", h.ResolveDay)
}
