package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"slotwise/internal/bookings/repository"
	"slotwise/internal/bookings/service"
	apperrors "slotwise/pkg/errors"
	httputil "slotwise/pkg/http"
	"slotwise/pkg/logger"
	"slotwise/pkg/model"
)

type BookingHandler struct {
	service       service.BookingService
	defaultHostID string
	log           *logger.Logger
}

func NewBookingHandler(service service.BookingService, defaultHostID string, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:       service,
		defaultHostID: defaultHostID,
		log:           log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter, err := h.listFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, totalCount, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, bookings, totalCount, limit, offset)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) UpsertNotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	notes, err := h.service.UpsertNotes(r.Context(), ps.ByName("id"), req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, notes)
}

func (h *BookingHandler) GetNotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	notes, err := h.service.GetNotes(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, notes)
}

func (h *BookingHandler) DeleteNotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteNotes(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) AvailableDates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	eventTypeID := query.Get("event_type_id")
	if eventTypeID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "event_type_id query parameter is required",
		})
		return
	}

	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "year query parameter must be a number",
		})
		return
	}
	month, err := strconv.Atoi(query.Get("month"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "month query parameter must be a number",
		})
		return
	}

	dates, err := h.service.AvailableDates(r.Context(), eventTypeID, year, month)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, dates)
}

func (h *BookingHandler) AvailableSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	eventTypeID := query.Get("event_type_id")
	date := query.Get("date")
	if eventTypeID == "" || date == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "event_type_id and date query parameters are required",
		})
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), eventTypeID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// An invitee timezone re-renders each slot's local wall clock without
	// changing which slots exist; generation always runs in the host
	// schedule's timezone.
	if tz := query.Get("timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidTimezone(tz))
			return
		}
		for i := range slots {
			slots[i].StartLocal = slots[i].StartTime.In(loc).Format("15:04")
		}
	}

	httputil.WriteSuccess(w, slots)
}

func (h *BookingHandler) listFilter(r *http.Request) (repository.ListFilter, error) {
	query := r.URL.Query()
	filter := repository.ListFilter{
		HostID: httputil.HostID(r, h.defaultHostID),
		Status: query.Get("status"),
	}

	if from := query.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, invalidTimeParam("from")
		}
		filter.From = &t
	}
	if to := query.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, invalidTimeParam("to")
		}
		filter.To = &t
	}
	return filter, nil
}

func invalidTimeParam(name string) error {
	return apperrors.InvalidInput(name + " must be an RFC 3339 timestamp")
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.PUT("/api/v1/bookings/id/:id/notes", h.UpsertNotes)
	router.GET("/api/v1/bookings/id/:id/notes", h.GetNotes)
	router.DELETE("/api/v1/bookings/id/:id/notes", h.DeleteNotes)
	router.GET("/api/v1/availability/dates", h.AvailableDates)
	router.GET("/api/v1/availability/slots", h.AvailableSlots)
}
