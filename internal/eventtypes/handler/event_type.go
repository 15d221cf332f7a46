package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotwise/internal/eventtypes/service"
	httputil "slotwise/pkg/http"
	"slotwise/pkg/logger"
	"slotwise/pkg/model"
)

type EventTypeHandler struct {
	service       service.EventTypeService
	defaultHostID string
	log           *logger.Logger
}

func NewEventTypeHandler(service service.EventTypeService, defaultHostID string, log *logger.Logger) *EventTypeHandler {
	return &EventTypeHandler{
		service:       service,
		defaultHostID: defaultHostID,
		log:           log,
	}
}

func (h *EventTypeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var et model.EventType
	if err := json.NewDecoder(r.Body).Decode(&et); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if et.HostID == "" {
		et.HostID = httputil.HostID(r, h.defaultHostID)
	}

	if err := h.service.Create(r.Context(), &et); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, et)
}

func (h *EventTypeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	et, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, et)
}

func (h *EventTypeHandler) GetBySlug(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID := httputil.HostID(r, h.defaultHostID)

	et, err := h.service.GetBySlug(r.Context(), hostID, ps.ByName("slug"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, et)
}

func (h *EventTypeHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hostID := httputil.HostID(r, h.defaultHostID)

	eventTypes, totalCount, err := h.service.GetAll(r.Context(), hostID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, eventTypes, totalCount, limit, offset)
}

func (h *EventTypeHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.EventTypeUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	et, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, et)
}

func (h *EventTypeHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *EventTypeHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/event-types", h.Create)
	router.GET("/api/v1/event-types", h.GetAll)
	router.GET("/api/v1/event-types/slug/:slug", h.GetBySlug)
	router.GET("/api/v1/event-types/id/:id", h.GetByID)
	router.PATCH("/api/v1/event-types/id/:id", h.Update)
	router.DELETE("/api/v1/event-types/id/:id", h.Delete)
}
