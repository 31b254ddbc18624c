package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/consult-api/internal/middleware"
	"github.com/jwalitptl/consult-api/internal/model"
	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
	"github.com/jwalitptl/consult-api/pkg/httputil"
)

type Service interface {
	Book(ctx context.Context, caller model.Caller, req *model.BookAppointmentRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error)
	Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error)
	ListActive(ctx context.Context, caller model.Caller) ([]*model.Appointment, error)
	MarkPrescriptionReceived(ctx context.Context, caller model.Caller, prescriptionID uuid.UUID) (*model.Prescription, error)
}

type TimelineService interface {
	PatientTimeline(ctx context.Context, caller model.Caller, status *model.AppointmentStatus) ([]*model.TimelineEntry, error)
}

// Handler serves the patient side of the appointment API.
type Handler struct {
	service  Service
	timeline TimelineService
}

func NewHandler(service Service, timeline TimelineService) *Handler {
	return &Handler{service: service, timeline: timeline}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Book)
		appointments.GET("/my", h.ListActive)
		appointments.GET("/history", h.History)
		appointments.GET("/timeline", h.Timeline)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/cancel", h.Cancel)
	}
	r.PUT("/prescriptions/:id/received", h.MarkPrescriptionReceived)
}

func (h *Handler) Book(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body", err))
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), caller, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, appointment)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	appointment, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

func (h *Handler) ListActive(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	appointments, err := h.service.ListActive(c.Request.Context(), caller)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "appointment")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	appointment, err := h.service.Cancel(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

// History is the completed-only timeline.
func (h *Handler) History(c *gin.Context) {
	status := model.AppointmentStatusCompleted
	h.respondTimeline(c, &status)
}

func (h *Handler) Timeline(c *gin.Context) {
	var status *model.AppointmentStatus
	if raw := c.Query("status"); raw != "" {
		s := model.AppointmentStatus(raw)
		status = &s
	}
	h.respondTimeline(c, status)
}

func (h *Handler) respondTimeline(c *gin.Context, status *model.AppointmentStatus) {
	caller, _ := middleware.CallerFrom(c)

	entries, err := h.timeline.PatientTimeline(c.Request.Context(), caller, status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, entries)
}

func (h *Handler) MarkPrescriptionReceived(c *gin.Context) {
	id, ok := pathID(c, "prescription")
	if !ok {
		return
	}
	caller, _ := middleware.CallerFrom(c)

	prescription, err := h.service.MarkPrescriptionReceived(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, prescription)
}

func pathID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid "+resource+" id", err))
		return uuid.Nil, false
	}
	return id, true
}
