package doctor

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

type LifecycleService interface {
	MarkDone(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Appointment, error)
	SetPaymentStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status *model.PaymentStatus) (*model.Appointment, error)
}

type ClinicalService interface {
	DoctorQueue(ctx context.Context, caller model.Caller) ([]*model.QueueEntry, error)
	DoctorHistory(ctx context.Context, caller model.Caller) ([]*model.QueueEntry, error)
	DoctorPatientSearch(ctx context.Context, caller model.Caller, email string) ([]*model.PatientHistoryEntry, error)
}

// Handler serves the doctor side of the appointment API.
type Handler struct {
	lifecycle LifecycleService
	clinical  ClinicalService
}

func NewHandler(lifecycle LifecycleService, clinical ClinicalService) *Handler {
	return &Handler{lifecycle: lifecycle, clinical: clinical}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctor := r.Group("/doctor")
	{
		doctor.GET("/appointments", h.ListAppointments)
		doctor.PUT("/appointments/:id/complete", h.Complete)
		doctor.PUT("/appointments/:id/payment", h.SetPayment)
		doctor.GET("/patients/history", h.PatientHistory)
	}
}

// ListAppointments serves the queue (type=active, the default) or the
// completed history (type=history).
func (h *Handler) ListAppointments(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	var (
		entries []*model.QueueEntry
		err     error
	)
	switch c.DefaultQuery("type", "active") {
	case "active":
		entries, err = h.clinical.DoctorQueue(c.Request.Context(), caller)
	case "history":
		entries, err = h.clinical.DoctorHistory(c.Request.Context(), caller)
	default:
		err = apperrors.Validation("type must be active or history", nil)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, entries)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid appointment id", err))
		return
	}
	caller, _ := middleware.CallerFrom(c)

	appointment, err := h.lifecycle.MarkDone(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

// SetPayment accepts an empty body, which toggles the current value.
func (h *Handler) SetPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid appointment id", err))
		return
	}
	caller, _ := middleware.CallerFrom(c)

	var req model.UpdatePaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperrors.Validation("invalid request body", err))
			return
		}
	}

	var status *model.PaymentStatus
	if req.PaymentStatus != "" {
		status = &req.PaymentStatus
	}

	appointment, err := h.lifecycle.SetPaymentStatus(c.Request.Context(), caller, id, status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

func (h *Handler) PatientHistory(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	entries, err := h.clinical.DoctorPatientSearch(c.Request.Context(), caller, c.Query("email"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, entries)
}
