package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salus-hms/salus-api/internal/domain/appointment"
	"github.com/salus-hms/salus-api/internal/service"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
}

func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type createAppointmentRequest struct {
	UserID           string    `json:"userId" binding:"required"`
	PatientID        string    `json:"patient" binding:"required"`
	PrimaryPhysician string    `json:"primaryPhysician" binding:"required"`
	Schedule         time.Time `json:"schedule" binding:"required"`
	Reason           string    `json:"reason"`
	Note             string    `json:"note"`
	Status           string    `json:"status"`
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.CreateAppointment(c.Request.Context(), &appointment.CreateAppointmentCommand{
		UserID:           req.UserID,
		PatientID:        req.PatientID,
		PrimaryPhysician: req.PrimaryPhysician,
		Schedule:         req.Schedule,
		Reason:           req.Reason,
		Note:             req.Note,
		Status:           appointment.Status(req.Status),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	respondCreated(c, a)
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	a, err := h.svc.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if a == nil {
		respondError(c, http.StatusNotFound, "appointment not found")
		return
	}

	respondOK(c, a)
}

type updateAppointmentRequest struct {
	UserID             string    `json:"userId" binding:"required"`
	TimeZone           string    `json:"timeZone"`
	Type               string    `json:"type" binding:"required"`
	PrimaryPhysician   string    `json:"primaryPhysician" binding:"required"`
	Schedule           time.Time `json:"schedule" binding:"required"`
	Status             string    `json:"status" binding:"required"`
	CancellationReason string    `json:"cancellationReason"`
}

type updateAppointmentResponse struct {
	Appointment *appointment.Appointment `json:"appointment"`
	// Set when the update succeeded but the notification did not.
	NotificationWarning string `json:"notificationWarning,omitempty"`
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.UpdateAppointment(c.Request.Context(), &appointment.UpdateAppointmentCommand{
		AppointmentID:      c.Param("id"),
		UserID:             req.UserID,
		TimeZone:           req.TimeZone,
		Kind:               appointment.UpdateKind(req.Type),
		PrimaryPhysician:   req.PrimaryPhysician,
		Schedule:           req.Schedule,
		Status:             appointment.Status(req.Status),
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := updateAppointmentResponse{Appointment: result.Appointment}
	if result.NotificationErr != nil {
		resp.NotificationWarning = "appointment updated; notification could not be delivered"
	}

	c.Header("Cache-Control", "no-store")
	respondOK(c, resp)
}

func (h *AppointmentHandler) ListRecentAppointments(c *gin.Context) {
	summary, err := h.svc.ListRecentAppointments(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, summary)
}
