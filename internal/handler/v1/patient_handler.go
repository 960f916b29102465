package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salus-hms/salus-api/internal/domain/patient"
	"github.com/salus-hms/salus-api/internal/service"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

func (h *PatientHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.CreateUser(c.Request.Context(), &patient.CreateUserCommand{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, u)
}

func (h *PatientHandler) GetUser(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if u == nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	respondOK(c, u)
}

type identificationDocumentRequest struct {
	FileName string `json:"fileName" binding:"required"`
	// Base64-encoded file content.
	Content []byte `json:"content" binding:"required"`
}

type registerPatientRequest struct {
	UserID string    `json:"userId" binding:"required"`
	Name   string    `json:"name" binding:"required"`
	Email  string    `json:"email" binding:"required,email"`
	Phone  string    `json:"phone"`
	Birth  time.Time `json:"birthDate"`
	Gender string    `json:"gender" binding:"required"`

	Address    string `json:"address"`
	Occupation string `json:"occupation"`

	EmergencyContactName   string `json:"emergencyContactName"`
	EmergencyContactNumber string `json:"emergencyContactNumber"`

	PrimaryPhysician      string `json:"primaryPhysician"`
	InsuranceProvider     string `json:"insuranceProvider"`
	InsurancePolicyNumber string `json:"insurancePolicyNumber"`

	Allergies            string `json:"allergies"`
	CurrentMedication    string `json:"currentMedication"`
	FamilyMedicalHistory string `json:"familyMedicalHistory"`
	PastMedicalHistory   string `json:"pastMedicalHistory"`

	IdentificationType     string                         `json:"identificationType"`
	IdentificationNumber   string                         `json:"identificationNumber"`
	IdentificationDocument *identificationDocumentRequest `json:"identificationDocument"`

	PrivacyConsent bool `json:"privacyConsent"`
}

func (h *PatientHandler) RegisterPatient(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.RegisterPatientCommand{
		UserID:                 req.UserID,
		Name:                   req.Name,
		Email:                  req.Email,
		Phone:                  req.Phone,
		BirthDate:              req.Birth,
		Gender:                 patient.Gender(req.Gender),
		Address:                req.Address,
		Occupation:             req.Occupation,
		EmergencyContactName:   req.EmergencyContactName,
		EmergencyContactNumber: req.EmergencyContactNumber,
		PrimaryPhysician:       req.PrimaryPhysician,
		InsuranceProvider:      req.InsuranceProvider,
		InsurancePolicyNumber:  req.InsurancePolicyNumber,
		Allergies:              req.Allergies,
		CurrentMedication:      req.CurrentMedication,
		FamilyMedicalHistory:   req.FamilyMedicalHistory,
		PastMedicalHistory:     req.PastMedicalHistory,
		IdentificationType:     req.IdentificationType,
		IdentificationNumber:   req.IdentificationNumber,
		PrivacyConsent:         req.PrivacyConsent,
	}
	if req.IdentificationDocument != nil {
		cmd.IdentificationDocument = &patient.IdentificationUpload{
			FileName: req.IdentificationDocument.FileName,
			Content:  req.IdentificationDocument.Content,
		}
	}

	p, err := h.svc.RegisterPatient(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Listing views derived from this collection must be recomputed.
	c.Header("Cache-Control", "no-store")
	respondCreated(c, p)
}

func (h *PatientHandler) GetPatientByUser(c *gin.Context) {
	p, err := h.svc.GetPatientByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if p == nil {
		respondError(c, http.StatusNotFound, "patient not found")
		return
	}

	respondOK(c, p)
}
