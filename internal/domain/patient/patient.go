package patient

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Normalize lower-cases a submitted gender value. Collection enums are
// configured lower-case; the UI is not forced to match.
func Normalize(g Gender) Gender {
	return Gender(strings.ToLower(string(g)))
}

// LegacyUserAttribute is the attribute that carries the owning user id in the
// legacy key scheme, where documents were created under random row ids. The
// canonical scheme keys the document by the user id directly and may not
// define this attribute at all.
const LegacyUserAttribute = "userID"

// Patient is a patient document as stored. Exactly one exists per user id,
// reachable either by primary key (canonical scheme) or via
// LegacyUserAttribute (legacy scheme).
type Patient struct {
	ID        string    `json:"$id"`
	CreatedAt time.Time `json:"$createdAt"`
	UpdatedAt time.Time `json:"$updatedAt"`

	UserID string `json:"userID"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`

	BirthDate  time.Time `json:"birthDate"`
	Gender     Gender    `json:"gender"`
	Address    string    `json:"address"`
	Occupation string    `json:"occupation"`

	EmergencyContactName   string `json:"emergencyContactName"`
	EmergencyContactNumber string `json:"emergencyContactNumber"`

	PrimaryPhysician      string `json:"primaryPhysician"`
	InsuranceProvider     string `json:"insuranceProvider"`
	InsurancePolicyNumber string `json:"insurancePolicyNumber"`

	Allergies            string `json:"allergies"`
	CurrentMedication    string `json:"currentMedication"`
	FamilyMedicalHistory string `json:"familyMedicalHistory"`
	PastMedicalHistory   string `json:"pastMedicalHistory"`

	IdentificationType       string `json:"identificationType"`
	IdentificationNumber     string `json:"identificationNumber"`
	IdentificationDocumentID string `json:"identificationDocumentId"`
	// Holds the short file id as stored; rewritten to a full view URL on read.
	IdentificationDocumentURL string `json:"identificationDocumentUrl"`

	PrivacyConsent bool `json:"privacyConsent"`
}

// IdentificationUpload is a raw identification document supplied at
// registration.
type IdentificationUpload struct {
	FileName string
	Content  []byte
}

type RegisterPatientCommand struct {
	UserID string
	Name   string
	Email  string
	Phone  string

	BirthDate  time.Time
	Gender     Gender
	Address    string
	Occupation string

	EmergencyContactName   string
	EmergencyContactNumber string

	PrimaryPhysician      string
	InsuranceProvider     string
	InsurancePolicyNumber string

	Allergies            string
	CurrentMedication    string
	FamilyMedicalHistory string
	PastMedicalHistory   string

	IdentificationType     string
	IdentificationNumber   string
	IdentificationDocument *IdentificationUpload

	PrivacyConsent bool
}

// Data builds the attribute payload for the create call. The identification
// document attributes are set by the caller after upload, never here, so a
// registration without a document produces a record without them.
func (c *RegisterPatientCommand) Data() map[string]any {
	return map[string]any{
		LegacyUserAttribute:      c.UserID,
		"name":                   strings.TrimSpace(c.Name),
		"email":                  strings.ToLower(strings.TrimSpace(c.Email)),
		"phone":                  strings.TrimSpace(c.Phone),
		"birthDate":              c.BirthDate.Format(time.RFC3339),
		"gender":                 string(Normalize(c.Gender)),
		"address":                c.Address,
		"occupation":             c.Occupation,
		"emergencyContactName":   c.EmergencyContactName,
		"emergencyContactNumber": c.EmergencyContactNumber,
		"primaryPhysician":       c.PrimaryPhysician,
		"insuranceProvider":      c.InsuranceProvider,
		"insurancePolicyNumber":  c.InsurancePolicyNumber,
		"allergies":              c.Allergies,
		"currentMedication":      c.CurrentMedication,
		"familyMedicalHistory":   c.FamilyMedicalHistory,
		"pastMedicalHistory":     c.PastMedicalHistory,
		"identificationType":     c.IdentificationType,
		"identificationNumber":   c.IdentificationNumber,
		"privacyConsent":         c.PrivacyConsent,
	}
}

type CreateUserCommand struct {
	Name  string
	Email string
	Phone string
}
