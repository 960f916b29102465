package appointment

import (
	"encoding/json"
	"time"

	"github.com/salus-hms/salus-api/internal/domain/patient"
)

// Status is the appointment lifecycle state. This system never assigns any
// value outside these three.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// PatientRef is the appointment's patient reference, which arrives from the
// store in mixed representations: a bare id string, or an expanded patient
// document. Zero value means unresolvable.
type PatientRef struct {
	ID      string
	Patient *patient.Patient
}

// RefID extracts the referenced patient id regardless of representation.
func (r PatientRef) RefID() (string, bool) {
	if r.Patient != nil && r.Patient.ID != "" {
		return r.Patient.ID, true
	}
	if r.ID != "" {
		return r.ID, true
	}
	return "", false
}

// Expanded reports whether the reference carries the full patient document.
func (r PatientRef) Expanded() bool {
	return r.Patient != nil
}

func (r *PatientRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = PatientRef{ID: id}
		return nil
	}

	var p patient.Patient
	if err := json.Unmarshal(data, &p); err == nil && p.ID != "" {
		*r = PatientRef{ID: p.ID, Patient: &p}
		return nil
	}

	// Anything else (null, malformed object) is an unresolvable reference,
	// never a decode failure: the appointment still lists.
	*r = PatientRef{}
	return nil
}

func (r PatientRef) MarshalJSON() ([]byte, error) {
	if r.Patient != nil {
		return json.Marshal(r.Patient)
	}
	if r.ID != "" {
		return json.Marshal(r.ID)
	}
	return []byte("null"), nil
}

// Appointment is an appointment document as stored.
type Appointment struct {
	ID        string    `json:"$id"`
	CreatedAt time.Time `json:"$createdAt"`
	UpdatedAt time.Time `json:"$updatedAt"`

	UserID  string     `json:"userId"`
	Patient PatientRef `json:"patient"`

	Schedule         time.Time `json:"schedule"`
	Status           Status    `json:"status"`
	PrimaryPhysician string    `json:"primaryPhysician"`
	Reason           string    `json:"reason"`
	Note             string    `json:"note"`

	CancellationReason string `json:"cancellationReason,omitempty"`
}

type CreateAppointmentCommand struct {
	UserID           string
	PatientID        string
	PrimaryPhysician string
	Schedule         time.Time
	Reason           string
	Note             string
	Status           Status
}

// Data builds the attribute payload for the create call. The patient id is
// mirrored into a separate patientId attribute for schemas that require it;
// schemas without it reject the attribute and the write adapter strips it.
func (c *CreateAppointmentCommand) Data() map[string]any {
	data := map[string]any{
		"userId":           c.UserID,
		"patient":          c.PatientID,
		"patientId":        c.PatientID,
		"schedule":         c.Schedule.Format(time.RFC3339),
		"status":           string(c.Status),
		"primaryPhysician": c.PrimaryPhysician,
		"reason":           c.Reason,
		"note":             c.Note,
	}
	return data
}

// UpdateKind selects the notification template for a state transition.
type UpdateKind string

const (
	UpdateKindSchedule UpdateKind = "schedule"
	UpdateKindCancel   UpdateKind = "cancel"
)

func (k UpdateKind) IsValid() bool {
	return k == UpdateKindSchedule || k == UpdateKindCancel
}

type UpdateAppointmentCommand struct {
	AppointmentID string
	UserID        string
	// TimeZone is the caller's IANA zone, used only to format the
	// notification text.
	TimeZone string
	Kind     UpdateKind

	PrimaryPhysician   string
	Schedule           time.Time
	Status             Status
	CancellationReason string
}

func (c *UpdateAppointmentCommand) Data() map[string]any {
	data := map[string]any{
		"primaryPhysician": c.PrimaryPhysician,
		"schedule":         c.Schedule.Format(time.RFC3339),
		"status":           string(c.Status),
	}
	if c.CancellationReason != "" {
		data["cancellationReason"] = c.CancellationReason
	}
	return data
}

// RecentAppointments is the derived listing aggregate: hydrated items in
// descending creation order plus status-bucketed counts. Computed fresh on
// every read, never persisted.
type RecentAppointments struct {
	Total          int            `json:"totalCount"`
	ScheduledCount int            `json:"scheduledCount"`
	PendingCount   int            `json:"pendingCount"`
	CancelledCount int            `json:"cancelledCount"`
	Items          []*Appointment `json:"documents"`
}
