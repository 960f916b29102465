package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/domain/appointment"
	"github.com/salus-hms/salus-api/internal/domain/patient"
	"github.com/salus-hms/salus-api/internal/store"
	"github.com/salus-hms/salus-api/pkg/metrics"
)

type AppointmentService struct {
	rows           RowStore
	writer         *RecordWriter
	notifier       *SMSNotifier
	tableID        string
	patientTableID string
	metrics        *metrics.Collector
	log            *zap.Logger
}

func NewAppointmentService(
	rows RowStore,
	writer *RecordWriter,
	notifier *SMSNotifier,
	appointmentTableID string,
	patientTableID string,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		rows:           rows,
		writer:         writer,
		notifier:       notifier,
		tableID:        appointmentTableID,
		patientTableID: patientTableID,
		metrics:        collector,
		log:            log,
	}
}

// CreateAppointment books an appointment under a generated id. The create is
// schema-tolerant: compatibility attributes a given deployment does not
// define are stripped on retry rather than failing the booking.
func (s *AppointmentService) CreateAppointment(ctx context.Context, cmd *appointment.CreateAppointmentCommand) (*appointment.Appointment, error) {
	if cmd.Status == "" {
		cmd.Status = appointment.StatusPending
	}
	if err := validateCreateAppointment(cmd); err != nil {
		return nil, err
	}

	row, err := s.writer.CreateRecord(ctx, s.tableID, uuid.NewString(), cmd.Data())
	if err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	var a appointment.Appointment
	if err := row.Decode(&a); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	s.log.Info("appointment created",
		zap.String("appointment_id", a.ID),
		zap.String("status", string(a.Status)),
	)

	return &a, nil
}

// GetAppointment fetches an appointment by id. Absence is a nil result.
func (s *AppointmentService) GetAppointment(ctx context.Context, appointmentID string) (*appointment.Appointment, error) {
	row, err := s.rows.GetRow(ctx, s.tableID, appointmentID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching appointment: %w", err)
	}

	var a appointment.Appointment
	if err := row.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateResult carries the updated appointment plus the outcome of the
// best-effort notification. NotificationErr never indicates a failed update.
type UpdateResult struct {
	Appointment     *appointment.Appointment
	NotificationErr error
}

// UpdateAppointment applies a scheduling or cancellation transition, then
// dispatches the notification. The update's success is determined solely by
// the store response; a notification failure is captured on the result as a
// warning.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, cmd *appointment.UpdateAppointmentCommand) (*UpdateResult, error) {
	if err := validateUpdateAppointment(cmd); err != nil {
		return nil, err
	}

	row, err := s.rows.UpdateRow(ctx, s.tableID, cmd.AppointmentID, cmd.Data())
	if err != nil {
		s.log.Error("failed to update appointment",
			zap.String("appointment_id", cmd.AppointmentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("updating appointment: %w", err)
	}

	var a appointment.Appointment
	if err := row.Decode(&a); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}

	result := &UpdateResult{Appointment: &a}

	content := ComposeAppointmentMessage(cmd.Kind, cmd.PrimaryPhysician, cmd.Schedule, cmd.TimeZone, cmd.CancellationReason)
	if nerr := s.notifier.Notify(ctx, cmd.UserID, content); nerr != nil {
		s.log.Warn("appointment updated but notification failed",
			zap.String("appointment_id", a.ID),
			zap.String("user_id", cmd.UserID),
			zap.Error(nerr),
		)
		result.NotificationErr = nerr
	}

	return result, nil
}

// ListRecentAppointments lists every appointment newest-first, joins each
// onto its patient record, and buckets counts by status.
func (s *AppointmentService) ListRecentAppointments(ctx context.Context) (*appointment.RecentAppointments, error) {
	list, err := s.rows.ListRows(ctx, s.tableID, store.OrderDesc("$createdAt"))
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	items := make([]*appointment.Appointment, 0, len(list.Rows))
	for _, row := range list.Rows {
		var a appointment.Appointment
		if err := row.Decode(&a); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}

	patientByID, err := s.fetchReferencedPatients(ctx, items)
	if err != nil {
		return nil, err
	}

	summary := &appointment.RecentAppointments{
		Total: len(items),
		Items: items,
	}

	for _, a := range items {
		// Counts come from the listing itself; a status outside the three
		// known values is silently not counted.
		switch a.Status {
		case appointment.StatusScheduled:
			summary.ScheduledCount++
		case appointment.StatusPending:
			summary.PendingCount++
		case appointment.StatusCancelled:
			summary.CancelledCount++
		}

		if id, ok := a.Patient.RefID(); ok {
			if p, found := patientByID[id]; found {
				a.Patient = appointment.PatientRef{ID: p.ID, Patient: p}
			}
		}
		// Unresolvable or unknown references keep their original form; the
		// appointment stays in the listing either way.
	}

	return summary, nil
}

// fetchReferencedPatients batch-fetches the distinct patients referenced by
// the listing in a single equals-any-of query. Each id is requested once no
// matter how many appointments reference it.
func (s *AppointmentService) fetchReferencedPatients(ctx context.Context, items []*appointment.Appointment) (map[string]*patient.Patient, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(items))
	for _, a := range items {
		id, ok := a.Patient.RefID()
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	patientByID := make(map[string]*patient.Patient, len(ids))
	if len(ids) == 0 {
		return patientByID, nil
	}

	list, err := s.rows.ListRows(ctx, s.patientTableID, store.Equal("$id", ids...))
	if err != nil {
		return nil, fmt.Errorf("fetching referenced patients: %w", err)
	}

	for _, row := range list.Rows {
		var p patient.Patient
		if err := row.Decode(&p); err != nil {
			return nil, err
		}
		patientByID[p.ID] = &p
	}
	return patientByID, nil
}

func validateCreateAppointment(cmd *appointment.CreateAppointmentCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.UserID) == "" {
		errs = append(errs, appointment.ErrUserIDRequired.Error())
	}
	if strings.TrimSpace(cmd.PatientID) == "" {
		errs = append(errs, appointment.ErrPatientRequired.Error())
	}
	if strings.TrimSpace(cmd.PrimaryPhysician) == "" {
		errs = append(errs, appointment.ErrPhysicianRequired.Error())
	}
	if cmd.Schedule.IsZero() {
		errs = append(errs, appointment.ErrScheduleRequired.Error())
	}
	if !cmd.Status.IsValid() {
		errs = append(errs, appointment.ErrInvalidStatus.Error())
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateUpdateAppointment(cmd *appointment.UpdateAppointmentCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.AppointmentID) == "" {
		errs = append(errs, "appointment id is required")
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		errs = append(errs, appointment.ErrUserIDRequired.Error())
	}
	if !cmd.Kind.IsValid() {
		errs = append(errs, appointment.ErrInvalidUpdateKind.Error())
	}
	if !cmd.Status.IsValid() {
		errs = append(errs, appointment.ErrInvalidStatus.Error())
	}
	if cmd.Schedule.IsZero() {
		errs = append(errs, appointment.ErrScheduleRequired.Error())
	}
	if cmd.Kind == appointment.UpdateKindCancel && strings.TrimSpace(cmd.CancellationReason) == "" {
		errs = append(errs, appointment.ErrReasonRequired.Error())
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
