package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/domain/patient"
	"github.com/salus-hms/salus-api/internal/store"
	"github.com/salus-hms/salus-api/pkg/metrics"
)

// UserDirectory is the slice of the identity service the patient flow uses.
type UserDirectory interface {
	CreateUser(ctx context.Context, userID, email, phone, name string) (store.User, error)
	GetUser(ctx context.Context, userID string) (store.User, error)
	ListUsers(ctx context.Context, queries ...store.Query) (store.UserList, error)
}

// FileStore is the slice of the blob store the patient flow uses.
type FileStore interface {
	CreateFile(ctx context.Context, fileID, filename string, content []byte) (store.File, error)
	FileViewURL(fileID string) string
}

type PatientService struct {
	rows    RowStore
	writer  *RecordWriter
	users   UserDirectory
	files   FileStore
	tableID string
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewPatientService(
	rows RowStore,
	writer *RecordWriter,
	users UserDirectory,
	files FileStore,
	patientTableID string,
	collector *metrics.Collector,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		rows:    rows,
		writer:  writer,
		users:   users,
		files:   files,
		tableID: patientTableID,
		metrics: collector,
		log:     log,
	}
}

// CreateUser creates an identity-service account. A duplicate email is not an
// error: the existing account is re-fetched and returned.
func (s *PatientService) CreateUser(ctx context.Context, cmd *patient.CreateUserCommand) (store.User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" {
		return store.User{}, &ValidationError{Fields: []string{patient.ErrEmailRequired.Error()}}
	}

	u, err := s.users.CreateUser(ctx, uuid.NewString(), email, cmd.Phone, cmd.Name)
	if err == nil {
		return u, nil
	}

	if store.IsConflict(err) {
		list, lerr := s.users.ListUsers(ctx, store.Equal("email", email))
		if lerr != nil {
			return store.User{}, fmt.Errorf("fetching existing user: %w", lerr)
		}
		if len(list.Users) > 0 {
			return list.Users[0], nil
		}
	}

	s.log.Error("failed to create user", zap.Error(err))
	return store.User{}, fmt.Errorf("creating user: %w", err)
}

// GetUser fetches an identity-service account. Absent accounts yield nil.
func (s *PatientService) GetUser(ctx context.Context, userID string) (*store.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

// RegisterPatient uploads the identification document (if any) and creates
// the patient record keyed by the owning user id. The document attributes
// store only the short file id; collections constrain attribute length, so
// the full view URL is derived on read.
func (s *PatientService) RegisterPatient(ctx context.Context, cmd *patient.RegisterPatientCommand) (*patient.Patient, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	data := cmd.Data()

	if cmd.IdentificationDocument != nil {
		file, err := s.files.CreateFile(ctx, uuid.NewString(), cmd.IdentificationDocument.FileName, cmd.IdentificationDocument.Content)
		if err != nil {
			s.log.Error("failed to upload identification document", zap.Error(err))
			return nil, fmt.Errorf("uploading identification document: %w", err)
		}
		data["identificationDocumentId"] = file.ID
		data["identificationDocumentUrl"] = file.ID
	}

	row, err := s.writer.CreateRecord(ctx, s.tableID, cmd.UserID, data)
	if err != nil {
		s.log.Error("failed to create patient record", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	var p patient.Patient
	if err := row.Decode(&p); err != nil {
		return nil, err
	}
	s.resolveDocumentURL(&p)

	if s.metrics != nil {
		s.metrics.PatientsRegisteredTotal.Inc()
	}
	s.log.Info("patient registered",
		zap.String("patient_id", p.ID),
		zap.String("user_id", cmd.UserID),
	)

	return &p, nil
}

// GetPatientByUser resolves a patient across both key schemes: direct fetch
// by primary key first, then a query on the legacy user attribute. A schema
// without the legacy attribute means the legacy scheme was never deployed
// there, so that failure reads as "no such patient". Absence is a nil result,
// not an error.
func (s *PatientService) GetPatientByUser(ctx context.Context, userID string) (*patient.Patient, error) {
	row, err := s.rows.GetRow(ctx, s.tableID, userID)
	if err == nil {
		var p patient.Patient
		if derr := row.Decode(&p); derr != nil {
			return nil, derr
		}
		s.resolveDocumentURL(&p)
		return &p, nil
	}
	if !store.IsNotFound(err) {
		return nil, fmt.Errorf("fetching patient: %w", err)
	}

	list, err := s.rows.ListRows(ctx, s.tableID, store.Equal(patient.LegacyUserAttribute, userID))
	if err != nil {
		if store.IsMissingAttribute(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying patient by legacy attribute: %w", err)
	}
	if len(list.Rows) == 0 {
		return nil, nil
	}

	var p patient.Patient
	if err := list.Rows[0].Decode(&p); err != nil {
		return nil, err
	}
	s.resolveDocumentURL(&p)
	return &p, nil
}

func (s *PatientService) resolveDocumentURL(p *patient.Patient) {
	if p.IdentificationDocumentID != "" {
		p.IdentificationDocumentURL = s.files.FileViewURL(p.IdentificationDocumentID)
	}
}

func validateRegisterCommand(cmd *patient.RegisterPatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.UserID) == "" {
		errs = append(errs, patient.ErrUserIDRequired.Error())
	}
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, patient.ErrNameRequired.Error())
	}
	if strings.TrimSpace(cmd.Email) == "" {
		errs = append(errs, patient.ErrEmailRequired.Error())
	}
	if !patient.Normalize(cmd.Gender).IsValid() {
		errs = append(errs, patient.ErrInvalidGender.Error())
	}
	if !cmd.PrivacyConsent {
		errs = append(errs, patient.ErrConsentRequired.Error())
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
