package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/domain/appointment"
	"github.com/salus-hms/salus-api/internal/store"
)

type fakeSMSGateway struct {
	sent []string
	err  error
}

func (f *fakeSMSGateway) CreateSMS(_ context.Context, messageID, content string, userIDs []string) (store.Message, error) {
	if f.err != nil {
		return store.Message{}, f.err
	}
	f.sent = append(f.sent, content)
	return store.Message{ID: messageID, Status: "processing"}, nil
}

func newAppointmentService(rows *fakeRowStore, gateway *fakeSMSGateway) *AppointmentService {
	log := zap.NewNop()
	return NewAppointmentService(
		rows,
		NewRecordWriter(rows, nil, log),
		NewSMSNotifier(gateway, nil, log),
		"appointments",
		"patients",
		nil,
		log,
	)
}

func validCreateAppointment() *appointment.CreateAppointmentCommand {
	return &appointment.CreateAppointmentCommand{
		UserID:           "u1",
		PatientID:        "p1",
		PrimaryPhysician: "Livingston",
		Schedule:         time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Reason:           "annual checkup",
	}
}

func TestCreateAppointment_DefaultsToPendingAndMirrorsPatientID(t *testing.T) {
	rows := &fakeRowStore{
		createFn: func(_ int, _, rowID string, _ map[string]any) (store.Row, error) {
			return mkRow(rowID, `{"$id":"`+rowID+`","status":"pending","patient":"p1"}`), nil
		},
	}
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	a, err := svc.CreateAppointment(context.Background(), validCreateAppointment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != appointment.StatusPending {
		t.Errorf("expected default pending status, got %s", a.Status)
	}

	data := rows.createCalls[0].data
	if data["patient"] != "p1" || data["patientId"] != "p1" {
		t.Errorf("expected patient id mirrored into both attributes, got %v", data)
	}
	if data["status"] != "pending" {
		t.Errorf("expected pending in payload, got %v", data["status"])
	}
}

func TestCreateAppointment_SurvivesUnknownCompatibilityAttribute(t *testing.T) {
	rows := &fakeRowStore{
		createFn: func(call int, _, rowID string, data map[string]any) (store.Row, error) {
			if call == 1 {
				return store.Row{}, unknownAttrErr("patientId")
			}
			if _, present := data["patientId"]; present {
				t.Error("retry payload still carries patientId")
			}
			return mkRow(rowID, `{"$id":"`+rowID+`","status":"pending","patient":"p1"}`), nil
		},
	}
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	a, err := svc.CreateAppointment(context.Background(), validCreateAppointment())
	if err != nil {
		t.Fatalf("booking must survive a schema without the mirror attribute: %v", err)
	}
	if ref, ok := a.Patient.RefID(); !ok || ref != "p1" {
		t.Errorf("expected patient reference p1, got %q", ref)
	}
}

func TestGetAppointment_NotFoundIsNil(t *testing.T) {
	rows := &fakeRowStore{
		getFn: func(_, _ string) (store.Row, error) {
			return store.Row{}, notFoundErr()
		},
	}
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	a, err := svc.GetAppointment(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Fatalf("expected nil appointment, got %+v", a)
	}
}

func validUpdateCommand(kind appointment.UpdateKind) *appointment.UpdateAppointmentCommand {
	cmd := &appointment.UpdateAppointmentCommand{
		AppointmentID:    "a1",
		UserID:           "u1",
		Kind:             kind,
		PrimaryPhysician: "Livingston",
		Schedule:         time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Status:           appointment.StatusScheduled,
	}
	if kind == appointment.UpdateKindCancel {
		cmd.Status = appointment.StatusCancelled
		cmd.CancellationReason = "patient request"
	}
	return cmd
}

func TestUpdateAppointment_SendsNotification(t *testing.T) {
	rows := &fakeRowStore{
		updateFn: func(_, rowID string, _ map[string]any) (store.Row, error) {
			return mkRow(rowID, `{"$id":"a1","status":"scheduled"}`), nil
		},
	}
	gateway := &fakeSMSGateway{}
	svc := newAppointmentService(rows, gateway)

	res, err := svc.UpdateAppointment(context.Background(), validUpdateCommand(appointment.UpdateKindSchedule))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NotificationErr != nil {
		t.Errorf("unexpected notification error: %v", res.NotificationErr)
	}
	if len(gateway.sent) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(gateway.sent))
	}
	if !strings.Contains(gateway.sent[0], "confirmed") || !strings.Contains(gateway.sent[0], "Dr. Livingston") {
		t.Errorf("unexpected message: %s", gateway.sent[0])
	}
}

func TestUpdateAppointment_NotificationFailureIsNotAnUpdateFailure(t *testing.T) {
	rows := &fakeRowStore{
		updateFn: func(_, rowID string, _ map[string]any) (store.Row, error) {
			return mkRow(rowID, `{"$id":"a1","status":"cancelled"}`), nil
		},
	}
	gateway := &fakeSMSGateway{err: errors.New("provider down")}
	svc := newAppointmentService(rows, gateway)

	res, err := svc.UpdateAppointment(context.Background(), validUpdateCommand(appointment.UpdateKindCancel))
	if err != nil {
		t.Fatalf("the update succeeded, so the call must succeed: %v", err)
	}
	if res.Appointment == nil || res.Appointment.Status != appointment.StatusCancelled {
		t.Fatalf("expected the updated appointment, got %+v", res.Appointment)
	}
	if res.NotificationErr == nil {
		t.Error("expected the delivery failure surfaced as a warning")
	}
}

func TestUpdateAppointment_StoreFailurePropagates(t *testing.T) {
	rows := &fakeRowStore{
		updateFn: func(_, _ string, _ map[string]any) (store.Row, error) {
			return store.Row{}, notFoundErr()
		},
	}
	gateway := &fakeSMSGateway{}
	svc := newAppointmentService(rows, gateway)

	_, err := svc.UpdateAppointment(context.Background(), validUpdateCommand(appointment.UpdateKindSchedule))
	if !store.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if len(gateway.sent) != 0 {
		t.Error("no notification may be sent for a failed update")
	}
}

const recentListing = `{
	"total": 4,
	"rows": [
		{"$id": "a1", "$createdAt": "2026-03-04T10:00:00Z", "status": "scheduled", "patient": "p1"},
		{"$id": "a2", "$createdAt": "2026-03-03T10:00:00Z", "status": "pending", "patient": {"$id": "p1", "name": "Jane"}},
		{"$id": "a3", "$createdAt": "2026-03-02T10:00:00Z", "status": "cancelled", "patient": "p2"},
		{"$id": "a4", "$createdAt": "2026-03-01T10:00:00Z", "status": "no-show", "patient": null}
	]
}`

func recentRows(t *testing.T) *fakeRowStore {
	t.Helper()
	return &fakeRowStore{
		listFn: func(_ int, tableID string, queries []store.Query) (store.RowList, error) {
			switch tableID {
			case "appointments":
				if len(queries) != 1 || queries[0].Method != "orderDesc" {
					t.Errorf("expected a single orderDesc query, got %+v", queries)
				}
				return store.RowList{Total: 4, Rows: []store.Row{
					mkRow("a1", `{"$id":"a1","status":"scheduled","patient":"p1"}`),
					mkRow("a2", `{"$id":"a2","status":"pending","patient":{"$id":"p1","name":"Jane"}}`),
					mkRow("a3", `{"$id":"a3","status":"cancelled","patient":"p2"}`),
					mkRow("a4", `{"$id":"a4","status":"no-show","patient":null}`),
				}}, nil
			case "patients":
				return store.RowList{Total: 2, Rows: []store.Row{
					mkRow("p1", `{"$id":"p1","name":"Jane"}`),
					mkRow("p2", `{"$id":"p2","name":"John"}`),
				}}, nil
			default:
				t.Fatalf("unexpected table %s", tableID)
				return store.RowList{}, nil
			}
		},
	}
}

func TestListRecentAppointments_HydratesAndCounts(t *testing.T) {
	rows := recentRows(t)
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	got, err := svc.ListRecentAppointments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Total != 4 {
		t.Errorf("total must equal the number of listed appointments, got %d", got.Total)
	}
	if got.ScheduledCount != 1 || got.PendingCount != 1 || got.CancelledCount != 1 {
		t.Errorf("unexpected counts: %+v", got)
	}
	// a4 carries a status outside the lifecycle and stays uncounted.
	if sum := got.ScheduledCount + got.PendingCount + got.CancelledCount; sum > got.Total {
		t.Errorf("count sum %d exceeds total %d", sum, got.Total)
	}

	// Both representations of p1 resolve to the same hydrated document.
	for _, id := range []int{0, 1} {
		a := got.Items[id]
		if !a.Patient.Expanded() || a.Patient.Patient.Name != "Jane" {
			t.Errorf("appointment %s not hydrated: %+v", a.ID, a.Patient)
		}
	}
	if !got.Items[2].Patient.Expanded() || got.Items[2].Patient.Patient.Name != "John" {
		t.Errorf("appointment a3 not hydrated: %+v", got.Items[2].Patient)
	}

	// The unresolvable reference keeps its place in the listing.
	if got.Items[3].ID != "a4" {
		t.Errorf("expected a4 retained, got %s", got.Items[3].ID)
	}
	if _, ok := got.Items[3].Patient.RefID(); ok {
		t.Error("expected a4's reference to stay unresolvable")
	}
}

func TestListRecentAppointments_DeduplicatesBatchFetch(t *testing.T) {
	rows := recentRows(t)
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	if _, err := svc.ListRecentAppointments(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows.listCalls) != 2 {
		t.Fatalf("expected one listing call and one batch patient fetch, got %d", len(rows.listCalls))
	}
	batch := rows.listCalls[1]
	if batch.tableID != "patients" {
		t.Fatalf("expected patient batch fetch, got %s", batch.tableID)
	}
	if len(batch.queries) != 1 || batch.queries[0].Attribute != "$id" {
		t.Fatalf("expected a single $id query, got %+v", batch.queries)
	}
	values := batch.queries[0].Values
	if len(values) != 2 {
		t.Errorf("each referenced patient must appear once, got %v", values)
	}
}

func TestListRecentAppointments_NoReferencesSkipsBatchFetch(t *testing.T) {
	rows := &fakeRowStore{
		listFn: func(_ int, _ string, _ []store.Query) (store.RowList, error) {
			return store.RowList{Total: 1, Rows: []store.Row{
				mkRow("a1", `{"$id":"a1","status":"pending","patient":null}`),
			}}, nil
		},
	}
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	got, err := svc.ListRecentAppointments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 1 || got.PendingCount != 1 {
		t.Errorf("unexpected summary: %+v", got)
	}
	if len(rows.listCalls) != 1 {
		t.Errorf("no referenced patients means no batch fetch, got %d calls", len(rows.listCalls))
	}
}

func TestListRecentAppointments_Repeatable(t *testing.T) {
	rows := recentRows(t)
	svc := newAppointmentService(rows, &fakeSMSGateway{})

	first, err := svc.ListRecentAppointments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ListRecentAppointments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Total != second.Total ||
		first.ScheduledCount != second.ScheduledCount ||
		first.PendingCount != second.PendingCount ||
		first.CancelledCount != second.CancelledCount {
		t.Errorf("two reads over the same data disagree: %+v vs %+v", first, second)
	}
}

func TestComposeAppointmentMessage(t *testing.T) {
	schedule := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	got := ComposeAppointmentMessage(appointment.UpdateKindSchedule, "Livingston", schedule, "UTC", "")
	if !strings.Contains(got, "Mar 14, 2026 - 3:00 PM") || !strings.Contains(got, "Dr. Livingston") {
		t.Errorf("unexpected schedule message: %s", got)
	}

	got = ComposeAppointmentMessage(appointment.UpdateKindCancel, "Livingston", schedule, "UTC", "patient request")
	if !strings.Contains(got, "cancelled") || !strings.Contains(got, "patient request") {
		t.Errorf("unexpected cancellation message: %s", got)
	}

	// An unparseable zone falls back to UTC rather than failing the send.
	got = ComposeAppointmentMessage(appointment.UpdateKindSchedule, "Livingston", schedule, "Not/AZone", "")
	if !strings.Contains(got, "Mar 14, 2026 - 3:00 PM") {
		t.Errorf("expected UTC fallback, got: %s", got)
	}
}

func TestValidateUpdateAppointment_CancelNeedsReason(t *testing.T) {
	svc := newAppointmentService(&fakeRowStore{}, &fakeSMSGateway{})

	cmd := validUpdateCommand(appointment.UpdateKindCancel)
	cmd.CancellationReason = ""

	_, err := svc.UpdateAppointment(context.Background(), cmd)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
