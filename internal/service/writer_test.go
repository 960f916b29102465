package service

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/store"
)

type createCall struct {
	tableID string
	rowID   string
	data    map[string]any
}

type listCall struct {
	tableID string
	queries []store.Query
}

// fakeRowStore records every call and delegates behavior to the configured
// functions.
type fakeRowStore struct {
	createCalls []createCall
	listCalls   []listCall

	createFn func(call int, tableID, rowID string, data map[string]any) (store.Row, error)
	getFn    func(tableID, rowID string) (store.Row, error)
	updateFn func(tableID, rowID string, data map[string]any) (store.Row, error)
	listFn   func(call int, tableID string, queries []store.Query) (store.RowList, error)
}

func (f *fakeRowStore) CreateRow(_ context.Context, tableID, rowID string, data map[string]any) (store.Row, error) {
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	f.createCalls = append(f.createCalls, createCall{tableID: tableID, rowID: rowID, data: copied})
	return f.createFn(len(f.createCalls), tableID, rowID, data)
}

func (f *fakeRowStore) GetRow(_ context.Context, tableID, rowID string) (store.Row, error) {
	return f.getFn(tableID, rowID)
}

func (f *fakeRowStore) UpdateRow(_ context.Context, tableID, rowID string, data map[string]any) (store.Row, error) {
	return f.updateFn(tableID, rowID, data)
}

func (f *fakeRowStore) ListRows(_ context.Context, tableID string, queries ...store.Query) (store.RowList, error) {
	f.listCalls = append(f.listCalls, listCall{tableID: tableID, queries: queries})
	return f.listFn(len(f.listCalls), tableID, queries)
}

func mkRow(id, body string) store.Row {
	return store.Row{ID: id, Data: json.RawMessage(body)}
}

func unknownAttrErr(attr string) error {
	return &store.Error{Kind: store.KindUnknownAttribute, Code: 400, Attribute: attr,
		Message: `Invalid document structure: Unknown attribute: "` + attr + `"`}
}

func TestCreateRecord_Success(t *testing.T) {
	rows := &fakeRowStore{
		createFn: func(_ int, _, rowID string, _ map[string]any) (store.Row, error) {
			return mkRow(rowID, `{"$id":"r1"}`), nil
		},
	}
	w := NewRecordWriter(rows, nil, zap.NewNop())

	_, err := w.CreateRecord(context.Background(), "patients", "r1", map[string]any{"name": "Jane"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows.createCalls) != 1 {
		t.Errorf("expected 1 create call, got %d", len(rows.createCalls))
	}
}

func TestCreateRecord_StripsRejectedAttributeOnce(t *testing.T) {
	rows := &fakeRowStore{
		createFn: func(call int, _, rowID string, data map[string]any) (store.Row, error) {
			if call == 1 {
				return store.Row{}, unknownAttrErr("patientId")
			}
			return mkRow(rowID, `{"$id":"a1","patient":"p1"}`), nil
		},
	}
	w := NewRecordWriter(rows, nil, zap.NewNop())

	data := map[string]any{"patient": "p1", "patientId": "p1", "status": "pending"}
	row, err := w.CreateRecord(context.Background(), "appointments", "a1", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "a1" {
		t.Errorf("unexpected row id %s", row.ID)
	}

	if len(rows.createCalls) != 2 {
		t.Fatalf("expected 2 create calls, got %d", len(rows.createCalls))
	}
	retry := rows.createCalls[1].data
	if _, present := retry["patientId"]; present {
		t.Error("retry payload still contains the rejected attribute")
	}
	if retry["patient"] != "p1" || retry["status"] != "pending" {
		t.Errorf("retry payload lost unrelated attributes: %v", retry)
	}

	// The caller's map is untouched.
	if _, present := data["patientId"]; !present {
		t.Error("original payload was mutated")
	}
}

func TestCreateRecord_SecondUnknownAttributeFails(t *testing.T) {
	rows := &fakeRowStore{
		createFn: func(call int, _, _ string, _ map[string]any) (store.Row, error) {
			if call == 1 {
				return store.Row{}, unknownAttrErr("patientId")
			}
			return store.Row{}, unknownAttrErr("note")
		},
	}
	w := NewRecordWriter(rows, nil, zap.NewNop())

	_, err := w.CreateRecord(context.Background(), "appointments", "a1", map[string]any{
		"patientId": "p1", "note": "n",
	})
	if err == nil {
		t.Fatal("expected failure when two attributes are unknown")
	}
	if len(rows.createCalls) != 2 {
		t.Errorf("expected exactly 2 create calls (no retry loop), got %d", len(rows.createCalls))
	}
	if attr, ok := store.UnknownAttribute(err); !ok || attr != "note" {
		t.Errorf("expected the second schema error to propagate, got: %v", err)
	}
}

func TestCreateRecord_OtherErrorsPropagate(t *testing.T) {
	transport := &store.Error{Kind: store.KindUnknown, Code: 500, Message: "internal"}
	rows := &fakeRowStore{
		createFn: func(_ int, _, _ string, _ map[string]any) (store.Row, error) {
			return store.Row{}, transport
		},
	}
	w := NewRecordWriter(rows, nil, zap.NewNop())

	_, err := w.CreateRecord(context.Background(), "appointments", "a1", map[string]any{"status": "pending"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(rows.createCalls) != 1 {
		t.Errorf("expected no retry for non-schema failures, got %d calls", len(rows.createCalls))
	}
}
