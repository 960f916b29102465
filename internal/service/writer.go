package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/store"
	"github.com/salus-hms/salus-api/pkg/metrics"
)

// RowStore is the slice of the document-store client the services depend on.
type RowStore interface {
	CreateRow(ctx context.Context, tableID, rowID string, data map[string]any) (store.Row, error)
	GetRow(ctx context.Context, tableID, rowID string) (store.Row, error)
	UpdateRow(ctx context.Context, tableID, rowID string, data map[string]any) (store.Row, error)
	ListRows(ctx context.Context, tableID string, queries ...store.Query) (store.RowList, error)
}

// RecordWriter wraps document creation with tolerance for one flavor of
// schema drift: when the store rejects exactly one unknown attribute, the
// write is retried once without it.
type RecordWriter struct {
	rows    RowStore
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewRecordWriter(rows RowStore, collector *metrics.Collector, log *zap.Logger) *RecordWriter {
	return &RecordWriter{rows: rows, metrics: collector, log: log}
}

// CreateRecord attempts the create; on an unknown-attribute rejection it
// strips that attribute from a copy of data and retries exactly once. A
// payload with two or more unknown attributes still fails; stripping is
// never iterated.
func (w *RecordWriter) CreateRecord(ctx context.Context, tableID, rowID string, data map[string]any) (store.Row, error) {
	row, err := w.rows.CreateRow(ctx, tableID, rowID, data)
	if err == nil {
		return row, nil
	}

	attr, ok := store.UnknownAttribute(err)
	if !ok {
		return store.Row{}, err
	}

	retryData := make(map[string]any, len(data))
	for k, v := range data {
		if k != attr {
			retryData[k] = v
		}
	}

	w.log.Warn("store rejected unknown attribute, retrying without it",
		zap.String("table", tableID),
		zap.String("attribute", attr),
	)
	if w.metrics != nil {
		w.metrics.SchemaRetriesTotal.WithLabelValues(tableID, attr).Inc()
	}

	row, err = w.rows.CreateRow(ctx, tableID, rowID, retryData)
	if err != nil {
		return store.Row{}, fmt.Errorf("creating record after dropping %q: %w", attr, err)
	}
	return row, nil
}
