package audit

import (
	"context"
	"io"
)

// NopStore discards all audit entries. Used when auditing is disabled.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (NopStore) Record(ctx context.Context, entry *Entry) error { return nil }

func (NopStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*Entry, error) {
	return []*Entry{}, nil
}

func (NopStore) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	return []*Entry{}, nil
}

func (NopStore) Count(ctx context.Context) (int64, error) { return 0, nil }

func (NopStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	_, err := writer.Write([]byte("[]\n"))
	return err
}

func (NopStore) Close() error { return nil }
