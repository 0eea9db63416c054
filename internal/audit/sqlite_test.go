package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "audit-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStore(filepath.Join(tmpDir, "audit.db"))
	require.NoError(t, err)
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "audit-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "nested", "audit.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
}

func TestSQLiteStore_Record(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()

	entry := &Entry{
		Actor:     "admin",
		Action:    ActionPatientCreated,
		PatientID: "PID101-johnsmith",
		Detail:    "registered via API",
	}

	err := store.Record(ctx, entry)

	require.NoError(t, err)
	assert.NotZero(t, entry.ID, "ID should be assigned")
	assert.False(t, entry.CreatedAt.IsZero(), "CreatedAt should be set")
}

func TestSQLiteStore_ListByPatient(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()

	actions := []Action{ActionPatientCreated, ActionAssessmentCreated, ActionScanCreated}
	for _, action := range actions {
		require.NoError(t, store.Record(ctx, &Entry{
			Actor:     "admin",
			Action:    action,
			PatientID: "PID101-johnsmith",
		}))
	}
	require.NoError(t, store.Record(ctx, &Entry{
		Actor:     "admin",
		Action:    ActionPatientCreated,
		PatientID: "PID102-janedoe",
	}))

	entries, err := store.ListByPatient(ctx, "PID101-johnsmith", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first
	assert.Equal(t, ActionScanCreated, entries[0].Action)
	assert.Equal(t, ActionPatientCreated, entries[2].Action)

	entries, err = store.ListByPatient(ctx, "PID999-nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSQLiteStore_ListPagination(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, &Entry{
			Actor:     "admin",
			Action:    ActionPatientUpdated,
			PatientID: fmt.Sprintf("PID%d-test", 100+i),
		}))
	}

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "PID104-test", page[0].PatientID)

	page, err = store.List(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "PID100-test", page[0].PatientID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Entry{
		Actor:     "admin",
		Action:    ActionPatientDeleted,
		PatientID: "PID101-johnsmith",
		Detail:    "cascade removed 2 assessments",
	}))

	var buf bytes.Buffer
	err := store.ExportJSON(ctx, &buf)
	require.NoError(t, err)

	var exported []*Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, ActionPatientDeleted, exported[0].Action)
	assert.Equal(t, "cascade removed 2 assessments", exported[0].Detail)
}
