package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkazmier/worklog/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestSaveRun_DerivesCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &Run{Kind: "summary-import", Input: "worklog.xlsx"}
	results := []models.SyncResult{
		{IssueKey: "PROJ-1", WorklogID: "100", Success: true, Operation: models.OperationUpdate, Message: "updated"},
		{IssueKey: "PROJ-2", Success: true, Operation: models.OperationCreate, Message: "logged"},
		{IssueKey: "PROJ-3", WorklogID: "101", Success: false, Operation: models.OperationUpdate, Message: "not found"},
	}
	require.NoError(t, s.SaveRun(ctx, run, results))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 1, run.Failed)

	got, recs, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Kind, got.Kind)
	assert.Equal(t, run.Input, got.Input)
	require.Len(t, recs, 3)
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveRun(ctx, &Run{Kind: "summary-export"}, nil))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSaveRun_DryRunFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &Run{Kind: "summary-import", DryRun: true}
	require.NoError(t, s.SaveRun(ctx, run, nil))

	got, _, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.DryRun)
}
