package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkazmier/worklog/internal/excel"
	"github.com/mkazmier/worklog/internal/models"
)

// fakeRemote records every call so tests can assert which remote operations
// a run performed.
type fakeRemote struct {
	self     *models.Identity
	issues   []*models.Issue
	worklogs map[string][]*models.Worklog
	filters  map[string]string

	missingWorklogs map[string]bool
	missingIssues   map[string]bool
	failReplace     map[string]bool

	existenceChecks []string
	replaced        []string
	created         []string
}

func (f *fakeRemote) Self(context.Context) (*models.Identity, error) {
	if f.self == nil {
		return &models.Identity{DisplayName: "Alice"}, nil
	}
	return f.self, nil
}

func (f *fakeRemote) SearchIssues(context.Context, string) ([]*models.Issue, error) {
	return f.issues, nil
}

func (f *fakeRemote) Worklogs(_ context.Context, issueKey string) ([]*models.Worklog, error) {
	return f.worklogs[issueKey], nil
}

func (f *fakeRemote) CreateWorklog(_ context.Context, e *models.WorklogEntry) (string, error) {
	f.created = append(f.created, e.IssueKey)
	return fmt.Sprintf("wl-%d", len(f.created)), nil
}

func (f *fakeRemote) ReplaceWorklog(_ context.Context, u *models.WorklogUpdate) error {
	if f.failReplace[u.IssueKey] {
		return fmt.Errorf("update rejected for %s", u.IssueKey)
	}
	f.replaced = append(f.replaced, u.WorklogID)
	return nil
}

func (f *fakeRemote) WorklogExists(_ context.Context, issueKey, worklogID string) error {
	f.existenceChecks = append(f.existenceChecks, worklogID)
	if f.missingWorklogs[worklogID] {
		return fmt.Errorf("worklog %s not found on %s", worklogID, issueKey)
	}
	return nil
}

func (f *fakeRemote) IssueExists(_ context.Context, issueKey string) error {
	if f.missingIssues[issueKey] {
		return fmt.Errorf("issue %s not found", issueKey)
	}
	return nil
}

func (f *fakeRemote) CombinedFilterJQL(_ context.Context, ids []string) (string, error) {
	if len(ids) == 1 {
		return f.filters[ids[0]], nil
	}
	q := ""
	for i, id := range ids {
		if i > 0 {
			q += " OR "
		}
		q += "(" + f.filters[id] + ")"
	}
	return q, nil
}

func wl(id, issueKey string, seconds int, author string, started time.Time) *models.Worklog {
	return &models.Worklog{
		ID:               id,
		IssueKey:         issueKey,
		TimeSpentSeconds: seconds,
		Comment:          "work",
		Started:          started,
		Author:           author,
	}
}

func TestExportSummary_RoundTrip(t *testing.T) {
	march := time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	remote := &fakeRemote{
		issues: []*models.Issue{
			{Key: "PROJ-1", Summary: "First", Type: models.IssueTypeTask, Project: "PROJ"},
			{Key: "PROJ-2", Summary: "Second", Type: models.IssueTypeTask, Project: "PROJ"},
		},
		worklogs: map[string][]*models.Worklog{
			"PROJ-1": {wl("100", "PROJ-1", 9000, "Alice", march)},
		},
	}
	svc := NewService(remote, nil)
	out := filepath.Join(t.TempDir(), "summary.xlsx")

	report, err := svc.ExportSummary(context.Background(), ExportOptions{JQL: "project = PROJ", Output: out})
	require.NoError(t, err)
	assert.Equal(t, 2, report.IssueCount)
	assert.Equal(t, 2, report.RowCount)

	rows, err := excel.ReadSummary(out)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[0].WorklogID)
	assert.Equal(t, "2.5", rows[0].Hours)
	assert.Equal(t, "2.5", rows[0].OriginalHours)
	assert.Equal(t, models.RowStatusNoTime, rows[1].Status, "issue without worklogs gets a sentinel row")
}

func TestExportSummary_FiltersByTimeRangeAndUser(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	remote := &fakeRemote{
		issues: []*models.Issue{{Key: "PROJ-1", Summary: "First", Type: models.IssueTypeTask}},
		worklogs: map[string][]*models.Worklog{
			"PROJ-1": {
				wl("1", "PROJ-1", 3600, "Alice", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)),
				wl("2", "PROJ-1", 3600, "Alice", time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)), // previous month
				wl("3", "PROJ-1", 3600, "Bob", time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)),   // other author
			},
		},
	}
	svc := NewService(remote, nil)
	svc.now = func() time.Time { return now }
	out := filepath.Join(t.TempDir(), "summary.xlsx")

	_, err := svc.ExportSummary(context.Background(), ExportOptions{
		JQL: "project = PROJ", TimeRange: RangeCurrent, Output: out,
	})
	require.NoError(t, err)

	rows, err := excel.ReadSummary(out)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].WorklogID)
}

func TestExportSummary_LoggedOnlyDropsEmptyIssues(t *testing.T) {
	remote := &fakeRemote{
		issues: []*models.Issue{
			{Key: "PROJ-1", Summary: "First", Type: models.IssueTypeTask},
			{Key: "PROJ-2", Summary: "Second", Type: models.IssueTypeTask},
		},
		worklogs: map[string][]*models.Worklog{
			"PROJ-1": {wl("1", "PROJ-1", 3600, "Alice", time.Now())},
		},
	}
	svc := NewService(remote, nil)
	out := filepath.Join(t.TempDir(), "summary.xlsx")

	_, err := svc.ExportSummary(context.Background(), ExportOptions{
		JQL: "project = PROJ", LoggedOnly: true, Output: out,
	})
	require.NoError(t, err)

	rows, err := excel.ReadSummary(out)
	require.NoError(t, err)
	require.Len(t, rows, 1, "issues without entries are suppressed")
	assert.Equal(t, "PROJ-1", rows[0].IssueKey)
	assert.Equal(t, models.RowStatusOriginal, rows[0].Status)
}

func TestExportSummary_InvalidTimeRange(t *testing.T) {
	remote := &fakeRemote{
		issues: []*models.Issue{{Key: "PROJ-1", Type: models.IssueTypeTask}},
	}
	svc := NewService(remote, nil)

	_, err := svc.ExportSummary(context.Background(), ExportOptions{
		JQL: "project = PROJ", TimeRange: "lastweek", Output: filepath.Join(t.TempDir(), "x.xlsx"),
	})
	assert.Error(t, err)
}

func TestExportSummary_RequiresQuery(t *testing.T) {
	svc := NewService(&fakeRemote{}, nil)
	_, err := svc.ExportSummary(context.Background(), ExportOptions{Output: "x.xlsx"})
	assert.Error(t, err)
}

func TestApplyUpdates_MutatesOncePerChange(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewService(remote, nil)

	changes := []*models.WorklogUpdate{
		{WorklogID: "100", IssueKey: "PROJ-1", OriginalHours: 2, NewHours: 3},
		{WorklogID: "101", IssueKey: "PROJ-2", OriginalHours: 1, NewHours: 1.5},
	}
	results := svc.ApplyUpdates(context.Background(), changes, false)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, []string{"100", "101"}, remote.replaced)
}

func TestApplyUpdates_DryRunChecksExistenceWithoutMutating(t *testing.T) {
	remote := &fakeRemote{missingWorklogs: map[string]bool{"101": true}}
	svc := NewService(remote, nil)

	changes := []*models.WorklogUpdate{
		{WorklogID: "100", IssueKey: "PROJ-1", NewHours: 3},
		{WorklogID: "101", IssueKey: "PROJ-2", NewHours: 2},
	}
	results := svc.ApplyUpdates(context.Background(), changes, true)

	// Same existence checks as a real run, zero mutations.
	assert.Equal(t, []string{"100", "101"}, remote.existenceChecks)
	assert.Empty(t, remote.replaced)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success, "dry run surfaces the missing worklog")
}

func TestApplyUpdates_FailureDoesNotAbortBatch(t *testing.T) {
	remote := &fakeRemote{failReplace: map[string]bool{"PROJ-3": true}}
	svc := NewService(remote, nil)

	changes := []*models.WorklogUpdate{
		{WorklogID: "100", IssueKey: "PROJ-1", NewHours: 3},
		{WorklogID: "101", IssueKey: "PROJ-2", NewHours: 2},
		{WorklogID: "102", IssueKey: "PROJ-3", NewHours: 1},
		{WorklogID: "103", IssueKey: "PROJ-4", NewHours: 4},
		{WorklogID: "104", IssueKey: "PROJ-5", NewHours: 0.5},
	}
	results := svc.ApplyUpdates(context.Background(), changes, false)

	require.Len(t, results, 5, "every record gets an outcome")
	failures := 0
	for _, r := range results {
		if !r.Success {
			failures++
			assert.Equal(t, "PROJ-3", r.IssueKey)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, []string{"100", "101", "103", "104"}, remote.replaced, "the failed record is never retried")
}

func TestPlanImport_DetectsChangesFromSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, excel.WriteSummary(path, []models.SummaryRow{
		{WorklogID: "100", IssueKey: "PROJ-1", Hours: "3", OriginalHours: "2.5", Date: "2025-03-07", Status: models.RowStatusOriginal},
		{WorklogID: "101", IssueKey: "PROJ-2", Hours: "1", OriginalHours: "1", Date: "2025-03-07", Status: models.RowStatusOriginal},
		{IssueKey: "PROJ-3", Hours: "0", OriginalHours: "0", Status: models.RowStatusNoTime},
	}))

	svc := NewService(&fakeRemote{}, nil)
	plan, err := svc.PlanImport(path)
	require.NoError(t, err)

	require.Len(t, plan.Changes, 1)
	assert.Equal(t, "100", plan.Changes[0].WorklogID)
	assert.Len(t, plan.Skipped, 1, "sentinel row is skipped, not an error")
	assert.Empty(t, plan.Invalid)
}

func TestPlanLog_ValidatesTemplateRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, excel.WriteTemplate(path, []models.TemplateRow{
		{IssueKey: "PROJ-1", Hours: "2.5", Date: "2025-03-07", Comment: "fix"},
		{IssueKey: "PROJ-2"},              // untouched row
		{IssueKey: "PROJ-3", Hours: "25"}, // over the ceiling
		{IssueKey: "BADKEY", Hours: "1"},  // bad key
		{IssueKey: "PROJ-4", Hours: "1", Date: "bad"},
	}))

	svc := NewService(&fakeRemote{}, nil)
	entries, invalid, err := svc.PlanLog(path)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "PROJ-1", entries[0].IssueKey)
	assert.Equal(t, 2.5, entries[0].Hours)
	assert.Len(t, invalid, 3)
}

func TestApplyEntries_DryRunAndMissingIssue(t *testing.T) {
	remote := &fakeRemote{missingIssues: map[string]bool{"PROJ-9": true}}
	svc := NewService(remote, nil)

	entries := []*models.WorklogEntry{
		{IssueKey: "PROJ-1", Hours: 2, Date: time.Now()},
		{IssueKey: "PROJ-9", Hours: 1, Date: time.Now()},
	}

	dry := svc.ApplyEntries(context.Background(), entries, true)
	require.Len(t, dry, 2)
	assert.True(t, dry[0].Success)
	assert.False(t, dry[1].Success)
	assert.Empty(t, remote.created)

	real := svc.ApplyEntries(context.Background(), entries, false)
	assert.True(t, real[0].Success)
	assert.Equal(t, "wl-1", real[0].WorklogID)
	assert.Equal(t, []string{"PROJ-1"}, remote.created)
}

func TestSummarize(t *testing.T) {
	created, updated, failed := Summarize([]models.SyncResult{
		{Success: true, Operation: models.OperationCreate},
		{Success: true, Operation: models.OperationUpdate},
		{Success: false, Operation: models.OperationUpdate},
	})
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, failed)
}
