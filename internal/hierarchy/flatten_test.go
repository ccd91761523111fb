package hierarchy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkazmier/worklog/internal/models"
)

func worklog(id, issueKey string, seconds int, comment string) *models.Worklog {
	return &models.Worklog{
		ID:               id,
		IssueKey:         issueKey,
		TimeSpentSeconds: seconds,
		Comment:          comment,
		Started:          time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC),
		Author:           "Alice",
	}
}

func TestFlatten_HierarchyNumbers(t *testing.T) {
	issues := []*models.Issue{
		issue("E-1", models.IssueTypeEpic, "", ""),
		issue("S-1", models.IssueTypeStory, "", "E-1"),
		issue("T-1", models.IssueTypeTask, "S-1", ""),
		issue("ST-1", models.IssueTypeSubtask, "T-1", ""),
	}
	groups := Resolve(issues)

	rows := Flatten(groups, nil)
	require.Len(t, rows, 4)

	assert.Equal(t, "1", rows[0].Number)
	assert.Equal(t, "1.1", rows[1].Number)
	assert.Equal(t, "1.1.1", rows[2].Number)
	assert.Equal(t, "1.1.1.1", rows[3].Number)

	assert.Equal(t, 0, issues[0].Depth)
	assert.Equal(t, 1, issues[1].Depth)
	assert.Equal(t, 2, issues[2].Depth)
	assert.Equal(t, 3, issues[3].Depth)
}

func TestFlatten_IndentationAndAnnotation(t *testing.T) {
	issues := []*models.Issue{
		issue("E-1", models.IssueTypeEpic, "", ""),
		issue("S-1", models.IssueTypeStory, "", "E-1"),
		issue("T-1", models.IssueTypeTask, "S-1", ""),
	}
	rows := Flatten(Resolve(issues), nil)
	require.Len(t, rows, 3)

	// Epic unindented, first level annotated with parent type, deeper
	// levels indented without annotation.
	assert.Equal(t, "summary E-1", rows[0].Summary)
	assert.Equal(t, connector+"summary S-1 (Epic)", rows[1].Summary)
	assert.Equal(t, indentUnit+connector+"summary T-1", rows[2].Summary)
}

func TestFlatten_SentinelRows(t *testing.T) {
	issues := []*models.Issue{
		issue("E-1", models.IssueTypeEpic, "", ""),
		issue("S-1", models.IssueTypeStory, "", "E-1"),
	}
	worklogs := map[string][]*models.Worklog{
		"S-1": {worklog("100", "S-1", 9000, "work")},
	}

	rows := Flatten(Resolve(issues), worklogs)
	require.Len(t, rows, 2)

	// Epic has no worklogs: exactly one sentinel row, zero time, marked.
	assert.Equal(t, "E-1", rows[0].IssueKey)
	assert.Equal(t, "0", rows[0].Hours)
	assert.Empty(t, rows[0].WorklogID)
	assert.Equal(t, models.RowStatusNoTime, rows[0].Status)

	assert.Equal(t, "S-1", rows[1].IssueKey)
	assert.Equal(t, "100", rows[1].WorklogID)
	assert.Equal(t, "2.5", rows[1].Hours)
	assert.Equal(t, "2.5", rows[1].OriginalHours)
	assert.Equal(t, models.RowStatusOriginal, rows[1].Status)
}

func TestFlatten_MultipleWorklogsPerIssue(t *testing.T) {
	issues := []*models.Issue{
		issue("E-1", models.IssueTypeEpic, "", ""),
	}
	worklogs := map[string][]*models.Worklog{
		"E-1": {
			worklog("1", "E-1", 3600, "one"),
			worklog("2", "E-1", 7200, "two"),
		},
	}

	rows := Flatten(Resolve(issues), worklogs)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].WorklogID)
	assert.Equal(t, "2", rows[1].WorklogID)
	// Both rows carry the same node number.
	assert.Equal(t, rows[0].Number, rows[1].Number)
}

func TestFlatten_OrphansUnnumbered(t *testing.T) {
	issues := []*models.Issue{
		issue("E-1", models.IssueTypeEpic, "", ""),
		issue("X-1", models.IssueTypeTask, "", ""),
	}

	rows := Flatten(Resolve(issues), nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].Number)
	assert.Equal(t, "X-1", rows[1].IssueKey)
	assert.Empty(t, rows[1].Number, "orphans get no synthesized hierarchy number")
	assert.Equal(t, "summary X-1", rows[1].Summary, "orphans render flat")
}

func TestFlatten_StableOrder(t *testing.T) {
	issues := []*models.Issue{
		issue("E-1", models.IssueTypeEpic, "", ""),
		issue("S-1", models.IssueTypeStory, "", "E-1"),
		issue("S-2", models.IssueTypeStory, "", "E-1"),
	}

	first := Flatten(Resolve(issues), nil)
	second := Flatten(Resolve(issues), nil)
	assert.Equal(t, first, second, "same input must produce identical row order")

	require.Len(t, first, 3)
	assert.Equal(t, "1.1", first[1].Number)
	assert.Equal(t, "1.2", first[2].Number)
}

func TestFlat_NoGrouping(t *testing.T) {
	issues := []*models.Issue{
		issue("B-1", models.IssueTypeTask, "", ""),
		issue("A-1", models.IssueTypeTask, "", ""),
	}

	rows := Flat(issues, nil)
	require.Len(t, rows, 2)
	// Retrieval order preserved, no numbering.
	assert.Equal(t, "B-1", rows[0].IssueKey)
	assert.Equal(t, "A-1", rows[1].IssueKey)
	assert.Empty(t, rows[0].Number)
}
