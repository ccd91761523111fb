// Package diff compares edited worklog summary rows against the original
// values recorded at export time and produces the minimal set of updates to
// push back to Jira.
package diff

import (
	"fmt"
	"strings"

	"github.com/mkazmier/worklog/internal/hours"
	"github.com/mkazmier/worklog/internal/models"
)

// Result separates the three row outcomes: detected changes, rows skipped
// for missing identifiers (sentinels, blank lines), and rows rejected by
// validation. Skips are warnings; invalid rows are errors the user should
// fix. Neither aborts the batch.
type Result struct {
	Changes []*models.WorklogUpdate
	Skipped []string
	Invalid []string
}

// Detect runs validation and change detection over parsed summary rows.
// It is a pure function of the row values: running it twice over the same
// input yields the same result.
//
// A row produces a change only when the edited hours differ from the
// original hours or the normalized comments differ; comments normalize
// absent to empty, so clearing a comment cell that was already empty is not
// a change.
func Detect(rows []models.SummaryRow) *Result {
	res := &Result{}

	for i, row := range rows {
		// Sheet row number for messages: data starts under the header.
		line := i + 2

		if row.WorklogID == "" || row.IssueKey == "" || strings.TrimSpace(row.Hours) == "" || strings.TrimSpace(row.OriginalHours) == "" {
			res.Skipped = append(res.Skipped, fmt.Sprintf("row %d: missing worklog ID, issue key, or time values", line))
			continue
		}

		if !hours.ValidIssueKey(row.IssueKey) {
			res.Invalid = append(res.Invalid, fmt.Sprintf("row %d: invalid issue key format: %s", line, row.IssueKey))
			continue
		}

		newHours, err := hours.Parse(row.Hours)
		if err != nil {
			res.Invalid = append(res.Invalid, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		origHours, err := hours.Parse(row.OriginalHours)
		if err != nil {
			res.Invalid = append(res.Invalid, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		if err := hours.Validate(newHours); err != nil {
			res.Invalid = append(res.Invalid, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		date, err := hours.ParseDate(row.Date)
		if err != nil {
			res.Invalid = append(res.Invalid, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		update := &models.WorklogUpdate{
			WorklogID:       row.WorklogID,
			IssueKey:        row.IssueKey,
			OriginalHours:   origHours,
			NewHours:        newHours,
			OriginalComment: normalize(row.OriginalComment),
			NewComment:      normalize(row.Comment),
			Date:            date,
		}
		if update.HasChanges() {
			res.Changes = append(res.Changes, update)
		}
	}

	return res
}

// normalize maps an absent comment to the empty string and trims the cell
// padding spreadsheet tools tend to introduce.
func normalize(comment string) string {
	return strings.TrimSpace(comment)
}
