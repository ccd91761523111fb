package models

// Row statuses written to the Status column. RowStatusOriginal marks a real
// worklog exported from Jira; RowStatusNoTime marks a sentinel row for an
// issue with nothing logged; RowStatusPending marks a blank template row
// waiting to be filled in.
const (
	RowStatusOriginal = "Original"
	RowStatusNoTime   = "No Time Logged"
	RowStatusPending  = "Pending"
)

// TemplateRow is the issue-centric row shape of the time-logging template:
// one row per issue with empty time/date/comment cells for the user to fill.
type TemplateRow struct {
	IssueKey string
	Summary  string
	Type     string
	Hours    string
	Date     string
	Comment  string
	Status   string
}

// SummaryRow is the entry-centric row shape of the worklog summary sheet.
// It carries edited and original value pairs side by side so the diff engine
// can correlate them later without re-fetching from Jira. All fields are the
// cell text as rendered to or read from the sheet.
type SummaryRow struct {
	Number          string // dotted hierarchy number, empty for orphans
	WorklogID       string // empty for sentinel rows
	IssueKey        string
	Summary         string // indented when exported with hierarchy grouping
	Type            string
	ParentKey       string
	ParentType      string
	Hours           string
	OriginalHours   string
	Date            string
	Comment         string
	OriginalComment string
	Author          string
	Status          string
}
