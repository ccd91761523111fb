package models

import "time"

// Worklog is an existing worklog entry retrieved from Jira.
//
// A Worklog with an empty ID and zero TimeSpentSeconds is a sentinel
// synthesized for an issue that has no logged time; sentinels are never
// written back to Jira.
type Worklog struct {
	ID               string
	IssueKey         string
	TimeSpentSeconds int
	Comment          string
	Started          time.Time
	Author           string
}

// Sentinel reports whether this is a synthesized zero-time placeholder.
func (w *Worklog) Sentinel() bool {
	return w.ID == ""
}

// WorklogEntry is a new worklog parsed from an edited template sheet,
// pending creation in Jira.
type WorklogEntry struct {
	IssueKey string
	Hours    float64
	Date     time.Time
	Comment  string
}

// Seconds converts the entry's decimal hours to whole seconds.
func (e *WorklogEntry) Seconds() int {
	return int(e.Hours * 3600)
}

// WorklogUpdate is one detected edit to an existing worklog: the original
// values as exported plus the values the user typed over them. Updates are
// emitted by the diff engine only when something actually changed.
type WorklogUpdate struct {
	WorklogID       string
	IssueKey        string
	OriginalHours   float64
	NewHours        float64
	OriginalComment string
	NewComment      string
	Date            time.Time
}

// HasChanges reports whether the edited values differ from the originals.
// An absent comment compares equal to an empty one.
func (u *WorklogUpdate) HasChanges() bool {
	return u.NewHours != u.OriginalHours || u.NewComment != u.OriginalComment
}

// NewSeconds converts the edited decimal hours to whole seconds.
func (u *WorklogUpdate) NewSeconds() int {
	return int(u.NewHours * 3600)
}

// SyncOperation is the kind of remote mutation a SyncResult describes.
type SyncOperation string

const (
	OperationCreate SyncOperation = "create"
	OperationUpdate SyncOperation = "update"
)

// SyncResult is the outcome of attempting one remote write. A failed
// create has no WorklogID.
type SyncResult struct {
	IssueKey  string
	WorklogID string
	Success   bool
	Message   string
	Operation SyncOperation
}
