package models

import (
	"strings"
	"time"
)

// IssueType is the Jira issue type name. The set is open; only Epic and
// Subtask carry special meaning for hierarchy resolution.
type IssueType string

const (
	IssueTypeEpic    IssueType = "Epic"
	IssueTypeStory   IssueType = "Story"
	IssueTypeTask    IssueType = "Task"
	IssueTypeSubtask IssueType = "Subtask"
)

// Issue is one node in the Epic > Story/Task > Subtask hierarchy.
//
// ParentKey and EpicKey come straight from Jira and are best-effort: either
// or both may be empty, and EpicKey may name an issue that is not actually
// an Epic. ParentType and Depth are filled in by the hierarchy resolver
// after the whole batch is known.
type Issue struct {
	Key      string
	Summary  string
	Type     IssueType
	Status   string
	Project  string
	Assignee string

	ParentKey string // immediate containing issue (Task under Story, Subtask under Task)
	EpicKey   string // epic link field, when present

	ParentType IssueType // resolved by the hierarchy pass, not authoritative
	Depth      int       // 0 = Epic/root

	Created time.Time
	Updated time.Time
}

// IsEpic reports whether the issue type is Epic, case-insensitively.
func (i *Issue) IsEpic() bool {
	return strings.EqualFold(string(i.Type), string(IssueTypeEpic))
}

// Title returns the summary, falling back to the key when Jira returns an
// issue with an empty summary.
func (i *Issue) Title() string {
	if i.Summary == "" {
		return i.Key
	}
	return i.Summary
}
