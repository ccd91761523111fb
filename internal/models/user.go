package models

// Identity is the authenticated Jira user. Cloud instances identify users
// by account ID; server instances by username. Both are carried so worklog
// authorship can be matched against either.
type Identity struct {
	AccountID   string
	Name        string
	Email       string
	DisplayName string
}

// Matches reports whether a worklog author string refers to this user. Jira
// renders authors as display names, so that is the primary comparison; the
// email and username are accepted as fallbacks.
func (id *Identity) Matches(author string) bool {
	if author == "" {
		return false
	}
	return author == id.DisplayName || author == id.Email || author == id.Name
}
