// Package jira wraps the go-jira client with the operations the worklog
// pipeline needs: JQL search, per-issue worklogs, saved filters, and worklog
// create/replace.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/mkazmier/worklog/internal/models"
)

// searchPageSize is the page size for JQL searches; maxSearchResults caps a
// single query to keep batch sizes sane.
const (
	searchPageSize   = 100
	maxSearchResults = 1000
)

// Config holds the connection settings for one Jira instance.
type Config struct {
	URL      string
	Email    string
	APIToken string
}

// Client wraps Jira API access. Discovered custom-field identifiers and the
// current-user identity are cached per client, so repeated runs in one
// process against different instances never share stale discovery results.
type Client struct {
	jc  *jira.Client
	log *zap.Logger

	epicField       string // discovered epic link field ID ("customfield_...")
	epicFieldLoaded bool

	self *models.Identity
}

// NewClient creates a Jira client using basic auth with an API token.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("missing Jira credentials: set jira.url, jira.email, and jira.api_token")
	}
	tp := jira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}
	jc, err := jira.NewClient(tp.Client(), strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{jc: jc, log: log}, nil
}

// Self returns the authenticated user, fetching it once per client.
func (c *Client) Self(ctx context.Context) (*models.Identity, error) {
	if c.self != nil {
		return c.self, nil
	}
	u, _, err := c.jc.User.GetSelfWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	c.self = &models.Identity{
		AccountID:   u.AccountID,
		Name:        u.Name,
		Email:       u.EmailAddress,
		DisplayName: u.DisplayName,
	}
	return c.self, nil
}

// SearchIssues runs a JQL query and converts the results, paging until the
// server is exhausted or the result cap is hit.
func (c *Client) SearchIssues(ctx context.Context, jql string) ([]*models.Issue, error) {
	epicField := c.epicLinkField(ctx)

	var out []*models.Issue
	for startAt := 0; startAt < maxSearchResults; {
		issues, resp, err := c.jc.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
			StartAt:    startAt,
			MaxResults: searchPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("search issues: %w", err)
		}
		for i := range issues {
			out = append(out, c.convertIssue(&issues[i], epicField))
		}
		startAt += len(issues)
		if len(issues) == 0 || startAt >= resp.Total {
			break
		}
	}

	c.log.Debug("searched issues", zap.String("jql", jql), zap.Int("count", len(out)))
	return out, nil
}

// Worklogs fetches all worklog entries recorded on one issue.
func (c *Client) Worklogs(ctx context.Context, issueKey string) ([]*models.Worklog, error) {
	wl, _, err := c.jc.Issue.GetWorklogsWithContext(ctx, issueKey)
	if err != nil {
		return nil, fmt.Errorf("get worklogs for %s: %w", issueKey, err)
	}

	out := make([]*models.Worklog, 0, len(wl.Worklogs))
	for _, rec := range wl.Worklogs {
		entry := &models.Worklog{
			ID:               rec.ID,
			IssueKey:         issueKey,
			TimeSpentSeconds: rec.TimeSpentSeconds,
			Comment:          rec.Comment,
		}
		if rec.Started != nil {
			entry.Started = time.Time(*rec.Started)
		}
		if rec.Author != nil {
			entry.Author = rec.Author.DisplayName
		}
		out = append(out, entry)
	}
	return out, nil
}

// CreateWorklog logs new time against an issue and returns the created
// worklog ID.
func (c *Client) CreateWorklog(ctx context.Context, entry *models.WorklogEntry) (string, error) {
	started := jira.Time(entry.Date)
	rec, _, err := c.jc.Issue.AddWorklogRecordWithContext(ctx, entry.IssueKey, &jira.WorklogRecord{
		TimeSpentSeconds: entry.Seconds(),
		Comment:          entry.Comment,
		Started:          &started,
	})
	if err != nil {
		return "", fmt.Errorf("add worklog to %s: %w", entry.IssueKey, err)
	}
	return rec.ID, nil
}

// ReplaceWorklog overwrites an existing worklog entry with the update's new
// values: duration, comment, and date are always sent together, never as a
// partial patch. go-jira v1 has no worklog-update call, so this goes through
// the REST endpoint directly.
func (c *Client) ReplaceWorklog(ctx context.Context, upd *models.WorklogUpdate) error {
	started := jira.Time(upd.Date)
	body := &jira.WorklogRecord{
		TimeSpentSeconds: upd.NewSeconds(),
		Comment:          upd.NewComment,
		Started:          &started,
	}

	endpoint := fmt.Sprintf("rest/api/2/issue/%s/worklog/%s", upd.IssueKey, upd.WorklogID)
	req, err := c.jc.NewRequestWithContext(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return fmt.Errorf("build worklog update request: %w", err)
	}
	resp, err := c.jc.Do(req, nil)
	if err != nil {
		return fmt.Errorf("update worklog %s on %s: %w", upd.WorklogID, upd.IssueKey, err)
	}
	defer resp.Body.Close()
	return nil
}

// WorklogExists checks that a worklog entry is still present remotely. Used
// by dry runs so they exercise the same read path as a real run.
func (c *Client) WorklogExists(ctx context.Context, issueKey, worklogID string) error {
	endpoint := fmt.Sprintf("rest/api/2/issue/%s/worklog/%s", issueKey, worklogID)
	req, err := c.jc.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build worklog get request: %w", err)
	}
	resp, err := c.jc.Do(req, nil)
	if err != nil {
		return fmt.Errorf("worklog %s not found on %s: %w", worklogID, issueKey, err)
	}
	defer resp.Body.Close()
	return nil
}

// IssueExists checks that an issue key resolves remotely.
func (c *Client) IssueExists(ctx context.Context, issueKey string) error {
	_, _, err := c.jc.Issue.GetWithContext(ctx, issueKey, nil)
	if err != nil {
		return fmt.Errorf("issue %s not found: %w", issueKey, err)
	}
	return nil
}

// Filter is a saved Jira filter.
type Filter struct {
	ID   string
	Name string
	JQL  string
}

// FavouriteFilters lists the user's favourite filters.
func (c *Client) FavouriteFilters(ctx context.Context) ([]Filter, error) {
	filters, _, err := c.jc.Filter.GetFavouriteListWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favourite filters: %w", err)
	}
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		out = append(out, Filter{
			ID:   f.ID,
			Name: f.Name,
			JQL:  f.Jql,
		})
	}
	return out, nil
}

// FilterJQL resolves a filter ID to its JQL query.
func (c *Client) FilterJQL(ctx context.Context, filterID string) (string, error) {
	id, err := strconv.Atoi(strings.TrimSpace(filterID))
	if err != nil {
		return "", fmt.Errorf("invalid filter ID %q", filterID)
	}
	f, _, err := c.jc.Filter.GetWithContext(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get filter %s: %w", filterID, err)
	}
	if f.Jql == "" {
		return "", fmt.Errorf("filter %s has no JQL query", filterID)
	}
	return f.Jql, nil
}

// CombinedFilterJQL resolves several filter IDs and OR-combines their
// queries.
func (c *Client) CombinedFilterJQL(ctx context.Context, filterIDs []string) (string, error) {
	queries := make([]string, 0, len(filterIDs))
	for _, id := range filterIDs {
		jql, err := c.FilterJQL(ctx, id)
		if err != nil {
			return "", err
		}
		queries = append(queries, jql)
	}
	return CombineJQL(queries), nil
}

// CombineJQL OR-combines JQL queries, parenthesizing each one. A single
// query passes through unchanged.
func CombineJQL(queries []string) string {
	if len(queries) == 1 {
		return queries[0]
	}
	wrapped := make([]string, len(queries))
	for i, q := range queries {
		wrapped[i] = "(" + q + ")"
	}
	return strings.Join(wrapped, " OR ")
}

// epicLinkField discovers the custom field ID carrying the epic link,
// caching the answer for the client's lifetime. Instances without the field
// (team-managed projects expose the parent directly) resolve to "".
func (c *Client) epicLinkField(ctx context.Context) string {
	if c.epicFieldLoaded {
		return c.epicField
	}
	c.epicFieldLoaded = true

	fields, _, err := c.jc.Field.GetListWithContext(ctx)
	if err != nil {
		c.log.Warn("field discovery failed; epic links unavailable", zap.Error(err))
		return ""
	}
	for _, f := range fields {
		if f.Custom && strings.EqualFold(f.Name, "Epic Link") {
			c.epicField = f.ID
			c.log.Debug("discovered epic link field", zap.String("field", f.ID))
			break
		}
	}
	return c.epicField
}

// convertIssue maps a go-jira issue onto the internal model, pulling the
// epic link out of the unknown-fields map when the field was discovered.
func (c *Client) convertIssue(is *jira.Issue, epicField string) *models.Issue {
	out := &models.Issue{
		Key:     is.Key,
		Project: projectOf(is.Key),
	}
	f := is.Fields
	if f == nil {
		return out
	}

	out.Summary = f.Summary
	out.Type = models.IssueType(f.Type.Name)
	if f.Status != nil {
		out.Status = f.Status.Name
	}
	if f.Assignee != nil {
		out.Assignee = f.Assignee.DisplayName
	}
	if f.Parent != nil {
		out.ParentKey = f.Parent.Key
	}
	out.Created = time.Time(f.Created)
	out.Updated = time.Time(f.Updated)

	if epicField != "" {
		if v, ok := f.Unknowns[epicField]; ok {
			if s, ok := v.(string); ok {
				out.EpicKey = s
			}
		}
	}
	return out
}

// projectOf extracts the project key prefix from an issue key.
func projectOf(issueKey string) string {
	if i := strings.Index(issueKey, "-"); i > 0 {
		return issueKey[:i]
	}
	return ""
}
