// Package sync orchestrates the two halves of the reconciliation loop:
// export (fetch, resolve, flatten, render) and import (parse, diff, mutate,
// report). It talks to Jira through the Remote interface so the pipeline can
// be tested against a fake.
package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkazmier/worklog/internal/diff"
	"github.com/mkazmier/worklog/internal/excel"
	"github.com/mkazmier/worklog/internal/hierarchy"
	"github.com/mkazmier/worklog/internal/hours"
	"github.com/mkazmier/worklog/internal/models"
)

// Time range selectors for worklog exports.
const (
	RangeAll      = ""
	RangeCurrent  = "current"
	RangePrevious = "previous"
)

// Remote is the slice of Jira the orchestrator needs.
type Remote interface {
	Self(ctx context.Context) (*models.Identity, error)
	SearchIssues(ctx context.Context, jql string) ([]*models.Issue, error)
	Worklogs(ctx context.Context, issueKey string) ([]*models.Worklog, error)
	CreateWorklog(ctx context.Context, entry *models.WorklogEntry) (string, error)
	ReplaceWorklog(ctx context.Context, upd *models.WorklogUpdate) error
	WorklogExists(ctx context.Context, issueKey, worklogID string) error
	IssueExists(ctx context.Context, issueKey string) error
	CombinedFilterJQL(ctx context.Context, filterIDs []string) (string, error)
}

// Service runs exports and imports against one Remote.
type Service struct {
	remote Remote
	log    *zap.Logger
	now    func() time.Time
}

// NewService creates an orchestrator. A nil logger is replaced with a nop.
func NewService(remote Remote, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{remote: remote, log: log, now: time.Now}
}

// ExportOptions selects which issues and worklogs to export and how to
// render them.
type ExportOptions struct {
	FilterIDs  []string // saved filter IDs, OR-combined
	JQL        string   // raw query, used when no filters are given
	TimeRange  string   // RangeAll, RangeCurrent, or RangePrevious
	AllUsers   bool     // keep other users' worklogs
	LoggedOnly bool     // drop issues that have no worklog entries
	Hierarchy  bool     // group rows under Epics
	Output     string
}

// ExportReport summarizes what an export produced.
type ExportReport struct {
	JQL        string
	IssueCount int
	RowCount   int
	Output     string
}

// ExportSummary fetches issues and their worklogs and writes the summary
// workbook. By default every issue yields at least one row, synthesizing a
// sentinel when nothing is logged; LoggedOnly drops those issues instead.
func (s *Service) ExportSummary(ctx context.Context, opts ExportOptions) (*ExportReport, error) {
	jql, err := s.resolveJQL(ctx, opts)
	if err != nil {
		return nil, err
	}

	issues, err := s.remote.SearchIssues(ctx, jql)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("no issues matched the query")
	}

	worklogs, err := s.fetchWorklogs(ctx, issues, opts)
	if err != nil {
		return nil, err
	}
	if opts.LoggedOnly {
		kept := issues[:0]
		for _, is := range issues {
			if len(worklogs[is.Key]) > 0 {
				kept = append(kept, is)
			}
		}
		issues = kept
		if len(issues) == 0 {
			return nil, fmt.Errorf("no worklogs matched the query")
		}
	}

	var rows []models.SummaryRow
	if opts.Hierarchy {
		rows = hierarchy.Flatten(hierarchy.Resolve(issues), worklogs)
	} else {
		rows = hierarchy.Flat(issues, worklogs)
	}

	if err := excel.WriteSummary(opts.Output, rows); err != nil {
		return nil, err
	}

	s.log.Info("exported summary",
		zap.Int("issues", len(issues)),
		zap.Int("rows", len(rows)),
		zap.String("output", opts.Output))
	return &ExportReport{JQL: jql, IssueCount: len(issues), RowCount: len(rows), Output: opts.Output}, nil
}

// ExportTemplate writes a blank time-logging template, one pending row per
// issue.
func (s *Service) ExportTemplate(ctx context.Context, opts ExportOptions) (*ExportReport, error) {
	jql, err := s.resolveJQL(ctx, opts)
	if err != nil {
		return nil, err
	}

	issues, err := s.remote.SearchIssues(ctx, jql)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("no issues matched the query")
	}

	rows := make([]models.TemplateRow, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, models.TemplateRow{
			IssueKey: is.Key,
			Summary:  is.Summary,
			Type:     string(is.Type),
			Status:   models.RowStatusPending,
		})
	}

	if err := excel.WriteTemplate(opts.Output, rows); err != nil {
		return nil, err
	}
	return &ExportReport{JQL: jql, IssueCount: len(issues), RowCount: len(rows), Output: opts.Output}, nil
}

// ImportPlan is the parsed and diffed content of an edited summary sheet,
// ready to apply.
type ImportPlan struct {
	Changes []*models.WorklogUpdate
	Skipped []string
	Invalid []string
}

// PlanImport parses an edited summary workbook and detects changes without
// touching the remote.
func (s *Service) PlanImport(path string) (*ImportPlan, error) {
	rows, err := excel.ReadSummary(path)
	if err != nil {
		return nil, err
	}
	res := diff.Detect(rows)

	s.log.Info("planned import",
		zap.Int("rows", len(rows)),
		zap.Int("changes", len(res.Changes)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("invalid", len(res.Invalid)))
	return &ImportPlan{Changes: res.Changes, Skipped: res.Skipped, Invalid: res.Invalid}, nil
}

// ApplyUpdates pushes detected changes to the remote, one full-replace
// update per change. A dry run performs the same existence check as a real
// run and stops short of the mutation. Individual failures are reported in
// the result rows and never abort the batch.
func (s *Service) ApplyUpdates(ctx context.Context, changes []*models.WorklogUpdate, dryRun bool) []models.SyncResult {
	results := make([]models.SyncResult, 0, len(changes))
	for _, upd := range changes {
		res := models.SyncResult{
			IssueKey:  upd.IssueKey,
			WorklogID: upd.WorklogID,
			Operation: models.OperationUpdate,
		}

		if err := s.remote.WorklogExists(ctx, upd.IssueKey, upd.WorklogID); err != nil {
			res.Message = err.Error()
			results = append(results, res)
			continue
		}

		if dryRun {
			res.Success = true
			res.Message = fmt.Sprintf("would update to %s hours", hours.Format(upd.NewHours))
			results = append(results, res)
			continue
		}

		if err := s.remote.ReplaceWorklog(ctx, upd); err != nil {
			res.Message = err.Error()
			s.log.Warn("update failed", zap.String("issue", upd.IssueKey), zap.Error(err))
		} else {
			res.Success = true
			res.Message = fmt.Sprintf("updated to %s hours", hours.Format(upd.NewHours))
		}
		results = append(results, res)
	}
	return results
}

// PlanLog parses an edited time-logging template into new worklog entries.
// Rows without hours are left for later runs; rows that fail validation are
// reported per issue key.
func (s *Service) PlanLog(path string) (entries []*models.WorklogEntry, invalid []string, err error) {
	rows, err := excel.ReadTemplate(path)
	if err != nil {
		return nil, nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	for _, r := range rows {
		if r.Hours == "" {
			continue
		}
		if !hours.ValidIssueKey(r.IssueKey) {
			invalid = append(invalid, fmt.Sprintf("%s: invalid issue key format", r.IssueKey))
			continue
		}
		h, err := hours.Parse(r.Hours)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s: %v", r.IssueKey, err))
			continue
		}
		if err := hours.Validate(h); err != nil {
			invalid = append(invalid, fmt.Sprintf("%s: %v", r.IssueKey, err))
			continue
		}

		date := today
		if r.Date != "" {
			date, err = hours.ParseDate(r.Date)
			if err != nil {
				invalid = append(invalid, fmt.Sprintf("%s: %v", r.IssueKey, err))
				continue
			}
		}

		entries = append(entries, &models.WorklogEntry{
			IssueKey: r.IssueKey,
			Hours:    h,
			Date:     date,
			Comment:  r.Comment,
		})
	}
	return entries, invalid, nil
}

// ApplyEntries creates new worklogs for template entries. Dry runs verify
// that each issue exists; real runs create the worklog.
func (s *Service) ApplyEntries(ctx context.Context, entries []*models.WorklogEntry, dryRun bool) []models.SyncResult {
	results := make([]models.SyncResult, 0, len(entries))
	for _, e := range entries {
		res := models.SyncResult{
			IssueKey:  e.IssueKey,
			Operation: models.OperationCreate,
		}

		if err := s.remote.IssueExists(ctx, e.IssueKey); err != nil {
			res.Message = err.Error()
			results = append(results, res)
			continue
		}

		if dryRun {
			res.Success = true
			res.Message = fmt.Sprintf("would log %s hours", hours.Format(e.Hours))
			results = append(results, res)
			continue
		}

		id, err := s.remote.CreateWorklog(ctx, e)
		if err != nil {
			res.Message = err.Error()
			s.log.Warn("create failed", zap.String("issue", e.IssueKey), zap.Error(err))
		} else {
			res.Success = true
			res.WorklogID = id
			res.Message = fmt.Sprintf("logged %s hours", hours.Format(e.Hours))
		}
		results = append(results, res)
	}
	return results
}

// Summarize counts result outcomes by operation.
func Summarize(results []models.SyncResult) (created, updated, failed int) {
	for _, r := range results {
		switch {
		case !r.Success:
			failed++
		case r.Operation == models.OperationCreate:
			created++
		default:
			updated++
		}
	}
	return created, updated, failed
}

// resolveJQL turns the export options into one JQL query: saved filters are
// resolved and OR-combined, otherwise the raw query is used as given.
func (s *Service) resolveJQL(ctx context.Context, opts ExportOptions) (string, error) {
	if len(opts.FilterIDs) > 0 {
		return s.remote.CombinedFilterJQL(ctx, opts.FilterIDs)
	}
	if opts.JQL != "" {
		return opts.JQL, nil
	}
	return "", fmt.Errorf("either a filter or a JQL query is required")
}

// fetchWorklogs retrieves worklogs per issue and filters them down to the
// requested time window and author. A failed fetch for one issue logs a
// warning and leaves that issue with a sentinel row.
func (s *Service) fetchWorklogs(ctx context.Context, issues []*models.Issue, opts ExportOptions) (map[string][]*models.Worklog, error) {
	var start, end time.Time
	switch opts.TimeRange {
	case RangeAll:
	case RangeCurrent:
		start, end = hours.MonthRange(s.now(), 0)
	case RangePrevious:
		start, end = hours.MonthRange(s.now(), -1)
	default:
		return nil, fmt.Errorf("invalid time range %q (expected %q or %q)", opts.TimeRange, RangeCurrent, RangePrevious)
	}

	var self *models.Identity
	if !opts.AllUsers {
		var err error
		self, err = s.remote.Self(ctx)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string][]*models.Worklog, len(issues))
	for _, is := range issues {
		entries, err := s.remote.Worklogs(ctx, is.Key)
		if err != nil {
			s.log.Warn("worklog fetch failed", zap.String("issue", is.Key), zap.Error(err))
			continue
		}
		for _, wl := range entries {
			if !start.IsZero() && (wl.Started.Before(start) || !wl.Started.Before(end)) {
				continue
			}
			if self != nil && !self.Matches(wl.Author) {
				continue
			}
			out[is.Key] = append(out[is.Key], wl)
		}
	}
	return out, nil
}
