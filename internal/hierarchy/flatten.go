package hierarchy

import (
	"fmt"
	"strings"

	"github.com/mkazmier/worklog/internal/hours"
	"github.com/mkazmier/worklog/internal/models"
)

const (
	indentUnit = "    "
	connector  = "└─ "
)

// Flatten renders the resolved groups into ordered summary rows: a stable
// pre-order walk of each Epic's subtree, followed by orphan buckets as flat
// unnumbered sections. Each visited issue contributes one row per worklog,
// or exactly one zero-time sentinel row when it has none.
//
// Epics are numbered by their 1-based position among all Epic groups; a
// child's number is its parent's number plus its 1-based sibling index
// ("3", "3.1", "3.1.1").
func Flatten(groups []*Group, worklogs map[string][]*models.Worklog) []models.SummaryRow {
	var rows []models.SummaryRow
	epicIndex := 0

	for _, g := range groups {
		if g.Orphan() {
			for _, is := range g.Children {
				rows = appendIssueRows(rows, is, "", is.Title(), worklogs)
			}
			continue
		}

		epicIndex++
		number := fmt.Sprintf("%d", epicIndex)
		visited := make(map[string]bool)
		rows = flattenNode(rows, g, g.Epic, number, 0, visited, worklogs)
	}

	return rows
}

// Flat renders issues as an ungrouped row list in retrieval order, with no
// hierarchy numbers or indentation.
func Flat(issues []*models.Issue, worklogs map[string][]*models.Worklog) []models.SummaryRow {
	var rows []models.SummaryRow
	for _, is := range issues {
		rows = appendIssueRows(rows, is, "", is.Title(), worklogs)
	}
	return rows
}

// flattenNode emits the rows for one issue and recurses into its children.
// The visited set is shared across the whole group walk and, together with
// the depth ceiling, silently truncates cyclic or pathological subtrees.
func flattenNode(rows []models.SummaryRow, g *Group, is *models.Issue, number string, depth int, visited map[string]bool, worklogs map[string][]*models.Worklog) []models.SummaryRow {
	if depth > MaxDepth || visited[is.Key] {
		return rows
	}
	visited[is.Key] = true
	is.Depth = depth

	rows = appendIssueRows(rows, is, number, displayTitle(is, depth), worklogs)

	var children []*models.Issue
	if depth == 0 {
		children = g.Children
	} else {
		children = g.ChildrenOf[is.Key]
	}
	for i, child := range children {
		childNumber := fmt.Sprintf("%s.%d", number, i+1)
		rows = flattenNode(rows, g, child, childNumber, depth+1, visited, worklogs)
	}
	return rows
}

// displayTitle indents the title by depth below the Epic and annotates
// first-level children with their parent's type. Deeper levels omit the
// annotation; their position already implies it.
func displayTitle(is *models.Issue, depth int) string {
	title := is.Title()
	switch {
	case depth == 0:
		return title
	case depth == 1:
		if is.ParentType != "" {
			title = fmt.Sprintf("%s (%s)", title, is.ParentType)
		}
		return connector + title
	default:
		return strings.Repeat(indentUnit, depth-1) + connector + title
	}
}

// appendIssueRows emits one row per worklog on the issue, or a single
// sentinel row marking that nothing is logged.
func appendIssueRows(rows []models.SummaryRow, is *models.Issue, number, title string, worklogs map[string][]*models.Worklog) []models.SummaryRow {
	entries := worklogs[is.Key]
	if len(entries) == 0 {
		rows = append(rows, sentinelRow(is, number, title))
		return rows
	}
	for _, wl := range entries {
		h := hours.Format(hours.FromSeconds(wl.TimeSpentSeconds))
		rows = append(rows, models.SummaryRow{
			Number:          number,
			WorklogID:       wl.ID,
			IssueKey:        is.Key,
			Summary:         title,
			Type:            string(is.Type),
			ParentKey:       is.ParentKey,
			ParentType:      string(is.ParentType),
			Hours:           h,
			OriginalHours:   h,
			Date:            hours.FormatDate(wl.Started),
			Comment:         wl.Comment,
			OriginalComment: wl.Comment,
			Author:          wl.Author,
			Status:          models.RowStatusOriginal,
		})
	}
	return rows
}

func sentinelRow(is *models.Issue, number, title string) models.SummaryRow {
	return models.SummaryRow{
		Number:        number,
		IssueKey:      is.Key,
		Summary:       title,
		Type:          string(is.Type),
		ParentKey:     is.ParentKey,
		ParentType:    string(is.ParentType),
		Hours:         "0",
		OriginalHours: "0",
		Status:        models.RowStatusNoTime,
	}
}
