// Package excel owns the .xlsx layout: sheet structure, headers, styling,
// and column widths. The pipeline exchanges named-column row structs with
// this package and never touches cells directly.
package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mkazmier/worklog/internal/models"
)

// Sheet names. Data lives on one sheet per workbook kind; every workbook
// also carries an Instructions sheet.
const (
	TemplateSheet     = "Work Logs"
	SummarySheet      = "Worklog Summary"
	instructionsSheet = "Instructions"
)

var templateHeaders = []string{
	"Issue Key", "Summary", "Type", "Time Logged (hours)", "Date", "Comment", "Status",
}

var summaryHeaders = []string{
	"No", "Worklog ID", "Issue Key", "Summary", "Type", "Parent Key", "Parent Type",
	"Time Logged (hours)", "Original Time (hours)", "Date", "Comment",
	"Original Comment", "Author", "Status",
}

// Original-value columns on the summary sheet, shaded to signal read-only.
var summaryOriginalCols = []string{"I", "L"}

var templateInstructions = []string{
	"How to log time:",
	"",
	"1. Fill in 'Time Logged (hours)' with decimal hours, e.g. 1.5 for 90 minutes.",
	"2. Fill in 'Date' as YYYY-MM-DD. Leave blank to use today's date.",
	"3. Add an optional comment describing the work.",
	"4. Leave rows blank for issues you did not work on.",
	"5. Run the import command against this file to push entries to Jira.",
	"",
	"Hours must be greater than 0 and at most 24 per entry.",
}

var summaryInstructions = []string{
	"How to correct logged time:",
	"",
	"1. Edit 'Time Logged (hours)' and/or 'Comment' on any row.",
	"2. Do not edit the 'Original ...' columns; they record what Jira held at export time.",
	"3. Do not edit 'Worklog ID' or 'Issue Key'; they identify the entry to update.",
	"4. Rows with status 'No Time Logged' have no entry to update and are ignored.",
	"5. Run the import command against this file; only changed rows are pushed.",
	"",
	"Hours must be greater than 0 and at most 24 per entry.",
}

// WriteTemplate renders a blank time-logging template, one row per issue.
func WriteTemplate(path string, rows []models.TemplateRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setupSheet(f, TemplateSheet, templateHeaders); err != nil {
		return err
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{r.IssueKey, r.Summary, r.Type, r.Hours, r.Date, r.Comment, r.Status}
		if err := f.SetSheetRow(TemplateSheet, cell, &values); err != nil {
			return fmt.Errorf("write template row %d: %w", i+2, err)
		}
	}

	widths := map[string]float64{"A": 14, "B": 50, "C": 12, "D": 18, "E": 12, "F": 40, "G": 16}
	if err := setColWidths(f, TemplateSheet, widths); err != nil {
		return err
	}
	if err := writeInstructions(f, templateInstructions); err != nil {
		return err
	}
	return save(f, path)
}

// WriteSummary renders the worklog summary sheet, one row per worklog entry
// (or sentinel), with original-value columns shaded gray.
func WriteSummary(path string, rows []models.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setupSheet(f, SummarySheet, summaryHeaders); err != nil {
		return err
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			r.Number, r.WorklogID, r.IssueKey, r.Summary, r.Type, r.ParentKey,
			r.ParentType, r.Hours, r.OriginalHours, r.Date, r.Comment,
			r.OriginalComment, r.Author, r.Status,
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+2, err)
		}
	}

	if len(rows) > 0 {
		gray, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create shade style: %w", err)
		}
		last := len(rows) + 1
		for _, col := range summaryOriginalCols {
			if err := f.SetCellStyle(SummarySheet, col+"2", fmt.Sprintf("%s%d", col, last), gray); err != nil {
				return fmt.Errorf("shade column %s: %w", col, err)
			}
		}
	}

	widths := map[string]float64{
		"A": 8, "B": 12, "C": 14, "D": 50, "E": 12, "F": 12, "G": 12,
		"H": 18, "I": 18, "J": 12, "K": 40, "L": 40, "M": 20, "N": 16,
	}
	if err := setColWidths(f, SummarySheet, widths); err != nil {
		return err
	}
	if err := writeInstructions(f, summaryInstructions); err != nil {
		return err
	}
	return save(f, path)
}

// ReadTemplate parses an edited template workbook back into rows. Fully
// blank rows are dropped; partially filled rows pass through for the caller
// to validate.
func ReadTemplate(path string) ([]models.TemplateRow, error) {
	raw, err := readSheet(path, TemplateSheet)
	if err != nil {
		return nil, err
	}

	var out []models.TemplateRow
	for _, cells := range raw {
		r := models.TemplateRow{
			IssueKey: cell(cells, 0),
			Summary:  cell(cells, 1),
			Type:     cell(cells, 2),
			Hours:    cell(cells, 3),
			Date:     cell(cells, 4),
			Comment:  cell(cells, 5),
			Status:   cell(cells, 6),
		}
		if r.IssueKey == "" && r.Hours == "" && r.Comment == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ReadSummary parses an edited summary workbook back into rows in sheet
// order, preserving even rows the diff engine will later skip so its row
// numbering matches what the user sees.
func ReadSummary(path string) ([]models.SummaryRow, error) {
	raw, err := readSheet(path, SummarySheet)
	if err != nil {
		return nil, err
	}

	out := make([]models.SummaryRow, 0, len(raw))
	for _, cells := range raw {
		out = append(out, models.SummaryRow{
			Number:          cell(cells, 0),
			WorklogID:       cell(cells, 1),
			IssueKey:        cell(cells, 2),
			Summary:         cell(cells, 3),
			Type:            cell(cells, 4),
			ParentKey:       cell(cells, 5),
			ParentType:      cell(cells, 6),
			Hours:           cell(cells, 7),
			OriginalHours:   cell(cells, 8),
			Date:            cell(cells, 9),
			Comment:         cell(cells, 10),
			OriginalComment: cell(cells, 11),
			Author:          cell(cells, 12),
			Status:          cell(cells, 13),
		})
	}
	return out, nil
}

// setupSheet creates the data sheet with a styled header row and removes the
// default sheet excelize seeds new workbooks with.
func setupSheet(f *excelize.File, name string, headers []string) error {
	idx, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &values); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(name, "A1", end, style); err != nil {
		return fmt.Errorf("style header row: %w", err)
	}
	return nil
}

func writeInstructions(f *excelize.File, lines []string) error {
	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellStr(instructionsSheet, cell, line); err != nil {
			return fmt.Errorf("write instructions: %w", err)
		}
	}
	return f.SetColWidth(instructionsSheet, "A", "A", 90)
}

func setColWidths(f *excelize.File, sheet string, widths map[string]float64) error {
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}
	return nil
}

func save(f *excelize.File, path string) error {
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// readSheet returns the data rows of a sheet, header excluded, with cell
// text trimmed.
func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q not found in %s: %w", sheet, path, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// cell fetches a column by index, tolerating the short rows excelize returns
// when trailing cells are empty.
func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
