package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX report.
const (
	SheetSummary = "Summary"
	SheetPages   = "Pages"
	SheetIssues  = "Issues"
)

// XLSXWriter renders the report as a workbook with summary, page and issue sheets.
type XLSXWriter struct{}

// Write builds the workbook and streams it to w.
func (XLSXWriter) Write(w io.Writer, r *Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPages); err != nil {
		return fmt.Errorf("create pages sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetIssues); err != nil {
		return fmt.Errorf("create issues sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	summary := [][]any{
		{"Property", "Value"},
		{"Run ID", r.RunID},
		{"Mode", string(r.Mode)},
		{"Seeds", joinOrDash(r.Seeds)},
		{"Started", formatTime(r.StartedAt)},
		{"Finished", formatTime(r.FinishedAt)},
		{"Degraded", r.Degraded},
		{"Total URLs", r.Summary.TotalURLs},
		{"URLs with issues", r.Summary.URLsWithIssues},
		{"Total issues", r.Summary.TotalIssues},
		{"Errors", r.Summary.Errors},
		{"Warnings", r.Summary.Warnings},
	}
	if err := writeRows(f, SheetSummary, summary, header); err != nil {
		return err
	}

	pages := [][]any{{"URL", "Status", "Status Code", "Final URL", "Duration (ms)", "SEO Issues", "Best Practice Issues", "Broken Links"}}
	for _, page := range r.Pages {
		pages = append(pages, []any{
			page.URL,
			string(page.Outcome.Status),
			page.Outcome.StatusCode,
			page.Outcome.FinalURL,
			page.Outcome.DurationMs,
			len(page.SEOIssues),
			len(page.BestPracticeIssues),
			len(page.BrokenLinks),
		})
	}
	if err := writeRows(f, SheetPages, pages, header); err != nil {
		return err
	}

	issues := [][]any{{"URL", "Category", "Severity", "Message"}}
	for _, row := range r.Issues() {
		issues = append(issues, []any{row.URL, row.Category, row.Severity, row.Message})
	}
	if err := writeRows(f, SheetIssues, issues, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 60); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}
