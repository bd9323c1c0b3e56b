// Package report exports tracked time to an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

const (
	SummarySheet  = "Summary"
	SessionsSheet = "Sessions"

	timeLayout = "2006-01-02 15:04:05"
)

var (
	summaryHeaders  = []string{"Task", "Status", "Assignee", "Sessions", "Total", "Hours", "Active"}
	sessionsHeaders = []string{"Task", "Assignee", "Start", "End", "Duration", "Hours"}
)

// Build assembles the workbook. Totals count closed sessions only; an
// open session is flagged in the Active column.
func Build(tasks []model.Task, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(SessionsSheet); err != nil {
		return nil, fmt.Errorf("creating sessions sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := writeRows(f, SummarySheet, summaryHeaders, summaryRows(tasks), headerStyle); err != nil {
		return nil, err
	}
	if err := writeRows(f, SessionsSheet, sessionsHeaders, sessionRows(tasks), headerStyle); err != nil {
		return nil, err
	}

	// Generated-at footer, two rows below the summary table.
	footer := len(timetrack.Summarize(tasks)) + 3
	cell, _ := excelize.CoordinatesToCellName(1, footer)
	if err := f.SetCellValue(SummarySheet, cell, "Generated "+now.Format(timeLayout)); err != nil {
		return nil, fmt.Errorf("writing footer: %w", err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

func summaryRows(tasks []model.Task) [][]interface{} {
	sums := timetrack.Summarize(tasks)
	rows := make([][]interface{}, 0, len(sums))
	for _, s := range sums {
		active := "no"
		if s.Active {
			active = "yes"
		}
		rows = append(rows, []interface{}{
			s.TaskTitle,
			s.Status.Label(),
			s.User.DisplayName(),
			s.Sessions,
			timetrack.FormatDuration(s.Total),
			timetrack.Hours(s.Total),
			active,
		})
	}
	return rows
}

func sessionRows(tasks []model.Task) [][]interface{} {
	var rows [][]interface{}
	for _, t := range tasks {
		for _, tr := range t.TimeTracking {
			for _, s := range tr.Sessions {
				rows = append(rows, []interface{}{
					t.Title,
					tr.User.DisplayName(),
					s.StartTime.Format(timeLayout),
					s.EndTime.Format(timeLayout),
					timetrack.FormatDuration(s.Duration),
					timetrack.Hours(s.Duration),
				})
			}
		}
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", last, 18)
}

// WriteTimeReport writes the workbook for tasks to w.
func WriteTimeReport(w io.Writer, tasks []model.Task, now time.Time) error {
	f, err := Build(tasks, now)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing time report: %w", err)
	}
	return nil
}

// SaveTimeReport writes the workbook for tasks to path.
func SaveTimeReport(path string, tasks []model.Task, now time.Time) error {
	f, err := Build(tasks, now)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving time report to %s: %w", path, err)
	}
	return nil
}
