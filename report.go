package snap2print

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// reportSheet is the worksheet name of the job report.
const reportSheet = "Jobs"

// maxReportError bounds error messages in report cells.
const maxReportError = 300

// WriteReport writes an XLSX summary of jobs to w: one row per job with
// its source, status, attempts, last error and timestamps.
func WriteReport(w io.Writer, jobs []Job) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"#", "ID", "Source", "Status", "Mode", "Attempts", "Has Solution", "Error", "Updated"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportSheet, cell, h)
	}

	for i, j := range jobs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(reportSheet, cell, v)
		}
		write(1, i+1)
		write(2, j.ID)
		write(3, j.Name)
		write(4, string(j.Status))
		write(5, string(j.Mode))
		write(6, j.Attempts)
		write(7, j.Solution != "")
		write(8, truncate(j.Err, maxReportError))
		if !j.UpdatedAt.IsZero() {
			write(9, j.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
		}
	}

	_ = f.SetColWidth(reportSheet, "A", "A", 5)
	_ = f.SetColWidth(reportSheet, "B", "B", 38)
	_ = f.SetColWidth(reportSheet, "C", "C", 30)
	_ = f.SetColWidth(reportSheet, "D", "G", 14)
	_ = f.SetColWidth(reportSheet, "H", "H", 60)
	_ = f.SetColWidth(reportSheet, "I", "I", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
