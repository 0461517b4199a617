package main

import (
	"fmt"
	"strings"

	"violence-scanner/internal/domain"
)

// renderScanSnapshot prints the final scan state as a two-column table.
func renderScanSnapshot(snap domain.Snapshot, color bool) string {
	rows := make([][]string, 0, 6)
	if snap.File != nil {
		rows = append(rows,
			[]string{"File", snap.File.Name},
			[]string{"Size", formatBytes(snap.File.Size)},
		)
	}
	rows = append(rows, []string{"Status", colorize(strings.ToUpper(string(snap.Status)), statusColor(snap), color)})

	switch {
	case snap.Error != "":
		rows = append(rows, []string{"Error", snap.Error})
	case snap.Result != nil && !snap.Result.IsStopped():
		rows = append(rows,
			[]string{"Label", snap.Result.Label},
			[]string{"Confidence", fmt.Sprintf("%d%%", snap.Result.ConfidencePercent())},
		)
		if snap.Result.FramesAnalyzed > 0 {
			rows = append(rows, []string{"Frames", fmt.Sprintf("%d", snap.Result.FramesAnalyzed)})
		}
	}
	if snap.Message != "" {
		rows = append(rows, []string{"Result", snap.Message})
	}

	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

func statusColor(snap domain.Snapshot) string {
	switch {
	case snap.Status == domain.StatusError:
		return ansiRed
	case snap.Result.IsStopped():
		return ansiYellow
	case snap.Result.IsViolent():
		return ansiRed
	case snap.Status == domain.StatusCompleted:
		return ansiGreen
	default:
		return ""
	}
}

// renderDiagnostics prints one row per diagnostic check.
func renderDiagnostics(report domain.DiagnosticReport, color bool) string {
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		rows = append(rows, []string{
			item.Name,
			colorize(strings.ToUpper(string(item.Status)), diagnosticColor(item.Status), color),
			item.Message,
			item.Hint,
		})
	}
	return renderTable([]string{"Check", "Status", "Detail", "Hint"}, rows, nil)
}

func diagnosticColor(status domain.DiagnosticStatus) string {
	switch status {
	case domain.DiagnosticStatusPass:
		return ansiGreen
	case domain.DiagnosticStatusWarn:
		return ansiYellow
	case domain.DiagnosticStatusFail:
		return ansiRed
	default:
		return ""
	}
}
