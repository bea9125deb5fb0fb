package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"scopustriage/internal/dataprocessing"
)

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = fmt.Errorf("no rows to export")

// resultSheet is the worksheet name of the exported review workbook.
const resultSheet = "New Articles"

// ExcelWriter renders review rows into a styled xlsx workbook. Rows
// flagged for manual review get a solid highlight fill on the department
// cell.
type ExcelWriter struct {
	highlightColor string
	logger         *slog.Logger
}

// NewExcelWriter creates an ExcelWriter. color is an RGB hex string like
// "FFFF00"; empty selects yellow.
func NewExcelWriter(color string, logger *slog.Logger) *ExcelWriter {
	if color == "" {
		color = "FFFF00"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{
		highlightColor: color,
		logger:         logger.With(slog.String("component", "excel_writer")),
	}
}

// Write renders rows into w as an xlsx workbook. The header row is
// always written; an empty row set is an error so the caller can tell the
// user instead of handing them a blank file.
func (e *ExcelWriter) Write(w io.Writer, rows []dataprocessing.ResultRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), resultSheet)

	if err := f.SetSheetRow(resultSheet, "A1", &dataprocessing.ResultColumns); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{e.highlightColor},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create highlight style: %w", err)
	}

	flagged := 0
	for i, row := range rows {
		// Row 1 is the header.
		cells := rowValues(row)
		anchor, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(resultSheet, anchor, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}

		if row.Flagged {
			if err := f.SetCellStyle(resultSheet, anchor, anchor, highlight); err != nil {
				return fmt.Errorf("failed to style row %d: %w", i+2, err)
			}
			flagged++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("review workbook written",
		slog.Int("rows", len(rows)),
		slog.Int("flagged", flagged))

	return nil
}

// rowValues lays out one result row in the united column order. The last
// four bookkeeping columns stay blank for manual entry.
func rowValues(row dataprocessing.ResultRow) []interface{} {
	year := ""
	if row.Year != 0 {
		year = strconv.Itoa(row.Year)
	}
	return []interface{}{
		row.Department,
		row.AffiliatedAuthors,
		row.AllAuthors,
		row.AuthorFullNames,
		row.Title,
		year,
		row.SourceTitle,
		row.Volume,
		row.Issue,
		row.ArtNo,
		row.PageStart,
		row.PageEnd,
		row.PageCount,
		row.Source,
		"", // Təqdimat
		"", // Data
		"", // Amount
		"", // Quartil
	}
}

// BuildFilename composes the download filename from the selected years
// and a timestamp, e.g. "new_articles_2024-2025_2026-08-30_15-04-05.xlsx".
func BuildFilename(years []int, now time.Time) string {
	yearPart := "all_years"
	if len(years) > 0 {
		sorted := append([]int(nil), years...)
		sort.Ints(sorted)
		parts := make([]string, len(sorted))
		for i, y := range sorted {
			parts[i] = strconv.Itoa(y)
		}
		yearPart = strings.Join(parts, "-")
	}
	return fmt.Sprintf("new_articles_%s_%s.xlsx", yearPart, now.Format("2006-01-02_15-04-05"))
}
