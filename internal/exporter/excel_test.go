package exporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"scopustriage/internal/dataprocessing"
)

func sampleRows() []dataprocessing.ResultRow {
	return []dataprocessing.ResultRow{
		{
			Department:        "Computer Science",
			AffiliatedAuthors: "Mammadov, E.",
			AllAuthors:        "Mammadov E.; Smith J.",
			AuthorFullNames:   "Mammadov, Elchin (57191234567); Smith, John (35607841200)",
			Title:             "Transfer Learning for Low-Resource Languages",
			Year:              2024,
			SourceTitle:       "Computational Linguistics",
			Volume:            "12",
			Source:            "Scopus",
		},
		{
			AffiliatedAuthors: "Aliyeva, N.",
			Title:             "Oil Price Shocks and the Azerbaijani Economy",
			Year:              2024,
			Source:            "Scopus",
			Flagged:           true,
			Reason:            dataprocessing.ReasonNotFound,
		},
	}
}

func TestExcelWriterWrite(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter("FFFF00", nil)
	require.NoError(t, writer.Write(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"New Articles"}, f.GetSheetList())

	rows, err := f.GetRows("New Articles")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, dataprocessing.ResultColumns, rows[0][:len(dataprocessing.ResultColumns)])

	assert.Equal(t, "Computer Science", rows[1][0])
	assert.Equal(t, "Mammadov, E.", rows[1][1])
	assert.Equal(t, "Transfer Learning for Low-Resource Languages", rows[1][4])
	assert.Equal(t, "2024", rows[1][5])
	assert.Equal(t, "Scopus", rows[1][13])

	// Flagged row has an empty department.
	assert.Equal(t, "", rows[2][0])
}

func TestExcelWriterHighlightsFlaggedRows(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter("FFFF00", nil)
	require.NoError(t, writer.Write(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	plain, err := f.GetCellStyle("New Articles", "A2")
	require.NoError(t, err)
	flagged, err := f.GetCellStyle("New Articles", "A3")
	require.NoError(t, err)
	assert.NotEqual(t, plain, flagged, "flagged department cell should carry the highlight style")

	style, err := f.GetStyle(flagged)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color)
	assert.Contains(t, style.Fill.Color[0], "FFFF00")
}

func TestExcelWriterRejectsEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter("", nil)
	assert.ErrorIs(t, writer.Write(&buf, nil), ErrNoRows)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "CSV should start with a UTF-8 BOM")
	assert.Contains(t, out, "Departament,Authors,Authors.1")
	assert.Contains(t, out, "Transfer Learning for Low-Resource Languages")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		years []int
		want  string
	}{
		{
			name:  "no years",
			years: nil,
			want:  "new_articles_all_years_2026-08-30_15-04-05.xlsx",
		},
		{
			name:  "single year",
			years: []int{2024},
			want:  "new_articles_2024_2026-08-30_15-04-05.xlsx",
		},
		{
			name:  "years are sorted",
			years: []int{2025, 2023},
			want:  "new_articles_2023-2025_2026-08-30_15-04-05.xlsx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilename(tt.years, now))
		})
	}
}
