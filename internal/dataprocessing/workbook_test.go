package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows into a single-sheet workbook and returns the
// serialized bytes.
func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheet)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func scopusHeader() []interface{} {
	return []interface{}{
		"Authors", "Author full names", "Title", "Year", "Source title",
		"Volume", "Issue", "Art. No.", "Page start", "Page end", "Page count",
		"Authors with affiliations",
	}
}

func TestReadArticles(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1", [][]interface{}{
		scopusHeader(),
		{
			"Mammadov E.", "Mammadov, Elchin (57191234567)",
			"Transfer Learning for Low-Resource Languages", 2024,
			"Computational Linguistics", "12", "3", "e1024", "15", "29", "15",
			"Mammadov, Elchin, Khazar University, Baku",
		},
	})

	articles, err := ReadArticles(buf, "export.xlsx", "", false)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Mammadov E.", a.Authors)
	assert.Equal(t, "Transfer Learning for Low-Resource Languages", a.Title)
	assert.Equal(t, 2024, a.Year)
	assert.Equal(t, "Computational Linguistics", a.SourceTitle)
	assert.Equal(t, "e1024", a.ArtNo)
	assert.Equal(t, "Mammadov, Elchin, Khazar University, Baku", a.AuthorsWithAffiliations)
}

func TestReadArticlesHeaderBelowBanner(t *testing.T) {
	buf := buildWorkbook(t, "Last", [][]interface{}{
		{"United database of publications"},
		{},
		scopusHeader(),
		{"A", "", "Some Title", 2023},
	})

	articles, err := ReadArticles(buf, "united.xlsx", "Last", true)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Some Title", articles[0].Title)
	assert.Equal(t, 2023, articles[0].Year)
}

func TestReadArticlesSkipsTitlelessRows(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1", [][]interface{}{
		scopusHeader(),
		{"A", "", "Real Title", 2024},
		{"B", "", "", 2024},
		{},
	})

	articles, err := ReadArticles(buf, "export.xlsx", "", false)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestReadArticlesMissingTitleColumn(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"Authors", "Year"},
		{"A", 2024},
	})

	_, err := ReadArticles(buf, "export.xlsx", "", false)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Title", missing.Column)
}

func TestReadArticlesSheetSelection(t *testing.T) {
	t.Run("named sheet is matched ignoring case and spaces", func(t *testing.T) {
		buf := buildWorkbook(t, " last ", [][]interface{}{
			scopusHeader(),
			{"A", "", "Title On Last", 2024},
		})

		articles, err := ReadArticles(buf, "united.xlsx", "Last", true)
		require.NoError(t, err)
		require.Len(t, articles, 1)
	})

	t.Run("missing sheet falls back to first when not explicit", func(t *testing.T) {
		buf := buildWorkbook(t, "Sheet1", [][]interface{}{
			scopusHeader(),
			{"A", "", "Fallback Title", 2024},
		})

		articles, err := ReadArticles(buf, "united.xlsx", "Last", false)
		require.NoError(t, err)
		require.Len(t, articles, 1)
	})

	t.Run("missing explicit sheet is an error", func(t *testing.T) {
		buf := buildWorkbook(t, "Sheet1", [][]interface{}{
			scopusHeader(),
			{"A", "", "Fallback Title", 2024},
		})

		_, err := ReadArticles(buf, "united.xlsx", "Nope", true)
		var notFound *SheetNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Nope", notFound.Sheet)
	})
}

func TestReadArticlesCSV(t *testing.T) {
	csv := "\xEF\xBB\xBF" + // UTF-8 BOM, as Scopus CSV exports carry
		"Authors,Title,Year,Source title\n" +
		`"Mammadov E.","Transfer Learning, Revisited",2024,Journal` + "\n"

	articles, err := ReadArticles(strings.NewReader(csv), "export.csv", "", false)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Transfer Learning, Revisited", articles[0].Title)
	assert.Equal(t, 2024, articles[0].Year)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"2024", 2024},
		{"2024.0", 2024},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseYear(tt.input), "parseYear(%q)", tt.input)
	}
}

func TestReadDirectory(t *testing.T) {
	t.Run("parses author and department columns", func(t *testing.T) {
		buf := buildWorkbook(t, "Sheet1", [][]interface{}{
			{"Author Name", "Departament"},
			{"Mammadov, E.", "Computer Science"},
			{"Aliyeva, N.", "Economics"},
			{"", "Orphan Department"},
		})

		d, err := ReadDirectory(buf, "departments.xlsx")
		require.NoError(t, err)
		assert.Equal(t, 2, d.Len())
		assert.Equal(t, "Computer Science", d.MapDepartments("Mammadov, E.").Department)
	})

	t.Run("accepts corrected department spelling", func(t *testing.T) {
		buf := buildWorkbook(t, "Sheet1", [][]interface{}{
			{"Author", "Department"},
			{"Mammadov, E.", "Computer Science"},
		})

		d, err := ReadDirectory(buf, "departments.xlsx")
		require.NoError(t, err)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("nil reader yields empty directory", func(t *testing.T) {
		d, err := ReadDirectory(nil, "")
		require.NoError(t, err)
		assert.Equal(t, 0, d.Len())
	})

	t.Run("reports the column that is actually absent", func(t *testing.T) {
		tests := []struct {
			name    string
			header  []interface{}
			missing string
		}{
			{"no department column", []interface{}{"Author Name", "Faculty"}, "Departament"},
			{"no author column", []interface{}{"Name", "Departament"}, "Author Name"},
			{"neither column", []interface{}{"Name", "Faculty"}, "Author Name"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				buf := buildWorkbook(t, "Sheet1", [][]interface{}{
					tt.header,
					{"Mammadov, E.", "Computer Science"},
				})

				_, err := ReadDirectory(buf, "departments.xlsx")
				var missing *MissingColumnError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tt.missing, missing.Column)
			})
		}
	})
}
