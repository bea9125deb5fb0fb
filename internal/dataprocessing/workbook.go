package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MissingColumnError reports a workbook without a required column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// SheetNotFoundError reports a workbook without the requested sheet.
type SheetNotFoundError struct {
	Sheet string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found in workbook", e.Sheet)
}

// ErrEmptyWorkbook is returned when a workbook has no data rows.
var ErrEmptyWorkbook = fmt.Errorf("workbook contains no data rows")

// headerAliases maps the column keys used internally to the header texts
// they may appear under. Comparison is case-insensitive on trimmed text.
var headerAliases = map[string][]string{
	"authors":           {"Authors"},
	"author_full_names": {"Author full names", "Author Full Names"},
	"affiliations":      {"Authors with affiliations", "Authors with Affiliations"},
	"title":             {"Title"},
	"year":              {"Year"},
	"source_title":      {"Source title", "Source Title"},
	"volume":            {"Volume"},
	"issue":             {"Issue"},
	"art_no":            {"Art. No.", "Art No"},
	"page_start":        {"Page start", "Page Start"},
	"page_end":          {"Page end", "Page End"},
	"page_count":        {"Page count", "Page Count"},
}

// maxHeaderScanRows bounds the search for the header row; real exports
// put it in the first row but united workbooks sometimes carry a banner
// row or two above it.
const maxHeaderScanRows = 10

// ReadArticles parses a Scopus export or united workbook into articles.
// filename decides the format: .csv is read as UTF-8 CSV, anything else
// goes through excelize. sheet selects the worksheet; when empty the
// first sheet is used. A named sheet that does not exist is an error only
// if explicitSheet is set, otherwise the first sheet is the fallback.
func ReadArticles(r io.Reader, filename, sheet string, explicitSheet bool) ([]Article, error) {
	rows, err := readRows(r, filename, sheet, explicitSheet)
	if err != nil {
		return nil, err
	}
	return articlesFromRows(rows)
}

// readRows loads the raw cell grid from a CSV stream or workbook.
func readRows(r io.Reader, filename, sheet string, explicitSheet bool) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return readCSVRows(r)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	name, err := resolveSheet(f, sheet, explicitSheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	return rows, nil
}

// resolveSheet picks the worksheet to read. Sheet names are matched
// ignoring surrounding whitespace, which Excel preserves but users never
// type.
func resolveSheet(f *excelize.File, sheet string, explicit bool) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptyWorkbook
	}

	if sheet == "" {
		return sheets[0], nil
	}

	want := strings.TrimSpace(sheet)
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return name, nil
		}
	}

	if explicit {
		return "", &SheetNotFoundError{Sheet: sheet}
	}
	return sheets[0], nil
}

// readCSVRows reads a CSV stream, tolerating a UTF-8 BOM and ragged rows.
func readCSVRows(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

// articlesFromRows locates the header row, maps column positions and
// parses every following row into an Article. Rows without a title are
// skipped; exports pad the tail of the sheet with empty rows.
func articlesFromRows(rows [][]string) ([]Article, error) {
	headerRow, columns := findHeader(rows)
	if headerRow == -1 {
		return nil, &MissingColumnError{Column: "Title"}
	}

	cell := func(row []string, key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var articles []Article
	for _, row := range rows[headerRow+1:] {
		title := cell(row, "title")
		if title == "" {
			continue
		}

		articles = append(articles, Article{
			Authors:                 cell(row, "authors"),
			AuthorFullNames:         cell(row, "author_full_names"),
			AuthorsWithAffiliations: cell(row, "affiliations"),
			Title:                   title,
			Year:                    parseYear(cell(row, "year")),
			SourceTitle:             cell(row, "source_title"),
			Volume:                  cell(row, "volume"),
			Issue:                   cell(row, "issue"),
			ArtNo:                   cell(row, "art_no"),
			PageStart:               cell(row, "page_start"),
			PageEnd:                 cell(row, "page_end"),
			PageCount:               cell(row, "page_count"),
		})
	}

	return articles, nil
}

// findHeader scans the leading rows for one containing a Title header and
// returns its index plus the column-position map.
func findHeader(rows [][]string) (int, map[string]int) {
	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	for i := 0; i < limit; i++ {
		columns := mapColumns(rows[i])
		if _, ok := columns["title"]; ok {
			return i, columns
		}
	}
	return -1, nil
}

// mapColumns matches header cells against the known aliases. First match
// wins per key.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for idx, cell := range header {
		text := strings.TrimSpace(cell)
		if text == "" {
			continue
		}
		for key, aliases := range headerAliases {
			if _, taken := columns[key]; taken {
				continue
			}
			for _, alias := range aliases {
				if strings.EqualFold(text, alias) {
					columns[key] = idx
					break
				}
			}
		}
	}
	return columns
}

// parseYear parses a year cell. Exports sometimes format years as floats
// ("2024.0"), so integer parsing falls back to float truncation.
func parseYear(s string) int {
	if s == "" {
		return 0
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// directoryAliases are the header texts of the department mapping
// workbook. "Departament" is the spelling the united workbook has always
// used; the corrected spelling is accepted too.
var directoryAliases = map[string][]string{
	"author":     {"Author Name", "Author name", "Author"},
	"department": {"Departament", "Department"},
}

// ReadDirectory parses the department mapping workbook. The expected
// columns are "Author Name" and "Departament". A nil reader yields an
// empty directory, matching the upload being optional.
func ReadDirectory(r io.Reader, filename string) (*Directory, error) {
	if r == nil {
		return NewDirectory(nil), nil
	}

	rows, err := readRows(r, filename, "", false)
	if err != nil {
		return nil, err
	}

	headerRow := -1
	var columns map[string]int
	sawAuthor := false
	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}
	for i := 0; i < limit; i++ {
		cols := make(map[string]int)
		for idx, cell := range rows[i] {
			text := strings.TrimSpace(cell)
			for key, aliases := range directoryAliases {
				if _, taken := cols[key]; taken {
					continue
				}
				for _, alias := range aliases {
					if strings.EqualFold(text, alias) {
						cols[key] = idx
						break
					}
				}
			}
		}
		if _, okA := cols["author"]; okA {
			sawAuthor = true
			if _, okD := cols["department"]; okD {
				headerRow = i
				columns = cols
				break
			}
		}
	}

	if headerRow == -1 {
		missing := "Author Name"
		if sawAuthor {
			missing = "Departament"
		}
		return nil, &MissingColumnError{Column: missing}
	}

	var pairs [][2]string
	for _, row := range rows[headerRow+1:] {
		var author, dept string
		if idx := columns["author"]; idx < len(row) {
			author = strings.TrimSpace(row[idx])
		}
		if idx := columns["department"]; idx < len(row) {
			dept = strings.TrimSpace(row[idx])
		}
		if author == "" {
			continue
		}
		pairs = append(pairs, [2]string{author, dept})
	}

	return NewDirectory(pairs), nil
}
