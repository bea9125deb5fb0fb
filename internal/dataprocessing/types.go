package dataprocessing

// Article is one bibliographic record from a Scopus export or from the
// united master list. String fields hold the cell text as read; Year is
// parsed, 0 when the cell is empty or not a number.
type Article struct {
	Authors                 string `json:"authors"`
	AuthorFullNames         string `json:"author_full_names"`
	AuthorsWithAffiliations string `json:"authors_with_affiliations"`
	Title                   string `json:"title"`
	Year                    int    `json:"year"`
	SourceTitle             string `json:"source_title"`
	Volume                  string `json:"volume"`
	Issue                   string `json:"issue"`
	ArtNo                   string `json:"art_no"`
	PageStart               string `json:"page_start"`
	PageEnd                 string `json:"page_end"`
	PageCount               string `json:"page_count"`
}

// DuplicateInfo records a source article that matched an existing title.
type DuplicateInfo struct {
	SourceTitle  string `json:"source_title"`
	MatchedTitle string `json:"matched_title"`
	Similarity   int    `json:"similarity"`
}

// AuthorSet is the outcome of affiliation filtering for one article.
// All three name lists are "; "-joined and ordered as the authors appear
// in the affiliation column.
type AuthorSet struct {
	Short   string `json:"short"`    // "Mammadov, E.; Aliyeva, L."
	Full    string `json:"full"`     // "Mammadov, Elchin; Aliyeva, Leyla"
	WithIDs string `json:"with_ids"` // "Mammadov, Elchin (57191234567); ..."
	Count   int    `json:"count"`
}

// HighlightReason explains why a result row needs manual review.
type HighlightReason string

const (
	ReasonNone     HighlightReason = ""
	ReasonNotFound HighlightReason = "not_found"
	ReasonMultiple HighlightReason = "multiple"
)

// Assignment is the department lookup outcome for one article's authors.
type Assignment struct {
	Department string          `json:"department"`
	Flagged    bool            `json:"flagged"`
	Reason     HighlightReason `json:"reason,omitempty"`
	Missing    []string        `json:"missing,omitempty"`
}

// Options configures a review run. The zero value is not useful; start
// from a config.ProcessingConfig and apply the form overrides.
type Options struct {
	Threshold           int      `json:"threshold" validate:"gte=0,lte=100"`
	Years               []int    `json:"years,omitempty" validate:"dive,gte=1900,lte=2100"`
	TitleExcludes       []string `json:"title_excludes,omitempty"`
	AffiliationKeywords []string `json:"affiliation_keywords" validate:"required,min=1"`
	AffiliationExcludes []string `json:"affiliation_excludes,omitempty"`
}

// Stats counts the rows entering and leaving each pipeline step.
type Stats struct {
	SourceTotal         int `json:"source_total"`
	UnitedTotal         int `json:"united_total"`
	SourceAfterYear     int `json:"source_after_year"`
	UnitedAfterYear     int `json:"united_after_year"`
	ExcludedByTitle     int `json:"excluded_by_title"`
	AfterTitleFilter    int `json:"after_title_filter"`
	NewArticles         int `json:"new_articles"`
	DuplicatesFound     int `json:"duplicates_found"`
	AffiliatedArticles  int `json:"affiliated_articles"`
	NoAffiliatedAuthors int `json:"no_affiliated_authors"`
	FlaggedDepartments  int `json:"flagged_departments"`
}

// ResultRow is one row of the review sheet, in the united layout.
type ResultRow struct {
	Department        string          `json:"department"`
	AffiliatedAuthors string          `json:"affiliated_authors"`
	AllAuthors        string          `json:"all_authors"`
	AuthorFullNames   string          `json:"author_full_names"`
	Title             string          `json:"title"`
	Year              int             `json:"year"`
	SourceTitle       string          `json:"source_title"`
	Volume            string          `json:"volume"`
	Issue             string          `json:"issue"`
	ArtNo             string          `json:"art_no"`
	PageStart         string          `json:"page_start"`
	PageEnd           string          `json:"page_end"`
	PageCount         string          `json:"page_count"`
	Source            string          `json:"source"`
	Flagged           bool            `json:"flagged"`
	Reason            HighlightReason `json:"reason,omitempty"`
}

// ResultColumns is the header row of the exported review sheet. The
// united workbook spells "Departament" and carries four bookkeeping
// columns that stay blank; both quirks are part of the file format.
var ResultColumns = []string{
	"Departament",
	"Authors",
	"Authors.1",
	"Author full names",
	"Title",
	"Year",
	"Source title",
	"Volume",
	"Issue",
	"Art. No.",
	"Page start",
	"Page end",
	"Page count",
	"Source",
	"Təqdimat",
	"Data",
	"Amount",
	"Quartil",
}
