package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
)

// Processor runs the review pipeline: year filter, title filter, fuzzy
// dedupe against the united set, affiliation extraction and department
// mapping.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a Processor. A nil logger falls back to the
// default slog logger.
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger.With(slog.String("component", "processor"))}
}

// filterByYears keeps the articles whose Year is in years. An empty years
// list keeps everything.
func filterByYears(articles []Article, years []int) []Article {
	if len(years) == 0 {
		return articles
	}
	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}
	var kept []Article
	for _, a := range articles {
		if wanted[a.Year] {
			kept = append(kept, a)
		}
	}
	return kept
}

// filterByTitle drops articles whose title contains any exclusion
// substring, case-insensitively.
func filterByTitle(articles []Article, excludes []string) (kept []Article, dropped int) {
	if len(excludes) == 0 {
		return articles, 0
	}
	for _, a := range articles {
		title := strings.ToLower(a.Title)
		excluded := false
		for _, kw := range excludes {
			if kw == "" {
				continue
			}
			if strings.Contains(title, strings.ToLower(kw)) {
				excluded = true
				break
			}
		}
		if excluded {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	return kept, dropped
}

// Process runs the full pipeline and returns the review rows plus the
// step-by-step counters. Articles with no affiliated authors are dropped
// from the result but counted. The context is consulted between steps so
// an abandoned request does not keep matching.
func (p *Processor) Process(ctx context.Context, source, united []Article, directory *Directory, opts Options) ([]ResultRow, Stats, error) {
	stats := Stats{
		SourceTotal: len(source),
		UnitedTotal: len(united),
	}

	source = filterByYears(source, opts.Years)
	united = filterByYears(united, opts.Years)
	stats.SourceAfterYear = len(source)
	stats.UnitedAfterYear = len(united)

	source, dropped := filterByTitle(source, opts.TitleExcludes)
	stats.ExcludedByTitle = dropped
	stats.AfterTitleFilter = len(source)

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	fresh, duplicates := FindNew(source, united, opts.Threshold)
	stats.NewArticles = len(fresh)
	stats.DuplicatesFound = len(duplicates)

	p.logger.InfoContext(ctx, "duplicate detection complete",
		slog.Int("new_articles", stats.NewArticles),
		slog.Int("duplicates", stats.DuplicatesFound),
		slog.Int("threshold", opts.Threshold))

	var rows []ResultRow
	for _, article := range fresh {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		authors := ExtractAffiliatedAuthors(
			article.AuthorsWithAffiliations,
			article.AuthorFullNames,
			opts.AffiliationKeywords,
			opts.AffiliationExcludes,
		)

		if authors.Count == 0 {
			stats.NoAffiliatedAuthors++
			continue
		}
		stats.AffiliatedArticles++

		assignment := directory.MapDepartments(authors.Short)
		if assignment.Flagged {
			stats.FlaggedDepartments++
		}

		rows = append(rows, ResultRow{
			Department:        assignment.Department,
			AffiliatedAuthors: authors.Short,
			AllAuthors:        article.Authors,
			AuthorFullNames:   article.AuthorFullNames,
			Title:             article.Title,
			Year:              article.Year,
			SourceTitle:       article.SourceTitle,
			Volume:            article.Volume,
			Issue:             article.Issue,
			ArtNo:             article.ArtNo,
			PageStart:         article.PageStart,
			PageEnd:           article.PageEnd,
			PageCount:         article.PageCount,
			Source:            "Scopus",
			Flagged:           assignment.Flagged,
			Reason:            assignment.Reason,
		})
	}

	p.logger.InfoContext(ctx, "processing complete",
		slog.Int("result_rows", len(rows)),
		slog.Int("no_affiliated_authors", stats.NoAffiliatedAuthors),
		slog.Int("flagged_departments", stats.FlaggedDepartments))

	return rows, stats, nil
}
