package dataprocessing

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// NormalizeTitle lowercases a title and collapses whitespace runs so that
// formatting differences between exports do not defeat matching.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Similarity scores two normalized titles on a 0-100 scale using the
// Levenshtein ratio. Two empty strings score 100.
func Similarity(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	score := strutil.Similarity(a, b, metrics.NewLevenshtein())
	return int(score * 100)
}

// FindNew returns the articles from source whose titles match no existing
// title at or above threshold, plus one DuplicateInfo per rejected
// article. The first existing title to reach the threshold wins; later,
// possibly closer matches are not considered.
func FindNew(source, existing []Article, threshold int) ([]Article, []DuplicateInfo) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 100 {
		threshold = 100
	}

	existingTitles := make([]struct {
		raw        string
		normalized string
	}, len(existing))
	for i, a := range existing {
		existingTitles[i].raw = a.Title
		existingTitles[i].normalized = NormalizeTitle(a.Title)
	}

	var fresh []Article
	var duplicates []DuplicateInfo

	for _, src := range source {
		normalized := NormalizeTitle(src.Title)

		duplicate := false
		for _, ex := range existingTitles {
			if sim := Similarity(normalized, ex.normalized); sim >= threshold {
				duplicates = append(duplicates, DuplicateInfo{
					SourceTitle:  src.Title,
					MatchedTitle: ex.raw,
					Similarity:   sim,
				})
				duplicate = true
				break
			}
		}

		if !duplicate {
			fresh = append(fresh, src)
		}
	}

	return fresh, duplicates
}
