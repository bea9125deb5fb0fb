package dataprocessing

import (
	"regexp"
	"strings"
)

// fullNameWithID matches entries from the "Author full names" column,
// e.g. "Mammadov, Elchin (57191234567)".
var fullNameWithID = regexp.MustCompile(`^(.+?)\s*\((\d+)\)$`)

type fullNameEntry struct {
	full string
	id   string
}

// parseFullNames indexes the "Author full names" column by surname so the
// affiliation pass can recover full names and Scopus author IDs. When the
// same surname appears twice the first entry wins, matching how the
// column is ordered.
func parseFullNames(authorFullNames string) map[string]fullNameEntry {
	index := make(map[string]fullNameEntry)

	for _, part := range strings.Split(authorFullNames, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		m := fullNameWithID.FindStringSubmatch(part)
		if m == nil {
			continue
		}

		name := strings.TrimSpace(m[1])
		surname := strings.TrimSpace(strings.SplitN(name, ",", 2)[0])
		if surname == "" {
			continue
		}
		if _, seen := index[surname]; !seen {
			index[surname] = fullNameEntry{full: name, id: strings.TrimSpace(m[2])}
		}
	}

	return index
}

// containsAny reports whether s contains any of the keywords,
// case-insensitively.
func containsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ExtractAffiliatedAuthors walks the "Authors with affiliations" column
// ("Last, First, Affiliation A, Affiliation B; Last, First, ...") and
// keeps the authors whose block mentions one of the affiliation keywords
// and none of the exclusion keywords. Full names and author IDs come from
// the companion "Author full names" column when the surname is found
// there, otherwise the name from the affiliation block is used as-is.
func ExtractAffiliatedAuthors(withAffiliations, authorFullNames string, keywords, excludes []string) AuthorSet {
	if strings.TrimSpace(withAffiliations) == "" {
		return AuthorSet{}
	}

	fullNames := parseFullNames(authorFullNames)

	var short, full, withIDs []string

	for _, block := range strings.Split(withAffiliations, ";") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		if !containsAny(block, keywords) {
			continue
		}
		if containsAny(block, excludes) {
			continue
		}

		parts := strings.Split(block, ",")
		if len(parts) < 2 {
			continue
		}
		lastName := strings.TrimSpace(parts[0])
		firstName := strings.TrimSpace(parts[1])
		if lastName == "" {
			continue
		}

		initial := ""
		if firstName != "" {
			initial = string([]rune(firstName)[0]) + "."
		}
		short = append(short, lastName+", "+initial)

		if entry, ok := fullNames[lastName]; ok {
			full = append(full, entry.full)
			withIDs = append(withIDs, entry.full+" ("+entry.id+")")
		} else {
			name := lastName + ", " + firstName
			full = append(full, name)
			withIDs = append(withIDs, name)
		}
	}

	return AuthorSet{
		Short:   strings.Join(short, "; "),
		Full:    strings.Join(full, "; "),
		WithIDs: strings.Join(withIDs, "; "),
		Count:   len(short),
	}
}
