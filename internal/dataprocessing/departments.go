package dataprocessing

import "strings"

// Directory is the author-to-department lookup table built from the
// department mapping workbook. Keys are lowercased author names in the
// short "Last, F." format; one author may map to several departments.
type Directory struct {
	entries map[string][]string
}

// NewDirectory builds a Directory from raw (author, department) pairs.
// Blank departments are dropped; author name matching is
// case-insensitive.
func NewDirectory(pairs [][2]string) *Directory {
	d := &Directory{entries: make(map[string][]string)}
	for _, p := range pairs {
		author := strings.ToLower(strings.TrimSpace(p[0]))
		dept := strings.TrimSpace(p[1])
		if author == "" || dept == "" {
			continue
		}
		d.entries[author] = append(d.entries[author], dept)
	}
	return d
}

// Len returns the number of distinct authors in the directory.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// lookup returns the departments recorded for an author, nil when absent.
func (d *Directory) lookup(author string) []string {
	if d == nil {
		return nil
	}
	return d.entries[strings.ToLower(strings.TrimSpace(author))]
}

// MapDepartments resolves the department(s) for a "; "-joined list of
// short author names. Any author missing from the directory flags the row
// with ReasonNotFound; otherwise more than one distinct department flags
// it with ReasonMultiple. Departments keep first-occurrence order.
func (d *Directory) MapDepartments(authors string) Assignment {
	if strings.TrimSpace(authors) == "" {
		return Assignment{}
	}

	var departments []string
	seen := make(map[string]bool)
	var missing []string

	for _, author := range strings.Split(authors, ";") {
		author = strings.TrimSpace(author)
		if author == "" {
			continue
		}

		matches := d.lookup(author)
		if len(matches) == 0 {
			missing = append(missing, author)
			continue
		}

		for _, dept := range matches {
			if !seen[dept] {
				seen[dept] = true
				departments = append(departments, dept)
			}
		}
	}

	a := Assignment{Department: strings.Join(departments, "; ")}

	switch {
	case len(missing) > 0:
		a.Flagged = true
		a.Reason = ReasonNotFound
		a.Missing = missing
	case len(departments) > 1:
		a.Flagged = true
		a.Reason = ReasonMultiple
	}

	return a
}
