package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var khazarKeywords = []string{"Khazar University", "Khazar"}

func TestExtractAffiliatedAuthors(t *testing.T) {
	t.Run("keeps only affiliated authors", func(t *testing.T) {
		withAffiliations := "Mammadov, Elchin, Khazar University, Baku, Azerbaijan; " +
			"Smith, John, University of Oxford, Oxford, United Kingdom"
		fullNames := "Mammadov, Elchin (57191234567); Smith, John (35607841200)"

		got := ExtractAffiliatedAuthors(withAffiliations, fullNames, khazarKeywords, nil)

		assert.Equal(t, 1, got.Count)
		assert.Equal(t, "Mammadov, E.", got.Short)
		assert.Equal(t, "Mammadov, Elchin", got.Full)
		assert.Equal(t, "Mammadov, Elchin (57191234567)", got.WithIDs)
	})

	t.Run("multiple affiliated authors joined in order", func(t *testing.T) {
		withAffiliations := "Aliyeva, Nigar, Khazar University, Baku; " +
			"Hasanov, Rashad, Khazar University, Baku"
		fullNames := "Aliyeva, Nigar (111); Hasanov, Rashad (222)"

		got := ExtractAffiliatedAuthors(withAffiliations, fullNames, khazarKeywords, nil)

		assert.Equal(t, 2, got.Count)
		assert.Equal(t, "Aliyeva, N.; Hasanov, R.", got.Short)
		assert.Equal(t, "Aliyeva, Nigar; Hasanov, Rashad", got.Full)
		assert.Equal(t, "Aliyeva, Nigar (111); Hasanov, Rashad (222)", got.WithIDs)
	})

	t.Run("keyword matching is case-insensitive", func(t *testing.T) {
		withAffiliations := "Aliyeva, Nigar, KHAZAR UNIVERSITY, Baku"

		got := ExtractAffiliatedAuthors(withAffiliations, "", khazarKeywords, nil)
		assert.Equal(t, 1, got.Count)
	})

	t.Run("exclusion keywords remove otherwise matching authors", func(t *testing.T) {
		withAffiliations := "Aliyeva, Nigar, Khazar University, Baku; " +
			"Guliyev, Farid, Khazar University School of Medicine, Baku"

		got := ExtractAffiliatedAuthors(withAffiliations, "", khazarKeywords,
			[]string{"School of Medicine"})

		assert.Equal(t, 1, got.Count)
		assert.Equal(t, "Aliyeva, N.", got.Short)
	})

	t.Run("missing full name entry falls back to affiliation name", func(t *testing.T) {
		withAffiliations := "Aliyeva, Nigar, Khazar University, Baku"

		got := ExtractAffiliatedAuthors(withAffiliations, "", khazarKeywords, nil)

		assert.Equal(t, "Aliyeva, N.", got.Short)
		assert.Equal(t, "Aliyeva, Nigar", got.Full)
		assert.Equal(t, "Aliyeva, Nigar", got.WithIDs)
	})

	t.Run("non-latin initials survive", func(t *testing.T) {
		withAffiliations := "Əliyev, Çingiz, Khazar University, Baku"

		got := ExtractAffiliatedAuthors(withAffiliations, "", khazarKeywords, nil)

		assert.Equal(t, 1, got.Count)
		assert.Equal(t, "Əliyev, Ç.", got.Short)
	})

	t.Run("empty affiliations column yields empty set", func(t *testing.T) {
		got := ExtractAffiliatedAuthors("", "Mammadov, Elchin (1)", khazarKeywords, nil)
		assert.Equal(t, 0, got.Count)
		assert.Empty(t, got.Short)
	})

	t.Run("no keyword hits yields empty set", func(t *testing.T) {
		withAffiliations := "Smith, John, University of Oxford, Oxford"

		got := ExtractAffiliatedAuthors(withAffiliations, "", khazarKeywords, nil)
		assert.Equal(t, 0, got.Count)
	})
}

func TestParseFullNames(t *testing.T) {
	t.Run("indexes by surname", func(t *testing.T) {
		index := parseFullNames("Mammadov, Elchin (57191234567); Smith, John (35607841200)")

		assert.Len(t, index, 2)
		assert.Equal(t, "Mammadov, Elchin", index["Mammadov"].full)
		assert.Equal(t, "57191234567", index["Mammadov"].id)
	})

	t.Run("first entry wins on surname collision", func(t *testing.T) {
		index := parseFullNames("Aliyev, Anar (1); Aliyev, Bahruz (2)")

		assert.Len(t, index, 1)
		assert.Equal(t, "Aliyev, Anar", index["Aliyev"].full)
	})

	t.Run("entries without an ID are skipped", func(t *testing.T) {
		index := parseFullNames("Mammadov, Elchin; Smith, John (35607841200)")

		assert.Len(t, index, 1)
		assert.Contains(t, index, "Smith")
	})

	t.Run("empty column yields empty index", func(t *testing.T) {
		assert.Empty(t, parseFullNames(""))
	})
}
