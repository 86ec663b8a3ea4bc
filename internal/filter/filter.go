// Package filter holds the row-level and cross-row quality filters. Every
// filter takes a table and returns a new one; the input is never modified.
package filter

import (
	"log"
	"strings"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// Column names shared by the filters.
const (
	ColID                = "id"
	ColAuthor            = "author"
	ColScore             = "score"
	ColBody              = "body"
	ColTitle             = "title"
	ColSelftext          = "selftext"
	ColEdited            = "edited"
	ColRemovedByCategory = "removed_by_category"
)

// Sentinels mark content that was removed by moderators or deleted by its author.
var Sentinels = []string{"[removed]", "[deleted]"}

// skip logs and reports whether a filter has to pass the table through
// because its column is absent.
func skip(t *dataset.Table, column, filter string) bool {
	if t.Has(column) {
		return false
	}
	log.Printf("Warning: %q column not found in %s, skipping %s filter", column, t.Name, filter)
	return true
}

// Score keeps rows whose score is at least minScore. Rows with an empty or
// unparseable score are dropped.
func Score(t *dataset.Table, minScore int) *dataset.Table {
	if skip(t, ColScore, "score") {
		return t
	}
	threshold := float64(minScore)
	return t.Filter(func(r dataset.Row) bool {
		n, ok := dataset.Number(r[ColScore])
		return ok && n >= threshold
	})
}

// Removed drops rows whose text column holds a removal sentinel or whose
// removed_by_category cell is set.
func Removed(t *dataset.Table, textColumn string) *dataset.Table {
	hasText := t.Has(textColumn)
	hasCategory := t.Has(ColRemovedByCategory)
	if !hasText && !hasCategory {
		log.Printf("Warning: neither %q nor %q found in %s, skipping removed filter", textColumn, ColRemovedByCategory, t.Name)
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		if hasCategory && !dataset.IsNull(r[ColRemovedByCategory]) {
			return false
		}
		if hasText && isSentinel(r[textColumn]) {
			return false
		}
		return true
	})
}

func isSentinel(text string) bool {
	text = strings.TrimSpace(text)
	for _, s := range Sentinels {
		if text == s {
			return true
		}
	}
	return false
}

// Duplicates keeps the first row seen for every id and drops later repeats.
// Input order is preserved, so applying it twice changes nothing.
func Duplicates(t *dataset.Table) *dataset.Table {
	if skip(t, ColID, "duplicate") {
		return t
	}
	seen := make(map[string]struct{}, t.Len())
	return t.Filter(func(r dataset.Row) bool {
		id := r[ColID]
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
		return true
	})
}

// Edited keeps only rows whose edited cell is truthy: either a true flag
// or a non-zero edit timestamp.
func Edited(t *dataset.Table) *dataset.Table {
	if skip(t, ColEdited, "edited") {
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		return dataset.Truthy(r[ColEdited])
	})
}

// MinWords keeps rows whose text column has at least minWords
// whitespace-separated tokens.
func MinWords(t *dataset.Table, textColumn string, minWords int) *dataset.Table {
	if skip(t, textColumn, "word count") {
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		return WordCount(r[textColumn]) >= minWords
	})
}

// WordCount counts whitespace-separated tokens. Null cells count as empty.
func WordCount(text string) int {
	if dataset.IsNull(text) {
		return 0
	}
	return len(strings.Fields(text))
}
