package filter

import (
	"log"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// Idioms drops rows whose text column contains any of the phrases as a
// case-insensitive substring. Blank phrases are ignored; with no phrases
// the table passes through.
func Idioms(t *dataset.Table, textColumn string, phrases []string) *dataset.Table {
	folder := cases.Fold()
	var needles []string
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			needles = append(needles, folder.String(p))
		}
	}
	if len(needles) == 0 {
		return t
	}
	if skip(t, textColumn, "idiom") {
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		text := folder.String(r[textColumn])
		for _, n := range needles {
			if strings.Contains(text, n) {
				return false
			}
		}
		return true
	})
}

// Topics keeps rows where any of the text columns mentions at least one
// keyword as a whole word, case-insensitively. With no keywords the table
// passes through.
func Topics(t *dataset.Table, keywords []string, textColumns ...string) *dataset.Table {
	pattern := keywordPattern(keywords)
	if pattern == nil {
		return t
	}
	var present []string
	for _, c := range textColumns {
		if t.Has(c) {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		log.Printf("Warning: no text columns found in %s, skipping topic filter", t.Name)
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		for _, c := range present {
			if pattern.MatchString(r[c]) {
				return true
			}
		}
		return false
	})
}

func keywordPattern(keywords []string) *regexp.Regexp {
	var quoted []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
