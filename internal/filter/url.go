package filter

import (
	"regexp"
	"strings"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// URLToken replaces links embedded in text when URL tokenizing is enabled.
const URLToken = "<URL>"

var (
	// urlOnlyToken matches a single whitespace-free token that is a link:
	// scheme URLs, www. hosts and bare domain.tld with an optional path.
	urlOnlyToken = regexp.MustCompile(`(?i)^(?:https?://\S+|www\.\S+|[a-z0-9-]+\.[a-z]{2,}(?:/\S*)?)$`)

	embeddedURL = regexp.MustCompile(`(?i)\b(?:https?://|www\d{0,3}\.|[a-z0-9.\-]+\.[a-z]{2,4}/)` +
		`(?:[^\s()<>]+|\([^\s()<>]*\))+` +
		`(?:\([^\s()<>]*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’])`)
)

// IsURLOnly reports whether text consists of one or more links and nothing
// else. Surrounding punctuation on each token is ignored. Empty text is not
// URL-only.
func IsURLOnly(text string) bool {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !urlOnlyToken.MatchString(strings.Trim(tok, ".,!?()[]")) {
			return false
		}
	}
	return true
}

// URLOnly drops rows whose text column holds nothing but links.
func URLOnly(t *dataset.Table, textColumn string) *dataset.Table {
	if skip(t, textColumn, "URL-only") {
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		return !IsURLOnly(r[textColumn])
	})
}

// ReplaceURLs substitutes URLToken for every link embedded in text.
func ReplaceURLs(text string) string {
	return embeddedURL.ReplaceAllString(text, URLToken)
}

// TokenizeURLs rewrites the given text columns with ReplaceURLs. Absent
// columns are ignored.
func TokenizeURLs(t *dataset.Table, textColumns ...string) *dataset.Table {
	var present []string
	for _, c := range textColumns {
		if t.Has(c) {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return t
	}
	return t.Map(func(r dataset.Row) dataset.Row {
		for _, c := range present {
			r[c] = ReplaceURLs(r[c])
		}
		return r
	})
}
