package anonymize

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// DefaultSalt is used when no salt is configured. Hashes made with it are
// stable but guessable for known usernames.
const DefaultSalt = "redditfilter-default-salt"

// IdentifyingColumns are dropped from anonymized tables.
var IdentifyingColumns = []string{
	"author_fullname",
	"author_flair_text",
	"author_flair_css_class",
	"author_premium",
	"author_patreon_flair",
}

var (
	mentionPattern = regexp.MustCompile(`\bu/[A-Za-z0-9_-]+\b`)
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	}
)

// Anonymizer hashes author names and redacts personal data from text.
type Anonymizer struct {
	salt []byte
}

// New creates an anonymizer keyed with salt. An empty salt selects DefaultSalt.
func New(salt string) *Anonymizer {
	if salt == "" {
		salt = DefaultSalt
	}
	return &Anonymizer{salt: []byte(salt)}
}

// HashAuthor maps an author name to "user_" plus 16 hex characters of its
// keyed SHA-256. Null, [deleted] and [removed] authors are returned as is.
func (a *Anonymizer) HashAuthor(author string) string {
	trimmed := strings.TrimSpace(author)
	if dataset.IsNull(trimmed) || trimmed == "[deleted]" || trimmed == "[removed]" {
		return author
	}
	mac := hmac.New(sha256.New, a.salt)
	mac.Write([]byte(trimmed))
	return "user_" + hex.EncodeToString(mac.Sum(nil))[:16]
}

// Redact replaces username mentions, email addresses and phone numbers.
func Redact(text string) string {
	text = mentionPattern.ReplaceAllString(text, "[USER]")
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	for _, p := range phonePatterns {
		text = p.ReplaceAllString(text, "[PHONE]")
	}
	return text
}

// Table returns an anonymized copy of t: the author column hashed, the text
// columns redacted and IdentifyingColumns removed.
func (a *Anonymizer) Table(t *dataset.Table, authorColumn string, textColumns ...string) *dataset.Table {
	hashAuthor := t.Has(authorColumn)
	var present []string
	for _, c := range textColumns {
		if t.Has(c) {
			present = append(present, c)
		}
	}

	out := t.Map(func(r dataset.Row) dataset.Row {
		if hashAuthor {
			r[authorColumn] = a.HashAuthor(r[authorColumn])
		}
		for _, c := range present {
			r[c] = Redact(r[c])
		}
		return r
	})
	return out.DropColumns(IdentifyingColumns...)
}
