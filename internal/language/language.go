package language

import (
	"log"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// MinLetters is the shortest text, counted in letters, that is sent to the
// detector. Shorter text is treated as undetectable.
const MinLetters = 12

// Detector classifies text into an ISO 639-1 language code. ok is false
// when the text cannot be classified.
type Detector interface {
	Detect(text string) (code string, ok bool)
}

// TrigramDetector detects languages with whatlanggo's trigram profiles.
// It is deterministic: the same text always yields the same code.
type TrigramDetector struct{}

// NewDetector returns the default detector.
func NewDetector() *TrigramDetector {
	return &TrigramDetector{}
}

// Detect implements Detector.
func (TrigramDetector) Detect(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}

// Result counts the outcome of a language filter run.
type Result struct {
	Kept         int
	OtherLang    int
	Undetectable int
}

// Filter keeps rows whose text columns, joined by a space, are classified
// as the target language. Rows with empty or too-short text and rows the
// detector cannot classify are dropped.
func Filter(t *dataset.Table, target string, d Detector, textColumns ...string) (*dataset.Table, Result) {
	var present []string
	for _, c := range textColumns {
		if t.Has(c) {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		log.Printf("Warning: no text columns %v in %s, skipping language filter", textColumns, t.Name)
		return t, Result{Kept: t.Len()}
	}

	target = strings.ToLower(strings.TrimSpace(target))
	var res Result
	out := t.Filter(func(r dataset.Row) bool {
		text := joinText(r, present)
		if letters(text) < MinLetters {
			res.Undetectable++
			return false
		}
		code, ok := d.Detect(text)
		if !ok {
			res.Undetectable++
			return false
		}
		if code != target {
			res.OtherLang++
			return false
		}
		res.Kept++
		return true
	})
	return out, res
}

func joinText(r dataset.Row, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		v := strings.TrimSpace(r[c])
		if !dataset.IsNull(v) {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func letters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
