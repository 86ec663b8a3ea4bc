package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cast"
)

// Required columns per dataset.
var (
	SubmissionColumns = []string{"id", "title", "selftext", "author", "score", "url", "is_self"}
	CommentColumns    = []string{"id", "body", "author", "score", "edited"}
)

// Format identifies how an input file is encoded.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSONL Format = "jsonl"
)

// Source describes an input path: its base name without extensions, its
// format and whether it is zstd-compressed.
type Source struct {
	Path       string
	Name       string
	Format     Format
	Compressed bool
}

// ParseSource derives the name and format of an input from its file name.
// Unknown extensions are read as CSV.
func ParseSource(path string) Source {
	base := filepath.Base(path)
	s := Source{Path: path, Format: FormatCSV}
	if strings.HasSuffix(strings.ToLower(base), ".zst") {
		s.Compressed = true
		base = base[:len(base)-len(".zst")]
	}
	ext := filepath.Ext(base)
	switch strings.ToLower(ext) {
	case ".tsv":
		s.Format = FormatTSV
	case ".jsonl", ".ndjson", ".json":
		s.Format = FormatJSONL
	case ".csv":
	default:
		ext = ""
	}
	s.Name = strings.TrimSuffix(base, ext)
	return s
}

// Load reads a table from path and checks that the required columns exist.
func Load(path string, required []string) (*Table, error) {
	src := ParseSource(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if src.Compressed {
		dec, err := zstd.NewReader(f, zstd.WithDecoderMaxWindow(1<<31), zstd.WithDecoderLowmem(false))
		if err != nil {
			return nil, &IOError{Op: "decompress", Path: path, Err: err}
		}
		defer dec.Close()
		r = dec
	}

	var t *Table
	switch src.Format {
	case FormatJSONL:
		t, err = readJSONL(r)
	case FormatTSV:
		t, err = readDelimited(r, '\t')
	default:
		t, err = readDelimited(r, ',')
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	t.Name = src.Name

	if missing := t.Missing(required); len(missing) > 0 {
		return nil, &SchemaError{Path: path, Missing: missing}
	}
	return t, nil
}

func readDelimited(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := make([]string, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		columns = append(columns, h)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, h := range header {
			if _, set := row[h]; set {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

func readJSONL(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	t := &Table{}
	seen := make(map[string]struct{})
	for n := 1; ; n++ {
		var obj map[string]any
		err := dec.Decode(&obj)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}

		var fresh []string
		row := make(Row, len(obj))
		for k, v := range obj {
			s, err := jsonCell(v)
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", n, k, err)
			}
			row[k] = s
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		t.Columns = append(t.Columns, fresh...)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func jsonCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case json.Number:
		return x.String(), nil
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return cast.ToStringE(x)
	}
}
