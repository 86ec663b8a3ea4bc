package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
)

// OutputPrefix is prepended to the input name to form the output file name.
const OutputPrefix = "filtered_"

// OutputPath returns the CSV path a filtered table is written to.
func OutputPath(dir, inputPath string) string {
	return filepath.Join(dir, OutputPrefix+ParseSource(inputPath).Name+".csv")
}

// WriteCSV writes the table to path as CSV with a header row, keeping the
// table's column order.
func WriteCSV(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOError{Op: "create directory", Path: filepath.Dir(path), Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	for _, r := range t.Rows {
		if err := w.Write(t.Values(r)); err != nil {
			f.Close()
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}
