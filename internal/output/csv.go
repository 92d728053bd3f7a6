package output

import (
	"bufio"
	"fmt"
	"strings"
)

// CSVWriter appends records to a CSV file with every field quoted.
// The header row is written when the file is new or empty.
// The file is opened per write so each flush is durable on its own.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a CSV writer for path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// WriteRecords appends records. An empty slice performs no file access.
func (c *CSVWriter) WriteRecords(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	file, err := openAppend(c.path)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat output file: %w", err)
	}

	w := bufio.NewWriter(file)
	if info.Size() == 0 {
		writeCSVRow(w, Columns)
	}
	for _, r := range records {
		writeCSVRow(w, r.Values())
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	return file.Close()
}

// Close is a no-op for CSVWriter.
func (c *CSVWriter) Close() error {
	return nil
}

// writeCSVRow writes fields quoted, with embedded quotes doubled.
func writeCSVRow(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString("\r\n")
}
