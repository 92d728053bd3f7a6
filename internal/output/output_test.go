package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockCloser implements io.Writer with Close support
type mockCloser struct {
	bytes.Buffer
	closed bool
}

func (m *mockCloser) Close() error {
	m.closed = true
	return nil
}

// mockWriteError simulates write errors
type mockWriteError struct {
	err error
}

func (m *mockWriteError) Write(p []byte) (n int, err error) {
	return 0, m.err
}

func sampleRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			SourceURL:   "https://example.com/page",
			Title:       "Title",
			ContentType: "selector:article",
			ContentText: "Body text",
		}
	}
	return records
}

// =============================================================================
// Batch Tests
// =============================================================================

func TestBatch_ThresholdFiresAtFlushSize(t *testing.T) {
	b := NewBatch(5)

	for i := 1; i <= 4; i++ {
		if b.Add(sampleRecords(1)...) {
			t.Fatalf("Add() reported ready at %d records", i)
		}
	}
	if !b.Add(sampleRecords(1)...) {
		t.Error("Add() should report ready at 5 records")
	}
	if b.Len() != 5 {
		t.Errorf("Len() = %d, want 5", b.Len())
	}
}

func TestBatch_MultiRecordAddCrossesThreshold(t *testing.T) {
	b := NewBatch(5)
	b.Add(sampleRecords(3)...)

	if !b.Add(sampleRecords(4)...) {
		t.Error("Add() should report ready once the batch holds 7 records")
	}
}

func TestBatch_Drain(t *testing.T) {
	b := NewBatch(5)

	if got := b.Drain(); got != nil {
		t.Errorf("Drain() on empty batch = %v, want nil", got)
	}

	b.Add(sampleRecords(3)...)
	drained := b.Drain()
	if len(drained) != 3 {
		t.Errorf("Drain() len = %d, want 3", len(drained))
	}
	if b.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", b.Len())
	}
	if b.Ready() {
		t.Error("drained batch should not be ready")
	}
}

func TestBatch_DefaultFlushSize(t *testing.T) {
	b := NewBatch(0)
	if b.flushSize != DefaultFlushSize {
		t.Errorf("flushSize = %d, want %d", b.flushSize, DefaultFlushSize)
	}
}

// =============================================================================
// CSVWriter Tests
// =============================================================================

func TestCSVWriter_HeaderOnceAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewCSVWriter(path)

	if err := w.WriteRecords([]Record{{SourceURL: "u1", Title: "t1", ContentType: "c1", ContentText: "x1"}}); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}
	if err := w.WriteRecords([]Record{{SourceURL: "u2", Title: "t2", ContentType: "c2", ContentText: "x2"}}); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "\"source_url\",\"title\",\"content_type\",\"content_text\"\r\n" +
		"\"u1\",\"t1\",\"c1\",\"x1\"\r\n" +
		"\"u2\",\"t2\",\"c2\",\"x2\"\r\n"
	if string(data) != want {
		t.Errorf("csv content = %q, want %q", string(data), want)
	}
}

func TestCSVWriter_HeaderWhenFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	w := NewCSVWriter(path)
	w.WriteRecords(sampleRecords(1))

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), `"source_url"`) {
		t.Errorf("empty file should receive a header, got %q", string(data))
	}
}

func TestCSVWriter_NoHeaderOnExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	existing := "\"source_url\",\"title\",\"content_type\",\"content_text\"\r\n\"a\",\"b\",\"c\",\"d\"\r\n"
	os.WriteFile(path, []byte(existing), 0644)

	w := NewCSVWriter(path)
	w.WriteRecords(sampleRecords(1))

	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "source_url") != 1 {
		t.Errorf("header should appear once, got %q", string(data))
	}
}

func TestCSVWriter_QuotesEmbeddedQuotesAndNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewCSVWriter(path)

	r := Record{
		SourceURL:   "https://example.com/faq",
		Title:       `FAQ: What is "coverage"?`,
		ContentType: "faq_dt_dd",
		ContentText: "Question: q\nAnswer: a, b",
	}
	w.WriteRecords([]Record{r})

	data, _ := os.ReadFile(path)
	lines := strings.SplitN(string(data), "\r\n", 2)
	want := `"https://example.com/faq","FAQ: What is ""coverage""?","faq_dt_dd","Question: q` + "\n" + `Answer: a, b"` + "\r\n"
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestCSVWriter_EmptyBatchDoesNotTouchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewCSVWriter(path)

	if err := w.WriteRecords(nil); err != nil {
		t.Fatalf("WriteRecords(nil) error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty write should not create the output file")
	}
}

// =============================================================================
// JSONLWriter Tests
// =============================================================================

func TestJSONLWriter_WriteRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	records := []Record{
		{SourceURL: "https://example.com/a", Title: "A & B", ContentType: "selector:main", ContentText: "<text>"},
		{SourceURL: "https://example.com/b", Title: "B", ContentType: "faq_h2_sibling", ContentText: "answer"},
	}
	if err := w.WriteRecords(records); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var got []Record
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		got = append(got, r)
	}

	if len(got) != 2 {
		t.Fatalf("decoded %d records, want 2", len(got))
	}
	if got[0] != records[0] {
		t.Errorf("record = %+v, want %+v", got[0], records[0])
	}
	if strings.Contains(buf.String(), `\u0026`) {
		t.Error("HTML characters should not be escaped")
	}
}

func TestJSONLWriter_WriteError(t *testing.T) {
	w := NewJSONLWriter(&mockWriteError{err: errors.New("disk full")})
	if err := w.WriteRecords(sampleRecords(1)); err == nil {
		t.Error("WriteRecords() should surface write errors")
	}
}

func TestJSONLWriter_Close(t *testing.T) {
	mc := &mockCloser{}
	w := NewJSONLWriter(mc)

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !mc.closed {
		t.Error("Close() should close the underlying writer")
	}

	// Writes after close are dropped
	w.WriteRecords(sampleRecords(1))
	if mc.Len() != 0 {
		t.Error("writes after Close should be ignored")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

// =============================================================================
// SQLiteWriter Tests
// =============================================================================

func TestSQLiteWriter_WriteRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	w, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("NewSQLiteWriter() error = %v", err)
	}
	defer w.Close()

	if err := w.WriteRecords(sampleRecords(3)); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}
	if err := w.WriteRecords(sampleRecords(2)); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if n != 5 {
		t.Errorf("stored records = %d, want 5", n)
	}
}

// =============================================================================
// NewWriter Tests
// =============================================================================

func TestNewWriter(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default csv", Config{FilePath: filepath.Join(dir, "a.csv")}, false},
		{"csv", Config{Format: "CSV", FilePath: filepath.Join(dir, "b.csv")}, false},
		{"jsonl", Config{Format: "jsonl", FilePath: filepath.Join(dir, "c.jsonl")}, false},
		{"sqlite", Config{Format: "sqlite", FilePath: filepath.Join(dir, "d.db")}, false},
		{"unknown", Config{Format: "xml", FilePath: filepath.Join(dir, "e.xml")}, true},
		{"missing path", Config{Format: "csv"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWriter(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWriter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if w != nil {
				w.Close()
			}
		})
	}
}
