package output

import (
	"encoding/json"
	"io"
	"sync"
)

// JSONLWriter writes one JSON object per record.
type JSONLWriter struct {
	mu      sync.Mutex
	writer  io.Writer
	encoder *json.Encoder
	closed  bool
}

// NewJSONLWriter creates a new JSON Lines writer. If w is an io.Closer it is
// closed by Close.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return &JSONLWriter{
		writer:  w,
		encoder: encoder,
	}
}

// WriteRecords appends records.
func (j *JSONLWriter) WriteRecords(records []Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	for i := range records {
		if err := j.encoder.Encode(&records[i]); err != nil {
			return err
		}
	}

	if f, ok := j.writer.(interface{ Sync() error }); ok {
		return f.Sync()
	}
	return nil
}

// Close closes the writer.
func (j *JSONLWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if c, ok := j.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
