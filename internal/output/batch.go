package output

// DefaultFlushSize is the number of buffered records that triggers a flush.
const DefaultFlushSize = 5

// Batch buffers records between flushes. It is not safe for concurrent use.
type Batch struct {
	records   []Record
	flushSize int
}

// NewBatch creates a batch that reports ready once it holds flushSize records.
func NewBatch(flushSize int) *Batch {
	if flushSize <= 0 {
		flushSize = DefaultFlushSize
	}
	return &Batch{
		records:   make([]Record, 0, flushSize),
		flushSize: flushSize,
	}
}

// Add appends records and reports whether the flush threshold is reached.
func (b *Batch) Add(records ...Record) bool {
	b.records = append(b.records, records...)
	return b.Ready()
}

// Ready reports whether the batch holds at least flushSize records.
func (b *Batch) Ready() bool {
	return len(b.records) >= b.flushSize
}

// Drain returns the buffered records and empties the batch.
func (b *Batch) Drain() []Record {
	if len(b.records) == 0 {
		return nil
	}
	drained := b.records
	b.records = make([]Record, 0, b.flushSize)
	return drained
}

// Len returns the number of buffered records.
func (b *Batch) Len() int {
	return len(b.records)
}
