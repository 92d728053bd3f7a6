package output

// Columns is the fixed column order of the dataset.
var Columns = []string{"source_url", "title", "content_type", "content_text"}

// Record is one extracted content record.
type Record struct {
	SourceURL   string `json:"source_url"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentText string `json:"content_text"`
}

// Values returns the record fields in Columns order.
func (r Record) Values() []string {
	return []string{r.SourceURL, r.Title, r.ContentType, r.ContentText}
}
