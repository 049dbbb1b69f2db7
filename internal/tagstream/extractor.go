package tagstream

// Extractor carries the unconsumed buffer between fragments of one stream.
// It is not safe for concurrent use; fragments must be fed in order.
type Extractor struct {
	buf string
}

// Feed appends chunk to the carried buffer and returns the tags it completed.
func (e *Extractor) Feed(chunk string) []string {
	r := Extract(chunk, e.buf)
	e.buf = r.Buffer
	return r.Tags
}

// Flush runs one final pass over the buffer and then drops whatever is left.
func (e *Extractor) Flush() []string {
	if e.buf == "" {
		return nil
	}
	tags := e.Feed("")
	e.buf = ""
	return tags
}

// Buffer returns the text held back for the next Feed.
func (e *Extractor) Buffer() string { return e.buf }

// Reset drops the held-back text.
func (e *Extractor) Reset() { e.buf = "" }
