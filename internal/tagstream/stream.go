package tagstream

import "context"

// TextSource yields text fragments in order. Next blocks until a fragment is
// available and returns false once the source is exhausted or failed; Err
// then tells the two apart.
type TextSource interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// TagHandler receives each completed tag in order. Returning an error stops
// the pipe.
type TagHandler func(tag string) error

// Pipe feeds every fragment of src through a fresh Extractor and hands each
// completed tag to onTag. When src ends cleanly the buffer is flushed once.
// When src fails its error is returned without a flush.
func Pipe(ctx context.Context, src TextSource, onTag TagHandler) error {
	defer src.Close()

	var ex Extractor
	for src.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := deliver(ex.Feed(src.Text()), onTag); err != nil {
			return err
		}
	}
	if err := src.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return deliver(ex.Flush(), onTag)
}

func deliver(tags []string, onTag TagHandler) error {
	for _, tag := range tags {
		if err := onTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// SliceSource replays a fixed list of fragments, optionally failing at the end.
type SliceSource struct {
	Fragments []string
	Fail      error

	pos int
	cur string
}

func (s *SliceSource) Next() bool {
	if s.pos >= len(s.Fragments) {
		return false
	}
	s.cur = s.Fragments[s.pos]
	s.pos++
	return true
}

func (s *SliceSource) Text() string { return s.cur }

func (s *SliceSource) Err() error {
	if s.pos >= len(s.Fragments) {
		return s.Fail
	}
	return nil
}

func (s *SliceSource) Close() error { return nil }
