// Package tagstream pulls complete top-level tags out of text that arrives in
// fragments, such as a language model's streamed answer.
package tagstream

import "strings"

// Result is the outcome of one Extract call.
type Result struct {
	Tags   []string
	Buffer string
}

// Extract appends chunk to carried and returns every complete top-level tag
// found in the combined text, plus the text after the last emitted tag.
//
// A candidate tag is <name>...</name> where name is everything up to the first
// '>'. Its content may hold other bracketed segments; the first </name> reached
// closes it. A candidate is emitted only if the text before it has as many
// open delimiters as close delimiters. When nothing is emitted the whole
// combined text is returned as the buffer.
func Extract(chunk, carried string) Result {
	work := carried + chunk
	var tags []string
	last := 0

	for i := 0; i < len(work); {
		lt := strings.IndexByte(work[i:], '<')
		if lt < 0 {
			break
		}
		start := i + lt
		end, ok := matchAt(work, start)
		if !ok {
			i = start + 1
			continue
		}
		if balanced(work[:start]) {
			tags = append(tags, work[start:end])
			last = end
		}
		i = end
	}

	return Result{Tags: tags, Buffer: work[last:]}
}

// matchAt reports the end offset of the tag opening at work[start].
func matchAt(work string, start int) (int, bool) {
	gt := strings.IndexByte(work[start+1:], '>')
	if gt <= 0 {
		return 0, false
	}
	closer := "</" + work[start+1:start+1+gt] + ">"

	j := start + gt + 2
	for j < len(work) {
		lt := strings.IndexByte(work[j:], '<')
		if lt < 0 {
			return 0, false
		}
		j += lt
		if strings.HasPrefix(work[j:], closer) {
			return j + len(closer), true
		}
		// Skip a bracketed segment that is not our closer.
		gt := strings.IndexByte(work[j+1:], '>')
		if gt < 0 {
			return 0, false
		}
		j += gt + 2
	}
	return 0, false
}

// balanced reports whether text holds equally many open and close delimiters.
// The two kinds are counted independently of each other and of tag names.
func balanced(text string) bool {
	return countDelims(text, false) == countDelims(text, true)
}

// countDelims counts non-overlapping delimiters left to right. An open
// delimiter is '<', a byte other than '/', then anything up to a '>'. A close
// delimiter is "</" then anything up to a '>'.
func countDelims(text string, closing bool) int {
	n := 0
	for k := 0; k+2 < len(text); {
		if text[k] != '<' || (text[k+1] == '/') != closing {
			k++
			continue
		}
		gt := strings.IndexByte(text[k+2:], '>')
		if gt < 0 {
			break
		}
		n++
		k += gt + 3
	}
	return n
}
