package tagstream

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		chunk   string
		carried string
		tags    []string
		buffer  string
	}{
		{
			name:   "single tag",
			chunk:  "<a>hello</a>",
			tags:   []string{"<a>hello</a>"},
			buffer: "",
		},
		{
			name:   "partial open delimiter",
			chunk:  "<Proj",
			buffer: "<Proj",
		},
		{
			name:   "open delimiter without close",
			chunk:  "<a>hel",
			buffer: "<a>hel",
		},
		{
			name:   "empty content",
			chunk:  "<a></a>",
			tags:   []string{"<a></a>"},
			buffer: "",
		},
		{
			name:   "nested different name is one tag",
			chunk:  "<outer>x<inner>y</inner>z</outer>",
			tags:   []string{"<outer>x<inner>y</inner>z</outer>"},
			buffer: "",
		},
		{
			name:   "siblings",
			chunk:  "<a>1</a> and <b>2</b>tail",
			tags:   []string{"<a>1</a>", "<b>2</b>"},
			buffer: "tail",
		},
		{
			name:    "carried buffer completes",
			carried: "<b>wor",
			chunk:   "ld</b>",
			tags:    []string{"<b>world</b>"},
			buffer:  "",
		},
		{
			name:   "leading prose is dropped with the tag",
			chunk:  "Here you go: <a>1</a>",
			tags:   []string{"<a>1</a>"},
			buffer: "",
		},
		{
			name:   "child of an open parent is held back",
			chunk:  "<p><c>1</c>",
			buffer: "<p><c>1</c>",
		},
		{
			name:   "stray close delimiter stays buffered",
			chunk:  "</x>",
			buffer: "</x>",
		},
		{
			name:   "empty name never matches",
			chunk:  "<></>",
			buffer: "<></>",
		},
		{
			name:   "same name nesting closes at first close",
			chunk:  "<a><a>x</a></a>",
			tags:   []string{"<a><a>x</a>"},
			buffer: "</a>",
		},
		{
			name:   "multiline content",
			chunk:  "<Deps>\n- bubbletea\n- cobra\n</Deps>\n",
			tags:   []string{"<Deps>\n- bubbletea\n- cobra\n</Deps>"},
			buffer: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Extract(tt.chunk, tt.carried)
			assert.Equal(t, tt.tags, r.Tags)
			assert.Equal(t, tt.buffer, r.Buffer)
		})
	}
}

func TestExtractUnbalancedPrefixBlocksLaterTags(t *testing.T) {
	t.Parallel()

	// An unclosed open delimiter before a complete tag keeps the tag nested.
	r := Extract("<note> <a>1</a>", "")
	assert.Empty(t, r.Tags)
	assert.Equal(t, "<note> <a>1</a>", r.Buffer)

	r = Extract("</note>", r.Buffer)
	assert.Equal(t, []string{"<note> <a>1</a></note>"}, r.Tags)
	assert.Empty(t, r.Buffer)
}

func TestExtractorScenario(t *testing.T) {
	t.Parallel()

	var ex Extractor
	tags := ex.Feed("<a>hello</a><b>wor")
	assert.Equal(t, []string{"<a>hello</a>"}, tags)
	assert.Equal(t, "<b>wor", ex.Buffer())

	tags = ex.Feed("ld</b>")
	assert.Equal(t, []string{"<b>world</b>"}, tags)
	assert.Empty(t, ex.Buffer())
}

func TestExtractorFlush(t *testing.T) {
	t.Parallel()

	var ex Extractor
	assert.Equal(t, []string{"<a>1</a>"}, ex.Feed("<a>1</a><b>unfinished"))
	require.Equal(t, "<b>unfinished", ex.Buffer())

	assert.Empty(t, ex.Flush())
	assert.Empty(t, ex.Buffer())

	// Flushing an empty extractor is a no-op.
	assert.Nil(t, ex.Flush())
}

func TestExtractorFlushFindsTagHiddenByEmittedPrefix(t *testing.T) {
	t.Parallel()

	// The emitted tag carries an unmatched open delimiter, so the next tag is
	// held back until the flush rescans without it.
	var ex Extractor
	tags := ex.Feed("<a><x>1</a><b>2</b>")
	assert.Equal(t, []string{"<a><x>1</a>"}, tags)
	assert.Equal(t, "<b>2</b>", ex.Buffer())

	assert.Equal(t, []string{"<b>2</b>"}, ex.Flush())
}

func TestExtractorReset(t *testing.T) {
	t.Parallel()

	var ex Extractor
	ex.Feed("<a>partial")
	ex.Reset()
	assert.Empty(t, ex.Buffer())
	assert.Equal(t, []string{"<b>x</b>"}, ex.Feed("<b>x</b>"))
}

var tagNames = []string{"Summary", "Deps", "file", "step", "x"}

func genText(t *rapid.T, label string) string {
	return rapid.StringMatching(`[a-z0-9 .\n]{0,12}`).Draw(t, label)
}

// genTag builds a well formed tag whose children never reuse an ancestor name.
func genTag(t *rapid.T, depth int, used map[string]bool) string {
	var free []string
	for _, n := range tagNames {
		if !used[n] {
			free = append(free, n)
		}
	}
	name := rapid.SampledFrom(free).Draw(t, "name")
	used[name] = true
	defer delete(used, name)

	var b strings.Builder
	b.WriteString("<" + name + ">")
	b.WriteString(genText(t, "text"))
	if depth < 2 {
		children := rapid.IntRange(0, 2).Draw(t, "children")
		for i := 0; i < children; i++ {
			b.WriteString(genTag(t, depth+1, used))
			b.WriteString(genText(t, "text"))
		}
	}
	b.WriteString("</" + name + ">")
	return b.String()
}

func TestChunkBoundaryIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 4).Draw(t, "tags")
		var want []string
		var b strings.Builder
		b.WriteString(genText(t, "lead"))
		for i := 0; i < n; i++ {
			tag := genTag(t, 0, map[string]bool{})
			want = append(want, tag)
			b.WriteString(tag)
			b.WriteString(genText(t, "between"))
		}
		input := b.String()

		cuts := rapid.SliceOfN(rapid.IntRange(0, len(input)), 0, 8).Draw(t, "cuts")
		sort.Ints(cuts)

		var ex Extractor
		var got []string
		prev := 0
		for _, c := range cuts {
			got = append(got, ex.Feed(input[prev:c])...)
			prev = c
		}
		got = append(got, ex.Feed(input[prev:])...)
		got = append(got, ex.Flush()...)

		if len(want) == 0 {
			if len(got) != 0 {
				t.Fatalf("got %q from input without tags", got)
			}
			return
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Fatalf("input %q split at %v: got %q, want %q", input, cuts, got, want)
		}
	})
}
