package tagstream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeDeliversTagsInOrder(t *testing.T) {
	t.Parallel()

	src := &SliceSource{Fragments: []string{"intro <One>a", "</One><Two>", "b</Two>", " outro"}}
	var got []string
	err := Pipe(context.Background(), src, func(tag string) error {
		got = append(got, tag)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"<One>a</One>", "<Two>b</Two>"}, got)
}

func TestPipeFlushesOnCleanEnd(t *testing.T) {
	t.Parallel()

	src := &SliceSource{Fragments: []string{"<a><x>1</a><b>2</b>"}}
	var got []string
	err := Pipe(context.Background(), src, func(tag string) error {
		got = append(got, tag)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"<a><x>1</a>", "<b>2</b>"}, got)
}

func TestPipeSourceErrorSkipsFlush(t *testing.T) {
	t.Parallel()

	boom := errors.New("stream reset")
	src := &SliceSource{Fragments: []string{"<a><x>1</a><b>2</b>"}, Fail: boom}
	var got []string
	err := Pipe(context.Background(), src, func(tag string) error {
		got = append(got, tag)
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"<a><x>1</a>"}, got)
}

func TestPipeHandlerErrorStops(t *testing.T) {
	t.Parallel()

	stop := errors.New("enough")
	src := &SliceSource{Fragments: []string{"<a>1</a>", "<b>2</b>"}}
	calls := 0
	err := Pipe(context.Background(), src, func(string) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestPipeCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &SliceSource{Fragments: []string{"<a>1</a>"}}
	err := Pipe(ctx, src, func(string) error {
		t.Fatal("handler called after cancel")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
