package devserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReserveRejectsDuplicate(t *testing.T) {
	t.Parallel()
	r := newRegistry()

	require.NoError(t, r.reserve(newSession("a", "x", 10)))
	assert.ErrorIs(t, r.reserve(newSession("a", "y", 10)), ErrAlreadyRunning)
	assert.Equal(t, 1, r.len())
}

func TestRegistryRemoveChecksIdentity(t *testing.T) {
	t.Parallel()
	r := newRegistry()

	old := newSession("a", "old", 10)
	require.NoError(t, r.reserve(old))
	require.True(t, r.remove(old))

	fresh := newSession("a", "new", 10)
	require.NoError(t, r.reserve(fresh))

	// A late release of the old session must leave its successor alone.
	assert.False(t, r.remove(old))
	got, ok := r.get("a")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistryDrainRefusesReservations(t *testing.T) {
	t.Parallel()
	r := newRegistry()
	require.NoError(t, r.reserve(newSession("a", "x", 10)))
	require.NoError(t, r.reserve(newSession("b", "x", 10)))

	drained := r.drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, r.len())
	assert.ErrorIs(t, r.reserve(newSession("c", "x", 10)), ErrShutdown)
}

func TestConflictDetector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chunks []string
		want   bool
	}{
		{"node", []string{"Error: listen EADDRINUSE: address already in use :::3000\n"}, true},
		{"python", []string{"OSError: [Errno 98] Address already in use\n"}, true},
		{"split", []string{"listen EADD", "RINUSE"}, true},
		{"split three ways", []string{"address al", "ready in", " use"}, true},
		{"ansi", []string{"\x1b[31mEADDRINUSE\x1b[0m"}, true},
		{"clean output", []string{"ready in 312 ms\n", "Local: http://localhost:5173/\n"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := newConflictDetector([]string{"EADDRINUSE", "address already in use"})
			got := false
			for _, c := range tt.chunks {
				if d.check([]byte(c)) {
					got = true
					break
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConflictDetectorWithoutSignatures(t *testing.T) {
	t.Parallel()
	d := newConflictDetector(nil)
	assert.False(t, d.check([]byte("EADDRINUSE")))
}
