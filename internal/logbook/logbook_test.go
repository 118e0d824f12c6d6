package logbook

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/assignflow/internal/workflow/selector"
	"github.com/kingrea/assignflow/internal/workflow/state"
)

var fixed = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newBook(t *testing.T) *Logbook {
	t.Helper()
	book, err := New(filepath.Join(t.TempDir(), "logs", FileName), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return book
}

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	book := newBook(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, book.Append(LevelInfo, "entry-"+string(rune('0'+i))))
	}
	lines, total := book.Tail(3)
	assert.Equal(t, 5, total)
	require.Len(t, lines, 3)
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		assert.Contains(t, lines[idx], want)
	}
	assert.True(t, strings.HasPrefix(lines[0], "2026-10-17T09:30:00Z INFO "))
}

func TestTailMissingFile(t *testing.T) {
	lines, total := newBook(t).Tail(10)
	assert.Nil(t, lines)
	assert.Zero(t, total)
}

func TestRecordSelection(t *testing.T) {
	book := newBook(t)
	id, err := book.Record("resume", selector.Outcome{
		Selection: &selector.Selection{
			Name:   "00002_feature_search",
			Method: selector.MethodHeuristic,
			Result: state.Result{State: state.StateImplementationInProgress},
		},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	lines, _ := book.Tail(1)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[0], "["+id+"] resume: selected 00002_feature_search (heuristic, implementation_in_progress)")
}

func TestRecordAmbiguityAndFailure(t *testing.T) {
	book := newBook(t)
	_, err := book.Record("status", selector.Outcome{
		Ambiguity: &selector.Ambiguity{
			Method:     selector.MethodHeuristic,
			Flag:       selector.AssignmentFlag,
			Candidates: []selector.Candidate{{Name: "00002_b"}, {Name: "00001_a"}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, book.Failure("resume", errors.New("no assignments")))

	lines, total := book.Tail(5)
	assert.Equal(t, 2, total)
	assert.Contains(t, lines[0], "WARN")
	assert.Contains(t, lines[0], "ambiguous (heuristic) between 00002_b, 00001_a")
	assert.Contains(t, lines[1], "ERROR resume: no assignments")
}

func TestRecordEmptyOutcomeWritesNothing(t *testing.T) {
	book := newBook(t)
	id, err := book.Record("resume", selector.Outcome{})
	require.NoError(t, err)
	assert.Empty(t, id)
	_, total := book.Tail(1)
	assert.Zero(t, total)
}
