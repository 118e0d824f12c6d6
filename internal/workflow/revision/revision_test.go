package revision

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/workflow"
)

func newAssignment(t *testing.T) workflow.Assignment {
	t.Helper()
	a := workflow.NewAssignment(filepath.Join(t.TempDir(), "00001_feature_rev"))
	require.NoError(t, os.MkdirAll(a.Root, 0o755))
	return a
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCompareWithoutRevisionRecord(t *testing.T) {
	a := newAssignment(t)
	write(t, a.BreakdownMetadataPath(), `{"based_on_brainstorm_revision": 4}`)

	check := Compare(artifact.NewProbe(a))
	assert.False(t, check.HasMismatch)
	assert.False(t, check.Recorded)
}

func TestCompareDetectsStaleBreakdown(t *testing.T) {
	a := newAssignment(t)
	write(t, a.RevisionPath(), `{"revision": 2, "timestamp": "2026-05-01T10:00:00Z"}`)
	write(t, a.BreakdownMetadataPath(), `{"based_on_brainstorm_revision": 1}`)

	check := Compare(artifact.NewProbe(a))
	assert.Equal(t, Check{HasMismatch: true, BrainstormRevision: 2, BreakdownRevision: 1, Recorded: true}, check)
}

func TestCompareMissingOrBrokenMetadataMeansRevisionZero(t *testing.T) {
	a := newAssignment(t)
	write(t, a.RevisionPath(), `{"revision": 1}`)
	probe := artifact.NewProbe(a)

	check := Compare(probe)
	assert.True(t, check.HasMismatch)
	assert.Equal(t, 0, check.BreakdownRevision)

	write(t, a.BreakdownMetadataPath(), `{"based_on_brainstorm_revision": `)
	assert.Equal(t, check, Compare(probe))

	write(t, a.RevisionPath(), `{"revision": 0}`)
	assert.False(t, Compare(probe).HasMismatch)
}

func TestBumpThenStampClearsMismatch(t *testing.T) {
	a := newAssignment(t)
	now := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	probe := artifact.NewProbe(a)

	_, err := Stamp(a, now)
	require.NoError(t, err)

	rec, err := Bump(a, now)
	require.NoError(t, err)
	assert.Equal(t, 1, *rec.Revision)
	assert.Equal(t, "2026-10-01T09:30:00Z", rec.Timestamp)

	rec, err = Bump(a, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, *rec.Revision)

	check := Compare(probe)
	assert.True(t, check.HasMismatch)
	assert.Equal(t, 2, check.BrainstormRevision)
	assert.Equal(t, 0, check.BreakdownRevision)

	meta, err := Stamp(a, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, *meta.BasedOnBrainstormRevision)
	assert.False(t, Compare(probe).HasMismatch)

	entries, err := os.ReadDir(a.BrainstormDir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not linger")
}
