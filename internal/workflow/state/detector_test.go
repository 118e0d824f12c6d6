package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/workflow"
	"github.com/kingrea/assignflow/internal/workflow/progress"
)

const body = "# Design\n\nA body comfortably above the content threshold.\n"

type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(root, 0o755))
	return &fixture{t: t, root: root}
}

func (f *fixture) write(rel, content string) *fixture {
	f.t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	return f
}

func (f *fixture) detect() Result {
	f.t.Helper()
	res, err := New().Detect(f.root)
	require.NoError(f.t, err)
	return res
}

func hasBlocker(res Result, code string) bool {
	for _, b := range res.Blockers {
		if b.Code == code {
			return true
		}
	}
	return false
}

func TestDetectBrainstormInProgress(t *testing.T) {
	f := newFixture(t, "00001_feature_x")
	res := f.detect()
	assert.Equal(t, StateBrainstormInProgress, res.State)
	assert.Contains(t, res.NextAction, "brainstorm/design.md")
	assert.Empty(t, res.Blockers)
	assert.NotNil(t, res.Blockers)

	f.write("brainstorm/proposal.md", body)
	res = f.detect()
	assert.Equal(t, StateBrainstormInProgress, res.State)
	assert.Contains(t, res.NextAction, "proposal.md is drafted")
}

func TestDetectTrivialDesignDoesNotCount(t *testing.T) {
	f := newFixture(t, "00001_feature_x").write("brainstorm/design.md", "TODO\n")
	assert.Equal(t, StateBrainstormInProgress, f.detect().State)
}

func TestDetectDesignMissingWinsOverPlanMissing(t *testing.T) {
	f := newFixture(t, "00001_feature_x").write("implementation/progress.json", `{"tasks": []}`)
	res := f.detect()
	assert.Equal(t, StateBrainstormInProgress, res.State)
	assert.True(t, hasBlocker(res, CodeInconsistentPhaseArtifacts))
}

func TestDetectBreakdownReady(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("brainstorm/proposal.md", body)
	res := f.detect()
	assert.Equal(t, StateBreakdownReady, res.State)
	assert.Contains(t, strings.ToLower(res.NextAction), "generate the breakdown plan")
	assert.Equal(t, "No implementation/progress.json found", res.Progress.Summary)
	assert.Empty(t, res.Blockers)
}

func TestDetectRevisionMismatch(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("brainstorm/revision.json", `{"revision": 2, "timestamp": "2026-06-01T08:00:00Z"}`).
		write("breakdown/metadata.json", `{"based_on_brainstorm_revision": 1}`)
	res := f.detect()
	assert.Equal(t, StateRevisionRequiresRebreakdown, res.State)
	assert.True(t, res.State.IsBlocking())
	require.Len(t, res.Blockers, 1)
	assert.Equal(t, CodeDesignRevisionMismatch, res.Blockers[0].Code)
	assert.Contains(t, res.Blockers[0].Detail, "revision 2")
	assert.Contains(t, res.Blockers[0].Detail, "revision 1")
	assert.Equal(t, 2, res.Revision.BrainstormRevision)
}

func TestDetectRevisionMismatchBeatsCompletedProgress(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("brainstorm/revision.json", `{"revision": 3}`).
		write("breakdown/metadata.json", `{"based_on_brainstorm_revision": 2}`).
		write("implementation/progress.json", `{"tasks": [{"status": "completed"}, {"status": "completed"}]}`).
		write("review_report.md", "done")
	res := f.detect()
	assert.Equal(t, StateRevisionRequiresRebreakdown, res.State)
	assert.Equal(t, "2/2 completed, 0 in progress, 0 pending", res.Progress.Summary)
}

func TestDetectImplementationReady(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("brainstorm/revision.json", `{"revision": 1}`).
		write("breakdown/metadata.json", `{"based_on_brainstorm_revision": 1}`)
	res := f.detect()
	assert.Equal(t, StateImplementationReady, res.State)
	assert.Contains(t, res.NextAction, "no approval gate")
	assert.False(t, res.Revision.HasMismatch)
}

func TestDetectImplementationLifecycle(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("implementation/progress.json", `{"tasks": [{"status": "completed"}, {"status": "in_progress"}]}`)

	res := f.detect()
	assert.Equal(t, StateImplementationInProgress, res.State)
	assert.Contains(t, res.NextAction, "1/2 completed, 1 in progress, 0 pending")

	f.write("review/review-feedback.md", "please rename things")
	res = f.detect()
	assert.True(t, res.PendingFeedback)
	assert.Contains(t, res.NextAction, "review/review-feedback.md")

	f.write("implementation/progress.json", `{"tasks": [{"status": "completed"}, {"status": "completed"}]}`)
	assert.Equal(t, StateReviewReady, f.detect().State)

	f.write("review_report.md", "approved")
	res = f.detect()
	assert.Equal(t, StateCompleted, res.State)
	assert.True(t, res.State.IsTerminal())
}

func TestDetectEmptyTaskListIsInProgress(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("implementation/progress.json", `{"tasks": []}`)
	assert.Equal(t, StateImplementationInProgress, f.detect().State)
}

func TestDetectMalformedProgressMatchesAbsent(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan")
	absent := f.detect()

	f.write("implementation/progress.json", `{"tasks": [{"status": "completed"`)
	corrupt := f.detect()
	assert.Equal(t, absent, corrupt)
	assert.Equal(t, StateImplementationReady, corrupt.State)
	assert.Equal(t, progress.SourceNone, corrupt.Progress.Source)
}

func TestDetectTaskFolderFallbackCountsAsProgress(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("tasks/01-setup/result.md", "ok").
		write("tasks/02-api/notes.md", "wip")
	res := f.detect()
	assert.Equal(t, StateImplementationInProgress, res.State)
	assert.Equal(t, progress.SourceTaskFolders, res.Progress.Source)
}

func TestDetectLegacyLayoutIsInformational(t *testing.T) {
	f := newFixture(t, "legacy-assignment").
		write("brainstorm/design.md", body).
		write("design.md", "old").
		write("validation_checklist.md", "old")
	res := f.detect()
	assert.Equal(t, StateBreakdownReady, res.State)
	require.True(t, hasBlocker(res, CodeLegacyLayoutDetected))
	for _, b := range res.Blockers {
		if b.Code == CodeLegacyLayoutDetected {
			assert.Contains(t, b.Detail, "design.md, validation_checklist.md")
			assert.Contains(t, b.RecommendedFix, "migrate legacy-assignment")
		}
	}
}

func TestDetectMultipleBlockersCoexist(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("implementation/progress.json", `{"tasks": []}`).
		write("plan.md", "legacy plan")
	res := f.detect()
	assert.Equal(t, StateBreakdownReady, res.State)
	assert.True(t, hasBlocker(res, CodeInconsistentPhaseArtifacts))
	assert.True(t, hasBlocker(res, CodeLegacyLayoutDetected))
}

func TestDetectIsDeterministic(t *testing.T) {
	f := newFixture(t, "00001_feature_x").
		write("brainstorm/design.md", body).
		write("breakdown/plan.md", "plan").
		write("implementation/progress.json", `{"total": 4, "completed": 1}`)
	first := f.detect()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, f.detect())
	}
}

func TestDetectUnreadableRoot(t *testing.T) {
	_, err := New().Detect(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrRootUnreadable)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New().Detect(file)
	require.ErrorIs(t, err, ErrRootUnreadable)
}

func TestInventoryClassifiesEveryArtifact(t *testing.T) {
	f := newFixture(t, "00009_feature_inventory").
		write("brainstorm/design.md", body).
		write("brainstorm/proposal.md", "tiny").
		write("implementation/progress.json", `{"tasks": [`)

	rows := New().Inventory(workflow.NewAssignment(f.root))
	require.Len(t, rows, len(artifact.All()))

	byID := map[string]artifact.CheckResult{}
	for _, row := range rows {
		byID[row.Ref.ID] = row
	}
	assert.Equal(t, artifact.StateReady, byID["design"].State)
	assert.False(t, byID["design"].ModTime.IsZero())
	assert.Equal(t, artifact.StateInvalid, byID["proposal"].State)
	assert.Error(t, byID["proposal"].Err)
	assert.Equal(t, artifact.StateInvalid, byID["progress"].State)
	assert.Equal(t, artifact.StateMissing, byID["plan"].State)
	assert.NoError(t, byID["plan"].Err)
	assert.True(t, byID["plan"].ModTime.IsZero())
}
