package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name      string
		wantID    string
		wantType  string
		wantLabel string
	}{
		{name: "00001_feature_login-form", wantID: "00001", wantType: "feature", wantLabel: "login-form"},
		{name: "00042_bugfix_null_deref", wantID: "00042", wantType: "bugfix", wantLabel: "null_deref"},
		{name: "old-style-assignment", wantLabel: "old-style-assignment"},
		{name: "1_feature_short-id", wantLabel: "1_feature_short-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, kind, label := ParseName(tt.name)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantType, kind)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestListSortsAndSkipsNonAssignments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"00002_feature_b", "00001_feature_a", ".hidden", ArchiveDir, "legacy"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
	}
	writeFile(t, dir, "README.md", "not an assignment")

	got, err := List(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, a := range got {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"00001_feature_a", "00002_feature_b", "legacy"}, names)
	assert.Empty(t, got[2].ID)
}

func TestListMissingDirectory(t *testing.T) {
	got, err := List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatchPrefersFullNameThenIDAndLabel(t *testing.T) {
	all := []Assignment{
		NewAssignment("/a/00001_feature_login"),
		NewAssignment("/a/00002_bugfix_login"),
		NewAssignment("/a/login"),
	}
	byName := Match(all, "LOGIN")
	require.Len(t, byName, 1)
	assert.Equal(t, "login", byName[0].Name)

	byLabel := Match(all[:2], "login")
	assert.Len(t, byLabel, 2)

	assert.Equal(t, "00002_bugfix_login", Match(all, "00002")[0].Name)
	assert.Equal(t, "00001_feature_login", Match(all, "00001_FEATURE_LOGIN")[0].Name)
	assert.Empty(t, Match(all, "nope"))
	assert.Empty(t, Match(all, "  "))
}

func TestFindNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "00001_feature_a"), 0o755))
	_, err := Find(dir, "00009")
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestScanPhasesDetectsSkippedPhases(t *testing.T) {
	root := filepath.Join(t.TempDir(), "00001_feature_x")
	a := NewAssignment(root)
	writeFile(t, root, "brainstorm/design.md", "design")
	writeFile(t, root, "implementation/progress.json", "{}")

	scan := ScanPhases(a)
	assert.Equal(t, []Phase{PhaseBrainstorm, PhaseImplementation}, scan.Present)
	assert.Equal(t, []Phase{PhaseBreakdown}, scan.Skipped)
	assert.Equal(t, PhaseImplementation, scan.Latest)
	assert.True(t, scan.Inconsistent())
}

func TestScanPhasesInOrderIsConsistent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "00001_feature_x")
	writeFile(t, root, "brainstorm/design.md", "design")
	writeFile(t, root, "breakdown/plan.md", "plan")

	scan := ScanPhases(NewAssignment(root))
	assert.False(t, scan.Inconsistent())
	assert.Equal(t, PhaseBreakdown, scan.Latest)
}

func TestMigrateLegacyMovesFilesWithoutOverwriting(t *testing.T) {
	root := filepath.Join(t.TempDir(), "legacy-work")
	a := NewAssignment(root)
	writeFile(t, root, "proposal.md", "old proposal")
	writeFile(t, root, "plan.md", "old plan")
	writeFile(t, root, "breakdown/plan.md", "new plan")
	writeFile(t, root, "validation_checklist.md", "- [ ] check")

	assert.ElementsMatch(t, []string{"proposal.md", "plan.md", "validation_checklist.md"}, LegacyFilesPresent(a))

	report, err := MigrateLegacy(a)
	require.NoError(t, err)
	assert.Equal(t, []Move{
		{From: "proposal.md", To: "brainstorm/proposal.md"},
		{From: "validation_checklist.md", To: "review/validation_checklist.md"},
	}, report.Moved)
	assert.Equal(t, []Move{{From: "plan.md", To: "breakdown/plan.md"}}, report.Skipped)

	data, err := os.ReadFile(filepath.Join(a.BreakdownDir(), FilePlan))
	require.NoError(t, err)
	assert.Equal(t, "new plan", string(data))
	assert.Equal(t, []string{"plan.md"}, LegacyFilesPresent(a))
}
