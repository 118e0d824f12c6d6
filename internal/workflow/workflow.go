// internal/workflow/workflow.go
//
// Defines the assignment directory structure and file constants.
// All assignment state lives in plain files under the assignment directory
// so it stays git-trackable and can be edited by hand.

package workflow

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Phase directory names within an assignment
const (
	DirBrainstorm     = "brainstorm"
	DirBreakdown      = "breakdown"
	DirImplementation = "implementation"
	DirReview         = "review"
	DirTasks          = "tasks"
)

// Brainstorm phase files (in brainstorm/)
const (
	FileProposal = "proposal.md"
	FileDesign   = "design.md"
	FileRevision = "revision.json"
)

// Breakdown phase files (in breakdown/)
const (
	FilePlan              = "plan.md"
	FileBreakdownMetadata = "metadata.json"
)

// Implementation and review files
const (
	FileProgress       = "progress.json"
	FileReviewFeedback = "review-feedback.md"
	FileReviewReport   = "review_report.md" // lives at the assignment root
	FileTaskResult     = "result.md"        // tasks/<task>/result.md
)

// Legacy root-level files written before artifacts moved into phase folders
const (
	LegacyProposal            = "proposal.md"
	LegacyDesign              = "design.md"
	LegacyPlan                = "plan.md"
	LegacyImplementation      = "implementation.md"
	LegacyValidationChecklist = "validation_checklist.md"
)

// LegacyFile maps a pre-restructure root file to the phase folder it belongs in.
type LegacyFile struct {
	Name  string
	Phase Phase
}

// LegacyFiles lists every root-level legacy file in phase order.
var LegacyFiles = []LegacyFile{
	{Name: LegacyProposal, Phase: PhaseBrainstorm},
	{Name: LegacyDesign, Phase: PhaseBrainstorm},
	{Name: LegacyPlan, Phase: PhaseBreakdown},
	{Name: LegacyImplementation, Phase: PhaseImplementation},
	{Name: LegacyValidationChecklist, Phase: PhaseReview},
}

var namePattern = regexp.MustCompile(`^(\d{5})_([A-Za-z0-9-]+)_(.+)$`)

// Assignment is one unit of agent-executed work rooted at a directory.
type Assignment struct {
	// Name is the directory name, e.g. 00001_feature_login-form.
	Name string
	// ID is the 5-digit identifier, empty for legacy names.
	ID    string
	Type  string
	Label string
	// Root is the absolute or caller-relative path to the directory.
	Root string
}

// NewAssignment describes the assignment stored at root.
func NewAssignment(root string) Assignment {
	name := filepath.Base(filepath.Clean(root))
	id, kind, label := ParseName(name)
	return Assignment{
		Name:  name,
		ID:    id,
		Type:  kind,
		Label: label,
		Root:  root,
	}
}

// ParseName splits `<id>_<type>_<label>`. Names that do not follow the
// convention are legacy names: id and type come back empty and the whole
// name is used as the label.
func ParseName(name string) (id, kind, label string) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", name
	}
	return m[1], m[2], m[3]
}

// BrainstormDir returns the path to the brainstorm directory
func (a Assignment) BrainstormDir() string {
	return filepath.Join(a.Root, DirBrainstorm)
}

// BreakdownDir returns the path to the breakdown directory
func (a Assignment) BreakdownDir() string {
	return filepath.Join(a.Root, DirBreakdown)
}

// TasksDir returns the path to the legacy per-task folders
func (a Assignment) TasksDir() string {
	return filepath.Join(a.Root, DirTasks)
}

// RevisionPath returns the path to brainstorm/revision.json
func (a Assignment) RevisionPath() string {
	return filepath.Join(a.BrainstormDir(), FileRevision)
}

// BreakdownMetadataPath returns the path to breakdown/metadata.json
func (a Assignment) BreakdownMetadataPath() string {
	return filepath.Join(a.BreakdownDir(), FileBreakdownMetadata)
}

// LegacyPath returns the root-level path of a legacy file.
func (a Assignment) LegacyPath(name string) string {
	return filepath.Join(a.Root, name)
}

// RelPath renders a path relative to the assignment root with forward
// slashes, the form used in next actions and blockers.
func (a Assignment) RelPath(path string) string {
	rel, err := filepath.Rel(a.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func fileExistsAt(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func normalizeQuery(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
