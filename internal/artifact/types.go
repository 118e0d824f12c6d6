// Package artifact defines the files an assignment phase produces and the
// probe that inspects them. Each artifact has a stable identifier, a kind,
// and a path relative to the assignment directory.

package artifact

import (
	"path/filepath"
	"time"

	"github.com/kingrea/assignflow/internal/workflow"
)

// Kind captures the storage shape and serialization format for an artifact.
type Kind string

const (
	// KindDocument represents a markdown document, optionally with YAML frontmatter.
	KindDocument Kind = "document"
	// KindJSON represents a structured JSON record.
	KindJSON Kind = "json"
)

// ArtifactRef declares a stable identifier and location for an artifact.
type ArtifactRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	Phase       workflow.Phase
	// Rel is the slash-separated path relative to the assignment root.
	Rel string
}

// Path resolves the artifact path for an assignment.
func (r ArtifactRef) Path(a workflow.Assignment) string {
	if r.Rel == "" {
		return ""
	}
	return filepath.Join(a.Root, filepath.FromSlash(r.Rel))
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	// StateInvalid covers unparseable JSON and documents too short to count.
	StateInvalid State = "invalid"
)

// CheckResult captures Probe.Check results.
type CheckResult struct {
	Ref     ArtifactRef
	Path    string
	State   State
	ModTime time.Time
	Err     error
}

// helper to register global references
func register(ref ArtifactRef) ArtifactRef {
	all = append(all, ref)
	return ref
}

var all []ArtifactRef

// All returns every registered reference in registration order.
func All() []ArtifactRef {
	out := make([]ArtifactRef, len(all))
	copy(out, all)
	return out
}

func newDocRef(id, name, desc string, phase workflow.Phase, rel string) ArtifactRef {
	return ArtifactRef{ID: id, Name: name, Description: desc, Kind: KindDocument, Phase: phase, Rel: rel}
}

func newJSONRef(id, name, desc string, phase workflow.Phase, rel string) ArtifactRef {
	return ArtifactRef{ID: id, Name: name, Description: desc, Kind: KindJSON, Phase: phase, Rel: rel}
}

func join(parts ...string) string {
	return filepath.ToSlash(filepath.Join(parts...))
}

// Canonical artifact references for an assignment.
var (
	Proposal = register(newDocRef("proposal", "Proposal", "brainstorm/proposal.md drafted before the design",
		workflow.PhaseBrainstorm, join(workflow.DirBrainstorm, workflow.FileProposal)))
	Design = register(newDocRef("design", "Design", "brainstorm/design.md produced by brainstorming",
		workflow.PhaseBrainstorm, join(workflow.DirBrainstorm, workflow.FileDesign)))
	RevisionRecord = register(newJSONRef("revision", "Design Revision", "brainstorm/revision.json counting design re-drafts",
		workflow.PhaseBrainstorm, join(workflow.DirBrainstorm, workflow.FileRevision)))

	Plan = register(newDocRef("plan", "Breakdown Plan", "breakdown/plan.md describing the task breakdown",
		workflow.PhaseBreakdown, join(workflow.DirBreakdown, workflow.FilePlan)))
	BreakdownMetadata = register(newJSONRef("breakdown-metadata", "Breakdown Metadata", "breakdown/metadata.json recording the design revision the plan was built from",
		workflow.PhaseBreakdown, join(workflow.DirBreakdown, workflow.FileBreakdownMetadata)))

	Progress = register(newJSONRef("progress", "Implementation Progress", "implementation/progress.json tracking task status",
		workflow.PhaseImplementation, join(workflow.DirImplementation, workflow.FileProgress)))

	ReviewFeedback = register(newDocRef("review-feedback", "Review Feedback", "review/review-feedback.md with feedback not yet addressed",
		workflow.PhaseReview, join(workflow.DirReview, workflow.FileReviewFeedback)))
	ReviewReport = register(newDocRef("review-report", "Review Report", "review_report.md written when the assignment is finished",
		workflow.PhaseReview, workflow.FileReviewReport))
)

// RecencyRefs are the artifacts whose modification times decide how
// recently an assignment was worked on.
var RecencyRefs = []ArtifactRef{
	Design,
	Proposal,
	Plan,
	BreakdownMetadata,
	Progress,
	ReviewFeedback,
	ReviewReport,
}
