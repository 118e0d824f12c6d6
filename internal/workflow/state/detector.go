package state

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/workflow"
	"github.com/kingrea/assignflow/internal/workflow/progress"
	"github.com/kingrea/assignflow/internal/workflow/revision"
)

// ErrRootUnreadable is the only failure Detect returns: the assignment
// directory itself cannot be read.
var ErrRootUnreadable = errors.New("state: assignment root unreadable")

// Result is the derived view of one assignment.
type Result struct {
	Assignment string           `json:"assignment"`
	State      State            `json:"state"`
	NextAction string           `json:"next_action"`
	Blockers   []Blocker        `json:"blockers"`
	Progress   progress.Summary `json:"progress"`
	Revision   revision.Check   `json:"revision"`
	// PendingFeedback is set when review/review-feedback.md exists.
	PendingFeedback bool `json:"pending_feedback"`
}

// Detector evaluates assignments.
type Detector struct {
	minContent int
	logger     *zap.Logger
}

// Option customizes the detector.
type Option func(*Detector)

// WithMinContentBytes sets how long design/proposal bodies must be to count.
func WithMinContentBytes(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.minContent = n
		}
	}
}

// WithLogger attaches a logger; degraded artifact reads are logged at debug.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New builds a detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		minContent: artifact.DefaultMinContentBytes,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Probe returns an artifact probe configured like the detector's own.
func (d *Detector) Probe(a workflow.Assignment) *artifact.Probe {
	return artifact.NewProbe(a,
		artifact.WithMinContentBytes(d.minContent),
		artifact.WithLogger(d.logger),
	)
}

// Inventory checks every known artifact of a in registration order.
func (d *Detector) Inventory(a workflow.Assignment) []artifact.CheckResult {
	probe := d.Probe(a)
	refs := artifact.All()
	out := make([]artifact.CheckResult, 0, len(refs))
	for _, ref := range refs {
		out = append(out, probe.Check(ref))
	}
	return out
}

// Detect derives the state of the assignment at root.
func (d *Detector) Detect(root string) (Result, error) {
	return d.DetectAssignment(workflow.NewAssignment(root))
}

// DetectAssignment derives the state of a. Missing and malformed artifacts
// are folded into the state; only an unreadable root is an error.
func (d *Detector) DetectAssignment(a workflow.Assignment) (Result, error) {
	info, err := os.Stat(a.Root)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrRootUnreadable, a.Root, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, a.Root)
	}

	probe := d.Probe(a)
	result := Result{
		Assignment:      a.Name,
		Blockers:        structuralBlockers(a),
		Progress:        progress.Load(probe),
		PendingFeedback: probe.Exists(artifact.ReviewFeedback),
	}
	d.decide(probe, &result)
	if result.Blockers == nil {
		result.Blockers = []Blocker{}
	}
	d.logger.Debug("assignment state detected",
		zap.String("assignment", a.Name),
		zap.String("state", string(result.State)),
		zap.Int("blockers", len(result.Blockers)),
	)
	return result, nil
}

// decide applies the lifecycle precedence: design, plan, revision,
// progress, completion. The first matching rule wins.
func (d *Detector) decide(probe *artifact.Probe, result *Result) {
	if !probe.HasContent(artifact.Design) {
		result.State = StateBrainstormInProgress
		if probe.HasContent(artifact.Proposal) {
			result.NextAction = fmt.Sprintf("Continue brainstorming: %s is drafted, write %s", artifact.Proposal.Rel, artifact.Design.Rel)
		} else {
			result.NextAction = fmt.Sprintf("Continue brainstorming to produce %s", artifact.Design.Rel)
		}
		return
	}
	if !probe.Exists(artifact.Plan) {
		result.State = StateBreakdownReady
		result.NextAction = fmt.Sprintf("Generate the breakdown plan at %s from %s", artifact.Plan.Rel, artifact.Design.Rel)
		return
	}

	check := revision.Compare(probe)
	result.Revision = check
	if check.HasMismatch {
		result.State = StateRevisionRequiresRebreakdown
		result.NextAction = fmt.Sprintf("Regenerate the breakdown before continuing: design is at revision %d, %s was built from revision %d",
			check.BrainstormRevision, artifact.Plan.Rel, check.BreakdownRevision)
		result.Blockers = append([]Blocker{mismatchBlocker(check)}, result.Blockers...)
		return
	}

	if !result.Progress.Present {
		result.State = StateImplementationReady
		result.NextAction = fmt.Sprintf("Start implementation from %s (no approval gate)", artifact.Plan.Rel)
		return
	}
	if probe.Exists(artifact.ReviewReport) {
		result.State = StateCompleted
		result.NextAction = fmt.Sprintf("Assignment is finished: %s is recorded", artifact.ReviewReport.Rel)
		return
	}
	if result.Progress.AllCompleted() {
		result.State = StateReviewReady
		result.NextAction = withFeedback(fmt.Sprintf("All %d tasks completed: run the review and seek final approval", result.Progress.TotalTasks), result.PendingFeedback)
		return
	}
	result.State = StateImplementationInProgress
	result.NextAction = withFeedback("Continue implementing ("+result.Progress.Summary+")", result.PendingFeedback)
}

func withFeedback(action string, pending bool) string {
	if !pending {
		return action
	}
	return action + "; address pending feedback in " + artifact.ReviewFeedback.Rel
}

func mismatchBlocker(check revision.Check) Blocker {
	return Blocker{
		Code: CodeDesignRevisionMismatch,
		Detail: fmt.Sprintf("brainstorm revision %d does not match breakdown revision %d",
			check.BrainstormRevision, check.BreakdownRevision),
		RecommendedFix: fmt.Sprintf("Regenerate %s from the revised design and record based_on_brainstorm_revision: %d in %s",
			artifact.Plan.Rel, check.BrainstormRevision, artifact.BreakdownMetadata.Rel),
	}
}

// structuralBlockers are computed for every assignment regardless of state.
func structuralBlockers(a workflow.Assignment) []Blocker {
	var blockers []Blocker
	if scan := workflow.ScanPhases(a); scan.Inconsistent() {
		blockers = append(blockers, Blocker{
			Code: CodeInconsistentPhaseArtifacts,
			Detail: fmt.Sprintf("%s artifacts exist but earlier phases are missing: %s",
				scan.Latest, joinPhases(scan.Skipped)),
			RecommendedFix: "Produce the missing phase artifacts or remove the out-of-order ones",
		})
	}
	if legacy := workflow.LegacyFilesPresent(a); len(legacy) > 0 {
		blockers = append(blockers, Blocker{
			Code:           CodeLegacyLayoutDetected,
			Detail:         "legacy root-level files found: " + strings.Join(legacy, ", "),
			RecommendedFix: "Run `assignflow migrate " + a.Name + "` to move them into their phase folders",
		})
	}
	return blockers
}

func joinPhases(phases []workflow.Phase) string {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
