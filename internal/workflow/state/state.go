// Package state infers where an assignment stands in its lifecycle purely
// from the artifacts on disk. Nothing is remembered between calls: every
// Detect re-reads the assignment directory.
package state

// State enumerates lifecycle positions.
type State string

const (
	StateBrainstormInProgress        State = "brainstorm_in_progress"
	StateBreakdownReady              State = "breakdown_ready"
	StateRevisionRequiresRebreakdown State = "revision_requires_rebreakdown"
	StateImplementationReady         State = "implementation_ready"
	StateImplementationInProgress    State = "implementation_in_progress"
	StateReviewReady                 State = "review_ready"
	StateCompleted                   State = "completed"
)

// String returns the state identifier
func (s State) String() string {
	return string(s)
}

// FriendlyName returns a short label suitable for tables and menus
func (s State) FriendlyName() string {
	switch s {
	case StateBrainstormInProgress:
		return "Brainstorming"
	case StateBreakdownReady:
		return "Ready For Breakdown"
	case StateRevisionRequiresRebreakdown:
		return "Stale Breakdown"
	case StateImplementationReady:
		return "Ready To Implement"
	case StateImplementationInProgress:
		return "Implementing"
	case StateReviewReady:
		return "Ready For Review"
	case StateCompleted:
		return "Complete"
	default:
		return "Unknown"
	}
}

// IsBlocking reports whether the state halts forward progress until fixed.
func (s State) IsBlocking() bool {
	return s == StateRevisionRequiresRebreakdown
}

// IsTerminal returns true if the assignment is finished
func (s State) IsTerminal() bool {
	return s == StateCompleted
}

// Blocker codes
const (
	CodeDesignRevisionMismatch     = "design_revision_mismatch"
	CodeInconsistentPhaseArtifacts = "inconsistent_phase_artifacts"
	CodeLegacyLayoutDetected       = "legacy_layout_detected"
)

// Blocker is a non-fatal inconsistency reported alongside a state.
type Blocker struct {
	Code           string `json:"code"`
	Detail         string `json:"detail"`
	RecommendedFix string `json:"recommended_fix"`
}
