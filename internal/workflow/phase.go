// internal/workflow/phase.go
//
// Phase ordering for an assignment. Each phase owns a canonical artifact
// whose presence marks the phase as done; scanning them in order finds
// phases that were skipped.

package workflow

import "path/filepath"

// Phase represents a stage in the assignment lifecycle
type Phase string

const (
	PhaseBrainstorm     Phase = "brainstorm"
	PhaseBreakdown      Phase = "breakdown"
	PhaseImplementation Phase = "implementation"
	PhaseReview         Phase = "review"
	PhaseCapture        Phase = "capture"
)

// PhaseOrder is the canonical lifecycle order.
var PhaseOrder = []Phase{
	PhaseBrainstorm,
	PhaseBreakdown,
	PhaseImplementation,
	PhaseReview,
	PhaseCapture,
}

// String returns the phase name
func (p Phase) String() string {
	return string(p)
}

// FriendlyName returns a short description suitable for table display
func (p Phase) FriendlyName() string {
	switch p {
	case PhaseBrainstorm:
		return "Brainstorm"
	case PhaseBreakdown:
		return "Breakdown"
	case PhaseImplementation:
		return "Implementation"
	case PhaseReview:
		return "Review"
	case PhaseCapture:
		return "Capture"
	default:
		return "Unknown"
	}
}

// CanonicalArtifact returns the path (relative to the assignment root) of
// the file that marks the phase as done. Capture has no marker.
func (p Phase) CanonicalArtifact() (string, bool) {
	switch p {
	case PhaseBrainstorm:
		return filepath.Join(DirBrainstorm, FileDesign), true
	case PhaseBreakdown:
		return filepath.Join(DirBreakdown, FilePlan), true
	case PhaseImplementation:
		return filepath.Join(DirImplementation, FileProgress), true
	case PhaseReview:
		return FileReviewReport, true
	default:
		return "", false
	}
}

// PhaseScan records which canonical phase artifacts exist.
type PhaseScan struct {
	Present []Phase
	// Skipped lists earlier phases whose artifact is missing while a later
	// phase artifact exists.
	Skipped []Phase
	// Latest is the furthest phase with an artifact on disk.
	Latest Phase
}

// Inconsistent reports whether a later phase exists without an earlier one.
func (s PhaseScan) Inconsistent() bool {
	return len(s.Skipped) > 0
}

// ScanPhases checks canonical phase artifacts in order.
func ScanPhases(a Assignment) PhaseScan {
	var scan PhaseScan
	var missing []Phase
	for _, phase := range PhaseOrder {
		rel, ok := phase.CanonicalArtifact()
		if !ok {
			continue
		}
		if fileExistsAt(filepath.Join(a.Root, rel)) {
			scan.Present = append(scan.Present, phase)
			scan.Latest = phase
			scan.Skipped = append(scan.Skipped, missing...)
			missing = nil
			continue
		}
		missing = append(missing, phase)
	}
	return scan
}

// LegacyFilesPresent returns the legacy root-level files that exist.
func LegacyFilesPresent(a Assignment) []string {
	var found []string
	for _, legacy := range LegacyFiles {
		if fileExistsAt(a.LegacyPath(legacy.Name)) {
			found = append(found, legacy.Name)
		}
	}
	return found
}
