package workflow

import (
	"fmt"
	"os"
	"path/filepath"
)

// Move records one legacy file relocation.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MigrationReport summarizes MigrateLegacy.
type MigrationReport struct {
	Moved []Move `json:"moved"`
	// Skipped holds legacy files left in place because the target already exists.
	Skipped []Move `json:"skipped"`
}

// legacyTarget maps a legacy root file to its new relative location.
func legacyTarget(name string) string {
	switch name {
	case LegacyProposal:
		return filepath.Join(DirBrainstorm, FileProposal)
	case LegacyDesign:
		return filepath.Join(DirBrainstorm, FileDesign)
	case LegacyPlan:
		return filepath.Join(DirBreakdown, FilePlan)
	case LegacyImplementation:
		return filepath.Join(DirImplementation, LegacyImplementation)
	case LegacyValidationChecklist:
		return filepath.Join(DirReview, LegacyValidationChecklist)
	default:
		return ""
	}
}

// MigrateLegacy moves root-level legacy files into their phase folders.
// Existing targets are never overwritten.
func MigrateLegacy(a Assignment) (MigrationReport, error) {
	var report MigrationReport
	for _, legacy := range LegacyFiles {
		from := a.LegacyPath(legacy.Name)
		if !fileExistsAt(from) {
			continue
		}
		to := filepath.Join(a.Root, legacyTarget(legacy.Name))
		move := Move{From: a.RelPath(from), To: a.RelPath(to)}
		if _, err := os.Stat(to); err == nil {
			report.Skipped = append(report.Skipped, move)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
			return report, fmt.Errorf("workflow: migrate %s: %w", legacy.Name, err)
		}
		if err := os.Rename(from, to); err != nil {
			return report, fmt.Errorf("workflow: migrate %s: %w", legacy.Name, err)
		}
		report.Moved = append(report.Moved, move)
	}
	return report, nil
}
