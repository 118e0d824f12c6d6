// Package revision keeps the breakdown plan honest about which design it was
// built from. brainstorm/revision.json counts design re-drafts and
// breakdown/metadata.json records the revision the plan was generated
// against; any difference means the plan is stale.
package revision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/workflow"
)

const timeLayout = time.RFC3339

// Record models brainstorm/revision.json.
type Record struct {
	Revision  *int   `json:"revision"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Valid requires a non-negative revision.
func (r Record) Valid() bool {
	return r.Revision != nil && *r.Revision >= 0
}

// BreakdownMetadata models breakdown/metadata.json.
type BreakdownMetadata struct {
	BasedOnBrainstormRevision *int   `json:"based_on_brainstorm_revision"`
	GeneratedAt               string `json:"generated_at,omitempty"`
}

// Valid requires a non-negative recorded revision.
func (m BreakdownMetadata) Valid() bool {
	return m.BasedOnBrainstormRevision != nil && *m.BasedOnBrainstormRevision >= 0
}

// Check is the RevisionGuard verdict.
type Check struct {
	HasMismatch        bool `json:"has_mismatch"`
	BrainstormRevision int  `json:"brainstorm_revision"`
	BreakdownRevision  int  `json:"breakdown_revision"`
	// Recorded is false when no revision record exists (revision 0).
	Recorded bool `json:"recorded"`
}

// Compare reads both records and reports whether they disagree. Without a
// revision record the design was never revised and nothing can mismatch.
// An absent or unreadable metadata file counts as revision 0.
func Compare(probe *artifact.Probe) Check {
	record, ok := artifact.ReadStructured[Record](probe, artifact.RevisionRecord)
	if !ok {
		return Check{}
	}
	check := Check{Recorded: true, BrainstormRevision: *record.Revision}
	if meta, ok := artifact.ReadStructured[BreakdownMetadata](probe, artifact.BreakdownMetadata); ok {
		check.BreakdownRevision = *meta.BasedOnBrainstormRevision
	}
	check.HasMismatch = check.BrainstormRevision != check.BreakdownRevision
	return check
}

// Current returns the design revision, 0 when never revised.
func Current(probe *artifact.Probe) int {
	record, ok := artifact.ReadStructured[Record](probe, artifact.RevisionRecord)
	if !ok {
		return 0
	}
	return *record.Revision
}

// Bump increments the design revision and writes brainstorm/revision.json.
func Bump(a workflow.Assignment, now time.Time) (Record, error) {
	next := Current(artifact.NewProbe(a)) + 1
	record := Record{Revision: &next, Timestamp: now.UTC().Format(timeLayout)}
	if err := writeJSON(a.RevisionPath(), record); err != nil {
		return Record{}, fmt.Errorf("revision: bump %s: %w", a.Name, err)
	}
	return record, nil
}

// Stamp records that the breakdown was (re)generated against the current
// design revision.
func Stamp(a workflow.Assignment, now time.Time) (BreakdownMetadata, error) {
	current := Current(artifact.NewProbe(a))
	meta := BreakdownMetadata{BasedOnBrainstormRevision: &current, GeneratedAt: now.UTC().Format(timeLayout)}
	if err := writeJSON(a.BreakdownMetadataPath(), meta); err != nil {
		return BreakdownMetadata{}, fmt.Errorf("revision: stamp %s: %w", a.Name, err)
	}
	return meta, nil
}

// writeJSON replaces path atomically so a concurrent reader sees either the
// old or the new record.
func writeJSON(path string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
