package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/assignflow/internal/workflow"
)

// DefaultMinContentBytes is the smallest document body (after trimming and
// frontmatter removal) that counts as a real artifact.
const DefaultMinContentBytes = 16

var (
	errDirectory  = errors.New("artifact: expected file got directory")
	errNullRecord = errors.New("artifact: record is null")
	errIncomplete = errors.New("artifact: record is missing required fields")
	errTooShort   = errors.New("artifact: document is too short")
)

// Validator is implemented by structured records that need more than a
// successful decode to count as present.
type Validator interface {
	Valid() bool
}

// Probe performs read-only existence and content checks against one
// assignment directory. Every call hits the filesystem; nothing is cached.
type Probe struct {
	assignment workflow.Assignment
	minContent int
	logger     *zap.Logger
}

// ProbeOption customizes a Probe during construction.
type ProbeOption func(*Probe)

// WithMinContentBytes overrides the non-trivial document threshold.
func WithMinContentBytes(n int) ProbeOption {
	return func(p *Probe) {
		if n >= 0 {
			p.minContent = n
		}
	}
}

// WithLogger records degraded reads at debug level.
func WithLogger(logger *zap.Logger) ProbeOption {
	return func(p *Probe) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProbe builds a probe for an assignment.
func NewProbe(a workflow.Assignment, opts ...ProbeOption) *Probe {
	probe := &Probe{
		assignment: a,
		minContent: DefaultMinContentBytes,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(probe)
	}
	return probe
}

// Assignment returns the assignment being probed.
func (p *Probe) Assignment() workflow.Assignment {
	return p.assignment
}

// Path resolves ref against the assignment root.
func (p *Probe) Path(ref ArtifactRef) string {
	return ref.Path(p.assignment)
}

func (p *Probe) stat(ref ArtifactRef) (fs.FileInfo, bool) {
	info, err := os.Stat(p.Path(ref))
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}

// Exists reports whether the artifact is a regular file on disk.
func (p *Probe) Exists(ref ArtifactRef) bool {
	_, ok := p.stat(ref)
	return ok
}

// ModTime returns the artifact modification time if it exists.
func (p *Probe) ModTime(ref ArtifactRef) (time.Time, bool) {
	info, ok := p.stat(ref)
	if !ok {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// LatestModTime returns the newest modification time across refs. Missing
// files contribute nothing.
func (p *Probe) LatestModTime(refs []ArtifactRef) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, ref := range refs {
		mod, ok := p.ModTime(ref)
		if !ok {
			continue
		}
		if !found || mod.After(latest) {
			latest = mod
			found = true
		}
	}
	return latest, found
}

func (p *Probe) read(ref ArtifactRef) ([]byte, bool) {
	path := p.Path(ref)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.degrade(ref, err)
		}
		return nil, false
	}
	return data, true
}

// HasContent reports whether a document exists and its body, without
// frontmatter, is at least the configured minimum length.
func (p *Probe) HasContent(ref ArtifactRef) bool {
	data, ok := p.read(ref)
	if !ok {
		return false
	}
	return len(bytes.TrimSpace(DocumentBody(data))) >= p.minContent
}

// Check inspects the artifact on disk and classifies it.
func (p *Probe) Check(ref ArtifactRef) CheckResult {
	path := p.Path(ref)
	result := CheckResult{Ref: ref, Path: path, State: StateMissing}
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Err = err
		}
		return result
	}
	result.ModTime = info.ModTime()
	if info.IsDir() {
		result.State = StateInvalid
		result.Err = errDirectory
		return result
	}
	switch ref.Kind {
	case KindJSON:
		if _, ok := ReadStructured[map[string]any](p, ref); !ok {
			result.State = StateInvalid
			result.Err = fmt.Errorf("artifact: %s is not a JSON object", ref.Rel)
			return result
		}
	default:
		if !p.HasContent(ref) {
			result.State = StateInvalid
			result.Err = errTooShort
			return result
		}
	}
	result.State = StateReady
	return result
}

// ReadStructured decodes a JSON artifact into T. Missing files, unreadable
// files, parse failures, JSON null, and records failing Validator all come
// back as (zero, false): absent and malformed are the same outcome.
func ReadStructured[T any](p *Probe, ref ArtifactRef) (T, bool) {
	var zero T
	data, ok := p.read(ref)
	if !ok {
		return zero, false
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		p.degrade(ref, errNullRecord)
		return zero, false
	}
	var value T
	if err := json.Unmarshal(trimmed, &value); err != nil {
		p.degrade(ref, err)
		return zero, false
	}
	if v, ok := any(&value).(Validator); ok && !v.Valid() {
		p.degrade(ref, errIncomplete)
		return zero, false
	}
	return value, true
}

func (p *Probe) degrade(ref ArtifactRef, err error) {
	p.logger.Debug("artifact unreadable, treating as absent",
		zap.String("assignment", p.assignment.Name),
		zap.String("artifact", ref.ID),
		zap.String("path", p.Path(ref)),
		zap.Error(err),
	)
}
