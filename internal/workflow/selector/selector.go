// Package selector picks the assignment to resume when none is named. Every
// assignment is evaluated, ranked by state urgency and recency, and the top
// one wins unless others are tied with it; ties are handed to a Strategy
// supplied by the caller.
package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/workflow"
	"github.com/kingrea/assignflow/internal/workflow/state"
)

// DefaultAmbiguityWindow turns "slightly newer" into "tied".
const DefaultAmbiguityWindow = 15 * time.Minute

// AssignmentFlag is the flag that pins a selection explicitly.
const AssignmentFlag = "--assignment"

var (
	// ErrNoAssignments is returned when the assignments directory is empty.
	ErrNoAssignments = errors.New("selector: no assignments found")
	// ErrSelectionCancelled is returned by strategies when the user backs out.
	ErrSelectionCancelled = errors.New("selector: selection cancelled")
	// ErrUnknownCandidate is returned when a strategy picks outside the competing set.
	ErrUnknownCandidate = errors.New("selector: strategy chose a candidate that was not offered")
)

// Method records how a selection was made.
type Method string

const (
	MethodExplicit    Method = "explicit"
	MethodHeuristic   Method = "heuristic"
	MethodInteractive Method = "interactive"
)

// Strategy resolves a tie among competing candidates. A nil Candidate in
// the returned Decision defers the choice back to the caller.
type Strategy interface {
	Resolve(ctx context.Context, competing []Candidate) (Decision, error)
}

// Decision is a Strategy result.
type Decision struct {
	Candidate *Candidate
}

// Deferred reports whether the strategy declined to choose.
func (d Decision) Deferred() bool {
	return d.Candidate == nil
}

// Refuse is the non-interactive strategy: it never chooses.
type Refuse struct{}

// Resolve always defers.
func (Refuse) Resolve(context.Context, []Candidate) (Decision, error) {
	return Decision{}, nil
}

// Selection is a resolved assignment.
type Selection struct {
	Name   string       `json:"name"`
	Path   string       `json:"path"`
	Method Method       `json:"method"`
	Result state.Result `json:"result"`
}

// Ambiguity lists the candidates that could not be told apart.
type Ambiguity struct {
	Candidates []Candidate `json:"candidates"`
	Flag       string      `json:"flag"`
	// Method is explicit when an explicit query matched several assignments.
	Method Method `json:"method"`
}

// Outcome holds exactly one of Selection or Ambiguity.
type Outcome struct {
	Selection   *Selection `json:"selection,omitempty"`
	Ambiguity   *Ambiguity `json:"ambiguity,omitempty"`
	EvaluatedAt time.Time  `json:"evaluated_at"`
}

// Err converts an ambiguous outcome into an *AmbiguityError.
func (o Outcome) Err() error {
	if o.Ambiguity == nil {
		return nil
	}
	return &AmbiguityError{Ambiguity: *o.Ambiguity}
}

// AmbiguityError reports an unresolved tie.
type AmbiguityError struct {
	Ambiguity Ambiguity
}

func (e *AmbiguityError) Error() string {
	names := make([]string, len(e.Ambiguity.Candidates))
	for i, c := range e.Ambiguity.Candidates {
		names[i] = c.Name
	}
	return fmt.Sprintf("selector: %d assignments compete (%s); pass %s <name> to choose",
		len(names), strings.Join(names, ", "), e.Ambiguity.Flag)
}

// Selector evaluates and ranks the assignments under one directory.
type Selector struct {
	dir      string
	detector *state.Detector
	strategy Strategy
	window   time.Duration
	clock    func() time.Time
	logger   *zap.Logger
}

// Option customizes the selector.
type Option func(*Selector)

// WithDetector overrides the state detector.
func WithDetector(d *state.Detector) Option {
	return func(s *Selector) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithStrategy sets how ties are resolved. Defaults to Refuse.
func WithStrategy(strategy Strategy) Option {
	return func(s *Selector) {
		if strategy != nil {
			s.strategy = strategy
		}
	}
}

// WithWindow overrides the ambiguity window.
func WithWindow(window time.Duration) Option {
	return func(s *Selector) {
		if window >= 0 {
			s.window = window
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Selector) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a selector over the assignments directory dir.
func New(dir string, opts ...Option) *Selector {
	s := &Selector{
		dir:      dir,
		detector: state.New(),
		strategy: Refuse{},
		window:   DefaultAmbiguityWindow,
		clock:    time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes a selection.
type Request struct {
	// Explicit is the --assignment value; empty means choose heuristically.
	Explicit string
}

// Evaluate runs the detector on one assignment and scores it.
func (s *Selector) Evaluate(a workflow.Assignment) (Candidate, error) {
	res, err := s.detector.DetectAssignment(a)
	if err != nil {
		return Candidate{}, err
	}
	c := Candidate{
		Name:       a.Name,
		Path:       a.Root,
		State:      res.State,
		Priority:   Priority(res.State),
		Progress:   res.Progress.Summary,
		Result:     res,
		Assignment: a,
	}
	if latest, ok := s.detector.Probe(a).LatestModTime(artifact.RecencyRefs); ok {
		c.LatestArtifact = &latest
	}
	return c, nil
}

// Rank evaluates every assignment and returns them best first. Assignments
// whose directory cannot be read are skipped.
func (s *Selector) Rank() ([]Candidate, error) {
	assignments, err := workflow.List(s.dir)
	if err != nil {
		return nil, err
	}
	return s.rankAssignments(assignments), nil
}

func (s *Selector) rankAssignments(assignments []workflow.Assignment) []Candidate {
	candidates := make([]Candidate, 0, len(assignments))
	for _, a := range assignments {
		c, err := s.Evaluate(a)
		if err != nil {
			s.logger.Warn("skipping unreadable assignment", zap.String("assignment", a.Name), zap.Error(err))
			continue
		}
		candidates = append(candidates, c)
	}
	rank(candidates)
	return candidates
}

// Select resolves the assignment to work on.
func (s *Selector) Select(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.Explicit) != "" {
		return s.selectExplicit(req.Explicit)
	}
	ranked, err := s.Rank()
	if err != nil {
		return Outcome{}, err
	}
	if len(ranked) == 0 {
		return Outcome{}, fmt.Errorf("%w in %s", ErrNoAssignments, s.dir)
	}
	tied := competing(ranked, s.window)
	if len(tied) == 1 {
		s.logger.Info("assignment selected", zap.String("assignment", tied[0].Name), zap.String("method", string(MethodHeuristic)))
		return s.selected(tied[0], MethodHeuristic), nil
	}

	decision, err := s.strategy.Resolve(ctx, tied)
	if err != nil {
		return Outcome{}, err
	}
	if decision.Deferred() {
		s.logger.Info("assignment selection ambiguous", zap.Int("competing", len(tied)))
		return s.ambiguous(tied, MethodHeuristic), nil
	}
	for _, c := range tied {
		if c.Name == decision.Candidate.Name {
			s.logger.Info("assignment selected", zap.String("assignment", c.Name), zap.String("method", string(MethodInteractive)))
			return s.selected(c, MethodInteractive), nil
		}
	}
	return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownCandidate, decision.Candidate.Name)
}

func (s *Selector) selectExplicit(query string) (Outcome, error) {
	matches, err := workflow.Find(s.dir, query)
	if err != nil {
		return Outcome{}, err
	}
	if len(matches) == 1 {
		c, err := s.Evaluate(matches[0])
		if err != nil {
			return Outcome{}, err
		}
		return s.selected(c, MethodExplicit), nil
	}
	return s.ambiguous(s.rankAssignments(matches), MethodExplicit), nil
}

func (s *Selector) selected(c Candidate, method Method) Outcome {
	return Outcome{
		Selection: &Selection{
			Name:   c.Name,
			Path:   c.Path,
			Method: method,
			Result: c.Result,
		},
		EvaluatedAt: s.clock(),
	}
}

func (s *Selector) ambiguous(candidates []Candidate, method Method) Outcome {
	return Outcome{
		Ambiguity: &Ambiguity{
			Candidates: candidates,
			Flag:       AssignmentFlag,
			Method:     method,
		},
		EvaluatedAt: s.clock(),
	}
}
