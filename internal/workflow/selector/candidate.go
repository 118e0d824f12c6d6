package selector

import (
	"sort"
	"time"

	"github.com/kingrea/assignflow/internal/workflow"
	"github.com/kingrea/assignflow/internal/workflow/state"
)

// DefaultPriority is used for states without an explicit rank.
const DefaultPriority = 35

// statePriority ranks states from most urgent to resume to least.
var statePriority = map[state.State]int{
	state.StateRevisionRequiresRebreakdown: 70,
	state.StateImplementationInProgress:    60,
	state.StateReviewReady:                 50,
	state.StateImplementationReady:         40,
	state.StateBreakdownReady:              30,
	state.StateBrainstormInProgress:        20,
	state.StateCompleted:                   0,
}

// Priority returns the resume rank of a state.
func Priority(s state.State) int {
	if p, ok := statePriority[s]; ok {
		return p
	}
	return DefaultPriority
}

// Candidate is one evaluated assignment.
type Candidate struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	State    state.State  `json:"state"`
	Priority int          `json:"priority"`
	Progress string       `json:"progress"`
	Result   state.Result `json:"-"`
	// LatestArtifact is the newest modification time across the recency
	// artifacts; nil when none exist.
	LatestArtifact *time.Time          `json:"latest_artifact,omitempty"`
	Assignment     workflow.Assignment `json:"-"`
}

// Touched returns LatestArtifact, or the zero time when nothing was written.
func (c Candidate) Touched() time.Time {
	if c.LatestArtifact == nil {
		return time.Time{}
	}
	return *c.LatestArtifact
}

// rank sorts candidates descending by (priority, latest artifact, name).
func rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if at, bt := a.Touched(), b.Touched(); !at.Equal(bt) {
			return at.After(bt)
		}
		return a.Name > b.Name
	})
}

// competing returns the ranked candidates tied with the top one: same
// priority and a latest artifact no more than window older.
func competing(ranked []Candidate, window time.Duration) []Candidate {
	if len(ranked) == 0 {
		return nil
	}
	top := ranked[0]
	out := []Candidate{top}
	for _, c := range ranked[1:] {
		if c.Priority != top.Priority {
			continue
		}
		if top.Touched().Sub(c.Touched()) <= window {
			out = append(out, c)
		}
	}
	return out
}
