package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrAssignmentNotFound is returned when an explicit assignment query matches nothing.
var ErrAssignmentNotFound = errors.New("workflow: assignment not found")

// ArchiveDir is skipped during discovery.
const ArchiveDir = "archive"

// List returns every assignment directory under dir sorted by name.
// A missing dir yields no assignments.
func List(dir string) ([]Assignment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: list assignments in %s: %w", dir, err)
	}
	assignments := make([]Assignment, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == ArchiveDir {
			continue
		}
		assignments = append(assignments, NewAssignment(filepath.Join(dir, name)))
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Name < assignments[j].Name
	})
	return assignments, nil
}

// Match returns the assignments a user query refers to. A full directory
// name wins outright; otherwise the query is compared against ids and
// labels.
func Match(assignments []Assignment, query string) []Assignment {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}
	for _, a := range assignments {
		if normalizeQuery(a.Name) == q {
			return []Assignment{a}
		}
	}
	var matches []Assignment
	for _, a := range assignments {
		if a.ID != "" && a.ID == q {
			matches = append(matches, a)
			continue
		}
		if normalizeQuery(a.Label) == q {
			matches = append(matches, a)
		}
	}
	return matches
}

// Find resolves a query against the assignments under dir. Every match is
// returned; callers decide what to do with more than one.
func Find(dir, query string) ([]Assignment, error) {
	all, err := List(dir)
	if err != nil {
		return nil, err
	}
	matches := Match(all, query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrAssignmentNotFound, query, dir)
	}
	return matches, nil
}
