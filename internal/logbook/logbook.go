// Package logbook keeps the human-readable selection journal: one line per
// selector outcome so a user can see later why a command resumed what it did.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/assignflow/internal/workflow/selector"
)

// FileName is the journal file created under the project's logs directory.
const FileName = "selection.log"

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook persists selection decisions to a simple text file.
type Logbook struct {
	path  string
	clock func() time.Time
	mu    sync.Mutex
}

// Option customizes the logbook.
type Option func(*Logbook)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a logbook that writes to the provided path.
func New(path string, opts ...Option) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logbook{path: path, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s\n",
		l.clock().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logbook: open %s: %w", l.path, err)
	}
	defer file.Close()
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("logbook: append: %w", err)
	}
	return nil
}

// Record journals a selector outcome for command and returns the decision id.
// A resolved selection is INFO, an unresolved tie is WARN.
func (l *Logbook) Record(command string, out selector.Outcome) (string, error) {
	id := uuid.NewString()
	switch {
	case out.Selection != nil:
		s := out.Selection
		return id, l.Append(LevelInfo, fmt.Sprintf("[%s] %s: selected %s (%s, %s)",
			id, command, s.Name, s.Method, s.Result.State))
	case out.Ambiguity != nil:
		names := make([]string, len(out.Ambiguity.Candidates))
		for i, c := range out.Ambiguity.Candidates {
			names[i] = c.Name
		}
		return id, l.Append(LevelWarn, fmt.Sprintf("[%s] %s: ambiguous (%s) between %s",
			id, command, out.Ambiguity.Method, strings.Join(names, ", ")))
	default:
		return "", nil
	}
}

// Failure journals a selection that ended in an error.
func (l *Logbook) Failure(command string, err error) error {
	return l.Append(LevelError, fmt.Sprintf("%s: %v", command, err))
}

// Tail returns up to maxLines of the most recent entries and the total number
// of entries in the journal.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}
