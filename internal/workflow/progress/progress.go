// Package progress turns implementation progress records into normalized
// task counts. The record schema changed over time, so aggregation falls
// back through older shapes and never fails: unknown counts are zero.
package progress

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/workflow"
)

// Source names where the counts came from.
type Source string

const (
	SourceTasks       Source = "tasks"
	SourceCounters    Source = "counters"
	SourceTaskFolders Source = "task_folders"
	SourceNone        Source = "none"
)

// Task status values inside a tasks array.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var (
	totalKeys     = []string{"total_tasks", "total", "task_count"}
	completedKeys = []string{"completed_tasks", "completed", "done"}
)

// TaskFolder is one entry of the legacy tasks/<name>/ convention.
type TaskFolder struct {
	Name      string `json:"name"`
	HasResult bool   `json:"has_result"`
}

// Summary is the normalized progress view.
type Summary struct {
	Source          Source `json:"source"`
	TotalTasks      int    `json:"total_tasks"`
	CompletedTasks  int    `json:"completed_tasks"`
	InProgressTasks int    `json:"in_progress_tasks"`
	PendingTasks    int    `json:"pending_tasks"`
	Summary         string `json:"summary"`
	// Present is true when a progress record parsed or task folders exist,
	// even if neither yielded counts.
	Present bool `json:"present"`
}

// AllCompleted reports whether every known task is complete. An empty task
// list is not complete.
func (s Summary) AllCompleted() bool {
	return s.TotalTasks > 0 && s.CompletedTasks >= s.TotalTasks
}

// Format renders the fixed "X/Y completed, Z in progress, W pending" line.
func Format(total, completed, inProgress, pending int) string {
	return fmt.Sprintf("%d/%d completed, %d in progress, %d pending", completed, total, inProgress, pending)
}

// Aggregate derives counts from the decoded progress record. record is nil
// when the record is absent or unreadable; folders is the task-folder scan
// used as the last fallback.
func Aggregate(record map[string]any, folders []TaskFolder) Summary {
	s := aggregate(record, folders)
	s.Present = record != nil || len(folders) > 0
	return s
}

func aggregate(record map[string]any, folders []TaskFolder) Summary {
	if record != nil {
		if tasks, ok := record["tasks"].([]any); ok {
			return fromTasks(tasks)
		}
		if total, completed, ok := counters(record); ok {
			return fromCounters(total, completed)
		}
	}
	if len(folders) > 0 {
		return fromFolders(folders)
	}
	progressRel := filepath.ToSlash(filepath.Join(workflow.DirImplementation, workflow.FileProgress))
	if record == nil {
		return Summary{Source: SourceNone, Summary: "No " + progressRel + " found"}
	}
	return Summary{Source: SourceNone, Summary: "No task counters found in " + progressRel}
}

func fromTasks(tasks []any) Summary {
	s := Summary{Source: SourceTasks, TotalTasks: len(tasks)}
	for _, raw := range tasks {
		status := ""
		if task, ok := raw.(map[string]any); ok {
			status, _ = task["status"].(string)
		}
		switch strings.ToLower(strings.TrimSpace(status)) {
		case StatusCompleted:
			s.CompletedTasks++
		case StatusInProgress:
			s.InProgressTasks++
		default:
			s.PendingTasks++
		}
	}
	s.Summary = Format(s.TotalTasks, s.CompletedTasks, s.InProgressTasks, s.PendingTasks)
	return s
}

func fromCounters(total, completed int) Summary {
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	pending := total - completed
	if pending < 0 {
		pending = 0
	}
	return Summary{
		Source:         SourceCounters,
		TotalTasks:     total,
		CompletedTasks: completed,
		PendingTasks:   pending,
		Summary:        Format(total, completed, 0, pending),
	}
}

func fromFolders(folders []TaskFolder) Summary {
	completed := 0
	for _, f := range folders {
		if f.HasResult {
			completed++
		}
	}
	total := len(folders)
	return Summary{
		Source:         SourceTaskFolders,
		TotalTasks:     total,
		CompletedTasks: completed,
		PendingTasks:   total - completed,
		Summary:        Format(total, completed, 0, total-completed),
	}
}

func counters(record map[string]any) (total, completed int, ok bool) {
	total = firstCount(record, totalKeys)
	if total <= 0 {
		return 0, 0, false
	}
	return total, firstCount(record, completedKeys), true
}

// firstCount returns the first numeric value among keys, clamped at zero.
func firstCount(record map[string]any, keys []string) int {
	for _, key := range keys {
		if n, ok := toCount(record[key]); ok {
			return n
		}
	}
	return 0
}

// maxCount caps hand-edited counters so they never overflow int.
const maxCount = math.MaxInt32

func toCount(value any) (int, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || f < 0 {
		return 0, true
	}
	if f >= maxCount {
		return maxCount, true
	}
	return int(f), true
}

// ScanTaskFolders lists tasks/<name>/ directories and whether each holds a
// result.md.
func ScanTaskFolders(a workflow.Assignment) []TaskFolder {
	entries, err := os.ReadDir(a.TasksDir())
	if err != nil {
		return nil
	}
	var folders []TaskFolder
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		result := filepath.Join(a.TasksDir(), entry.Name(), workflow.FileTaskResult)
		info, statErr := os.Stat(result)
		folders = append(folders, TaskFolder{
			Name:      entry.Name(),
			HasResult: statErr == nil && !info.IsDir(),
		})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders
}

// Load reads implementation/progress.json through the probe and aggregates
// it with the task-folder fallback.
func Load(probe *artifact.Probe) Summary {
	record, ok := artifact.ReadStructured[map[string]any](probe, artifact.Progress)
	if !ok {
		record = nil
	}
	return Aggregate(record, ScanTaskFolders(probe.Assignment()))
}
