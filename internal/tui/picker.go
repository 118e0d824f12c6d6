// internal/tui/picker.go
//
// Picker is the interactive tie breaker for the assignment selector. When
// several assignments compete, it shows them in a list and lets the user
// pick one; escape cancels the command.

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kingrea/assignflow/internal/workflow/selector"
)

// Picker implements selector.Strategy with a bubbletea program.
type Picker struct {
	clock  func() time.Time
	input  io.Reader
	output io.Writer
}

// Option customizes the picker.
type Option func(*Picker)

// WithClock injects the clock used for "touched ... ago" labels.
func WithClock(clock func() time.Time) Option {
	return func(p *Picker) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithIO overrides the terminal the program reads from and draws to.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(p *Picker) {
		p.input = in
		p.output = out
	}
}

// NewPicker builds an interactive strategy.
func NewPicker(opts ...Option) *Picker {
	p := &Picker{clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ selector.Strategy = (*Picker)(nil)

// Resolve runs the picker until the user chooses or cancels.
func (p *Picker) Resolve(ctx context.Context, competing []selector.Candidate) (selector.Decision, error) {
	if len(competing) == 0 {
		return selector.Decision{}, nil
	}
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if p.input != nil {
		opts = append(opts, tea.WithInput(p.input))
	}
	if p.output != nil {
		opts = append(opts, tea.WithOutput(p.output))
	}
	final, err := tea.NewProgram(newPickerModel(competing, p.clock()), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return selector.Decision{}, ctx.Err()
		}
		return selector.Decision{}, fmt.Errorf("tui: picker: %w", err)
	}
	m, ok := final.(*pickerModel)
	if !ok || m.cancelled || m.chosen == nil {
		return selector.Decision{}, selector.ErrSelectionCancelled
	}
	return selector.Decision{Candidate: m.chosen}, nil
}

// candidateItem implements list.Item for one competing assignment.
type candidateItem struct {
	candidate selector.Candidate
	now       time.Time
}

func (i candidateItem) Title() string { return i.candidate.Name }

func (i candidateItem) Description() string {
	return fmt.Sprintf("%s · %s · %s",
		i.candidate.State.FriendlyName(), i.candidate.Progress, Touched(i.candidate.Touched(), i.now))
}

func (i candidateItem) FilterValue() string { return i.candidate.Name }

// Touched renders the recency of an assignment relative to now.
func Touched(latest, now time.Time) string {
	if latest.IsZero() {
		return "no artifacts yet"
	}
	return "touched " + humanize.RelTime(latest, now, "ago", "from now")
}

type pickerModel struct {
	list      list.Model
	count     int
	chosen    *selector.Candidate
	cancelled bool
}

func newPickerModel(competing []selector.Candidate, now time.Time) *pickerModel {
	items := make([]list.Item, len(competing))
	for i, c := range competing {
		items[i] = candidateItem{candidate: c, now: now}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Several assignments are equally urgent"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return &pickerModel{list: l, count: len(competing)}
}

func (m *pickerModel) Init() tea.Cmd {
	return nil
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := frameStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-1)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(candidateItem); ok {
				c := item.candidate
				m.chosen = &c
				return m, tea.Quit
			}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickerModel) View() string {
	hint := hintStyle.Render(fmt.Sprintf("%d candidates · enter to resume · / to filter · esc to cancel", m.count))
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.list.View(), hint))
}
