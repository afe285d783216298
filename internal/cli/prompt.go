package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/topodraw/pkg/levels"
)

var (
	promptLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(7)
	promptErrStyle   = lipgloss.NewStyle().Foreground(colorRed)
	promptDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// termPrompter - levels.Prompter backed by a bubbletea form
// =============================================================================

// termPrompter asks for one node at a time with a two-field terminal form:
// the level (empty accepts the suggestion) and the icon (empty keeps the
// current one).
type termPrompter struct {
	in  io.Reader
	out io.Writer
}

func newTermPrompter(in io.Reader, out io.Writer) *termPrompter {
	return &termPrompter{in: in, out: out}
}

// Prompt implements levels.Prompter.
func (p *termPrompter) Prompt(ctx context.Context, req levels.Request) (levels.Response, error) {
	prog := tea.NewProgram(newPromptModel(req),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return levels.Response{}, ctxErr
	}
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return levels.Response{}, levels.ErrCancelled
		}
		return levels.Response{}, fmt.Errorf("prompt: %w", err)
	}
	m := final.(promptModel)
	if m.cancelled {
		return levels.Response{}, levels.ErrCancelled
	}
	return m.resp, nil
}

var _ levels.Prompter = (*termPrompter)(nil)

// =============================================================================
// promptModel
// =============================================================================

const (
	fieldLevel = iota
	fieldIcon
)

type promptModel struct {
	req   levels.Request
	level textinput.Model
	icon  textinput.Model
	focus int
	err   string

	resp      levels.Response
	done      bool
	cancelled bool
}

func newPromptModel(req levels.Request) promptModel {
	level := textinput.New()
	level.Placeholder = strconv.Itoa(req.Suggested)
	level.CharLimit = 4
	level.Prompt = ""
	level.Focus()

	icon := textinput.New()
	icon.Placeholder = req.Node.Icon
	if icon.Placeholder == "" {
		icon.Placeholder = "keep"
	}
	icon.Prompt = ""
	icon.ShowSuggestions = true
	icon.SetSuggestions(req.Icons)

	return promptModel{req: req, level: level, icon: icon}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyShiftTab, tea.KeyUp:
			return m.focusField(fieldLevel), nil
		case tea.KeyDown:
			return m.focusField(fieldIcon), nil
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == fieldLevel {
		m.level, cmd = m.level.Update(msg)
	} else {
		m.icon, cmd = m.icon.Update(msg)
	}
	return m, cmd
}

func (m promptModel) focusField(f int) promptModel {
	m.focus = f
	if f == fieldLevel {
		m.icon.Blur()
		m.level.Focus()
	} else {
		m.level.Blur()
		m.icon.Focus()
	}
	return m
}

// submit validates the level, then moves to the icon field or finishes.
func (m promptModel) submit() (tea.Model, tea.Cmd) {
	level, err := parseLevel(m.level.Value(), m.req.Suggested)
	if err != nil {
		m.err = err.Error()
		return m.focusField(fieldLevel), nil
	}
	m.err = ""
	if m.focus == fieldLevel {
		return m.focusField(fieldIcon), nil
	}

	icon := strings.TrimSpace(m.icon.Value())
	if icon != "" && len(m.req.Icons) > 0 && !slices.Contains(m.req.Icons, icon) {
		m.err = fmt.Sprintf("unknown icon %q", icon)
		return m, nil
	}
	m.resp = levels.Response{Level: level, Icon: icon}
	m.done = true
	return m, tea.Quit
}

func parseLevel(s string, suggested int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return suggested, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("level must be a positive integer, got %q", s)
	}
	return n, nil
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	n := m.req.Node

	fmt.Fprintf(&b, "%s %s %s\n",
		StyleTitle.Render(n.Name),
		promptDimStyle.Render(n.Kind),
		promptDimStyle.Render(fmt.Sprintf("[%d/%d]", m.req.Index, m.req.Total)))
	if len(m.req.Neighbors) > 0 {
		b.WriteString(promptDimStyle.Render("linked to " + strings.Join(m.req.Neighbors, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(promptLabelStyle.Render("level") + m.level.View() + "\n")
	b.WriteString(promptLabelStyle.Render("icon") + m.icon.View() + "\n")
	if m.err != "" {
		b.WriteString(promptErrStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(promptDimStyle.Render("⏎ next/confirm  tab complete icon  ↑/↓ switch field  esc abort"))
	b.WriteString("\n")
	return b.String()
}
