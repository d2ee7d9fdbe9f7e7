package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/T0astBread/multifox/internal/instance"
)

var (
	pickerTitleStyle   = lipgloss.NewStyle().Bold(true)
	pickerCursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	pickerRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pickerHelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type pickerModel struct {
	all      []instance.Status
	filtered []instance.Status
	filter   textinput.Model
	cursor   int
	choice   string
	aborted  bool
}

func newPickerModel(sts []instance.Status) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 30
	ti.Focus()
	return pickerModel{all: sts, filtered: sts, filter: ti}
}

func (m pickerModel) Init() tea.Cmd { return textinput.Blink }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if m.cursor < len(m.filtered) {
				m.choice = m.filtered[m.cursor].Name
			}
			return m, tea.Quit
		}
	}

	// Everything else feeds the filter field.
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *pickerModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		m.filtered = m.all
	} else {
		filtered := make([]instance.Status, 0, len(m.all))
		for _, st := range m.all {
			if strings.Contains(strings.ToLower(st.Name), q) {
				filtered = append(filtered, st)
			}
		}
		m.filtered = filtered
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Start which instance?"))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(pickerHelpStyle.Render("no matches"))
		b.WriteString("\n")
	}
	for i, st := range m.filtered {
		line := fmt.Sprintf("%s (%s)", st.Name, st.Browser)
		if st.State == instance.StateRunning {
			line += pickerRunningStyle.Render(fmt.Sprintf("  running, pid %d", st.PID))
		}
		if i == m.cursor {
			b.WriteString(pickerCursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickerHelpStyle.Render("enter: start  esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// pickInstance opens an interactive list of configured instances and
// returns the chosen name. An empty name means the user backed out.
func pickInstance(mgr *instance.Manager) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no instance name given and stdin is not a terminal")
	}

	sts, err := mgr.List()
	if err != nil {
		return "", err
	}
	if len(sts) == 0 {
		return "", fmt.Errorf("no instances configured")
	}

	out, err := tea.NewProgram(newPickerModel(sts)).Run()
	if err != nil {
		return "", err
	}
	m, ok := out.(pickerModel)
	if !ok || m.aborted {
		return "", nil
	}
	return m.choice, nil
}
