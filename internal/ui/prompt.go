package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type promptModel struct {
	title     string
	input     textinput.Model
	done      bool
	cancelled bool
}

func newPromptModel(title, placeholder string) *promptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()

	return &promptModel{title: title, input: ti}
}

func (m *promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title),
		m.input.View(),
		detailStyle.Render("enter to confirm  esc to cancel"),
	) + "\n"
}

// Value is the trimmed answer, or "" when the prompt was cancelled.
func (m *promptModel) Value() string {
	if m.cancelled {
		return ""
	}
	return strings.TrimSpace(m.input.Value())
}

// Prompt asks a single line question inline and returns the trimmed answer.
// Cancelling yields an empty answer.
func Prompt(ctx context.Context, title, placeholder string) (string, error) {
	final, err := tea.NewProgram(newPromptModel(title, placeholder), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", err
	}
	return final.(*promptModel).Value(), nil
}
