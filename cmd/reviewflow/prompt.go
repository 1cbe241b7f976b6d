package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// errPromptCancelled is returned when the user leaves the prompt with
// Esc or Ctrl+C.
var errPromptCancelled = errors.New("prompt cancelled")

// promptModel asks for one line of input.
type promptModel struct {
	question  string
	hint      string
	input     textinput.Model
	submitted bool
	cancelled bool
	styles    styles
}

func newPromptModel(question, placeholder, hint string, st styles) promptModel {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "> "
	in.CharLimit = 2048
	in.Width = 72
	in.Focus()
	return promptModel{question: question, hint: hint, input: in, styles: st}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			m.submitted = true
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

func (m promptModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.title.Render(m.question) + "\n")
	if m.hint != "" {
		b.WriteString(m.styles.warn.Render(m.hint) + "\n")
	}
	b.WriteString(m.input.View() + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("enter to submit, esc to cancel") + "\n")
	return b.String()
}

// Value returns the trimmed input.
func (m promptModel) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// prompter asks the user for a line of text.
type prompter func(question, placeholder, hint string) (string, error)

// teaPrompter runs promptModel as a full bubbletea program.
func teaPrompter(in io.Reader, out io.Writer, st styles) prompter {
	return func(question, placeholder, hint string) (string, error) {
		p := tea.NewProgram(newPromptModel(question, placeholder, hint, st), tea.WithInput(in), tea.WithOutput(out))
		final, err := p.Run()
		if err != nil {
			return "", err
		}
		m := final.(promptModel)
		if m.cancelled {
			return "", errPromptCancelled
		}
		return m.Value(), nil
	}
}

// interactive reports whether stdin and stdout are both terminals.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}
