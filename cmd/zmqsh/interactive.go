package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	socketStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// historyLimit caps the transcript kept on screen.
const historyLimit = 200

type interactiveModel struct {
	err     error
	cfg     *Config
	logger  *zap.Logger
	sess    *Session
	history []historyEntry
	input   textinput.Model
	height  int
	busy    bool
}

type historyEntry struct {
	err     error
	command string
	output  string
}

type openedMsg struct {
	err  error
	sess *Session
}

type execResultMsg struct {
	err     error
	command string
	output  string
}

func newInteractiveModel(cfg *Config, logger *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "zmq> "
	ti.Placeholder = "help"
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{cfg: cfg, logger: logger, input: ti, height: 24}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.openSession, textinput.Blink)
}

func (m *interactiveModel) openSession() tea.Msg {
	sess, err := NewSession(m.cfg, m.logger)
	return openedMsg{sess: sess, err: err}
}

// exec runs off the update loop so a blocking recv does not freeze the view.
func (m *interactiveModel) exec(line string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		out, err := sess.Exec(line)
		return execResultMsg{command: line, output: out, err: err}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.sess != nil {
				_ = m.sess.Close()
			}
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy || m.sess == nil {
				return m, nil
			}
			m.input.SetValue("")
			if line == "quit" || line == "exit" {
				_ = m.sess.Close()
				return m, tea.Quit
			}
			if line == "clear" {
				m.history = nil
				return m, nil
			}
			m.busy = true
			return m, m.exec(line)
		}

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess

	case execResultMsg:
		m.busy = false
		m.history = append(m.history, historyEntry{
			command: msg.command,
			output:  msg.output,
			err:     msg.err,
		})
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}

	if m.sess == nil {
		return "Opening session..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("ZMQ Shell"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Engine + " " + m.sess.Version())
	b.WriteString("\n\n")

	names := m.sess.Names()
	if len(names) == 0 {
		b.WriteString(helpStyle.Render("no sockets"))
	}
	for i, name := range names {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(socketStyle.Render(m.sess.Describe(name)))
	}
	b.WriteString("\n\n")

	for _, line := range m.transcript() {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.busy {
		b.WriteString(helpStyle.Render("waiting... • ctrl+c quit"))
	} else {
		b.WriteString(helpStyle.Render("enter run • clear reset transcript • esc quit"))
	}

	return b.String()
}

// transcript renders the history tail that fits the window.
func (m *interactiveModel) transcript() []string {
	var lines []string
	for _, h := range m.history {
		lines = append(lines, commandStyle.Render("> "+h.command))
		switch {
		case h.err != nil:
			lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", h.err)))
		case h.output != "":
			for _, l := range strings.Split(h.output, "\n") {
				lines = append(lines, resultStyle.Render(l))
			}
		}
	}

	room := max(m.height-10, 3)
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	return lines
}

func runInteractive(cfg *Config, logger *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(cfg, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
