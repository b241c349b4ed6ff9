package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Answerer is the TUI-facing subset of the orchestrator.
type Answerer interface {
	Answer(ctx context.Context, question string, showCategory, showSources bool) string
}

type exchange struct {
	question string
	answer   string
}

type answerMsg struct {
	question string
	answer   string
}

// Model is the Bubble Tea model for the chat front end.
type Model struct {
	ctx          context.Context
	service      Answerer
	input        textinput.Model
	viewport     viewport.Model
	history      []exchange
	banner       string
	status       string
	ready        bool
	pending      bool
	showCategory bool
	showSources  bool
}

// New creates a chat model. banner is shown under the title.
func New(ctx context.Context, service Answerer, banner string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about ScanGasto and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{ctx: ctx, service: service, input: ti, viewport: vp, banner: banner}
	m.status = m.toggleStatus()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around the history and question boxes
		_, rh := historyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // title + banner
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.pending = false
		m.history = append(m.history, exchange{question: msg.question, answer: msg.answer})
		m.status = m.toggleStatus()
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.input.SetValue("")
			m.status = "Thinking..."
			return m, m.ask(q)
		case "ctrl+k":
			m.showCategory = !m.showCategory
			m.status = m.toggleStatus()
			return m, nil
		case "ctrl+s":
			m.showSources = !m.showSources
			m.status = m.toggleStatus()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	ctx, service := m.ctx, m.service
	showCategory, showSources := m.showCategory, m.showSources
	return func() tea.Msg {
		return answerMsg{question: question, answer: service.Answer(ctx, question, showCategory, showSources)}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ScanGasto documentation assistant")
	banner := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.banner)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	history := historyBoxStyle.Render(m.viewport.View())
	return header + "\n" + banner + "\n" + history + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet. Try: How can I register a ticket?"
	}
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + ex.question))
		b.WriteString("\n\n")
		b.WriteString(ex.answer)
	}
	return b.String()
}

func (m Model) toggleStatus() string {
	return fmt.Sprintf("category [ctrl+k]: %s  sources [ctrl+s]: %s  quit: ctrl+c", onOff(m.showCategory), onOff(m.showSources))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
