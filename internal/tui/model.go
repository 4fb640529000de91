// Package tui is the terminal chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"faqbot/internal/domain"
	"faqbot/internal/usecase"
)

// Session is the TUI-facing subset of the chat session.
type Session interface {
	Ask(ctx context.Context, question string) (usecase.Reply, error)
	History() []domain.ChatTurn
	ClearHistory()
}

// answerMsg carries the result of an Ask started by the model.
type answerMsg struct {
	question string
	reply    usecase.Reply
	err      error
}

type entry struct {
	role    domain.Role
	content string
	source  string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	session  Session
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	entries  []entry
	examples []string
	status   string
	busy     bool
	ready    bool
}

// New creates a chat model seeded with the saved history.
func New(ctx context.Context, session Session, examples []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about patents or BIS certification"
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusStyle))

	m := Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		examples: examples,
		status:   "Enter to send, /clear to reset, Ctrl+C to quit.",
	}
	for _, t := range session.History() {
		m.entries = append(m.entries, entry{role: t.Role, content: t.Content, source: t.Source})
	}
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 + fh // header, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.refresh()
			return m, nil
		}
		source := ""
		if msg.reply.Answer.Source != nil {
			source = *msg.reply.Answer.Source
		}
		m.entries = append(m.entries,
			entry{role: domain.RoleUser, content: msg.question},
			entry{role: domain.RoleAssistant, content: msg.reply.Answer.Text, source: source},
		)
		m.status = fmt.Sprintf("Route: %s", msg.reply.Route)
		if len(msg.reply.Suggestions) > 0 {
			m.status += " | Try: " + msg.reply.Suggestions[0]
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	q := strings.TrimSpace(m.input.Value())
	switch q {
	case "":
		return m, nil
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.session.ClearHistory()
		m.entries = nil
		m.input.Reset()
		m.status = "History cleared."
		m.refresh()
		return m, nil
	}

	if _, err := usecase.ValidateQuestion(q); err != nil {
		m.status = strings.TrimPrefix(err.Error(), usecase.ErrInvalidQuestion.Error()+": ")
		return m, nil
	}

	m.input.Reset()
	m.busy = true
	m.status = "Thinking..."
	return m, tea.Batch(m.ask(q), m.spinner.Tick)
}

func (m Model) ask(q string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		reply, err := session.Ask(ctx, q)
		return answerMsg{question: q, reply: reply, err: err}
	}
}

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Patent & BIS FAQ Assistant")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := max(10, m.viewport.Width-2)

	if len(m.entries) == 0 {
		var b strings.Builder
		b.WriteString(mutedStyle.Render("No messages yet. Some questions to start with:"))
		for _, q := range m.examples {
			b.WriteString("\n  - " + q)
		}
		return b.String()
	}

	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		label := userStyle.Render("You")
		if e.role == domain.RoleAssistant {
			label = botStyle.Render("Assistant")
		}
		block := label + "\n" + lipgloss.NewStyle().Width(width).Render(e.content)
		if e.source != "" {
			block += "\n" + mutedStyle.Render("Source: "+e.source)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	botStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)
