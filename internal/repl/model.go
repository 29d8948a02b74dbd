// Package repl is the terminal chat front end.
package repl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"github.com/nba-agent/server/internal/agent/graph/parsers"
	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
	logx "github.com/nba-agent/server/pkg/logger"
)

// Assistant answers chat messages. graph.Runner satisfies it.
type Assistant interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.Reply, error)
	Reset(ctx context.Context, conversationID string) error
}

type role int

const (
	roleUser role = iota
	roleAssistant
	roleInfo
	roleError
)

type entry struct {
	role    role
	content string
	meta    string
}

type replyMsg struct {
	reply *model.Reply
	err   error
	took  time.Duration
}

type resetMsg struct{ err error }

var quitWords = map[string]bool{"quit": true, "exit": true, "bye": true, "stop": true}

// Model is the bubbletea model of the chat session.
type Model struct {
	ctx            context.Context
	assistant      Assistant
	timeout        time.Duration
	conversationID string

	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	style    string
	styles   styles

	history []entry
	waiting bool
	width   int
	height  int
}

// Options tune the session.
type Options struct {
	// Style is a glamour style name: auto, dark, light or notty.
	Style string
	// Timeout bounds each question; zero means no limit.
	Timeout time.Duration
	// ConversationID resumes an existing conversation.
	ConversationID string
}

// NewModel builds the session model. The markdown renderer is created on the
// first window size message.
func NewModel(ctx context.Context, assistant Assistant, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about a player or team... (Enter to send, /help for examples, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "🏀 "
	ti.CharLimit = 500
	ti.Width = 80

	vp := viewport.New(80, 20)

	id := opts.ConversationID
	if id == "" {
		id = uuid.NewString()
	}

	m := Model{
		ctx:            ctx,
		assistant:      assistant,
		timeout:        opts.Timeout,
		conversationID: id,
		input:          ti,
		viewport:       vp,
		style:          opts.Style,
		styles:         defaultStyles(),
		width:          80,
		height:         24,
	}
	m.push(entry{role: roleInfo, content: "Hi! I'm Courtside. Ask me about NBA players, teams, schedules and standings. Type /help for examples."})
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.renderer = newRenderer(m.style, msg.Width-4)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			logx.Error().Str("conversation_id", m.conversationID).Err(msg.err).Msg("Question failed")
			m.push(entry{role: roleError, content: errx.UserMessage(msg.err)})
			return m, nil
		}
		m.push(replyEntry(msg.reply, msg.took))
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.push(entry{role: roleError, content: errx.UserMessage(msg.err)})
			return m, nil
		}
		m.conversationID = uuid.NewString()
		m.history = nil
		m.push(entry{role: roleInfo, content: "Conversation cleared."})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the Enter key: commands, quit words or a question.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	switch lower := strings.ToLower(text); {
	case quitWords[lower]:
		return m, tea.Quit
	case lower == "/reset":
		return m, m.reset()
	case lower == "/help":
		m.push(entry{role: roleInfo, content: helpText()})
		return m, nil
	case strings.HasPrefix(lower, "/"):
		m.push(entry{role: roleError, content: fmt.Sprintf("Unknown command %s. Try /help or /reset.", text)})
		return m, nil
	}

	m.push(entry{role: roleUser, content: text})
	m.waiting = true
	return m, m.ask(text)
}

func (m Model) ask(query string) tea.Cmd {
	ctx, assistant, id, timeout := m.ctx, m.assistant, m.conversationID, m.timeout
	return func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		reply, err := assistant.Invoke(ctx, model.QueryInput{ConversationID: id, Query: query})
		return replyMsg{reply: reply, err: err, took: time.Since(start)}
	}
}

func (m Model) reset() tea.Cmd {
	ctx, assistant, id := m.ctx, m.assistant, m.conversationID
	return func() tea.Msg {
		return resetMsg{err: assistant.Reset(ctx, id)}
	}
}

func replyEntry(r *model.Reply, took time.Duration) entry {
	if r == nil {
		return entry{role: roleError, content: "No answer was produced."}
	}
	e := entry{role: roleAssistant, content: r.Output}
	meta := []string{fmt.Sprintf("%s · %.1fs", r.Route, took.Seconds())}
	if r.CostUSD > 0 {
		meta = append(meta, fmt.Sprintf("$%.5f", r.CostUSD))
	}
	if len(r.Suggestions) > 0 {
		meta = append(meta, "try: "+strings.Join(r.Suggestions, " | "))
	}
	e.meta = strings.Join(meta, " · ")
	return e
}

func helpText() string {
	var b strings.Builder
	b.WriteString("**Example questions**\n")
	for _, g := range parsers.Examples() {
		fmt.Fprintf(&b, "\n*%s*\n", strings.ReplaceAll(g.Category, "_", " "))
		for _, q := range g.Queries {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	b.WriteString("\nCommands: `/reset` starts over, `quit` leaves.")
	return b.String()
}

func (m *Model) push(e entry) {
	m.history = append(m.history, e)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	status := m.styles.Status.Render(fmt.Sprintf("conversation %s", shortID(m.conversationID)))
	if m.waiting {
		status = m.styles.Status.Render("thinking...")
	}
	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, e := range m.history {
		switch e.role {
		case roleUser:
			sb.WriteString(m.styles.User.Render("You") + "\n")
			sb.WriteString(e.content + "\n\n")
		case roleAssistant:
			sb.WriteString(m.styles.Assistant.Render("Courtside") + "\n")
			sb.WriteString(m.renderMarkdown(e.content))
			if e.meta != "" {
				sb.WriteString(m.styles.Meta.Render(e.meta) + "\n")
			}
			sb.WriteString("\n")
		case roleInfo:
			sb.WriteString(m.renderMarkdown(e.content) + "\n")
		case roleError:
			sb.WriteString(m.styles.Error.Render("⚠ "+e.content) + "\n\n")
		}
	}
	return sb.String()
}

func (m Model) renderMarkdown(s string) string {
	if m.renderer == nil {
		return s + "\n"
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width, 20))}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		logx.Warn().Err(err).Str("style", style).Msg("Markdown renderer unavailable")
		return nil
	}
	return r
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
