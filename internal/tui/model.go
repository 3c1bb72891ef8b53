package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/domain"
	"docchat/internal/session"
	"docchat/internal/summarizer"
)

const (
	pastePrefix  = ":paste "
	pastedTitle  = "Pasted text"
	pollInterval = 150 * time.Millisecond
)

// SessionPort is the TUI-facing subset of the session controller.
type SessionPort interface {
	SubmitText(ctx context.Context, title, text string) error
	SubmitDocument(ctx context.Context, title string, data []byte) error
	Ask(ctx context.Context, question string) error
	Reset()
	Snapshot() session.Snapshot
}

// doneMsg reports that a submitted command settled.
type doneMsg struct{ err error }

type pollMsg struct{}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	session  SessionPort
	input    textinput.Model
	viewport viewport.Model
	snap     session.Snapshot
	notice   string
	initial  string
	ready    bool
}

// New creates a new TUI model instance.
func New(ctx context.Context, s SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0
	m := Model{ctx: ctx, session: s, input: ti, viewport: viewport.New(0, 0), snap: s.Snapshot()}
	m.input.Placeholder = placeholder(m.snap.State)
	return m
}

// WithInitialFile loads path as soon as the program starts.
func (m Model) WithInitialFile(path string) Model {
	m.initial = path
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd {
	if m.initial == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.submit(m.initial), poll())
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + title, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil
	case pollMsg:
		m.refresh()
		if m.snap.State.Busy() {
			return m, poll()
		}
		return m, nil
	case doneMsg:
		m.refresh()
		m.notice = ""
		switch {
		case errors.Is(msg.err, session.ErrNotAccepting):
			m.notice = "Busy, please wait."
		case msg.err != nil && m.snap.LastError == "":
			m.notice = "Error: " + msg.err.Error()
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.session.Reset()
			m.notice = "Session reset."
			m.input.SetValue("")
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			cmd := m.submit(value)
			if cmd == nil {
				m.notice = "Busy, please wait."
				return m, nil
			}
			m.input.SetValue("")
			m.notice = ""
			return m, tea.Batch(cmd, poll())
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit turns the input line into a command for the current state, or nil when the
// state accepts no input.
func (m Model) submit(value string) tea.Cmd {
	ctx, s := m.ctx, m.session
	switch m.snap.State {
	case domain.Idle:
		if text, ok := strings.CutPrefix(value, pastePrefix); ok {
			return func() tea.Msg { return doneMsg{err: s.SubmitText(ctx, pastedTitle, text)} }
		}
		path := value
		return func() tea.Msg {
			data, err := os.ReadFile(path)
			if err != nil {
				return doneMsg{err: fmt.Errorf("read %s: %w", path, err)}
			}
			title := filepath.Base(path)
			if isPDF(path, data) {
				return doneMsg{err: s.SubmitDocument(ctx, title, data)}
			}
			return doneMsg{err: s.SubmitText(ctx, title, string(data))}
		}
	case domain.Ready:
		return func() tea.Msg { return doneMsg{err: s.Ask(ctx, value)} }
	default:
		return nil
	}
}

func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	m.input.Placeholder = placeholder(m.snap.State)
	m.viewport.SetContent(renderTranscript(m.snap.Transcript))
	m.viewport.GotoBottom()
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// View renders the TUI layout and current transcript.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Chat")
	title := "No document loaded"
	if m.snap.Title != "" {
		title = fmt.Sprintf("%s (%d passages)", m.snap.Title, m.snap.Passages)
	}
	titleLine := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(title)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	return header + "\n" + titleLine + "\n" + transcript + "\n" + input + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	status := stateStyle.Render("[" + m.snap.State.String() + "]")
	switch {
	case m.snap.LastError != "":
		status += " " + errorStyle.Render(m.snap.LastError)
	case m.notice != "":
		status += " " + noticeStyle.Render(m.notice)
	}
	return status + " " + hintStyle.Render("ctrl+r reset · ctrl+c quit")
}

func placeholder(state domain.Lifecycle) string {
	switch state {
	case domain.Idle:
		return "Path to a PDF or text file, or :paste <text>"
	case domain.Ready:
		return "Ask a question about the document"
	default:
		return "Working..."
	}
}

func isPDF(path string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	aiStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	stateStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unicodeWordRe      = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

func renderTranscript(msgs []domain.ChatMessage) string {
	if len(msgs) == 0 {
		return "Load a document to start."
	}
	var sb strings.Builder
	lastQuestion := ""
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch msg.Sender {
		case domain.SenderUser:
			lastQuestion = msg.Text
			sb.WriteString(userStyle.Render("You: ") + msg.Text)
		default:
			sb.WriteString(aiStyle.Render("AI: ") + highlightBestSentence(msg.Text, lastQuestion))
		}
	}
	return sb.String()
}

// highlightBestSentence emphasises the sentence of text sharing the most words with query.
func highlightBestSentence(text, query string) string {
	sentences := summarizer.Sentences(text)
	qTokens := toTokenSet(query)
	if len(sentences) < 2 || len(qTokens) == 0 {
		return text
	}
	bestIdx, bestScore := -1, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestIdx < 0 {
		return text
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
