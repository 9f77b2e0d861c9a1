// Package tui provides an interactive Bubble Tea view for querying the
// Sens Prism corpus: a query input, a source cursor, and a context-rail
// detail pane.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ecri0/sens-prism/sens"
)

// QueryService is the TUI-facing subset of the SDK client.
type QueryService interface {
	Query(ctx context.Context, query string, opts sens.QueryOptions) (*sens.QueryResult, error)
	GetContextRail(ctx context.Context, queryID string) (*sens.ContextRail, error)
}

// Messages delivered by background commands.
type (
	queryDoneMsg struct {
		result *sens.QueryResult
		err    error
	}
	railDoneMsg struct {
		rail *sens.ContextRail
		err  error
	}
)

// Model is the Bubble Tea model for the interactive query view.
type Model struct {
	service  QueryService
	input    textinput.Model
	viewport viewport.Model

	result  *sens.QueryResult
	rail    *sens.ContextRail
	cursor  int
	status  string
	busy    bool
	ready   bool
	railFor string
}

// New creates a new TUI model instance.
func New(service QueryService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	vp := viewport.New(0, 0)

	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		status:   "Ready. Type a question to query your documents.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameH := resultBoxStyle.GetFrameSize()
		_, inputH := queryBoxStyle.GetFrameSize()
		reserved := 2 + inputH + frameH + 2 // header, spacer, input frame, status
		height := msg.Height - reserved
		if height < 3 {
			height = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = height
		m.viewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query != "" && !m.busy {
				m.busy = true
				m.status = fmt.Sprintf("Querying %q...", query)
				return m, m.runQuery(query)
			}
		case "down":
			if m.result != nil && len(m.result.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.result.Sources)
				m.viewport.SetContent(m.renderDetail())
				return m, nil
			}
		case "up":
			if m.result != nil && len(m.result.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.result.Sources)) % len(m.result.Sources)
				m.viewport.SetContent(m.renderDetail())
				return m, nil
			}
		case "ctrl+r":
			if m.result != nil && !m.busy {
				m.busy = true
				m.status = "Fetching context rail..."
				return m, m.fetchRail(m.result.QueryID)
			}
		}

	case queryDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
			m.rail = nil
		} else {
			m.result = msg.result
			m.rail = nil
			m.cursor = 0
			m.status = fmt.Sprintf("Answer ready (confidence %.0f%%). ctrl+r for context rail.",
				msg.result.ConfidenceScore*100)
		}
		m.input.SetValue("")
		m.viewport.SetContent(m.renderDetail())
		return m, nil

	case railDoneMsg:
		m.busy = false
		if msg.err != nil {
			if sens.IsNotFound(msg.err) {
				m.status = "Context rail expired or not found."
			} else {
				m.status = "Error: " + msg.err.Error()
			}
		} else {
			m.rail = msg.rail
			m.railFor = msg.rail.QueryID
			m.status = fmt.Sprintf("Context rail loaded (%d sources).", len(msg.rail.Sources))
		}
		m.viewport.SetContent(m.renderDetail())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runQuery issues the query in the background.
func (m Model) runQuery(query string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		result, err := service.Query(context.Background(), query, sens.QueryOptions{})
		return queryDoneMsg{result: result, err: err}
	}
}

// fetchRail fetches the context rail for the last answered query.
func (m Model) fetchRail(queryID string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		rail, err := service.GetContextRail(context.Background(), queryID)
		return railDoneMsg{rail: rail, err: err}
	}
}

// View renders the layout: header, detail pane, input, status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Sens Prism")
	detail := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + detail + "\n" + input + "\n" + status
}

// renderDetail renders the answer plus the source under the cursor,
// enriched with rail detail when loaded.
func (m Model) renderDetail() string {
	if m.result == nil {
		return "No query yet."
	}

	var b strings.Builder
	b.WriteString(answerStyle.Render(m.result.Answer))
	b.WriteString("\n\n")

	if len(m.result.Sources) == 0 {
		b.WriteString("No sources returned.")
		return b.String()
	}

	src := m.result.Sources[m.cursor]
	b.WriteString(fmt.Sprintf("Source %d/%d  %s", m.cursor+1, len(m.result.Sources), src.DocumentID))
	if src.DocumentTitle != "" {
		b.WriteString("  " + src.DocumentTitle)
	}
	if src.Page > 0 {
		b.WriteString(fmt.Sprintf("  p.%d", src.Page))
	}
	b.WriteString(fmt.Sprintf("  (%.0f%%)", src.ConfidenceScore*100))

	if detail := m.railSource(src.DocumentID, m.cursor); detail != nil {
		if detail.SemanticLayer != "" {
			b.WriteString("\nLayer: " + detail.SemanticLayer)
		}
		if len(detail.MatchedConcepts) > 0 {
			b.WriteString("\nConcepts: " + strings.Join(detail.MatchedConcepts, ", "))
		}
		if detail.Excerpt != "" {
			b.WriteString("\n\n" + excerptStyle.Render(detail.Excerpt))
		}
	}

	return b.String()
}

// railSource pairs the cursor position with the rail's richer record.
// The rail lists the same sources in the same server order.
func (m Model) railSource(documentID string, idx int) *sens.Source {
	if m.rail == nil || m.railFor != m.result.QueryID {
		return nil
	}
	if idx < len(m.rail.Sources) && m.rail.Sources[idx].DocumentID == documentID {
		return &m.rail.Sources[idx]
	}
	return nil
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	answerStyle    = lipgloss.NewStyle().Bold(true)
	excerptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Run starts the interactive view and blocks until the user quits.
func Run(service QueryService) error {
	_, err := tea.NewProgram(New(service), tea.WithAltScreen()).Run()
	return err
}
