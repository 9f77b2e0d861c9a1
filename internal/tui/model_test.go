package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecri0/sens-prism/sens"
)

// fakeService is a canned QueryService for driving the model.
type fakeService struct {
	result *sens.QueryResult
	rail   *sens.ContextRail
	err    error
}

func (f *fakeService) Query(_ context.Context, _ string, _ sens.QueryOptions) (*sens.QueryResult, error) {
	return f.result, f.err
}

func (f *fakeService) GetContextRail(_ context.Context, _ string) (*sens.ContextRail, error) {
	return f.rail, f.err
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestNew_InitialState(t *testing.T) {
	m := New(&fakeService{})

	assert.Nil(t, m.result)
	assert.False(t, m.busy)
	assert.Contains(t, m.status, "Ready")
}

func TestView_BeforeWindowSize(t *testing.T) {
	m := New(&fakeService{})

	assert.Equal(t, "Loading...", m.View())
}

func TestUpdate_EnterIssuesQueryCommand(t *testing.T) {
	m := sized(New(&fakeService{}))
	m.input.SetValue("what is prism?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Contains(t, m.status, "Querying")
}

func TestUpdate_EmptyInputDoesNotQuery(t *testing.T) {
	m := sized(New(&fakeService{}))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.False(t, m.busy)
}

func TestUpdate_QueryDone(t *testing.T) {
	m := sized(New(&fakeService{}))
	m.busy = true

	result := &sens.QueryResult{
		QueryID:         "q_1",
		Answer:          "Prism is a gateway.",
		ConfidenceScore: 0.9,
		Sources:         []sens.Source{{DocumentID: "doc_1", ConfidenceScore: 0.93}},
	}
	updated, _ := m.Update(queryDoneMsg{result: result})
	m = updated.(Model)

	assert.False(t, m.busy)
	assert.Equal(t, result, m.result)
	assert.Contains(t, m.status, "90%")
	assert.Contains(t, m.viewport.View(), "Prism is a gateway.")
}

func TestUpdate_QueryError(t *testing.T) {
	m := sized(New(&fakeService{}))
	m.busy = true

	updated, _ := m.Update(queryDoneMsg{err: &sens.APIError{Kind: sens.KindRateLimit, Message: "slow down"}})
	m = updated.(Model)

	assert.False(t, m.busy)
	assert.Nil(t, m.result)
	assert.Contains(t, m.status, "slow down")
}

func TestUpdate_CursorWrapsAroundSources(t *testing.T) {
	m := sized(New(&fakeService{}))
	m.result = &sens.QueryResult{
		QueryID: "q_1",
		Sources: []sens.Source{{DocumentID: "a"}, {DocumentID: "b"}},
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 0, m.cursor)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)
}

func TestUpdate_RailDone(t *testing.T) {
	m := sized(New(&fakeService{}))
	m.result = &sens.QueryResult{
		QueryID: "q_1",
		Answer:  "yes",
		Sources: []sens.Source{{DocumentID: "doc_1"}},
	}

	rail := &sens.ContextRail{
		QueryID: "q_1",
		Sources: []sens.Source{{
			DocumentID:    "doc_1",
			Excerpt:       "the relevant excerpt",
			SemanticLayer: "semantic",
		}},
	}
	updated, _ := m.Update(railDoneMsg{rail: rail})
	m = updated.(Model)

	assert.Contains(t, m.status, "1 sources")
	assert.Contains(t, m.viewport.View(), "semantic")
	assert.Contains(t, m.viewport.View(), "the relevant excerpt")
}

func TestUpdate_RailExpired(t *testing.T) {
	m := sized(New(&fakeService{}))
	m.result = &sens.QueryResult{QueryID: "q_old"}

	updated, _ := m.Update(railDoneMsg{err: &sens.APIError{Kind: sens.KindNotFound, Message: "gone"}})
	m = updated.(Model)

	assert.Contains(t, m.status, "expired")
}

func TestUpdate_CtrlCQuits(t *testing.T) {
	m := sized(New(&fakeService{}))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
