package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/engine"
	"github.com/julianstephens/fleetcal/internal/filter"
	"github.com/julianstephens/fleetcal/internal/models"
)

// outcomeMsg carries one engine outcome into the update loop.
type outcomeMsg engine.Outcome

type outcomesClosedMsg struct{}

// mutationMsg reports a finished write started from the UI.
type mutationMsg struct {
	Op  engine.Op
	ID  string
	Err error
}

type Model struct {
	ctx           context.Context
	engine        *engine.Engine
	gate          *auth.Gate
	nav           *calendar.Navigator
	today         models.DateKey
	criteria      filter.Criteria
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	viewport      viewport.Model
	form          *huh.Form
	recordForm    *RecordFormModel
	unlockForm    *UnlockFormModel
	filterForm    *FilterFormModel
	editing       *models.ServiceRecord // nil while adding
	selected      int
	toDelete      models.ServiceRecord
	status        string
	statusErr     bool
	quitting      bool
	width         int
	height        int
}

// NewModel builds the calendar view over eng. The cursor starts on today, or
// on the first day when today is outside days.
func NewModel(ctx context.Context, eng *engine.Engine, gate *auth.Gate, days []models.Day, today models.DateKey) Model {
	if gate == nil {
		gate = auth.NewGate(nil)
	}
	return Model{
		ctx:      ctx,
		engine:   eng,
		gate:     gate,
		nav:      calendar.NewNavigator(days, calendar.TodayOrFirst(days, today)),
		today:    today,
		state:    constants.StateCalendar,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(0, 0),
		status:   "loading services...",
	}
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case constants.StateDetail:
		return []key.Binding{m.keys.Back, m.keys.Edit, m.keys.Complete, m.keys.Delete, m.keys.Quit}
	case constants.StateCalendar:
		return m.keys.ShortHelp()
	}
	return []key.Binding{m.keys.Back}
}

func (m Model) FullHelp() [][]key.Binding {
	if m.state != constants.StateCalendar {
		return [][]key.Binding{m.ShortHelp()}
	}
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForOutcome())
}

func (m Model) loadCmd() tea.Cmd {
	eng, ctx := m.engine, m.ctx
	return func() tea.Msg {
		// The result is reported through the outcome stream.
		_, _ = eng.LoadAll(ctx)
		return nil
	}
}

func (m Model) waitForOutcome() tea.Cmd {
	ch := m.engine.Outcomes()
	return func() tea.Msg {
		o, ok := <-ch
		if !ok {
			return outcomesClosedMsg{}
		}
		return outcomeMsg(o)
	}
}

// filtered returns the snapshot the calendar renders.
func (m Model) filtered() models.RecordsByDate {
	return filter.Apply(m.engine.Snapshot(), m.criteria)
}

func (m Model) currentRecords() []models.ServiceRecord {
	day, ok := m.nav.Current()
	if !ok {
		return nil
	}
	return m.filtered().Get(day.Key())
}

func (m Model) selectedRecord() (models.ServiceRecord, bool) {
	records := m.currentRecords()
	if m.selected < 0 || m.selected >= len(records) {
		return models.ServiceRecord{}, false
	}
	return records[m.selected], true
}

// clampSelection keeps the record cursor inside the current day.
func (m *Model) clampSelection() {
	n := len(m.currentRecords())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}
