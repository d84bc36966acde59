package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fleetcal/internal/cli/services"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/engine"
	"github.com/julianstephens/fleetcal/internal/filter"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/validation"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6
		return m, nil

	case outcomeMsg:
		o := engine.Outcome(msg)
		m.setStatus(o.String(), !o.OK)
		m.clampSelection()
		if m.state == constants.StateDetail {
			m.refreshDetail()
		}
		return m, m.waitForOutcome()

	case outcomesClosedMsg:
		return m, nil

	case mutationMsg:
		if msg.Err == nil && msg.Op == engine.OpDelete && m.state == constants.StateDetail {
			m.state = constants.StateCalendar
		}
		m.clampSelection()
		return m, nil
	}

	switch m.state {
	case constants.StateEditing, constants.StateUnlock, constants.StateFilterClient:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	case constants.StateDetail:
		return m.updateDetail(msg)
	}
	return m.updateCalendar(msg)
}

func (m Model) updateCalendar(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keys.NextDay):
		m.nav.Next()
		m.selected = 0
	case key.Matches(keyMsg, m.keys.PrevDay):
		m.nav.Prev()
		m.selected = 0
	case key.Matches(keyMsg, m.keys.NextMonth):
		m.jumpMonth(1)
	case key.Matches(keyMsg, m.keys.PrevMonth):
		m.jumpMonth(-1)
	case key.Matches(keyMsg, m.keys.Today):
		m.nav.JumpToToday(m.today)
		m.selected = 0
	case key.Matches(keyMsg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.selected < len(m.currentRecords())-1 {
			m.selected++
		}
	case key.Matches(keyMsg, m.keys.Enter):
		if _, ok := m.selectedRecord(); ok {
			m.state = constants.StateDetail
			m.refreshDetail()
		}
	case key.Matches(keyMsg, m.keys.Filter):
		m.filterForm = &FilterFormModel{Client: m.criteria.ClientSubstring, Month: m.criteria.Month}
		return m.openForm(constants.StateFilterClient, NewFilterForm(m.filterForm))
	case key.Matches(keyMsg, m.keys.ClearFilter):
		m.criteria = filter.Criteria{}
		m.clampSelection()
	case key.Matches(keyMsg, m.keys.Unlock):
		if m.gate.IsPrivileged() {
			m.gate.Lock()
			m.setStatus("editing locked", false)
			return m, nil
		}
		m.unlockForm = &UnlockFormModel{}
		return m.openForm(constants.StateUnlock, NewUnlockForm(m.unlockForm))
	default:
		return m.updateAction(keyMsg)
	}
	return m, nil
}

// updateAction handles the privileged record actions shared by the calendar
// and the detail view.
func (m Model) updateAction(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMsg, m.keys.Add):
		if !m.allow("create") {
			return m, nil
		}
		draft := models.ServiceRecord{}
		if day, ok := m.nav.Current(); ok {
			draft.SetDate(day.Key())
		}
		m.editing = nil
		m.recordForm = recordFormFrom(draft)
		return m.openForm(constants.StateEditing, NewRecordForm(m.recordForm, false))

	case key.Matches(keyMsg, m.keys.Edit):
		r, ok := m.selectedRecord()
		if !ok || !m.allow("update") {
			return m, nil
		}
		m.editing = &r
		m.recordForm = recordFormFrom(r)
		return m.openForm(constants.StateEditing, NewRecordForm(m.recordForm, true))

	case key.Matches(keyMsg, m.keys.Complete):
		r, ok := m.selectedRecord()
		if !ok {
			return m, nil
		}
		if r.Completed {
			m.setStatus("service already completed", false)
			return m, nil
		}
		if !m.allow("complete") {
			return m, nil
		}
		return m, m.completeCmd(r.ID)

	case key.Matches(keyMsg, m.keys.Delete):
		r, ok := m.selectedRecord()
		if !ok || !m.allow("delete") {
			return m, nil
		}
		m.toDelete = r
		m.previousState = m.state
		m.state = constants.StateConfirmDelete
	}
	return m, nil
}

// allow checks the gate and reports a locked session on the status line.
func (m *Model) allow(op string) bool {
	if err := m.gate.Require(op); err != nil {
		m.setStatus(fmt.Sprintf("%s requires an unlocked session (press %s)", op, m.keys.Unlock.Help().Key), true)
		return false
	}
	return true
}

func (m Model) openForm(state constants.SessionState, form *huh.Form) (tea.Model, tea.Cmd) {
	m.previousState = m.state
	m.state = state
	m.form = form
	return m, m.form.Init()
}

func (m Model) closeForm() Model {
	m.state = m.previousState
	if m.state != constants.StateDetail {
		m.state = constants.StateCalendar
	}
	m.form = nil
	return m
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submitForm()
	case huh.StateAborted:
		return m.closeForm(), nil
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	state := m.state
	m = m.closeForm()

	switch state {
	case constants.StateUnlock:
		if err := m.gate.Unlock(m.unlockForm.Key); err != nil {
			m.setStatus("invalid access key", true)
		} else {
			m.setStatus("editing unlocked", false)
		}
		m.unlockForm = nil
		return m, nil

	case constants.StateFilterClient:
		m.applyFilter(filter.Criteria{ClientSubstring: strings.TrimSpace(m.filterForm.Client), Month: m.filterForm.Month})
		return m, nil

	case constants.StateEditing:
		return m.submitRecord()
	}
	return m, nil
}

func (m Model) submitRecord() (tea.Model, tea.Cmd) {
	base := models.ServiceRecord{}
	op := "create"
	if m.editing != nil {
		base = *m.editing
		op = "update"
	}

	r, err := m.recordForm.Apply(base)
	if err == nil {
		res := validation.New().ValidateService(r)
		err = res.Err(op)
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}

	m.setStatus(fmt.Sprintf("saving service for %s...", r.ClientName), false)
	if m.editing == nil {
		return m, m.createCmd(r)
	}
	return m, m.updateCmd(r)
}

// applyFilter narrows the calendar and moves the cursor into the filtered
// month.
func (m *Model) applyFilter(c filter.Criteria) {
	m.criteria = c
	if c.Month != 0 && m.nav.Month() != c.Month {
		m.nav.JumpToMonth(c.Month)
		m.selected = 0
	}
	m.clampSelection()
}

func (m *Model) jumpMonth(delta int) {
	month := m.nav.Month() + delta
	if month < 1 || month > 12 {
		return
	}
	if m.nav.JumpToMonth(month) {
		m.selected = 0
	}
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	back := m.previousState
	if back != constants.StateDetail {
		back = constants.StateCalendar
	}

	switch keyMsg.String() {
	case "y", "Y":
		r := m.toDelete
		m.toDelete = models.ServiceRecord{}
		m.state = back
		return m, m.deleteCmd(r.ID, r.Key())
	case "n", "N", "esc", "q":
		m.toDelete = models.ServiceRecord{}
		m.state = back
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			m.state = constants.StateCalendar
			return m, nil
		case key.Matches(keyMsg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Edit), key.Matches(keyMsg, m.keys.Complete), key.Matches(keyMsg, m.keys.Delete):
			return m.updateAction(keyMsg)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refreshDetail renders the selected record into the viewport, leaving the
// detail view when the record is gone.
func (m *Model) refreshDetail() {
	r, ok := m.selectedRecord()
	if !ok {
		m.state = constants.StateCalendar
		return
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(services.RenderMarkdown(services.Markdown(r), width))
}

func (m Model) createCmd(r models.ServiceRecord) tea.Cmd {
	eng, ctx := m.engine, m.ctx
	return func() tea.Msg {
		saved, err := eng.Create(ctx, r)
		return mutationMsg{Op: engine.OpCreate, ID: saved.ID, Err: err}
	}
}

func (m Model) updateCmd(r models.ServiceRecord) tea.Cmd {
	eng, ctx := m.engine, m.ctx
	return func() tea.Msg {
		_, err := eng.Update(ctx, r)
		return mutationMsg{Op: engine.OpUpdate, ID: r.ID, Err: err}
	}
}

func (m Model) completeCmd(id string) tea.Cmd {
	eng, ctx := m.engine, m.ctx
	return func() tea.Msg {
		_, err := eng.MarkCompleted(ctx, id)
		return mutationMsg{Op: engine.OpComplete, ID: id, Err: err}
	}
}

func (m Model) deleteCmd(id string, k models.DateKey) tea.Cmd {
	eng, ctx := m.engine, m.ctx
	return func() tea.Msg {
		err := eng.Delete(ctx, id, k)
		return mutationMsg{Op: engine.OpDelete, ID: id, Err: err}
	}
}
