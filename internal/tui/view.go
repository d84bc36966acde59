package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/tui/components/daycard"
)

const (
	cardWidth = 32
	maxCards  = 7
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateDetail:
		content = docStyle.Render(m.viewport.View())
	case constants.StateEditing, constants.StateUnlock, constants.StateFilterClient:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.viewCalendar()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	title := "fleetcal"
	if day, ok := m.nav.Current(); ok {
		title = fmt.Sprintf("fleetcal · %s %d", calendar.MonthName(day.Month), day.Year)
	}

	lock := "🔒 read-only"
	if m.gate.IsPrivileged() {
		lock = "🔓 editing"
	}

	parts := []string{titleStyle.Render(title), mutedStyle.Render(m.engine.State().String()), mutedStyle.Render(lock)}
	if f := m.filterLabel(); f != "" {
		parts = append(parts, warningStyle.Render(f))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) filterLabel() string {
	if m.criteria.IsZero() {
		return ""
	}
	var parts []string
	if c := m.criteria.ClientSubstring; c != "" {
		parts = append(parts, fmt.Sprintf("cliente %q", c))
	}
	if m.criteria.Month != 0 {
		parts = append(parts, calendar.MonthName(m.criteria.Month))
	}
	return "filtro: " + strings.Join(parts, ", ")
}

func (m Model) cardCount() int {
	if m.width <= 0 {
		return 3
	}
	n := m.width / cardWidth
	if n < 1 {
		n = 1
	}
	if n > maxCards {
		n = maxCards
	}
	return n
}

func (m Model) viewCalendar() string {
	current, ok := m.nav.Current()
	if !ok {
		return docStyle.Render("No days to show.")
	}

	n := m.cardCount()
	width := cardWidth
	if m.width > 0 {
		width = (m.width - 4) / n
	}

	records := m.filtered()
	var cards []string
	for _, day := range m.nav.Window(n) {
		c := daycard.Card{
			Day:      day,
			Records:  records.Get(day.Key()),
			Current:  day.Key() == current.Key(),
			Today:    day.Key() == m.today,
			Selected: m.selected,
			Width:    width,
		}
		cards = append(cards, c.Render())
	}
	return docStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return dangerStyle.Render(m.status)
	}
	return okStyle.Render(m.status)
}

func (m Model) viewConfirmDelete() string {
	r := m.toDelete
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Are you sure you want to delete this service?"),
			fmt.Sprintf("%s · %s %s", r.Key(), r.ScheduledTime, r.ClientName),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
