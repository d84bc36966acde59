// Package daycard renders one calendar day and its services as a bordered card.
package daycard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/models"
)

const MinWidth = 24

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	currentCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().Bold(true)
	todayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

type Card struct {
	Day     models.Day
	Records []models.ServiceRecord
	// Current marks the card holding the navigation cursor.
	Current bool
	Today   bool
	// Selected is the highlighted record of the current card, -1 for none.
	Selected int
	Width    int
}

func (c Card) Render() string {
	width := c.Width
	if width < MinWidth {
		width = MinWidth
	}
	inner := width - 4

	var b strings.Builder
	header := fmt.Sprintf("%s %d de %s", c.Day.WeekdayName, c.Day.Day, calendar.MonthName(c.Day.Month))
	b.WriteString(headerStyle.Render(header))
	if c.Today {
		b.WriteString(" " + todayStyle.Render("hoy"))
	}
	b.WriteString("\n")

	if len(c.Records) == 0 {
		b.WriteString(emptyStyle.Render("Sin servicios"))
	}
	for i, r := range c.Records {
		if i > 0 {
			b.WriteString("\n")
		}
		entry := Entry(r, inner-2)
		if r.Completed {
			entry = doneStyle.Render(entry)
		}
		cursor := "  "
		if c.Current && i == c.Selected {
			cursor = cursorStyle.Render("▸ ")
		}
		b.WriteString(prefixLines(entry, cursor, "  "))
	}

	style := cardStyle
	if c.Current {
		style = currentCardStyle
	}
	return style.Width(inner).Render(b.String())
}

// Entry renders a record as a few short lines. Blank driver slots are not
// shown.
func Entry(r models.ServiceRecord, width int) string {
	mark := "○"
	if r.Completed {
		mark = "✓"
	}

	head := mark
	if r.ScheduledTime != "" {
		head += " " + r.ScheduledTime
	}
	lines := []string{head + " " + r.ClientName}
	if r.ServiceName != "" {
		lines = append(lines, "  "+r.ServiceName)
	}
	for _, u := range r.Units {
		line := "  " + u.VehicleID
		if drivers := u.ActiveDrivers(); len(drivers) > 0 {
			line += " · " + strings.Join(drivers, ", ")
		}
		lines = append(lines, line)
	}
	if r.Origin != "" || r.Destination != "" {
		lines = append(lines, fmt.Sprintf("  %s → %s", r.Origin, r.Destination))
	}

	for i, l := range lines {
		lines[i] = truncate(l, width)
	}
	return strings.Join(lines, "\n")
}

func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = rest + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
