package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)
var doneStyle = cellStyle.Foreground(lipgloss.Color("8"))

// ParseUnit parses VEHICLE or VEHICLE:driver1,driver2 into an assignment.
func ParseUnit(s string) (models.UnitAssignment, error) {
	vehicle, drivers, _ := strings.Cut(s, ":")
	vehicle = strings.TrimSpace(vehicle)
	if vehicle == "" {
		return models.UnitAssignment{}, fmt.Errorf("invalid unit %q: vehicle is required", s)
	}

	u := models.UnitAssignment{VehicleID: vehicle, Drivers: []string{}}
	if strings.TrimSpace(drivers) != "" {
		for _, d := range strings.Split(drivers, ",") {
			u.Drivers = append(u.Drivers, strings.TrimSpace(d))
		}
	}
	if len(u.Drivers) > constants.MaxDriversPerUnit {
		return models.UnitAssignment{}, fmt.Errorf("invalid unit %q: at most %d drivers", s, constants.MaxDriversPerUnit)
	}
	return u, nil
}

func ParseUnits(specs []string) ([]models.UnitAssignment, error) {
	units := make([]models.UnitAssignment, 0, len(specs))
	for _, s := range specs {
		u, err := ParseUnit(s)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// FormatUnits renders units as "BUS-12 (Ana, Luis); M-07", skipping blank
// driver slots.
func FormatUnits(units []models.UnitAssignment) string {
	parts := make([]string, 0, len(units))
	for _, u := range units {
		drivers := u.ActiveDrivers()
		if len(drivers) == 0 {
			parts = append(parts, u.VehicleID)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", u.VehicleID, strings.Join(drivers, ", ")))
	}
	return strings.Join(parts, "; ")
}

// DayLabel renders a key as "lunes 10 de marzo de 2025".
func DayLabel(k models.DateKey) string {
	wd := k.Time(nil).Weekday()
	return fmt.Sprintf("%s %d de %s de %d", calendar.WeekdayName(wd), k.Day, calendar.MonthName(k.Month), k.Year)
}

// RenderTable lays out records in date order.
func RenderTable(records models.RecordsByDate, showIDs bool) string {
	headers := []string{"Fecha", "Hora", "Cliente", "Servicio", "Unidades", "Ruta", "✓"}
	if showIDs {
		headers = append([]string{"ID"}, headers...)
	}

	var rows [][]string
	var done []bool
	for _, k := range records.Keys() {
		for _, r := range records.Get(k) {
			mark := ""
			if r.Completed {
				mark = "✓"
			}
			row := []string{
				k.String(),
				r.ScheduledTime,
				r.ClientName,
				r.ServiceName,
				FormatUnits(r.Units),
				r.Origin + " → " + r.Destination,
				mark,
			}
			if showIDs {
				row = append([]string{r.ID}, row...)
			}
			rows = append(rows, row)
			done = append(done, r.Completed)
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(done) && done[row]:
				return doneStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// Markdown describes one record for the show command.
func Markdown(r models.ServiceRecord) string {
	var b strings.Builder

	title := r.ServiceName
	if title == "" {
		title = "Servicio"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Cliente:** %s  \n", r.ClientName)
	fmt.Fprintf(&b, "**Fecha:** %s  \n", DayLabel(r.Key()))
	if r.ScheduledTime != "" {
		fmt.Fprintf(&b, "**Horario:** %s  \n", r.ScheduledTime)
	}
	fmt.Fprintf(&b, "**Origen:** %s  \n", r.Origin)
	fmt.Fprintf(&b, "**Destino:** %s  \n", r.Destination)
	if r.Completed {
		b.WriteString("**Estado:** completado  \n")
	} else {
		b.WriteString("**Estado:** pendiente  \n")
	}

	if len(r.Units) > 0 {
		b.WriteString("\n## Unidades\n\n")
		for _, u := range r.Units {
			drivers := u.ActiveDrivers()
			if len(drivers) == 0 {
				fmt.Fprintf(&b, "- **%s**\n", u.VehicleID)
				continue
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", u.VehicleID, strings.Join(drivers, ", "))
		}
	}

	if strings.TrimSpace(r.Notes) != "" {
		fmt.Fprintf(&b, "\n## Observaciones\n\n%s\n", r.Notes)
	}
	if r.ID != "" {
		fmt.Fprintf(&b, "\n`%s`\n", r.ID)
	}
	return b.String()
}

// RenderMarkdown renders md for the terminal, falling back to the raw text.
func RenderMarkdown(md string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
