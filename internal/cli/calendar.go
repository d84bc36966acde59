package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/models"
)

type CalendarCmd struct {
	Month int  `short:"m" help:"Month to list (1-12). Defaults to the current month."`
	Empty bool `help:"Include days without services."`
}

func (c *CalendarCmd) month(ctx *Context) int {
	if c.Month != 0 {
		return c.Month
	}
	if today, err := ctx.Today(); err == nil && today.Year == ctx.Year() {
		return today.Month
	}
	return 1
}

func (c *CalendarCmd) Run(ctx *Context) error {
	if c.Month < 0 || c.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12")
	}
	month := c.month(ctx)

	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	days := ctx.Days()
	start, ok := calendar.FirstIndexOfMonth(days, month)
	if !ok {
		return fmt.Errorf("month %d not found in %d", month, ctx.Year())
	}
	monthDays := days[start : start+calendar.DaysInMonth(ctx.Year(), month)]

	ctx.Printf("%s %d\n", calendar.MonthName(month), ctx.Year())
	ctx.Println(renderMonth(monthDays, eng.Snapshot(), c.Empty))
	return nil
}

func renderMonth(days []models.Day, snapshot models.RecordsByDate, includeEmpty bool) string {
	var rows [][]string
	for _, d := range days {
		bucket := snapshot.Get(d.Key())
		if len(bucket) == 0 && !includeEmpty {
			continue
		}
		done := 0
		for _, r := range bucket {
			if r.Completed {
				done++
			}
		}
		rows = append(rows, []string{
			d.WeekdayShort,
			fmt.Sprintf("%02d", d.Day),
			fmt.Sprintf("%d", len(bucket)),
			fmt.Sprintf("%d", done),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Día", "Fecha", "Servicios", "Completados").
		Rows(rows...).
		String()
}
