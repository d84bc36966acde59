package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/cli/services"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/utils"
)

type RecordFormModel struct {
	Date        string
	Time        string
	Client      string
	Service     string
	Units       string
	Origin      string
	Destination string
	Notes       string
	Completed   bool
}

type UnlockFormModel struct {
	Key string
}

type FilterFormModel struct {
	Client string
	Month  int
}

func recordFormFrom(r models.ServiceRecord) *RecordFormModel {
	return &RecordFormModel{
		Date:        r.Key().String(),
		Time:        r.ScheduledTime,
		Client:      r.ClientName,
		Service:     r.ServiceName,
		Units:       formatUnitSpecs(r.Units),
		Origin:      r.Origin,
		Destination: r.Destination,
		Notes:       r.Notes,
		Completed:   r.Completed,
	}
}

// Apply copies the form fields onto base. base keeps its id.
func (fm *RecordFormModel) Apply(base models.ServiceRecord) (models.ServiceRecord, error) {
	r := base.Clone()

	k, err := models.ParseDateKey(strings.TrimSpace(fm.Date))
	if err != nil {
		return models.ServiceRecord{}, err
	}
	units, err := parseUnitSpecs(fm.Units)
	if err != nil {
		return models.ServiceRecord{}, err
	}

	r.SetDate(k)
	r.ScheduledTime = strings.TrimSpace(fm.Time)
	r.ClientName = strings.TrimSpace(fm.Client)
	r.ServiceName = strings.TrimSpace(fm.Service)
	r.Units = units
	r.Origin = strings.TrimSpace(fm.Origin)
	r.Destination = strings.TrimSpace(fm.Destination)
	r.Notes = strings.TrimSpace(fm.Notes)
	r.Completed = fm.Completed
	return r, nil
}

// formatUnitSpecs writes units as "M-07:Carmen,,Luis; BUS-12", keeping blank
// driver slots so an edit does not shift them.
func formatUnitSpecs(units []models.UnitAssignment) string {
	specs := make([]string, 0, len(units))
	for _, u := range units {
		if len(u.Drivers) == 0 {
			specs = append(specs, u.VehicleID)
			continue
		}
		specs = append(specs, u.VehicleID+":"+strings.Join(u.Drivers, ","))
	}
	return strings.Join(specs, "; ")
}

func parseUnitSpecs(s string) ([]models.UnitAssignment, error) {
	var specs []string
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) != "" {
			specs = append(specs, part)
		}
	}
	return services.ParseUnits(specs)
}

// NewRecordForm creates the add/edit form for a service
func NewRecordForm(fm *RecordFormModel, editing bool) *huh.Form {
	details := []huh.Field{
		huh.NewInput().
			Title("Fecha (YYYY-MM-DD)").
			Value(&fm.Date).
			Validate(func(s string) error {
				_, err := models.ParseDateKey(strings.TrimSpace(s))
				return err
			}),
		huh.NewInput().
			Title("Hora (HH:MM)").
			Value(&fm.Time).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				if !utils.ValidateTimeFormat(strings.TrimSpace(s)) {
					return fmt.Errorf("invalid time format, use HH:MM")
				}
				return nil
			}),
		huh.NewInput().
			Title("Cliente").
			Value(&fm.Client).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("client name cannot be empty")
				}
				return nil
			}),
		huh.NewInput().
			Title("Servicio").
			Value(&fm.Service),
	}

	route := []huh.Field{
		huh.NewInput().
			Title("Unidades").
			Description(fmt.Sprintf("VEHICLE:driver,driver; ... (up to %d drivers)", constants.MaxDriversPerUnit)).
			Value(&fm.Units).
			Validate(func(s string) error {
				units, err := parseUnitSpecs(s)
				if err != nil {
					return err
				}
				if len(units) == 0 {
					return fmt.Errorf("at least one unit is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Origen").
			Value(&fm.Origin),
		huh.NewInput().
			Title("Destino").
			Value(&fm.Destination),
		huh.NewText().
			Title("Observaciones").
			Value(&fm.Notes),
	}
	if editing {
		route = append(route, huh.NewConfirm().
			Title("Completado").
			Value(&fm.Completed))
	}

	return huh.NewForm(
		huh.NewGroup(details...),
		huh.NewGroup(route...),
	).WithTheme(huh.ThemeDracula())
}

// NewUnlockForm creates the masked access key prompt
func NewUnlockForm(fm *UnlockFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Access key").
				EchoMode(huh.EchoModePassword).
				Value(&fm.Key).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("access key cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewFilterForm creates the client and month filter form
func NewFilterForm(fm *FilterFormModel) *huh.Form {
	months := []huh.Option[int]{huh.NewOption("todos", 0)}
	for month := 1; month <= 12; month++ {
		months = append(months, huh.NewOption(calendar.MonthName(month), month))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cliente contiene").
				Value(&fm.Client),
			huh.NewSelect[int]().
				Title("Mes").
				Options(months...).
				Value(&fm.Month),
		),
	).WithTheme(huh.ThemeDracula())
}
