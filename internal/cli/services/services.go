package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/engine"
	ferrors "github.com/julianstephens/fleetcal/internal/errors"
	"github.com/julianstephens/fleetcal/internal/filter"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/validation"
)

func findRecord(eng *engine.Engine, id string) (models.ServiceRecord, error) {
	r, ok := eng.Find(id)
	if !ok {
		return models.ServiceRecord{}, ferrors.E(ferrors.NotFound, "find", fmt.Errorf("no service with ID %s", id))
	}
	return r, nil
}

func validate(op string, r models.ServiceRecord) error {
	result := validation.New().ValidateService(r)
	return result.Err(op)
}

type ListCmd struct {
	Date    string `short:"d" help:"Only show this day (YYYY-MM-DD or 'today')."`
	Month   int    `short:"m" help:"Only show this month (1-12)."`
	Client  string `short:"c" help:"Only show clients containing this text (case-insensitive)."`
	ShowIDs bool   `help:"Show service IDs." name:"show-ids"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	if c.Month < 0 || c.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12")
	}

	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	view := filter.Apply(eng.Snapshot(), filter.Criteria{ClientSubstring: strings.TrimSpace(c.Client), Month: c.Month})
	if c.Date != "" {
		key, err := ctx.ParseDate(c.Date)
		if err != nil {
			return err
		}
		view = models.RecordsByDate{key: view.Get(key)}
	}

	if view.Count() == 0 {
		ctx.Println("No services found")
		return nil
	}

	ctx.Println(RenderTable(view, c.ShowIDs))
	ctx.Printf("%d service(s)\n", view.Count())
	return nil
}

type ShowCmd struct {
	ID    string `arg:"" help:"Service ID."`
	Raw   bool   `help:"Print markdown without terminal rendering."`
	Width int    `help:"Wrap width." default:"80"`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	r, err := findRecord(eng, c.ID)
	if err != nil {
		return err
	}

	md := Markdown(r)
	if c.Raw {
		ctx.Println(md)
		return nil
	}
	ctx.Println(RenderMarkdown(md, c.Width))
	return nil
}

type AddCmd struct {
	Date        string   `short:"d" help:"Service day (YYYY-MM-DD or 'today')." required:""`
	Client      string   `short:"c" help:"Client name." required:""`
	Service     string   `short:"s" help:"Service name."`
	Unit        []string `short:"u" help:"Vehicle and drivers as VEHICLE:driver1,driver2 (repeatable)." required:""`
	Origin      string   `help:"Pickup location."`
	Destination string   `help:"Drop-off location."`
	Time        string   `short:"t" help:"Scheduled time (HH:MM)."`
	Notes       string   `short:"n" help:"Free-form notes."`
}

func (c *AddCmd) draft(ctx *cli.Context) (models.ServiceRecord, error) {
	key, err := ctx.ParseDate(c.Date)
	if err != nil {
		return models.ServiceRecord{}, err
	}
	units, err := ParseUnits(c.Unit)
	if err != nil {
		return models.ServiceRecord{}, err
	}

	r := models.ServiceRecord{
		ClientName:    strings.TrimSpace(c.Client),
		ServiceName:   strings.TrimSpace(c.Service),
		Units:         units,
		Origin:        strings.TrimSpace(c.Origin),
		Destination:   strings.TrimSpace(c.Destination),
		ScheduledTime: strings.TrimSpace(c.Time),
		Notes:         c.Notes,
	}
	r.SetDate(key)
	return r, nil
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	r, err := c.draft(ctx)
	if err != nil {
		return err
	}
	if err := validate("create", r); err != nil {
		return err
	}
	if err := ctx.RequirePrivilege("create"); err != nil {
		return err
	}

	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	saved, err := eng.Create(context.Background(), r)
	if err != nil {
		return err
	}

	ctx.Printf("Added service: %s on %s (ID: %s)\n", saved.ClientName, saved.Key(), saved.ID)
	return nil
}

type EditCmd struct {
	ID          string   `arg:"" help:"Service ID."`
	Date        *string  `short:"d" help:"New day (YYYY-MM-DD or 'today')."`
	Client      *string  `short:"c" help:"New client name."`
	Service     *string  `short:"s" help:"New service name."`
	Unit        []string `short:"u" help:"Replace units with VEHICLE:driver1,driver2 (repeatable)."`
	Origin      *string  `help:"New pickup location."`
	Destination *string  `help:"New drop-off location."`
	Time        *string  `short:"t" help:"New scheduled time (HH:MM, empty to clear)."`
	Notes       *string  `short:"n" help:"New notes."`
	Completed   *bool    `help:"Set completed status."`
}

// apply returns r with the requested changes.
func (c *EditCmd) apply(ctx *cli.Context, r models.ServiceRecord) (models.ServiceRecord, error) {
	r = r.Clone()
	if c.Date != nil {
		key, err := ctx.ParseDate(*c.Date)
		if err != nil {
			return r, err
		}
		r.SetDate(key)
	}
	if c.Client != nil {
		r.ClientName = strings.TrimSpace(*c.Client)
	}
	if c.Service != nil {
		r.ServiceName = strings.TrimSpace(*c.Service)
	}
	if len(c.Unit) > 0 {
		units, err := ParseUnits(c.Unit)
		if err != nil {
			return r, err
		}
		r.Units = units
	}
	if c.Origin != nil {
		r.Origin = strings.TrimSpace(*c.Origin)
	}
	if c.Destination != nil {
		r.Destination = strings.TrimSpace(*c.Destination)
	}
	if c.Time != nil {
		r.ScheduledTime = strings.TrimSpace(*c.Time)
	}
	if c.Notes != nil {
		r.Notes = *c.Notes
	}
	if c.Completed != nil {
		r.Completed = *c.Completed
	}
	return r, nil
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	current, err := findRecord(eng, c.ID)
	if err != nil {
		return err
	}
	r, err := c.apply(ctx, current)
	if err != nil {
		return err
	}
	if err := validate("update", r); err != nil {
		return err
	}
	if err := ctx.RequirePrivilege("update"); err != nil {
		return err
	}

	saved, err := eng.Update(context.Background(), r)
	if err != nil {
		return err
	}

	ctx.Printf("Updated service: %s on %s (ID: %s)\n", saved.ClientName, saved.Key(), saved.ID)
	return nil
}

type DeleteCmd struct {
	ID string `arg:"" help:"Service ID to delete."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	r, err := findRecord(eng, c.ID)
	if err != nil {
		return err
	}
	if err := ctx.RequirePrivilege("delete"); err != nil {
		return err
	}

	if err := eng.Delete(context.Background(), r.ID, r.Key()); err != nil {
		return err
	}

	ctx.Printf("Deleted service: %s on %s (ID: %s)\n", r.ClientName, r.Key(), r.ID)
	return nil
}

type CompleteCmd struct {
	ID string `arg:"" help:"Service ID to mark as completed."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	r, err := findRecord(eng, c.ID)
	if err != nil {
		return err
	}
	if r.Completed {
		ctx.Printf("Service %s is already completed\n", r.ID)
		return nil
	}
	if err := ctx.RequirePrivilege("complete"); err != nil {
		return err
	}

	if _, err := eng.MarkCompleted(context.Background(), r.ID); err != nil {
		return err
	}

	ctx.Printf("Completed service: %s on %s (ID: %s)\n", r.ClientName, r.Key(), r.ID)
	return nil
}
