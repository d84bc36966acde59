package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/logger"
)

type InspectCmd struct {
	DBPath   *InspectDBPathCmd   `cmd:"" help:"Show database and log paths."`
	DumpDay  *InspectDumpDayCmd  `cmd:"" help:"Dump the records of a day as JSON."`
	DumpItem *InspectDumpItemCmd `cmd:"" help:"Dump a service record as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type InspectDBPathCmd struct{}

func (cmd *InspectDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path": ctx.Store.GetConfigPath(),
		"log":  logger.Path(),
	})
}

type InspectDumpDayCmd struct {
	Date string `arg:"" help:"Day to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *InspectDumpDayCmd) Run(ctx *cli.Context) error {
	key, err := ctx.ParseDate(cmd.Date)
	if err != nil {
		return err
	}

	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	records := eng.Get(key)
	if len(records) == 0 {
		return fmt.Errorf("no services found for date: %s", key)
	}
	return printJSON(ctx, records)
}

type InspectDumpItemCmd struct {
	ID string `arg:"" help:"ID of the service record to dump."`
}

func (cmd *InspectDumpItemCmd) Run(ctx *cli.Context) error {
	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	record, ok := eng.Find(cmd.ID)
	if !ok {
		return fmt.Errorf("service not found: %s", cmd.ID)
	}
	return printJSON(ctx, record)
}
