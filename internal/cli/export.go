package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/fleetcal/internal/export"
	"github.com/julianstephens/fleetcal/internal/filter"
	"github.com/julianstephens/fleetcal/internal/logger"
)

type ExportCmd struct {
	Out    string `short:"o" help:"Output file." required:""`
	Format string `short:"f" help:"Output format (xlsx|csv). Inferred from the file extension when omitted."`
	Month  int    `short:"m" help:"Only export this month (1-12)."`
	Client string `short:"c" help:"Only export clients containing this text (case-insensitive)."`
}

func (c *ExportCmd) format() (export.Format, error) {
	if c.Format != "" {
		return export.ParseFormat(c.Format)
	}
	return export.ParseFormat(filepath.Ext(c.Out))
}

func (c *ExportCmd) Run(ctx *Context) error {
	if c.Month < 0 || c.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12")
	}
	format, err := c.format()
	if err != nil {
		return err
	}

	eng, err := ctx.LoadEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	view := filter.Apply(eng.Snapshot(), filter.Criteria{ClientSubstring: strings.TrimSpace(c.Client), Month: c.Month})
	if err := export.ToFile(c.Out, format, view); err != nil {
		return err
	}

	logger.Info("Exported services", "path", c.Out, "format", format, "count", view.Count())
	ctx.Printf("Exported %d service(s) to %s\n", view.Count(), c.Out)
	return nil
}
