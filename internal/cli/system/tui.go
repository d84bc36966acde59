package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	today, err := ctx.Today()
	if err != nil {
		return err
	}

	eng := ctx.NewEngine()
	defer eng.Close()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Subscribe(runCtx); err != nil {
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	m := tui.NewModel(runCtx, eng, ctx.Gate, ctx.Days(), today)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
