package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/julianstephens/fleetcal/internal/cli"
	"github.com/julianstephens/fleetcal/internal/engine"
	"github.com/julianstephens/fleetcal/internal/logger"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/notifier"
)

// WatchCmd keeps a headless session subscribed to the store and reports
// every reconciliation.
type WatchCmd struct {
	Notify   bool `help:"Relay changes as desktop notifications through the tray app (also enabled by the notify setting)."`
	Interval int  `help:"Minimum seconds between notifications." default:"2"`
}

type changeSummary struct {
	Added   int
	Removed int
	Changed int
}

func (s changeSummary) IsZero() bool {
	return s == changeSummary{}
}

func (s changeSummary) String() string {
	return fmt.Sprintf("Services updated: %d added, %d changed, %d removed", s.Added, s.Changed, s.Removed)
}

// diffSnapshots compares two snapshots by record id.
func diffSnapshots(prev, next models.RecordsByDate) changeSummary {
	index := func(m models.RecordsByDate) map[string]models.ServiceRecord {
		out := make(map[string]models.ServiceRecord, m.Count())
		for _, bucket := range m {
			for _, r := range bucket {
				out[r.ID] = r
			}
		}
		return out
	}

	before, after := index(prev), index(next)
	var s changeSummary
	for id, r := range after {
		old, ok := before[id]
		switch {
		case !ok:
			s.Added++
		case !reflect.DeepEqual(old, r):
			s.Changed++
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			s.Removed++
		}
	}
	return s
}

func (c *WatchCmd) notifyEnabled(ctx *cli.Context) bool {
	return c.Notify || (ctx.Config != nil && ctx.Config.Notify)
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := ctx.NewEngine()
	defer eng.Close()

	var n *notifier.Notifier
	if c.notifyEnabled(ctx) {
		n = notifier.New(time.Duration(c.Interval) * time.Second)
	}

	if _, err := eng.LoadAll(sigCtx); err != nil {
		return err
	}
	if err := eng.Subscribe(sigCtx); err != nil {
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	prev := eng.Snapshot()
	ctx.Printf("Watching %d service record(s) in %s (Ctrl+C to stop)\n", prev.Count(), ctx.Store.GetConfigPath())

	for {
		select {
		case <-sigCtx.Done():
			ctx.Println("Stopped.")
			return nil
		case o, ok := <-eng.Outcomes():
			if !ok {
				return nil
			}
			if o.Op != engine.OpLoad {
				continue
			}
			if !o.OK {
				logger.Warn("Reconciliation failed", "error", o.Message)
				ctx.Printf("⚠ %s\n", o)
				continue
			}

			next := eng.Snapshot()
			summary := diffSnapshots(prev, next)
			prev = next
			if summary.IsZero() {
				continue
			}

			logger.Info("Reconciled", "added", summary.Added, "changed", summary.Changed, "removed", summary.Removed)
			ctx.Println(summary.String())
			if n == nil {
				continue
			}
			if err := n.Notify(sigCtx, summary.String()); err != nil && !errors.Is(err, notifier.ErrRateLimited) {
				logger.Debug("Notification not delivered", "error", err)
			}
		}
	}
}
