package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/fleetcal/internal/auth"
	"github.com/julianstephens/fleetcal/internal/calendar"
	"github.com/julianstephens/fleetcal/internal/config"
	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/engine"
	"github.com/julianstephens/fleetcal/internal/models"
	"github.com/julianstephens/fleetcal/internal/storage"
	"github.com/julianstephens/fleetcal/internal/storage/postgres"
	"github.com/julianstephens/fleetcal/internal/storage/sqlite"
	"github.com/julianstephens/fleetcal/internal/utils"
)

type Context struct {
	Config *config.Config
	Store  storage.Provider
	Gate   *auth.Gate

	// KeyStdin reads the access key from the first line of In instead of
	// prompting.
	KeyStdin bool

	In  *os.File
	Out io.Writer
}

// OpenStore returns the provider for database: PostgreSQL for connection
// strings, SQLite for everything else.
func OpenStore(database string) storage.Provider {
	if config.IsPostgresConnString(database) {
		return postgres.New(database)
	}
	return sqlite.NewStore(database)
}

// CheckConnString rejects PostgreSQL connection strings passed on the command
// line with an embedded password.
func CheckConnString(connStr string) error {
	if !config.IsPostgresConnString(connStr) {
		return nil
	}
	if _, err := postgres.ValidateConnString(connStr); err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed on the command line; " +
				"store it with 'fleetcal keyring set', export " + constants.EnvDBConnection + ", or use .pgpass")
		}
		return err
	}
	return nil
}

func (c *Context) stdout() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// Stdin returns the command input.
func (c *Context) Stdin() *os.File {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.stdout(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.stdout(), args...)
}

// Writer returns the command output.
func (c *Context) Writer() io.Writer {
	return c.stdout()
}

// NewEngine builds a sync engine over the context store.
func (c *Context) NewEngine() *engine.Engine {
	var window time.Duration
	if c.Config != nil {
		window = c.Config.ResyncWindow
	}
	return engine.New(c.Store, engine.Options{ResyncWindow: window})
}

// LoadEngine builds an engine and runs the initial full load. The caller
// closes it.
func (c *Context) LoadEngine() (*engine.Engine, error) {
	eng := c.NewEngine()
	ctx, cancel := context.WithTimeout(context.Background(), constants.StoreCallTimeout)
	defer cancel()
	if _, err := eng.LoadAll(ctx); err != nil {
		eng.Close()
		return nil, err
	}
	return eng, nil
}

// Today returns the current day in the configured timezone.
func (c *Context) Today() (models.DateKey, error) {
	tz := constants.DefaultTimezone
	if c.Config != nil {
		tz = c.Config.Timezone
	}
	return utils.TodayInTimezone(tz)
}

// Year returns the calendar year shown by the session.
func (c *Context) Year() int {
	fallback := time.Now().Year()
	if today, err := c.Today(); err == nil {
		fallback = today.Year
	}
	if c.Config == nil {
		return fallback
	}
	return c.Config.YearOr(fallback)
}

// Days returns every day of the session year.
func (c *Context) Days() []models.Day {
	return calendar.GenerateYear(c.Year())
}

// RequirePrivilege unlocks the gate for op, reading the access key from
// FLEETCAL_ACCESS_KEY, stdin or an interactive prompt.
func (c *Context) RequirePrivilege(op string) error {
	if c.Gate == nil {
		c.Gate = auth.NewGate(nil)
	}
	if c.Gate.IsPrivileged() {
		return nil
	}

	key := strings.TrimSpace(os.Getenv(constants.EnvAccessKey))
	if key == "" {
		var err error
		if c.KeyStdin {
			key, err = auth.ReadKeyLine(c.Stdin())
		} else {
			key, err = auth.ReadKey("Access key: ", c.Stdin(), os.Stderr)
		}
		if err != nil {
			return err
		}
	}

	if err := c.Gate.Unlock(key); err != nil {
		return err
	}
	return c.Gate.Require(op)
}

// ParseDate parses YYYY-MM-DD or "today".
func (c *Context) ParseDate(s string) (models.DateKey, error) {
	if strings.EqualFold(strings.TrimSpace(s), "today") {
		return c.Today()
	}
	return models.ParseDateKey(strings.TrimSpace(s))
}
