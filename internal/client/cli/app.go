package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/usergate/internal/client/config"
	"github.com/dmitrijs2005/usergate/internal/client/session"
	"github.com/dmitrijs2005/usergate/internal/client/tokenstore"
	"github.com/dmitrijs2005/usergate/internal/logging"
)

type App struct {
	config  *config.Config
	session *session.Client
	store   tokenstore.Store
	http    *http.Client
	input   *lineReader
	out     io.Writer
}

// NewApp opens the token store, restores a saved session and builds the
// API client.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	store, err := tokenstore.Open(ctx, c.TokenDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing token store: %w", err)
	}
	return newApp(ctx, c, store, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, store tokenstore.Store, in io.Reader, out io.Writer) (*App, error) {
	a := &App{
		config: c,
		store:  store,
		http:   &http.Client{Timeout: c.RequestTimeout},
		input:  newLineReader(in),
		out:    out,
	}
	a.session = session.New(c.ServerURL,
		session.WithHTTPClient(a.http),
		session.WithStore(store),
		session.WithLogger(logging.NewNop()),
		session.OnUnauthorized(func() {
			fmt.Fprintln(a.out, "Session expired, please log in again.")
		}),
	)
	if err := a.session.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("error restoring session: %w", err)
	}
	return a, nil
}

// Run executes args as one command, or starts the REPL when args is empty.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.store.Close()

	if len(args) > 0 {
		return a.exec(ctx, args[0], args[1:])
	}

	fmt.Fprintln(a.out, "usergate CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.input, a.out)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.Authenticated
}

func (a *App) status() string {
	u := a.session.User()
	if u == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s %s", u.Email, u.Role)
}

// report prints the outcome of env and returns its error.
func (a *App) report(env session.Envelope) error {
	if err := env.Err(); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if env.Message != "" {
		fmt.Fprintln(a.out, env.Message)
	}
	return nil
}
