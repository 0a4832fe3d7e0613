package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	exec(ctx context.Context, cmd string, args []string) error
}

const (
	helpAnonymous = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: me, profile, passwd, users [page] [search], stats, watch, refresh, create, delete <id>, export [file], logout, exit"
)

// runREPL reads commands line by line from in until EOF, "exit", "quit"
// or the end of ctx. Command errors are printed by the commands themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in lineSource, out io.Writer) {
	for {
		fmt.Fprintf(out, "usergate (%s)> ", statusFn())
		line, err := in.ReadLine(ctx)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpLoggedIn)
			} else {
				fmt.Fprintln(out, helpAnonymous)
			}
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			if err := a.exec(ctx, cmd, parts[1:]); errors.Is(err, errUnknown) {
				fmt.Fprintln(out, "Unknown command:", cmd)
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

var errUnknown = errors.New("unknown command")

func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "me":
		return a.Me(ctx)
	case "profile":
		return a.Profile(ctx)
	case "passwd":
		return a.ChangePassword(ctx)
	case "users", "l":
		return a.Users(ctx, args)
	case "stats":
		return a.Stats(ctx)
	case "watch":
		return a.Watch(ctx)
	case "create":
		return a.CreateUser(ctx)
	case "delete":
		return a.DeleteUser(ctx, args)
	case "export":
		return a.Export(ctx, args)
	default:
		return errUnknown
	}
}
