package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) exec(_ context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		f.loggedIn = true
	case "logout":
		f.loggedIn = false
	case "users", "delete", "me":
	default:
		return errUnknown
	}
	f.calls = append(f.calls, strings.TrimSpace(cmd+" "+strings.Join(args, " ")))
	return nil
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"users 2 ali",
		"me",
		"foobar",
		"logout",
		"exit",
		"me",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "status" }, newLineReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{"login", "users 2 ali", "me", "logout"}, exec.calls)
	assert.Contains(t, out.String(), helpAnonymous)
	assert.Contains(t, out.String(), helpLoggedIn)
	assert.Contains(t, out.String(), "Unknown command: foobar")
	assert.Contains(t, out.String(), "Bye!")
	assert.Contains(t, out.String(), "usergate (status)> ")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "s" }, newLineReader(strings.NewReader("me")), &out)

	assert.Equal(t, []string{"me"}, exec.calls, "last line without newline still runs")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(ctx, exec, func() string { return "s" }, newLineReader(strings.NewReader("me\nme\n")), &out)

	assert.Empty(t, exec.calls)
}
