package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/dmitrijs2005/usergate/internal/client/models"
	"github.com/dmitrijs2005/usergate/internal/client/poller"
	"github.com/dmitrijs2005/usergate/internal/client/session"
	"github.com/dmitrijs2005/usergate/internal/client/utils"
	"github.com/dmitrijs2005/usergate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

func (a *App) prompt(ctx context.Context, label string) (string, error) {
	return getSimpleText(ctx, a.input, label, a.out)
}

func (a *App) password(label string) (string, error) {
	pw, err := getPassword(a.out, label)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) Register(ctx context.Context) error {
	email, err := a.prompt(ctx, "Enter email")
	if err != nil {
		return err
	}
	name, err := a.prompt(ctx, "Enter name")
	if err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}

	u, env := a.session.Register(ctx, email, pw, name)
	if err := a.report(env); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s. You can log in now.\n", u.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt(ctx, "Enter email")
	if err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}

	env := a.session.Login(ctx, email, pw)
	if err := a.report(env); err != nil {
		return err
	}
	u := a.session.User()
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.Email, u.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.report(a.session.Refresh(ctx)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, env := a.session.Me(ctx)
	if err := a.report(env); err != nil {
		return err
	}
	a.printUsers([]models.User{*u})
	return nil
}

// Profile updates the caller's name and email. Empty answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	var in models.UserInput
	name, err := a.prompt(ctx, "New name (empty to keep)")
	if err != nil {
		return err
	}
	if name != "" {
		in.Name = &name
	}
	email, err := a.prompt(ctx, "New email (empty to keep)")
	if err != nil {
		return err
	}
	if email != "" {
		in.Email = &email
	}

	u, env := a.session.UpdateProfile(ctx, in)
	if err := a.report(env); err != nil {
		return err
	}
	a.printUsers([]models.User{*u})
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	current, err := a.password("Current password")
	if err != nil {
		return err
	}
	next, err := a.password("New password")
	if err != nil {
		return err
	}

	if err := a.report(a.session.ChangePassword(ctx, current, next)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

// Users lists one page of the directory: users [page] [search...].
func (a *App) Users(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(a.out, "Usage: users [page] [search]")
			return errUsage
		}
		page = n
		args = args[1:]
	}

	list, env := a.session.ListUsers(ctx, page, 0, strings.Join(args, " "))
	if err := a.report(env); err != nil {
		return err
	}
	a.printUsers(list)
	if p := env.Pagination; p != nil {
		fmt.Fprintf(a.out, "page %d of %d (%d users)\n", p.Page, p.TotalPages, p.Total)
	}
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	st, env := a.session.Stats(ctx)
	if err := a.report(env); err != nil {
		return err
	}
	a.printStats(st)
	return nil
}

// Watch prints the directory stats every poll interval until the user
// presses Enter or the session ends.
func (a *App) Watch(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Error: not logged in")
		return errUsage
	}

	ended := make(chan struct{})
	var endOnce sync.Once
	end := func() { endOnce.Do(func() { close(ended) }) }

	p := poller.New(a.config.PollInterval, func(ctx context.Context) {
		if a.session.State() == session.Anonymous {
			end()
			return
		}
		st, env := a.session.Stats(ctx)
		if a.session.State() == session.Anonymous {
			end()
			return
		}
		if err := env.Err(); err != nil {
			if !env.Stale && ctx.Err() == nil {
				fmt.Fprintln(a.out, "Error:", err)
			}
			return
		}
		a.printStats(st)
	})

	fmt.Fprintf(a.out, "Refreshing every %s, press Enter to stop\n", a.config.PollInterval)
	p.Acquire(ctx)
	defer p.Release()

	select {
	case <-a.input.lines():
	case <-ended:
		fmt.Fprintln(a.out, "Watch stopped: not logged in")
	case <-ctx.Done():
	}
	return nil
}

// CreateUser prompts for a new account (admin only).
func (a *App) CreateUser(ctx context.Context) error {
	email, err := a.prompt(ctx, "Enter email")
	if err != nil {
		return err
	}
	name, err := a.prompt(ctx, "Enter name")
	if err != nil {
		return err
	}
	role, err := a.prompt(ctx, "Role (user/admin, empty for user)")
	if err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}

	in := models.UserInput{Email: &email, Name: &name, Password: &pw}
	if role != "" {
		in.Role = &role
	}
	u, env := a.session.CreateUser(ctx, in)
	if err := a.report(env); err != nil {
		return err
	}
	a.printUsers([]models.User{*u})
	return nil
}

func (a *App) DeleteUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return errUsage
	}
	return a.report(a.session.DeleteUser(ctx, args[0]))
}

// Export asks the server for a CSV snapshot (admin only) and either prints
// its link or downloads it into the given file.
func (a *App) Export(ctx context.Context, args []string) error {
	res, env := a.session.Export(ctx)
	if err := a.report(env); err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintf(a.out, "%d users exported, link valid until %s:\n%s\n", res.Count, res.ExpiresAt.Format("2006-01-02 15:04:05"), res.URL)
		return nil
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := utils.DownloadFromPresignedURL(ctx, a.http, res.URL, f)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintf(a.out, "%d users (%d bytes) written to %s\n", res.Count, n, args[0])
	return nil
}

func (a *App) printUsers(list []models.User) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tCREATED")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}

func (a *App) printStats(st *models.Stats) {
	fmt.Fprintf(a.out, "users: %d  regular: %d  admins: %d  new this month: %d  growth: %.1f%%\n",
		st.TotalUsers, st.ActiveUsers, st.AdminUsers, st.NewUsersThisMonth, st.GrowthRate)
}
