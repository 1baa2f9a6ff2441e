package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophportal/internal/common"
)

// getSimpleText, getPassword and getInt point to the interactive input helpers
// and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getInt        = GetInt
)

// historySize is how many log entries the history command shows.
const historySize = 10

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Register prompts for a username and password and creates the account.
// The password buffer is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.ttyFd, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.accounts.Register(ctx, userName, string(password)); err != nil {
		a.log.Warn(ctx, "registration failed", "user", userName, "error", err)
		return err
	}

	a.printf("Success! You can now log in as %s.\n", strings.TrimSpace(userName))
	return nil
}

// Login prompts for credentials and replaces the current session on success.
// A failed login leaves the previous session untouched.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.ttyFd, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.portal.Login(ctx, userName, string(password))
	if err != nil {
		return err
	}

	a.session = sess
	a.printf("Welcome, %s! Remaining queries: %d\n", sess.Username, sess.RemainingQueries)
	return nil
}

// Search runs one quota-charged search. The term comes from args or, when
// args is empty, from a prompt. The row limit is always prompted.
func (a *App) Search(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}

	term := strings.Join(args, " ")
	if term == "" {
		var err error
		if term, err = getSimpleText(a.reader, "Enter search term", a.out); err != nil {
			return err
		}
	}

	limit, err := getInt(a.reader, "Enter row limit", a.defaultLimit, a.out)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	records, err := a.portal.Search(ctx, a.session, term, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		a.printf("No records found.\n")
	} else {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRECORD")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\n", r.ID, r.Value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	a.printf("%d record(s). Remaining queries: %d\n", len(records), a.session.RemainingQueries)
	return nil
}

// Quota reloads the remaining count from the store, picking up external
// replenishment.
func (a *App) Quota(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}
	if err := a.portal.Refresh(ctx, a.session); err != nil {
		return err
	}
	a.printf("Remaining queries: %d\n", a.session.RemainingQueries)
	return nil
}

// History lists the user's most recent searches, newest first.
func (a *App) History(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}
	entries, err := a.portal.History(ctx, a.session, historySize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.printf("No searches yet.\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLIMIT\tQUERY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.SearchTime.Local().Format("2006-01-02 15:04:05"), e.Limit, e.Query)
	}
	return tw.Flush()
}

// Sources prints the configured record sources, marking the selected one.
func (a *App) Sources(ctx context.Context) error {
	for _, name := range a.portal.Sources() {
		marker := " "
		if a.session.Source == name {
			marker = "*"
		}
		a.printf("%s %s\n", marker, name)
	}
	return nil
}

// Use switches the session to another record source.
func (a *App) Use(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: use <source>", common.ErrValidation)
	}
	if err := a.portal.UseSource(a.session, args[0]); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: unknown source %q", common.ErrValidation, args[0])
		}
		return err
	}
	a.printf("Using source %s\n", a.session.Source)
	return nil
}

// Logout ends the current session.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}
	a.portal.Logout(a.session)
	a.printf("Logged out.\n")
	return nil
}
