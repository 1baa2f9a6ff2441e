// Package cli implements the interactive portal shell: register, log in,
// search the record sources within the user's quota and log out.
package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/gophportal/internal/logging"
	"github.com/dmitrijs2005/gophportal/internal/models"
	"github.com/dmitrijs2005/gophportal/internal/services"
)

// Accounts is the registration surface used by the shell.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
}

// Portal is the session surface used by the shell.
type Portal interface {
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Logout(sess *services.Session)
	Refresh(ctx context.Context, sess *services.Session) error
	Search(ctx context.Context, sess *services.Session, term string, limit int) ([]models.Record, error)
	History(ctx context.Context, sess *services.Session, n int) ([]models.SearchLogEntry, error)
	Sources() []string
	UseSource(sess *services.Session, name string) error
}

type App struct {
	accounts     Accounts
	portal       Portal
	session      *services.Session
	reader       *bufio.Reader
	ttyFd        int
	out          io.Writer
	defaultLimit int
	log          logging.Logger
}

// NewApp wires the shell to its services. Input is read from in and all
// output goes to out.
func NewApp(accounts Accounts, portal Portal, in io.Reader, out io.Writer, defaultLimit int, log logging.Logger) *App {
	if log == nil {
		log = logging.Discard()
	}
	return &App{
		accounts:     accounts,
		portal:       portal,
		session:      &services.Session{},
		reader:       bufio.NewReader(in),
		ttyFd:        TerminalFd(in),
		out:          out,
		defaultLimit: defaultLimit,
		log:          log.With("module", "cli"),
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.LoggedIn()
}

func (a *App) getStatus() string {
	return statusLine(a.session)
}

// Run greets the user and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to the search portal (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
