package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/logging"
	"github.com/dmitrijs2005/gophportal/internal/models"
	"github.com/dmitrijs2005/gophportal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophportal/internal/retry"
)

// Session is the state of one logged-in portal user. RemainingQueries is a
// snapshot refreshed after every charged search.
type Session struct {
	Username         string
	RemainingQueries int
	Source           string
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.Username != ""
}

// RecordSearcher is the set of record databases a session can search.
type RecordSearcher interface {
	Names() []string
	Has(name string) bool
	Search(ctx context.Context, name, term string, limit int) ([]models.Record, error)
}

type SearchOptions struct {
	DefaultSource string
	Blacklist     []string
	Retry         *retry.Policy
	Logger        logging.Logger
}

// SearchService runs quota-charged searches for logged-in sessions.
type SearchService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	accounts      *AccountService
	sources       RecordSearcher
	defaultSource string
	blacklist     []string
	policy        retry.Policy
	log           logging.Logger
	now           func() time.Time
}

func NewSearchService(db *sql.DB, m repomanager.RepositoryManager, accounts *AccountService, sources RecordSearcher, opts SearchOptions) *SearchService {
	s := &SearchService{
		db:            db,
		repomanager:   m,
		accounts:      accounts,
		sources:       sources,
		defaultSource: opts.DefaultSource,
		policy:        accounts.policy,
		log:           opts.Logger,
		now:           time.Now,
	}
	if opts.Retry != nil {
		s.policy = *opts.Retry
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	s.log = s.log.With("module", "search")

	for _, kw := range opts.Blacklist {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			s.blacklist = append(s.blacklist, kw)
		}
	}

	if s.defaultSource == "" {
		if names := sources.Names(); len(names) > 0 {
			s.defaultSource = names[0]
		}
	}

	return s
}

// Login authenticates the user and opens a session on the default source.
func (s *SearchService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user", user.Username)
	return &Session{
		Username:         user.Username,
		RemainingQueries: user.RemainingQueries,
		Source:           s.defaultSource,
	}, nil
}

// Logout clears the session in place.
func (s *SearchService) Logout(sess *Session) {
	if sess == nil {
		return
	}
	*sess = Session{}
}

// Refresh reloads the quota snapshot from the store, e.g. after an
// administrator replenished it.
func (s *SearchService) Refresh(ctx context.Context, sess *Session) error {
	if !sess.LoggedIn() {
		return common.ErrUnauthorized
	}

	user, err := s.accounts.GetUser(ctx, sess.Username)
	if err != nil {
		return err
	}
	sess.RemainingQueries = user.RemainingQueries
	return nil
}

func (s *SearchService) Sources() []string {
	return s.sources.Names()
}

// UseSource switches the session to another record source.
func (s *SearchService) UseSource(sess *Session, name string) error {
	if !sess.LoggedIn() {
		return common.ErrUnauthorized
	}
	if !s.sources.Has(name) {
		return fmt.Errorf("record source %q: %w", name, common.ErrNotFound)
	}
	sess.Source = name
	return nil
}

// Blacklisted reports whether term contains a blacklisted keyword,
// ignoring case.
func (s *SearchService) Blacklisted(term string) bool {
	t := strings.ToLower(term)
	for _, kw := range s.blacklist {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// Search charges one query to the session's user, logs it and returns up to
// limit matching records from the session's source.
//
// The log row and the decrement commit together. Once they have committed
// the query is spent, even if the record source then fails.
func (s *SearchService) Search(ctx context.Context, sess *Session, term string, limit int) ([]models.Record, error) {
	if !sess.LoggedIn() {
		return nil, common.ErrUnauthorized
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term is empty: %w", common.ErrValidation)
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be at least 1: %w", common.ErrValidation)
	}
	if sess.RemainingQueries <= 0 {
		return nil, common.ErrQuotaExhausted
	}
	if s.Blacklisted(term) {
		s.log.Warn(ctx, "blacklisted search term", "user", sess.Username)
		return nil, common.ErrBlacklisted
	}
	if !s.sources.Has(sess.Source) {
		return nil, fmt.Errorf("record source %q: %w", sess.Source, common.ErrNotFound)
	}

	left, err := s.charge(ctx, sess.Username, term, limit)
	if err != nil {
		if errors.Is(err, common.ErrQuotaExhausted) {
			sess.RemainingQueries = 0
		}
		return nil, err
	}
	sess.RemainingQueries = left

	records, err := s.sources.Search(ctx, sess.Source, term, limit)
	if err != nil {
		s.log.Error(ctx, "record source failed", "user", sess.Username, "source", sess.Source, "err", err)
		return nil, storageErr("search "+sess.Source, err)
	}

	s.log.Info(ctx, "search served",
		"user", sess.Username, "source", sess.Source, "rows", len(records), "remaining", left)
	return records, nil
}

// charge records the search and decrements the quota in one transaction.
func (s *SearchService) charge(ctx context.Context, username, term string, limit int) (int, error) {
	at := s.now()

	left, err := retry.Do(ctx, s.policy, func(ctx context.Context) (int, error) {
		var left int
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			inserted, err := s.repomanager.SearchLogs(tx).Record(ctx, username, term, limit, at)
			if err != nil {
				return err
			}
			if !inserted {
				s.log.Debug(ctx, "duplicate search log entry", "user", username)
			}

			left, err = s.accounts.consumeQuota(ctx, tx, username, at)
			return err
		})
		return left, err
	})
	if err != nil {
		return 0, storageErr("charge search", err)
	}
	return left, nil
}

// History returns the user's most recent searches.
func (s *SearchService) History(ctx context.Context, sess *Session, n int) ([]models.SearchLogEntry, error) {
	if !sess.LoggedIn() {
		return nil, common.ErrUnauthorized
	}
	if n < 1 {
		n = 10
	}

	entries, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]models.SearchLogEntry, error) {
		return s.repomanager.SearchLogs(s.db).ListByUser(ctx, sess.Username, n)
	})
	if err != nil {
		return nil, storageErr("history", err)
	}
	return entries, nil
}
