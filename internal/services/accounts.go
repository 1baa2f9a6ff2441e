// Package services contains the portal's business logic. This file
// implements AccountService, which registers and authenticates users and
// keeps their search quota.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/logging"
	"github.com/dmitrijs2005/gophportal/internal/models"
	"github.com/dmitrijs2005/gophportal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophportal/internal/retry"
	"golang.org/x/crypto/bcrypt"
)

// AccountOptions tunes an AccountService. Zero fields fall back to defaults.
type AccountOptions struct {
	DefaultQuota int
	BcryptCost   int
	Retry        *retry.Policy
	Logger       logging.Logger
}

// AccountService owns user records and their remaining query count. Every
// storage call goes through the retry policy.
type AccountService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	defaultQuota int
	bcryptCost   int
	policy       retry.Policy
	log          logging.Logger
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, opts AccountOptions) *AccountService {
	s := &AccountService{
		db:           db,
		repomanager:  m,
		defaultQuota: opts.DefaultQuota,
		bcryptCost:   opts.BcryptCost,
		policy:       retry.Default(),
		log:          opts.Logger,
		now:          time.Now,
	}
	if s.defaultQuota <= 0 {
		s.defaultQuota = common.DefaultQuota
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if opts.Retry != nil {
		s.policy = *opts.Retry
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	s.log = s.log.With("module", "accounts")

	onRetry := s.policy.OnRetry
	s.policy.OnRetry = func(attempt int, err error) {
		s.log.Warn(context.Background(), "store busy, retrying", "attempt", attempt, "err", err)
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	return s
}

// storageErr passes domain errors through and tags everything else as a
// storage fault.
func storageErr(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrStorageLocked),
		errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrQuotaExhausted),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

// maxPasswordBytes is the longest password bcrypt accepts.
const maxPasswordBytes = 72

// normalizeUsername is applied to every username entering the service so
// that lookups match what Register stored.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Register creates username with the default quota. Surrounding whitespace
// is dropped from the username; passwords are taken as is and may not exceed
// 72 bytes.
func (s *AccountService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("password is longer than %d bytes: %w", maxPasswordBytes, common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).Create(ctx, &models.User{
			Username:         username,
			PasswordHash:     string(hash),
			RemainingQueries: s.defaultQuota,
			CreatedAt:        s.now().UTC(),
		})
	})
	if err != nil {
		return nil, storageErr("register", err)
	}

	s.log.Info(ctx, "user registered", "user", username)
	return user, nil
}

func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-password"), s.bcryptCost)
	})
	return s.dummyHash
}

// Authenticate returns the user when the credentials match. Unknown users and
// wrong passwords both yield common.ErrUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = normalizeUsername(username)
	user, err := s.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// keep the timing of unknown users close to a real comparison
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug(ctx, "password mismatch", "user", username)
		return nil, common.ErrUnauthorized
	}

	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, username string) (*models.User, error) {
	username = normalizeUsername(username)
	user, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).GetByUsername(ctx, username)
	})
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return user, nil
}

// UpdateRemainingQueries overwrites the user's quota and stamps last_search.
func (s *AccountService) UpdateRemainingQueries(ctx context.Context, username string, remaining int) error {
	if remaining < 0 {
		return fmt.Errorf("remaining queries must not be negative: %w", common.ErrValidation)
	}
	username = normalizeUsername(username)

	at := s.now().UTC()
	err := retry.Exec(ctx, s.policy, func(ctx context.Context) error {
		return s.repomanager.Users(s.db).UpdateRemainingQueries(ctx, username, remaining, at)
	})
	if err != nil {
		return storageErr("update quota", err)
	}

	s.log.Info(ctx, "quota set", "user", username, "remaining", remaining)
	return nil
}

// ConsumeQuota atomically takes one query off the user's quota and returns
// the remaining count. A spent quota yields common.ErrQuotaExhausted.
func (s *AccountService) ConsumeQuota(ctx context.Context, username string) (int, error) {
	username = normalizeUsername(username)
	at := s.now().UTC()
	left, err := retry.Do(ctx, s.policy, func(ctx context.Context) (int, error) {
		return s.consumeQuota(ctx, s.db, username, at)
	})
	if err != nil {
		return 0, storageErr("consume quota", err)
	}
	return left, nil
}

func (s *AccountService) consumeQuota(ctx context.Context, db dbx.DBTX, username string, at time.Time) (int, error) {
	return s.repomanager.Users(db).DecrementIfPositive(ctx, username, at)
}
