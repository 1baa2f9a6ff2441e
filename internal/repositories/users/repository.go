package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateRemainingQueries(ctx context.Context, username string, remaining int, at time.Time) error
	DecrementIfPositive(ctx context.Context, username string, at time.Time) (int, error)
}
