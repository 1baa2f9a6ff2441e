package searchlogs

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/models"
)

type Repository interface {
	Record(ctx context.Context, username, query string, limit int, at time.Time) (bool, error)
	ListByUser(ctx context.Context, username string, n int) ([]models.SearchLogEntry, error)
}
