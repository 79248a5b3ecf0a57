package review

import (
	"context"
	"time"

	"github.com/example/studytrack/pkg/models"
)

// Store persists items and their review history. Implementations return
// models.ErrItemNotFound for unknown ids and models.ErrVersionConflict when
// CommitReview loses a race.
type Store interface {
	InsertItem(ctx context.Context, item *models.SpacedRepetitionItem) error
	GetItem(ctx context.Context, id string) (*models.SpacedRepetitionItem, error)
	// CommitReview stores the updated item and appends the record in one
	// transaction, provided the stored version still equals expectedVersion.
	CommitReview(ctx context.Context, item *models.SpacedRepetitionItem, record *models.ReviewRecord, expectedVersion int64) error
	ArchiveItem(ctx context.Context, id string, at time.Time) error
	// ListItems returns active (non-archived) items matching the query.
	ListItems(ctx context.Context, query models.ItemQuery) ([]models.SpacedRepetitionItem, error)
	ListReviews(ctx context.Context, itemID string) ([]models.ReviewRecord, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}
