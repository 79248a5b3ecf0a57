package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studytrack/pkg/models"
)

const itemColumns = `id, user_id, subject_id, topic_name, chapter_reference, difficulty_level,
	ease_factor, interval_days, repetition_count, last_reviewed_at, next_review_at,
	archived, archived_at, version, created_at, updated_at`

// ItemRepository handles database operations for items and review records
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// InsertItem stores a new item
func (r *ItemRepository) InsertItem(ctx context.Context, item *models.SpacedRepetitionItem) error {
	row := utcItem(item)
	query := `
		INSERT INTO items (` + itemColumns + `) VALUES (
			:id, :user_id, :subject_id, :topic_name, :chapter_reference, :difficulty_level,
			:ease_factor, :interval_days, :repetition_count, :last_reviewed_at, :next_review_at,
			:archived, :archived_at, :version, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, &row); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*models.SpacedRepetitionItem, error) {
	var item models.SpacedRepetitionItem
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE id = ?`)
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// CommitReview updates the item summary and appends the review record in a
// single transaction. The update only applies while the stored version still
// equals expectedVersion.
func (r *ItemRepository) CommitReview(ctx context.Context, item *models.SpacedRepetitionItem, record *models.ReviewRecord, expectedVersion int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	row := utcItem(item)
	update := tx.Rebind(`
		UPDATE items SET
			ease_factor = ?,
			interval_days = ?,
			repetition_count = ?,
			last_reviewed_at = ?,
			next_review_at = ?,
			version = ?,
			updated_at = ?
		WHERE id = ? AND version = ? AND archived = ?
	`)
	result, err := tx.ExecContext(ctx, update,
		row.EaseFactor,
		row.IntervalDays,
		row.RepetitionCount,
		row.LastReviewedAt,
		row.NextReviewAt,
		row.Version,
		row.UpdatedAt,
		row.ID,
		expectedVersion,
		false,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return r.missOrConflict(ctx, row.ID)
	}

	rec := *record
	rec.ReviewedAt = rec.ReviewedAt.UTC()
	insert := `
		INSERT INTO review_records (id, item_id, confidence, time_spent_seconds, result, reviewed_at)
		VALUES (:id, :item_id, :confidence, :time_spent_seconds, :result, :reviewed_at)
	`
	if _, err := tx.NamedExecContext(ctx, insert, &rec); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create review record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// missOrConflict explains why a guarded update touched no rows.
func (r *ItemRepository) missOrConflict(ctx context.Context, id string) error {
	var exists int
	query := r.db.Rebind(`SELECT COUNT(*) FROM items WHERE id = ?`)
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return fmt.Errorf("failed to check item: %w", err)
	}
	if exists == 0 {
		return models.ErrItemNotFound
	}
	return models.ErrVersionConflict
}

// ArchiveItem soft-deactivates an item. Archiving keeps the first archive time.
func (r *ItemRepository) ArchiveItem(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	query := r.db.Rebind(`
		UPDATE items SET
			archived = ?,
			archived_at = COALESCE(archived_at, ?),
			version = version + 1,
			updated_at = ?
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, true, at, at, id)
	if err != nil {
		return fmt.Errorf("failed to archive item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrItemNotFound
	}
	return nil
}

// ListItems returns the active items of a user matching the query
func (r *ItemRepository) ListItems(ctx context.Context, q models.ItemQuery) ([]models.SpacedRepetitionItem, error) {
	conds := []string{"user_id = ?", "archived = ?"}
	args := []interface{}{q.UserID, false}
	if q.SubjectID != "" {
		conds = append(conds, "subject_id = ?")
		args = append(args, q.SubjectID)
	}
	if !q.NextReviewFrom.IsZero() {
		conds = append(conds, "next_review_at >= ?")
		args = append(args, q.NextReviewFrom.UTC())
	}
	if !q.NextReviewUntil.IsZero() {
		conds = append(conds, "next_review_at <= ?")
		args = append(args, q.NextReviewUntil.UTC())
	}

	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY next_review_at ASC, id ASC`)

	var items []models.SpacedRepetitionItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListReviews returns the review history of an item, oldest first
func (r *ItemRepository) ListReviews(ctx context.Context, itemID string) ([]models.ReviewRecord, error) {
	query := r.db.Rebind(`
		SELECT id, item_id, confidence, time_spent_seconds, result, reviewed_at
		FROM review_records
		WHERE item_id = ?
		ORDER BY reviewed_at ASC, id ASC
	`)
	var records []models.ReviewRecord
	if err := r.db.SelectContext(ctx, &records, query, itemID); err != nil {
		return nil, fmt.Errorf("failed to list review records: %w", err)
	}
	return records, nil
}

// ListUserIDs returns every user owning an active item
func (r *ItemRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT user_id FROM items WHERE archived = ? ORDER BY user_id`)
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, false); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

// utcItem copies item with every timestamp in UTC so that stored values
// compare correctly as text in SQLite.
func utcItem(item *models.SpacedRepetitionItem) models.SpacedRepetitionItem {
	row := *item
	row.NextReviewAt = row.NextReviewAt.UTC()
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	if row.LastReviewedAt != nil {
		t := row.LastReviewedAt.UTC()
		row.LastReviewedAt = &t
	}
	if row.ArchivedAt != nil {
		t := row.ArchivedAt.UTC()
		row.ArchivedAt = &t
	}
	return row
}
