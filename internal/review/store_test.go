package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/studytrack/pkg/models"
)

type fakeStore struct {
	mu      sync.RWMutex
	items   map[string]*models.SpacedRepetitionItem
	reviews map[string][]models.ReviewRecord

	calls      int
	failCommit error
	failList   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:   make(map[string]*models.SpacedRepetitionItem),
		reviews: make(map[string][]models.ReviewRecord),
	}
}

func (f *fakeStore) InsertItem(ctx context.Context, item *models.SpacedRepetitionItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.items[item.ID]; ok {
		return errors.New("duplicate item id")
	}
	f.items[item.ID] = cloneItem(item)
	return nil
}

func (f *fakeStore) GetItem(ctx context.Context, id string) (*models.SpacedRepetitionItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	item, ok := f.items[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (f *fakeStore) CommitReview(ctx context.Context, item *models.SpacedRepetitionItem, record *models.ReviewRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failCommit != nil {
		return f.failCommit
	}
	existing, ok := f.items[item.ID]
	if !ok {
		return models.ErrItemNotFound
	}
	if existing.Version != expectedVersion {
		return models.ErrVersionConflict
	}
	f.items[item.ID] = cloneItem(item)
	f.reviews[item.ID] = append(f.reviews[item.ID], *record)
	return nil
}

func (f *fakeStore) ArchiveItem(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	item, ok := f.items[id]
	if !ok {
		return models.ErrItemNotFound
	}
	item.Archived = true
	archivedAt := at
	item.ArchivedAt = &archivedAt
	item.UpdatedAt = at
	item.Version++
	return nil
}

func (f *fakeStore) ListItems(ctx context.Context, q models.ItemQuery) ([]models.SpacedRepetitionItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failList != nil {
		return nil, f.failList
	}
	var out []models.SpacedRepetitionItem
	for _, item := range f.items {
		if item.Archived || item.UserID != q.UserID {
			continue
		}
		if q.SubjectID != "" && item.SubjectID != q.SubjectID {
			continue
		}
		if !q.NextReviewFrom.IsZero() && item.NextReviewAt.Before(q.NextReviewFrom) {
			continue
		}
		if !q.NextReviewUntil.IsZero() && item.NextReviewAt.After(q.NextReviewUntil) {
			continue
		}
		out = append(out, *cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListReviews(ctx context.Context, itemID string) ([]models.ReviewRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.ReviewRecord(nil), f.reviews[itemID]...), nil
}

func (f *fakeStore) ListUserIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := map[string]bool{}
	var ids []string
	for _, item := range f.items {
		if !item.Archived && !seen[item.UserID] {
			seen[item.UserID] = true
			ids = append(ids, item.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) callCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls
}

func (f *fakeStore) seed(items ...models.SpacedRepetitionItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range items {
		f.items[items[i].ID] = cloneItem(&items[i])
	}
}

func cloneItem(item *models.SpacedRepetitionItem) *models.SpacedRepetitionItem {
	copy := *item
	if item.ChapterReference != nil {
		ref := *item.ChapterReference
		copy.ChapterReference = &ref
	}
	if item.LastReviewedAt != nil {
		at := *item.LastReviewedAt
		copy.LastReviewedAt = &at
	}
	if item.ArchivedAt != nil {
		at := *item.ArchivedAt
		copy.ArchivedAt = &at
	}
	return &copy
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestService returns a service over an empty fake store with the clock
// fixed at 2025-03-10 09:00 UTC.
func newTestService(t *testing.T, cfg Config) (*Service, *fakeStore, *fakeClock) {
	t.Helper()
	store := newFakeStore()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc, err := NewService(store, cfg, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, clock
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(v float64) *float64 { return &v }
