package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsei27/cater-sklad-sub000/internal/clock"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

func TestAdminService_CreateItem(t *testing.T) {
	t.Parallel()

	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, clock.NewFixed(testNow))

	t.Run("defaults and validation", func(t *testing.T) {
		item, err := svc.CreateItem(context.Background(), CreateItemInput{Name: "Champagne flute", ReturnDelayDays: 1})
		require.NoError(t, err)
		assert.Equal(t, "pcs", item.Unit, "unit defaults to pcs")
		assert.True(t, item.Active)
		assert.Equal(t, testNow, item.CreatedAt)
		_, err = uuid.Parse(item.ID)
		assert.NoError(t, err)

		_, err = svc.CreateItem(context.Background(), CreateItemInput{})
		assert.ErrorIs(t, err, domain.ErrNameRequired)

		_, err = svc.CreateItem(context.Background(), CreateItemInput{Name: "x", ReturnDelayDays: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidReturnDelay)
	})
}

func TestAdminService_CreateEvent(t *testing.T) {
	t.Parallel()

	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, clock.NewFixed(testNow))

	delivery := testNow.AddDate(0, 0, 7)
	pickup := delivery.AddDate(0, 0, 1)

	event, err := svc.CreateEvent(context.Background(), CreateEventInput{
		Name:       "Summer gala",
		Location:   "Riverside hall",
		DeliveryAt: delivery,
		PickupAt:   pickup,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, event.Status, "new events start as drafts")

	_, err = svc.CreateEvent(context.Background(), CreateEventInput{Name: "x", DeliveryAt: pickup, PickupAt: delivery})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	_, err = svc.CreateEvent(context.Background(), CreateEventInput{Name: "x", DeliveryAt: delivery, PickupAt: delivery})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow, "zero-length window is invalid")

	_, err = svc.CreateEvent(context.Background(), CreateEventInput{DeliveryAt: delivery, PickupAt: pickup})
	assert.ErrorIs(t, err, domain.ErrNameRequired)
}

func TestAdminService_CreateCategory(t *testing.T) {
	t.Parallel()

	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, clock.NewFixed(testNow))

	root, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Kitchen"})
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)

	child, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Glassware", ParentID: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	_, err = svc.CreateCategory(context.Background(), CreateCategoryInput{})
	assert.ErrorIs(t, err, domain.ErrNameRequired)
}

type fakeAdminRepo struct {
	categories []domain.Category
	items      []domain.InventoryItem
	events     []domain.Event
}

func (f *fakeAdminRepo) CreateCategory(_ context.Context, c domain.Category) error {
	f.categories = append(f.categories, c)
	return nil
}

func (f *fakeAdminRepo) CreateItem(_ context.Context, it domain.InventoryItem) error {
	f.items = append(f.items, it)
	return nil
}

func (f *fakeAdminRepo) ListItems(_ context.Context) ([]domain.InventoryItem, error) {
	return f.items, nil
}

func (f *fakeAdminRepo) CreateEvent(_ context.Context, e domain.Event) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeAdminRepo) ListEvents(_ context.Context) ([]domain.Event, error) {
	return f.events, nil
}

func (f *fakeAdminRepo) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	for _, e := range f.events {
		if e.ID == eventID {
			return e, nil
		}
	}
	return domain.Event{}, domain.ErrEventNotFound
}

var _ AdminRepository = (*fakeAdminRepo)(nil)
