package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lsei27/cater-sklad-sub000/internal/clock"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

type AdminRepository interface {
	CreateCategory(ctx context.Context, c domain.Category) error
	CreateItem(ctx context.Context, it domain.InventoryItem) error
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	CreateEvent(ctx context.Context, e domain.Event) error
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// AdminService maintains the reference data the core reads: items with
// their return delays, the category tree and event headers.
type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{repo: repo, clock: clk}
}

type CreateCategoryInput struct {
	Name     string
	ParentID *string
}

func (s *AdminService) CreateCategory(ctx context.Context, in CreateCategoryInput) (domain.Category, error) {
	if in.Name == "" {
		return domain.Category{}, domain.ErrNameRequired
	}

	category := domain.Category{
		ID:       uuid.NewString(),
		Name:     in.Name,
		ParentID: in.ParentID,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

type CreateItemInput struct {
	Name            string
	Unit            string
	CategoryID      string
	ReturnDelayDays int
}

func (s *AdminService) CreateItem(ctx context.Context, in CreateItemInput) (domain.InventoryItem, error) {
	if in.Name == "" {
		return domain.InventoryItem{}, domain.ErrNameRequired
	}
	if in.ReturnDelayDays < 0 {
		return domain.InventoryItem{}, domain.ErrInvalidReturnDelay
	}
	unit := in.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := domain.InventoryItem{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Unit:            unit,
		CategoryID:      in.CategoryID,
		ReturnDelayDays: in.ReturnDelayDays,
		Active:          true,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

func (s *AdminService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.ListItems(ctx)
}

type CreateEventInput struct {
	Name       string
	Location   string
	DeliveryAt time.Time
	PickupAt   time.Time
}

func (s *AdminService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if in.Name == "" {
		return domain.Event{}, domain.ErrNameRequired
	}
	if !in.DeliveryAt.Before(in.PickupAt) {
		return domain.Event{}, domain.ErrInvalidWindow
	}

	event := domain.Event{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Location:   in.Location,
		DeliveryAt: in.DeliveryAt,
		PickupAt:   in.PickupAt,
		Status:     domain.StatusDraft,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *AdminService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *AdminService) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return s.repo.GetEvent(ctx, eventID)
}
