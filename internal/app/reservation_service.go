package app

import (
	"context"
	"log"
	"time"

	"github.com/lsei27/cater-sklad-sub000/internal/clock"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
	"github.com/lsei27/cater-sklad-sub000/internal/notify"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	GetItemsWithRoot(ctx context.Context, itemIDs []string) (map[string]domain.ItemWithRoot, error)
	LockItems(ctx context.Context, itemIDs []string) error
	PhysicalTotal(ctx context.Context, itemID string) (int, error)
	ActiveClaims(ctx context.Context, itemID string) ([]domain.Claim, error)
	UpsertReservation(ctx context.Context, res domain.Reservation) error
	SetExportNeedsRevision(ctx context.Context, eventID string, needs bool) error
}

// ReservationService runs the reservation transaction protocol: event row
// lock, role/category policy, per-item serialization, availability re-check
// and the all-or-nothing upsert of the requested lines.
type ReservationService struct {
	repo      ReservationRepository
	policy    CategoryPolicy
	clock     clock.Clock
	publisher notify.Publisher
	draftTTL  time.Duration
}

const defaultDraftTTL = 30 * time.Minute

type ReservationServiceOption func(*ReservationService)

// WithDraftTTL overrides how long a draft reservation holds stock.
func WithDraftTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.draftTTL = d
		}
	}
}

func NewReservationService(repo ReservationRepository, policy CategoryPolicy, clk clock.Clock, pub notify.Publisher, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:      repo,
		policy:    policy,
		clock:     clk,
		publisher: pub,
		draftTTL:  defaultDraftTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReserveLine struct {
	ItemID   string
	Quantity int
}

type ReserveResult struct {
	State     domain.ReservationState
	ExpiresAt *time.Time
}

// Reserve books the requested quantities for the event, or fails as a whole.
// While the event is DRAFT the resulting reservations are soft holds that
// expire after the draft TTL; once the event is confirmed they are written
// as confirmed with no expiry.
func (s *ReservationService) Reserve(ctx context.Context, eventID string, actor Actor, lines []ReserveLine) (ReserveResult, error) {
	if len(lines) == 0 {
		return ReserveResult{}, domain.ErrNoItems
	}
	itemIDs := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return ReserveResult{}, domain.ErrInvalidQuantity
		}
		if _, dup := seen[l.ItemID]; dup {
			return ReserveResult{}, domain.ErrDuplicateItem
		}
		seen[l.ItemID] = struct{}{}
		itemIDs = append(itemIDs, l.ItemID)
	}

	now := s.clock.Now()
	var result ReserveResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Status.ReadOnly() {
			return domain.ErrEventReadOnly
		}
		if event.Status == domain.StatusCancelled {
			return domain.ErrEventCancelled
		}

		items, err := s.repo.GetItemsWithRoot(txCtx, itemIDs)
		if err != nil {
			return err
		}
		for _, id := range itemIDs {
			if _, ok := items[id]; !ok {
				return domain.ErrItemNotFound
			}
		}

		// The whole batch stands or falls with the policy check; a single
		// out-of-category item rejects everything.
		if allowed, restricted := s.policy.AllowedRootCategory(actor.Role); restricted {
			for _, id := range itemIDs {
				if items[id].RootCategoryID != allowed {
					return &domain.RoleCategoryError{ItemID: id, Role: actor.Role}
				}
			}
		}

		// Serialize against other reservations on the same items before
		// reading availability; the locks hold until commit or abort.
		if err := s.repo.LockItems(txCtx, itemIDs); err != nil {
			return err
		}

		for _, l := range lines {
			physical, err := s.repo.PhysicalTotal(txCtx, l.ItemID)
			if err != nil {
				return err
			}
			claims, err := s.repo.ActiveClaims(txCtx, l.ItemID)
			if err != nil {
				return err
			}
			av := domain.ComputeAvailability(eventID, event.Window(), items[l.ItemID].Item.ReturnDelayDays, physical, claims, now)
			if l.Quantity > av.Available {
				return &domain.InsufficientStockError{
					ItemID:    l.ItemID,
					Requested: l.Quantity,
					Available: av.Available,
				}
			}
		}

		state := domain.ReservationConfirmed
		var expiresAt *time.Time
		if event.Status == domain.StatusDraft {
			state = domain.ReservationDraft
			t := now.Add(s.draftTTL)
			expiresAt = &t
		}

		for _, l := range lines {
			err := s.repo.UpsertReservation(txCtx, domain.Reservation{
				EventID:   eventID,
				ItemID:    l.ItemID,
				Quantity:  l.Quantity,
				State:     state,
				ExpiresAt: expiresAt,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
		}

		// The warehouse already holds a printed snapshot; flag it stale.
		if event.Status == domain.StatusSentToWarehouse {
			if err := s.repo.SetExportNeedsRevision(txCtx, eventID, true); err != nil {
				return err
			}
		}

		result = ReserveResult{State: state, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return ReserveResult{}, err
	}

	s.publish(ctx, notify.Event{
		Kind:       notify.KindReservationChanged,
		EventID:    eventID,
		OccurredAt: now,
		Payload:    map[string]any{"items": len(lines), "state": string(result.State)},
	})
	return result, nil
}

func (s *ReservationService) publish(ctx context.Context, evt notify.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("WARN: publish %s: %v", evt.Kind, err)
	}
}
