package app

import (
	"context"
	"log"

	"github.com/lsei27/cater-sklad-sub000/internal/clock"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
	"github.com/lsei27/cater-sklad-sub000/internal/notify"
)

type StockRepository interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetItem(ctx context.Context, itemID string) (domain.InventoryItem, error)
	PhysicalTotal(ctx context.Context, itemID string) (int, error)
	ActiveClaims(ctx context.Context, itemID string) ([]domain.Claim, error)
	AppendLedger(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error)
	ListLedger(ctx context.Context, itemID string) ([]domain.LedgerEntry, error)
}

// StockService answers availability questions and posts manual ledger
// adjustments.
type StockService struct {
	repo      StockRepository
	clock     clock.Clock
	publisher notify.Publisher
}

func NewStockService(repo StockRepository, clk clock.Clock, pub notify.Publisher) *StockService {
	return &StockService{repo: repo, clock: clk, publisher: pub}
}

// Availability computes {physical, blocked, available} for one item from
// the target event's point of view.
func (s *StockService) Availability(ctx context.Context, eventID, itemID string) (domain.Availability, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Availability{}, err
	}
	return s.availabilityFor(ctx, event, itemID)
}

// AvailabilityBatch computes availability for several items against the same
// event. Results are identical to calling Availability per item.
func (s *StockService) AvailabilityBatch(ctx context.Context, eventID string, itemIDs []string) (map[string]domain.Availability, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.Availability, len(itemIDs))
	for _, itemID := range itemIDs {
		av, err := s.availabilityFor(ctx, event, itemID)
		if err != nil {
			return nil, err
		}
		out[itemID] = av
	}
	return out, nil
}

func (s *StockService) availabilityFor(ctx context.Context, event domain.Event, itemID string) (domain.Availability, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return domain.Availability{}, err
	}
	physical, err := s.repo.PhysicalTotal(ctx, itemID)
	if err != nil {
		return domain.Availability{}, err
	}
	claims, err := s.repo.ActiveClaims(ctx, itemID)
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.ComputeAvailability(event.ID, event.Window(), item.ReturnDelayDays, physical, claims, s.clock.Now()), nil
}

type AdjustmentInput struct {
	ItemID string
	Delta  int
	Reason domain.LedgerReason
	Note   string
	Actor  Actor
}

// PostAdjustment appends a manual ledger entry (purchase, write-off, audit
// correction or free-form manual). Breakage and missing postings belong to
// the event close flow and are rejected here.
func (s *StockService) PostAdjustment(ctx context.Context, in AdjustmentInput) (domain.LedgerEntry, error) {
	if in.Delta == 0 {
		return domain.LedgerEntry{}, domain.ErrInvalidQuantity
	}
	if !in.Reason.Manual() {
		return domain.LedgerEntry{}, domain.ErrInvalidReason
	}

	if _, err := s.repo.GetItem(ctx, in.ItemID); err != nil {
		return domain.LedgerEntry{}, err
	}

	entry, err := s.repo.AppendLedger(ctx, domain.LedgerEntry{
		ItemID:    in.ItemID,
		Delta:     in.Delta,
		Reason:    in.Reason,
		CreatedBy: in.Actor.ID,
		Note:      in.Note,
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	s.publish(ctx, notify.Event{
		Kind:       notify.KindLedgerChanged,
		OccurredAt: s.clock.Now(),
		Payload:    map[string]any{"item_id": in.ItemID, "delta": in.Delta, "reason": string(in.Reason)},
	})
	return entry, nil
}

func (s *StockService) ListLedger(ctx context.Context, itemID string) ([]domain.LedgerEntry, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListLedger(ctx, itemID)
}

func (s *StockService) publish(ctx context.Context, evt notify.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("WARN: publish %s: %v", evt.Kind, err)
	}
}
