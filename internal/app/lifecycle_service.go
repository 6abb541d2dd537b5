package app

import (
	"context"
	"log"
	"sort"

	"github.com/lsei27/cater-sklad-sub000/internal/clock"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
	"github.com/lsei27/cater-sklad-sub000/internal/notify"
)

type LifecycleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	UpdateEventStatus(ctx context.Context, eventID string, status domain.EventStatus) error
	ConfirmDraftReservations(ctx context.Context, eventID string) (int, error)
	ConfirmedReservations(ctx context.Context, eventID string) ([]domain.Reservation, error)
	NextExportVersion(ctx context.Context, eventID string) (int, error)
	CreateExport(ctx context.Context, exp domain.Export, lines []domain.ExportLine) error
	LatestExport(ctx context.Context, eventID string) (domain.Export, []domain.ExportLine, error)
	SetExportNeedsRevision(ctx context.Context, eventID string, needs bool) error
	InsertIssue(ctx context.Context, rec domain.IssueRecord) (bool, error)
	InsertReturn(ctx context.Context, rec domain.ReturnRecord) (bool, error)
	SumIssued(ctx context.Context, eventID string) (map[string]int, error)
	SumReturns(ctx context.Context, eventID string) (map[string]domain.ReturnTotals, error)
	AppendLedger(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error)
}

// LifecycleService drives the event state machine: confirm, export, issue
// and return/close, plus cancellation. Every operation locks the event row
// first, so lifecycle transitions and reservations serialize on the event.
type LifecycleService struct {
	repo      LifecycleRepository
	clock     clock.Clock
	publisher notify.Publisher
}

func NewLifecycleService(repo LifecycleRepository, clk clock.Clock, pub notify.Publisher) *LifecycleService {
	return &LifecycleService{repo: repo, clock: clk, publisher: pub}
}

// Confirm promotes the event's draft reservations to confirmed (clearing
// their expiry) and moves a DRAFT event to READY_FOR_WAREHOUSE.
func (s *LifecycleService) Confirm(ctx context.Context, eventID string) (domain.Event, error) {
	var event domain.Event
	var flipped int

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Status.ReadOnly() {
			return domain.ErrEventReadOnly
		}
		if event.Status == domain.StatusCancelled {
			return domain.ErrEventCancelled
		}

		flipped, err = s.repo.ConfirmDraftReservations(txCtx, eventID)
		if err != nil {
			return err
		}

		if event.Status == domain.StatusDraft {
			if err := s.repo.UpdateEventStatus(txCtx, eventID, domain.StatusReadyForWH); err != nil {
				return err
			}
			event.Status = domain.StatusReadyForWH
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, notify.Event{
		Kind:       notify.KindStatusChanged,
		EventID:    eventID,
		OccurredAt: s.clock.Now(),
		Payload:    map[string]any{"status": string(event.Status)},
	})
	if flipped > 0 {
		s.publish(ctx, notify.Event{
			Kind:       notify.KindReservationChanged,
			EventID:    eventID,
			OccurredAt: s.clock.Now(),
			Payload:    map[string]any{"confirmed": flipped},
		})
	}
	return event, nil
}

type ExportResult struct {
	Export domain.Export
	Lines  []domain.ExportLine
}

// Export snapshots the event's confirmed reservations under the next export
// version and hands the event to the warehouse. The version is allocated
// under the event row lock, so concurrent exports cannot collide.
func (s *LifecycleService) Export(ctx context.Context, eventID string, actor Actor) (ExportResult, error) {
	var result ExportResult

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

		reservations, err := s.repo.ConfirmedReservations(txCtx, eventID)
		if err != nil {
			return err
		}
		if len(reservations) == 0 {
			return domain.ErrNothingToExport
		}

		version, err := s.repo.NextExportVersion(txCtx, eventID)
		if err != nil {
			return err
		}

		exp := domain.Export{
			EventID:   eventID,
			Version:   version,
			CreatedBy: actor.ID,
			CreatedAt: s.clock.Now(),
		}
		lines := make([]domain.ExportLine, 0, len(reservations))
		for _, res := range reservations {
			lines = append(lines, domain.ExportLine{
				EventID:  eventID,
				Version:  version,
				ItemID:   res.ItemID,
				Quantity: res.Quantity,
			})
		}
		if err := s.repo.CreateExport(txCtx, exp, lines); err != nil {
			return err
		}
		if err := s.repo.SetExportNeedsRevision(txCtx, eventID, false); err != nil {
			return err
		}
		if event.Status != domain.StatusSentToWarehouse {
			if err := s.repo.UpdateEventStatus(txCtx, eventID, domain.StatusSentToWarehouse); err != nil {
				return err
			}
		}

		result = ExportResult{Export: exp, Lines: lines}
		return nil
	})
	if err != nil {
		return ExportResult{}, err
	}

	s.publish(ctx, notify.Event{
		Kind:       notify.KindExportCreated,
		EventID:    eventID,
		OccurredAt: s.clock.Now(),
		Payload:    map[string]any{"version": result.Export.Version, "lines": len(result.Lines)},
	})
	return result, nil
}

type IssueLine struct {
	ItemID   string
	Quantity int
}

type IssueResult struct {
	Issued []domain.IssueRecord
}

// Issue marks the exported stock as handed out and moves the event to
// ISSUED. Quantities default to the latest export snapshot when the caller
// supplies none. Each item gets one idempotent record keyed by the caller's
// idempotency key, so a retried call inserts nothing new.
func (s *LifecycleService) Issue(ctx context.Context, eventID string, actor Actor, idempotencyKey string, lines []IssueLine) (IssueResult, error) {
	if idempotencyKey == "" {
		return IssueResult{}, domain.ErrIdempotencyKeyRequired
	}
	for _, l := range lines {
		if l.Quantity < 0 {
			return IssueResult{}, domain.ErrInvalidQuantity
		}
	}

	now := s.clock.Now()
	var result IssueResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		switch event.Status {
		case domain.StatusClosed:
			return domain.ErrEventReadOnly
		case domain.StatusCancelled:
			return domain.ErrEventCancelled
		}

		_, exportLines, err := s.repo.LatestExport(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.ExportNeedsRevision {
			return domain.ErrExportRevisionNeeded
		}

		if len(lines) == 0 {
			lines = make([]IssueLine, 0, len(exportLines))
			for _, l := range exportLines {
				lines = append(lines, IssueLine{ItemID: l.ItemID, Quantity: l.Quantity})
			}
		}

		for _, l := range lines {
			rec := domain.IssueRecord{
				EventID:        eventID,
				ItemID:         l.ItemID,
				IdempotencyKey: idempotencyKey,
				Quantity:       l.Quantity,
				CreatedBy:      actor.ID,
				CreatedAt:      now,
			}
			inserted, err := s.repo.InsertIssue(txCtx, rec)
			if err != nil {
				return err
			}
			if inserted {
				result.Issued = append(result.Issued, rec)
			}
		}

		if event.Status != domain.StatusIssued {
			if err := s.repo.UpdateEventStatus(txCtx, eventID, domain.StatusIssued); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return IssueResult{}, err
	}

	s.publish(ctx, notify.Event{
		Kind:       notify.KindStatusChanged,
		EventID:    eventID,
		OccurredAt: now,
		Payload:    map[string]any{"status": string(domain.StatusIssued)},
	})
	return result, nil
}

type ReturnLine struct {
	ItemID   string
	Returned int
	Broken   int
}

type CloseResult struct {
	AlreadyClosed bool
	Posted        []domain.LedgerEntry
}

// ReturnAndClose records what came back from an ISSUED event and closes it.
// For every issued item, whatever is neither returned nor broken is written
// off as missing; broken and missing quantities become negative ledger
// postings — the only place the lifecycle permanently reduces stock.
// Closing an already-CLOSED event is a reported no-op.
func (s *LifecycleService) ReturnAndClose(ctx context.Context, eventID string, actor Actor, idempotencyKey string, lines []ReturnLine) (CloseResult, error) {
	if idempotencyKey == "" {
		return CloseResult{}, domain.ErrIdempotencyKeyRequired
	}
	for _, l := range lines {
		if l.Returned < 0 || l.Broken < 0 {
			return CloseResult{}, domain.ErrInvalidQuantity
		}
	}

	now := s.clock.Now()
	var result CloseResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Status == domain.StatusClosed {
			result = CloseResult{AlreadyClosed: true}
			return nil
		}
		if event.Status != domain.StatusIssued {
			return domain.ErrEventNotIssued
		}

		for _, l := range lines {
			_, err := s.repo.InsertReturn(txCtx, domain.ReturnRecord{
				EventID:        eventID,
				ItemID:         l.ItemID,
				IdempotencyKey: idempotencyKey,
				Returned:       l.Returned,
				Broken:         l.Broken,
				CreatedBy:      actor.ID,
				CreatedAt:      now,
			})
			if err != nil {
				return err
			}
		}

		issued, err := s.repo.SumIssued(txCtx, eventID)
		if err != nil {
			return err
		}
		returns, err := s.repo.SumReturns(txCtx, eventID)
		if err != nil {
			return err
		}

		itemIDs := make([]string, 0, len(issued))
		for itemID := range issued {
			itemIDs = append(itemIDs, itemID)
		}
		sort.Strings(itemIDs)

		for _, itemID := range itemIDs {
			totals := returns[itemID]
			if totals.Broken > 0 {
				entry, err := s.repo.AppendLedger(txCtx, domain.LedgerEntry{
					ItemID:    itemID,
					Delta:     -totals.Broken,
					Reason:    domain.ReasonBreakage,
					EventID:   &eventID,
					CreatedBy: actor.ID,
				})
				if err != nil {
					return err
				}
				result.Posted = append(result.Posted, entry)
			}
			if missing := issued[itemID] - totals.Returned - totals.Broken; missing > 0 {
				entry, err := s.repo.AppendLedger(txCtx, domain.LedgerEntry{
					ItemID:    itemID,
					Delta:     -missing,
					Reason:    domain.ReasonMissing,
					EventID:   &eventID,
					CreatedBy: actor.ID,
				})
				if err != nil {
					return err
				}
				result.Posted = append(result.Posted, entry)
			}
		}

		return s.repo.UpdateEventStatus(txCtx, eventID, domain.StatusClosed)
	})
	if err != nil {
		return CloseResult{}, err
	}

	if !result.AlreadyClosed {
		s.publish(ctx, notify.Event{
			Kind:       notify.KindStatusChanged,
			EventID:    eventID,
			OccurredAt: now,
			Payload:    map[string]any{"status": string(domain.StatusClosed)},
		})
		if len(result.Posted) > 0 {
			s.publish(ctx, notify.Event{
				Kind:       notify.KindLedgerChanged,
				EventID:    eventID,
				OccurredAt: now,
				Payload:    map[string]any{"entries": len(result.Posted)},
			})
		}
	}
	return result, nil
}

// Cancel moves a non-terminal event to CANCELLED. Its reservations stop
// blocking stock immediately; nothing is deleted. Cancelling twice is a
// no-op.
func (s *LifecycleService) Cancel(ctx context.Context, eventID string) (domain.Event, error) {
	var event domain.Event
	var changed bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Status == domain.StatusCancelled {
			return nil
		}
		if event.Status == domain.StatusClosed {
			return domain.ErrEventReadOnly
		}

		if err := s.repo.UpdateEventStatus(txCtx, eventID, domain.StatusCancelled); err != nil {
			return err
		}
		event.Status = domain.StatusCancelled
		changed = true
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	if changed {
		s.publish(ctx, notify.Event{
			Kind:       notify.KindStatusChanged,
			EventID:    eventID,
			OccurredAt: s.clock.Now(),
			Payload:    map[string]any{"status": string(domain.StatusCancelled)},
		})
	}
	return event, nil
}

func (s *LifecycleService) publish(ctx context.Context, evt notify.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Printf("WARN: publish %s: %v", evt.Kind, err)
	}
}
