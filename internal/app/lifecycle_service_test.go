package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsei27/cater-sklad-sub000/internal/clock"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
	"github.com/lsei27/cater-sklad-sub000/internal/notify"
)

func TestLifecycleService_Confirm(t *testing.T) {
	t.Parallel()

	t.Run("draft event moves to ready and drafts flip", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusDraft)
		expires := testNow.Add(10 * time.Minute)
		repo.reservations = []domain.Reservation{
			{EventID: "event-1", ItemID: "plate", Quantity: 3, State: domain.ReservationDraft, ExpiresAt: &expires},
		}
		rec := &notify.Recorder{}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), rec)

		event, err := svc.Confirm(context.Background(), "event-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReadyForWH, event.Status)

		require.Len(t, repo.reservations, 1)
		assert.Equal(t, domain.ReservationConfirmed, repo.reservations[0].State)
		assert.Nil(t, repo.reservations[0].ExpiresAt)

		kinds := recordedKinds(rec)
		assert.Equal(t, []string{notify.KindStatusChanged, notify.KindReservationChanged}, kinds)
	})

	t.Run("confirm is idempotent on later statuses", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusSentToWarehouse)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		event, err := svc.Confirm(context.Background(), "event-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSentToWarehouse, event.Status, "confirm must not regress a later status")
	})

	t.Run("read-only and cancelled are rejected", func(t *testing.T) {
		t.Parallel()
		for status, wantErr := range map[domain.EventStatus]error{
			domain.StatusIssued:    domain.ErrEventReadOnly,
			domain.StatusCancelled: domain.ErrEventCancelled,
		} {
			repo := newFakeLifecycleRepo(status)
			svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})
			_, err := svc.Confirm(context.Background(), "event-1")
			assert.ErrorIs(t, err, wantErr, "status %s", status)
		}
	})
}

func TestLifecycleService_Export(t *testing.T) {
	t.Parallel()

	t.Run("snapshots confirmed reservations under the next version", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusReadyForWH)
		repo.reservations = []domain.Reservation{
			{EventID: "event-1", ItemID: "plate", Quantity: 3, State: domain.ReservationConfirmed},
			{EventID: "event-1", ItemID: "fork", Quantity: 6, State: domain.ReservationConfirmed},
		}
		repo.needsRevision = true
		rec := &notify.Recorder{}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), rec)

		result, err := svc.Export(context.Background(), "event-1", Actor{ID: "planner-1"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Export.Version)
		assert.Equal(t, "planner-1", result.Export.CreatedBy)
		assert.Len(t, result.Lines, 2)
		assert.Equal(t, domain.StatusSentToWarehouse, repo.event.Status)
		assert.False(t, repo.needsRevision, "a fresh export clears the stale flag")

		again, err := svc.Export(context.Background(), "event-1", Actor{ID: "planner-1"})
		require.NoError(t, err)
		assert.Equal(t, 2, again.Export.Version)

		assert.Contains(t, recordedKinds(rec), notify.KindExportCreated)
	})

	t.Run("expired drafts are not exported", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusReadyForWH)
		expires := testNow.Add(-time.Minute)
		repo.reservations = []domain.Reservation{
			{EventID: "event-1", ItemID: "plate", Quantity: 3, State: domain.ReservationDraft, ExpiresAt: &expires},
		}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		_, err := svc.Export(context.Background(), "event-1", Actor{})
		assert.ErrorIs(t, err, domain.ErrNothingToExport)
	})

	t.Run("read-only event cannot be exported", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusClosed)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		_, err := svc.Export(context.Background(), "event-1", Actor{})
		assert.ErrorIs(t, err, domain.ErrEventReadOnly)
	})
}

func TestLifecycleService_Issue(t *testing.T) {
	t.Parallel()

	exported := func(status domain.EventStatus) *fakeLifecycleRepo {
		repo := newFakeLifecycleRepo(status)
		repo.exports = []domain.Export{{EventID: "event-1", Version: 1, CreatedAt: testNow}}
		repo.exportLines = []domain.ExportLine{
			{EventID: "event-1", Version: 1, ItemID: "plate", Quantity: 3},
			{EventID: "event-1", Version: 1, ItemID: "fork", Quantity: 6},
		}
		return repo
	}

	t.Run("defaults quantities from the latest export", func(t *testing.T) {
		t.Parallel()
		repo := exported(domain.StatusSentToWarehouse)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		result, err := svc.Issue(context.Background(), "event-1", Actor{ID: "wh-1"}, "key-1", nil)
		require.NoError(t, err)
		require.Len(t, result.Issued, 2)
		assert.Equal(t, domain.StatusIssued, repo.event.Status)
		assert.Equal(t, 3, repo.issued["plate|key-1"].Quantity)
		assert.Equal(t, 6, repo.issued["fork|key-1"].Quantity)
	})

	t.Run("retry with the same key inserts nothing", func(t *testing.T) {
		t.Parallel()
		repo := exported(domain.StatusSentToWarehouse)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		first, err := svc.Issue(context.Background(), "event-1", Actor{}, "key-1", nil)
		require.NoError(t, err)
		assert.Len(t, first.Issued, 2)

		retry, err := svc.Issue(context.Background(), "event-1", Actor{}, "key-1", nil)
		require.NoError(t, err)
		assert.Empty(t, retry.Issued)
		assert.Len(t, repo.issued, 2)
	})

	t.Run("explicit quantities override the snapshot", func(t *testing.T) {
		t.Parallel()
		repo := exported(domain.StatusSentToWarehouse)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		result, err := svc.Issue(context.Background(), "event-1", Actor{}, "key-1", []IssueLine{{ItemID: "plate", Quantity: 2}})
		require.NoError(t, err)
		require.Len(t, result.Issued, 1)
		assert.Equal(t, 2, repo.issued["plate|key-1"].Quantity)
	})

	t.Run("stale export blocks issuing", func(t *testing.T) {
		t.Parallel()
		repo := exported(domain.StatusSentToWarehouse)
		repo.needsRevision = true
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		_, err := svc.Issue(context.Background(), "event-1", Actor{}, "key-1", nil)
		assert.ErrorIs(t, err, domain.ErrExportRevisionNeeded)
	})

	t.Run("no export yet", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusReadyForWH)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		_, err := svc.Issue(context.Background(), "event-1", Actor{}, "key-1", nil)
		assert.ErrorIs(t, err, domain.ErrNoExport)
	})

	t.Run("validation and terminal statuses", func(t *testing.T) {
		t.Parallel()
		repo := exported(domain.StatusSentToWarehouse)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		_, err := svc.Issue(context.Background(), "event-1", Actor{}, "", nil)
		assert.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)

		_, err = svc.Issue(context.Background(), "event-1", Actor{}, "key-1", []IssueLine{{ItemID: "plate", Quantity: -1}})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

		closed := exported(domain.StatusClosed)
		svcClosed := NewLifecycleService(closed, clock.NewFixed(testNow), notify.Noop{})
		_, err = svcClosed.Issue(context.Background(), "event-1", Actor{}, "key-1", nil)
		assert.ErrorIs(t, err, domain.ErrEventReadOnly)
	})
}

func TestLifecycleService_ReturnAndClose(t *testing.T) {
	t.Parallel()

	issued := func() *fakeLifecycleRepo {
		repo := newFakeLifecycleRepo(domain.StatusIssued)
		repo.issued = map[string]domain.IssueRecord{
			"plate|issue-1": {EventID: "event-1", ItemID: "plate", IdempotencyKey: "issue-1", Quantity: 10},
			"fork|issue-1":  {EventID: "event-1", ItemID: "fork", IdempotencyKey: "issue-1", Quantity: 4},
		}
		return repo
	}

	t.Run("breakage and missing become negative ledger postings", func(t *testing.T) {
		t.Parallel()
		repo := issued()
		rec := &notify.Recorder{}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), rec)

		result, err := svc.ReturnAndClose(context.Background(), "event-1", Actor{ID: "wh-1"}, "close-1", []ReturnLine{
			{ItemID: "plate", Returned: 7, Broken: 2}, // 1 of 10 missing
			{ItemID: "fork", Returned: 4},             // all back
		})
		require.NoError(t, err)
		assert.False(t, result.AlreadyClosed)
		assert.Equal(t, domain.StatusClosed, repo.event.Status)

		require.Len(t, result.Posted, 2)
		assert.Equal(t, domain.ReasonBreakage, result.Posted[0].Reason)
		assert.Equal(t, -2, result.Posted[0].Delta)
		assert.Equal(t, domain.ReasonMissing, result.Posted[1].Reason)
		assert.Equal(t, -1, result.Posted[1].Delta)
		for _, entry := range result.Posted {
			require.NotNil(t, entry.EventID)
			assert.Equal(t, "event-1", *entry.EventID)
		}

		kinds := recordedKinds(rec)
		assert.Equal(t, []string{notify.KindStatusChanged, notify.KindLedgerChanged}, kinds)
	})

	t.Run("full return posts nothing", func(t *testing.T) {
		t.Parallel()
		repo := issued()
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		result, err := svc.ReturnAndClose(context.Background(), "event-1", Actor{}, "close-1", []ReturnLine{
			{ItemID: "plate", Returned: 10},
			{ItemID: "fork", Returned: 4},
		})
		require.NoError(t, err)
		assert.Empty(t, result.Posted)
		assert.Empty(t, repo.ledger)
	})

	t.Run("closing a closed event is a reported no-op", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusClosed)
		rec := &notify.Recorder{}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), rec)

		result, err := svc.ReturnAndClose(context.Background(), "event-1", Actor{}, "close-2", nil)
		require.NoError(t, err)
		assert.True(t, result.AlreadyClosed)
		assert.Empty(t, rec.Events())
	})

	t.Run("only issued events can be closed", func(t *testing.T) {
		t.Parallel()
		for _, status := range []domain.EventStatus{domain.StatusDraft, domain.StatusReadyForWH, domain.StatusSentToWarehouse, domain.StatusCancelled} {
			repo := newFakeLifecycleRepo(status)
			svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})
			_, err := svc.ReturnAndClose(context.Background(), "event-1", Actor{}, "close-1", nil)
			assert.ErrorIs(t, err, domain.ErrEventNotIssued, "status %s", status)
		}
	})

	t.Run("items not mentioned count entirely as missing", func(t *testing.T) {
		t.Parallel()
		repo := issued()
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		result, err := svc.ReturnAndClose(context.Background(), "event-1", Actor{}, "close-1", []ReturnLine{
			{ItemID: "plate", Returned: 10},
		})
		require.NoError(t, err)
		require.Len(t, result.Posted, 1)
		assert.Equal(t, domain.ReasonMissing, result.Posted[0].Reason)
		assert.Equal(t, "fork", result.Posted[0].ItemID)
		assert.Equal(t, -4, result.Posted[0].Delta)
	})
}

func TestLifecycleService_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("cancels a non-terminal event", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusReadyForWH)
		rec := &notify.Recorder{}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), rec)

		event, err := svc.Cancel(context.Background(), "event-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, event.Status)
		assert.Len(t, rec.Events(), 1)
	})

	t.Run("cancelling twice is a silent no-op", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusCancelled)
		rec := &notify.Recorder{}
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), rec)

		event, err := svc.Cancel(context.Background(), "event-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, event.Status)
		assert.Empty(t, rec.Events())
	})

	t.Run("closed events stay closed", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLifecycleRepo(domain.StatusClosed)
		svc := NewLifecycleService(repo, clock.NewFixed(testNow), notify.Noop{})

		_, err := svc.Cancel(context.Background(), "event-1")
		assert.ErrorIs(t, err, domain.ErrEventReadOnly)
	})
}

func recordedKinds(rec *notify.Recorder) []string {
	events := rec.Events()
	kinds := make([]string, 0, len(events))
	for _, evt := range events {
		kinds = append(kinds, evt.Kind)
	}
	return kinds
}

type fakeLifecycleRepo struct {
	event         domain.Event
	reservations  []domain.Reservation
	exports       []domain.Export
	exportLines   []domain.ExportLine
	needsRevision bool
	issued        map[string]domain.IssueRecord
	returns       map[string]domain.ReturnRecord
	ledger        []domain.LedgerEntry
	nextLedgerID  int64
}

func newFakeLifecycleRepo(status domain.EventStatus) *fakeLifecycleRepo {
	return &fakeLifecycleRepo{
		event: domain.Event{
			ID:         "event-1",
			Status:     status,
			DeliveryAt: testNow.AddDate(0, 0, 5),
			PickupAt:   testNow.AddDate(0, 0, 6),
		},
		issued:  map[string]domain.IssueRecord{},
		returns: map[string]domain.ReturnRecord{},
	}
}

func (f *fakeLifecycleRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeLifecycleRepo) GetEventForUpdate(_ context.Context, eventID string) (domain.Event, error) {
	if eventID != f.event.ID {
		return domain.Event{}, domain.ErrEventNotFound
	}
	evt := f.event
	evt.ExportNeedsRevision = f.needsRevision
	return evt, nil
}

func (f *fakeLifecycleRepo) UpdateEventStatus(_ context.Context, _ string, status domain.EventStatus) error {
	f.event.Status = status
	return nil
}

func (f *fakeLifecycleRepo) ConfirmDraftReservations(_ context.Context, eventID string) (int, error) {
	flipped := 0
	for i, res := range f.reservations {
		if res.EventID == eventID && res.State == domain.ReservationDraft {
			f.reservations[i].State = domain.ReservationConfirmed
			f.reservations[i].ExpiresAt = nil
			flipped++
		}
	}
	return flipped, nil
}

func (f *fakeLifecycleRepo) ConfirmedReservations(_ context.Context, eventID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.EventID == eventID && res.State == domain.ReservationConfirmed && res.Quantity > 0 {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeLifecycleRepo) NextExportVersion(_ context.Context, _ string) (int, error) {
	return len(f.exports) + 1, nil
}

func (f *fakeLifecycleRepo) CreateExport(_ context.Context, exp domain.Export, lines []domain.ExportLine) error {
	f.exports = append(f.exports, exp)
	f.exportLines = append(f.exportLines, lines...)
	return nil
}

func (f *fakeLifecycleRepo) LatestExport(_ context.Context, eventID string) (domain.Export, []domain.ExportLine, error) {
	if len(f.exports) == 0 {
		return domain.Export{}, nil, domain.ErrNoExport
	}
	latest := f.exports[len(f.exports)-1]
	var lines []domain.ExportLine
	for _, l := range f.exportLines {
		if l.EventID == eventID && l.Version == latest.Version {
			lines = append(lines, l)
		}
	}
	return latest, lines, nil
}

func (f *fakeLifecycleRepo) SetExportNeedsRevision(_ context.Context, _ string, needs bool) error {
	f.needsRevision = needs
	return nil
}

func (f *fakeLifecycleRepo) InsertIssue(_ context.Context, rec domain.IssueRecord) (bool, error) {
	key := rec.ItemID + "|" + rec.IdempotencyKey
	if _, exists := f.issued[key]; exists {
		return false, nil
	}
	f.issued[key] = rec
	return true, nil
}

func (f *fakeLifecycleRepo) InsertReturn(_ context.Context, rec domain.ReturnRecord) (bool, error) {
	key := rec.ItemID + "|" + rec.IdempotencyKey
	if _, exists := f.returns[key]; exists {
		return false, nil
	}
	f.returns[key] = rec
	return true, nil
}

func (f *fakeLifecycleRepo) SumIssued(_ context.Context, eventID string) (map[string]int, error) {
	out := map[string]int{}
	for _, rec := range f.issued {
		if rec.EventID == eventID {
			out[rec.ItemID] += rec.Quantity
		}
	}
	return out, nil
}

func (f *fakeLifecycleRepo) SumReturns(_ context.Context, eventID string) (map[string]domain.ReturnTotals, error) {
	out := map[string]domain.ReturnTotals{}
	for _, rec := range f.returns {
		if rec.EventID == eventID {
			totals := out[rec.ItemID]
			totals.Returned += rec.Returned
			totals.Broken += rec.Broken
			out[rec.ItemID] = totals
		}
	}
	return out, nil
}

func (f *fakeLifecycleRepo) AppendLedger(_ context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	f.nextLedgerID++
	entry.ID = f.nextLedgerID
	entry.CreatedAt = testNow
	f.ledger = append(f.ledger, entry)
	return entry, nil
}

var _ LifecycleRepository = (*fakeLifecycleRepo)(nil)
