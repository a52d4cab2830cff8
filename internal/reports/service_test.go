package reports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/clarion-hms/clarion/internal/inventory"
)

type stubRepo struct {
	statCalls atomic.Int32

	appointments []AppointmentRecord
	patients     []PatientRecord
	transfers    []TransferRecord
	transactions []TransactionRecord
	inventory    []InventoryRecord
}

func (r *stubRepo) ListAppointments(ctx context.Context, f Filter, limit, offset int) ([]AppointmentRecord, int, error) {
	return r.appointments, len(r.appointments), nil
}

func (r *stubRepo) AppointmentStats(ctx context.Context, f Filter) (AppointmentStats, error) {
	r.statCalls.Add(1)
	return AppointmentStats{Total: 12, Pending: 3, Confirmed: 4, Completed: 4, Cancelled: 1}, nil
}

func (r *stubRepo) ListPatients(ctx context.Context, f Filter, limit, offset int) ([]PatientRecord, int, error) {
	return r.patients, len(r.patients), nil
}

func (r *stubRepo) PatientStats(ctx context.Context, f Filter) (PatientStats, error) {
	r.statCalls.Add(1)
	return PatientStats{Total: 40, Admitted: 8, Discharged: 22, Outpatient: 10, NewInRange: 5}, nil
}

func (r *stubRepo) ListTransfers(ctx context.Context, f Filter, limit, offset int) ([]TransferRecord, int, error) {
	return r.transfers, len(r.transfers), nil
}

func (r *stubRepo) TransferStats(ctx context.Context, f Filter) (TransferStats, error) {
	r.statCalls.Add(1)
	return TransferStats{Total: 6, Pending: 1, Completed: 5}, nil
}

func (r *stubRepo) ListTransactions(ctx context.Context, f Filter, limit, offset int) ([]TransactionRecord, int, error) {
	return r.transactions, len(r.transactions), nil
}

func (r *stubRepo) TransactionStats(ctx context.Context, f Filter) (TransactionStats, error) {
	r.statCalls.Add(1)
	return TransactionStats{Total: 30, Pending: 5, Paid: 24, Voided: 1, Revenue: 125000.50}, nil
}

func (r *stubRepo) ListInventory(ctx context.Context, f Filter, limit, offset int) ([]InventoryRecord, int, error) {
	return r.inventory, len(r.inventory), nil
}

type stubInvStats struct{}

func (stubInvStats) Stats(ctx context.Context) (inventory.Stats, error) {
	return inventory.Stats{TotalItems: 15, InStock: 10, LowStock: 3, OutOfStock: 2, TotalConsumed: 120, TotalRejected: 4}, nil
}

func newCacheClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestComprehensiveAggregatesAllDomains(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubInvStats{}, nil, time.Minute, nil)

	stats, err := svc.Comprehensive(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 12, stats.Appointments.Total)
	require.Equal(t, 40, stats.Patients.Total)
	require.Equal(t, 6, stats.Transfers.Total)
	require.Equal(t, 15, stats.Inventory.TotalItems)
	require.InDelta(t, 125000.50, stats.Transactions.Revenue, 0.001)
	require.False(t, stats.GeneratedAt.IsZero())
}

func TestComprehensiveCachesResult(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubInvStats{}, newCacheClient(t), time.Minute, nil)
	ctx := context.Background()

	first, err := svc.Comprehensive(ctx, Filter{})
	require.NoError(t, err)
	callsAfterFirst := repo.statCalls.Load()

	second, err := svc.Comprehensive(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, callsAfterFirst, repo.statCalls.Load())
	require.Equal(t, first.Transactions, second.Transactions)
}

func TestInvalidateComprehensiveForcesRecompute(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubInvStats{}, newCacheClient(t), time.Minute, nil)
	ctx := context.Background()

	_, err := svc.Comprehensive(ctx, Filter{})
	require.NoError(t, err)
	callsAfterFirst := repo.statCalls.Load()

	require.NoError(t, svc.InvalidateComprehensive(ctx))
	_, err = svc.Comprehensive(ctx, Filter{})
	require.NoError(t, err)
	require.Greater(t, repo.statCalls.Load(), callsAfterFirst)
}

func TestComprehensiveCacheKeyVariesByWindow(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubInvStats{}, newCacheClient(t), time.Minute, nil)
	ctx := context.Background()

	_, err := svc.Comprehensive(ctx, Filter{})
	require.NoError(t, err)
	callsAfterFirst := repo.statCalls.Load()

	_, err = svc.Comprehensive(ctx, Filter{Period: "week"})
	require.NoError(t, err)
	require.Greater(t, repo.statCalls.Load(), callsAfterFirst)
}

func TestBuildDocumentTransactions(t *testing.T) {
	repo := &stubRepo{
		transactions: []TransactionRecord{
			{ID: 1, Reference: "TRX-1", PatientName: "Jane Doe", Amount: 1500.75, Method: "card", Status: TransactionPaid, PostedAt: time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)},
		},
	}
	svc := NewService(repo, stubInvStats{}, nil, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }

	doc, err := svc.BuildDocument(context.Background(), ReportTransactions, Filter{})
	require.NoError(t, err)
	require.Equal(t, "Transactions Report", doc.Title)
	require.Len(t, doc.Rows, 1)
	require.Len(t, doc.Rows[0], len(doc.Columns))
	require.Contains(t, doc.Rows[0], "1,500.75")
	require.Equal(t, "2026-07-29", doc.RangeFrom)
	require.Equal(t, "2026-08-28", doc.RangeTo)

	var revenue string
	for _, item := range doc.Summary {
		if item.Label == "Revenue" {
			revenue = item.Value
		}
	}
	require.Equal(t, "125,000.50", revenue)
}

func TestBuildDocumentUnknownType(t *testing.T) {
	svc := NewService(&stubRepo{}, stubInvStats{}, nil, time.Minute, nil)
	_, err := svc.BuildDocument(context.Background(), ReportType("bogus"), Filter{})
	require.ErrorIs(t, err, ErrUnknownReport)
}

func TestBuildDocumentComprehensive(t *testing.T) {
	svc := NewService(&stubRepo{}, stubInvStats{}, nil, time.Minute, nil)
	doc, err := svc.BuildDocument(context.Background(), ReportComprehensive, Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{"Section", "Metric", "Value"}, doc.Columns)
	require.NotEmpty(t, doc.Rows)
}
