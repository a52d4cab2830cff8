package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/clarion-hms/clarion/internal/inventory"
	"github.com/clarion-hms/clarion/internal/reports/export"
)

// Rows fetched for a file export. Exports are not paginated; the cap keeps a
// runaway filter from streaming the whole table.
const exportRowLimit = 5000

// RepositoryPort abstracts report queries for the service.
type RepositoryPort interface {
	ListAppointments(ctx context.Context, f Filter, limit, offset int) ([]AppointmentRecord, int, error)
	AppointmentStats(ctx context.Context, f Filter) (AppointmentStats, error)
	ListPatients(ctx context.Context, f Filter, limit, offset int) ([]PatientRecord, int, error)
	PatientStats(ctx context.Context, f Filter) (PatientStats, error)
	ListTransfers(ctx context.Context, f Filter, limit, offset int) ([]TransferRecord, int, error)
	TransferStats(ctx context.Context, f Filter) (TransferStats, error)
	ListTransactions(ctx context.Context, f Filter, limit, offset int) ([]TransactionRecord, int, error)
	TransactionStats(ctx context.Context, f Filter) (TransactionStats, error)
	ListInventory(ctx context.Context, f Filter, limit, offset int) ([]InventoryRecord, int, error)
}

// InventoryStatsPort exposes the inventory module's aggregate counters.
type InventoryStatsPort interface {
	Stats(ctx context.Context) (inventory.Stats, error)
}

// Service assembles report pages, statistics, and export documents.
type Service struct {
	repo     RepositoryPort
	invStats InventoryStatsPort
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service. The cache client is optional.
func NewService(repo RepositoryPort, invStats InventoryStatsPort, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{repo: repo, invStats: invStats, cache: cache, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

// AppointmentReport is one page of the appointments dashboard.
type AppointmentReport struct {
	Records []AppointmentRecord
	Total   int
	Stats   AppointmentStats
}

// Appointments lists scheduled visits with their statistics.
func (s *Service) Appointments(ctx context.Context, f Filter, limit, offset int) (AppointmentReport, error) {
	records, total, err := s.repo.ListAppointments(ctx, f, limit, offset)
	if err != nil {
		return AppointmentReport{}, err
	}
	stats, err := s.repo.AppointmentStats(ctx, f)
	if err != nil {
		return AppointmentReport{}, err
	}
	return AppointmentReport{Records: records, Total: total, Stats: stats}, nil
}

// PatientReport is one page of the patient registry dashboard.
type PatientReport struct {
	Records []PatientRecord
	Total   int
	Stats   PatientStats
}

// Patients lists registry entries with their statistics.
func (s *Service) Patients(ctx context.Context, f Filter, limit, offset int) (PatientReport, error) {
	records, total, err := s.repo.ListPatients(ctx, f, limit, offset)
	if err != nil {
		return PatientReport{}, err
	}
	stats, err := s.repo.PatientStats(ctx, f)
	if err != nil {
		return PatientReport{}, err
	}
	return PatientReport{Records: records, Total: total, Stats: stats}, nil
}

// TransferReport is one page of the transfers dashboard.
type TransferReport struct {
	Records []TransferRecord
	Total   int
	Stats   TransferStats
}

// Transfers lists ward transfers with their statistics.
func (s *Service) Transfers(ctx context.Context, f Filter, limit, offset int) (TransferReport, error) {
	records, total, err := s.repo.ListTransfers(ctx, f, limit, offset)
	if err != nil {
		return TransferReport{}, err
	}
	stats, err := s.repo.TransferStats(ctx, f)
	if err != nil {
		return TransferReport{}, err
	}
	return TransferReport{Records: records, Total: total, Stats: stats}, nil
}

// TransactionReport is one page of the financial dashboard.
type TransactionReport struct {
	Records []TransactionRecord
	Total   int
	Stats   TransactionStats
}

// Transactions lists billing entries with their statistics.
func (s *Service) Transactions(ctx context.Context, f Filter, limit, offset int) (TransactionReport, error) {
	records, total, err := s.repo.ListTransactions(ctx, f, limit, offset)
	if err != nil {
		return TransactionReport{}, err
	}
	stats, err := s.repo.TransactionStats(ctx, f)
	if err != nil {
		return TransactionReport{}, err
	}
	return TransactionReport{Records: records, Total: total, Stats: stats}, nil
}

// InventoryReport is one page of the inventory dashboard.
type InventoryReport struct {
	Records []InventoryRecord
	Total   int
	Stats   inventory.Stats
}

// Inventory lists supply items with the inventory module's counters.
func (s *Service) Inventory(ctx context.Context, f Filter, limit, offset int) (InventoryReport, error) {
	records, total, err := s.repo.ListInventory(ctx, f, limit, offset)
	if err != nil {
		return InventoryReport{}, err
	}
	stats, err := s.invStats.Stats(ctx)
	if err != nil {
		return InventoryReport{}, err
	}
	return InventoryReport{Records: records, Total: total, Stats: stats}, nil
}

// Comprehensive assembles statistics from every domain concurrently. Results
// are cached per filter window.
func (s *Service) Comprehensive(ctx context.Context, f Filter) (ComprehensiveStats, error) {
	key := comprehensiveCacheKey(f)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var stats ComprehensiveStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("comprehensive cache read", slog.Any("error", err))
		}
	}

	var stats ComprehensiveStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Appointments, err = s.repo.AppointmentStats(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Patients, err = s.repo.PatientStats(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Transfers, err = s.repo.TransferStats(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Transactions, err = s.repo.TransactionStats(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Inventory, err = s.invStats.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ComprehensiveStats{}, err
	}
	stats.GeneratedAt = s.now().UTC()

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("comprehensive cache write", slog.Any("error", err))
			}
		}
	}
	return stats, nil
}

// InvalidateComprehensive drops the cached composite stats for the default window.
func (s *Service) InvalidateComprehensive(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, comprehensiveCacheKey(Filter{})).Err()
}

func comprehensiveCacheKey(f Filter) string {
	from, to := "", ""
	if !f.DateFrom.IsZero() {
		from = f.DateFrom.Format("2006-01-02")
	}
	if !f.DateTo.IsZero() {
		to = f.DateTo.Format("2006-01-02")
	}
	return fmt.Sprintf("clarion:reports:comprehensive:%s:%s:%s", f.Period, from, to)
}

// BuildDocument materialises the full filtered data set of a report as a
// format-independent export document.
func (s *Service) BuildDocument(ctx context.Context, t ReportType, f Filter) (export.Document, error) {
	now := s.now()
	r := f.Range(now)
	doc := export.Document{
		ReportType:  string(t),
		GeneratedAt: now,
		RangeFrom:   r.From,
		RangeTo:     r.To,
	}

	switch t {
	case ReportAppointments:
		report, err := s.Appointments(ctx, f, exportRowLimit, 0)
		if err != nil {
			return export.Document{}, err
		}
		doc.Title = "Appointments Report"
		doc.Columns = []string{"ID", "Patient", "Provider", "Department", "Scheduled At", "Status"}
		for _, rec := range report.Records {
			doc.Rows = append(doc.Rows, []string{
				strconv.FormatInt(rec.ID, 10), rec.PatientName, rec.Provider, rec.Department,
				rec.ScheduledAt.Format("2006-01-02 15:04"), string(rec.Status),
			})
		}
		doc.Summary = []export.SummaryItem{
			{Label: "Total", Value: export.Count(report.Stats.Total)},
			{Label: "Pending", Value: export.Count(report.Stats.Pending)},
			{Label: "Confirmed", Value: export.Count(report.Stats.Confirmed)},
			{Label: "Completed", Value: export.Count(report.Stats.Completed)},
			{Label: "Cancelled", Value: export.Count(report.Stats.Cancelled)},
		}

	case ReportPatients:
		report, err := s.Patients(ctx, f, exportRowLimit, 0)
		if err != nil {
			return export.Document{}, err
		}
		doc.Title = "Patients Report"
		doc.Columns = []string{"ID", "MRN", "Name", "Sex", "Birth Date", "Ward", "Status"}
		for _, rec := range report.Records {
			doc.Rows = append(doc.Rows, []string{
				strconv.FormatInt(rec.ID, 10), rec.MRN, rec.Name, rec.Sex,
				rec.BirthDate.Format("2006-01-02"), rec.Ward, string(rec.Status),
			})
		}
		doc.Summary = []export.SummaryItem{
			{Label: "Total", Value: export.Count(report.Stats.Total)},
			{Label: "Admitted", Value: export.Count(report.Stats.Admitted)},
			{Label: "Discharged", Value: export.Count(report.Stats.Discharged)},
			{Label: "Outpatient", Value: export.Count(report.Stats.Outpatient)},
			{Label: "New in range", Value: export.Count(report.Stats.NewInRange)},
		}

	case ReportTransfers:
		report, err := s.Transfers(ctx, f, exportRowLimit, 0)
		if err != nil {
			return export.Document{}, err
		}
		doc.Title = "Patient Transfers Report"
		doc.Columns = []string{"ID", "Patient", "From Ward", "To Ward", "Reason", "Transferred At", "Status"}
		for _, rec := range report.Records {
			doc.Rows = append(doc.Rows, []string{
				strconv.FormatInt(rec.ID, 10), rec.PatientName, rec.FromWard, rec.ToWard, rec.Reason,
				rec.TransferredAt.Format("2006-01-02 15:04"), string(rec.Status),
			})
		}
		doc.Summary = []export.SummaryItem{
			{Label: "Total", Value: export.Count(report.Stats.Total)},
			{Label: "Pending", Value: export.Count(report.Stats.Pending)},
			{Label: "Completed", Value: export.Count(report.Stats.Completed)},
			{Label: "Cancelled", Value: export.Count(report.Stats.Cancelled)},
		}

	case ReportInventory:
		report, err := s.Inventory(ctx, f, exportRowLimit, 0)
		if err != nil {
			return export.Document{}, err
		}
		doc.Title = "Inventory Report"
		doc.Columns = []string{"ID", "Name", "Code", "Category", "Unit", "Stock", "Consumed", "Rejected", "Status"}
		for _, rec := range report.Records {
			doc.Rows = append(doc.Rows, []string{
				strconv.FormatInt(rec.ID, 10), rec.Name, rec.Code, rec.Category, rec.Unit,
				strconv.Itoa(rec.Stock), strconv.Itoa(rec.Consumed), strconv.Itoa(rec.Rejected), rec.Status,
			})
		}
		doc.Summary = []export.SummaryItem{
			{Label: "Total items", Value: export.Count(report.Stats.TotalItems)},
			{Label: "Low stock", Value: export.Count(report.Stats.LowStock)},
			{Label: "Out of stock", Value: export.Count(report.Stats.OutOfStock)},
			{Label: "Total consumed", Value: export.Count(report.Stats.TotalConsumed)},
			{Label: "Total rejected", Value: export.Count(report.Stats.TotalRejected)},
		}

	case ReportTransactions:
		report, err := s.Transactions(ctx, f, exportRowLimit, 0)
		if err != nil {
			return export.Document{}, err
		}
		doc.Title = "Transactions Report"
		doc.Columns = []string{"ID", "Reference", "Patient", "Description", "Amount", "Method", "Status", "Posted At"}
		for _, rec := range report.Records {
			doc.Rows = append(doc.Rows, []string{
				strconv.FormatInt(rec.ID, 10), rec.Reference, rec.PatientName, rec.Description,
				export.Money(rec.Amount), rec.Method, string(rec.Status),
				rec.PostedAt.Format("2006-01-02 15:04"),
			})
		}
		doc.Summary = []export.SummaryItem{
			{Label: "Total", Value: export.Count(report.Stats.Total)},
			{Label: "Paid", Value: export.Count(report.Stats.Paid)},
			{Label: "Pending", Value: export.Count(report.Stats.Pending)},
			{Label: "Voided", Value: export.Count(report.Stats.Voided)},
			{Label: "Revenue", Value: export.Money(report.Stats.Revenue)},
		}

	case ReportComprehensive:
		stats, err := s.Comprehensive(ctx, f)
		if err != nil {
			return export.Document{}, err
		}
		doc.Title = "Comprehensive Report"
		doc.Columns = []string{"Section", "Metric", "Value"}
		doc.Rows = [][]string{
			{"Appointments", "Total", export.Count(stats.Appointments.Total)},
			{"Appointments", "Completed", export.Count(stats.Appointments.Completed)},
			{"Appointments", "Cancelled", export.Count(stats.Appointments.Cancelled)},
			{"Patients", "Total", export.Count(stats.Patients.Total)},
			{"Patients", "Admitted", export.Count(stats.Patients.Admitted)},
			{"Patients", "New in range", export.Count(stats.Patients.NewInRange)},
			{"Transfers", "Total", export.Count(stats.Transfers.Total)},
			{"Transfers", "Completed", export.Count(stats.Transfers.Completed)},
			{"Inventory", "Total items", export.Count(stats.Inventory.TotalItems)},
			{"Inventory", "Low stock", export.Count(stats.Inventory.LowStock)},
			{"Inventory", "Out of stock", export.Count(stats.Inventory.OutOfStock)},
			{"Transactions", "Total", export.Count(stats.Transactions.Total)},
			{"Transactions", "Revenue", export.Money(stats.Transactions.Revenue)},
		}

	default:
		return export.Document{}, ErrUnknownReport
	}

	return doc, nil
}
