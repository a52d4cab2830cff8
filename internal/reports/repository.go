package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads report data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// whereBuilder accumulates predicates and positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) add(format string, values ...any) {
	placeholders := make([]any, 0, len(values))
	for _, v := range values {
		b.args = append(b.args, v)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(b.args)))
	}
	b.conds = append(b.conds, fmt.Sprintf(format, placeholders...))
}

func (b *whereBuilder) clause() string {
	if len(b.conds) == 0 {
		return "1=1"
	}
	return strings.Join(b.conds, " AND ")
}

func (b *whereBuilder) page(limit, offset int) string {
	b.args = append(b.args, limit)
	l := len(b.args)
	b.args = append(b.args, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", l, l+1)
}

func appointmentWhere(f Filter) *whereBuilder {
	b := &whereBuilder{}
	if f.Search != "" {
		b.add("(a.patient_name ILIKE %[1]s OR a.provider ILIKE %[1]s)", "%"+f.Search+"%")
	}
	if f.Status != "" {
		b.add("a.status = %s", f.Status)
	}
	if f.Type != "" {
		b.add("a.department = %s", f.Type)
	}
	if !f.DateFrom.IsZero() {
		b.add("a.scheduled_at >= %s", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		b.add("a.scheduled_at <= %s", f.DateTo)
	}
	return b
}

// ListAppointments returns a page of appointments plus the filtered total.
func (r *Repository) ListAppointments(ctx context.Context, f Filter, limit, offset int) ([]AppointmentRecord, int, error) {
	b := appointmentWhere(f)
	cond := b.clause()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM appointments a WHERE "+cond, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT a.id, a.patient_name, a.provider, a.department, a.scheduled_at, a.status
FROM appointments a
WHERE %s
ORDER BY a.scheduled_at DESC, a.id DESC
%s`, cond, b.page(limit, offset))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []AppointmentRecord
	for rows.Next() {
		var rec AppointmentRecord
		if err := rows.Scan(&rec.ID, &rec.PatientName, &rec.Provider, &rec.Department, &rec.ScheduledAt, &rec.Status); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// AppointmentStats aggregates appointment counts for the filter window.
func (r *Repository) AppointmentStats(ctx context.Context, f Filter) (AppointmentStats, error) {
	b := appointmentWhere(f)
	query := fmt.Sprintf(`
SELECT
	count(*),
	count(*) FILTER (WHERE a.status = 'Pending'),
	count(*) FILTER (WHERE a.status = 'Confirmed'),
	count(*) FILTER (WHERE a.status = 'Completed'),
	count(*) FILTER (WHERE a.status = 'Cancelled')
FROM appointments a
WHERE %s`, b.clause())
	var stats AppointmentStats
	err := r.pool.QueryRow(ctx, query, b.args...).Scan(&stats.Total, &stats.Pending, &stats.Confirmed, &stats.Completed, &stats.Cancelled)
	return stats, err
}

func patientWhere(f Filter) *whereBuilder {
	b := &whereBuilder{}
	if f.Search != "" {
		b.add("(p.name ILIKE %[1]s OR p.mrn ILIKE %[1]s)", "%"+f.Search+"%")
	}
	if f.Status != "" {
		b.add("p.status = %s", f.Status)
	}
	if f.Type != "" {
		b.add("p.ward = %s", f.Type)
	}
	if !f.DateFrom.IsZero() {
		b.add("p.registered_at >= %s", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		b.add("p.registered_at <= %s", f.DateTo)
	}
	return b
}

// ListPatients returns a page of the patient registry plus the filtered total.
func (r *Repository) ListPatients(ctx context.Context, f Filter, limit, offset int) ([]PatientRecord, int, error) {
	b := patientWhere(f)
	cond := b.clause()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM patients p WHERE "+cond, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT p.id, p.mrn, p.name, p.sex, p.birth_date, COALESCE(p.ward, ''), p.admitted_at, p.status
FROM patients p
WHERE %s
ORDER BY p.registered_at DESC, p.id DESC
%s`, cond, b.page(limit, offset))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []PatientRecord
	for rows.Next() {
		var rec PatientRecord
		if err := rows.Scan(&rec.ID, &rec.MRN, &rec.Name, &rec.Sex, &rec.BirthDate, &rec.Ward, &rec.AdmittedAt, &rec.Status); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// PatientStats aggregates registry counts for the filter window.
func (r *Repository) PatientStats(ctx context.Context, f Filter) (PatientStats, error) {
	var stats PatientStats
	const totals = `
SELECT
	count(*),
	count(*) FILTER (WHERE p.status = 'Admitted'),
	count(*) FILTER (WHERE p.status = 'Discharged'),
	count(*) FILTER (WHERE p.status = 'Outpatient')
FROM patients p`
	if err := r.pool.QueryRow(ctx, totals).Scan(&stats.Total, &stats.Admitted, &stats.Discharged, &stats.Outpatient); err != nil {
		return PatientStats{}, err
	}

	b := patientWhere(f)
	query := fmt.Sprintf("SELECT count(*) FROM patients p WHERE %s", b.clause())
	if err := r.pool.QueryRow(ctx, query, b.args...).Scan(&stats.NewInRange); err != nil {
		return PatientStats{}, err
	}
	return stats, nil
}

func transferWhere(f Filter) *whereBuilder {
	b := &whereBuilder{}
	if f.Search != "" {
		b.add("(t.patient_name ILIKE %[1]s OR t.to_ward ILIKE %[1]s)", "%"+f.Search+"%")
	}
	if f.Status != "" {
		b.add("t.status = %s", f.Status)
	}
	if f.Type != "" {
		b.add("t.to_ward = %s", f.Type)
	}
	if !f.DateFrom.IsZero() {
		b.add("t.transferred_at >= %s", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		b.add("t.transferred_at <= %s", f.DateTo)
	}
	return b
}

// ListTransfers returns a page of patient transfers plus the filtered total.
func (r *Repository) ListTransfers(ctx context.Context, f Filter, limit, offset int) ([]TransferRecord, int, error) {
	b := transferWhere(f)
	cond := b.clause()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM patient_transfers t WHERE "+cond, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT t.id, t.patient_name, t.from_ward, t.to_ward, t.reason, t.transferred_at, t.status
FROM patient_transfers t
WHERE %s
ORDER BY t.transferred_at DESC, t.id DESC
%s`, cond, b.page(limit, offset))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []TransferRecord
	for rows.Next() {
		var rec TransferRecord
		if err := rows.Scan(&rec.ID, &rec.PatientName, &rec.FromWard, &rec.ToWard, &rec.Reason, &rec.TransferredAt, &rec.Status); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// TransferStats aggregates transfer counts for the filter window.
func (r *Repository) TransferStats(ctx context.Context, f Filter) (TransferStats, error) {
	b := transferWhere(f)
	query := fmt.Sprintf(`
SELECT
	count(*),
	count(*) FILTER (WHERE t.status = 'Pending'),
	count(*) FILTER (WHERE t.status = 'Completed'),
	count(*) FILTER (WHERE t.status = 'Cancelled')
FROM patient_transfers t
WHERE %s`, b.clause())
	var stats TransferStats
	err := r.pool.QueryRow(ctx, query, b.args...).Scan(&stats.Total, &stats.Pending, &stats.Completed, &stats.Cancelled)
	return stats, err
}

func transactionWhere(f Filter) *whereBuilder {
	b := &whereBuilder{}
	if f.Search != "" {
		b.add("(x.reference ILIKE %[1]s OR x.patient_name ILIKE %[1]s)", "%"+f.Search+"%")
	}
	if f.Status != "" {
		b.add("x.status = %s", f.Status)
	}
	if f.Type != "" {
		b.add("x.method = %s", f.Type)
	}
	if !f.DateFrom.IsZero() {
		b.add("x.posted_at >= %s", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		b.add("x.posted_at <= %s", f.DateTo)
	}
	return b
}

// ListTransactions returns a page of billing transactions plus the filtered total.
func (r *Repository) ListTransactions(ctx context.Context, f Filter, limit, offset int) ([]TransactionRecord, int, error) {
	b := transactionWhere(f)
	cond := b.clause()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM transactions x WHERE "+cond, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT x.id, x.reference, x.patient_name, x.description, x.amount, x.method, x.status, x.posted_at
FROM transactions x
WHERE %s
ORDER BY x.posted_at DESC, x.id DESC
%s`, cond, b.page(limit, offset))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var rec TransactionRecord
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.PatientName, &rec.Description, &rec.Amount, &rec.Method, &rec.Status, &rec.PostedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// TransactionStats aggregates billing counts and revenue for the filter window.
func (r *Repository) TransactionStats(ctx context.Context, f Filter) (TransactionStats, error) {
	b := transactionWhere(f)
	query := fmt.Sprintf(`
SELECT
	count(*),
	count(*) FILTER (WHERE x.status = 'Pending'),
	count(*) FILTER (WHERE x.status = 'Paid'),
	count(*) FILTER (WHERE x.status = 'Voided'),
	COALESCE(sum(x.amount) FILTER (WHERE x.status = 'Paid'), 0)
FROM transactions x
WHERE %s`, b.clause())
	var stats TransactionStats
	err := r.pool.QueryRow(ctx, query, b.args...).Scan(&stats.Total, &stats.Pending, &stats.Paid, &stats.Voided, &stats.Revenue)
	return stats, err
}

// ListInventory returns a page of the inventory report plus the filtered total.
func (r *Repository) ListInventory(ctx context.Context, f Filter, limit, offset int) ([]InventoryRecord, int, error) {
	b := &whereBuilder{}
	if f.Search != "" {
		b.add("(i.name ILIKE %[1]s OR i.code ILIKE %[1]s)", "%"+f.Search+"%")
	}
	if f.Type != "" {
		b.add("i.category = %s", f.Type)
	}
	switch f.Status {
	case "OutOfStock":
		b.conds = append(b.conds, "i.stock <= 0")
	case "LowStock":
		b.conds = append(b.conds, "i.stock > 0 AND i.stock <= i.low_stock_threshold")
	case "InStock":
		b.conds = append(b.conds, "i.stock > i.low_stock_threshold")
	}
	cond := b.clause()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM inventory_items i WHERE "+cond, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT i.id, i.name, i.code, i.category, i.unit, i.stock, i.consumed, i.rejected,
	CASE
		WHEN i.stock <= 0 THEN 'OutOfStock'
		WHEN i.stock <= i.low_stock_threshold THEN 'LowStock'
		ELSE 'InStock'
	END
FROM inventory_items i
WHERE %s
ORDER BY i.name ASC, i.id ASC
%s`, cond, b.page(limit, offset))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []InventoryRecord
	for rows.Next() {
		var rec InventoryRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Code, &rec.Category, &rec.Unit, &rec.Stock, &rec.Consumed, &rec.Rejected, &rec.Status); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
