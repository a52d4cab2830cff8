package reports

import (
	"errors"
	"net/url"
	"time"

	"github.com/clarion-hms/clarion/internal/inventory"
)

// ReportType identifies one reporting domain.
type ReportType string

const (
	// ReportAppointments covers scheduled visits.
	ReportAppointments ReportType = "appointments"
	// ReportPatients covers the patient registry.
	ReportPatients ReportType = "patients"
	// ReportTransfers covers ward-to-ward patient transfers.
	ReportTransfers ReportType = "transfers"
	// ReportInventory covers supply items.
	ReportInventory ReportType = "inventory"
	// ReportTransactions covers billing transactions.
	ReportTransactions ReportType = "transactions"
	// ReportComprehensive aggregates every domain's statistics.
	ReportComprehensive ReportType = "comprehensive"
)

// ValidReportType reports whether t names a known report domain.
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportAppointments, ReportPatients, ReportTransfers, ReportInventory, ReportTransactions, ReportComprehensive:
		return true
	}
	return false
}

// ErrUnknownReport indicates a request for an unregistered report domain.
var ErrUnknownReport = errors.New("reports: unknown report type")

// AppointmentStatus is the closed status vocabulary for appointments.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// PatientStatus is the closed status vocabulary for patients.
type PatientStatus string

const (
	PatientAdmitted   PatientStatus = "Admitted"
	PatientDischarged PatientStatus = "Discharged"
	PatientOutpatient PatientStatus = "Outpatient"
)

// TransferStatus is the closed status vocabulary for transfers.
type TransferStatus string

const (
	TransferPending   TransferStatus = "Pending"
	TransferCompleted TransferStatus = "Completed"
	TransferCancelled TransferStatus = "Cancelled"
)

// TransactionStatus is the closed status vocabulary for billing transactions.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "Pending"
	TransactionPaid    TransactionStatus = "Paid"
	TransactionVoided  TransactionStatus = "Voided"
)

// Filter narrows report listings. Empty fields mean "no constraint";
// they are never forwarded as empty query values.
type Filter struct {
	Search   string
	Status   string
	Type     string
	DateFrom time.Time
	DateTo   time.Time
	Period   string
}

// ParseFilter reads report filters from query parameters. Unset or empty
// parameters stay zero-valued. A period shorthand (today, week, month, year)
// fills the date range when no explicit dates were given.
func ParseFilter(q url.Values, now time.Time) Filter {
	f := Filter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Period: q.Get("period"),
	}
	if raw := q.Get("date_from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			f.DateFrom = t
		}
	}
	if raw := q.Get("date_to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			// Window is inclusive of the end date.
			f.DateTo = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if f.DateFrom.IsZero() && f.DateTo.IsZero() && f.Period != "" {
		f.DateFrom, f.DateTo = periodRange(f.Period, now)
	}
	return f
}

func periodRange(period string, now time.Time) (time.Time, time.Time) {
	end := now
	switch period {
	case "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, end
	case "week":
		return now.AddDate(0, 0, -7), end
	case "month":
		return now.AddDate(0, -1, 0), end
	case "year":
		return now.AddDate(-1, 0, 0), end
	default:
		return time.Time{}, time.Time{}
	}
}

// DateRange reports the window a result set covers.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Range formats the effective window of a filter, defaulting to the last 30 days.
func (f Filter) Range(now time.Time) DateRange {
	from, to := f.DateFrom, f.DateTo
	if from.IsZero() && to.IsZero() {
		from, to = now.AddDate(0, 0, -30), now
	}
	r := DateRange{}
	if !from.IsZero() {
		r.From = from.Format("2006-01-02")
	}
	if !to.IsZero() {
		r.To = to.Format("2006-01-02")
	}
	return r
}

// AppointmentRecord is one scheduled visit row.
type AppointmentRecord struct {
	ID          int64             `json:"id"`
	PatientName string            `json:"patient_name"`
	Provider    string            `json:"provider"`
	Department  string            `json:"department"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Status      AppointmentStatus `json:"status"`
}

// AppointmentStats aggregates appointment counts by status.
type AppointmentStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// PatientRecord is one registry row.
type PatientRecord struct {
	ID         int64         `json:"id"`
	MRN        string        `json:"mrn"`
	Name       string        `json:"name"`
	Sex        string        `json:"sex"`
	BirthDate  time.Time     `json:"birth_date"`
	Ward       string        `json:"ward,omitempty"`
	AdmittedAt *time.Time    `json:"admitted_at,omitempty"`
	Status     PatientStatus `json:"status"`
}

// PatientStats aggregates registry counts.
type PatientStats struct {
	Total      int `json:"total"`
	Admitted   int `json:"admitted"`
	Discharged int `json:"discharged"`
	Outpatient int `json:"outpatient"`
	NewInRange int `json:"new_in_range"`
}

// TransferRecord is one patient transfer row.
type TransferRecord struct {
	ID            int64          `json:"id"`
	PatientName   string         `json:"patient_name"`
	FromWard      string         `json:"from_ward"`
	ToWard        string         `json:"to_ward"`
	Reason        string         `json:"reason"`
	TransferredAt time.Time      `json:"transferred_at"`
	Status        TransferStatus `json:"status"`
}

// TransferStats aggregates transfer counts by status.
type TransferStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// TransactionRecord is one billing row.
type TransactionRecord struct {
	ID          int64             `json:"id"`
	Reference   string            `json:"reference"`
	PatientName string            `json:"patient_name"`
	Description string            `json:"description"`
	Amount      float64           `json:"amount"`
	Method      string            `json:"method"`
	Status      TransactionStatus `json:"status"`
	PostedAt    time.Time         `json:"posted_at"`
}

// TransactionStats aggregates billing counts and revenue.
type TransactionStats struct {
	Total   int     `json:"total"`
	Pending int     `json:"pending"`
	Paid    int     `json:"paid"`
	Voided  int     `json:"voided"`
	Revenue float64 `json:"revenue"`
}

// InventoryRecord is one supply item row in the inventory report.
type InventoryRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Stock    int    `json:"stock"`
	Consumed int    `json:"consumed"`
	Rejected int    `json:"rejected"`
	Status   string `json:"status"`
}

// ComprehensiveStats assembles every domain's statistics for the composite view.
type ComprehensiveStats struct {
	Appointments AppointmentStats `json:"appointments"`
	Patients     PatientStats     `json:"patients"`
	Transfers    TransferStats    `json:"transfers"`
	Inventory    inventory.Stats  `json:"inventory"`
	Transactions TransactionStats `json:"transactions"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
