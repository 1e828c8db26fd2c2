package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	feerecorddomain "github.com/schoolworks/feeledger/internal/feerecord/domain"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
	transactiondomain "github.com/schoolworks/feeledger/internal/transaction/domain"
)

var (
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInsufficientAmount   = errors.New("amount_insufficient_for_one_time_fees")
	ErrAmountExceedsBalance = errors.New("amount_exceeds_remaining_balance")
	ErrRecordReload         = errors.New("fee_record_reload_failed")
)

// ValidationError carries the blocking rule violations of a rejected
// collection attempt.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "fee collection rejected: " + strings.Join(e.Messages, "; ")
}

// CollectFeeRequest is a request to collect money against a monthly slot.
type CollectFeeRequest struct {
	StudentID      snowflake.ID
	SchoolID       snowflake.ID
	AcademicYear   string // empty resolves to the current academic year
	Month          int
	Amount         int64
	PaymentMethod  transactiondomain.PaymentMethod
	CollectedBy    snowflake.ID
	Remarks        string
	IncludeLateFee bool
}

// CollectFeeResponse reports everything a collection wrote.
type CollectFeeResponse struct {
	Success                bool                                `json:"success"`
	Transaction            *transactiondomain.FeeTransaction   `json:"transaction"`
	OneTimeFeeTransactions []transactiondomain.FeeTransaction  `json:"one_time_fee_transactions"`
	FeeRecord              *feerecorddomain.StudentFeeRecord   `json:"fee_record"`
	Warnings               []string                            `json:"warnings"`
	IsFirstPayment         bool                                `json:"is_first_payment"`
	TotalOneTimeFeeAmount  int64                               `json:"total_one_time_fee_amount"`
}

// ValidateFeeRequest mirrors CollectFeeRequest for the side-effect-free
// rule check.
type ValidateFeeRequest struct {
	StudentID      snowflake.ID
	SchoolID       snowflake.ID
	AcademicYear   string
	Month          int
	Amount         int64
	IncludeLateFee bool
}

// ValidationResult is safe to surface to UIs for pre-checks; only Errors
// block a collection, Warnings never do.
type ValidationResult struct {
	Valid                 bool                            `json:"valid"`
	Warnings              []string                        `json:"warnings"`
	Errors                []string                        `json:"errors"`
	MonthlyPayment        *feerecorddomain.MonthlyPayment `json:"monthly_payment,omitempty"`
	MonthlyExpectedAmount int64                           `json:"monthly_expected_amount"`
	OneTimeFeeAmount      int64                           `json:"one_time_fee_amount"`
	TotalExpectedAmount   int64                           `json:"total_expected_amount"`
	IsFirstPayment        bool                            `json:"is_first_payment"`
}

// CollectOneTimeFeeRequest pays a single named one-time fee outside the
// monthly flow.
type CollectOneTimeFeeRequest struct {
	StudentID     snowflake.ID
	SchoolID      snowflake.ID
	AcademicYear  string
	FeeType       string
	Amount        int64
	PaymentMethod transactiondomain.PaymentMethod
	CollectedBy   snowflake.ID
	Remarks       string
}

// CollectOneTimeFeeResponse reports a one-time fee settlement.
type CollectOneTimeFeeResponse struct {
	Success     bool                              `json:"success"`
	Transaction *transactiondomain.FeeTransaction `json:"transaction"`
	FeeRecord   *feerecorddomain.StudentFeeRecord `json:"fee_record"`
	OneTimeFee  *feerecorddomain.OneTimeFee       `json:"one_time_fee"`
}

// StudentFeeStatus is the read model for one student's ledger.
type StudentFeeStatus struct {
	Student            *studentdomain.Student             `json:"student"`
	FeeRecord          *feerecorddomain.StudentFeeRecord  `json:"fee_record"`
	UpcomingDue        *feerecorddomain.MonthlyPayment    `json:"upcoming_due,omitempty"`
	RecentTransactions []transactiondomain.FeeTransaction `json:"recent_transactions"`
}

// AccountantDashboard aggregates the operational numbers shown on the
// collection desk.
type AccountantDashboard struct {
	TodayCollection    int64                              `json:"today_collection"`
	MonthCollection    int64                              `json:"month_collection"`
	TotalOutstanding   int64                              `json:"total_outstanding"`
	DefaulterCount     int64                              `json:"defaulter_count"`
	RecentTransactions []transactiondomain.FeeTransaction `json:"recent_transactions"`
}

// DailyCollection is one point of a collection time series.
type DailyCollection struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// FinancialReport summarizes collections over a period.
type FinancialReport struct {
	From           time.Time         `json:"from"`
	To             time.Time         `json:"to"`
	TotalCollected int64             `json:"total_collected"`
	ByMethod       map[string]int64  `json:"by_method"`
	ByType         map[string]int64  `json:"by_type"`
	Daily          []DailyCollection `json:"daily"`
}

// DefaulterRow joins a defaulter index row with student identity.
type DefaulterRow struct {
	StudentID         snowflake.ID `json:"student_id"`
	StudentName       string       `json:"student_name"`
	Grade             string       `json:"grade"`
	Section           string       `json:"section"`
	TotalDueAmount    int64        `json:"total_due_amount"`
	OverdueMonths     []int        `json:"overdue_months"`
	DaysSinceFirstDue int          `json:"days_since_first_due"`
	NotificationCount int          `json:"notification_count"`
}

// StudentFeeSummary pairs a student with their ledger state for roster
// views.
type StudentFeeSummary struct {
	Student        studentdomain.Student       `json:"student"`
	Status         feerecorddomain.PaymentStatus `json:"status"`
	TotalDueAmount int64                       `json:"total_due_amount"`
}

// Service is the sole write path for collecting fees, plus the read
// projections the desk needs.
type Service interface {
	GetStudentFeeStatus(ctx context.Context, studentID, schoolID snowflake.ID, academicYear string) (*StudentFeeStatus, error)
	ValidateFeeCollection(ctx context.Context, req ValidateFeeRequest) (*ValidationResult, error)
	CollectFee(ctx context.Context, req CollectFeeRequest) (*CollectFeeResponse, error)
	CollectOneTimeFee(ctx context.Context, req CollectOneTimeFeeRequest) (*CollectOneTimeFeeResponse, error)

	GetAccountantDashboard(ctx context.Context, schoolID snowflake.ID) (*AccountantDashboard, error)
	GetFinancialReports(ctx context.Context, schoolID snowflake.ID, from, to time.Time) (*FinancialReport, error)
	GetDefaulters(ctx context.Context, schoolID snowflake.ID) ([]DefaulterRow, error)
	GetStudentsByGradeSection(ctx context.Context, schoolID snowflake.ID, grade, section, academicYear string) ([]StudentFeeSummary, error)
}

// MonthName renders a calendar month for warning messages.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("month %d", month)
	}
	return time.Month(month).String()
}
