package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus is the closed set of slot and record states.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
	StatusOverdue PaymentStatus = "overdue"
	StatusWaived  PaymentStatus = "waived"
)

var (
	ErrInvalidMonth        = errors.New("invalid_month")
	ErrMonthAlreadyPaid    = errors.New("month_already_paid")
	ErrMonthWaived         = errors.New("month_waived")
	ErrOneTimeFeeNotFound  = errors.New("one_time_fee_not_found")
	ErrOneTimeFeePaid      = errors.New("one_time_fee_already_paid")
	ErrRecordNotFound      = errors.New("fee_record_not_found")
	ErrStaleRecord         = errors.New("stale_fee_record")
	ErrRecordAlreadyExists = errors.New("fee_record_already_exists")
)

// MonthlyPayment is one of the twelve installment slots of a ledger,
// keyed by calendar month (1-12) and ordered by the academic start month.
type MonthlyPayment struct {
	Month        int           `json:"month"`
	DueAmount    int64         `json:"due_amount"`
	PaidAmount   int64         `json:"paid_amount"`
	Status       PaymentStatus `json:"status"`
	DueDate      time.Time     `json:"due_date"`
	PaidDate     *time.Time    `json:"paid_date,omitempty"`
	LateFee      int64         `json:"late_fee"`
	Waived       bool          `json:"waived"`
	WaiverReason string        `json:"waiver_reason,omitempty"`
	WaiverBy     string        `json:"waiver_by,omitempty"`
	WaiverDate   *time.Time    `json:"waiver_date,omitempty"`
}

// Outstanding is the unpaid balance of the slot including any late fee.
func (m *MonthlyPayment) Outstanding() int64 {
	out := m.DueAmount + m.LateFee - m.PaidAmount
	if out < 0 {
		return 0
	}
	return out
}

// OneTimeFee is a once-per-year charge (admission, annual, ...). Due date
// is optional; by convention these settle with the first monthly payment.
type OneTimeFee struct {
	FeeType      string        `json:"fee_type"`
	DueAmount    int64         `json:"due_amount"`
	PaidAmount   int64         `json:"paid_amount"`
	Status       PaymentStatus `json:"status"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	PaidDate     *time.Time    `json:"paid_date,omitempty"`
	Waived       bool          `json:"waived"`
	WaiverReason string        `json:"waiver_reason,omitempty"`
	WaiverBy     string        `json:"waiver_by,omitempty"`
	WaiverDate   *time.Time    `json:"waiver_date,omitempty"`
}

// Outstanding is the unpaid balance of the fee.
func (f *OneTimeFee) Outstanding() int64 {
	out := f.DueAmount - f.PaidAmount
	if out < 0 {
		return 0
	}
	return out
}

// StudentFeeRecord is the ledger: one row per (student, academic year),
// aggregate totals always derived from the embedded line items.
type StudentFeeRecord struct {
	ID             snowflake.ID     `gorm:"primaryKey" json:"id"`
	StudentID      snowflake.ID     `gorm:"not null;uniqueIndex:ux_fee_records_student_year,priority:1" json:"student_id"`
	SchoolID       snowflake.ID     `gorm:"not null;index" json:"school_id"`
	Grade          string           `gorm:"type:text;not null" json:"grade"`
	AcademicYear   string           `gorm:"type:text;not null;uniqueIndex:ux_fee_records_student_year,priority:2" json:"academic_year"`
	FeeStructureID snowflake.ID     `gorm:"not null" json:"fee_structure_id"`
	StartMonth     int              `gorm:"not null;default:4" json:"start_month"`
	TotalFeeAmount int64            `gorm:"not null" json:"total_fee_amount"`
	TotalPaidAmount int64           `gorm:"not null;default:0" json:"total_paid_amount"`
	TotalDueAmount int64            `gorm:"not null" json:"total_due_amount"`
	MonthlyPayments []MonthlyPayment `gorm:"serializer:json" json:"monthly_payments"`
	OneTimeFees    []OneTimeFee     `gorm:"serializer:json" json:"one_time_fees"`
	Status         PaymentStatus    `gorm:"type:text;not null;default:pending" json:"status"`

	// HasPaidOneTimeFees flips once every one-time fee has settled. The
	// first-payment carve-out keys off this flag rather than a derived
	// running total, so a later waiver or reversal cannot re-trigger it.
	HasPaidOneTimeFees bool `gorm:"not null;default:false" json:"has_paid_one_time_fees"`

	// Version backs optimistic concurrency: saves compare-and-swap on it
	// so concurrent collectors cannot silently overwrite each other.
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (StudentFeeRecord) TableName() string { return "student_fee_records" }
