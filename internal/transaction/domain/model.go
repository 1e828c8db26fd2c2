package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionType distinguishes the ledger line a payment settled.
type TransactionType string

const (
	TypeMonthlyFee TransactionType = "monthly_fee"
	TypeOneTimeFee TransactionType = "one_time_fee"
)

// PaymentMethod is the closed set of accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
)

// ValidMethod reports whether the method is one of the accepted channels.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodBankTransfer, MethodCheque:
		return true
	}
	return false
}

// FeeTransaction is the immutable audit line for one payment application.
// Rows are inserted and read, never updated or deleted.
type FeeTransaction struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	ReceiptNo          string            `gorm:"type:text;not null;uniqueIndex" json:"receipt_no"`
	StudentID          snowflake.ID      `gorm:"not null;index" json:"student_id"`
	StudentFeeRecordID snowflake.ID      `gorm:"not null;index" json:"student_fee_record_id"`
	SchoolID           snowflake.ID      `gorm:"not null;index:ix_fee_transactions_school_created,priority:1" json:"school_id"`
	TransactionType    TransactionType   `gorm:"type:text;not null" json:"transaction_type"`
	Amount             int64             `gorm:"not null" json:"amount"`
	PaymentMethod      PaymentMethod     `gorm:"type:text;not null" json:"payment_method"`
	Month              *int              `gorm:"" json:"month,omitempty"`
	FeeType            *string           `gorm:"type:text" json:"fee_type,omitempty"`
	CollectedBy        snowflake.ID      `gorm:"not null" json:"collected_by"`
	Remarks            string            `gorm:"type:text" json:"remarks,omitempty"`
	Status             string            `gorm:"type:text;not null;default:completed" json:"status"`
	AuditLog           datatypes.JSONMap `gorm:"type:jsonb" json:"audit_log"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_fee_transactions_school_created,priority:2" json:"created_at"`
}

// TableName sets the database table name.
func (FeeTransaction) TableName() string { return "fee_transactions" }

// Repository is insert-and-read only.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *FeeTransaction) error
	ListRecent(ctx context.Context, db *gorm.DB, studentID snowflake.ID, limit int) ([]FeeTransaction, error)
	ListBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, from, to time.Time) ([]FeeTransaction, error)
}
