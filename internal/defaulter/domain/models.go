package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// FeeDefaulter is a materialized row over overdue ledgers, used for
// reminder and reporting flows. It is never authoritative: a sync run can
// rebuild the whole index from the ledgers.
type FeeDefaulter struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	StudentID          snowflake.ID `gorm:"not null;uniqueIndex:ux_fee_defaulters_student_record,priority:1" json:"student_id"`
	StudentFeeRecordID snowflake.ID `gorm:"not null;uniqueIndex:ux_fee_defaulters_student_record,priority:2" json:"student_fee_record_id"`
	SchoolID           snowflake.ID `gorm:"not null;index" json:"school_id"`
	Grade              string       `gorm:"type:text;not null" json:"grade"`
	TotalDueAmount     int64        `gorm:"not null" json:"total_due_amount"`
	OverdueMonths      []int        `gorm:"serializer:json" json:"overdue_months"`
	DaysSinceFirstDue  int          `gorm:"not null" json:"days_since_first_due"`
	LastReminderDate   *time.Time   `gorm:"" json:"last_reminder_date,omitempty"`
	NotificationCount  int          `gorm:"not null;default:0" json:"notification_count"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (FeeDefaulter) TableName() string { return "fee_defaulters" }

// SyncResult reports one sync run over a school.
type SyncResult struct {
	Synced  int `json:"synced"`
	Removed int `json:"removed"`
}

// Service rebuilds the defaulter index.
type Service interface {
	// SyncDefaultersForSchool upserts a row per overdue ledger past the
	// grace period and removes rows whose dues cleared. Idempotent: a
	// second run with no ledger changes is a no-op.
	SyncDefaultersForSchool(ctx context.Context, schoolID snowflake.ID, gracePeriodDays int) (SyncResult, error)
	// RecordReminder bumps the notification counters after a reminder
	// went out.
	RecordReminder(ctx context.Context, defaulterID snowflake.ID) error
}
