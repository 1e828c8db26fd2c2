package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists ledgers. Save is a compare-and-swap on the record
// version; callers retry or surface ErrStaleRecord on contention.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*StudentFeeRecord, error)
	FindByStudentYear(ctx context.Context, db *gorm.DB, studentID snowflake.ID, academicYear string) (*StudentFeeRecord, error)
	Create(ctx context.Context, db *gorm.DB, record *StudentFeeRecord) error
	Save(ctx context.Context, db *gorm.DB, record *StudentFeeRecord) error
	ListBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, academicYear string) ([]StudentFeeRecord, error)
}
