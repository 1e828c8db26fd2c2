package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrStudentNotFound = errors.New("student_not_found")
	ErrSchoolMismatch  = errors.New("school_mismatch")
)

// Student is reference data for the fee subsystem: enough identity to
// scope ledgers and render receipts, nothing more.
type Student struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	SchoolID       snowflake.ID `gorm:"not null;index" json:"school_id"`
	AdmissionNo    string       `gorm:"type:text;not null" json:"admission_no"`
	FirstName      string       `gorm:"type:text;not null" json:"first_name"`
	LastName       string       `gorm:"type:text" json:"last_name"`
	Grade          string       `gorm:"type:text;not null;index" json:"grade"`
	Section        string       `gorm:"type:text" json:"section"`
	GuardianName   string       `gorm:"type:text" json:"guardian_name"`
	GuardianPhone  string       `gorm:"type:text" json:"guardian_phone"`
	IsActive       bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }

// Repository reads student reference data.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Student, error)
	// FindInSchool loads a student and enforces the tenant boundary:
	// ErrStudentNotFound when absent, ErrSchoolMismatch when the student
	// belongs to another school.
	FindInSchool(ctx context.Context, db *gorm.DB, id, schoolID snowflake.ID) (*Student, error)
	ListByGradeSection(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, grade, section string) ([]Student, error)
}
