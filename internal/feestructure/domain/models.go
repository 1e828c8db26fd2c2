package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrStructureNotFound = errors.New("fee_structure_not_found")
	ErrInvalidGrade      = errors.New("invalid_grade")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidComponent  = errors.New("invalid_fee_component")
)

// FeeComponent is a named charge inside a structure. One-time components
// (admission, annual charges) are billed once per academic year on top of
// the recurring monthly amount.
type FeeComponent struct {
	FeeType string `json:"fee_type"`
	Amount  int64  `json:"amount"`
	OneTime bool   `json:"one_time"`
}

// FeeStructure is the per-grade, per-year fee schedule. Several may exist
// for the same (school, grade, year); the most recently created active one
// is authoritative.
type FeeStructure struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	SchoolID      snowflake.ID   `gorm:"not null;index:ix_fee_structures_scope" json:"school_id"`
	Grade         string         `gorm:"type:text;not null;index:ix_fee_structures_scope" json:"grade"`
	AcademicYear  string         `gorm:"type:text;not null;index:ix_fee_structures_scope" json:"academic_year"`
	MonthlyAmount int64          `gorm:"not null" json:"monthly_amount"`
	DueDay        int            `gorm:"not null;default:10" json:"due_day"`
	Components    []FeeComponent `gorm:"serializer:json" json:"components"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeeStructure) TableName() string { return "fee_structures" }

// OneTimeComponents returns only the one-time components.
func (s *FeeStructure) OneTimeComponents() []FeeComponent {
	var out []FeeComponent
	for _, c := range s.Components {
		if c.OneTime {
			out = append(out, c)
		}
	}
	return out
}

// OneTimeTotal sums the one-time component amounts.
func (s *FeeStructure) OneTimeTotal() int64 {
	var total int64
	for _, c := range s.Components {
		if c.OneTime {
			total += c.Amount
		}
	}
	return total
}

// YearlyTotal is the full obligation for the academic year.
func (s *FeeStructure) YearlyTotal() int64 {
	return s.MonthlyAmount*12 + s.OneTimeTotal()
}

// Repository reads and writes fee structures.
type Repository interface {
	// FindLatestActive resolves the authoritative structure for a scope,
	// or ErrStructureNotFound.
	FindLatestActive(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, grade, academicYear string) (*FeeStructure, error)
	Create(ctx context.Context, db *gorm.DB, structure *FeeStructure) error
	List(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, academicYear string) ([]FeeStructure, error)
}
