package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	feerecorddomain "github.com/schoolworks/feeledger/internal/feerecord/domain"
	"gorm.io/gorm"
)

type RepositoryImpl struct{}

func Provide() feerecorddomain.Repository {
	return &RepositoryImpl{}
}

func (r *RepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*feerecorddomain.StudentFeeRecord, error) {
	var record feerecorddomain.StudentFeeRecord
	err := db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, feerecorddomain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *RepositoryImpl) FindByStudentYear(ctx context.Context, db *gorm.DB, studentID snowflake.ID, academicYear string) (*feerecorddomain.StudentFeeRecord, error) {
	var record feerecorddomain.StudentFeeRecord
	err := db.WithContext(ctx).
		Where("student_id = ? AND academic_year = ?", studentID, academicYear).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, feerecorddomain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, db *gorm.DB, record *feerecorddomain.StudentFeeRecord) error {
	err := db.WithContext(ctx).Create(record).Error
	if err != nil && isUniqueViolation(err) {
		return feerecorddomain.ErrRecordAlreadyExists
	}
	return err
}

// Save writes the full record guarded by the version counter. A missed
// compare-and-swap means another writer got there first.
func (r *RepositoryImpl) Save(ctx context.Context, db *gorm.DB, record *feerecorddomain.StudentFeeRecord) error {
	previous := record.Version
	record.Version = previous + 1

	result := db.WithContext(ctx).
		Model(&feerecorddomain.StudentFeeRecord{}).
		Where("id = ? AND version = ?", record.ID, previous).
		Select("*").
		Omit("id", "created_at").
		Updates(record)
	if result.Error != nil {
		record.Version = previous
		return result.Error
	}
	if result.RowsAffected == 0 {
		record.Version = previous
		return feerecorddomain.ErrStaleRecord
	}
	return nil
}

func (r *RepositoryImpl) ListBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, academicYear string) ([]feerecorddomain.StudentFeeRecord, error) {
	query := db.WithContext(ctx).Where("school_id = ?", schoolID)
	if academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}
	var records []feerecorddomain.StudentFeeRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
