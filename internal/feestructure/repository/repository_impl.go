package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/cache"
	feestructuredomain "github.com/schoolworks/feeledger/internal/feestructure/domain"
	"gorm.io/gorm"
)

const latestActiveTTL = 30 * time.Second

type RepositoryImpl struct {
	latest *cache.TTL[string, feestructuredomain.FeeStructure]
}

func Provide() feestructuredomain.Repository {
	return &RepositoryImpl{
		latest: cache.NewTTL[string, feestructuredomain.FeeStructure](latestActiveTTL),
	}
}

func scopeKey(schoolID snowflake.ID, grade, academicYear string) string {
	return fmt.Sprintf("%s/%s/%s", schoolID, grade, academicYear)
}

func (r *RepositoryImpl) FindLatestActive(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, grade, academicYear string) (*feestructuredomain.FeeStructure, error) {
	key := scopeKey(schoolID, grade, academicYear)
	if cached, ok := r.latest.Get(key); ok {
		structure := cached
		return &structure, nil
	}

	var structure feestructuredomain.FeeStructure
	err := db.WithContext(ctx).
		Where("school_id = ? AND grade = ? AND academic_year = ? AND is_active = ?",
			schoolID, grade, academicYear, true).
		Order("created_at DESC, id DESC").
		First(&structure).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, feestructuredomain.ErrStructureNotFound
		}
		return nil, err
	}

	r.latest.Set(key, structure)
	return &structure, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, db *gorm.DB, structure *feestructuredomain.FeeStructure) error {
	if strings.TrimSpace(structure.Grade) == "" {
		return feestructuredomain.ErrInvalidGrade
	}
	if structure.MonthlyAmount <= 0 {
		return feestructuredomain.ErrInvalidAmount
	}
	for _, c := range structure.Components {
		if strings.TrimSpace(c.FeeType) == "" || c.Amount < 0 {
			return feestructuredomain.ErrInvalidComponent
		}
	}

	if err := db.WithContext(ctx).Create(structure).Error; err != nil {
		return err
	}
	// A new structure supersedes whatever the cache holds for its scope.
	r.latest.Invalidate(scopeKey(structure.SchoolID, structure.Grade, structure.AcademicYear))
	return nil
}

func (r *RepositoryImpl) List(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, academicYear string) ([]feestructuredomain.FeeStructure, error) {
	query := db.WithContext(ctx).Where("school_id = ?", schoolID)
	if academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}
	var structures []feestructuredomain.FeeStructure
	if err := query.Order("grade, created_at DESC").Find(&structures).Error; err != nil {
		return nil, err
	}
	return structures, nil
}
