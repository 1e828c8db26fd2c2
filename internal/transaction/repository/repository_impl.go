package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	transactiondomain "github.com/schoolworks/feeledger/internal/transaction/domain"
	"gorm.io/gorm"
)

type RepositoryImpl struct{}

func Provide() transactiondomain.Repository {
	return &RepositoryImpl{}
}

func (r *RepositoryImpl) Insert(ctx context.Context, db *gorm.DB, txn *transactiondomain.FeeTransaction) error {
	return db.WithContext(ctx).Create(txn).Error
}

func (r *RepositoryImpl) ListRecent(ctx context.Context, db *gorm.DB, studentID snowflake.ID, limit int) ([]transactiondomain.FeeTransaction, error) {
	if limit <= 0 {
		limit = 10
	}
	var txns []transactiondomain.FeeTransaction
	err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *RepositoryImpl) ListBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, from, to time.Time) ([]transactiondomain.FeeTransaction, error) {
	var txns []transactiondomain.FeeTransaction
	err := db.WithContext(ctx).
		Where("school_id = ? AND created_at >= ? AND created_at < ?", schoolID, from, to).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
