package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/clock"
	defaulterdomain "github.com/schoolworks/feeledger/internal/defaulter/domain"
	feerecorddomain "github.com/schoolworks/feeledger/internal/feerecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultGracePeriodDays = 7

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	RecordRepo feerecorddomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	recordRepo feerecorddomain.Repository
}

func NewService(p Params) defaulterdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("defaulter.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		recordRepo: p.RecordRepo,
	}
}

func (s *Service) SyncDefaultersForSchool(ctx context.Context, schoolID snowflake.ID, gracePeriodDays int) (defaulterdomain.SyncResult, error) {
	if gracePeriodDays <= 0 {
		gracePeriodDays = defaultGracePeriodDays
	}
	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -gracePeriodDays)

	records, err := s.recordRepo.ListBySchool(ctx, s.db, schoolID, "")
	if err != nil {
		return defaulterdomain.SyncResult{}, err
	}

	var result defaulterdomain.SyncResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keepRecordIDs := make([]snowflake.ID, 0, len(records))
		for i := range records {
			record := &records[i]
			row, qualifies := s.buildDefaulter(record, cutoff, now)
			if !qualifies {
				continue
			}
			keepRecordIDs = append(keepRecordIDs, record.ID)
			if err := s.upsert(ctx, tx, row); err != nil {
				return err
			}
			result.Synced++
		}

		removed, err := s.deleteCleared(ctx, tx, schoolID, keepRecordIDs)
		if err != nil {
			return err
		}
		result.Removed = removed
		return nil
	})
	if err != nil {
		return defaulterdomain.SyncResult{}, err
	}

	s.log.Info("defaulter sync completed",
		zap.String("school_id", schoolID.String()),
		zap.Int("synced", result.Synced),
		zap.Int("removed", result.Removed))
	return result, nil
}

// buildDefaulter evaluates one ledger against the grace cutoff. A ledger
// qualifies when at least one unwaived pending or partial slot fell due
// before the cutoff.
func (s *Service) buildDefaulter(record *feerecorddomain.StudentFeeRecord, cutoff, now time.Time) (*defaulterdomain.FeeDefaulter, bool) {
	var (
		months   []int
		totalDue int64
		firstDue time.Time
	)
	for i := range record.MonthlyPayments {
		slot := &record.MonthlyPayments[i]
		if slot.Waived || slot.Status == feerecorddomain.StatusWaived {
			continue
		}
		if slot.Status != feerecorddomain.StatusPending &&
			slot.Status != feerecorddomain.StatusPartial &&
			slot.Status != feerecorddomain.StatusOverdue {
			continue
		}
		if !slot.DueDate.Before(cutoff) {
			continue
		}
		months = append(months, slot.Month)
		totalDue += slot.DueAmount - slot.PaidAmount + slot.LateFee
		if firstDue.IsZero() || slot.DueDate.Before(firstDue) {
			firstDue = slot.DueDate
		}
	}
	if len(months) == 0 {
		return nil, false
	}

	return &defaulterdomain.FeeDefaulter{
		ID:                 s.genID.Generate(),
		StudentID:          record.StudentID,
		StudentFeeRecordID: record.ID,
		SchoolID:           record.SchoolID,
		Grade:              record.Grade,
		TotalDueAmount:     totalDue,
		OverdueMonths:      months,
		DaysSinceFirstDue:  int(now.Sub(firstDue).Hours() / 24),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, true
}

// upsert writes the derived columns but leaves reminder history
// (notification_count, last_reminder_date) untouched across re-syncs.
func (s *Service) upsert(ctx context.Context, tx *gorm.DB, row *defaulterdomain.FeeDefaulter) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "student_fee_record_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"school_id", "grade", "total_due_amount", "overdue_months",
			"days_since_first_due", "updated_at",
		}),
	}).Create(row).Error
}

func (s *Service) deleteCleared(ctx context.Context, tx *gorm.DB, schoolID snowflake.ID, keepRecordIDs []snowflake.ID) (int, error) {
	query := tx.WithContext(ctx).Where("school_id = ?", schoolID)
	if len(keepRecordIDs) > 0 {
		query = query.Where("student_fee_record_id NOT IN ?", keepRecordIDs)
	}
	result := query.Delete(&defaulterdomain.FeeDefaulter{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (s *Service) RecordReminder(ctx context.Context, defaulterID snowflake.ID) error {
	now := s.clock.Now()
	return s.db.WithContext(ctx).
		Model(&defaulterdomain.FeeDefaulter{}).
		Where("id = ?", defaulterID).
		Updates(map[string]any{
			"notification_count": gorm.Expr("notification_count + 1"),
			"last_reminder_date": now,
			"updated_at":         now,
		}).Error
}
