package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/academic"
	defaulterdomain "github.com/schoolworks/feeledger/internal/defaulter/domain"
	feecollectiondomain "github.com/schoolworks/feeledger/internal/feecollection/domain"
	feerecorddomain "github.com/schoolworks/feeledger/internal/feerecord/domain"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
	transactiondomain "github.com/schoolworks/feeledger/internal/transaction/domain"
)

// Report queries are read-only projections over the ledger's derived
// fields and the transaction log; none of them mutate anything.

func (s *Service) GetAccountantDashboard(ctx context.Context, schoolID snowflake.ID) (*feecollectiondomain.AccountantDashboard, error) {
	now := s.clock.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	today, err := s.sumCollected(ctx, schoolID, startOfDay, now)
	if err != nil {
		return nil, err
	}
	month, err := s.sumCollected(ctx, schoolID, startOfMonth, now)
	if err != nil {
		return nil, err
	}

	var outstanding int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_due_amount), 0)
		 FROM student_fee_records
		 WHERE school_id = ?`,
		schoolID,
	).Scan(&outstanding).Error; err != nil {
		return nil, err
	}

	var defaulters int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM fee_defaulters WHERE school_id = ?`,
		schoolID,
	).Scan(&defaulters).Error; err != nil {
		return nil, err
	}

	var recent []transactiondomain.FeeTransaction
	if err := s.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("created_at DESC, id DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	return &feecollectiondomain.AccountantDashboard{
		TodayCollection:    today,
		MonthCollection:    month,
		TotalOutstanding:   outstanding,
		DefaulterCount:     defaulters,
		RecentTransactions: recent,
	}, nil
}

func (s *Service) sumCollected(ctx context.Context, schoolID snowflake.ID, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM fee_transactions
		 WHERE school_id = ? AND created_at >= ? AND created_at <= ?`,
		schoolID, from, to,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) GetFinancialReports(ctx context.Context, schoolID snowflake.ID, from, to time.Time) (*feecollectiondomain.FinancialReport, error) {
	txns, err := s.txnRepo.ListBySchool(ctx, s.db, schoolID, from, to)
	if err != nil {
		return nil, err
	}

	report := &feecollectiondomain.FinancialReport{
		From:     from,
		To:       to,
		ByMethod: map[string]int64{},
		ByType:   map[string]int64{},
	}
	daily := map[string]int64{}
	for _, txn := range txns {
		report.TotalCollected += txn.Amount
		report.ByMethod[string(txn.PaymentMethod)] += txn.Amount
		report.ByType[string(txn.TransactionType)] += txn.Amount
		daily[txn.CreatedAt.UTC().Format("2006-01-02")] += txn.Amount
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		report.Daily = append(report.Daily, feecollectiondomain.DailyCollection{Date: day, Amount: daily[day]})
	}
	return report, nil
}

func (s *Service) GetDefaulters(ctx context.Context, schoolID snowflake.ID) ([]feecollectiondomain.DefaulterRow, error) {
	var defaulters []defaulterdomain.FeeDefaulter
	if err := s.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("total_due_amount DESC").
		Find(&defaulters).Error; err != nil {
		return nil, err
	}
	if len(defaulters) == 0 {
		return []feecollectiondomain.DefaulterRow{}, nil
	}

	studentIDs := make([]snowflake.ID, 0, len(defaulters))
	for _, d := range defaulters {
		studentIDs = append(studentIDs, d.StudentID)
	}
	var students []studentdomain.Student
	if err := s.db.WithContext(ctx).
		Where("id IN ?", studentIDs).
		Find(&students).Error; err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]studentdomain.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	rows := make([]feecollectiondomain.DefaulterRow, 0, len(defaulters))
	for _, d := range defaulters {
		st := byID[d.StudentID]
		name := st.FirstName
		if st.LastName != "" {
			name += " " + st.LastName
		}
		rows = append(rows, feecollectiondomain.DefaulterRow{
			StudentID:         d.StudentID,
			StudentName:       name,
			Grade:             d.Grade,
			Section:           st.Section,
			TotalDueAmount:    d.TotalDueAmount,
			OverdueMonths:     d.OverdueMonths,
			DaysSinceFirstDue: d.DaysSinceFirstDue,
			NotificationCount: d.NotificationCount,
		})
	}
	return rows, nil
}

func (s *Service) GetStudentsByGradeSection(ctx context.Context, schoolID snowflake.ID, grade, section, academicYear string) ([]feecollectiondomain.StudentFeeSummary, error) {
	if academicYear == "" {
		academicYear = academic.Current(s.clock.Now(), s.cfg.AcademicYearStartMonth)
	}
	if err := academic.Validate(academicYear); err != nil {
		return nil, err
	}

	students, err := s.studentRepo.ListByGradeSection(ctx, s.db, schoolID, grade, section)
	if err != nil {
		return nil, err
	}
	records, err := s.recordRepo.ListBySchool(ctx, s.db, schoolID, academicYear)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[snowflake.ID]*feerecorddomain.StudentFeeRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}

	summaries := make([]feecollectiondomain.StudentFeeSummary, 0, len(students))
	for _, st := range students {
		summary := feecollectiondomain.StudentFeeSummary{
			Student: st,
			Status:  feerecorddomain.StatusPending,
		}
		if record, ok := byStudent[st.ID]; ok {
			summary.Status = record.Status
			summary.TotalDueAmount = record.TotalDueAmount
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
