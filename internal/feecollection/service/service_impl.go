package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/schoolworks/feeledger/internal/academic"
	"github.com/schoolworks/feeledger/internal/auditcontext"
	"github.com/schoolworks/feeledger/internal/clock"
	"github.com/schoolworks/feeledger/internal/config"
	feecollectiondomain "github.com/schoolworks/feeledger/internal/feecollection/domain"
	feerecorddomain "github.com/schoolworks/feeledger/internal/feerecord/domain"
	feestructuredomain "github.com/schoolworks/feeledger/internal/feestructure/domain"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
	transactiondomain "github.com/schoolworks/feeledger/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Cfg           config.Config
	StudentRepo   studentdomain.Repository
	StructureRepo feestructuredomain.Repository
	RecordRepo    feerecorddomain.Repository
	TxnRepo       transactiondomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	cfg           config.Config
	studentRepo   studentdomain.Repository
	structureRepo feestructuredomain.Repository
	recordRepo    feerecorddomain.Repository
	txnRepo       transactiondomain.Repository
}

func NewService(p Params) feecollectiondomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("feecollection.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		cfg:           p.Cfg,
		studentRepo:   p.StudentRepo,
		structureRepo: p.StructureRepo,
		recordRepo:    p.RecordRepo,
		txnRepo:       p.TxnRepo,
	}
}

// ledgerView bundles everything a ledger operation needs after loading.
type ledgerView struct {
	student   *studentdomain.Student
	structure *feestructuredomain.FeeStructure
	record    *feerecorddomain.StudentFeeRecord
}

// loadLedger resolves the academic year, enforces the school boundary,
// and loads (lazily creating) the student's ledger for the year. When the
// ledger references a superseded fee structure it is re-synchronized; with
// persist false the sync happens only on the in-memory copy so read paths
// stay side-effect free.
func (s *Service) loadLedger(ctx context.Context, tx *gorm.DB, studentID, schoolID snowflake.ID, academicYear string, persist bool) (*ledgerView, error) {
	now := s.clock.Now()
	if academicYear == "" {
		academicYear = academic.Current(now, s.cfg.AcademicYearStartMonth)
	}
	if err := academic.Validate(academicYear); err != nil {
		return nil, err
	}

	student, err := s.studentRepo.FindInSchool(ctx, tx, studentID, schoolID)
	if err != nil {
		return nil, err
	}

	structure, err := s.structureRepo.FindLatestActive(ctx, tx, schoolID, student.Grade, academicYear)
	if err != nil {
		return nil, err
	}

	record, err := s.recordRepo.FindByStudentYear(ctx, tx, studentID, academicYear)
	switch {
	case err == nil:
	case errors.Is(err, feerecorddomain.ErrRecordNotFound):
		record, err = s.createRecord(ctx, tx, student, structure, academicYear, persist, now)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if record.FeeStructureID != structure.ID {
		record.SyncWithStructure(structure.ID, structure.MonthlyAmount*12, structure.DueDay, oneTimeFeesFrom(structure), now)
		if persist {
			if err := s.recordRepo.Save(ctx, tx, record); err != nil {
				return nil, err
			}
			record, err = s.recordRepo.FindByID(ctx, tx, record.ID)
			if err != nil {
				return nil, feecollectiondomain.ErrRecordReload
			}
		}
	}

	return &ledgerView{student: student, structure: structure, record: record}, nil
}

func (s *Service) createRecord(
	ctx context.Context,
	tx *gorm.DB,
	student *studentdomain.Student,
	structure *feestructuredomain.FeeStructure,
	academicYear string,
	persist bool,
	now time.Time,
) (*feerecorddomain.StudentFeeRecord, error) {
	record, err := feerecorddomain.NewStudentFeeRecord(
		s.genID.Generate(),
		student.ID,
		student.SchoolID,
		student.Grade,
		academicYear,
		structure.ID,
		structure.MonthlyAmount*12,
		oneTimeFeesFrom(structure),
		structure.DueDay,
		s.cfg.AcademicYearStartMonth,
		now,
	)
	if err != nil {
		return nil, err
	}
	if !persist {
		return record, nil
	}

	err = s.recordRepo.Create(ctx, tx, record)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, feerecorddomain.ErrRecordAlreadyExists) {
		// Lost the creation race to a concurrent caller; theirs wins.
		return s.recordRepo.FindByStudentYear(ctx, tx, student.ID, academicYear)
	}
	return nil, err
}

func oneTimeFeesFrom(structure *feestructuredomain.FeeStructure) []feerecorddomain.OneTimeFee {
	components := structure.OneTimeComponents()
	fees := make([]feerecorddomain.OneTimeFee, 0, len(components))
	for _, c := range components {
		fees = append(fees, feerecorddomain.OneTimeFee{
			FeeType:   c.FeeType,
			DueAmount: c.Amount,
			Status:    feerecorddomain.StatusPending,
		})
	}
	return fees
}

func (s *Service) GetStudentFeeStatus(ctx context.Context, studentID, schoolID snowflake.ID, academicYear string) (*feecollectiondomain.StudentFeeStatus, error) {
	view, err := s.loadLedger(ctx, s.db, studentID, schoolID, academicYear, true)
	if err != nil {
		return nil, err
	}

	recent, err := s.txnRepo.ListRecent(ctx, s.db, studentID, 10)
	if err != nil {
		return nil, err
	}

	return &feecollectiondomain.StudentFeeStatus{
		Student:            view.student,
		FeeRecord:          view.record,
		UpcomingDue:        view.record.UpcomingDue(),
		RecentTransactions: recent,
	}, nil
}

func (s *Service) ValidateFeeCollection(ctx context.Context, req feecollectiondomain.ValidateFeeRequest) (*feecollectiondomain.ValidationResult, error) {
	view, err := s.loadLedger(ctx, s.db, req.StudentID, req.SchoolID, req.AcademicYear, false)
	if err != nil {
		return nil, err
	}
	return s.evaluate(view.record, req.Month, req.Amount, req.IncludeLateFee), nil
}

// evaluate runs the business rules against a loaded ledger. Pure: it
// reads the record and the clock, writes nothing.
func (s *Service) evaluate(record *feerecorddomain.StudentFeeRecord, month int, amount int64, includeLateFee bool) *feecollectiondomain.ValidationResult {
	now := s.clock.Now()
	result := &feecollectiondomain.ValidationResult{
		Warnings: []string{},
		Errors:   []string{},
	}

	slot := record.MonthlySlot(month)
	if slot == nil {
		result.Errors = append(result.Errors, fmt.Sprintf("no installment slot for month %d", month))
		return result
	}
	result.MonthlyPayment = slot

	if slot.Status == feerecorddomain.StatusPaid {
		result.Errors = append(result.Errors, fmt.Sprintf("%s is already fully paid", feecollectiondomain.MonthName(month)))
	}
	if slot.Waived || slot.Status == feerecorddomain.StatusWaived {
		result.Errors = append(result.Errors, fmt.Sprintf("%s has been waived", feecollectiondomain.MonthName(month)))
	}

	// First-payment precedence: before any one-time fee has settled, a
	// monthly collection must clear the outstanding one-time balance and
	// still leave something for the month itself.
	outstandingOneTime := record.OutstandingOneTimeTotal()
	isFirstPayment := !record.HasPaidOneTimeFees && outstandingOneTime > 0
	result.IsFirstPayment = isFirstPayment
	if isFirstPayment {
		result.OneTimeFeeAmount = outstandingOneTime
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"first payment must include pending one-time fees totalling %d", outstandingOneTime))
	}

	monthlyExpected := slot.DueAmount - slot.PaidAmount
	if includeLateFee {
		monthlyExpected += slot.LateFee
	}
	result.MonthlyExpectedAmount = monthlyExpected
	result.TotalExpectedAmount = monthlyExpected + result.OneTimeFeeAmount

	if isFirstPayment && amount <= result.OneTimeFeeAmount {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"amount %d is insufficient to cover mandatory one-time fees of %d plus a monthly payment",
			amount, result.OneTimeFeeAmount))
	} else if amount > result.TotalExpectedAmount {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"amount %d exceeds the expected %d; excess will be recorded as overpayment",
			amount, result.TotalExpectedAmount))
	} else if amount < result.TotalExpectedAmount {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"amount %d is below the expected %d; the month will remain partially paid",
			amount, result.TotalExpectedAmount))
	}

	if slot.DueDate.Before(now) && slot.Status != feerecorddomain.StatusPaid {
		days := int(now.Sub(slot.DueDate).Hours() / 24)
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s is %d day(s) overdue", feecollectiondomain.MonthName(month), days))
	}

	targetPos := academic.Position(month, record.StartMonth)
	for i := range record.MonthlyPayments {
		earlier := &record.MonthlyPayments[i]
		if academic.Position(earlier.Month, record.StartMonth) >= targetPos {
			continue
		}
		if earlier.Waived || earlier.Status == feerecorddomain.StatusWaived || earlier.Status == feerecorddomain.StatusPaid {
			continue
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s is still unpaid; collecting out of sequence", feecollectiondomain.MonthName(earlier.Month)))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (s *Service) CollectFee(ctx context.Context, req feecollectiondomain.CollectFeeRequest) (*feecollectiondomain.CollectFeeResponse, error) {
	if req.Amount <= 0 {
		return nil, feecollectiondomain.ErrInvalidAmount
	}
	if !transactiondomain.ValidMethod(req.PaymentMethod) {
		return nil, feecollectiondomain.ErrInvalidPaymentMethod
	}

	var resp *feecollectiondomain.CollectFeeResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view, err := s.loadLedger(ctx, tx, req.StudentID, req.SchoolID, req.AcademicYear, true)
		if err != nil {
			return err
		}
		record := view.record
		now := s.clock.Now()

		result := s.evaluate(record, req.Month, req.Amount, req.IncludeLateFee)
		if !result.Valid {
			return &feecollectiondomain.ValidationError{Messages: result.Errors}
		}

		var oneTimeTotal int64
		if result.IsFirstPayment {
			oneTimeTotal = result.OneTimeFeeAmount
		}
		monthlyAmount := req.Amount - oneTimeTotal
		if monthlyAmount < 0 {
			return feecollectiondomain.ErrInsufficientAmount
		}

		if monthlyAmount > 0 {
			if err := record.RecordPayment(req.Month, monthlyAmount, now); err != nil {
				return err
			}
		}

		var oneTimeTxns []transactiondomain.FeeTransaction
		if result.IsFirstPayment {
			for _, fee := range record.PendingOneTimeFees() {
				outstanding := fee.Outstanding()
				if outstanding == 0 {
					continue
				}
				if err := record.PayOneTimeFee(fee.FeeType, outstanding, now); err != nil {
					return err
				}
				feeType := fee.FeeType
				txn := s.newTransaction(ctx, record, transactiondomain.TypeOneTimeFee, outstanding, req.PaymentMethod, req.CollectedBy, req.Remarks, now)
				txn.FeeType = &feeType
				if err := s.txnRepo.Insert(ctx, tx, txn); err != nil {
					return err
				}
				oneTimeTxns = append(oneTimeTxns, *txn)
			}
		}

		if err := s.recordRepo.Save(ctx, tx, record); err != nil {
			return err
		}

		txnAmount := monthlyAmount
		if txnAmount == 0 {
			txnAmount = req.Amount
		}
		month := req.Month
		monthlyTxn := s.newTransaction(ctx, record, transactiondomain.TypeMonthlyFee, txnAmount, req.PaymentMethod, req.CollectedBy, req.Remarks, now)
		monthlyTxn.Month = &month
		if err := s.txnRepo.Insert(ctx, tx, monthlyTxn); err != nil {
			return err
		}

		resp = &feecollectiondomain.CollectFeeResponse{
			Success:                true,
			Transaction:            monthlyTxn,
			OneTimeFeeTransactions: oneTimeTxns,
			FeeRecord:              record,
			Warnings:               result.Warnings,
			IsFirstPayment:         result.IsFirstPayment,
			TotalOneTimeFeeAmount:  oneTimeTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fee collected",
		zap.String("student_id", req.StudentID.String()),
		zap.Int("month", req.Month),
		zap.Int64("amount", req.Amount),
		zap.Bool("first_payment", resp.IsFirstPayment))
	return resp, nil
}

func (s *Service) CollectOneTimeFee(ctx context.Context, req feecollectiondomain.CollectOneTimeFeeRequest) (*feecollectiondomain.CollectOneTimeFeeResponse, error) {
	if req.Amount <= 0 {
		return nil, feecollectiondomain.ErrInvalidAmount
	}
	if !transactiondomain.ValidMethod(req.PaymentMethod) {
		return nil, feecollectiondomain.ErrInvalidPaymentMethod
	}

	var resp *feecollectiondomain.CollectOneTimeFeeResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view, err := s.loadLedger(ctx, tx, req.StudentID, req.SchoolID, req.AcademicYear, true)
		if err != nil {
			return err
		}
		record := view.record
		now := s.clock.Now()

		fee := record.OneTimeFeeByType(req.FeeType)
		if fee == nil {
			return feerecorddomain.ErrOneTimeFeeNotFound
		}
		if fee.Status == feerecorddomain.StatusPaid {
			return feerecorddomain.ErrOneTimeFeePaid
		}
		if req.Amount > fee.Outstanding() {
			return feecollectiondomain.ErrAmountExceedsBalance
		}

		if err := record.PayOneTimeFee(req.FeeType, req.Amount, now); err != nil {
			return err
		}
		if err := s.recordRepo.Save(ctx, tx, record); err != nil {
			return err
		}

		feeType := req.FeeType
		txn := s.newTransaction(ctx, record, transactiondomain.TypeOneTimeFee, req.Amount, req.PaymentMethod, req.CollectedBy, req.Remarks, now)
		txn.FeeType = &feeType
		if err := s.txnRepo.Insert(ctx, tx, txn); err != nil {
			return err
		}

		resp = &feecollectiondomain.CollectOneTimeFeeResponse{
			Success:     true,
			Transaction: txn,
			FeeRecord:   record,
			OneTimeFee:  record.OneTimeFeeByType(req.FeeType),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) newTransaction(
	ctx context.Context,
	record *feerecorddomain.StudentFeeRecord,
	txnType transactiondomain.TransactionType,
	amount int64,
	method transactiondomain.PaymentMethod,
	collectedBy snowflake.ID,
	remarks string,
	now time.Time,
) *transactiondomain.FeeTransaction {
	audit := datatypes.JSONMap{
		"timestamp": now.Format(time.RFC3339),
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		audit["ip_address"] = ip
	}
	if device := auditcontext.DeviceInfoFromContext(ctx); device != "" {
		audit["device_info"] = device
	}

	return &transactiondomain.FeeTransaction{
		ID:                 s.genID.Generate(),
		ReceiptNo:          uuid.NewString(),
		StudentID:          record.StudentID,
		StudentFeeRecordID: record.ID,
		SchoolID:           record.SchoolID,
		TransactionType:    txnType,
		Amount:             amount,
		PaymentMethod:      method,
		CollectedBy:        collectedBy,
		Remarks:            remarks,
		Status:             "completed",
		AuditLog:           audit,
		CreatedAt:          now,
	}
}
