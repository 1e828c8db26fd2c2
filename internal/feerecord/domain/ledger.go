package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/academic"
)

const monthsPerYear = 12

// NewStudentFeeRecord builds a fresh ledger for one student-year: twelve
// monthly slots from the recurring yearly amount plus the given one-time
// fees. The monthly total splits into equal installments with the
// division remainder carried by the last month, so the slots always sum
// to the structure's intended total.
func NewStudentFeeRecord(
	id snowflake.ID,
	studentID, schoolID snowflake.ID,
	grade, academicYear string,
	feeStructureID snowflake.ID,
	monthlyTotal int64,
	oneTimeFees []OneTimeFee,
	dueDay, startMonth int,
	now time.Time,
) (*StudentFeeRecord, error) {
	if err := academic.Validate(academicYear); err != nil {
		return nil, err
	}
	if startMonth < 1 || startMonth > monthsPerYear {
		startMonth = academic.DefaultStartMonth
	}

	var oneTimeTotal int64
	for i := range oneTimeFees {
		oneTimeFees[i].Status = StatusPending
		oneTimeFees[i].PaidAmount = 0
		oneTimeTotal += oneTimeFees[i].DueAmount
	}

	record := &StudentFeeRecord{
		ID:              id,
		StudentID:       studentID,
		SchoolID:        schoolID,
		Grade:           grade,
		AcademicYear:    academicYear,
		FeeStructureID:  feeStructureID,
		StartMonth:      startMonth,
		TotalFeeAmount:  monthlyTotal + oneTimeTotal,
		MonthlyPayments: GenerateMonthlySchedule(monthlyTotal, academicYear, dueDay, startMonth),
		OneTimeFees:     oneTimeFees,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	record.Recompute(now)
	return record, nil
}

// GenerateMonthlySchedule produces the twelve installment slots in
// academic order starting at startMonth.
func GenerateMonthlySchedule(monthlyTotal int64, academicYear string, dueDay, startMonth int) []MonthlyPayment {
	if dueDay < 1 || dueDay > 31 {
		dueDay = 10
	}
	base := monthlyTotal / monthsPerYear
	last := monthlyTotal - base*(monthsPerYear-1)

	slots := make([]MonthlyPayment, 0, monthsPerYear)
	for i := 0; i < monthsPerYear; i++ {
		month := (startMonth-1+i)%monthsPerYear + 1
		due := base
		if i == monthsPerYear-1 {
			due = last
		}
		slots = append(slots, MonthlyPayment{
			Month:     month,
			DueAmount: due,
			Status:    StatusPending,
			DueDate:   installmentDueDate(academicYear, month, dueDay, startMonth),
		})
	}
	return slots
}

func installmentDueDate(academicYear string, month, dueDay, startMonth int) time.Time {
	year := academic.CalendarYear(academicYear, month, startMonth)
	day := dueDay
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthlySlot returns the slot for a calendar month, or nil.
func (r *StudentFeeRecord) MonthlySlot(month int) *MonthlyPayment {
	for i := range r.MonthlyPayments {
		if r.MonthlyPayments[i].Month == month {
			return &r.MonthlyPayments[i]
		}
	}
	return nil
}

// OneTimeFeeByType returns the one-time fee with the given type, or nil.
func (r *StudentFeeRecord) OneTimeFeeByType(feeType string) *OneTimeFee {
	for i := range r.OneTimeFees {
		if r.OneTimeFees[i].FeeType == feeType {
			return &r.OneTimeFees[i]
		}
	}
	return nil
}

// RecordPayment applies an amount to a monthly slot. Overpayment is not
// bounded here; business-rule amount checks belong to the collection
// service.
func (r *StudentFeeRecord) RecordPayment(month int, amount int64, now time.Time) error {
	slot := r.MonthlySlot(month)
	if slot == nil {
		return ErrInvalidMonth
	}
	if slot.Status == StatusPaid {
		return ErrMonthAlreadyPaid
	}
	if slot.Waived || slot.Status == StatusWaived {
		return ErrMonthWaived
	}

	slot.PaidAmount += amount
	slot.PaidDate = &now
	if slot.PaidAmount >= slot.DueAmount+slot.LateFee {
		slot.Status = StatusPaid
	} else {
		slot.Status = StatusPartial
	}

	r.Recompute(now)
	return nil
}

// ApplyLateFee recomputes the slot's late fee from its due amount. It
// never accumulates: calling it twice with the same percentage yields the
// same fee. Paid and waived slots are untouched.
func (r *StudentFeeRecord) ApplyLateFee(month int, percentage float64, now time.Time) error {
	slot := r.MonthlySlot(month)
	if slot == nil {
		return ErrInvalidMonth
	}
	if slot.Status == StatusPaid || slot.Status == StatusWaived || slot.Waived {
		return nil
	}
	if !now.After(slot.DueDate) {
		return nil
	}

	slot.LateFee = int64(math.Round(float64(slot.DueAmount) * percentage / 100))
	slot.Status = StatusOverdue
	r.Recompute(now)
	return nil
}

// WaiveFee forgives a monthly slot's remaining balance. Amounts already
// paid stay on the slot and keep counting toward the paid total.
func (r *StudentFeeRecord) WaiveFee(month int, reason, waivedBy string, now time.Time) error {
	slot := r.MonthlySlot(month)
	if slot == nil {
		return ErrInvalidMonth
	}

	slot.Waived = true
	slot.WaiverReason = reason
	slot.WaiverBy = waivedBy
	slot.WaiverDate = &now
	slot.Status = StatusWaived
	r.Recompute(now)
	return nil
}

// WaiveOneTimeFee forgives a one-time fee's remaining balance.
func (r *StudentFeeRecord) WaiveOneTimeFee(feeType, reason, waivedBy string, now time.Time) error {
	fee := r.OneTimeFeeByType(feeType)
	if fee == nil {
		return ErrOneTimeFeeNotFound
	}

	fee.Waived = true
	fee.WaiverReason = reason
	fee.WaiverBy = waivedBy
	fee.WaiverDate = &now
	fee.Status = StatusWaived
	r.Recompute(now)
	return nil
}

// PayOneTimeFee applies an amount to a one-time fee. Callers bound the
// amount against the outstanding balance.
func (r *StudentFeeRecord) PayOneTimeFee(feeType string, amount int64, now time.Time) error {
	fee := r.OneTimeFeeByType(feeType)
	if fee == nil {
		return ErrOneTimeFeeNotFound
	}
	if fee.Status == StatusPaid {
		return ErrOneTimeFeePaid
	}

	fee.PaidAmount += amount
	fee.PaidDate = &now
	if fee.PaidAmount >= fee.DueAmount {
		fee.Status = StatusPaid
	} else {
		fee.Status = StatusPartial
	}

	r.refreshOneTimeFlag()
	r.Recompute(now)
	return nil
}

// OverdueMonths lists slots past due that are neither paid nor waived.
func (r *StudentFeeRecord) OverdueMonths(now time.Time) []MonthlyPayment {
	var overdue []MonthlyPayment
	for _, slot := range r.MonthlyPayments {
		if slot.Status == StatusPaid || slot.Status == StatusWaived || slot.Waived {
			continue
		}
		if slot.DueDate.Before(now) {
			overdue = append(overdue, slot)
		}
	}
	return overdue
}

// UpcomingDue returns the first unpaid, unwaived slot in academic order.
func (r *StudentFeeRecord) UpcomingDue() *MonthlyPayment {
	for i := range r.MonthlyPayments {
		slot := &r.MonthlyPayments[i]
		if slot.Status == StatusPaid || slot.Status == StatusWaived || slot.Waived {
			continue
		}
		return slot
	}
	return nil
}

// OutstandingOneTimeTotal sums unpaid balances of unwaived one-time fees.
func (r *StudentFeeRecord) OutstandingOneTimeTotal() int64 {
	var total int64
	for i := range r.OneTimeFees {
		fee := &r.OneTimeFees[i]
		if fee.Status == StatusPaid || fee.Status == StatusWaived || fee.Waived {
			continue
		}
		total += fee.Outstanding()
	}
	return total
}

// PendingOneTimeFees lists one-time fees that still carry a balance.
func (r *StudentFeeRecord) PendingOneTimeFees() []OneTimeFee {
	var pending []OneTimeFee
	for _, fee := range r.OneTimeFees {
		if fee.Status == StatusPaid || fee.Status == StatusWaived || fee.Waived {
			continue
		}
		pending = append(pending, fee)
	}
	return pending
}

func (r *StudentFeeRecord) refreshOneTimeFlag() {
	if len(r.OneTimeFees) == 0 {
		return
	}
	for i := range r.OneTimeFees {
		fee := &r.OneTimeFees[i]
		if fee.Waived || fee.Status == StatusWaived {
			continue
		}
		if fee.Status != StatusPaid {
			return
		}
	}
	r.HasPaidOneTimeFees = true
}

// Recompute derives the aggregate totals and record status from the line
// items. Every persistence path runs it; input totals are never trusted.
func (r *StudentFeeRecord) Recompute(now time.Time) {
	var paid int64
	for i := range r.MonthlyPayments {
		paid += r.MonthlyPayments[i].PaidAmount
	}
	for i := range r.OneTimeFees {
		paid += r.OneTimeFees[i].PaidAmount
	}

	r.TotalPaidAmount = paid
	due := r.TotalFeeAmount - paid
	if due < 0 {
		due = 0
	}
	r.TotalDueAmount = due

	switch {
	case r.TotalDueAmount == 0:
		r.Status = StatusPaid
	case r.TotalPaidAmount > 0:
		r.Status = StatusPartial
	case r.hasOverdueSlot(now):
		r.Status = StatusOverdue
	default:
		r.Status = StatusPending
	}
	r.UpdatedAt = now
}

func (r *StudentFeeRecord) hasOverdueSlot(now time.Time) bool {
	for i := range r.MonthlyPayments {
		slot := &r.MonthlyPayments[i]
		if slot.Waived || slot.Status == StatusWaived || slot.Status == StatusPaid {
			continue
		}
		if slot.DueDate.Before(now) {
			return true
		}
	}
	return false
}
