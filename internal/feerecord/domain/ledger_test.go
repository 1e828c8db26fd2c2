package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
)

func testRecord(t *testing.T, monthlyTotal int64, oneTimeFees []OneTimeFee, now time.Time) *StudentFeeRecord {
	t.Helper()
	record, err := NewStudentFeeRecord(
		snowflake.ID(1), snowflake.ID(2), snowflake.ID(3),
		"5", "2024-2025", snowflake.ID(4),
		monthlyTotal, oneTimeFees, 10, 4, now,
	)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return record
}

func TestGenerateMonthlyScheduleAprilStart(t *testing.T) {
	slots := GenerateMonthlySchedule(1200000, "2024-2025", 10, 4)
	if len(slots) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(slots))
	}
	if slots[0].Month != 4 {
		t.Fatalf("expected first slot in April, got month %d", slots[0].Month)
	}
	if slots[11].Month != 3 {
		t.Fatalf("expected last slot in March, got month %d", slots[11].Month)
	}
	if got := slots[0].DueDate; !got.Equal(time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected April 10 2024 due date, got %v", got)
	}
	// Months past December land in the second calendar year.
	if got := slots[9].DueDate; !got.Equal(time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected January 10 2025 due date, got %v", got)
	}
	for _, slot := range slots {
		if slot.DueAmount != 100000 {
			t.Fatalf("expected even installment 100000 for month %d, got %d", slot.Month, slot.DueAmount)
		}
		if slot.Status != StatusPending {
			t.Fatalf("expected pending slot, got %s", slot.Status)
		}
	}
}

func TestGenerateMonthlyScheduleRemainderOnLastMonth(t *testing.T) {
	slots := GenerateMonthlySchedule(1000, "2024-2025", 10, 4)
	var sum int64
	for _, slot := range slots {
		sum += slot.DueAmount
	}
	if sum != 1000 {
		t.Fatalf("expected installments to sum to 1000, got %d", sum)
	}
	if slots[0].DueAmount != 83 {
		t.Fatalf("expected base installment 83, got %d", slots[0].DueAmount)
	}
	if slots[11].DueAmount != 87 {
		t.Fatalf("expected remainder 87 on last month, got %d", slots[11].DueAmount)
	}
}

func TestGenerateMonthlyScheduleClampsDueDay(t *testing.T) {
	// Day 31 does not exist in February; clamp to the month's last day.
	slots := GenerateMonthlySchedule(1200, "2024-2025", 31, 4)
	for _, slot := range slots {
		if slot.Month == 2 {
			if got := slot.DueDate.Day(); got != 28 {
				t.Fatalf("expected February due date clamped to 28, got %d", got)
			}
		}
	}

	// Out-of-range due day falls back to 10.
	slots = GenerateMonthlySchedule(1200, "2024-2025", 99, 4)
	if got := slots[0].DueDate.Day(); got != 10 {
		t.Fatalf("expected fallback due day 10, got %d", got)
	}
}

func TestRecordPaymentTransitions(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	if err := record.RecordPayment(4, 40000, now); err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	slot := record.MonthlySlot(4)
	if slot.Status != StatusPartial {
		t.Fatalf("expected partial after underpayment, got %s", slot.Status)
	}

	if err := record.RecordPayment(4, 60000, now); err != nil {
		t.Fatalf("completing payment: %v", err)
	}
	if slot.Status != StatusPaid {
		t.Fatalf("expected paid after exact completion, got %s", slot.Status)
	}

	if err := record.RecordPayment(4, 1, now); !errors.Is(err, ErrMonthAlreadyPaid) {
		t.Fatalf("expected ErrMonthAlreadyPaid, got %v", err)
	}
	if err := record.RecordPayment(13, 1, now); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if err := record.WaiveFee(5, "hardship", "principal", now); err != nil {
		t.Fatalf("waive fee: %v", err)
	}
	if err := record.RecordPayment(5, 1, now); !errors.Is(err, ErrMonthWaived) {
		t.Fatalf("expected ErrMonthWaived, got %v", err)
	}

	if record.TotalPaidAmount != 100000 {
		t.Fatalf("expected total paid 100000, got %d", record.TotalPaidAmount)
	}
	if record.TotalDueAmount != 1100000 {
		t.Fatalf("expected total due 1100000, got %d", record.TotalDueAmount)
	}
	if record.Status != StatusPartial {
		t.Fatalf("expected record partial, got %s", record.Status)
	}
}

func TestPaymentMustCoverLateFee(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	afterDue := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	if err := record.ApplyLateFee(4, 5, afterDue); err != nil {
		t.Fatalf("apply late fee: %v", err)
	}
	slot := record.MonthlySlot(4)
	if slot.LateFee != 5000 {
		t.Fatalf("expected late fee 5000, got %d", slot.LateFee)
	}

	// Paying only the base amount leaves the late fee outstanding.
	if err := record.RecordPayment(4, 100000, afterDue); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if slot.Status != StatusPartial {
		t.Fatalf("expected partial while late fee unpaid, got %s", slot.Status)
	}
	if err := record.RecordPayment(4, 5000, afterDue); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if slot.Status != StatusPaid {
		t.Fatalf("expected paid once late fee covered, got %s", slot.Status)
	}
}

func TestApplyLateFeeDoesNotAccumulate(t *testing.T) {
	now := time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	if err := record.ApplyLateFee(4, 10, now); err != nil {
		t.Fatalf("apply late fee: %v", err)
	}
	if err := record.ApplyLateFee(4, 10, now); err != nil {
		t.Fatalf("re-apply late fee: %v", err)
	}
	slot := record.MonthlySlot(4)
	if slot.LateFee != 10000 {
		t.Fatalf("expected late fee recomputed to 10000, got %d", slot.LateFee)
	}
	if slot.Status != StatusOverdue {
		t.Fatalf("expected overdue, got %s", slot.Status)
	}
}

func TestApplyLateFeeSkipsBeforeDueDate(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	if err := record.ApplyLateFee(4, 10, now); err != nil {
		t.Fatalf("apply late fee: %v", err)
	}
	slot := record.MonthlySlot(4)
	if slot.LateFee != 0 {
		t.Fatalf("expected no late fee before due date, got %d", slot.LateFee)
	}
	if slot.Status != StatusPending {
		t.Fatalf("expected pending, got %s", slot.Status)
	}
}

func TestWaivedMonthNeverOverdue(t *testing.T) {
	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, start)

	if err := record.WaiveFee(4, "hardship", "principal", start); err != nil {
		t.Fatalf("waive fee: %v", err)
	}

	// Well past every due date of the first few months.
	later := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	for _, slot := range record.OverdueMonths(later) {
		if slot.Month == 4 {
			t.Fatalf("waived month reported overdue")
		}
	}

	// Late fees skip waived slots too.
	if err := record.ApplyLateFee(4, 10, later); err != nil {
		t.Fatalf("apply late fee: %v", err)
	}
	if got := record.MonthlySlot(4).LateFee; got != 0 {
		t.Fatalf("expected waived slot untouched, got late fee %d", got)
	}
}

func TestWaiveKeepsPaidAmount(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	if err := record.RecordPayment(4, 30000, now); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if err := record.WaiveFee(4, "hardship", "principal", now); err != nil {
		t.Fatalf("waive fee: %v", err)
	}

	slot := record.MonthlySlot(4)
	if slot.Status != StatusWaived {
		t.Fatalf("expected waived, got %s", slot.Status)
	}
	if slot.PaidAmount != 30000 {
		t.Fatalf("expected paid amount retained, got %d", slot.PaidAmount)
	}
	if record.TotalPaidAmount != 30000 {
		t.Fatalf("expected paid amount in total, got %d", record.TotalPaidAmount)
	}
}

func TestUpcomingDueFollowsAcademicOrder(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	if got := record.UpcomingDue(); got == nil || got.Month != 4 {
		t.Fatalf("expected April upcoming, got %+v", got)
	}
	if err := record.RecordPayment(4, 100000, now); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if got := record.UpcomingDue(); got == nil || got.Month != 5 {
		t.Fatalf("expected May upcoming after April paid, got %+v", got)
	}
	if err := record.WaiveFee(5, "hardship", "principal", now); err != nil {
		t.Fatalf("waive fee: %v", err)
	}
	if got := record.UpcomingDue(); got == nil || got.Month != 6 {
		t.Fatalf("expected June upcoming after May waived, got %+v", got)
	}
}

func TestOneTimeFeeSettlement(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	fees := []OneTimeFee{
		{FeeType: "admission", DueAmount: 50000},
		{FeeType: "annual_charges", DueAmount: 25000},
	}
	record := testRecord(t, 1200000, fees, now)

	if record.TotalFeeAmount != 1275000 {
		t.Fatalf("expected total 1275000, got %d", record.TotalFeeAmount)
	}
	if record.HasPaidOneTimeFees {
		t.Fatalf("expected one-time flag unset on fresh record")
	}
	if got := record.OutstandingOneTimeTotal(); got != 75000 {
		t.Fatalf("expected outstanding one-time 75000, got %d", got)
	}

	if err := record.PayOneTimeFee("admission", 50000, now); err != nil {
		t.Fatalf("pay admission: %v", err)
	}
	if record.HasPaidOneTimeFees {
		t.Fatalf("flag must wait for all one-time fees")
	}
	if err := record.PayOneTimeFee("annual_charges", 25000, now); err != nil {
		t.Fatalf("pay annual: %v", err)
	}
	if !record.HasPaidOneTimeFees {
		t.Fatalf("expected one-time flag set after both fees settle")
	}

	if err := record.PayOneTimeFee("admission", 1, now); !errors.Is(err, ErrOneTimeFeePaid) {
		t.Fatalf("expected ErrOneTimeFeePaid, got %v", err)
	}
	if err := record.PayOneTimeFee("transport", 1, now); !errors.Is(err, ErrOneTimeFeeNotFound) {
		t.Fatalf("expected ErrOneTimeFeeNotFound, got %v", err)
	}
}

func TestHasPaidOneTimeFlagSurvivesStateChanges(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	fees := []OneTimeFee{{FeeType: "admission", DueAmount: 50000}}
	record := testRecord(t, 1200000, fees, now)

	if err := record.PayOneTimeFee("admission", 50000, now); err != nil {
		t.Fatalf("pay admission: %v", err)
	}
	if !record.HasPaidOneTimeFees {
		t.Fatalf("expected flag set")
	}

	// Later monthly activity must not clear the flag.
	if err := record.RecordPayment(4, 100000, now); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if !record.HasPaidOneTimeFees {
		t.Fatalf("flag must be sticky")
	}
}

func TestRecomputeInvariants(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, []OneTimeFee{{FeeType: "admission", DueAmount: 50000}}, now)

	// Tampered totals are recomputed from line items on every pass.
	record.TotalPaidAmount = 999999
	record.TotalDueAmount = -5
	record.Recompute(now)
	if record.TotalPaidAmount != 0 {
		t.Fatalf("expected paid recomputed to 0, got %d", record.TotalPaidAmount)
	}
	if record.TotalDueAmount != 1250000 {
		t.Fatalf("expected due recomputed to 1250000, got %d", record.TotalDueAmount)
	}
	if record.Status != StatusPending {
		t.Fatalf("expected pending, got %s", record.Status)
	}

	// A past-due unwaived slot flips the record to overdue when unpaid.
	record.Recompute(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	if record.Status != StatusOverdue {
		t.Fatalf("expected overdue after due date passes, got %s", record.Status)
	}
}

func TestNewStudentFeeRecordRejectsBadYear(t *testing.T) {
	_, err := NewStudentFeeRecord(
		snowflake.ID(1), snowflake.ID(2), snowflake.ID(3),
		"5", "2024", snowflake.ID(4),
		1200, nil, 10, 4, time.Now(),
	)
	if err == nil {
		t.Fatalf("expected error for malformed academic year")
	}
}
