package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
)

func TestSyncWithStructurePreservesPaidSlots(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, nil, now)

	if err := record.RecordPayment(4, 100000, now); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if err := record.RecordPayment(5, 100000, now); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	// Mid-year revision raises the monthly amount.
	record.SyncWithStructure(snowflake.ID(9), 1800000, 15, nil, now)

	if record.FeeStructureID != snowflake.ID(9) {
		t.Fatalf("expected structure ref updated, got %d", record.FeeStructureID)
	}
	for _, month := range []int{4, 5} {
		slot := record.MonthlySlot(month)
		if slot.Status != StatusPaid {
			t.Fatalf("expected month %d still paid, got %s", month, slot.Status)
		}
		if slot.PaidAmount != slot.DueAmount {
			t.Fatalf("expected paid slot normalized, month %d: paid %d due %d", month, slot.PaidAmount, slot.DueAmount)
		}
	}

	june := record.MonthlySlot(6)
	if june.DueAmount != 150000 {
		t.Fatalf("expected unpaid slot regenerated at 150000, got %d", june.DueAmount)
	}
	if june.Status != StatusPending {
		t.Fatalf("expected unpaid slot reset to pending, got %s", june.Status)
	}
	if got := june.DueDate.Day(); got != 15 {
		t.Fatalf("expected new due day 15, got %d", got)
	}

	if record.TotalFeeAmount != 1800000 {
		t.Fatalf("expected total from new structure, got %d", record.TotalFeeAmount)
	}
	if record.TotalPaidAmount != 200000 {
		t.Fatalf("expected paid history retained, got %d", record.TotalPaidAmount)
	}
}

func TestSyncWithStructureKeepsPaidOneTimeFees(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	fees := []OneTimeFee{
		{FeeType: "admission", DueAmount: 50000},
		{FeeType: "annual_charges", DueAmount: 25000},
	}
	record := testRecord(t, 1200000, fees, now)

	if err := record.PayOneTimeFee("admission", 50000, now); err != nil {
		t.Fatalf("pay admission: %v", err)
	}

	// New structure re-prices both fees and adds a third.
	record.SyncWithStructure(snowflake.ID(9), 1200000, 10, []OneTimeFee{
		{FeeType: "admission", DueAmount: 60000},
		{FeeType: "annual_charges", DueAmount: 30000},
		{FeeType: "lab", DueAmount: 10000},
	}, now)

	admission := record.OneTimeFeeByType("admission")
	if admission.Status != StatusPaid || admission.PaidAmount != 50000 {
		t.Fatalf("expected settled fee untouched, got %+v", admission)
	}
	annual := record.OneTimeFeeByType("annual_charges")
	if annual.Status != StatusPending || annual.DueAmount != 30000 {
		t.Fatalf("expected unpaid fee re-priced, got %+v", annual)
	}
	if record.OneTimeFeeByType("lab") == nil {
		t.Fatalf("expected new fee added")
	}

	// Yearly total always prices against the new structure.
	if record.TotalFeeAmount != 1200000+60000+30000+10000 {
		t.Fatalf("unexpected total %d", record.TotalFeeAmount)
	}
}

func TestSyncWithStructureIsIdempotent(t *testing.T) {
	now := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	record := testRecord(t, 1200000, []OneTimeFee{{FeeType: "admission", DueAmount: 50000}}, now)

	if err := record.RecordPayment(4, 100000, now); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	newFees := []OneTimeFee{{FeeType: "admission", DueAmount: 60000}}
	record.SyncWithStructure(snowflake.ID(9), 1800000, 10, newFees, now)
	first := *record

	record.SyncWithStructure(snowflake.ID(9), 1800000, 10, newFees, now)
	if record.TotalFeeAmount != first.TotalFeeAmount ||
		record.TotalPaidAmount != first.TotalPaidAmount ||
		record.TotalDueAmount != first.TotalDueAmount ||
		record.Status != first.Status {
		t.Fatalf("expected second sync to be a no-op, got %+v vs %+v", record, first)
	}
}
