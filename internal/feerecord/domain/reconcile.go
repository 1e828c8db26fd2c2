package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SyncWithStructure rebuilds the ledger in place against a newer fee
// structure. Paid monthly slots and paid one-time fees are carried
// forward untouched in status (paid slots normalize paidAmount to their
// due amount); everything unpaid regenerates from the new schedule, so a
// mid-year fee revision lands on outstanding obligations immediately but
// never rewrites settled history.
func (r *StudentFeeRecord) SyncWithStructure(
	structureID snowflake.ID,
	monthlyTotal int64,
	dueDay int,
	newOneTimeFees []OneTimeFee,
	now time.Time,
) {
	newSlots := GenerateMonthlySchedule(monthlyTotal, r.AcademicYear, dueDay, r.StartMonth)
	for i := range newSlots {
		old := r.MonthlySlot(newSlots[i].Month)
		if old == nil || old.Status != StatusPaid {
			continue
		}
		kept := *old
		kept.PaidAmount = kept.DueAmount
		newSlots[i] = kept
	}

	// The yearly total always reflects the new structure, even where an
	// old paid fee with a different amount is carried forward.
	var oneTimeTotal int64
	fees := make([]OneTimeFee, 0, len(newOneTimeFees))
	for _, fee := range newOneTimeFees {
		oneTimeTotal += fee.DueAmount
		if old := r.OneTimeFeeByType(fee.FeeType); old != nil && old.Status == StatusPaid {
			fees = append(fees, *old)
			continue
		}
		fee.Status = StatusPending
		fee.PaidAmount = 0
		fees = append(fees, fee)
	}

	r.MonthlyPayments = newSlots
	r.OneTimeFees = fees
	r.FeeStructureID = structureID
	r.TotalFeeAmount = monthlyTotal + oneTimeTotal
	r.Recompute(now)
}
