package jobs

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/utils"
)

// DeleteAbandonedReservations removes PENDING_PAYMENT reservations older
// than the configured abandon window. Stock was never debited for them.
func (jr *JobRunner) DeleteAbandonedReservations() {
	jr.runWithRecovery("DeleteAbandonedReservations", func() {
		ctx := context.Background()
		cutoff := jr.now().Add(-jr.config.AbandonAfter())

		ids, err := jr.reservations.ListIDsCreatedBefore(ctx, domain.ReservationStatePendingPayment, cutoff)
		if err != nil {
			logger.Error("Failed to list abandoned reservations", "error", err)
			return
		}

		count := jr.sweep(ids, "abandoned", func(id int32) (bool, error) {
			return jr.service.DeleteAbandoned(ctx, id, cutoff)
		})
		logger.Info("Deleted abandoned reservations", "count", count, "candidates", len(ids), "cutoff", cutoff)
	})
}

// LapseConfirmedReservations finalizes confirmed reservations whose window
// ended without a pickup and returns their units to stock.
func (jr *JobRunner) LapseConfirmedReservations() {
	jr.runWithRecovery("LapseConfirmedReservations", func() {
		jr.lapse(domain.ReservationStateConfirmed)
	})
}

// MarkNotReturnedReservations flags delivered reservations past their end
// date as NOT_RETURNED and alarms the branch.
func (jr *JobRunner) MarkNotReturnedReservations() {
	jr.runWithRecovery("MarkNotReturnedReservations", func() {
		jr.lapse(domain.ReservationStateDelivered)
	})
}

func (jr *JobRunner) lapse(state domain.ReservationState) {
	ctx := context.Background()
	today := utils.StartOfDay(jr.now())

	ids, err := jr.reservations.ListIDsEndedBefore(ctx, state, today)
	if err != nil {
		logger.Error("Failed to list lapsed reservations", "state", state, "error", err)
		return
	}

	count := jr.sweep(ids, string(state), func(id int32) (bool, error) {
		return jr.service.Lapse(ctx, id, today)
	})
	logger.Info("Lapsed reservations", "state", state, "count", count, "candidates", len(ids), "today", utils.FormatDate(today))
}

// sweep applies fn to each id. A failure on one reservation is logged and
// the pass carries on; the next run picks it up again.
func (jr *JobRunner) sweep(ids []int32, pass string, fn func(id int32) (bool, error)) int {
	count := 0
	for _, id := range ids {
		start := time.Now()
		changed, err := fn(id)
		if err != nil {
			logger.Error("Sweeper failed on reservation", "pass", pass, "reservation_id", id, "error", err)
			continue
		}
		if changed {
			count++
			logger.Debug("Sweeper transitioned reservation", "pass", pass, "reservation_id", id, "duration", time.Since(start))
		}
	}
	return count
}
