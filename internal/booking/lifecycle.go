package booking

import (
    "context"
    "log"
    "time"
)

// ReservationLifecycleStore is the slice of the reservation
// repository the lifecycle manager uses.
type ReservationLifecycleStore interface {
    ConfirmPending(ctx context.Context, scheduleID uint64, seatNos []string, userID uint64) (int64, error)
    ExpireStale(ctx context.Context) (int64, error)
}

// Lifecycle drives reservation state transitions that happen after
// the hold: promotion to CONFIRMED when a payment confirmation
// arrives, and the background sweep that flips stale PENDING rows to
// EXPIRED.  Correctness never depends on the sweep — every occupancy
// read already ignores expired PENDING rows — so the sweep cadence
// is purely a tidiness knob.
type Lifecycle struct {
    Reservations ReservationLifecycleStore
}

// NewLifecycle wires a Lifecycle from its store.
func NewLifecycle(reservations ReservationLifecycleStore) *Lifecycle {
    return &Lifecycle{Reservations: reservations}
}

// PromoteConfirmed moves the holder's matching PENDING reservations
// to CONFIRMED.  Matching is on (schedule, seat, holder, PENDING),
// so redelivered events and seats confirmed earlier are no-ops.
// Promoting zero rows is not an error: the hold may have expired
// before payment completed, in which case the payment layer owns the
// refund conversation.
func (l *Lifecycle) PromoteConfirmed(ctx context.Context, scheduleID uint64, seats []string, holderID uint64) error {
    if len(seats) == 0 {
        return nil
    }
    n, err := l.Reservations.ConfirmPending(ctx, scheduleID, seats, holderID)
    if err != nil {
        return err
    }
    if n < int64(len(seats)) {
        log.Printf("lifecycle: promoted %d of %d reservations for schedule=%d holder=%d (rest expired or already final)",
            n, len(seats), scheduleID, holderID)
    }
    return nil
}

// RunExpirySweep periodically marks stale PENDING reservations
// EXPIRED until the context is cancelled.  Sweep failures are logged
// and retried on the next tick.
func (l *Lifecycle) RunExpirySweep(ctx context.Context, every time.Duration) {
    ticker := time.NewTicker(every)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            n, err := l.Reservations.ExpireStale(ctx)
            if err != nil {
                log.Printf("lifecycle: expiry sweep failed: %v", err)
                continue
            }
            if n > 0 {
                log.Printf("lifecycle: expired %d stale reservations", n)
            }
        }
    }
}
