// Package booking contains the seat-hold coordination core: the
// coordinator that arbitrates concurrent multi-seat hold attempts,
// and the lifecycle manager that promotes and expires the durable
// reservations behind them.
package booking

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/bus-seat-booking/internal/lockstore"
    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ErrScheduleNotBookable is returned when holding seats on a
// schedule whose status is not ACTIVE.
var ErrScheduleNotBookable = errors.New("schedule is not available for booking")

// ErrNoSeats is returned when a hold request names no seats or no
// schedule; it is a caller error raised before any store is touched.
var ErrNoSeats = errors.New("schedule id and seats are required")

// SeatUnavailableError reports the first seat, in request order,
// that could not be held.  It is an expected, frequent outcome and
// is never logged as an error.
type SeatUnavailableError struct {
    Seat string
}

func (e *SeatUnavailableError) Error() string {
    return fmt.Sprintf("seat %s is not available", e.Seat)
}

// HoldResult is returned on a fully successful hold.
type HoldResult struct {
    ReservationIDs []uint64
    ExpiresAt      time.Time
    TTL            time.Duration
}

// ScheduleReader loads schedules for bookability checks.
type ScheduleReader interface {
    GetByID(ctx context.Context, id uint64) (model.Schedule, error)
}

// ReservationWriter persists per-seat reservations and answers the
// durable half of the fallback conflict check.
type ReservationWriter interface {
    Create(ctx context.Context, rec *model.Reservation) error
    HasActivePending(ctx context.Context, scheduleID uint64, seatNo string) (bool, error)
}

// OccupancyReader reports seats blocked by pending or confirmed
// bookings.
type OccupancyReader interface {
    OccupiedSeats(ctx context.Context, scheduleID uint64) ([]string, error)
}

// LockStore is the distributed mutual-exclusion primitive.  It is
// satisfied by *lockstore.Store.
type LockStore interface {
    AcquireAll(ctx context.Context, scheduleID uint64, seats []string, holderID uint64, ttl time.Duration) lockstore.Result
    Release(ctx context.Context, scheduleID uint64, seats []string)
}

// Coordinator orchestrates multi-seat atomic hold attempts.  It
// holds no mutable state of its own; all contention is resolved by
// the lock store (or, degraded, by the durable conflict check), so
// any number of requests may run through one Coordinator
// concurrently.
type Coordinator struct {
    Schedules    ScheduleReader
    Reservations ReservationWriter
    Bookings     OccupancyReader
    Locks        LockStore

    now func() time.Time // injectable clock for tests
}

// NewCoordinator wires a Coordinator from its stores.
func NewCoordinator(schedules ScheduleReader, reservations ReservationWriter, bookings OccupancyReader, locks LockStore) *Coordinator {
    return &Coordinator{
        Schedules:    schedules,
        Reservations: reservations,
        Bookings:     bookings,
        Locks:        locks,
        now:          func() time.Time { return time.Now().UTC() },
    }
}

// Hold attempts to claim every seat in the given order for holderID
// on the schedule, for the duration of ttl.
//
// The primary path acquires one lock-store key per seat; if every
// key is newly created the seats are exclusively ours until the TTL
// runs out, and the PENDING reservations are written without any
// further per-seat check.  A lock conflict aborts the whole request
// before any durable write, after releasing the keys acquired so
// far.  Only when the lock store is unreachable does Hold degrade to
// the durable conflict check, which is checked and written
// incrementally per seat; that path can race two concurrent
// requests past each other, a documented availability trade-off.
//
// Whatever happens after locks were acquired, the locks never
// outlive a failed request: any later error releases them before it
// is surfaced.
func (co *Coordinator) Hold(ctx context.Context, scheduleID uint64, seats []string, holderID uint64, ttl time.Duration) (*HoldResult, error) {
    if scheduleID == 0 || len(seats) == 0 {
        return nil, ErrNoSeats
    }

    sched, err := co.Schedules.GetByID(ctx, scheduleID)
    if err != nil {
        return nil, err
    }
    if sched.Status != model.ScheduleStatusActive {
        return nil, ErrScheduleNotBookable
    }

    res := co.Locks.AcquireAll(ctx, scheduleID, seats, holderID, ttl)
    switch res.Status {
    case lockstore.StatusConflict:
        // Partially created keys are ours to clean up; the store
        // reported them in acquisition order.
        co.Locks.Release(ctx, scheduleID, res.Acquired)
        return nil, &SeatUnavailableError{Seat: res.FailedSeat}
    case lockstore.StatusUnavailable:
        return co.holdFallback(ctx, scheduleID, seats, holderID, ttl)
    }

    // Lock-confirmed path: every seat is exclusively ours, write the
    // PENDING rows straight through.
    expiresAt := co.now().Add(ttl)
    ids := make([]uint64, 0, len(seats))
    for _, seat := range seats {
        rec := &model.Reservation{
            ScheduleID: scheduleID,
            SeatNo:     seat,
            UserID:     holderID,
            Status:     model.ReservationStatusPending,
            ExpiresAt:  expiresAt,
        }
        if err := co.Reservations.Create(ctx, rec); err != nil {
            // The request failed after acquiring locks; they must not
            // outlive it.  Reservations written before the failure
            // stay PENDING and self-heal through their expiry.
            co.Locks.Release(ctx, scheduleID, seats)
            return nil, fmt.Errorf("create reservation for seat %s: %w", seat, err)
        }
        ids = append(ids, rec.ID)
    }
    return &HoldResult{ReservationIDs: ids, ExpiresAt: expiresAt, TTL: ttl}, nil
}

// holdFallback runs the degraded path used when the lock store is
// unreachable.  Each seat is checked against durable state and
// written immediately after its own check, bounding how stale the
// check can be for later seats of a large request.  Rows written
// before a conflicting seat remain PENDING and expire on their own.
func (co *Coordinator) holdFallback(ctx context.Context, scheduleID uint64, seats []string, holderID uint64, ttl time.Duration) (*HoldResult, error) {
    expiresAt := co.now().Add(ttl)
    ids := make([]uint64, 0, len(seats))
    for _, seat := range seats {
        conflict, err := co.hasConflict(ctx, scheduleID, seat)
        if err != nil {
            return nil, fmt.Errorf("fallback conflict check for seat %s: %w", seat, err)
        }
        if conflict {
            return nil, &SeatUnavailableError{Seat: seat}
        }
        rec := &model.Reservation{
            ScheduleID: scheduleID,
            SeatNo:     seat,
            UserID:     holderID,
            Status:     model.ReservationStatusPending,
            ExpiresAt:  expiresAt,
        }
        if err := co.Reservations.Create(ctx, rec); err != nil {
            return nil, fmt.Errorf("create reservation for seat %s: %w", seat, err)
        }
        ids = append(ids, rec.ID)
    }
    return &HoldResult{ReservationIDs: ids, ExpiresAt: expiresAt, TTL: ttl}, nil
}

// hasConflict reports whether the seat is occupied according to
// durable state: an unexpired PENDING reservation by anyone
// (including the requester re-holding their own seat), or membership
// in a PENDING or CONFIRMED booking.
func (co *Coordinator) hasConflict(ctx context.Context, scheduleID uint64, seat string) (bool, error) {
    pending, err := co.Reservations.HasActivePending(ctx, scheduleID, seat)
    if err != nil {
        return false, err
    }
    if pending {
        return true, nil
    }
    occupied, err := co.Bookings.OccupiedSeats(ctx, scheduleID)
    if err != nil {
        return false, err
    }
    for _, s := range occupied {
        if s == seat {
            return true, nil
        }
    }
    return false, nil
}

// Release drops the lock-store holds for the given seats.  It is
// idempotent and never fails observably; durable reservations are
// left to the lifecycle manager.
func (co *Coordinator) Release(ctx context.Context, scheduleID uint64, seats []string) {
    co.Locks.Release(ctx, scheduleID, seats)
}
