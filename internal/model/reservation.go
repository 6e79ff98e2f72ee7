package model

import "time"

// Reservation statuses.  A reservation starts PENDING and either
// becomes CONFIRMED on payment, EXPIRED when its expiry passes
// unconfirmed, or CANCELLED on explicit user action.  CONFIRMED and
// CANCELLED are terminal.
const (
    ReservationStatusPending   = "PENDING"
    ReservationStatusConfirmed = "CONFIRMED"
    ReservationStatusCancelled = "CANCELLED"
    ReservationStatusExpired   = "EXPIRED"
)

// Reservation records a temporary claim on a single seat of a
// schedule.  For a given (schedule, seat) pair at most one
// reservation may be PENDING-and-unexpired or CONFIRMED at any
// instant.  Occupancy reads must treat PENDING rows whose ExpiresAt
// has passed as not occupying, regardless of whether the expiry
// sweep has already flipped them to EXPIRED.
//
// Fields:
//  ID         – primary key identifier.
//  ScheduleID – schedule the seat belongs to.
//  SeatNo     – seat label, e.g. "1A".
//  UserID     – user holding the seat.
//  Status     – PENDING, CONFIRMED, CANCELLED or EXPIRED.
//  ExpiresAt  – when an unconfirmed hold stops occupying the seat.
//  CreatedAt  – creation timestamp.
type Reservation struct {
    ID         uint64    // reservations.id
    ScheduleID uint64    // reservations.schedule_id
    SeatNo     string    // reservations.seat_no
    UserID     uint64    // reservations.reserved_by
    Status     string    // reservations.status
    ExpiresAt  time.Time // reservations.expires_at
    CreatedAt  time.Time // reservations.created_at
}

// Active reports whether the reservation still occupies its seat.
func (r Reservation) Active(now time.Time) bool {
    switch r.Status {
    case ReservationStatusConfirmed:
        return true
    case ReservationStatusPending:
        return r.ExpiresAt.After(now)
    }
    return false
}
