package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ReservationRepo provides data access to the reservations table.
// Reservations are per-seat rows; a multi-seat hold writes one row
// per seat.  Writes are deliberately single-row statements rather
// than multi-row transactions: the strong mutual-exclusion guarantee
// comes from the seat lock store, and the durable rows only need to
// self-heal via their expiry.  All expiry comparisons happen in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a single PENDING reservation row and populates the
// generated ID on the provided record.
func (r *ReservationRepo) Create(ctx context.Context, rec *model.Reservation) error {
    const q = `INSERT INTO reservations (schedule_id, seat_no, reserved_by, status, expires_at)
               VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        rec.ScheduleID, rec.SeatNo, rec.UserID, rec.Status,
        rec.ExpiresAt.UTC().Format("2006-01-02 15:04:05"),
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return nil
}

// HasActivePending reports whether an unexpired PENDING reservation
// exists for the seat on the schedule, regardless of who holds it.
// This is the durable half of the fallback conflict check used when
// the lock store is unavailable.  Note that a requester's own
// unexpired hold also counts as a conflict here; re-holding is not
// idempotent on the fallback path.
func (r *ReservationRepo) HasActivePending(ctx context.Context, scheduleID uint64, seatNo string) (bool, error) {
    const q = `SELECT EXISTS(
                 SELECT 1 FROM reservations
                 WHERE schedule_id = ? AND seat_no = ? AND status = 'PENDING' AND expires_at > UTC_TIMESTAMP()
               )`
    var exists bool
    if err := r.db.QueryRowContext(ctx, q, scheduleID, seatNo).Scan(&exists); err != nil {
        return false, err
    }
    return exists, nil
}

// ActiveSeatNos returns the seats of a schedule currently occupied
// by reservations: CONFIRMED rows plus PENDING rows whose expiry is
// still in the future.  Expired PENDING rows are filtered out here
// even if the sweep has not flipped their status yet.
func (r *ReservationRepo) ActiveSeatNos(ctx context.Context, scheduleID uint64) ([]string, error) {
    const q = `SELECT seat_no FROM reservations
               WHERE schedule_id = ?
                 AND (status = 'CONFIRMED' OR (status = 'PENDING' AND expires_at > UTC_TIMESTAMP()))`
    rows, err := r.db.QueryContext(ctx, q, scheduleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    seats := make([]string, 0)
    for rows.Next() {
        var seat string
        if err := rows.Scan(&seat); err != nil {
            return nil, err
        }
        seats = append(seats, seat)
    }
    return seats, rows.Err()
}

// ConfirmPending promotes the user's matching PENDING reservations
// to CONFIRMED.  A row is matched on (schedule, seat, holder,
// status=PENDING); rows already promoted, expired or belonging to
// another user are untouched, which makes redelivered confirmation
// events harmless.  It returns the number of rows promoted.
func (r *ReservationRepo) ConfirmPending(ctx context.Context, scheduleID uint64, seatNos []string, userID uint64) (int64, error) {
    if len(seatNos) == 0 {
        return 0, nil
    }
    placeholders := make([]string, len(seatNos))
    args := make([]interface{}, 0, len(seatNos)+2)
    args = append(args, scheduleID)
    for i, seat := range seatNos {
        placeholders[i] = "?"
        args = append(args, seat)
    }
    args = append(args, userID)
    q := `UPDATE reservations SET status = 'CONFIRMED'
          WHERE schedule_id = ? AND seat_no IN (` + strings.Join(placeholders, ",") + `)
            AND reserved_by = ? AND status = 'PENDING'`
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ExpireStale flips PENDING reservations whose expiry has passed to
// EXPIRED and returns the number of rows changed.  Occupancy reads
// do not depend on this sweep; it exists to keep the table tidy and
// the status column truthful.
func (r *ReservationRepo) ExpireStale(ctx context.Context) (int64, error) {
    const q = `UPDATE reservations SET status = 'EXPIRED'
               WHERE status = 'PENDING' AND expires_at <= UTC_TIMESTAMP()`
    res, err := r.db.ExecContext(ctx, q)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// Cancel marks a PENDING reservation CANCELLED after verifying it
// belongs to the given user.  It returns sql.ErrNoRows when nothing
// matched (wrong owner, wrong status or missing row).
func (r *ReservationRepo) Cancel(ctx context.Context, reservationID, userID uint64) error {
    const q = `UPDATE reservations SET status = 'CANCELLED'
               WHERE id = ? AND reserved_by = ? AND status = 'PENDING'`
    res, err := r.db.ExecContext(ctx, q, reservationID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// ListByUser returns the user's reservations newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    const q = `SELECT id, schedule_id, seat_no, reserved_by, status, expires_at, created_at
               FROM reservations WHERE reserved_by = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        var rec model.Reservation
        if err := rows.Scan(&rec.ID, &rec.ScheduleID, &rec.SeatNo, &rec.UserID, &rec.Status, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}
