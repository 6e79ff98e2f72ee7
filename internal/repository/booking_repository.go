package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides data access to the bookings table.  Seats of
// a booking are stored as a JSON array in a single column; occupancy
// reads decode the column per row.  At this scale that scan is fine;
// a materialized (schedule, seat) index would replace it if booking
// volume ever makes it hot.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a booking and populates its generated ID.  The
// seat list must already be serialized into SeatsJSON.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings
               (user_id, schedule_id, seats_json, amount_cents, status, contact_phone, boarding_point_id, dropping_point_id)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        b.UserID, b.ScheduleID, b.SeatsJSON, b.AmountCents, b.Status,
        b.ContactPhone, b.BoardingPointID, b.DroppingPointID,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// GetByID loads a booking.  Returns ErrBookingNotFound when missing.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
    const q = `SELECT id, user_id, schedule_id, seats_json, amount_cents, status, payment_id,
                      contact_phone, boarding_point_id, dropping_point_id, created_at
               FROM bookings WHERE id = ?`
    var b model.Booking
    var paymentID sql.NullString
    var bpID, dpID sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.UserID, &b.ScheduleID, &b.SeatsJSON, &b.AmountCents, &b.Status, &paymentID,
        &b.ContactPhone, &bpID, &dpID, &b.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Booking{}, ErrBookingNotFound
        }
        return model.Booking{}, err
    }
    if paymentID.Valid {
        b.PaymentID = paymentID.String
    }
    if bpID.Valid {
        v := uint64(bpID.Int64)
        b.BoardingPointID = &v
    }
    if dpID.Valid {
        v := uint64(dpID.Int64)
        b.DroppingPointID = &v
    }
    return b, nil
}

// ListByUser returns the user's bookings newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    const q = `SELECT id, user_id, schedule_id, seats_json, amount_cents, status, payment_id,
                      contact_phone, boarding_point_id, dropping_point_id, created_at
               FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        var b model.Booking
        var paymentID sql.NullString
        var bpID, dpID sql.NullInt64
        if err := rows.Scan(
            &b.ID, &b.UserID, &b.ScheduleID, &b.SeatsJSON, &b.AmountCents, &b.Status, &paymentID,
            &b.ContactPhone, &bpID, &dpID, &b.CreatedAt,
        ); err != nil {
            return nil, err
        }
        if paymentID.Valid {
            b.PaymentID = paymentID.String
        }
        if bpID.Valid {
            v := uint64(bpID.Int64)
            b.BoardingPointID = &v
        }
        if dpID.Valid {
            v := uint64(dpID.Int64)
            b.DroppingPointID = &v
        }
        out = append(out, b)
    }
    return out, rows.Err()
}

// OccupiedSeats returns the union of seats appearing in any PENDING
// or CONFIRMED booking of the schedule.  A booking that is still
// awaiting payment intentionally blocks its seats.  Rows whose seat
// JSON fails to decode are skipped rather than failing the read.
func (r *BookingRepo) OccupiedSeats(ctx context.Context, scheduleID uint64) ([]string, error) {
    const q = `SELECT seats_json FROM bookings
               WHERE schedule_id = ? AND status IN ('PENDING', 'CONFIRMED')`
    rows, err := r.db.QueryContext(ctx, q, scheduleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    seen := make(map[string]struct{})
    occupied := make([]string, 0)
    for rows.Next() {
        var raw string
        if err := rows.Scan(&raw); err != nil {
            return nil, err
        }
        for _, s := range decodeSeatDoc(raw) {
            if _, dup := seen[s]; !dup {
                seen[s] = struct{}{}
                occupied = append(occupied, s)
            }
        }
    }
    return occupied, rows.Err()
}


// decodeSeatDoc parses a bookings.seats_json document.  Malformed
// documents decode to nil so one corrupt row cannot fail an
// occupancy read.
func decodeSeatDoc(raw string) []string {
    var seats []string
    if err := json.Unmarshal([]byte(raw), &seats); err != nil {
        return nil
    }
    return seats
}

// Confirm marks a booking CONFIRMED and records the gateway payment
// identifier.  Confirming an already CONFIRMED booking is a no-op so
// webhook redelivery stays idempotent.
func (r *BookingRepo) Confirm(ctx context.Context, bookingID uint64, paymentID string) error {
    const q = `UPDATE bookings SET status = 'CONFIRMED', payment_id = ?
               WHERE id = ? AND status <> 'CONFIRMED'`
    _, err := r.db.ExecContext(ctx, q, paymentID, bookingID)
    return err
}
