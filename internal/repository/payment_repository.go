package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ErrPaymentNotFound is returned when no payment matches a gateway order.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo provides data access to the payments table.  One
// payment row is created per booking when the gateway order is
// opened; the confirmation callback updates its status.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment row in CREATED state.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    const q = `INSERT INTO payments (booking_id, gateway_order_id, status) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.BookingID, p.GatewayOrderID, p.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// GetByOrderID looks up a payment by the gateway order identifier.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (model.Payment, error) {
    const q = `SELECT id, booking_id, gateway_order_id, gateway_payment_id, status, raw_response, created_at
               FROM payments WHERE gateway_order_id = ?`
    var p model.Payment
    var gpID, raw sql.NullString
    err := r.db.QueryRowContext(ctx, q, orderID).Scan(
        &p.ID, &p.BookingID, &p.GatewayOrderID, &gpID, &p.Status, &raw, &p.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Payment{}, ErrPaymentNotFound
        }
        return model.Payment{}, err
    }
    if gpID.Valid {
        p.GatewayPaymentID = gpID.String
    }
    if raw.Valid {
        p.RawResponse = raw.String
    }
    return p, nil
}

// MarkStatus records the outcome reported by the gateway along with
// the payment identifier and the raw callback body.
func (r *PaymentRepo) MarkStatus(ctx context.Context, paymentID uint64, status, gatewayPaymentID, rawResponse string) error {
    const q = `UPDATE payments SET status = ?, gateway_payment_id = ?, raw_response = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, status, gatewayPaymentID, rawResponse, paymentID)
    return err
}
