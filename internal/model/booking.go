package model

import "time"

// Booking statuses.  A booking pending payment still blocks its
// seats for conflict checks; only CANCELLED and REFUNDED bookings
// free them.
const (
    BookingStatusPending   = "PENDING"
    BookingStatusConfirmed = "CONFIRMED"
    BookingStatusCancelled = "CANCELLED"
    BookingStatusRefunded  = "REFUNDED"
)

// Booking groups the seats a user is purchasing on a schedule plus
// contact and boarding details.  The seat list is stored as a JSON
// array in SeatsJSON (e.g. ["1A","1B"]).
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – purchasing user.
//  ScheduleID      – schedule being booked.
//  SeatsJSON       – ordered seat labels serialized as JSON.
//  AmountCents     – total price in cents.
//  Status          – PENDING, CONFIRMED, CANCELLED or REFUNDED.
//  PaymentID       – gateway payment identifier once paid.
//  ContactPhone    – passenger contact number.
//  BoardingPointID – optional pickup stop.
//  DroppingPointID – optional drop-off stop.
//  CreatedAt       – creation timestamp.
type Booking struct {
    ID              uint64    // bookings.id
    UserID          uint64    // bookings.user_id
    ScheduleID      uint64    // bookings.schedule_id
    SeatsJSON       string    // bookings.seats_json
    AmountCents     uint32    // bookings.amount_cents
    Status          string    // bookings.status
    PaymentID       string    // bookings.payment_id
    ContactPhone    string    // bookings.contact_phone
    BoardingPointID *uint64   // bookings.boarding_point_id (nullable)
    DroppingPointID *uint64   // bookings.dropping_point_id (nullable)
    CreatedAt       time.Time // bookings.created_at
}

// Payment tracks the gateway order created for a booking and the
// outcome reported by the gateway's confirmation callback.
type Payment struct {
    ID               uint64    // payments.id
    BookingID        uint64    // payments.booking_id
    GatewayOrderID   string    // payments.gateway_order_id
    GatewayPaymentID string    // payments.gateway_payment_id
    Status           string    // payments.status (CREATED, SUCCESS, FAILED)
    RawResponse      string    // payments.raw_response
    CreatedAt        time.Time // payments.created_at
}
