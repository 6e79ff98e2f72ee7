// Package queue defines message payloads exchanged over the message broker
// and the background consumer that promotes holds once payment settles.
package queue

// PaymentConfirmedEvent arrives on the payment.confirmed queue when the
// payment provider (or the demo payment webhook) reports a successful
// charge.  It carries everything needed to promote the holder's pending
// reservations without querying the payment provider again.
type PaymentConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	ScheduleID  uint64   `json:"schedule_id"`
	UserID      uint64   `json:"user_id"`
	SeatNos     []string `json:"seats"`
	PaymentRef  string   `json:"payment_ref"`
	AmountCents uint32   `json:"amount_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// BookingConfirmedEvent is published after a booking is fully confirmed.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	ScheduleID  uint64   `json:"schedule_id"`
	RouteName   string   `json:"route_name"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	DepartAt    string   `json:"depart_at"`
	SeatNos     []string `json:"seats"`
	AmountCents uint32   `json:"amount_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}
