package handler

import (
	"testing"

	"github.com/iliyamo/bus-seat-booking/internal/model"
)

func TestDedupeSeats(t *testing.T) {
	got := dedupeSeats([]string{" 1a ", "1B", "1A", "", "2c"})
	want := []string{"1A", "1B", "2C"}
	if len(got) != len(want) {
		t.Fatalf("seats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("seats = %v, want %v", got, want)
		}
	}
}

func TestNormalizeSeatStripsPunctuation(t *testing.T) {
	if s := normalizeSeat("1-a"); s != "1A" {
		t.Fatalf("normalizeSeat = %q, want 1A", s)
	}
}

// A release request naming seats the caller never held must not scope
// in those seats: only the caller's own pending rows on the schedule
// qualify.
func TestOwnedPendingSeatsScopesRelease(t *testing.T) {
	reservations := []model.Reservation{
		{ID: 1, ScheduleID: 5, SeatNo: "1A", Status: model.ReservationStatusPending},
		{ID: 2, ScheduleID: 5, SeatNo: "1B", Status: model.ReservationStatusConfirmed},
		{ID: 3, ScheduleID: 6, SeatNo: "1C", Status: model.ReservationStatusPending},
	}
	// 1B is confirmed, 1C is another schedule, 2D was never held.
	owned := ownedPendingSeats(reservations, 5, []string{"1A", "1B", "1C", "2D"})
	if len(owned) != 1 || owned[0].ID != 1 {
		t.Fatalf("owned = %v, want only reservation 1", owned)
	}
	seats := ownedSeatNos(owned)
	if len(seats) != 1 || seats[0] != "1A" {
		t.Fatalf("seats = %v, want [1A]", seats)
	}
}

func TestOwnedPendingSeatsEmptyWhenNothingHeld(t *testing.T) {
	if owned := ownedPendingSeats(nil, 5, []string{"1A"}); len(owned) != 0 {
		t.Fatalf("owned = %v, want empty", owned)
	}
}
