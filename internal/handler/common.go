package handler // handler defines http handlers

import (
	"errors"  // errors provides the sentinel used in getUserID
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/bus-seat-booking/internal/model"
)

// getUserID extracts the user_id placed in context by the JWT
// middleware and converts it to uint64.  The jwt library decodes
// numeric claims as float64, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// dedupeSeats trims, upper-cases and deduplicates seat labels while
// preserving the caller's order.
func dedupeSeats(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = normalizeSeat(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ownedPendingSeats filters the caller's reservations down to pending
// rows on the given schedule whose seat is in the requested set.  The
// result scopes a release: seats the caller never held are left alone
// so another holder's lock cannot be stripped.
func ownedPendingSeats(reservations []model.Reservation, scheduleID uint64, seats []string) []model.Reservation {
	want := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		want[s] = struct{}{}
	}
	owned := make([]model.Reservation, 0, len(seats))
	for _, r := range reservations {
		if r.ScheduleID != scheduleID || r.Status != model.ReservationStatusPending {
			continue
		}
		if _, ok := want[r.SeatNo]; ok {
			owned = append(owned, r)
		}
	}
	return owned
}

func ownedSeatNos(reservations []model.Reservation) []string {
	out := make([]string, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.SeatNo)
	}
	return out
}

func normalizeSeat(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			b = append(b, ch-32)
		case ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9':
			b = append(b, ch)
		}
	}
	return string(b)
}
