package queue

import (
	"context"
	"errors"
	"testing"
)

type fakePromoter struct {
	scheduleID uint64
	seats      []string
	holderID   uint64
	err        error
	calls      int
}

func (f *fakePromoter) PromoteConfirmed(ctx context.Context, scheduleID uint64, seats []string, holderID uint64) error {
	f.calls++
	f.scheduleID = scheduleID
	f.seats = seats
	f.holderID = holderID
	return f.err
}

func TestHandleMessagePromotes(t *testing.T) {
	p := &fakePromoter{}
	body := []byte(`{"booking_id":5,"schedule_id":12,"user_id":7,"seats":["1A","1B"],"payment_ref":"pay_abc"}`)

	if err := handleMessage(body, p); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if p.scheduleID != 12 || p.holderID != 7 || len(p.seats) != 2 {
		t.Fatalf("promoter got schedule=%d holder=%d seats=%v", p.scheduleID, p.holderID, p.seats)
	}
}

func TestHandleMessageRejectsMalformed(t *testing.T) {
	p := &fakePromoter{}
	if err := handleMessage([]byte(`{not json`), p); err == nil {
		t.Fatal("malformed body should be rejected")
	}
	if p.calls != 0 {
		t.Fatal("promoter must not run for a malformed event")
	}
}

func TestHandleMessageRejectsIncompleteEvent(t *testing.T) {
	p := &fakePromoter{}
	if err := handleMessage([]byte(`{"schedule_id":12,"user_id":7}`), p); err == nil {
		t.Fatal("event without seats should be rejected")
	}
	if p.calls != 0 {
		t.Fatal("promoter must not run for an incomplete event")
	}
}

func TestHandleMessageSurfacesPromoterError(t *testing.T) {
	p := &fakePromoter{err: errors.New("database gone")}
	body := []byte(`{"schedule_id":12,"user_id":7,"seats":["1A"]}`)
	if err := handleMessage(body, p); err == nil {
		t.Fatal("promoter error should propagate so the message is nacked")
	}
}
