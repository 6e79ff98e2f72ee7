package booking

import (
    "context"
    "errors"
    "testing"
)

// fakeLifecycleStore records promotion and sweep calls.
type fakeLifecycleStore struct {
    confirmN   int64
    confirmErr error
    sweepN     int64
    sweepErr   error
    calls      int
}

func (f *fakeLifecycleStore) ConfirmPending(ctx context.Context, scheduleID uint64, seatNos []string, userID uint64) (int64, error) {
    f.calls++
    return f.confirmN, f.confirmErr
}

func (f *fakeLifecycleStore) ExpireStale(ctx context.Context) (int64, error) {
    f.calls++
    return f.sweepN, f.sweepErr
}

func TestPromoteConfirmed(t *testing.T) {
    store := &fakeLifecycleStore{confirmN: 2}
    l := NewLifecycle(store)

    if err := l.PromoteConfirmed(context.Background(), 1, []string{"1A", "1B"}, 7); err != nil {
        t.Fatalf("promote failed: %v", err)
    }
    if store.calls != 1 {
        t.Fatalf("store calls = %d, want 1", store.calls)
    }
}

func TestPromoteConfirmedPartialIsNotAnError(t *testing.T) {
    // A redelivered event or an expired hold leaves fewer matched
    // rows than seats; promotion stays idempotent and succeeds.
    store := &fakeLifecycleStore{confirmN: 0}
    l := NewLifecycle(store)

    if err := l.PromoteConfirmed(context.Background(), 1, []string{"1A", "1B"}, 7); err != nil {
        t.Fatalf("partial promotion should not fail: %v", err)
    }
}

func TestPromoteConfirmedSurfacesStoreErrors(t *testing.T) {
    store := &fakeLifecycleStore{confirmErr: errors.New("database gone")}
    l := NewLifecycle(store)

    if err := l.PromoteConfirmed(context.Background(), 1, []string{"1A"}, 7); err == nil {
        t.Fatal("store error should propagate")
    }
}

func TestPromoteConfirmedNoSeats(t *testing.T) {
    store := &fakeLifecycleStore{}
    l := NewLifecycle(store)

    if err := l.PromoteConfirmed(context.Background(), 1, nil, 7); err != nil {
        t.Fatalf("empty seat list should be a no-op: %v", err)
    }
    if store.calls != 0 {
        t.Fatal("no store call expected for an empty seat list")
    }
}
