package lockstore

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory stand-in for the Redis commands the
// store uses.  failAfter, when non-negative, makes every SetNX call
// past that count return a transport error so tests can simulate the
// store dying mid-batch.
type fakeRedis struct {
    mu        sync.Mutex
    data      map[string]string
    failAfter int
    setCalls  int
    delErr    error
    deleted   []string
}

func newFakeRedis() *fakeRedis {
    return &fakeRedis{data: map[string]string{}, failAfter: -1}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.failAfter >= 0 && f.setCalls >= f.failAfter {
        return redis.NewBoolResult(false, errors.New("connection refused"))
    }
    f.setCalls++
    if _, exists := f.data[key]; exists {
        return redis.NewBoolResult(false, nil)
    }
    f.data[key] = fmt.Sprint(value)
    return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.delErr != nil {
        return redis.NewIntResult(0, f.delErr)
    }
    var n int64
    for _, k := range keys {
        if _, exists := f.data[k]; exists {
            delete(f.data, k)
            n++
        }
        f.deleted = append(f.deleted, k)
    }
    return redis.NewIntResult(n, nil)
}

func newTestStore(f *fakeRedis) *Store {
    return &Store{rdb: f, timeout: time.Second}
}

func TestAcquireAllSuccess(t *testing.T) {
    f := newFakeRedis()
    s := newTestStore(f)

    res := s.AcquireAll(context.Background(), 7, []string{"1A", "1B", "2C"}, 42, time.Minute)
    if res.Status != StatusAcquired {
        t.Fatalf("status = %v, want Acquired", res.Status)
    }
    if len(res.Acquired) != 3 {
        t.Fatalf("acquired = %v, want 3 seats", res.Acquired)
    }
    for _, seat := range []string{"1A", "1B", "2C"} {
        if _, exists := f.data[seatKey(7, seat)]; !exists {
            t.Errorf("lock key for seat %s was not created", seat)
        }
    }
}

func TestAcquireAllConflictReportsFirstSeatInOrder(t *testing.T) {
    f := newFakeRedis()
    f.data[seatKey(7, "1B")] = "taken"
    s := newTestStore(f)

    res := s.AcquireAll(context.Background(), 7, []string{"1A", "1B", "1C"}, 42, time.Minute)
    if res.Status != StatusConflict {
        t.Fatalf("status = %v, want Conflict", res.Status)
    }
    if res.FailedSeat != "1B" {
        t.Fatalf("failed seat = %q, want 1B", res.FailedSeat)
    }
    // The store itself must not roll back; the caller owns cleanup.
    if len(res.Acquired) != 1 || res.Acquired[0] != "1A" {
        t.Fatalf("acquired = %v, want [1A]", res.Acquired)
    }
    if _, exists := f.data[seatKey(7, "1A")]; !exists {
        t.Error("lock for 1A should still exist after conflict")
    }
    // 1C must never have been attempted.
    if _, exists := f.data[seatKey(7, "1C")]; exists {
        t.Error("lock for 1C should not have been created")
    }
}

func TestAcquireAllUnavailableRollsBackAcquired(t *testing.T) {
    f := newFakeRedis()
    f.failAfter = 2 // third SetNX errors
    s := newTestStore(f)

    res := s.AcquireAll(context.Background(), 7, []string{"1A", "1B", "1C"}, 42, time.Minute)
    if res.Status != StatusUnavailable {
        t.Fatalf("status = %v, want Unavailable", res.Status)
    }
    if len(res.Acquired) != 0 {
        t.Fatalf("acquired = %v, want empty after rollback", res.Acquired)
    }
    for _, seat := range []string{"1A", "1B"} {
        if _, exists := f.data[seatKey(7, seat)]; exists {
            t.Errorf("lock for %s should have been rolled back", seat)
        }
    }
}

func TestNilClientIsPermanentlyUnavailable(t *testing.T) {
    s := New(nil)
    res := s.AcquireAll(context.Background(), 1, []string{"1A"}, 1, time.Minute)
    if res.Status != StatusUnavailable {
        t.Fatalf("status = %v, want Unavailable", res.Status)
    }
    // Release on a nil-client store must be a no-op, not a panic.
    s.Release(context.Background(), 1, []string{"1A"})
}

func TestReleaseIsIdempotentAndSwallowsErrors(t *testing.T) {
    f := newFakeRedis()
    s := newTestStore(f)
    s.AcquireAll(context.Background(), 7, []string{"1A"}, 42, time.Minute)

    s.Release(context.Background(), 7, []string{"1A"})
    if _, exists := f.data[seatKey(7, "1A")]; exists {
        t.Fatal("lock for 1A should be gone after release")
    }
    // Second release of the same seat and a failing backend must both
    // return without surfacing anything.
    s.Release(context.Background(), 7, []string{"1A"})
    f.delErr = errors.New("broken pipe")
    s.Release(context.Background(), 7, []string{"1A"})
}
