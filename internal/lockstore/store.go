// Package lockstore implements the distributed seat lock used to
// guarantee mutual exclusion between concurrent purchasers.  Each
// held seat is a Redis key created with SET NX and a TTL, so a
// crashed holder's lock expires on its own instead of deadlocking
// the seat.  The store never throws availability problems at the
// caller as errors; every acquire attempt collapses into one of
// three explicit outcomes (Acquired, Conflict, Unavailable) and the
// caller branches on that.
package lockstore

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "time"

    "github.com/redis/go-redis/v9"
)

// Status is the outcome of an AcquireAll attempt.
type Status int

const (
    // StatusAcquired means every requested seat lock was newly created.
    StatusAcquired Status = iota
    // StatusConflict means some seat was already locked (by anyone,
    // including the requesting holder).
    StatusConflict
    // StatusUnavailable means the store could not be reached or
    // errored mid-batch; the caller should fall back to the durable
    // consistency check.
    StatusUnavailable
)

// Result describes the outcome of AcquireAll.  FailedSeat is set
// only for StatusConflict and names the first seat, in input order,
// whose lock already existed.  Acquired lists the seats whose locks
// were created before the failure; on Conflict the store leaves
// these keys in place and the caller is responsible for releasing
// them.  On Unavailable the store has already deleted them
// best-effort and Acquired is empty.
type Result struct {
    Status     Status
    FailedSeat string
    Acquired   []string
}

// Client is the subset of redis.Client commands the store depends
// on.  It exists so tests can substitute an in-memory fake.
type Client interface {
    SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
    Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store holds seats in Redis with create-if-absent-with-expiry
// semantics.  A Store built from a nil client is a valid handle
// whose acquire attempts always report Unavailable; main constructs
// it once at startup from whatever NewRedisClient returned and
// injects it into the coordinator.
type Store struct {
    rdb     Client
    timeout time.Duration
}

// New returns a Store backed by the given Redis client.  Passing a
// nil client yields a permanently unavailable store, which callers
// use to run in fallback-only mode when Redis is down at startup.
func New(rdb *redis.Client) *Store {
    s := &Store{timeout: 2 * time.Second}
    if rdb != nil {
        s.rdb = rdb
    }
    return s
}

// seatKey builds the lock key for one seat of a schedule.
func seatKey(scheduleID uint64, seatNo string) string {
    return fmt.Sprintf("hold:%d:%s", scheduleID, seatNo)
}

// lockValue is the JSON document stored under a seat key.  It
// identifies the holder for debugging; ownership is never enforced
// from it, only from key existence.
type lockValue struct {
    Holder uint64 `json:"holder"`
    TS     int64  `json:"ts"`
}

// AcquireAll attempts to atomically create a lock key for every seat
// in the given order, each with the supplied TTL.  Seats are
// acquired strictly in input order so the reported conflict seat is
// deterministic regardless of how concurrent requests interleave.
// Any transport error (including a timed-out call) is treated as
// the store being unavailable, never as a seat conflict; keys
// created before the error are deleted best-effort first.
func (s *Store) AcquireAll(ctx context.Context, scheduleID uint64, seats []string, holderID uint64, ttl time.Duration) Result {
    if s.rdb == nil {
        return Result{Status: StatusUnavailable}
    }
    val, err := json.Marshal(lockValue{Holder: holderID, TS: time.Now().UTC().Unix()})
    if err != nil {
        return Result{Status: StatusUnavailable}
    }
    acquired := make([]string, 0, len(seats))
    for _, seat := range seats {
        cctx, cancel := context.WithTimeout(ctx, s.timeout)
        ok, err := s.rdb.SetNX(cctx, seatKey(scheduleID, seat), val, ttl).Result()
        cancel()
        if err != nil {
            // Store errored mid-batch: roll back whatever we created
            // and report Unavailable so the caller takes the fallback
            // path.
            s.Release(ctx, scheduleID, acquired)
            return Result{Status: StatusUnavailable}
        }
        if !ok {
            return Result{Status: StatusConflict, FailedSeat: seat, Acquired: acquired}
        }
        acquired = append(acquired, seat)
    }
    return Result{Status: StatusAcquired, Acquired: acquired}
}

// Release deletes the lock keys for the given seats.  It is
// idempotent and never reports failure: this path is best-effort
// cleanup, and a key that could not be deleted expires via its TTL
// anyway.  Failures are logged for operators.
func (s *Store) Release(ctx context.Context, scheduleID uint64, seats []string) {
    if s.rdb == nil || len(seats) == 0 {
        return
    }
    keys := make([]string, 0, len(seats))
    for _, seat := range seats {
        keys = append(keys, seatKey(scheduleID, seat))
    }
    cctx, cancel := context.WithTimeout(ctx, s.timeout)
    defer cancel()
    if err := s.rdb.Del(cctx, keys...).Err(); err != nil {
        log.Printf("lockstore: release schedule=%d seats=%v failed: %v", scheduleID, seats, err)
    }
}
