package booking

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/bus-seat-booking/internal/lockstore"
    "github.com/iliyamo/bus-seat-booking/internal/model"
    "github.com/iliyamo/bus-seat-booking/internal/repository"
)

// fakeClock is a shared, advanceable time source so TTL behavior can
// be tested without sleeping.
type fakeClock struct {
    mu sync.Mutex
    t  time.Time
}

func newFakeClock() *fakeClock {
    return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
    c.mu.Lock()
    c.t = c.t.Add(d)
    c.mu.Unlock()
}

// memLocks is an in-memory lock store with real SET-NX-with-TTL
// semantics against the fake clock.  Setting unavailable simulates
// the store being unreachable.
type memLocks struct {
    mu          sync.Mutex
    keys        map[string]time.Time // key -> expiry
    unavailable bool
    clock       *fakeClock
}

func newMemLocks(clock *fakeClock) *memLocks {
    return &memLocks{keys: map[string]time.Time{}, clock: clock}
}

func lockKey(scheduleID uint64, seat string) string {
    return fmt.Sprintf("%d:%s", scheduleID, seat)
}

func (m *memLocks) AcquireAll(ctx context.Context, scheduleID uint64, seats []string, holderID uint64, ttl time.Duration) lockstore.Result {
    if m.unavailable {
        return lockstore.Result{Status: lockstore.StatusUnavailable}
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    now := m.clock.Now()
    acquired := make([]string, 0, len(seats))
    for _, seat := range seats {
        k := lockKey(scheduleID, seat)
        if exp, held := m.keys[k]; held && exp.After(now) {
            return lockstore.Result{Status: lockstore.StatusConflict, FailedSeat: seat, Acquired: acquired}
        }
        m.keys[k] = now.Add(ttl)
        acquired = append(acquired, seat)
    }
    return lockstore.Result{Status: lockstore.StatusAcquired, Acquired: acquired}
}

func (m *memLocks) Release(ctx context.Context, scheduleID uint64, seats []string) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, seat := range seats {
        delete(m.keys, lockKey(scheduleID, seat))
    }
}

func (m *memLocks) held(scheduleID uint64, seat string) bool {
    m.mu.Lock()
    defer m.mu.Unlock()
    exp, ok := m.keys[lockKey(scheduleID, seat)]
    return ok && exp.After(m.clock.Now())
}

// fakeSchedules serves schedules from a map.
type fakeSchedules struct {
    schedules map[uint64]model.Schedule
}

func (f *fakeSchedules) GetByID(ctx context.Context, id uint64) (model.Schedule, error) {
    s, ok := f.schedules[id]
    if !ok {
        return model.Schedule{}, repository.ErrScheduleNotFound
    }
    return s, nil
}

// fakeReservations stores reservation rows in memory.  failOnCreate,
// when non-negative, makes that (zero-based) Create call fail.
type fakeReservations struct {
    mu           sync.Mutex
    rows         []model.Reservation
    nextID       uint64
    creates      int
    failOnCreate int
    clock        *fakeClock
}

func newFakeReservations(clock *fakeClock) *fakeReservations {
    return &fakeReservations{failOnCreate: -1, clock: clock}
}

func (f *fakeReservations) Create(ctx context.Context, rec *model.Reservation) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.failOnCreate >= 0 && f.creates == f.failOnCreate {
        return errors.New("database write failed")
    }
    f.creates++
    f.nextID++
    rec.ID = f.nextID
    rec.CreatedAt = f.clock.Now()
    f.rows = append(f.rows, *rec)
    return nil
}

func (f *fakeReservations) HasActivePending(ctx context.Context, scheduleID uint64, seatNo string) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    now := f.clock.Now()
    for _, r := range f.rows {
        if r.ScheduleID == scheduleID && r.SeatNo == seatNo &&
            r.Status == model.ReservationStatusPending && r.ExpiresAt.After(now) {
            return true, nil
        }
    }
    return false, nil
}

func (f *fakeReservations) count() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.rows)
}

func (f *fakeReservations) countForHolder(holderID uint64) int {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, r := range f.rows {
        if r.UserID == holderID {
            n++
        }
    }
    return n
}

// fakeBookings serves a fixed occupied-seat set per schedule.
type fakeBookings struct {
    occupied map[uint64][]string
}

func (f *fakeBookings) OccupiedSeats(ctx context.Context, scheduleID uint64) ([]string, error) {
    return f.occupied[scheduleID], nil
}

// newTestCoordinator builds a coordinator over an ACTIVE schedule 1
// and empty stores, all sharing one fake clock.
func newTestCoordinator() (*Coordinator, *memLocks, *fakeReservations, *fakeBookings, *fakeClock) {
    clock := newFakeClock()
    locks := newMemLocks(clock)
    reservations := newFakeReservations(clock)
    bookings := &fakeBookings{occupied: map[uint64][]string{}}
    schedules := &fakeSchedules{schedules: map[uint64]model.Schedule{
        1: {ID: 1, RouteID: 1, BusID: 1, Status: model.ScheduleStatusActive},
        2: {ID: 2, RouteID: 1, BusID: 1, Status: model.ScheduleStatusCancelled},
    }}
    co := NewCoordinator(schedules, reservations, bookings, locks)
    co.now = clock.Now
    return co, locks, reservations, bookings, clock
}

func TestHoldRejectsEmptyInput(t *testing.T) {
    co, _, reservations, _, _ := newTestCoordinator()

    if _, err := co.Hold(context.Background(), 0, []string{"1A"}, 7, time.Minute); !errors.Is(err, ErrNoSeats) {
        t.Fatalf("missing schedule id: err = %v, want ErrNoSeats", err)
    }
    if _, err := co.Hold(context.Background(), 1, nil, 7, time.Minute); !errors.Is(err, ErrNoSeats) {
        t.Fatalf("empty seat list: err = %v, want ErrNoSeats", err)
    }
    if reservations.count() != 0 {
        t.Fatal("caller errors must not touch any store")
    }
}

func TestHoldScheduleNotFound(t *testing.T) {
    co, _, _, _, _ := newTestCoordinator()
    _, err := co.Hold(context.Background(), 99, []string{"1A"}, 7, time.Minute)
    if !errors.Is(err, repository.ErrScheduleNotFound) {
        t.Fatalf("err = %v, want ErrScheduleNotFound", err)
    }
}

func TestHoldInactiveSchedule(t *testing.T) {
    co, _, _, _, _ := newTestCoordinator()
    _, err := co.Hold(context.Background(), 2, []string{"1A"}, 7, time.Minute)
    if !errors.Is(err, ErrScheduleNotBookable) {
        t.Fatalf("err = %v, want ErrScheduleNotBookable", err)
    }
}

func TestHoldSuccessCreatesPendingReservations(t *testing.T) {
    co, locks, reservations, _, clock := newTestCoordinator()

    res, err := co.Hold(context.Background(), 1, []string{"1A", "1B"}, 7, 10*time.Minute)
    if err != nil {
        t.Fatalf("hold failed: %v", err)
    }
    if len(res.ReservationIDs) != 2 {
        t.Fatalf("reservation ids = %v, want 2", res.ReservationIDs)
    }
    wantExpiry := clock.Now().Add(10 * time.Minute)
    if !res.ExpiresAt.Equal(wantExpiry) {
        t.Fatalf("expires at %v, want %v", res.ExpiresAt, wantExpiry)
    }
    for _, seat := range []string{"1A", "1B"} {
        if !locks.held(1, seat) {
            t.Errorf("lock for %s should be held", seat)
        }
    }
    if reservations.count() != 2 {
        t.Fatalf("rows = %d, want 2", reservations.count())
    }
    for _, r := range reservations.rows {
        if r.Status != model.ReservationStatusPending {
            t.Errorf("seat %s status = %s, want PENDING", r.SeatNo, r.Status)
        }
    }
}

func TestHoldConflictIsAllOrNothing(t *testing.T) {
    co, locks, reservations, _, _ := newTestCoordinator()

    // Another holder already has 1B.
    if _, err := co.Hold(context.Background(), 1, []string{"1B"}, 99, 10*time.Minute); err != nil {
        t.Fatalf("setup hold failed: %v", err)
    }
    before := reservations.count()

    _, err := co.Hold(context.Background(), 1, []string{"1A", "1B", "1C"}, 7, 10*time.Minute)
    var unavailable *SeatUnavailableError
    if !errors.As(err, &unavailable) {
        t.Fatalf("err = %v, want SeatUnavailableError", err)
    }
    if unavailable.Seat != "1B" {
        t.Fatalf("failed seat = %q, want 1B", unavailable.Seat)
    }
    if reservations.count() != before {
        t.Fatal("a rejected hold must not create any reservation row")
    }
    // The partially acquired 1A lock must have been released.
    if locks.held(1, "1A") {
        t.Fatal("lock for 1A should have been released after conflict")
    }
}

func TestHoldMutualExclusion(t *testing.T) {
    co, _, reservations, _, _ := newTestCoordinator()

    const attempts = 16
    var wg sync.WaitGroup
    errs := make([]error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = co.Hold(context.Background(), 1, []string{"5D"}, uint64(100+i), 10*time.Minute)
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range errs {
        switch {
        case err == nil:
            wins++
        default:
            var unavailable *SeatUnavailableError
            if !errors.As(err, &unavailable) {
                t.Fatalf("unexpected error: %v", err)
            }
        }
    }
    if wins != 1 {
        t.Fatalf("winners = %d, want exactly 1", wins)
    }
    if reservations.count() != 1 {
        t.Fatalf("rows = %d, want 1", reservations.count())
    }
}

func TestHoldTTLSelfHealing(t *testing.T) {
    co, _, _, _, clock := newTestCoordinator()

    if _, err := co.Hold(context.Background(), 1, []string{"3C"}, 7, 10*time.Minute); err != nil {
        t.Fatalf("first hold failed: %v", err)
    }
    if _, err := co.Hold(context.Background(), 1, []string{"3C"}, 8, 10*time.Minute); err == nil {
        t.Fatal("second hold should conflict while TTL is live")
    }

    // No confirmation, no explicit release: the seat frees itself.
    clock.Advance(10*time.Minute + time.Second)
    if _, err := co.Hold(context.Background(), 1, []string{"3C"}, 8, 10*time.Minute); err != nil {
        t.Fatalf("hold after TTL expiry failed: %v", err)
    }
}

func TestFallbackBookingConflict(t *testing.T) {
    co, locks, reservations, bookings, _ := newTestCoordinator()
    locks.unavailable = true
    bookings.occupied[1] = []string{"2A"}

    _, err := co.Hold(context.Background(), 1, []string{"2A"}, 7, 10*time.Minute)
    var unavailable *SeatUnavailableError
    if !errors.As(err, &unavailable) || unavailable.Seat != "2A" {
        t.Fatalf("err = %v, want SeatUnavailableError{2A}", err)
    }
    if reservations.count() != 0 {
        t.Fatal("no reservation may be written for a booked seat")
    }
}

func TestFallbackSameHolderReholdConflicts(t *testing.T) {
    co, locks, _, _, _ := newTestCoordinator()
    locks.unavailable = true

    if _, err := co.Hold(context.Background(), 1, []string{"4A"}, 7, 10*time.Minute); err != nil {
        t.Fatalf("first fallback hold failed: %v", err)
    }
    // Re-holding one's own unexpired seat is still a conflict on the
    // fallback path; there is no idempotent re-hold.
    _, err := co.Hold(context.Background(), 1, []string{"4A"}, 7, 10*time.Minute)
    var unavailable *SeatUnavailableError
    if !errors.As(err, &unavailable) || unavailable.Seat != "4A" {
        t.Fatalf("err = %v, want SeatUnavailableError{4A}", err)
    }
}

func TestFallbackWritesIncrementallyUpToConflict(t *testing.T) {
    co, locks, reservations, bookings, _ := newTestCoordinator()
    locks.unavailable = true
    bookings.occupied[1] = []string{"1C"}

    _, err := co.Hold(context.Background(), 1, []string{"1A", "1B", "1C"}, 7, 10*time.Minute)
    var unavailable *SeatUnavailableError
    if !errors.As(err, &unavailable) || unavailable.Seat != "1C" {
        t.Fatalf("err = %v, want SeatUnavailableError{1C}", err)
    }
    // Seats checked before the conflict were written; they stay
    // PENDING and expire via TTL rather than being rolled back.
    if reservations.count() != 2 {
        t.Fatalf("rows = %d, want 2 (1A and 1B)", reservations.count())
    }
}

func TestFallbackConcurrentHoldsDegrade(t *testing.T) {
    co, locks, reservations, _, _ := newTestCoordinator()
    locks.unavailable = true

    // The fallback path is check-then-insert without a lock, so two
    // concurrent holds can both pass the check before either writes.
    // The degraded guarantee is weaker than mutual exclusion: at
    // least one request wins, duplicates stay bounded by the number
    // of requesters, and every extra row self-heals via its TTL.
    const attempts = 16
    var wg sync.WaitGroup
    errs := make([]error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = co.Hold(context.Background(), 1, []string{"7B"}, uint64(200+i), 10*time.Minute)
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range errs {
        switch {
        case err == nil:
            wins++
        default:
            var unavailable *SeatUnavailableError
            if !errors.As(err, &unavailable) {
                t.Fatalf("unexpected error: %v", err)
            }
        }
    }
    if wins < 1 {
        t.Fatal("at least one concurrent fallback hold must succeed")
    }
    // Each winner wrote exactly one row; losers wrote none.
    if reservations.count() != wins {
        t.Fatalf("rows = %d, want %d (one per winner)", reservations.count(), wins)
    }
}

func TestWriteFailureReleasesLocks(t *testing.T) {
    co, locks, reservations, _, _ := newTestCoordinator()
    reservations.failOnCreate = 1 // second write fails

    _, err := co.Hold(context.Background(), 1, []string{"1A", "1B"}, 7, 10*time.Minute)
    if err == nil {
        t.Fatal("hold should surface the write failure")
    }
    var unavailable *SeatUnavailableError
    if errors.As(err, &unavailable) {
        t.Fatal("a store failure must not masquerade as a seat conflict")
    }
    // Locks must never outlive the failed request.
    for _, seat := range []string{"1A", "1B"} {
        if locks.held(1, seat) {
            t.Errorf("lock for %s should have been released", seat)
        }
    }
}

func TestHoldReleaseRetryScenario(t *testing.T) {
    co, _, reservations, _, clock := newTestCoordinator()

    // Requester A holds 1A and 1B for ten minutes.
    resA, err := co.Hold(context.Background(), 1, []string{"1A", "1B"}, 1001, 10*time.Minute)
    if err != nil {
        t.Fatalf("A's hold failed: %v", err)
    }
    if len(resA.ReservationIDs) != 2 {
        t.Fatalf("A's reservations = %v, want 2", resA.ReservationIDs)
    }

    // Requester B immediately collides on 1B and gets nothing.
    _, err = co.Hold(context.Background(), 1, []string{"1B", "1C"}, 1002, 10*time.Minute)
    var unavailable *SeatUnavailableError
    if !errors.As(err, &unavailable) || unavailable.Seat != "1B" {
        t.Fatalf("B's hold: err = %v, want SeatUnavailableError{1B}", err)
    }
    if reservations.countForHolder(1002) != 0 {
        t.Fatal("B must have zero reservations after the conflict")
    }

    // A never confirms; after the TTL elapses B can take 1B.
    clock.Advance(10*time.Minute + time.Second)
    if _, err := co.Hold(context.Background(), 1, []string{"1B"}, 1002, 10*time.Minute); err != nil {
        t.Fatalf("B's retry after expiry failed: %v", err)
    }
}

func TestReleaseIsIdempotent(t *testing.T) {
    co, locks, _, _, _ := newTestCoordinator()

    if _, err := co.Hold(context.Background(), 1, []string{"6A"}, 7, 10*time.Minute); err != nil {
        t.Fatalf("hold failed: %v", err)
    }
    co.Release(context.Background(), 1, []string{"6A"})
    if locks.held(1, "6A") {
        t.Fatal("lock should be gone after release")
    }
    // A second release of the same seats must not fail or panic.
    co.Release(context.Background(), 1, []string{"6A"})
}
