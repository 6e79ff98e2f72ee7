package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ErrScheduleNotFound is returned when a schedule lookup matches no
// row.  Handlers translate it into an HTTP 404 response.
var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleRepo provides data access to the schedules table and the
// per-schedule boarding and dropping points.  All timestamps are
// stored and compared in UTC.
type ScheduleRepo struct {
    db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the provided database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// DB exposes the underlying handle for callers that need to open
// transactions spanning multiple repositories.
func (r *ScheduleRepo) DB() *sql.DB { return r.db }

// GetByID loads a single schedule.  It returns ErrScheduleNotFound
// when no row exists.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (model.Schedule, error) {
    const q = `SELECT id, route_id, bus_id, departure_at, arrival_at, fare_cents, status, created_at
               FROM schedules WHERE id = ?`
    var s model.Schedule
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.RouteID, &s.BusID, &s.DepartureAt, &s.ArrivalAt, &s.FareCents, &s.Status, &s.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Schedule{}, ErrScheduleNotFound
        }
        return model.Schedule{}, err
    }
    return s, nil
}

// ListActive returns ACTIVE schedules, optionally filtered by route
// and by departure date (YYYY-MM-DD, matched against the UTC
// departure day).  Results are ordered by departure time.
func (r *ScheduleRepo) ListActive(ctx context.Context, routeID uint64, date string) ([]model.Schedule, error) {
    q := `SELECT id, route_id, bus_id, departure_at, arrival_at, fare_cents, status, created_at
          FROM schedules WHERE status = 'ACTIVE'`
    args := make([]interface{}, 0, 2)
    if routeID != 0 {
        q += ` AND route_id = ?`
        args = append(args, routeID)
    }
    if date != "" {
        q += ` AND DATE(departure_at) = ?`
        args = append(args, date)
    }
    q += ` ORDER BY departure_at`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    schedules := make([]model.Schedule, 0)
    for rows.Next() {
        var s model.Schedule
        if err := rows.Scan(&s.ID, &s.RouteID, &s.BusID, &s.DepartureAt, &s.ArrivalAt, &s.FareCents, &s.Status, &s.CreatedAt); err != nil {
            return nil, err
        }
        schedules = append(schedules, s)
    }
    return schedules, rows.Err()
}

// ListByOperator returns every schedule whose bus belongs to the
// given operator, newest departure first.
func (r *ScheduleRepo) ListByOperator(ctx context.Context, operatorID uint64) ([]model.Schedule, error) {
    const q = `SELECT s.id, s.route_id, s.bus_id, s.departure_at, s.arrival_at, s.fare_cents, s.status, s.created_at
               FROM schedules s
               JOIN buses b ON b.id = s.bus_id
               WHERE b.operator_id = ?
               ORDER BY s.departure_at DESC`
    rows, err := r.db.QueryContext(ctx, q, operatorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    schedules := make([]model.Schedule, 0)
    for rows.Next() {
        var s model.Schedule
        if err := rows.Scan(&s.ID, &s.RouteID, &s.BusID, &s.DepartureAt, &s.ArrivalAt, &s.FareCents, &s.Status, &s.CreatedAt); err != nil {
            return nil, err
        }
        schedules = append(schedules, s)
    }
    return schedules, rows.Err()
}

// Create inserts a schedule and populates its generated ID.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
    const q = `INSERT INTO schedules (route_id, bus_id, departure_at, arrival_at, fare_cents, status)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        s.RouteID, s.BusID,
        s.DepartureAt.UTC().Format("2006-01-02 15:04:05"),
        s.ArrivalAt.UTC().Format("2006-01-02 15:04:05"),
        s.FareCents, s.Status,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// UpdateStatus changes a schedule's status after verifying that the
// schedule's bus belongs to the calling operator.  It returns
// ErrScheduleNotFound when the schedule does not exist and
// ErrForbidden when the bus is owned by someone else.
func (r *ScheduleRepo) UpdateStatus(ctx context.Context, scheduleID, operatorID uint64, status string) error {
    const checkQ = `SELECT b.operator_id FROM schedules s JOIN buses b ON b.id = s.bus_id WHERE s.id = ?`
    var ownerID uint64
    if err := r.db.QueryRowContext(ctx, checkQ, scheduleID).Scan(&ownerID); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrScheduleNotFound
        }
        return err
    }
    if ownerID != operatorID {
        return ErrForbidden
    }
    _, err := r.db.ExecContext(ctx, `UPDATE schedules SET status = ? WHERE id = ?`, status, scheduleID)
    return err
}

// SeatMapInfo carries everything the seat map endpoint needs in one
// read: the schedule's status and fare plus the raw layout document
// of its bus.
type SeatMapInfo struct {
    Status      string
    FareCents   uint32
    SeatMapJSON string
}

// GetSeatMapInfo joins a schedule with its bus to fetch the seat
// layout JSON.  Returns ErrScheduleNotFound when the schedule is
// missing.
func (r *ScheduleRepo) GetSeatMapInfo(ctx context.Context, scheduleID uint64) (SeatMapInfo, error) {
    const q = `SELECT s.status, s.fare_cents, b.seat_map_json
               FROM schedules s
               JOIN buses b ON b.id = s.bus_id
               WHERE s.id = ?`
    var info SeatMapInfo
    err := r.db.QueryRowContext(ctx, q, scheduleID).Scan(&info.Status, &info.FareCents, &info.SeatMapJSON)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return SeatMapInfo{}, ErrScheduleNotFound
        }
        return SeatMapInfo{}, err
    }
    return info, nil
}

// BoardingPoints returns the boarding points of a schedule ordered
// by pickup time.
func (r *ScheduleRepo) BoardingPoints(ctx context.Context, scheduleID uint64) ([]model.BoardingPoint, error) {
    const q = `SELECT id, schedule_id, time, location_name, landmark
               FROM boarding_points WHERE schedule_id = ? ORDER BY time`
    rows, err := r.db.QueryContext(ctx, q, scheduleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    points := make([]model.BoardingPoint, 0)
    for rows.Next() {
        var p model.BoardingPoint
        if err := rows.Scan(&p.ID, &p.ScheduleID, &p.Time, &p.LocationName, &p.Landmark); err != nil {
            return nil, err
        }
        points = append(points, p)
    }
    return points, rows.Err()
}

// DroppingPoints returns the dropping points of a schedule ordered
// by drop-off time.
func (r *ScheduleRepo) DroppingPoints(ctx context.Context, scheduleID uint64) ([]model.DroppingPoint, error) {
    const q = `SELECT id, schedule_id, time, location_name, description
               FROM dropping_points WHERE schedule_id = ? ORDER BY time`
    rows, err := r.db.QueryContext(ctx, q, scheduleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    points := make([]model.DroppingPoint, 0)
    for rows.Next() {
        var p model.DroppingPoint
        if err := rows.Scan(&p.ID, &p.ScheduleID, &p.Time, &p.LocationName, &p.Description); err != nil {
            return nil, err
        }
        points = append(points, p)
    }
    return points, rows.Err()
}

// AddBoardingPoint inserts a boarding point for a schedule.
func (r *ScheduleRepo) AddBoardingPoint(ctx context.Context, p *model.BoardingPoint) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO boarding_points (schedule_id, time, location_name, landmark) VALUES (?, ?, ?, ?)`,
        p.ScheduleID, p.Time, p.LocationName, p.Landmark)
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

// AddDroppingPoint inserts a dropping point for a schedule.
func (r *ScheduleRepo) AddDroppingPoint(ctx context.Context, p *model.DroppingPoint) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO dropping_points (schedule_id, time, location_name, description) VALUES (?, ?, ?, ?)`,
        p.ScheduleID, p.Time, p.LocationName, p.Description)
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
