package model

import "time"

// Schedule statuses.  Seats may only be held or booked while the
// schedule is ACTIVE.
const (
    ScheduleStatusPending   = "PENDING"
    ScheduleStatusActive    = "ACTIVE"
    ScheduleStatusCancelled = "CANCELLED"
)

// Schedule represents a single trip of a bus on a route.  It carries
// the departure and arrival timestamps and the per-seat fare.  Many
// reservations and bookings reference one schedule.
//
// Fields:
//  ID          – primary key identifier.
//  RouteID     – route the trip runs on.
//  BusID       – bus assigned to the trip; its seat map defines the seat universe.
//  DepartureAt – departure time (UTC).
//  ArrivalAt   – arrival time (UTC).
//  FareCents   – price per seat in cents.
//  Status      – PENDING, ACTIVE or CANCELLED.
//  CreatedAt   – creation timestamp.
type Schedule struct {
    ID          uint64    // schedules.id
    RouteID     uint64    // schedules.route_id
    BusID       uint64    // schedules.bus_id
    DepartureAt time.Time // schedules.departure_at
    ArrivalAt   time.Time // schedules.arrival_at
    FareCents   uint32    // schedules.fare_cents
    Status      string    // schedules.status
    CreatedAt   time.Time // schedules.created_at
}

// BoardingPoint is a pickup stop for a schedule.
type BoardingPoint struct {
    ID           uint64 // boarding_points.id
    ScheduleID   uint64 // boarding_points.schedule_id
    Time         string // boarding_points.time (HH:MM)
    LocationName string // boarding_points.location_name
    Landmark     string // boarding_points.landmark
}

// DroppingPoint is a drop-off stop for a schedule.
type DroppingPoint struct {
    ID           uint64 // dropping_points.id
    ScheduleID   uint64 // dropping_points.schedule_id
    Time         string // dropping_points.time (HH:MM)
    LocationName string // dropping_points.location_name
    Description  string // dropping_points.description
}
