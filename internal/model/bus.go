package model

import "time"

// Bus represents a vehicle owned by an operator.  The seat layout of
// the bus is stored as a JSON document in SeatMapJSON and decoded on
// demand with DecodeSeatMap.  Schedules reference the bus whose
// layout defines the seat universe for that trip.
//
// Fields:
//  ID         – primary key identifier.
//  OperatorID – user (role OPERATOR) who owns the bus.
//  Name       – display name of the bus (e.g. "Volvo AC Sleeper").
//  RegNo      – unique registration plate number.
//  SeatMapJSON – serialized seat layout {rows, cols, labels, types}.
//  IsActive   – whether the bus can be scheduled.
//  CreatedAt  – creation timestamp.
type Bus struct {
    ID          uint64    // buses.id
    OperatorID  uint64    // buses.operator_id
    Name        string    // buses.name
    RegNo       string    // buses.reg_no
    SeatMapJSON string    // buses.seat_map_json
    IsActive    bool      // buses.is_active
    CreatedAt   time.Time // buses.created_at
}
