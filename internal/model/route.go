package model

import "time"

// Route represents a bus route between two cities.  Schedules
// reference a route and a bus; many schedules may run on the same
// route on different days or times.
//
// Fields:
//  ID          – primary key identifier.
//  Origin      – departure city or terminal name.
//  Destination – arrival city or terminal name.
//  DistanceKM  – approximate route length in kilometres.
//  CreatedAt   – creation timestamp.
type Route struct {
    ID          uint64    // routes.id
    Origin      string    // routes.origin
    Destination string    // routes.destination
    DistanceKM  uint32    // routes.distance_km
    CreatedAt   time.Time // routes.created_at
}
