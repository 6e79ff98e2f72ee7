package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ErrRouteNotFound is returned when a route lookup matches no row.
var ErrRouteNotFound = errors.New("route not found")

// RouteRepo provides data access to the routes table.
type RouteRepo struct {
    db *sql.DB
}

// NewRouteRepo returns a new RouteRepo bound to the given database.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// Create inserts a route and populates its generated ID.
func (r *RouteRepo) Create(ctx context.Context, route *model.Route) error {
    const q = `INSERT INTO routes (origin, destination, distance_km) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, route.Origin, route.Destination, route.DistanceKM)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    route.ID = uint64(id)
    return nil
}

// GetByID loads a route.  Returns ErrRouteNotFound when missing.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (model.Route, error) {
    const q = `SELECT id, origin, destination, distance_km, created_at FROM routes WHERE id = ?`
    var route model.Route
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &route.ID, &route.Origin, &route.Destination, &route.DistanceKM, &route.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Route{}, ErrRouteNotFound
        }
        return model.Route{}, err
    }
    return route, nil
}

// List returns all routes ordered by origin then destination.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
    const q = `SELECT id, origin, destination, distance_km, created_at
               FROM routes ORDER BY origin, destination`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    routes := make([]model.Route, 0)
    for rows.Next() {
        var route model.Route
        if err := rows.Scan(&route.ID, &route.Origin, &route.Destination, &route.DistanceKM, &route.CreatedAt); err != nil {
            return nil, err
        }
        routes = append(routes, route)
    }
    return routes, rows.Err()
}
