package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/bus-seat-booking/internal/model"
)

// ErrBusNotFound is returned when a bus lookup matches no row.
var ErrBusNotFound = errors.New("bus not found")

// ErrRegNoExists is returned when creating a bus with a duplicate
// registration number.
var ErrRegNoExists = errors.New("registration number already exists")

// BusRepo provides data access to the buses table.
type BusRepo struct {
    db *sql.DB
}

// NewBusRepo returns a new BusRepo bound to the given database.
func NewBusRepo(db *sql.DB) *BusRepo { return &BusRepo{db: db} }

// Create inserts a bus and populates its generated ID.  A duplicate
// registration number surfaces as ErrRegNoExists.
func (r *BusRepo) Create(ctx context.Context, b *model.Bus) error {
    const q = `INSERT INTO buses (operator_id, name, reg_no, seat_map_json) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, b.OperatorID, b.Name, b.RegNo, b.SeatMapJSON)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrRegNoExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// GetByID loads a bus.  Returns ErrBusNotFound when missing.
func (r *BusRepo) GetByID(ctx context.Context, id uint64) (model.Bus, error) {
    const q = `SELECT id, operator_id, name, reg_no, seat_map_json, is_active, created_at
               FROM buses WHERE id = ?`
    var b model.Bus
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.OperatorID, &b.Name, &b.RegNo, &b.SeatMapJSON, &b.IsActive, &b.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Bus{}, ErrBusNotFound
        }
        return model.Bus{}, err
    }
    return b, nil
}

// ListByOperator returns all buses owned by the given operator.
func (r *BusRepo) ListByOperator(ctx context.Context, operatorID uint64) ([]model.Bus, error) {
    const q = `SELECT id, operator_id, name, reg_no, seat_map_json, is_active, created_at
               FROM buses WHERE operator_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, operatorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    buses := make([]model.Bus, 0)
    for rows.Next() {
        var b model.Bus
        if err := rows.Scan(&b.ID, &b.OperatorID, &b.Name, &b.RegNo, &b.SeatMapJSON, &b.IsActive, &b.CreatedAt); err != nil {
            return nil, err
        }
        buses = append(buses, b)
    }
    return buses, rows.Err()
}
