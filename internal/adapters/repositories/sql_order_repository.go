package repositories

import (
	"context"
	"database/sql"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SQL-backed implementation of the order and driver ports. Works on
// Postgres (pgx) and SQLite (modernc) through Dialect.
type SQLOrderRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLOrderRepository(db *sql.DB, dialect Dialect) *SQLOrderRepository {
	return &SQLOrderRepository{DB: db, Dialect: dialect}
}

// Return every ready, unassigned order, oldest first. The pool is the same
// for every driver; driverID only scopes logging and caching upstream.
func (s *SQLOrderRepository) ListAvailableOrders(ctx context.Context, driverID string) (_ []*domain.DeliverableOrder, err error) {
	defer obs.Time(ctx, "orders.db.ListAvailableOrders")(&err)

	if s.DB == nil {
		return nil, errors.New("sql order repository: DB is nil")
	}

	query := s.Dialect.rebind(`
	SELECT
		id,
		restaurant_id,
		restaurant_name,
		created_at,
		delivery_lat,
		delivery_lon,
		delivery_address,
		item_count,
		total_amount
	FROM orders
	WHERE status = ?
		AND driver_id IS NULL
	ORDER BY created_at, id;
	`)
	rows, err := s.DB.QueryContext(ctx, query, domain.OrderStatusReady)
	if err != nil {
		return nil, fmt.Errorf("list available orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.DeliverableOrder, 0, 64)
	for rows.Next() {
		var (
			o        domain.DeliverableOrder
			created  sqlTime
			lat, lon sql.NullFloat64
			amount   decimal.Decimal
		)
		err := rows.Scan(
			&o.ID,
			&o.RestaurantID,
			&o.RestaurantName,
			&created,
			&lat,
			&lon,
			&o.DeliveryAddress,
			&o.ItemCount,
			&amount,
		)
		if err != nil {
			return nil, fmt.Errorf("list available orders: scan row: %w", err)
		}

		o.CreatedAt = created.UTC()
		o.TotalAmount = amount
		if lat.Valid && lon.Valid {
			o.DeliveryLocation = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available orders: row iteration: %w", err)
	}

	return orders, nil
}

// AssignOrder claims an order for driverID only if it is still ready and
// unassigned. The check and the write are one statement, so two drivers
// racing for the same order cannot both win.
func (s *SQLOrderRepository) AssignOrder(
	ctx context.Context,
	orderID string,
	driverID string,
	update ports.AssignmentUpdate,
) (err error) {
	defer obs.Time(ctx, "orders.db.AssignOrder")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	batchID := sql.NullString{String: update.BatchID, Valid: update.BatchID != ""}

	res, err := s.DB.ExecContext(ctx, s.Dialect.rebind(`
	UPDATE orders
	SET status = ?,
		driver_id = ?,
		is_batched = ?,
		batch_id = ?
	WHERE id = ?
		AND status = ?
		AND driver_id IS NULL;
	`), update.Status, driverID, update.IsBatched, batchID, orderID, domain.OrderStatusReady)
	if err != nil {
		return fmt.Errorf("assign order %q: update: %w", orderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign order %q: rows affected: %w", orderID, err)
	}
	if n == 1 {
		return nil
	}

	var one int
	err = s.DB.QueryRowContext(ctx, s.Dialect.rebind(`SELECT 1 FROM orders WHERE id = ?;`), orderID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("assign order %q: %w", orderID, ports.ErrOrderNotFound)
	}
	if err != nil {
		return fmt.Errorf("assign order %q: lookup: %w", orderID, err)
	}
	return fmt.Errorf("assign order %q: %w", orderID, ports.ErrAssignmentConflict)
}

func (s *SQLOrderRepository) SetDriverBusy(ctx context.Context, driverID string, status ports.DriverStatus) (err error) {
	defer obs.Time(ctx, "orders.db.SetDriverBusy")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, s.Dialect.rebind(`
	UPDATE drivers
	SET is_busy = ?,
		current_batch_count = ?
	WHERE id = ?;
	`), status.IsBusy, status.CurrentBatchCount, driverID)
	if err != nil {
		return fmt.Errorf("set driver busy %q: update: %w", driverID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set driver busy %q: rows affected: %w", driverID, err)
	}
	if n == 0 {
		return fmt.Errorf("set driver busy %q: %w", driverID, ports.ErrDriverNotFound)
	}
	return nil
}

func (s *SQLOrderRepository) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if s.DB == nil {
		return nil, errors.New("sql order repository: DB is nil")
	}

	var d domain.Driver
	err := s.DB.QueryRowContext(ctx, s.Dialect.rebind(`
	SELECT id, name, email, max_batch_orders
	FROM drivers
	WHERE id = ?;
	`), driverID).Scan(&d.ID, &d.Name, &d.Email, &d.MaxBatchOrders)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get driver %q: %w", driverID, ports.ErrDriverNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get driver %q: %w", driverID, err)
	}
	return &d, nil
}

// DriverStatus reads back the busy flag and batch count for driverID.
func (s *SQLOrderRepository) DriverStatus(ctx context.Context, driverID string) (st ports.DriverStatus, err error) {
	defer obs.Time(ctx, "orders.db.DriverStatus")(&err)

	if s.DB == nil {
		return st, errors.New("sql order repository: DB is nil")
	}

	err = s.DB.QueryRowContext(ctx, s.Dialect.rebind(`
	SELECT is_busy, current_batch_count
	FROM drivers
	WHERE id = ?;
	`), driverID).Scan(&st.IsBusy, &st.CurrentBatchCount)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("driver status %q: %w", driverID, ports.ErrDriverNotFound)
	}
	if err != nil {
		return st, fmt.Errorf("driver status %q: %w", driverID, err)
	}
	return st, nil
}
