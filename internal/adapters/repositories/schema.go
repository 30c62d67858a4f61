package repositories

import (
	"context"
	"database/sql"
	"driver-batching-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InitSchema creates the orders and drivers tables. The DDL is portable
// between Postgres and SQLite.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		restaurant_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		delivery_lat DOUBLE PRECISION,
		delivery_lon DOUBLE PRECISION,
		delivery_address TEXT NOT NULL DEFAULT '',
		item_count INTEGER NOT NULL DEFAULT 0,
		total_amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'ready',
		driver_id TEXT,
		is_batched BOOLEAN NOT NULL DEFAULT FALSE,
		batch_id TEXT
	);
	`

	createDriversQuery := `
	CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		max_batch_orders INTEGER NOT NULL DEFAULT 3,
		is_busy BOOLEAN NOT NULL DEFAULT FALSE,
		current_batch_count INTEGER NOT NULL DEFAULT 0
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_status_driver
	ON orders(status, driver_id);
	`

	statements := []string{
		createOrdersQuery,
		createDriversQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type OrderSeed struct {
	ID              string              `json:"id"`
	RestaurantID    string              `json:"restaurant_id"`
	RestaurantName  string              `json:"restaurant_name"`
	CreatedAt       time.Time           `json:"created_at"`
	Location        *domain.Coordinates `json:"delivery_location"`
	DeliveryAddress string              `json:"delivery_address"`
	ItemCount       int                 `json:"item_count"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
}

type DriverSeed struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	MaxBatchOrders int    `json:"max_batch_orders"`
}

// Seed is the on-disk format of a demo data file.
type Seed struct {
	Drivers []DriverSeed `json:"drivers"`
	Orders  []OrderSeed  `json:"orders"`
}

// Populate the database with drivers and ready orders from a JSON file.
// Existing rows with the same id are reset to their seeded state.
func SeedFromJSON(ctx context.Context, db *sql.DB, dialect Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	for i, d := range data.Drivers {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("seed: driver at index %d: id cannot be empty", i+1)
		}
	}
	for i, o := range data.Orders {
		if strings.TrimSpace(o.ID) == "" {
			return fmt.Errorf("seed: order at index %d: id cannot be empty", i+1)
		}
		if strings.TrimSpace(o.RestaurantID) == "" {
			return fmt.Errorf("seed: order %q: restaurant_id cannot be empty", o.ID)
		}
		if o.CreatedAt.IsZero() {
			return fmt.Errorf("seed: order %q: created_at is required", o.ID)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	driverStmt, err := tx.PrepareContext(ctx, dialect.rebind(`
	INSERT INTO drivers (id, name, email, max_batch_orders, is_busy, current_batch_count)
	VALUES (?, ?, ?, ?, FALSE, 0)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		email = excluded.email,
		max_batch_orders = excluded.max_batch_orders,
		is_busy = FALSE,
		current_batch_count = 0;
	`))
	if err != nil {
		return fmt.Errorf("seed: prepare driver insert: %w", err)
	}
	defer driverStmt.Close()

	for _, d := range data.Drivers {
		maxOrders := d.MaxBatchOrders
		if maxOrders <= 0 {
			maxOrders = domain.DefaultMaxBatchOrders
		}
		if _, err := driverStmt.ExecContext(ctx, d.ID, d.Name, d.Email, maxOrders); err != nil {
			return fmt.Errorf("seed: insert driver id=%s: %w", d.ID, err)
		}
	}

	orderStmt, err := tx.PrepareContext(ctx, dialect.rebind(`
	INSERT INTO orders (
		id,
		restaurant_id,
		restaurant_name,
		created_at,
		delivery_lat,
		delivery_lon,
		delivery_address,
		item_count,
		total_amount,
		status,
		driver_id,
		is_batched,
		batch_id
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'ready', NULL, FALSE, NULL)
	ON CONFLICT (id) DO UPDATE
	SET restaurant_id = excluded.restaurant_id,
		restaurant_name = excluded.restaurant_name,
		created_at = excluded.created_at,
		delivery_lat = excluded.delivery_lat,
		delivery_lon = excluded.delivery_lon,
		delivery_address = excluded.delivery_address,
		item_count = excluded.item_count,
		total_amount = excluded.total_amount,
		status = 'ready',
		driver_id = NULL,
		is_batched = FALSE,
		batch_id = NULL;
	`))
	if err != nil {
		return fmt.Errorf("seed: prepare order insert: %w", err)
	}
	defer orderStmt.Close()

	for _, o := range data.Orders {
		var lat, lon sql.NullFloat64
		if o.Location != nil {
			lat = sql.NullFloat64{Float64: o.Location.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: o.Location.Lon, Valid: true}
		}

		_, err := orderStmt.ExecContext(ctx,
			o.ID,
			o.RestaurantID,
			o.RestaurantName,
			dialect.timeArg(o.CreatedAt),
			lat,
			lon,
			o.DeliveryAddress,
			o.ItemCount,
			o.TotalAmount.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("seed: insert order id=%s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
