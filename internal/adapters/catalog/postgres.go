package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the postgres driver

	"github.com/okian/merch/internal/domain/model"
)

const defaultQuery = `SELECT product_name, brand, brand_tier, price_usd, cogs_usd,
	days_of_inventory, units_in_stock, views_last_month, volume_sold_last_month
FROM products
ORDER BY product_name`

// Connection pool limits for the catalog database.
const (
	maxOpenConns    = 4
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
)

// PostgresSource reads the catalog from a PostgreSQL table.
type PostgresSource struct {
	loader
	db *sql.DB
}

var _ Source = (*PostgresSource)(nil)

// NewPostgresSource creates a source over an open database handle.
func NewPostgresSource(db *sql.DB, opts ...Option) *PostgresSource {
	return &PostgresSource{loader: newLoader(KindPostgres, opts), db: db}
}

// OpenPostgres opens a pooled connection to dsn and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrLoad, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrLoad, err)
	}
	return db, nil
}

// Load implements Source. NULL columns are treated as missing fields.
func (s *PostgresSource) Load(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, s.fail(err)
	}
	defer rows.Close()

	c := s.collector()
	cols := make([]sql.NullString, len(model.RecordFields))
	dest := make([]any, len(cols))
	for i := range cols {
		dest[i] = &cols[i]
	}
	for row := 1; rows.Next(); row++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, s.fail(err)
		}
		rec := make(model.Record, len(cols))
		for i, f := range model.RecordFields {
			if cols[i].Valid {
				rec[f] = cols[i].String
			}
		}
		if err := c.add(ctx, row, rec); err != nil {
			return nil, s.fail(err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(err)
	}
	return c.done(ctx), nil
}
