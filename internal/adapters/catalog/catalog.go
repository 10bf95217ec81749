// Package catalog loads catalog snapshots from external stores.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

// Source kinds accepted by configuration.
const (
	KindCSV      = "csv"
	KindPostgres = "postgres"
)

// Source produces a catalog snapshot.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Load reads the full catalog.
	Load(ctx context.Context) ([]model.Product, error)
}

// loader holds the behaviour shared by every Source.
type loader struct {
	name          string
	skipMalformed bool
	query         string
	logger        logger.Logger
}

func newLoader(name string, opts []Option) loader {
	l := loader{
		name:   name,
		query:  defaultQuery,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// Name implements Source.
func (l *loader) Name() string { return l.name }

// collector turns raw records into products, applying the malformed policy.
// Product names are unique within a snapshot; a repeated name counts as a
// malformed record.
type collector struct {
	l        *loader
	products []model.Product
	seen     map[string]struct{}
	skipped  int
}

func (l *loader) collector() *collector {
	return &collector{l: l, seen: make(map[string]struct{})}
}

func (c *collector) add(ctx context.Context, row int, r model.Record) error {
	p, err := model.ParseRecord(r)
	if err == nil {
		if _, dup := c.seen[p.Name]; dup {
			err = fmt.Errorf("%w: %w: %q", model.ErrMalformedRecord, ErrDuplicate, p.Name)
		}
	}
	if err != nil {
		metrics.RecordMalformedRecord(c.l.name)
		if !c.l.skipMalformed {
			return fmt.Errorf("%w: %s row %d: %w", ErrLoad, c.l.name, row, err)
		}
		c.skipped++
		c.l.logger.Warn(ctx, "skipping malformed catalog record",
			logger.String("source", c.l.name),
			logger.Int("row", row),
			logger.Error(err),
		)
		return nil
	}
	c.seen[p.Name] = struct{}{}
	c.products = append(c.products, p)
	return nil
}

func (c *collector) done(ctx context.Context) []model.Product {
	metrics.RecordCatalogLoad(c.l.name, "ok")
	c.l.logger.Info(ctx, "catalog loaded",
		logger.String("source", c.l.name),
		logger.Int("products", len(c.products)),
		logger.Int("skipped", c.skipped),
	)
	return c.products
}

func (l *loader) fail(err error) error {
	metrics.RecordCatalogLoad(l.name, "error")
	if errors.Is(err, ErrLoad) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrLoad, l.name, err)
}
