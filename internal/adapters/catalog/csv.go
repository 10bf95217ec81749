package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/merch/internal/domain/model"
)

// CSVSource reads a catalog export with a header row.
type CSVSource struct {
	loader
	path string
}

var _ Source = (*CSVSource)(nil)

// NewCSVSource creates a source reading the file at path.
func NewCSVSource(path string, opts ...Option) *CSVSource {
	return &CSVSource{loader: newLoader(KindCSV, opts), path: path}
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) ([]model.Product, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, s.fail(err)
	}
	defer f.Close()

	products, err := s.read(ctx, f)
	if err != nil {
		return nil, s.fail(err)
	}
	return products, nil
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) ([]model.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty catalog file %s", s.path)
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	c := s.collector()
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(model.Record, len(header))
		for i, h := range header {
			if i < len(fields) {
				rec[h] = fields[i]
			}
		}
		if err := c.add(ctx, row, rec); err != nil {
			return nil, err
		}
	}
	return c.done(ctx), nil
}
