package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/okian/merch/internal/adapters/catalog"
	"github.com/okian/merch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var columns = []string{
	"product_name", "brand", "brand_tier", "price_usd", "cogs_usd",
	"days_of_inventory", "units_in_stock", "views_last_month", "volume_sold_last_month",
}

func TestPostgresSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a products table", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()

		Convey("When every row is complete", func() {
			mock.ExpectQuery("SELECT (.+) FROM products").WillReturnRows(
				sqlmock.NewRows(columns).
					AddRow("Trail Runner", "Northpeak", "A", "120.00", "48.00", "45", "80", "4000", "150").
					AddRow("Canvas Tote", "Loomwell", "C", "25", "20", "100", "10", "200", "4"),
			)
			products, err := catalog.NewPostgresSource(db).Load(ctx)

			Convey("Then every row becomes a product", func() {
				So(err, ShouldBeNil)
				So(len(products), ShouldEqual, 2)
				So(products[0].Price, ShouldEqual, 120)
				So(products[1].UnitsInStock, ShouldEqual, 10)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When a row has a NULL column", func() {
			mock.ExpectQuery("SELECT (.+) FROM products").WillReturnRows(
				sqlmock.NewRows(columns).
					AddRow("Trail Runner", "Northpeak", "A", "120.00", "48.00", "45", "80", "4000", "150").
					AddRow("Ghost", "Loomwell", "C", nil, "20", "100", "10", "200", "4"),
			)

			Convey("Then a strict load fails", func() {
				_, err := catalog.NewPostgresSource(db).Load(ctx)
				So(errors.Is(err, catalog.ErrLoad), ShouldBeTrue)
				So(errors.Is(err, model.ErrMalformedRecord), ShouldBeTrue)
			})

			Convey("Then a lenient load skips the row", func() {
				products, err := catalog.NewPostgresSource(db, catalog.WithSkipMalformed(true)).Load(ctx)
				So(err, ShouldBeNil)
				So(len(products), ShouldEqual, 1)
			})
		})

		Convey("When the query fails", func() {
			mock.ExpectQuery("SELECT (.+) FROM products").WillReturnError(errors.New("connection reset"))
			_, err := catalog.NewPostgresSource(db).Load(ctx)

			Convey("Then ErrLoad is returned", func() {
				So(errors.Is(err, catalog.ErrLoad), ShouldBeTrue)
			})
		})

		Convey("When a custom query is configured", func() {
			mock.ExpectQuery("SELECT (.+) FROM catalog_view").WillReturnRows(sqlmock.NewRows(columns))
			products, err := catalog.NewPostgresSource(db,
				catalog.WithQuery("SELECT * FROM catalog_view"),
			).Load(ctx)

			Convey("Then it is used", func() {
				So(err, ShouldBeNil)
				So(products, ShouldBeEmpty)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})
}
