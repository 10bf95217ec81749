package scoring_test

import (
	"testing"

	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func product(in model.ProductInput) *model.Product {
	p := model.NewProduct(in)
	return &p
}

func TestSalesVelocity(t *testing.T) {
	Convey("Given the sales velocity score", t, func() {
		Convey("When a product has no views", func() {
			p := product(model.ProductInput{Name: "x", Price: 100, COGS: 10, VolumeSoldLastMonth: 500})

			Convey("Then it scores zero regardless of other fields", func() {
				So(scoring.SalesVelocity(p), ShouldEqual, 0)
			})
		})

		Convey("When conversion and volume are below their caps", func() {
			// conversion 2% -> 20; volume 50/200 -> 25
			p := product(model.ProductInput{Name: "x", ViewsLastMonth: 2500, VolumeSoldLastMonth: 50})

			Convey("Then the two are blended 60/40", func() {
				So(scoring.SalesVelocity(p), ShouldAlmostEqual, 0.6*20+0.4*25, 1e-9)
			})
		})

		Convey("When both dimensions exceed their caps", func() {
			p := product(model.ProductInput{Name: "x", ViewsLastMonth: 1000, VolumeSoldLastMonth: 900})

			Convey("Then each is capped before blending", func() {
				So(scoring.SalesVelocity(p), ShouldAlmostEqual, 100, 1e-9)
			})
		})
	})
}

func TestProfitMargin(t *testing.T) {
	Convey("Given the profit margin score", t, func() {
		Convey("When the margin is 50%", func() {
			p := product(model.ProductInput{Name: "x", Price: 100, COGS: 50})

			Convey("Then it reaches the cap", func() {
				So(p.ProfitMarginPct, ShouldEqual, 50)
				So(scoring.ProfitMargin(p), ShouldEqual, 100)
			})
		})

		Convey("When the margin is 20%", func() {
			p := product(model.ProductInput{Name: "x", Price: 100, COGS: 80})

			Convey("Then it scales linearly", func() {
				So(scoring.ProfitMargin(p), ShouldAlmostEqual, 40, 1e-9)
			})
		})

		Convey("When the product sells at a loss", func() {
			p := product(model.ProductInput{Name: "x", Price: 10, COGS: 15})

			Convey("Then the score floors at zero", func() {
				So(scoring.ProfitMargin(p), ShouldEqual, 0)
			})
		})
	})
}

func TestInventoryHealth(t *testing.T) {
	Convey("Given the inventory health score", t, func() {
		cases := []struct {
			days int
			want float64
		}{
			{0, 0},
			{10, 33.333333},
			{30, 100},
			{45, 100},
			{90, 100},
			{190, 50},
			{290, 0},
			{400, 0},
		}
		for _, c := range cases {
			p := product(model.ProductInput{Name: "x", DaysInventory: c.days})
			So(scoring.InventoryHealth(p), ShouldAlmostEqual, c.want, 1e-5)
		}
	})
}

func TestBrandTierAndEngagement(t *testing.T) {
	Convey("Given brand tiers", t, func() {
		So(scoring.BrandTier(product(model.ProductInput{BrandTier: "A"})), ShouldEqual, 100)
		So(scoring.BrandTier(product(model.ProductInput{BrandTier: "B"})), ShouldEqual, 75)
		So(scoring.BrandTier(product(model.ProductInput{BrandTier: "C"})), ShouldEqual, 50)

		Convey("When the tier is unknown", func() {
			So(scoring.BrandTier(product(model.ProductInput{BrandTier: "Z"})), ShouldEqual, 50)
		})
	})

	Convey("Given engagement", t, func() {
		So(scoring.Engagement(product(model.ProductInput{ViewsLastMonth: 2500})), ShouldEqual, 50)
		So(scoring.Engagement(product(model.ProductInput{ViewsLastMonth: 90000})), ShouldEqual, 100)
	})
}

func TestSubScoreRange(t *testing.T) {
	Convey("Given a spread of products including degenerate ones", t, func() {
		inputs := []model.ProductInput{
			{Name: "zero"},
			{Name: "loss", Price: 5, COGS: 50, DaysInventory: 1000, BrandTier: "?"},
			{Name: "huge", Price: 1e6, COGS: 1, DaysInventory: 60, UnitsInStock: 1e6, ViewsLastMonth: 1e7, VolumeSoldLastMonth: 1e7, BrandTier: "A"},
			{Name: "sold-more-than-viewed", Price: 20, COGS: 4, ViewsLastMonth: 3, VolumeSoldLastMonth: 300},
		}

		Convey("Then every sub-score stays within [0, 100]", func() {
			for _, in := range inputs {
				b := scoring.Score(product(in))
				for _, s := range []float64{b.SalesVelocity, b.ProfitMargin, b.InventoryHealth, b.BrandTier, b.Engagement} {
					So(s, ShouldBeBetweenOrEqual, 0, 100)
				}
			}
		})
	})
}

func TestComposite(t *testing.T) {
	Convey("Given a strong product", t, func() {
		p := product(model.ProductInput{
			Name: "hero", BrandTier: "A", Price: 100, COGS: 40,
			DaysInventory: 45, UnitsInStock: 100, ViewsLastMonth: 6000, VolumeSoldLastMonth: 900,
		})
		w := model.DefaultTouchpoints()[model.HomepageCarousel].Weights

		Convey("When no boost applies", func() {
			got := scoring.Composite(p, w, 1)

			Convey("Then it equals the weighted blend", func() {
				So(got, ShouldAlmostEqual, scoring.Score(p).Weighted(w), 1e-9)
				So(got, ShouldBeLessThanOrEqualTo, 100)
			})
		})

		Convey("When a large boost applies", func() {
			Convey("Then the result is capped at 100", func() {
				So(scoring.Composite(p, w, 3), ShouldEqual, 100)
			})
		})

		Convey("When weights bypass validation with a negative entry", func() {
			bad := model.ScoringWeights{SalesVelocity: -2}

			Convey("Then the composite is not floored", func() {
				So(scoring.Composite(p, bad, 1), ShouldBeLessThan, 0)
			})
		})

		Convey("When using the Scorer implementation", func() {
			var s scoring.Scorer = scoring.NewWeightedScorer()

			Convey("Then it matches the package function", func() {
				So(s.Composite(p, w, 1.2), ShouldEqual, scoring.Composite(p, w, 1.2))
			})
		})
	})
}
