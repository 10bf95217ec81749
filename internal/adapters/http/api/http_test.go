package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/merch/internal/adapters/http/api"
	service "github.com/okian/merch/internal/app"
	"github.com/okian/merch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type rankedProduct struct {
	Name             string  `json:"name"`
	Score            float64 `json:"merchandising_score"`
	Position         int     `json:"position"`
	IsManualOverride bool    `json:"is_manual_override"`
}

type rankingsBody struct {
	TouchpointID string                        `json:"touchpoint_id"`
	TotalCount   int                           `json:"total_count"`
	Cached       bool                          `json:"cached"`
	Products     []rankedProduct               `json:"products"`
	Breakdowns   map[string]map[string]float64 `json:"score_breakdowns"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func product(name, brand, tier string, sold int) model.Product {
	return model.NewProduct(model.ProductInput{
		Name: name, Brand: brand, BrandTier: tier,
		Price: 80, COGS: 30, DaysInventory: 40, UnitsInStock: 60,
		ViewsLastMonth: 3000, VolumeSoldLastMonth: sold,
	})
}

func catalog() []model.Product {
	return []model.Product{
		product("Trail Runner", "Northpeak", "A", 180),
		product("Rain Shell", "Northpeak", "A", 120),
		product("Wool Beanie", "Loomwell", "B", 90),
		product("Canvas Tote", "Harbor", "C", 30),
	}
}

func newMux(loaded bool, opts ...service.Option) *http.ServeMux {
	svc, err := service.New(opts...)
	So(err, ShouldBeNil)
	if loaded {
		svc.LoadCatalog(context.Background(), catalog())
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestServer_Routes(t *testing.T) {
	Convey("Given a server over a loaded catalog", t, func() {
		mux := newMux(true)

		Convey("Health and metrics are served", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)

			w = do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "merch_ranker_http_requests_total")
		})

		Convey("Rankings are returned and then served from cache", func() {
			w := do(mux, http.MethodGet, "/rankings/homepage_carousel", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			first := decode[rankingsBody](w)
			So(first.TouchpointID, ShouldEqual, model.HomepageCarousel)
			So(first.TotalCount, ShouldEqual, 4)
			So(first.Cached, ShouldBeFalse)
			So(first.Products[0].Name, ShouldEqual, "Trail Runner")
			So(first.Products[0].Position, ShouldEqual, 1)
			So(first.Breakdowns, ShouldBeNil)

			second := decode[rankingsBody](do(mux, http.MethodGet, "/rankings/homepage_carousel", ""))
			So(second.Cached, ShouldBeTrue)

			forced := decode[rankingsBody](do(mux, http.MethodGet, "/rankings/homepage_carousel?force_refresh=true", ""))
			So(forced.Cached, ShouldBeFalse)
		})

		Convey("Explain adds the sub-scores of every ranked product", func() {
			body := decode[rankingsBody](do(mux, http.MethodGet, "/rankings/collection_page?explain=true", ""))
			So(len(body.Breakdowns), ShouldEqual, 4)
			So(body.Breakdowns["Trail Runner"], ShouldContainKey, "sales_velocity")
			So(body.Breakdowns["Trail Runner"]["brand_tier"], ShouldEqual, 100.0)
		})

		Convey("A malformed query flag is a bad request", func() {
			w := do(mux, http.MethodGet, "/rankings/homepage_carousel?force_refresh=maybe", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An unknown touchpoint is not found", func() {
			w := do(mux, http.MethodGet, "/rankings/checkout_addon", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[errorBody](w).Code, ShouldEqual, "unknown_touchpoint")
		})

		Convey("Touchpoints list their configuration", func() {
			w := do(mux, http.MethodGet, "/touchpoints", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			cfgs := decode[[]model.TouchpointConfig](w)
			So(len(cfgs), ShouldEqual, 2)
			So(cfgs[0].ID, ShouldEqual, model.CollectionPage)
			So(cfgs[1].MaxProducts, ShouldEqual, 20)
		})

		Convey("Stats report the catalog", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](w)
			So(stats["catalog_loaded"], ShouldEqual, true)
			So(stats["catalog_size"], ShouldEqual, 4.0)
		})

		Convey("Analytics summarize the current ranking", func() {
			w := do(mux, http.MethodGet, "/analytics/homepage_carousel", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode[map[string]any](w)
			summary := body["analytics"].(map[string]any)
			So(summary["total_products"], ShouldEqual, 4.0)
			So(body["manual_overrides_count"], ShouldEqual, 0.0)
		})

		Convey("Performance without recorded snapshots is not found", func() {
			w := do(mux, http.MethodGet, "/performance/homepage_carousel", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[errorBody](w).Code, ShouldEqual, "no_performance_data")
		})

		Convey("A wrong method is rejected by the mux", func() {
			w := do(mux, http.MethodPost, "/rankings/homepage_carousel", `{}`)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a server before any catalog load", t, func() {
		mux := newMux(false)

		Convey("Rankings are unavailable", func() {
			w := do(mux, http.MethodGet, "/rankings/homepage_carousel", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decode[errorBody](w).Code, ShouldEqual, "catalog_not_loaded")
		})
	})
}

func TestServer_Mutations(t *testing.T) {
	Convey("Given a server over a loaded catalog", t, func() {
		mux := newMux(true)
		rankings := func() rankingsBody {
			return decode[rankingsBody](do(mux, http.MethodGet, "/rankings/homepage_carousel", ""))
		}
		_ = rankings()

		Convey("When pinning a product", func() {
			w := do(mux, http.MethodPost, "/overrides/homepage_carousel", `{"product_name":"Canvas Tote","position":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then the next read is recomputed with the product first", func() {
				r := rankings()
				So(r.Cached, ShouldBeFalse)
				So(r.Products[0].Name, ShouldEqual, "Canvas Tote")
				So(r.Products[0].IsManualOverride, ShouldBeTrue)
			})

			Convey("Then it is listed with its 1-based position", func() {
				body := decode[map[string]any](do(mux, http.MethodGet, "/overrides/homepage_carousel", ""))
				list := body["overrides"].([]any)
				So(len(list), ShouldEqual, 1)
				So(list[0].(map[string]any)["position"], ShouldEqual, 1.0)
			})

			Convey("Then clearing it restores the algorithmic order", func() {
				w := do(mux, http.MethodDelete, "/overrides/homepage_carousel/Canvas%20Tote", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				r := rankings()
				So(r.Products[0].Name, ShouldEqual, "Trail Runner")

				w = do(mux, http.MethodDelete, "/overrides/homepage_carousel/Canvas%20Tote", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](w).Code, ShouldEqual, "override_not_found")
			})
		})

		Convey("When the override position is below 1", func() {
			w := do(mux, http.MethodPost, "/overrides/homepage_carousel", `{"product_name":"Canvas Tote","position":0}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "invalid_position")
			})
		})

		Convey("When the body is missing or malformed", func() {
			So(do(mux, http.MethodPost, "/overrides/homepage_carousel", `{"product_name":"x"`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/overrides/homepage_carousel", `{"position":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/blacklist/homepage_carousel", `{"product_name":"x","extra":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/blacklist/homepage_carousel", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When blacklisting a product", func() {
			w := do(mux, http.MethodPost, "/blacklist/homepage_carousel", `{"product_name":"Trail Runner"}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			Convey("Then it disappears from the ranking", func() {
				r := rankings()
				So(r.TotalCount, ShouldEqual, 3)
				for _, p := range r.Products {
					So(p.Name, ShouldNotEqual, "Trail Runner")
				}
			})
		})

		Convey("When updating weights", func() {
			bad := do(mux, http.MethodPut, "/weights/homepage_carousel", `{"sales_velocity":0.9}`)
			good := do(mux, http.MethodPut, "/weights/homepage_carousel", `{"sales_velocity":0.25,"engagement_score":0.2}`)

			Convey("Then invalid sums are rejected and valid ones applied", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](bad).Code, ShouldEqual, "invalid_weights")
				So(good.Code, ShouldEqual, http.StatusOK)
				cfgs := decode[[]model.TouchpointConfig](do(mux, http.MethodGet, "/touchpoints", ""))
				So(cfgs[1].Weights.SalesVelocity, ShouldEqual, 0.25)
			})
		})

		Convey("When registering seasonal boosts", func() {
			bad := do(mux, http.MethodPut, "/boosts/homepage_carousel", `{"product_name":"Canvas Tote","multiplier":0}`)
			good := do(mux, http.MethodPut, "/boosts/homepage_carousel", `{"product_name":"Canvas Tote","multiplier":1.5}`)

			Convey("Then non-positive multipliers are rejected", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](bad).Code, ShouldEqual, "invalid_boost")
				So(good.Code, ShouldEqual, http.StatusOK)
			})
		})
	})

	Convey("Given a touchpoint that forbids manual overrides", t, func() {
		cfg := model.DefaultTouchpoints()[model.HomepageCarousel]
		cfg.AllowManualOverrides = false
		mux := newMux(true, service.WithTouchpoints(map[string]model.TouchpointConfig{cfg.ID: cfg}))

		Convey("Then setting an override conflicts", func() {
			w := do(mux, http.MethodPost, "/overrides/homepage_carousel", `{"product_name":"Canvas Tote","position":1}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decode[errorBody](w).Code, ShouldEqual, "overrides_disabled")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		Convey("Wrap keeps the cause reachable", func() {
			err := api.Wrap("api.op", service.ErrUnknownTouchpoint)
			So(errors.Is(err, service.ErrUnknownTouchpoint), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: unknown touchpoint")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})

		Convey("WrapKind exposes both the kind and the cause", func() {
			cause := errors.New("boom")
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrMissingField)
			So(errors.Is(err, api.ErrMissingField), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: missing field")
		})
	})
}
