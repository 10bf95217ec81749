package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/merch/internal/domain/model"
	types "github.com/okian/merch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRankingsJSON(t *testing.T) {
	Convey("Given a rankings response", t, func() {
		r := types.Rankings{
			TouchpointID: model.HomepageCarousel,
			GeneratedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			TotalCount:   1,
			MaxProducts:  20,
			Products: []model.RankedEntry{{
				Product:          model.Product{Name: "Widget"},
				Score:            42.5,
				Position:         1,
				IsManualOverride: true,
			}},
		}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(r)
			So(err, ShouldBeNil)
			var doc map[string]any
			So(json.Unmarshal(raw, &doc), ShouldBeNil)

			Convey("Then the wire names are stable", func() {
				So(doc["touchpoint_id"], ShouldEqual, model.HomepageCarousel)
				So(doc["max_products"], ShouldEqual, 20)
				products := doc["products"].([]any)
				first := products[0].(map[string]any)
				So(first["merchandising_score"], ShouldEqual, 42.5)
				So(first["position"], ShouldEqual, 1)
				So(first["is_manual_override"], ShouldEqual, true)
				So(first["name"], ShouldEqual, "Widget")
			})
		})
	})
}
