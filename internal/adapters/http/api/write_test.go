package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteJSON(t *testing.T) {
	Convey("Given a response recorder", t, func() {
		rec := httptest.NewRecorder()

		Convey("When the payload encodes", func() {
			writeJSON(rec, http.StatusCreated, map[string]float64{"score": 1.5})

			Convey("Then the status and body are written", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var got map[string]float64
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got["score"], ShouldEqual, 1.5)
			})
		})

		Convey("When the payload holds a non-finite number", func() {
			writeJSON(rec, http.StatusOK, map[string]float64{"score": math.NaN()})

			Convey("Then a 500 error body replaces it", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				var got errorResponse
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.Code, ShouldEqual, "internal_error")
			})
		})
	})
}
