package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/merch/internal/adapters/repository"
	"github.com/okian/merch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func counting(calls *int) repository.ComputeFunc {
	return func(context.Context) ([]model.RankedEntry, error) {
		*calls++
		return []model.RankedEntry{{Product: model.Product{Name: "p"}, Score: float64(*calls), Position: 1}}, nil
	}
}

func TestCacheGetOrCompute(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty cache with a controllable clock", t, func() {
		clk := &clock{t: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
		c := repository.NewCache(repository.WithClock(clk.now))
		calls := 0

		Convey("When reading twice within the ttl", func() {
			first, hit1, err1 := c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))
			clk.advance(59 * time.Minute)
			second, hit2, err2 := c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))

			Convey("Then the second read returns the stored entry verbatim", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(hit1, ShouldBeFalse)
				So(hit2, ShouldBeTrue)
				So(calls, ShouldEqual, 1)
				So(second, ShouldResemble, first)
				So(first.ExpiresAt, ShouldEqual, first.ComputedAt.Add(time.Hour))
				So(first.Generation, ShouldNotBeEmpty)
			})
		})

		Convey("When the entry expires", func() {
			first, _, _ := c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))
			clk.advance(time.Hour)
			second, hit, err := c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))

			Convey("Then it is recomputed", func() {
				So(err, ShouldBeNil)
				So(hit, ShouldBeFalse)
				So(calls, ShouldEqual, 2)
				So(second.Generation, ShouldNotEqual, first.Generation)
			})
		})

		Convey("When forcing a refresh", func() {
			_, _, _ = c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))
			_, hit, err := c.GetOrCompute(ctx, "tp", time.Hour, true, counting(&calls))

			Convey("Then the fresh entry replaces the cached one", func() {
				So(err, ShouldBeNil)
				So(hit, ShouldBeFalse)
				So(calls, ShouldEqual, 2)
				e, ok := c.Peek(ctx, "tp")
				So(ok, ShouldBeTrue)
				So(e.Rankings[0].Score, ShouldEqual, 2)
			})
		})

		Convey("When invalidating", func() {
			_, _, _ = c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))

			Convey("Then the next read recomputes", func() {
				So(c.Invalidate(ctx, "tp"), ShouldBeTrue)
				So(c.Invalidate(ctx, "tp"), ShouldBeFalse)
				_, hit, _ := c.GetOrCompute(ctx, "tp", time.Hour, false, counting(&calls))
				So(hit, ShouldBeFalse)
				So(calls, ShouldEqual, 2)
			})
		})

		Convey("When invalidating everything", func() {
			_, _, _ = c.GetOrCompute(ctx, "a", time.Hour, false, counting(&calls))
			_, _, _ = c.GetOrCompute(ctx, "b", time.Hour, false, counting(&calls))

			Convey("Then all entries are dropped", func() {
				So(c.InvalidateAll(ctx), ShouldEqual, 2)
				So(c.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When compute fails", func() {
			boom := errors.New("boom")
			_, _, err := c.GetOrCompute(ctx, "tp", time.Hour, false, func(context.Context) ([]model.RankedEntry, error) {
				return nil, boom
			})

			Convey("Then the error is wrapped and nothing is stored", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(errors.Is(err, repository.ErrCompute), ShouldBeTrue)
				So(c.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the ttl is not positive", func() {
			_, _, err := c.GetOrCompute(ctx, "tp", 0, false, counting(&calls))

			Convey("Then ErrInvalidTTL is returned without computing", func() {
				So(errors.Is(err, repository.ErrInvalidTTL), ShouldBeTrue)
				So(calls, ShouldEqual, 0)
			})
		})

		Convey("When sweeping", func() {
			_, _, _ = c.GetOrCompute(ctx, "short", time.Minute, false, counting(&calls))
			_, _, _ = c.GetOrCompute(ctx, "long", time.Hour, false, counting(&calls))
			clk.advance(2 * time.Minute)

			Convey("Then only expired entries are evicted", func() {
				So(c.Sweep(ctx), ShouldEqual, 1)
				_, ok := c.Peek(ctx, "long")
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestCacheRunStopsOnCancel(t *testing.T) {
	Convey("Given a running sweeper", t, func() {
		c := repository.NewCache(repository.WithSweepInterval(time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			c.Run(ctx)
			close(done)
		}()

		Convey("When the context is cancelled", func() {
			cancel()

			Convey("Then Run returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("sweeper did not stop")
				}
			})
		})
	})
}
