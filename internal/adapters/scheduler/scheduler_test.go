package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/merch/internal/adapters/scheduler"
	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeRefresher struct {
	mu         sync.Mutex
	refreshes  map[string]int
	snapshots  int
	reloads    int
	failUntil  int
	refreshErr error
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{refreshes: make(map[string]int)}
}

func (f *fakeRefresher) Refresh(_ context.Context, id string) (types.Rankings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes[id]++
	if f.refreshes[id] <= f.failUntil {
		return types.Rankings{}, f.refreshErr
	}
	return types.Rankings{
		TouchpointID: id,
		TotalCount:   1,
		Products: []model.RankedEntry{{
			Product: model.Product{Name: "scarce", UnitsInStock: 2, DaysInventory: 120},
		}},
	}, nil
}

func (f *fakeRefresher) RecordPerformance(context.Context, string) (analytics.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return analytics.Snapshot{}, nil
}

func (f *fakeRefresher) ReloadCatalog(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return errors.New("catalog unavailable")
}

func (f *fakeRefresher) counts(id string) (refreshes, snapshots, reloads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes[id], f.snapshots, f.reloads
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

func TestScheduler(t *testing.T) {
	Convey("Given a scheduler with a short tick", t, func() {
		f := newFakeRefresher()
		intervals := map[string]time.Duration{
			model.HomepageCarousel: time.Hour,
			model.CollectionPage:   6 * time.Hour,
		}
		s := scheduler.New(f, intervals,
			scheduler.WithTick(3*time.Millisecond),
			scheduler.WithCatalogReloader(f),
			scheduler.WithAlertLimit(1),
		)

		Convey("When started", func() {
			So(s.Start(context.Background()), ShouldBeNil)
			defer s.Stop()

			Convey("Then every touchpoint is refreshed and snapshotted", func() {
				So(eventually(func() bool {
					a, snaps, _ := f.counts(model.HomepageCarousel)
					b, _, _ := f.counts(model.CollectionPage)
					return a >= 2 && b >= 2 && snaps >= 4
				}), ShouldBeTrue)
				So(len(s.Workers()), ShouldEqual, 3)
			})

			Convey("Then a failing catalog reload does not stop the loop", func() {
				So(eventually(func() bool {
					_, _, reloads := f.counts("")
					return reloads >= 3
				}), ShouldBeTrue)
			})

			Convey("Then starting twice is rejected", func() {
				So(errors.Is(s.Start(context.Background()), scheduler.ErrAlreadyStarted), ShouldBeTrue)
			})
		})

		Convey("When refreshes fail at first", func() {
			f.failUntil = 2
			f.refreshErr = errors.New("catalog temporarily empty")
			So(s.Start(context.Background()), ShouldBeNil)
			defer s.Stop()

			Convey("Then the worker keeps ticking and recovers", func() {
				So(eventually(func() bool {
					_, snaps, _ := f.counts(model.HomepageCarousel)
					return snaps >= 1
				}), ShouldBeTrue)
				n, _, _ := f.counts(model.HomepageCarousel)
				So(n, ShouldBeGreaterThanOrEqualTo, 3)
			})
		})

		Convey("When stopped", func() {
			So(s.Start(context.Background()), ShouldBeNil)
			So(eventually(func() bool {
				n, _, _ := f.counts(model.HomepageCarousel)
				return n >= 1
			}), ShouldBeTrue)
			s.Stop()
			before, _, _ := f.counts(model.HomepageCarousel)
			time.Sleep(20 * time.Millisecond)
			after, _, _ := f.counts(model.HomepageCarousel)

			Convey("Then no work happens after Stop returns", func() {
				So(after, ShouldEqual, before)
			})

			Convey("Then stopping again is a no-op", func() {
				So(func() { s.Stop() }, ShouldNotPanic)
				So(s.Shutdown(context.Background()), ShouldBeNil)
			})
		})
	})

	Convey("Given a scheduler without a tick override", t, func() {
		f := newFakeRefresher()
		s := scheduler.New(f, map[string]time.Duration{"a": time.Hour, "b": 0})

		Convey("When started", func() {
			So(s.Start(context.Background()), ShouldBeNil)
			defer s.Stop()
			workers := s.Workers()

			Convey("Then workers use the configured intervals and unscheduled touchpoints are skipped", func() {
				So(len(workers), ShouldEqual, 1)
				So(workers[0].Name(), ShouldEqual, "refresh-a")
				So(workers[0].Interval(), ShouldEqual, time.Hour)
			})

			Convey("Then the first refresh runs without waiting a full interval", func() {
				So(eventually(func() bool {
					n, snaps, _ := f.counts("a")
					return n == 1 && snaps == 1
				}), ShouldBeTrue)
				b, _, _ := f.counts("b")
				So(b, ShouldEqual, 0)
			})

			Convey("Then Shutdown joins within its deadline", func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				So(s.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}
