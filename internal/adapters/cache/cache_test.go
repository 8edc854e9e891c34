package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/cache"
	. "github.com/smartystreets/goconvey/convey"
)

var _ cache.Cache = (*cache.Redis)(nil)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory cache with a controllable clock", t, func() {
		now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
		c := cache.NewMemory(cache.WithClock(func() time.Time { return now }))

		Convey("When a value is stored with a ttl", func() {
			So(c.Set(ctx, "k", []byte("v"), 300*time.Second), ShouldBeNil)

			Convey("Then it is served until the ttl elapses", func() {
				got, err := c.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "v")

				now = now.Add(299 * time.Second)
				_, err = c.Get(ctx, "k")
				So(err, ShouldBeNil)

				now = now.Add(time.Second)
				_, err = c.Get(ctx, "k")
				So(errors.Is(err, cache.ErrMiss), ShouldBeTrue)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a value is deleted", func() {
			_ = c.Set(ctx, "a", []byte("1"), 0)
			_ = c.Set(ctx, "b", []byte("2"), 0)
			So(c.Delete(ctx, "a", "missing"), ShouldBeNil)

			_, err := c.Get(ctx, "a")
			So(errors.Is(err, cache.ErrMiss), ShouldBeTrue)
			_, err = c.Get(ctx, "b")
			So(err, ShouldBeNil)
		})

		Convey("When JSON helpers round a value through", func() {
			type row struct {
				ID  string  `json:"id"`
				ADP float64 `json:"adp"`
			}
			So(cache.SetJSON(ctx, c, cache.ADPKey(2025), []row{{"1", 4.5}}, time.Minute), ShouldBeNil)

			var got []row
			So(cache.GetJSON(ctx, c, cache.ADPKey(2025), &got), ShouldBeNil)
			So(got, ShouldResemble, []row{{"1", 4.5}})

			err := cache.GetJSON(ctx, c, "absent", &got)
			So(errors.Is(err, cache.ErrMiss), ShouldBeTrue)
		})

		Convey("Then keys are stable", func() {
			So(cache.PlayersKey(2025, "RB", true), ShouldEqual, "players:2025:RB:true")
		})
	})
}
