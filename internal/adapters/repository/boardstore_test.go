package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ranked(prefix string, n int) []model.NormalizedPlayer {
	out := make([]model.NormalizedPlayer, n)
	for i := range out {
		out[i] = model.NormalizedPlayer{
			ID:       fmt.Sprintf("%s%d", prefix, i+1),
			Name:     fmt.Sprintf("Player %d", i+1),
			Position: model.WR,
			Rank:     i + 1,
			Score:    1 - float64(i)/float64(n),
			Tier:     model.T1,
		}
	}
	return out
}

func TestMemoryBoardStore(t *testing.T) {
	ctx := context.Background()
	wr := model.BoardQuery{Season: 2025, Position: "wr", OnTeamOnly: true}

	Convey("Given an empty board store", t, func() {
		s := repository.NewMemoryBoardStore()

		Convey("Then reads report not found", func() {
			_, err := s.Get(ctx, wr)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(s.Count(ctx, wr), ShouldEqual, 0)
			_, err = s.Rank(ctx, wr, "w1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a board is stored", func() {
			gen := s.NextGeneration()
			So(s.Put(ctx, wr, gen, ranked("w", 5)), ShouldBeNil)

			Convey("Then it is readable by an equivalent query", func() {
				snap, err := s.Get(ctx, model.BoardQuery{Season: 2025, Position: "WR", OnTeamOnly: true})
				So(err, ShouldBeNil)
				So(snap.Generation, ShouldEqual, gen)
				So(len(snap.Players), ShouldEqual, 5)
				So(s.Count(ctx, wr), ShouldEqual, 5)
			})

			Convey("Then rank and top-N come from the snapshot", func() {
				e, err := s.Rank(ctx, wr, "w3")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 3)

				_, err = s.Rank(ctx, wr, "nope")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				top, err := s.TopN(ctx, wr, 2)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].PlayerID, ShouldEqual, "w1")

				all, err := s.TopN(ctx, wr, 100)
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 5)

				_, err = s.TopN(ctx, wr, 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("Then an older build is discarded", func() {
				err := s.Put(ctx, wr, gen-1, ranked("old", 1))
				So(errors.Is(err, repository.ErrStaleGeneration), ShouldBeTrue)
				So(s.Count(ctx, wr), ShouldEqual, 5)
			})

			Convey("Then a newer build replaces it", func() {
				So(s.Put(ctx, wr, s.NextGeneration(), ranked("w", 2)), ShouldBeNil)
				So(s.Count(ctx, wr), ShouldEqual, 2)
			})

			Convey("Then boards of other queries are kept apart", func() {
				all := model.BoardQuery{Season: 2025, OnTeamOnly: true}
				fresh := ranked("w", 1)
				fresh[0].Name = "Renamed"
				So(s.Put(ctx, all, s.NextGeneration(), fresh), ShouldBeNil)

				snap, err := s.Get(ctx, wr)
				So(err, ShouldBeNil)
				p, ok := snap.Player("w1")
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "Player 1")
				So(s.Count(ctx, all), ShouldEqual, 1)
			})
		})

		Convey("When builds race", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(gen uint64) {
					defer wg.Done()
					_ = s.Put(ctx, wr, gen, ranked("w", int(gen)))
				}(uint64(i + 1))
			}
			wg.Wait()

			Convey("Then the highest generation wins", func() {
				snap, err := s.Get(ctx, wr)
				So(err, ShouldBeNil)
				So(snap.Generation, ShouldEqual, 20)
				So(len(snap.Players), ShouldEqual, 20)
			})
		})
	})
}
