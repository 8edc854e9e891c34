package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/mq/queue"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/mq/worker"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockSaver struct {
	mu      sync.Mutex
	saved   map[string][]model.DraftPick
	cleared []string
	order   []uint64
	err     error
}

func newMockSaver() *mockSaver {
	return &mockSaver{saved: map[string][]model.DraftPick{}}
}

func (ms *mockSaver) SavePicks(_ context.Context, draftID string, picks []model.DraftPick) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.err != nil {
		return ms.err
	}
	ms.saved[draftID] = picks
	ms.order = append(ms.order, uint64(len(picks)))
	return nil
}

func (ms *mockSaver) ClearPicks(_ context.Context, draftID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.cleared = append(ms.cleared, draftID)
	delete(ms.saved, draftID)
	return nil
}

func picks(n int) []model.DraftPick {
	out := make([]model.DraftPick, n)
	for i := range out {
		out[i] = model.DraftPick{PlayerID: string(rune('a' + i)), Overall: i + 1}
	}
	return out
}

func waitDone(w *worker.InMemoryWorker) bool {
	select {
	case <-w.Done():
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		saver := newMockSaver()
		w := worker.NewInMemoryWorker(q, saver, worker.WithName("test-worker"))

		convey.Convey("When jobs for a draft arrive in order", func() {
			q.jobs <- queue.Job{DraftID: "d1", Generation: 1, Picks: picks(1)}
			q.jobs <- queue.Job{DraftID: "d1", Generation: 2, Picks: picks(2)}
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then the latest list is saved", func() {
				convey.So(len(saver.saved["d1"]), convey.ShouldEqual, 2)
				convey.So(saver.order, convey.ShouldResemble, []uint64{1, 2})
			})
		})

		convey.Convey("When an older job arrives after a newer one", func() {
			q.jobs <- queue.Job{DraftID: "d1", Generation: 5, Picks: picks(3)}
			q.jobs <- queue.Job{DraftID: "d1", Generation: 4, Picks: picks(1)}
			q.jobs <- queue.Job{DraftID: "d2", Generation: 1, Picks: picks(1)}
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then the stale job is skipped and other drafts are unaffected", func() {
				convey.So(len(saver.saved["d1"]), convey.ShouldEqual, 3)
				convey.So(len(saver.saved["d2"]), convey.ShouldEqual, 1)
				convey.So(len(saver.order), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a clear job arrives", func() {
			q.jobs <- queue.Job{DraftID: "d1", Generation: 1, Picks: picks(2)}
			q.jobs <- queue.Job{DraftID: "d1", Generation: 2, Clear: true}
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then the draft's picks are cleared", func() {
				convey.So(saver.cleared, convey.ShouldResemble, []string{"d1"})
				convey.So(saver.saved, convey.ShouldNotContainKey, "d1")
			})
		})

		convey.Convey("When saving fails", func() {
			saver.err = errors.New("db down")
			q.jobs <- queue.Job{DraftID: "d1", Generation: 1, Picks: picks(1)}
			q.jobs <- queue.Job{DraftID: "d1", Generation: 1, Picks: picks(1)}
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then the worker keeps going and the generation is not committed", func() {
				convey.So(saver.order, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When shut down while idle", func() {
			go w.Run(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(waitDone(w), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		saver := newMockSaver()
		pool := worker.NewPool(4, q, saver)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)

		for gen := uint64(1); gen <= 20; gen++ {
			convey.So(q.Enqueue(ctx, queue.Job{DraftID: "d1", Generation: gen, Picks: picks(int(gen % 5))}), convey.ShouldBeNil)
		}
		convey.So(q.Enqueue(ctx, queue.Job{DraftID: "d2", Generation: 1, Picks: picks(2)}), convey.ShouldBeNil)

		convey.Convey("When the pool shuts down", func() {
			err := pool.Shutdown(ctx)

			convey.Convey("Then pending jobs are drained and the queue is closed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(len(saver.saved["d2"]), convey.ShouldEqual, 2)
				convey.So(len(saver.order), convey.ShouldBeBetweenOrEqual, 2, 21)
			})
		})
	})
}
