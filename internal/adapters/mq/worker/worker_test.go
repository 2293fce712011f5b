package worker_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mzare/ecotrace/internal/adapters/mq/queue"
	"github.com/mzare/ecotrace/internal/adapters/mq/worker"
	"github.com/mzare/ecotrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type stubScorer struct{}

func (stubScorer) Score(attrs model.ProductAttributes) model.CFScore {
	return model.CFScore{Value: attrs.Price, Band: model.BandLow}
}

type recordingCorpus struct {
	mu       sync.Mutex
	products map[string]model.Product
	failOn   string
}

func newRecordingCorpus() *recordingCorpus {
	return &recordingCorpus{products: make(map[string]model.Product)}
}

func (c *recordingCorpus) Add(ctx context.Context, p model.Product) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.ProductID == c.failOn {
		return false, errors.New("corpus write refused")
	}
	_, existed := c.products[p.ProductID]
	c.products[p.ProductID] = p
	return !existed, nil
}

func (c *recordingCorpus) get(id string) (model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	return p, ok
}

func (c *recordingCorpus) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products)
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func ingestEvent(id string, price float64) worker.Event {
	return model.IngestEvent{
		EventID:   "ev-" + id,
		ProductID: id,
		Attributes: model.ProductAttributes{
			PackagingMaterial: "paper",
			ShippingMode:      "local",
			Price:             price,
		},
	}
}

func TestWorkerProcessesEvents(t *testing.T) {
	Convey("Given a worker over a live queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		corpus := newRecordingCorpus()
		w := worker.NewWorker(q, stubScorer{}, corpus, worker.WithName("test-worker"))
		go w.Run(ctx)

		Convey("When events are enqueued", func() {
			So(q.Enqueue(ctx, ingestEvent("p1", 42)), ShouldBeTrue)
			So(q.Enqueue(ctx, ingestEvent("p2", 7)), ShouldBeTrue)

			Convey("Then scored products land in the corpus", func() {
				So(waitUntil(func() bool { return corpus.size() == 2 }), ShouldBeTrue)

				p, ok := corpus.get("p1")
				So(ok, ShouldBeTrue)
				So(p.Score.Value, ShouldEqual, 42)
				So(p.Score.Band, ShouldEqual, model.BandLow)
				So(p.Attributes.PackagingMaterial, ShouldEqual, "paper")
			})
		})

		Convey("When a corpus write fails", func() {
			corpus.failOn = "poison"
			So(q.Enqueue(ctx, ingestEvent("poison", 1)), ShouldBeTrue)
			So(q.Enqueue(ctx, ingestEvent("after", 2)), ShouldBeTrue)

			Convey("Then the worker keeps processing later events", func() {
				So(waitUntil(func() bool {
					_, ok := corpus.get("after")
					return ok
				}), ShouldBeTrue)
				_, ok := corpus.get("poison")
				So(ok, ShouldBeFalse)
			})
		})

		Reset(func() {
			_ = q.Close()
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		defer q.Close()

		w := worker.NewWorker(q, stubScorer{}, newRecordingCorpus())
		go w.Run(ctx)

		Convey("When shut down", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			Convey("Then it stops within the deadline", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers draining one queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		corpus := newRecordingCorpus()
		pool := worker.NewPool(4, q, stubScorer{}, corpus)
		pool.Start(ctx)

		Convey("When many events are enqueued", func() {
			const n = 100
			for i := 0; i < n; i++ {
				So(q.Enqueue(ctx, ingestEvent("bulk-"+strconv.Itoa(i), float64(i))), ShouldBeTrue)
			}

			Convey("Then the pool drains the queue into the corpus", func() {
				So(waitUntil(func() bool { return corpus.size() == n }), ShouldBeTrue)
			})
		})

		Convey("When the pool shuts down", func() {
			So(q.Enqueue(ctx, ingestEvent("last", 1)), ShouldBeTrue)

			Convey("Then the queue closes and pending events are processed", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				_, ok := corpus.get("last")
				So(ok, ShouldBeTrue)
			})
		})
	})
}
