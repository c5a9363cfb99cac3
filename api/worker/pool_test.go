package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/eventstream"
	"github.com/papercomputeco/toolbox/pkg/logger"
	"github.com/papercomputeco/toolbox/pkg/storage"
	"github.com/papercomputeco/toolbox/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/toolbox/pkg/utils/test"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.CallCompletedEvent
	err    error
}

func (r *recordingPublisher) PublishCall(_ context.Context, e *eventstream.CallCompletedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) Events() []*eventstream.CallCompletedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.CallCompletedEvent(nil), r.events...)
}

type failingDriver struct {
	storage.Driver
}

func (failingDriver) Put(context.Context, *storage.CallRecord) error {
	return errors.New("disk full")
}

// blockingDriver holds every Put until release is closed.
type blockingDriver struct {
	*inmemory.Driver
	release chan struct{}
}

func (b *blockingDriver) Put(ctx context.Context, rec *storage.CallRecord) error {
	<-b.release
	return b.Driver.Put(ctx, rec)
}

// newTestPool creates a worker pool backed by an in-memory driver.
// Callers should "wp.Close()" to drain enqueued jobs before asserting storage state.
func newTestPool(pub eventstream.Publisher) (*Pool, *inmemory.Driver) {
	driver := inmemory.NewDriver()

	wp, err := NewPool(&Config{
		Driver:    driver,
		Publisher: pub,
		Logger:    logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, driver
}

var _ = Describe("Worker Pool", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewPool", func() {
		It("requires a driver", func() {
			_, err := NewPool(&Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
		})

		It("requires a logger", func() {
			_, err := NewPool(&Config{Driver: inmemory.NewDriver()})
			Expect(err).To(MatchError(ContainSubstring("requires a logger")))
		})

		It("applies defaults", func() {
			wp, _ := newTestPool(nil)
			defer wp.Close()

			Expect(wp.config.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(wp.config.QueueSize).To(Equal(defaultJobQueueSize))
			Expect(wp.config.JobTimeout).To(Equal(defaultJobTimeout))
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, _ := newTestPool(nil)
			ok := wp.Enqueue(Job{Surface: "api", Record: testutils.NewCallRecord("call-1", time.Now())})
			Expect(ok).To(BeTrue())
			wp.Close()
		})

		It("rejects jobs without a record", func() {
			wp, _ := newTestPool(nil)
			defer wp.Close()
			Expect(wp.Enqueue(Job{Surface: "api"})).To(BeFalse())
		})

		It("drops jobs when the queue is full", func() {
			driver := &blockingDriver{Driver: inmemory.NewDriver(), release: make(chan struct{})}
			wp, err := NewPool(&Config{
				Driver:     driver,
				NumWorkers: 1,
				QueueSize:  1,
				Logger:     logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			// One job is held by the worker, one fills the queue.
			Expect(wp.Enqueue(Job{Record: testutils.NewCallRecord("a", time.Now())})).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(Equal(0))
			Expect(wp.Enqueue(Job{Record: testutils.NewCallRecord("b", time.Now())})).To(BeTrue())
			Expect(wp.Enqueue(Job{Record: testutils.NewCallRecord("c", time.Now())})).To(BeFalse())

			close(driver.release)
			wp.Close()
		})
	})

	Describe("processing", func() {
		It("stores records and publishes events", func() {
			pub := &recordingPublisher{}
			wp, driver := newTestPool(pub)

			rec := testutils.NewCallRecord("call-1", time.Now())
			Expect(wp.Enqueue(Job{Surface: "mcp", Record: rec})).To(BeTrue())
			wp.Close()

			got, err := driver.Get(ctx, "call-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Tool).To(Equal(rec.Tool))

			events := pub.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Source.Surface).To(Equal("mcp"))
			Expect(events[0].Call.ID).To(Equal("call-1"))
		})

		It("skips publishing when the ledger write fails", func() {
			pub := &recordingPublisher{}
			wp, err := NewPool(&Config{
				Driver:    failingDriver{},
				Publisher: pub,
				Logger:    logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			wp.Enqueue(Job{Record: testutils.NewCallRecord("call-1", time.Now())})
			wp.Close()

			Expect(pub.Events()).To(BeEmpty())
		})

		It("keeps the record when publishing fails", func() {
			pub := &recordingPublisher{err: errors.New("broker down")}
			wp, driver := newTestPool(pub)

			wp.Enqueue(Job{Record: testutils.NewCallRecord("call-1", time.Now())})
			wp.Close()

			_, err := driver.Get(ctx, "call-1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("drains every queued job on close", func() {
			wp, driver := newTestPool(nil)
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				Expect(wp.Enqueue(Job{Record: testutils.NewCallRecord(id, time.Now())})).To(BeTrue())
			}
			wp.Close()

			all, err := driver.List(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(5))
		})

		It("tolerates repeated close", func() {
			wp, _ := newTestPool(nil)
			wp.Close()
			Expect(wp.Close).NotTo(Panic())
		})
	})
})
