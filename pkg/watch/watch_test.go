package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/upload"
	"github.com/papercomputeco/kbconsole/pkg/watch"
)

// fakeUploader records uploads instead of sending them.
type fakeUploader struct {
	mu       sync.Mutex
	requests []client.UploadRequest
	fail     map[string]error
	block    chan struct{}
}

func (f *fakeUploader) Upload(ctx context.Context, req client.UploadRequest, _ *upload.Tracker) (*client.UploadResult, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := f.fail[filepath.Base(req.Path)]; err != nil {
		return nil, err
	}
	return &client.UploadResult{Filename: filepath.Base(req.Path), Status: "success"}, nil
}

func (f *fakeUploader) uploaded() []client.UploadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.UploadRequest(nil), f.requests...)
}

var _ = Describe("Pool", func() {
	It("uploads every queued job and reports results", func() {
		up := &fakeUploader{fail: map[string]error{"bad.pdf": errors.New("boom")}}

		var (
			mu      sync.Mutex
			results []watch.Result
		)
		pool, err := watch.NewPool(&watch.PoolConfig{
			Uploader: up,
			OnResult: func(r watch.Result) {
				mu.Lock()
				defer mu.Unlock()
				results = append(results, r)
			},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(watch.Job{Path: "/tmp/good.pdf", Metadata: client.Metadata{Title: "Good"}})).To(BeTrue())
		Expect(pool.Enqueue(watch.Job{Path: "/tmp/bad.pdf", Metadata: client.Metadata{Title: "Bad"}})).To(BeTrue())
		pool.Close()

		Expect(up.uploaded()).To(HaveLen(2))
		Expect(results).To(HaveLen(2))
		Expect(results[0].Err).NotTo(HaveOccurred())
		Expect(results[0].Upload.Filename).To(Equal("good.pdf"))
		Expect(results[1].Err).To(MatchError("boom"))
	})

	It("drops jobs when the queue is full", func() {
		up := &fakeUploader{block: make(chan struct{})}
		pool, err := watch.NewPool(&watch.PoolConfig{Uploader: up, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())

		// One job held by the worker, one in the queue.
		Expect(pool.Enqueue(watch.Job{Path: "a"})).To(BeTrue())
		Eventually(func() bool { return pool.Enqueue(watch.Job{Path: "b"}) }).Should(BeTrue())
		Expect(pool.Enqueue(watch.Job{Path: "c"})).To(BeFalse())

		close(up.block)
		pool.Close()
		Expect(up.uploaded()).To(HaveLen(2))
	})

	It("waits for queue space when asked", func() {
		up := &fakeUploader{block: make(chan struct{})}
		pool, err := watch.NewPool(&watch.PoolConfig{Uploader: up, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(watch.Job{Path: "a"})).To(BeTrue())
		Eventually(func() bool { return pool.Enqueue(watch.Job{Path: "b"}) }).Should(BeTrue())

		queued := make(chan bool, 1)
		go func() { queued <- pool.EnqueueWait(context.Background(), watch.Job{Path: "c"}) }()
		Consistently(queued, 50*time.Millisecond).ShouldNot(Receive())

		close(up.block)
		Eventually(queued).Should(Receive(BeTrue()))
		pool.Close()
		Expect(up.uploaded()).To(HaveLen(3))
	})

	It("stops waiting for queue space when the context ends", func() {
		up := &fakeUploader{block: make(chan struct{})}
		pool, err := watch.NewPool(&watch.PoolConfig{Uploader: up, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Abort)

		Expect(pool.Enqueue(watch.Job{Path: "a"})).To(BeTrue())
		Eventually(func() bool { return pool.Enqueue(watch.Job{Path: "b"}) }).Should(BeTrue())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(pool.EnqueueWait(ctx, watch.Job{Path: "c"})).To(BeFalse())
	})

	It("cancels in-flight and queued uploads while closing", func() {
		up := &fakeUploader{block: make(chan struct{})}

		var (
			mu   sync.Mutex
			errs []error
		)
		pool, err := watch.NewPool(&watch.PoolConfig{
			Uploader: up,
			OnResult: func(r watch.Result) {
				mu.Lock()
				defer mu.Unlock()
				errs = append(errs, r.Err)
			},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Enqueue(watch.Job{Path: "a"})).To(BeTrue())
		Expect(pool.Enqueue(watch.Job{Path: "b"})).To(BeTrue())

		closed := make(chan struct{})
		go func() {
			pool.Close()
			close(closed)
		}()
		Consistently(closed, 50*time.Millisecond).ShouldNot(BeClosed())

		pool.Cancel()
		Eventually(closed).Should(BeClosed())

		Expect(up.uploaded()).To(BeEmpty())
		Expect(errs).To(HaveLen(2))
		for _, e := range errs {
			Expect(e).To(MatchError(context.Canceled))
		}
	})

	It("requires an uploader", func() {
		_, err := watch.NewPool(&watch.PoolConfig{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Watcher", func() {
	var (
		dir    string
		up     *fakeUploader
		pool   *watch.Pool
		cancel context.CancelFunc
		done   chan error
	)

	start := func(cfg watch.Config) {
		cfg.Dir = dir
		cfg.Pool = pool
		cfg.Settle = 20 * time.Millisecond

		w, err := watch.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		up = &fakeUploader{}
		cancel = nil

		var err error
		pool, err = watch.NewPool(&watch.PoolConfig{Uploader: up})
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func() {
			if cancel != nil {
				cancel()
				Eventually(done).Should(Receive(MatchError(context.Canceled)))
			}
			pool.Close()
		})
	})

	It("uploads new files with derived metadata", func() {
		start(watch.Config{Tags: []string{"inbox"}})
		time.Sleep(50 * time.Millisecond)

		Expect(os.WriteFile(filepath.Join(dir, "quarterly_report.pdf"), []byte("pdf"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "keynote.mp4"), []byte("mp4"), 0o600)).To(Succeed())

		Eventually(up.uploaded).Should(HaveLen(2))
		Expect(up.uploaded()).To(ContainElements(
			HaveField("Metadata", client.Metadata{Title: "quarterly report", Type: client.TypeDocument, Tags: []string{"inbox"}}),
			HaveField("Metadata", client.Metadata{Title: "keynote", Type: client.TypeVideo, Tags: []string{"inbox"}}),
		))
	})

	It("ignores hidden and temporary files", func() {
		start(watch.Config{})
		time.Sleep(50 * time.Millisecond)

		Expect(os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "movie.mp4.part"), []byte("x"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600)).To(Succeed())

		Eventually(up.uploaded).Should(HaveLen(1))
		Consistently(up.uploaded, 100*time.Millisecond).Should(HaveLen(1))
		Expect(up.uploaded()[0].Path).To(HaveSuffix("notes.txt"))
	})

	It("uploads files already present when asked", func() {
		Expect(os.WriteFile(filepath.Join(dir, "old.md"), []byte("x"), 0o600)).To(Succeed())

		start(watch.Config{Existing: true})

		Eventually(up.uploaded).Should(HaveLen(1))
		Expect(up.uploaded()[0].Metadata.Title).To(Equal("old"))
	})

	It("queues every existing file even past the queue size", func() {
		pool.Close()
		up = &fakeUploader{block: make(chan struct{})}
		var err error
		pool, err = watch.NewPool(&watch.PoolConfig{Uploader: up, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md"} {
			Expect(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600)).To(Succeed())
		}

		cfg := watch.Config{Dir: dir, Pool: pool, Existing: true, Settle: 20 * time.Millisecond}
		w, err := watch.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		Consistently(up.uploaded, 50*time.Millisecond).Should(BeEmpty())
		close(up.block)

		Eventually(up.uploaded).Should(HaveLen(5))
		Expect(w.Skipped()).To(BeZero())
	})

	It("rejects a missing folder", func() {
		_, err := watch.New(watch.Config{Dir: filepath.Join(dir, "missing"), Pool: pool})
		Expect(err).To(HaveOccurred())
	})
})
