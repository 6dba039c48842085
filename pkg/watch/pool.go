package watch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/logger"
	"github.com/papercomputeco/kbconsole/pkg/upload"
)

var (
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 64
)

// Uploader sends one file to the knowledge base. *client.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, req client.UploadRequest, tracker *upload.Tracker) (*client.UploadResult, error)
}

// Job is a single file waiting to be uploaded.
type Job struct {
	Path     string
	Metadata client.Metadata
}

// Result is reported for every finished job.
type Result struct {
	Job    Job
	Upload *client.UploadResult
	Err    error
}

// PoolConfig is the configuration for the upload pool.
type PoolConfig struct {
	// Uploader performs the uploads.
	Uploader Uploader

	// NumWorkers is the number of concurrent uploads (defaults to 1).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// OnResult, when set, is called from a worker after every job.
	OnResult func(Result)

	Logger *slog.Logger
}

// Pool uploads files on background workers.
type Pool struct {
	config *PoolConfig
	queue  chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewPool starts the pool's workers.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}
	return p, nil
}

// Enqueue submits a job. It returns false, dropping the job, when the queue
// is full.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("upload queued", "path", job.Path)
		return true
	default:
		p.logger.Error("upload not queued, queue full, file dropped", "path", job.Path)
		return false
	}
}

// EnqueueWait submits a job, waiting for queue space. It returns false when
// ctx is done or the pool has been cancelled first.
func (p *Pool) EnqueueWait(ctx context.Context, job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("upload queued", "path", job.Path)
		return true
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

// Close stops accepting jobs and waits for queued uploads to finish.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
	p.cancel()
}

// Cancel cancels in-flight uploads; jobs still queued fail without being
// sent. It may be called while Close is waiting.
func (p *Pool) Cancel() {
	p.cancel()
}

// Abort cancels in-flight uploads, drops queued ones and waits for the
// workers to exit.
func (p *Pool) Abort() {
	p.Cancel()
	p.Close()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("upload worker started", "worker_id", id)

	for job := range p.queue {
		p.process(job)
	}

	p.logger.Debug("upload worker stopped", "worker_id", id)
}

func (p *Pool) process(job Job) {
	res := Result{Job: job}

	if err := p.ctx.Err(); err != nil {
		res.Err = err
	} else {
		res.Upload, res.Err = p.config.Uploader.Upload(p.ctx, client.UploadRequest{
			Path:     job.Path,
			Metadata: job.Metadata,
		}, nil)
	}

	if res.Err != nil {
		p.logger.Error("upload failed", "path", job.Path, "error", res.Err)
	} else {
		p.logger.Info("file uploaded",
			"path", job.Path,
			"filename", res.Upload.Filename,
			"chunks", res.Upload.ChunksCreated,
		)
	}

	if p.config.OnResult != nil {
		p.config.OnResult(res)
	}
}
