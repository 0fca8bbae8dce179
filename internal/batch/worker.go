package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"latinize/internal/keys"
	"latinize/internal/logging"
	"latinize/internal/services"
)

// ErrWorkerStopped is returned by Submit once the worker has been stopped.
var ErrWorkerStopped = errors.New("batch worker stopped")

// Progress is one progress report of a running job.
type Progress struct {
	Done  int
	Total int
}

// Job is a batch submitted to a Worker.
type Job struct {
	ID        string
	Operation Operation

	items    []keys.Track
	ctx      context.Context
	cancel   context.CancelFunc
	progress chan Progress
	done     chan struct{}
	result   Result
	err      error
}

// Progress streams progress reports. The channel is buffered for every report
// the job can produce and is closed when the job finishes.
func (j *Job) Progress() <-chan Progress { return j.progress }

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel asks the job to stop before its next item.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the job finishes and returns its result.
func (j *Job) Wait() (Result, error) {
	<-j.done
	return j.result, j.err
}

// CompletionFunc runs once per job after it finishes, on the worker goroutine.
type CompletionFunc func(Result, error)

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

// WithOnComplete registers a continuation invoked after each job.
func WithOnComplete(fn CompletionFunc) WorkerOption {
	return func(w *Worker) { w.onComplete = fn }
}

// Worker executes submitted jobs one at a time on a single goroutine. Items of
// a job are never processed in parallel.
type Worker struct {
	processor  *Processor
	logger     *slog.Logger
	onComplete CompletionFunc
	queueSize  int

	mu      sync.Mutex
	jobs    chan *Job
	stopped chan struct{}
	running bool
	cancel  context.CancelFunc
	sending *sync.WaitGroup // Submit calls between the running check and the send
	wg      sync.WaitGroup
}

// NewWorker constructs a stopped worker.
func NewWorker(processor *Processor, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "batch_worker"),
		queueSize: 4,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the worker goroutine. Cancelling ctx cancels queued and
// running jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("batch worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.jobs = make(chan *Job, w.queueSize)
	w.stopped = make(chan struct{})
	w.sending = new(sync.WaitGroup)
	w.running = true
	w.wg.Add(1)
	go w.loop(runCtx, w.jobs)
	return nil
}

// Stop cancels outstanding jobs and waits for the goroutine to exit. Submit
// calls blocked on a full queue return ErrWorkerStopped.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	jobs, sending := w.jobs, w.sending
	close(w.stopped)
	w.mu.Unlock()

	cancel()
	sending.Wait()
	close(jobs)
	w.wg.Wait()
}

// Submit queues a batch. The job's context derives from ctx, so cancelling
// ctx cancels the job.
func (w *Worker) Submit(ctx context.Context, op Operation, items []keys.Track) (*Job, error) {
	id := uuid.NewString()
	jobCtx, cancel := context.WithCancel(services.WithJobID(ctx, id))
	job := &Job{
		ID:        id,
		Operation: op,
		items:     append([]keys.Track(nil), items...),
		ctx:       jobCtx,
		cancel:    cancel,
		progress:  make(chan Progress, len(items)+1),
		done:      make(chan struct{}),
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		cancel()
		return nil, ErrWorkerStopped
	}
	jobs, stopped, sending := w.jobs, w.stopped, w.sending
	sending.Add(1)
	w.mu.Unlock()
	defer sending.Done()

	select {
	case jobs <- job:
	case <-stopped:
		cancel()
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		cancel()
		return nil, services.Wrap(services.ErrCancelled, component, "submit", "", ctx.Err())
	}
	w.logger.Debug("batch job queued",
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldOperation, string(op)),
		logging.Int("items", len(items)))
	return job, nil
}

func (w *Worker) loop(ctx context.Context, jobs <-chan *Job) {
	defer w.wg.Done()
	for job := range jobs {
		w.execute(ctx, job)
	}
}

func (w *Worker) execute(workerCtx context.Context, job *Job) {
	stop := context.AfterFunc(workerCtx, job.cancel)
	defer stop()
	defer job.cancel()

	job.result, job.err = w.processor.Run(job.ctx, job.Operation, job.items, func(done, total int) {
		select {
		case job.progress <- Progress{Done: done, Total: total}:
		default:
		}
	})
	close(job.progress)
	close(job.done)

	if w.onComplete != nil {
		w.onComplete(job.result, job.err)
	}
}
