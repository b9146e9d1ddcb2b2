package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	queueCapacity = 300
	maxRetries    = 3
	pollInterval  = 100 * time.Millisecond
	jobTimeout    = 5 * time.Minute
)

// queuePriority lists queues highest-priority first; workers always drain
// earlier queues before touching later ones.
var queuePriority = []string{
	QueueCritical,
	QueueTwitterRefresherCritical,
	QueueDefault,
	QueueImageParallel,
	QueueTwitterRefresher,
	QueueLow,
}

type queuedJob struct {
	Job
	attempts int
}

var _ Submitter = (*InProcessQueue)(nil)

// InProcessQueue executes jobs on a worker pool drawn from the named
// queues. Kinds with no registered handler are accepted and dropped; they
// belong to external consumers.
type InProcessQueue struct {
	handlers    map[Kind]HandlerFunc
	queues      map[string]chan queuedJob
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(workerCount int) *InProcessQueue {
	ctx, cancel := context.WithCancel(context.Background())

	queues := make(map[string]chan queuedJob, len(queuePriority))
	for _, name := range queuePriority {
		queues[name] = make(chan queuedJob, queueCapacity)
	}

	return &InProcessQueue{
		handlers:    make(map[Kind]HandlerFunc),
		queues:      queues,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register installs the handler executed for a kind. Must be called before
// Start.
func (q *InProcessQueue) Register(kind Kind, handler HandlerFunc) {
	q.handlers[kind] = handler
}

func (q *InProcessQueue) Start() {
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

func (q *InProcessQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

func (q *InProcessQueue) Submit(ctx context.Context, job Job) error {
	ch, ok := q.queues[job.Queue]
	if !ok {
		return fmt.Errorf("unknown queue %q", job.Queue)
	}

	select {
	case ch <- queuedJob{Job: job}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue %q is full", job.Queue)
	}
}

func (q *InProcessQueue) worker(id int) {
	defer q.wg.Done()

	for {
		job, ok := q.next()
		if ok {
			q.execute(id, job)
			continue
		}

		select {
		case <-q.ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

// next scans the queues highest-priority first.
func (q *InProcessQueue) next() (queuedJob, bool) {
	for _, name := range queuePriority {
		select {
		case job := <-q.queues[name]:
			return job, true
		default:
		}
	}
	return queuedJob{}, false
}

func (q *InProcessQueue) execute(workerID int, job queuedJob) {
	handler, ok := q.handlers[job.Kind]
	if !ok {
		slog.Debug("No local handler for kind, leaving to external consumer",
			"kind", string(job.Kind), "queue", job.Queue)
		return
	}

	jobCtx, cancel := context.WithTimeout(q.ctx, jobTimeout)
	defer cancel()

	started := time.Now()
	err := handler(jobCtx, job.Args)
	if err == nil {
		slog.Info("Job completed",
			"kind", string(job.Kind),
			"queue", job.Queue,
			"worker_id", workerID,
			"duration", time.Since(started))
		return
	}

	slog.Error("Job failed",
		"kind", string(job.Kind),
		"queue", job.Queue,
		"worker_id", workerID,
		"attempts", job.attempts,
		"error", err)

	if !job.Retry || job.attempts >= maxRetries {
		// Fire and forget: failed jobs are dropped, never resubmitted.
		return
	}

	job.attempts++
	retryDelay := time.Duration(1<<uint(job.attempts-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	go func() {
		select {
		case <-q.ctx.Done():
		case <-time.After(retryDelay):
			select {
			case q.queues[job.Queue] <- job:
			default:
				slog.Error("Failed to re-enqueue job for retry",
					"kind", string(job.Kind), "queue", job.Queue)
			}
		}
	}()
}
