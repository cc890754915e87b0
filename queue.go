package lodtree

import (
	"context"
	"image"
	"time"
)

// Priority orders load requests. Visible requests drain before prefetch.
type Priority uint8

const (
	PriorityVisible  Priority = iota // node is on screen at full detail
	PriorityPrefetch                 // node is likely to need the image soon
)

// LoadFunc receives the result of a load. It always runs on the render
// goroutine, from ImageCache.GetOrLoad or LoadQueue.Drain.
type LoadFunc func(bmp *Bitmap, err error)

// ImageLoader fetches and decodes a source URL at a bucket. Implementations
// run on worker goroutines and must honor ctx cancellation.
type ImageLoader interface {
	Load(ctx context.Context, url string, b Bucket) (image.Image, error)
}

// QueueStats is a snapshot of queue counters.
type QueueStats struct {
	Queued    int
	InFlight  int
	Started   uint64
	Completed uint64
	Failed    uint64
	Dropped   uint64
	Coalesced uint64
}

type jobState uint8

const (
	jobQueued jobState = iota
	jobRunning
	jobDone
)

type waiter struct {
	owner string
	fn    LoadFunc
}

type loadJob struct {
	key      string
	url      string
	bucket   Bucket
	priority Priority
	state    jobState
	waiters  []waiter
}

type loadResult struct {
	job *loadJob
	img image.Image
	err error
}

// LoadQueue schedules image loads. All methods except the worker bodies run
// on the render goroutine; there is no locking because workers only touch
// their own job's inputs and report back over a channel.
//
// Guarantees:
//   - identical (url, bucket) requests are coalesced into one job, and every
//     callback fires exactly once;
//   - visible jobs start before prefetch jobs, FIFO within a priority;
//   - Tick starts at most batchSize jobs and never exceeds maxInFlight;
//   - Drain delivers at most batchSize results per call;
//   - queued jobs never exceed maxPending (oldest prefetch dropped first);
//   - every job fails after timeout, so a stalled fetch never holds a slot.
type LoadQueue struct {
	loader      ImageLoader
	batchSize   int
	maxInFlight int
	maxPending  int
	timeout     time.Duration

	jobs     map[string]*loadJob // queued or running, by key
	lanes    [2][]*loadJob       // FIFO per priority; may hold stale entries
	stale    int                 // lane entries no longer live
	queued   int
	inFlight int
	results  chan loadResult

	// store receives every successful bitmap before its callbacks run.
	store func(url string, b Bucket, bmp *Bitmap)

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	started, completed, failed, dropped, coalesced uint64
}

// NewLoadQueue creates a queue that loads through loader using the batch,
// in-flight, pending and timeout bounds of cfg.
func NewLoadQueue(loader ImageLoader, cfg Config) *LoadQueue {
	ctx, cancel := context.WithCancel(context.Background())
	inFlight := max(cfg.MaxInFlight, 1)
	timeout := time.Duration(cfg.LoadTimeout * float64(time.Second))
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	return &LoadQueue{
		loader:      loader,
		batchSize:   max(cfg.BatchSize, 1),
		maxInFlight: inFlight,
		maxPending:  max(cfg.MaxPending, 1),
		timeout:     timeout,
		jobs:        make(map[string]*loadJob),
		results:     make(chan loadResult, inFlight),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Enqueue requests (url, b). An identical queued or running job absorbs the
// request; a visible request promotes a queued prefetch job. owner is used
// by Release and may be empty.
func (q *LoadQueue) Enqueue(url string, b Bucket, pri Priority, owner string, fn LoadFunc) {
	if q.closed {
		fn(nil, ErrClosed)
		return
	}
	if url == "" {
		fn(nil, ErrEmptyURL)
		return
	}
	key := CacheKey(url, b)
	if job, ok := q.jobs[key]; ok {
		job.waiters = append(job.waiters, waiter{owner: owner, fn: fn})
		q.coalesced++
		if job.state == jobQueued && pri < job.priority {
			job.priority = pri
			q.lanes[pri] = append(q.lanes[pri], job)
			q.stale++
			q.compact()
		}
		return
	}

	job := &loadJob{
		key:      key,
		url:      url,
		bucket:   b,
		priority: pri,
		waiters:  []waiter{{owner: owner, fn: fn}},
	}
	q.jobs[key] = job
	q.lanes[pri] = append(q.lanes[pri], job)
	q.queued++
	q.enforcePending()
}

// enforcePending drops the oldest queued jobs, prefetch first, until the
// queued count fits maxPending.
func (q *LoadQueue) enforcePending() {
	for q.queued > q.maxPending {
		job := q.pop(PriorityPrefetch)
		if job == nil {
			job = q.pop(PriorityVisible)
		}
		if job == nil {
			return
		}
		q.dropped++
		q.finish(job, nil, ErrDropped)
	}
}

// pop removes and returns the oldest live queued job of the given lane.
// Entries for promoted, released or finished jobs are discarded on the way.
func (q *LoadQueue) pop(pri Priority) *loadJob {
	lane := q.lanes[pri]
	for i, job := range lane {
		lane[i] = nil
		if !q.live(job, pri) {
			if job != nil && q.stale > 0 {
				q.stale--
			}
			continue
		}
		q.lanes[pri] = lane[i+1:]
		q.queued--
		return job
	}
	q.lanes[pri] = lane[:0]
	return nil
}

// live reports whether job is a queued entry that belongs in lane pri.
func (q *LoadQueue) live(job *loadJob, pri Priority) bool {
	return job != nil && job.state == jobQueued && job.priority == pri && q.jobs[job.key] == job
}

// compact rewrites both lanes without dead entries once they outnumber the
// live queued jobs, so lane length stays within twice the queued count.
func (q *LoadQueue) compact() {
	if q.stale <= q.queued {
		return
	}
	for pri := range q.lanes {
		lane := q.lanes[pri]
		kept := lane[:0]
		for _, job := range lane {
			if q.live(job, Priority(pri)) {
				kept = append(kept, job)
			}
		}
		clear(lane[len(kept):])
		q.lanes[pri] = kept
	}
	q.stale = 0
}

// Tick starts up to batchSize queued jobs without exceeding maxInFlight.
// Returns the number started.
func (q *LoadQueue) Tick() int {
	if q.closed {
		return 0
	}
	started := 0
	for started < q.batchSize && q.inFlight < q.maxInFlight {
		job := q.pop(PriorityVisible)
		if job == nil {
			job = q.pop(PriorityPrefetch)
		}
		if job == nil {
			break
		}
		job.state = jobRunning
		q.inFlight++
		q.started++
		started++
		go q.run(job.url, job.bucket, job)
	}
	return started
}

// run is the worker body. It reads only its arguments and reports on the
// results channel, which has room for every in-flight job.
func (q *LoadQueue) run(url string, b Bucket, job *loadJob) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()
	img, err := q.loader.Load(ctx, url, b)
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = ErrUnsupportedImage
	}
	select {
	case q.results <- loadResult{job: job, img: img, err: err}:
	case <-q.ctx.Done():
	}
}

// Drain delivers up to batchSize completed loads: successful images are
// uploaded into bitmaps, stored, and handed to every waiter. Bookkeeping is
// cleared before callbacks run, so callbacks may enqueue again. Never blocks.
func (q *LoadQueue) Drain() int {
	if q.closed {
		return 0
	}
	n := 0
	for n < q.batchSize {
		select {
		case r := <-q.results:
			n++
			q.inFlight--
			if r.err != nil {
				q.failed++
				q.finish(r.job, nil, r.err)
				continue
			}
			bmp := NewBitmap(r.img)
			q.completed++
			if q.store != nil {
				q.store(r.job.url, r.job.bucket, bmp)
			}
			q.finish(r.job, bmp, nil)
		default:
			return n
		}
	}
	return n
}

// finish removes job from the queue and invokes its waiters once each.
func (q *LoadQueue) finish(job *loadJob, bmp *Bitmap, err error) {
	job.state = jobDone
	if q.jobs[job.key] == job {
		delete(q.jobs, job.key)
	}
	waiters := job.waiters
	job.waiters = nil
	for _, w := range waiters {
		w.fn(bmp, err)
	}
}

// Release removes every callback registered by owner. Queued jobs left with
// no callbacks are dropped; running jobs finish and still reach the store.
func (q *LoadQueue) Release(owner string) {
	for key, job := range q.jobs {
		kept := job.waiters[:0]
		for _, w := range job.waiters {
			if w.owner != owner {
				kept = append(kept, w)
			}
		}
		clear(job.waiters[len(kept):])
		job.waiters = kept
		if len(kept) == 0 && job.state == jobQueued {
			job.state = jobDone
			delete(q.jobs, key)
			q.queued--
			q.stale++
		}
	}
	q.compact()
}

// Pending reports whether (url, b) is queued or running.
func (q *LoadQueue) Pending(url string, b Bucket) bool {
	_, ok := q.jobs[CacheKey(url, b)]
	return ok
}

// Len returns the number of queued plus running jobs.
func (q *LoadQueue) Len() int {
	return len(q.jobs)
}

// InFlight returns the number of running jobs.
func (q *LoadQueue) InFlight() int {
	return q.inFlight
}

// Stats returns a snapshot of the queue counters.
func (q *LoadQueue) Stats() QueueStats {
	return QueueStats{
		Queued:    q.queued,
		InFlight:  q.inFlight,
		Started:   q.started,
		Completed: q.completed,
		Failed:    q.failed,
		Dropped:   q.dropped,
		Coalesced: q.coalesced,
	}
}

// Close cancels running loads and fails every outstanding callback with
// ErrClosed. Workers blocked on delivery exit through the cancelled context.
func (q *LoadQueue) Close() {
	if q.closed {
		return
	}
	q.closed = true
	q.cancel()
	for _, job := range q.jobs {
		q.finish(job, nil, ErrClosed)
	}
	q.queued = 0
	q.stale = 0
	q.lanes = [2][]*loadJob{}
}
