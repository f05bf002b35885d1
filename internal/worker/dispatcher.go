package worker

import (
	"container/list"
	"sync"
	"time"
)

// DispatcherConfig sizes the delivery pool.
type DispatcherConfig struct {
	MinWorkers        int
	MaxWorkers        int
	QueueSize         int
	WorkerIdleTimeout time.Duration
}

type chatQueue struct {
	jobs     []Job
	enqueued bool
}

// Dispatcher fans fired reminders out to delivery workers, round-robining
// between chats so one chat with a burst of due reminders cannot starve
// the others.
type Dispatcher struct {
	pool     *jobChannelPool
	jobQueue chan Job
	stop     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	queues    map[int64]*chatQueue // pending deliveries per chat
	ready     *list.List           // round-robin queue of chat ids
	positions map[int64]*list.Element
}

func NewDispatcher(cfg DispatcherConfig, deliver DeliverFunc) *Dispatcher {
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	pool := newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout, deliver)

	d := &Dispatcher{
		pool:      pool,
		jobQueue:  make(chan Job, cfg.QueueSize),
		stop:      make(chan struct{}),
		queues:    make(map[int64]*chatQueue),
		ready:     list.New(),
		positions: make(map[int64]*list.Element),
	}

	// Warm up workers so the first tick does not pay spawn latency.
	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}

	go d.run()
	return d
}

// Enqueue hands one fired reminder to the dispatcher. Blocks only when the
// inbound queue is full.
func (d *Dispatcher) Enqueue(job Job) {
	d.jobQueue <- job
}

// Stop halts the dispatch loop and the pool's idle reaper. Jobs already
// handed to workers still run; anything still queued stays undelivered.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		d.pool.stopPurge()
	})
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.stop:
			return
		default:
		}
		// dispatch one pending job for the chat at the front of the ring
		if !d.dispatchOne() {
			select {
			case job := <-d.jobQueue: // nothing pending, wait for work
				d.enqueueJob(job)
			case <-d.stop:
				return
			}
			continue
		}
		select {
		case job := <-d.jobQueue:
			d.enqueueJob(job)
		case <-d.stop:
			return
		default:
		}
	}
}

func (d *Dispatcher) enqueueJob(job Job) {
	chatID := job.chatID()

	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[chatID]
	if q == nil {
		q = &chatQueue{}
		d.queues[chatID] = q
	}
	q.jobs = append(q.jobs, job)
	if q.enqueued {
		// chat already in the ring, skip
		return
	}
	q.enqueued = true
	elem := d.ready.PushBack(chatID)
	d.positions[chatID] = elem
}

// dispatchOne pops the front chat's next job and hands it to a worker
func (d *Dispatcher) dispatchOne() bool {
	d.mu.Lock()
	elem := d.ready.Front()
	if elem == nil {
		d.mu.Unlock()
		return false
	}
	chatID := elem.Value.(int64)
	q := d.queues[chatID]
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	if len(q.jobs) == 0 {
		// chat drained, leaves the ring
		q.enqueued = false
		d.ready.Remove(elem)
		delete(d.positions, chatID)
		delete(d.queues, chatID)
	} else {
		d.ready.MoveToBack(elem)
	}
	d.mu.Unlock()

	workerChan := d.pool.acquire()
	debugLog("[dispatcher] assign delivery %s for chat %d", job.Reminder.ID, chatID)
	workerChan <- job
	return true
}
