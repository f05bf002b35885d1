package worker

// DeliverFunc executes one delivery job.
type DeliverFunc func(Job)

type Worker struct {
	pool       *jobChannelPool
	deliver    DeliverFunc
	jobChannel chan Job
}

func NewWorker(pool *jobChannelPool, deliver DeliverFunc) *Worker {
	return &Worker{
		pool:       pool,
		deliver:    deliver,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) Start() {
	go func() {
		for {
			w.pool.Release(w.jobChannel)
			job := <-w.jobChannel
			if job.Type == Stop {
				w.pool.retire(w.jobChannel)
				return
			}
			w.deliver(job)
		}
	}()
}
