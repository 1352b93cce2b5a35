package relay

import (
	"github.com/996BC/996.Mesh/utils"
	"github.com/google/uuid"
)

// Job is one packed envelope waiting for a worker
type Job struct {
	Trace string
	Raw   []byte
}

// Result is the outcome of a job, Err is set when the envelope was dropped
type Result struct {
	Trace  string
	Action Action
	Err    error
}

// Pool runs Handle on a fixed number of workers.
// Results are buffered and must be drained by the owner through Results().
type Pool struct {
	r       *Relay
	workers int
	jobs    chan *Job
	results chan *Result
	lm      *utils.LoopMode
}

func NewPool(r *Relay, workers int, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &Pool{
		r:       r,
		workers: workers,
		jobs:    make(chan *Job, queue),
		results: make(chan *Result, queue),
		lm:      utils.NewLoop(),
	}
}

func (p *Pool) Start() {
	p.lm.StartWorking()
	for i := 0; i < p.workers; i++ {
		p.lm.Add()
		go p.loop(i)
	}
	logger.Info("relay pool started with %d workers\n", p.workers)
}

func (p *Pool) Stop() {
	if p.lm.Stop() {
		logger.Info("relay pool stopped\n")
	}
}

// Submit queues raw and returns its trace id, it blocks while the queue is full
func (p *Pool) Submit(raw []byte) (string, error) {
	if !p.lm.IsWorking() {
		return "", ErrPoolStopped
	}

	job := &Job{Trace: uuid.NewString(), Raw: raw}
	select {
	case p.jobs <- job:
		return job.Trace, nil
	case <-p.lm.D:
		return "", ErrPoolStopped
	}
}

func (p *Pool) Results() <-chan *Result {
	return p.results
}

func (p *Pool) loop(id int) {
	defer p.lm.Done()

	for {
		select {
		case <-p.lm.D:
			return
		case job := <-p.jobs:
			action, err := p.r.Handle(job.Raw)
			if err != nil {
				logger.Debug("worker %d job %s dropped\n", id, job.Trace)
			} else {
				logger.Debug("worker %d job %s %v\n", id, job.Trace, action)
			}

			select {
			case p.results <- &Result{Trace: job.Trace, Action: action, Err: err}:
			case <-p.lm.D:
				return
			}
		}
	}
}
