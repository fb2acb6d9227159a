package ecf

import (
	"context"
	"sync"
)

// GenerationJob represents one batch entry to be built by a worker.
type GenerationJob struct {
	Input GenerateInput
	Index int
}

// GenerationResult represents the outcome of one job.
type GenerationResult struct {
	Result *Result
	Err    error
	Index  int
}

// GenerationWorkerPool manages concurrent generation of batch entries.
type GenerationWorkerPool struct {
	service     *Service
	workerCount int
	jobChan     chan GenerationJob
	resultChan  chan GenerationResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewGenerationWorkerPool creates a worker pool bound to ctx.
func NewGenerationWorkerPool(ctx context.Context, service *Service, workerCount int) *GenerationWorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)

	return &GenerationWorkerPool{
		service:     service,
		workerCount: workerCount,
		jobChan:     make(chan GenerationJob, workerCount*2),
		resultChan:  make(chan GenerationResult, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start starts the workers.
func (p *GenerationWorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Close stops accepting jobs. Results keep flowing until every queued job is
// done, then the results channel is closed.
func (p *GenerationWorkerPool) Close() {
	close(p.jobChan)
	go func() {
		p.wg.Wait()
		close(p.resultChan)
		p.cancel()
	}()
}

// Submit queues a job, blocking while the queue is full.
func (p *GenerationWorkerPool) Submit(job GenerationJob) error {
	select {
	case p.jobChan <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the channel for receiving results.
func (p *GenerationWorkerPool) Results() <-chan GenerationResult {
	return p.resultChan
}

func (p *GenerationWorkerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobChan {
		result := p.process(job)

		select {
		case p.resultChan <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// process builds one entry. Jobs dequeued after cancellation are not built.
func (p *GenerationWorkerPool) process(job GenerationJob) GenerationResult {
	if err := p.ctx.Err(); err != nil {
		return GenerationResult{Index: job.Index, Err: err}
	}
	res, err := p.service.Generate(p.ctx, job.Input)
	return GenerationResult{Index: job.Index, Result: res, Err: err}
}
