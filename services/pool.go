package services

import "sync"

// answerPool is a fixed-size worker pool for answer submissions. Callers
// block until their own job has run to completion; jobs for different
// rooms run in parallel on separate workers.
type answerPool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

func newAnswerPool(size int) *answerPool {
	if size < 1 {
		size = 1
	}
	p := &answerPool{jobs: make(chan func())}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Do runs fn on a pool worker and returns its result to the caller.
func (p *answerPool) Do(fn func() error) error {
	done := make(chan error, 1)
	p.jobs <- func() { done <- fn() }
	return <-done
}

// Close drains the pool. Pending Do calls finish first.
func (p *answerPool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
