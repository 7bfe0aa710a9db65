package systems

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum cell count to split a grid pass across workers.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 4096

// band is a half-open row range handed to one worker.
type band struct {
	lo, hi int
	fn     func(lo, hi int)
}

// Pool runs row-band grid passes on persistent worker goroutines.
// Every band writes a disjoint set of rows, so results do not depend on the
// number of workers or on scheduling.
type Pool struct {
	numWorkers int

	workChan chan band     // sends work to workers
	doneChan chan struct{} // workers signal completion
	stopChan chan struct{} // signals workers to exit
	wg       sync.WaitGroup
	running  bool
}

// NewPool creates a pool with the given worker count (0 = GOMAXPROCS).
// Workers are started on first parallel use.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{numWorkers: workers}
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.numWorkers
}

func (p *Pool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan band, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case b := <-p.workChan:
			b.fn(b.lo, b.hi)
			p.doneChan <- struct{}{}
		}
	}
}

// Close stops the workers and waits for them to exit. Safe to call twice.
func (p *Pool) Close() {
	if p == nil || !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

// Run calls fn over [0, rows) split into contiguous bands, one per worker,
// and returns when every band is done. Small grids run inline.
func (p *Pool) Run(rows, rowLen int, fn func(lo, hi int)) {
	if p == nil || p.numWorkers <= 1 || rows < 2 || rows*rowLen < parallelThreshold {
		fn(0, rows)
		return
	}
	p.start()

	chunks := p.numWorkers
	if chunks > rows {
		chunks = rows
	}
	size := (rows + chunks - 1) / chunks

	sent := 0
	for lo := 0; lo < rows; lo += size {
		hi := lo + size
		if hi > rows {
			hi = rows
		}
		p.workChan <- band{lo: lo, hi: hi, fn: fn}
		sent++
	}
	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
}
