package growvec

type growOp uint8

const (
	opGrow growOp = iota
	opStop
)

// growRequest asks the scheduler to drain copy-debt toward the given active slot.
type growRequest struct {
	op   growOp
	slot int
}

// growScheduler decides where a ring's grow-drain runs.
//
// At most one request is outstanding: schedule settles the previous one
// before handing over the next, so the producer can never rotate into a slot
// whose refresh is still running.
type growScheduler interface {
	schedule(req growRequest) error
	settle() error
	pending() bool
	stop() error
}

// inlineScheduler drains on the calling goroutine. Copy-debt is back to
// zero by the time schedule returns.
type inlineScheduler struct {
	drain func(active int) error
}

func (s inlineScheduler) schedule(req growRequest) error { return s.drain(req.slot) }
func (s inlineScheduler) settle() error { return nil }
func (s inlineScheduler) pending() bool { return false }
func (s inlineScheduler) stop() error { return nil }

// offloadScheduler drains on a dedicated worker goroutine. Requests travel
// over a depth-1 channel and every grow reports completion on done, which
// gives the producer back-pressure: a second grow waits for the first.
//
// inflight and stopped are only touched by the producer goroutine.
type offloadScheduler struct {
	drain    func(active int) error
	reqs     chan growRequest
	done     chan error
	exited   chan struct{}
	inflight bool
	stopped  bool
}

func newOffloadScheduler(drain func(active int) error) *offloadScheduler {
	s := &offloadScheduler{
		drain:  drain,
		reqs:   make(chan growRequest, 1),
		done:   make(chan error, 1),
		exited: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *offloadScheduler) run() {
	defer close(s.exited)
	for req := range s.reqs {
		if req.op == opStop {
			return
		}
		s.done <- s.safeDrain(req.slot)
	}
}

func (s *offloadScheduler) safeDrain(active int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return s.drain(active)
}

func (s *offloadScheduler) schedule(req growRequest) error {
	if err := s.settle(); err != nil {
		return err
	}
	s.inflight = true
	s.reqs <- req
	return nil
}

func (s *offloadScheduler) settle() error {
	if !s.inflight {
		return nil
	}
	s.inflight = false
	return <-s.done
}

func (s *offloadScheduler) pending() bool { return s.inflight }

// stop settles the outstanding grow, then tells the worker to exit and waits
// for it. Calling stop twice is a no-op.
func (s *offloadScheduler) stop() error {
	if s.stopped {
		return nil
	}
	err := s.settle()
	s.stopped = true
	s.reqs <- growRequest{op: opStop}
	<-s.exited
	return err
}
