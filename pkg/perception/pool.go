package perception

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/fuzzy"
)

// DefaultPoolSize is the number of perception workers kept ready.
const DefaultPoolSize = 10

// Worker owns one text recognizer.
type Worker struct {
	id  int
	ocr TextRecognizer
}

// NewWorker creates a worker around a recognizer it will own.
func NewWorker(id int, ocr TextRecognizer) *Worker {
	return &Worker{id: id, ocr: ocr}
}

// ID returns the worker's sequence number.
func (w *Worker) ID() int {
	return w.id
}

// ReadText recognizes the text inside region r of frame.
func (w *Worker) ReadText(ctx context.Context, frame Image, r Rect) (string, error) {
	region, err := frame.Crop(r)
	if err != nil {
		return "", fmt.Errorf("%w: crop %s: %w", ErrPerception, r, err)
	}

	text, err := w.ocr.Recognize(ctx, region)
	if err != nil {
		return "", fmt.Errorf("%w: recognize %s: %w", ErrPerception, r, err)
	}
	return fuzzy.Normalize(text), nil
}

// Close releases the recognizer.
func (w *Worker) Close() error {
	return w.ocr.Close()
}

// WorkerFactory builds a fresh worker with the given id.
type WorkerFactory func(id int) (*Worker, error)

// Lease is a worker checked out of the pool.
type Lease struct {
	Worker     *Worker
	slot       int
	generation uint64
}

// Pool hands out workers round-robin without ever waiting for one. A slot
// whose worker is still busy gets a new worker and a new generation; the
// busy worker's lease then no longer matches and is rejected on release.
type Pool struct {
	mu          sync.Mutex
	slots       []*Worker
	generations []uint64
	next        int
	nextID      int
	factory     WorkerFactory
	closed      bool
}

// NewPool creates a pool of size workers built by factory.
func NewPool(size int, factory WorkerFactory) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	if factory == nil {
		return nil, errors.New("worker factory is required")
	}

	p := &Pool{
		slots:       make([]*Worker, size),
		generations: make([]uint64, size),
		factory:     factory,
	}

	for i := range p.slots {
		w, err := factory(p.nextID)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create worker %d: %w", i, err)
		}
		p.nextID++
		p.slots[i] = w
	}

	logrus.Infof("perception pool ready with %d workers", size)
	return p, nil
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Acquire checks out the next worker in round-robin order.
func (p *Pool) Acquire() (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	slot := p.next
	p.next = (p.next + 1) % len(p.slots)

	if w := p.slots[slot]; w != nil {
		p.slots[slot] = nil
		lease := &Lease{Worker: w, slot: slot, generation: p.generations[slot]}
		p.mu.Unlock()
		return lease, nil
	}

	p.generations[slot]++
	generation := p.generations[slot]
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	logrus.Debugf("worker slot %d still busy, creating worker %d", slot, id)
	w, err := p.factory(id)
	if err != nil {
		return nil, fmt.Errorf("failed to replace worker in slot %d: %w", slot, err)
	}
	return &Lease{Worker: w, slot: slot, generation: generation}, nil
}

// Release returns a leased worker to its slot. It reports false when the
// lease was superseded while checked out; the worker is then closed and the
// result it produced must be discarded.
func (p *Pool) Release(lease *Lease) bool {
	p.mu.Lock()
	accepted := !p.closed &&
		lease.generation == p.generations[lease.slot] &&
		p.slots[lease.slot] == nil
	if accepted {
		p.slots[lease.slot] = lease.Worker
	}
	p.mu.Unlock()

	if !accepted {
		logrus.Debugf("dropping superseded worker %d from slot %d", lease.Worker.ID(), lease.slot)
		if err := lease.Worker.Close(); err != nil {
			logrus.Warnf("failed to close worker %d: %v", lease.Worker.ID(), err)
		}
	}
	return accepted
}

// Current reports whether lease still owns its slot. A false result means
// Release will reject it.
func (p *Pool) Current(lease *Lease) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && lease.generation == p.generations[lease.slot]
}

// Close closes every idle worker. Workers still leased are closed when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	idle := make([]*Worker, 0, len(p.slots))
	for i, w := range p.slots {
		if w != nil {
			idle = append(idle, w)
			p.slots[i] = nil
		}
	}
	p.mu.Unlock()

	var errs []error
	for _, w := range idle {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
