package window

import (
	"sync"

	"github.com/newthinker/finwindow/internal/indicator"
)

// Pool recycles engines across partitions. Engines are reset on Put, so
// Get always hands out clean state. An engine taken from the pool belongs
// to the caller alone until it is put back.
type Pool struct {
	mu      sync.Mutex
	free    map[string][]indicator.Engine
	created int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{free: make(map[string][]indicator.Engine)}
}

// Get returns an idle engine for spec, building a new one if none is free.
func (p *Pool) Get(spec indicator.Spec) (indicator.Engine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	key := spec.Name()

	p.mu.Lock()
	if list := p.free[key]; len(list) > 0 {
		e := list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		p.mu.Unlock()
		return e, nil
	}
	p.created++
	p.mu.Unlock()

	return indicator.New(spec)
}

// Put resets e and makes it available to later Get calls.
func (p *Pool) Put(e indicator.Engine) {
	if e == nil {
		return
	}
	e.Reset()
	key := e.Name()

	p.mu.Lock()
	p.free[key] = append(p.free[key], e)
	p.mu.Unlock()
}

// Idle returns the number of free engines held for spec.
func (p *Pool) Idle(spec indicator.Spec) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free[spec.Name()])
}

// Created returns how many engines the pool has built so far.
func (p *Pool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
