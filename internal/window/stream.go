package window

import (
	"fmt"
	"sort"

	"github.com/newthinker/finwindow/internal/core"
	"github.com/newthinker/finwindow/internal/indicator"
)

// Output is one indicator value produced by a Push.
type Output struct {
	Key   string     `json:"key"`
	Index int64      `json:"index"`
	Name  string     `json:"name"`
	Phase string     `json:"phase"`
	Value core.Value `json:"value"`
}

type streamState struct {
	engines []indicator.Engine
	next    int64
}

// Stream feeds row-at-a-time values into per-key engines, for live ticks
// where partitions are never complete. A Stream is driven by one goroutine.
type Stream struct {
	specs  []indicator.Spec
	pool   *Pool
	states map[string]*streamState
}

// NewStream validates specs and creates an empty stream. A nil pool gets a
// private one.
func NewStream(specs []indicator.Spec, pool *Pool) (*Stream, error) {
	if len(specs) == 0 {
		return nil, core.WrapError(core.ErrInvalidConfiguration, fmt.Errorf("no indicators requested"))
	}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	if pool == nil {
		pool = NewPool()
	}
	return &Stream{
		specs:  specs,
		pool:   pool,
		states: make(map[string]*streamState),
	}, nil
}

// Push appends v as the next row of key's partition and returns one Output
// per indicator, in spec order.
func (s *Stream) Push(key string, v core.Value) []Output {
	st, ok := s.states[key]
	if !ok {
		st = &streamState{engines: make([]indicator.Engine, len(s.specs))}
		for i, spec := range s.specs {
			// specs were validated in NewStream
			e, _ := s.pool.Get(spec)
			st.engines[i] = e
		}
		s.states[key] = st
	}

	idx := st.next
	st.next++

	out := make([]Output, len(st.engines))
	for i, e := range st.engines {
		val := e.Step(v)
		out[i] = Output{
			Key:   key,
			Index: idx,
			Name:  e.Name(),
			Phase: e.Phase().String(),
			Value: val,
		}
	}
	return out
}

// Close ends key's partition and returns its engines to the pool.
func (s *Stream) Close(key string) {
	st, ok := s.states[key]
	if !ok {
		return
	}
	for _, e := range st.engines {
		s.pool.Put(e)
	}
	delete(s.states, key)
}

// Keys returns the open partition keys, sorted.
func (s *Stream) Keys() []string {
	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
