package cues

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/output"
)

// Cue is a resolved listener callback.
type Cue struct {
	Target  string
	Method  string
	Passage string
	Order   int
	Rank    Rank

	handler any
}

func (c Cue) String() string {
	return fmt.Sprintf("%s.%s", c.Target, c.Method)
}

type cacheKey struct {
	passage         string
	link            string
	kind            EventKind
	allowSuspending bool
}

// Index resolves and caches cues against a Registry. Lookups are resolved
// once per key until Clear is called.
type Index struct {
	registry *Registry
	logger   zerolog.Logger

	mu    sync.Mutex
	cache map[cacheKey][]Cue
}

// NewIndex creates an index over registry.
func NewIndex(registry *Registry) *Index {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Index{
		registry: registry,
		logger:   logging.Component("cues"),
		cache:    make(map[cacheKey][]Cue),
	}
}

// Registry returns the registry the index resolves against.
func (x *Index) Registry() *Registry { return x.registry }

// Clear drops every cached lookup.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.cache = make(map[cacheKey][]Cue)
}

// FindCues returns the cues for kind in passage, ordered by explicit order
// then specificity then registration. Handlers whose form is not allowed
// for the kind are logged and skipped.
func (x *Index) FindCues(kind EventKind, passage string, tags []string, link string, allowSuspending bool) []Cue {
	key := cacheKey{passage: passage, link: link, kind: kind, allowSuspending: allowSuspending}

	x.mu.Lock()
	defer x.mu.Unlock()
	if cached, ok := x.cache[key]; ok {
		return cached
	}
	found := x.resolve(kind, passage, tags, link, allowSuspending)
	x.cache[key] = found
	return found
}

func (x *Index) resolve(kind EventKind, passage string, tags []string, link string, allowSuspending bool) []Cue {
	conventional := ConventionalName(kind, passage, link)

	var found []Cue
	for _, target := range x.registry.Targets() {
		for _, m := range target.snapshot() {
			cue, ok := match(m, kind, passage, tags, link, conventional)
			if !ok {
				continue
			}
			cue.Target = target.name
			if err := validate(m.handler, kind, allowSuspending); err != nil {
				x.logger.Warn().
					Str("cue", cue.String()).
					Str("event", kind.String()).
					Str("passage", passage).
					Err(err).
					Msg("skipping cue")
				continue
			}
			found = append(found, cue)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Order != found[j].Order {
			return found[i].Order < found[j].Order
		}
		return found[i].Rank < found[j].Rank
	})
	return found
}

// match picks the most specific matching declaration of m. Methods with
// declarations never match by name.
func match(m *method, kind EventKind, passage string, tags []string, link, conventional string) (Cue, bool) {
	if len(m.decls) == 0 {
		if conventional == "" || m.name != conventional {
			return Cue{}, false
		}
		return Cue{Method: m.name, Passage: passage, Rank: RankPassage, handler: m.handler}, true
	}

	var best *Decl
	for i := range m.decls {
		d := &m.decls[i]
		if !d.matches(kind, passage, tags, link) {
			continue
		}
		if best == nil || d.rank() < best.rank() || (d.rank() == best.rank() && d.Order < best.Order) {
			best = d
		}
	}
	if best == nil {
		return Cue{}, false
	}
	return Cue{Method: m.name, Passage: passage, Order: best.Order, Rank: best.rank(), handler: m.handler}, true
}

func validate(handler any, kind EventKind, allowSuspending bool) error {
	switch handler.(type) {
	case func(), func(Event):
		return nil
	case func() Suspension, func(Event) Suspension:
		if !kind.AllowsSuspending() {
			return fmt.Errorf("%s cues must not return a suspension", kind)
		}
		if !allowSuspending {
			return fmt.Errorf("suspending cues are not allowed here")
		}
		return nil
	case nil:
		return fmt.Errorf("nil handler")
	default:
		return fmt.Errorf("unsupported handler signature %T", handler)
	}
}

// Invoke calls the cue's handler. A panicking handler is logged and treated
// as finished, except for output consistency faults which propagate.
func (x *Index) Invoke(cue Cue, ev Event) (s Suspension) {
	defer func() {
		if r := recover(); r != nil {
			if fault, ok := r.(*output.ConsistencyFault); ok {
				panic(fault)
			}
			x.logger.Error().
				Str("cue", cue.String()).
				Str("event", ev.Kind.String()).
				Interface("panic", r).
				Msg("cue handler panicked")
			s = nil
		}
	}()

	switch h := cue.handler.(type) {
	case func():
		h()
	case func(Event):
		h(ev)
	case func() Suspension:
		return h()
	case func(Event) Suspension:
		return h(ev)
	}
	return nil
}
