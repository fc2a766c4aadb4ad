package internal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// SiteKind is the shape of operator application a call site evaluates.
type SiteKind uint8

const (
	BinarySite SiteKind = iota
	TernarySite
	InplaceSite
)

func (k SiteKind) String() string {
	switch k {
	case TernarySite:
		return "ternary"
	case InplaceSite:
		return "inplace"
	}
	return "binary"
}

// SiteState is the generality of a call site's cache. It only ever increases.
type SiteState uint8

const (
	Uninitialized SiteState = iota
	Monomorphic
	Polymorphic
	Megamorphic
)

func (s SiteState) String() string {
	switch s {
	case Monomorphic:
		return "monomorphic"
	case Polymorphic:
		return "polymorphic"
	case Megamorphic:
		return "megamorphic"
	}
	return "uninitialized"
}

// Site is a call site: one place in a program that applies one operator many
// times. It remembers the dispatch plans for the operand types it has seen.
//
// A Site is safe for concurrent use by multiple threads, each with its own VM
// from NewThread.
type Site struct {
	// Op is the operator the site applies.
	Op *Operator
	// Kind is the form of application.
	Kind SiteKind
	// Label describes the location of the site for diagnostics.
	Label string

	// cache is replaced wholesale on every transition and never modified
	// once published.
	cache atomic.Pointer[siteCache]

	hits, misses, uninlined atomic.Uint64
}

// siteCache is an immutable snapshot of a site's memoized plans.
type siteCache struct {
	entries []siteEntry
	// generic is set once the site has given up on memoization.
	generic bool
}

type siteEntry struct {
	key  shape
	plan *plan
}

// shape is the guard key of a cache entry: the exact operand types and the
// versions they had when the plan was made.
type shape struct {
	types    [3]*Type
	versions [3]uint64
}

// NewSite creates a call site for op and registers it with the VM's site
// list.
func (vm *VM) NewSite(op *Operator, kind SiteKind, label string) *Site {
	s := newSite(op, kind, label)
	vm.sites.add(s)
	return s
}

// newSite creates a call site without registering it.
func newSite(op *Operator, kind SiteKind, label string) *Site {
	return &Site{Op: op, Kind: kind, Label: label}
}

// Binary applies the site's operator to l and r. For in-place sites, l is
// the assignment target.
func (s *Site) Binary(vm *VM, l, r *Object) (*Object, error) {
	key := shape{
		types:    [3]*Type{l.typ, r.typ},
		versions: [3]uint64{l.typ.Version(), r.typ.Version()},
	}
	p, impl, cached := s.plan(vm, key)
	if cached {
		defer vm.inlineLeave(impl)
	}
	var res *Object
	var err error
	if s.Kind == InplaceSite {
		res, err = vm.runInplace(p, l, r)
	} else {
		res, err = vm.runBinary(p, l, r)
	}
	return vm.finish(s.Op, s.Op.Handler, res, err, l, r)
}

// Ternary applies the site's ternary operator to v, w, and z.
func (s *Site) Ternary(vm *VM, v, w, z *Object) (*Object, error) {
	key := shape{
		types:    [3]*Type{v.typ, w.typ, z.typ},
		versions: [3]uint64{v.typ.Version(), w.typ.Version(), z.typ.Version()},
	}
	p, impl, cached := s.plan(vm, key)
	if cached {
		defer vm.inlineLeave(impl)
	}
	res, err := vm.runTernary(p, v, w, z)
	return vm.finish(s.Op, s.Op.Handler, res, err, v, w, z)
}

// plan returns the plan for key. cached is set when the plan came from the
// cache and impl was recorded with inlineEnter.
func (s *Site) plan(vm *VM, key shape) (p *plan, impl *Object, cached bool) {
	c := s.cache.Load()
	if c != nil && !c.generic {
		for i := range c.entries {
			e := &c.entries[i]
			if e.key != key {
				continue
			}
			impl = e.plan.primary()
			if !vm.inlineEnter(impl) {
				// Too many nested uses of the same implementation on this
				// thread. Plan again instead of reusing the cached plan.
				s.uninlined.Add(1)
				return s.newPlan(vm, key), nil, false
			}
			s.hits.Add(1)
			return e.plan, impl, true
		}
	}
	s.misses.Add(1)
	p = s.newPlan(vm, key)
	if c == nil || !c.generic {
		s.install(vm, c, key, p)
	}
	return p, nil, false
}

func (s *Site) newPlan(vm *VM, key shape) *plan {
	switch s.Kind {
	case TernarySite:
		return vm.planTernary(s.Op, key.types[0], key.types[1], key.types[2])
	case InplaceSite:
		return vm.planInplace(s.Op, key.types[0], key.types[1])
	}
	return vm.planBinary(s.Op, key.types[0], key.types[1])
}

// install tries to replace old with a cache that also holds key. If another
// thread changed the cache first, the new entry is discarded.
func (s *Site) install(vm *VM, old *siteCache, key shape, p *plan) {
	n := 0
	if old != nil {
		n = len(old.entries)
	}
	var next *siteCache
	if n >= vm.Limits.Cache {
		next = &siteCache{generic: true}
	} else {
		entries := make([]siteEntry, n+1)
		if old != nil {
			copy(entries, old.entries)
		}
		entries[n] = siteEntry{key: key, plan: p}
		next = &siteCache{entries: entries}
	}
	if !s.cache.CompareAndSwap(old, next) {
		return
	}
	from, to := old.state(), next.state()
	if from != to {
		vm.Logger.LogAttrs(context.Background(), slog.LevelDebug, "call site transition",
			slog.String("site", s.Label),
			slog.String("op", s.Op.Symbol),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.Int("entries", len(next.entries)),
		)
	}
}

func (c *siteCache) state() SiteState {
	switch {
	case c == nil:
		return Uninitialized
	case c.generic:
		return Megamorphic
	case len(c.entries) == 1:
		return Monomorphic
	}
	return Polymorphic
}

// State returns the site's current cache state.
func (s *Site) State() SiteState {
	return s.cache.Load().state()
}

// SiteStats is a snapshot of a site's cache.
type SiteStats struct {
	State     SiteState
	Entries   int
	Hits      uint64
	Misses    uint64
	Uninlined uint64
}

// Stats returns a snapshot of the site's cache and counters.
func (s *Site) Stats() SiteStats {
	c := s.cache.Load()
	st := SiteStats{
		State:     c.state(),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Uninlined: s.uninlined.Load(),
	}
	if c != nil {
		st.Entries = len(c.entries)
	}
	return st
}

// siteList records the sites created by a VM and its threads.
type siteList struct {
	mu    sync.Mutex
	sites []*Site
}

func (l *siteList) add(s ...*Site) {
	l.mu.Lock()
	l.sites = append(l.sites, s...)
	l.mu.Unlock()
}

// Sites returns the call sites created through the VM or any of its threads.
func (vm *VM) Sites() []*Site {
	vm.sites.mu.Lock()
	defer vm.sites.mu.Unlock()
	return append([]*Site(nil), vm.sites.sites...)
}
