package layout

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry owns the set of known layouts and the active one.
//
// Switching the active layout swaps a pointer and then notifies subscribers
// synchronously, in subscription order, on the caller's goroutine.
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
	active  atomic.Pointer[Layout]

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64

	logger *slog.Logger
}

type subscription struct {
	id uint64
	fn func(*Layout)
}

// NewRegistry returns a registry holding the built-in layouts with
// DefaultLayout active.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		layouts: make(map[string]*Layout),
		logger:  logger,
	}
	for _, def := range Builtin() {
		if err := r.Register(def); err != nil {
			// Built-in tables are covered by tests; failing here is a programming error.
			panic(err)
		}
	}
	r.active.Store(r.layouts[DefaultLayout])
	return r
}

// Register compiles def and adds it, replacing any layout of the same name.
// Replacing the active layout does not change the active pointer until the
// next SetActive call.
func (r *Registry) Register(def Definition) error {
	l, err := Compile(def)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.layouts[l.name] = l
	r.mu.Unlock()
	r.logger.Debug("layout registered", "layout", l.name, "chars", len(l.charTable))
	return nil
}

// Get returns the named layout. An unknown name returns the default layout
// together with an error wrapping ErrUnknownLayout.
func (r *Registry) Get(name string) (*Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.layouts[name]; ok {
		return l, nil
	}
	return r.layouts[DefaultLayout], fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}

// Active returns the active layout. It never returns nil.
func (r *Registry) Active() *Layout {
	return r.active.Load()
}

// SetActive makes the named layout active and notifies subscribers. Unknown
// names activate the default layout; the returned error reports the fallback.
func (r *Registry) SetActive(name string) (*Layout, error) {
	l, err := r.Get(name)
	if err != nil {
		r.logger.Warn("unknown layout, falling back", "layout", name, "fallback", l.name)
	}
	prev := r.active.Swap(l)
	if prev != l {
		r.logger.Info("active layout changed", "layout", l.name)
		r.notify(l)
	}
	return l, err
}

// Subscribe registers fn to be called after every active layout change and
// returns a function that removes the subscription. Calling the returned
// function more than once is harmless.
func (r *Registry) Subscribe(fn func(*Layout)) (unsubscribe func()) {
	r.subMu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, fn: fn})
	r.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			defer r.subMu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *Registry) notify(l *Layout) {
	r.subMu.Lock()
	subs := make([]subscription, len(r.subs))
	copy(subs, r.subs)
	r.subMu.Unlock()

	for _, s := range subs {
		s.fn(l)
	}
}

// Names returns the registered layout names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Layouts returns every registered layout ordered by name.
func (r *Registry) Layouts() []*Layout {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Layout, 0, len(names))
	for _, n := range names {
		out = append(out, r.layouts[n])
	}
	return out
}
