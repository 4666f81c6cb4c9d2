package models

import (
	"reflect"
	"sync"

	"github.com/spf13/cast"
)

// PrefObserver is called after a registered pref changes value.
type PrefObserver func(name string)

type prefSubscription struct {
	id int
	fn PrefObserver
}

// PrefStore holds typed preference values with registered defaults. Values
// are kept as plain JSON-compatible types so that a snapshot can be persisted
// and restored as is.
type PrefStore struct {
	mu        sync.RWMutex
	defaults  map[string]any
	values    map[string]any
	observers map[string][]prefSubscription
	nextID    int
}

func NewPrefStore() *PrefStore {
	return &PrefStore{
		defaults:  make(map[string]any),
		values:    make(map[string]any),
		observers: make(map[string][]prefSubscription),
	}
}

func (p *PrefStore) register(name string, def any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults[name] = def
}

func (p *PrefStore) RegisterBoolean(name string, def bool)  { p.register(name, def) }
func (p *PrefStore) RegisterInteger(name string, def int)   { p.register(name, def) }
func (p *PrefStore) RegisterString(name string, def string) { p.register(name, def) }
func (p *PrefStore) RegisterList(name string)               { p.register(name, []any{}) }
func (p *PrefStore) RegisterDict(name string)               { p.register(name, map[string]any{}) }

func (p *PrefStore) IsRegistered(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.defaults[name]
	return ok
}

func (p *PrefStore) get(name string) any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[name]; ok {
		return v
	}
	return p.defaults[name]
}

func (p *PrefStore) GetBoolean(name string) bool {
	return cast.ToBool(p.get(name))
}

func (p *PrefStore) GetInteger(name string) int {
	return cast.ToInt(p.get(name))
}

func (p *PrefStore) GetString(name string) string {
	return cast.ToString(p.get(name))
}

func (p *PrefStore) GetList(name string) []any {
	return cast.ToSlice(p.get(name))
}

func (p *PrefStore) GetDict(name string) map[string]any {
	return cast.ToStringMap(p.get(name))
}

// HasPrefPath reports whether a user value is set.
func (p *PrefStore) HasPrefPath(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.values[name]
	return ok
}

func (p *PrefStore) set(name string, value any) {
	p.mu.Lock()
	old, had := p.values[name]
	if !had {
		old = p.defaults[name]
	}
	p.values[name] = value
	changed := !reflect.DeepEqual(old, value)
	subs := append([]prefSubscription(nil), p.observers[name]...)
	p.mu.Unlock()

	if !changed {
		return
	}
	for _, s := range subs {
		s.fn(name)
	}
}

func (p *PrefStore) SetBoolean(name string, value bool)        { p.set(name, value) }
func (p *PrefStore) SetInteger(name string, value int)         { p.set(name, value) }
func (p *PrefStore) SetString(name string, value string)       { p.set(name, value) }
func (p *PrefStore) SetList(name string, value []any)          { p.set(name, value) }
func (p *PrefStore) SetDict(name string, value map[string]any) { p.set(name, value) }

// ClearPref drops the user value so the default applies again.
func (p *PrefStore) ClearPref(name string) {
	p.mu.Lock()
	old, had := p.values[name]
	delete(p.values, name)
	changed := had && !reflect.DeepEqual(old, p.defaults[name])
	subs := append([]prefSubscription(nil), p.observers[name]...)
	p.mu.Unlock()

	if !changed {
		return
	}
	for _, s := range subs {
		s.fn(name)
	}
}

// AddObserver subscribes fn to changes of name. Observers run on the goroutine
// that changed the value, after the store lock is released. The returned func
// removes the subscription.
func (p *PrefStore) AddObserver(name string, fn PrefObserver) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.observers[name] = append(p.observers[name], prefSubscription{id: id, fn: fn})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.observers[name]
		for i, s := range subs {
			if s.id == id {
				p.observers[name] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Snapshot returns the user values (defaults are not persisted).
func (p *PrefStore) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Restore replaces the user values. Observers of prefs whose effective value
// changed are notified once the store is unlocked. Unknown names are kept so
// that prefs registered later still find their value.
func (p *PrefStore) Restore(values map[string]any) {
	p.mu.Lock()
	previous := p.values
	p.values = make(map[string]any, len(values))
	for k, v := range values {
		p.values[k] = v
	}

	var fire []prefSubscription
	var names []string
	for name, subs := range p.observers {
		before, ok := previous[name]
		if !ok {
			before = p.defaults[name]
		}
		after, ok := p.values[name]
		if !ok {
			after = p.defaults[name]
		}
		if reflect.DeepEqual(before, after) {
			continue
		}
		for _, s := range subs {
			fire = append(fire, s)
			names = append(names, name)
		}
	}
	p.mu.Unlock()

	for i, s := range fire {
		s.fn(names[i])
	}
}
