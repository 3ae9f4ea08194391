// Package viewer tracks who is signed in on the client side.
package viewer

import (
	"sync"

	"github.com/utafrali/puros/internal/domain"
)

// Provider holds the current viewer. Reads return a snapshot; subscribers
// are told about every sign-in and sign-out.
type Provider struct {
	mu      sync.RWMutex
	current *domain.Viewer
	subs    map[uint64]func(*domain.Viewer)
	nextID  uint64
}

func NewProvider() *Provider {
	return &Provider{subs: make(map[uint64]func(*domain.Viewer))}
}

// Current returns a copy of the signed-in viewer, or nil.
func (p *Provider) Current() *domain.Viewer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	v := *p.current
	return &v
}

func (p *Provider) SignIn(v domain.Viewer) {
	p.set(&v)
}

func (p *Provider) SignOut() {
	p.set(nil)
}

// Subscribe registers fn for viewer changes and returns a function that
// removes it.
func (p *Provider) Subscribe(fn func(*domain.Viewer)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) set(v *domain.Viewer) {
	p.mu.Lock()
	p.current = v
	fns := make([]func(*domain.Viewer), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		var snap *domain.Viewer
		if v != nil {
			c := *v
			snap = &c
		}
		fn(snap)
	}
}
