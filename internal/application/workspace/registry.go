package workspace

import (
	"sync"
	"time"
)

// Registry maps session tokens to workspaces.
type Registry struct {
	newWorkspace func() *Workspace

	mu     sync.Mutex
	spaces map[string]*Workspace
}

// NewRegistry creates a registry that builds workspaces with factory.
func NewRegistry(factory func() *Workspace) *Registry {
	return &Registry{newWorkspace: factory, spaces: map[string]*Workspace{}}
}

// Get returns the workspace of token, creating it on first use.
// PRE: token is non-empty
func (r *Registry) Get(token string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.spaces[token]
	if !ok {
		w = r.newWorkspace()
		r.spaces[token] = w
	}
	return w
}

// Evict drops the workspace of token.
func (r *Registry) Evict(token string) {
	r.mu.Lock()
	w, ok := r.spaces[token]
	delete(r.spaces, token)
	r.mu.Unlock()
	if ok {
		w.Close()
	}
}

// EvictIdle drops workspaces unused since before now-ttl and returns how many went.
func (r *Registry) EvictIdle(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	var idle []*Workspace
	for token, w := range r.spaces {
		if now.Sub(w.LastUsed()) > ttl {
			idle = append(idle, w)
			delete(r.spaces, token)
		}
	}
	r.mu.Unlock()
	for _, w := range idle {
		w.Close()
	}
	return len(idle)
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}
