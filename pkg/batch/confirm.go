package batch

import "sync"

// Confirmer decides whether a mutating operation may proceed on host.
// Implementations may prompt; the runner never calls Confirm concurrently.
type Confirmer interface {
	Confirm(host, description string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(host, description string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(host, description string) bool { return f(host, description) }

// gate resolves confirmation for one run. Force wins over the confirmer; with
// neither, mutations are declined.
type gate struct {
	force     bool
	confirmer Confirmer
	mu        sync.Mutex
}

func (g *gate) resolve(host, description string) bool {
	if g.force {
		return true
	}
	if g.confirmer == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.confirmer.Confirm(host, description)
}
