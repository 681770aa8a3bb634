// Package memreg is an in-memory registry transport. It models any number of
// hosts, each with the full set of hives, and supports fault injection
// (unreachable hosts, transient connect failures, rejected writes) plus
// handle accounting so callers can verify that every connection and key they
// open is released.
//
// Names are case-insensitive and case-preserving, like the platform registry.
package memreg

import (
	"context"
	"strings"
	"sync"

	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// Registry is a thread-safe set of in-memory machines. It implements
// transport.Transport.
type Registry struct {
	mu    sync.Mutex
	hosts map[string]*machine
}

type machine struct {
	hives map[types.Hive]*node

	unreachable  bool
	failConnects int   // remaining Connect calls to reject
	writeErr     error // non-nil: every mutation fails with it

	openConns  int
	openKeys   int
	generation uint64
}

type node struct {
	name    string
	parent  *node
	values  []*value
	subkeys []*node
	deleted bool
}

type value struct {
	name string
	rt   types.RegType
	data []byte
}

var _ transport.Transport = (*Registry)(nil)

// New returns an empty registry with no hosts.
func New() *Registry {
	return &Registry{hosts: make(map[string]*machine)}
}

func hostKey(host string) string { return strings.ToLower(host) }

// AddHost registers host with empty hives. Adding an existing host is a no-op.
func (r *Registry) AddHost(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureHost(host)
}

func (r *Registry) ensureHost(host string) *machine {
	k := hostKey(host)
	if m, ok := r.hosts[k]; ok {
		return m
	}
	m := &machine{hives: make(map[types.Hive]*node)}
	for _, h := range types.Hives() {
		m.hives[h] = &node{name: h.RootName()}
	}
	r.hosts[k] = m
	return m
}

// SetUnreachable makes every Connect to host fail with ConnectionError.
func (r *Registry) SetUnreachable(host string, unreachable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureHost(host).unreachable = unreachable
}

// FailConnects rejects the next n Connect calls to host, then recovers.
func (r *Registry) FailConnects(host string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureHost(host).failConnects = n
}

// FailWrites makes every mutation on host fail with a WriteError wrapping
// cause. A nil cause restores normal behaviour.
func (r *Registry) FailWrites(host string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureHost(host).writeErr = cause
}

// OpenConns reports how many connections to host are currently open.
func (r *Registry) OpenConns(host string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.hosts[hostKey(host)]; ok {
		return m.openConns
	}
	return 0
}

// OpenKeys reports how many key handles on host are currently open.
func (r *Registry) OpenKeys(host string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.hosts[hostKey(host)]; ok {
		return m.openKeys
	}
	return 0
}

// Generation increments on every successful mutation of host. Snapshot
// stores compare it to decide whether a write-back is needed.
func (r *Registry) Generation(host string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.hosts[hostKey(host)]; ok {
		return m.generation
	}
	return 0
}

// Put seeds a value, creating host and any missing keys along path.
func (r *Registry) Put(host string, hive types.Hive, path, name string, rt types.RegType, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.ensureHost(host)
	n := m.hives[hive].create(splitPath(path))
	n.setValue(name, rt, data)
}

// PutKey seeds an empty key, creating host and intermediate keys.
func (r *Registry) PutKey(host string, hive types.Hive, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureHost(host).hives[hive].create(splitPath(path))
}

// Get reads a value directly, bypassing connections and fault injection.
func (r *Registry) Get(host string, hive types.Hive, path, name string) (types.RegType, []byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.hosts[hostKey(host)]
	if !ok {
		return 0, nil, false
	}
	n := m.hives[hive].lookup(splitPath(path))
	if n == nil {
		return 0, nil, false
	}
	v := n.findValue(name)
	if v == nil {
		return 0, nil, false
	}
	return v.rt, append([]byte(nil), v.data...), true
}

// Connect implements transport.Transport.
func (r *Registry) Connect(ctx context.Context, host string, hive types.Hive) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Wrap(types.ErrKindConnection, err, "connect %s", host)
	}
	if !hive.Valid() {
		return nil, types.Errorf(types.ErrKindInvalidArgument, "invalid hive %d", int(hive))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.hosts[hostKey(host)]
	switch {
	case !ok:
		return nil, types.Errorf(types.ErrKindConnection, "host %s not found", host)
	case m.unreachable:
		return nil, types.Errorf(types.ErrKindConnection, "host %s unreachable", host)
	case m.failConnects > 0:
		m.failConnects--
		return nil, types.Errorf(types.ErrKindConnection, "host %s refused connection", host)
	}
	m.openConns++
	return &conn{reg: r, m: m, root: m.hives[hive]}, nil
}

// splitPath normalizes path and splits it into components.
func splitPath(path string) []string {
	path = types.NormalizeKeyPath(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, `\`)
}

func (n *node) child(name string) *node {
	for _, c := range n.subkeys {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

func (n *node) lookup(parts []string) *node {
	cur := n
	for _, p := range parts {
		if cur = cur.child(p); cur == nil {
			return nil
		}
	}
	return cur
}

func (n *node) create(parts []string) *node {
	cur := n
	for _, p := range parts {
		next := cur.child(p)
		if next == nil {
			next = &node{name: p, parent: cur}
			cur.subkeys = append(cur.subkeys, next)
		}
		cur = next
	}
	return cur
}

func (n *node) findValue(name string) *value {
	for _, v := range n.values {
		if strings.EqualFold(v.name, name) {
			return v
		}
	}
	return nil
}

func (n *node) setValue(name string, rt types.RegType, data []byte) {
	data = append([]byte(nil), data...)
	if v := n.findValue(name); v != nil {
		v.rt, v.data = rt, data
		return
	}
	n.values = append(n.values, &value{name: name, rt: rt, data: data})
}

func (n *node) deleteValue(name string) bool {
	for i, v := range n.values {
		if strings.EqualFold(v.name, name) {
			n.values = append(n.values[:i], n.values[i+1:]...)
			return true
		}
	}
	return false
}

// markDeleted flags n and its descendants so open handles observe removal.
func (n *node) markDeleted() {
	n.deleted = true
	for _, c := range n.subkeys {
		c.markDeleted()
	}
}

func (n *node) removeChild(c *node) {
	for i, s := range n.subkeys {
		if s == c {
			n.subkeys = append(n.subkeys[:i], n.subkeys[i+1:]...)
			return
		}
	}
}
