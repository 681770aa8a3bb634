package memreg

import (
	"strings"

	"github.com/joshuapare/regremote/pkg/types"
)

// KeyDump is one key of a host snapshot.
type KeyDump struct {
	Hive   types.Hive
	Path   string // relative to the hive root, "" for the root itself
	Values []ValueDump
}

// ValueDump is one value of a KeyDump.
type ValueDump struct {
	Name string // "" for the default value
	Type types.RegType
	Data []byte
}

// Dump returns every key of host in depth-first order, hives in declaration
// order. Hive roots are included only when they hold values. The returned
// data is a copy.
func (r *Registry) Dump(host string) []KeyDump {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.hosts[hostKey(host)]
	if !ok {
		return nil
	}
	var out []KeyDump
	for _, h := range types.Hives() {
		root := m.hives[h]
		if len(root.values) > 0 {
			out = append(out, dumpNode(h, "", root))
		}
		for _, c := range root.subkeys {
			out = walk(out, h, nil, c)
		}
	}
	return out
}

func walk(out []KeyDump, hive types.Hive, prefix []string, n *node) []KeyDump {
	path := append(prefix[:len(prefix):len(prefix)], n.name)
	out = append(out, dumpNode(hive, strings.Join(path, `\`), n))
	for _, c := range n.subkeys {
		out = walk(out, hive, path, c)
	}
	return out
}

func dumpNode(hive types.Hive, path string, n *node) KeyDump {
	d := KeyDump{Hive: hive, Path: path}
	for _, v := range n.values {
		d.Values = append(d.Values, ValueDump{
			Name: v.name,
			Type: v.rt,
			Data: append([]byte(nil), v.data...),
		})
	}
	return d
}

// DeleteTree removes path and everything below it on host without fault
// injection. Missing paths are ignored.
func (r *Registry) DeleteTree(host string, hive types.Hive, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.hosts[hostKey(host)]
	if !ok {
		return
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}
	if n := m.hives[hive].lookup(parts); n != nil {
		n.parent.removeChild(n)
		n.markDeleted()
	}
}

// DeleteValueAt removes a single value on host without fault injection.
func (r *Registry) DeleteValueAt(host string, hive types.Hive, path, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.hosts[hostKey(host)]
	if !ok {
		return
	}
	if n := m.hives[hive].lookup(splitPath(path)); n != nil {
		n.deleteValue(name)
	}
}
