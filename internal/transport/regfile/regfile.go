// Package regfile serves registry data from .reg snapshots, one file per
// host named <host>.reg inside a directory. A snapshot is loaded on the first
// connection to its host and written back atomically after every successful
// mutation, so a missing file looks like an unreachable host and a failed
// write-back surfaces as a WriteError on the mutation that caused it. A
// mutation whose write-back fails is undone in memory.
package regfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/joshuapare/regremote/internal/regtext"
	"github.com/joshuapare/regremote/internal/transport/memreg"
	"github.com/joshuapare/regremote/internal/writer"
	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// Extension is appended to the host name to find its snapshot.
const Extension = ".reg"

// Options configures a Store.
type Options struct {
	// Dir holds the <host>.reg snapshots.
	Dir string

	// OutputEncoding for write-back: regtext.EncodingUTF16LE (default, with
	// BOM, as regedit writes) or regtext.EncodingUTF8.
	OutputEncoding string

	// InputEncoding is used for snapshots without a byte order mark.
	InputEncoding string

	// Sink overrides where a host's snapshot is written.
	// Default: a writer.FileWriter at Dir/<host>.reg
	Sink func(host string) writer.Sink

	// Logger receives load and write-back events.
	// Default: zerolog.Nop()
	Logger zerolog.Logger
}

// Store implements transport.Transport over snapshot files.
type Store struct {
	opts Options
	reg  *memreg.Registry

	mu     sync.Mutex
	loaded map[string]bool
	saved  map[string]uint64
}

var _ transport.Transport = (*Store)(nil)

// New creates a store rooted at opts.Dir. Nothing is read until a host is
// first connected.
func New(opts Options) *Store {
	if opts.OutputEncoding == "" {
		opts.OutputEncoding = regtext.EncodingUTF16LE
	}
	if opts.Sink == nil {
		dir := opts.Dir
		opts.Sink = func(host string) writer.Sink {
			return &writer.FileWriter{Path: filepath.Join(dir, host+Extension)}
		}
	}
	return &Store{
		opts:   opts,
		reg:    memreg.New(),
		loaded: make(map[string]bool),
		saved:  make(map[string]uint64),
	}
}

// Connect loads host's snapshot if needed and opens hive on it.
func (s *Store) Connect(ctx context.Context, host string, hive types.Hive) (transport.Conn, error) {
	if err := validHost(host); err != nil {
		return nil, err
	}
	if err := s.load(host); err != nil {
		return nil, err
	}
	c, err := s.reg.Connect(ctx, host, hive)
	if err != nil {
		return nil, err
	}
	return &conn{Conn: c, store: s, host: host, hive: hive}, nil
}

func validHost(host string) error {
	if host == "" || host == "." || host == ".." || strings.ContainsAny(host, `/\:`) {
		return types.Errorf(types.ErrKindConnection, "invalid snapshot host name %q", host)
	}
	return nil
}

func (s *Store) load(host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(host)
	if s.loaded[key] {
		return nil
	}

	path := filepath.Join(s.opts.Dir, host+Extension)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Wrap(types.ErrKindConnection, err, "no snapshot for host %s", host)
		}
		return types.Wrap(types.ErrKindConnection, err, "read snapshot %s", path)
	}
	ops, err := regtext.Parse(data, regtext.ParseOptions{InputEncoding: s.opts.InputEncoding})
	if err != nil {
		return types.Wrap(types.ErrKindConnection, err, "parse snapshot %s", path)
	}

	s.reg.AddHost(host)
	for _, op := range ops {
		switch o := op.(type) {
		case regtext.CreateKey:
			s.reg.PutKey(host, o.Hive, o.Path)
		case regtext.DeleteKey:
			s.reg.DeleteTree(host, o.Hive, o.Path)
		case regtext.SetValue:
			s.reg.Put(host, o.Hive, o.Path, o.Name, o.Type, o.Data)
		case regtext.DeleteValue:
			s.reg.DeleteValueAt(host, o.Hive, o.Path, o.Name)
		}
	}
	s.loaded[key] = true
	s.saved[key] = s.reg.Generation(host)
	s.opts.Logger.Debug().Str("host", host).Str("path", path).Int("ops", len(ops)).Msg("snapshot loaded")
	return nil
}

// commit writes host's snapshot after a mutation. When the write fails, undo
// reverts the mutation so the change is neither visible to later reads nor
// persisted by a later write.
func (s *Store) commit(host string, undo func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.flush(host)
	if err == nil {
		return nil
	}
	if uerr := undo(); uerr != nil {
		s.opts.Logger.Error().Err(uerr).Str("host", host).Msg("rollback after failed write-back failed")
		return err
	}
	s.opts.Logger.Warn().Err(err).Str("host", host).Msg("change rolled back")
	return err
}

// flush writes host's snapshot if it changed since the last write. s.mu must
// be held.
func (s *Store) flush(host string) error {
	key := strings.ToLower(host)
	gen := s.reg.Generation(host)
	if gen == s.saved[key] {
		return nil
	}

	dump := s.reg.Dump(host)
	keys := make([]regtext.Key, len(dump))
	for i, d := range dump {
		k := regtext.Key{Hive: d.Hive, Path: d.Path}
		for _, v := range d.Values {
			k.Values = append(k.Values, regtext.Value{Name: v.Name, Type: v.Type, Data: v.Data})
		}
		keys[i] = k
	}
	buf, err := regtext.Emit(keys, regtext.EmitOptions{OutputEncoding: s.opts.OutputEncoding, WithBOM: true})
	if err != nil {
		return types.Wrap(types.ErrKindWrite, err, "encode snapshot for %s", host)
	}
	if err := s.opts.Sink(host).WriteSnapshot(buf); err != nil {
		return types.Wrap(types.ErrKindWrite, err, "write snapshot for %s", host)
	}
	s.saved[key] = gen
	s.opts.Logger.Debug().Str("host", host).Int("keys", len(keys)).Msg("snapshot written")
	return nil
}

type conn struct {
	transport.Conn
	store *Store
	host  string
	hive  types.Hive
}

func (c *conn) OpenKey(path string, mode types.AccessMode) (transport.Key, error) {
	k, err := c.Conn.OpenKey(path, mode)
	if err != nil {
		return nil, err
	}
	return &key{Key: k, store: c.store, host: c.host}, nil
}

func (c *conn) CreateKey(path string) error {
	created, missing := c.firstMissing(path)
	if err := c.Conn.CreateKey(path); err != nil {
		return err
	}
	if !missing {
		return nil
	}
	return c.store.commit(c.host, func() error {
		return c.Conn.DeleteKey(created, true)
	})
}

// firstMissing returns the shallowest component of path that does not exist
// yet; deleting it undoes a CreateKey of path.
func (c *conn) firstMissing(path string) (string, bool) {
	parts := strings.Split(types.NormalizeKeyPath(path), `\`)
	for i := range parts {
		prefix := strings.Join(parts[:i+1], `\`)
		k, err := c.Conn.OpenKey(prefix, types.ReadOnly)
		if err != nil {
			return prefix, true
		}
		_ = k.Close()
	}
	return "", false
}

func (c *conn) DeleteKey(path string, recursive bool) error {
	tree := c.subtree(path)
	if err := c.Conn.DeleteKey(path, recursive); err != nil {
		return err
	}
	return c.store.commit(c.host, func() error {
		for _, d := range tree {
			c.store.reg.PutKey(c.host, d.Hive, d.Path)
			for _, v := range d.Values {
				c.store.reg.Put(c.host, d.Hive, d.Path, v.Name, v.Type, v.Data)
			}
		}
		return nil
	})
}

// subtree copies path and every key below it.
func (c *conn) subtree(path string) []memreg.KeyDump {
	norm := strings.ToLower(types.NormalizeKeyPath(path))
	var out []memreg.KeyDump
	for _, d := range c.store.reg.Dump(c.host) {
		p := strings.ToLower(d.Path)
		if d.Hive == c.hive && (p == norm || strings.HasPrefix(p, norm+`\`)) {
			out = append(out, d)
		}
	}
	return out
}

type key struct {
	transport.Key
	store *Store
	host  string
}

func (k *key) SetValue(name string, rt types.RegType, data []byte) error {
	restore, err := k.saveValue(name)
	if err != nil {
		return err
	}
	if err := k.Key.SetValue(name, rt, data); err != nil {
		return err
	}
	return k.store.commit(k.host, restore)
}

func (k *key) DeleteValue(name string) (bool, error) {
	restore, err := k.saveValue(name)
	if err != nil {
		return false, err
	}
	found, err := k.Key.DeleteValue(name)
	if err != nil || !found {
		return found, err
	}
	return true, k.store.commit(k.host, restore)
}

// saveValue captures name's current state and returns a func that puts it
// back.
func (k *key) saveValue(name string) (func() error, error) {
	rt, data, found, err := k.Key.QueryValue(name)
	if err != nil {
		return nil, err
	}
	return func() error {
		if !found {
			_, err := k.Key.DeleteValue(name)
			return err
		}
		return k.Key.SetValue(name, rt, data)
	}, nil
}
