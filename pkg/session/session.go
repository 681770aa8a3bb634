package session

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// Session is an open connection to one hive on one host.
type Session struct {
	host   string
	hive   types.Hive
	limits types.Limits
	log    zerolog.Logger

	mu     sync.Mutex
	conn   transport.Conn
	keys   map[*Key]struct{}
	closed bool
}

// Open connects to hive on host. An empty host resolves to the local machine.
// Connection failures are retried up to opts.ConnectAttempts times with a
// fixed delay; any other failure is returned immediately.
func Open(ctx context.Context, t transport.Transport, host string, hive types.Hive, opts *Options) (*Session, error) {
	o := opts.withDefaults()
	host = ResolveHost(host)
	if !hive.Valid() {
		return nil, types.Errorf(types.ErrKindInvalidArgument, "invalid hive %d", int(hive)).WithHost(host).WithOp("connect")
	}

	log := o.Logger.With().Str("host", host).Stringer("hive", hive).Logger()

	attempt := 0
	conn, err := backoff.Retry(ctx, func() (transport.Conn, error) {
		attempt++
		c, err := t.Connect(ctx, host, hive)
		if err == nil {
			return c, nil
		}
		err = classify(err, types.ErrKindConnection, host, "connect")
		if !types.IsKind(err, types.ErrKindConnection) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(o.ConnectDelay)),
		backoff.WithMaxTries(uint(o.ConnectAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("connect failed, retrying")
		}),
	)
	if err != nil {
		if _, typed := types.KindOf(err); !typed {
			// context expiry while waiting between attempts
			err = types.Wrap(types.ErrKindConnection, err, "connect %s", hive).WithHost(host).WithOp("connect")
		}
		return nil, err
	}

	log.Debug().Int("attempts", attempt).Msg("session opened")
	return &Session{
		host:   host,
		hive:   hive,
		limits: o.Limits,
		log:    log,
		conn:   conn,
		keys:   make(map[*Key]struct{}),
	}, nil
}

// Host returns the resolved host name.
func (s *Session) Host() string { return s.host }

// Hive returns the connected hive.
func (s *Session) Hive() types.Hive { return s.hive }

// Limits returns the caller-side limits checked by this session.
func (s *Session) Limits() types.Limits { return s.limits }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// OpenKey opens an existing subkey. A missing path fails with KeyNotFound;
// a handle for a non-existent key is never returned.
func (s *Session) OpenKey(path string, mode types.AccessMode) (*Key, error) {
	path = types.NormalizeKeyPath(path)
	if err := s.limits.CheckKeyPath(path); err != nil {
		return nil, s.annotate(err, "open-key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, s.closedErr("open-key")
	}
	tk, err := s.conn.OpenKey(path, mode)
	if err != nil {
		return nil, classifyOpen(err, s.host)
	}
	k := &Key{s: s, k: tk, path: path, mode: mode}
	s.keys[k] = struct{}{}
	s.log.Debug().Str("key", path).Stringer("mode", mode).Msg("key opened")
	return k, nil
}

// KeyExists reports whether path exists. KeyNotFound is reported as false.
func (s *Session) KeyExists(path string) (bool, error) {
	k, err := s.OpenKey(path, types.ReadOnly)
	if err != nil {
		if types.IsKind(err, types.ErrKindKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	k.Close()
	return true, nil
}

// CreateKey creates path and any missing parents.
func (s *Session) CreateKey(path string) error {
	path = types.NormalizeKeyPath(path)
	if path == "" {
		return types.Errorf(types.ErrKindInvalidArgument, "key path is empty").WithHost(s.host).WithOp("create-key")
	}
	if err := s.limits.CheckKeyPath(path); err != nil {
		return s.annotate(err, "create-key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr("create-key")
	}
	if err := s.conn.CreateKey(path); err != nil {
		return classify(err, types.ErrKindWrite, s.host, "create-key")
	}
	s.log.Debug().Str("key", path).Msg("key created")
	return nil
}

// DeleteKey removes path. Without recursive, a key with subkeys is rejected
// with a WriteError.
func (s *Session) DeleteKey(path string, recursive bool) error {
	path = types.NormalizeKeyPath(path)
	if path == "" {
		return types.Errorf(types.ErrKindInvalidArgument, "refusing to delete the hive root").WithHost(s.host).WithOp("delete-key")
	}
	if err := s.limits.CheckKeyPath(path); err != nil {
		return s.annotate(err, "delete-key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr("delete-key")
	}
	if err := s.conn.DeleteKey(path, recursive); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Wrap(types.ErrKindKeyNotFound, err, "key %s not found", path).WithHost(s.host).WithOp("delete-key")
		}
		return classify(err, types.ErrKindWrite, s.host, "delete-key")
	}
	s.log.Debug().Str("key", path).Bool("recursive", recursive).Msg("key deleted")
	return nil
}

// Close releases every key still open on the session, then the connection.
// It is idempotent and never fails; release errors are logged and dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for k := range s.keys {
		k.release()
	}
	s.keys = nil
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("connection close failed")
	}
	s.log.Debug().Msg("session closed")
}

// forget drops k from the open set. Callers hold s.mu.
func (s *Session) forget(k *Key) {
	delete(s.keys, k)
}

func (s *Session) closedErr(op string) error {
	return types.ErrSessionClosed.WithHost(s.host).WithOp(op)
}

func (s *Session) annotate(err error, op string) error {
	var te *types.Error
	if errors.As(err, &te) {
		return te.WithHost(s.host).WithOp(op)
	}
	return err
}

// classify gives untyped transport errors the fallback kind and attaches
// host/op context to typed ones that lack it.
func classify(err error, fallback types.ErrKind, host, op string) error {
	var te *types.Error
	if !errors.As(err, &te) {
		return &types.Error{Kind: fallback, Host: host, Op: op, Msg: "transport error", Err: err}
	}
	if te.Host != "" {
		return err
	}
	c := te.WithHost(host)
	if c.Op == "" {
		c.Op = op
	}
	return c
}

// classifyOpen maps not-exist errors onto KeyNotFound; anything else
// untyped is a connection-level failure.
func classifyOpen(err error, host string) error {
	if _, typed := types.KindOf(err); !typed && errors.Is(err, fs.ErrNotExist) {
		return &types.Error{Kind: types.ErrKindKeyNotFound, Host: host, Op: "open-key", Msg: "key not found", Err: err}
	}
	return classify(err, types.ErrKindConnection, host, "open-key")
}
