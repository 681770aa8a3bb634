// Package probe implements the reachability check that precedes a
// connection attempt: a TCP connect to the ports the remote registry
// service listens behind.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/dnscache"
	"github.com/rs/zerolog"
)

// DefaultPorts are SMB and the RPC endpoint mapper. Either answering is
// enough for the remote registry service to be worth trying.
var DefaultPorts = []int{445, 135}

// Options configures a TCP probe.
type Options struct {
	Ports    []int
	Timeout  time.Duration // per dial
	Attempts int
	Logger   zerolog.Logger
}

// DefaultOptions returns the probe defaults: both ports, two seconds per
// dial, one attempt.
func DefaultOptions() Options {
	return Options{
		Ports:    append([]int(nil), DefaultPorts...),
		Timeout:  2 * time.Second,
		Attempts: 1,
		Logger:   zerolog.Nop(),
	}
}

// TCP reports a host reachable when any configured port accepts a
// connection. Host names are resolved through a shared cache so a batch
// touching the same host twice resolves it once.
type TCP struct {
	opts     Options
	resolver *dnscache.Resolver
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New builds a probe. Zero fields in opts fall back to DefaultOptions.
func New(opts Options) *TCP {
	def := DefaultOptions()
	if len(opts.Ports) == 0 {
		opts.Ports = def.Ports
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Attempts < 1 {
		opts.Attempts = def.Attempts
	}
	d := &net.Dialer{Timeout: opts.Timeout}
	return &TCP{opts: opts, resolver: &dnscache.Resolver{}, dial: d.DialContext}
}

// Probe implements batch.Prober. It never returns an error; every failure
// is an unreachable host.
func (p *TCP) Probe(ctx context.Context, host string) bool {
	log := p.opts.Logger.With().Str("host", host).Logger()

	addrs, err := p.resolve(ctx, host)
	if err != nil {
		log.Debug().Err(err).Msg("probe: resolve failed")
		return false
	}

	for attempt := 1; attempt <= p.opts.Attempts; attempt++ {
		for _, ip := range addrs {
			for _, port := range p.opts.Ports {
				if ctx.Err() != nil {
					return false
				}
				if p.try(ctx, ip, port) {
					log.Debug().Str("ip", ip).Int("port", port).Int("attempt", attempt).Msg("probe: reachable")
					return true
				}
			}
		}
	}
	log.Debug().Int("attempts", p.opts.Attempts).Ints("ports", p.opts.Ports).Msg("probe: unreachable")
	return false
}

func (p *TCP) resolve(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}
	addrs, err := p.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no addresses found", Name: host}
	}
	return addrs, nil
}

func (p *TCP) try(ctx context.Context, ip string, port int) bool {
	dctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	c, err := p.dial(dctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}
