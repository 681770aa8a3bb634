package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/regremote/pkg/session"
	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// Prober answers whether a host is worth connecting to. It is a single
// blocking call with its own timeout.
type Prober interface {
	Probe(ctx context.Context, host string) bool
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(ctx context.Context, host string) bool

// Probe implements Prober.
func (f ProbeFunc) Probe(ctx context.Context, host string) bool { return f(ctx, host) }

// Options configures a Runner. The zero value runs sequentially against
// HKEY_CLASSES_ROOT with no probe, no confirmation and no logging; callers
// normally set at least Hive.
type Options struct {
	// Hive is opened on every host.
	Hive types.Hive

	// Workers bounds how many hosts are in flight at once.
	// Default: 1 (sequential)
	Workers int

	// Probe, when set, runs before Connect; a negative answer skips the host.
	Probe Prober

	// Force confirms every mutation without asking Confirm.
	Force bool

	// Confirm is asked once per host before a mutation when Force is unset.
	// With neither, mutating operations skip every host as declined.
	Confirm Confirmer

	// PassThru collects the re-read result of mutating value operations.
	PassThru bool

	// Session configures each host's session.
	Session *session.Options

	// Logger receives run and per-host events.
	Logger zerolog.Logger

	// Metrics, when set, records host outcomes.
	Metrics *Metrics
}

// Runner applies operations to host lists.
type Runner struct {
	t    transport.Transport
	opts Options
	gate *gate
	log  zerolog.Logger
}

// New creates a runner over t.
func New(t transport.Transport, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		t:    t,
		opts: opts,
		gate: &gate{force: opts.Force, confirmer: opts.Confirm},
		log:  opts.Logger,
	}
}

// Run applies op to every host and never fails as a whole: each host's
// problem is recorded in the Outcome. An empty host list targets the local
// machine. Cancelling ctx skips hosts that have not started.
func (r *Runner) Run(ctx context.Context, hosts []string, op Operation) *Outcome {
	if len(hosts) == 0 {
		hosts = []string{""}
	}
	runID := uuid.NewString()
	log := r.log.With().Str("run_id", runID).Str("operation", op.name).Logger()
	log.Info().Int("hosts", len(hosts)).Int("workers", r.opts.Workers).Stringer("hive", r.opts.Hive).Msg("batch started")
	start := time.Now()

	// Input that cannot be encoded fails on every host without connecting.
	var invalid error
	if op.validate != nil {
		invalid = op.validate(r.opts.Session.EffectiveLimits())
	}

	reports := make([]HostReport, len(hosts))
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, host := range hosts {
		g.Go(func() error {
			reports[i] = r.runHost(ctx, log, host, op, invalid)
			return nil
		})
	}
	_ = g.Wait()

	out := assemble(runID, op.name, reports)
	log.Info().
		Int("succeeded", out.Count(Succeeded)).
		Int("failed", out.Count(Failed)).
		Int("skipped", out.Count(Skipped)).
		Dur("elapsed", time.Since(start)).
		Msg("batch finished")
	return out
}

// runHost drives one host through the state machine. Deferred closes
// release the key before the session on every exit path.
func (r *Runner) runHost(ctx context.Context, log zerolog.Logger, input string, op Operation, invalid error) (rep HostReport) {
	start := time.Now()
	host := session.ResolveHost(input)
	rep = HostReport{Input: input, ComputerName: host}
	log = log.With().Str("host", host).Logger()

	defer func() {
		rep.Duration = time.Since(start)
		r.opts.Metrics.observe(op.name, rep.State, rep.Duration)
		r.logReport(log, rep)
	}()

	if err := ctx.Err(); err != nil {
		return skip(rep, "resolve", "batch cancelled: "+err.Error())
	}

	if invalid != nil {
		var te *types.Error
		if errors.As(invalid, &te) {
			invalid = te.WithHost(host).WithOp(op.name)
		}
		return fail(rep, "validate", invalid)
	}

	if r.opts.Probe != nil {
		log.Debug().Msg("probing")
		if !r.opts.Probe.Probe(ctx, host) {
			return skip(rep, "probe", "host did not answer the reachability probe")
		}
	}

	log.Debug().Msg("connecting")
	sess, err := session.Open(ctx, r.t, host, r.opts.Hive, r.opts.Session)
	if err != nil {
		return fail(rep, "connect", err)
	}
	defer sess.Close()

	c := &call{sess: sess, path: op.path, passThru: r.opts.PassThru, report: &rep}
	if op.open != openNone {
		mode := types.ReadOnly
		if op.open == openWrite {
			mode = types.ReadWrite
		}
		log.Debug().Str("key", op.path).Stringer("mode", mode).Msg("opening key")
		key, err := sess.OpenKey(op.path, mode)
		if err != nil {
			return fail(rep, "open-key", err)
		}
		defer key.Close()
		c.key = key
	}

	if op.mutating {
		c.confirmed = r.gate.resolve(host, op.describe)
	}

	if err := op.invoke(c); err != nil {
		if types.IsKind(err, types.ErrKindDeclined) {
			return skip(rep, "invoke", err.Error())
		}
		return fail(rep, "invoke", err)
	}

	rep.State = Succeeded
	return rep
}

func skip(rep HostReport, stage, reason string) HostReport {
	rep.State = Skipped
	rep.Stage = stage
	rep.Reason = reason
	rep.Results, rep.Tests, rep.Keys = nil, nil, nil
	return rep
}

func fail(rep HostReport, stage string, err error) HostReport {
	var te *types.Error
	if !errors.As(err, &te) {
		err = types.Wrap(types.ErrKindConnection, err, "%s failed", stage).WithHost(rep.ComputerName)
	}
	rep.State = Failed
	rep.Stage = stage
	rep.Err = err
	rep.Reason = err.Error()
	rep.Results, rep.Tests, rep.Keys = nil, nil, nil
	return rep
}

func (r *Runner) logReport(log zerolog.Logger, rep HostReport) {
	switch rep.State {
	case Succeeded:
		log.Debug().Dur("duration", rep.Duration).Int("results", len(rep.Results)).Msg("host succeeded")
	case Skipped:
		log.Warn().Str("stage", rep.Stage).Str("reason", rep.Reason).Msg("host skipped")
	case Failed:
		kind, _ := types.KindOf(rep.Err)
		ev := log.Warn()
		if kind.Fatal() {
			ev = log.Error()
		}
		ev.Err(rep.Err).Stringer("kind", kind).Str("stage", rep.Stage).Msg("host failed")
	}
}
