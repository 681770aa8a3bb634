package main

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/internal/config"
	"github.com/joshuapare/regremote/internal/probe"
	"github.com/joshuapare/regremote/internal/transport/regfile"
	"github.com/joshuapare/regremote/internal/transport/winreg"
	"github.com/joshuapare/regremote/pkg/batch"
	"github.com/joshuapare/regremote/pkg/session"
	"github.com/joshuapare/regremote/pkg/transport"
	"github.com/joshuapare/regremote/pkg/types"
)

// run executes op against every host and prints the outcome.
func (g *globals) run(cmd *cobra.Command, op batch.Operation) error {
	hosts, err := g.hostList()
	if err != nil {
		return err
	}
	hive, err := types.ParseHive(g.cfg.Hive)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := batch.Options{
		Hive:     hive,
		Workers:  g.cfg.Workers,
		Force:    g.force,
		PassThru: g.passThru,
		Confirm:  g.confirmer(slices.Contains(g.hosts, "-")),
		Session: &session.Options{
			ConnectAttempts: g.cfg.Connect.Attempts,
			ConnectDelay:    g.cfg.Connect.Delay,
			Limits:          g.cfg.ValueLimits(),
			Logger:          g.log,
		},
		Logger: g.log,
	}
	if g.cfg.Metrics.Textfile != "" {
		if opts.Metrics, err = batch.NewMetrics(reg); err != nil {
			return err
		}
	}
	if g.cfg.Probe.Enabled {
		opts.Probe = probe.New(probe.Options{
			Ports:    g.cfg.Probe.Ports,
			Timeout:  g.cfg.Probe.Timeout,
			Attempts: g.cfg.Probe.Attempts,
			Logger:   g.log,
		})
	}

	out := batch.New(g.newTransport(), opts).Run(cmd.Context(), hosts, op)

	if err := g.render(out); err != nil {
		return err
	}
	if g.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(g.cfg.Metrics.Textfile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if f := out.Fatal(); f != nil {
		return fmt.Errorf("%s: %s", f.Host, f.Message)
	}
	if out.HasFailures() {
		return errHostsFailed
	}
	return nil
}

func (g *globals) newTransport() transport.Transport {
	if g.cfg.Transport.Kind == config.TransportRegfile {
		return regfile.New(regfile.Options{Dir: g.cfg.Transport.SnapshotDir, Logger: g.log})
	}
	return winreg.New()
}
