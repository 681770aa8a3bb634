package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/internal/config"
	"github.com/joshuapare/regremote/internal/logging"
	"github.com/joshuapare/regremote/pkg/batch"
)

// errHostsFailed makes the process exit 1 once the outcome has been printed.
var errHostsFailed = errors.New("one or more hosts failed")

// globals holds the persistent flags and the state derived from them.
type globals struct {
	configPath  string
	hosts       []string
	hive        string
	workers     int
	transport   string
	snapshotDir string
	probe       bool
	force       bool
	passThru    bool
	jsonOut     bool
	quiet       bool
	verbose     bool
	noColor     bool
	logLevel    string
	logFormat   string
	metricsFile string

	stdin          io.Reader
	stdout, stderr io.Writer

	cfg *config.Config
	log zerolog.Logger

	// confirm replaces the interactive prompt when set.
	confirm batch.Confirmer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "regctl",
		Short: "Read and write registry values across Windows hosts",
		Long: `regctl reads, writes, tests and removes registry values on one or more
Windows hosts through the remote registry service. Every host is processed
independently: an unreachable host or a missing key is reported and the
batch continues.

Offline snapshots (one <host>.reg file per machine) can stand in for live
hosts with --transport regfile.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "Config file (default: <user config dir>/regctl/config.yaml)")
	f.StringSliceVarP(&g.hosts, "computer-name", "c", nil, "Target hosts, comma-separated or repeated; '-' reads names from stdin (default: local machine)")
	f.StringVar(&g.hive, "hive", "", "Registry hive (LocalMachine, HKLM, HKEY_LOCAL_MACHINE, ...)")
	f.IntVarP(&g.workers, "workers", "w", 0, "Hosts processed in parallel")
	f.StringVar(&g.transport, "transport", "", "Transport: native or regfile")
	f.StringVar(&g.snapshotDir, "snapshot-dir", "", "Directory of <host>.reg snapshots for the regfile transport")
	f.BoolVar(&g.probe, "probe", false, "Skip hosts that do not answer a TCP reachability probe")
	f.BoolVarP(&g.force, "force", "f", false, "Apply changes without asking for confirmation")
	f.BoolVar(&g.passThru, "passthru", false, "Print the value read back after a change")
	f.BoolVar(&g.jsonOut, "json", false, "Output in JSON format")
	f.BoolVarP(&g.quiet, "quiet", "q", false, "Suppress the summary line")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	f.StringVar(&g.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	f.StringVar(&g.logFormat, "log-format", "", "Log format (auto, json, console)")
	f.StringVar(&g.metricsFile, "metrics-textfile", "", "Write Prometheus metrics for the run to this file")

	root.AddCommand(
		newGetCmd(g),
		newSetCmd(g),
		newRemoveCmd(g),
		newTestCmd(g),
		newListCmd(g),
		newKeyCmd(g),
	)
	return root
}

// setup merges flags over the loaded config and builds the logger.
func (g *globals) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("hive") {
		cfg.Hive = g.hive
	}
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}
	if flags.Changed("transport") {
		cfg.Transport.Kind = g.transport
	}
	if flags.Changed("snapshot-dir") {
		cfg.Transport.SnapshotDir = g.snapshotDir
	}
	if flags.Changed("probe") {
		cfg.Probe.Enabled = g.probe
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = g.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: g.stderr})
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.log = log
	return nil
}

// hostList expands '-' into names read from stdin. No hosts means the
// local machine.
func (g *globals) hostList() ([]string, error) {
	var hosts []string
	for _, h := range g.hosts {
		if h != "-" {
			hosts = append(hosts, h)
			continue
		}
		sc := bufio.NewScanner(g.stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
				hosts = append(hosts, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read hosts from stdin: %w", err)
		}
	}
	if len(hosts) == 0 {
		hosts = []string{""}
	}
	return hosts, nil
}
