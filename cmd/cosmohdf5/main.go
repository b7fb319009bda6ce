// Command cosmohdf5 inspects and converts striped HDF5 particle snapshots.
//
// Usage:
//
//	cosmohdf5 info   [flags] <shard files or glob>
//	cosmohdf5 gadget [flags] -o <dest> <shard files or glob>
//	cosmohdf5 export [flags] -o <dest> <shard files or glob>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/robert-malhotra/cosmohdf5/striped"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = []command{
	{"info", "print shard, row and column information", runInfo},
	{"gadget", "convert a snapshot to Gadget-1 files", runGadget},
	{"export", "rewrite a snapshot as HDF5 files of a chosen size", runExport},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cosmohdf5 <command> [flags] <files...>")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(os.Stderr, "\nRun 'cosmohdf5 <command> -h' for the flags of a command.")
}

func errExit(message string) {
	fmt.Fprintln(os.Stderr, message+"\n")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, os.Args[2:]); err != nil {
			stop()
			errExit(fmt.Sprintf("%s: %v", name, err))
		}
		return
	}

	usage()
	errExit(fmt.Sprintf("Unknown command '%s'", name))
}

// common holds the flags shared by every command.
type common struct {
	verbose     bool
	profile     string
	root        string
	header      string
	metrics     string
	parallelism int
}

func (c *common) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose development logging.")
	fs.StringVar(&c.profile, "profile", "", "options are (cpu,mem,block,trace).")
	fs.StringVar(&c.root, "root", "/Matter", "group holding the particle columns in every shard.")
	fs.StringVar(&c.header, "header", "/Header", "object carrying the snapshot header attributes.")
	fs.StringVar(&c.metrics, "metrics", "", "write read metrics in Prometheus text format to this file.")
	fs.IntVar(&c.parallelism, "parallel", 1, "shards read concurrently within one range read.")
}

func (c *common) logger() (*zap.Logger, error) {
	if c.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// session is the per-invocation state built from the common flags.
type session struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *striped.Metrics
	stop     []func()
	flags    *common
}

func (c *common) start() (*session, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	s := &session{logger: logger, flags: c}

	if c.profile != "" {
		stopProfile, err := startProfiling(c.profile)
		if err != nil {
			return nil, err
		}
		s.stop = append(s.stop, stopProfile)
	}
	if c.metrics != "" {
		s.registry = prometheus.NewRegistry()
		s.metrics = striped.NewMetrics(s.registry)
	}
	return s, nil
}

// close stops profiling, writes metrics and flushes the logger.
func (s *session) close() error {
	for i := len(s.stop) - 1; i >= 0; i-- {
		s.stop[i]()
	}
	var err error
	if s.registry != nil {
		if werr := prometheus.WriteToTextfile(s.flags.metrics, s.registry); werr != nil {
			err = fmt.Errorf("writing metrics: %w", werr)
		}
	}
	_ = s.logger.Sync()
	return err
}

func (s *session) viewOptions() []striped.ViewOption {
	opts := []striped.ViewOption{
		striped.WithLogger(s.logger),
		striped.WithParallelism(s.flags.parallelism),
	}
	if s.metrics != nil {
		opts = append(opts, striped.WithMetrics(s.metrics))
	}
	return opts
}

// openShards opens the shards named by args at root. A single argument
// holding glob metacharacters is expanded with striped.Glob.
func (s *session) openShards(args []string, root string) (*striped.ShardSet, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no shard files given")
	}
	if len(args) == 1 && strings.ContainsAny(args[0], "*?[") {
		return striped.Glob(args[0], root, striped.WithSetLogger(s.logger))
	}
	return striped.Open(args, root, striped.WithSetLogger(s.logger))
}

func startProfiling(profileType string) (func(), error) {
	switch profileType {
	case "cpu":
		fmt.Println("cpu profiling enabled.")
		return profile.Start(profile.CPUProfile, profile.NoShutdownHook).Stop, nil
	case "mem":
		fmt.Println("mem profiling enabled.")
		return profile.Start(profile.MemProfile, profile.NoShutdownHook).Stop, nil
	case "block", "blocking":
		fmt.Println("block profiling enabled")
		return profile.Start(profile.BlockProfile, profile.NoShutdownHook).Stop, nil
	case "trace":
		fmt.Println("trace profiling enabled")
		return profile.Start(profile.TraceProfile, profile.NoShutdownHook).Stop, nil
	default:
		return nil, fmt.Errorf("unexpected profile type '%s'", profileType)
	}
}
