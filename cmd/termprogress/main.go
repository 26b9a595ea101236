package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sigman78/termprogress/internal/config"
	"github.com/sigman78/termprogress/internal/logging"
	"github.com/sigman78/termprogress/internal/progress"
	"github.com/sigman78/termprogress/internal/work"
)

// Populated at build time via -ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=abc1234 -X main.date=2025-01-01"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: termprogress [options]

Runs a simulated workload and draws its progress as a ruler
(0...10...20...) on a single terminal line.

Options:
  -config string          Config file (yaml, toml or json)
  -items int              Work items to run (default: 400)
  -step int               Progress units reported per item (default: 1)
  -total int              Expected units (default: items * step)
  -threads int            Concurrent workers (default: 3)
  -rate float             Items started per second, 0 = unlimited (default: 200)
  -item-cost int          Simulated milliseconds per item (default: 5)
  -message-every int      Print a message every N items, 0 = never (default: 100)
  -style string           Display style: ruler|bar (default: ruler)
  -overflow string        Past-total behaviour: clamp|allow (default: clamp)
  -filler string          Glyph drawn between ruler labels (default: .)
  -force                  Draw even when stdout is not a terminal
  -debug                  Enable verbose debug logging
  -version                Print version and exit
  -h / -help              Show this help and exit

Every option can also be set through TERMPROGRESS_<NAME>
(e.g. TERMPROGRESS_MESSAGE_EVERY=50). Flags win over the environment,
which wins over the config file.
`)
}

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain runs the command with args (without the program name) and
// returns the process exit code, so deferred cleanup always runs.
func realMain(args []string) int {
	// ContinueOnError lets us pick the exit code for bad flags.
	fs := flag.NewFlagSet("termprogress", flag.ContinueOnError)
	fs.Usage = usage

	var (
		configFlag   string
		items        int
		step         int64
		total        int64
		threads      int
		rateFlag     float64
		itemCost     int
		messageEvery int
		style        string
		overflow     string
		filler       string
		force        bool
		debug        bool
	)

	fs.StringVar(&configFlag, "config", "", "Config file")
	fs.IntVar(&items, "items", 400, "Work items to run")
	fs.Int64Var(&step, "step", 1, "Progress units reported per item")
	fs.Int64Var(&total, "total", 0, "Expected units (0 = items * step)")
	fs.IntVar(&threads, "threads", 3, "Concurrent workers")
	fs.Float64Var(&rateFlag, "rate", 200, "Items started per second")
	fs.IntVar(&itemCost, "item-cost", 5, "Simulated milliseconds per item")
	fs.IntVar(&messageEvery, "message-every", 100, "Print a message every N items")
	fs.StringVar(&style, "style", config.StyleRuler, "Display style: ruler|bar")
	fs.StringVar(&overflow, "overflow", "clamp", "Past-total behaviour: clamp|allow")
	fs.StringVar(&filler, "filler", progress.DefaultFiller, "Glyph drawn between ruler labels")
	fs.BoolVar(&force, "force", false, "Draw even when stdout is not a terminal")
	fs.BoolVar(&debug, "debug", false, "Enable verbose debug logging")

	for _, a := range args {
		if a == "-version" || a == "--version" {
			fmt.Printf("termprogress %s (commit %s, built %s)\n", version, commit, date)
			return 0
		}
		if a == "-h" || a == "-help" || a == "--help" {
			usage()
			return 0
		}
	}

	if err := fs.Parse(args); err != nil {
		// fs already printed the error message
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "error: unexpected argument %q\n", fs.Arg(0))
		usage()
		return 2
	}

	cfg, err := config.Load(configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Only flags given on the command line override the file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "items":
			cfg.Items = items
		case "step":
			cfg.Step = step
		case "total":
			cfg.Total = total
		case "threads":
			cfg.Threads = threads
		case "rate":
			cfg.Rate = rateFlag
		case "item-cost":
			cfg.ItemCostMs = itemCost
		case "message-every":
			cfg.MessageEvery = messageEvery
		case "style":
			cfg.Style = style
		case "overflow":
			cfg.Overflow = overflow
		case "filler":
			cfg.Filler = filler
		case "force":
			cfg.Force = force
		case "debug":
			cfg.Debug = debug
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", strings.ReplaceAll(err.Error(), "\n", "; "))
		return 1
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// run drives the selected reporter through a simulated workload on out.
// Unless cfg.Force is set, nothing but the summary is drawn when out is
// not a terminal.
func run(ctx context.Context, cfg *config.Config, out io.Writer, log *zap.Logger) error {
	overflow, err := cfg.OverflowPolicy()
	if err != nil {
		return err
	}

	quiet := !cfg.Force && !progress.IsTerminal(out)
	if cols, ok := progress.TerminalWidth(out); ok {
		if need := progress.RulerWidth(progress.Scale, cfg.Filler); cols < need {
			log.Warn("terminal narrower than a full ruler; output will wrap",
				zap.Int("columns", cols), zap.Int("ruler", need))
		}
	}

	var r progress.Reporter
	switch {
	case quiet:
		log.Debug("stdout is not a terminal, progress disabled")
		r = (*progress.Tracker)(nil)
	case cfg.Style == config.StyleBar:
		r = progress.NewBar(out, cfg.EffectiveTotal(), "[green]Working[reset]")
	default:
		tr, err := progress.New(cfg.EffectiveTotal(),
			progress.WithWriter(out),
			progress.WithOverflow(overflow),
			progress.WithFiller(cfg.Filler),
			progress.WithSingleLineMessages(),
			progress.WithLogger(log),
		)
		if err != nil {
			return err
		}
		r = tr
	}

	log.Debug("starting run",
		zap.Int("items", cfg.Items),
		zap.Int64("total", cfg.EffectiveTotal()),
		zap.Int("threads", cfg.Threads),
		zap.String("style", cfg.Style))

	stats, err := work.Run(ctx, work.Config{
		Items:        cfg.Items,
		Step:         cfg.Step,
		Threads:      cfg.Threads,
		RatePerSec:   cfg.Rate,
		MessageEvery: cfg.MessageEvery,
		ItemCost:     cfg.ItemCost(),
		Logger:       log,
	}, r)
	if ferr := r.Finish(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Done: %d items, %d messages in %v\n",
		stats.Items, stats.Messages, stats.Elapsed.Round(time.Millisecond))
	return nil
}
