package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	zmq "github.com/wippyai/zmq-runtime"
	"github.com/wippyai/zmq-runtime/engine/loopback"
)

func main() {
	var (
		configFile  = flag.String("config", "", "YAML session file")
		engine      = flag.String("engine", "", "Engine: loopback or libzmq (overrides config)")
		version     = flag.String("version", "", "Loopback engine version, e.g. 2.2 or 3.2.5")
		script      = flag.String("script", "", "Run commands from file instead of stdin")
		interactive = flag.Bool("i", false, "Interactive mode with TUI (needs a terminal)")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()
	zmq.SetLogger(logger)
	loopback.SetLogger(logger)

	cfg, err := loadConfig(*configFile, *engine, *version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal; pipe commands on stdin instead")
			os.Exit(1)
		}
		if err := runInteractive(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger, *script); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path, engine, version string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		c, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if engine != "" {
		cfg.Engine = engine
	}
	if version != "" {
		cfg.Version = version
	}
	return cfg, cfg.validate()
}

func run(cfg *Config, logger *zap.Logger, script string) error {
	sess, err := NewSession(cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	in := os.Stdin
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("zmqsh: engine %s %s; type help, end with ctrl+d\n", cfg.Engine, sess.Version())
	}

	return runScript(in, os.Stdout, sess)
}
