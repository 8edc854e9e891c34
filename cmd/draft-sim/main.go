package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/draftsim"
)

// Default configuration constants.
const (
	defaultDrafters = 10
	defaultRounds   = 15
	defaultWindow   = 20
	defaultTimeout  = 10 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		draftID  = flag.String("draft", "sim", "Draft id to fill")
		drafters = flag.Int("drafters", defaultDrafters, "Concurrent drafters")
		rounds   = flag.Int("rounds", defaultRounds, "Picks per drafter")
		window   = flag.Int("window", defaultWindow, "Board rows fetched before each pick")
		pickRate = flag.Float64("rate", 0, "Pick attempts per second, 0 for unlimited")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		reset    = flag.Bool("reset", true, "Clear the draft before the run")
		output   = flag.String("output", "", "Report file (default: draft_sim_TIMESTAMP.json)")
		logFile  = flag.String("log", "", "Log file (default: draft_sim_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every pick")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		draftsim.ShowHelp()
		return
	}

	closer, err := draftsim.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunLimit)
	defer cancel()

	cfg := &draftsim.Config{
		BaseURL:  *baseURL,
		DraftID:  *draftID,
		Drafters: *drafters,
		Rounds:   *rounds,
		Window:   *window,
		Rate:     *pickRate,
		Timeout:  *timeout,
		Reset:    *reset,
		Output:   *output,
		Verbose:  *verbose,
	}
	if _, err := draftsim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
