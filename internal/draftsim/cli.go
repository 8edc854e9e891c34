package draftsim

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and logFile. An empty logFile gets a timestamped name.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "draft_sim_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the draft simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Draft Simulator
===============

Fills a draft through the HTTP API with concurrent drafters, each taking the
best available player, then checks the drafted list, the filtered board and
the roster for consistency.

Usage:
  go run ./cmd/draft-sim [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -draft string      Draft id to fill (default "sim")
  -drafters int      Concurrent drafters (default 10)
  -rounds int        Picks per drafter (default 15)
  -window int        Board rows fetched before each pick (default 20)
  -rate float        Pick attempts per second, 0 for unlimited (default 0)
  -timeout duration  HTTP request timeout (default 10s)
  -reset             Clear the draft before the run (default true)
  -output string     Report file (default draft_sim_TIMESTAMP.json)
  -log string        Log file (default draft_sim_TIMESTAMP.log)
  -verbose           Log every pick
  -help              Show this help message

Examples:
  go run ./cmd/draft-sim -drafters 12 -rounds 16
  go run ./cmd/draft-sim -draft league-1 -reset=false -rate 5 -verbose
`)
}
