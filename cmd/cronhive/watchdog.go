package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/patrickspencer/cronhive/internal/runner"
)

type healthStatus struct {
	Status   string `json:"status"`
	LastScan string `json:"last_scan"`
	Jobs     int    `json:"jobs"`
	DeadJobs int    `json:"dead_jobs"`
}

// runWatchdog probes a watch daemon's health endpoint and, when it is
// unreachable or unhealthy, runs --restart-cmd.
func runWatchdog(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("watchdog", pflag.ContinueOnError)
	apiURL := fs.String("api", "http://localhost:8080", "cronhive API URL")
	restartCmd := fs.String("restart-cmd", "", "command to run if unhealthy")
	timeout := fs.Duration("timeout", 5*time.Second, "health check timeout")
	restartTimeout := fs.Duration("restart-timeout", time.Minute, "restart command timeout")
	if code, done := parseFlags(fs, args, stderr); done {
		return code
	}

	status, err := checkHealth(strings.TrimRight(*apiURL, "/")+"/api/v1/health", *timeout)
	if err != nil {
		fmt.Fprintf(stderr, "health check failed: %v\n", err)
		return handleUnhealthy(*restartCmd, *restartTimeout, stdout, stderr)
	}
	fmt.Fprintf(stdout, "healthy: %d jobs, %d dead, last scan %s\n", status.Jobs, status.DeadJobs, status.LastScan)
	return exitOK
}

func checkHealth(url string, timeout time.Duration) (*healthStatus, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var status healthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if status.Status != "ok" {
		return nil, fmt.Errorf("daemon reports %q", status.Status)
	}
	return &status, nil
}

func handleUnhealthy(restartCmd string, timeout time.Duration, stdout, stderr io.Writer) int {
	if restartCmd == "" {
		return exitError
	}

	fmt.Fprintf(stderr, "attempting restart: %s\n", restartCmd)
	res, err := runner.NewRunner().Shell(context.Background(), timeout, restartCmd)
	if res != nil {
		fmt.Fprint(stdout, res.Stdout)
		fmt.Fprint(stderr, res.StderrTail)
	}
	if err != nil {
		fmt.Fprintf(stderr, "restart command failed: %v\n", err)
		return exitError
	}
	if res.ExitCode != 0 {
		fmt.Fprintf(stderr, "restart command exited with status %d\n", res.ExitCode)
		return exitError
	}
	return exitOK
}
