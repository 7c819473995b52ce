package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// Commands share the global logger, so these tests do not run in parallel.

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func runCmd(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeCrontab(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crontab")
	text := "# test jobs\n*/5 * * * * /usr/bin/backup.sh\n0 2 * * * /usr/bin/report.sh\n61 * * * * /usr/bin/broken.sh\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write crontab: %v", err)
	}
	return path
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCmd("frobnicate")
	if code != exitError {
		t.Fatalf("expected exit %d, got %d", exitError, code)
	}
	if !strings.Contains(stderr, "unknown command: frobnicate") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestHelp(t *testing.T) {
	for _, args := range [][]string{{"help"}, {"--help"}} {
		code, stdout, _ := runCmd(args...)
		if code != exitOK || !strings.Contains(stdout, "commands:") {
			t.Fatalf("%v: code=%d stdout=%q", args, code, stdout)
		}
	}
	if code, _, _ := runCmd("validate", "--help"); code != exitOK {
		t.Fatalf("expected subcommand --help to exit 0, got %d", code)
	}
}

func TestValidateCommand(t *testing.T) {
	code, stdout, _ := runCmd("validate", "*/5 * * * *", "@daily")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if stdout != "valid\t*/5 * * * *\nvalid\t@daily\n" {
		t.Fatalf("unexpected output %q", stdout)
	}

	code, stdout, _ = runCmd("validate", "0 0 * * *", "5-2 * * * *")
	if code != exitError {
		t.Fatalf("expected exit 1, got %d", code)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "invalid\t5-2 * * * *\t") {
		t.Fatalf("unexpected output %q", stdout)
	}

	code, stdout, _ = runCmd("validate", "-q", "@bogus")
	if code != exitError || stdout != "" {
		t.Fatalf("quiet: code=%d stdout=%q", code, stdout)
	}
}

func TestNextCommand(t *testing.T) {
	code, stdout, stderr := runCmd("next", "0", "2", "*", "*", "*", "--from", "2024-06-15T03:00:00Z", "-n", "3")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	want := "2024-06-16T02:00:00Z\n2024-06-17T02:00:00Z\n2024-06-18T02:00:00Z\n"
	if stdout != want {
		t.Fatalf("expected %q, got %q", want, stdout)
	}

	if code, _, _ := runCmd("next", "@reboot"); code != exitError {
		t.Fatalf("expected @reboot to be rejected, got %d", code)
	}
	if code, _, _ := runCmd("next", "not a schedule"); code != exitError {
		t.Fatalf("expected invalid expression to be rejected, got %d", code)
	}
}

func TestCheckCommand(t *testing.T) {
	code, stdout, _ := runCmd("check", "*/5 * * * *",
		"--last-run", "2024-06-15T11:00:00Z", "--now", "2024-06-15T12:00:00Z")
	if code != exitDead {
		t.Fatalf("expected exit %d, got %d", exitDead, code)
	}
	if want := "dead: overdue (expected 2024-06-15T11:05:00Z, interval 5m0s, overdue 55m0s)\n"; stdout != want {
		t.Fatalf("expected %q, got %q", want, stdout)
	}

	code, stdout, _ = runCmd("check", "0 2 * * *", "--json",
		"--last-run", "2024-06-15T02:00:00Z", "--now", "2024-06-15T12:00:00Z")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var res checkResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if res.Dead || res.Reason != "on schedule" || res.ExpectedRun == nil || res.Interval != "24h0m0s" {
		t.Fatalf("unexpected result %+v", res)
	}

	if code, _, _ := runCmd("check", "@daily"); code != exitError {
		t.Fatalf("expected missing --last-run to fail, got %d", code)
	}
}

func TestScanCommandText(t *testing.T) {
	path := writeCrontab(t)
	code, stdout, stderr := runCmd("scan", "--scan-file", path,
		"--last-run", "cron-backup=2024-06-15T11:00:00Z",
		"--last-run", "cron-report=2024-06-15T02:00:00Z",
		"--now", "2024-06-15T12:00:00Z", "--fail-on-dead")
	if code != exitDead {
		t.Fatalf("expected exit %d, got %d: %s", exitDead, code, stderr)
	}

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 jobs, got %q", stdout)
	}
	if lines[0] != "CronHive: 3 jobs (2 valid, 1 invalid)" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " DEAD") || !strings.Contains(lines[1], "/usr/bin/backup.sh") {
		t.Fatalf("expected backup job to be dead: %q", lines[1])
	}
	if strings.Contains(lines[2], "DEAD") {
		t.Fatalf("expected report job to be alive: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "  [X]") {
		t.Fatalf("expected invalid mark: %q", lines[3])
	}
}

func TestScanCommandJSON(t *testing.T) {
	path := writeCrontab(t)
	code, stdout, stderr := runCmd("--scan-file", path, "-o", "json")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	var rep struct {
		Total   int `json:"total"`
		Valid   int `json:"valid"`
		Invalid int `json:"invalid"`
		Jobs    []struct {
			Name string `json:"name"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Total != 3 || rep.Valid != 2 || rep.Invalid != 1 || len(rep.Jobs) != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Jobs[0].Name != "cron-backup" {
		t.Fatalf("unexpected first job %q", rep.Jobs[0].Name)
	}
}

func TestScanCommandRejectsBadFlags(t *testing.T) {
	if code, _, _ := runCmd("scan", "-o", "yaml"); code != exitError {
		t.Fatalf("expected bad output format to fail, got %d", code)
	}
	if code, _, _ := runCmd("scan", "--last-run", "missing-equals"); code != exitError {
		t.Fatalf("expected bad --last-run to fail, got %d", code)
	}
	if code, _, _ := runCmd("scan", "--no-such-flag"); code != exitError {
		t.Fatalf("expected unknown flag to fail, got %d", code)
	}
}

func TestWatchdog(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","last_scan":"2024-06-15T12:00:00Z","jobs":3,"dead_jobs":1}`))
	}))
	defer healthy.Close()

	code, stdout, _ := runCmd("watchdog", "--api", healthy.URL)
	if code != exitOK {
		t.Fatalf("expected healthy exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "healthy: 3 jobs, 1 dead") {
		t.Fatalf("unexpected output %q", stdout)
	}

	starting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"starting"}`))
	}))
	defer starting.Close()

	if code, _, _ := runCmd("watchdog", "--api", starting.URL); code != exitError {
		t.Fatalf("expected unhealthy exit 1, got %d", code)
	}
	code, stdout, _ = runCmd("watchdog", "--api", starting.URL, "--restart-cmd", "echo restarted")
	if code != exitOK || !strings.Contains(stdout, "restarted") {
		t.Fatalf("expected restart to run: code=%d stdout=%q", code, stdout)
	}
	if code, _, _ := runCmd("watchdog", "--api", starting.URL, "--restart-cmd", "exit 3"); code != exitError {
		t.Fatalf("expected failing restart to exit 1, got %d", code)
	}
}
