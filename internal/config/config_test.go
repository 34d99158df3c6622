package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
log:
  level: debug
scheduler:
  jitter_max: 5m
jobs:
  - name: report
    cron: "30 2 l * *"
    command: /usr/local/bin/report.sh
    timeout: 10m
  - name: sync
    every: 2days
    start_at: 2026-01-01T00:00:00Z
    command: rsync -a /src /dst
    jitter: 30s
  - name: probe
    interval: 90s
    command: ping -c1 gateway
`

func TestLoadValid(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeTemp(t, "sched.yaml", validYAML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if !cfg.Log.Console {
		t.Fatal("console default lost on merge")
	}

	jm, err := cfg.JitterMax()
	if err != nil {
		t.Fatal(err)
	}
	if jm != 5*time.Minute {
		t.Fatalf("jitter_max = %v", jm)
	}

	specs, err := cfg.JobSpecs()
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 3 {
		t.Fatalf("specs = %d, want 3", len(specs))
	}
	if specs[0].Cron != "30 2 l * *" || specs[0].Timeout != 10*time.Minute {
		t.Fatalf("report spec = %+v", specs[0])
	}
	if specs[1].Every != "2days" || specs[1].Jitter != 30*time.Second {
		t.Fatalf("sync spec = %+v", specs[1])
	}
	if want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC); !specs[1].StartAt.Equal(want) {
		t.Fatalf("sync start_at = %v", specs[1].StartAt)
	}
	if specs[2].Interval != 90*time.Second {
		t.Fatalf("probe spec = %+v", specs[2])
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeTemp(t, "sched.json",
		`{"jobs":[{"name":"j","cron":"@hourly","command":"true"}]}`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.Jobs) != 1 {
		t.Fatalf("jobs = %d", len(cfg.Jobs))
	}
}

func TestLoadRejectsBadSchedules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown key",
			yaml: "jobs:\n  - name: j\n    cron: '@hourly'\n    command: x\n    retries: 3\n",
			want: "unknown field",
		},
		{
			name: "bad cron",
			yaml: "jobs:\n  - name: j\n    cron: '61 * * * *'\n    command: x\n",
			want: "minute",
		},
		{
			name: "bad every",
			yaml: "jobs:\n  - name: j\n    every: fortnight\n    command: x\n",
			want: "every",
		},
		{
			name: "no rule",
			yaml: "jobs:\n  - name: j\n    command: x\n",
			want: "exactly one",
		},
		{
			name: "two rules",
			yaml: "jobs:\n  - name: j\n    cron: '@hourly'\n    every: day\n    command: x\n",
			want: "exactly one",
		},
		{
			name: "missing command",
			yaml: "jobs:\n  - name: j\n    cron: '@hourly'\n",
			want: "command",
		},
		{
			name: "duplicate names",
			yaml: "jobs:\n  - name: j\n    cron: '@hourly'\n    command: x\n  - name: j\n    cron: '@daily'\n    command: y\n",
			want: "duplicate",
		},
		{
			name: "start_at with cron",
			yaml: "jobs:\n  - name: j\n    cron: '@hourly'\n    start_at: 2026-01-01T00:00:00Z\n    command: x\n",
			want: "start_at",
		},
		{
			name: "bad timeout",
			yaml: "jobs:\n  - name: j\n    cron: '@hourly'\n    command: x\n    timeout: soon\n",
			want: "duration",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, "sched.yaml", tt.yaml))
			if err == nil {
				t.Fatalf("Load accepted bad config:\n%s", tt.yaml)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty = (%v, %v)", d, err)
	}
	if d, err := ParseDurationField("x", "2h30m"); err != nil || d != 2*time.Hour+30*time.Minute {
		t.Fatalf("2h30m = (%v, %v)", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative accepted")
	}
	if _, err := ParseDurationField("x", "five"); err == nil {
		t.Fatal("garbage accepted")
	}
}
