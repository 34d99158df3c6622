package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"schedkit/internal/cronexpr"
	"schedkit/internal/timeutil"
)

// Config is the schedule file. YAML and JSON are both accepted; decoding
// is strict so typos fail at startup instead of silently configuring
// nothing.
type Config struct {
	Log       LogConfig       `json:"log"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Jobs      []JobConfig     `json:"jobs"`
}

type LogConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"file"`
	Mirror struct {
		Enabled  bool   `json:"enabled"`
		MinLevel string `json:"min_level"`
		PerSec   int    `json:"per_sec"`
	} `json:"mirror"`
}

type SchedulerConfig struct {
	// JitterMax caps per-job jitter, e.g. "5m". Empty means no cap.
	JitterMax string `json:"jitter_max"`
}

// JobConfig is one scheduled command. Exactly one of Cron, Every or
// Interval must be set. Every and Interval jobs anchor at StartAt; when
// StartAt is empty the daemon anchors them at startup time.
type JobConfig struct {
	Name     string `json:"name"`
	Cron     string `json:"cron"`
	Every    string `json:"every"`
	Interval string `json:"interval"`
	StartAt  string `json:"start_at"`
	Command  string `json:"command"`
	Timeout  string `json:"timeout"`
	Jitter   string `json:"jitter"`
}

// JobSpec is a JobConfig with every field parsed.
type JobSpec struct {
	Name     string
	Cron     string
	Every    string
	Interval time.Duration
	StartAt  time.Time
	Command  string
	Timeout  time.Duration
	Jitter   time.Duration
}

func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Console = true
	cfg.Log.Mirror.MinLevel = "warn"
	cfg.Log.Mirror.PerSec = 5
	return cfg
}

// Load reads and validates a schedule file. Validation parses every cron
// expression, step and duration, so a bad schedule aborts startup and
// never reaches first fire.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	jsonBytes, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %s (%s): %w", path, format, err)
	}

	if _, err := cfg.JobSpecs(); err != nil {
		return nil, err
	}
	if _, err := cfg.JitterMax(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) JitterMax() (time.Duration, error) {
	return ParseDurationField("scheduler.jitter_max", c.Scheduler.JitterMax)
}

// JobSpecs parses and validates every job entry.
func (c *Config) JobSpecs() ([]JobSpec, error) {
	seen := map[string]bool{}
	specs := make([]JobSpec, 0, len(c.Jobs))
	for i, jc := range c.Jobs {
		path := fmt.Sprintf("jobs[%d]", i)
		spec, err := jc.parse(path)
		if err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("config: %s: duplicate job name %q", path, spec.Name)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

func (jc JobConfig) parse(path string) (JobSpec, error) {
	spec := JobSpec{
		Name:    strings.TrimSpace(jc.Name),
		Command: strings.TrimSpace(jc.Command),
	}
	if spec.Name == "" {
		return JobSpec{}, fmt.Errorf("config: %s: name required", path)
	}
	if spec.Command == "" {
		return JobSpec{}, fmt.Errorf("config: %s (%s): command required", path, spec.Name)
	}

	kinds := 0
	if s := strings.TrimSpace(jc.Cron); s != "" {
		kinds++
		if _, err := cronexpr.Parse(s); err != nil {
			return JobSpec{}, fmt.Errorf("config: %s (%s): %w", path, spec.Name, err)
		}
		spec.Cron = s
	}
	if s := strings.TrimSpace(jc.Every); s != "" {
		kinds++
		if _, _, err := timeutil.ParseEvery(s); err != nil {
			return JobSpec{}, fmt.Errorf("config: %s (%s): %w", path, spec.Name, err)
		}
		spec.Every = s
	}
	if s := strings.TrimSpace(jc.Interval); s != "" {
		kinds++
		d, err := ParseDurationField(path+".interval", s)
		if err != nil {
			return JobSpec{}, err
		}
		if d <= 0 {
			return JobSpec{}, fmt.Errorf("config: %s (%s): interval must be positive", path, spec.Name)
		}
		spec.Interval = d
	}
	if kinds != 1 {
		return JobSpec{}, fmt.Errorf("config: %s (%s): exactly one of cron, every or interval required", path, spec.Name)
	}

	if s := strings.TrimSpace(jc.StartAt); s != "" {
		if spec.Cron != "" {
			return JobSpec{}, fmt.Errorf("config: %s (%s): start_at is not valid with cron", path, spec.Name)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return JobSpec{}, fmt.Errorf("config: %s (%s): invalid start_at %q: %w", path, spec.Name, s, err)
		}
		spec.StartAt = t
	}

	var err error
	if spec.Timeout, err = ParseDurationField(path+".timeout", jc.Timeout); err != nil {
		return JobSpec{}, err
	}
	if spec.Jitter, err = ParseDurationField(path+".jitter", jc.Jitter); err != nil {
		return JobSpec{}, err
	}
	return spec, nil
}
