package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beautywiz.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFromArgs_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromArgs(newFlagSet(), envMap(nil), nil)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	want := Defaults()
	if cfg.Storage != want.Storage || cfg.Sources != want.Sources || cfg.Job != "beautywiz" {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, want)
	}
	if cfg.Reset || cfg.Verbose || cfg.IdempotentFeeds {
		t.Fatalf("toggles should default off: %+v", cfg)
	}
	if issues := Validate(*cfg); len(issues) != 0 {
		t.Fatalf("defaults should validate cleanly: %+v", issues)
	}
}

func TestLoadFromArgs_Precedence(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{
		"storage": {"kind": "postgres", "dsn": "postgres://file"},
		"sources": {"catalog": "file-catalog.csv"},
		"http": {"timeout": "5s", "max_retries": 1},
		"idempotent_feeds": true
	}`)

	env := envMap(map[string]string{
		"BEAUTYWIZ_DSN":          "postgres://env",
		"BEAUTYWIZ_HAZARDS_CSV":  "env-hazards.csv",
		"BEAUTYWIZ_HTTP_RETRIES": "7",
	})
	args := []string{"-config", path, "-hazards=flag-hazards.csv", "-reset"}

	cfg, err := LoadFromArgs(newFlagSet(), env, args)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"kind from file", cfg.Storage.Kind, "postgres"},
		{"dsn env over file", cfg.Storage.DSN, "postgres://env"},
		{"catalog from file", cfg.Sources.Catalog, "file-catalog.csv"},
		{"hazards flag over env", cfg.Sources.Hazards, "flag-hazards.csv"},
		{"reports default", cfg.Sources.Reports, "data/cscpopendata.csv"},
		{"timeout from file", time.Duration(cfg.HTTP.Timeout), 5 * time.Second},
		{"retries env over file", cfg.HTTP.MaxRetries, 7},
		{"idempotent from file", cfg.IdempotentFeeds, true},
		{"reset flag", cfg.Reset, true},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadFromArgs_ConfigFromEnv(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{"job": "nightly"}`)
	cfg, err := LoadFromArgs(newFlagSet(), envMap(map[string]string{"BEAUTYWIZ_CONFIG": path}), nil)
	if err != nil {
		t.Fatalf("LoadFromArgs: %v", err)
	}
	if cfg.Job != "nightly" {
		t.Fatalf("Job = %q, want nightly", cfg.Job)
	}
}

func TestLoadFromArgs_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{name: "missing file", args: []string{"-config=/does/not/exist.json"}, wantErr: "config: open"},
		{name: "unknown key", args: []string{"-config=" + writeConfig(t, `{"nope": 1}`)}, wantErr: "unknown field"},
		{name: "bad duration", args: []string{"-config=" + writeConfig(t, `{"http": {"timeout": "soon"}}`)}, wantErr: "duration"},
		{name: "bad bool env", env: map[string]string{"BEAUTYWIZ_IDEMPOTENT_FEEDS": "maybe"}, wantErr: "not a boolean"},
		{name: "bad retries env", env: map[string]string{"BEAUTYWIZ_HTTP_RETRIES": "x"}, wantErr: "HTTP_RETRIES"},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: "config:"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadFromArgs(newFlagSet(), envMap(tt.env), tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		env  string
		want string
	}{
		{nil, "", ""},
		{nil, "env.json", "env.json"},
		{[]string{"-config", "a.json"}, "env.json", "a.json"},
		{[]string{"--config=b.json"}, "", "b.json"},
		{[]string{"-v", "--", "-config", "c.json"}, "", ""},
		{[]string{"-configure"}, "", ""},
	}
	for _, tt := range tests {
		if got := configPath(tt.args, tt.env); got != tt.want {
			t.Errorf("configPath(%q, %q) = %q, want %q", tt.args, tt.env, got, tt.want)
		}
	}
}

func TestCSVComma(t *testing.T) {
	t.Parallel()

	tests := map[string]rune{"": 0, ",": ',', ";": ';', `\t`: '\t', "|": '|'}
	for in, want := range tests {
		if got := (CSV{Delimiter: in}).Comma(); got != want {
			t.Errorf("Comma(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDurationJSON(t *testing.T) {
	t.Parallel()

	var d Duration
	if err := d.UnmarshalJSON([]byte(`1500000000`)); err != nil || time.Duration(d) != 1500*time.Millisecond {
		t.Fatalf("numeric = %v, %v", time.Duration(d), err)
	}
	b, err := Duration(2 * time.Second).MarshalJSON()
	if err != nil || string(b) != `"2s"` {
		t.Fatalf("MarshalJSON = %s, %v", b, err)
	}
}
