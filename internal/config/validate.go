package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is the dotted JSON path of the
// offending key, e.g. "storage.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Known storage kinds and metrics backends.
var (
	StorageKinds    = []string{"sqlite", "postgres", "mssql", "mysql"}
	MetricsBackends = []string{"none", "pushgateway", "datadog"}
)

// Validate checks c without mutating it.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and skip logs")
	}

	switch kind := strings.TrimSpace(c.Storage.Kind); {
	case kind == "":
		add(SeverityError, "storage.kind", "storage.kind must not be empty")
	case !slices.Contains(StorageKinds, kind):
		add(SeverityWarning, "storage.kind", "unknown storage kind %q; ensure a matching backend is registered", kind)
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		add(SeverityError, "storage.dsn", "storage.dsn must not be empty")
	}

	for path, loc := range map[string]string{
		"sources.catalog": c.Sources.Catalog,
		"sources.hazards": c.Sources.Hazards,
		"sources.reports": c.Sources.Reports,
	} {
		if strings.TrimSpace(loc) == "" {
			add(SeverityError, path, "source location must not be empty")
		}
	}

	if d := c.CSV.Delimiter; d != "" && d != `\t` && utf8.RuneCountInString(d) != 1 {
		add(SeverityError, "csv.delimiter", "delimiter %q must be a single character", d)
	}
	if c.CSV.Comma() == '"' || c.CSV.Comma() == '\n' || c.CSV.Comma() == '\r' {
		add(SeverityError, "csv.delimiter", "delimiter %q cannot be a quote or line break", c.CSV.Delimiter)
	}

	if c.HTTP.MaxRetries < 0 {
		add(SeverityError, "http.max_retries", "max_retries must be >= 0")
	}
	if c.HTTP.Timeout < 0 {
		add(SeverityError, "http.timeout", "timeout must be >= 0")
	}

	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", fmt.Sprintf("invalid Pushgateway URL %q", m.PushgatewayURL)})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires an address"})
		}
	default:
		issues = append(issues, Issue{SeverityWarning, "metrics.backend", fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend)})
	}
	return issues
}

// HasErrors reports whether issues contains an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
