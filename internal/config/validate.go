package config

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"orderetl/internal/domain"
	"orderetl/internal/logging"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "output.kind",
// "sources.order_item.url").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of p. It does not touch the
// filesystem or the network, and it does not mutate p.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	issues = append(issues, validateSource("sources.order", p.Sources.Order)...)
	issues = append(issues, validateSource("sources.order_item", p.Sources.OrderItem)...)
	issues = append(issues, validateFilter(p.Filter)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateHTTP(p.HTTP)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLog(p.Log)...)

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" && !s.Remote() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path,
			Message:  "either path or url must be set",
		})
	}

	if s.Remote() {
		u, err := url.Parse(s.URL)
		switch {
		case err != nil:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".url",
				Message:  fmt.Sprintf("invalid url: %v", err),
			})
		case u.Scheme != "http" && u.Scheme != "https":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".url",
				Message:  fmt.Sprintf("url scheme %q is not http or https", u.Scheme),
			})
		case u.Host == "":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".url",
				Message:  "url has no host",
			})
		}
		if strings.TrimSpace(s.Path) != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".path",
				Message:  "both path and url are set; url is used",
			})
		}
	}

	if s.Comma != "" {
		r, size := utf8.DecodeRuneInString(s.Comma)
		if size != len(s.Comma) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".comma",
				Message:  fmt.Sprintf("comma %q must be a single character other than quote or newline", s.Comma),
			})
		}
	}

	return issues
}

// validateFilter warns about criteria that can never match. They are not
// errors: an unknown status simply selects nothing.
func validateFilter(f Filter) []Issue {
	var issues []Issue

	if f.Status != nil && !knownStatus(*f.Status) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.status",
			Message:  fmt.Sprintf("status %q matches no orders (known: Pending, Complete, Cancelled)", *f.Status),
		})
	}
	if f.Origin != nil && !knownOrigin(*f.Origin) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.origin",
			Message:  fmt.Sprintf("origin %q matches no orders (known: P, O)", *f.Origin),
		})
	}
	return issues
}

func knownStatus(s string) bool {
	for _, st := range domain.Statuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

func knownOrigin(s string) bool {
	for _, o := range domain.Origins {
		if string(o) == s {
			return true
		}
	}
	return false
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  "output.kind must not be empty",
		})
		return issues
	}

	switch o.Kind {
	case "csv":
		if strings.TrimSpace(o.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dir",
				Message:  "csv output requires a directory",
			})
		}
	case "sqlite":
		if strings.TrimSpace(o.DSN) == "" && strings.TrimSpace(o.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dsn",
				Message:  "sqlite output requires a dsn or a directory for the default database",
			})
		}
	case "postgres", "mysql", "mssql":
		if strings.TrimSpace(o.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dsn",
				Message:  fmt.Sprintf("%s output requires a dsn", o.Kind),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.kind",
			Message:  fmt.Sprintf("unknown output kind %q; ensure a matching backend is registered", o.Kind),
		})
	}

	if o.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; the default batch size is used instead", o.BatchSize),
		})
	}

	return issues
}

func validateHTTP(h HTTP) []Issue {
	var issues []Issue

	if h.Timeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "http.timeout",
			Message:  "timeout must not be negative",
		})
	}
	if h.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "http.max_retries",
			Message:  "max_retries must not be negative",
		})
	}
	if h.InsecureSkipVerify {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "http.insecure_skip_verify",
			Message:  "TLS certificate verification is disabled",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires statsd_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none, prometheus or datadog)", m.Backend),
		})
	}

	if m.Backend != "" && m.Backend != "none" && strings.TrimSpace(m.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.job",
			Message:  "job is empty; the backend default is used",
		})
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue

	if _, err := logging.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  err.Error(),
		})
	}
	if !logging.ValidFormat(l.Format) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q (want text or json)", l.Format),
		})
	}
	return issues
}
