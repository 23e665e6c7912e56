package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"adjanitor/lifecycle"
)

// Configuration is everything one sweep invocation needs. All of it arrives
// through the environment (optionally seeded from a .env style file); no
// state is persisted between runs beyond the directory itself, the audit log
// and the optional history database.
type Configuration struct {
	// LDAP bind settings.
	BaseDn   string
	DcFQDN   string
	Username string
	Password string
	PageSize uint32

	// Sweep policy.
	SearchRoots    []string
	SearchScope    lifecycle.Scope
	InactivityDays int
	ExceptionNames []string
	QuarantinePath string
	RetentionDays  int

	// AuditLogPath is the reverse-chronological audit file.
	AuditLogPath string

	// HistoryDsn, when set, enables the Postgres sweep-history store.
	HistoryDsn string
}

// LoadEnvConfig reads configuration from the named env file plus the process
// environment. A missing file is not an error; the environment alone may
// carry everything.
func LoadEnvConfig(configName string) (Configuration, error) {
	if err := godotenv.Load(configName); err != nil && !os.IsNotExist(err) {
		return Configuration{}, fmt.Errorf("loading %s: %w", configName, err)
	}

	cfg := Configuration{
		BaseDn:         os.Getenv("LDAP_BASEDN"),
		DcFQDN:         os.Getenv("LDAP_DCFQDN"),
		Username:       os.Getenv("LDAP_USERNAME"),
		Password:       os.Getenv("LDAP_PASSWORD"),
		QuarantinePath: os.Getenv("SWEEP_QUARANTINE_PATH"),
		AuditLogPath:   os.Getenv("SWEEP_AUDIT_LOG"),
		HistoryDsn:     os.Getenv("SWEEP_HISTORY_DSN"),
		SearchRoots:    splitList(os.Getenv("SWEEP_SEARCH_ROOTS")),
		ExceptionNames: splitList(os.Getenv("SWEEP_EXCEPTIONS")),
	}

	var err error
	if cfg.PageSize, err = parsePageSize(os.Getenv("LDAP_PAGESIZE")); err != nil {
		return Configuration{}, err
	}
	if cfg.SearchScope, err = ParseScope(os.Getenv("SWEEP_SEARCH_SCOPE")); err != nil {
		return Configuration{}, err
	}
	if cfg.InactivityDays, err = parseDays("SWEEP_INACTIVITY_DAYS", 90); err != nil {
		return Configuration{}, err
	}
	if cfg.RetentionDays, err = parseDays("SWEEP_RETENTION_DAYS", 90); err != nil {
		return Configuration{}, err
	}

	if cfg.AuditLogPath == "" {
		cfg.AuditLogPath = "sweep.log"
	}
	return cfg, cfg.validate()
}

func (c Configuration) validate() error {
	switch {
	case c.DcFQDN == "":
		return fmt.Errorf("LDAP_DCFQDN is required")
	case c.BaseDn == "":
		return fmt.Errorf("LDAP_BASEDN is required")
	case len(c.SearchRoots) == 0:
		return fmt.Errorf("SWEEP_SEARCH_ROOTS is required")
	case c.QuarantinePath == "":
		return fmt.Errorf("SWEEP_QUARANTINE_PATH is required")
	case c.InactivityDays <= 0:
		return fmt.Errorf("SWEEP_INACTIVITY_DAYS must be positive")
	case c.RetentionDays <= 0:
		return fmt.Errorf("SWEEP_RETENTION_DAYS must be positive")
	}
	return nil
}

// ParseScope maps the configuration value onto a search scope. Empty input
// defaults to subtree.
func ParseScope(value string) (lifecycle.Scope, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "subtree":
		return lifecycle.ScopeSubtree, nil
	case "onelevel":
		return lifecycle.ScopeOneLevel, nil
	default:
		return 0, fmt.Errorf("SWEEP_SEARCH_SCOPE must be subtree or onelevel, got %q", value)
	}
}

func parsePageSize(value string) (uint32, error) {
	if value == "" {
		return 500, nil
	}
	size, err := strconv.Atoi(value)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("LDAP_PAGESIZE must be a positive integer, got %q", value)
	}
	return uint32(size), nil
}

func parseDays(name string, fallback int) (int, error) {
	value := os.Getenv(name)
	if value == "" {
		return fallback, nil
	}
	days, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, value)
	}
	return days, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
