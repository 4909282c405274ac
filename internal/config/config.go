// Package config loads the daa configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound indicates the config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// Config is the full daa configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Archive ArchiveConfig `yaml:"archive"`
	Report  ReportConfig  `yaml:"report"`
	Policy  PolicyConfig  `yaml:"policy"`
}

// APIConfig holds the observatory API endpoints.
type APIConfig struct {
	ScheduleURL string `yaml:"schedule_url"`
	EmployeeURL string `yaml:"employee_url"`
	ObserverURL string `yaml:"observer_url"`
	COIURL      string `yaml:"coi_url"`
	KoaURL      string `yaml:"koa_url"`
	KpfURL      string `yaml:"kpf_url"`
	UserInfoURL string `yaml:"userinfo_url"`

	// InsecureSkipVerify disables TLS verification for the internal
	// appservers' self-signed certificates.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// ArchiveConfig holds the partner registry endpoints and credentials.
type ArchiveConfig struct {
	AccessURL    string `yaml:"access_url"`
	UserCheckURL string `yaml:"usercheck_url"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
}

// ReportConfig controls report delivery.
type ReportConfig struct {
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
	SMTPHost   string   `yaml:"smtp_host"`

	// SendGridKey switches mail delivery from the local relay to the
	// SendGrid API when set.
	SendGridKey string `yaml:"sendgrid_key"`
}

// PolicyConfig holds the roster inclusion rules.
type PolicyConfig struct {
	AdminUserIDs          []string `yaml:"admin_userids"`
	KPFAdminUserID        string   `yaml:"kpf_admin_userid"`
	IgnoredPIEmails       []string `yaml:"ignored_pi_emails"`
	IgnoredObserverEmails []string `yaml:"ignored_observer_emails"`
	SkipInstruments       []string `yaml:"skip_instruments"`
}

// Default returns a config with the fixed policy defaults. Endpoint URLs
// and credentials have no defaults; they come from the file.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			SMTPHost: "localhost",
		},
		Policy: PolicyConfig{
			AdminUserIDs:   []string{"koaadmin", "hireseng"},
			KPFAdminUserID: "cpsadmin",
			IgnoredObserverEmails: []string{
				"keck@hawaii.edu",
			},
		},
	}
}

// Load reads and validates the config file at path, applying defaults for
// unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every required endpoint is configured.
func (c *Config) Validate() error {
	endpoints := map[string]string{
		"api.schedule_url":      c.API.ScheduleURL,
		"api.employee_url":      c.API.EmployeeURL,
		"api.observer_url":      c.API.ObserverURL,
		"api.coi_url":           c.API.COIURL,
		"api.koa_url":           c.API.KoaURL,
		"archive.access_url":    c.Archive.AccessURL,
		"archive.usercheck_url": c.Archive.UserCheckURL,
	}
	for name, v := range endpoints {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Archive.User == "" || c.Archive.Password == "" {
		return errors.New("archive credentials are required")
	}
	return nil
}
