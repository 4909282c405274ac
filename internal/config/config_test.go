package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
api:
  schedule_url: https://appserver/schedule
  employee_url: https://appserver/employee
  observer_url: https://appserver/observer
  coi_url: https://appserver/coi
  koa_url: https://appserver/koa
  kpf_url: https://appserver/kpf
  userinfo_url: https://appserver/userinfo
  insecure_skip_verify: true
archive:
  access_url: https://partner/access
  usercheck_url: https://partner/usercheck
  user: koa
  password: secret
report:
  from: daa@keck.hawaii.edu
  recipients:
    - koaadmin@keck.hawaii.edu
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daa.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.ScheduleURL != "https://appserver/schedule" {
		t.Errorf("schedule_url = %q", cfg.API.ScheduleURL)
	}
	if !cfg.API.InsecureSkipVerify {
		t.Error("insecure_skip_verify not loaded")
	}
	if cfg.Archive.User != "koa" || cfg.Archive.Password != "secret" {
		t.Errorf("archive credentials = %q/%q", cfg.Archive.User, cfg.Archive.Password)
	}
	if len(cfg.Report.Recipients) != 1 {
		t.Errorf("recipients = %v", cfg.Report.Recipients)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Report.SMTPHost != "localhost" {
		t.Errorf("smtp_host = %q, want localhost default", cfg.Report.SMTPHost)
	}
	if len(cfg.Policy.AdminUserIDs) != 2 {
		t.Errorf("admin_userids = %v, want defaults", cfg.Policy.AdminUserIDs)
	}
	if cfg.Policy.KPFAdminUserID != "cpsadmin" {
		t.Errorf("kpf_admin_userid = %q, want cpsadmin default", cfg.Policy.KPFAdminUserID)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML+`
policy:
  admin_userids: [koaadmin]
  skip_instruments: [PCS]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Policy.AdminUserIDs) != 1 || cfg.Policy.AdminUserIDs[0] != "koaadmin" {
		t.Errorf("admin_userids = %v, want [koaadmin]", cfg.Policy.AdminUserIDs)
	}
	if len(cfg.Policy.SkipInstruments) != 1 || cfg.Policy.SkipInstruments[0] != "PCS" {
		t.Errorf("skip_instruments = %v, want [PCS]", cfg.Policy.SkipInstruments)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "api: [not a map")); err == nil {
		t.Fatal("Load succeeded on malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		strip func(*Config)
	}{
		{"missing schedule url", func(c *Config) { c.API.ScheduleURL = "" }},
		{"missing koa url", func(c *Config) { c.API.KoaURL = "" }},
		{"missing access url", func(c *Config) { c.Archive.AccessURL = "" }},
		{"missing credentials", func(c *Config) { c.Archive.User = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.strip(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate passed, want error")
			}
		})
	}
}
