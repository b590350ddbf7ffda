// Package config loads the sqldock configuration from a YAML file merged
// with SQLDOCK_* environment overrides, and derives lifecycle specs from
// it.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/syncromatics/sqldock/database"
	"github.com/syncromatics/sqldock/lifecycle"
	"github.com/syncromatics/sqldock/runtime"
)

// Config is the configuration surface. Every YAML key can be overridden
// by the SQLDOCK_* environment variable of the same name.
type Config struct {
	Engine              string `yaml:"engine"`
	Image               string `yaml:"image"`
	ContainerName       string `yaml:"container_name"`
	HostPort            int    `yaml:"host_port"`
	UseContainerAddress bool   `yaml:"use_container_address"`
	Isolation           string `yaml:"isolation"`
	Pull                bool   `yaml:"pull"`

	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`

	ProvisionUser     string `yaml:"provision_user"`
	ProvisionPassword string `yaml:"provision_password"`
	Role              string `yaml:"role"`
	Database          string `yaml:"database"`

	MaxAttempts       int `yaml:"max_attempts"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`

	MigrationsDir string `yaml:"migrations_dir"`

	// ExecAdmin administers the database through the engine's own client
	// inside the container instead of a host-side connection.
	ExecAdmin bool `yaml:"exec_admin"`
}

// Default returns the configuration used where no file or environment
// names a value.
func Default() Config {
	return Config{
		Engine:            "mssql",
		Pull:              true,
		MaxAttempts:       20,
		RetryDelaySeconds: 15,
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "failed reading config file %s", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "failed parsing config file %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"SQLDOCK_ENGINE":             &c.Engine,
		"SQLDOCK_IMAGE":              &c.Image,
		"SQLDOCK_CONTAINER_NAME":     &c.ContainerName,
		"SQLDOCK_ISOLATION":          &c.Isolation,
		"SQLDOCK_ADMIN_USER":         &c.AdminUser,
		"SQLDOCK_ADMIN_PASSWORD":     &c.AdminPassword,
		"SQLDOCK_PROVISION_USER":     &c.ProvisionUser,
		"SQLDOCK_PROVISION_PASSWORD": &c.ProvisionPassword,
		"SQLDOCK_ROLE":               &c.Role,
		"SQLDOCK_DATABASE":           &c.Database,
		"SQLDOCK_MIGRATIONS_DIR":     &c.MigrationsDir,
	}
	for name, target := range strVars {
		if v, ok := os.LookupEnv(name); ok {
			*target = v
		}
	}

	intVars := map[string]*int{
		"SQLDOCK_HOST_PORT":           &c.HostPort,
		"SQLDOCK_MAX_ATTEMPTS":        &c.MaxAttempts,
		"SQLDOCK_RETRY_DELAY_SECONDS": &c.RetryDelaySeconds,
	}
	for name, target := range intVars {
		if v, ok := os.LookupEnv(name); ok {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s must be an integer", name)
			}
			*target = parsed
		}
	}

	boolVars := map[string]*bool{
		"SQLDOCK_USE_CONTAINER_ADDRESS": &c.UseContainerAddress,
		"SQLDOCK_PULL":                  &c.Pull,
		"SQLDOCK_EXEC_ADMIN":            &c.ExecAdmin,
	}
	for name, target := range boolVars {
		if v, ok := os.LookupEnv(name); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "%s must be a boolean", name)
			}
			*target = parsed
		}
	}

	return nil
}

// Validate checks the configuration before a lifecycle is derived from it.
func (c *Config) Validate() error {
	if _, err := database.ForName(c.Engine); err != nil {
		return err
	}
	if _, err := runtime.ParseIsolation(c.Isolation); err != nil {
		return err
	}
	if c.AdminPassword == "" {
		return errors.New("admin_password is required")
	}
	if c.ProvisionUser != "" && c.ProvisionPassword == "" {
		return errors.New("provision_password is required when provision_user is set")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max_attempts must be at least 1")
	}
	// The orchestrator reads a zero delay as "use the default", so an
	// explicit zero here would silently become fifteen seconds.
	if c.RetryDelaySeconds < 1 {
		return errors.New("retry_delay_seconds must be at least 1")
	}
	if c.HostPort < 0 || c.HostPort > 65535 {
		return errors.New("host_port must be between 0 and 65535")
	}
	return nil
}

// Lifecycle derives the lifecycle spec this configuration describes.
func (c *Config) Lifecycle() (lifecycle.Spec, error) {
	engine, err := database.ForName(c.Engine)
	if err != nil {
		return lifecycle.Spec{}, err
	}

	isolation, err := runtime.ParseIsolation(c.Isolation)
	if err != nil {
		return lifecycle.Spec{}, err
	}

	return lifecycle.Spec{
		Engine:              engine,
		Image:               c.Image,
		Name:                c.ContainerName,
		HostPort:            c.HostPort,
		UseContainerAddress: c.UseContainerAddress,
		Isolation:           isolation,
		Pull:                c.Pull,
		Admin: database.Credential{
			Username: c.AdminUser,
			Password: c.AdminPassword,
		},
		Provision: database.Credential{
			Username: c.ProvisionUser,
			Password: c.ProvisionPassword,
		},
		Role:          c.Role,
		Database:      c.Database,
		MigrationsDir: c.MigrationsDir,
		MaxAttempts:   c.MaxAttempts,
		RetryDelay:    time.Duration(c.RetryDelaySeconds) * time.Second,
	}, nil
}
