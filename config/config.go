package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"loadtest-db/bench"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Driver  string
	Primary bench.ConnConfig
	Replica bench.ConnConfig

	// ReplicationRequested mirrors ENABLE_REPLICATION_TEST.
	ReplicationRequested bool

	PoolMaxConns       int
	Runs               int
	ReplicationTrials  int
	ReplicationMaxWait time.Duration
	PollInterval       time.Duration
	Workload           bench.WorkloadOptions
	LogLevel           string
	MetricsAddr        string
	Scenarios          []string
}

// ReplicationEnabled requires both the opt-in flag and a replica host.
func (c Config) ReplicationEnabled() bool {
	return c.ReplicationRequested && c.Replica.Host != ""
}

// RegisterFlags adds the tuning flags. Connection settings are env only.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("driver", DriverPostgres, "Database dialect: postgres or mysql")
	fs.Int("pool-max-conns", 50, "Maximum pooled connections per endpoint")
	fs.Int("runs", 1, "Runs per scenario; the median run is reported when > 1")
	fs.Int("trials", 100, "Replication lag trials")
	fs.Duration("max-wait", 10*time.Second, "Maximum wait for a probe row on the replica")
	fs.Duration("poll-interval", bench.DefaultPollInterval, "Replica poll interval")
	fs.Float64("read-ratio", 0.7, "Share of reads in mixed scenarios")
	fs.Int("batch-size", 10, "Rows per batch insert transaction")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	fs.String("scenarios", "", "Comma-separated scenario name filters")
}

var flagEnv = map[string]string{
	"driver":         "LOADTEST_DRIVER",
	"pool-max-conns": "LOADTEST_POOL_MAX_CONNS",
	"runs":           "LOADTEST_RUNS",
	"trials":         "LOADTEST_REPLICATION_TRIALS",
	"max-wait":       "LOADTEST_REPLICATION_MAX_WAIT",
	"poll-interval":  "LOADTEST_POLL_INTERVAL",
	"read-ratio":     "LOADTEST_READ_RATIO",
	"batch-size":     "LOADTEST_BATCH_SIZE",
	"log-level":      "LOADTEST_LOG_LEVEL",
	"metrics-addr":   "LOADTEST_METRICS_ADDR",
	"scenarios":      "LOADTEST_SCENARIOS",
}

var connEnv = map[string][]string{
	"primary.host":     {"DB_HOST", "PRIMARY_HOST"},
	"primary.port":     {"DB_PORT", "PRIMARY_PORT"},
	"primary.user":     {"DB_USER", "PRIMARY_USER"},
	"primary.password": {"DB_PASSWORD", "PRIMARY_PASSWORD"},
	"primary.database": {"DB_NAME", "PRIMARY_DB"},
	"replica.host":     {"REPLICA_HOST"},
	"replica.port":     {"REPLICA_PORT"},
	"replica.user":     {"REPLICA_USER"},
	"replica.password": {"REPLICA_PASSWORD"},
	"replica.database": {"REPLICA_DB"},
	"replication":      {"ENABLE_REPLICATION_TEST"},
}

// Load resolves the configuration from env and, when fs is non-nil, flags
// registered with RegisterFlags. Flags that were set win over env.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, envs := range connEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, errors.WithStack(err)
		}
	}
	for key, env := range flagEnv {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, errors.WithStack(err)
		}
		if fs == nil {
			continue
		}
		if f := fs.Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, errors.WithStack(err)
			}
		}
	}
	if fs == nil {
		defaults := pflag.NewFlagSet("defaults", pflag.ContinueOnError)
		RegisterFlags(defaults)
		defaults.VisitAll(func(f *pflag.Flag) { v.SetDefault(f.Name, f.DefValue) })
	}

	cfg := Config{
		Driver:             strings.ToLower(strings.TrimSpace(v.GetString("driver"))),
		PoolMaxConns:       v.GetInt("pool-max-conns"),
		Runs:               v.GetInt("runs"),
		ReplicationTrials:  v.GetInt("trials"),
		ReplicationMaxWait: v.GetDuration("max-wait"),
		PollInterval:       v.GetDuration("poll-interval"),
		Workload: bench.WorkloadOptions{
			ReadRatio: v.GetFloat64("read-ratio"),
			BatchSize: v.GetInt("batch-size"),
		},
		LogLevel:    v.GetString("log-level"),
		MetricsAddr: strings.TrimSpace(v.GetString("metrics-addr")),
		Scenarios:   splitList(v.GetString("scenarios")),
	}

	defaultPort := 5432
	if cfg.Driver == DriverMySQL {
		defaultPort = 3306
	}

	var err error
	cfg.Primary, err = connConfig(v, "primary", bench.ConnConfig{
		Host: "localhost", Port: defaultPort, User: "postgres", Database: "postgres",
	})
	if err != nil {
		return Config{}, err
	}
	cfg.Replica, err = connConfig(v, "replica", bench.ConnConfig{
		Port:     defaultPort,
		User:     cfg.Primary.User,
		Password: cfg.Primary.Password,
		Database: cfg.Primary.Database,
	})
	if err != nil {
		return Config{}, err
	}

	cfg.ReplicationRequested = parseFlag(v.GetString("replication"))

	return cfg, cfg.Validate()
}

// connConfig reads <prefix>.* keys, keeping def for anything unset or empty.
func connConfig(v *viper.Viper, prefix string, def bench.ConnConfig) (bench.ConnConfig, error) {
	c := def
	str := func(key string, dst *string) {
		if s := v.GetString(prefix + "." + key); s != "" {
			*dst = s
		}
	}
	str("host", &c.Host)
	str("user", &c.User)
	str("password", &c.Password)
	str("database", &c.Database)

	if s := strings.TrimSpace(v.GetString(prefix + ".port")); s != "" {
		port, err := strconv.Atoi(s)
		if err != nil {
			return c, errors.Wrapf(err, "invalid %s port %q", prefix, s)
		}
		c.Port = port
	}
	return c, nil
}

// parseFlag accepts the strconv.ParseBool spellings. Any other non-empty
// value counts as enabled.
func parseFlag(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return errors.Errorf("unknown driver %q", c.Driver)
	}
	if c.Primary.Port <= 0 {
		return errors.Errorf("primary port must be positive, got %d", c.Primary.Port)
	}
	if c.ReplicationEnabled() && c.Replica.Port <= 0 {
		return errors.Errorf("replica port must be positive, got %d", c.Replica.Port)
	}
	if c.PoolMaxConns <= 0 {
		return errors.Errorf("pool max conns must be positive, got %d", c.PoolMaxConns)
	}
	if c.Runs < 1 {
		return errors.Errorf("runs must be at least 1, got %d", c.Runs)
	}
	if c.ReplicationTrials < 0 {
		return errors.Errorf("replication trials must not be negative, got %d", c.ReplicationTrials)
	}
	if c.ReplicationMaxWait <= 0 {
		return errors.Errorf("replication max wait must be positive, got %s", c.ReplicationMaxWait)
	}
	if c.PollInterval <= 0 {
		return errors.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.Workload.ReadRatio < 0 || c.Workload.ReadRatio > 1 {
		return errors.Errorf("read ratio must be within [0,1], got %g", c.Workload.ReadRatio)
	}
	if c.Workload.BatchSize < 1 {
		return errors.Errorf("batch size must be at least 1, got %d", c.Workload.BatchSize)
	}
	return nil
}
