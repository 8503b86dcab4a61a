package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// demoConfig holds the demo settings after flags, environment and the
// optional config file are merged.
type demoConfig struct {
	Rows      int           `mapstructure:"rows"`
	Latency   time.Duration `mapstructure:"latency"`
	Lookahead int           `mapstructure:"lookahead"`
	PageSize  int           `mapstructure:"page_size"`
	SaveDelay time.Duration `mapstructure:"save_delay"`
	DataDir   string        `mapstructure:"data_dir"`
	Tenant    string        `mapstructure:"tenant"`
	Offset    int           `mapstructure:"offset"`
	Limit     int           `mapstructure:"limit"`
	Verbose   bool          `mapstructure:"verbose"`
}

// loadConfig parses args. Precedence, highest first: flags, PAGINGDEMO_*
// environment variables, the --config file, defaults.
func loadConfig(errOut io.Writer, args []string) (demoConfig, error) {
	flagSet := flag.NewFlagSet("pagingdemo", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	configPath := flagSet.String("config", "", "Path to a YAML or TOML config file")
	flagSet.Int("rows", 120, "Rows in the fake repository")
	flagSet.Duration("latency", 80*time.Millisecond, "Simulated query latency")
	flagSet.Int("lookahead", 20, "Extra rows read past each request")
	flagSet.Int("page-size", 20, "Initial refresh window")
	flagSet.Duration("save-delay", 0, "Snapshot write debounce")
	flagSet.String("data-dir", "", "Badger directory for durable snapshots (empty keeps them in memory)")
	flagSet.String("tenant", "acme", "Tenant the dataset is scoped to")
	flagSet.Int("offset", 40, "Offset of the deep range request")
	flagSet.Int("limit", 10, "Rows per range request")
	flagSet.BoolP("verbose", "v", false, "Log engine decisions")

	if err := flagSet.Parse(args); err != nil {
		return demoConfig{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("PAGINGDEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	flagSet.VisitAll(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
	})
	if bindErr != nil {
		return demoConfig{}, bindErr
	}

	if *configPath != "" {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return demoConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg demoConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return demoConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Rows < 0 || cfg.Limit < 0 || cfg.Offset < 0 {
		return demoConfig{}, errors.New("--rows, --offset and --limit must be non-negative")
	}
	return cfg, nil
}
