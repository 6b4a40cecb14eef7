package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/reconfgrid/internal/app"
)

// Configuration keys, shared by flags, RECONFGRID_* variables and the
// reconfgrid.yaml file.
const (
	keyConfig      = "config"
	keyTopology    = "topology"
	keyNamespace   = "namespace"
	keyStrategy    = "strategy"
	keyWorkers     = "workers"
	keyBackoff     = "backoff"
	keyDryRun      = "dry-run"
	keyHistory     = "history"
	keyLogLevel    = "log-level"
	keyLogFormat   = "log-format"
	keyMetricsAddr = "metrics-addr"
)

// defaults holds every default value of the command line.
var defaults = map[string]any{
	keyTopology:    "topology",
	keyNamespace:   "",
	keyStrategy:    app.StrategyPhased,
	keyWorkers:     10,
	keyBackoff:     5 * time.Second,
	keyDryRun:      false,
	keyHistory:     "",
	keyLogLevel:    "info",
	keyLogFormat:   "text",
	keyMetricsAddr: "",
}

func addPersistentFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.String(keyConfig, "", "Config file (default ./reconfgrid.yaml when present).")
	f.StringP(keyTopology, "t", defaults[keyTopology].(string), "Path to the topology .hcl file or directory.")
	f.String(keyNamespace, "", "Namespace used in kubectl commands instead of the configuration name.")
	f.String(keyStrategy, defaults[keyStrategy].(string), "Planning strategy: 'phased', 'confluent' or 'linear'.")
	f.Int(keyWorkers, defaults[keyWorkers].(int), "Maximum number of actions running at once.")
	f.Duration(keyBackoff, defaults[keyBackoff].(time.Duration), "Pause after every stop action.")
	f.Bool(keyDryRun, false, "Log the commands instead of running them.")
	f.String(keyHistory, "", "SQLite database recording configuration snapshots.")
	f.String(keyLogLevel, defaults[keyLogLevel].(string), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	f.String(keyLogFormat, defaults[keyLogFormat].(string), "Log output format. Options: 'text' or 'json'.")
	f.String(keyMetricsAddr, "", "Serve /metrics and /health on this address while applying.")
}

// setupViper layers flags over RECONFGRID_* variables over the config file
// over defaults.
func setupViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("RECONFGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("reconfgrid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

func configFrom(v *viper.Viper, script string) app.Config {
	return app.Config{
		ScriptPath:   script,
		TopologyPath: v.GetString(keyTopology),
		Namespace:    v.GetString(keyNamespace),
		Strategy:     strings.ToLower(v.GetString(keyStrategy)),
		Workers:      v.GetInt(keyWorkers),
		Backoff:      v.GetDuration(keyBackoff),
		DryRun:       v.GetBool(keyDryRun),
		HistoryDSN:   v.GetString(keyHistory),
		LogLevel:     strings.ToLower(v.GetString(keyLogLevel)),
		LogFormat:    strings.ToLower(v.GetString(keyLogFormat)),
		MetricsAddr:  v.GetString(keyMetricsAddr),
	}
}
